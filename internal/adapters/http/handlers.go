package web

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/yuin/goldmark"
	goldmarkHTML "github.com/yuin/goldmark/renderer/html"

	"retain/internal/adapters/email"
	"retain/internal/adapters/http/middleware"
	"retain/internal/application/exports"
	"retain/internal/application/listutil"
	"retain/internal/application/orchestrators"
	"retain/internal/application/projections"
	"retain/internal/application/reconcile"
	noteDomain "retain/internal/domain/note"
)

// timeNow is a variable for testability.
var timeNow = time.Now

// mdRenderer is a goldmark instance configured for safe HTML output.
// Raw HTML in markdown input is escaped (WithUnsafe is NOT set), preventing XSS.
var mdRenderer = goldmark.New(
	goldmark.WithRendererOptions(
		goldmarkHTML.WithHardWraps(),
	),
)

// renderMarkdown converts a markdown cell to HTML, falling back to the raw
// text on conversion failure.
func renderMarkdown(md string) string {
	var buf bytes.Buffer
	if err := mdRenderer.Convert([]byte(md), &buf); err != nil {
		return md
	}
	return buf.String()
}

// internalError logs the real error and returns a generic message to the client.
// This prevents leaking internal details per OWASP A05.
func internalError(w http.ResponseWriter, err error) {
	slog.Error("internal_error", "error", err.Error())
	http.Error(w, "internal server error", http.StatusInternalServerError)
}

// strictDecode decodes JSON from the request body, rejecting unknown fields.
func strictDecode(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

// requireSession rejects unauthenticated API requests.
func requireSession(w http.ResponseWriter, r *http.Request) (middleware.Session, bool) {
	session, ok := middleware.GetSessionFromContext(r.Context())
	if !ok {
		http.Error(w, "authentication required", http.StatusUnauthorized)
		return middleware.Session{}, false
	}
	return session, true
}

// requireAdmin rejects non-admin API requests.
func requireAdmin(w http.ResponseWriter, r *http.Request) bool {
	if _, ok := requireSession(w, r); !ok {
		return false
	}
	if !middleware.IsAdmin(r.Context()) {
		http.Error(w, "Forbidden", http.StatusForbidden)
		return false
	}
	return true
}

// expirationSortColumns are the sortable columns of the expiration list.
var expirationSortColumns = []string{"name", "email", "membership", "endDate", "priority"}

// expirationFilterKeys are the substring filter parameters.
var expirationFilterKeys = []string{"name", "email", "membership", "location", "associate", "tags"}

// expirationSetKeys are the exact-set filter parameters.
var expirationSetKeys = []string{"status", "note_status", "stage", "priority"}

func filterFromParams(lp listutil.ListParams) projections.Filter {
	return projections.Filter{
		Search:         lp.Search,
		MemberName:     lp.Filters["name"],
		Email:          lp.Filters["email"],
		MembershipName: lp.Filters["membership"],
		HomeLocation:   lp.Filters["location"],
		AssociateName:  lp.Filters["associate"],
		Tags:           lp.Filters["tags"],
		MemberStatus:   lp.Sets["status"],
		NoteStatus:     lp.Sets["note_status"],
		Stage:          lp.Sets["stage"],
		Priority:       lp.Sets["priority"],
		EndDateFrom:    lp.DateFrom,
		EndDateTo:      lp.DateTo,
	}
}

func expirationDeps() projections.GetExpirationsDeps {
	return projections.GetExpirationsDeps{
		Expirations: stores.ExpirationStore,
		Notes:       stores.NoteTable,
	}
}

// handleExpirations handles GET /api/expirations
func handleExpirations(w http.ResponseWriter, r *http.Request) {
	if r.Method != "GET" {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if _, ok := requireSession(w, r); !ok {
		return
	}

	lp := listutil.ParseListParams(r.URL.Query(), expirationSortColumns, expirationFilterKeys, expirationSetKeys)
	query := projections.GetExpirationsQuery{
		Filter:  filterFromParams(lp),
		GroupBy: r.URL.Query().Get("group_by"),
		Sort:    lp.Sort,
		Dir:     lp.Dir,
		Page:    lp.Page,
		PerPage: lp.PerPage,
		Now:     timeNow(),
	}

	result, err := projections.QueryGetExpirations(r.Context(), query, expirationDeps())
	if err != nil {
		internalError(w, err)
		return
	}
	writeJSON(w, result)
}

// expirationDetail is the single-record response with rendered markdown.
type expirationDetail struct {
	reconcile.Combined
	RemarksHTML       string `json:"remarksHtml"`
	InternalNotesHTML string `json:"internalNotesHtml"`
}

// handleExpirationDetail handles GET /api/expirations/{key}
func handleExpirationDetail(w http.ResponseWriter, r *http.Request) {
	if r.Method != "GET" {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if _, ok := requireSession(w, r); !ok {
		return
	}

	key := strings.TrimPrefix(r.URL.Path, "/api/expirations/")
	if key == "" {
		http.Error(w, "missing id", http.StatusBadRequest)
		return
	}

	result, err := projections.QueryGetExpirations(r.Context(), projections.GetExpirationsQuery{All: true, Now: timeNow()}, expirationDeps())
	if err != nil {
		internalError(w, err)
		return
	}
	for _, rec := range result.Records {
		if rec.UniqueID == key {
			writeJSON(w, expirationDetail{
				Combined:          rec,
				RemarksHTML:       renderMarkdown(rec.Note.Remarks),
				InternalNotesHTML: renderMarkdown(rec.Note.InternalNotes),
			})
			return
		}
	}
	http.Error(w, "not found", http.StatusNotFound)
}

// handleMetrics handles GET /api/metrics
func handleMetrics(w http.ResponseWriter, r *http.Request) {
	if r.Method != "GET" {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if _, ok := requireSession(w, r); !ok {
		return
	}

	metrics, err := projections.QueryGetDashboardMetrics(r.Context(),
		projections.GetDashboardMetricsQuery{Now: timeNow()},
		projections.GetDashboardMetricsDeps{Expirations: stores.ExpirationStore})
	if err != nil {
		internalError(w, err)
		return
	}
	writeJSON(w, metrics)
}

// handleExportCSV handles GET /api/export.csv with the same filters as the list.
func handleExportCSV(w http.ResponseWriter, r *http.Request) {
	if r.Method != "GET" {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if _, ok := requireSession(w, r); !ok {
		return
	}

	lp := listutil.ParseListParams(r.URL.Query(), expirationSortColumns, expirationFilterKeys, expirationSetKeys)
	query := projections.GetExpirationsQuery{
		Filter: filterFromParams(lp),
		Sort:   lp.Sort,
		Dir:    lp.Dir,
		All:    true,
		Now:    timeNow(),
	}
	result, err := projections.QueryGetExpirations(r.Context(), query, expirationDeps())
	if err != nil {
		internalError(w, err)
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="expirations-export.csv"`)
	if err := exports.WriteCSV(w, result.Records); err != nil {
		slog.Error("csv_export_failed", "error", err.Error())
	}
}

// handleOptions handles GET /api/options: the dropdown values the UI renders.
func handleOptions(w http.ResponseWriter, r *http.Request) {
	if r.Method != "GET" {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, map[string]any{
		"stages":     noteDomain.Stages,
		"statuses":   noteDomain.Statuses,
		"priorities": noteDomain.Priorities,
		"groupings":  projections.GroupingOptions,
	})
}

// handlePerfStats handles GET /api/admin/perf (admin only): a snapshot of
// request and query timings over the trailing hour.
func handlePerfStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != "GET" {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if !requireAdmin(w, r) {
		return
	}
	writeJSON(w, perfCollector.Snapshot(timeNow().Add(-time.Hour), 20))
}

// noteInFlight guards against concurrent saves of the same key. The row table
// has no transactions, so two interleaved read-merge-write cycles on one key
// could drop one side's changes.
var (
	noteInFlightMu sync.Mutex
	noteInFlight   = make(map[string]bool)
)

func acquireNoteLock(key string) bool {
	noteInFlightMu.Lock()
	defer noteInFlightMu.Unlock()
	if noteInFlight[key] {
		return false
	}
	noteInFlight[key] = true
	return true
}

func releaseNoteLock(key string) {
	noteInFlightMu.Lock()
	defer noteInFlightMu.Unlock()
	delete(noteInFlight, key)
}

// saveNoteRequest is the JSON body of POST /api/notes.
type saveNoteRequest struct {
	ExpirationID  string                     `json:"expirationId"`
	AssociateName string                     `json:"associateName"`
	Stage         string                     `json:"stage"`
	CustomStage   string                     `json:"customStage"`
	Status        string                     `json:"status"`
	Priority      string                     `json:"priority"`
	FollowUps     []noteDomain.FollowUpEntry `json:"followUps"`
	Remarks       string                     `json:"remarks"`
	InternalNotes string                     `json:"internalNotes"`
	Tags          []string                   `json:"tags"`
	BaseVersion   int                        `json:"baseVersion"`
}

// handleSaveNote handles POST /api/notes
func handleSaveNote(w http.ResponseWriter, r *http.Request) {
	if r.Method != "POST" {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	session, ok := requireSession(w, r)
	if !ok {
		return
	}

	var req saveNoteRequest
	if err := strictDecode(r, &req); err != nil {
		http.Error(w, "Invalid request", http.StatusBadRequest)
		return
	}

	key := strings.TrimSpace(req.ExpirationID)
	if !acquireNoteLock(key) {
		http.Error(w, "another save for this member is in progress", http.StatusConflict)
		return
	}
	defer releaseNoteLock(key)

	input := orchestrators.SaveNoteInput{
		ExpirationID:  req.ExpirationID,
		AssociateName: req.AssociateName,
		Stage:         req.Stage,
		CustomStage:   req.CustomStage,
		Status:        req.Status,
		Priority:      req.Priority,
		FollowUps:     req.FollowUps,
		Remarks:       req.Remarks,
		InternalNotes: req.InternalNotes,
		Tags:          req.Tags,
		BaseVersion:   req.BaseVersion,
	}
	if input.AssociateName == "" {
		input.AssociateName = session.Email
	}

	saved, err := orchestrators.ExecuteSaveNote(r.Context(), input, orchestrators.SaveNoteDeps{Notes: stores.NoteTable})
	if err != nil {
		switch {
		case errors.Is(err, orchestrators.ErrVersionConflict):
			http.Error(w, err.Error(), http.StatusConflict)
		case errors.Is(err, noteDomain.ErrEmptyKey),
			errors.Is(err, noteDomain.ErrEmptyStatus),
			errors.Is(err, noteDomain.ErrEmptyCustomReason):
			http.Error(w, err.Error(), http.StatusBadRequest)
		default:
			internalError(w, err)
		}
		return
	}
	writeJSON(w, saved)
}

// handleNoteByKey handles DELETE /api/notes/{key}
func handleNoteByKey(w http.ResponseWriter, r *http.Request) {
	if r.Method != "DELETE" {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if _, ok := requireSession(w, r); !ok {
		return
	}

	key := strings.TrimPrefix(r.URL.Path, "/api/notes/")
	input := orchestrators.DeleteNoteInput{ExpirationID: key}
	if err := orchestrators.ExecuteDeleteNote(r.Context(), input, orchestrators.DeleteNoteDeps{Notes: stores.NoteTable}); err != nil {
		if errors.Is(err, orchestrators.ErrEmptyDeleteKey) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		internalError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleInitNotes handles POST /api/notes/init (admin only)
func handleInitNotes(w http.ResponseWriter, r *http.Request) {
	if r.Method != "POST" {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if !requireAdmin(w, r) {
		return
	}

	result, err := orchestrators.ExecuteInitNotes(r.Context(), orchestrators.InitNotesDeps{Notes: stores.NoteTable})
	if err != nil {
		internalError(w, err)
		return
	}
	writeJSON(w, result)
}

// handleImportExpirations handles POST /api/expirations/import (admin only).
// The body is the raw CSV; ?dry_run=1 validates without writing.
func handleImportExpirations(w http.ResponseWriter, r *http.Request) {
	if r.Method != "POST" {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if !requireAdmin(w, r) {
		return
	}

	input := orchestrators.ImportExpirationsInput{
		Reader: r.Body,
		DryRun: r.URL.Query().Get("dry_run") == "1",
	}
	result, err := orchestrators.ExecuteImportExpirations(r.Context(), input,
		orchestrators.ImportExpirationsDeps{Expirations: stores.ExpirationTable})
	if err != nil {
		var ve *orchestrators.ImportExpirationsValidationError
		if errors.As(err, &ve) {
			http.Error(w, ve.Message, http.StatusBadRequest)
			return
		}
		internalError(w, err)
		return
	}
	writeJSON(w, result)
}

// handleSendReminders handles POST /api/reminders/send (admin only)
func handleSendReminders(w http.ResponseWriter, r *http.Request) {
	if r.Method != "POST" {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if !requireAdmin(w, r) {
		return
	}

	sender := emailSender
	if sender == nil {
		sender = email.NewNoopSender()
	}
	input := orchestrators.SendRemindersInput{
		Recipients: reminderRecipients,
		From:       emailFromAddress,
	}
	result, err := orchestrators.ExecuteSendReminders(r.Context(), input, orchestrators.SendRemindersDeps{
		Expirations: stores.ExpirationStore,
		Notes:       stores.NoteTable,
		Sender:      sender,
	})
	if err != nil {
		if errors.Is(err, orchestrators.ErrNoRecipients) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		internalError(w, err)
		return
	}
	writeJSON(w, result)
}
