package orchestrators

import (
	"context"
	"encoding/csv"
	"io"
	"log/slog"
	"strings"

	"retain/internal/adapters/storage"
	domain "retain/internal/domain/expiration"
)

// ImportExpirationsInput carries the CSV stream exported from the membership
// system.
// PRE: Reader is a valid CSV stream with a header row.
// POST: Rows are upserted by unique ID; writes are skipped when DryRun=true.
type ImportExpirationsInput struct {
	Reader io.Reader
	DryRun bool
}

// ImportExpirationsResult holds aggregate counts and per-row errors from an import run.
type ImportExpirationsResult struct {
	Total    int
	Imported int
	Errors   []ImportExpirationsRowError
	DryRun   bool
	Unknown  []string
}

// ImportExpirationsRowError describes a processing error for a single CSV row.
type ImportExpirationsRowError struct {
	Row     int
	Message string
}

// ImportExpirationsDeps holds external dependencies for the import orchestrator.
type ImportExpirationsDeps struct {
	Expirations storage.RowTable
}

// ImportExpirationsValidationError is returned when the CSV structure is invalid.
type ImportExpirationsValidationError struct {
	Message string
}

func (e *ImportExpirationsValidationError) Error() string {
	return e.Message
}

// importColumns maps squashed CSV header labels to positions in the fixed
// A through R record layout.
var importColumns = map[string]int{
	"uniqueid": 0, "id": 0,
	"memberid":       1,
	"firstname":      2,
	"lastname":       3,
	"email":          4,
	"membershipname": 5, "membership": 5,
	"enddate":      6,
	"homelocation": 7, "location": 7,
	"currentusage":      8,
	"secondaryid":       9,
	"orderedat":         10,
	"soldby":            11,
	"membershipid":      12,
	"frozen":            13,
	"paid":              14,
	"status":            15,
	"revenue":           16,
	"assignedassociate": 17, "associate": 17,
}

// ExecuteImportExpirations parses a CSV stream and upserts expiration rows
// keyed by unique ID. Columns are matched by name, not position, so exports
// with reordered or extra columns still import.
// PRE: The CSV has a unique-id column.
// POST: One row per unique ID; rows without a unique ID are reported as errors.
// INVARIANT: When DryRun=true no writes occur.
func ExecuteImportExpirations(ctx context.Context, input ImportExpirationsInput, deps ImportExpirationsDeps) (ImportExpirationsResult, error) {
	cr := csv.NewReader(input.Reader)
	cr.TrimLeadingSpace = true
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		return ImportExpirationsResult{}, err
	}

	colPos := make(map[int]int, len(header)) // csv index -> record index
	var unknownCols []string
	hasKey := false
	for i, h := range header {
		key := squashLabel(h)
		pos, ok := importColumns[key]
		if !ok {
			unknownCols = append(unknownCols, h)
			continue
		}
		colPos[i] = pos
		if pos == 0 {
			hasKey = true
		}
	}
	if !hasKey {
		return ImportExpirationsResult{}, &ImportExpirationsValidationError{Message: "CSV missing required column: unique id"}
	}

	if !input.DryRun {
		if err := deps.Expirations.InitSchema(ctx, domain.CanonicalHeader); err != nil {
			return ImportExpirationsResult{}, err
		}
	}

	result := ImportExpirationsResult{DryRun: input.DryRun, Unknown: unknownCols}
	rowNum := 1

	for {
		row, err := cr.Read()
		if err != nil {
			break
		}
		rowNum++
		result.Total++

		cells := make([]string, domain.NumColumns)
		for i, pos := range colPos {
			if i < len(row) {
				cells[pos] = strings.TrimSpace(row[i])
			}
		}
		rec := domain.ParseRow(cells)
		if rec.UniqueID == "" {
			result.Errors = append(result.Errors, ImportExpirationsRowError{Row: rowNum, Message: "unique id is required"})
			continue
		}

		if input.DryRun {
			result.Imported++
			continue
		}
		if err := deps.Expirations.UpsertByKey(ctx, rec.UniqueID, rec.Row()); err != nil {
			slog.Error("expirations_import_save_failed", "row", rowNum, "key", rec.UniqueID, "err", err)
			result.Errors = append(result.Errors, ImportExpirationsRowError{Row: rowNum, Message: "save failed (see server log)"})
			continue
		}
		result.Imported++
	}

	slog.Info("expirations_import",
		"dry_run", input.DryRun,
		"total", result.Total,
		"imported", result.Imported,
		"errors", len(result.Errors),
	)

	return result, nil
}

// squashLabel lowercases a header label and strips everything but letters and
// digits, so "End Date", "end_date" and "EndDate" all match.
func squashLabel(label string) string {
	var b strings.Builder
	for _, r := range label {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r >= 'A' && r <= 'Z':
			b.WriteRune(r + ('a' - 'A'))
		}
	}
	return b.String()
}
