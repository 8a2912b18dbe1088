// Package sheets backs the row tables with a live Google Sheets spreadsheet
// through the values REST API. It speaks plain HTTP rather than the full API
// client: the dashboard only ever reads whole sheets and writes single rows.
package sheets

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/oauth2"

	"retain/internal/adapters/storage"
)

const defaultBaseURL = "https://sheets.googleapis.com"

// googleTokenURL is the standard OAuth2 token endpoint for Google APIs.
const googleTokenURL = "https://oauth2.googleapis.com/token"

var (
	ErrMissingSpreadsheetID = errors.New("sheets: spreadsheet id is not configured")
	ErrMissingCredentials   = errors.New("sheets: oauth client id, secret and refresh token are required")
	ErrUnauthorized         = errors.New("sheets: credentials were rejected")
)

// Config holds everything needed to reach one spreadsheet.
type Config struct {
	SpreadsheetID string
	ClientID      string
	ClientSecret  string
	RefreshToken  string

	// TokenURL and BaseURL are overridable for tests.
	TokenURL string
	BaseURL  string
}

// Client is an authenticated handle on one spreadsheet.
type Client struct {
	http    *http.Client
	baseURL string
	id      string
}

// NewClient validates the configuration and builds the OAuth2-backed HTTP
// client. Configuration problems surface here, before any network call.
// PRE: cfg carries a spreadsheet id and a full refresh-token credential set
// POST: Returns a client whose tokens refresh themselves on expiry
func NewClient(ctx context.Context, cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.SpreadsheetID) == "" {
		return nil, ErrMissingSpreadsheetID
	}
	if cfg.ClientID == "" || cfg.ClientSecret == "" || cfg.RefreshToken == "" {
		return nil, ErrMissingCredentials
	}

	tokenURL := cfg.TokenURL
	if tokenURL == "" {
		tokenURL = googleTokenURL
	}
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}

	oc := oauth2.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		Endpoint:     oauth2.Endpoint{TokenURL: tokenURL},
	}
	ts := oc.TokenSource(ctx, &oauth2.Token{RefreshToken: cfg.RefreshToken})

	hc := oauth2.NewClient(ctx, ts)
	hc.Timeout = 30 * time.Second

	return &Client{http: hc, baseURL: baseURL, id: cfg.SpreadsheetID}, nil
}

// Table returns the named sheet as a storage.RowTable.
func (c *Client) Table(sheet string) *Table {
	return &Table{client: c, sheet: sheet}
}

// Table is one sheet within the spreadsheet. Row 1 is the header; data rows
// start at row 2. The key lives in column A.
type Table struct {
	client *Client
	sheet  string
}

var _ storage.RowTable = (*Table)(nil)

// List fetches the whole sheet.
func (t *Table) List(ctx context.Context) ([]string, [][]string, error) {
	var resp struct {
		Values [][]string `json:"values"`
	}
	if err := t.client.call(ctx, http.MethodGet, t.rangeRef(""), nil, &resp); err != nil {
		return nil, nil, err
	}
	if len(resp.Values) == 0 {
		return nil, nil, nil
	}
	return resp.Values[0], resp.Values[1:], nil
}

// UpsertByKey overwrites the key's row in place, reuses the lowest blanked
// slot, and appends when neither exists.
func (t *Table) UpsertByKey(ctx context.Context, key string, row []string) error {
	_, rows, err := t.List(ctx)
	if err != nil {
		return err
	}

	target, blank := 0, 0
	for i, r := range rows {
		if len(r) > 0 && r[0] == key {
			target = i + 2
			break
		}
		if blank == 0 && rowIsBlank(r) {
			blank = i + 2
		}
	}
	if target == 0 {
		target = blank
	}
	if target == 0 {
		return t.append(ctx, row)
	}
	return t.putRow(ctx, target, row)
}

// ClearByKey blanks every row holding the key, keeping the slots in place.
func (t *Table) ClearByKey(ctx context.Context, key string) error {
	_, rows, err := t.List(ctx)
	if err != nil {
		return err
	}
	for i, r := range rows {
		if len(r) == 0 || r[0] != key {
			continue
		}
		if err := t.putRow(ctx, i+2, make([]string, len(r))); err != nil {
			return err
		}
	}
	return nil
}

// InitSchema writes the header into row 1.
func (t *Table) InitSchema(ctx context.Context, header []string) error {
	return t.putRow(ctx, 1, header)
}

func (t *Table) append(ctx context.Context, row []string) error {
	ref := t.rangeRef("") + ":append?valueInputOption=RAW"
	return t.client.call(ctx, http.MethodPost, ref, valueBody(row), nil)
}

func (t *Table) putRow(ctx context.Context, rowNum int, row []string) error {
	ref := t.rangeRef(fmt.Sprintf("A%d", rowNum)) + "?valueInputOption=RAW"
	return t.client.call(ctx, http.MethodPut, ref, valueBody(row), nil)
}

// rangeRef builds the URL path segment for this sheet, optionally anchored at
// a cell. Sheet names are quoted so names with spaces survive.
func (t *Table) rangeRef(cell string) string {
	ref := "'" + strings.ReplaceAll(t.sheet, "'", "''") + "'"
	if cell != "" {
		ref += "!" + cell
	}
	return url.PathEscape(ref)
}

func valueBody(row []string) []byte {
	body, _ := json.Marshal(map[string]any{"values": [][]string{row}})
	return body
}

func rowIsBlank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

// call performs one API request. Provider errors are passed through verbatim
// in the returned error; there are no retries, the operator sees exactly what
// the API said.
func (c *Client) call(ctx context.Context, method, ref string, body []byte, out any) error {
	u := fmt.Sprintf("%s/v4/spreadsheets/%s/values/%s", c.baseURL, url.PathEscape(c.id), ref)

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, u, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("sheets: request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("%w: %s", ErrUnauthorized, strings.TrimSpace(string(msg)))
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("sheets: %s: %s", resp.Status, strings.TrimSpace(string(msg)))
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
