package main

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"os"
	"strings"

	_ "modernc.org/sqlite"

	emailPkg "retain/internal/adapters/email"
	web "retain/internal/adapters/http"
	"retain/internal/adapters/http/perf"
	"retain/internal/adapters/sheets"
	"retain/internal/adapters/storage"
	accountStore "retain/internal/adapters/storage/account"
	expirationStore "retain/internal/adapters/storage/expiration"
	"retain/internal/adapters/storage/sheetrow"
	"retain/internal/application/orchestrators"
)

// version is set at build time via -ldflags "-X main.version=..."
var version = "dev"

func main() {
	// Initialize database with WAL mode, foreign keys, and busy timeout
	dbPath := envOrDefault("RETAIN_DB", "retain.db")
	dsn := dbPath + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(ON)&_pragma=synchronous(NORMAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		log.Fatalf("failed to open database: %v", err)
	}
	defer db.Close()

	// Connection pool settings for WAL mode
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)

	// Health check
	if err := db.Ping(); err != nil {
		log.Fatalf("database unreachable: %v", err)
	}

	if err := storage.InitDB(db); err != nil {
		log.Fatalf("failed to initialize database: %v", err)
	}
	log.Println("Database initialized successfully!")

	// Performance instrumentation: wrap DB with timing, create collector
	collector := perf.NewCollector(perf.DefaultRingSize)
	timedDB := storage.NewTimedDB(db, collector)

	// Row tables: a live Google Sheet when configured, the sqlite mirror otherwise
	var expirationTable, noteTable storage.RowTable
	if spreadsheetID := os.Getenv("RETAIN_SHEETS_SPREADSHEET_ID"); spreadsheetID != "" {
		client, err := sheets.NewClient(context.Background(), sheets.Config{
			SpreadsheetID: spreadsheetID,
			ClientID:      os.Getenv("RETAIN_SHEETS_CLIENT_ID"),
			ClientSecret:  os.Getenv("RETAIN_SHEETS_CLIENT_SECRET"),
			RefreshToken:  os.Getenv("RETAIN_SHEETS_REFRESH_TOKEN"),
		})
		if err != nil {
			log.Fatalf("failed to configure sheets backend: %v", err)
		}
		expirationTable = client.Table(envOrDefault("RETAIN_SHEETS_EXPIRATIONS", "Expirations"))
		noteTable = client.Table(envOrDefault("RETAIN_SHEETS_NOTES", "Notes"))
		log.Println("Row tables backed by Google Sheets")
	} else {
		expirationTable = sheetrow.NewSQLiteStore(timedDB, "expiration_rows")
		noteTable = sheetrow.NewSQLiteStore(timedDB, "note_rows")
		log.Println("Row tables backed by sqlite (set RETAIN_SHEETS_SPREADSHEET_ID for a live sheet)")
	}

	acctStore := accountStore.NewSQLiteStore(timedDB)
	stores := &web.Stores{
		AccountStore:    acctStore,
		ExpirationStore: expirationStore.NewRowTableStore(expirationTable),
		ExpirationTable: expirationTable,
		NoteTable:       noteTable,
	}

	// Seed default admin account if no accounts exist
	adminEmail := envOrDefault("RETAIN_ADMIN_EMAIL", "admin@retain.local")
	adminPassword := envOrDefault("RETAIN_ADMIN_PASSWORD", "change me promptly")
	seedDeps := orchestrators.CreateAccountDeps{AccountStore: acctStore}
	if err := orchestrators.ExecuteSeedAdmin(context.Background(), seedDeps, adminEmail, adminPassword); err != nil {
		log.Fatalf("failed to seed admin: %v", err)
	}

	// Make sure the notes table has its header before the first save
	initDeps := orchestrators.InitNotesDeps{Notes: noteTable}
	if res, err := orchestrators.ExecuteInitNotes(context.Background(), initDeps); err != nil {
		log.Printf("WARNING: notes table not reachable yet: %v", err)
	} else if res.Initialized {
		log.Println("Notes table header written")
	}

	// One-shot CSV import on startup when pointed at an export file
	if csvPath := os.Getenv("RETAIN_EXPIRATIONS_CSV"); csvPath != "" {
		f, err := os.Open(csvPath)
		if err != nil {
			log.Fatalf("failed to open expirations CSV: %v", err)
		}
		importDeps := orchestrators.ImportExpirationsDeps{Expirations: expirationTable}
		result, err := orchestrators.ExecuteImportExpirations(context.Background(),
			orchestrators.ImportExpirationsInput{Reader: f}, importDeps)
		f.Close()
		if err != nil {
			log.Fatalf("failed to import expirations: %v", err)
		}
		log.Printf("Imported %d of %d expiration rows from %s", result.Imported, result.Total, csvPath)
	}

	// Configure email sender for the reminder digest
	resendKey := os.Getenv("RETAIN_RESEND_KEY")
	emailFrom := envOrDefault("RETAIN_RESEND_FROM", "Retain <noreply@retain.example.com>")
	recipients := splitList(os.Getenv("RETAIN_REMINDER_RECIPIENTS"))
	if resendKey != "" {
		web.SetEmailSender(emailPkg.NewResendSender(resendKey, emailFrom), emailFrom, recipients)
		log.Println("Email sender configured (Resend)")
	} else {
		web.SetEmailSender(emailPkg.NewNoopSender(), emailFrom, recipients)
		if os.Getenv("RETAIN_ENV") == "production" {
			log.Println("WARNING: RETAIN_RESEND_KEY is not set, email delivery is DISABLED in production")
		} else {
			log.Println("Email sender configured (noop, set RETAIN_RESEND_KEY for real delivery)")
		}
	}

	// Create HTTP handler with middleware (pass collector for timing)
	mux := web.NewMux("static", stores, collector)

	// Start server
	addr := envOrDefault("RETAIN_ADDR", ":8080")
	log.Printf("Retain %s starting on %s (env=%s)", version, addr, envOrDefault("RETAIN_ENV", "development"))

	if err := http.ListenAndServe(addr, mux); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func splitList(v string) []string {
	var out []string
	for _, s := range strings.Split(v, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
