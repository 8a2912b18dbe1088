package web

import "net/http"

// registerRoutes wires every handler onto the mux. Prefix routes carry their
// key as the trailing path segment.
func registerRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/login", handleLogin)
	mux.HandleFunc("/logout", handleLogout)
	mux.HandleFunc("/change-password", handleChangePassword)

	mux.HandleFunc("/api/expirations", handleExpirations)
	mux.HandleFunc("/api/expirations/import", handleImportExpirations)
	mux.HandleFunc("/api/expirations/", handleExpirationDetail)
	mux.HandleFunc("/api/notes", handleSaveNote)
	mux.HandleFunc("/api/notes/init", handleInitNotes)
	mux.HandleFunc("/api/notes/", handleNoteByKey)
	mux.HandleFunc("/api/metrics", handleMetrics)
	mux.HandleFunc("/api/export.csv", handleExportCSV)
	mux.HandleFunc("/api/options", handleOptions)
	mux.HandleFunc("/api/reminders/send", handleSendReminders)
	mux.HandleFunc("/api/admin/perf", handlePerfStats)
}
