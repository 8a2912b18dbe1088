package web

import (
	"net/http"
	"strings"

	"retain/internal/adapters/http/middleware"
	"retain/internal/application/orchestrators"
)

// handleLogin handles POST /login for both form submissions and JSON clients.
func handleLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != "POST" {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	isForm := strings.HasPrefix(r.Header.Get("Content-Type"), "application/x-www-form-urlencoded")

	var input orchestrators.LoginInput
	if isForm {
		if err := r.ParseForm(); err != nil {
			http.Error(w, "Invalid form submission", http.StatusBadRequest)
			return
		}
		input.Email = r.FormValue("Email")
		input.Password = r.FormValue("Password")
	} else {
		var req struct {
			Email    string `json:"email"`
			Password string `json:"password"`
		}
		if err := strictDecode(r, &req); err != nil {
			http.Error(w, "Invalid request", http.StatusBadRequest)
			return
		}
		input.Email = req.Email
		input.Password = req.Password
	}

	deps := orchestrators.LoginDeps{AccountStore: stores.AccountStore}
	result, err := orchestrators.ExecuteLogin(r.Context(), input, deps)
	if err != nil {
		http.Error(w, err.Error(), http.StatusUnauthorized)
		return
	}

	token, err := sessions.Create(result.AccountID, result.Email, result.Role, result.PasswordChangeRequired)
	if err != nil {
		internalError(w, err)
		return
	}
	middleware.SetSessionCookie(w, token)

	if isForm {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	writeJSON(w, map[string]any{
		"email":                  result.Email,
		"role":                   result.Role,
		"passwordChangeRequired": result.PasswordChangeRequired,
	})
}

// handleLogout handles POST /logout
func handleLogout(w http.ResponseWriter, r *http.Request) {
	if r.Method != "POST" {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	cookie, err := r.Cookie("retain_session")
	if err == nil {
		sessions.Delete(cookie.Value)
	}

	middleware.ClearSessionCookie(w)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// handleChangePassword handles POST /change-password
func handleChangePassword(w http.ResponseWriter, r *http.Request) {
	if r.Method != "POST" {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	session, ok := requireSession(w, r)
	if !ok {
		return
	}

	var req struct {
		CurrentPassword string `json:"currentPassword"`
		NewPassword     string `json:"newPassword"`
	}
	if strings.HasPrefix(r.Header.Get("Content-Type"), "application/x-www-form-urlencoded") {
		if err := r.ParseForm(); err != nil {
			http.Error(w, "Form error", http.StatusBadRequest)
			return
		}
		req.CurrentPassword = r.FormValue("CurrentPassword")
		req.NewPassword = r.FormValue("NewPassword")
	} else if err := strictDecode(r, &req); err != nil {
		http.Error(w, "Invalid request", http.StatusBadRequest)
		return
	}

	input := orchestrators.ChangePasswordInput{
		AccountID:       session.AccountID,
		CurrentPassword: req.CurrentPassword,
		NewPassword:     req.NewPassword,
	}
	deps := orchestrators.ChangePasswordDeps{AccountStore: stores.AccountStore}
	if err := orchestrators.ExecuteChangePassword(r.Context(), input, deps); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	// Clear the forced-change flag on the live session
	cookie, err := r.Cookie("retain_session")
	if err == nil {
		session.PasswordChangeRequired = false
		sessions.Update(cookie.Value, session)
	}

	writeJSON(w, map[string]any{"ok": true})
}
