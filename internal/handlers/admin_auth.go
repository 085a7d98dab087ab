package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/overdrive/techfest/internal/apiclient"
	"github.com/overdrive/techfest/internal/models"
	"github.com/overdrive/techfest/internal/views"
)

// AdminAPI is the admin half of the registration API client.
type AdminAPI interface {
	ListRegistrations(ctx context.Context, secret string) ([]models.StoredRegistration, error)
	Export(ctx context.Context, secret string) ([]byte, error)
}

type adminSecretKey struct{}

func adminSecret(ctx context.Context) string {
	s, _ := ctx.Value(adminSecretKey{}).(string)
	return s
}

// RequireAdmin is middleware: blocks access unless an admin secret is stored.
// The secret itself is checked by the API on every call.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c, err := r.Cookie(adminCookieName)
		if err != nil || c.Value == "" {
			http.Redirect(w, r, "/admin?next="+url.QueryEscape(r.URL.RequestURI()), http.StatusSeeOther)
			return
		}
		ctx := context.WithValue(r.Context(), adminSecretKey{}, c.Value)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// GET /admin
func AdminLoginForm(v *views.Views) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if c, err := r.Cookie(adminCookieName); err == nil && c.Value != "" {
			http.Redirect(w, r, "/admin/dashboard", http.StatusSeeOther)
			return
		}
		renderLogin(w, r, v, http.StatusOK, r.URL.Query().Get("next"), MakeFlash(r, "", ""))
	}
}

// POST /admin
// The secret is tried against the list endpoint before it is stored.
func AdminLoginSubmit(v *views.Views, api AdminAPI) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		secret := strings.TrimSpace(r.FormValue("secret"))
		next := safeNext(r.FormValue("next"))
		if secret == "" {
			renderLogin(w, r, v, http.StatusBadRequest, next, &Flash{Kind: "error", Text: errText["missing_secret"]})
			return
		}

		if _, err := api.ListRegistrations(r.Context(), secret); err != nil {
			var authErr *apiclient.AuthorizationError
			if errors.As(err, &authErr) {
				slog.WarnContext(r.Context(), "admin login rejected")
				renderLogin(w, r, v, http.StatusUnauthorized, next, &Flash{Kind: "error", Text: "Access denied."})
				return
			}
			slog.ErrorContext(r.Context(), "admin login check failed", "error", err)
			renderLogin(w, r, v, http.StatusBadGateway, next, &Flash{Kind: "error", Text: apiFailureText(err)})
			return
		}

		setAdminCookie(w, secret)
		http.Redirect(w, r, next, http.StatusSeeOther)
	}
}

// POST /admin/logout
func AdminLogout(w http.ResponseWriter, r *http.Request) {
	clearAdminCookie(w)
	http.Redirect(w, r, "/admin?ok=logged_out", http.StatusSeeOther)
}

// safeNext keeps post-login redirects inside the admin area.
func safeNext(next string) string {
	if strings.HasPrefix(next, "/admin/") && !strings.HasPrefix(next, "//") {
		return next
	}
	return "/admin/dashboard"
}

func apiFailureText(err error) string {
	var httpErr *apiclient.HTTPError
	if errors.As(err, &httpErr) {
		return "Request failed: " + httpErr.Message
	}
	return "Could not reach the registration server. Please try again."
}

func renderLogin(w http.ResponseWriter, r *http.Request, v *views.Views, status int, next string, flash *Flash) {
	render(w, r, v, status, "admin_login.tmpl", map[string]any{
		"Title": "Admin • Login",
		"Next":  next,
		"Flash": flash,
	})
}
