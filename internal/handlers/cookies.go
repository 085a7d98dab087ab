// internal/handlers/cookies.go
package handlers

import (
	"net/http"
	"time"
)

const (
	draftCookieName = "draft_id"
	adminCookieName = "admin-secret"
)

// The draft cookie is scoped to the event's registration path, so each event
// keeps its own draft.
func draftPath(slug string) string { return "/register/" + slug }

func readDraftCookie(r *http.Request) string {
	c, err := r.Cookie(draftCookieName)
	if err != nil {
		return ""
	}
	return c.Value
}

func setDraftCookie(w http.ResponseWriter, slug, id string) {
	http.SetCookie(w, &http.Cookie{
		Name:     draftCookieName,
		Value:    id,
		Path:     draftPath(slug),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

func clearDraftCookie(w http.ResponseWriter, slug string) {
	http.SetCookie(w, &http.Cookie{
		Name:     draftCookieName,
		Value:    "",
		Path:     draftPath(slug),
		HttpOnly: true,
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
	})
}

func setAdminCookie(w http.ResponseWriter, secret string) {
	http.SetCookie(w, &http.Cookie{
		Name:     adminCookieName,
		Value:    secret,
		Path:     "/admin",
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
		Expires:  time.Now().Add(12 * time.Hour),
	})
}

func clearAdminCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     adminCookieName,
		Value:    "",
		Path:     "/admin",
		HttpOnly: true,
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
	})
}
