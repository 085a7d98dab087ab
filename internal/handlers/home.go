package handlers

import (
	"log/slog"
	"math"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/overdrive/techfest/internal/catalog"
	"github.com/overdrive/techfest/internal/views"
)

func Home(v *views.Views, cat *catalog.Catalog) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		f := cat.Festival()
		days := 0
		if !f.StartsAt.IsZero() {
			days = int(math.Ceil(time.Until(f.StartsAt).Hours() / 24))
		}
		tagline, games := cat.Esports()
		hack, hackEv, hasHack := cat.Hackathon()
		render(w, r, v, http.StatusOK, "home.tmpl", map[string]any{
			"Title":          "Home",
			"Festival":       f,
			"DaysLeft":       days,
			"Schedule":       cat.Schedule(),
			"EsportsTagline": tagline,
			"Games":          games,
			"Hackathon":      hack,
			"HackathonEvent": hackEv,
			"HasHackathon":   hasHack,
			"Groups":         cat.ByCategory(),
			"Flash":          MakeFlash(r, "", ""),
		})
	}
}

// GET /credits
func Credits(v *views.Views, cat *catalog.Catalog) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		render(w, r, v, http.StatusOK, "credits.tmpl", map[string]any{
			"Title":   "Credits",
			"Credits": cat.Credits(),
		})
	}
}

func EventsList(v *views.Views, cat *catalog.Catalog) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		render(w, r, v, http.StatusOK, "events.tmpl", map[string]any{
			"Title":  "Events",
			"Groups": cat.ByCategory(),
			"Flash":  MakeFlash(r, "", ""),
		})
	}
}

func EventDetail(v *views.Views, cat *catalog.Catalog) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ev, err := cat.GetBySlug(chi.URLParam(r, "slug"))
		if err != nil {
			notFound(w, r, v, "We could not find that event.")
			return
		}
		render(w, r, v, http.StatusOK, "event_detail.tmpl", map[string]any{
			"Title": ev.Title,
			"Event": ev,
		})
	}
}

func Health(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("ok"))
}

func notFound(w http.ResponseWriter, r *http.Request, v *views.Views, msg string) {
	render(w, r, v, http.StatusNotFound, "not_found.tmpl", map[string]any{
		"Title":   "Not found",
		"Message": msg,
	})
}

func render(w http.ResponseWriter, r *http.Request, v *views.Views, status int, page string, data map[string]any) {
	if err := v.Render(w, status, page, data); err != nil {
		slog.ErrorContext(r.Context(), "render failed", "page", page, "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}
