package web

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/overdrive/techfest/internal/catalog"
	"github.com/overdrive/techfest/internal/handlers"
	"github.com/overdrive/techfest/internal/services"
	"github.com/overdrive/techfest/internal/views"
)

// Deps are the collaborators the handlers are built from.
type Deps struct {
	Views     *views.Views
	Catalog   *catalog.Catalog
	Drafts    *services.DraftStore
	Submitter handlers.SubmitService
	Admin     handlers.AdminAPI
}

func Router(d Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	v := d.Views
	if v == nil {
		v = views.Must()
	}
	v = v.WithSocials(d.Catalog.Socials())

	// Public pages
	r.Get("/", handlers.Home(v, d.Catalog))
	r.Get("/healthz", handlers.Health)
	r.Get("/events", handlers.EventsList(v, d.Catalog))
	r.Get("/events/{slug}", handlers.EventDetail(v, d.Catalog))
	r.Get("/credits", handlers.Credits(v, d.Catalog))

	// --- Registration: one draft per event, kept across posts ---
	r.Get("/register", handlers.RegisterHub(v, d.Catalog))
	r.Route("/register/{slug}", func(rr chi.Router) {
		rr.Get("/", handlers.RegisterForm(v, d.Catalog, d.Drafts))
		rr.Post("/", handlers.RegisterPost(v, d.Catalog, d.Drafts, d.Submitter))
		rr.Post("/discard", handlers.RegisterDiscard(d.Drafts))
		rr.Get("/done", handlers.RegisterDone(v, d.Catalog))
	})

	// QR image
	r.Get("/qr/{id}.png", handlers.QR)

	// --- Admin routes (secret login + guard) ---
	r.Route("/admin", func(ar chi.Router) {
		ar.Get("/", handlers.AdminLoginForm(v))
		ar.Post("/", handlers.AdminLoginSubmit(v, d.Admin))
		ar.Post("/logout", handlers.AdminLogout)

		ar.Group(func(ag chi.Router) {
			ag.Use(handlers.RequireAdmin)
			ag.Get("/dashboard", handlers.AdminDashboard(v, d.Admin))
			ag.Get("/registrations/{id}", handlers.AdminRegistration(v, d.Admin))
			ag.Get("/export", handlers.AdminExport(d.Admin))
		})
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		_ = v.Render(w, http.StatusNotFound, "not_found.tmpl", map[string]any{
			"Title":   "Not found",
			"Message": "That page does not exist.",
		})
	})

	return r
}
