package handlers

import (
	"encoding/csv"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/overdrive/techfest/internal/apiclient"
	"github.com/overdrive/techfest/internal/models"
	"github.com/overdrive/techfest/internal/services"
	"github.com/overdrive/techfest/internal/views"
)

// GET /admin/dashboard?q=&event=
func AdminDashboard(v *views.Views, api AdminAPI) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		regs, ok := listRegistrations(w, r, api)
		if !ok {
			return
		}
		q := strings.TrimSpace(r.URL.Query().Get("q"))
		event := strings.TrimSpace(r.URL.Query().Get("event"))

		render(w, r, v, http.StatusOK, "admin_dashboard.tmpl", map[string]any{
			"Title":         "Admin • Registrations",
			"Query":         q,
			"Event":         event,
			"EventNames":    services.EventNames(regs),
			"Registrations": services.FilterRegistrations(regs, q, event),
			"Total":         len(regs),
			"ExportQuery":   exportQuery(q, event),
			"Flash":         MakeFlash(r, "", ""),
		})
	}
}

// GET /admin/registrations/{id}
func AdminRegistration(v *views.Views, api AdminAPI) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		regs, ok := listRegistrations(w, r, api)
		if !ok {
			return
		}
		reg, found := services.FindRegistration(regs, chi.URLParam(r, "id"))
		if !found {
			notFound(w, r, v, "No registration with that id.")
			return
		}
		render(w, r, v, http.StatusOK, "admin_registration.tmpl", map[string]any{
			"Title":   "Admin • " + reg.FullName,
			"Details": services.Details(reg),
		})
	}
}

// GET /admin/export
// Without filters the upstream CSV is passed through. With q or event the
// filtered rows are written here.
func AdminExport(api AdminAPI) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := strings.TrimSpace(r.URL.Query().Get("q"))
		event := strings.TrimSpace(r.URL.Query().Get("event"))

		if q == "" && (event == "" || event == "all") {
			body, err := api.Export(r.Context(), adminSecret(r.Context()))
			if err != nil {
				adminAPIError(w, r, err)
				return
			}
			w.Header().Set("Content-Type", "text/csv")
			w.Header().Set("Content-Disposition", "attachment; filename=registrations.csv")
			_, _ = w.Write(body)
			return
		}

		regs, ok := listRegistrations(w, r, api)
		if !ok {
			return
		}
		rows := services.FilterRegistrations(regs, q, event)

		filename := fmt.Sprintf("registrations-%s.csv", time.Now().Format("2006-01-02"))
		w.Header().Set("Content-Type", "text/csv")
		w.Header().Set("Content-Disposition", "attachment; filename="+filename)

		cw := csv.NewWriter(w)
		defer cw.Flush()

		_ = cw.Write([]string{
			"ID", "Full Name", "Email", "Mobile", "College", "Branch", "Class", "Academic Year",
			"Event", "Event Type", "Team Name", "Team Leader", "Team Members",
			"Status", "Payment Status", "Payment Method", "Amount Expected", "Amount Paid", "Created At",
		})
		for _, row := range rows {
			paid := ""
			if row.AmountPaid != nil {
				paid = strconv.Itoa(*row.AmountPaid)
			}
			_ = cw.Write([]string{
				row.ID,
				row.FullName,
				row.Email,
				row.Mobile,
				row.College,
				row.Branch,
				row.Class,
				row.AcademicYear,
				row.EventName,
				row.EventType,
				strOrEmpty(row.TeamName),
				strOrEmpty(row.TeamLeader),
				strOrEmpty(row.TeamMembers),
				row.Status,
				row.PaymentStatus,
				strOrEmpty(row.PaymentMethod),
				strconv.Itoa(row.AmountExpected),
				paid,
				row.CreatedAt,
			})
		}
	}
}

// listRegistrations fetches with the stored secret. On failure the response
// is written and ok is false.
func listRegistrations(w http.ResponseWriter, r *http.Request, api AdminAPI) ([]models.StoredRegistration, bool) {
	regs, err := api.ListRegistrations(r.Context(), adminSecret(r.Context()))
	if err != nil {
		adminAPIError(w, r, err)
		return nil, false
	}
	return regs, true
}

// adminAPIError answers a failed admin API call. A rejected secret signs the
// admin out.
func adminAPIError(w http.ResponseWriter, r *http.Request, err error) {
	var authErr *apiclient.AuthorizationError
	if errors.As(err, &authErr) {
		slog.WarnContext(r.Context(), "admin secret rejected", "path", r.URL.Path)
		clearAdminCookie(w)
		http.Redirect(w, r, "/admin?error=access_denied", http.StatusSeeOther)
		return
	}
	slog.ErrorContext(r.Context(), "admin api call failed", "path", r.URL.Path, "error", err)
	http.Error(w, apiFailureText(err), http.StatusBadGateway)
}

func exportQuery(q, event string) string {
	vals := url.Values{}
	if q != "" {
		vals.Set("q", q)
	}
	if event != "" && event != "all" {
		vals.Set("event", event)
	}
	if len(vals) == 0 {
		return ""
	}
	return "?" + vals.Encode()
}

func strOrEmpty(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
