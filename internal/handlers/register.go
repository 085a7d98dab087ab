package handlers

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/overdrive/techfest/internal/apiclient"
	"github.com/overdrive/techfest/internal/catalog"
	"github.com/overdrive/techfest/internal/forms"
	"github.com/overdrive/techfest/internal/logging"
	"github.com/overdrive/techfest/internal/models"
	"github.com/overdrive/techfest/internal/services"
	"github.com/overdrive/techfest/internal/views"
)

// SubmitService sends a stored draft to the registration API.
type SubmitService interface {
	Submit(ctx context.Context, draftID string) (services.Outcome, error)
}

type memberView struct {
	Index     int
	Leader    bool
	Removable bool
	Values    map[string]string
}

// ------------------- hub -------------------

// GET /register  (?event=<title> for links that name the event by title)
func RegisterHub(v *views.Views, cat *catalog.Catalog) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var errStr string
		if title := strings.TrimSpace(r.URL.Query().Get("event")); title != "" {
			ev, err := cat.GetByTitle(title)
			if err == nil {
				http.Redirect(w, r, draftPath(ev.Slug), http.StatusSeeOther)
				return
			}
			errStr = errText["unknown_event"]
		}
		render(w, r, v, http.StatusOK, "register_hub.tmpl", map[string]any{
			"Title":  "Register",
			"Groups": cat.ByCategory(),
			"Flash":  MakeFlash(r, errStr, ""),
		})
	}
}

// ------------------- form -------------------

// GET /register/{slug}
func RegisterForm(v *views.Views, cat *catalog.Catalog, drafts *services.DraftStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ev, err := cat.GetBySlug(chi.URLParam(r, "slug"))
		if err != nil {
			notFound(w, r, v, "We could not find that event.")
			return
		}
		d, status, err := openDraft(r, drafts, ev)
		if err != nil {
			slog.ErrorContext(r.Context(), "open draft", "event", ev.Slug, "error", err)
			http.Error(w, "could not load your draft", http.StatusInternalServerError)
			return
		}
		if readDraftCookie(r) != d.ID() {
			if err := drafts.Save(r.Context(), ev.Slug, d.Snapshot()); err != nil {
				slog.ErrorContext(r.Context(), "save new draft", "event", ev.Slug, "error", err)
				http.Error(w, "could not start a draft", http.StatusInternalServerError)
				return
			}
			setDraftCookie(w, ev.Slug, d.ID())
		}
		renderForm(w, r, v, http.StatusOK, d, status == models.DraftSubmitting, nil, MakeFlash(r, "", ""))
	}
}

// POST /register/{slug}
// Applies the posted fields, then one action: save | add | remove | submit.
// remove takes the member index from the "remove" button or the "index" field.
func RegisterPost(v *views.Views, cat *catalog.Catalog, drafts *services.DraftStore, sub SubmitService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ev, err := cat.GetBySlug(chi.URLParam(r, "slug"))
		if err != nil {
			notFound(w, r, v, "We could not find that event.")
			return
		}
		if err := r.ParseForm(); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		ctx := logging.AppendCtx(r.Context(), slog.String("event", ev.Slug))

		d, status, err := openDraft(r, drafts, ev)
		if err != nil {
			slog.ErrorContext(ctx, "open draft", "error", err)
			http.Error(w, "could not load your draft", http.StatusInternalServerError)
			return
		}
		ctx = logging.AppendCtx(ctx, slog.String("draft_id", d.ID()))
		if status == models.DraftSubmitting {
			renderForm(w, r, v, http.StatusConflict, d, true, nil, nil)
			return
		}

		if err := applyForm(d, r.PostForm); err != nil {
			badRequest(ctx, w, err)
			return
		}

		action, index, err := formAction(r.PostForm)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		redirect := draftPath(ev.Slug)
		switch action {
		case "add":
			if err := d.AddMember(); errors.Is(err, forms.ErrTeamFull) {
				redirect += "?error=team_full"
			}
		case "remove":
			if err := d.RemoveMember(index); err != nil {
				badRequest(ctx, w, err)
				return
			}
		case "save":
			redirect += "?ok=saved"
		case "submit":
		default:
			http.Error(w, "unknown action", http.StatusBadRequest)
			return
		}

		if err := drafts.Save(ctx, ev.Slug, d.Snapshot()); err != nil {
			if errors.Is(err, services.ErrSubmissionInFlight) {
				renderForm(w, r, v, http.StatusConflict, d, true, nil, nil)
				return
			}
			slog.ErrorContext(ctx, "save draft", "error", err)
			http.Error(w, "could not save your draft", http.StatusInternalServerError)
			return
		}
		// each response carries at most one draft_id cookie
		needCookie := readDraftCookie(r) != d.ID()

		if action != "submit" {
			if needCookie {
				setDraftCookie(w, ev.Slug, d.ID())
			}
			http.Redirect(w, r, redirect, http.StatusSeeOther)
			return
		}

		out, err := sub.Submit(ctx, d.ID())
		if err == nil {
			clearDraftCookie(w, ev.Slug)
			http.Redirect(w, r, draftPath(ev.Slug)+"/done?id="+url.QueryEscape(out.RegistrationID), http.StatusSeeOther)
			return
		}
		if errors.Is(err, services.ErrDraftDiscarded) || errors.Is(err, services.ErrDraftNotFound) {
			clearDraftCookie(w, ev.Slug)
			http.Redirect(w, r, draftPath(ev.Slug)+"?error=discarded", http.StatusSeeOther)
			return
		}
		if needCookie {
			setDraftCookie(w, ev.Slug, d.ID())
		}

		var verrs forms.ValidationErrors
		var netErr *apiclient.NetworkError
		var httpErr *apiclient.HTTPError
		switch {
		case errors.As(err, &verrs):
			renderForm(w, r, v, http.StatusUnprocessableEntity, d, false, verrs,
				&Flash{Kind: "error", Text: "Please fix the highlighted fields."})
		case errors.Is(err, services.ErrSubmissionInFlight):
			renderForm(w, r, v, http.StatusConflict, d, true, nil, nil)
		case errors.Is(err, services.ErrStaleDraft):
			renderForm(w, r, v, http.StatusConflict, d, false, nil,
				&Flash{Kind: "error", Text: "Your draft changed in another tab. Please review it and submit again."})
		case errors.As(err, &netErr):
			renderForm(w, r, v, http.StatusBadGateway, d, false, nil,
				&Flash{Kind: "error", Text: "Registration Failed: could not reach the registration server. Your draft is saved, please try again."})
		case errors.As(err, &httpErr):
			renderForm(w, r, v, http.StatusBadGateway, d, false, nil,
				&Flash{Kind: "error", Text: "Registration Failed: " + httpErr.Message})
		default:
			slog.ErrorContext(ctx, "submit registration", "error", err)
			http.Error(w, "registration failed", http.StatusInternalServerError)
		}
	}
}

// POST /register/{slug}/discard
func RegisterDiscard(drafts *services.DraftStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		slug := chi.URLParam(r, "slug")
		if id := readDraftCookie(r); id != "" {
			if err := drafts.Delete(r.Context(), id); err != nil {
				slog.ErrorContext(r.Context(), "discard draft", "draft_id", id, "error", err)
				http.Error(w, "could not discard your draft", http.StatusInternalServerError)
				return
			}
		}
		clearDraftCookie(w, slug)
		http.Redirect(w, r, "/register?ok=discarded", http.StatusSeeOther)
	}
}

// GET /register/{slug}/done?id=
func RegisterDone(v *views.Views, cat *catalog.Catalog) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ev, err := cat.GetBySlug(chi.URLParam(r, "slug"))
		if err != nil {
			notFound(w, r, v, "We could not find that event.")
			return
		}
		render(w, r, v, http.StatusOK, "register_done.tmpl", map[string]any{
			"Title":          "Registration Confirmed",
			"Event":          ev,
			"RegistrationID": strings.TrimSpace(r.URL.Query().Get("id")),
		})
	}
}

// ------------------- helpers -------------------

// openDraft resumes the draft named by the cookie when it belongs to ev, and
// otherwise starts a fresh one (not yet stored).
func openDraft(r *http.Request, drafts *services.DraftStore, ev models.EventDefinition) (*forms.Draft, string, error) {
	if id := readDraftCookie(r); id != "" {
		rec, err := drafts.Load(r.Context(), id)
		switch {
		case err == nil && rec.EventSlug == ev.Slug:
			d, err := forms.RestoreDraft(ev, services.Snapshot(rec))
			if err == nil {
				return d, rec.Status, nil
			}
			// the catalog's team size changed under a stored draft
			slog.WarnContext(r.Context(), "stored draft unusable, starting over", "draft_id", id, "error", err)
		case err != nil && !errors.Is(err, services.ErrDraftNotFound):
			return nil, "", err
		}
	}
	return forms.NewDraft(ev), models.DraftEditing, nil
}

func applyForm(d *forms.Draft, form url.Values) error {
	if _, ok := form["teamName"]; ok {
		d.SetTeamName(form.Get("teamName"))
	}
	terms := form.Get("termsAccepted")
	d.SetTermsAccepted(terms == "on" || terms == "true")

	for i := 0; i < d.Len(); i++ {
		for _, f := range forms.Fields {
			vals, ok := form[fmt.Sprintf("members.%d.%s", i, f)]
			if !ok || len(vals) == 0 {
				continue
			}
			if err := d.EditField(i, f, vals[0]); err != nil {
				return err
			}
		}
	}
	return nil
}

func formAction(form url.Values) (string, int, error) {
	if v := form.Get("remove"); v != "" {
		i, err := strconv.Atoi(v)
		if err != nil {
			return "", 0, fmt.Errorf("invalid member index %q", v)
		}
		return "remove", i, nil
	}
	action := strings.ToLower(strings.TrimSpace(form.Get("action")))
	if action == "" {
		action = "save"
	}
	if action != "remove" {
		return action, 0, nil
	}
	i, err := strconv.Atoi(form.Get("index"))
	if err != nil {
		return "", 0, fmt.Errorf("invalid member index %q", form.Get("index"))
	}
	return action, i, nil
}

// badRequest answers a form post that asked the draft for something impossible.
func badRequest(ctx context.Context, w http.ResponseWriter, err error) {
	if forms.IsPrecondition(err) {
		slog.ErrorContext(ctx, "rejected draft change", "error", err)
	}
	http.Error(w, err.Error(), http.StatusBadRequest)
}

func renderForm(w http.ResponseWriter, r *http.Request, v *views.Views, status int, d *forms.Draft,
	submitting bool, verrs forms.ValidationErrors, flash *Flash) {
	ev := d.Event()
	members := d.Members()
	mv := make([]memberView, len(members))
	for i, m := range members {
		vals := make(map[string]string, len(forms.Fields))
		for _, f := range forms.Fields {
			vals[f] = forms.FieldValue(m, f)
		}
		mv[i] = memberView{Index: i, Leader: i == 0, Removable: d.CanRemove(i), Values: vals}
	}
	render(w, r, v, status, "register_form.tmpl", map[string]any{
		"Title":         "Register • " + ev.Title,
		"Event":         ev,
		"TeamName":      d.TeamName(),
		"TermsAccepted": d.TermsAccepted(),
		"Members":       mv,
		"Fields":        forms.Fields,
		"CanAdd":        d.CanAdd() && !submitting,
		"Submitting":    submitting,
		"Errors":        verrs.ByPath(),
		"Flash":         flash,
	})
}
