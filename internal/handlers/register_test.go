package handlers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/overdrive/techfest/internal/apiclient"
	"github.com/overdrive/techfest/internal/catalog"
	"github.com/overdrive/techfest/internal/db"
	"github.com/overdrive/techfest/internal/models"
	"github.com/overdrive/techfest/internal/services"
	"github.com/overdrive/techfest/internal/views"
)

type fakeRegAPI struct {
	id       string
	err      error
	payloads []models.RegistrationPayload
}

func (f *fakeRegAPI) Submit(_ context.Context, p models.RegistrationPayload) (apiclient.SubmitResult, error) {
	f.payloads = append(f.payloads, p)
	if f.err != nil {
		return apiclient.SubmitResult{}, f.err
	}
	return apiclient.SubmitResult{ID: f.id}, nil
}

type regHarness struct {
	t      *testing.T
	gdb    *gorm.DB
	drafts *services.DraftStore
	api    *fakeRegAPI
	router http.Handler
}

func newRegHarness(t *testing.T) *regHarness {
	t.Helper()
	gdb, err := db.Open(filepath.Join(t.TempDir(), "drafts.db"))
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := gdb.DB(); err == nil {
			sqlDB.Close()
		}
	})

	cat := catalog.Default()
	v := views.Must()
	h := &regHarness{
		t:      t,
		gdb:    gdb,
		drafts: services.NewDraftStore(gdb),
		api:    &fakeRegAPI{id: "reg-42"},
	}
	sub := services.NewSubmitter(h.drafts, cat, h.api, nil)

	r := chi.NewRouter()
	r.Get("/register", RegisterHub(v, cat))
	r.Get("/register/{slug}", RegisterForm(v, cat, h.drafts))
	r.Post("/register/{slug}", RegisterPost(v, cat, h.drafts, sub))
	r.Post("/register/{slug}/discard", RegisterDiscard(h.drafts))
	r.Get("/register/{slug}/done", RegisterDone(v, cat))
	r.Get("/qr/{id}.png", QR)
	h.router = r
	return h
}

func (h *regHarness) get(path string, cookie *http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if cookie != nil {
		req.AddCookie(cookie)
	}
	rec := httptest.NewRecorder()
	h.router.ServeHTTP(rec, req)
	return rec
}

func (h *regHarness) post(path string, form url.Values, cookie *http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if cookie != nil {
		req.AddCookie(cookie)
	}
	rec := httptest.NewRecorder()
	h.router.ServeHTTP(rec, req)
	return rec
}

// start opens the form for slug and returns the draft cookie it set.
func (h *regHarness) start(slug string) *http.Cookie {
	h.t.Helper()
	rec := h.get("/register/"+slug, nil)
	require.Equal(h.t, http.StatusOK, rec.Code)
	c := findCookie(rec, draftCookieName)
	require.NotNil(h.t, c, "draft cookie not set")
	return c
}

func (h *regHarness) load(id string) models.DraftRecord {
	h.t.Helper()
	rec, err := h.drafts.Load(context.Background(), id)
	require.NoError(h.t, err)
	return rec
}

// findCookie returns the last cookie named name, the one a browser keeps.
func findCookie(rec *httptest.ResponseRecorder, name string) *http.Cookie {
	all := cookiesNamed(rec, name)
	if len(all) == 0 {
		return nil
	}
	return all[len(all)-1]
}

func cookiesNamed(rec *httptest.ResponseRecorder, name string) []*http.Cookie {
	var out []*http.Cookie
	for _, c := range rec.Result().Cookies() {
		if c.Name == name {
			out = append(out, c)
		}
	}
	return out
}

func filledForm(team string, n int) url.Values {
	form := url.Values{}
	if team != "" {
		form.Set("teamName", team)
	}
	names := []string{"Asha Patil", "Rohan Kulkarni", "Meera Joshi", "Kabir Shah", "Isha Rao"}
	for i := 0; i < n; i++ {
		p := "members." + string(rune('0'+i)) + "."
		form.Set(p+"fullName", names[i])
		form.Set(p+"email", "member"+string(rune('a'+i))+"@example.com")
		form.Set(p+"mobile", "9876543210")
		form.Set(p+"college", "PCCOE")
		form.Set(p+"branch", "IT")
		form.Set(p+"class", "SY")
		form.Set(p+"academicYear", "2025-26")
	}
	form.Set("termsAccepted", "on")
	return form
}

func TestRegisterFormStartsAndResumesDraft(t *testing.T) {
	h := newRegHarness(t)

	rec := h.get("/register/code-red", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Code Red: Innixo Files")
	assert.Contains(t, rec.Body.String(), `name="members.0.fullName"`)

	c := findCookie(rec, draftCookieName)
	require.NotNil(t, c)
	assert.Equal(t, "/register/code-red", c.Path)
	assert.True(t, c.HttpOnly)

	stored := h.load(c.Value)
	assert.Equal(t, "code-red", stored.EventSlug)
	assert.Len(t, stored.Members, 1)

	// same cookie, same draft, no new cookie
	rec = h.get("/register/code-red", c)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Nil(t, findCookie(rec, draftCookieName))
}

func TestRegisterFormFixedTeamStartsFull(t *testing.T) {
	h := newRegHarness(t)
	c := h.start("esports-valorant")

	stored := h.load(c.Value)
	assert.Len(t, stored.Members, 5)

	body := h.get("/register/esports-valorant", c).Body.String()
	assert.NotContains(t, body, `value="add"`)
	assert.NotContains(t, body, `name="remove"`)
}

func TestRegisterFormUnknownEvent(t *testing.T) {
	h := newRegHarness(t)
	rec := h.get("/register/no-such-event", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Nil(t, findCookie(rec, draftCookieName))
}

func TestRegisterFormIgnoresOtherEventsDraft(t *testing.T) {
	h := newRegHarness(t)
	c := h.start("code-red")

	// a cookie from another event starts a fresh draft
	rec := h.get("/register/overdrive-hack", &http.Cookie{Name: draftCookieName, Value: c.Value})
	require.Equal(t, http.StatusOK, rec.Code)
	fresh := findCookie(rec, draftCookieName)
	require.NotNil(t, fresh)
	assert.NotEqual(t, c.Value, fresh.Value)
	assert.Equal(t, "code-red", h.load(c.Value).EventSlug)
}

func TestRegisterHub(t *testing.T) {
	h := newRegHarness(t)

	rec := h.get("/register?event=Valorant", nil)
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/register/esports-valorant", rec.Header().Get("Location"))

	rec = h.get("/register?event=Nope", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "That event does not exist.")

	rec = h.get("/register", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Overdrive Hack")
}

func TestRegisterPostAddAndRemove(t *testing.T) {
	h := newRegHarness(t)
	c := h.start("overdrive-hack") // 2..5

	rec := h.post("/register/overdrive-hack", url.Values{"action": {"add"}}, c)
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/register/overdrive-hack", rec.Header().Get("Location"))
	assert.Len(t, h.load(c.Value).Members, 3)

	form := url.Values{"remove": {"2"}}
	rec = h.post("/register/overdrive-hack", form, c)
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Len(t, h.load(c.Value).Members, 2)

	// below the minimum
	rec = h.post("/register/overdrive-hack", url.Values{"action": {"remove"}, "index": {"1"}}, c)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Len(t, h.load(c.Value).Members, 2)

	// the leader is never removable
	rec = h.post("/register/overdrive-hack", url.Values{"remove": {"0"}}, c)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = h.post("/register/overdrive-hack", url.Values{"remove": {"x"}}, c)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRegisterPostAddAtMaximum(t *testing.T) {
	h := newRegHarness(t)
	c := h.start("debug-arena") // 1..2

	rec := h.post("/register/debug-arena", url.Values{"action": {"add"}}, c)
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Len(t, h.load(c.Value).Members, 2)

	rec = h.post("/register/debug-arena", url.Values{"action": {"add"}}, c)
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/register/debug-arena?error=team_full", rec.Header().Get("Location"))
	assert.Len(t, h.load(c.Value).Members, 2)
}

func TestRegisterPostSaveKeepsFields(t *testing.T) {
	h := newRegHarness(t)
	c := h.start("code-red")

	form := url.Values{
		"action":             {"save"},
		"teamName":           {"  Bit Busters "},
		"members.0.fullName": {" Asha Patil "},
		"members.0.email":    {"asha@example.com"},
		"members.9.fullName": {"ignored"},
	}
	rec := h.post("/register/code-red", form, c)
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/register/code-red?ok=saved", rec.Header().Get("Location"))

	stored := h.load(c.Value)
	assert.Equal(t, "Bit Busters", stored.TeamName)
	assert.Equal(t, "Asha Patil", stored.Members[0].FullName)
	assert.Equal(t, "asha@example.com", stored.Members[0].Email)
	assert.False(t, stored.TermsAccepted)
	assert.Len(t, stored.Members, 1)

	rec = h.get("/register/code-red?ok=saved", c)
	assert.Contains(t, rec.Body.String(), "Draft saved.")
	assert.Contains(t, rec.Body.String(), `value="Asha Patil"`)
}

func TestRegisterPostUnknownAction(t *testing.T) {
	h := newRegHarness(t)
	c := h.start("code-red")
	rec := h.post("/register/code-red", url.Values{"action": {"explode"}}, c)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRegisterSubmitInvalid(t *testing.T) {
	h := newRegHarness(t)
	c := h.start("code-red")

	rec := h.post("/register/code-red", url.Values{"action": {"submit"}}, c)
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "Team Name is required")
	assert.Contains(t, body, "Email is required")
	assert.Contains(t, body, "You must accept the terms and conditions")
	assert.Empty(t, h.api.payloads)

	assert.Equal(t, models.DraftEditing, h.load(c.Value).Status)
}

func TestRegisterSubmitSuccess(t *testing.T) {
	h := newRegHarness(t)
	c := h.start("code-red")

	form := filledForm("Bit Busters", 1)
	form.Set("action", "submit")
	rec := h.post("/register/code-red", form, c)

	require.Equal(t, http.StatusSeeOther, rec.Code, rec.Body.String())
	assert.Equal(t, "/register/code-red/done?id=reg-42", rec.Header().Get("Location"))
	cleared := cookiesNamed(rec, draftCookieName)
	require.Len(t, cleared, 1)
	assert.Empty(t, cleared[0].Value)
	assert.True(t, cleared[0].MaxAge < 0)

	require.Len(t, h.api.payloads, 1)
	p := h.api.payloads[0]
	assert.Equal(t, "Asha Patil", p.FullName)
	assert.Equal(t, "Team", p.EventType)
	require.NotNil(t, p.TeamName)
	assert.Equal(t, "Bit Busters", *p.TeamName)

	_, err := h.drafts.Load(context.Background(), c.Value)
	assert.ErrorIs(t, err, services.ErrDraftNotFound)

	done := h.get("/register/code-red/done?id=reg-42", nil)
	require.Equal(t, http.StatusOK, done.Code)
	assert.Contains(t, done.Body.String(), `/qr/reg-42.png`)
}

func TestRegisterSubmitSendsOneDraftCookie(t *testing.T) {
	t.Run("success without a cookie only clears", func(t *testing.T) {
		h := newRegHarness(t)
		form := filledForm("Bit Busters", 1)
		form.Set("action", "submit")
		rec := h.post("/register/code-red", form, nil)

		require.Equal(t, http.StatusSeeOther, rec.Code, rec.Body.String())
		got := cookiesNamed(rec, draftCookieName)
		require.Len(t, got, 1)
		assert.Empty(t, got[0].Value)
		assert.True(t, got[0].MaxAge < 0)
		assert.Equal(t, "/register/code-red", got[0].Path)
	})

	t.Run("failure without a cookie keeps the new draft", func(t *testing.T) {
		h := newRegHarness(t)
		h.api.err = &apiclient.HTTPError{StatusCode: http.StatusConflict, Message: "Email already registered"}
		form := filledForm("Bit Busters", 1)
		form.Set("action", "submit")
		rec := h.post("/register/code-red", form, nil)

		require.Equal(t, http.StatusBadGateway, rec.Code)
		got := cookiesNamed(rec, draftCookieName)
		require.Len(t, got, 1)
		require.NotEmpty(t, got[0].Value)
		assert.Equal(t, "Bit Busters", h.load(got[0].Value).TeamName)
	})

	t.Run("failure with the cookie sends none", func(t *testing.T) {
		h := newRegHarness(t)
		h.api.err = &apiclient.HTTPError{StatusCode: http.StatusConflict, Message: "Email already registered"}
		c := h.start("code-red")
		form := filledForm("Bit Busters", 1)
		form.Set("action", "submit")
		rec := h.post("/register/code-red", form, c)

		require.Equal(t, http.StatusBadGateway, rec.Code)
		assert.Empty(t, cookiesNamed(rec, draftCookieName))
	})
}

func TestRegisterSubmitIndividual(t *testing.T) {
	h := newRegHarness(t)
	c := h.start("prompt-forge")

	body := h.get("/register/prompt-forge", c).Body.String()
	assert.NotContains(t, body, `name="teamName"`)

	form := filledForm("", 1)
	form.Set("action", "submit")
	rec := h.post("/register/prompt-forge", form, c)
	require.Equal(t, http.StatusSeeOther, rec.Code, rec.Body.String())

	require.Len(t, h.api.payloads, 1)
	p := h.api.payloads[0]
	assert.Equal(t, "Individual", p.EventType)
	assert.Nil(t, p.TeamName)
	assert.Nil(t, p.TeamLeader)
	assert.Nil(t, p.TeamMembers)
}

func TestRegisterSubmitFailureKeepsDraft(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{
			name: "server message",
			err:  &apiclient.HTTPError{StatusCode: http.StatusConflict, Message: "Email already registered"},
			want: "Email already registered",
		},
		{
			name: "unreachable",
			err:  &apiclient.NetworkError{Op: "POST /api/register", Err: errors.New("connection refused")},
			want: "could not reach the registration server",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newRegHarness(t)
			h.api.err = tt.err
			c := h.start("code-red")

			form := filledForm("Bit Busters", 1)
			form.Set("action", "submit")
			rec := h.post("/register/code-red", form, c)

			assert.Equal(t, http.StatusBadGateway, rec.Code)
			assert.Contains(t, rec.Body.String(), tt.want)
			// values are still on the form
			assert.Contains(t, rec.Body.String(), `value="Bit Busters"`)

			stored := h.load(c.Value)
			assert.Equal(t, models.DraftEditing, stored.Status)
			assert.Equal(t, "Bit Busters", stored.TeamName)
		})
	}
}

func TestRegisterPostWhileSubmitting(t *testing.T) {
	h := newRegHarness(t)
	c := h.start("code-red")
	require.NoError(t, h.gdb.Model(&models.DraftRecord{}).Where("id = ?", c.Value).
		Update("status", models.DraftSubmitting).Error)

	form := filledForm("Bit Busters", 1)
	form.Set("action", "submit")
	rec := h.post("/register/code-red", form, c)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Contains(t, rec.Body.String(), "being submitted")
	assert.Empty(t, h.api.payloads)

	// the form shows submit disabled
	body := h.get("/register/code-red", c).Body.String()
	assert.Contains(t, body, `value="submit" disabled`)
}

func TestRegisterDiscard(t *testing.T) {
	h := newRegHarness(t)
	c := h.start("code-red")

	rec := h.post("/register/code-red/discard", nil, c)
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/register?ok=discarded", rec.Header().Get("Location"))

	_, err := h.drafts.Load(context.Background(), c.Value)
	assert.ErrorIs(t, err, services.ErrDraftNotFound)

	// a stale cookie just starts over
	rec = h.get("/register/code-red", c)
	require.Equal(t, http.StatusOK, rec.Code)
	fresh := findCookie(rec, draftCookieName)
	require.NotNil(t, fresh)
	assert.NotEqual(t, c.Value, fresh.Value)
}

func TestQR(t *testing.T) {
	h := newRegHarness(t)

	rec := h.get("/qr/reg-42.png", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/png", rec.Header().Get("Content-Type"))
	assert.True(t, strings.HasPrefix(rec.Body.String(), "\x89PNG"))

	rec = h.get("/qr/bad$id.png", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
