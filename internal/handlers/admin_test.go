package handlers

import (
	"context"
	"encoding/csv"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/overdrive/techfest/internal/apiclient"
	"github.com/overdrive/techfest/internal/models"
	"github.com/overdrive/techfest/internal/views"
)

const testSecret = "s3cret"

type fakeAdminAPI struct {
	regs    []models.StoredRegistration
	csv     []byte
	err     error
	secrets []string
}

func (f *fakeAdminAPI) check(secret string) error {
	f.secrets = append(f.secrets, secret)
	if f.err != nil {
		return f.err
	}
	if secret != testSecret {
		return &apiclient.AuthorizationError{HTTPError: apiclient.HTTPError{StatusCode: 401, Message: "Unauthorized"}}
	}
	return nil
}

func (f *fakeAdminAPI) ListRegistrations(_ context.Context, secret string) ([]models.StoredRegistration, error) {
	if err := f.check(secret); err != nil {
		return nil, err
	}
	return f.regs, nil
}

func (f *fakeAdminAPI) Export(_ context.Context, secret string) ([]byte, error) {
	if err := f.check(secret); err != nil {
		return nil, err
	}
	return f.csv, nil
}

func strp(s string) *string { return &s }

func sampleRegistrations() []models.StoredRegistration {
	members := `[{"fullName":"Asha Patil","email":"asha@example.com","mobile":"9876543210","college":"PCCOE","branch":"IT","class":"SY","academicYear":"2025-26"},` +
		`{"fullName":"Rohan Kulkarni","email":"rohan@example.com","mobile":"9123456780","college":"PCCOE","branch":"IT","class":"SY","academicYear":"2025-26"}]`
	return []models.StoredRegistration{
		{
			ID: "101", FullName: "Asha Patil", Email: "asha@example.com", Mobile: "9876543210",
			EventName: "Code Red: Innixo Files", EventType: "Team",
			TeamName: strp("Bit Busters"), TeamLeader: strp("Asha Patil"), TeamMembers: strp(members),
			Status: "confirmed", PaymentStatus: "paid", AmountExpected: 90,
			CreatedAt: "2026-01-20T10:15:00Z",
		},
		{
			ID: "102", FullName: "Kabir Shah", Email: "kabir@example.com", Mobile: "+91 9988776655",
			EventName: "Prompt Forge", EventType: "Individual",
			Status: "pending", PaymentStatus: "unpaid", AmountExpected: 30,
			CreatedAt: "2026-01-21T08:00:00Z",
		},
	}
}

func newAdminRouter(api AdminAPI) http.Handler {
	v := views.Must()
	r := chi.NewRouter()
	r.Route("/admin", func(ar chi.Router) {
		ar.Get("/", AdminLoginForm(v))
		ar.Post("/", AdminLoginSubmit(v, api))
		ar.Post("/logout", AdminLogout)
		ar.Group(func(ag chi.Router) {
			ag.Use(RequireAdmin)
			ag.Get("/dashboard", AdminDashboard(v, api))
			ag.Get("/registrations/{id}", AdminRegistration(v, api))
			ag.Get("/export", AdminExport(api))
		})
	})
	return r
}

func adminGet(h http.Handler, path, secret string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if secret != "" {
		req.AddCookie(&http.Cookie{Name: adminCookieName, Value: secret})
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func adminPost(h http.Handler, path string, form url.Values) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestRequireAdminRedirectsToLogin(t *testing.T) {
	h := newAdminRouter(&fakeAdminAPI{})
	rec := adminGet(h, "/admin/dashboard?q=asha", "")
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/admin?next=%2Fadmin%2Fdashboard%3Fq%3Dasha", rec.Header().Get("Location"))
}

func TestAdminLogin(t *testing.T) {
	t.Run("valid secret is stored", func(t *testing.T) {
		api := &fakeAdminAPI{}
		h := newAdminRouter(api)
		rec := adminPost(h, "/admin", url.Values{"secret": {testSecret}, "next": {"/admin/registrations/101"}})

		assert.Equal(t, http.StatusSeeOther, rec.Code)
		assert.Equal(t, "/admin/registrations/101", rec.Header().Get("Location"))
		c := findCookie(rec, adminCookieName)
		require.NotNil(t, c)
		assert.Equal(t, testSecret, c.Value)
		assert.Equal(t, "/admin", c.Path)
		assert.True(t, c.HttpOnly)
		assert.Equal(t, []string{testSecret}, api.secrets)
	})

	t.Run("rejected secret is access denied", func(t *testing.T) {
		h := newAdminRouter(&fakeAdminAPI{})
		rec := adminPost(h, "/admin", url.Values{"secret": {"wrong"}})
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Contains(t, rec.Body.String(), "Access denied.")
		assert.Nil(t, findCookie(rec, adminCookieName))
	})

	t.Run("api down is not access denied", func(t *testing.T) {
		h := newAdminRouter(&fakeAdminAPI{err: &apiclient.NetworkError{Op: "GET", Err: errors.New("timeout")}})
		rec := adminPost(h, "/admin", url.Values{"secret": {testSecret}})
		assert.Equal(t, http.StatusBadGateway, rec.Code)
		assert.NotContains(t, rec.Body.String(), "Access denied")
		assert.Nil(t, findCookie(rec, adminCookieName))
	})

	t.Run("empty secret", func(t *testing.T) {
		api := &fakeAdminAPI{}
		h := newAdminRouter(api)
		rec := adminPost(h, "/admin", url.Values{"secret": {"  "}})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Empty(t, api.secrets)
	})

	t.Run("next outside admin is ignored", func(t *testing.T) {
		h := newAdminRouter(&fakeAdminAPI{})
		rec := adminPost(h, "/admin", url.Values{"secret": {testSecret}, "next": {"//evil.example/admin/"}})
		assert.Equal(t, "/admin/dashboard", rec.Header().Get("Location"))
	})
}

func TestAdminLoginFormWithCookie(t *testing.T) {
	h := newAdminRouter(&fakeAdminAPI{})
	rec := adminGet(h, "/admin", testSecret)
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/admin/dashboard", rec.Header().Get("Location"))

	rec = adminGet(h, "/admin?error=access_denied", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Access denied. Please sign in again.")
}

func TestAdminLogout(t *testing.T) {
	h := newAdminRouter(&fakeAdminAPI{})
	rec := adminPost(h, "/admin/logout", nil)
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	c := findCookie(rec, adminCookieName)
	require.NotNil(t, c)
	assert.Empty(t, c.Value)
	assert.True(t, c.MaxAge < 0)
}

func TestAdminDashboard(t *testing.T) {
	api := &fakeAdminAPI{regs: sampleRegistrations()}
	h := newAdminRouter(api)

	rec := adminGet(h, "/admin/dashboard", testSecret)
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "2 of 2 registrations")
	assert.Contains(t, body, "Asha Patil")
	assert.Contains(t, body, "Kabir Shah")
	assert.Contains(t, body, `href="/admin/export"`)

	rec = adminGet(h, "/admin/dashboard?q=99887", testSecret)
	require.Equal(t, http.StatusOK, rec.Code)
	body = rec.Body.String()
	assert.Contains(t, body, "1 of 2 registrations")
	assert.Contains(t, body, "Kabir Shah")
	assert.NotContains(t, body, "Asha Patil")
	assert.Contains(t, body, `href="/admin/export?q=99887"`)

	rec = adminGet(h, "/admin/dashboard?event=Prompt+Forge", testSecret)
	assert.Contains(t, rec.Body.String(), "1 of 2 registrations")

	assert.Equal(t, []string{testSecret, testSecret, testSecret}, api.secrets)
}

func TestAdminDashboardRejectedSecret(t *testing.T) {
	h := newAdminRouter(&fakeAdminAPI{})
	rec := adminGet(h, "/admin/dashboard", "stale")

	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/admin?error=access_denied", rec.Header().Get("Location"))
	c := findCookie(rec, adminCookieName)
	require.NotNil(t, c)
	assert.True(t, c.MaxAge < 0)
}

func TestAdminDashboardUpstreamError(t *testing.T) {
	h := newAdminRouter(&fakeAdminAPI{err: &apiclient.HTTPError{StatusCode: 500, Message: "database offline"}})
	rec := adminGet(h, "/admin/dashboard", testSecret)
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Contains(t, rec.Body.String(), "database offline")
	assert.Nil(t, findCookie(rec, adminCookieName))
}

func TestAdminRegistrationDetails(t *testing.T) {
	h := newAdminRouter(&fakeAdminAPI{regs: sampleRegistrations()})

	rec := adminGet(h, "/admin/registrations/101", testSecret)
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "Team members")
	assert.Contains(t, body, "Rohan Kulkarni")
	assert.Contains(t, body, "Bit Busters")

	rec = adminGet(h, "/admin/registrations/102", testSecret)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, rec.Body.String(), "Team members")

	rec = adminGet(h, "/admin/registrations/999", testSecret)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAdminExport(t *testing.T) {
	upstream := []byte("id,fullName\n101,Asha Patil\n102,Kabir Shah\n")
	h := newAdminRouter(&fakeAdminAPI{regs: sampleRegistrations(), csv: upstream})

	t.Run("unfiltered passes upstream csv through", func(t *testing.T) {
		rec := adminGet(h, "/admin/export", testSecret)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "text/csv", rec.Header().Get("Content-Type"))
		assert.Equal(t, "attachment; filename=registrations.csv", rec.Header().Get("Content-Disposition"))
		assert.Equal(t, upstream, rec.Body.Bytes())
	})

	t.Run("filtered rows are written locally", func(t *testing.T) {
		rec := adminGet(h, "/admin/export?event=Code+Red%3A+Innixo+Files", testSecret)
		require.Equal(t, http.StatusOK, rec.Code)

		rows, err := csv.NewReader(rec.Body).ReadAll()
		require.NoError(t, err)
		require.Len(t, rows, 2)
		assert.Equal(t, "ID", rows[0][0])
		assert.Equal(t, "101", rows[1][0])
		assert.Equal(t, "Bit Busters", rows[1][10])
		assert.Equal(t, "90", rows[1][16])
		assert.Equal(t, "", rows[1][17])
	})
}
