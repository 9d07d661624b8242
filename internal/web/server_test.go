package web

import (
	"context"
	"html"
	"net/http"
	"net/http/httptest"
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pthm/toybox/internal/app"
	"github.com/pthm/toybox/internal/session"
	"github.com/pthm/toybox/internal/toy"
)

type listAPI struct{ toys []toy.Toy }

func (l listAPI) List(ctx context.Context) ([]toy.Toy, error) { return l.toys, nil }
func (l listAPI) Create(ctx context.Context, d toy.Draft) (toy.Toy, error) {
	return toy.Toy{ID: toy.NumericID(9), Name: d.Name, Image: d.Image}, nil
}
func (l listAPI) Delete(ctx context.Context, id toy.ID) error { return nil }
func (l listAPI) UpdateLikes(ctx context.Context, id toy.ID, likes int) (toy.Toy, error) {
	return toy.Toy{ID: id, Likes: likes}, nil
}

func newServer(t *testing.T) *Server {
	t.Helper()
	api := listAPI{toys: []toy.Toy{{ID: toy.NumericID(1), Name: "Bear", Image: "u"}}}
	sessions := session.NewManager(func() *app.App { return app.New(api) })
	t.Cleanup(sessions.Close)

	s, err := New(sessions, Options{PropsKey: []byte("web-test"), Title: "Test Toys"})
	require.NoError(t, err)
	return s
}

func get(t *testing.T, h http.Handler, path string, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func sessionCookie(t *testing.T, rec *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, c := range rec.Result().Cookies() {
		if c.Name == DefaultCookieName {
			return c
		}
	}
	t.Fatal("no session cookie set")
	return nil
}

var toggleURL = regexp.MustCompile(`hx-post="([^"]*/toggle[^"]*)"`)

func TestIndexPage(t *testing.T) {
	s := newServer(t)

	rec := get(t, s.Handler(), "/")
	require.Equal(t, http.StatusOK, rec.Code)

	body := rec.Body.String()
	assert.Contains(t, body, "<title>Test Toys</title>")
	assert.Contains(t, body, htmxScript)
	assert.Contains(t, body, `<h2>Bear</h2>`)
	assert.Contains(t, body, `<p>0 Likes</p>`)
	assert.Contains(t, body, `id="toasts"`)

	cookie := sessionCookie(t, rec)
	assert.True(t, cookie.HttpOnly)
}

func TestSessionReuse(t *testing.T) {
	s := newServer(t)

	first := get(t, s.Handler(), "/")
	cookie := sessionCookie(t, first)

	second := get(t, s.Handler(), "/", cookie)
	assert.Empty(t, second.Result().Cookies(), "known session should not be reissued")
	assert.Equal(t, 1, s.sessions.Len())

	get(t, s.Handler(), "/")
	assert.Equal(t, 2, s.sessions.Len())
}

func TestToggleThroughComponentRoute(t *testing.T) {
	s := newServer(t)

	page := get(t, s.Handler(), "/")
	cookie := sessionCookie(t, page)
	m := toggleURL.FindStringSubmatch(page.Body.String())
	require.Len(t, m, 2, "toggle button not found")
	url := html.UnescapeString(m[1])

	// No HX-Request header: rejected
	req := httptest.NewRequest(http.MethodPost, url, nil)
	req.AddCookie(cookie)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	req = httptest.NewRequest(http.MethodPost, url, nil)
	req.AddCookie(cookie)
	req.Header.Set("HX-Request", "true")
	rec = httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Create a toy!")

	// The flag lives in the session
	again := get(t, s.Handler(), "/", cookie)
	assert.Contains(t, again.Body.String(), `id="toy-form"`)
	fresh := get(t, s.Handler(), "/")
	assert.NotContains(t, fresh.Body.String(), `id="toy-form"`)
}

func TestTamperedPropsRejected(t *testing.T) {
	s := newServer(t)

	page := get(t, s.Handler(), "/")
	m := toggleURL.FindStringSubmatch(page.Body.String())
	require.Len(t, m, 2)
	url := html.UnescapeString(m[1])
	url = url[:strings.Index(url, "?p=")] + "?p=AAAA.AAAA"

	req := httptest.NewRequest(http.MethodPost, url, nil)
	req.AddCookie(sessionCookie(t, page))
	req.Header.Set("HX-Request", "true")
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestComponentRouteNeedsLiveSession(t *testing.T) {
	s := newServer(t)

	page := get(t, s.Handler(), "/")
	m := toggleURL.FindStringSubmatch(page.Body.String())
	require.Len(t, m, 2)
	url := html.UnescapeString(m[1])
	require.Equal(t, 1, s.sessions.Len())

	for name, cookie := range map[string]*http.Cookie{
		"no cookie":       nil,
		"unknown session": {Name: DefaultCookieName, Value: "3f0e8d4c-0000-4000-8000-000000000000"},
	} {
		t.Run(name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, url, nil)
			req.Header.Set("HX-Request", "true")
			if cookie != nil {
				req.AddCookie(cookie)
			}
			rec := httptest.NewRecorder()
			s.Handler().ServeHTTP(rec, req)

			assert.Equal(t, http.StatusUnauthorized, rec.Code)
			assert.Equal(t, "/", rec.Header().Get("HX-Redirect"))
			assert.Empty(t, rec.Result().Cookies())
		})
	}
	assert.Equal(t, 1, s.sessions.Len(), "component routes never open sessions")
}

func TestHealthz(t *testing.T) {
	s := newServer(t)

	rec := get(t, s.Handler(), "/healthz")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok","sessions":0}`, rec.Body.String())
	assert.Empty(t, rec.Result().Cookies(), "health checks do not open sessions")
}

func TestStaticAssets(t *testing.T) {
	s := newServer(t)

	for _, path := range []string{"/static/toybox.css", "/static/toybox.js", "/static/toy-header.svg"} {
		rec := get(t, s.Handler(), path)
		assert.Equal(t, http.StatusOK, rec.Code, path)
		assert.NotEmpty(t, rec.Body.String(), path)
	}
}

func TestRandomPropsKey(t *testing.T) {
	sessions := session.NewManager(func() *app.App { return app.New(listAPI{}) })
	defer sessions.Close()

	s, err := New(sessions, Options{})
	require.NoError(t, err)
	assert.Len(t, s.opts.PropsKey, 32)
	assert.Equal(t, DefaultCookieName, s.opts.CookieName)
}

func TestServeStopsOnCancel(t *testing.T) {
	s := newServer(t)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- s.Run(ctx, "127.0.0.1:0") }()
	cancel()

	assert.NoError(t, <-done)
}
