package hx

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"

	"github.com/a-h/templ"
)

type counterProps struct {
	ID    string `msgpack:"id"`
	Count int    `msgpack:"-"`
}

// counter is a component backed by an in-memory map.
type counter struct {
	*Component[counterProps]
	counts     map[string]int
	hydrateErr error
}

func newCounter() *counter {
	c := &counter{counts: map[string]int{"a": 1}}
	c.Component = New[counterProps]("counter", c)
	c.Action("increment", c.handleIncrement)
	c.Action("reset", c.handleReset).Method(http.MethodDelete)
	c.Action("fail", func(ctx context.Context, p counterProps, r *http.Request) Result[counterProps] {
		return Err(p, ErrNotFound)
	})
	return c
}

func (c *counter) Hydrate(ctx context.Context, props *counterProps) error {
	if c.hydrateErr != nil {
		return c.hydrateErr
	}
	n, ok := c.counts[props.ID]
	if !ok {
		return ErrNotFound
	}
	props.Count = n
	return nil
}

func (c *counter) Render(ctx context.Context, props counterProps) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		_, err := io.WriteString(w, `<span class="count">`+strconv.Itoa(props.Count)+`</span>`)
		return err
	})
}

func (c *counter) handleIncrement(ctx context.Context, props counterProps, r *http.Request) Result[counterProps] {
	c.counts[props.ID]++
	props.Count = c.counts[props.ID]
	return OK(props).Trigger("counter:changed").Flash(FlashSuccess, "Incremented")
}

func (c *counter) handleReset(ctx context.Context, props counterProps, r *http.Request) Result[counterProps] {
	c.counts[props.ID] = 0
	props.Count = 0
	return OK(props).Status(http.StatusAccepted).Header("Cache-Control", "no-store")
}

func newMounted(t *testing.T) (*counter, *Registry) {
	t.Helper()
	c := newCounter()
	reg := NewRegistry([]byte("test-key"))
	reg.Add(c)
	return c, reg
}

func TestComponentPrefix(t *testing.T) {
	a := newCounter()
	b := newCounter()

	if !strings.HasPrefix(a.Prefix(), "/_c/counter-") {
		t.Errorf("Prefix() = %q, want /_c/counter-<hash>", a.Prefix())
	}
	// Same call site, same prefix
	if a.Prefix() != b.Prefix() {
		t.Errorf("prefixes differ: %q vs %q", a.Prefix(), b.Prefix())
	}

	other := New[counterProps]("counter", a)
	if other.Prefix() == a.Prefix() {
		t.Error("different call sites should get different prefixes")
	}
}

func TestComponentRender(t *testing.T) {
	c, _ := newMounted(t)

	res, err := TestGet(c, c.Refresh(counterProps{ID: "a"}).URL)
	if err != nil {
		t.Fatal(err)
	}
	if !res.IsOK() || !res.HTMLContains(`<span class="count">1</span>`) {
		t.Errorf("got %d %q", res.StatusCode, res.HTML)
	}
	if ct := res.Headers.Get("Content-Type"); ct != "text/html; charset=utf-8" {
		t.Errorf("Content-Type = %q", ct)
	}
}

func TestComponentAction(t *testing.T) {
	c, _ := newMounted(t)

	action := c.Call("increment", counterProps{ID: "a"})
	if action.Method != http.MethodPost {
		t.Errorf("Method = %q, want POST", action.Method)
	}

	res, err := TestPost(c, action.URL, nil)
	if err != nil {
		t.Fatal(err)
	}
	if !res.HTMLContains(`<span class="count">2</span>`) {
		t.Errorf("HTML = %q, want count 2", res.HTML)
	}
	if !res.HasEvent("counter:changed") {
		t.Errorf("events = %v, want counter:changed", res.TriggeredEvents)
	}
	if !res.HasFlash(FlashSuccess, "Incremented") {
		t.Errorf("flashes = %v", res.Flashes)
	}
}

func TestComponentActionMethodOverride(t *testing.T) {
	c, _ := newMounted(t)

	action := c.Call("reset", counterProps{ID: "a"})
	if action.Method != http.MethodDelete {
		t.Fatalf("Method = %q, want DELETE", action.Method)
	}

	res, _ := TestAction(c, action.URL, http.MethodDelete, nil)
	if !res.HasStatus(http.StatusAccepted) {
		t.Errorf("status = %d, want 202", res.StatusCode)
	}
	if res.Headers.Get("Cache-Control") != "no-store" {
		t.Error("custom header missing")
	}

	res, _ = TestPost(c, action.URL, nil)
	if !res.HasStatus(http.StatusMethodNotAllowed) {
		t.Errorf("POST to DELETE action: status = %d, want 405", res.StatusCode)
	}
}

func TestComponentErrors(t *testing.T) {
	c, _ := newMounted(t)
	good := c.Refresh(counterProps{ID: "a"}).URL

	tests := []struct {
		name   string
		url    string
		method string
		want   int
	}{
		{"unknown action", c.Prefix() + "/nope?" + strings.SplitN(good, "?", 2)[1], http.MethodPost, http.StatusNotFound},
		{"tampered props", c.Prefix() + "/?p=AAAA.AAAA", http.MethodGet, http.StatusBadRequest},
		{"malformed props", c.Prefix() + "/?p=nodot", http.MethodGet, http.StatusBadRequest},
		{"hydrate not found", c.Refresh(counterProps{ID: "missing"}).URL, http.MethodGet, http.StatusNotFound},
		{"handler error", c.Call("fail", counterProps{ID: "a"}).URL, http.MethodPost, http.StatusNotFound},
		{"post to render", good, http.MethodPost, http.StatusMethodNotAllowed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, _ := TestAction(c, tt.url, tt.method, nil)
			if res.StatusCode != tt.want {
				t.Errorf("status = %d, want %d (body %q)", res.StatusCode, tt.want, res.HTML)
			}
		})
	}
}

func TestComponentHydrationFailure(t *testing.T) {
	c, reg := newMounted(t)
	c.hydrateErr = errors.New("db down")

	var got error
	reg.OnError = func(w http.ResponseWriter, r *http.Request, err error) {
		got = err
		w.WriteHeader(http.StatusServiceUnavailable)
	}

	res, _ := TestGet(c, c.Refresh(counterProps{ID: "a"}).URL)
	if !res.HasStatus(http.StatusServiceUnavailable) {
		t.Errorf("status = %d, want custom 503", res.StatusCode)
	}
	if !errors.Is(got, ErrHydrationFailed) {
		t.Errorf("OnError got %v, want ErrHydrationFailed", got)
	}
}

func TestSensitiveComponentSealsProps(t *testing.T) {
	signed, _ := newMounted(t)

	sealed := newCounter()
	sealed.Sensitive()
	reg := NewRegistry([]byte("test-key"))
	reg.Add(sealed)

	props := counterProps{ID: "a"}
	signedURL := signed.Call("increment", props).URL
	sealedURL := sealed.Call("increment", props).URL
	if strings.Contains(sealedURL, ".") {
		t.Errorf("sealed props should not carry a signature: %q", sealedURL)
	}

	res, _ := TestPost(sealed, sealedURL, nil)
	if !res.IsOK() || !res.HTMLContains(`<span class="count">2</span>`) {
		t.Errorf("sealed round trip: %d %q", res.StatusCode, res.HTML)
	}

	// A signed token is not accepted where sealed props are expected.
	res, _ = TestPost(sealed, sealed.Prefix()+"/increment"+signedURL[strings.Index(signedURL, "?"):], nil)
	if res.HasStatus(http.StatusOK) {
		t.Error("signed props accepted by a sensitive component")
	}
}

func TestRegistryHandler(t *testing.T) {
	c, reg := newMounted(t)
	h := reg.Handler()

	t.Run("mutation without HX-Request is forbidden", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, c.Call("increment", counterProps{ID: "a"}).URL, nil)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		if rec.Code != http.StatusForbidden {
			t.Errorf("status = %d, want 403", rec.Code)
		}
		if c.counts["a"] != 1 {
			t.Error("handler ran despite CSRF rejection")
		}
	})

	t.Run("GET is allowed without HX-Request", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, c.Refresh(counterProps{ID: "a"}).URL, nil)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Errorf("status = %d, want 200", rec.Code)
		}
	})

	t.Run("routes HTMX mutation", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, c.Call("increment", counterProps{ID: "a"}).URL, nil)
		req.Header.Set("HX-Request", "true")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK || c.counts["a"] != 2 {
			t.Errorf("status = %d, count = %d", rec.Code, c.counts["a"])
		}
	})
}

func TestRegistryPrefixCollision(t *testing.T) {
	c, reg := newMounted(t)

	defer func() {
		if recover() == nil {
			t.Error("Add should panic on prefix collision")
		}
	}()
	reg.Add(c)
}

func TestURLsWithoutEncoder(t *testing.T) {
	c := newCounter()

	if got := c.Refresh(counterProps{ID: "a"}).URL; got != c.Prefix()+"/" {
		t.Errorf("unmounted Refresh URL = %q", got)
	}
}
