package hx

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/http"
	"path/filepath"
	"runtime"
	"strings"
)

// Handler handles one named action. The props it receives are already
// decoded and hydrated.
type Handler[P any] func(ctx context.Context, props P, r *http.Request) Result[P]

// actionDef holds metadata about a registered action.
type actionDef[P any] struct {
	name    string
	method  string
	handler Handler[P]
}

// Component[P] is the base type embedded by user components.
// P is the Props type for this component.
//
// Components embed *Component[P] to gain action registration, URL generation
// and request dispatch:
//
//	type ToyCard struct {
//	    *hx.Component[ToyCardProps]
//	}
//
//	func NewToyCard() *ToyCard {
//	    c := &ToyCard{}
//	    c.Component = hx.New[ToyCardProps]("toycard", c)
//	    c.Action("like", c.handleLike).Method(http.MethodPatch)
//	    return c
//	}
//
// Each component instance receives a deterministic URL prefix based on its
// name and source location (file:line), so instances never collide.
type Component[P any] struct {
	name      string
	prefix    string
	sensitive bool
	actions   map[string]*actionDef[P]
	encoder   *Encoder
	onError   ErrorHandler
	self      Lifecycle[P]
}

// New creates a component. self is the concrete component embedding the
// result; its Hydrate and Render methods drive the request lifecycle.
//
// By default, props are signed (visible in URLs but tamper-proof via HMAC).
// Call Sensitive to encrypt them instead.
func New[P any](name string, self Lifecycle[P]) *Component[P] {
	return &Component[P]{
		name:    name,
		prefix:  "/_c/" + name + "-" + componentHash(name, 1),
		actions: make(map[string]*actionDef[P]),
		self:    self,
	}
}

// Sensitive marks the component as sensitive, enabling full encryption.
func (c *Component[P]) Sensitive() *Component[P] {
	c.sensitive = true
	return c
}

// Name returns the component's name.
func (c *Component[P]) Name() string {
	return c.name
}

// Prefix returns the component's URL prefix.
// All actions for this component are mounted under this prefix.
func (c *Component[P]) Prefix() string {
	return c.prefix
}

// Action registers a named action handler with default POST method.
//
// Actions use semantic names that describe intent (like, delete, toggle)
// rather than HTTP methods. The returned builder can override the method:
//
//	c.Action("toggle", c.handleToggle)
//	c.Action("delete", c.handleDelete).Method(http.MethodDelete)
func (c *Component[P]) Action(name string, handler Handler[P]) *ActionBuilder {
	def := &actionDef[P]{
		name:    name,
		method:  http.MethodPost,
		handler: handler,
	}
	c.actions[name] = def
	return &ActionBuilder{method: &def.method}
}

// Call returns an action builder for a registered action.
//
//	c.Call("like", props).Target("closest .card").Attrs()
func (c *Component[P]) Call(action string, props P) *Action {
	method := http.MethodPost
	if def, ok := c.actions[action]; ok {
		method = def.method
	}
	return NewAction(c.buildURL(action, props), method)
}

// Refresh returns an action builder for the default render (GET).
//
//	c.Refresh(props).OnEvent("toys:changed").Attrs()
func (c *Component[P]) Refresh(props P) *Action {
	return NewAction(c.buildURL("", props), http.MethodGet)
}

// HXPrefix implements HXComponent.
func (c *Component[P]) HXPrefix() string {
	return c.prefix
}

// HXServeHTTP decodes props, hydrates them, routes to the default render or
// the named action, and writes the result.
func (c *Component[P]) HXServeHTTP(w http.ResponseWriter, r *http.Request) {
	var props P
	if encoded := r.URL.Query().Get("p"); encoded != "" {
		if c.encoder == nil {
			c.fail(w, r, ErrInvalidFormat)
			return
		}
		if err := c.encoder.Decode(encoded, c.sensitive, &props); err != nil {
			c.fail(w, r, wrapEncodingError(err))
			return
		}
	}

	if err := c.self.Hydrate(r.Context(), &props); err != nil {
		c.fail(w, r, fmt.Errorf("%w: %w", ErrHydrationFailed, err))
		return
	}

	name := strings.Trim(strings.TrimPrefix(r.URL.Path, c.prefix), "/")
	if name == "" {
		if r.Method != http.MethodGet && r.Method != http.MethodHead {
			w.Header().Set("Allow", http.MethodGet)
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		c.render(w, r, props, http.StatusOK, nil)
		return
	}

	def, ok := c.actions[name]
	if !ok {
		http.NotFound(w, r)
		return
	}
	if r.Method != def.method {
		w.Header().Set("Allow", def.method)
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	c.handleResult(w, r, def.handler(r.Context(), props, r))
}

func (c *Component[P]) handleResult(w http.ResponseWriter, r *http.Request, result Result[P]) {
	if err := result.GetErr(); err != nil {
		c.fail(w, r, err)
		return
	}
	for k, v := range result.GetHeaders() {
		w.Header().Set(k, v)
	}
	if trigger := BuildTriggerHeader(result.GetTrigger(), result.GetTriggerData()); trigger != "" {
		w.Header().Set("HX-Trigger", trigger)
	}

	status := result.GetStatus()
	if status == 0 {
		status = http.StatusOK
	}
	c.render(w, r, result.GetProps(), status, result.GetFlashes())
}

// render buffers the output so a failing template never leaves a half-written
// response.
func (c *Component[P]) render(w http.ResponseWriter, r *http.Request, props P, status int, flashes []Flash) {
	var buf bytes.Buffer
	if err := c.self.Render(r.Context(), props).Render(r.Context(), &buf); err != nil {
		c.fail(w, r, err)
		return
	}
	buf.WriteString(RenderFlashesOOB(flashes))

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(buf.Bytes())
}

func (c *Component[P]) fail(w http.ResponseWriter, r *http.Request, err error) {
	if c.onError != nil {
		c.onError(w, r, err)
		return
	}
	DefaultErrorHandler(w, r, err)
}

func (c *Component[P]) mount(enc *Encoder, onError ErrorHandler) {
	c.encoder = enc
	c.onError = onError
}

// buildURL constructs the URL for an action with encoded props.
// Empty action string means default render (GET).
func (c *Component[P]) buildURL(action string, props P) string {
	path := c.prefix + "/" + action

	if c.encoder == nil {
		return path
	}
	encoded, err := c.encoder.Encode(props, c.sensitive)
	if err != nil {
		return path
	}
	return path + "?p=" + encoded
}

// componentHash generates a deterministic hash based on component name and source location.
func componentHash(name string, skip int) string {
	_, file, line, ok := runtime.Caller(skip + 1)
	input := name
	if ok {
		// Base filename only, for portability across checkouts
		input = fmt.Sprintf("%s:%d:%s", filepath.Base(file), line, name)
	}
	h := sha256.Sum256([]byte(input))
	return hex.EncodeToString(h[:4])
}
