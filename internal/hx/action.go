package hx

import (
	"net/http"
	"strings"

	"github.com/a-h/templ"
)

// ActionBuilder configures action registration.
//
//	c.Action("toggle", handler)  // POST by default
//	c.Action("like", handler).Method(http.MethodPatch)
type ActionBuilder struct {
	method *string
}

// Method overrides the default POST method for an action.
func (ab *ActionBuilder) Method(m string) *ActionBuilder {
	*ab.method = m
	return ab
}

// Action describes an HTMX request to a component route. Build one with
// Component.Call or Component.Refresh and finish it with Attrs.
type Action struct {
	URL     string
	Method  string
	target  string
	swap    SwapMode
	trigger string
}

// NewAction creates an action for url. The swap mode defaults to SwapOuter.
func NewAction(url, method string) *Action {
	if method == "" {
		method = http.MethodGet
	}
	return &Action{URL: url, Method: method, swap: SwapOuter}
}

// Target sets the CSS selector receiving the response (hx-target).
func (a *Action) Target(selector string) *Action {
	a.target = selector
	return a
}

// Trigger sets the raw hx-trigger value.
func (a *Action) Trigger(trigger string) *Action {
	a.trigger = trigger
	return a
}

// OnEvent fires the request when event is dispatched anywhere on the page,
// typically from another component's Result.Trigger.
func (a *Action) OnEvent(event string) *Action {
	a.trigger = event + " from:body"
	return a
}

// Attrs returns the HTMX attributes for the action.
//
// Props always travel in the URL query, for every method, so the component
// can decode them before reading any request body.
func (a *Action) Attrs() templ.Attributes {
	attrs := templ.Attributes{
		"hx-" + strings.ToLower(a.Method): a.URL,
	}
	if a.target != "" {
		attrs["hx-target"] = a.target
	}
	if a.swap != "" {
		attrs["hx-swap"] = string(a.swap)
	}
	if a.trigger != "" {
		attrs["hx-trigger"] = a.trigger
	}
	return attrs
}
