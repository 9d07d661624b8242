// Package components holds the HTMX components of the toy collection page.
package components

//go:generate go run github.com/a-h/templ/cmd/templ@v0.3.977 generate

import (
	"context"
	"errors"

	"github.com/pthm/toybox/internal/app"
	"github.com/pthm/toybox/internal/hx"
)

// ErrNoApp is returned when a request carries no controller.
var ErrNoApp = errors.New("components: no app for request")

// AppSource resolves the controller serving the current request.
type AppSource func(ctx context.Context) (*app.App, error)

// Options tune component behavior.
type Options struct {
	// Title is the banner text.
	Title string
	// ShowErrors flashes a toast when a backend request fails. Off, a failed
	// action leaves the view as it was.
	ShowErrors bool
	// EncryptProps seals component props with AES-GCM instead of signing
	// them, so toy ids do not show in the page's URLs.
	EncryptProps bool
}

// DefaultTitle is the banner text when Options.Title is empty.
const DefaultTitle = "Andy's Toy Collection"

// Set holds every component instance of the page.
type Set struct {
	Shell     *Shell
	Form      *ToyForm
	Container *ToyContainer
	Card      *ToyCard
}

// Init creates the components and registers them with reg.
func Init(source AppSource, reg *hx.Registry, opts Options) *Set {
	if opts.Title == "" {
		opts.Title = DefaultTitle
	}

	creates := newPending()

	s := &Set{}
	s.Card = NewToyCard(source, opts)
	s.Container = NewToyContainer(source, s.Card, creates, opts)
	s.Form = NewToyForm(source, creates, opts)
	s.Shell = NewShell(source, s.Form, s.Container, opts)

	reg.Add(s.Shell, s.Form, s.Container, s.Card)
	return s
}

// keepTarget leaves the swap target in place when the response has nothing
// to put there. Out-of-band toasts are still applied.
func keepTarget[P any](r hx.Result[P]) hx.Result[P] {
	return r.Header("HX-Reswap", string(hx.SwapNone))
}

// flashFailure adds an error toast when enabled.
func flashFailure[P any](r hx.Result[P], opts Options, message string) hx.Result[P] {
	if !opts.ShowErrors {
		return r
	}
	return r.Flash(hx.FlashError, message)
}
