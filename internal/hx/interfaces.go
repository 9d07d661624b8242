package hx

import (
	"context"
	"net/http"

	"github.com/a-h/templ"
)

// Hydrater is implemented by components to reconstruct rich objects from the
// lean identifiers carried in props. It runs once per request, before the
// default render or any action handler, so handlers can assume hydrated props
// are complete.
//
//	func (c *ToyCard) Hydrate(ctx context.Context, props *ToyCardProps) error {
//	    props.Toy = lookup(props.ID)
//	    return nil
//	}
type Hydrater[P any] interface {
	Hydrate(ctx context.Context, props *P) error
}

// Renderer is implemented by components to produce templ output.
// Called for GET requests and after action handlers that return OK.
// Render should be pure: it reads props and produces HTML.
type Renderer[P any] interface {
	Render(ctx context.Context, props P) templ.Component
}

// Lifecycle is the pair of methods every component provides.
type Lifecycle[P any] interface {
	Hydrater[P]
	Renderer[P]
}

// HXComponent is what the registry routes requests to. Every type embedding
// *Component[P] satisfies it through promotion.
type HXComponent interface {
	HXPrefix() string
	HXServeHTTP(w http.ResponseWriter, r *http.Request)
}

// ErrorHandler writes the response for a failed component request.
type ErrorHandler func(w http.ResponseWriter, r *http.Request, err error)

// mountable is satisfied by *Component[P]; the registry uses it to inject
// shared dependencies.
type mountable interface {
	mount(enc *Encoder, onError ErrorHandler)
}
