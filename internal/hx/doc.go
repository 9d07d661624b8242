// Package hx is a small HTMX component runtime.
//
// A component is a Go type that embeds *Component[P], where P is a props
// struct. Props are serialized into the component's URLs (signed by default,
// encrypted for sensitive components), so the server keeps no per-element
// state: every request carries what it needs to rebuild the view.
//
// Each request runs the same lifecycle:
//
//	decode props -> Hydrate -> default render or action handler -> Result
//
// Handlers return a Result that asks for a re-render or an error, with
// optional response headers, an HX-Trigger event and flash toasts rendered
// as out-of-band swaps.
//
// Components register with a Registry, whose Handler is mounted under
// /_c/. Mutating requests must carry the HX-Request header.
//
//	reg := hx.NewRegistry(key)
//	reg.Add(card, form)
//	mux.Handle("/_c/", reg.Handler())
//
// Props use msgpack struct tags. Fields tagged `msgpack:"-"` are left for
// Hydrate to fill in.
package hx
