package hx

// Result[P] is returned from action handlers to control rendering and side effects.
//
// Result is a fluent builder: handlers specify flash messages, events and
// headers without touching the ResponseWriter, and the component
// applies them after the handler returns.
//
//	// Success - auto-render with updated props
//	return hx.OK(props)
//
//	// Success with an event for loosely coupled listeners
//	return hx.OK(props).Trigger("toys:changed")
//
//	// Error - handed to the registry's OnError
//	return hx.Err(props, err)
type Result[P any] struct {
	props       P
	err         error
	flashes     []Flash
	trigger     string
	triggerData map[string]any
	headers     map[string]string
	status      int
}

// OK creates a success result that will auto-render with the given props.
func OK[P any](props P) Result[P] {
	return Result[P]{props: props}
}

// Err creates an error result that is passed to the OnError handler.
//
// Hydration and decoding errors take the same path automatically; handlers
// only return Err for domain failures.
func Err[P any](props P, err error) Result[P] {
	return Result[P]{props: props, err: err}
}

// Flash adds a toast notification, rendered as an out-of-band swap into
// the #toasts container.
//
//	return hx.OK(props).Flash(hx.FlashError, "Could not reach the toy server")
func (r Result[P]) Flash(level, message string) Result[P] {
	r.flashes = append(r.flashes, Flash{Level: level, Message: message})
	return r
}

// Trigger emits an event via HX-Trigger header for component communication.
//
// Listeners subscribe with Action.OnEvent:
//
//	// Emitter:
//	return hx.OK(props).Trigger("toys:changed")
//
//	// Listener:
//	c.Refresh(props).OnEvent("toys:changed").Attrs()
//
// With data the header becomes a JSON object and HTMX exposes the data as
// evt.detail.
func (r Result[P]) Trigger(event string, data ...map[string]any) Result[P] {
	r.trigger = event
	if len(data) > 0 {
		r.triggerData = data[0]
	}
	return r
}

// Header sets a custom response header.
func (r Result[P]) Header(key, value string) Result[P] {
	if r.headers == nil {
		r.headers = make(map[string]string)
	}
	r.headers[key] = value
	return r
}

// Status sets the HTTP status code. The default is 200.
func (r Result[P]) Status(code int) Result[P] {
	r.status = code
	return r
}

// GetProps returns the props from the result.
func (r Result[P]) GetProps() P {
	return r.props
}

// GetErr returns the error from the result.
func (r Result[P]) GetErr() error {
	return r.err
}

// GetFlashes returns the flash messages.
func (r Result[P]) GetFlashes() []Flash {
	return r.flashes
}

// GetTrigger returns the trigger event name.
func (r Result[P]) GetTrigger() string {
	return r.trigger
}

// GetTriggerData returns the trigger event data.
func (r Result[P]) GetTriggerData() map[string]any {
	return r.triggerData
}

// GetHeaders returns the response headers.
func (r Result[P]) GetHeaders() map[string]string {
	return r.headers
}

// GetStatus returns the HTTP status code (0 means not set, use default 200).
func (r Result[P]) GetStatus() int {
	return r.status
}
