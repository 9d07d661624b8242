package components

import (
	"context"
	"net/http"

	"github.com/a-h/templ"
	"github.com/pthm/toybox/internal/hx"
	"github.com/pthm/toybox/internal/toy"
)

// ToyFormProps is empty: the form always renders with blank fields.
type ToyFormProps struct{}

// ToyForm creates toys.
type ToyForm struct {
	*hx.Component[ToyFormProps]
	source  AppSource
	creates *pending
	opts    Options
}

// NewToyForm creates the form component. Submitted creates are handed to
// creates for the collection to pick up.
func NewToyForm(source AppSource, creates *pending, opts Options) *ToyForm {
	c := &ToyForm{source: source, creates: creates, opts: opts}
	c.Component = hx.New[ToyFormProps]("toyform", c)
	if opts.EncryptProps {
		c.Sensitive()
	}
	c.Action("create", c.handleCreate)
	return c
}

// Hydrate is a no-op.
func (c *ToyForm) Hydrate(ctx context.Context, props *ToyFormProps) error {
	return nil
}

// Render produces the form markup.
func (c *ToyForm) Render(ctx context.Context, props ToyFormProps) templ.Component {
	return toyFormTemplate(c.Call("create", props).Target("#toy-form").Attrs())
}

// handleCreate submits the draft as typed, without validation, and answers
// straight away with a blank form. The collection refreshes on
// ToyChangedEvent and reports the outcome once the backend has answered.
func (c *ToyForm) handleCreate(ctx context.Context, props ToyFormProps, r *http.Request) hx.Result[ToyFormProps] {
	if err := r.ParseForm(); err != nil {
		return hx.Err(props, err)
	}
	a, err := c.source(ctx)
	if err != nil {
		return hx.Err(props, err)
	}

	draft := toy.NewDraft(r.FormValue("name"), r.FormValue("image"))
	c.creates.add(a, a.AddToy(draft))
	return hx.OK(props).Trigger(ToyChangedEvent)
}
