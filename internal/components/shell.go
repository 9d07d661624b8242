package components

import (
	"context"
	"io"
	"net/http"

	"github.com/a-h/templ"
	"github.com/pthm/toybox/internal/hx"
)

// ShellProps mirrors the controller's form flag; it is hydrated.
type ShellProps struct {
	ShowForm bool `msgpack:"-"`
}

// Shell is the root view: banner, optional form, the add button and the
// collection.
type Shell struct {
	*hx.Component[ShellProps]
	source    AppSource
	form      *ToyForm
	container *ToyContainer
	opts      Options
}

// NewShell creates the root component.
func NewShell(source AppSource, form *ToyForm, container *ToyContainer, opts Options) *Shell {
	c := &Shell{source: source, form: form, container: container, opts: opts}
	c.Component = hx.New[ShellProps]("shell", c)
	if opts.EncryptProps {
		c.Sensitive()
	}
	c.Action("toggle", c.handleToggle)
	return c
}

// Hydrate reads the form flag.
func (c *Shell) Hydrate(ctx context.Context, props *ShellProps) error {
	a, err := c.source(ctx)
	if err != nil {
		return err
	}
	props.ShowForm = a.Snapshot().ShowForm
	return nil
}

// Render produces the page body.
func (c *Shell) Render(ctx context.Context, props ShellProps) templ.Component {
	var form templ.Component
	if props.ShowForm {
		form = c.form.Render(ctx, ToyFormProps{})
	}
	toggle := c.Call("toggle", props).Target("#toy-app").Attrs()
	return shellTemplate(c.opts.Title, form, toggle, c.collection())
}

// collection hydrates the container at render time.
func (c *Shell) collection() templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		var props ToyContainerProps
		if err := c.container.Hydrate(ctx, &props); err != nil {
			return err
		}
		return c.container.Render(ctx, props).Render(ctx, w)
	})
}

func (c *Shell) handleToggle(ctx context.Context, props ShellProps, r *http.Request) hx.Result[ShellProps] {
	a, err := c.source(ctx)
	if err != nil {
		return hx.Err(props, err)
	}
	props.ShowForm = a.ToggleForm()
	return hx.OK(props)
}
