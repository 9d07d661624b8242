package components

import (
	"context"
	"net/http"

	"github.com/a-h/templ"
	"github.com/pthm/toybox/internal/hx"
	"github.com/pthm/toybox/internal/toy"
)

// ToyCardProps identifies one toy. Toy is filled in by Hydrate.
type ToyCardProps struct {
	ID      string `msgpack:"id"`
	Numeric bool   `msgpack:"n,omitempty"`

	Toy *toy.Toy `msgpack:"-"`
}

// CardProps builds the props for t.
func CardProps(t toy.Toy) ToyCardProps {
	return ToyCardProps{ID: t.ID.String(), Numeric: t.ID.IsNumeric(), Toy: &t}
}

func (p ToyCardProps) toyID() toy.ID {
	return toy.MakeID(p.ID, p.Numeric)
}

// ToyCard shows one toy with its like and donate buttons. It keeps no state
// of its own.
type ToyCard struct {
	*hx.Component[ToyCardProps]
	source AppSource
	opts   Options
}

// NewToyCard creates the card component.
func NewToyCard(source AppSource, opts Options) *ToyCard {
	c := &ToyCard{source: source, opts: opts}
	c.Component = hx.New[ToyCardProps]("toycard", c)
	if opts.EncryptProps {
		c.Sensitive()
	}
	c.Action("like", c.handleLike).Method(http.MethodPatch)
	c.Action("delete", c.handleDelete).Method(http.MethodDelete)
	return c
}

// Hydrate looks the toy up in the session's list once the initial load has
// settled. A toy that is not there leaves Toy nil.
func (c *ToyCard) Hydrate(ctx context.Context, props *ToyCardProps) error {
	if props.Toy != nil {
		return nil
	}
	a, err := c.source(ctx)
	if err != nil {
		return err
	}
	if err := a.Loaded().Wait(ctx); err != nil && ctx.Err() != nil {
		return err
	}
	if t, ok := a.Snapshot().Find(props.toyID()); ok {
		props.Toy = &t
	}
	return nil
}

// Render produces the card markup, or nothing for a missing toy.
func (c *ToyCard) Render(ctx context.Context, props ToyCardProps) templ.Component {
	if props.Toy == nil {
		return templ.NopComponent
	}
	return toyCardTemplate(*props.Toy,
		c.Call("like", props).Target("closest .card").Attrs(),
		c.Call("delete", props).Target("closest .card").Attrs(),
	)
}

// handleLike sends likes+1 and re-renders the card with the server's copy.
func (c *ToyCard) handleLike(ctx context.Context, props ToyCardProps, r *http.Request) hx.Result[ToyCardProps] {
	a, err := c.source(ctx)
	if err != nil {
		return hx.Err(props, err)
	}

	likeErr := a.LikeToy(props.toyID()).Wait(ctx)
	props.Toy = nil
	if err := c.Hydrate(ctx, &props); err != nil {
		return hx.Err(props, err)
	}

	result := hx.OK(props)
	if props.Toy == nil {
		result = keepTarget(result)
	}
	if likeErr != nil {
		result = flashFailure(result, c.opts, "Could not like this toy")
	}
	return result
}

// handleDelete removes the toy; on success the card swaps itself out.
func (c *ToyCard) handleDelete(ctx context.Context, props ToyCardProps, r *http.Request) hx.Result[ToyCardProps] {
	a, err := c.source(ctx)
	if err != nil {
		return hx.Err(props, err)
	}

	if err := a.DeleteToy(props.toyID()).Wait(ctx); err != nil {
		result := hx.OK(props)
		if props.Toy == nil {
			result = keepTarget(result)
		}
		return flashFailure(result, c.opts, "Could not donate this toy")
	}

	props.Toy = nil
	return hx.OK(props).Header("HX-Reswap", string(hx.SwapDelete))
}
