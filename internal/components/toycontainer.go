package components

import (
	"context"
	"net/http"

	"github.com/a-h/templ"
	"github.com/pthm/toybox/internal/hx"
	"github.com/pthm/toybox/internal/toy"
)

// ToyChangedEvent is fired when a toy was submitted for creation.
const ToyChangedEvent = "toys:changed"

// ToyContainerProps carries nothing over the wire; Toys is hydrated.
type ToyContainerProps struct {
	Toys []toy.Toy `msgpack:"-"`
}

// ToyContainer lays out one card per toy and refreshes on ToyChangedEvent.
type ToyContainer struct {
	*hx.Component[ToyContainerProps]
	source  AppSource
	card    *ToyCard
	creates *pending
	opts    Options
}

// NewToyContainer creates the container component.
func NewToyContainer(source AppSource, card *ToyCard, creates *pending, opts Options) *ToyContainer {
	c := &ToyContainer{source: source, card: card, creates: creates, opts: opts}
	c.Component = hx.New[ToyContainerProps]("toycontainer", c)
	if opts.EncryptProps {
		c.Sensitive()
	}
	c.Action("refresh", c.handleRefresh).Method(http.MethodGet)
	return c
}

// Hydrate waits for the initial load, bounded by the request, and takes the
// current list. A failed load renders an empty collection.
func (c *ToyContainer) Hydrate(ctx context.Context, props *ToyContainerProps) error {
	a, err := c.source(ctx)
	if err != nil {
		return err
	}
	if err := a.Loaded().Wait(ctx); err != nil && ctx.Err() != nil {
		return err
	}
	props.Toys = a.Snapshot().Toys
	return nil
}

// Render produces the collection markup.
func (c *ToyContainer) Render(ctx context.Context, props ToyContainerProps) templ.Component {
	cards := make([]templ.Component, 0, len(props.Toys))
	for _, t := range props.Toys {
		cards = append(cards, c.card.Render(ctx, CardProps(t)))
	}
	refresh := c.Call("refresh", props).OnEvent(ToyChangedEvent).Attrs()
	return toyCollectionTemplate(refresh, cards)
}

// handleRefresh waits for the session's submitted creates and re-renders
// the list with whatever they added.
func (c *ToyContainer) handleRefresh(ctx context.Context, props ToyContainerProps, r *http.Request) hx.Result[ToyContainerProps] {
	a, err := c.source(ctx)
	if err != nil {
		return hx.Err(props, err)
	}

	failed := c.creates.settle(ctx, a)
	if err := c.Hydrate(ctx, &props); err != nil {
		return hx.Err(props, err)
	}

	result := hx.OK(props)
	if failed > 0 {
		result = flashFailure(result, c.opts, "Could not create toy")
	}
	return result
}
