package browser

import (
	"context"

	"pos-catalog-browser/internal/domain"
	"pos-catalog-browser/internal/imageresolver"
)

// Card is one product tile. It owns the thumbnail cursor; the confirmation
// preview walks its own cursor inside the sale workflow.
type Card struct {
	Product domain.Product
	cursor  *imageresolver.Cursor
	loaded  bool // active location has been probed successfully
}

// Image returns the thumbnail location, or false when the placeholder is shown.
func (c *Card) Image() (string, bool) {
	return c.cursor.Active()
}

// ImageFailed handles a thumbnail load failure.
func (c *Card) ImageFailed() (string, bool) {
	c.loaded = false
	return c.cursor.Advance()
}

// Placeholder is rendered when no thumbnail location is left.
func (c *Card) Placeholder() string {
	return imageresolver.Placeholder(c.Product.Code)
}

// Resolve probes the thumbnail until a location loads. Already loaded or exhausted
// cards issue no requests.
func (c *Card) Resolve(ctx context.Context, p *imageresolver.Prober) (string, bool) {
	if c.loaded {
		return c.cursor.Active()
	}
	loc, ok := p.Resolve(ctx, c.cursor)
	c.loaded = ok
	return loc, ok
}

// Grid keeps one card per product of the latest snapshot, in snapshot order.
type Grid struct {
	resolver *imageresolver.Resolver
	cards    []*Card
}

// NewGrid creates an empty grid.
func NewGrid(resolver *imageresolver.Resolver) *Grid {
	return &Grid{resolver: resolver}
}

// Sync rebuilds the grid from a snapshot. A card survives for a product id that is still
// present; its cursor only resets when the product's candidate list changed.
func (g *Grid) Sync(products []domain.Product) {
	old := make(map[int64]*Card, len(g.cards))
	for _, c := range g.cards {
		old[c.Product.ID] = c
	}

	cards := make([]*Card, 0, len(products))
	for _, p := range products {
		candidates := g.resolver.Candidates(p)
		if c, ok := old[p.ID]; ok {
			c.Product = p
			if c.cursor.Reset(candidates) {
				c.loaded = false
			}
			cards = append(cards, c)
			continue
		}
		cards = append(cards, &Card{Product: p, cursor: imageresolver.NewCursor(candidates)})
	}
	g.cards = cards
}

// Cards returns the cards in display order.
func (g *Grid) Cards() []*Card {
	return g.cards
}

// Card finds the card of a product.
func (g *Grid) Card(id int64) (*Card, bool) {
	for _, c := range g.cards {
		if c.Product.ID == id {
			return c, true
		}
	}
	return nil, false
}
