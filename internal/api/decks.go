package api

import (
	"context"
	"net/http"
	"net/url"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/abhisek/flashdeck/internal/card"
)

// DeckInput is the payload for creating a deck.
type DeckInput struct {
	Name        string `json:"name" validate:"required,max=200"`
	Description string `json:"description" validate:"max=2000"`
	IsPublic    bool   `json:"is_public"`
}

// ListDecks returns every deck.
func (c *Client) ListDecks(ctx context.Context) ([]card.Deck, error) {
	var decks []card.Deck
	if err := c.do(ctx, http.MethodGet, "/decks", nil, &decks); err != nil {
		return nil, err
	}
	return decks, nil
}

// GetDeck returns one deck.
func (c *Client) GetDeck(ctx context.Context, id string) (*card.Deck, error) {
	var d card.Deck
	if err := c.do(ctx, http.MethodGet, "/decks/"+url.PathEscape(id), nil, &d); err != nil {
		return nil, err
	}
	return &d, nil
}

// CreateDeck validates in and creates a deck.
func (c *Client) CreateDeck(ctx context.Context, in DeckInput) (*card.Deck, error) {
	if err := c.validator.Validate(in); err != nil {
		return nil, err
	}
	var d card.Deck
	if err := c.do(ctx, http.MethodPost, "/decks", in, &d); err != nil {
		return nil, err
	}
	return &d, nil
}

// DeleteDeck removes a deck and its cards.
func (c *Client) DeleteDeck(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/decks/"+url.PathEscape(id), nil, nil)
}

// countWorkers bounds concurrent card-count requests.
const countWorkers = 4

// DeckCardCounts fetches the number of studyable cards in each deck
// concurrently. The first failure cancels the rest.
func (c *Client) DeckCardCounts(ctx context.Context, decks []card.Deck) (map[string]int, error) {
	counts := make(map[string]int, len(decks))
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(countWorkers)
	for _, d := range decks {
		g.Go(func() error {
			cards, err := c.ListFlashcards(gctx, d.ID)
			if err != nil {
				return err
			}
			mu.Lock()
			counts[d.ID] = len(cards)
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return counts, nil
}
