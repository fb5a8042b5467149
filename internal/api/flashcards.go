package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"

	"github.com/abhisek/flashdeck/internal/card"
)

// FlashcardInput is the payload for creating or updating a card. Answer
// is optional; without it the API generates one.
type FlashcardInput struct {
	DeckID   string          `json:"deck_id" validate:"required"`
	Question string          `json:"question" validate:"required,max=2000"`
	Type     card.Type       `json:"type" validate:"required,card_type"`
	Answer   json.RawMessage `json:"answer,omitempty"`
}

type scoreInput struct {
	Score int `json:"score" validate:"min=1,max=3"`
}

type reviewInput struct {
	Correct bool `json:"correct"`
}

// ListFlashcards returns the studyable cards of a deck with normalized
// answers. Cards without a question are dropped.
func (c *Client) ListFlashcards(ctx context.Context, deckID string) ([]card.Flashcard, error) {
	var raw []card.Flashcard
	path := "/decks/" + url.PathEscape(deckID) + "/flashcards"
	if err := c.do(ctx, http.MethodGet, path, nil, &raw); err != nil {
		return nil, err
	}

	cards := make([]card.Flashcard, 0, len(raw))
	for _, fc := range raw {
		if strings.TrimSpace(fc.Question) == "" {
			continue
		}
		cards = append(cards, fc.Normalized())
	}
	if dropped := len(raw) - len(cards); dropped > 0 {
		c.logger.Info("dropped cards without a question", "deck_id", deckID, "count", dropped)
	}
	return cards, nil
}

// CreateFlashcard validates in and creates a card.
func (c *Client) CreateFlashcard(ctx context.Context, in FlashcardInput) (*card.Flashcard, error) {
	if err := c.validator.Validate(in); err != nil {
		return nil, err
	}
	var fc card.Flashcard
	if err := c.do(ctx, http.MethodPost, "/flashcards", in, &fc); err != nil {
		return nil, err
	}
	fc = fc.Normalized()
	return &fc, nil
}

// UpdateFlashcard validates in and replaces the card with id.
func (c *Client) UpdateFlashcard(ctx context.Context, id string, in FlashcardInput) (*card.Flashcard, error) {
	if err := c.validator.Validate(in); err != nil {
		return nil, err
	}
	var fc card.Flashcard
	if err := c.do(ctx, http.MethodPut, "/flashcards/"+url.PathEscape(id), in, &fc); err != nil {
		return nil, err
	}
	fc = fc.Normalized()
	return &fc, nil
}

// DeleteFlashcard removes a card.
func (c *Client) DeleteFlashcard(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/flashcards/"+url.PathEscape(id), nil, nil)
}

// SubmitScore records a 1..3 difficulty rating for a card. The response
// body is ignored.
func (c *Client) SubmitScore(ctx context.Context, cardID string, score int) error {
	in := scoreInput{Score: score}
	if err := c.validator.Validate(in); err != nil {
		return err
	}
	return c.do(ctx, http.MethodPost, "/flashcards/"+url.PathEscape(cardID)+"/score", in, nil)
}

// MarkReviewed updates a card's review counters after it was checked.
func (c *Client) MarkReviewed(ctx context.Context, cardID string, correct bool) error {
	return c.do(ctx, http.MethodPost, "/flashcards/"+url.PathEscape(cardID)+"/reviewed", reviewInput{Correct: correct}, nil)
}
