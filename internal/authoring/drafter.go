// Package authoring drafts flashcard answer payloads with an LLM.
package authoring

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/abhisek/flashdeck/internal/card"
	"github.com/abhisek/flashdeck/internal/llm"
	"github.com/abhisek/flashdeck/internal/logging"
)

// ErrEmptyQuestion is returned when there is nothing to draft an answer for.
var ErrEmptyQuestion = errors.New("question is empty")

// Config controls drafting.
type Config struct {
	// Validators run in order after schema validation; the first failure
	// rejects the draft.
	Validators  []Validator
	MaxTokens   int
	Temperature float64
}

func DefaultConfig() Config {
	return Config{
		Validators: []Validator{
			PresentableValidator{},
			ChoiceValidator{Options: 4},
			BlankValidator{},
		},
		MaxTokens:   500,
		Temperature: 0.7,
	}
}

// Draft is a generated answer payload ready to be sent as a card's answer.
type Draft struct {
	Question string
	Type     card.Type

	// Payload is the answer JSON in the shape the API stores.
	Payload json.RawMessage

	// Answer is Payload normalized for the card type.
	Answer card.Answer

	Model string
	Usage llm.Usage
}

// Drafter generates answers for flashcard questions.
type Drafter struct {
	provider llm.Provider
	config   Config
	logger   *slog.Logger
	now      func() time.Time
}

func NewDrafter(p llm.Provider, cfg Config, logger *slog.Logger) *Drafter {
	return &Drafter{
		provider: p,
		config:   cfg,
		logger:   logging.OrDiscard(logger),
		now:      time.Now,
	}
}

// Draft asks the model for an answer to question in the payload shape of
// t. hint is optional author guidance.
func (d *Drafter) Draft(ctx context.Context, question string, t card.Type, hint string) (*Draft, error) {
	if strings.TrimSpace(question) == "" {
		return nil, ErrEmptyQuestion
	}
	if !t.Known() {
		return nil, fmt.Errorf("unknown card type %q", t)
	}

	ctx = llm.WithPurpose(ctx, llm.PurposeAnswerDraft)
	resp, err := d.provider.Generate(ctx, llm.Request{
		System:      systemPrompt(t, d.now()),
		Messages:    []llm.Message{llm.UserMessage(userMessage(question, hint))},
		Schema:      SchemaFor(t),
		MaxTokens:   d.config.MaxTokens,
		Temperature: d.config.Temperature,
	})
	if err != nil {
		return nil, fmt.Errorf("draft answer: %w", err)
	}

	payload, err := compact(resp.Content)
	if err != nil {
		return nil, fmt.Errorf("draft answer: %w", err)
	}
	draft := &Draft{
		Question: question,
		Type:     t,
		Payload:  payload,
		Answer:   card.Normalize(payload, t),
		Model:    resp.Model,
		Usage:    resp.Usage,
	}

	for _, v := range d.config.Validators {
		if verr := v.Validate(draft); verr != nil {
			d.logger.Warn("draft rejected", "type", t, "validator", verr.Validator, "reason", verr.Message)
			return nil, verr
		}
	}
	d.logger.Debug("draft accepted", "type", t, "model", resp.Model, "output_tokens", resp.Usage.OutputTokens)
	return draft, nil
}

// compact re-encodes the model output so stored payloads are canonical.
func compact(raw json.RawMessage) (json.RawMessage, error) {
	var v map[string]any
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, fmt.Errorf("decode payload: %w", err)
	}
	if s, ok := v["explanation"].(string); ok && strings.TrimSpace(s) == "" {
		delete(v, "explanation")
	}
	return json.Marshal(v)
}
