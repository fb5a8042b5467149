package card

import (
	"encoding/json"
	"strings"
	"time"
)

// Type is the closed set of flashcard kinds. It decides how a card's
// answer is normalized, rendered and graded.
type Type string

const (
	TypeBasic          Type = "basic"
	TypeMultipleChoice Type = "multiple_choice"
	TypeTrueFalse      Type = "true_false"
	TypeFillInBlank    Type = "fill_in_blank"
	TypeDefinition     Type = "definition"
)

// AllTypes lists the known card types in display order.
var AllTypes = []Type{
	TypeBasic,
	TypeDefinition,
	TypeMultipleChoice,
	TypeTrueFalse,
	TypeFillInBlank,
}

// Known reports whether t is one of the recognized card types.
func (t Type) Known() bool {
	for _, k := range AllTypes {
		if t == k {
			return true
		}
	}
	return false
}

// DisplayName returns a human-readable label for the card type.
func (t Type) DisplayName() string {
	switch t {
	case TypeBasic:
		return "Basic"
	case TypeDefinition:
		return "Definition"
	case TypeMultipleChoice:
		return "Multiple choice"
	case TypeTrueFalse:
		return "True / False"
	case TypeFillInBlank:
		return "Fill in the blank"
	default:
		return string(t)
	}
}

// BlankMarker is the literal substring that marks a blank in a
// fill-in-the-blank question.
const BlankMarker = "_____"

// Deck is a named collection of flashcards owned by the API.
type Deck struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	IsPublic    bool      `json:"is_public"`
	CreatedAt   Timestamp `json:"created_at,omitzero"`
	UpdatedAt   Timestamp `json:"updated_at,omitzero"`
}

// Flashcard is a card as served by the API, plus its normalized answer.
type Flashcard struct {
	ID       string `json:"id"`
	DeckID   string `json:"deck_id"`
	Question string `json:"question"`
	Type     Type   `json:"type"`

	// RawAnswer is the answer exactly as the API sent it: a plain
	// string, a JSON-encoded string or an object.
	RawAnswer json.RawMessage `json:"answer,omitempty"`

	DifficultyScore int       `json:"difficulty_score,omitempty"`
	TotalReviews    int       `json:"total_reviews,omitempty"`
	CorrectReviews  int       `json:"correct_reviews,omitempty"`
	Accuracy        float64   `json:"accuracy,omitempty"`
	CreatedAt       Timestamp `json:"created_at,omitzero"`
	UpdatedAt       Timestamp `json:"updated_at,omitzero"`

	// Answer is derived from RawAnswer by Normalize and never sent back.
	Answer Answer `json:"-"`
}

// Normalized returns a copy of c with Answer populated from RawAnswer.
func (c Flashcard) Normalized() Flashcard {
	c.Answer = Normalize(c.RawAnswer, c.Type)
	return c
}

// Source is a citation attached to a generated answer.
type Source struct {
	Number int    `json:"number"`
	Title  string `json:"title"`
	URL    string `json:"url"`
}

// timestampLayouts are tried in order when decoding API timestamps. The
// API emits naive ISO-8601 times without a zone.
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02",
}

// Timestamp is a time.Time that tolerates the API's zone-less ISO format.
type Timestamp struct {
	time.Time
}

func (t *Timestamp) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		// Not a string (null, number): leave the zero time.
		return nil
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	for _, layout := range timestampLayouts {
		if parsed, err := time.Parse(layout, s); err == nil {
			t.Time = parsed
			return nil
		}
	}
	return nil
}

func (t Timestamp) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.Time.Format(time.RFC3339Nano))
}
