package authoring

import (
	"github.com/abhisek/flashdeck/internal/card"
	"github.com/abhisek/flashdeck/internal/llm"
)

func stringProp(desc string) map[string]any {
	return map[string]any{"type": "string", "description": desc}
}

// TextAnswerSchema is the payload of basic and definition cards.
var TextAnswerSchema = &llm.Schema{
	Name:        "flashcard-text-answer",
	Description: "A free text answer with an optional explanation",
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"answer":      stringProp("The answer shown on the back of the card"),
			"explanation": stringProp("Optional context; empty string when there is nothing to add"),
		},
		"required":             []any{"answer", "explanation"},
		"additionalProperties": false,
	},
}

// ChoiceAnswerSchema is the payload of multiple-choice cards.
var ChoiceAnswerSchema = &llm.Schema{
	Name:        "flashcard-choice-answer",
	Description: "Four options, the correct one and why it is correct",
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"options": map[string]any{
				"type":        "array",
				"items":       map[string]any{"type": "string"},
				"description": "Exactly 4 distinct options",
			},
			"correct_answer": stringProp("The full text of the correct option, copied exactly"),
			"explanation":    stringProp("Why this answer is correct"),
		},
		"required":             []any{"options", "correct_answer", "explanation"},
		"additionalProperties": false,
	},
}

// TrueFalseAnswerSchema is the payload of true/false cards.
var TrueFalseAnswerSchema = &llm.Schema{
	Name:        "flashcard-true-false-answer",
	Description: "Whether the statement is true, with an explanation",
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"correct_answer": map[string]any{
				"type": "string",
				"enum": []any{card.True, card.False},
			},
			"explanation": stringProp("Why the statement is true or false"),
		},
		"required":             []any{"correct_answer", "explanation"},
		"additionalProperties": false,
	},
}

// BlankAnswerSchema is the payload of fill-in-the-blank cards.
var BlankAnswerSchema = &llm.Schema{
	Name:        "flashcard-blank-answer",
	Description: "The word or phrase that fills the blank",
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"correct_answer": stringProp("Only the missing text, without surrounding words"),
			"explanation":    stringProp("Optional context"),
		},
		"required":             []any{"correct_answer", "explanation"},
		"additionalProperties": false,
	},
}

// SchemaFor returns the answer payload schema of a card type. Unknown
// types use the text schema.
func SchemaFor(t card.Type) *llm.Schema {
	switch t {
	case card.TypeMultipleChoice:
		return ChoiceAnswerSchema
	case card.TypeTrueFalse:
		return TrueFalseAnswerSchema
	case card.TypeFillInBlank:
		return BlankAnswerSchema
	default:
		return TextAnswerSchema
	}
}
