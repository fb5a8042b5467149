package authoring

import (
	"fmt"
	"strings"

	"github.com/abhisek/flashdeck/internal/card"
)

// Validator checks a drafted answer beyond the JSON schema.
type Validator interface {
	Name() string
	Validate(d *Draft) *ValidationError
}

// ValidationError describes why a draft was rejected.
type ValidationError struct {
	Validator string
	Message   string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validator %q: %s", e.Validator, e.Message)
}

// PresentableValidator rejects answers the study screen could not show,
// e.g. a correct option that is not one of the options.
type PresentableValidator struct{}

func (PresentableValidator) Name() string { return "presentable" }

func (v PresentableValidator) Validate(d *Draft) *ValidationError {
	if p := card.Problem(d.Answer); p != "" {
		return &ValidationError{Validator: v.Name(), Message: p}
	}
	if strings.TrimSpace(d.Answer.CorrectText()) == "" {
		return &ValidationError{Validator: v.Name(), Message: "empty answer"}
	}
	return nil
}

// ChoiceValidator requires the configured number of distinct options.
type ChoiceValidator struct {
	Options int
}

func (ChoiceValidator) Name() string { return "choices" }

func (v ChoiceValidator) Validate(d *Draft) *ValidationError {
	a, ok := d.Answer.(card.ChoiceAnswer)
	if !ok {
		return nil
	}
	if v.Options > 0 && len(a.Options) != v.Options {
		return &ValidationError{
			Validator: v.Name(),
			Message:   fmt.Sprintf("want %d options, got %d", v.Options, len(a.Options)),
		}
	}
	seen := make(map[string]bool, len(a.Options))
	for _, o := range a.Options {
		key := strings.ToLower(strings.TrimSpace(o))
		if seen[key] {
			return &ValidationError{Validator: v.Name(), Message: fmt.Sprintf("duplicate option %q", o)}
		}
		seen[key] = true
	}
	return nil
}

// BlankValidator requires fill-in-the-blank questions to contain a blank.
type BlankValidator struct{}

func (BlankValidator) Name() string { return "blank" }

func (v BlankValidator) Validate(d *Draft) *ValidationError {
	if d.Type != card.TypeFillInBlank {
		return nil
	}
	if card.BlankCount(d.Question) == 0 {
		return &ValidationError{
			Validator: v.Name(),
			Message:   fmt.Sprintf("question has no %s blank", card.BlankMarker),
		}
	}
	return nil
}
