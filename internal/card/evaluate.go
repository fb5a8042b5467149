package card

import "strings"

// Evaluate reports whether response answers c correctly.
//
// Multiple-choice and true/false answers must match exactly, since the
// options are shown verbatim. Fill-in-the-blank answers compare trimmed and
// case-insensitively. Basic, definition and unknown types are self-rated and
// always count as correct, even without a response.
func Evaluate(c Flashcard, response *string) bool {
	mode := ModeFor(c.Type)
	if mode == ModeBasic {
		return true
	}
	if response == nil {
		return false
	}

	a := c.Answer
	if a == nil {
		a = Normalize(c.RawAnswer, c.Type)
	}

	switch mode {
	case ModeMultipleChoice, ModeTrueFalse:
		correct := a.CorrectText()
		return correct != "" && *response == correct
	case ModeFillInBlank:
		correct := strings.TrimSpace(a.CorrectText())
		return correct != "" && strings.EqualFold(strings.TrimSpace(*response), correct)
	}
	return false
}
