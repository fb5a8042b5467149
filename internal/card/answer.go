package card

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Answer is the normalized answer of a card. The concrete type is decided
// by the card type: TextAnswer, ChoiceAnswer, TrueFalseAnswer or
// BlankAnswer.
type Answer interface {
	// CorrectText is the answer shown to the learner after checking.
	CorrectText() string

	// Explain returns the optional explanation.
	Explain() string

	// Citations returns the sources the answer text may cite.
	Citations() []Source

	sealed()
}

// TextAnswer is the answer of basic and definition cards.
type TextAnswer struct {
	Text        string
	Explanation string
	Sources     []Source
}

// ChoiceAnswer is the answer of a multiple-choice card. Correct must be
// one of Options for the card to be usable.
type ChoiceAnswer struct {
	Options     []string
	Correct     string
	Explanation string
	Sources     []Source
}

// TrueFalseAnswer is the answer of a true/false card. Correct is "True",
// "False", or empty when the payload carried neither.
type TrueFalseAnswer struct {
	Correct     string
	Explanation string
	Sources     []Source
}

// BlankAnswer is the answer of a fill-in-the-blank card.
type BlankAnswer struct {
	Correct     string
	Explanation string
	Sources     []Source
}

const (
	True  = "True"
	False = "False"
)

func (a TextAnswer) CorrectText() string      { return a.Text }
func (a TextAnswer) Explain() string          { return a.Explanation }
func (a TextAnswer) Citations() []Source      { return a.Sources }
func (TextAnswer) sealed()                    {}
func (a ChoiceAnswer) CorrectText() string    { return a.Correct }
func (a ChoiceAnswer) Explain() string        { return a.Explanation }
func (a ChoiceAnswer) Citations() []Source    { return a.Sources }
func (ChoiceAnswer) sealed()                  {}
func (a TrueFalseAnswer) CorrectText() string { return a.Correct }
func (a TrueFalseAnswer) Explain() string     { return a.Explanation }
func (a TrueFalseAnswer) Citations() []Source { return a.Sources }
func (TrueFalseAnswer) sealed()               {}
func (a BlankAnswer) CorrectText() string     { return a.Correct }
func (a BlankAnswer) Explain() string         { return a.Explanation }
func (a BlankAnswer) Citations() []Source     { return a.Sources }
func (BlankAnswer) sealed()                   {}

// payload is the loose shape of a stored answer object. Every field is
// optional and decoded leniently.
type payload struct {
	text        string
	hasText     bool
	options     []string
	correct     string
	explanation string
	sources     []Source
}

// Normalize converts a stored answer into the Answer variant for t.
// It never fails: undecodable input degrades to free text with no
// explanation. Unknown types normalize like basic cards.
func Normalize(raw json.RawMessage, t Type) Answer {
	p := decodePayload(raw)

	switch t {
	case TypeMultipleChoice:
		return ChoiceAnswer{
			Options:     p.options,
			Correct:     resolveChoice(p.correct, p.options),
			Explanation: p.explanation,
			Sources:     p.sources,
		}
	case TypeTrueFalse:
		return TrueFalseAnswer{
			Correct:     normalizeTrueFalse(p.correct),
			Explanation: p.explanation,
			Sources:     p.sources,
		}
	case TypeFillInBlank:
		correct := p.correct
		if correct == "" {
			correct = p.text
		}
		return BlankAnswer{
			Correct:     correct,
			Explanation: p.explanation,
			Sources:     p.sources,
		}
	default:
		text := p.text
		if !p.hasText && p.correct != "" {
			text = p.correct
		}
		return TextAnswer{
			Text:        text,
			Explanation: p.explanation,
			Sources:     p.sources,
		}
	}
}

// Problem returns a non-empty description when the answer cannot be
// presented, e.g. a multiple-choice card without options.
func Problem(a Answer) string {
	switch a := a.(type) {
	case nil:
		return "missing answer"
	case ChoiceAnswer:
		if len(a.Options) == 0 {
			return "no options to choose from"
		}
		for _, o := range a.Options {
			if o == a.Correct {
				return ""
			}
		}
		return "correct answer is not one of the options"
	case TrueFalseAnswer:
		if a.Correct != True && a.Correct != False {
			return "correct answer is neither True nor False"
		}
	}
	return ""
}

// decodePayload extracts whatever fields it can from raw.
func decodePayload(raw json.RawMessage) payload {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return payload{}
	}

	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		// Not even JSON on the wire; keep the bytes as free text.
		return payload{text: string(raw), hasText: true, correct: string(raw)}
	}

	// A JSON string may itself hold an encoded object.
	if s, ok := v.(string); ok {
		var inner any
		trimmed := strings.TrimSpace(s)
		if trimmed == "" || json.Unmarshal([]byte(trimmed), &inner) != nil {
			return payload{text: s, hasText: true, correct: s}
		}
		v = inner
	}

	obj, ok := v.(map[string]any)
	if !ok {
		s := scalarText(v)
		return payload{text: s, hasText: true, correct: s}
	}

	return payloadFromObject(obj)
}

func payloadFromObject(obj map[string]any) payload {
	var p payload
	p.sources = decodeSources(obj["sources"])

	// Envelope: {"answer": {...}, "sources": [...]}.
	if inner, ok := obj["answer"].(map[string]any); ok {
		p2 := payloadFromObject(inner)
		if len(p2.sources) == 0 {
			p2.sources = p.sources
		}
		return p2
	}

	if v, ok := obj["answer"]; ok && v != nil {
		p.text, p.hasText = scalarText(v), true
	} else if v, ok := obj["text"]; ok && v != nil {
		p.text, p.hasText = scalarText(v), true
	}

	if v, ok := obj["correct_answer"]; ok && v != nil {
		p.correct = scalarText(v)
	} else if v, ok := obj["correct"]; ok && v != nil {
		p.correct = scalarText(v)
	}

	if v, ok := obj["explanation"]; ok && v != nil {
		p.explanation = scalarText(v)
	}

	if opts, ok := obj["options"].([]any); ok {
		for _, o := range opts {
			if o == nil {
				continue
			}
			p.options = append(p.options, scalarText(o))
		}
	}

	return p
}

func decodeSources(v any) []Source {
	list, ok := v.([]any)
	if !ok {
		return nil
	}
	var out []Source
	for i, item := range list {
		m, ok := item.(map[string]any)
		if !ok {
			continue
		}
		src := Source{Number: i + 1}
		if n, ok := m["number"].(float64); ok {
			src.Number = int(n)
		}
		if t, ok := m["title"].(string); ok {
			src.Title = t
		}
		if u, ok := m["url"].(string); ok {
			src.URL = u
		}
		out = append(out, src)
	}
	return out
}

// scalarText renders a decoded JSON value as text.
func scalarText(v any) string {
	switch v := v.(type) {
	case string:
		return v
	case bool:
		return strconv.FormatBool(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case nil:
		return ""
	default:
		b, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprint(v)
		}
		return string(b)
	}
}

// resolveChoice maps a letter answer ("B") onto its option when the
// correct value is not itself one of the options.
func resolveChoice(correct string, options []string) string {
	for _, o := range options {
		if o == correct {
			return correct
		}
	}
	letter := strings.TrimSuffix(strings.TrimSpace(correct), ".")
	if len(letter) == 1 {
		idx := int(strings.ToUpper(letter)[0]) - 'A'
		if idx >= 0 && idx < len(options) {
			return options[idx]
		}
	}
	return correct
}

func normalizeTrueFalse(s string) string {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true", "t":
		return True
	case "false", "f":
		return False
	}
	return ""
}
