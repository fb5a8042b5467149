package card

// Mode is the rendering and grading branch used for a card.
type Mode int

const (
	ModeBasic Mode = iota
	ModeMultipleChoice
	ModeTrueFalse
	ModeFillInBlank
)

// ModeFor selects the presentation mode for a card type. Definition cards
// and unrecognized types are presented as basic cards.
func ModeFor(t Type) Mode {
	switch t {
	case TypeMultipleChoice:
		return ModeMultipleChoice
	case TypeTrueFalse:
		return ModeTrueFalse
	case TypeFillInBlank:
		return ModeFillInBlank
	default:
		return ModeBasic
	}
}

// Retryable reports whether an incorrect answer may be cleared and tried
// again.
func (m Mode) Retryable() bool {
	return m == ModeMultipleChoice || m == ModeTrueFalse
}

// Graded reports whether the mode compares a response against the answer.
func (m Mode) Graded() bool {
	return m != ModeBasic
}

func (m Mode) String() string {
	switch m {
	case ModeMultipleChoice:
		return "multiple_choice"
	case ModeTrueFalse:
		return "true_false"
	case ModeFillInBlank:
		return "fill_in_blank"
	default:
		return "basic"
	}
}
