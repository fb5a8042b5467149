package session

import (
	"math/rand/v2"
	"time"

	"github.com/abhisek/flashdeck/internal/card"
)

// Phase is the answer phase of the current card.
type Phase int

const (
	PhaseUnanswered Phase = iota // Nothing checked yet
	PhaseChecked                 // Evaluated; feedback shown and rating unlocked
	PhaseRetrying                // Wrong answer cleared for another attempt
)

func (p Phase) String() string {
	switch p {
	case PhaseChecked:
		return "checked"
	case PhaseRetrying:
		return "retrying"
	default:
		return "unanswered"
	}
}

// Status is the overall state of a study session.
type Status int

const (
	StatusEmpty          Status = iota // No cards; terminal
	StatusActive                       // Studying the current card
	StatusSubmitting                   // Rating in flight; input disabled
	StatusConfirmRestart               // End of deck reached; waiting for the learner
	StatusFinished                     // Restart declined; terminal
)

func (s Status) String() string {
	switch s {
	case StatusEmpty:
		return "empty"
	case StatusActive:
		return "active"
	case StatusSubmitting:
		return "submitting"
	case StatusConfirmRestart:
		return "confirm_restart"
	case StatusFinished:
		return "finished"
	default:
		return "unknown"
	}
}

// Feedback is the result shown after a card is checked.
type Feedback struct {
	Correct bool
	Message string
}

// Feedback messages.
const (
	MsgCorrect   = "Correct! Well done!"
	MsgTryAgain  = "Incorrect. Try again!"
	msgRevealFmt = "Incorrect. The correct answer is %q."
)

// Difficulty rating bounds.
const (
	MinScore = 1
	MaxScore = 3
)

// Shuffler permutes n elements in place through swap.
type Shuffler func(n int, swap func(i, j int))

// Options configures a new session.
type Options struct {
	// ID identifies the session in history and in async messages.
	ID string

	// DeckID is the deck the cards were fetched from.
	DeckID string

	// ShuffleOnRestart reorders the cards when the learner studies the
	// deck again.
	ShuffleOnRestart bool

	// Shuffle overrides the permutation used on restart. Defaults to a
	// uniform Fisher-Yates shuffle.
	Shuffle Shuffler

	// Now overrides the clock.
	Now func() time.Time
}

// Stats is bookkeeping for the summary screen.
type Stats struct {
	CardsChecked     int         // Cards evaluated at least once
	FirstTryCorrect  int         // Cards correct on the first attempt
	Attempts         int         // Every Check or Reveal
	RatingsSubmitted int         // Successful score submissions
	RatingFailures   int         // Failed score submissions
	Ratings          map[int]int // Score -> count of successful submissions
	Restarts         int
}

// SessionState is the runtime state of one pass over a deck. It is owned
// by a single event loop and is not safe for concurrent use.
type SessionState struct {
	ID        string
	DeckID    string
	StartTime time.Time

	// Cards is the study order. It only changes on restart.
	Cards []card.Flashcard

	// Index is the position of the current card.
	Index int

	Status Status
	Phase  Phase

	Stats Stats

	selected *string
	feedback *Feedback
	attempts map[int]int // checks per card index during this pass
	lastErr  error

	shuffleOnRestart bool
	shuffle          Shuffler
	now              func() time.Time
}

// NewSessionState creates a session over cards. Cards are copied and any
// missing normalized answer is filled in. An empty deck yields a session
// in StatusEmpty.
func NewSessionState(cards []card.Flashcard, opts Options) *SessionState {
	cs := make([]card.Flashcard, len(cards))
	for i, c := range cards {
		if c.Answer == nil {
			c = c.Normalized()
		}
		cs[i] = c
	}

	if opts.Shuffle == nil {
		opts.Shuffle = rand.Shuffle
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	s := &SessionState{
		ID:               opts.ID,
		DeckID:           opts.DeckID,
		Cards:            cs,
		Status:           StatusActive,
		Stats:            Stats{Ratings: make(map[int]int)},
		attempts:         make(map[int]int),
		shuffleOnRestart: opts.ShuffleOnRestart,
		shuffle:          opts.Shuffle,
		now:              opts.Now,
	}
	s.StartTime = s.now()
	if len(cs) == 0 {
		s.Status = StatusEmpty
	}
	return s
}

// CurrentCard returns the card at Index. ok is false for an empty session.
func (s *SessionState) CurrentCard() (c card.Flashcard, ok bool) {
	if s.Index < 0 || s.Index >= len(s.Cards) {
		return card.Flashcard{}, false
	}
	return s.Cards[s.Index], true
}

// Mode returns the presentation mode of the current card.
func (s *SessionState) Mode() card.Mode {
	c, _ := s.CurrentCard()
	return card.ModeFor(c.Type)
}

// CardProblem describes why the current card cannot be presented, or "".
func (s *SessionState) CardProblem() string {
	c, ok := s.CurrentCard()
	if !ok {
		return ""
	}
	if c.Question == "" {
		return "missing question"
	}
	return card.Problem(c.Answer)
}

// SelectedAnswer returns the in-progress response, or nil.
func (s *SessionState) SelectedAnswer() *string {
	if s.selected == nil {
		return nil
	}
	v := *s.selected
	return &v
}

// Feedback returns the feedback for the current card, or nil.
func (s *SessionState) Feedback() *Feedback {
	if s.feedback == nil {
		return nil
	}
	f := *s.feedback
	return &f
}

// IsAnswerChecked reports whether the current card has been evaluated.
func (s *SessionState) IsAnswerChecked() bool {
	return s.Phase == PhaseChecked
}

// ShowAnswer reports whether the answer should be displayed.
func (s *SessionState) ShowAnswer() bool {
	return s.Phase == PhaseChecked
}

// CanRetry reports whether an incorrect answer may be cleared and tried
// again.
func (s *SessionState) CanRetry() bool {
	return s.Phase == PhaseChecked &&
		s.Mode().Retryable() &&
		s.feedback != nil && !s.feedback.Correct
}

// CanRate reports whether a difficulty rating may be submitted now.
func (s *SessionState) CanRate() bool {
	return s.Status == StatusActive && s.Phase == PhaseChecked
}

// Attempts returns how many times the current card was checked in this
// pass, including earlier visits.
func (s *SessionState) Attempts() int {
	return s.attempts[s.Index]
}

// Err returns the last score submission error, if any.
func (s *SessionState) Err() error {
	return s.lastErr
}

// ClearErr dismisses the last score submission error.
func (s *SessionState) ClearErr() {
	s.lastErr = nil
}

// IsLast reports whether the current card is the last in the deck.
func (s *SessionState) IsLast() bool {
	return s.Index == len(s.Cards)-1
}

// Elapsed returns the time since the session started.
func (s *SessionState) Elapsed() time.Duration {
	return s.now().Sub(s.StartTime)
}

// resetCard clears per-card state. Called on every index change.
func (s *SessionState) resetCard() {
	s.selected = nil
	s.feedback = nil
	s.lastErr = nil
	s.Phase = PhaseUnanswered
}
