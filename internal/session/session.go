package session

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/abhisek/flashdeck/internal/card"
)

// ScoreReporter sends a difficulty rating for a card to the API.
type ScoreReporter interface {
	SubmitScore(ctx context.Context, cardID string, score int) error
}

// guardActive checks the session accepts card input.
func (s *SessionState) guardActive() error {
	switch s.Status {
	case StatusActive:
		return nil
	case StatusEmpty:
		return ErrEmpty
	case StatusSubmitting:
		return ErrBusy
	default:
		return ErrNotActive
	}
}

// guardAnswerable checks the current card accepts a response.
func (s *SessionState) guardAnswerable() (card.Flashcard, error) {
	if err := s.guardActive(); err != nil {
		return card.Flashcard{}, err
	}
	if s.Phase == PhaseChecked {
		return card.Flashcard{}, ErrAlreadyChecked
	}
	if s.CardProblem() != "" {
		return card.Flashcard{}, ErrInvalidCard
	}
	c, _ := s.CurrentCard()
	if card.ModeFor(c.Type) == card.ModeBasic {
		return card.Flashcard{}, ErrRevealOnly
	}
	return c, nil
}

// Select records the learner's response for the current card. Multiple
// choice values must be one of the options and true/false values must be
// "True" or "False". A true/false selection is checked immediately.
func (s *SessionState) Select(value string) error {
	c, err := s.guardAnswerable()
	if err != nil {
		return err
	}

	switch a := c.Answer.(type) {
	case card.ChoiceAnswer:
		if !slices.Contains(a.Options, value) {
			return ErrInvalidSelection
		}
	case card.TrueFalseAnswer:
		if value != card.True && value != card.False {
			return ErrInvalidSelection
		}
	}

	v := value
	s.selected = &v

	if card.ModeFor(c.Type) == card.ModeTrueFalse {
		return s.Check()
	}
	return nil
}

// Check evaluates the selected response and moves the card to
// PhaseChecked.
func (s *SessionState) Check() error {
	c, err := s.guardAnswerable()
	if err != nil {
		return err
	}
	if s.selected == nil || strings.TrimSpace(*s.selected) == "" {
		return ErrNoSelection
	}

	correct := card.Evaluate(c, s.selected)
	mode := card.ModeFor(c.Type)

	fb := Feedback{Correct: correct, Message: MsgCorrect}
	if !correct {
		if mode.Retryable() {
			fb.Message = MsgTryAgain
		} else {
			fb.Message = fmt.Sprintf(msgRevealFmt, c.Answer.CorrectText())
		}
	}

	s.record(correct)
	s.feedback = &fb
	s.Phase = PhaseChecked
	return nil
}

// Reveal shows the answer of a basic or definition card and unlocks
// rating. Self-rated cards always count as correct.
func (s *SessionState) Reveal() error {
	if err := s.guardActive(); err != nil {
		return err
	}
	if s.Phase == PhaseChecked {
		return ErrAlreadyChecked
	}
	if s.Mode() != card.ModeBasic {
		return ErrNotRevealable
	}

	s.record(true)
	s.feedback = &Feedback{Correct: true}
	s.Phase = PhaseChecked
	return nil
}

// Retry clears an incorrect multiple-choice or true/false response for
// another attempt.
func (s *SessionState) Retry() error {
	if err := s.guardActive(); err != nil {
		return err
	}
	if !s.CanRetry() {
		return ErrCannotRetry
	}
	s.selected = nil
	s.feedback = nil
	s.Phase = PhaseRetrying
	return nil
}

// BeginRating validates score and marks the session as submitting. It
// returns the ID of the card being rated. Input is refused until
// CompleteRating is called.
func (s *SessionState) BeginRating(score int) (string, error) {
	if err := s.guardActive(); err != nil {
		return "", err
	}
	if s.Phase != PhaseChecked {
		return "", ErrNotChecked
	}
	if score < MinScore || score > MaxScore {
		return "", ErrInvalidScore
	}
	c, _ := s.CurrentCard()
	s.Status = StatusSubmitting
	s.lastErr = nil
	return c.ID, nil
}

// CompleteRating finishes a submission started by BeginRating. On
// success the session advances. On failure it stays on the same card,
// still checked, and keeps err for display so the learner can rate
// again.
func (s *SessionState) CompleteRating(score int, err error) error {
	if s.Status != StatusSubmitting {
		return ErrNotSubmitting
	}
	s.Status = StatusActive
	if err != nil {
		s.lastErr = err
		s.Stats.RatingFailures++
		return nil
	}
	s.Stats.RatingsSubmitted++
	s.Stats.Ratings[score]++
	return s.Advance()
}

// Rate submits score through reporter and advances on success. The
// reporter error, if any, is returned and also kept in Err.
func (s *SessionState) Rate(ctx context.Context, reporter ScoreReporter, score int) error {
	cardID, err := s.BeginRating(score)
	if err != nil {
		return err
	}
	submitErr := reporter.SubmitScore(ctx, cardID, score)
	if err := s.CompleteRating(score, submitErr); err != nil {
		return err
	}
	return submitErr
}

// Advance moves to the next card. On the last card the index is left
// alone and the session waits for ConfirmRestart.
func (s *SessionState) Advance() error {
	if err := s.guardActive(); err != nil {
		return err
	}
	if s.IsLast() {
		s.Status = StatusConfirmRestart
		return nil
	}
	s.Index++
	s.resetCard()
	return nil
}

// ConfirmRestart answers the end-of-deck prompt. When again is true the
// deck starts over, shuffled if configured. Otherwise the session
// finishes on the last card.
func (s *SessionState) ConfirmRestart(again bool) error {
	if s.Status != StatusConfirmRestart {
		return ErrNotAtEnd
	}
	if !again {
		s.Status = StatusFinished
		return nil
	}
	if s.shuffleOnRestart {
		s.shuffle(len(s.Cards), func(i, j int) {
			s.Cards[i], s.Cards[j] = s.Cards[j], s.Cards[i]
		})
	}
	s.Index = 0
	s.resetCard()
	clear(s.attempts)
	s.Status = StatusActive
	s.Stats.Restarts++
	return nil
}

// Previous moves back one card without rating.
func (s *SessionState) Previous() error {
	if err := s.guardActive(); err != nil {
		return err
	}
	if s.Index == 0 {
		return ErrBoundary
	}
	s.Index--
	s.resetCard()
	return nil
}

// Next moves forward one card without rating.
func (s *SessionState) Next() error {
	if err := s.guardActive(); err != nil {
		return err
	}
	if s.IsLast() {
		return ErrBoundary
	}
	s.Index++
	s.resetCard()
	return nil
}

// record counts a check. A card revisited with Previous or Next counts
// toward the summary only the first time it is checked in a pass.
func (s *SessionState) record(correct bool) {
	s.attempts[s.Index]++
	s.Stats.Attempts++
	if s.attempts[s.Index] == 1 {
		s.Stats.CardsChecked++
		if correct {
			s.Stats.FirstTryCorrect++
		}
	}
}
