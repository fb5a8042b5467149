// Package study is the screen that walks a learner through one deck.
package study

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	tea "charm.land/bubbletea/v2"
	"github.com/google/uuid"

	"github.com/abhisek/flashdeck/internal/card"
	"github.com/abhisek/flashdeck/internal/logging"
	"github.com/abhisek/flashdeck/internal/router"
	"github.com/abhisek/flashdeck/internal/screen"
	"github.com/abhisek/flashdeck/internal/screens/summary"
	sess "github.com/abhisek/flashdeck/internal/session"
	"github.com/abhisek/flashdeck/internal/store"
	"github.com/abhisek/flashdeck/internal/ui/components"
	"github.com/abhisek/flashdeck/internal/ui/layout"
)

// Client is the part of the flashcard API the study screen uses.
type Client interface {
	ListFlashcards(ctx context.Context, deckID string) ([]card.Flashcard, error)
	SubmitScore(ctx context.Context, cardID string, score int) error
	MarkReviewed(ctx context.Context, cardID string, correct bool) error
}

// Options configures a StudyScreen. Zero values are usable.
type Options struct {
	ShuffleOnRestart bool
	Shuffle          sess.Shuffler
	Logger           *slog.Logger
	Now              func() time.Time
	NewID            func() string
}

// StudyScreen implements screen.Screen for a study session.
type StudyScreen struct {
	client Client
	events store.EventRepo // nil disables history
	deck   card.Deck
	opts   Options
	logger *slog.Logger

	token   string
	state   *sess.SessionState
	loadErr error
	ended   bool

	choices   components.ChoiceList
	input     components.TextInput
	cardIndex int
	notice    string
}

var _ screen.Screen = (*StudyScreen)(nil)
var _ screen.KeyHintProvider = (*StudyScreen)(nil)
var _ screen.StatusProvider = (*StudyScreen)(nil)
var _ screen.Closer = (*StudyScreen)(nil)

// New creates a StudyScreen for deck. The cards are fetched on Init.
func New(client Client, events store.EventRepo, deck card.Deck, opts Options) *StudyScreen {
	if opts.NewID == nil {
		opts.NewID = uuid.NewString
	}
	return &StudyScreen{
		client: client,
		events: events,
		deck:   deck,
		opts:   opts,
		logger: logging.OrDiscard(opts.Logger).With("deck_id", deck.ID),
		token:  opts.NewID(),
		input:  components.NewTextInput("Type your answer here", 200),
	}
}

func (s *StudyScreen) Init() tea.Cmd {
	return s.loadCards()
}

func (s *StudyScreen) Title() string {
	if s.deck.Name != "" {
		return s.deck.Name
	}
	return "Study"
}

// Status shows the card position in the header.
func (s *StudyScreen) Status() string {
	if s.state == nil || s.state.Status == sess.StatusEmpty {
		return ""
	}
	return fmt.Sprintf("Card %d/%d", s.state.Index+1, len(s.state.Cards))
}

// State exposes the session for callers that inspect it after a run.
func (s *StudyScreen) State() *sess.SessionState {
	return s.state
}

func (s *StudyScreen) KeyHints() []layout.KeyHint {
	switch {
	case s.loadErr != nil:
		return []layout.KeyHint{{Key: "R", Description: "Retry"}, {Key: "Esc", Description: "Back"}}
	case s.state == nil:
		return nil
	}

	switch s.state.Status {
	case sess.StatusEmpty:
		return []layout.KeyHint{{Key: "Enter", Description: "Back"}}
	case sess.StatusSubmitting:
		return []layout.KeyHint{{Key: "…", Description: "Saving rating"}}
	case sess.StatusConfirmRestart:
		return []layout.KeyHint{{Key: "Y", Description: "Study again"}, {Key: "N", Description: "Finish"}}
	}

	if s.state.IsAnswerChecked() {
		hints := []layout.KeyHint{{Key: "1-3", Description: "Rate difficulty"}}
		if s.state.CanRetry() {
			hints = append(hints, layout.KeyHint{Key: "R", Description: "Try again"})
		}
		return append(hints,
			layout.KeyHint{Key: "Tab", Description: "Skip"},
			layout.KeyHint{Key: "Esc", Description: "Quit"})
	}

	var hints []layout.KeyHint
	switch s.state.Mode() {
	case card.ModeBasic:
		hints = []layout.KeyHint{{Key: "Space", Description: "Show answer"}}
	case card.ModeMultipleChoice:
		hints = []layout.KeyHint{{Key: "↑↓", Description: "Choose"}, {Key: "Enter/1-4", Description: "Answer"}}
	case card.ModeTrueFalse:
		hints = []layout.KeyHint{{Key: "T/F", Description: "Answer"}}
	case card.ModeFillInBlank:
		hints = []layout.KeyHint{{Key: "Enter", Description: "Check"}}
	}
	return append(hints,
		layout.KeyHint{Key: "PgUp/PgDn", Description: "Prev/Next"},
		layout.KeyHint{Key: "Esc", Description: "Quit"})
}

func (s *StudyScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case cardsLoadedMsg:
		return s.handleLoaded(msg)

	case scoreResultMsg:
		return s.handleScore(msg)

	case reviewedMsg:
		if msg.Token == s.token && msg.Err != nil {
			s.logger.Warn("mark reviewed failed", "card_id", msg.CardID, "error", msg.Err)
		}
		return s, nil

	case tea.KeyMsg:
		return s.handleKey(msg)
	}

	if s.typing() {
		var cmd tea.Cmd
		s.input, cmd = s.input.Update(msg)
		return s, cmd
	}
	return s, nil
}

// Close writes the session end event when the screen is dismissed.
func (s *StudyScreen) Close() tea.Cmd {
	s.end()
	return nil
}

func (s *StudyScreen) loadCards() tea.Cmd {
	token, deckID, client := s.token, s.deck.ID, s.client
	return func() tea.Msg {
		cards, err := client.ListFlashcards(context.Background(), deckID)
		return cardsLoadedMsg{Token: token, Cards: cards, Err: err}
	}
}

func (s *StudyScreen) handleLoaded(msg cardsLoadedMsg) (screen.Screen, tea.Cmd) {
	if msg.Token != s.token {
		return s, nil
	}
	if msg.Err != nil {
		s.loadErr = msg.Err
		s.logger.Warn("load flashcards failed", "error", msg.Err)
		return s, nil
	}

	s.state = sess.NewSessionState(msg.Cards, sess.Options{
		ID:               s.token,
		DeckID:           s.deck.ID,
		ShuffleOnRestart: s.opts.ShuffleOnRestart,
		Shuffle:          s.opts.Shuffle,
		Now:              s.opts.Now,
	})
	if s.state.Status == sess.StatusEmpty {
		return s, nil
	}

	s.logger.Info("study session started", "session_id", s.token, "cards", len(msg.Cards))
	s.record(store.ActionStart, func(ctx context.Context) error {
		return s.events.AppendSessionEvent(ctx, store.SessionEventData{
			SessionID:  s.token,
			DeckID:     s.deck.ID,
			DeckName:   s.deck.Name,
			Action:     store.ActionStart,
			CardsTotal: len(s.state.Cards),
		})
	})
	return s, s.syncWidgets()
}

func (s *StudyScreen) handleScore(msg scoreResultMsg) (screen.Screen, tea.Cmd) {
	if msg.Token != s.token || s.state == nil {
		return s, nil
	}
	if err := s.state.CompleteRating(msg.Score, msg.Err); err != nil {
		s.logger.Warn("unexpected score result", "card_id", msg.CardID, "error", err)
		return s, nil
	}

	data := store.ScoreEventData{
		SessionID: s.token,
		CardID:    msg.CardID,
		Score:     msg.Score,
		Success:   msg.Err == nil,
	}
	if msg.Err != nil {
		data.ErrorMessage = msg.Err.Error()
		s.logger.Warn("submit score failed", "card_id", msg.CardID, "score", msg.Score, "error", msg.Err)
	}
	s.record("score", func(ctx context.Context) error {
		return s.events.AppendScoreEvent(ctx, data)
	})

	if s.state.Index != s.cardIndex {
		return s, s.syncWidgets()
	}
	return s, nil
}

func (s *StudyScreen) handleKey(msg tea.KeyMsg) (screen.Screen, tea.Cmd) {
	key := msg.String()

	if s.loadErr != nil {
		switch key {
		case "r", "R":
			s.loadErr = nil
			s.token = s.opts.NewID()
			return s, s.loadCards()
		case "enter":
			return s, func() tea.Msg { return router.PopScreenMsg{} }
		}
		return s, nil
	}
	if s.state == nil {
		return s, nil
	}

	switch s.state.Status {
	case sess.StatusEmpty:
		if key == "enter" {
			return s, func() tea.Msg { return router.PopScreenMsg{} }
		}
		return s, nil

	case sess.StatusConfirmRestart:
		switch key {
		case "y", "Y", "enter":
			if err := s.state.ConfirmRestart(true); err != nil {
				return s, nil
			}
			return s, s.syncWidgets()
		case "n", "N":
			if err := s.state.ConfirmRestart(false); err != nil {
				return s, nil
			}
			return s, s.finish()
		}
		return s, nil

	case sess.StatusActive:
		return s.handleActiveKey(msg, key)
	}

	// Submitting: input is disabled until the rating returns.
	return s, nil
}

func (s *StudyScreen) handleActiveKey(msg tea.KeyMsg, key string) (screen.Screen, tea.Cmd) {
	s.notice = ""
	// A failed rating stays up until the next rating attempt or any
	// other key.
	if s.state.Err() != nil && key != "1" && key != "2" && key != "3" {
		s.state.ClearErr()
	}

	switch key {
	case "pgup":
		return s, s.move(s.state.Previous)
	case "pgdown":
		return s, s.move(s.state.Next)
	case "tab":
		return s, s.move(s.state.Advance)
	}

	if s.state.IsAnswerChecked() {
		switch key {
		case "1", "2", "3":
			return s, s.rate(int(key[0] - '0'))
		case "r", "R":
			if err := s.state.Retry(); err != nil {
				s.notice = err.Error()
				return s, nil
			}
			return s, s.input.Reset()
		case "left":
			return s, s.move(s.state.Previous)
		case "right":
			return s, s.move(s.state.Next)
		}
		return s, nil
	}

	if s.state.CardProblem() != "" {
		switch key {
		case "left":
			return s, s.move(s.state.Previous)
		case "right":
			return s, s.move(s.state.Next)
		}
		return s, nil
	}

	switch s.state.Mode() {
	case card.ModeBasic:
		switch key {
		case "space", " ", "enter":
			if err := s.state.Reveal(); err != nil {
				s.notice = err.Error()
				return s, nil
			}
			return s, s.afterCheck()
		}

	case card.ModeTrueFalse:
		switch key {
		case "t", "T":
			return s, s.answer(card.True)
		case "f", "F":
			return s, s.answer(card.False)
		}
		return s, s.handleChoiceKey(key)

	case card.ModeMultipleChoice:
		return s, s.handleChoiceKey(key)

	case card.ModeFillInBlank:
		if key == "enter" {
			return s, s.answer(s.input.Value())
		}
		var cmd tea.Cmd
		s.input, cmd = s.input.Update(msg)
		return s, cmd
	}

	switch key {
	case "left":
		return s, s.move(s.state.Previous)
	case "right":
		return s, s.move(s.state.Next)
	}
	return s, nil
}

func (s *StudyScreen) handleChoiceKey(key string) tea.Cmd {
	switch key {
	case "up", "k":
		s.choices.Move(-1)
		return nil
	case "down", "j":
		s.choices.Move(1)
		return nil
	case "enter":
		if v, ok := s.choices.Current(); ok {
			return s.answer(v)
		}
		return nil
	case "left":
		return s.move(s.state.Previous)
	case "right":
		return s.move(s.state.Next)
	}
	if i, ok := s.choices.IndexForKey(key); ok {
		s.choices.Cursor = i
		return s.answer(s.choices.Options[i])
	}
	return nil
}

// answer selects value and checks it. True/false selection checks on
// its own.
func (s *StudyScreen) answer(value string) tea.Cmd {
	if err := s.state.Select(value); err != nil {
		s.notice = err.Error()
		return nil
	}
	if !s.state.IsAnswerChecked() {
		if err := s.state.Check(); err != nil {
			s.notice = err.Error()
			return nil
		}
	}
	return s.afterCheck()
}

// afterCheck records the evaluated answer and, on the first attempt,
// updates the card's review counters.
func (s *StudyScreen) afterCheck() tea.Cmd {
	c, _ := s.state.CurrentCard()
	fb := s.state.Feedback()
	correct := fb != nil && fb.Correct

	if s.state.Mode() == card.ModeFillInBlank {
		s.input.Submit(correct)
	}

	var response string
	if sel := s.state.SelectedAnswer(); sel != nil {
		response = *sel
	}
	var expected string
	if c.Answer != nil {
		expected = c.Answer.CorrectText()
	}
	attempt := s.state.Attempts()
	s.record("answer", func(ctx context.Context) error {
		return s.events.AppendAnswerEvent(ctx, store.AnswerEventData{
			SessionID:     s.token,
			DeckID:        s.deck.ID,
			CardID:        c.ID,
			CardType:      string(c.Type),
			Question:      c.Question,
			Response:      response,
			CorrectAnswer: expected,
			Correct:       correct,
			Attempt:       attempt,
		})
	})

	if attempt != 1 || c.ID == "" {
		return nil
	}
	token, client := s.token, s.client
	return func() tea.Msg {
		err := client.MarkReviewed(context.Background(), c.ID, correct)
		return reviewedMsg{Token: token, CardID: c.ID, Err: err}
	}
}

func (s *StudyScreen) rate(score int) tea.Cmd {
	cardID, err := s.state.BeginRating(score)
	if err != nil {
		s.notice = err.Error()
		return nil
	}
	token, client := s.token, s.client
	return func() tea.Msg {
		err := client.SubmitScore(context.Background(), cardID, score)
		return scoreResultMsg{Token: token, CardID: cardID, Score: score, Err: err}
	}
}

// move runs a navigation transition and rebuilds the card widgets.
func (s *StudyScreen) move(step func() error) tea.Cmd {
	if err := step(); err != nil {
		s.notice = err.Error()
		return nil
	}
	if s.state.Index != s.cardIndex {
		return s.syncWidgets()
	}
	return nil
}

// syncWidgets rebuilds the option list and the text input for the
// current card.
func (s *StudyScreen) syncWidgets() tea.Cmd {
	s.cardIndex = s.state.Index
	s.notice = ""
	s.choices = components.NewChoiceList(nil)
	s.input = components.NewTextInput("Type your answer here", 200)

	c, ok := s.state.CurrentCard()
	if !ok {
		return nil
	}
	switch a := c.Answer.(type) {
	case card.ChoiceAnswer:
		s.choices = components.NewChoiceList(a.Options)
	case card.TrueFalseAnswer:
		s.choices = components.NewChoiceList([]string{card.True, card.False})
	}
	if s.state.Mode() == card.ModeFillInBlank {
		return s.input.Init()
	}
	return nil
}

// typing reports whether free-form input goes to the text field.
func (s *StudyScreen) typing() bool {
	return s.state != nil &&
		s.state.Status == sess.StatusActive &&
		!s.state.IsAnswerChecked() &&
		s.state.Mode() == card.ModeFillInBlank
}

func (s *StudyScreen) finish() tea.Cmd {
	s.end()
	sum := summary.New(sess.BuildSummary(s.state), s.deck.Name)
	return func() tea.Msg { return router.ReplaceScreenMsg{Screen: sum} }
}

// end writes the session end event once.
func (s *StudyScreen) end() {
	if s.ended || s.state == nil || s.state.Status == sess.StatusEmpty {
		return
	}
	s.ended = true
	st := s.state.Stats
	s.logger.Info("study session ended",
		"session_id", s.token,
		"cards_checked", st.CardsChecked,
		"first_try_correct", st.FirstTryCorrect,
		"ratings", st.RatingsSubmitted)
	s.record(store.ActionEnd, func(ctx context.Context) error {
		return s.events.AppendSessionEvent(ctx, store.SessionEventData{
			SessionID:        s.token,
			DeckID:           s.deck.ID,
			DeckName:         s.deck.Name,
			Action:           store.ActionEnd,
			CardsTotal:       len(s.state.Cards),
			CardsChecked:     st.CardsChecked,
			FirstTryCorrect:  st.FirstTryCorrect,
			RatingsSubmitted: st.RatingsSubmitted,
			Restarts:         st.Restarts,
			DurationSecs:     int(s.state.Elapsed().Seconds()),
		})
	})
}

// record writes a history event. History is best effort: failures are
// logged and the session carries on.
func (s *StudyScreen) record(kind string, write func(ctx context.Context) error) {
	if s.events == nil {
		return
	}
	if err := write(context.Background()); err != nil {
		s.logger.Warn("history write failed", "event", kind, "session_id", s.token, "error", err)
	}
}
