package study

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"

	tea "charm.land/bubbletea/v2"

	"github.com/abhisek/flashdeck/internal/card"
	"github.com/abhisek/flashdeck/internal/router"
	"github.com/abhisek/flashdeck/internal/screens/summary"
	sess "github.com/abhisek/flashdeck/internal/session"
	"github.com/abhisek/flashdeck/internal/store"
)

// fakeClient implements Client for testing.
type fakeClient struct {
	mu       sync.Mutex
	cards    []card.Flashcard
	listErr  error
	scoreErr error
	scores   []int
	reviewed map[string]bool
}

func (f *fakeClient) ListFlashcards(context.Context, string) ([]card.Flashcard, error) {
	return f.cards, f.listErr
}

func (f *fakeClient) SubmitScore(_ context.Context, _ string, score int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.scoreErr != nil {
		return f.scoreErr
	}
	f.scores = append(f.scores, score)
	return nil
}

func (f *fakeClient) MarkReviewed(_ context.Context, cardID string, correct bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.reviewed == nil {
		f.reviewed = make(map[string]bool)
	}
	f.reviewed[cardID] = correct
	return nil
}

// mockEventRepo records history writes. Query methods are not used.
type mockEventRepo struct {
	store.EventRepo
	sessionEvents []store.SessionEventData
	answerEvents  []store.AnswerEventData
	scoreEvents   []store.ScoreEventData
	failWrites    bool
}

func (m *mockEventRepo) AppendSessionEvent(_ context.Context, data store.SessionEventData) error {
	if m.failWrites {
		return errors.New("disk full")
	}
	m.sessionEvents = append(m.sessionEvents, data)
	return nil
}

func (m *mockEventRepo) AppendAnswerEvent(_ context.Context, data store.AnswerEventData) error {
	if m.failWrites {
		return errors.New("disk full")
	}
	m.answerEvents = append(m.answerEvents, data)
	return nil
}

func (m *mockEventRepo) AppendScoreEvent(_ context.Context, data store.ScoreEventData) error {
	if m.failWrites {
		return errors.New("disk full")
	}
	m.scoreEvents = append(m.scoreEvents, data)
	return nil
}

func keyPress(r rune) tea.KeyPressMsg {
	return tea.KeyPressMsg{Code: r, Text: string(r)}
}

func specialKey(code rune) tea.KeyPressMsg {
	return tea.KeyPressMsg{Code: code}
}

func flashcard(id string, t card.Type, question, answer string) card.Flashcard {
	return card.Flashcard{ID: id, DeckID: "deck-1", Type: t, Question: question, RawAnswer: json.RawMessage(answer)}
}

func testDeck() []card.Flashcard {
	return []card.Flashcard{
		flashcard("c1", card.TypeBasic, "Capital of France?",
			`{"answer":"Paris [1]\n\nSources:\n1. Atlas","sources":[{"number":1,"title":"World Atlas","url":"https://atlas.example"}]}`),
		flashcard("c2", card.TypeMultipleChoice, "Largest planet?",
			`{"options":["Mars","Jupiter","Venus"],"correct_answer":"Jupiter","explanation":"A gas giant."}`),
		flashcard("c3", card.TypeTrueFalse, "The sun is a star.", `{"correct_answer":"True"}`),
		flashcard("c4", card.TypeFillInBlank, "Water boils at _____ C.", `{"correct_answer":"100"}`),
	}
}

// newLoaded returns a screen whose cards have already been delivered.
func newLoaded(t *testing.T, client *fakeClient) (*StudyScreen, *mockEventRepo) {
	t.Helper()
	events := &mockEventRepo{}
	s := New(client, events, card.Deck{ID: "deck-1", Name: "Basics"}, Options{
		NewID: func() string { return "sess-1" },
	})
	msg := s.Init()()
	if _, ok := msg.(cardsLoadedMsg); !ok {
		t.Fatalf("Init produced %T, want cardsLoadedMsg", msg)
	}
	s.Update(msg)
	return s, events
}

// press sends a key and returns the resulting command.
func press(s *StudyScreen, k tea.KeyPressMsg) tea.Cmd {
	_, cmd := s.Update(k)
	return cmd
}

// rate presses a score key and delivers the submission result.
func rate(t *testing.T, s *StudyScreen, r rune) {
	t.Helper()
	cmd := press(s, keyPress(r))
	if cmd == nil {
		t.Fatalf("expected a submit command for %q", r)
	}
	if s.state.Status != sess.StatusSubmitting {
		t.Fatalf("status = %v, want submitting", s.state.Status)
	}
	s.Update(cmd())
}

func TestStudyScreen_LoadStartsSession(t *testing.T) {
	client := &fakeClient{cards: testDeck()}
	s, events := newLoaded(t, client)

	if s.state == nil || s.state.Status != sess.StatusActive {
		t.Fatal("expected an active session")
	}
	if s.Status() != "Card 1/4" {
		t.Errorf("Status = %q, want %q", s.Status(), "Card 1/4")
	}
	if s.Title() != "Basics" {
		t.Errorf("Title = %q", s.Title())
	}
	if len(events.sessionEvents) != 1 || events.sessionEvents[0].Action != store.ActionStart {
		t.Fatalf("session events = %+v, want one start", events.sessionEvents)
	}
	if events.sessionEvents[0].SessionID != "sess-1" || events.sessionEvents[0].CardsTotal != 4 {
		t.Errorf("start event = %+v", events.sessionEvents[0])
	}
}

func TestStudyScreen_LoadError(t *testing.T) {
	client := &fakeClient{listErr: errors.New("connection refused")}
	events := &mockEventRepo{}
	ids := []string{"a", "b"}
	s := New(client, events, card.Deck{ID: "deck-1"}, Options{NewID: func() string {
		id := ids[0]
		ids = ids[1:]
		return id
	}})
	s.Update(s.Init()())

	if s.loadErr == nil {
		t.Fatal("expected load error")
	}
	if !strings.Contains(s.View(80, 24), "connection refused") {
		t.Error("expected error in view")
	}

	client.listErr = nil
	client.cards = testDeck()
	cmd := press(s, keyPress('r'))
	if cmd == nil {
		t.Fatal("expected reload command")
	}
	if s.token != "b" {
		t.Errorf("token = %q, want a fresh token", s.token)
	}
	s.Update(cmd())
	if s.state == nil || s.state.ID != "b" {
		t.Fatal("expected session from the reload")
	}
}

func TestStudyScreen_StaleResultsDropped(t *testing.T) {
	client := &fakeClient{cards: testDeck()}
	s, _ := newLoaded(t, client)

	s.Update(cardsLoadedMsg{Token: "old", Cards: nil})
	if s.state.Status != sess.StatusActive || len(s.state.Cards) != 4 {
		t.Error("stale load replaced the session")
	}

	press(s, keyPress(' '))
	s.Update(scoreResultMsg{Token: "old", CardID: "c1", Score: 1})
	if s.state.Index != 0 {
		t.Error("stale score result advanced the session")
	}
}

func TestStudyScreen_EmptyDeck(t *testing.T) {
	client := &fakeClient{}
	s, events := newLoaded(t, client)

	if s.state.Status != sess.StatusEmpty {
		t.Fatalf("status = %v, want empty", s.state.Status)
	}
	if !strings.Contains(s.View(80, 24), "No cards in this deck") {
		t.Error("expected empty deck message")
	}
	if len(events.sessionEvents) != 0 {
		t.Error("empty deck should not start a session")
	}

	cmd := press(s, specialKey(tea.KeyEnter))
	if cmd == nil {
		t.Fatal("expected pop command")
	}
	if _, ok := cmd().(router.PopScreenMsg); !ok {
		t.Error("expected PopScreenMsg")
	}
}

func TestStudyScreen_BasicRevealAndRate(t *testing.T) {
	client := &fakeClient{cards: testDeck()}
	s, events := newLoaded(t, client)

	if cmd := press(s, keyPress('1')); cmd != nil {
		t.Fatal("rating must be refused before the answer is shown")
	}

	cmd := press(s, keyPress(' '))
	if !s.state.ShowAnswer() {
		t.Fatal("expected answer shown after Space")
	}
	view := s.View(100, 40)
	for _, want := range []string{"Paris [1]", "World Atlas", "https://atlas.example", "Rate this card"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q", want)
		}
	}
	if cmd == nil {
		t.Fatal("expected mark reviewed command")
	}
	s.Update(cmd())
	if correct, ok := client.reviewed["c1"]; !ok || !correct {
		t.Errorf("reviewed = %v, want c1 correct", client.reviewed)
	}

	rate(t, s, '2')
	if s.state.Index != 1 {
		t.Fatalf("index = %d, want 1 after rating", s.state.Index)
	}
	if len(client.scores) != 1 || client.scores[0] != 2 {
		t.Errorf("scores = %v, want [2]", client.scores)
	}
	if len(events.scoreEvents) != 1 || !events.scoreEvents[0].Success {
		t.Errorf("score events = %+v", events.scoreEvents)
	}
	if len(events.answerEvents) != 1 || !events.answerEvents[0].Correct {
		t.Errorf("answer events = %+v", events.answerEvents)
	}
}

func TestStudyScreen_MultipleChoiceRetry(t *testing.T) {
	client := &fakeClient{cards: testDeck()}
	s, events := newLoaded(t, client)
	press(s, specialKey(tea.KeyPgDown))
	if s.state.Index != 1 {
		t.Fatalf("index = %d, want 1", s.state.Index)
	}

	// Option A is wrong.
	press(s, keyPress('1'))
	fb := s.state.Feedback()
	if fb == nil || fb.Correct || fb.Message != sess.MsgTryAgain {
		t.Fatalf("feedback = %+v, want try again", fb)
	}
	if !s.state.CanRetry() {
		t.Fatal("expected retry to be available")
	}

	press(s, keyPress('r'))
	if s.state.Phase != sess.PhaseRetrying {
		t.Fatalf("phase = %v, want retrying", s.state.Phase)
	}

	press(s, specialKey(tea.KeyDown))
	press(s, specialKey(tea.KeyEnter))
	fb = s.state.Feedback()
	if fb == nil || !fb.Correct {
		t.Fatalf("feedback = %+v, want correct", fb)
	}
	if !strings.Contains(s.View(100, 40), "A gas giant.") {
		t.Error("expected explanation after check")
	}

	if len(events.answerEvents) != 2 {
		t.Fatalf("answer events = %d, want 2", len(events.answerEvents))
	}
	if events.answerEvents[1].Attempt != 2 || events.answerEvents[1].Response != "Jupiter" {
		t.Errorf("second answer = %+v", events.answerEvents[1])
	}
	if s.state.Stats.FirstTryCorrect != 0 {
		t.Errorf("first try correct = %d, want 0", s.state.Stats.FirstTryCorrect)
	}
}

func TestStudyScreen_TrueFalseChecksOnSelect(t *testing.T) {
	client := &fakeClient{cards: testDeck()}
	s, _ := newLoaded(t, client)
	press(s, specialKey(tea.KeyPgDown))
	press(s, specialKey(tea.KeyPgDown))

	press(s, keyPress('f'))
	if !s.state.IsAnswerChecked() {
		t.Fatal("true/false selection should check immediately")
	}
	if fb := s.state.Feedback(); fb == nil || fb.Correct {
		t.Errorf("feedback = %+v, want incorrect", fb)
	}
}

func TestStudyScreen_FillInBlank(t *testing.T) {
	client := &fakeClient{cards: testDeck()}
	s, _ := newLoaded(t, client)
	for range 3 {
		press(s, specialKey(tea.KeyPgDown))
	}
	if s.state.Mode() != card.ModeFillInBlank {
		t.Fatalf("mode = %v, want fill in blank", s.state.Mode())
	}

	press(s, specialKey(tea.KeyEnter))
	if s.state.IsAnswerChecked() {
		t.Fatal("empty answer must not be checked")
	}
	if s.notice == "" {
		t.Error("expected a notice for the empty answer")
	}

	s.input.Model.SetValue(" 100 ")
	press(s, specialKey(tea.KeyEnter))
	fb := s.state.Feedback()
	if fb == nil || !fb.Correct {
		t.Fatalf("feedback = %+v, want correct", fb)
	}
	if s.state.CanRetry() {
		t.Error("fill in blank must not offer retry")
	}
	view := s.View(100, 40)
	if !strings.Contains(view, "Correct answer: 100") {
		t.Error("expected correct answer in view")
	}
}

func TestStudyScreen_ScoreFailureStaysOnCard(t *testing.T) {
	client := &fakeClient{cards: testDeck(), scoreErr: errors.New("HTTP 500")}
	s, events := newLoaded(t, client)
	press(s, keyPress(' '))

	rate(t, s, '3')
	if s.state.Index != 0 || s.state.Status != sess.StatusActive {
		t.Fatalf("index=%d status=%v, want same card active", s.state.Index, s.state.Status)
	}
	if !s.state.IsAnswerChecked() {
		t.Error("card should still be checked after a failed rating")
	}
	if !strings.Contains(s.View(100, 40), "Could not save rating: HTTP 500") {
		t.Error("expected rating error in view")
	}
	if len(events.scoreEvents) != 1 || events.scoreEvents[0].Success || events.scoreEvents[0].ErrorMessage != "HTTP 500" {
		t.Errorf("score events = %+v", events.scoreEvents)
	}

	client.scoreErr = nil
	rate(t, s, '3')
	if s.state.Index != 1 {
		t.Errorf("index = %d, want 1 after successful retry", s.state.Index)
	}
}

func TestStudyScreen_RatingErrorClearedOnNavigation(t *testing.T) {
	client := &fakeClient{cards: testDeck(), scoreErr: errors.New("HTTP 500")}
	s, _ := newLoaded(t, client)
	press(s, keyPress(' '))
	rate(t, s, '2')

	press(s, specialKey(tea.KeyPgDown))
	press(s, specialKey(tea.KeyPgUp))
	press(s, keyPress(' '))
	if !s.state.IsAnswerChecked() {
		t.Fatal("card should be checked again")
	}
	if strings.Contains(s.View(100, 40), "Could not save rating") {
		t.Error("rating error should not survive a card change")
	}
}

func TestStudyScreen_RatingErrorDismissed(t *testing.T) {
	client := &fakeClient{cards: testDeck(), scoreErr: errors.New("HTTP 500")}
	s, _ := newLoaded(t, client)
	press(s, keyPress(' '))
	rate(t, s, '1')

	press(s, keyPress('x'))
	if s.state.Err() != nil {
		t.Errorf("Err = %v, want dismissed", s.state.Err())
	}
	if s.state.Index != 0 || !s.state.IsAnswerChecked() {
		t.Errorf("index=%d checked=%v, want same card still checked", s.state.Index, s.state.IsAnswerChecked())
	}
	if strings.Contains(s.View(100, 40), "Could not save rating") {
		t.Error("dismissed error still rendered")
	}
}

func TestStudyScreen_InputDisabledWhileSubmitting(t *testing.T) {
	client := &fakeClient{cards: testDeck()}
	s, _ := newLoaded(t, client)
	press(s, keyPress(' '))

	cmd := press(s, keyPress('1'))
	if cmd == nil {
		t.Fatal("expected submit command")
	}
	if press(s, keyPress('2')) != nil {
		t.Error("second rating accepted while submitting")
	}
	press(s, specialKey(tea.KeyPgDown))
	if s.state.Index != 0 {
		t.Error("navigation accepted while submitting")
	}
	if !strings.Contains(s.View(100, 40), "Saving rating") {
		t.Error("expected saving indicator")
	}
	s.Update(cmd())
	if s.state.Index != 1 {
		t.Errorf("index = %d, want 1", s.state.Index)
	}
}

func TestStudyScreen_RestartAndFinish(t *testing.T) {
	client := &fakeClient{cards: testDeck()[:1]}
	s, events := newLoaded(t, client)

	press(s, keyPress(' '))
	rate(t, s, '1')
	if s.state.Status != sess.StatusConfirmRestart {
		t.Fatalf("status = %v, want confirm restart", s.state.Status)
	}
	if !strings.Contains(s.View(80, 24), "end of the deck") {
		t.Error("expected restart prompt")
	}

	press(s, keyPress('y'))
	if s.state.Status != sess.StatusActive || s.state.IsAnswerChecked() {
		t.Fatal("expected a fresh pass over the deck")
	}

	press(s, keyPress(' '))
	rate(t, s, '1')
	cmd := press(s, keyPress('n'))
	if s.state.Status != sess.StatusFinished {
		t.Fatalf("status = %v, want finished", s.state.Status)
	}
	if cmd == nil {
		t.Fatal("expected navigation to the summary")
	}
	msg, ok := cmd().(router.ReplaceScreenMsg)
	if !ok {
		t.Fatal("expected ReplaceScreenMsg")
	}
	if _, ok := msg.Screen.(*summary.SummaryScreen); !ok {
		t.Errorf("replacement is %T, want summary screen", msg.Screen)
	}

	if len(events.sessionEvents) != 2 {
		t.Fatalf("session events = %d, want start and end", len(events.sessionEvents))
	}
	end := events.sessionEvents[1]
	if end.Action != store.ActionEnd || end.Restarts != 1 || end.RatingsSubmitted != 2 {
		t.Errorf("end event = %+v", end)
	}

	// Closing after finish must not write a second end event.
	s.Close()
	if len(events.sessionEvents) != 2 {
		t.Error("end event written twice")
	}
}

func TestStudyScreen_CloseWritesEndEvent(t *testing.T) {
	client := &fakeClient{cards: testDeck()}
	s, events := newLoaded(t, client)
	press(s, keyPress(' '))

	s.Close()
	if len(events.sessionEvents) != 2 || events.sessionEvents[1].Action != store.ActionEnd {
		t.Fatalf("session events = %+v", events.sessionEvents)
	}
	if events.sessionEvents[1].CardsChecked != 1 {
		t.Errorf("cards checked = %d, want 1", events.sessionEvents[1].CardsChecked)
	}
}

func TestStudyScreen_InvalidCardCanBeSkipped(t *testing.T) {
	client := &fakeClient{cards: []card.Flashcard{
		flashcard("bad", card.TypeMultipleChoice, "Pick one", `{"options":[],"correct_answer":"x"}`),
		flashcard("ok", card.TypeBasic, "Q", `"A"`),
	}}
	s, _ := newLoaded(t, client)

	if !strings.Contains(s.View(80, 30), "no options to choose from") {
		t.Error("expected card problem in view")
	}
	press(s, keyPress('1'))
	if s.state.IsAnswerChecked() {
		t.Fatal("invalid card accepted an answer")
	}
	press(s, specialKey(tea.KeyTab))
	if s.state.Index != 1 {
		t.Errorf("index = %d, want 1 after skip", s.state.Index)
	}
}

func TestStudyScreen_HistoryFailuresAreNotFatal(t *testing.T) {
	client := &fakeClient{cards: testDeck()}
	events := &mockEventRepo{failWrites: true}
	s := New(client, events, card.Deck{ID: "deck-1"}, Options{})
	s.Update(s.Init()())

	press(s, keyPress(' '))
	rate(t, s, '2')
	if s.state.Index != 1 {
		t.Errorf("index = %d, want 1", s.state.Index)
	}
}

func TestStudyScreen_ShuffleOnRestart(t *testing.T) {
	client := &fakeClient{cards: testDeck()[:2]}
	shuffled := 0
	s := New(client, nil, card.Deck{ID: "deck-1"}, Options{
		ShuffleOnRestart: true,
		Shuffle: func(n int, swap func(i, j int)) {
			shuffled++
			swap(0, 1)
		},
	})
	s.Update(s.Init()())

	press(s, keyPress(' '))
	rate(t, s, '1')
	press(s, specialKey(tea.KeyTab))
	if s.state.Status != sess.StatusConfirmRestart {
		t.Fatalf("status = %v, want confirm restart", s.state.Status)
	}
	press(s, specialKey(tea.KeyEnter))
	if shuffled != 1 {
		t.Fatalf("shuffle calls = %d, want 1", shuffled)
	}
	if c, _ := s.state.CurrentCard(); c.ID != "c2" {
		t.Errorf("first card after restart = %q, want c2", c.ID)
	}
}

func TestStudyScreen_KeyHints(t *testing.T) {
	client := &fakeClient{cards: testDeck()}
	s, _ := newLoaded(t, client)
	if len(s.KeyHints()) == 0 {
		t.Error("expected key hints")
	}
	press(s, keyPress(' '))
	if s.KeyHints()[0].Key != "1-3" {
		t.Errorf("first hint = %+v, want rating", s.KeyHints()[0])
	}
}
