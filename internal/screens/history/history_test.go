package history

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	tea "charm.land/bubbletea/v2"

	"github.com/abhisek/flashdeck/internal/router"
	"github.com/abhisek/flashdeck/internal/store"
)

// mockEventRepo serves canned history. Append methods are not used.
type mockEventRepo struct {
	store.EventRepo
	sessions    []store.SessionSummaryRecord
	answers     map[string][]store.AnswerEventRecord
	sessionsErr error
	answerCalls int
}

func (m *mockEventRepo) QuerySessionSummaries(_ context.Context, opts store.QueryOpts) ([]store.SessionSummaryRecord, error) {
	if opts.Limit != sessionLimit {
		return nil, errors.New("unexpected limit")
	}
	return m.sessions, m.sessionsErr
}

func (m *mockEventRepo) QueryAnswerEvents(_ context.Context, opts store.QueryOpts) ([]store.AnswerEventRecord, error) {
	m.answerCalls++
	return m.answers[opts.SessionID], nil
}

func (m *mockEventRepo) DeckAccuracy(_ context.Context, deckID string) (store.DeckAccuracy, error) {
	return store.DeckAccuracy{Answers: 10, Correct: 8, Accuracy: 0.8}, nil
}

func testRepo() *mockEventRepo {
	return &mockEventRepo{
		sessions: []store.SessionSummaryRecord{
			{SessionID: "s2", DeckID: "d1", DeckName: "Biology", Timestamp: time.Now(), CardsTotal: 5, CardsChecked: 4, FirstTryCorrect: 2, DurationSecs: 125},
			{SessionID: "s1", DeckID: "d2", DeckName: "Chemistry", Timestamp: time.Now(), CardsTotal: 3, CardsChecked: 3, FirstTryCorrect: 3},
		},
		answers: map[string][]store.AnswerEventRecord{
			"s2": {
				{AnswerEventData: store.AnswerEventData{SessionID: "s2", Question: "Powerhouse of the cell?", Response: "Mitochondria", Correct: true}},
				{AnswerEventData: store.AnswerEventData{SessionID: "s2", Question: "Largest organ?", Response: "Liver"}},
			},
		},
	}
}

func load(t *testing.T, s *HistoryScreen) {
	t.Helper()
	s.Update(s.Init()())
}

func TestHistoryScreen_List(t *testing.T) {
	s := New(testRepo())
	if !strings.Contains(s.View(100, 30), "Loading history") {
		t.Error("expected loading view before data arrives")
	}
	load(t, s)

	view := s.View(100, 30)
	for _, want := range []string{"Biology", "Chemistry", "2:05", "4/5 checked", "50% first try"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q", want)
		}
	}
}

func TestHistoryScreen_Empty(t *testing.T) {
	s := New(&mockEventRepo{})
	load(t, s)
	if !strings.Contains(s.View(100, 30), "No sessions yet") {
		t.Error("expected empty message")
	}
}

func TestHistoryScreen_Error(t *testing.T) {
	s := New(&mockEventRepo{sessionsErr: errors.New("database is locked")})
	load(t, s)
	if !strings.Contains(s.View(100, 30), "database is locked") {
		t.Error("expected error message")
	}
}

func TestHistoryScreen_ExpandLoadsDetailOnce(t *testing.T) {
	repo := testRepo()
	s := New(repo)
	load(t, s)

	_, cmd := s.Update(tea.KeyPressMsg{Code: tea.KeyEnter})
	if cmd == nil {
		t.Fatal("expected detail command")
	}
	s.Update(cmd())

	view := s.View(100, 30)
	for _, want := range []string{"Powerhouse of the cell?", "Mitochondria", "Largest organ?", "80% of 10 answers"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q", want)
		}
	}

	// Collapse and expand again without another query.
	s.Update(tea.KeyPressMsg{Code: tea.KeyEnter})
	if _, cmd := s.Update(tea.KeyPressMsg{Code: tea.KeyEnter}); cmd != nil {
		t.Error("detail should be cached")
	}
	if repo.answerCalls != 1 {
		t.Errorf("answer queries = %d, want 1", repo.answerCalls)
	}
}

func TestHistoryScreen_Navigation(t *testing.T) {
	s := New(testRepo())
	load(t, s)

	s.Update(tea.KeyPressMsg{Code: tea.KeyDown})
	s.Update(tea.KeyPressMsg{Code: tea.KeyDown})
	if s.selected != 1 {
		t.Errorf("selected = %d, want 1", s.selected)
	}
	s.Update(tea.KeyPressMsg{Code: tea.KeyUp})
	if s.selected != 0 {
		t.Errorf("selected = %d, want 0", s.selected)
	}

	_, cmd := s.Update(tea.KeyPressMsg{Code: tea.KeyEscape})
	if cmd == nil {
		t.Fatal("expected pop command")
	}
	if _, ok := cmd().(router.PopScreenMsg); !ok {
		t.Error("expected PopScreenMsg")
	}
}
