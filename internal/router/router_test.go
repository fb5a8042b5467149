package router

import (
	"testing"

	tea "charm.land/bubbletea/v2"

	"github.com/abhisek/flashdeck/internal/screen"
)

// stubScreen is a minimal screen for testing.
type stubScreen struct {
	title   string
	initRan bool
}

// closingScreen records when the router closes it.
type closingScreen struct {
	stubScreen
	closed bool
}

type closedMsg struct{}

func (s *closingScreen) Close() tea.Cmd {
	s.closed = true
	return func() tea.Msg { return closedMsg{} }
}

func (s *stubScreen) Init() tea.Cmd {
	s.initRan = true
	return nil
}
func (s *stubScreen) Update(tea.Msg) (screen.Screen, tea.Cmd) { return s, nil }
func (s *stubScreen) View(int, int) string                    { return s.title }
func (s *stubScreen) Title() string                           { return s.title }

func TestPush(t *testing.T) {
	s1 := &stubScreen{title: "first"}
	r := New(s1)

	s2 := &stubScreen{title: "second"}
	r.Push(s2)

	if r.Depth() != 2 {
		t.Errorf("expected depth 2, got %d", r.Depth())
	}
	if r.Active().Title() != "second" {
		t.Errorf("expected active 'second', got %q", r.Active().Title())
	}
	if !s2.initRan {
		t.Error("expected Init() to run on pushed screen")
	}
}

func TestPop(t *testing.T) {
	s1 := &stubScreen{title: "first"}
	r := New(s1)

	s2 := &stubScreen{title: "second"}
	r.Push(s2)
	r.Pop()

	if r.Depth() != 1 {
		t.Errorf("expected depth 1, got %d", r.Depth())
	}
	if r.Active().Title() != "first" {
		t.Errorf("expected active 'first', got %q", r.Active().Title())
	}
}

func TestPopNoopAtBottom(t *testing.T) {
	s1 := &stubScreen{title: "first"}
	r := New(s1)

	r.Pop()

	if r.Depth() != 1 {
		t.Errorf("expected depth 1 after pop at bottom, got %d", r.Depth())
	}
}

func TestReplace(t *testing.T) {
	s1 := &stubScreen{title: "first"}
	r := New(s1)

	s2 := &stubScreen{title: "second"}
	r.Replace(s2)

	if r.Depth() != 1 {
		t.Errorf("expected depth 1 after replace, got %d", r.Depth())
	}
	if r.Active().Title() != "second" {
		t.Errorf("expected active 'second', got %q", r.Active().Title())
	}
	if !s2.initRan {
		t.Error("expected Init() to run on replaced screen")
	}
}

func TestReplaceScreenMsg(t *testing.T) {
	s1 := &stubScreen{title: "first"}
	r := New(s1)

	s2 := &stubScreen{title: "second"}
	r.Update(ReplaceScreenMsg{Screen: s2})

	if r.Active().Title() != "second" {
		t.Errorf("expected active 'second', got %q", r.Active().Title())
	}
	if !s2.initRan {
		t.Error("expected Init() to run via ReplaceScreenMsg")
	}
}

func TestReplacePreservesStackDepth(t *testing.T) {
	s1 := &stubScreen{title: "first"}
	r := New(s1)

	s2 := &stubScreen{title: "second"}
	r.Push(s2)

	s3 := &stubScreen{title: "third"}
	r.Replace(s3)

	if r.Depth() != 2 {
		t.Errorf("expected depth 2, got %d", r.Depth())
	}
	if r.Active().Title() != "third" {
		t.Errorf("expected active 'third', got %q", r.Active().Title())
	}
}

func TestPopClosesScreen(t *testing.T) {
	r := New(&stubScreen{title: "first"})
	top := &closingScreen{stubScreen: stubScreen{title: "second"}}
	r.Push(top)

	cmd := r.Update(PopScreenMsg{})
	if !top.closed {
		t.Fatal("expected Close() on popped screen")
	}
	if cmd == nil {
		t.Fatal("expected close command")
	}
	if _, ok := cmd().(closedMsg); !ok {
		t.Error("expected closedMsg from close command")
	}
}

func TestReplaceClosesScreen(t *testing.T) {
	top := &closingScreen{stubScreen: stubScreen{title: "first"}}
	r := New(top)

	r.Replace(&stubScreen{title: "second"})
	if !top.closed {
		t.Error("expected Close() on replaced screen")
	}
}

func TestPopAtBottomDoesNotClose(t *testing.T) {
	top := &closingScreen{stubScreen: stubScreen{title: "first"}}
	r := New(top)

	if cmd := r.Pop(); cmd != nil {
		t.Error("expected nil command at bottom")
	}
	if top.closed {
		t.Error("bottom screen must not be closed")
	}
}

func TestCloseAll(t *testing.T) {
	bottom := &closingScreen{stubScreen: stubScreen{title: "first"}}
	r := New(bottom)
	top := &closingScreen{stubScreen: stubScreen{title: "second"}}
	r.Push(top)

	r.CloseAll()
	if !bottom.closed || !top.closed {
		t.Error("expected every screen to be closed")
	}
	if r.Depth() != 2 {
		t.Errorf("expected depth 2, got %d", r.Depth())
	}
}
