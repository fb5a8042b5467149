package welcome

import (
	"strings"
	"testing"
	"time"

	tea "charm.land/bubbletea/v2"

	"github.com/abhisek/flashdeck/internal/router"
	"github.com/abhisek/flashdeck/internal/screen"
)

// stubScreen is a minimal screen implementation for testing.
type stubScreen struct{}

func (s *stubScreen) Init() tea.Cmd                           { return nil }
func (s *stubScreen) Update(tea.Msg) (screen.Screen, tea.Cmd) { return s, nil }
func (s *stubScreen) View(int, int) string                    { return "home" }
func (s *stubScreen) Title() string                           { return "Decks" }

func newTestWelcome() (*WelcomeScreen, *int) {
	calls := 0
	return New(func() screen.Screen {
		calls++
		return &stubScreen{}
	}), &calls
}

func sendTicks(w *WelcomeScreen, n int) tea.Cmd {
	var cmd tea.Cmd
	for range n {
		_, cmd = w.Update(tickMsg(time.Now()))
	}
	return cmd
}

func TestCardFlipsThenBannerShows(t *testing.T) {
	w, _ := newTestWelcome()

	view := w.View(100, 30)
	if !strings.Contains(view, "question") {
		t.Error("expected the question side first")
	}
	if strings.Contains(view, "One card at a time") {
		t.Error("tagline should not be visible at start")
	}

	sendTicks(w, 8)
	view = w.View(100, 30)
	if !strings.Contains(view, "answer") {
		t.Error("expected the answer side after the flip")
	}
	if !strings.Contains(view, "One card at a time") {
		t.Error("expected tagline after the flip")
	}
}

func TestCompactBannerOnNarrowTerminal(t *testing.T) {
	w, _ := newTestWelcome()
	sendTicks(w, 10)
	if !strings.Contains(w.View(60, 30), bannerCompact) {
		t.Error("expected compact banner")
	}
}

func TestAutoTransition(t *testing.T) {
	w, calls := newTestWelcome()

	cmd := sendTicks(w, int(totalDur/tickInterval))
	if cmd == nil {
		t.Fatal("expected transition when the animation ends")
	}
	if _, ok := cmd().(router.ReplaceScreenMsg); !ok {
		t.Fatal("expected ReplaceScreenMsg")
	}
	if *calls != 1 {
		t.Errorf("factory called %d times, want 1", *calls)
	}

	if cmd := sendTicks(w, 1); cmd != nil {
		t.Error("ticks after the transition should stop")
	}
}

func TestKeypressSkips(t *testing.T) {
	w, calls := newTestWelcome()
	sendTicks(w, 2)

	_, cmd := w.Update(tea.KeyPressMsg{Code: ' '})
	if cmd == nil {
		t.Fatal("keypress should trigger transition")
	}
	msg, ok := cmd().(router.ReplaceScreenMsg)
	if !ok || msg.Screen == nil {
		t.Fatalf("expected ReplaceScreenMsg with a screen, got %T", msg)
	}

	_, cmd = w.Update(tea.KeyPressMsg{Code: 'b'})
	if cmd != nil {
		t.Error("second keypress should not produce a command")
	}
	if *calls != 1 {
		t.Errorf("factory called %d times, want 1", *calls)
	}
}

func TestTitleEmpty(t *testing.T) {
	w, _ := newTestWelcome()
	if w.Title() != "" {
		t.Errorf("expected empty title, got %q", w.Title())
	}
}
