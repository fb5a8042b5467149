package history

import (
	"context"
	"fmt"
	"strings"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/abhisek/flashdeck/internal/router"
	"github.com/abhisek/flashdeck/internal/screen"
	"github.com/abhisek/flashdeck/internal/store"
	"github.com/abhisek/flashdeck/internal/ui/layout"
	"github.com/abhisek/flashdeck/internal/ui/theme"
)

// sessionLimit caps how many sessions the screen lists.
const sessionLimit = 50

type historyLoadedMsg struct {
	Sessions []store.SessionSummaryRecord
	Err      error
}

type detailLoadedMsg struct {
	SessionID string
	Answers   []store.AnswerEventRecord
	Deck      store.DeckAccuracy
	Err       error
}

// detail is the expanded view of one session.
type detail struct {
	answers []store.AnswerEventRecord
	deck    store.DeckAccuracy
	err     error
}

// HistoryScreen lists finished study sessions. Enter expands a session
// into its answers.
type HistoryScreen struct {
	eventRepo store.EventRepo
	sessions  []store.SessionSummaryRecord
	details   map[string]*detail
	selected  int
	expanded  map[int]bool
	loaded    bool
	errMsg    string
}

var _ screen.Screen = (*HistoryScreen)(nil)
var _ screen.KeyHintProvider = (*HistoryScreen)(nil)

// New creates a new HistoryScreen.
func New(eventRepo store.EventRepo) *HistoryScreen {
	return &HistoryScreen{
		eventRepo: eventRepo,
		details:   make(map[string]*detail),
		expanded:  make(map[int]bool),
	}
}

func (s *HistoryScreen) Init() tea.Cmd {
	repo := s.eventRepo
	return func() tea.Msg {
		sessions, err := repo.QuerySessionSummaries(context.Background(), store.QueryOpts{Limit: sessionLimit})
		return historyLoadedMsg{Sessions: sessions, Err: err}
	}
}

func (s *HistoryScreen) Title() string {
	return "History"
}

func (s *HistoryScreen) KeyHints() []layout.KeyHint {
	return []layout.KeyHint{
		{Key: "Enter", Description: "Details"},
		{Key: "↑↓", Description: "Navigate"},
		{Key: "Esc", Description: "Back"},
	}
}

func (s *HistoryScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case historyLoadedMsg:
		if msg.Err != nil {
			s.errMsg = msg.Err.Error()
		} else {
			s.sessions = msg.Sessions
		}
		s.loaded = true
		return s, nil

	case detailLoadedMsg:
		s.details[msg.SessionID] = &detail{answers: msg.Answers, deck: msg.Deck, err: msg.Err}
		return s, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "esc":
			return s, func() tea.Msg { return router.PopScreenMsg{} }
		case "up", "k":
			if s.selected > 0 {
				s.selected--
			}
		case "down", "j":
			if s.selected < len(s.sessions)-1 {
				s.selected++
			}
		case "enter":
			if s.selected >= len(s.sessions) {
				return s, nil
			}
			s.expanded[s.selected] = !s.expanded[s.selected]
			if s.expanded[s.selected] {
				return s, s.loadDetail(s.sessions[s.selected])
			}
		}
	}
	return s, nil
}

// loadDetail fetches a session's answers and its deck's lifetime
// accuracy once.
func (s *HistoryScreen) loadDetail(rec store.SessionSummaryRecord) tea.Cmd {
	if _, ok := s.details[rec.SessionID]; ok {
		return nil
	}
	repo := s.eventRepo
	return func() tea.Msg {
		ctx := context.Background()
		answers, err := repo.QueryAnswerEvents(ctx, store.QueryOpts{SessionID: rec.SessionID})
		if err != nil {
			return detailLoadedMsg{SessionID: rec.SessionID, Err: err}
		}
		acc, err := repo.DeckAccuracy(ctx, rec.DeckID)
		return detailLoadedMsg{SessionID: rec.SessionID, Answers: answers, Deck: acc, Err: err}
	}
}

func (s *HistoryScreen) View(width, height int) string {
	if s.errMsg != "" {
		return layout.Center(theme.Incorrect.Render("\n\nError: "+s.errMsg), width)
	}
	if !s.loaded {
		return layout.Center(theme.Muted.Render("\n\n  Loading history..."), width)
	}
	if len(s.sessions) == 0 {
		return layout.Center(theme.Hint.Render("\n\n  No sessions yet. Pick a deck and start studying!"), width)
	}

	var b strings.Builder
	b.WriteString("\n")

	for i, rec := range s.sessions {
		prefix := "  "
		style := theme.Unselected
		if i == s.selected {
			prefix = "> "
			style = theme.Selected
		}

		var accuracy float64
		if rec.CardsChecked > 0 {
			accuracy = float64(rec.FirstTryCorrect) / float64(rec.CardsChecked) * 100
		}
		name := rec.DeckName
		if name == "" {
			name = rec.DeckID
		}
		line := fmt.Sprintf("%s%s  %-20s  %d:%02d  %d/%d checked  %.0f%% first try  %d rated",
			prefix, rec.Timestamp.Local().Format("Jan 02 15:04"), truncate(name, 20),
			rec.DurationSecs/60, rec.DurationSecs%60,
			rec.CardsChecked, rec.CardsTotal, accuracy, rec.RatingsSubmitted)
		b.WriteString(lipgloss.PlaceHorizontal(width, lipgloss.Center, style.Render(line)))
		b.WriteString("\n")

		if s.expanded[i] {
			b.WriteString(s.renderDetail(rec, width))
		}
	}
	return b.String()
}

func (s *HistoryScreen) renderDetail(rec store.SessionSummaryRecord, width int) string {
	d, ok := s.details[rec.SessionID]
	indent := func(str string) string {
		return lipgloss.PlaceHorizontal(width, lipgloss.Center, str) + "\n"
	}
	switch {
	case !ok:
		return indent(theme.Muted.Render("    Loading..."))
	case d.err != nil:
		return indent(theme.Incorrect.Render("    " + d.err.Error()))
	}

	var b strings.Builder
	if len(d.answers) == 0 {
		b.WriteString(indent(theme.Hint.Render("    No answers this session")))
	}
	for _, a := range d.answers {
		mark, style := "✓", theme.Correct
		if !a.Correct {
			mark, style = "✗", theme.Incorrect
		}
		line := fmt.Sprintf("    %s %s", mark, truncate(a.Question, 48))
		if a.Response != "" {
			line += theme.Muted.Render("  → " + truncate(a.Response, 20))
		}
		b.WriteString(indent(style.Render(line)))
	}
	if d.deck.Answers > 0 {
		b.WriteString(indent(theme.Muted.Render(fmt.Sprintf("    Deck all time: %.0f%% of %d answers",
			d.deck.Accuracy*100, d.deck.Answers))))
	}
	return b.String()
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
