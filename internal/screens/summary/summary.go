package summary

import (
	"fmt"
	"strings"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/abhisek/flashdeck/internal/router"
	"github.com/abhisek/flashdeck/internal/screen"
	"github.com/abhisek/flashdeck/internal/session"
	"github.com/abhisek/flashdeck/internal/ui/components"
	"github.com/abhisek/flashdeck/internal/ui/layout"
	"github.com/abhisek/flashdeck/internal/ui/theme"
)

// ratingLabels name the difficulty scores.
var ratingLabels = map[int]string{1: "Easy", 2: "Medium", 3: "Hard"}

// SummaryScreen displays the result of a finished study session.
type SummaryScreen struct {
	summary  *session.SessionSummary
	deckName string
}

var _ screen.Screen = (*SummaryScreen)(nil)
var _ screen.KeyHintProvider = (*SummaryScreen)(nil)

// New creates a new SummaryScreen.
func New(summary *session.SessionSummary, deckName string) *SummaryScreen {
	return &SummaryScreen{summary: summary, deckName: deckName}
}

func (s *SummaryScreen) Init() tea.Cmd {
	return nil
}

func (s *SummaryScreen) Title() string {
	return "Session Summary"
}

func (s *SummaryScreen) KeyHints() []layout.KeyHint {
	return []layout.KeyHint{
		{Key: "Enter", Description: "Continue"},
		{Key: "Esc", Description: "Decks"},
	}
}

func (s *SummaryScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	if kmsg, ok := msg.(tea.KeyMsg); ok {
		switch kmsg.String() {
		case "enter", "esc":
			return s, func() tea.Msg { return router.PopScreenMsg{} }
		}
	}
	return s, nil
}

func (s *SummaryScreen) View(width, height int) string {
	sum := s.summary
	if sum == nil {
		return ""
	}

	var b strings.Builder
	b.WriteString("\n")
	b.WriteString(theme.Title.Width(width).Render("Session complete!"))
	b.WriteString("\n")
	if s.deckName != "" {
		b.WriteString(theme.Subtitle.Width(width).Render(s.deckName))
		b.WriteString("\n")
	}
	b.WriteString("\n")

	mins := int(sum.Duration.Minutes())
	secs := int(sum.Duration.Seconds()) % 60
	b.WriteString(theme.Subtitle.Width(width).Render(fmt.Sprintf("Duration: %d:%02d", mins, secs)))
	b.WriteString("\n\n")

	stats := fmt.Sprintf("Cards: %d        Checked: %d        Right first time: %d",
		sum.TotalCards, sum.CardsChecked, sum.FirstTryCorrect)
	b.WriteString(layout.Center(theme.Body.Render(stats), width))
	b.WriteString("\n\n")

	cw := components.ContentWidth(width)
	bar := components.NewProgressBar("Accuracy", sum.Accuracy, true, cw)
	b.WriteString(lipgloss.PlaceHorizontal(width, lipgloss.Center, bar.View()))
	b.WriteString("\n\n")

	divider := lipgloss.NewStyle().Foreground(theme.Border).Render(strings.Repeat("─", cw))
	b.WriteString(layout.Center(theme.Muted.Render("Ratings"), width))
	b.WriteString("\n")
	b.WriteString(lipgloss.PlaceHorizontal(width, lipgloss.Center, divider))
	b.WriteString("\n")

	for score := session.MinScore; score <= session.MaxScore; score++ {
		line := fmt.Sprintf("%-8s %s %d", ratingLabels[score], strings.Repeat("★", score)+strings.Repeat(" ", session.MaxScore-score), sum.Ratings[score])
		b.WriteString(layout.Center(theme.Body.Render(line), width))
		b.WriteString("\n")
	}

	if sum.RatingFailures > 0 {
		b.WriteString("\n")
		b.WriteString(layout.Center(theme.Incorrect.Render(
			fmt.Sprintf("%d rating(s) could not be saved", sum.RatingFailures)), width))
		b.WriteString("\n")
	}
	if sum.Restarts > 0 {
		b.WriteString("\n")
		b.WriteString(layout.Center(theme.Muted.Render(
			fmt.Sprintf("Deck reviewed %d more time(s)", sum.Restarts)), width))
		b.WriteString("\n")
	}

	return b.String()
}
