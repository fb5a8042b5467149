// Package home is the deck picker shown when flashdeck starts.
package home

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/abhisek/flashdeck/internal/card"
	"github.com/abhisek/flashdeck/internal/router"
	"github.com/abhisek/flashdeck/internal/screen"
	"github.com/abhisek/flashdeck/internal/screens/history"
	"github.com/abhisek/flashdeck/internal/screens/study"
	"github.com/abhisek/flashdeck/internal/store"
	"github.com/abhisek/flashdeck/internal/ui/components"
	"github.com/abhisek/flashdeck/internal/ui/layout"
	"github.com/abhisek/flashdeck/internal/ui/theme"
)

// Client is the part of the flashcard API the home screen and the
// screens it opens use.
type Client interface {
	study.Client
	ListDecks(ctx context.Context) ([]card.Deck, error)
	DeckCardCounts(ctx context.Context, decks []card.Deck) (map[string]int, error)
}

type decksLoadedMsg struct {
	Decks  []card.Deck
	Counts map[string]int // nil when counting failed
	Err    error
}

// HomeScreen lists the decks. Choosing one starts a study session.
type HomeScreen struct {
	client    Client
	eventRepo store.EventRepo
	studyOpts study.Options
	logger    *slog.Logger

	menu    components.Menu
	decks   []card.Deck
	loaded  bool
	loadErr error
}

var _ screen.Screen = (*HomeScreen)(nil)
var _ screen.KeyHintProvider = (*HomeScreen)(nil)

// New creates a new HomeScreen. eventRepo may be nil, which hides
// history.
func New(client Client, eventRepo store.EventRepo, studyOpts study.Options) *HomeScreen {
	return &HomeScreen{
		client:    client,
		eventRepo: eventRepo,
		studyOpts: studyOpts,
		logger:    studyOpts.Logger,
	}
}

func (h *HomeScreen) Init() tea.Cmd {
	return h.loadDecks()
}

func (h *HomeScreen) Title() string {
	return "Decks"
}

func (h *HomeScreen) KeyHints() []layout.KeyHint {
	return []layout.KeyHint{
		{Key: "↑↓", Description: "Navigate"},
		{Key: "Enter", Description: "Study"},
		{Key: "R", Description: "Refresh"},
		{Key: "Ctrl+C", Description: "Quit"},
	}
}

func (h *HomeScreen) loadDecks() tea.Cmd {
	client, logger := h.client, h.logger
	return func() tea.Msg {
		ctx := context.Background()
		decks, err := client.ListDecks(ctx)
		if err != nil {
			return decksLoadedMsg{Err: err}
		}
		counts, err := client.DeckCardCounts(ctx, decks)
		if err != nil {
			// Counts are decoration; the list is still usable.
			if logger != nil {
				logger.Warn("deck card counts failed", "error", err)
			}
			counts = nil
		}
		return decksLoadedMsg{Decks: decks, Counts: counts}
	}
}

func (h *HomeScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case decksLoadedMsg:
		h.loaded = true
		h.loadErr = msg.Err
		h.decks = msg.Decks
		h.menu = components.NewMenu(h.menuItems(msg.Decks, msg.Counts))
		return h, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "r", "R":
			h.loaded = false
			return h, h.loadDecks()
		}
		var cmd tea.Cmd
		h.menu, cmd = h.menu.Update(msg)
		return h, cmd
	}
	return h, nil
}

func (h *HomeScreen) menuItems(decks []card.Deck, counts map[string]int) []components.MenuItem {
	items := make([]components.MenuItem, 0, len(decks)+1)
	for _, d := range decks {
		detail := "? cards"
		n, ok := counts[d.ID]
		if ok {
			detail = fmt.Sprintf("%d cards", n)
		}
		items = append(items, components.MenuItem{
			Label:  d.Name,
			Detail: detail,
			Action: func() tea.Cmd {
				s := study.New(h.client, h.eventRepo, d, h.studyOpts)
				return func() tea.Msg { return router.PushScreenMsg{Screen: s} }
			},
		})
	}
	items = append(items, components.MenuItem{
		Label:    "Study history",
		Disabled: h.eventRepo == nil,
		Action: func() tea.Cmd {
			s := history.New(h.eventRepo)
			return func() tea.Msg { return router.PushScreenMsg{Screen: s} }
		},
	})
	return items
}

func (h *HomeScreen) View(width, height int) string {
	var b strings.Builder
	b.WriteString("\n")
	b.WriteString(theme.Title.Width(width).Render("Pick a deck to study"))
	b.WriteString("\n\n")

	switch {
	case !h.loaded:
		b.WriteString(layout.Center(theme.Muted.Render("Loading decks..."), width))
		return b.String()
	case h.loadErr != nil:
		b.WriteString(layout.Center(theme.Incorrect.Render("Could not load decks: "+h.loadErr.Error()), width))
		b.WriteString("\n\n")
		b.WriteString(layout.Center(theme.Hint.Render("Press R to retry."), width))
		return b.String()
	case len(h.decks) == 0:
		b.WriteString(layout.Center(theme.Hint.Render("No decks yet. Create one with `flashdeck decks create`."), width))
		b.WriteString("\n\n")
	}

	cw := components.ContentWidth(width)
	menu := lipgloss.NewStyle().Width(cw).Render(h.menu.View(height - 6))
	b.WriteString(lipgloss.PlaceHorizontal(width, lipgloss.Center, menu))
	return b.String()
}
