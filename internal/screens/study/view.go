package study

import (
	"fmt"
	"image/color"
	"strings"

	"charm.land/lipgloss/v2"

	"github.com/abhisek/flashdeck/internal/card"
	sess "github.com/abhisek/flashdeck/internal/session"
	"github.com/abhisek/flashdeck/internal/ui/components"
	"github.com/abhisek/flashdeck/internal/ui/layout"
	"github.com/abhisek/flashdeck/internal/ui/theme"
)

// ratingButtons are the difficulty scores offered once a card is checked.
var ratingButtons = []components.Button{
	{Key: "1", Label: "Easy ★", Active: true},
	{Key: "2", Label: "Medium ★★", Active: true},
	{Key: "3", Label: "Hard ★★★", Active: true},
}

func (s *StudyScreen) View(width, height int) string {
	switch {
	case s.loadErr != nil:
		return renderMessage(width, theme.Incorrect,
			"Could not load cards: "+s.loadErr.Error(),
			"Press R to retry or Esc to go back.")
	case s.state == nil:
		return renderMessage(width, theme.Muted, "Loading cards...")
	}

	switch s.state.Status {
	case sess.StatusEmpty:
		return renderMessage(width, theme.Body, "No cards in this deck", "Press Enter to go back.")
	case sess.StatusConfirmRestart:
		return renderRestartConfirm(width)
	}
	return s.renderCard(width, height)
}

func (s *StudyScreen) renderCard(width, height int) string {
	c, _ := s.state.CurrentCard()
	cw := components.ContentWidth(width)
	center := func(str string) string {
		return lipgloss.PlaceHorizontal(width, lipgloss.Center, str)
	}

	var b strings.Builder
	b.WriteString("\n")
	progress := components.NewProgressBar(
		fmt.Sprintf("%d/%d", s.state.Index+1, len(s.state.Cards)),
		float64(s.state.Index+1)/float64(len(s.state.Cards)), false, cw)
	b.WriteString(center(progress.View()))
	b.WriteString("\n")
	b.WriteString(center(theme.Muted.Render(c.Type.DisplayName())))
	b.WriteString("\n")

	if problem := s.state.CardProblem(); problem != "" {
		b.WriteString(center(components.Panel(theme.Body.Render(c.Question), cw, theme.Error)))
		b.WriteString("\n")
		b.WriteString(center(theme.Incorrect.Render("This card cannot be shown: " + problem)))
		b.WriteString("\n")
		b.WriteString(center(theme.Hint.Render("Press Tab to skip it.")))
		return b.String()
	}

	fb := s.state.Feedback()
	var border color.Color
	if fb != nil && s.state.Mode().Graded() {
		border = theme.Success
		if !fb.Correct {
			border = theme.Error
		}
	}

	question := theme.Body.Bold(true).Render(c.Question)
	if s.state.Mode() == card.ModeFillInBlank {
		question = renderBlanks(c.Question)
	}
	b.WriteString(center(components.Panel(question, cw, border)))
	b.WriteString("\n\n")

	checked := s.state.IsAnswerChecked()
	switch s.state.Mode() {
	case card.ModeBasic:
		if !checked {
			b.WriteString(components.ButtonRow(width, components.Button{Key: "Space", Label: "Show answer", Active: true}))
			b.WriteString("\n")
		}
	case card.ModeMultipleChoice, card.ModeTrueFalse:
		b.WriteString(center(s.choices.View(s.state.SelectedAnswer(), c.Answer.CorrectText(), checked)))
		b.WriteString("\n")
	case card.ModeFillInBlank:
		b.WriteString(center("Answer: " + s.input.View()))
		b.WriteString("\n\n")
	}

	if fb != nil && fb.Message != "" {
		style := theme.Correct
		if !fb.Correct {
			style = theme.Incorrect
		}
		b.WriteString(center(style.Render(fb.Message)))
		b.WriteString("\n\n")
	}

	if checked {
		b.WriteString(s.renderAnswer(c, width, cw, layout.IsCompactHeight(height)))
		b.WriteString(s.renderRating(width))
	}

	if s.notice != "" {
		b.WriteString("\n")
		b.WriteString(center(theme.Hint.Render(s.notice)))
	}
	return b.String()
}

// renderAnswer shows the answer details of a checked card: the answer
// text for self-rated cards, the learner's response for typed cards, the
// explanation and any cited sources.
func (s *StudyScreen) renderAnswer(c card.Flashcard, width, cw int, compact bool) string {
	var b strings.Builder
	block := lipgloss.NewStyle().Width(cw)
	sources := c.Answer.Citations()
	var footnotes []card.Source

	switch s.state.Mode() {
	case card.ModeBasic:
		a := card.Annotate(c.Answer.CorrectText(), sources)
		footnotes = append(footnotes, a.Footnotes...)
		b.WriteString(lipgloss.PlaceHorizontal(width, lipgloss.Center,
			components.Panel(theme.Body.Render(a.Body), cw, theme.Secondary)))
		b.WriteString("\n")
	case card.ModeFillInBlank:
		if sel := s.state.SelectedAnswer(); sel != nil {
			b.WriteString(layout.Center(theme.Selected.Render("Your answer: "+*sel), width))
			b.WriteString("\n")
		}
		b.WriteString(layout.Center(theme.Correct.Render("Correct answer: "+c.Answer.CorrectText()), width))
		b.WriteString("\n")
	}

	if exp := c.Answer.Explain(); exp != "" {
		a := card.Annotate(exp, sources)
		footnotes = appendNew(footnotes, a.Footnotes)
		if !compact {
			b.WriteString("\n")
		}
		b.WriteString(lipgloss.PlaceHorizontal(width, lipgloss.Center,
			block.Render(theme.Muted.Render("Explanation:")+"\n"+theme.Body.Render(a.Body))))
		b.WriteString("\n")
	}

	if len(footnotes) > 0 {
		lines := make([]string, 0, len(footnotes))
		for _, f := range footnotes {
			line := theme.Muted.Render(fmt.Sprintf("[%d] ", f.Number)) + theme.Body.Render(f.Title)
			if f.URL != "" {
				line += "  " + theme.Link.Render(f.URL)
			}
			lines = append(lines, line)
		}
		b.WriteString(lipgloss.PlaceHorizontal(width, lipgloss.Center,
			block.Render(theme.Muted.Render("Sources:")+"\n"+strings.Join(lines, "\n"))))
		b.WriteString("\n")
	}
	return b.String()
}

func (s *StudyScreen) renderRating(width int) string {
	var b strings.Builder
	b.WriteString("\n")

	if s.state.CanRetry() {
		b.WriteString(layout.Center(theme.Hint.Render("Press R to try again, or rate the card."), width))
		b.WriteString("\n")
	}

	switch {
	case s.state.Status == sess.StatusSubmitting:
		b.WriteString(layout.Center(theme.Muted.Render("Saving rating..."), width))
	default:
		b.WriteString(layout.Center(theme.Muted.Render("Rate this card's difficulty:"), width))
		b.WriteString("\n")
		b.WriteString(components.ButtonRow(width, ratingButtons...))
		if err := s.state.Err(); err != nil {
			b.WriteString("\n")
			b.WriteString(layout.Center(theme.Incorrect.Render("Could not save rating: "+err.Error()), width))
			b.WriteString("\n")
			b.WriteString(layout.Center(theme.Hint.Render("Press 1-3 to try again, any other key to dismiss."), width))
		}
	}
	b.WriteString("\n")
	return b.String()
}

// renderBlanks highlights every blank marker in a fill-in-the-blank
// question.
func renderBlanks(question string) string {
	parts := card.SplitBlanks(question)
	blank := lipgloss.NewStyle().Foreground(theme.Accent).Bold(true).Render(card.BlankMarker)
	for i, p := range parts {
		parts[i] = theme.Body.Bold(true).Render(p)
	}
	return strings.Join(parts, blank)
}

func renderRestartConfirm(width int) string {
	body := theme.Body.Bold(true).Render("You have reached the end of the deck.") + "\n" +
		theme.Muted.Render("Would you like to review these cards again?") + "\n\n" +
		theme.Correct.Render("[Y] Study again") + "    " +
		theme.Selected.Render("[N] Finish")
	return "\n\n\n" + lipgloss.PlaceHorizontal(width, lipgloss.Center, theme.Dialog.Render(body))
}

func renderMessage(width int, style lipgloss.Style, lines ...string) string {
	var b strings.Builder
	b.WriteString("\n\n\n")
	for i, l := range lines {
		if i > 0 {
			style = theme.Hint
			b.WriteString("\n\n")
		}
		b.WriteString(layout.Center(style.Render(l), width))
	}
	return b.String()
}

// appendNew appends the sources of more not already in dst.
func appendNew(dst, more []card.Source) []card.Source {
	for _, m := range more {
		dup := false
		for _, d := range dst {
			if d.Number == m.Number {
				dup = true
				break
			}
		}
		if !dup {
			dst = append(dst, m)
		}
	}
	return dst
}
