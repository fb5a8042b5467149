package components

import (
	"fmt"
	"strings"

	"charm.land/lipgloss/v2"

	"github.com/abhisek/flashdeck/internal/ui/theme"
)

// optionLabels letter the options of a multiple-choice card.
var optionLabels = []string{"A", "B", "C", "D", "E", "F", "G", "H"}

// ChoiceList renders selectable options with a cursor. It holds no
// answer state; the caller passes what was chosen and what is correct.
type ChoiceList struct {
	Options []string
	Cursor  int
}

// NewChoiceList creates a list with the cursor on the first option.
func NewChoiceList(options []string) ChoiceList {
	return ChoiceList{Options: options}
}

// Move shifts the cursor by delta, clamped to the list.
func (c *ChoiceList) Move(delta int) {
	c.Cursor += delta
	if c.Cursor < 0 {
		c.Cursor = 0
	}
	if c.Cursor > len(c.Options)-1 {
		c.Cursor = len(c.Options) - 1
	}
}

// Current returns the option under the cursor.
func (c ChoiceList) Current() (string, bool) {
	if c.Cursor < 0 || c.Cursor >= len(c.Options) {
		return "", false
	}
	return c.Options[c.Cursor], true
}

// IndexForKey maps "1".."9" or a letter label to an option index.
func (c ChoiceList) IndexForKey(key string) (int, bool) {
	if len(key) != 1 {
		return 0, false
	}
	k := key[0]
	var i int
	switch {
	case k >= '1' && k <= '9':
		i = int(k - '1')
	case k >= 'a' && k <= 'h':
		i = int(k - 'a')
	default:
		return 0, false
	}
	return i, i < len(c.Options)
}

// View renders the options. Once checked, the correct option is green
// and a wrong chosen option red.
func (c ChoiceList) View(chosen *string, correct string, checked bool) string {
	var b strings.Builder
	for i, opt := range c.Options {
		label := fmt.Sprintf("%d", i+1)
		if i < len(optionLabels) {
			label = optionLabels[i]
		}
		prefix := "  "
		if i == c.Cursor && !checked {
			prefix = "▸ "
		}
		isChosen := chosen != nil && *chosen == opt
		line := fmt.Sprintf("%s%s)  %s", prefix, label, opt)

		var style lipgloss.Style
		switch {
		case checked && opt == correct:
			style = theme.Correct
			line += " ✓"
		case checked && isChosen:
			style = theme.Incorrect
		case checked:
			style = theme.Muted
		case isChosen, i == c.Cursor:
			style = theme.Selected
		default:
			style = theme.Unselected
		}
		b.WriteString(style.Render(line))
		b.WriteString("\n")
	}
	return b.String()
}
