package components

import (
	"image/color"

	"charm.land/lipgloss/v2"

	"github.com/abhisek/flashdeck/internal/ui/theme"
)

// ContentWidth returns the inner width used for card panels so every
// section of a screen lines up.
func ContentWidth(frameWidth int) int {
	w := frameWidth - 6 // border and padding
	if w > 72 {
		w = 72
	}
	if w < 20 {
		w = 20
	}
	return w
}

// Panel wraps content in a rounded card of content width cw. A nil
// border color uses the theme border.
func Panel(content string, cw int, border color.Color) string {
	if border == nil {
		border = theme.Border
	}
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(border).
		Width(cw-2).
		Padding(1, 2).
		Render(content)
}
