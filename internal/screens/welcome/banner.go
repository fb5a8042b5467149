package welcome

import (
	"charm.land/lipgloss/v2"

	"github.com/abhisek/flashdeck/internal/ui/theme"
)

const bannerArt = `
 ███████╗██╗      █████╗ ███████╗██╗  ██╗██████╗ ███████╗ ██████╗██╗  ██╗
 ██╔════╝██║     ██╔══██╗██╔════╝██║  ██║██╔══██╗██╔════╝██╔════╝██║ ██╔╝
 █████╗  ██║     ███████║███████╗███████║██║  ██║█████╗  ██║     █████╔╝
 ██╔══╝  ██║     ██╔══██║╚════██║██╔══██║██║  ██║██╔══╝  ██║     ██╔═██╗
 ██║     ███████╗██║  ██║███████║██║  ██║██████╔╝███████╗╚██████╗██║  ██╗
 ╚═╝     ╚══════╝╚═╝  ╚═╝╚══════╝╚═╝  ╚═╝╚═════╝ ╚══════╝ ╚═════╝╚═╝  ╚═╝`

const bannerCompact = "F L A S H D E C K"

// bannerWidth is the widest line of bannerArt.
const bannerWidth = 74

// RenderBanner returns the banner in the primary color, or the compact
// form when width cannot fit the art.
func RenderBanner(width int) string {
	style := lipgloss.NewStyle().
		Foreground(theme.Primary).
		Bold(true)

	if width < bannerWidth {
		return style.Render(bannerCompact)
	}
	return style.Render(bannerArt)
}
