package panel

import (
	"fmt"

	"github.com/gdamore/tcell/v2"
)

var (
	styleDefault  = tcell.StyleDefault
	styleTitle    = tcell.StyleDefault.Bold(true)
	styleSelected = tcell.StyleDefault.Reverse(true)
	styleNotice   = tcell.StyleDefault.Foreground(tcell.ColorYellow)
	styleHint     = tcell.StyleDefault.Dim(true)
)

// render redraws the full panel.
func (p *Panel) render() {
	if p.screen == nil {
		return
	}
	p.screen.Clear()
	width, height := p.screen.Size()

	p.drawText(0, 0, styleTitle, "Settings")

	labelWidth := 0
	for _, r := range p.rows {
		if len(r.desc.Label) > labelWidth {
			labelWidth = len(r.desc.Label)
		}
	}

	for i, r := range p.rows {
		y := i + 2
		if y >= height-2 {
			break
		}
		style := styleDefault
		marker := "  "
		if i == p.selected {
			style = styleSelected
			marker = "> "
		}

		display := r.display
		if p.editing && i == p.selected {
			display = p.editBuf + "_"
		}
		line := fmt.Sprintf("%s%-*s  %s", marker, labelWidth, r.desc.Label, display)
		p.drawText(0, y, style, line)
	}

	if p.notice != "" {
		p.drawText(0, height-2, styleNotice, p.notice)
	}
	hint := "arrows adjust  enter toggle/edit  p preset  r reset  q quit"
	if len(hint) > width {
		hint = hint[:width]
	}
	p.drawText(0, height-1, styleHint, hint)

	p.screen.Show()
}

// drawText writes a string at a position, clipped to the screen.
func (p *Panel) drawText(x, y int, style tcell.Style, text string) {
	width, height := p.screen.Size()
	if y < 0 || y >= height {
		return
	}
	for _, r := range text {
		if x >= width {
			return
		}
		p.screen.SetContent(x, y, r, nil, style)
		x++
	}
}
