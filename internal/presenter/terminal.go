package presenter

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/jkaberg/battery-state/internal/battery"
	"github.com/jkaberg/battery-state/internal/card"
	"github.com/lucasb-eyer/go-colorful"
)

// Home Assistant frontend defaults for the label badge variables.
var badgeColors = map[string]string{
	"var(--label-badge-red)":    "#df4c1e",
	"var(--label-badge-yellow)": "#f4b400",
	"var(--label-badge-green)":  "#0da035",
	"var(--label-badge-blue)":   "#039be5",
}

var namedColors = map[string]string{
	"red":    "#ff0000",
	"orange": "#ffa500",
	"yellow": "#ffff00",
	"green":  "#008000",
	"blue":   "#0000ff",
	"white":  "#ffffff",
	"gray":   "#808080",
	"grey":   "#808080",
}

// TerminalColor converts a card color (hex, rgb(), a label badge variable
// or a basic color name) to a terminal color. Inherit and unknown values
// report false.
func TerminalColor(c string) (lipgloss.TerminalColor, bool) {
	c = strings.ToLower(strings.TrimSpace(c))
	if hex, ok := badgeColors[c]; ok {
		c = hex
	} else if hex, ok := namedColors[c]; ok {
		c = hex
	}

	switch {
	case strings.HasPrefix(c, "#"):
		col, err := colorful.Hex(c)
		if err != nil {
			return lipgloss.NoColor{}, false
		}
		return lipgloss.Color(col.Hex()), true
	case strings.HasPrefix(c, "rgb("):
		var r, g, b int
		if _, err := fmt.Sscanf(c, "rgb(%d,%d,%d)", &r, &g, &b); err != nil {
			return lipgloss.NoColor{}, false
		}
		col := colorful.Color{R: float64(r) / 255, G: float64(g) / 255, B: float64(b) / 255}.Clamped()
		return lipgloss.Color(col.Hex()), true
	}
	return lipgloss.NoColor{}, false
}

// TerminalPresenter prints the card to a terminal whenever it changes.
type TerminalPresenter struct {
	out      io.Writer
	renderer *lipgloss.Renderer
	last     string
}

func NewTerminalPresenter(out io.Writer) *TerminalPresenter {
	return &TerminalPresenter{out: out, renderer: lipgloss.NewRenderer(out)}
}

func (p *TerminalPresenter) Present(f Frame) error {
	s := p.Render(f.View)
	if s == p.last {
		return nil
	}
	p.last = s
	_, err := fmt.Fprintln(p.out, s)
	return err
}

func (p *TerminalPresenter) IsConnected() bool { return true }

// Render lays out the view: title, ungrouped rows, then each group with
// its rows indented.
func (p *TerminalPresenter) Render(v card.View) string {
	dim := p.renderer.NewStyle().Faint(true)
	if v.Empty() {
		return dim.Render("No batteries")
	}

	width := 0
	measure := func(items []battery.View) {
		for _, it := range items {
			if w := lipgloss.Width(it.Name); w > width {
				width = w
			}
		}
	}
	measure(v.Items)
	for _, g := range v.Groups {
		measure(g.Items)
	}

	var lines []string
	if v.Title != "" {
		lines = append(lines, p.renderer.NewStyle().Bold(true).Render(v.Title))
	}
	for _, it := range v.Items {
		lines = append(lines, p.row(it, "", width))
	}
	for _, g := range v.Groups {
		header := p.renderer.NewStyle().Bold(true).Render("▸ " + g.Name)
		if g.SecondaryInfo != "" {
			header += " " + dim.Render(g.SecondaryInfo)
		}
		lines = append(lines, header)
		for _, it := range g.Items {
			lines = append(lines, p.row(it, "  ", width))
		}
	}
	return strings.Join(lines, "\n")
}

func (p *TerminalPresenter) row(it battery.View, indent string, width int) string {
	name := p.renderer.NewStyle().Width(width).Render(it.Name)

	levelStyle := p.renderer.NewStyle().Width(6).Align(lipgloss.Right)
	if col, ok := TerminalColor(it.Color); ok {
		levelStyle = levelStyle.Foreground(col)
	}
	level := levelStyle.Render(it.Level + it.Unit)

	parts := []string{indent + name, level}
	if it.Charging {
		parts = append(parts, "⚡")
	}
	if it.SecondaryInfo != "" {
		parts = append(parts, p.renderer.NewStyle().Faint(true).Render(it.SecondaryInfo))
	}
	return strings.Join(parts, "  ")
}
