package battery

import (
	"fmt"
	"math"
	"regexp"

	"github.com/jkaberg/battery-state/internal/value"
	"github.com/lucasb-eyer/go-colorful"
)

// ColorInherit leaves the color to the surrounding theme.
const ColorInherit = "inherit"

// IconUnknown is shown for non-numeric or out-of-range levels.
const IconUnknown = "mdi:battery-unknown"

// DefaultThresholds color levels red up to 20, yellow up to 55 and green
// above that.
var DefaultThresholds = []ColorThreshold{
	{Value: 20, Color: "var(--label-badge-red)"},
	{Value: 55, Color: "var(--label-badge-yellow)"},
	{Value: 101, Color: "var(--label-badge-green)"},
}

var hexColorPattern = regexp.MustCompile(`^#[A-Fa-f0-9]{6}$`)

type rgb struct{ r, g, b uint8 }

// gradient is a list of evenly spaced color stops from 0 to 100 percent.
type gradient []rgb

func parseGradient(colors []string) (gradient, error) {
	if len(colors) < 2 {
		return nil, fmt.Errorf("value for 'color_gradient' should be an array with at least 2 colors")
	}
	g := make(gradient, 0, len(colors))
	for _, c := range colors {
		if !hexColorPattern.MatchString(c) {
			return nil, fmt.Errorf("color %q is not valid, expected an HTML hex color in #XXXXXX format", c)
		}
		col, err := colorful.Hex(c)
		if err != nil {
			return nil, fmt.Errorf("color %q: %w", c, err)
		}
		r, gr, b := col.RGB255()
		g = append(g, rgb{r, gr, b})
	}
	return g, nil
}

// At interpolates the gradient at level (0-100) and returns a CSS rgb()
// color. Channels are floored.
func (g gradient) At(level float64) string {
	pct := level / 100
	step := 1 / float64(len(g)-1)

	n := 1
	for n < len(g)-1 && !(pct < step*float64(n)) {
		n++
	}
	from, to := g[n-1], g[n]
	fromPct, toPct := step*float64(n-1), step*float64(n)
	ratio := (pct - fromPct) / (toPct - fromPct)

	mix := func(a, b uint8) int {
		return int(math.Floor(float64(a)*(1-ratio) + float64(b)*ratio))
	}
	return fmt.Sprintf("rgb(%d,%d,%d)", mix(from.r, to.r), mix(from.g, to.g), mix(from.b, to.b))
}

// inRange returns the numeric level when it lies within 0..100.
func inRange(level string) (float64, bool) {
	n, ok := value.ParseNumber(level)
	if !ok || n < 0 || n > 100 {
		return 0, false
	}
	return n, true
}

func (i *Item) color(level string, charging bool) string {
	if cs := i.cfg.ChargingState; charging && cs != nil && cs.Color != "" {
		return cs.Color
	}
	n, ok := inRange(level)
	if !ok {
		return ColorInherit
	}
	if i.gradient != nil {
		return i.gradient.At(n)
	}
	for _, t := range i.thresholds {
		if n <= t.Value {
			if t.Color == "" {
				return ColorInherit
			}
			return t.Color
		}
	}
	return ColorInherit
}

func (i *Item) icon(level string, charging bool) string {
	if cs := i.cfg.ChargingState; charging && cs != nil && cs.Icon != "" {
		return cs.Icon
	}
	n, ok := inRange(level)
	if !ok {
		return IconUnknown
	}
	switch tier := int(math.Floor(n/10)) * 10; tier {
	case 100:
		if charging {
			return "mdi:battery-charging-100"
		}
		return "mdi:battery"
	case 0:
		if charging {
			return "mdi:battery-charging-outline"
		}
		return "mdi:battery-outline"
	default:
		if charging {
			return fmt.Sprintf("mdi:battery-charging-%d", tier)
		}
		return fmt.Sprintf("mdi:battery-%d", tier)
	}
}
