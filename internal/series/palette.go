package series

import (
	"errors"
	"fmt"

	"github.com/i474232898/forecast-dashboard/internal/forecast"
)

// ErrPaletteExhausted is returned when more fields than palette entries are
// colored. Fields past the end of the palette receive no color.
var ErrPaletteExhausted = errors.New("palette exhausted")

// Palette is an ordered list of color tokens.
type Palette []string

// DefaultPalette returns the ten stacked-chart colors.
func DefaultPalette() Palette {
	return Palette{
		"#80FFA5", "#00DDFF", "#37A2FF", "#FF0087", "#FFBF00",
		"#80FFA5", "#00DDFF", "#37A2FF", "#FF0087", "#FFBF00",
	}
}

// Color returns palette[i], or false past the end.
func (p Palette) Color(i int) (string, bool) {
	if i < 0 || i >= len(p) {
		return "", false
	}
	return p[i], true
}

// Assign pairs field[i] with palette[i]. It never wraps around: fields beyond
// the palette get "" and the call returns ErrPaletteExhausted naming them.
func (p Palette) Assign(fields []forecast.Field) ([]string, error) {
	colors := make([]string, len(fields))
	var overflow []forecast.Field
	for i, f := range fields {
		c, ok := p.Color(i)
		if !ok {
			overflow = append(overflow, f)
			continue
		}
		colors[i] = c
	}
	if len(overflow) > 0 {
		return colors, fmt.Errorf("%w: %d colors for %d fields, uncolored %v", ErrPaletteExhausted, len(p), len(fields), overflow)
	}
	return colors, nil
}
