package markup

import (
	"fmt"
	"strings"

	colorful "github.com/lucasb-eyer/go-colorful"
)

// Color is a canonical `#rrggbb` color value.
type Color string

// Well-known colors.
const (
	White Color = "#ffffff"
	Black Color = "#000000"

	// DefaultColor is used for untagged text and unknown tag names.
	DefaultColor = Black
)

// ColorMap maps lowercase tag names to colors.
type ColorMap map[string]Color

// Palette is the color map in effect for one parse, plus its fallback color.
type Palette struct {
	Colors  ColorMap `json:"colors"`
	Default Color    `json:"default"`
}

// DefaultPalette returns the caption tool's stock colors.
func DefaultPalette() Palette {
	return Palette{
		Colors: ColorMap{
			"red":    "#ff0000",
			"orange": "#ffa500",
			"yellow": "#ffff00",
			"green":  "#008000",
			"blue":   "#1e90ff",
			"purple": "#800080",
			"white":  White,
			"black":  Black,
		},
		Default: DefaultColor,
	}
}

// NewPalette validates caller-supplied colors and canonicalizes them.
// Names are lowercased; an empty def keeps DefaultColor.
func NewPalette(colors map[string]string, def string) (Palette, error) {
	p := Palette{Colors: make(ColorMap, len(colors)), Default: DefaultColor}
	if strings.TrimSpace(def) != "" {
		c, err := ParseColor(def)
		if err != nil {
			return Palette{}, fmt.Errorf("default color: %w", err)
		}
		p.Default = c
	}
	for name, value := range colors {
		c, err := ParseColor(value)
		if err != nil {
			return Palette{}, fmt.Errorf("color %q: %w", name, err)
		}
		p.Colors[strings.ToLower(strings.TrimSpace(name))] = c
	}
	return p, nil
}

// ParseColor accepts `#rgb` or `#rrggbb` and returns the canonical lowercase form.
func ParseColor(s string) (Color, error) {
	c, err := colorful.Hex(strings.TrimSpace(s))
	if err != nil {
		return "", fmt.Errorf("invalid color %q: %w", s, err)
	}
	return Color(c.Hex()), nil
}

// Lookup returns the color registered under name, or the default color.
func (p Palette) Lookup(name string) Color {
	if c, ok := p.Colors[strings.ToLower(name)]; ok {
		return c
	}
	return p.fallback()
}

// Dark returns the dark-mode variant of p: white and black trade places,
// in the entries and in the default. Other colors are unchanged.
func (p Palette) Dark() Palette {
	out := Palette{Colors: make(ColorMap, len(p.Colors)), Default: invert(p.fallback())}
	for name, c := range p.Colors {
		out.Colors[name] = invert(c)
	}
	return out
}

func (p Palette) fallback() Color {
	if p.Default == "" {
		return DefaultColor
	}
	return p.Default
}

func invert(c Color) Color {
	switch Color(strings.ToLower(string(c))) {
	case White, "#fff":
		return Black
	case Black, "#000":
		return White
	default:
		return c
	}
}
