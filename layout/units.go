package layout

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// This file defines the preview/output coordinate spaces and line-height specs.

// DefaultLineHeightFactor applies when a request leaves line-height unset.
const DefaultLineHeightFactor = 1.6

// Size is a width/height pair in pixels.
type Size struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

func (s Size) validate(name string) error {
	if !isFinite(s.Width) || !isFinite(s.Height) || s.Width <= 0 || s.Height <= 0 {
		return fmt.Errorf("%w: %s size must be finite and positive, got %gx%g", ErrInvalidInput, name, s.Width, s.Height)
	}
	return nil
}

// Scale converts preview-space pixels to output-space pixels.
// The axes are independent; non-uniform scaling is expected.
type Scale struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// NewScale derives per-axis factors from the preview and output sizes.
func NewScale(preview, output Size) (Scale, error) {
	if err := preview.validate("preview"); err != nil {
		return Scale{}, err
	}
	if err := output.validate("output"); err != nil {
		return Scale{}, err
	}
	return Scale{X: output.Width / preview.Width, Y: output.Height / preview.Height}, nil
}

// FromTop scales an offset measured from the top edge.
func (s Scale) FromTop(offset float64) float64 { return offset * s.Y }

// FromBottom converts an offset measured from the bottom edge into a y coordinate.
func (s Scale) FromBottom(outputHeight, offset float64) float64 {
	return outputHeight - offset*s.Y
}

// Horizontal scales a horizontal distance such as a margin.
func (s Scale) Horizontal(v float64) float64 { return v * s.X }

// FontSize scales a font pixel size; fonts follow the horizontal axis.
func (s Scale) FontSize(px float64) float64 { return px * s.X }

// LineHeightKind distinguishes a factor of the font size from an absolute pixel height.
type LineHeightKind int

const (
	LineHeightFactor LineHeightKind = iota
	LineHeightAbsolute
)

// LineHeightSpec preserves author intent: a factor of the font size (1.4x) or
// an absolute pixel value (40px) in the same space as the font size.
type LineHeightSpec struct {
	Kind   LineHeightKind `json:"kind"`
	Factor float64        `json:"factor,omitempty"`
	Pixels float64        `json:"pixels,omitempty"`
}

// Resolve computes the line height in the same space as fontSize.
func (s LineHeightSpec) Resolve(fontSize float64) float64 {
	switch s.Kind {
	case LineHeightAbsolute:
		return s.Pixels
	default:
		f := s.Factor
		if f == 0 {
			f = DefaultLineHeightFactor
		}
		return fontSize * f
	}
}

// String renders the spec in template syntax.
func (s LineHeightSpec) String() string {
	if s.Kind == LineHeightAbsolute {
		return strconv.FormatFloat(s.Pixels, 'g', -1, 64) + "px"
	}
	return strconv.FormatFloat(s.Factor, 'g', -1, 64) + "x"
}

// ParseLineHeight parses "1.4", "1.4x" (factor) or "40px" (absolute).
func ParseLineHeight(value string) (LineHeightSpec, error) {
	v := strings.ToLower(strings.TrimSpace(value))
	spec := LineHeightSpec{Kind: LineHeightFactor}
	num := v
	switch {
	case strings.HasSuffix(v, "px"):
		spec.Kind = LineHeightAbsolute
		num = strings.TrimSuffix(v, "px")
	case strings.HasSuffix(v, "x"):
		num = strings.TrimSuffix(v, "x")
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(num), 64)
	if err != nil || !isFinite(f) || f <= 0 {
		return LineHeightSpec{}, fmt.Errorf("%w: line-height %q", ErrInvalidInput, value)
	}
	if spec.Kind == LineHeightAbsolute {
		spec.Pixels = f
	} else {
		spec.Factor = f
	}
	return spec, nil
}

func isFinite(f float64) bool { return !math.IsNaN(f) && !math.IsInf(f, 0) }
