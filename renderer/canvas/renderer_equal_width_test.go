package canvasrenderer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ByLCY/telop/layout"
	"github.com/ByLCY/telop/markup"
)

// 当第一行宽度与可用宽度恰好相等且后面紧跟一个显式换行时，不应产生额外的空行。
func TestNoBlankLineWhenEqualWidthThenNewline(t *testing.T) {
	r := NewRenderer("")
	m, err := r.Measurer(body)
	require.NoError(t, err)

	first := "SAMPLE-A"
	limit := m.TextWidth(first)
	require.Greater(t, limit, 0.0)

	res := layout.Wrap([]markup.Segment{{Text: first + "\nSAMPLE-B", Color: markup.Black}}, m, limit, 10)
	require.Len(t, res.Lines, 2)
	assert.Equal(t, first, res.Lines[0].Segments[0].Text)
	assert.Equal(t, "SAMPLE-B", res.Lines[1].Segments[0].Text)
}

// 恰好填满可用宽度的行不换行，多出的下一个片段才会换到新行。
func TestSegmentFillingWidthExactlyStaysOnLine(t *testing.T) {
	r := NewRenderer("")
	m, err := r.Measurer(body)
	require.NoError(t, err)

	a, b := markup.Segment{Text: "Tele", Color: markup.Black}, markup.Segment{Text: "caption", Color: "#ff0000"}
	limit := m.TextWidth(a.Text) + m.TextWidth(b.Text)

	res := layout.Wrap([]markup.Segment{a, b}, m, limit, 10)
	require.Len(t, res.Lines, 1)

	res = layout.Wrap([]markup.Segment{a, b, {Text: "!", Color: markup.Black}}, m, limit, 10)
	require.Len(t, res.Lines, 2)
	assert.Equal(t, "!", res.Lines[1].Segments[0].Text)
}
