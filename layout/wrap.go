package layout

import (
	"strings"

	"github.com/ByLCY/telop/markup"
)

// Wrap 使用贪心算法把片段分配到行内，宽度比较与累计均为像素。
//
// 片段从不被拆开：单个超宽片段独占一行并允许溢出。片段内的换行符
// 总是开启新行，连续换行会产生空行。Wrap 不会因为溢出而失败。
func Wrap(segments []markup.Segment, m Measurer, maxWidth, lineHeight float64) *Result {
	var (
		lines   []Line
		current []markup.Segment
		width   float64
	)

	flush := func() {
		lines = append(lines, Line{Segments: current})
		current = nil
		width = 0
	}

	place := func(seg markup.Segment) {
		w := m.TextWidth(seg.Text)
		if len(current) > 0 && width+w > maxWidth {
			flush()
		}
		current = append(current, seg)
		width += w
	}

	for _, seg := range segments {
		if !strings.Contains(seg.Text, "\n") {
			if seg.Text != "" {
				place(seg)
			}
			continue
		}

		parts := strings.Split(seg.Text, "\n")
		if parts[0] != "" {
			place(markup.Segment{Text: parts[0], Color: seg.Color})
		}
		for _, part := range parts[1:] {
			flush()
			if part != "" {
				current = []markup.Segment{{Text: part, Color: seg.Color}}
				width = m.TextWidth(part)
			}
		}
	}
	if len(current) > 0 {
		flush()
	}

	return &Result{
		Lines:       lines,
		LineHeight:  lineHeight,
		TotalHeight: float64(len(lines)) * lineHeight,
	}
}
