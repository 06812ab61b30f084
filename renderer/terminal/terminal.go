// Package terminal previews compositions as colored text in a terminal.
//
// Measurement counts terminal cells: a half-width character is half an em
// and a full-width (CJK) character a full em, which is close enough to real
// caption fonts for a quick look at where lines wrap.
package terminal

import (
	"fmt"
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/ByLCY/telop/layout"
)

const (
	defaultColumns = 40
	minColumns     = 10
)

// Typesetter measures text in terminal cells scaled to the font size.
type Typesetter struct{}

var _ layout.Typesetter = Typesetter{}

// Measurer implements layout.Typesetter.
func (Typesetter) Measurer(font layout.Font) (layout.Measurer, error) {
	if font.Size <= 0 || math.IsNaN(font.Size) || math.IsInf(font.Size, 0) {
		return nil, fmt.Errorf("字号无效: %g", font.Size)
	}
	return layout.Bind(cellWidth, font), nil
}

func cellWidth(text string, font layout.Font) float64 {
	return float64(runewidth.StringWidth(text)) * font.Size / 2
}

// Options controls the preview frame.
type Options struct {
	Columns  int  // 画布在终端中的宽度（字符格），默认 40
	ShowSlot bool // 用淡色圆点标出背景图区域
}

var (
	frameStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder())
	slotStyle  = lipgloss.NewStyle().Faint(true)
	warnStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#ffa500"))
)

// Preview draws c into a bordered grid. Terminal cells are about twice as
// tall as wide, so each row covers two columns' worth of canvas height.
func Preview(c *layout.Composition, opts Options) (string, error) {
	if c == nil {
		return "", fmt.Errorf("排版结果为空")
	}
	if c.Width <= 0 || c.Height <= 0 {
		return "", fmt.Errorf("画布尺寸无效: %gx%g", c.Width, c.Height)
	}
	cols := opts.Columns
	if cols == 0 {
		cols = defaultColumns
	}
	if cols < minColumns {
		return "", fmt.Errorf("预览宽度至少为 %d 列，实际为 %d", minColumns, cols)
	}

	scale := float64(cols) / c.Width
	rows := max(int(math.Round(c.Height*scale/2)), 1)
	toRow := func(y float64) int {
		return min(max(int(y*scale/2), 0), rows-1)
	}

	grid := make([]string, rows)
	if opts.ShowSlot && c.Slot.Height > 0 {
		dots := slotStyle.Render(strings.Repeat("·", cols))
		for r := toRow(c.Slot.Y); r <= toRow(c.Slot.Y+c.Slot.Height-1); r++ {
			grid[r] = dots
		}
	}

	for _, b := range c.Blocks {
		last := -1
		for _, line := range b.Lines {
			row := toRow(line.Top)
			if row <= last {
				row = last + 1
			}
			if row >= rows {
				break
			}
			last = row
			if len(line.Segments) == 0 {
				continue
			}
			grid[row] = renderLine(line, cols)
		}
	}

	for r := range grid {
		if grid[r] == "" {
			grid[r] = strings.Repeat(" ", cols)
		}
	}

	var sb strings.Builder
	sb.WriteString(frameStyle.Render(strings.Join(grid, "\n")))
	for _, o := range c.Overflow() {
		sb.WriteString("\n")
		if o.Line < 0 {
			sb.WriteString(warnStyle.Render(fmt.Sprintf("! %s: %s", o.Block, o.Reason)))
			continue
		}
		sb.WriteString(warnStyle.Render(fmt.Sprintf("! %s 第 %d 行: %s", o.Block, o.Line+1, o.Reason)))
	}
	return sb.String(), nil
}

// renderLine 将一行居中放入 cols 个字符格，超出部分截断。
func renderLine(line layout.PlacedLine, cols int) string {
	width := 0
	for _, seg := range line.Segments {
		width += runewidth.StringWidth(seg.Text)
	}
	pad := max((cols-width)/2, 0)

	var sb strings.Builder
	sb.WriteString(strings.Repeat(" ", pad))
	remain := cols - pad
	for _, seg := range line.Segments {
		if remain <= 0 {
			break
		}
		text := seg.Text
		if w := runewidth.StringWidth(text); w > remain {
			text = runewidth.Truncate(text, remain, "…")
		}
		remain -= runewidth.StringWidth(text)
		sb.WriteString(lipgloss.NewStyle().Foreground(lipgloss.Color(string(seg.Color))).Render(text))
	}
	sb.WriteString(strings.Repeat(" ", max(remain, 0)))
	return sb.String()
}
