package layout

// Place 计算每行的几何位置：整行以 x 为中心水平居中，第 k 行顶部为 y + k × 行高。
// 片段宽度在此重新测量，片段从左到右首尾相接，不留空隙也不重叠。
func Place(res *Result, m Measurer, x, y float64) []PlacedLine {
	if res == nil {
		return nil
	}
	placed := make([]PlacedLine, 0, len(res.Lines))
	for k, line := range res.Lines {
		widths := make([]float64, len(line.Segments))
		total := 0.0
		for i, seg := range line.Segments {
			widths[i] = m.TextWidth(seg.Text)
			total += widths[i]
		}

		startX := x - total/2
		pl := PlacedLine{
			Top:      y + float64(k)*res.LineHeight,
			Left:     startX,
			Width:    total,
			Segments: make([]PlacedSegment, 0, len(line.Segments)),
		}
		for i, seg := range line.Segments {
			pl.Segments = append(pl.Segments, PlacedSegment{
				Text:   seg.Text,
				Color:  seg.Color,
				Left:   startX,
				Center: startX + widths[i]/2,
				Width:  widths[i],
			})
			startX += widths[i]
		}
		placed = append(placed, pl)
	}
	return placed
}
