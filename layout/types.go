package layout

import "github.com/ByLCY/telop/markup"

// 该文件定义排版结果与合成描述，供排版、渲染与调试 JSON 共用。

// Line 是一行内按阅读顺序排列的片段。空行没有片段。
type Line struct {
	Segments []markup.Segment `json:"segments"`
}

// Width 重新测量整行宽度，不缓存任何先前的测量值。
func (l Line) Width(m Measurer) float64 {
	total := 0.0
	for _, seg := range l.Segments {
		total += m.TextWidth(seg.Text)
	}
	return total
}

// Result 保存折行后的行序列与总高度（行数 × 行高）。
type Result struct {
	Lines       []Line  `json:"lines"`
	LineHeight  float64 `json:"lineHeight"`
	TotalHeight float64 `json:"totalHeight"`
}

// PlacedSegment 是定位后的片段：Center 为片段水平中心，Left 为左边缘。
type PlacedSegment struct {
	Text   string       `json:"text"`
	Color  markup.Color `json:"color"`
	Left   float64      `json:"left"`
	Center float64      `json:"center"`
	Width  float64      `json:"width"`
}

// PlacedLine 是定位后的一行，Top 为行顶部坐标。
type PlacedLine struct {
	Top      float64         `json:"top"`
	Left     float64         `json:"left"`
	Width    float64         `json:"width"`
	Segments []PlacedSegment `json:"segments"`
}

// Rect 以输出坐标（像素）描述一个矩形区域。
type Rect struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Block 是一组已排好坐标的文本（upper 或 bottom）。
type Block struct {
	Name   string       `json:"name"`
	Top    float64      `json:"top"`
	Result *Result      `json:"result"`
	Lines  []PlacedLine `json:"lines"`
}

// Composition 是一次渲染请求的完整排版结果，坐标均为输出空间像素。
type Composition struct {
	Width      float64 `json:"width"`
	Height     float64 `json:"height"`
	MaxWidth   float64 `json:"maxWidth"`
	Font       Font    `json:"font"`
	Scale      Scale   `json:"scale"`
	Slot       Rect    `json:"slot"`
	Background string  `json:"background,omitempty"`
	Blocks     []Block `json:"blocks"`
}

// Overflow 记录超出画布或宽度预算的内容。Line 为 -1 表示整块纵向越界。
type Overflow struct {
	Block  string `json:"block"`
	Line   int    `json:"line"`
	Reason string `json:"reason"`
}

// Block 按名称查找文本块，不存在时返回 nil。
func (c *Composition) Block(name string) *Block {
	if c == nil {
		return nil
	}
	for i := range c.Blocks {
		if c.Blocks[i].Name == name {
			return &c.Blocks[i]
		}
	}
	return nil
}
