package layout

import (
	"fmt"
	"strings"

	"github.com/ByLCY/telop/markup"
)

// 块名称。
const (
	BlockUpper  = "upper"
	BlockBottom = "bottom"
)

// 底部文本块的对齐方式：top 表示锚点为块顶部（默认），bottom 表示块底部贴齐锚点。
const (
	AlignTop    = "top"
	AlignBottom = "bottom"
)

const (
	defaultFamily = "sans-serif"
	defaultWeight = 400
	defaultMargin = 40.0
	// 预览区以 1080 宽的设计稿缩放到 360 宽。
	designScale = 360.0 / 1080.0
)

// Request 对应一次渲染请求，字段名与前端提交的 JSON 保持一致。
type Request struct {
	UpperText    string            `json:"upperText"`
	BottomText   string            `json:"bottomText"`
	Timestamp    string            `json:"timestamp,omitempty"`
	ColorMap     map[string]string `json:"colorMap,omitempty"`
	DefaultColor string            `json:"defaultColor,omitempty"`
	SelectedFont string            `json:"selectedFont,omitempty"`
	FontWeight   int               `json:"fontWeight,omitempty"`
	DarkMode     bool              `json:"darkMode,omitempty"`
	BottomAlign  string            `json:"bottomAlign,omitempty"`
	Background   string            `json:"background,omitempty"`
	Styles       Styles            `json:"styles"`
}

// Styles 中的长度均为预览空间像素，OutputWidth/OutputHeight 为输出尺寸。
type Styles struct {
	Width            float64  `json:"width"`
	Height           float64  `json:"height"`
	OutputWidth      float64  `json:"outputWidth"`
	OutputHeight     float64  `json:"outputHeight"`
	UpperTextTop     float64  `json:"upperTextTop"`
	BottomTextBottom float64  `json:"bottomTextBottom"`
	FontSize         float64  `json:"fontSize"`
	FontFamily       string   `json:"fontFamily,omitempty"`
	FontWeight       int      `json:"fontWeight,omitempty"`
	LineHeight       float64  `json:"lineHeight,omitempty"`   // 行高倍数，未设置时为 1.6
	LineHeightPx     float64  `json:"lineHeightPx,omitempty"` // 绝对行高（预览像素），优先于倍数
	Margin           *float64 `json:"margin,omitempty"`       // 左右合计的水平留白，未设置时为 40
	RedAreaTop       float64  `json:"redAreaTop,omitempty"`
	RedAreaHeight    float64  `json:"redAreaHeight,omitempty"`
}

// DefaultRequest 返回与编辑器初始状态一致的请求。
func DefaultRequest() Request {
	return Request{
		Styles: Styles{
			Width:            360,
			Height:           640,
			OutputWidth:      1080,
			OutputHeight:     1920,
			UpperTextTop:     60,
			BottomTextBottom: 220,
			FontSize:         24 * designScale * 3.3,
			FontFamily:       defaultFamily,
			FontWeight:       defaultWeight,
			LineHeight:       1.4,
			Margin:           Float(defaultMargin),
			RedAreaTop:       500 * designScale,
			RedAreaHeight:    680 * designScale,
		},
	}
}

// Palette 返回本次请求使用的调色板；请求未提供 colorMap 时使用内置颜色。
func (r Request) Palette() (markup.Palette, error) {
	var (
		p   markup.Palette
		err error
	)
	if len(r.ColorMap) > 0 {
		p, err = markup.NewPalette(r.ColorMap, r.DefaultColor)
	} else {
		p = markup.DefaultPalette()
		if r.DefaultColor != "" {
			p.Default, err = markup.ParseColor(r.DefaultColor)
		}
	}
	if err != nil {
		return markup.Palette{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	if r.DarkMode {
		p = p.Dark()
	}
	return p, nil
}

// FontFamily 依次取 selectedFont、styles.fontFamily，最后回退到 sans-serif。
func (r Request) FontFamily() string {
	for _, f := range []string{r.SelectedFont, r.Styles.FontFamily} {
		if f = strings.TrimSpace(f); f != "" {
			return f
		}
	}
	return defaultFamily
}

// Weight 依次取 fontWeight、styles.fontWeight，最后回退到 400。
func (r Request) Weight() int {
	switch {
	case r.FontWeight != 0:
		return r.FontWeight
	case r.Styles.FontWeight != 0:
		return r.Styles.FontWeight
	default:
		return defaultWeight
	}
}

// LineHeightSpec 返回样式中的行高描述。
func (s Styles) LineHeightSpec() LineHeightSpec {
	if s.LineHeightPx > 0 {
		return LineHeightSpec{Kind: LineHeightAbsolute, Pixels: s.LineHeightPx}
	}
	return LineHeightSpec{Kind: LineHeightFactor, Factor: s.LineHeight}
}

// Float 返回 v 的指针，用于设置 Styles.Margin 这类可选字段。
func Float(v float64) *float64 { return &v }

// withDefaults 只填充零值字段，负数等非法值留给 validate 报错。
func (r Request) withDefaults() Request {
	def := DefaultRequest().Styles
	st := &r.Styles
	fill := func(v *float64, d float64) {
		if *v == 0 {
			*v = d
		}
	}
	fill(&st.Width, def.Width)
	fill(&st.Height, def.Height)
	fill(&st.OutputWidth, def.OutputWidth)
	fill(&st.OutputHeight, def.OutputHeight)
	fill(&st.FontSize, def.FontSize)
	if st.Margin == nil {
		st.Margin = Float(defaultMargin)
	}
	return r
}

func (r Request) validate() error {
	st := r.Styles
	checks := []struct {
		name  string
		value float64
	}{
		{"styles.upperTextTop", st.UpperTextTop},
		{"styles.bottomTextBottom", st.BottomTextBottom},
		{"styles.lineHeight", st.LineHeight},
		{"styles.lineHeightPx", st.LineHeightPx},
		{"styles.margin", *st.Margin},
		{"styles.redAreaTop", st.RedAreaTop},
		{"styles.redAreaHeight", st.RedAreaHeight},
	}
	for _, c := range checks {
		if !isFinite(c.value) || c.value < 0 {
			return fmt.Errorf("%w: %s 必须为有限的非负数，实际为 %g", ErrInvalidInput, c.name, c.value)
		}
	}
	if !isFinite(st.FontSize) || st.FontSize <= 0 {
		return fmt.Errorf("%w: styles.fontSize 必须为正数，实际为 %g", ErrInvalidInput, st.FontSize)
	}
	if w := r.Weight(); w < 100 || w > 900 {
		return fmt.Errorf("%w: 字重必须在 100..900 之间，实际为 %d", ErrInvalidInput, w)
	}
	switch strings.ToLower(r.BottomAlign) {
	case "", AlignTop, AlignBottom:
	default:
		return fmt.Errorf("%w: 未知的 bottomAlign %q", ErrInvalidInput, r.BottomAlign)
	}
	return nil
}

// Compose 解析上下两段标记文本，按输出空间完成折行与定位。
// 非法的数值输入会立即返回 ErrInvalidInput；内容溢出不是错误，可通过 Overflow 查看。
func Compose(req Request, ts Typesetter) (*Composition, error) {
	if ts == nil {
		return nil, fmt.Errorf("缺少排版后端 Typesetter")
	}
	req = req.withDefaults()
	if err := req.validate(); err != nil {
		return nil, err
	}
	st := req.Styles

	scale, err := NewScale(Size{st.Width, st.Height}, Size{st.OutputWidth, st.OutputHeight})
	if err != nil {
		return nil, err
	}
	palette, err := req.Palette()
	if err != nil {
		return nil, err
	}

	font := Font{Family: req.FontFamily(), Weight: req.Weight(), Size: scale.FontSize(st.FontSize)}
	lineHeight := scale.FontSize(st.LineHeightSpec().Resolve(st.FontSize))
	maxWidth := st.OutputWidth - scale.Horizontal(*st.Margin)
	if !isFinite(maxWidth) || maxWidth <= 0 {
		return nil, fmt.Errorf("%w: 可用宽度必须为正数，实际为 %g", ErrInvalidInput, maxWidth)
	}
	if !isFinite(lineHeight) || lineHeight <= 0 {
		return nil, fmt.Errorf("%w: 行高必须为正数，实际为 %g", ErrInvalidInput, lineHeight)
	}

	m, err := ts.Measurer(font)
	if err != nil {
		return nil, fmt.Errorf("创建字体 %s(%d) 失败: %w", font.Family, font.Weight, err)
	}

	anchorX := st.OutputWidth / 2

	upper := Wrap(markup.Parse(req.UpperText, palette), m, maxWidth, lineHeight)
	upperY := scale.FromTop(st.UpperTextTop)

	bottom := Wrap(markup.Parse(req.BottomText, palette), m, maxWidth, lineHeight)
	bottomY := scale.FromBottom(st.OutputHeight, st.BottomTextBottom)
	if strings.ToLower(req.BottomAlign) == AlignBottom {
		bottomY -= bottom.TotalHeight
	}

	return &Composition{
		Width:    st.OutputWidth,
		Height:   st.OutputHeight,
		MaxWidth: maxWidth,
		Font:     font,
		Scale:    scale,
		Slot: Rect{
			X:      0,
			Y:      scale.FromTop(st.RedAreaTop),
			Width:  st.OutputWidth,
			Height: st.RedAreaHeight * scale.Y,
		},
		Background: req.Background,
		Blocks: []Block{
			{Name: BlockUpper, Top: upperY, Result: upper, Lines: Place(upper, m, anchorX, upperY)},
			{Name: BlockBottom, Top: bottomY, Result: bottom, Lines: Place(bottom, m, anchorX, bottomY)},
		},
	}, nil
}

// Overflow 列出越过画布上下边界的块以及超出宽度预算的行。
func (c *Composition) Overflow() []Overflow {
	if c == nil {
		return nil
	}
	var out []Overflow
	for _, b := range c.Blocks {
		if b.Result == nil || len(b.Result.Lines) == 0 {
			continue
		}
		end := b.Top + b.Result.TotalHeight
		if b.Top < 0 || end > c.Height {
			out = append(out, Overflow{
				Block:  b.Name,
				Line:   -1,
				Reason: fmt.Sprintf("块范围 %.1f..%.1f 超出画布高度 %.1f", b.Top, end, c.Height),
			})
		}
		for i, ln := range b.Lines {
			if ln.Width > c.MaxWidth {
				out = append(out, Overflow{
					Block:  b.Name,
					Line:   i,
					Reason: fmt.Sprintf("行宽 %.1f 超出可用宽度 %.1f", ln.Width, c.MaxWidth),
				})
			}
		}
	}
	return out
}
