package layout

// Font 描述一次排版使用的字体：家族名、数值字重（100–900）与像素字号。
type Font struct {
	Family string  `json:"family"`
	Weight int     `json:"weight"`
	Size   float64 `json:"size"`
}

// Measurer 返回文本在已绑定字体下的渲染宽度（像素）。
// 一个 Measurer 在整个生命周期内不可变：相同文本必须得到相同宽度。
type Measurer interface {
	TextWidth(text string) float64
}

// MeasureFunc 以显式字体参数测量文本宽度，不依赖任何全局“当前字体”。
type MeasureFunc func(text string, font Font) float64

// Bind 将 MeasureFunc 与字体绑定为 Measurer。
func Bind(fn MeasureFunc, font Font) Measurer {
	return boundMeasurer{fn: fn, font: font}
}

type boundMeasurer struct {
	fn   MeasureFunc
	font Font
}

func (b boundMeasurer) TextWidth(text string) float64 { return b.fn(text, b.font) }

// Typesetter 为每次排版构造一个新的 Measurer，调用方不得在排版过程中替换字体。
type Typesetter interface {
	Measurer(font Font) (Measurer, error)
}
