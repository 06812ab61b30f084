package layout

import (
	"fmt"
	"strings"

	"github.com/ByLCY/telop/binding"
	"github.com/ByLCY/telop/dsl"
	"github.com/ByLCY/telop/markup"
)

// FromTemplate 将模板转换为渲染请求：从 DefaultRequest 出发逐段覆盖，
// 文本中的 ${path} 占位符以 data 插值。
func FromTemplate(t *dsl.Template, data any) (Request, error) {
	if t == nil {
		return Request{}, fmt.Errorf("模板为空")
	}
	req := DefaultRequest()
	for _, sec := range t.Sections {
		var err error
		switch {
		case sec.Canvas != nil:
			err = applyCanvas(&req, sec.Canvas)
		case sec.Palette != nil:
			err = applyPalette(&req, sec.Palette)
		case sec.Font != nil:
			err = applyFont(&req, sec.Font)
		case sec.Text != nil:
			err = applyText(&req, sec.Text, data)
		}
		if err != nil {
			return Request{}, fmt.Errorf("模板 %s 的 %s 段: %w", t.Name, sec.Kind(), err)
		}
	}
	return req, nil
}

func applyCanvas(req *Request, b *dsl.Block) error {
	st := &req.Styles
	for _, a := range b.Assignments {
		var err error
		switch a.Key {
		case "preview":
			err = numberPair(a, &st.Width, &st.Height)
		case "output":
			err = numberPair(a, &st.OutputWidth, &st.OutputHeight)
		case "slot":
			// 与 margin 一样是预览像素，默认 1080 输出下 500/680 写作 166.67 226.67。
			err = numberPair(a, &st.RedAreaTop, &st.RedAreaHeight)
		case "margin":
			var m float64
			if m, err = number(a); err == nil {
				st.Margin = Float(m)
			}
		case "background":
			req.Background = a.Value.Text()
		case "mode":
			switch mode := a.Value.Text(); mode {
			case "dark":
				req.DarkMode = true
			case "light":
				req.DarkMode = false
			default:
				err = fmt.Errorf("%s: 未知的 mode %q", a.Pos, mode)
			}
		default:
			err = fmt.Errorf("%s: 未知的 canvas 属性 %q", a.Pos, a.Key)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func applyPalette(req *Request, p *dsl.PaletteBlock) error {
	if req.ColorMap == nil {
		req.ColorMap = map[string]string{}
		for name, c := range markup.DefaultPalette().Colors {
			req.ColorMap[name] = string(c)
		}
	}
	for _, e := range p.Entries {
		if _, err := markup.ParseColor(e.Value); err != nil {
			return fmt.Errorf("%s: %w", e.Pos, err)
		}
		name := strings.ToLower(e.Name)
		if name == "default" {
			req.DefaultColor = e.Value
			continue
		}
		req.ColorMap[name] = e.Value
	}
	return nil
}

func applyFont(req *Request, b *dsl.Block) error {
	st := &req.Styles
	for _, a := range b.Assignments {
		var err error
		switch a.Key {
		case "family":
			st.FontFamily = a.Value.Text()
			req.SelectedFont = ""
		case "weight":
			var w float64
			w, err = number(a)
			st.FontWeight = int(w)
			req.FontWeight = 0
		case "size":
			st.FontSize, err = number(a)
		case "line-height":
			var spec LineHeightSpec
			spec, err = ParseLineHeight(a.Value.Text())
			if err == nil {
				st.LineHeight, st.LineHeightPx = spec.Factor, spec.Pixels
			}
		default:
			err = fmt.Errorf("%s: 未知的 font 属性 %q", a.Pos, a.Key)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func applyText(req *Request, tb *dsl.TextBlock, data any) error {
	lines := make([]string, 0, len(tb.Lines))
	for _, ln := range tb.Lines {
		lines = append(lines, binding.Interpolate(string(ln.Value), data))
	}
	text := strings.Join(lines, "\n")

	var offset *float64
	if tb.Anchor != nil {
		v, _, err := dsl.ParseNumber(tb.Anchor.Offset)
		if err != nil {
			return fmt.Errorf("%s: %w", tb.Pos, err)
		}
		offset = &v
	}

	switch tb.Kind {
	case BlockUpper:
		if tb.Anchor != nil && tb.Anchor.Edge != AlignTop {
			return fmt.Errorf("%s: upper 只能以 top 定位", tb.Pos)
		}
		if tb.Align != "" {
			return fmt.Errorf("%s: upper 不支持 align", tb.Pos)
		}
		req.UpperText = text
		if offset != nil {
			req.Styles.UpperTextTop = *offset
		}
	case BlockBottom:
		if tb.Anchor != nil && tb.Anchor.Edge != AlignBottom {
			return fmt.Errorf("%s: bottom 只能以 bottom 定位", tb.Pos)
		}
		req.BottomText = text
		req.BottomAlign = tb.Align
		if offset != nil {
			req.Styles.BottomTextBottom = *offset
		}
	}
	return nil
}

func number(a *dsl.Assignment) (float64, error) {
	if a.Value == nil || len(a.Value.Numbers) != 1 {
		return 0, fmt.Errorf("%s: %s 需要一个数值", a.Pos, a.Key)
	}
	v, _, err := dsl.ParseNumber(a.Value.Numbers[0])
	if err != nil {
		return 0, fmt.Errorf("%s: %w", a.Pos, err)
	}
	return v, nil
}

func numberPair(a *dsl.Assignment, first, second *float64) error {
	if a.Value == nil || len(a.Value.Numbers) != 2 {
		return fmt.Errorf("%s: %s 需要两个数值", a.Pos, a.Key)
	}
	vals := make([]float64, 2)
	for i, raw := range a.Value.Numbers {
		v, _, err := dsl.ParseNumber(raw)
		if err != nil {
			return fmt.Errorf("%s: %w", a.Pos, err)
		}
		vals[i] = v
	}
	*first, *second = vals[0], vals[1]
	return nil
}
