package layout

import "errors"

// ErrInvalidInput 表示调用方传入了无意义的数值（非有限宽度、非正行高等）。
// 排版核心本身从不返回错误，校验只发生在 Compose 等调用方入口。
var ErrInvalidInput = errors.New("invalid layout input")
