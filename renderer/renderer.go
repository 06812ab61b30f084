package renderer

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ByLCY/telop/layout"
)

// Format 是输出文件格式。
type Format string

const (
	PNG  Format = "png"
	JPEG Format = "jpeg"
	PDF  Format = "pdf"
	SVG  Format = "svg"
)

// ErrUnsupportedFormat 表示渲染器无法输出请求的格式。
var ErrUnsupportedFormat = errors.New("unsupported output format")

// ErrUnsafePath 表示请求中的图片或字体路径是绝对路径，或跳出了资源目录。
var ErrUnsafePath = errors.New("unsafe resource path")

// ParseFormat 解析格式名，接受 "jpg" 等常见写法，大小写不敏感。空字符串视为 PNG。
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimPrefix(strings.TrimSpace(s), ".")) {
	case "", "png":
		return PNG, nil
	case "jpg", "jpeg":
		return JPEG, nil
	case "pdf":
		return PDF, nil
	case "svg":
		return SVG, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, s)
	}
}

// ContentType 返回 HTTP 响应使用的 MIME 类型。
func (f Format) ContentType() string {
	switch f {
	case JPEG:
		return "image/jpeg"
	case PDF:
		return "application/pdf"
	case SVG:
		return "image/svg+xml"
	default:
		return "image/png"
	}
}

// Ext 返回带点的文件扩展名。
func (f Format) Ext() string {
	if f == JPEG {
		return ".jpg"
	}
	if f == "" {
		return ".png"
	}
	return "." + string(f)
}

// Renderer 将排版结果输出为最终文件，例如透明 PNG 或 PDF。
// Render 返回生成的二进制数据以及可能的错误。
type Renderer interface {
	Render(c *layout.Composition, f Format) ([]byte, error)
}
