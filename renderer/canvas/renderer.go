package canvasrenderer

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/tdewolff/canvas"
	"github.com/tdewolff/canvas/renderers"
	"github.com/tdewolff/canvas/renderers/pdf"
	_ "golang.org/x/image/webp"

	"github.com/ByLCY/telop/fonts"
	"github.com/ByLCY/telop/layout"
	"github.com/ByLCY/telop/renderer"
)

// 画布的长度单位是毫米，这里把 1 个输出像素当作 1 个画布单位，
// 字号需要从像素换算成 pt 才能创建字体面。
const pxToPt = 72.0 / 25.4

// Renderer draws compositions via github.com/tdewolff/canvas and doubles as
// the layout Typesetter, so measuring and painting share the same font faces.
type Renderer struct {
	baseDir    string
	resolution float64

	// injected resources
	fontBlobs  map[string][]byte // by lowercase family, optionally "family:weight"
	imageBlobs map[string][]byte // by unique name

	fontMu         sync.Mutex
	fontFamilies   map[string]*fontFamilyEntry
	fallbackFamily *canvas.FontFamily
}

var (
	_ renderer.Renderer = (*Renderer)(nil)
	_ layout.Typesetter = (*Renderer)(nil)
)

type fontFamilyEntry struct {
	family *canvas.FontFamily
	style  canvas.FontStyle
}

// Options configures the canvas renderer.
type Options struct {
	BaseDir string
	// Fonts 覆盖或扩展内置字体，键为家族名，可写成 "family:700" 仅覆盖某个字重。
	Fonts map[string]Resource
	// Images 可在背景中以 built-in:<name> 引用。
	Images map[string]Resource
	// Resolution 是每个排版像素对应的栅格像素数，默认 1。
	Resolution float64
}

// Resource can be provided either by Bytes or by Path.
type Resource struct {
	Bytes []byte `yaml:"-"`
	Path  string `yaml:"path"`
}

// NewRenderer creates a renderer rooted at baseDir for resolving assets.
func NewRenderer(baseDir string) *Renderer {
	r, _ := NewRendererWithOptions(Options{BaseDir: baseDir})
	return r
}

// NewRendererWithOptions creates a renderer with injected resources.
// Resource paths are resolved against BaseDir and read eagerly.
func NewRendererWithOptions(opts Options) (*Renderer, error) {
	r := &Renderer{
		baseDir:      opts.BaseDir,
		resolution:   opts.Resolution,
		fontBlobs:    map[string][]byte{},
		imageBlobs:   map[string][]byte{},
		fontFamilies: map[string]*fontFamilyEntry{},
	}
	if r.resolution <= 0 || math.IsNaN(r.resolution) || math.IsInf(r.resolution, 0) {
		r.resolution = 1
	}
	for name, res := range opts.Fonts {
		if name == "" {
			continue
		}
		data, err := r.readResource(res)
		if err != nil {
			return nil, fmt.Errorf("读取字体 %s 失败: %w", name, err)
		}
		r.fontBlobs[strings.ToLower(strings.TrimSpace(name))] = data
	}
	for name, res := range opts.Images {
		if name == "" {
			continue
		}
		data, err := r.readResource(res)
		if err != nil {
			return nil, fmt.Errorf("读取图片 %s 失败: %w", name, err)
		}
		r.imageBlobs[name] = data
	}
	return r, nil
}

func (r *Renderer) readResource(res Resource) ([]byte, error) {
	if len(res.Bytes) > 0 {
		return res.Bytes, nil
	}
	if res.Path == "" {
		return nil, fmt.Errorf("资源缺少 bytes 或 path")
	}
	return os.ReadFile(r.resolvePath(res.Path))
}

// localPath 解析请求中引用的文件：只接受资源目录内的相对路径。
// 配置注入的资源走 resolvePath，不受此限制。
func (r *Renderer) localPath(kind, path string) (string, error) {
	if r.baseDir == "" {
		return "", fmt.Errorf("未指定资源目录时不允许直接使用%s路径：%s（请改用 built-in: 或配置注入）", kind, path)
	}
	if filepath.IsAbs(path) || !filepath.IsLocal(path) {
		return "", fmt.Errorf("%w: %s路径 %q 必须位于资源目录内", renderer.ErrUnsafePath, kind, path)
	}
	return filepath.Join(r.baseDir, path), nil
}

func (r *Renderer) resolvePath(path string) string {
	if filepath.IsAbs(path) || r.baseDir == "" {
		return path
	}
	return filepath.Join(r.baseDir, path)
}

// Measurer 实现 layout.Typesetter：返回绑定到 font 的文本宽度测量器（像素）。
func (r *Renderer) Measurer(font layout.Font) (layout.Measurer, error) {
	face, err := r.fontFace(font, canvas.Black)
	if err != nil {
		return nil, err
	}
	return faceMeasurer{face: face}, nil
}

type faceMeasurer struct {
	face *canvas.FontFace
}

func (m faceMeasurer) TextWidth(text string) float64 {
	if text == "" {
		return 0
	}
	return m.face.TextWidth(text)
}

// Render 将排版结果绘制到透明画布并按 f 编码。
func (r *Renderer) Render(c *layout.Composition, f renderer.Format) ([]byte, error) {
	if c == nil {
		return nil, fmt.Errorf("排版结果为空")
	}
	switch f {
	case renderer.PNG, renderer.JPEG, renderer.PDF, renderer.SVG:
	default:
		return nil, fmt.Errorf("%w: %q", renderer.ErrUnsupportedFormat, f)
	}
	if c.Width <= 0 || c.Height <= 0 {
		return nil, fmt.Errorf("画布尺寸无效: %gx%g", c.Width, c.Height)
	}

	cv := canvas.New(c.Width, c.Height)
	ctx := canvas.NewContext(cv)
	ctx.SetCoordSystem(canvas.CartesianIV) // 使坐标与排版保持左上角为原点

	// JPEG 没有透明通道，先铺白底。
	if f == renderer.JPEG {
		ctx.SetFillColor(canvas.White)
		ctx.DrawPath(0, 0, canvas.Rectangle(c.Width, c.Height))
	}
	if c.Background != "" {
		if err := r.drawBackground(ctx, c.Background, c.Slot, c.Width, c.Height); err != nil {
			return nil, err
		}
	}
	for _, b := range c.Blocks {
		if err := r.drawBlock(ctx, c.Font, b); err != nil {
			return nil, err
		}
	}
	return r.encode(cv, c.Width, c.Height, f)
}

func (r *Renderer) encode(cv *canvas.Canvas, width, height float64, f renderer.Format) ([]byte, error) {
	var (
		buf bytes.Buffer
		err error
	)
	switch f {
	case renderer.PDF:
		writer := pdf.New(&buf, width, height, nil)
		writer.SetInfo("caption", "", "", "", "telop")
		cv.RenderTo(writer)
		err = writer.Close()
	case renderer.SVG:
		err = renderers.SVG()(&buf, cv)
	case renderer.JPEG:
		err = renderers.JPEG(canvas.DPMM(r.resolution))(&buf, cv)
	default:
		err = renderers.PNG(canvas.DPMM(r.resolution))(&buf, cv)
	}
	if err != nil {
		return nil, fmt.Errorf("写入 %s 失败: %w", f, err)
	}
	return buf.Bytes(), nil
}

// drawBlock 逐段绘制：每个片段以自身中心对齐，基线为行顶部加字体上升部。
func (r *Renderer) drawBlock(ctx *canvas.Context, font layout.Font, b layout.Block) error {
	for _, line := range b.Lines {
		for _, seg := range line.Segments {
			face, err := r.fontFace(font, canvas.Hex(string(seg.Color)))
			if err != nil {
				return err
			}
			baseline := line.Top + face.Metrics().Ascent
			ctx.DrawText(seg.Center, baseline, canvas.NewTextLine(face, seg.Text, canvas.Center))
		}
	}
	return nil
}

// drawBackground 将背景图等比缩放后居中放入 slot（contain）。
func (r *Renderer) drawBackground(ctx *canvas.Context, src string, slot layout.Rect, width, height float64) error {
	img, err := r.loadImage(src)
	if err != nil {
		return err
	}
	if slot.Width <= 0 || slot.Height <= 0 {
		slot = layout.Rect{Width: width, Height: height}
	}
	iw, ih := float64(img.Bounds().Dx()), float64(img.Bounds().Dy())
	if iw <= 0 || ih <= 0 {
		return fmt.Errorf("背景图片 %s 尺寸为空", src)
	}
	scale := math.Min(slot.Width/iw, slot.Height/ih)
	dw, dh := iw*scale, ih*scale
	x := slot.X + (slot.Width-dw)/2
	y := slot.Y + (slot.Height-dh)/2
	ctx.DrawImage(x, y, img, canvas.DPMM(1/scale))
	return nil
}

func (r *Renderer) loadImage(src string) (image.Image, error) {
	if strings.HasPrefix(src, "built-in:") || strings.HasPrefix(src, "builtin:") {
		name := strings.TrimPrefix(strings.TrimPrefix(src, "built-in:"), "builtin:")
		blob, ok := r.imageBlobs[name]
		if !ok {
			return nil, fmt.Errorf("找不到内置图片资源 built-in:%s", name)
		}
		img, _, err := image.Decode(bytes.NewReader(blob))
		if err != nil {
			return nil, fmt.Errorf("解码内置图片 built-in:%s 失败: %w", name, err)
		}
		return img, nil
	}

	path, err := r.localPath("图片", src)
	if err != nil {
		return nil, err
	}
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("读取图片 %s 失败: %w", src, err)
	}
	defer file.Close()
	img, _, err := image.Decode(file)
	if err != nil {
		return nil, fmt.Errorf("解码图片 %s 失败: %w", src, err)
	}
	return img, nil
}

func (r *Renderer) fontFace(font layout.Font, col color.Color) (*canvas.FontFace, error) {
	family, style, err := r.ensureFontFamily(font)
	if err != nil {
		return nil, err
	}
	return family.Face(font.Size*pxToPt, col, style, canvas.FontNormal), nil
}

func (r *Renderer) ensureFontFamily(font layout.Font) (*canvas.FontFamily, canvas.FontStyle, error) {
	key := fontCacheKey(font)
	r.fontMu.Lock()
	defer r.fontMu.Unlock()

	if entry, ok := r.fontFamilies[key]; ok {
		return entry.family, entry.style, nil
	}

	style := weightStyle(font.Weight)
	family := canvas.NewFontFamily(font.Family)
	data, err := r.loadFontBytes(font)
	if err == nil {
		err = family.LoadFont(data, 0, style)
	}
	if errors.Is(err, renderer.ErrUnsafePath) {
		return nil, canvas.FontRegular, err
	}
	if err != nil {
		fallback, fbStyle, fbErr := r.fallback()
		if fbErr != nil {
			return nil, canvas.FontRegular, err
		}
		r.fontFamilies[key] = &fontFamilyEntry{family: fallback, style: fbStyle}
		return fallback, fbStyle, nil
	}

	r.fontFamilies[key] = &fontFamilyEntry{family: family, style: style}
	return family, style, nil
}

// loadFontBytes 依次查找注入的字体（先精确字重，再整个家族）、字体文件路径与内置家族。
func (r *Renderer) loadFontBytes(font layout.Font) ([]byte, error) {
	name := strings.ToLower(strings.TrimSpace(font.Family))
	if blob, ok := r.fontBlobs[name+":"+strconv.Itoa(font.Weight)]; ok {
		return blob, nil
	}
	if blob, ok := r.fontBlobs[name]; ok {
		return blob, nil
	}
	switch strings.ToLower(filepath.Ext(name)) {
	case ".ttf", ".otf", ".woff", ".woff2":
		path, err := r.localPath("字体", strings.TrimSpace(font.Family))
		if err != nil {
			return nil, err
		}
		return os.ReadFile(path)
	}
	return fonts.Load(font.Family, font.Weight)
}

func (r *Renderer) fallback() (*canvas.FontFamily, canvas.FontStyle, error) {
	if r.fallbackFamily != nil {
		return r.fallbackFamily, canvas.FontRegular, nil
	}
	data, err := fonts.Load(fonts.SansSerif, 400)
	if err != nil {
		return nil, canvas.FontRegular, err
	}
	family := canvas.NewFontFamily("telop-fallback")
	if err := family.LoadFont(data, 0, canvas.FontRegular); err != nil {
		return nil, canvas.FontRegular, err
	}
	r.fallbackFamily = family
	return family, canvas.FontRegular, nil
}

// weightStyle 将 CSS 数值字重映射为最接近的字体样式。
func weightStyle(weight int) canvas.FontStyle {
	switch {
	case weight <= 0:
		return canvas.FontRegular
	case weight < 150:
		return canvas.FontThin
	case weight < 250:
		return canvas.FontExtraLight
	case weight < 350:
		return canvas.FontLight
	case weight < 450:
		return canvas.FontRegular
	case weight < 550:
		return canvas.FontMedium
	case weight < 650:
		return canvas.FontSemiBold
	case weight < 750:
		return canvas.FontBold
	case weight < 850:
		return canvas.FontExtraBold
	default:
		return canvas.FontBlack
	}
}

func fontCacheKey(font layout.Font) string {
	return fmt.Sprintf("%s|%d", strings.ToLower(strings.TrimSpace(font.Family)), font.Weight)
}
