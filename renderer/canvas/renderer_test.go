package canvasrenderer

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/font/gofont/gobold"

	"github.com/ByLCY/telop/layout"
	"github.com/ByLCY/telop/renderer"
)

var body = layout.Font{Family: "sans-serif", Weight: 400, Size: 48}

func measure(t *testing.T, r *Renderer, font layout.Font, text string) float64 {
	t.Helper()
	m, err := r.Measurer(font)
	require.NoError(t, err)
	return m.TextWidth(text)
}

func TestMeasurerIsDeterministicAndAdditive(t *testing.T) {
	r := NewRenderer("")
	m, err := r.Measurer(body)
	require.NoError(t, err)

	a, ab := m.TextWidth("a"), m.TextWidth("ab")
	assert.Greater(t, a, 0.0)
	assert.Greater(t, ab, a)
	assert.Equal(t, ab, m.TextWidth("ab"))
	assert.Equal(t, 0.0, m.TextWidth(""))
}

func TestMeasurerScalesWithFontSize(t *testing.T) {
	r := NewRenderer("")
	small := measure(t, r, layout.Font{Family: "sans-serif", Weight: 400, Size: 20}, "Hello")
	large := measure(t, r, layout.Font{Family: "sans-serif", Weight: 400, Size: 40}, "Hello")
	assert.InEpsilon(t, 2*small, large, 1e-6)
}

func TestMeasurerUsesWeight(t *testing.T) {
	r := NewRenderer("")
	regular := measure(t, r, body, "Caption")
	bold := measure(t, r, layout.Font{Family: "sans-serif", Weight: 700, Size: 48}, "Caption")
	assert.NotEqual(t, regular, bold)
}

func TestUnknownFamilyFallsBack(t *testing.T) {
	r := NewRenderer("")
	want := measure(t, r, body, "fallback")
	got := measure(t, r, layout.Font{Family: "no-such-family", Weight: 400, Size: 48}, "fallback")
	assert.InDelta(t, want, got, 1e-9)
}

func TestInjectedFont(t *testing.T) {
	r, err := NewRendererWithOptions(Options{Fonts: map[string]Resource{"Brand": {Bytes: gobold.TTF}}})
	require.NoError(t, err)

	want := measure(t, r, layout.Font{Family: "sans-serif", Weight: 700, Size: 48}, "Brand")
	got := measure(t, r, layout.Font{Family: "brand", Weight: 400, Size: 48}, "Brand")
	assert.InDelta(t, want, got, 1e-9)
}

func TestNewRendererWithOptionsMissingResource(t *testing.T) {
	_, err := NewRendererWithOptions(Options{Fonts: map[string]Resource{"x": {Path: "/does/not/exist.ttf"}}})
	assert.Error(t, err)

	_, err = NewRendererWithOptions(Options{Images: map[string]Resource{"bg": {}}})
	assert.Error(t, err)
}

func compose(t *testing.T, r *Renderer, mutate func(*layout.Request)) *layout.Composition {
	t.Helper()
	req := layout.DefaultRequest()
	req.UpperText = "<red>Hello</red>"
	req.BottomText = "world"
	if mutate != nil {
		mutate(&req)
	}
	c, err := layout.Compose(req, r)
	require.NoError(t, err)
	return c
}

func nrgbaAt(img image.Image, x, y int) color.NRGBA {
	return color.NRGBAModel.Convert(img.At(x, y)).(color.NRGBA)
}

func TestRenderPNGIsTransparentWithColoredText(t *testing.T) {
	r := NewRenderer("")
	c := compose(t, r, nil)

	data, err := r.Render(c, renderer.PNG)
	require.NoError(t, err)

	img, err := png.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, 1080, img.Bounds().Dx())
	assert.Equal(t, 1920, img.Bounds().Dy())
	assert.Equal(t, uint8(0), nrgbaAt(img, 0, 0).A)
	assert.Equal(t, uint8(0), nrgbaAt(img, 540, 960).A)

	upper := c.Block(layout.BlockUpper)
	require.NotNil(t, upper)
	line := upper.Lines[0]
	found := false
	for y := int(line.Top); y < int(line.Top+upper.Result.LineHeight) && !found; y++ {
		for x := int(line.Left); x < int(line.Left+line.Width); x++ {
			px := nrgbaAt(img, x, y)
			if px.A > 200 && px.R > 200 && px.G < 60 && px.B < 60 {
				found = true
				break
			}
		}
	}
	assert.True(t, found, "expected red glyph pixels in the upper block")
}

func TestRenderJPEGIsOpaque(t *testing.T) {
	r := NewRenderer("")
	data, err := r.Render(compose(t, r, nil), renderer.JPEG)
	require.NoError(t, err)

	img, err := jpeg.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	px := nrgbaAt(img, 5, 5)
	assert.Greater(t, px.R, uint8(240))
	assert.Greater(t, px.G, uint8(240))
	assert.Greater(t, px.B, uint8(240))
}

func TestRenderVectorFormats(t *testing.T) {
	r := NewRenderer("")
	c := compose(t, r, nil)

	data, err := r.Render(c, renderer.PDF)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, []byte("%PDF")))

	data, err = r.Render(c, renderer.SVG)
	require.NoError(t, err)
	assert.Contains(t, string(data), "<svg")
}

func TestRenderErrors(t *testing.T) {
	r := NewRenderer("")
	_, err := r.Render(nil, renderer.PNG)
	assert.Error(t, err)

	_, err = r.Render(compose(t, r, nil), renderer.Format("gif"))
	assert.ErrorIs(t, err, renderer.ErrUnsupportedFormat)

	_, err = r.Render(&layout.Composition{}, renderer.PNG)
	assert.Error(t, err)
}

func solidPNG(t *testing.T, w, h int, c color.Color) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestRenderBackgroundContainsInSlot(t *testing.T) {
	blue := color.NRGBA{R: 0, G: 0, B: 255, A: 255}
	r, err := NewRendererWithOptions(Options{Images: map[string]Resource{"bg": {Bytes: solidPNG(t, 10, 20, blue)}}})
	require.NoError(t, err)

	c := compose(t, r, func(req *layout.Request) {
		req.UpperText = ""
		req.BottomText = ""
		req.Background = "built-in:bg"
	})
	data, err := r.Render(c, renderer.PNG)
	require.NoError(t, err)
	img, err := png.Decode(bytes.NewReader(data))
	require.NoError(t, err)

	// slot 为 y∈[500,1180]，10×20 的图按高度放大 34 倍后宽 340，水平居中于 [370,710]。
	center := nrgbaAt(img, 540, 840)
	assert.Equal(t, uint8(255), center.B)
	assert.Equal(t, uint8(255), center.A)
	assert.Equal(t, uint8(0), nrgbaAt(img, 100, 840).A)
	assert.Equal(t, uint8(0), nrgbaAt(img, 540, 300).A)
}

func TestRenderBackgroundFromBaseDir(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "bg.png"), solidPNG(t, 4, 4, color.White), 0o644))

	r := NewRenderer(dir)
	_, err := r.Render(compose(t, r, func(req *layout.Request) { req.Background = "bg.png" }), renderer.PNG)
	assert.NoError(t, err)

	noBase := NewRenderer("")
	_, err = noBase.Render(compose(t, noBase, func(req *layout.Request) { req.Background = "bg.png" }), renderer.PNG)
	assert.Error(t, err)

	_, err = noBase.Render(compose(t, noBase, func(req *layout.Request) { req.Background = "built-in:missing" }), renderer.PNG)
	assert.Error(t, err)
}

func TestRenderRejectsPathsOutsideBaseDir(t *testing.T) {
	root := t.TempDir()
	secret := filepath.Join(root, "secret.png")
	require.NoError(t, os.WriteFile(secret, solidPNG(t, 4, 4, color.White), 0o644))
	dir := filepath.Join(root, "assets")
	require.NoError(t, os.Mkdir(dir, 0o755))

	r := NewRenderer(dir)
	for _, src := range []string{secret, "../secret.png", "sub/../../secret.png"} {
		_, err := r.Render(compose(t, r, func(req *layout.Request) { req.Background = src }), renderer.PNG)
		assert.ErrorIs(t, err, renderer.ErrUnsafePath, src)
	}
}

func TestFontPathStaysInBaseDir(t *testing.T) {
	root := t.TempDir()
	dir := filepath.Join(root, "assets")
	require.NoError(t, os.Mkdir(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "bold.ttf"), gobold.TTF, 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "outside.ttf"), gobold.TTF, 0o644))

	r := NewRenderer(dir)
	want := measure(t, r, layout.Font{Family: "sans-serif", Weight: 700, Size: 48}, "Hello")
	got := measure(t, r, layout.Font{Family: "bold.ttf", Weight: 400, Size: 48}, "Hello")
	assert.InDelta(t, want, got, 1e-9)

	for _, family := range []string{"../outside.ttf", filepath.Join(root, "outside.ttf")} {
		_, err := r.Measurer(layout.Font{Family: family, Weight: 400, Size: 48})
		assert.ErrorIs(t, err, renderer.ErrUnsafePath, family)
	}
}

func TestWeightStyle(t *testing.T) {
	assert.Equal(t, weightStyle(400), weightStyle(0))
	assert.Equal(t, weightStyle(700), weightStyle(749))
	assert.NotEqual(t, weightStyle(400), weightStyle(700))
	assert.NotEqual(t, weightStyle(800), weightStyle(900))
}
