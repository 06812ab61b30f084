package cli

import (
	"bytes"
	"context"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ByLCY/telop/internal/server"
	"github.com/ByLCY/telop/renderer"
)

const showTemplate = `
caption Show v1 {
  font {
    family: "sans"
    weight: 600
    line-height: 1.4x
  }
  upper top 60 {
    "<red>${show.title}</red>"
    "Episode ${show.episode}"
  }
  bottom bottom 220 {
    "${cta|Subscribe}"
  }
}
`

const showData = `
show:
  title: Night Radio
  episode: 12
`

const requestJSON = `{
  "upperText": "Hello <blue>world</blue>",
  "bottomText": "see you",
  "styles": {"fontSize": 26.4, "upperTextTop": 60, "bottomTextBottom": 220}
}`

// writeFiles writes name -> content into a fresh temp dir and returns the dir.
func writeFiles(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
	}
	return dir
}

// run executes the root command and returns stdout and the log output.
func run(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var out, logs bytes.Buffer
	root := newRootCmd(&logs)
	root.SetOut(&out)
	root.SetErr(&logs)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), logs.String(), err
}

func TestRenderTemplateWithData(t *testing.T) {
	dir := writeFiles(t, map[string]string{"show.telop": showTemplate, "show.yaml": showData})
	out := filepath.Join(dir, "out", "caption.png")

	_, logs, err := run(t, "render", filepath.Join(dir, "show.telop"),
		"--data", filepath.Join(dir, "show.yaml"), "-o", out,
		"--debug", filepath.Join(dir, "out", "layout.json"))
	require.NoError(t, err, logs)
	assert.Contains(t, logs, "Wrote")

	f, err := os.Open(out)
	require.NoError(t, err)
	defer f.Close()
	img, err := png.Decode(f)
	require.NoError(t, err)
	assert.Equal(t, 1080, img.Bounds().Dx())
	assert.Equal(t, 1920, img.Bounds().Dy())

	debug, err := os.ReadFile(filepath.Join(dir, "out", "layout.json"))
	require.NoError(t, err)
	assert.Contains(t, string(debug), "Night Radio")
	assert.Contains(t, string(debug), "Episode 12")
	assert.Contains(t, string(debug), "Subscribe")
}

func TestRenderRequestJSONDefaultOutput(t *testing.T) {
	dir := writeFiles(t, map[string]string{"req.json": requestJSON})

	_, logs, err := run(t, "render", filepath.Join(dir, "req.json"), "--format", "pdf")
	require.NoError(t, err, logs)

	data, err := os.ReadFile(filepath.Join(dir, "req.pdf"))
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, []byte("%PDF")))
}

func TestRenderErrors(t *testing.T) {
	dir := writeFiles(t, map[string]string{
		"req.json":   requestJSON,
		"bad.json":   "{",
		"bad.telop":  "caption {",
		"bad.yaml":   "adress: oops\n",
		"show.telop": showTemplate,
	})

	tests := []struct {
		name string
		args []string
	}{
		{"unknown format", []string{"render", filepath.Join(dir, "req.json"), "--format", "gif"}},
		{"missing input", []string{"render", filepath.Join(dir, "nope.json")}},
		{"bad json", []string{"render", filepath.Join(dir, "bad.json")}},
		{"bad template", []string{"render", filepath.Join(dir, "bad.telop")}},
		{"missing data", []string{"render", filepath.Join(dir, "show.telop"), "--data", filepath.Join(dir, "nope.yaml")}},
		{"bad config", []string{"render", filepath.Join(dir, "req.json"), "--config", filepath.Join(dir, "bad.yaml")}},
		{"no args", []string{"render"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := run(t, tt.args...)
			assert.Error(t, err)
		})
	}
}

func TestOutputFormat(t *testing.T) {
	tests := []struct {
		flag, output string
		want         renderer.Format
	}{
		{"", "", renderer.PNG},
		{"", "a/b.svg", renderer.SVG},
		{"", "b.JPG", renderer.JPEG},
		{"pdf", "b.png", renderer.PDF},
	}
	for _, tt := range tests {
		got, err := outputFormat(tt.flag, tt.output)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got, "flag=%q output=%q", tt.flag, tt.output)
	}

	_, err := outputFormat("", "b.txt")
	assert.Error(t, err)
}

func TestLayoutCommand(t *testing.T) {
	dir := writeFiles(t, map[string]string{"req.json": requestJSON})

	out, logs, err := run(t, "layout", filepath.Join(dir, "req.json"), "--dark")
	require.NoError(t, err, logs)
	assert.Contains(t, out, `"name": "upper"`)
	assert.Contains(t, out, `"text": "Hello "`)
	// 深色模式下未标记文本为白色。
	assert.Contains(t, out, `"color": "#ffffff"`)
}

func TestPreviewCommand(t *testing.T) {
	dir := writeFiles(t, map[string]string{"show.telop": showTemplate, "show.yaml": showData})

	out, logs, err := run(t, "preview", filepath.Join(dir, "show.telop"), "--data", filepath.Join(dir, "show.yaml"), "--cols", "48")
	require.NoError(t, err, logs)
	assert.Contains(t, out, "Night Radio")
	assert.Contains(t, out, "Episode 12")
	assert.Contains(t, out, "╭")
}

func TestLoadRequest(t *testing.T) {
	dir := writeFiles(t, map[string]string{
		"req.json":  `{"upperText":"<brand>x</brand>"}`,
		"data.json": `{"show":{"title":"JSON Title","episode":3}}`,
		"show.tpl":  showTemplate,
	})
	cfg := server.DefaultConfig()
	cfg.Palette = map[string]string{"brand": "#0f62fe"}

	req, err := loadRequest(filepath.Join(dir, "req.json"), inputOpts{dark: true}, cfg)
	require.NoError(t, err)
	assert.True(t, req.DarkMode)
	assert.Equal(t, "#0f62fe", req.ColorMap["brand"])

	req, err = loadRequest(filepath.Join(dir, "show.tpl"), inputOpts{dataPath: filepath.Join(dir, "data.json")}, cfg)
	require.NoError(t, err)
	assert.Equal(t, "<red>JSON Title</red>\nEpisode 3", req.UpperText)
	assert.Equal(t, "Subscribe", req.BottomText)
	assert.Equal(t, 600, req.Styles.FontWeight)
}

func TestServeRejectsArgs(t *testing.T) {
	_, _, err := run(t, "serve", "extra")
	assert.Error(t, err)
}

func TestVersion(t *testing.T) {
	SetVersion("v1.2.3", "abc123", "2026-01-01")
	t.Cleanup(func() { SetVersion("dev", "", "") })

	out, _, err := run(t, "--version")
	require.NoError(t, err)
	assert.Contains(t, out, "telop v1.2.3")
	assert.Contains(t, out, "commit: abc123")
}
