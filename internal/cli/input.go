package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/ByLCY/telop/dsl"
	"github.com/ByLCY/telop/internal/server"
	"github.com/ByLCY/telop/layout"
	canvasrenderer "github.com/ByLCY/telop/renderer/canvas"
)

// inputOpts are the flags shared by commands that read a caption.
type inputOpts struct {
	dataPath string // JSON or YAML bound into template placeholders
	dark     bool
}

// loadRequest reads path as request JSON (.json) or as a caption template.
func loadRequest(path string, opts inputOpts, cfg server.Config) (layout.Request, error) {
	var req layout.Request
	if strings.EqualFold(filepath.Ext(path), ".json") {
		raw, err := os.ReadFile(path)
		if err != nil {
			return req, fmt.Errorf("读取请求文件 %s 失败: %w", path, err)
		}
		if err := json.Unmarshal(raw, &req); err != nil {
			return req, fmt.Errorf("解析请求 JSON 失败: %w", err)
		}
	} else {
		file, err := os.Open(path)
		if err != nil {
			return req, fmt.Errorf("无法打开模板文件 %s: %w", path, err)
		}
		defer file.Close()

		tmpl, err := dsl.Parse(file)
		if err != nil {
			return req, fmt.Errorf("解析模板失败: %w", err)
		}
		data, err := loadData(opts.dataPath)
		if err != nil {
			return req, err
		}
		if req, err = layout.FromTemplate(tmpl, data); err != nil {
			return req, err
		}
	}

	if len(req.ColorMap) == 0 && len(cfg.Palette) > 0 {
		req.ColorMap = cfg.Palette
	}
	if opts.dark {
		req.DarkMode = true
	}
	return req, nil
}

// loadData decodes the template data file; .json uses encoding/json, anything else YAML.
func loadData(path string) (any, error) {
	if path == "" {
		return nil, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("读取数据文件 %s 失败: %w", path, err)
	}
	var data any
	if strings.EqualFold(filepath.Ext(path), ".json") {
		err = json.Unmarshal(raw, &data)
	} else {
		err = yaml.Unmarshal(raw, &data)
	}
	if err != nil {
		return nil, fmt.Errorf("解析数据文件 %s 失败: %w", path, err)
	}
	return data, nil
}

// newCanvasEngine builds the canvas renderer. Relative resources resolve
// against the config baseDir, or the input file's directory when unset.
func newCanvasEngine(cfg server.Config, input string) (*canvasrenderer.Renderer, error) {
	baseDir := cfg.BaseDir
	if baseDir == "" {
		baseDir = filepath.Dir(input)
	}
	return canvasrenderer.NewRendererWithOptions(canvasrenderer.Options{
		BaseDir:    baseDir,
		Fonts:      cfg.Fonts,
		Images:     cfg.Images,
		Resolution: cfg.Resolution,
	})
}

func addInputFlags(cmd *cobra.Command, opts *inputOpts) {
	cmd.Flags().StringVarP(&opts.dataPath, "data", "d", "", "JSON or YAML data bound to ${...} placeholders")
	cmd.Flags().BoolVar(&opts.dark, "dark", false, "swap black and white text colors")
}
