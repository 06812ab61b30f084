package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ByLCY/telop/layout"
	"github.com/ByLCY/telop/renderer"
)

// renderOpts holds the flags of the render command.
type renderOpts struct {
	inputOpts
	output    string
	format    string
	debugPath string // optional layout JSON written next to the image
}

func newRenderCmd(g *globalOpts) *cobra.Command {
	var opts renderOpts

	cmd := &cobra.Command{
		Use:   "render [template|request.json]",
		Short: "Render a caption to PNG, JPEG, PDF or SVG",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRender(cmd.Context(), g, args[0], &opts)
		},
	}

	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file (default: input name with the format extension)")
	cmd.Flags().StringVarP(&opts.format, "format", "f", "", "output format: png (default), jpeg, pdf, svg")
	cmd.Flags().StringVar(&opts.debugPath, "debug", "", "write the layout JSON to this path")
	addInputFlags(cmd, &opts.inputOpts)

	return cmd
}

// outputFormat picks the format from --format, then the output extension, then png.
func outputFormat(flag, output string) (renderer.Format, error) {
	if flag != "" {
		return renderer.ParseFormat(flag)
	}
	if ext := filepath.Ext(output); ext != "" {
		return renderer.ParseFormat(ext)
	}
	return renderer.PNG, nil
}

func runRender(ctx context.Context, g *globalOpts, input string, opts *renderOpts) error {
	logger := loggerFromContext(ctx)
	prog := newProgress(logger)

	format, err := outputFormat(opts.format, opts.output)
	if err != nil {
		return err
	}
	output := opts.output
	if output == "" {
		output = strings.TrimSuffix(input, filepath.Ext(input)) + format.Ext()
	}

	cfg, err := g.config()
	if err != nil {
		return err
	}
	req, err := loadRequest(input, opts.inputOpts, cfg)
	if err != nil {
		return err
	}
	engine, err := newCanvasEngine(cfg, input)
	if err != nil {
		return err
	}

	comp, err := layout.Compose(req, engine)
	if err != nil {
		return fmt.Errorf("布局计算失败: %w", err)
	}
	logger.Debugf("Composed %gx%g, font %s(%d) %.1fpx", comp.Width, comp.Height, comp.Font.Family, comp.Font.Weight, comp.Font.Size)
	warnOverflow(ctx, comp)

	if opts.debugPath != "" {
		if err := writeDebug(comp, opts.debugPath); err != nil {
			return err
		}
	}

	data, err := engine.Render(comp, format)
	if err != nil {
		return fmt.Errorf("渲染 %s 失败: %w", format, err)
	}
	if err := writeOutput(output, data); err != nil {
		return err
	}
	prog.done(fmt.Sprintf("Wrote %s", output))
	return nil
}

func warnOverflow(ctx context.Context, comp *layout.Composition) {
	logger := loggerFromContext(ctx)
	for _, o := range comp.Overflow() {
		logger.Warn("caption overflow", "block", o.Block, "line", o.Line, "reason", o.Reason)
	}
}

func writeOutput(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("创建输出目录失败: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("写入 %s 失败: %w", path, err)
	}
	return nil
}

func writeDebug(comp *layout.Composition, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("创建调试目录失败: %w", err)
	}
	if err := layout.WriteDebugJSON(comp, path); err != nil {
		return fmt.Errorf("输出调试 JSON 失败: %w", err)
	}
	return nil
}
