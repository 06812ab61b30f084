package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/ByLCY/telop/layout"
	"github.com/ByLCY/telop/renderer/terminal"
)

type previewOpts struct {
	inputOpts
	columns  int
	showSlot bool
}

func newPreviewCmd(g *globalOpts) *cobra.Command {
	opts := previewOpts{columns: 40}

	cmd := &cobra.Command{
		Use:   "preview [template|request.json]",
		Short: "Preview a caption layout in the terminal",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPreview(cmd.Context(), cmd.OutOrStdout(), g, args[0], &opts)
		},
	}

	cmd.Flags().IntVar(&opts.columns, "cols", opts.columns, "preview width in terminal cells")
	cmd.Flags().BoolVar(&opts.showSlot, "slot", false, "mark the background image slot")
	addInputFlags(cmd, &opts.inputOpts)

	return cmd
}

// runPreview lays out with terminal cell widths, so no font files are needed.
func runPreview(ctx context.Context, w io.Writer, g *globalOpts, input string, opts *previewOpts) error {
	cfg, err := g.config()
	if err != nil {
		return err
	}
	req, err := loadRequest(input, opts.inputOpts, cfg)
	if err != nil {
		return err
	}
	comp, err := layout.Compose(req, terminal.Typesetter{})
	if err != nil {
		return fmt.Errorf("布局计算失败: %w", err)
	}
	loggerFromContext(ctx).Debugf("Preview at %d columns", opts.columns)

	out, err := terminal.Preview(comp, terminal.Options{Columns: opts.columns, ShowSlot: opts.showSlot})
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, out)
	return err
}
