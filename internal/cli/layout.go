package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/ByLCY/telop/layout"
)

func newLayoutCmd(g *globalOpts) *cobra.Command {
	var opts inputOpts

	cmd := &cobra.Command{
		Use:   "layout [template|request.json]",
		Short: "Print the caption layout as JSON",
		Long:  `layout measures text with the same fonts as render and prints line positions, segment colors and overflow as JSON.`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLayout(cmd.Context(), cmd.OutOrStdout(), g, args[0], opts)
		},
	}
	addInputFlags(cmd, &opts)

	return cmd
}

func runLayout(ctx context.Context, w io.Writer, g *globalOpts, input string, opts inputOpts) error {
	cfg, err := g.config()
	if err != nil {
		return err
	}
	req, err := loadRequest(input, opts, cfg)
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
	warnOverflow(ctx, comp)

	data, err := layout.MarshalDebugJSON(comp)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}
