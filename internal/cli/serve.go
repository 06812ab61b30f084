package cli

import (
	"github.com/spf13/cobra"

	"github.com/ByLCY/telop/internal/server"
)

func newServeCmd(g *globalOpts) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the caption HTTP service",
		Long:  `serve exposes POST /api/generate-image, POST /api/layout, GET /healthz and GET /metrics.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := g.config()
			if err != nil {
				return err
			}
			if addr != "" {
				cfg.Addr = addr
			}
			s, err := server.New(cfg, loggerFromContext(cmd.Context()))
			if err != nil {
				return err
			}
			return s.ListenAndServe(cmd.Context())
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides the config)")

	return cmd
}
