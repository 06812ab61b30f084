// Package cli implements the telop command-line interface.
//
// Commands:
//   - render: lay out a caption template or request JSON and write PNG, JPEG, PDF or SVG
//   - preview: draw the composition in the terminal
//   - layout: print the composition as JSON
//   - serve: run the HTTP caption service
//
// All commands accept --verbose (-v) for debug logging and --config for the
// YAML file that registers fonts, images and palette overrides.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	charmlog "github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/ByLCY/telop/internal/server"
)

var (
	version = "dev"
	commit  string
	date    string
)

// SetVersion sets the version information displayed by --version.
func SetVersion(v, c, d string) {
	version = v
	commit = c
	date = d
}

// globalOpts holds flags shared by every subcommand.
type globalOpts struct {
	verbose    bool
	configPath string
}

// config loads the YAML config when --config is set, otherwise the defaults.
func (g *globalOpts) config() (server.Config, error) {
	if g.configPath == "" {
		return server.DefaultConfig(), nil
	}
	return server.LoadConfig(g.configPath)
}

// Execute runs the telop CLI with logs written to stderr.
func Execute(ctx context.Context) error {
	return newRootCmd(os.Stderr).ExecuteContext(ctx)
}

func newRootCmd(logOut io.Writer) *cobra.Command {
	g := &globalOpts{}

	root := &cobra.Command{
		Use:          "telop",
		Short:        "telop renders colored captions for short videos",
		Long:         `telop lays out two blocks of color-tagged caption text on a portrait canvas and renders them as images, a terminal preview or layout JSON.`,
		Version:      version,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			level := charmlog.InfoLevel
			if g.verbose {
				level = charmlog.DebugLevel
			}
			cmd.SetContext(withLogger(cmd.Context(), newLogger(logOut, level)))
		},
	}

	root.SetVersionTemplate(fmt.Sprintf("telop %s\ncommit: %s\nbuilt: %s\n", version, commit, date))
	root.PersistentFlags().BoolVarP(&g.verbose, "verbose", "v", false, "enable verbose logging")
	root.PersistentFlags().StringVarP(&g.configPath, "config", "c", "", "YAML config with fonts, images and palette")

	root.AddCommand(newRenderCmd(g))
	root.AddCommand(newPreviewCmd(g))
	root.AddCommand(newLayoutCmd(g))
	root.AddCommand(newServeCmd(g))

	return root
}
