// Package commands provides the CLI commands for the canvas server.
package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mcp-x-studio/canvas/internal/config"
	"github.com/mcp-x-studio/canvas/internal/logging"
)

var (
	// Version information set at build time
	Version   = "0.1.0"
	BuildTime = "dev"
)

// v holds flag, environment and default values for every command.
var v = config.New()

var envFiles []string

var rootCmd = &cobra.Command{
	Use:   "canvas",
	Short: "Realtime canvas document server",
	Long: `canvas keeps one shared design document in memory and streams every
edit to connected viewers.

Run 'canvas serve' to start the HTTP server, or 'canvas mcp' to expose
its editing operations as MCP tools.`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
	},
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.String("log-level", "INFO", "Log level (DEBUG|INFO|WARN|ERROR)")
	flags.Bool("pretty", false, "Human-readable console logs")
	flags.StringSliceVar(&envFiles, "env-file", nil, "Env files to load (default .env)")

	bindFlags(rootCmd, map[string]string{
		config.KeyLogLevel:  "log-level",
		config.KeyLogPretty: "pretty",
	})

	rootCmd.SetVersionTemplate(fmt.Sprintf("canvas %s (%s)\n", Version, BuildTime))

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(mcpCmd)
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// loadConfig resolves the configuration and initializes logging from it.
func loadConfig(service string) (*config.Config, error) {
	cfg, err := config.Load(v, envFiles...)
	if err != nil {
		return nil, err
	}
	logging.Init(logging.Config{
		Level:   logging.ParseLevel(cfg.LogLevel),
		Pretty:  cfg.LogPretty,
		Service: service,
	})
	return cfg, nil
}

// bindFlags binds the named flags of cmd to config keys, looking in both
// the local and persistent flag sets.
func bindFlags(cmd *cobra.Command, keys map[string]string) {
	for key, name := range keys {
		f := cmd.Flags().Lookup(name)
		if f == nil {
			f = cmd.PersistentFlags().Lookup(name)
		}
		if err := v.BindPFlag(key, f); err != nil {
			panic(err)
		}
	}
}
