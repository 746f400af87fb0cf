package commands

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/mcp-x-studio/canvas/internal/canvas"
	"github.com/mcp-x-studio/canvas/internal/config"
	"github.com/mcp-x-studio/canvas/internal/logging"
	"github.com/mcp-x-studio/canvas/internal/server"
	"github.com/mcp-x-studio/canvas/internal/watch"
	"github.com/mcp-x-studio/canvas/pkg/types"
)

const shutdownTimeout = 30 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the canvas HTTP server",
	Long: `Start the canvas server. It serves the document API under /canvas, the
event stream on /events and a demo viewer on /.

With --seed-file the document starts from a JSON, JSONC or YAML file.
With --css-file or --js-file the global stylesheet and script follow
those files as they change on disk.`,
	RunE: runServe,
}

func init() {
	flags := serveCmd.Flags()
	flags.IntP("port", "p", 3000, "Port to listen on")
	flags.String("seed-file", "", "Document to start from (.json, .jsonc, .yaml)")
	flags.String("css-file", "", "Stylesheet file to watch")
	flags.String("js-file", "", "Script file to watch")
	flags.Duration("heartbeat-interval", 2*time.Second, "Keep-alive interval for event streams (0 disables)")

	bindFlags(serveCmd, map[string]string{
		config.KeyPort:              "port",
		config.KeySeedFile:          "seed-file",
		config.KeyCSSFile:           "css-file",
		config.KeyJSFile:            "js-file",
		config.KeyHeartbeatInterval: "heartbeat-interval",
	})
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig("canvas")
	if err != nil {
		return err
	}

	var seed *types.Document
	if cfg.SeedFile != "" {
		seed, err = config.LoadSeed(cfg.SeedFile)
		if err != nil {
			return err
		}
		logging.Info().Str("file", cfg.SeedFile).Msg("loaded seed document")
	}

	serverConfig := server.DefaultConfig()
	serverConfig.Port = cfg.Port
	serverConfig.HeartbeatInterval = cfg.HeartbeatInterval

	srv := server.New(serverConfig, canvas.NewStore(seed))

	watcher, err := watch.NewWatcher(srv, cfg.CSSFile, cfg.JSFile)
	if err != nil {
		return err
	}
	if watcher != nil {
		watcher.Start()
		defer watcher.Stop()
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logging.Info().Msg("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logging.Error().Err(err).Msg("server shutdown error")
	}

	logging.Info().Msg("server stopped")
	return nil
}
