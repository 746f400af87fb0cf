package commands

import (
	"fmt"

	"github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"

	"github.com/mcp-x-studio/canvas/internal/client"
	"github.com/mcp-x-studio/canvas/internal/config"
	"github.com/mcp-x-studio/canvas/internal/logging"
	mcpcanvas "github.com/mcp-x-studio/canvas/pkg/mcpserver/canvas"
)

var (
	mcpTransport string
	mcpAddr      string
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Expose a running canvas server as MCP tools",
	Long: `Start an MCP server whose tools read and edit the canvas served at
--server-url. The stdio transport is used by default; logs go to stderr.`,
	RunE: runMCP,
}

func init() {
	flags := mcpCmd.Flags()
	flags.String("server-url", "http://localhost:3000", "Canvas server URL")
	flags.StringVar(&mcpTransport, "transport", "stdio", "MCP transport (stdio|sse)")
	flags.StringVar(&mcpAddr, "addr", "localhost:8090", "Listen address for the sse transport")

	bindFlags(mcpCmd, map[string]string{
		config.KeyServerURL: "server-url",
	})
}

func runMCP(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig("canvas-mcp")
	if err != nil {
		return err
	}

	s := mcpcanvas.NewServer(client.New(cfg.BaseURL()))
	log := logging.Component("mcp")

	switch mcpTransport {
	case "stdio":
		log.Info().Str("server_url", cfg.BaseURL()).Msg("serving MCP over stdio")
		return server.ServeStdio(s)
	case "sse":
		log.Info().Str("server_url", cfg.BaseURL()).Str("addr", mcpAddr).Msg("serving MCP over sse")
		return server.NewSSEServer(s, server.WithBaseURL("http://"+mcpAddr)).Start(mcpAddr)
	default:
		return fmt.Errorf("unknown transport %q", mcpTransport)
	}
}
