// bolaget-mcp - Systembolaget Model Context Protocol server
// License: MIT

package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/nordkatt/bolaget-mcp/pkg/apikey"
	"github.com/nordkatt/bolaget-mcp/pkg/config"
	"github.com/nordkatt/bolaget-mcp/pkg/gateway"
	"github.com/nordkatt/bolaget-mcp/pkg/logger"
	"github.com/nordkatt/bolaget-mcp/pkg/mcp"
	"github.com/nordkatt/bolaget-mcp/pkg/observability"
	"github.com/nordkatt/bolaget-mcp/pkg/tools"
)

var flagDebug bool

func newLogger() *slog.Logger {
	level := slog.LevelInfo
	if flagDebug {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// buildRegistry wires the full stack: config, key source, gateway, tools.
func buildRegistry() (*tools.Registry, *observability.Metrics, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}

	slogger := newLogger()
	metrics := observability.NewMetrics()

	keys := apikey.New(apikey.Options{
		WebsiteURL: cfg.WebsiteURL,
		TTL:        cfg.KeyTTL,
		Override:   cfg.APIKey,
		Timeout:    cfg.RequestTimeout,
		Logger:     slogger,
		Metrics:    metrics,
	})

	gw := gateway.New(gateway.Options{
		Timeout: cfg.RequestTimeout,
		Keys:    keys,
		Logger:  slogger,
		Metrics: metrics,
	})

	reg := tools.NewRegistry()
	reg.Register(tools.NewSearchProductsTool(gw, cfg, slogger))
	reg.Register(tools.NewGetProductTool(gw, cfg, slogger))
	reg.Register(tools.NewSearchStoresTool(gw, cfg, slogger))
	reg.Register(tools.NewGetStoreTool(gw, cfg, slogger))

	return reg, metrics, nil
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "bolaget-mcp",
		Short: "MCP server for Systembolaget's product and store catalog",
		Long: `bolaget-mcp exposes Systembolaget's e-commerce API as Model Context
Protocol tools: product search, product detail, store search, and store
detail. Running without a subcommand starts the stdio MCP server.`,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if flagDebug {
				logger.SetLevel(logger.DEBUG)
			}
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return serveMCP()
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().BoolVarP(&flagDebug, "debug", "d", false, "Enable debug logging")

	root.AddCommand(
		newMCPCmd(),
		newToolsCmd(),
		newVersionCmd(),
	)
	return root
}

func newMCPCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Start the MCP stdio server (for Claude Desktop, Gemini CLI, etc.)",
		Long: `Start a Model Context Protocol server over stdio.

Claude Desktop / Gemini CLI configuration:
  {
    "mcpServers": {
      "systembolaget": {
        "command": "bolaget-mcp"
      }
    }
  }`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return serveMCP()
		},
	}
}

func serveMCP() error {
	reg, metrics, err := buildRegistry()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.InfoCF("mcp", "server starting", map[string]any{
		"tools":   len(reg.All()),
		"version": formatVersion(),
	})

	err = mcp.NewServer(reg).Serve(ctx)

	for name, value := range metrics.Snapshot() {
		logger.DebugCF("metrics", name, map[string]any{"value": value})
	}

	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// newToolsCmd prints the registered tool schemas, a debugging aid for
// checking what MCP clients will see.
func newToolsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "tools",
		Short: "Print the registered tools and their input schemas",
		RunE: func(cmd *cobra.Command, args []string) error {
			reg, _, err := buildRegistry()
			if err != nil {
				return err
			}
			for _, t := range reg.All() {
				schema, err := json.MarshalIndent(t.Parameters(), "", "  ")
				if err != nil {
					return err
				}
				fmt.Printf("## %s\n\n%s\n\n%s\n\n", t.Name(), t.Description(), schema)
			}
			return nil
		},
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			printVersion()
		},
	}
}
