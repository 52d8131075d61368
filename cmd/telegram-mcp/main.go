// Command telegram-mcp serves a Telegram bot as MCP tools.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	telegrammcp "github.com/felixgeelhaar/telegram-mcp"
	"github.com/felixgeelhaar/telegram-mcp/internal/config"
	"github.com/felixgeelhaar/telegram-mcp/internal/logging"
	"github.com/felixgeelhaar/telegram-mcp/server"
	"github.com/felixgeelhaar/telegram-mcp/telegram"
)

// Set by ldflags.
var (
	version = "dev"
	commit  = "none"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	telegrammcp.Version = version

	root := rootCmd(stdin)
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)
	if err := root.Execute(); err != nil {
		fmt.Fprintf(stderr, "telegram-mcp: %v\n", err)
		return 1
	}
	return 0
}

type serveFlags struct {
	configPath string
	envFile    string
	transport  string
	addr       string
	logLevel   string
}

func rootCmd(stdin io.Reader) *cobra.Command {
	flags := &serveFlags{}
	serve := func(cmd *cobra.Command, _ []string) error {
		return runServe(cmd, stdin, flags)
	}

	root := &cobra.Command{
		Use:           "telegram-mcp",
		Short:         "Expose a Telegram bot to MCP clients",
		Long:          "telegram-mcp serves sendMessage, sendPhoto, deleteMessage, getUpdates and getChat as MCP tools over stdio or websocket.",
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		RunE:          serve,
	}
	addServeFlags(root, flags)

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the tools (default command)",
		Args:  cobra.NoArgs,
		RunE:  serve,
	}
	addServeFlags(serveCmd, flags)

	root.AddCommand(serveCmd, versionCmd(), toolsCmd())
	return root
}

func addServeFlags(cmd *cobra.Command, f *serveFlags) {
	fs := cmd.Flags()
	fs.StringVarP(&f.configPath, "config", "c", "", "Path to a YAML configuration file")
	fs.StringVar(&f.envFile, "env-file", "", "Path to a dotenv file (default .env when present)")
	fs.StringVar(&f.transport, "transport", "", "Transport: stdio or websocket")
	fs.StringVar(&f.addr, "addr", "", "Listen address for the websocket transport")
	fs.StringVar(&f.logLevel, "log-level", "", "Log level: debug, info, warn or error")
}

func runServe(cmd *cobra.Command, stdin io.Reader, f *serveFlags) error {
	cfg, err := config.Load(config.LoadOptions{ConfigPath: f.configPath, EnvFile: f.envFile})
	if err != nil {
		return err
	}
	if f.transport != "" {
		cfg.Server.Transport = f.transport
	}
	if f.addr != "" {
		cfg.Server.Addr = f.addr
	}
	if f.logLevel != "" {
		cfg.Log.Level = f.logLevel
	}
	if err := cfg.Validate(); err != nil {
		if errors.Is(err, config.ErrMissingToken) {
			return fmt.Errorf("%w: export it or put it in a .env file", err)
		}
		return err
	}

	logger, err := logging.New(logging.Options{
		Level:   cfg.Log.Level,
		Format:  cfg.Log.Format,
		Writer:  cmd.ErrOrStderr(),
		Secrets: []string{cfg.Telegram.Token},
	})
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err = telegrammcp.Run(ctx, cfg, logger, telegrammcp.WithStdio(stdin, cmd.OutOrStdout()))
	if errors.Is(err, context.Canceled) {
		logger.Info("shutting down")
		return nil
	}
	return err
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "telegram-mcp %s (commit: %s)\n", version, commit)
		},
	}
}

func toolsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "tools",
		Short: "Print the tool manifest as JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			// The manifest does not depend on the token; a placeholder client
			// is enough to register the tools.
			client, err := telegram.New(telegram.Config{Token: "manifest"})
			if err != nil {
				return err
			}
			srv, err := telegrammcp.NewServer(client)
			if err != nil {
				return err
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(struct {
				Tools []server.ToolInfo `json:"tools"`
			}{Tools: srv.Tools()})
		},
	}
}
