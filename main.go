package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"portfolio/internal/apiclient"
	"portfolio/internal/config"
	"portfolio/internal/logging"
	"portfolio/internal/metrics"
	"portfolio/internal/portfolio"
	"portfolio/internal/web"
)

// Set at build time with -ldflags "-X main.version=...".
var version = "dev"

type serveFlags struct {
	configFile  string
	port        int
	apiBase     string
	environment string
	logLevel    string
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	flags := &serveFlags{}

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the portfolio site",
		Long: `Serves the server-rendered portfolio pages. Page data is fetched
from the portfolio JSON API on every request.

Configuration is read from an optional YAML file, then PORTFOLIO_* (or bare)
environment variables, then flags.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd, flags)
		},
	}
	flags.register(serveCmd)

	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Print the build version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), version)
		},
	}

	rootCmd := &cobra.Command{
		Use:          "portfolio",
		Short:        "Portfolio front end for the portfolio JSON API",
		SilenceUsage: true,
		Args:         cobra.NoArgs,
		RunE:         serveCmd.RunE,
	}
	rootCmd.Flags().AddFlagSet(serveCmd.Flags())
	rootCmd.AddCommand(serveCmd, versionCmd)

	return rootCmd
}

func (f *serveFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.configFile, "config", "", "path to a YAML config file")
	cmd.Flags().IntVar(&f.port, "port", 0, "listen port")
	cmd.Flags().StringVar(&f.apiBase, "api-base", "", "portfolio API base URL")
	cmd.Flags().StringVar(&f.environment, "env", "", "production, development or test")
	cmd.Flags().StringVar(&f.logLevel, "log-level", "", "debug, info, warn or error")
}

func loadConfig(cmd *cobra.Command, flags *serveFlags) (config.Config, error) {
	path := flags.configFile
	if path == "" {
		path = os.Getenv("PORTFOLIO_CONFIG_FILE")
	}
	if path == "" {
		path = os.Getenv("CONFIG_FILE")
	}

	cfg, err := config.LoadFile(path)
	if err != nil {
		return config.Config{}, err
	}

	changed := cmd.Flags().Changed
	if changed("port") {
		cfg.Port = flags.port
	}
	if changed("api-base") {
		cfg.APIBaseURL = flags.apiBase
	}
	if changed("env") {
		cfg.Environment = flags.environment
	}
	if changed("log-level") {
		cfg.LogLevel = flags.logLevel
	}

	cfg.Normalize()
	if err := cfg.Validate(); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}

func runServe(cmd *cobra.Command, flags *serveFlags) error {
	cfg, err := loadConfig(cmd, flags)
	if err != nil {
		return err
	}

	logger, err := logging.New(cfg.LogLevel, cfg.IsDevelopment())
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	m := metrics.New()
	client, err := apiclient.New(apiclient.Options{
		BaseURL: cfg.APIBaseURL,
		Timeout: cfg.APITimeout,
		Metrics: m,
	})
	if err != nil {
		return err
	}
	defer client.CloseIdleConnections()

	handler, err := web.NewHandler(cfg, portfolio.NewService(client), logger, m)
	if err != nil {
		return fmt.Errorf("handler setup failed: %w", err)
	}

	server := &http.Server{
		Addr:         cfg.ListenAddr(),
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("portfolio server listening",
			zap.String("addr", server.Addr),
			zap.String("api_base", cfg.APIBaseURL),
			zap.String("environment", cfg.Environment),
			zap.String("version", version),
		)
		serveErr <- server.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server stopped: %w", err)
	case <-ctx.Done():
	}

	logger.Info("shutting down", zap.Duration("timeout", cfg.Server.ShutdownTimeout))
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	logger.Info("server stopped")
	return nil
}
