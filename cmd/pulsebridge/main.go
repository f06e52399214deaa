package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"pulsebridge/internal/analysis"
	"pulsebridge/internal/backend"
	"pulsebridge/internal/bus"
	"pulsebridge/internal/channel"
	"pulsebridge/internal/config"
	"pulsebridge/internal/health"
	"pulsebridge/internal/insights"
	"pulsebridge/internal/orchestrator"

	"github.com/spf13/cobra"
)

var (
	version    = "0.3.1"
	logger     *slog.Logger
	configPath string // overridable via --config flag
)

func main() {
	logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))

	root := &cobra.Command{
		Use:   "pulsebridge",
		Short: "PulseBridge: workspace chat bridge with local insights analysis",
		Long: "PulseBridge connects a workspace chat platform to per-tenant retrieval and\n" +
			"intervention backends, and runs a sampled, privacy-preserving sentiment and\n" +
			"keyword analysis over public channel messages.",
	}

	root.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to config.json (default: ~/.pulsebridge/config.json)")

	root.AddCommand(initCmd())
	root.AddCommand(serveCmd())
	root.AddCommand(analyzeCmd())
	root.AddCommand(doctorCmd())
	root.AddCommand(versionCmd())

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func initCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Write a default configuration file",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfgPath := config.DefaultConfigPath()
			if configPath != "" {
				cfgPath = configPath
			}
			if err := config.Save(cfgPath, config.Defaults()); err != nil {
				return err
			}
			logger.Info("initialized", "config", cfgPath)
			return nil
		},
	}
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(cmd *cobra.Command, args []string) {
			cmd.Printf("pulsebridge v%s\n", version)
		},
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the bridge",
		RunE:  runServe,
	}
}

// resolveConfigPath returns the config path from --config flag or default.
func resolveConfigPath() string {
	if configPath != "" {
		return configPath
	}
	return config.DefaultConfigPath()
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(resolveConfigPath())
	if err != nil {
		return err
	}

	logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: logLevel(cfg.General.LogLevel),
	}))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	eventBus := bus.New(100, logger)
	defer eventBus.Close()

	backends := backend.NewClient(cfg.Backends, logger)
	policy := analysis.NewPolicy(analysis.PolicyConfig{
		SampleRate:    cfg.Insights.SampleRate.Value,
		MaxTextLength: cfg.Insights.MaxTextLength.Value,
		MinTextLength: cfg.Insights.MinTextLength.Value,
	})
	pipeline := insights.NewPipeline(policy, backends, logger)

	slackChannel := channel.NewSlack(channel.SlackConfig{
		BotToken: cfg.Slack.BotToken,
		AppToken: cfg.Slack.AppToken,
		Logger:   logger,
	})

	loop := orchestrator.NewLoop(orchestrator.LoopConfig{
		Backend:     backends,
		Pipeline:    pipeline,
		Responder:   slackChannel,
		Bus:         eventBus,
		Logger:      logger,
		Concurrency: cfg.General.MaxConcurrentEvents,
	})

	healthServer := health.NewServer(cfg.Health.Host, cfg.Health.Port, logger)
	go func() {
		if err := healthServer.Start(ctx); err != nil {
			logger.Error("health server failed", "err", err)
		}
	}()

	go loop.Run(ctx)

	logger.Info("pulsebridge starting", "version", version,
		"sample_rate", cfg.Insights.SampleRate.Value)

	if err := slackChannel.Start(ctx, eventBus); err != nil {
		return err
	}
	logger.Info("pulsebridge stopped")
	return nil
}

func logLevel(name string) slog.Level {
	switch name {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
