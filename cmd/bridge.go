package cmd

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/clawbridge/clawbridge/internal/channels/discord"
	"github.com/clawbridge/clawbridge/internal/config"
	"github.com/clawbridge/clawbridge/internal/cron"
	"github.com/clawbridge/clawbridge/internal/gateway"
	httpapi "github.com/clawbridge/clawbridge/internal/http"
)

const shutdownTimeout = 10 * time.Second

func runBridge() {
	// Setup structured logging
	logLevel := slog.LevelInfo
	if verbose {
		logLevel = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	})))

	cfgPath := resolveConfigPath()
	cfg, err := config.Load(cfgPath)
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		slog.Error("invalid config", "error", err)
		os.Exit(1)
	}

	agent := gateway.NewClient(cfg.Gateway.URL, cfg.Gateway.Token, cfg.Gateway.AgentID)

	channel, err := discord.New(cfg, agent)
	if err != nil {
		slog.Error("failed to initialize discord channel", "error", err)
		os.Exit(1)
	}
	if err := channel.Start(context.Background()); err != nil {
		slog.Error("failed to start discord channel", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sched := cron.New(cfg.Cron.Jobs, channel)
	sched.Start(ctx)

	var triggerSrv *httpapi.Server
	if cfg.Trigger.Enabled {
		handler := httpapi.NewTriggerHandler(channel, cfg.Trigger.Token, cfg.Trigger.RateLimitRPM)
		triggerSrv = httpapi.NewServer(cfg.Trigger.Host, cfg.Trigger.Port, handler)
		if err := triggerSrv.Start(); err != nil {
			slog.Error("failed to start trigger endpoint", "error", err)
			os.Exit(1)
		}
	}

	slog.Info("clawbridge started",
		"version", Version,
		"guild", cfg.Discord.GuildID,
		"channels", len(cfg.Discord.Channels),
		"cron_jobs", len(cfg.Cron.Jobs),
		"trigger", cfg.Trigger.Enabled,
	)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	slog.Info("graceful shutdown initiated", "signal", sig)

	sched.Stop()
	if triggerSrv != nil {
		shutCtx, shutCancel := context.WithTimeout(context.Background(), shutdownTimeout)
		if err := triggerSrv.Shutdown(shutCtx); err != nil {
			slog.Warn("trigger endpoint shutdown failed", "error", err)
		}
		shutCancel()
	}
	if err := channel.Stop(context.Background()); err != nil {
		slog.Warn("discord channel shutdown failed", "error", err)
	}
	slog.Info("clawbridge stopped")
}
