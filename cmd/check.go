package cmd

import (
	"fmt"
	"os"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/clawbridge/clawbridge/internal/config"
)

func checkCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Check configuration health without connecting to Discord",
		Run: func(cmd *cobra.Command, args []string) {
			runCheck()
		},
	}
}

func runCheck() {
	fmt.Println("clawbridge check")
	fmt.Printf("  Version:  %s\n", Version)
	fmt.Printf("  OS:       %s/%s\n", runtime.GOOS, runtime.GOARCH)
	fmt.Printf("  Go:       %s\n", runtime.Version())
	fmt.Println()

	cfgPath := resolveConfigPath()
	fmt.Printf("  Config:   %s", cfgPath)
	if _, err := os.Stat(cfgPath); err != nil {
		fmt.Println(" (NOT FOUND, using defaults + env)")
	} else {
		fmt.Println(" (OK)")
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		fmt.Printf("  Config load error: %s\n", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		fmt.Printf("  Config invalid: %s\n", err)
		os.Exit(1)
	}

	fmt.Println()
	fmt.Println("  Discord:")
	fmt.Printf("    %-12s %s\n", "Guild:", cfg.Discord.GuildID)
	fmt.Printf("    %-12s %d mapped\n", "Channels:", len(cfg.Discord.Channels))
	for name, id := range cfg.Discord.Channels {
		mode := "chat"
		if cfg.IsPostOnly(name) {
			mode = "post-only"
		}
		fmt.Printf("      %-18s %s (%s)\n", name, id, mode)
	}
	dmPolicy := cfg.Discord.DMPolicy
	if dmPolicy == "" {
		dmPolicy = "allowlist"
	}
	fmt.Printf("    %-12s %s (%d senders allowed)\n", "DM policy:", dmPolicy, len(cfg.Discord.AllowFrom))

	fmt.Println()
	fmt.Println("  Gateway:")
	fmt.Printf("    %-12s %s\n", "URL:", cfg.Gateway.URL)
	fmt.Printf("    %-12s %s\n", "Agent:", cfg.Gateway.AgentID)

	fmt.Println()
	fmt.Println("  Trigger:")
	if cfg.Trigger.Enabled {
		fmt.Printf("    %-12s %s:%d (rate limit %d rpm)\n", "Listen:", cfg.Trigger.Host, cfg.Trigger.Port, cfg.Trigger.RateLimitRPM)
	} else {
		fmt.Printf("    %-12s disabled\n", "Status:")
	}

	if len(cfg.Cron.Jobs) > 0 {
		fmt.Println()
		fmt.Println("  Cron:")
		for _, job := range cfg.Cron.Jobs {
			fmt.Printf("    %-18s %-14s → #%s\n", job.Name, job.Schedule, job.Channel)
		}
	}

	fmt.Println()
	fmt.Println("  Configuration OK")
}
