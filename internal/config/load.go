package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/titanous/json5"
)

// Load reads config from a JSON5 file, then overlays env vars.
// A missing file is not an error — env vars alone can configure the bridge;
// Validate decides whether the result is runnable.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg.applyEnvOverrides()
			return cfg, nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}

	if err := json5.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	cfg.applyEnvOverrides()
	return cfg, nil
}

// applyEnvOverrides overlays env vars onto the config.
// Env vars take precedence over file values.
func (c *Config) applyEnvOverrides() {
	envStr := func(key string, dst *string) {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}
	envStr("CLAWBRIDGE_DISCORD_TOKEN", &c.Discord.Token)
	envStr("CLAWBRIDGE_GUILD_ID", &c.Discord.GuildID)
	envStr("CLAWBRIDGE_DM_POLICY", &c.Discord.DMPolicy)

	envStr("CLAWBRIDGE_GATEWAY_URL", &c.Gateway.URL)
	envStr("CLAWBRIDGE_GATEWAY_TOKEN", &c.Gateway.Token)
	envStr("CLAWBRIDGE_AGENT_ID", &c.Gateway.AgentID)

	envStr("CLAWBRIDGE_TRIGGER_TOKEN", &c.Trigger.Token)
	envStr("CLAWBRIDGE_TRIGGER_HOST", &c.Trigger.Host)
	if v := os.Getenv("CLAWBRIDGE_TRIGGER_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil && port > 0 {
			c.Trigger.Port = port
		}
	}
}
