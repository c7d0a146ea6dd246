// Package config loads and validates the bridge configuration: a JSON5 file
// merged over defaults, then env var overrides. The resolved Config is
// immutable for the process lifetime — there is no reload.
package config

import (
	"encoding/json"
	"fmt"

	"github.com/adhocore/gronx"
)

// FlexibleStringSlice accepts both ["str"] and [123] in JSON.
// Discord snowflake IDs are often written unquoted in hand-edited configs.
type FlexibleStringSlice []string

func (f *FlexibleStringSlice) UnmarshalJSON(data []byte) error {
	var ss []string
	if err := json.Unmarshal(data, &ss); err == nil {
		*f = ss
		return nil
	}
	var raw []interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	result := make([]string, 0, len(raw))
	for _, v := range raw {
		switch val := v.(type) {
		case string:
			result = append(result, val)
		case float64:
			result = append(result, fmt.Sprintf("%.0f", val))
		default:
			result = append(result, fmt.Sprintf("%v", val))
		}
	}
	*f = result
	return nil
}

// Config is the root configuration for the bridge.
type Config struct {
	Discord DiscordConfig `json:"discord"`
	Gateway GatewayConfig `json:"gateway"`
	Trigger TriggerConfig `json:"trigger"`
	Cron    CronConfig    `json:"cron,omitempty"`

	channelNames map[string]string // channel ID → logical name, built by finalize
	postOnly     map[string]bool   // logical name set
}

// DiscordConfig is the routing table: one guild, a logical-name → channel-ID
// mapping, the post-only set, and the sender access policy.
type DiscordConfig struct {
	Token     string              `json:"token"`
	GuildID   string              `json:"guild_id"`
	Channels  map[string]string   `json:"channels"`            // logical name → channel ID
	PostOnly  FlexibleStringSlice `json:"post_only,omitempty"` // names the bridge posts to but never reads from
	DMPolicy  string              `json:"dm_policy,omitempty"` // "allowlist" (default), "open"
	AllowFrom FlexibleStringSlice `json:"allow_from,omitempty"`
}

// GatewayConfig points at the backend agent endpoint.
type GatewayConfig struct {
	URL     string `json:"url,omitempty"`
	Token   string `json:"token,omitempty"`
	AgentID string `json:"agent_id,omitempty"`
}

// TriggerConfig configures the HTTP endpoint external schedulers use for
// proactive posts. Token falls back to the gateway token when empty.
type TriggerConfig struct {
	Enabled      bool   `json:"enabled"`
	Host         string `json:"host,omitempty"`
	Port         int    `json:"port,omitempty"`
	Token        string `json:"token,omitempty"`
	RateLimitRPM int    `json:"rate_limit_rpm,omitempty"`
}

// CronConfig declares scheduled proactive posts.
type CronConfig struct {
	Jobs []CronJob `json:"jobs,omitempty"`
}

// CronJob posts a fixed message into a configured channel on a cron schedule.
type CronJob struct {
	Name     string `json:"name"`
	Schedule string `json:"schedule"` // standard 5-field cron expression
	Channel  string `json:"channel"`  // logical channel name
	Message  string `json:"message"`
}

// Default returns a Config with sensible defaults.
func Default() *Config {
	return &Config{
		Discord: DiscordConfig{
			DMPolicy: "allowlist",
		},
		Gateway: GatewayConfig{
			URL:     "http://127.0.0.1:18790",
			AgentID: "main",
		},
		Trigger: TriggerConfig{
			Host:         "127.0.0.1",
			Port:         18791,
			RateLimitRPM: 20,
		},
	}
}

// Validate checks the startup invariants. Any error here is fatal: the
// bridge must not start on a partial configuration.
func (c *Config) Validate() error {
	if c.Discord.Token == "" {
		return fmt.Errorf("discord.token is required")
	}
	if c.Discord.GuildID == "" {
		return fmt.Errorf("discord.guild_id is required")
	}
	if len(c.Discord.Channels) == 0 {
		return fmt.Errorf("discord.channels must map at least one channel")
	}
	switch c.Discord.DMPolicy {
	case "", "allowlist", "open":
	default:
		return fmt.Errorf("discord.dm_policy %q: must be \"allowlist\" or \"open\"", c.Discord.DMPolicy)
	}
	for _, name := range c.Discord.PostOnly {
		if _, ok := c.Discord.Channels[name]; !ok {
			return fmt.Errorf("discord.post_only channel %q is not in discord.channels", name)
		}
	}

	seen := make(map[string]string, len(c.Discord.Channels))
	for name, id := range c.Discord.Channels {
		if id == "" {
			return fmt.Errorf("discord.channels[%q]: empty channel ID", name)
		}
		if other, dup := seen[id]; dup {
			return fmt.Errorf("discord.channels: %q and %q map to the same channel ID %s", other, name, id)
		}
		seen[id] = name
	}

	gron := gronx.New()
	for i, job := range c.Cron.Jobs {
		if job.Name == "" {
			return fmt.Errorf("cron.jobs[%d]: name is required", i)
		}
		if job.Message == "" {
			return fmt.Errorf("cron job %q: message is required", job.Name)
		}
		if _, ok := c.Discord.Channels[job.Channel]; !ok {
			return fmt.Errorf("cron job %q: channel %q is not in discord.channels", job.Name, job.Channel)
		}
		if !gron.IsValid(job.Schedule) {
			return fmt.Errorf("cron job %q: invalid schedule %q", job.Name, job.Schedule)
		}
	}

	c.finalize()
	return nil
}

// finalize resolves derived state: the trigger token fallback, the post-only
// set, and the reverse channel-ID → name map (built once so per-event lookup
// is not a linear scan).
func (c *Config) finalize() {
	if c.Trigger.Token == "" {
		c.Trigger.Token = c.Gateway.Token
	}
	c.channelNames = make(map[string]string, len(c.Discord.Channels))
	for name, id := range c.Discord.Channels {
		c.channelNames[id] = name
	}
	c.postOnly = make(map[string]bool, len(c.Discord.PostOnly))
	for _, name := range c.Discord.PostOnly {
		c.postOnly[name] = true
	}
}

// ChannelNameByID resolves a platform channel ID to its logical name.
func (c *Config) ChannelNameByID(id string) (string, bool) {
	name, ok := c.channelNames[id]
	return name, ok
}

// ChannelIDByName resolves a logical channel name to its platform ID.
func (c *Config) ChannelIDByName(name string) (string, bool) {
	id, ok := c.Discord.Channels[name]
	return id, ok
}

// IsPostOnly reports whether the named channel is write-only for the bridge.
func (c *Config) IsPostOnly(name string) bool {
	return c.postOnly[name]
}
