// Package discord connects the bridge to Discord via the Bot API using
// gateway events. It carries the inbound dispatch pipeline (routing, access
// filtering, backend call) and the reply delivery strategy.
package discord

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/google/uuid"

	"github.com/clawbridge/clawbridge/internal/channels"
	"github.com/clawbridge/clawbridge/internal/channels/typing"
	"github.com/clawbridge/clawbridge/internal/config"
	"github.com/clawbridge/clawbridge/internal/gateway"
	"github.com/clawbridge/clawbridge/internal/sessions"
)

// deniedReaction is the best-effort acknowledgement shown to senders the
// access policy rejects.
const deniedReaction = "🚫"

// api is the slice of discordgo.Session the dispatcher and delivery paths
// use. *discordgo.Session satisfies it; tests substitute a fake.
type api interface {
	ChannelMessageSend(channelID string, content string, options ...discordgo.RequestOption) (*discordgo.Message, error)
	ChannelMessageSendReply(channelID string, content string, reference *discordgo.MessageReference, options ...discordgo.RequestOption) (*discordgo.Message, error)
	MessageReactionAdd(channelID, messageID, emojiID string, options ...discordgo.RequestOption) error
	ChannelTyping(channelID string, options ...discordgo.RequestOption) error
	MessageThreadStartComplex(channelID, messageID string, data *discordgo.ThreadStart, options ...discordgo.RequestOption) (*discordgo.Channel, error)
	Channel(channelID string, options ...discordgo.RequestOption) (*discordgo.Channel, error)
}

// agentClient is the backend call made per dispatched event.
type agentClient interface {
	Chat(ctx context.Context, req gateway.Request) (string, error)
}

// Channel is the bridge's Discord connection.
type Channel struct {
	cfg     *config.Config
	session *discordgo.Session // lifecycle owner; nil in tests
	api     api
	agent   agentClient

	guildPolicy channels.AccessPolicy
	dmPolicy    channels.AccessPolicy
	limiter     *channels.SenderRateLimiter

	botUserID string
	running   atomic.Bool // set once on successful Open, cleared once on Stop
	ctx       context.Context
}

// New creates the Discord channel from config. The session is created but
// not opened; call Start.
func New(cfg *config.Config, agent *gateway.Client) (*Channel, error) {
	session, err := discordgo.New("Bot " + cfg.Discord.Token)
	if err != nil {
		return nil, fmt.Errorf("create discord session: %w", err)
	}

	session.Identify.Intents = discordgo.IntentsGuildMessages |
		discordgo.IntentsDirectMessages |
		discordgo.IntentsMessageContent

	return &Channel{
		cfg:     cfg,
		session: session,
		api:     session,
		agent:   agent,
		guildPolicy: channels.AccessPolicy{
			Mode:      channels.PolicyAllowlist,
			AllowFrom: cfg.Discord.AllowFrom,
		},
		dmPolicy: channels.AccessPolicy{
			Mode:      channels.PolicyMode(cfg.Discord.DMPolicy),
			AllowFrom: cfg.Discord.AllowFrom,
		},
		limiter: channels.NewSenderRateLimiter(),
		ctx:     context.Background(),
	}, nil
}

// Start opens the Discord gateway connection and begins receiving events.
func (c *Channel) Start(ctx context.Context) error {
	slog.Info("starting discord bridge")
	c.ctx = ctx

	c.session.AddHandler(c.handleMessage)

	if err := c.session.Open(); err != nil {
		return fmt.Errorf("open discord session: %w", err)
	}

	user, err := c.session.User("@me")
	if err != nil {
		c.session.Close()
		return fmt.Errorf("fetch discord bot identity: %w", err)
	}
	c.botUserID = user.ID

	c.running.Store(true)
	slog.Info("discord bridge connected", "username", user.Username, "id", user.ID)
	return nil
}

// Stop closes the Discord gateway connection. In-flight dispatches run to
// completion; only new sends fail fast once running is cleared.
func (c *Channel) Stop(_ context.Context) error {
	slog.Info("stopping discord bridge")
	c.running.Store(false)
	return c.session.Close()
}

// IsRunning reports whether the connection is open.
func (c *Channel) IsRunning() bool { return c.running.Load() }

// handleMessage is the discordgo event handler. Each inbound event is
// dispatched in its own goroutine; there is no shared mutable state beyond
// the read-only config and the session handle.
func (c *Channel) handleMessage(_ *discordgo.Session, m *discordgo.MessageCreate) {
	if m == nil || m.Author == nil {
		return
	}
	// Never process our own (or any bot's) output — prevents feedback loops.
	if m.Author.ID == c.botUserID || m.Author.Bot {
		return
	}
	go c.dispatch(m)
}

// dispatch runs the per-event pipeline: routing, post-only gating, access
// filtering, backend call, delivery. Every platform side effect except the
// primary reply is best-effort.
func (c *Channel) dispatch(m *discordgo.MessageCreate) {
	senderID := m.Author.ID
	isDM := m.GuildID == ""

	if !isDM && m.GuildID != c.cfg.Discord.GuildID {
		return
	}

	var channelName string
	policy := c.dmPolicy
	if isDM {
		channelName = sessions.DirectChannelName(senderID)
	} else {
		name, ok := c.cfg.ChannelNameByID(m.ChannelID)
		if !ok {
			return
		}
		// Post-only channels are bot-authored; inbound text there is not
		// our business, so no denial signal either.
		if c.cfg.IsPostOnly(name) {
			return
		}
		channelName = name
		policy = c.guildPolicy
	}

	if !policy.Allows(senderID) {
		slog.Debug("discord message rejected by access policy",
			"sender_id", senderID,
			"channel", channelName,
		)
		channels.BestEffort("denial reaction", func() error {
			return c.api.MessageReactionAdd(m.ChannelID, m.ID, deniedReaction)
		})
		return
	}

	content := strings.TrimSpace(m.Content)
	if content == "" {
		return
	}

	if c.limiter != nil && !c.limiter.Allow(senderID) {
		slog.Warn("discord sender rate limited", "sender_id", senderID, "channel", channelName)
		return
	}

	runID := uuid.NewString()
	sessionKey := sessions.BuildSessionKey(c.cfg.Gateway.AgentID, channelName)

	slog.Debug("discord message received",
		"run_id", runID,
		"sender_id", senderID,
		"session_key", sessionKey,
		"preview", channels.Truncate(content, 50),
	)

	// Typing indicator with keepalive + TTL safety net. Discord typing
	// expires after 10s, so keepalive every 9s; TTL auto-stops after 60s.
	typingCtrl := typing.New(typing.Options{
		MaxDuration:       60 * time.Second,
		KeepaliveInterval: 9 * time.Second,
		StartFn: func() error {
			return c.api.ChannelTyping(m.ChannelID)
		},
	})
	typingCtrl.Start()
	defer typingCtrl.Stop()

	reply, err := c.agent.Chat(c.ctx, gateway.Request{
		Message:     content,
		SessionKey:  sessionKey,
		ChannelName: channelName,
		SenderID:    senderID,
	})
	if err != nil {
		slog.Error("gateway call failed", "run_id", runID, "session_key", sessionKey, "error", err)
		channels.BestEffort("gateway error reply", func() error {
			_, sendErr := c.api.ChannelMessageSend(m.ChannelID, fmt.Sprintf("⚠️ Agent request failed: %v", err))
			return sendErr
		})
		return
	}

	c.deliver(m, reply)
}

// resolveDisplayName returns the best available display name for a message
// author. Priority: server nickname > global display name > username.
func resolveDisplayName(m *discordgo.MessageCreate) string {
	if m.Member != nil && m.Member.Nick != "" {
		return m.Member.Nick
	}
	if m.Author.GlobalName != "" {
		return m.Author.GlobalName
	}
	return m.Author.Username
}
