package discord

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/bwmarrin/discordgo"

	"github.com/clawbridge/clawbridge/internal/channels"
)

// Proactive-post failures returned to external callers (trigger endpoint,
// cron jobs). None of these are retried internally.
var (
	ErrNotInitialized       = errors.New("discord session not initialized")
	ErrChannelNotConfigured = errors.New("channel not configured")
	ErrNotTextChannel       = errors.New("channel cannot accept text messages")
)

// PostToChannel posts a message into a named channel without an originating
// event: fire-and-forget into an existing channel, chunked at the same limit
// as reply delivery, sequential, never threaded. Returns the number of
// chunks sent.
func (c *Channel) PostToChannel(ctx context.Context, channelName, message string) (int, error) {
	if !c.running.Load() {
		return 0, ErrNotInitialized
	}

	channelID, ok := c.cfg.ChannelIDByName(channelName)
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrChannelNotConfigured, channelName)
	}

	ch, err := c.api.Channel(channelID)
	if err != nil {
		return 0, fmt.Errorf("resolve channel %s: %w", channelName, err)
	}
	if !isTextChannel(ch.Type) {
		return 0, fmt.Errorf("%w: %s", ErrNotTextChannel, channelName)
	}

	chunks := channels.SplitMessage(message, channels.DefaultChunkLimit)
	for i, chunk := range chunks {
		if _, err := c.api.ChannelMessageSend(channelID, chunk); err != nil {
			return i, fmt.Errorf("send chunk %d/%d to %s: %w", i+1, len(chunks), channelName, err)
		}
	}

	slog.Info("proactive post delivered", "channel", channelName, "chunks", len(chunks))
	return len(chunks), nil
}

func isTextChannel(t discordgo.ChannelType) bool {
	switch t {
	case discordgo.ChannelTypeGuildText, discordgo.ChannelTypeGuildNews,
		discordgo.ChannelTypeDM, discordgo.ChannelTypeGroupDM,
		discordgo.ChannelTypeGuildPublicThread, discordgo.ChannelTypeGuildPrivateThread,
		discordgo.ChannelTypeGuildNewsThread:
		return true
	}
	return false
}
