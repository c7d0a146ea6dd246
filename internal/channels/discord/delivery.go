package discord

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/clawbridge/clawbridge/internal/channels"
)

// threadAutoArchiveMinutes is the Discord auto-archive duration for reply
// threads created for long responses.
const threadAutoArchiveMinutes = 60

// deliver hands a backend reply to the originating channel.
//
// Single chunk: direct reply to the originating message. Multiple chunks in
// a thread-capable channel: a new thread rooted at the message, chunks sent
// into it in order. Thread creation failure, or a channel without threads
// (DMs): sequential direct replies. Sends are sequential so the recipient
// always reads chunks in original-text order.
func (c *Channel) deliver(m *discordgo.MessageCreate, reply string) {
	chunks := channels.SplitMessage(reply, channels.DefaultChunkLimit)

	if len(chunks) == 1 {
		channels.BestEffort("reply send", func() error {
			_, err := c.api.ChannelMessageSendReply(m.ChannelID, chunks[0], m.Reference())
			return err
		})
		return
	}

	// DMs cannot host threads; guild text channels can.
	if m.GuildID != "" {
		thread, err := c.api.MessageThreadStartComplex(m.ChannelID, m.ID, &discordgo.ThreadStart{
			Name:                threadTitle(m),
			AutoArchiveDuration: threadAutoArchiveMinutes,
		})
		if err == nil {
			for _, chunk := range chunks {
				channels.BestEffort("thread send", func() error {
					_, sendErr := c.api.ChannelMessageSend(thread.ID, chunk)
					return sendErr
				})
			}
			return
		}
		slog.Warn("thread creation failed, falling back to channel replies",
			"channel_id", m.ChannelID, "error", err)
	}

	for _, chunk := range chunks {
		channels.BestEffort("reply send", func() error {
			_, err := c.api.ChannelMessageSendReply(m.ChannelID, chunk, m.Reference())
			return err
		})
	}
}

// threadTitle names a reply thread after the sender and the current date.
func threadTitle(m *discordgo.MessageCreate) string {
	return fmt.Sprintf("%s %s", resolveDisplayName(m), time.Now().Format("2006-01-02"))
}
