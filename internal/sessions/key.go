// Package sessions — session key builder and parser.
//
// Session keys follow the canonical gateway format:
//
//	agent:{agentId}:{platform}:{channelName}
//
// Examples:
//
//	agent:main:discord:general
//	agent:main:discord:direct:386246614
//
// The key binds one (agent, logical channel) pair to one conversation context
// on the backend. Keys are derived on every inbound event and never cached,
// so they can never drift from the current channel mapping.
package sessions

import (
	"fmt"
	"strings"
)

// Platform is the transport segment of every session key produced by this
// bridge. The bridge is Discord-only; the segment exists so the backend can
// keep per-platform contexts apart.
const Platform = "discord"

// BuildSessionKey builds the canonical session key for a logical channel.
//
//	agent:{agentId}:discord:{channelName}
func BuildSessionKey(agentID, channelName string) string {
	return fmt.Sprintf("agent:%s:%s:%s", agentID, Platform, channelName)
}

// DirectChannelName returns the logical channel name used for a DM
// conversation with the given sender.
//
//	direct:{senderId}
func DirectChannelName(senderID string) string {
	return "direct:" + senderID
}

// ParseSessionKey extracts the agentID and rest from a canonical session key.
// Returns ("", "") if the key is not in the expected format.
func ParseSessionKey(key string) (agentID, rest string) {
	parts := strings.SplitN(key, ":", 3)
	if len(parts) < 3 || parts[0] != "agent" {
		return "", ""
	}
	return parts[1], parts[2]
}
