// Package channels holds the platform-independent pieces of the bridge:
// the sender access policy, the message chunker, and the best-effort
// side-effect helper. The Discord transport lives in the discord subpackage.
package channels

import "log/slog"

// PolicyMode controls how senders are admitted.
type PolicyMode string

const (
	// PolicyAllowlist admits only senders listed in AllowFrom. This is the
	// default; an empty allowlist denies everyone.
	PolicyAllowlist PolicyMode = "allowlist"
	// PolicyOpen admits every sender.
	PolicyOpen PolicyMode = "open"
)

// AccessPolicy decides whether a sender may trigger the agent.
// It has no knowledge of channels — channel-level gating (post-only
// exclusion) happens before the policy is consulted, so an unauthorized
// sender in a post-only channel is silently ignored rather than rejected.
type AccessPolicy struct {
	Mode      PolicyMode
	AllowFrom []string
}

// Allows reports whether senderID may trigger the agent.
func (p AccessPolicy) Allows(senderID string) bool {
	if p.Mode == PolicyOpen {
		return true
	}
	// allowlist (default): deny-all when the list is empty
	for _, allowed := range p.AllowFrom {
		if senderID == allowed {
			return true
		}
	}
	return false
}

// BestEffort runs a platform side effect whose failure must never propagate:
// typing indicators, reactions, fallback error replies. Failures are logged
// at debug and discarded.
func BestEffort(op string, fn func() error) {
	if err := fn(); err != nil {
		slog.Debug("best-effort operation failed", "op", op, "error", err)
	}
}

// Truncate shortens a string to maxLen, appending "..." if truncated.
func Truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
