// Package gateway is the HTTP client for the backend conversational agent.
// One inbound chat event maps to exactly one POST; there are no retries and
// no timeout beyond the transport default, so the backend only needs to be
// idempotent per session key if a caller layers its own retry on top.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// EmptyReplyPlaceholder is delivered when the backend answers 2xx without a
// text field. The bridge always produces some deliverable reply after a
// successful HTTP exchange.
const EmptyReplyPlaceholder = "(the agent returned an empty reply)"

// unreadableBody substitutes for a response body that could not be read while
// building an Error; the error path must not fail itself.
const unreadableBody = "(unreadable response body)"

// Error is a failed gateway exchange: a transport-level failure wrapped by
// the caller, or a non-2xx HTTP status with the response body.
type Error struct {
	Status int
	Body   string
}

func (e *Error) Error() string {
	return fmt.Sprintf("gateway returned %d: %s", e.Status, e.Body)
}

// Request carries one user message to the backend agent.
type Request struct {
	Message     string
	SessionKey  string
	ChannelName string
	SenderID    string
}

// Response is the backend agent's reply.
type Response struct {
	Text       string `json:"text"`
	SessionKey string `json:"sessionKey"`
}

type chatPayload struct {
	Message    string       `json:"message"`
	SessionKey string       `json:"sessionKey"`
	Metadata   chatMetadata `json:"metadata"`
}

type chatMetadata struct {
	Channel     string `json:"channel"`
	ChannelName string `json:"channelName"`
	UserID      string `json:"userId"`
}

// Client talks to one backend agent endpoint.
type Client struct {
	endpoint string
	token    string
	agentID  string
	client   *http.Client
}

// NewClient creates a gateway client for the given endpoint and agent.
func NewClient(endpoint, token, agentID string) *Client {
	return &Client{
		endpoint: strings.TrimSuffix(endpoint, "/"),
		token:    token,
		agentID:  agentID,
		client:   &http.Client{Timeout: 120 * time.Second},
	}
}

// Chat sends one message and returns the agent's reply text.
// Non-2xx statuses and transport failures surface as *Error.
func (c *Client) Chat(ctx context.Context, req Request) (string, error) {
	payload := chatPayload{
		Message:    req.Message,
		SessionKey: req.SessionKey,
		Metadata: chatMetadata{
			Channel:     "discord",
			ChannelName: req.ChannelName,
			UserID:      req.SenderID,
		},
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("gateway: marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/agents/%s/chat", c.endpoint, c.agentID)
	httpReq, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("gateway: create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("gateway: request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body := unreadableBody
		if b, readErr := io.ReadAll(resp.Body); readErr == nil {
			body = string(b)
		}
		return "", &Error{Status: resp.StatusCode, Body: body}
	}

	var reply Response
	if err := json.NewDecoder(resp.Body).Decode(&reply); err != nil || reply.Text == "" {
		// A successful exchange always yields a deliverable reply.
		return EmptyReplyPlaceholder, nil
	}
	return reply.Text, nil
}
