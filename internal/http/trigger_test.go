package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clawbridge/clawbridge/internal/channels/discord"
)

type fakePoster struct {
	chunks   int
	err      error
	channels []string
	messages []string
}

func (f *fakePoster) PostToChannel(_ context.Context, channelName, message string) (int, error) {
	f.channels = append(f.channels, channelName)
	f.messages = append(f.messages, message)
	return f.chunks, f.err
}

func doPost(t *testing.T, h *TriggerHandler, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	mux := http.NewServeMux()
	h.RegisterRoutes(mux)

	var buf bytes.Buffer
	switch b := body.(type) {
	case string:
		buf.WriteString(b)
	default:
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	req := httptest.NewRequest(http.MethodPost, "/post", &buf)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	return rec
}

func TestTriggerPost(t *testing.T) {
	poster := &fakePoster{chunks: 3}
	h := NewTriggerHandler(poster, "secret", 0)

	rec := doPost(t, h, "secret", postRequest{Channel: "general", Message: "hello"})

	require.Equal(t, http.StatusOK, rec.Code)
	var resp map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, true, resp["ok"])
	assert.Equal(t, float64(3), resp["chunks"])
	assert.Equal(t, []string{"general"}, poster.channels)
	assert.Equal(t, []string{"hello"}, poster.messages)
}

func TestTriggerAuth(t *testing.T) {
	poster := &fakePoster{}
	h := NewTriggerHandler(poster, "secret", 0)

	t.Run("missing token", func(t *testing.T) {
		rec := doPost(t, h, "", postRequest{Channel: "general", Message: "hi"})
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Empty(t, poster.channels)
	})

	t.Run("wrong token", func(t *testing.T) {
		rec := doPost(t, h, "nope", postRequest{Channel: "general", Message: "hi"})
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Empty(t, poster.channels)
	})

	t.Run("empty configured token denies everything", func(t *testing.T) {
		open := NewTriggerHandler(poster, "", 0)
		rec := doPost(t, open, "", postRequest{Channel: "general", Message: "hi"})
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

func TestTriggerBadRequest(t *testing.T) {
	h := NewTriggerHandler(&fakePoster{}, "secret", 0)

	t.Run("invalid json", func(t *testing.T) {
		rec := doPost(t, h, "secret", "{not json")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("missing fields", func(t *testing.T) {
		rec := doPost(t, h, "secret", postRequest{Channel: "general"})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestTriggerErrorMapping(t *testing.T) {
	cases := []struct {
		err    error
		status int
	}{
		{discord.ErrNotInitialized, http.StatusServiceUnavailable},
		{discord.ErrChannelNotConfigured, http.StatusNotFound},
		{discord.ErrNotTextChannel, http.StatusBadRequest},
		{errors.New("send exploded"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(tc.err.Error(), func(t *testing.T) {
			h := NewTriggerHandler(&fakePoster{err: tc.err}, "secret", 0)
			rec := doPost(t, h, "secret", postRequest{Channel: "general", Message: "hi"})
			assert.Equal(t, tc.status, rec.Code)
		})
	}
}

func TestTriggerRateLimit(t *testing.T) {
	// Burst of 5, then a sub-1-per-second refill: request 6 must be rejected.
	h := NewTriggerHandler(&fakePoster{chunks: 1}, "secret", 10)

	for i := 0; i < 5; i++ {
		rec := doPost(t, h, "secret", postRequest{Channel: "general", Message: fmt.Sprintf("m%d", i)})
		require.Equal(t, http.StatusOK, rec.Code, "request %d", i)
	}
	rec := doPost(t, h, "secret", postRequest{Channel: "general", Message: "overflow"})
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
}

func TestHealth(t *testing.T) {
	mux := http.NewServeMux()
	NewTriggerHandler(&fakePoster{}, "secret", 0).RegisterRoutes(mux)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}
