package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClient_Chat_SendsWellFormedRequest(t *testing.T) {
	var gotPath, gotAuth string
	var gotBody map[string]any

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		json.NewEncoder(w).Encode(map[string]string{"text": "hello back", "sessionKey": "agent:main:discord:general"})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "secret", "main")
	text, err := c.Chat(context.Background(), Request{
		Message:     "hello",
		SessionKey:  "agent:main:discord:general",
		ChannelName: "general",
		SenderID:    "user-1",
	})
	require.NoError(t, err)
	assert.Equal(t, "hello back", text)

	assert.Equal(t, "/agents/main/chat", gotPath)
	assert.Equal(t, "Bearer secret", gotAuth)
	assert.Equal(t, "hello", gotBody["message"])
	assert.Equal(t, "agent:main:discord:general", gotBody["sessionKey"])
	meta, ok := gotBody["metadata"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "discord", meta["channel"])
	assert.Equal(t, "general", meta["channelName"])
	assert.Equal(t, "user-1", meta["userId"])
}

func TestClient_Chat_NonSuccessStatusIsTypedError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte("boom"))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "secret", "main")
	_, err := c.Chat(context.Background(), Request{Message: "hi", SessionKey: "k"})
	require.Error(t, err)

	var gwErr *Error
	require.True(t, errors.As(err, &gwErr))
	assert.Equal(t, 500, gwErr.Status)
	assert.Equal(t, "boom", gwErr.Body)
	assert.Contains(t, gwErr.Error(), "500")
	assert.Contains(t, gwErr.Error(), "boom")
}

func TestClient_Chat_MissingTextGetsPlaceholder(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"sessionKey":"k"}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "secret", "main")
	text, err := c.Chat(context.Background(), Request{Message: "hi", SessionKey: "k"})
	require.NoError(t, err)
	assert.Equal(t, EmptyReplyPlaceholder, text)
}

func TestClient_Chat_MalformedJSONGetsPlaceholder(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("not json"))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "secret", "main")
	text, err := c.Chat(context.Background(), Request{Message: "hi", SessionKey: "k"})
	require.NoError(t, err)
	assert.Equal(t, EmptyReplyPlaceholder, text)
}

func TestClient_Chat_TransportFailure(t *testing.T) {
	c := NewClient("http://127.0.0.1:1", "secret", "main")
	_, err := c.Chat(context.Background(), Request{Message: "hi", SessionKey: "k"})
	require.Error(t, err)

	var gwErr *Error
	assert.False(t, errors.As(err, &gwErr), "transport failures are wrapped, not HTTP errors")
}
