package transport

import (
	"context"
	"encoding/json"
	"guard-lab/domain"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/mama165/sdk-go/logs"

	"github.com/stretchr/testify/require"
)

func Test_APIClient_SendText(t *testing.T) {
	req := require.New(t)
	var gotPath string
	var gotBody map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		req.NoError(json.NewDecoder(r.Body).Decode(&gotBody))
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := NewAPIClient(server.URL, time.Second, logs.GetLoggerFromLevel(slog.LevelDebug))
	req.NoError(client.SendText(context.Background(), 42, "hello"))
	req.Equal("/sendText", gotPath)
	req.Equal(float64(42), gotBody["chat_id"])
	req.Equal("hello", gotBody["text"])
}

func Test_APIClient_ResolveUser(t *testing.T) {
	req := require.New(t)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		req.Equal("/resolveUser", r.URL.Path)
		_ = json.NewEncoder(w).Encode(wireUser{ID: 9, DisplayName: "Yara", Handle: "yara"})
	}))
	defer server.Close()

	client := NewAPIClient(server.URL, time.Second, logs.GetLoggerFromLevel(slog.LevelDebug))
	user, err := client.ResolveUser(context.Background(), "@yara")
	req.NoError(err)
	req.Equal(domain.User{ID: 9, DisplayName: "Yara", Handle: "yara"}, user)
}

func Test_APIClient_Surfaces_Platform_Errors(t *testing.T) {
	req := require.New(t)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer server.Close()

	client := NewAPIClient(server.URL, time.Second, logs.GetLoggerFromLevel(slog.LevelDebug))
	err := client.DeleteMessage(context.Background(), domain.MessageRef{ChatID: 1, MessageID: 2})
	req.Error(err)
	req.Contains(err.Error(), "deleteMessage")
}

func Test_APIClient_IsChatAdmin(t *testing.T) {
	req := require.New(t)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"admin":true}`))
	}))
	defer server.Close()

	client := NewAPIClient(server.URL, time.Second, logs.GetLoggerFromLevel(slog.LevelDebug))
	admin, err := client.IsChatAdmin(context.Background(), 100, 42)
	req.NoError(err)
	req.True(admin)
}
