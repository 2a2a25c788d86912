package telegram

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"unicode/utf16"

	"github.com/deppfellow/storeops/internal/config"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(url, token, chat string) *Client {
	cfg := config.Default()
	cfg.Integration.TelegramAPIURL = url
	cfg.Integration.TelegramBotToken = token
	cfg.Integration.TelegramChatID = chat
	logger := zerolog.Nop()
	return NewClient(cfg, &logger)
}

func TestSplitMessage(t *testing.T) {
	tests := []struct {
		name  string
		text  string
		limit int
		want  []string
	}{
		{"fits", "a\nb", 10, []string{"a\nb"}},
		{"line boundaries", "aaaa\nbbbb\ncccc", 10, []string{"aaaa\nbbbb", "cccc"}},
		{"long line cut", "abcdefghij\nxy", 4, []string{"abcd", "efgh", "ij", "xy"}},
		{"runes not bytes", "ééé\nééé", 4, []string{"ééé", "ééé"}},
		{"astral runes count twice", "🛒🛒\n🛒🛒", 4, []string{"🛒🛒", "🛒🛒"}},
		{"long line keeps surrogate pairs", "a🛒🛒🛒", 4, []string{"a🛒", "🛒🛒"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SplitMessage(tt.text, tt.limit)
			assert.Equal(t, tt.want, got)
			for _, p := range got {
				assert.LessOrEqual(t, len(utf16.Encode([]rune(p))), tt.limit)
			}
		})
	}
}

func TestSendMessage(t *testing.T) {
	var (
		mu   sync.Mutex
		got  []sendMessageRequest
		path string
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req sendMessageRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		mu.Lock()
		got = append(got, req)
		path = r.URL.Path
		mu.Unlock()
		_, _ = w.Write([]byte(`{"ok":true,"result":{}}`))
	}))
	defer srv.Close()

	c := newTestClient(srv.URL+"/", "123:abc", "-1001")
	require.True(t, c.Enabled())

	long := strings.Repeat(strings.Repeat("x", 99)+"\n", 60)
	require.NoError(t, c.SendMessage(context.Background(), long))

	assert.Equal(t, "/bot123:abc/sendMessage", path)
	require.Len(t, got, 2)
	assert.Equal(t, "-1001", got[0].ChatID)
	assert.True(t, got[0].DisableWebPagePreview)
	assert.Equal(t, 4000, len(got[0].Text)+1)
}

func TestSendMessage_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"ok":false,"error_code":400,"description":"Bad Request: chat not found"}`))
	}))
	defer srv.Close()

	err := newTestClient(srv.URL, "123:abc", "42").SendMessage(context.Background(), "hello")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "chat not found")
}

func TestSendMessage_Disabled(t *testing.T) {
	c := newTestClient("http://127.0.0.1:1", "", "")
	assert.False(t, c.Enabled())
	assert.NoError(t, c.SendMessage(context.Background(), "would fail if sent"))
}

func TestSendMessage_TokenNotLeaked(t *testing.T) {
	c := newTestClient("http://127.0.0.1:1", "secret-token", "42")
	err := c.SendMessage(context.Background(), "hello")
	require.Error(t, err)
	assert.NotContains(t, err.Error(), "secret-token")
}
