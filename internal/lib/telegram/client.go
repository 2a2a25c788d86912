// Package telegram pushes plain-text messages to a chat through the Telegram
// Bot API and formats the daily flight report sent there.
package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
	"unicode/utf16"

	"github.com/deppfellow/storeops/internal/config"
	"github.com/rs/zerolog"
)

// MaxMessageLength is the Bot API limit for one sendMessage text.
const MaxMessageLength = 4096

type Client struct {
	httpClient *http.Client
	apiURL     string
	token      string
	chatID     string
	logger     *zerolog.Logger
}

func NewClient(cfg *config.Config, logger *zerolog.Logger) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: 15 * time.Second},
		apiURL:     strings.TrimRight(cfg.Integration.TelegramAPIURL, "/"),
		token:      cfg.Integration.TelegramBotToken,
		chatID:     cfg.Integration.TelegramChatID,
		logger:     logger,
	}
}

// Enabled reports whether a bot token and chat are configured.
func (c *Client) Enabled() bool {
	return c.token != "" && c.chatID != ""
}

type sendMessageRequest struct {
	ChatID                string `json:"chat_id"`
	Text                  string `json:"text"`
	DisableWebPagePreview bool   `json:"disable_web_page_preview"`
}

type apiResponse struct {
	OK          bool   `json:"ok"`
	ErrorCode   int    `json:"error_code"`
	Description string `json:"description"`
}

// SendMessage posts text to the configured chat, split into as many messages
// as the length limit requires. When disabled the text is only logged.
func (c *Client) SendMessage(ctx context.Context, text string) error {
	if strings.TrimSpace(text) == "" {
		return nil
	}

	if !c.Enabled() {
		c.logger.Info().
			Str("text", text).
			Msg("telegram disabled, message not sent")
		return nil
	}

	parts := SplitMessage(text, MaxMessageLength)
	for i, part := range parts {
		if err := c.send(ctx, part); err != nil {
			return fmt.Errorf("telegram message part %d/%d: %w", i+1, len(parts), err)
		}
	}

	c.logger.Info().Int("parts", len(parts)).Msg("telegram message sent")
	return nil
}

func (c *Client) send(ctx context.Context, text string) error {
	body, err := json.Marshal(sendMessageRequest{
		ChatID:                c.chatID,
		Text:                  text,
		DisableWebPagePreview: true,
	})
	if err != nil {
		return err
	}

	url := fmt.Sprintf("%s/bot%s/sendMessage", c.apiURL, c.token)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		// The URL carries the token; keep it out of logs and errors.
		return fmt.Errorf("sendMessage request failed: %s", strings.ReplaceAll(err.Error(), c.token, "<token>"))
	}
	defer resp.Body.Close()

	var out apiResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return fmt.Errorf("sendMessage: status %d, undecodable body: %w", resp.StatusCode, err)
	}
	if resp.StatusCode != http.StatusOK || !out.OK {
		return fmt.Errorf("sendMessage: status %d: %s", resp.StatusCode, out.Description)
	}
	return nil
}

// SplitMessage cuts text into chunks of at most limit UTF-16 code units, the
// unit the Bot API counts, breaking on line boundaries. A single line longer
// than limit is cut mid-line, never inside a surrogate pair.
func SplitMessage(text string, limit int) []string {
	if utf16Len(text) <= limit {
		return []string{text}
	}

	var (
		parts   []string
		current strings.Builder
		size    int
	)
	flush := func() {
		if size > 0 {
			parts = append(parts, strings.TrimRight(current.String(), "\n"))
			current.Reset()
			size = 0
		}
	}

	for _, line := range strings.SplitAfter(text, "\n") {
		n := utf16Len(line)

		if n > limit {
			flush()
			var chunk strings.Builder
			width := 0
			for _, r := range line {
				w := utf16.RuneLen(r)
				if w < 1 {
					w = 1
				}
				if width+w > limit && width > 0 {
					parts = append(parts, chunk.String())
					chunk.Reset()
					width = 0
				}
				chunk.WriteRune(r)
				width += w
			}
			line = chunk.String()
			n = width
		}

		if size+n > limit {
			flush()
		}
		current.WriteString(line)
		size += n
	}
	flush()

	out := parts[:0]
	for _, p := range parts {
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func utf16Len(s string) int {
	return len(utf16.Encode([]rune(s)))
}
