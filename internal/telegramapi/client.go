// Package telegramapi is a small Telegram Bot API client covering the calls
// the responder makes.
package telegramapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"
)

const (
	DefaultBaseURL     = "https://api.telegram.org"
	defaultHTTPTimeout = 60 * time.Second
	defaultPollTimeout = 30 * time.Second
	maxMessageRunes    = 3500
)

type Client struct {
	http    *http.Client
	baseURL string
	token   string
	logger  *slog.Logger
}

func New(httpClient *http.Client, baseURL, token string, logger *slog.Logger) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultHTTPTimeout}
	}
	if strings.TrimSpace(baseURL) == "" {
		baseURL = DefaultBaseURL
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		http:    httpClient,
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		logger:  logger,
	}
}

type envelope struct {
	OK          bool            `json:"ok"`
	Result      json.RawMessage `json:"result,omitempty"`
	ErrorCode   int             `json:"error_code,omitempty"`
	Description string          `json:"description,omitempty"`
}

// call posts payload as JSON to method and decodes the result into out.
func (c *Client) call(ctx context.Context, method string, payload any, out any) error {
	var body io.Reader
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("telegram %s: encode: %w", method, err)
		}
		body = bytes.NewReader(b)
	}
	url := fmt.Sprintf("%s/bot%s/%s", c.baseURL, c.token, method)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, body)
	if err != nil {
		return err
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	raw, _ := io.ReadAll(resp.Body)
	_ = resp.Body.Close()

	var env envelope
	decodeErr := json.Unmarshal(raw, &env)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 || decodeErr != nil || !env.OK {
		return &RequestError{
			Method:      method,
			StatusCode:  resp.StatusCode,
			ErrorCode:   env.ErrorCode,
			Description: env.Description,
			Body:        strings.TrimSpace(string(raw)),
		}
	}
	if out == nil || len(env.Result) == 0 {
		return nil
	}
	if err := json.Unmarshal(env.Result, out); err != nil {
		return fmt.Errorf("telegram %s: decode result: %w", method, err)
	}
	return nil
}

func (c *Client) GetMe(ctx context.Context) (User, error) {
	var me User
	if err := c.call(ctx, "getMe", nil, &me); err != nil {
		return User{}, err
	}
	return me, nil
}

type getUpdatesRequest struct {
	Offset         int64    `json:"offset,omitempty"`
	Timeout        int      `json:"timeout"`
	AllowedUpdates []string `json:"allowed_updates,omitempty"`
}

// GetUpdates long-polls for updates after offset and returns the offset to
// use next.
func (c *Client) GetUpdates(ctx context.Context, offset int64, timeout time.Duration) ([]Update, int64, error) {
	if timeout <= 0 {
		timeout = defaultPollTimeout
	}
	secs := max(int(timeout.Seconds()), 1)

	reqCtx, cancel := context.WithTimeout(ctx, timeout+5*time.Second)
	defer cancel()
	var updates []Update
	err := c.call(reqCtx, "getUpdates", getUpdatesRequest{
		Offset:         offset,
		Timeout:        secs,
		AllowedUpdates: []string{"message", "edited_message", "channel_post"},
	}, &updates)
	if err != nil {
		return nil, offset, err
	}
	next := offset
	for _, u := range updates {
		if u.UpdateID >= next {
			next = u.UpdateID + 1
		}
	}
	return updates, next, nil
}

type getChatMemberRequest struct {
	ChatID int64 `json:"chat_id"`
	UserID int64 `json:"user_id"`
}

func (c *Client) GetChatMember(ctx context.Context, chatID, userID int64) (ChatMember, error) {
	var member ChatMember
	if err := c.call(ctx, "getChatMember", getChatMemberRequest{ChatID: chatID, UserID: userID}, &member); err != nil {
		return ChatMember{}, err
	}
	return member, nil
}

// ChatMemberStatus returns the member's role in the chat.
func (c *Client) ChatMemberStatus(ctx context.Context, chatID, userID int64) (string, error) {
	member, err := c.GetChatMember(ctx, chatID, userID)
	if err != nil {
		return "", err
	}
	return member.Status, nil
}

type SendMessageRequest struct {
	ChatID                int64  `json:"chat_id"`
	Text                  string `json:"text"`
	ParseMode             string `json:"parse_mode,omitempty"`
	DisableWebPagePreview bool   `json:"disable_web_page_preview,omitempty"`
	ReplyToMessageID      int64  `json:"reply_to_message_id,omitempty"`
}

// SendText sends text in chunks Telegram accepts. A non-empty markdown is a
// MarkdownV2 rendering of text that is tried first when it fits one
// message; text is sent instead when Telegram rejects the entities.
func (c *Client) SendText(ctx context.Context, chatID int64, text, markdown string, disablePreview bool, replyTo int64) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	markdown = strings.TrimSpace(markdown)
	if markdown != "" && utf8.RuneCountInString(markdown) <= maxMessageRunes {
		req := SendMessageRequest{
			ChatID:                chatID,
			Text:                  markdown,
			ParseMode:             "MarkdownV2",
			DisableWebPagePreview: disablePreview,
			ReplyToMessageID:      replyTo,
		}
		err := c.call(ctx, "sendMessage", req, nil)
		if err == nil || !IsMarkdownParseError(err) {
			return err
		}
		c.logger.Warn("telegram_markdown_fallback", "chat_id", chatID, "error", err.Error())
	}
	for i, chunk := range splitRunes(text, maxMessageRunes) {
		req := SendMessageRequest{ChatID: chatID, Text: chunk, DisableWebPagePreview: disablePreview}
		if i == 0 {
			req.ReplyToMessageID = replyTo
		}
		if err := c.call(ctx, "sendMessage", req, nil); err != nil {
			return err
		}
	}
	return nil
}

// splitRunes cuts text into pieces of at most max runes, preferring line
// breaks.
func splitRunes(text string, max int) []string {
	var out []string
	for utf8.RuneCountInString(text) > max {
		runes := []rune(text)
		cut := max
		for i := max; i > max/2; i-- {
			if runes[i] == '\n' {
				cut = i
				break
			}
		}
		out = append(out, strings.TrimSpace(string(runes[:cut])))
		text = strings.TrimSpace(string(runes[cut:]))
	}
	if text != "" {
		out = append(out, text)
	}
	return out
}
