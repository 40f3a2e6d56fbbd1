// Package telegram is a minimal Bot API client covering long polling and
// outbound messages.
package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"

	pkgerrors "github.com/pimtong/fieldworks-backend/pkg/errors"
)

const (
	defaultBaseURL        = "https://api.telegram.org"
	defaultPollTimeout    = 30 * time.Second
	defaultRequestTimeout = 10 * time.Second

	// ParseModeMarkdown matches the formatting used in assistant replies.
	ParseModeMarkdown = "Markdown"
)

var errBotTokenRequired = errors.New("telegram bot token is required")

// Client wraps the Telegram Bot API methods the assistant relies on.
type Client struct {
	httpClient  *http.Client
	baseURL     string
	token       string
	pollTimeout time.Duration
	limiter     *rate.Limiter
}

// Option configures optional client behavior.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithBaseURL overrides the Bot API base URL.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		trimmed := strings.TrimSpace(baseURL)
		if trimmed != "" {
			c.baseURL = trimmed
		}
	}
}

// WithPollTimeout sets the long-poll timeout passed to getUpdates.
func WithPollTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.pollTimeout = timeout
		}
	}
}

// WithSendLimit throttles outbound messages to the given rate. Telegram
// enforces roughly 30 messages per second per bot.
func WithSendLimit(perSecond float64, burst int) Option {
	return func(c *Client) {
		if perSecond > 0 && burst > 0 {
			c.limiter = rate.NewLimiter(rate.Limit(perSecond), burst)
		}
	}
}

// NewClient builds the Bot API client given a bot token.
func NewClient(token string, opts ...Option) (*Client, error) {
	trimmed := strings.TrimSpace(token)
	if trimmed == "" {
		return nil, errBotTokenRequired
	}

	client := &Client{
		token:       trimmed,
		baseURL:     defaultBaseURL,
		pollTimeout: defaultPollTimeout,
		httpClient:  &http.Client{Timeout: defaultRequestTimeout},
	}

	for _, opt := range opts {
		if opt != nil {
			opt(client)
		}
	}

	if client.httpClient == nil {
		client.httpClient = &http.Client{Timeout: defaultRequestTimeout}
	}
	if client.baseURL == "" {
		client.baseURL = defaultBaseURL
	}

	return client, nil
}

// Update is one entry from getUpdates.
type Update struct {
	UpdateID int64    `json:"update_id"`
	Message  *Message `json:"message"`
}

// Message is the inbound message payload.
type Message struct {
	MessageID int64  `json:"message_id"`
	Text      string `json:"text"`
	Chat      Chat   `json:"chat"`
	From      *User  `json:"from"`
}

// Chat identifies the conversation a message belongs to.
type Chat struct {
	ID int64 `json:"id"`
}

// User is the Telegram account that sent a message.
type User struct {
	ID        int64  `json:"id"`
	FirstName string `json:"first_name"`
	Username  string `json:"username"`
}

// SendMessageParams shapes an outbound sendMessage call.
type SendMessageParams struct {
	ChatID         int64  `json:"chat_id"`
	Text           string `json:"text"`
	ParseMode      string `json:"parse_mode,omitempty"`
	ReplyMarkup    any    `json:"reply_markup,omitempty"`
	DisablePreview bool   `json:"disable_web_page_preview,omitempty"`
}

// ReplyKeyboardRemove clears a previously sent custom keyboard.
type ReplyKeyboardRemove struct {
	RemoveKeyboard bool `json:"remove_keyboard"`
}

// GetUpdates long-polls for new updates after the given offset. The call
// blocks up to the configured poll timeout.
func (c *Client) GetUpdates(ctx context.Context, offset int64) ([]Update, error) {
	if c == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "telegram client not configured")
	}

	payload := struct {
		Offset         int64    `json:"offset,omitempty"`
		Timeout        int      `json:"timeout"`
		AllowedUpdates []string `json:"allowed_updates"`
	}{
		Offset:         offset,
		Timeout:        int(c.pollTimeout.Seconds()),
		AllowedUpdates: []string{"message"},
	}

	var updates []Update
	if err := c.call(ctx, "getUpdates", payload, &updates); err != nil {
		return nil, err
	}
	return updates, nil
}

// SendMessage posts a message, waiting on the send limiter first when one
// is configured.
func (c *Client) SendMessage(ctx context.Context, params SendMessageParams) error {
	if c == nil {
		return pkgerrors.New(pkgerrors.CodeDependency, "telegram client not configured")
	}
	if strings.TrimSpace(params.Text) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "message text is required")
	}

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "wait for send slot")
		}
	}

	return c.call(ctx, "sendMessage", params, nil)
}

func (c *Client) call(ctx context.Context, method string, payload any, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, fmt.Sprintf("marshal %s request", method))
	}

	endpoint := fmt.Sprintf("%s/bot%s/%s", strings.TrimRight(c.baseURL, "/"), c.token, method)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, fmt.Sprintf("build %s request", method))
	}
	httpReq.Header.Set("Content-Type", "application/json")

	// getUpdates holds the connection open for the poll timeout, so the
	// per-request deadline must exceed it.
	client := c.httpClient
	if method == "getUpdates" && client.Timeout > 0 && client.Timeout <= c.pollTimeout {
		clone := *client
		clone.Timeout = c.pollTimeout + defaultRequestTimeout
		client = &clone
	}

	resp, err := client.Do(httpReq)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, fmt.Sprintf("execute %s request", method))
	}
	defer func() { _ = resp.Body.Close() }()

	var apiResp struct {
		OK          bool            `json:"ok"`
		Result      json.RawMessage `json:"result"`
		Description string          `json:"description"`
		ErrorCode   int             `json:"error_code"`
	}
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&apiResp); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, fmt.Sprintf("decode %s response", method))
	}
	if !apiResp.OK {
		cause := fmt.Errorf("error %d: %s", apiResp.ErrorCode, apiResp.Description)
		if apiResp.ErrorCode == http.StatusTooManyRequests {
			return pkgerrors.Wrap(pkgerrors.CodeRateLimit, cause, fmt.Sprintf("%s throttled", method))
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, cause, fmt.Sprintf("%s failed", method))
	}

	if out != nil && len(apiResp.Result) > 0 {
		if err := json.Unmarshal(apiResp.Result, out); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, fmt.Sprintf("decode %s result", method))
		}
	}
	return nil
}
