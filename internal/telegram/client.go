package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/nerrad567/hubibot/internal/infrastructure/config"
)

const (
	defaultAPIURL = "https://api.telegram.org"

	// MaxMessageLength is the Bot API limit for a message text, in runes.
	MaxMessageLength = 4096

	// pollSlack is added to the long poll timeout for the HTTP timeout.
	pollSlack = 10 * time.Second
)

// Client is a minimal Telegram Bot API client.
//
// Every call is a POST of a JSON body to <api_url>/bot<token>/<method>.
//
// Thread Safety:
//   - All methods are safe for concurrent use.
type Client struct {
	baseURL     string
	pollTimeout int
	httpClient  *http.Client
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithHTTPClient replaces the default http.Client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) { c.httpClient = hc }
}

// NewClient creates a Bot API client from the telegram settings.
func NewClient(cfg config.TelegramConfig, opts ...ClientOption) (*Client, error) {
	if strings.TrimSpace(cfg.Token) == "" {
		return nil, ErrNoToken
	}
	apiURL := strings.TrimRight(cfg.APIURL, "/")
	if apiURL == "" {
		apiURL = defaultAPIURL
	}
	pollTimeout := cfg.PollTimeout
	if pollTimeout < 0 {
		pollTimeout = 0
	}
	c := &Client{
		baseURL:     apiURL + "/bot" + cfg.Token,
		pollTimeout: pollTimeout,
		httpClient:  &http.Client{Timeout: time.Duration(pollTimeout)*time.Second + pollSlack},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// GetMe returns the bot's own user. It is a cheap way to check the token.
func (c *Client) GetMe(ctx context.Context) (*User, error) {
	var me User
	if err := c.call(ctx, "getMe", struct{}{}, &me); err != nil {
		return nil, err
	}
	return &me, nil
}

// GetUpdates long-polls for message updates with ids of at least offset.
func (c *Client) GetUpdates(ctx context.Context, offset int64) ([]Update, error) {
	req := getUpdatesRequest{
		Offset:         offset,
		Timeout:        c.pollTimeout,
		AllowedUpdates: []string{"message"},
	}
	var updates []Update
	if err := c.call(ctx, "getUpdates", req, &updates); err != nil {
		return nil, err
	}
	return updates, nil
}

// SendMessage sends text to a chat. parseMode is ParseModeNone or
// ParseModeMarkdown.
func (c *Client) SendMessage(ctx context.Context, chatID int64, text, parseMode string) error {
	req := sendMessageRequest{ChatID: chatID, Text: text, ParseMode: parseMode}
	return c.call(ctx, "sendMessage", req, nil)
}

// call posts params to method and decodes the result into result when
// result is non-nil.
func (c *Client) call(ctx context.Context, method string, params, result any) error {
	body, err := json.Marshal(params)
	if err != nil {
		return fmt.Errorf("encode %s: %w", method, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/"+method, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build %s request: %w", method, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		// The URL carries the token; report the method only.
		return fmt.Errorf("request %s: %w", method, unwrapURLError(err))
	}
	defer func() {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		_ = resp.Body.Close()
	}()

	var ar apiResponse
	if err := json.NewDecoder(resp.Body).Decode(&ar); err != nil {
		return fmt.Errorf("decode %s: status %d: %w", method, resp.StatusCode, err)
	}
	if !ar.OK {
		apiErr := &APIError{Method: method, Code: ar.ErrorCode, Description: ar.Description}
		if apiErr.Code == 0 {
			apiErr.Code = resp.StatusCode
		}
		if ar.Parameters != nil {
			apiErr.RetryAfter = ar.Parameters.RetryAfter
		}
		return apiErr
	}
	if result != nil && len(ar.Result) > 0 {
		if err := json.Unmarshal(ar.Result, result); err != nil {
			return fmt.Errorf("decode %s result: %w", method, err)
		}
	}
	return nil
}

// unwrapURLError strips the request URL from a *url.Error.
func unwrapURLError(err error) error {
	if ue, ok := err.(*url.Error); ok {
		return ue.Err
	}
	return err
}

// splitText breaks text into chunks of at most limit runes, preferring
// line boundaries.
func splitText(text string, limit int) []string {
	if len([]rune(text)) <= limit {
		return []string{text}
	}
	var (
		chunks []string
		cur    []rune
	)
	flush := func() {
		if len(cur) > 0 {
			chunks = append(chunks, string(cur))
			cur = cur[:0]
		}
	}
	for _, line := range strings.SplitAfter(text, "\n") {
		r := []rune(line)
		if len(cur)+len(r) > limit {
			flush()
		}
		for len(r) > limit {
			chunks = append(chunks, string(r[:limit]))
			r = r[limit:]
		}
		cur = append(cur, r...)
	}
	flush()
	for i, c := range chunks {
		chunks[i] = strings.TrimSuffix(c, "\n")
	}
	return chunks
}
