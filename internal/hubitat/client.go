package hubitat

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/nerrad567/hubibot/internal/device"
	"github.com/nerrad567/hubibot/internal/infrastructure/config"
)

const placeholderURL = "http://ipaddress"

// maxErrorBody bounds how much of an error response is kept.
const maxErrorBody = 512

// Client is a Hubitat Maker API client.
//
// Every request is a GET against <url>/apps/api/<appid>/<path> with the
// access token passed as the access_token query parameter.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithHTTPClient replaces the default http.Client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) { c.httpClient = hc }
}

// NewClient creates a Maker API client from the hubitat settings.
// It returns ErrNotConfigured while url and appid are placeholders.
func NewClient(cfg config.HubitatConfig, opts ...ClientOption) (*Client, error) {
	if cfg.URL == "" || strings.TrimRight(cfg.URL, "/") == placeholderURL || cfg.AppID <= 0 {
		return nil, ErrNotConfigured
	}
	timeout := cfg.RequestTimeout()
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	c := &Client{
		baseURL:    cfg.BaseURL(),
		token:      cfg.Token,
		httpClient: &http.Client{Timeout: timeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// BaseURL returns the Maker API base URL.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// ListInventory returns every device exposed to the Maker API app.
func (c *Client) ListInventory(ctx context.Context) ([]device.Record, error) {
	var entries []inventoryEntry
	if err := c.get(ctx, &entries, "devices", "all"); err != nil {
		return nil, err
	}
	records := make([]device.Record, 0, len(entries))
	for _, e := range entries {
		label := e.Label
		if label == "" {
			label = e.Name
		}
		records = append(records, device.Record{
			ID:       int(e.ID),
			Label:    label,
			Type:     e.Type,
			Commands: e.Commands,
		})
	}
	return records, nil
}

// SendCommand sends a native command to a device, with optional secondary
// values (for example setLevel 50).
func (c *Client) SendCommand(ctx context.Context, id int, command string, args ...string) error {
	segments := append([]string{"devices", strconv.Itoa(id), command}, args...)
	return c.get(ctx, nil, segments...)
}

// DeviceInfo returns the detailed description of a device.
func (c *Client) DeviceInfo(ctx context.Context, id int) (*DeviceInfo, error) {
	var info DeviceInfo
	if err := c.get(ctx, &info, "devices", strconv.Itoa(id)); err != nil {
		return nil, err
	}
	return &info, nil
}

// DeviceStatus returns the device's current attribute values sorted by name.
func (c *Client) DeviceStatus(ctx context.Context, id int) ([]Attribute, error) {
	info, err := c.DeviceInfo(ctx, id)
	if err != nil {
		return nil, err
	}
	attrs := append([]Attribute(nil), info.Attributes...)
	sortAttributes(attrs)
	return attrs, nil
}

// DeviceEvents returns the device's recent events, newest first.
func (c *Client) DeviceEvents(ctx context.Context, id int) ([]Event, error) {
	var events []Event
	if err := c.get(ctx, &events, "devices", strconv.Itoa(id), "events"); err != nil {
		return nil, err
	}
	return events, nil
}

// Modes returns the hub's location modes.
func (c *Client) Modes(ctx context.Context) ([]Mode, error) {
	var modes []Mode
	if err := c.get(ctx, &modes, "modes"); err != nil {
		return nil, err
	}
	return modes, nil
}

// SetMode activates a location mode.
func (c *Client) SetMode(ctx context.Context, id int) error {
	return c.get(ctx, nil, "modes", strconv.Itoa(id))
}

// HSMStatus returns the Hubitat Safety Monitor state, e.g. "disarmed".
func (c *Client) HSMStatus(ctx context.Context) (string, error) {
	var status struct {
		HSM string `json:"hsm"`
	}
	if err := c.get(ctx, &status, "hsm"); err != nil {
		return "", err
	}
	return status.HSM, nil
}

// SetHSM requests an arm state change, e.g. "armAway".
func (c *Client) SetHSM(ctx context.Context, value string) error {
	return c.get(ctx, nil, "hsm", value)
}

// get performs a GET request and decodes the JSON response into result
// when result is non-nil.
func (c *Client) get(ctx context.Context, result any, segments ...string) error {
	escaped := make([]string, len(segments))
	for i, s := range segments {
		escaped[i] = url.PathEscape(s)
	}
	path := "/" + strings.Join(escaped, "/")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	q := req.URL.Query()
	q.Set("access_token", c.token)
	req.URL.RawQuery = q.Encode()
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		// The URL carries the token; report the path only.
		return fmt.Errorf("request %s: %w", path, unwrapURLError(err))
	}
	defer func() {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return fmt.Errorf("%w: %s: status %d: %s", ErrAPI, path, resp.StatusCode, strings.TrimSpace(string(body)))
	}

	if result != nil {
		if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
			return fmt.Errorf("decode %s: %w", path, err)
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
