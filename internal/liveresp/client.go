package liveresp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/arpitjain799/dissect.target/internal/profile"
	"github.com/arpitjain799/dissect.target/pkg/types"
)

const (
	defaultPollInterval = time.Second
	defaultStartTimeout = 5 * time.Minute
	maxErrorBody        = 512
	deviceSearchRows    = 1000
)

// ErrDeviceNotFound indicates no sensor matched the requested host.
var ErrDeviceNotFound = &types.Error{
	Kind: types.ErrKindLoader,
	Msg:  "device not found",
}

// Client talks to one Carbon Black Cloud instance on behalf of one org.
type Client struct {
	baseURL      string
	token        string
	orgKey       string
	hc           *http.Client
	log          zerolog.Logger
	pollInterval time.Duration
	startTimeout time.Duration
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient substitutes the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.hc = hc }
}

// WithLogger sets the client logger.
func WithLogger(log zerolog.Logger) Option {
	return func(c *Client) { c.log = log }
}

// WithPollInterval tunes how often asynchronous commands and pending
// sessions are polled.
func WithPollInterval(d time.Duration) Option {
	return func(c *Client) { c.pollInterval = d }
}

// WithStartTimeout bounds how long StartSession waits for a sensor to
// check in.
func WithStartTimeout(d time.Duration) Option {
	return func(c *Client) { c.startTimeout = d }
}

// NewClient builds a client from a resolved credential profile.
func NewClient(p profile.Profile, opts ...Option) *Client {
	c := &Client{
		baseURL:      strings.TrimSuffix(p.URL, "/"),
		token:        p.Token,
		orgKey:       p.OrgKey,
		hc:           http.DefaultClient,
		log:          zerolog.Nop(),
		pollInterval: defaultPollInterval,
		startTimeout: defaultStartTimeout,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// orgPath prefixes an endpoint path with the org-scoped API root.
func (c *Client) orgPath(format string, args ...any) string {
	return fmt.Sprintf("/appservices/v6/orgs/%s", c.orgKey) + fmt.Sprintf(format, args...)
}

// do issues one JSON request. A nil body sends no payload; a nil out
// discards the response body.
func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var payload io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode %s %s: %w", method, path, err)
		}
		payload = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, payload)
	if err != nil {
		return fmt.Errorf("build %s %s: %w", method, path, err)
	}
	req.Header.Set("X-Auth-Token", c.token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	res, err := c.hc.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer res.Body.Close()

	if res.StatusCode >= 400 {
		snippet, _ := io.ReadAll(io.LimitReader(res.Body, maxErrorBody))
		return fmt.Errorf("%s %s: backend returned %d: %s",
			method, path, res.StatusCode, strings.TrimSpace(string(snippet)))
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, res.Body)
		return nil
	}
	if err := json.NewDecoder(res.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s %s response: %w", method, path, err)
	}
	return nil
}

// raw issues a request and returns the response body verbatim.
func (c *Client) raw(ctx context.Context, path string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("build GET %s: %w", path, err)
	}
	req.Header.Set("X-Auth-Token", c.token)

	res, err := c.hc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("GET %s: %w", path, err)
	}
	defer res.Body.Close()

	if res.StatusCode >= 400 {
		snippet, _ := io.ReadAll(io.LimitReader(res.Body, maxErrorBody))
		return nil, fmt.Errorf("GET %s: backend returned %d: %s",
			path, res.StatusCode, strings.TrimSpace(string(snippet)))
	}
	return io.ReadAll(res.Body)
}

// FindDevice matches a sensor against a host spec. A dotted-quad host
// matches on the sensor's last internal IP address; anything else matches
// the sensor name case-insensitively, tolerating a leading "DOMAIN\"
// prefix in the inventory name.
func (c *Client) FindDevice(ctx context.Context, host string) (*Device, error) {
	var res deviceSearchResponse
	err := c.do(ctx, http.MethodPost, c.orgPath("/devices/_search"),
		deviceSearchRequest{Rows: deviceSearchRows}, &res)
	if err != nil {
		return nil, err
	}

	byIP := isDottedQuad(host)
	for i := range res.Results {
		dev := &res.Results[i]
		if byIP {
			if dev.LastInternalIPAddress == host {
				return dev, nil
			}
			continue
		}
		if matchDeviceName(dev.Name, host) {
			return dev, nil
		}
	}
	c.log.Debug().Str("host", host).Int("candidates", len(res.Results)).
		Msg("no sensor matched host")
	return nil, ErrDeviceNotFound
}

// matchDeviceName compares a sensor inventory name against the requested
// host, stripping a "DOMAIN\" prefix when present.
func matchDeviceName(name, host string) bool {
	if name == "" {
		return false
	}
	if i := strings.Index(name, `\`); i >= 0 {
		name = name[i+1:]
	}
	return strings.EqualFold(name, host)
}

func isDottedQuad(host string) bool {
	parts := strings.Split(host, ".")
	if len(parts) != 4 {
		return false
	}
	for _, p := range parts {
		if p == "" {
			return false
		}
		for _, r := range p {
			if r < '0' || r > '9' {
				return false
			}
		}
	}
	return true
}

// StartSession establishes a live-response session with a device and waits
// until the sensor checks in and the session goes active.
func (c *Client) StartSession(ctx context.Context, deviceID int64) (*Session, error) {
	var res sessionResponse
	err := c.do(ctx, http.MethodPost, c.orgPath("/liveresponse/sessions"),
		sessionRequest{DeviceID: deviceID}, &res)
	if err != nil {
		return nil, fmt.Errorf("create session for device %d: %w", deviceID, err)
	}

	c.log.Debug().Str("session", res.ID).Int64("device", deviceID).
		Msg("waiting for session to go active")

	deadline := time.NewTimer(c.startTimeout)
	defer deadline.Stop()
	ticker := time.NewTicker(c.pollInterval)
	defer ticker.Stop()

	for res.Status == sessionPending {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-deadline.C:
			return nil, fmt.Errorf("session %s: sensor did not check in within %v", res.ID, c.startTimeout)
		case <-ticker.C:
			if err := c.do(ctx, http.MethodGet,
				c.orgPath("/liveresponse/sessions/%s", res.ID), nil, &res); err != nil {
				return nil, fmt.Errorf("poll session %s: %w", res.ID, err)
			}
		}
	}
	if res.Status != sessionActive {
		return nil, fmt.Errorf("session %s entered state %s", res.ID, res.Status)
	}

	return newSession(c, &res), nil
}
