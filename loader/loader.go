// Package loader opens forensic targets over Carbon Black Cloud live
// response. A target URI of the form cb://host@profile names an endpoint
// (by sensor name or internal IP) and the credential profile for the
// backend instance it reports to. Opening a target finds the sensor,
// establishes a live-response session, and exposes the endpoint's drives
// as filesystems plus, on Windows, its registry as a mapped hive view.
package loader

import (
	"context"
	"fmt"
	"io/fs"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/arpitjain799/dissect.target/cbfs"
	"github.com/arpitjain799/dissect.target/internal/liveresp"
	"github.com/arpitjain799/dissect.target/internal/profile"
	"github.com/arpitjain799/dissect.target/pkg/types"
	"github.com/arpitjain799/dissect.target/registry"
)

// Scheme is the URI scheme handled by this loader.
const Scheme = "cb"

// URI is a parsed cb:// target locator.
type URI struct {
	Host    string // sensor name or dotted-quad internal IP
	Profile string // credential profile name, empty for the default
}

// Detect reports whether a raw target path is a cb:// URI.
func Detect(raw string) bool {
	u, err := url.Parse(raw)
	return err == nil && u.Scheme == Scheme
}

// ParseURI parses cb://host@profile. The profile part is optional; a bare
// cb://host selects the default credential profile.
func ParseURI(raw string) (URI, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return URI{}, loaderErr(fmt.Errorf("parse target uri %q: %w", raw, err))
	}
	if u.Scheme != Scheme {
		return URI{}, loaderErr(fmt.Errorf("unsupported scheme %q in %q", u.Scheme, raw))
	}

	out := URI{Host: u.Host}
	if u.User != nil {
		// cb://host@profile puts the host in the userinfo slot.
		out.Host = u.User.Username()
		out.Profile = u.Host
	}
	if out.Host == "" {
		return URI{}, loaderErr(fmt.Errorf("target uri %q names no host", raw))
	}
	return out, nil
}

// Target is an opened endpoint: one live-response session exposed as
// mounted filesystems and, on Windows, a registry view.
type Target struct {
	Hostname    string
	Filesystems map[string]fs.FS // mount point (lower-cased drive) -> drive view
	Registry    *registry.Mapper // nil on non-Windows endpoints

	session types.Session
}

// Session exposes the underlying live-response session.
func (t *Target) Session() types.Session { return t.session }

// Close tears down the live-response session. The filesystems and registry
// view stop working once closed.
func (t *Target) Close(ctx context.Context) error {
	return t.session.Close(ctx)
}

type config struct {
	log        zerolog.Logger
	httpClient *http.Client
	poll       time.Duration
	probe      bool
}

// Option configures Open.
type Option func(*config)

// WithLogger sets the logger used while connecting and mapping.
func WithLogger(log zerolog.Logger) Option {
	return func(c *config) { c.log = log }
}

// WithHTTPClient substitutes the HTTP client used for backend calls.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *config) { c.httpClient = hc }
}

// WithPollInterval tunes command and session polling.
func WithPollInterval(d time.Duration) Option {
	return func(c *config) { c.poll = d }
}

// WithoutRegistryProbe registers all well-known registry roots without
// probing them first.
func WithoutRegistryProbe() Option {
	return func(c *config) { c.probe = false }
}

// Open resolves a cb:// URI into a connected target. The sensor must exist
// in the instance's inventory and check in within the session start
// timeout.
func Open(ctx context.Context, rawURI string, opts ...Option) (*Target, error) {
	cfg := config{log: zerolog.Nop(), probe: true}
	for _, opt := range opts {
		opt(&cfg)
	}

	uri, err := ParseURI(rawURI)
	if err != nil {
		return nil, err
	}

	creds, err := profile.Resolve(uri.Profile)
	if err != nil {
		return nil, err
	}

	clientOpts := []liveresp.Option{liveresp.WithLogger(cfg.log)}
	if cfg.httpClient != nil {
		clientOpts = append(clientOpts, liveresp.WithHTTPClient(cfg.httpClient))
	}
	if cfg.poll > 0 {
		clientOpts = append(clientOpts, liveresp.WithPollInterval(cfg.poll))
	}
	client := liveresp.NewClient(creds, clientOpts...)

	device, err := client.FindDevice(ctx, uri.Host)
	if err != nil {
		return nil, loaderErr(fmt.Errorf("host %q: %w", uri.Host, err))
	}
	cfg.log.Debug().Str("host", uri.Host).Int64("device", device.ID).
		Msg("matched sensor, starting session")

	session, err := client.StartSession(ctx, device.ID)
	if err != nil {
		return nil, loaderErr(fmt.Errorf("host %q: %w", uri.Host, err))
	}

	return newTarget(ctx, uri.Host, session, cfg), nil
}

// newTarget mounts the session's drives and, on Windows, attaches the
// registry mapper.
func newTarget(ctx context.Context, hostname string, session types.Session, cfg config) *Target {
	t := &Target{
		Hostname:    hostname,
		Filesystems: make(map[string]fs.FS),
		session:     session,
	}

	for _, drive := range session.Drives() {
		t.Filesystems[strings.ToLower(drive)] = cbfs.New(ctx, session, drive)
	}

	if session.OS() == types.OSWindows {
		mapperOpts := []registry.MapperOption{registry.WithLogger(cfg.log)}
		if !cfg.probe {
			mapperOpts = append(mapperOpts, registry.WithoutProbe())
		}
		t.Registry = registry.NewMapper(ctx, session, mapperOpts...)
	}
	return t
}

func loaderErr(err error) error {
	return &types.Error{
		Kind: types.ErrKindLoader,
		Msg:  "open target",
		Err:  err,
	}
}
