package registry

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/arpitjain799/dissect.target/pkg/types"
)

// Mapping associates a logical hive name with a well-known root path.
type Mapping struct {
	Name string // logical name used by analysis consumers (e.g., "HKLM")
	Root string // full root path on the endpoint
}

// DefaultMappings is the fixed table of well-known roots registered by
// NewMapper when no override is given.
var DefaultMappings = []Mapping{
	{Name: "HKLM", Root: "HKEY_LOCAL_MACHINE"},
	{Name: "HKU", Root: "HKEY_USERS"},
	{Name: "HKCU", Root: "HKEY_CURRENT_USER"},
	{Name: "HKCR", Root: "HKEY_CLASSES_ROOT"},
	{Name: "HKCC", Root: "HKEY_CURRENT_CONFIG"},
}

// MappingError records one mapping entry that failed to register.
type MappingError struct {
	Mapping Mapping
	Err     error
}

func (e MappingError) Error() string {
	return fmt.Sprintf("map hive %s -> %s: %v", e.Mapping.Name, e.Mapping.Root, e.Err)
}

func (e MappingError) Unwrap() error { return e.Err }

// Mapper aggregates the hives of one session into the logical registry
// namespace. Initialization is partial-failure tolerant: entries that fail
// to register are skipped, recorded, and permanently absent for the
// mapper's lifetime. Nothing is retried after initialization.
type Mapper struct {
	hives  map[string]*Hive  // logical name -> hive
	order  []string          // registration order
	roots  map[string]string // lower-cased root path -> logical name
	failed []MappingError
}

type mapperConfig struct {
	mappings []Mapping
	probe    bool
	log      zerolog.Logger
}

// MapperOption configures NewMapper.
type MapperOption func(*mapperConfig)

// WithMappings overrides the default well-known root table.
func WithMappings(mappings []Mapping) MapperOption {
	return func(c *mapperConfig) { c.mappings = mappings }
}

// WithLogger sets the logger used to report skipped mapping entries.
func WithLogger(log zerolog.Logger) MapperOption {
	return func(c *mapperConfig) { c.log = log }
}

// WithoutProbe disables the per-root probe listing during initialization.
// Every configured root then registers unconditionally and unreachable
// hives only surface errors on first traversal.
func WithoutProbe() MapperOption {
	return func(c *mapperConfig) { c.probe = false }
}

// NewMapper registers one hive per mapping entry. Registering probes the
// root with a single listing call; the probe result is discarded, so later
// traversal still fetches lazily. A failure at any step skips that single
// entry and continues with the next.
func NewMapper(ctx context.Context, session types.Session, opts ...MapperOption) *Mapper {
	cfg := mapperConfig{
		mappings: DefaultMappings,
		probe:    true,
		log:      zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	m := &Mapper{
		hives: make(map[string]*Hive, len(cfg.mappings)),
		roots: make(map[string]string, len(cfg.mappings)),
	}

	for _, mapping := range cfg.mappings {
		if err := m.register(ctx, session, mapping, cfg.probe); err != nil {
			m.failed = append(m.failed, MappingError{Mapping: mapping, Err: err})
			cfg.log.Warn().
				Str("hive", mapping.Name).
				Str("root", mapping.Root).
				Err(err).
				Msg("skipping unavailable hive")
			continue
		}
		cfg.log.Debug().
			Str("hive", mapping.Name).
			Str("root", mapping.Root).
			Msg("registered hive")
	}
	return m
}

func (m *Mapper) register(ctx context.Context, session types.Session, mapping Mapping, probe bool) error {
	hive := NewHive(session, mapping.Root)

	if probe {
		if _, err := session.ListKeysAndValues(ctx, mapping.Root); err != nil {
			return &types.Error{
				Kind: types.ErrKindRemote,
				Msg:  fmt.Sprintf("probe %q", mapping.Root),
				Err:  err,
			}
		}
	}

	if err := m.addHive(mapping.Name, hive); err != nil {
		return err
	}
	return m.mapRoot(mapping.Root, mapping.Name)
}

func (m *Mapper) addHive(name string, hive *Hive) error {
	key := strings.ToUpper(name)
	if _, dup := m.hives[key]; dup {
		return &types.Error{
			Kind: types.ErrKindState,
			Msg:  fmt.Sprintf("hive %q already registered", name),
		}
	}
	m.hives[key] = hive
	m.order = append(m.order, name)
	return nil
}

func (m *Mapper) mapRoot(root, name string) error {
	key := strings.ToLower(root)
	if _, dup := m.roots[key]; dup {
		return &types.Error{
			Kind: types.ErrKindState,
			Msg:  fmt.Sprintf("root %q already mapped", root),
		}
	}
	m.roots[key] = name
	return nil
}

// Hive returns the hive registered under a logical name (case-insensitive).
func (m *Mapper) Hive(name string) (*Hive, bool) {
	h, ok := m.hives[strings.ToUpper(name)]
	return h, ok
}

// Hives lists registered logical names in registration order.
func (m *Mapper) Hives() []string {
	out := make([]string, len(m.order))
	copy(out, m.order)
	return out
}

// LogicalName resolves a root path back to its logical hive name.
func (m *Mapper) LogicalName(rootPath string) (string, bool) {
	name, ok := m.roots[strings.ToLower(rootPath)]
	return name, ok
}

// Failed returns the mapping entries skipped during initialization, in
// table order. The slice is a copy; an empty result means a complete view.
func (m *Mapper) Failed() []MappingError {
	out := make([]MappingError, len(m.failed))
	copy(out, m.failed)
	return out
}

// Key resolves a full path whose first segment is either a logical hive
// name ("HKLM\Software") or a well-known root path
// ("HKEY_LOCAL_MACHINE\Software") into a key node of the matching hive.
func (m *Mapper) Key(path string) (*Key, error) {
	first, rest, _ := strings.Cut(path, Separator)

	hive, ok := m.Hive(first)
	if !ok {
		if name, mapped := m.LogicalName(first); mapped {
			hive, ok = m.Hive(name)
		}
	}
	if !ok {
		return nil, &types.Error{
			Kind: types.ErrKindKeyNotFound,
			Msg:  fmt.Sprintf("no hive matches %q", first),
		}
	}
	return hive.Key(rest), nil
}
