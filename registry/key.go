package registry

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/arpitjain799/dissect.target/pkg/types"
)

// Separator joins registry path segments.
const Separator = `\`

// Key is one node in a remote hive tree, addressed by a full
// backslash-joined path. Its listing is fetched lazily through the owning
// hive's session and memoized for the lifetime of the node instance.
type Key struct {
	hive *Hive
	path string

	mu       sync.Mutex
	listing  *types.KeyListing // nil until the first successful fetch
	children map[string]string // lower-cased child name -> name as returned
}

func newKey(h *Hive, path string) *Key {
	return &Key{hive: h, path: path}
}

// Path returns the full path from the hive root. No fetch is triggered.
func (k *Key) Path() string { return k.path }

// Name returns the last path segment. No fetch is triggered.
func (k *Key) Name() string {
	if i := strings.LastIndex(k.path, Separator); i >= 0 {
		return k.path[i+1:]
	}
	return k.path
}

// Timestamp always returns the zero time: the wire listing carries no
// last-write timestamps. No fetch is triggered.
func (k *Key) Timestamp() time.Time { return time.Time{} }

// Hive returns the owning hive.
func (k *Key) Hive() *Hive { return k.hive }

// fetch returns the memoized listing, issuing the remote call on first use.
// Only success is cached: a failed call leaves the node unfetched so the
// next accessor retries.
func (k *Key) fetch(ctx context.Context) (*types.KeyListing, error) {
	k.mu.Lock()
	defer k.mu.Unlock()

	if k.listing != nil {
		return k.listing, nil
	}

	listing, err := k.hive.session.ListKeysAndValues(ctx, k.path)
	if err != nil {
		return nil, &types.Error{
			Kind: types.ErrKindRemote,
			Msg:  fmt.Sprintf("list %q", k.path),
			Err:  err,
		}
	}

	children := make(map[string]string, len(listing.SubKeys))
	for _, name := range listing.SubKeys {
		children[strings.ToLower(name)] = name
	}

	k.listing = listing
	k.children = children
	return listing, nil
}

// Subkey resolves a direct child by case-insensitive name match. The child
// path is reconstructed with the caller-supplied casing, not the matched
// entry's casing, for compatibility with the original acquisition tooling.
// Lookups against Windows endpoints are case-insensitive either way.
func (k *Key) Subkey(ctx context.Context, name string) (*Key, error) {
	if _, err := k.fetch(ctx); err != nil {
		return nil, err
	}
	if _, ok := k.children[strings.ToLower(name)]; !ok {
		return nil, &types.Error{
			Kind: types.ErrKindKeyNotFound,
			Msg:  fmt.Sprintf("subkey %q under %q", name, k.path),
		}
	}
	return newKey(k.hive, k.path+Separator+name), nil
}

// Subkeys returns an iterator over direct children in backend order. The
// iterator walks the memoized child list; restarting or re-creating it
// never re-fetches.
func (k *Key) Subkeys(ctx context.Context) (*KeyIter, error) {
	listing, err := k.fetch(ctx)
	if err != nil {
		return nil, err
	}
	return &KeyIter{parent: k, names: listing.SubKeys, i: -1}, nil
}

// Value resolves a named value by case-insensitive match and decodes it.
func (k *Key) Value(ctx context.Context, name string) (Value, error) {
	listing, err := k.fetch(ctx)
	if err != nil {
		return Value{}, err
	}
	for _, rec := range listing.Values {
		if strings.EqualFold(rec.Name, name) {
			return DecodeValue(rec.Name, rec.Data, rec.Type)
		}
	}
	return Value{}, &types.Error{
		Kind: types.ErrKindValueNotFound,
		Msg:  fmt.Sprintf("value %q under %q", name, k.path),
	}
}

// Values returns an iterator over this key's values. Each record is decoded
// afresh on access; a record that fails to decode does not stop iteration
// of the others.
func (k *Key) Values(ctx context.Context) (*ValueIter, error) {
	listing, err := k.fetch(ctx)
	if err != nil {
		return nil, err
	}
	return &ValueIter{records: listing.Values, i: -1}, nil
}

// KeyIter scans child keys one at a time. Each call to Key constructs a
// fresh node; node instances are never deduplicated.
type KeyIter struct {
	parent *Key
	names  []string
	i      int
}

// Next advances the iterator. It returns false when the child list is
// exhausted.
func (it *KeyIter) Next() bool {
	it.i++
	return it.i < len(it.names)
}

// Key returns a node for the current child.
func (it *KeyIter) Key() *Key {
	return newKey(it.parent.hive, it.parent.path+Separator+it.names[it.i])
}

// Len reports the total number of children.
func (it *KeyIter) Len() int { return len(it.names) }

// Reset rewinds the iterator to the start of the cached child list.
func (it *KeyIter) Reset() { it.i = -1 }

// ValueIter scans a key's raw value records, decoding on access.
type ValueIter struct {
	records []types.ValueRecord
	i       int
}

// Next advances the iterator. It returns false when the record list is
// exhausted.
func (it *ValueIter) Next() bool {
	it.i++
	return it.i < len(it.records)
}

// Value decodes the current record. Decoding is pure and cheap, so repeated
// calls simply re-decode from the cached record.
func (it *ValueIter) Value() (Value, error) {
	rec := it.records[it.i]
	return DecodeValue(rec.Name, rec.Data, rec.Type)
}

// Len reports the total number of records.
func (it *ValueIter) Len() int { return len(it.records) }

// Reset rewinds the iterator to the start of the cached record list.
func (it *ValueIter) Reset() { it.i = -1 }
