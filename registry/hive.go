package registry

import (
	"github.com/arpitjain799/dissect.target/pkg/types"
)

// Hive is a named root of the remote registry tree, bound to one session
// for its whole lifetime. It manufactures key nodes; it does not own the
// session, which is shared and outlives the hive.
type Hive struct {
	session types.Session
	rootKey string
}

// NewHive binds a hive rooted at rootKey (e.g., "HKEY_LOCAL_MACHINE") to a
// session.
func NewHive(session types.Session, rootKey string) *Hive {
	return &Hive{session: session, rootKey: rootKey}
}

// RootKey returns the root path this hive is anchored at.
func (h *Hive) RootKey() string { return h.rootKey }

// Key constructs a node at rootKey\path. Construction is pure: no existence
// check happens until the node is first fetched.
func (h *Hive) Key(path string) *Key {
	if path == "" {
		return newKey(h, h.rootKey)
	}
	return newKey(h, h.rootKey+Separator+path)
}

// Root returns the hive's root node.
func (h *Hive) Root() *Key { return h.Key("") }
