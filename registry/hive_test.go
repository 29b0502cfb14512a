package registry

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/arpitjain799/dissect.target/pkg/types"
)

func TestHiveKeyConstruction(t *testing.T) {
	sess := newFakeSession()
	hive := NewHive(sess, "HKEY_LOCAL_MACHINE")

	k := hive.Key("SOFTWARE")
	require.Equal(t, `HKEY_LOCAL_MACHINE\SOFTWARE`, k.Path())
	require.Equal(t, "SOFTWARE", k.Name())

	nested := hive.Key(`SOFTWARE\Microsoft\Windows`)
	require.Equal(t, `HKEY_LOCAL_MACHINE\SOFTWARE\Microsoft\Windows`, nested.Path())
	require.Equal(t, "Windows", nested.Name())

	// Construction is pure; nothing is validated remotely.
	require.Zero(t, sess.totalCalls())
}

func TestHiveRoot(t *testing.T) {
	sess := newFakeSession()
	hive := NewHive(sess, "HKEY_USERS")

	root := hive.Root()
	require.Equal(t, "HKEY_USERS", root.Path())
	require.Equal(t, "HKEY_USERS", root.Name())
	require.Equal(t, "HKEY_USERS", hive.RootKey())
}

func TestHiveKeyForNonexistentPathFailsLazily(t *testing.T) {
	ctx := context.Background()
	sess := newFakeSession()
	hive := NewHive(sess, "HKEY_LOCAL_MACHINE")

	// Construction succeeds for a path the endpoint doesn't have ...
	k := hive.Key(`No\Such\Key`)
	require.Zero(t, sess.totalCalls())

	// ... and existence is only discovered on first fetch.
	_, err := k.Subkeys(ctx)
	require.ErrorIs(t, err, types.ErrRemoteFetch)
	require.Equal(t, 1, sess.totalCalls())
}
