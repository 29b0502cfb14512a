package registry

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/arpitjain799/dissect.target/pkg/types"
)

func softwareListing() *types.KeyListing {
	return &types.KeyListing{
		SubKeys: []string{"Microsoft", "Classes", "Policies"},
		Values: []types.ValueRecord{
			{Name: "InstallDate", Data: "1680000000", Type: types.TagDword},
			{Name: "Digest", Data: "deadbeef", Type: types.TagBinary},
			{Name: "Vendor", Data: "Contoso", Type: "pbREG_SZ"},
		},
	}
}

func TestKeyNameAndPath(t *testing.T) {
	sess := newFakeSession()
	hive := NewHive(sess, "HKEY_LOCAL_MACHINE")

	k := hive.Key("SOFTWARE")
	require.Equal(t, `HKEY_LOCAL_MACHINE\SOFTWARE`, k.Path())
	require.Equal(t, "SOFTWARE", k.Name())

	// Pure derivations: no remote traffic.
	require.Zero(t, sess.totalCalls())
}

func TestKeyTimestampIsAlwaysZero(t *testing.T) {
	sess := newFakeSession()
	hive := NewHive(sess, "HKEY_LOCAL_MACHINE")

	k := hive.Key("SOFTWARE")
	require.True(t, k.Timestamp().IsZero())
	require.Zero(t, sess.totalCalls())
}

func TestKeyFetchMemoization(t *testing.T) {
	ctx := context.Background()
	sess := newFakeSession()
	sess.add(`HKEY_LOCAL_MACHINE\SOFTWARE`, softwareListing())
	hive := NewHive(sess, "HKEY_LOCAL_MACHINE")

	k := hive.Key("SOFTWARE")

	// First traversal accessor triggers exactly one remote call.
	_, err := k.Subkeys(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, sess.callCount(`HKEY_LOCAL_MACHINE\SOFTWARE`))

	// Every other accessor on the same node reuses the cache.
	_, err = k.Subkey(ctx, "Microsoft")
	require.NoError(t, err)
	_, err = k.Values(ctx)
	require.NoError(t, err)
	_, err = k.Value(ctx, "Vendor")
	require.NoError(t, err)
	require.Equal(t, 1, sess.callCount(`HKEY_LOCAL_MACHINE\SOFTWARE`))
}

func TestKeyFailedFetchIsNotCached(t *testing.T) {
	ctx := context.Background()
	sess := newFakeSession()
	boom := errors.New("sensor went offline")
	sess.failWith(`HKEY_LOCAL_MACHINE\SOFTWARE`, boom)
	hive := NewHive(sess, "HKEY_LOCAL_MACHINE")

	k := hive.Key("SOFTWARE")

	_, err := k.Subkeys(ctx)
	require.ErrorIs(t, err, types.ErrRemoteFetch)
	require.ErrorIs(t, err, boom)

	// Second attempt issues a new remote call, not a cached failure.
	_, err = k.Subkeys(ctx)
	require.ErrorIs(t, err, types.ErrRemoteFetch)
	require.Equal(t, 2, sess.callCount(`HKEY_LOCAL_MACHINE\SOFTWARE`))

	// After the backend recovers, the node fetches and memoizes normally.
	delete(sess.fail, `HKEY_LOCAL_MACHINE\SOFTWARE`)
	sess.add(`HKEY_LOCAL_MACHINE\SOFTWARE`, softwareListing())

	_, err = k.Subkeys(ctx)
	require.NoError(t, err)
	_, err = k.Values(ctx)
	require.NoError(t, err)
	require.Equal(t, 3, sess.callCount(`HKEY_LOCAL_MACHINE\SOFTWARE`))
}

func TestSubkeyCaseInsensitiveLookup(t *testing.T) {
	ctx := context.Background()
	sess := newFakeSession()
	sess.add("HKEY_LOCAL_MACHINE", &types.KeyListing{SubKeys: []string{"System"}})
	hive := NewHive(sess, "HKEY_LOCAL_MACHINE")
	root := hive.Root()

	for _, name := range []string{"system", "SYSTEM", "System"} {
		k, err := root.Subkey(ctx, name)
		require.NoError(t, err, "lookup %q", name)
		require.Equal(t, name, k.Name())
	}

	_, err := root.Subkey(ctx, "missing")
	require.ErrorIs(t, err, types.ErrKeyNotFound)
}

// The child path is rebuilt from the caller's casing rather than the
// matched directory entry's casing. This mirrors the original acquisition
// tooling; against a case-insensitive Windows endpoint both spellings
// address the same key.
func TestSubkeyKeepsCallerCasing(t *testing.T) {
	ctx := context.Background()
	sess := newFakeSession()
	sess.add("HKEY_LOCAL_MACHINE", &types.KeyListing{SubKeys: []string{"System"}})
	hive := NewHive(sess, "HKEY_LOCAL_MACHINE")

	k, err := hive.Root().Subkey(ctx, "sYsTeM")
	require.NoError(t, err)
	require.Equal(t, `HKEY_LOCAL_MACHINE\sYsTeM`, k.Path())
}

func TestSubkeysIterationOrderAndRestart(t *testing.T) {
	ctx := context.Background()
	sess := newFakeSession()
	sess.add(`HKEY_LOCAL_MACHINE\SOFTWARE`, softwareListing())
	hive := NewHive(sess, "HKEY_LOCAL_MACHINE")

	k := hive.Key("SOFTWARE")
	iter, err := k.Subkeys(ctx)
	require.NoError(t, err)
	require.Equal(t, 3, iter.Len())

	var names []string
	for iter.Next() {
		names = append(names, iter.Key().Name())
	}
	require.Equal(t, []string{"Microsoft", "Classes", "Policies"}, names)

	// Restart re-walks the cached child list without another fetch.
	iter.Reset()
	count := 0
	for iter.Next() {
		count++
	}
	require.Equal(t, 3, count)

	iter2, err := k.Subkeys(ctx)
	require.NoError(t, err)
	require.True(t, iter2.Next())
	require.Equal(t, 1, sess.callCount(`HKEY_LOCAL_MACHINE\SOFTWARE`))
}

func TestSubkeyNodesAreFreshInstances(t *testing.T) {
	ctx := context.Background()
	sess := newFakeSession()
	sess.add(`HKEY_LOCAL_MACHINE\SOFTWARE`, softwareListing())
	sess.add(`HKEY_LOCAL_MACHINE\SOFTWARE\Microsoft`, &types.KeyListing{})
	hive := NewHive(sess, "HKEY_LOCAL_MACHINE")

	parent := hive.Key("SOFTWARE")
	a, err := parent.Subkey(ctx, "Microsoft")
	require.NoError(t, err)
	b, err := parent.Subkey(ctx, "Microsoft")
	require.NoError(t, err)
	require.NotSame(t, a, b)

	// Each fresh instance fetches once on its own.
	_, err = a.Subkeys(ctx)
	require.NoError(t, err)
	_, err = b.Subkeys(ctx)
	require.NoError(t, err)
	require.Equal(t, 2, sess.callCount(`HKEY_LOCAL_MACHINE\SOFTWARE\Microsoft`))
}

func TestKeyValueLookup(t *testing.T) {
	ctx := context.Background()
	sess := newFakeSession()
	sess.add(`HKEY_LOCAL_MACHINE\SOFTWARE`, softwareListing())
	hive := NewHive(sess, "HKEY_LOCAL_MACHINE")
	k := hive.Key("SOFTWARE")

	v, err := k.Value(ctx, "vendor") // case-insensitive
	require.NoError(t, err)
	require.Equal(t, "Vendor", v.Name())
	s, err := v.String()
	require.NoError(t, err)
	require.Equal(t, "Contoso", s)

	n, err := k.Value(ctx, "INSTALLDATE")
	require.NoError(t, err)
	u, err := n.Uint64()
	require.NoError(t, err)
	require.Equal(t, uint64(1680000000), u)

	_, err = k.Value(ctx, "absent")
	require.ErrorIs(t, err, types.ErrValueNotFound)
}

func TestValuesIterator(t *testing.T) {
	ctx := context.Background()
	sess := newFakeSession()
	sess.add(`HKEY_LOCAL_MACHINE\SOFTWARE`, softwareListing())
	hive := NewHive(sess, "HKEY_LOCAL_MACHINE")

	iter, err := hive.Key("SOFTWARE").Values(ctx)
	require.NoError(t, err)
	require.Equal(t, 3, iter.Len())

	var names []string
	for iter.Next() {
		v, err := iter.Value()
		require.NoError(t, err)
		names = append(names, v.Name())
	}
	require.Equal(t, []string{"InstallDate", "Digest", "Vendor"}, names)
}

func TestValuesIteratorBadRecordDoesNotAbortOthers(t *testing.T) {
	ctx := context.Background()
	sess := newFakeSession()
	sess.add(`HKEY_LOCAL_MACHINE\SOFTWARE`, &types.KeyListing{
		Values: []types.ValueRecord{
			{Name: "good", Data: "0a", Type: types.TagBinary},
			{Name: "bad", Data: "not-hex", Type: types.TagBinary},
			{Name: "also-good", Data: "7", Type: types.TagQword},
		},
	})
	hive := NewHive(sess, "HKEY_LOCAL_MACHINE")

	iter, err := hive.Key("SOFTWARE").Values(ctx)
	require.NoError(t, err)

	var decoded, failed int
	for iter.Next() {
		if _, err := iter.Value(); err != nil {
			require.ErrorIs(t, err, types.ErrInvalidEncoding)
			failed++
			continue
		}
		decoded++
	}
	require.Equal(t, 2, decoded)
	require.Equal(t, 1, failed)
}
