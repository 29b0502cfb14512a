package registry

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/arpitjain799/dissect.target/pkg/types"
)

func walkSession() *fakeSession {
	sess := newFakeSession()
	sess.add("HKEY_LOCAL_MACHINE", &types.KeyListing{SubKeys: []string{"SOFTWARE", "SYSTEM"}})
	sess.add(`HKEY_LOCAL_MACHINE\SOFTWARE`, &types.KeyListing{SubKeys: []string{"Microsoft"}})
	sess.add(`HKEY_LOCAL_MACHINE\SOFTWARE\Microsoft`, &types.KeyListing{})
	sess.add(`HKEY_LOCAL_MACHINE\SYSTEM`, &types.KeyListing{SubKeys: []string{"Setup"}})
	sess.add(`HKEY_LOCAL_MACHINE\SYSTEM\Setup`, &types.KeyListing{})
	return sess
}

func TestWalkPreOrder(t *testing.T) {
	ctx := context.Background()
	sess := walkSession()
	hive := NewHive(sess, "HKEY_LOCAL_MACHINE")

	var visited []string
	err := Walk(ctx, hive.Root(), func(k *Key, depth int) error {
		visited = append(visited, k.Path())
		return nil
	})
	require.NoError(t, err)
	require.Equal(t, []string{
		"HKEY_LOCAL_MACHINE",
		`HKEY_LOCAL_MACHINE\SOFTWARE`,
		`HKEY_LOCAL_MACHINE\SOFTWARE\Microsoft`,
		`HKEY_LOCAL_MACHINE\SYSTEM`,
		`HKEY_LOCAL_MACHINE\SYSTEM\Setup`,
	}, visited)
}

func TestWalkSkipSubtree(t *testing.T) {
	ctx := context.Background()
	sess := walkSession()
	hive := NewHive(sess, "HKEY_LOCAL_MACHINE")

	var visited []string
	err := Walk(ctx, hive.Root(), func(k *Key, depth int) error {
		visited = append(visited, k.Name())
		if k.Name() == "SOFTWARE" {
			return SkipSubtree
		}
		return nil
	})
	require.NoError(t, err)
	require.Equal(t, []string{"HKEY_LOCAL_MACHINE", "SOFTWARE", "SYSTEM", "Setup"}, visited)

	// The pruned subtree is never fetched.
	require.Zero(t, sess.callCount(`HKEY_LOCAL_MACHINE\SOFTWARE\Microsoft`))
}

func TestWalkMaxDepth(t *testing.T) {
	ctx := context.Background()
	sess := walkSession()
	hive := NewHive(sess, "HKEY_LOCAL_MACHINE")

	var depths []int
	err := Walk(ctx, hive.Root(), func(k *Key, depth int) error {
		depths = append(depths, depth)
		return nil
	}, WithMaxDepth(1))
	require.NoError(t, err)
	require.Equal(t, []int{0, 1, 1}, depths)
}

func TestWalkAbortsOnError(t *testing.T) {
	ctx := context.Background()
	sess := walkSession()
	hive := NewHive(sess, "HKEY_LOCAL_MACHINE")

	stop := errors.New("found it")
	var visited int
	err := Walk(ctx, hive.Root(), func(k *Key, depth int) error {
		visited++
		if k.Name() == "SOFTWARE" {
			return stop
		}
		return nil
	})
	require.ErrorIs(t, err, stop)
	require.Equal(t, 2, visited)
}

func TestWalkHonorsContextCancellation(t *testing.T) {
	sess := walkSession()
	hive := NewHive(sess, "HKEY_LOCAL_MACHINE")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := Walk(ctx, hive.Root(), func(k *Key, depth int) error { return nil })
	require.ErrorIs(t, err, context.Canceled)
}
