package registry

import (
	"context"
	"errors"
)

// SkipSubtree can be returned by a WalkFunc to prune descent below the
// current key without stopping the walk.
var SkipSubtree = errors.New("skip this subtree")

// WalkFunc is invoked once per visited key. Depth is 0 for the walk root.
// Returning SkipSubtree prunes the key's children; any other non-nil error
// aborts the walk and is returned to the caller.
type WalkFunc func(k *Key, depth int) error

type walkConfig struct {
	maxDepth int // 0 = unbounded
}

// WalkOption configures Walk.
type WalkOption func(*walkConfig)

// WithMaxDepth bounds descent to n levels below the root. Zero means
// unbounded.
func WithMaxDepth(n int) WalkOption {
	return func(c *walkConfig) { c.maxDepth = n }
}

// Walk traverses the tree under root in pre-order, in the child order the
// backend returned. Every visited key is fetched remotely at most once;
// keys below a pruned or aborted subtree are never fetched at all.
func Walk(ctx context.Context, root *Key, fn WalkFunc, opts ...WalkOption) error {
	var cfg walkConfig
	for _, opt := range opts {
		opt(&cfg)
	}
	return walk(ctx, root, fn, 0, cfg.maxDepth)
}

func walk(ctx context.Context, k *Key, fn WalkFunc, depth, maxDepth int) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	switch err := fn(k, depth); {
	case errors.Is(err, SkipSubtree):
		return nil
	case err != nil:
		return err
	}

	if maxDepth > 0 && depth >= maxDepth {
		return nil
	}

	iter, err := k.Subkeys(ctx)
	if err != nil {
		return err
	}
	for iter.Next() {
		if err := walk(ctx, iter.Key(), fn, depth+1, maxDepth); err != nil {
			return err
		}
	}
	return nil
}
