// Copyright (C) 2022-2023  Luke Shumaker <lukeshu@lukeshu.com>
//
// SPDX-License-Identifier: GPL-2.0-or-later

package kdtree

import (
	"context"
	"time"

	"github.com/datawire/dlib/dlog"

	"git.lukeshu.com/go/kdtree/lib/textui"
)

// Tree is a built, immutable k-d spatial index. The zero Tree is not
// valid; obtain one from Build, BuildObjects, or the persist package's
// readers.
type Tree struct {
	dims     int
	leafSize int
	boundsFn BoundsFunc
	objectAt func(ItemID) any // non-nil only for trees built with BuildObjects

	arena *arena
	root  int32
}

// Dims returns the number of axes the tree was built over.
func (t *Tree) Dims() int { return t.dims }

// LeafSize returns the leaf_size the tree was built with.
func (t *Tree) LeafSize() int { return t.leafSize }

// Object resolves an item id to the caller's object, for a tree built
// with BuildObjects. It panics if called on an index-mode tree.
func (t *Tree) Object(id ItemID) any {
	if t.objectAt == nil {
		panic("kdtree: Object called on an index-mode tree")
	}
	return t.objectAt(id)
}

// Build constructs a Tree over the integer item range [lo, hi]
// (inclusive); the stored id for each item equals the integer itself.
// dims must be >= 1.
func Build(ctx context.Context, dims int, lo, hi ItemID, boundsFn BoundsFunc, opts ...Option) (*Tree, error) {
	var src source
	if hi >= lo {
		src = indexSource{lo: lo, hi: hi}
	} else {
		src = indexSource{lo: lo, hi: lo - 1} // count() == 0
	}
	return build(ctx, dims, src, boundsFn, nil, opts)
}

// BuildObjects constructs a Tree over an ordered list of opaque
// objects; the stored id for objects[i] is i+1 (1-based, per §4.2).
func BuildObjects[T any](ctx context.Context, dims int, objects []T, boundsFn ObjectBoundsFunc[T], opts ...Option) (*Tree, error) {
	src := objectSource{n: int32(len(objects))}
	flat := adaptObjectBounds(objects, boundsFn)
	objectAt := func(id ItemID) any {
		idx := int(id) - 1
		if idx < 0 || idx >= len(objects) {
			return nil
		}
		return objects[idx]
	}
	return build(ctx, dims, src, flat, objectAt, opts)
}

func build(ctx context.Context, dims int, src source, boundsFn BoundsFunc, objectAt func(ItemID) any, opts []Option) (*Tree, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	leafSize := cfg.leafSize.Get()
	arenaFactor := cfg.arenaFactor.Get()

	n := int(src.count())
	dlog.Debugf(ctx, "kdtree: building over %s items in %d dims (leaf_size=%d)", textui.Count(n), dims, leafSize)

	var progress *textui.Progress[buildStats]
	if cfg.progressLog {
		progress = textui.NewProgress[buildStats](ctx, dlog.LogLevelInfo, 2*time.Second)
		progress.Set(buildStats{})
		defer progress.Done()
	}

	es, err := generateEvents(src, dims, boundsFn)
	if err != nil {
		return nil, err
	}

	a := newArena(n, leafSize, arenaFactor)

	var root int32
	if n == 0 {
		root, err = buildLeaf(a, nil)
	} else {
		root, err = split(a, es, es.byAxis, n, leafSize)
	}
	if err != nil {
		return nil, err
	}

	if progress != nil {
		progress.Set(buildStats{nodes: len(a.nodes), leaves: len(a.leaves), items: len(a.items)})
	}

	// Events are scratch; let them go once the root is built (§3
	// "release_events").
	es.byAxis = nil

	return &Tree{
		dims:     dims,
		leafSize: leafSize,
		boundsFn: boundsFn,
		objectAt: objectAt,
		arena:    a,
		root:     root,
	}, nil
}

type buildStats struct {
	nodes, leaves, items int
}

func (s buildStats) String() string {
	return "kdtree build: " + textui.Count(s.nodes) + " nodes, " +
		textui.Count(s.leaves) + " leaves, " + textui.Count(s.items) + " items"
}

// Stats summarizes the tree's shape.
func (t *Tree) Stats() Stats {
	return Stats{
		Dims:      t.dims,
		LeafSize:  t.leafSize,
		NodeCount: len(t.arena.nodes),
		LeafCount: len(t.arena.leaves),
		ItemCount: len(t.arena.items),
		MaxDepth:  t.maxDepth(t.root, 0),
	}
}

func (t *Tree) maxDepth(ref int32, depth int) int {
	if isLeafRef(ref) {
		return depth
	}
	n := t.arena.nodes[ref]
	d := t.maxDepth(n.Low, depth+1)
	if dm := t.maxDepth(n.Mid, depth+1); dm > d {
		d = dm
	}
	if dh := t.maxDepth(n.High, depth+1); dh > d {
		d = dh
	}
	return d
}
