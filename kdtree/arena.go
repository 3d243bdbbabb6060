// Copyright (C) 2022-2023  Luke Shumaker <lukeshu@lukeshu.com>
//
// SPDX-License-Identifier: GPL-2.0-or-later

package kdtree

// arena is the tree's compact contiguous storage: parallel stores for
// internal nodes, leaves, and the flat item-id run. All three are
// exclusively owned by the tree that holds them and are immutable
// from the moment a build completes.
//
// nodes and leaves are preallocated to a heuristic capacity (see
// newArena) and never grow past it during a build: a build that would
// overflow either returns CapacityExceededError rather than silently
// reallocating, per the compact-arena contract persistence depends on
// (node and leaf indices must not move once assigned). items has no
// such ceiling: every item lands in exactly one leaf, so its length
// ends at item_count, and it grows with append like an ordinary slice.
type arena struct {
	nodes []node
	leaves []leaf
	items  []int32

	nodeLimit int
	leafLimit int
}

// newArena preallocates nodes and leaves using the heuristic
// factor*ceil(itemCount/leafSize) the source uses (factor defaults to
// 4, see WithArenaFactor), and items using itemCount, which is also
// the run's final length (leaves append their slots to it).
func newArena(itemCount, leafSize, factor int) *arena {
	if leafSize < 1 {
		leafSize = 1
	}
	if factor < 1 {
		factor = 1
	}
	buckets := (itemCount + leafSize - 1) / leafSize
	if buckets < 1 {
		buckets = 1
	}
	limit := factor * buckets
	return &arena{
		nodes:     make([]node, 0, limit),
		leaves:    make([]leaf, 0, limit),
		items:     make([]int32, 0, itemCount),
		nodeLimit: limit,
		leafLimit: limit,
	}
}

// pushNode appends an internal node and returns its non-negative
// arena reference.
func (a *arena) pushNode(axis uint8, split float64, low, mid, high int32) (int32, error) {
	if len(a.nodes) >= a.nodeLimit {
		return 0, &CapacityExceededError{Store: "nodes", Limit: a.nodeLimit}
	}
	ref := int32(len(a.nodes))
	a.nodes = append(a.nodes, node{Axis: axis, Split: split, Low: low, Mid: mid, High: high})
	return ref, nil
}

// pushLeaf reserves size contiguous slots in items and returns the
// encoded leaf reference along with the base offset the caller should
// fill items[base:base+size] with.
func (a *arena) pushLeaf(size int) (leafRef int32, base int32, err error) {
	if len(a.leaves) >= a.leafLimit {
		return 0, 0, &CapacityExceededError{Store: "leaves", Limit: a.leafLimit}
	}
	base = int32(len(a.items))
	for i := 0; i < size; i++ {
		a.items = append(a.items, 0)
	}
	leafIndex := int32(len(a.leaves))
	last := base + int32(size) - 1
	if size == 0 {
		// An empty leaf (the root of an empty tree, or a split
		// child that received no items) still needs first > last to keep the "first <= last" invariant
		// from ever being read as a real range.
		last = base - 1
	}
	a.leaves = append(a.leaves, leaf{First: base, Last: last})
	return encodeLeaf(leafIndex), base, nil
}
