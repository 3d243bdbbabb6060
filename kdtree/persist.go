// Copyright (C) 2022-2023  Luke Shumaker <lukeshu@lukeshu.com>
//
// SPDX-License-Identifier: GPL-2.0-or-later

package kdtree

// NodeRecord is the exported, persistence-facing shape of an internal
// node, used by the persist package's readers and writers so they
// never need to reach into the tree's internal node type.
type NodeRecord struct {
	Axis  uint8
	Split float64
	Low   int32
	Mid   int32
	High  int32
}

// LeafRecord is the exported, persistence-facing shape of a leaf.
type LeafRecord struct {
	First int32
	Last  int32
}

// RawArena is the structural content of a built tree with the
// objects and bounds callback stripped out: exactly what §4.7
// persists.
type RawArena struct {
	Nodes []NodeRecord
	Leaves []LeafRecord
	Items  []int32
}

// Raw returns the tree's structural arena and root reference, for a
// persistence writer to serialize.
func (t *Tree) Raw() (RawArena, int32) {
	raw := RawArena{
		Nodes:  make([]NodeRecord, len(t.arena.nodes)),
		Leaves: make([]LeafRecord, len(t.arena.leaves)),
		Items:  t.arena.items,
	}
	for i, n := range t.arena.nodes {
		raw.Nodes[i] = NodeRecord{Axis: n.Axis, Split: n.Split, Low: n.Low, Mid: n.Mid, High: n.High}
	}
	for i, l := range t.arena.leaves {
		raw.Leaves[i] = LeafRecord{First: l.First, Last: l.Last}
	}
	return raw, t.root
}

// FromRaw reconstructs a Tree from a structural arena previously
// obtained from Raw (by a persistence reader that round-tripped it
// through a file). The caller re-supplies dims, leafSize, and a
// bounds callback (and, in object mode, objectAt) exactly as it would
// to Build, since the tree does not own the caller's objects.
func FromRaw(dims, leafSize int, boundsFn BoundsFunc, objectAt func(ItemID) any, raw RawArena, root int32) (*Tree, error) {
	a := &arena{
		nodes:     make([]node, len(raw.Nodes)),
		leaves:    make([]leaf, len(raw.Leaves)),
		items:     raw.Items,
		nodeLimit: len(raw.Nodes),
		leafLimit: len(raw.Leaves),
	}
	for i, n := range raw.Nodes {
		for _, child := range [3]int32{n.Low, n.Mid, n.High} {
			if isLeafRef(child) {
				if int(decodeLeaf(child)) >= len(raw.Leaves) {
					return nil, &ParseError{Reason: "node references an out-of-range leaf index"}
				}
				continue
			}
			// A node's children are always built, and so pushed
			// into the arena, before the node itself (split pushes
			// a node only after recursing into low/mid/high), so a
			// child's index must be strictly less than its
			// parent's. Rejecting anything else also rejects
			// cycles, which would otherwise send maxDepth/Query
			// into unbounded recursion over corrupted input.
			if child >= int32(i) || int(child) >= len(raw.Nodes) {
				return nil, &ParseError{Reason: "node references an out-of-range or cyclic node index"}
			}
		}
		a.nodes[i] = node{Axis: n.Axis, Split: n.Split, Low: n.Low, Mid: n.Mid, High: n.High}
	}
	for i, l := range raw.Leaves {
		a.leaves[i] = leaf{First: l.First, Last: l.Last}
	}
	if !isLeafRef(root) && int(root) >= len(a.nodes) {
		return nil, &ParseError{Reason: "root references an out-of-range node index"}
	}
	if isLeafRef(root) && int(decodeLeaf(root)) >= len(a.leaves) {
		return nil, &ParseError{Reason: "root references an out-of-range leaf index"}
	}
	return &Tree{
		dims:     dims,
		leafSize: leafSize,
		boundsFn: boundsFn,
		objectAt: objectAt,
		arena:    a,
		root:     root,
	}, nil
}
