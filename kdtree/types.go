// Copyright (C) 2022-2023  Luke Shumaker <lukeshu@lukeshu.com>
//
// SPDX-License-Identifier: GPL-2.0-or-later

package kdtree

// ItemID is the caller-chosen (index mode) or position-derived
// (object mode) identifier that the tree stores in place of the
// caller's actual data.
type ItemID = int32

// AABB is an axis-aligned bounding box of Dims()-length vectors. A
// point is represented with Max equal to Min on every axis.
type AABB struct {
	Min, Max []float64
}

// eventKind classifies an Event by which edge(s) of an item's extent
// on one axis it marks.
type eventKind int8

const (
	eventClose eventKind = -1
	eventPoint eventKind = 0
	eventOpen  eventKind = +1
)

// event is a build-time-only record: an item's opening, closing, or
// point extent on a single axis. Event lists are scratch storage,
// discarded once Build returns.
type event struct {
	x    float64
	kind eventKind
	item ItemID
}

// node is an internal arena record. The three children are signed
// arena references: r >= 0 is a node index, r < 0 is an encoded leaf
// index (see encodeLeaf/decodeLeaf).
type node struct {
	Axis  uint8
	Split float64
	Low   int32
	Mid   int32
	High  int32
}

// leaf is a terminal arena record: an inclusive range of indices into
// the tree's flat item-id run.
type leaf struct {
	First int32
	Last  int32
}

// encodeLeaf converts a non-negative leaf index into the signed arena
// reference that denotes it.
func encodeLeaf(leafIndex int32) int32 {
	return -(leafIndex + 1)
}

// decodeLeaf recovers the leaf index from a signed arena reference
// for which isLeafRef(ref) holds.
func decodeLeaf(ref int32) int32 {
	return -ref - 1
}

// isLeafRef reports whether ref refers to a leaf (as opposed to a
// node).
func isLeafRef(ref int32) bool {
	return ref < 0
}

// EncodeLeafRef and DecodeLeafRef and IsLeafRef expose the arena's
// signed-reference encoding (§9) to the persist package, which walks
// a RawArena without access to the tree's unexported node/leaf types.
func EncodeLeafRef(leafIndex int32) int32 { return encodeLeaf(leafIndex) }
func DecodeLeafRef(ref int32) int32       { return decodeLeaf(ref) }
func IsLeafRef(ref int32) bool            { return isLeafRef(ref) }

// Stats summarizes the shape of a built tree for introspection and
// logging; it is not part of the query or persistence contract.
type Stats struct {
	Dims      int
	LeafSize  int
	NodeCount int
	LeafCount int
	ItemCount int
	MaxDepth  int
}
