// Copyright (C) 2022-2023  Luke Shumaker <lukeshu@lukeshu.com>
//
// SPDX-License-Identifier: GPL-2.0-or-later

// Package kdtree implements an n-dimensional static k-d tree spatial
// index over axis-aligned bounding boxes (AABBs).
//
// The index is build-once, query-many: a Tree's topology is immutable
// from the moment Build or one of the persistence readers returns it.
// Construction runs an event-sweep splitter that produces a three-way
// partition (items strictly below a plane, items straddling it, items
// strictly above it) at each internal node, rather than the usual
// two-way split; this keeps leaves disjoint over the stored item run
// even though AABBs (unlike points) can straddle a split plane.
//
// A Tree neither owns the caller's objects nor parses their schema:
// it stores only int32 item identifiers and the node/leaf/item arena,
// resolving an identifier back to an AABB on demand through a
// caller-supplied BoundsFunc.
package kdtree
