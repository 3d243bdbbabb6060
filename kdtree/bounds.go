// Copyright (C) 2022-2023  Luke Shumaker <lukeshu@lukeshu.com>
//
// SPDX-License-Identifier: GPL-2.0-or-later

package kdtree

// BoundsFunc resolves an item id to its AABB, filling the two
// length-Dims scratch vectors the adapter hands it so that no
// per-call allocation is required. Returning a nil max means
// max = min (a degenerate point box). The callback must not retain
// minScratch/maxScratch past its return, and must be pure: the same
// item id must resolve to the same AABB for the life of the tree.
type BoundsFunc func(item ItemID, minScratch, maxScratch []float64) (min, max []float64, err error)

// ObjectBoundsFunc is the object-mode counterpart of BoundsFunc: it
// resolves an opaque caller object, rather than a bare id, to its
// AABB.
type ObjectBoundsFunc[T any] func(obj T, minScratch, maxScratch []float64) (min, max []float64, err error)

// source enumerates the items a build covers and assigns each a
// stable ItemID, independent of whether the caller is building over
// an integer range (index mode) or an ordered object list (object
// mode).
type source interface {
	count() int32
	id(pos int32) ItemID // pos in [0, count())
}

type indexSource struct {
	lo, hi ItemID // inclusive
}

func (s indexSource) count() int32    { return s.hi - s.lo + 1 }
func (s indexSource) id(pos int32) ItemID { return s.lo + pos }

type objectSource struct {
	n int32
}

func (s objectSource) count() int32    { return s.n }
func (s objectSource) id(pos int32) ItemID { return pos + 1 } // 1-based, per spec §4.2

// adaptObjectBounds wraps an ObjectBoundsFunc and an object list into
// a plain BoundsFunc over the object list's 1-based positions, so the
// rest of the package (event generation, query resolution) only ever
// deals in BoundsFunc. This is the "bounds adapter" of §4.2.
func adaptObjectBounds[T any](objects []T, fn ObjectBoundsFunc[T]) BoundsFunc {
	return func(item ItemID, minScratch, maxScratch []float64) ([]float64, []float64, error) {
		idx := int(item) - 1
		if idx < 0 || idx >= len(objects) {
			return nil, nil, &CallbackError{Item: item, Err: errOutOfRange}
		}
		return fn(objects[idx], minScratch, maxScratch)
	}
}

var errOutOfRange = errOutOfRangeError{}

type errOutOfRangeError struct{}

func (errOutOfRangeError) Error() string { return "item id out of range for object list" }
