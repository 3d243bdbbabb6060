// Copyright (C) 2022-2023  Luke Shumaker <lukeshu@lukeshu.com>
//
// SPDX-License-Identifier: GPL-2.0-or-later

package kdtree

import "iter"

// Query returns a lazy, finite sequence of (item id, error) pairs for
// every stored item whose AABB overlaps [qmin, qmax]. Ordering is the
// left-first DFS order of the arena; it is stable for a given tree
// but is not a documented contract (§4.6).
//
// Callers may stop ranging at any point (early abandonment leaks
// nothing, per §5). A non-nil error — a dimension mismatch or a
// failure from the bounds callback — is yielded as the sole element
// of the final pair and ends the sequence; callers should check err
// on every iteration.
func (t *Tree) Query(qmin, qmax []float64) iter.Seq2[ItemID, error] {
	return func(yield func(ItemID, error) bool) {
		if len(qmin) != t.dims {
			yield(0, &DimensionMismatchError{Want: t.dims, Got: len(qmin)})
			return
		}
		if len(qmax) != t.dims {
			yield(0, &DimensionMismatchError{Want: t.dims, Got: len(qmax)})
			return
		}
		minScratch := make([]float64, t.dims)
		maxScratch := make([]float64, t.dims)
		t.descend(t.root, qmin, qmax, minScratch, maxScratch, yield)
	}
}

// descend implements §4.6's recursive classify-and-prune traversal.
// It returns false once yield has asked iteration to stop, so the
// caller can unwind without visiting the remaining arena.
func (t *Tree) descend(ref int32, qmin, qmax, minScratch, maxScratch []float64, yield func(ItemID, error) bool) bool {
	if !isLeafRef(ref) {
		n := t.arena.nodes[ref]
		axis := int(n.Axis)
		if qmin[axis] <= n.Split {
			if !t.descend(n.Low, qmin, qmax, minScratch, maxScratch, yield) {
				return false
			}
		}
		if qmax[axis] >= n.Split {
			if !t.descend(n.High, qmin, qmax, minScratch, maxScratch, yield) {
				return false
			}
		}
		// Mid-straddlers may intersect a query on either side of the
		// plane, so mid is always visited regardless of qmin/qmax.
		return t.descend(n.Mid, qmin, qmax, minScratch, maxScratch, yield)
	}

	lf := t.arena.leaves[decodeLeaf(ref)]
	for i := lf.First; i <= lf.Last; i++ {
		id := t.arena.items[i]
		min, max, err := t.boundsFn(id, minScratch, maxScratch)
		if err != nil {
			yield(0, &CallbackError{Item: id, Err: err})
			return false
		}
		if max == nil {
			max = min
		}
		if aabbOverlaps(min, max, qmin, qmax) {
			if !yield(id, nil) {
				return false
			}
		}
	}
	return true
}

// aabbOverlaps is the AABB overlap test of §4.6: on every axis, the
// item's min must not exceed the query's max, and the item's max must
// not fall short of the query's min.
func aabbOverlaps(itemMin, itemMax, qmin, qmax []float64) bool {
	for a := range qmin {
		if itemMin[a] > qmax[a] || itemMax[a] < qmin[a] {
			return false
		}
	}
	return true
}
