// Copyright (C) 2022-2023  Luke Shumaker <lukeshu@lukeshu.com>
//
// SPDX-License-Identifier: GPL-2.0-or-later

package kdtree

import (
	"math"

	"git.lukeshu.com/go/kdtree/lib/slices"
)

// candidate is a (axis, coordinate) split choice under evaluation,
// along with the three-way partition sizes it would produce and its
// heuristic cost.
type candidate struct {
	axis    int
	x       float64
	l, m, h int
	cost    float64
}

// split is the construction core (§4.4): given the current item
// set's per-axis sorted event lists, it either terminates in a leaf
// or chooses a three-way split, partitions the event lists, recurses
// into the three children, and emits an internal node.
func split(a *arena, es *eventSet, axes [][]event, n int, leafSize int) (int32, error) {
	if n < leafSize {
		return buildLeaf(a, axes[0])
	}

	best := bestSplit(axes, n)
	if best.l == n || best.h == n || best.m == n {
		// The best available split would send every item to one
		// side — including the all-to-mid case, e.g. item sets
		// where every item shares the same full extent on every
		// axis — so recursing on that side would repeat the exact
		// same subproblem forever. Fall back to a single leaf
		// instead (degeneracy guard).
		return buildLeaf(a, axes[0])
	}

	dims := es.dims
	lowAxes := make([][]event, dims)
	midAxes := make([][]event, dims)
	highAxes := make([][]event, dims)
	for ax := 0; ax < dims; ax++ {
		lowAxes[ax] = slices.Filter(axes[ax], func(e event) bool {
			_, hi := es.boundsAt(e.item, best.axis)
			return hi <= best.x
		})
		highAxes[ax] = slices.Filter(axes[ax], func(e event) bool {
			lo, _ := es.boundsAt(e.item, best.axis)
			return lo > best.x
		})
		midAxes[ax] = slices.Filter(axes[ax], func(e event) bool {
			lo, hi := es.boundsAt(e.item, best.axis)
			return lo <= best.x && hi > best.x
		})
	}

	lowRef, err := split(a, es, lowAxes, best.l, leafSize)
	if err != nil {
		return 0, err
	}
	highRef, err := split(a, es, highAxes, best.h, leafSize)
	if err != nil {
		return 0, err
	}
	midRef, err := split(a, es, midAxes, best.m, leafSize)
	if err != nil {
		return 0, err
	}

	return a.pushNode(uint8(best.axis), best.x, lowRef, midRef, highRef)
}

// bestSplit scans every axis's sorted event list a tie-group at a
// time, maintaining the running (L, M, H) counts of §4.4, and returns
// the (axis, coordinate) pair with the lowest cost() value seen at
// any group boundary.
func bestSplit(axes [][]event, n int) candidate {
	var best candidate
	haveBest := false

	for axis, events := range axes {
		l, m, h := 0, 0, n
		i := 0
		for i < len(events) {
			x0 := events[i].x
			j := i
			for j < len(events) && events[j].x == x0 {
				j++
			}
			group := events[i:j]

			// Opens and points move an item from H into M...
			for _, e := range group {
				if e.kind >= eventPoint {
					m++
					h--
				}
			}
			// ...and closes and points move an item from M into L.
			// A point event runs both branches, netting a transfer
			// straight from H to L with M unchanged.
			for _, e := range group {
				if e.kind <= eventPoint {
					m--
					l++
				}
			}

			c := splitCost(l, m, h)
			if !haveBest || c < best.cost {
				best = candidate{axis: axis, x: x0, l: l, m: m, h: h, cost: c}
				haveBest = true
			}
			i = j
		}
	}

	return best
}

// splitCost is the heuristic of §4.4: a weighted-entropy
// approximation of expected query work, not a true Surface Area
// Heuristic. It deliberately double-counts M into both L+M and M+H,
// reflecting that mid-straddlers recurse into their own child which
// itself partitions further.
func splitCost(l, m, h int) float64 {
	lm := l + m
	mh := m + h
	if lm+mh == 0 {
		return 0
	}
	return (xlogx(lm) + xlogx(mh)) / float64(lm+mh)
}

func xlogx(v int) float64 {
	if v <= 0 {
		return 0
	}
	fv := float64(v)
	return fv * math.Log(fv)
}

// buildLeaf emits a leaf whose item run is exactly the items
// represented by axisEvents: every item contributes exactly one event
// with kind >= eventPoint (an open or a point), so collecting those
// item ids yields one entry per item (§4.5).
func buildLeaf(a *arena, axisEvents []event) (int32, error) {
	ids := make([]int32, 0, (len(axisEvents)+1)/2)
	for _, e := range axisEvents {
		if e.kind >= eventPoint {
			ids = append(ids, e.item)
		}
	}
	leafRef, base, err := a.pushLeaf(len(ids))
	if err != nil {
		return 0, err
	}
	copy(a.items[base:], ids)
	return leafRef, nil
}
