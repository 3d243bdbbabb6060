// Copyright (C) 2022-2023  Luke Shumaker <lukeshu@lukeshu.com>
//
// SPDX-License-Identifier: GPL-2.0-or-later

package kdtree

import "sort"

// eventSet holds the per-axis sorted event lists produced by
// generateEvents, plus the resolved bounds of every item (flattened,
// indexed by position*dims+axis) so the splitter's partition step can
// classify an item against a candidate split plane without calling
// back into the bounds callback.
type eventSet struct {
	dims    int
	byAxis  [][]event // len(byAxis) == dims
	itemMin []float64 // len == n*dims
	itemMax []float64 // len == n*dims
	base    ItemID    // itemMin/itemMax are indexed by (item-base)*dims+axis
}

func (es *eventSet) boundsAt(item ItemID, axis int) (min, max float64) {
	i := int(item-es.base)*es.dims + axis
	return es.itemMin[i], es.itemMax[i]
}

// generateEvents resolves the AABB of every item in src via fn and
// builds the dims sorted-by-x event lists described in §4.3: a
// nondegenerate extent on axis a contributes one open event at min[a]
// and one close event at max[a]; a degenerate extent contributes a
// single point event.
func generateEvents(src source, dims int, fn BoundsFunc) (*eventSet, error) {
	n := int(src.count())
	es := &eventSet{
		dims:    dims,
		byAxis:  make([][]event, dims),
		itemMin: make([]float64, n*dims),
		itemMax: make([]float64, n*dims),
	}
	if n > 0 {
		es.base = src.id(0)
	}

	minScratch := make([]float64, dims)
	maxScratch := make([]float64, dims)
	for a := 0; a < dims; a++ {
		es.byAxis[a] = make([]event, 0, 2*n)
	}

	for pos := int32(0); pos < int32(n); pos++ {
		item := src.id(pos)
		min, max, err := fn(item, minScratch, maxScratch)
		if err != nil {
			return nil, &CallbackError{Item: item, Err: err}
		}
		if len(min) != dims {
			return nil, &DimensionMismatchError{Want: dims, Got: len(min)}
		}
		if max == nil {
			max = min
		}
		if len(max) != dims {
			return nil, &DimensionMismatchError{Want: dims, Got: len(max)}
		}

		base := int(pos) * dims
		for a := 0; a < dims; a++ {
			es.itemMin[base+a] = min[a]
			es.itemMax[base+a] = max[a]
			if max[a] != min[a] {
				es.byAxis[a] = append(es.byAxis[a], event{x: min[a], kind: eventOpen, item: item})
				es.byAxis[a] = append(es.byAxis[a], event{x: max[a], kind: eventClose, item: item})
			} else {
				es.byAxis[a] = append(es.byAxis[a], event{x: min[a], kind: eventPoint, item: item})
			}
		}
	}

	for a := 0; a < dims; a++ {
		sortEvents(es.byAxis[a])
	}

	return es, nil
}

// sortEvents orders an axis's events ascending by x. Events sharing
// an x value form a tie group that the splitter must walk atomically
// (§4.3); their relative order within the group does not affect that,
// so a plain ascending sort (stable or not) satisfies the contract.
func sortEvents(events []event) {
	sort.Slice(events, func(i, j int) bool {
		return events[i].x < events[j].x
	})
}
