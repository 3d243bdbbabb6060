// Copyright (C) 2022-2023  Luke Shumaker <lukeshu@lukeshu.com>
//
// SPDX-License-Identifier: GPL-2.0-or-later

package kdtree

import (
	lru "github.com/hashicorp/golang-lru"
)

// cachedBounds is an AABB with its own copy of the coordinate
// vectors, safe to retain past the bounds callback's return (unlike
// the scratch vectors BoundsFunc is handed).
type cachedBounds struct {
	min, max []float64
}

// CacheBounds wraps fn with a bounded LRU of resolved AABBs, keyed by
// item id. It exists for object mode callers whose bounds callback
// resolves bounds from a slow backing store (a database, a decoded
// file format): Query may walk the same leaf across many calls, and
// re-resolving a popular item's bounds on every call is wasted work
// once the tree is built and frozen.
//
// The wrapped callback must still be pure (§5 "bounds callback
// purity") — the cache assumes a given item id always resolves to the
// same AABB.
func CacheBounds(fn BoundsFunc, size int) BoundsFunc {
	if size < 1 {
		size = 1
	}
	cache, err := lru.New(size)
	if err != nil {
		// Only returned for size <= 0, which we've just excluded.
		panic(err)
	}
	return func(item ItemID, minScratch, maxScratch []float64) ([]float64, []float64, error) {
		if v, ok := cache.Get(item); ok {
			cb := v.(cachedBounds)
			copy(minScratch, cb.min)
			if cb.max == nil {
				return minScratch, nil, nil
			}
			maxScratch = maxScratch[:len(cb.max)]
			copy(maxScratch, cb.max)
			return minScratch, maxScratch, nil
		}

		min, max, err := fn(item, minScratch, maxScratch)
		if err != nil {
			return nil, nil, err
		}

		cb := cachedBounds{min: append([]float64(nil), min...)}
		if max != nil {
			cb.max = append([]float64(nil), max...)
		}
		cache.Add(item, cb)

		return min, max, nil
	}
}
