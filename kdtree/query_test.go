// Copyright (C) 2022-2023  Luke Shumaker <lukeshu@lukeshu.com>
//
// SPDX-License-Identifier: GPL-2.0-or-later

package kdtree

import (
	"context"
	"math/rand"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// boxList is a test-only item source: a flat slice of AABBs, indexed
// by position (item id == position, index mode).
type boxList struct {
	dims int
	min  [][]float64
	max  [][]float64
}

func (bl *boxList) bounds(item ItemID, minScratch, maxScratch []float64) ([]float64, []float64, error) {
	copy(minScratch, bl.min[item])
	copy(maxScratch, bl.max[item])
	return minScratch, maxScratch, nil
}

func randomBoxList(t *testing.T, rng *rand.Rand, dims, n int, extent float64) *boxList {
	t.Helper()
	bl := &boxList{dims: dims}
	for i := 0; i < n; i++ {
		min := make([]float64, dims)
		max := make([]float64, dims)
		for a := 0; a < dims; a++ {
			x0 := rng.Float64() * extent
			x1 := rng.Float64() * extent
			if x0 > x1 {
				x0, x1 = x1, x0
			}
			min[a], max[a] = x0, x1
		}
		bl.min = append(bl.min, min)
		bl.max = append(bl.max, max)
	}
	return bl
}

func bruteForce(bl *boxList, qmin, qmax []float64) []ItemID {
	var out []ItemID
	for i := range bl.min {
		if aabbOverlaps(bl.min[i], bl.max[i], qmin, qmax) {
			out = append(out, ItemID(i))
		}
	}
	return out
}

func collectQuery(t *testing.T, tree *Tree, qmin, qmax []float64) []ItemID {
	t.Helper()
	var out []ItemID
	for id, err := range tree.Query(qmin, qmax) {
		require.NoError(t, err)
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// TestQuerySoundness checks the tree against a brute-force oracle over
// many random boxes and queries, across several dimensionalities, the
// property the spec calls "query_soundness": the result set must
// exactly equal the brute-force overlap set, with no duplicates.
func TestQuerySoundness(t *testing.T) {
	ctx := context.Background()
	rng := rand.New(rand.NewSource(1))

	for _, dims := range []int{2, 3, 4, 5} {
		bl := randomBoxList(t, rng, dims, 500, 100)
		tree, err := Build(ctx, dims, 0, int32(len(bl.min)-1), bl.bounds, WithLeafSize(8))
		require.NoError(t, err)

		for q := 0; q < 20; q++ {
			qmin := make([]float64, dims)
			qmax := make([]float64, dims)
			for a := 0; a < dims; a++ {
				x0 := rng.Float64() * 100
				x1 := rng.Float64() * 100
				if x0 > x1 {
					x0, x1 = x1, x0
				}
				qmin[a], qmax[a] = x0, x1
			}

			got := collectQuery(t, tree, qmin, qmax)
			want := bruteForce(bl, qmin, qmax)
			sort.Slice(want, func(i, j int) bool { return want[i] < want[j] })

			assert.Equal(t, want, got, "dims=%d query=%d", dims, q)

			seen := make(map[ItemID]bool, len(got))
			for _, id := range got {
				assert.False(t, seen[id], "duplicate item %d in result", id)
				seen[id] = true
			}
		}
	}
}

func TestQueryEmptyTree(t *testing.T) {
	ctx := context.Background()
	bl := &boxList{dims: 3}
	tree, err := Build(ctx, 3, 0, -1, bl.bounds)
	require.NoError(t, err)

	got := collectQuery(t, tree, []float64{0, 0, 0}, []float64{1, 1, 1})
	assert.Empty(t, got)
	assert.Equal(t, 0, tree.Stats().ItemCount)
}

func TestQuerySingleItem(t *testing.T) {
	ctx := context.Background()
	bl := &boxList{dims: 2, min: [][]float64{{1, 1}}, max: [][]float64{{2, 2}}}
	tree, err := Build(ctx, 2, 0, 0, bl.bounds)
	require.NoError(t, err)

	assert.Equal(t, []ItemID{0}, collectQuery(t, tree, []float64{0, 0}, []float64{5, 5}))
	assert.Empty(t, collectQuery(t, tree, []float64{10, 10}, []float64{20, 20}))
}

func TestQueryAllIdenticalItems(t *testing.T) {
	ctx := context.Background()
	n := 50
	bl := &boxList{dims: 2}
	for i := 0; i < n; i++ {
		bl.min = append(bl.min, []float64{5, 5})
		bl.max = append(bl.max, []float64{5, 5})
	}
	tree, err := Build(ctx, 2, 0, int32(n-1), bl.bounds, WithLeafSize(4))
	require.NoError(t, err)

	got := collectQuery(t, tree, []float64{5, 5}, []float64{5, 5})
	assert.Len(t, got, n)
}

func TestQueryLeafSizeOne(t *testing.T) {
	ctx := context.Background()
	rng := rand.New(rand.NewSource(2))
	bl := randomBoxList(t, rng, 3, 64, 50)
	tree, err := Build(ctx, 3, 0, 63, bl.bounds, WithLeafSize(1))
	require.NoError(t, err)

	qmin, qmax := []float64{0, 0, 0}, []float64{50, 50, 50}
	assert.ElementsMatch(t, bruteForce(bl, qmin, qmax), collectQuery(t, tree, qmin, qmax))
}

func TestQueryDimensionMismatch(t *testing.T) {
	ctx := context.Background()
	bl := &boxList{dims: 3, min: [][]float64{{0, 0, 0}}, max: [][]float64{{1, 1, 1}}}
	tree, err := Build(ctx, 3, 0, 0, bl.bounds)
	require.NoError(t, err)

	var sawErr error
	for _, err := range tree.Query([]float64{0, 0}, []float64{1, 1}) {
		sawErr = err
		break
	}
	var dimErr *DimensionMismatchError
	assert.ErrorAs(t, sawErr, &dimErr)
}

// TestQueryEarlyAbandon exercises stopping mid-range; Query must not
// panic or leak when the caller breaks out before exhausting results.
func TestQueryEarlyAbandon(t *testing.T) {
	ctx := context.Background()
	rng := rand.New(rand.NewSource(3))
	bl := randomBoxList(t, rng, 3, 1000, 100)
	tree, err := Build(ctx, 3, 0, 999, bl.bounds, WithLeafSize(16))
	require.NoError(t, err)

	count := 0
	for id, err := range tree.Query([]float64{0, 0, 0}, []float64{100, 100, 100}) {
		require.NoError(t, err)
		_ = id
		count++
		if count == 3 {
			break
		}
	}
	assert.Equal(t, 3, count)
}
