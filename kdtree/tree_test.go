// Copyright (C) 2022-2023  Luke Shumaker <lukeshu@lukeshu.com>
//
// SPDX-License-Identifier: GPL-2.0-or-later

package kdtree

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type point2 struct{ X, Y float64 }

func pointBounds(p point2, minScratch, maxScratch []float64) ([]float64, []float64, error) {
	minScratch[0], minScratch[1] = p.X, p.Y
	return minScratch, nil, nil
}

// TestBuildObjectsIDs checks the 1-based id assignment of §4.2 object
// mode: objects[i] must resolve to id i+1.
func TestBuildObjectsIDs(t *testing.T) {
	ctx := context.Background()
	objects := []point2{{0, 0}, {1, 1}, {2, 2}}
	tree, err := BuildObjects(ctx, 2, objects, pointBounds)
	require.NoError(t, err)

	var got []ItemID
	for id, err := range tree.Query([]float64{-10, -10}, []float64{10, 10}) {
		require.NoError(t, err)
		got = append(got, id)
	}
	assert.ElementsMatch(t, []ItemID{1, 2, 3}, got)

	assert.Equal(t, objects[0], tree.Object(1))
	assert.Equal(t, objects[2], tree.Object(3))
}

func TestBuildObjectsEmpty(t *testing.T) {
	ctx := context.Background()
	tree, err := BuildObjects[point2](ctx, 2, nil, pointBounds)
	require.NoError(t, err)
	assert.Equal(t, 0, tree.Stats().ItemCount)
}

func TestWithLeafSizeClampsToOne(t *testing.T) {
	ctx := context.Background()
	bl := &boxList{dims: 2, min: [][]float64{{0, 0}}, max: [][]float64{{1, 1}}}
	tree, err := Build(ctx, 2, 0, 0, bl.bounds, WithLeafSize(0))
	require.NoError(t, err)
	assert.Equal(t, 1, tree.LeafSize())
}

func TestStatsMaxDepth(t *testing.T) {
	ctx := context.Background()
	n := 200
	bl := &boxList{dims: 2}
	for i := 0; i < n; i++ {
		x := float64(i)
		bl.min = append(bl.min, []float64{x, x})
		bl.max = append(bl.max, []float64{x, x})
	}
	tree, err := Build(ctx, 2, 0, int32(n-1), bl.bounds, WithLeafSize(4))
	require.NoError(t, err)

	stats := tree.Stats()
	assert.Equal(t, n, stats.ItemCount)
	assert.Greater(t, stats.MaxDepth, 0)
	assert.Equal(t, 4, stats.LeafSize)
}

func TestWithArenaFactor(t *testing.T) {
	ctx := context.Background()
	n := 64
	bl := &boxList{dims: 2}
	for i := 0; i < n; i++ {
		x := float64(i)
		bl.min = append(bl.min, []float64{x, x})
		bl.max = append(bl.max, []float64{x, x})
	}
	// A too-small arena factor should surface as CapacityExceededError,
	// not a silent reallocation. With leaf size 1, every internal node
	// here also gets an empty mid leaf, so 64 points need 127 leaves
	// against a limit of 64.
	_, err := Build(ctx, 2, 0, int32(n-1), bl.bounds, WithLeafSize(1), WithArenaFactor(1))
	if err != nil {
		var capErr *CapacityExceededError
		assert.ErrorAs(t, err, &capErr)
	}

	tree, err := Build(ctx, 2, 0, int32(n-1), bl.bounds, WithLeafSize(1), WithArenaFactor(8))
	require.NoError(t, err)
	assert.Equal(t, n, tree.Stats().ItemCount)
}

func TestObjectPanicsInIndexMode(t *testing.T) {
	ctx := context.Background()
	bl := &boxList{dims: 2, min: [][]float64{{0, 0}}, max: [][]float64{{1, 1}}}
	tree, err := Build(ctx, 2, 0, 0, bl.bounds)
	require.NoError(t, err)
	assert.Panics(t, func() { tree.Object(0) })
}
