// Copyright (C) 2022-2023  Luke Shumaker <lukeshu@lukeshu.com>
//
// SPDX-License-Identifier: GPL-2.0-or-later

package kdtree

import (
	"context"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitCostMonotone(t *testing.T) {
	// A perfectly balanced split (no mid straddlers) should always cost
	// less than one that dumps everything on one side.
	balanced := splitCost(50, 0, 50)
	lopsided := splitCost(0, 0, 100)
	assert.Less(t, balanced, lopsided)
}

func TestSplitCostEmptyGroups(t *testing.T) {
	assert.Equal(t, 0.0, splitCost(0, 0, 0))
}

// TestLeafDisjointness builds trees over random data and checks that
// every item id appears in exactly one leaf's item run — the
// "leaf_disjointness" property — even though an item can straddle
// many internal nodes' mid children on its way down.
func TestLeafDisjointness(t *testing.T) {
	ctx := context.Background()
	rng := rand.New(rand.NewSource(7))
	bl := randomBoxList(t, rng, 3, 300, 40)
	tree, err := Build(ctx, 3, 0, 299, bl.bounds, WithLeafSize(5))
	require.NoError(t, err)

	seen := make(map[ItemID]int)
	var walk func(ref int32)
	walk = func(ref int32) {
		if isLeafRef(ref) {
			lf := tree.arena.leaves[decodeLeaf(ref)]
			for i := lf.First; i <= lf.Last; i++ {
				seen[tree.arena.items[i]]++
			}
			return
		}
		n := tree.arena.nodes[ref]
		walk(n.Low)
		walk(n.Mid)
		walk(n.High)
	}
	walk(tree.root)

	assert.Len(t, seen, 300)
	for id, count := range seen {
		assert.Equal(t, 1, count, "item %d appeared in %d leaves", id, count)
	}
}

// TestDegeneracyGuard forces a situation where every item spans the
// same full extent on every axis, so no split could ever shrink either
// side; the builder must still terminate in leaves rather than
// recursing forever.
func TestDegeneracyGuard(t *testing.T) {
	ctx := context.Background()
	n := 40
	bl := &boxList{dims: 2}
	for i := 0; i < n; i++ {
		bl.min = append(bl.min, []float64{0, 0})
		bl.max = append(bl.max, []float64{10, 10})
	}
	tree, err := Build(ctx, 2, 0, int32(n-1), bl.bounds, WithLeafSize(8))
	require.NoError(t, err)
	assert.Equal(t, n, tree.Stats().ItemCount)
}
