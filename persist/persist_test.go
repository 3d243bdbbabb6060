// Copyright (C) 2022-2023  Luke Shumaker <lukeshu@lukeshu.com>
//
// SPDX-License-Identifier: GPL-2.0-or-later

package persist

import (
	"context"
	"math/rand"
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.lukeshu.com/go/kdtree"
)

type boxSource struct {
	min, max [][]float64
}

func (bs *boxSource) bounds(item kdtree.ItemID, minScratch, maxScratch []float64) ([]float64, []float64, error) {
	copy(minScratch, bs.min[item])
	copy(maxScratch, bs.max[item])
	return minScratch, maxScratch, nil
}

func randomBoxes(rng *rand.Rand, dims, n int, extent float64) *boxSource {
	bs := &boxSource{}
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
		bs.min = append(bs.min, min)
		bs.max = append(bs.max, max)
	}
	return bs
}

func queryIDs(t *testing.T, tree *kdtree.Tree, qmin, qmax []float64) []kdtree.ItemID {
	t.Helper()
	var out []kdtree.ItemID
	for id, err := range tree.Query(qmin, qmax) {
		require.NoError(t, err)
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// TestTextRoundTrip implements the spec's round-trip testable property
// for the text format: read_text(write_text(T)) must answer every
// query identically to T.
func TestTextRoundTrip(t *testing.T) {
	ctx := context.Background()
	rng := rand.New(rand.NewSource(11))
	dims := 3
	bs := randomBoxes(rng, dims, 400, 50)

	tree, err := kdtree.Build(ctx, dims, 0, int32(len(bs.min)-1), bs.bounds, kdtree.WithLeafSize(10))
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "tree.txt")
	require.NoError(t, WriteText(tree, path))

	reloaded, err := ReadText(path, dims, 10, bs.bounds, nil)
	require.NoError(t, err)

	for q := 0; q < 10; q++ {
		qmin := make([]float64, dims)
		qmax := make([]float64, dims)
		for a := 0; a < dims; a++ {
			x0 := rng.Float64() * 50
			x1 := rng.Float64() * 50
			if x0 > x1 {
				x0, x1 = x1, x0
			}
			qmin[a], qmax[a] = x0, x1
		}
		assert.Equal(t, queryIDs(t, tree, qmin, qmax), queryIDs(t, reloaded, qmin, qmax))
	}
}

// TestBinaryRoundTrip mirrors TestTextRoundTrip for the mmap-backed
// binary format.
func TestBinaryRoundTrip(t *testing.T) {
	ctx := context.Background()
	rng := rand.New(rand.NewSource(12))
	dims := 2
	bs := randomBoxes(rng, dims, 300, 80)

	tree, err := kdtree.Build(ctx, dims, 0, int32(len(bs.min)-1), bs.bounds, kdtree.WithLeafSize(6))
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "tree.bin")
	require.NoError(t, WriteBinary(tree, path))

	reloaded, err := ReadBinary(path, dims, 6, bs.bounds, nil)
	require.NoError(t, err)

	qmin, qmax := []float64{10, 10}, []float64{40, 40}
	assert.Equal(t, queryIDs(t, tree, qmin, qmax), queryIDs(t, reloaded, qmin, qmax))
}

func TestTextRoundTripEmptyTree(t *testing.T) {
	ctx := context.Background()
	bs := &boxSource{}
	tree, err := kdtree.Build(ctx, 2, 0, -1, bs.bounds)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "empty.txt")
	require.NoError(t, WriteText(tree, path))

	reloaded, err := ReadText(path, 2, 100, bs.bounds, nil)
	require.NoError(t, err)
	assert.Equal(t, 0, reloaded.Stats().ItemCount)
	assert.Empty(t, queryIDs(t, reloaded, []float64{0, 0}, []float64{1, 1}))
}

func TestTextRoundTripSingleItem(t *testing.T) {
	ctx := context.Background()
	bs := &boxSource{min: [][]float64{{5, 5}}, max: [][]float64{{5, 5}}}
	tree, err := kdtree.Build(ctx, 2, 0, 0, bs.bounds)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "single.txt")
	require.NoError(t, WriteText(tree, path))

	reloaded, err := ReadText(path, 2, 100, bs.bounds, nil)
	require.NoError(t, err)
	assert.Equal(t, []kdtree.ItemID{0}, queryIDs(t, reloaded, []float64{5, 5}, []float64{5, 5}))
}

func TestReadTextMissingFile(t *testing.T) {
	bs := &boxSource{}
	_, err := ReadText(filepath.Join(t.TempDir(), "does-not-exist.txt"), 2, 100, bs.bounds, nil)
	require.Error(t, err)
	var ioErr *kdtree.IOError
	assert.ErrorAs(t, err, &ioErr)
}

func TestReadBinaryRejectsBadMagic(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.bin")
	require.NoError(t, os.WriteFile(path, []byte("not a kdtree file at all, too short"), 0o644))

	bs := &boxSource{}
	_, err := ReadBinary(path, 2, 100, bs.bounds, nil)
	require.Error(t, err)
	var parseErr *kdtree.ParseError
	assert.ErrorAs(t, err, &parseErr)
}
