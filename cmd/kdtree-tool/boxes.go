// Copyright (C) 2022-2023  Luke Shumaker <lukeshu@lukeshu.com>
//
// SPDX-License-Identifier: GPL-2.0-or-later

package main

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"

	"git.lukeshu.com/go/kdtree"
)

// boxSet is an in-memory, index-mode item source: row i's bounds are
// item id i (0-based; the item id is used directly as the row index,
// so the tree is built over the range starting at 0). Rows are read once at load time, matching the tool's
// "dataset fits comfortably in memory; only the persisted tree arena
// is meant to scale past that" posture.
type boxSet struct {
	dims int
	min  [][]float64
	max  [][]float64
}

// loadBoxesCSV reads a CSV file with one row per item: dims columns of
// min coordinates followed by dims columns of max coordinates (2*dims
// columns total, no header). Row i (0-based) becomes item id i.
func loadBoxesCSV(path string, dims int) (*boxSet, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &kdtree.IOError{Op: "open", Path: path, Err: err}
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = 2 * dims

	bs := &boxSet{dims: dims}
	for {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, &kdtree.IOError{Op: "read", Path: path, Err: err}
		}
		min := make([]float64, dims)
		max := make([]float64, dims)
		for a := 0; a < dims; a++ {
			min[a], err = strconv.ParseFloat(rec[a], 64)
			if err != nil {
				return nil, &kdtree.IOError{Op: "parse", Path: path, Err: fmt.Errorf("row %d: column %d: %w", len(bs.min)+1, a, err)}
			}
			max[a], err = strconv.ParseFloat(rec[dims+a], 64)
			if err != nil {
				return nil, &kdtree.IOError{Op: "parse", Path: path, Err: fmt.Errorf("row %d: column %d: %w", len(bs.min)+1, dims+a, err)}
			}
		}
		bs.min = append(bs.min, min)
		bs.max = append(bs.max, max)
	}
	return bs, nil
}

// boundsFn is the boxSet's kdtree.BoundsFunc: it copies the stored box
// into the caller's scratch vectors rather than returning its own
// backing slices directly, honoring BoundsFunc's no-retain contract in
// both directions (the tree must not retain past the call, and the
// tool must not let the tree mutate boxSet's storage through aliasing).
func (bs *boxSet) boundsFn(item kdtree.ItemID, minScratch, maxScratch []float64) ([]float64, []float64, error) {
	idx := int(item)
	if idx < 0 || idx >= len(bs.min) {
		return nil, nil, fmt.Errorf("item id %d out of range for %d loaded rows", item, len(bs.min))
	}
	copy(minScratch, bs.min[idx])
	copy(maxScratch, bs.max[idx])
	return minScratch, maxScratch, nil
}
