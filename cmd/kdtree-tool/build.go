// Copyright (C) 2022-2023  Luke Shumaker <lukeshu@lukeshu.com>
//
// SPDX-License-Identifier: GPL-2.0-or-later

package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"git.lukeshu.com/go/kdtree"
	"git.lukeshu.com/go/kdtree/persist"
)

func newBuildCommand(wrap func(func(context.Context, *cobra.Command, []string) error) func(*cobra.Command, []string) error) *cobra.Command {
	var dims int
	var leafSize int
	var arenaFactor int
	var cacheSize int
	var progress bool
	var binary bool

	cmd := &cobra.Command{
		Use:   "build CSV_FILE OUT_FILE",
		Short: "Build a tree from a CSV of item boxes and write it to OUT_FILE",
		Args:  cobra.ExactArgs(2),
	}
	cmd.Flags().IntVar(&dims, "dims", 3, "number of axes")
	cmd.Flags().IntVar(&leafSize, "leaf-size", 100, "leaf size: item sets smaller than this become leaves")
	cmd.Flags().IntVar(&arenaFactor, "arena-factor", 4, "node/leaf arena overcommit factor")
	cmd.Flags().IntVar(&cacheSize, "bounds-cache", 0, "LRU-cache this many resolved bounds (0 disables caching)")
	cmd.Flags().BoolVar(&progress, "progress", false, "log build progress periodically")
	cmd.Flags().BoolVar(&binary, "binary", false, "write the mmap-friendly binary format instead of text")

	cmd.RunE = wrap(func(ctx context.Context, cmd *cobra.Command, args []string) error {
		csvPath, outPath := args[0], args[1]

		boxes, err := loadBoxesCSV(csvPath, dims)
		if err != nil {
			return err
		}

		boundsFn := kdtree.BoundsFunc(boxes.boundsFn)
		if cacheSize > 0 {
			boundsFn = kdtree.CacheBounds(boundsFn, cacheSize)
		}

		opts := []kdtree.Option{kdtree.WithLeafSize(leafSize), kdtree.WithArenaFactor(arenaFactor)}
		if progress {
			opts = append(opts, kdtree.WithProgress())
		}

		n := int32(len(boxes.min))
		tree, err := kdtree.Build(ctx, dims, 0, n-1, boundsFn, opts...)
		if err != nil {
			return fmt.Errorf("build: %w", err)
		}

		stats := tree.Stats()
		fmt.Printf("built: %d nodes, %d leaves, %d items, max depth %d\n",
			stats.NodeCount, stats.LeafCount, stats.ItemCount, stats.MaxDepth)

		if binary {
			return persist.WriteBinary(tree, outPath)
		}
		return persist.WriteText(tree, outPath)
	})

	return cmd
}
