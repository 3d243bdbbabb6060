// Copyright (C) 2022-2023  Luke Shumaker <lukeshu@lukeshu.com>
//
// SPDX-License-Identifier: GPL-2.0-or-later

package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"git.lukeshu.com/go/kdtree"
	"git.lukeshu.com/go/kdtree/persist"
)

func newQueryCommand(wrap func(func(context.Context, *cobra.Command, []string) error) func(*cobra.Command, []string) error) *cobra.Command {
	var dims int
	var leafSize int
	var binary bool

	cmd := &cobra.Command{
		Use:   "query CSV_FILE TREE_FILE QMIN QMAX",
		Short: "Load a persisted tree and print item ids overlapping [QMIN, QMAX]",
		Long: "QMIN and QMAX are comma-separated coordinate lists, e.g.\n" +
			"kdtree-tool query boxes.csv tree.txt 0,0,0 10,10,10",
		Args: cobra.ExactArgs(4),
	}
	cmd.Flags().IntVar(&dims, "dims", 3, "number of axes")
	cmd.Flags().IntVar(&leafSize, "leaf-size", 100, "leaf_size the tree was originally built with")
	cmd.Flags().BoolVar(&binary, "binary", false, "read the mmap-friendly binary format instead of text")

	cmd.RunE = wrap(func(ctx context.Context, cmd *cobra.Command, args []string) error {
		csvPath, treePath, qminStr, qmaxStr := args[0], args[1], args[2], args[3]

		qmin, err := parseCoords(qminStr, dims)
		if err != nil {
			return fmt.Errorf("QMIN: %w", err)
		}
		qmax, err := parseCoords(qmaxStr, dims)
		if err != nil {
			return fmt.Errorf("QMAX: %w", err)
		}

		boxes, err := loadBoxesCSV(csvPath, dims)
		if err != nil {
			return err
		}
		boundsFn := kdtree.BoundsFunc(boxes.boundsFn)

		var tree *kdtree.Tree
		if binary {
			tree, err = persist.ReadBinary(treePath, dims, leafSize, boundsFn, nil)
		} else {
			tree, err = persist.ReadText(treePath, dims, leafSize, boundsFn, nil)
		}
		if err != nil {
			return fmt.Errorf("load: %w", err)
		}

		n := 0
		for id, err := range tree.Query(qmin, qmax) {
			if err != nil {
				return fmt.Errorf("query: %w", err)
			}
			fmt.Println(id)
			n++
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "%d items matched\n", n)
		return nil
	})

	return cmd
}

func parseCoords(s string, dims int) ([]float64, error) {
	fields := strings.Split(s, ",")
	if len(fields) != dims {
		return nil, fmt.Errorf("expected %d comma-separated coordinates, got %d", dims, len(fields))
	}
	out := make([]float64, dims)
	for i, f := range fields {
		v, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return nil, fmt.Errorf("coordinate %d: %w", i, err)
		}
		out[i] = v
	}
	return out, nil
}
