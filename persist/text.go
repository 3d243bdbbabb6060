// Copyright (C) 2022-2023  Luke Shumaker <lukeshu@lukeshu.com>
//
// SPDX-License-Identifier: GPL-2.0-or-later

// Package persist implements the text and binary (mmap) serializers
// of §4.7: both round-trip a Tree's structural arena (nodes, leaves,
// items) while leaving the caller to re-supply its objects and bounds
// callback on reload.
package persist

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"git.lukeshu.com/go/kdtree"
)

// WriteText writes tree's structural arena to path in the line-based,
// whitespace-tokenized format of §4.7: a header line of
// "<node_count>\t<leaf_count>\t<item_count>", followed by a pre-order
// emission of the tree body.
func WriteText(tree *kdtree.Tree, path string) (err error) {
	f, openErr := os.Create(path)
	if openErr != nil {
		return &kdtree.IOError{Op: "create", Path: path, Err: openErr}
	}
	defer func() {
		if cerr := f.Close(); err == nil && cerr != nil {
			err = &kdtree.IOError{Op: "close", Path: path, Err: cerr}
		}
	}()

	raw, root := tree.Raw()
	w := bufio.NewWriter(f)
	if _, err = fmt.Fprintf(w, "%d\t%d\t%d\n", len(raw.Nodes), len(raw.Leaves), len(raw.Items)); err != nil {
		return &kdtree.IOError{Op: "write", Path: path, Err: err}
	}
	if err = writeTextBody(w, raw, root); err != nil {
		return &kdtree.IOError{Op: "write", Path: path, Err: err}
	}
	if err = w.Flush(); err != nil {
		return &kdtree.IOError{Op: "write", Path: path, Err: err}
	}
	return nil
}

// writeTextBody emits ref and its subtree in pre-order. An internal
// node's body is "N\t<axis>\t<split>" followed by the bodies of its
// low, high, and mid children in that order (§4.7 — note this is
// *not* the low/mid/high order the Node struct stores its fields in).
func writeTextBody(w io.Writer, raw kdtree.RawArena, ref int32) error {
	if kdtree.IsLeafRef(ref) {
		lf := raw.Leaves[kdtree.DecodeLeafRef(ref)]
		n := 0
		if lf.Last >= lf.First {
			n = int(lf.Last-lf.First) + 1
		}
		if _, err := fmt.Fprintf(w, "L\t%d\n", n); err != nil {
			return err
		}
		for i := lf.First; i <= lf.Last; i++ {
			if _, err := fmt.Fprintf(w, "%d\n", raw.Items[i]); err != nil {
				return err
			}
		}
		return nil
	}

	nd := raw.Nodes[ref]
	if _, err := fmt.Fprintf(w, "N\t%d\t%s\n", nd.Axis, formatFloat(nd.Split)); err != nil {
		return err
	}
	for _, child := range [3]int32{nd.Low, nd.High, nd.Mid} {
		if err := writeTextBody(w, raw, child); err != nil {
			return err
		}
	}
	return nil
}

// formatFloat uses the full-precision round-trippable form
// recommended by §9's open question about cross-platform exactness,
// rather than host-default float formatting.
func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'x', -1, 64)
}

func parseFloat(s string) (float64, error) {
	return strconv.ParseFloat(s, 64)
}

// ReadText reconstructs a Tree from a file written by WriteText. The
// caller re-supplies dims, leafSize, and boundsFn exactly as it would
// to kdtree.Build; objectAt should be non-nil only when reloading a
// tree originally built with kdtree.BuildObjects.
func ReadText(path string, dims, leafSize int, boundsFn kdtree.BoundsFunc, objectAt func(kdtree.ItemID) any) (*kdtree.Tree, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &kdtree.IOError{Op: "open", Path: path, Err: err}
	}
	defer f.Close()

	p := &textParser{sc: bufio.NewScanner(f)}
	p.sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)

	nodeCount, leafCount, itemCount, err := p.header()
	if err != nil {
		return nil, err
	}

	raw := kdtree.RawArena{
		Nodes:  make([]kdtree.NodeRecord, 0, nodeCount),
		Leaves: make([]kdtree.LeafRecord, 0, leafCount),
		Items:  make([]int32, 0, itemCount),
	}
	root, err := p.body(&raw)
	if err != nil {
		return nil, err
	}
	if len(raw.Nodes) != nodeCount || len(raw.Leaves) != leafCount || len(raw.Items) != itemCount {
		return nil, &kdtree.ParseError{Line: p.line, Reason: "header counts do not match the emitted tree body"}
	}

	return kdtree.FromRaw(dims, leafSize, boundsFn, objectAt, raw, root)
}

type textParser struct {
	sc   *bufio.Scanner
	line int
}

func (p *textParser) next() (string, bool) {
	if !p.sc.Scan() {
		return "", false
	}
	p.line++
	return p.sc.Text(), true
}

func (p *textParser) header() (nodeCount, leafCount, itemCount int, err error) {
	line, ok := p.next()
	if !ok {
		return 0, 0, 0, &kdtree.ParseError{Line: p.line, Reason: "missing header line"}
	}
	fields := strings.Split(line, "\t")
	if len(fields) != 3 {
		return 0, 0, 0, &kdtree.ParseError{Line: p.line, Reason: "header does not have 3 tab-separated fields"}
	}
	nodeCount, err1 := strconv.Atoi(fields[0])
	leafCount, err2 := strconv.Atoi(fields[1])
	itemCount, err3 := strconv.Atoi(fields[2])
	if err1 != nil || err2 != nil || err3 != nil {
		return 0, 0, 0, &kdtree.ParseError{Line: p.line, Reason: "header field is not numeric"}
	}
	return nodeCount, leafCount, itemCount, nil
}

// body parses one pre-order subtree, appending to raw, and returns
// its arena reference (allocating the node/leaf slot as it goes, the
// same way the builder's arena.pushNode/pushLeaf do).
func (p *textParser) body(raw *kdtree.RawArena) (int32, error) {
	line, ok := p.next()
	if !ok {
		return 0, &kdtree.ParseError{Line: p.line, Reason: "missing record line"}
	}
	fields := strings.Split(line, "\t")
	switch fields[0] {
	case "L":
		if len(fields) != 2 {
			return 0, &kdtree.ParseError{Line: p.line, Reason: "leaf record does not have 2 fields"}
		}
		n, err := strconv.Atoi(fields[1])
		if err != nil || n < 0 {
			return 0, &kdtree.ParseError{Line: p.line, Reason: "leaf item count is not a valid non-negative integer"}
		}
		first := int32(len(raw.Items))
		for i := 0; i < n; i++ {
			itemLine, ok := p.next()
			if !ok {
				return 0, &kdtree.ParseError{Line: p.line, Reason: "truncated leaf item run"}
			}
			id, err := strconv.ParseInt(strings.TrimSpace(itemLine), 10, 32)
			if err != nil {
				return 0, &kdtree.ParseError{Line: p.line, Reason: "item id is not a valid integer"}
			}
			raw.Items = append(raw.Items, int32(id))
		}
		last := first + int32(n) - 1
		leafIdx := int32(len(raw.Leaves))
		raw.Leaves = append(raw.Leaves, kdtree.LeafRecord{First: first, Last: last})
		return kdtree.EncodeLeafRef(leafIdx), nil

	case "N":
		if len(fields) != 3 {
			return 0, &kdtree.ParseError{Line: p.line, Reason: "node record does not have 3 fields"}
		}
		axis, err1 := strconv.Atoi(fields[1])
		split, err2 := parseFloat(fields[2])
		if err1 != nil || err2 != nil {
			return 0, &kdtree.ParseError{Line: p.line, Reason: "node axis/split is not numeric"}
		}
		low, err := p.body(raw)
		if err != nil {
			return 0, err
		}
		high, err := p.body(raw)
		if err != nil {
			return 0, err
		}
		mid, err := p.body(raw)
		if err != nil {
			return 0, err
		}
		// Append this node only after its children, so its index
		// comes after low/high/mid's the same way arena.pushNode's
		// post-order build does — even though the text body itself
		// is written pre-order (§4.7).
		idx := int32(len(raw.Nodes))
		raw.Nodes = append(raw.Nodes, kdtree.NodeRecord{Axis: uint8(axis), Split: split, Low: low, Mid: mid, High: high})
		return idx, nil

	default:
		return 0, &kdtree.ParseError{Line: p.line, Reason: fmt.Sprintf("unrecognized record header %q", fields[0])}
	}
}
