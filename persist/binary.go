// Copyright (C) 2022-2023  Luke Shumaker <lukeshu@lukeshu.com>
//
// SPDX-License-Identifier: GPL-2.0-or-later

package persist

import (
	"encoding/binary"
	"fmt"
	"math"
	"os"

	"golang.org/x/exp/mmap"

	"git.lukeshu.com/go/kdtree"
	"git.lukeshu.com/go/kdtree/lib/diskio"
)

// binary format (§4.7, fixed-size records, always little-endian
// whatever the host's byte order; one file, not one file per array):
//
//	magic      [8]byte  "KDTREEB1"
//	nodeCount  uint32
//	leafCount  uint32
//	itemCount  uint32
//	root       int32    (explicit root, additive beyond the spec's
//	                      implicit node_count-1 convention — see DESIGN.md)
//	nodes      [nodeCount]nodeRecord
//	leaves     [leafCount]leafRecord
//	items      [itemCount]int32

var binMagic = [8]byte{'K', 'D', 'T', 'R', 'E', 'E', 'B', '1'}

const (
	nodeRecordSize = 1 + 7 /*pad*/ + 8 + 4 + 4 + 4 // axis, pad, split, low, mid, high
	leafRecordSize = 4 + 4                         // first, last
	headerSize     = 8 + 4 + 4 + 4 + 4
)

// WriteBinary writes tree's structural arena to path in the packed,
// fixed-size-record format meant to be read back with mmap (§4.7). It
// writes through diskio.File's WriteAt (rather than a plain sequential
// os.File.Write) so the layout is explicit about every record's
// absolute offset, matching the random-access contract ReadBinary
// relies on for its mmap reads.
func WriteBinary(tree *kdtree.Tree, path string) (err error) {
	osf, openErr := os.Create(path)
	if openErr != nil {
		return &kdtree.IOError{Op: "create", Path: path, Err: openErr}
	}
	f := &diskio.OSFile[int64]{File: osf}
	defer func() {
		if cerr := f.Close(); err == nil && cerr != nil {
			err = &kdtree.IOError{Op: "close", Path: path, Err: cerr}
		}
	}()

	raw, root := tree.Raw()

	header := make([]byte, headerSize)
	copy(header[0:8], binMagic[:])
	binary.LittleEndian.PutUint32(header[8:12], uint32(len(raw.Nodes)))
	binary.LittleEndian.PutUint32(header[12:16], uint32(len(raw.Leaves)))
	binary.LittleEndian.PutUint32(header[16:20], uint32(len(raw.Items)))
	binary.LittleEndian.PutUint32(header[20:24], uint32(root))
	if _, err = f.WriteAt(header, 0); err != nil {
		return &kdtree.IOError{Op: "write", Path: path, Err: err}
	}

	off := int64(headerSize)
	buf := make([]byte, nodeRecordSize)
	for _, n := range raw.Nodes {
		encodeNodeRecord(buf, n)
		if _, err = f.WriteAt(buf, off); err != nil {
			return &kdtree.IOError{Op: "write", Path: path, Err: err}
		}
		off += nodeRecordSize
	}

	buf = buf[:leafRecordSize]
	for _, l := range raw.Leaves {
		binary.LittleEndian.PutUint32(buf[0:4], uint32(l.First))
		binary.LittleEndian.PutUint32(buf[4:8], uint32(l.Last))
		if _, err = f.WriteAt(buf, off); err != nil {
			return &kdtree.IOError{Op: "write", Path: path, Err: err}
		}
		off += leafRecordSize
	}

	buf = buf[:4]
	for _, id := range raw.Items {
		binary.LittleEndian.PutUint32(buf, uint32(id))
		if _, err = f.WriteAt(buf, off); err != nil {
			return &kdtree.IOError{Op: "write", Path: path, Err: err}
		}
		off += 4
	}

	return nil
}

func encodeNodeRecord(buf []byte, n kdtree.NodeRecord) {
	buf[0] = n.Axis
	// buf[1:8] is padding, left zero.
	binary.LittleEndian.PutUint64(buf[8:16], math.Float64bits(n.Split))
	binary.LittleEndian.PutUint32(buf[16:20], uint32(n.Low))
	binary.LittleEndian.PutUint32(buf[20:24], uint32(n.Mid))
	binary.LittleEndian.PutUint32(buf[24:28], uint32(n.High))
}

func decodeNodeRecord(buf []byte) kdtree.NodeRecord {
	return kdtree.NodeRecord{
		Axis:  buf[0],
		Split: math.Float64frombits(binary.LittleEndian.Uint64(buf[8:16])),
		Low:   int32(binary.LittleEndian.Uint32(buf[16:20])),
		Mid:   int32(binary.LittleEndian.Uint32(buf[20:24])),
		High:  int32(binary.LittleEndian.Uint32(buf[24:28])),
	}
}

// ReadBinary memory-maps path and reconstructs a Tree from it. Every
// record is read and decoded into plain Go slices before ReadBinary
// returns, and the mapping is closed then; the returned Tree does not
// keep the file mapped.
func ReadBinary(path string, dims, leafSize int, boundsFn kdtree.BoundsFunc, objectAt func(kdtree.ItemID) any) (*kdtree.Tree, error) {
	r, err := mmap.Open(path)
	if err != nil {
		return nil, &kdtree.IOError{Op: "mmap", Path: path, Err: err}
	}
	defer r.Close()

	header := make([]byte, headerSize)
	if _, err := r.ReadAt(header, 0); err != nil {
		return nil, &kdtree.IOError{Op: "read", Path: path, Err: err}
	}
	if string(header[0:8]) != string(binMagic[:]) {
		return nil, &kdtree.ParseError{Reason: "bad magic number, not a kdtree binary file"}
	}
	nodeCount := int(binary.LittleEndian.Uint32(header[8:12]))
	leafCount := int(binary.LittleEndian.Uint32(header[12:16]))
	itemCount := int(binary.LittleEndian.Uint32(header[16:20]))
	root := int32(binary.LittleEndian.Uint32(header[20:24]))

	off := int64(headerSize)

	raw := kdtree.RawArena{
		Nodes:  make([]kdtree.NodeRecord, nodeCount),
		Leaves: make([]kdtree.LeafRecord, leafCount),
		Items:  make([]int32, itemCount),
	}

	buf := make([]byte, nodeRecordSize)
	for i := 0; i < nodeCount; i++ {
		if _, err := r.ReadAt(buf, off); err != nil {
			return nil, &kdtree.IOError{Op: "read", Path: path, Err: err}
		}
		raw.Nodes[i] = decodeNodeRecord(buf)
		off += nodeRecordSize
	}

	lbuf := buf[:leafRecordSize]
	for i := 0; i < leafCount; i++ {
		if _, err := r.ReadAt(lbuf, off); err != nil {
			return nil, &kdtree.IOError{Op: "read", Path: path, Err: err}
		}
		raw.Leaves[i] = kdtree.LeafRecord{
			First: int32(binary.LittleEndian.Uint32(lbuf[0:4])),
			Last:  int32(binary.LittleEndian.Uint32(lbuf[4:8])),
		}
		off += leafRecordSize
	}

	ibuf := buf[:4]
	for i := 0; i < itemCount; i++ {
		if _, err := r.ReadAt(ibuf, off); err != nil {
			return nil, &kdtree.IOError{Op: "read", Path: path, Err: err}
		}
		raw.Items[i] = int32(binary.LittleEndian.Uint32(ibuf))
		off += 4
	}

	if err := checkRange(nodeCount, leafCount, root); err != nil {
		return nil, err
	}

	return kdtree.FromRaw(dims, leafSize, boundsFn, objectAt, raw, root)
}

func checkRange(nodeCount, leafCount int, ref int32) error {
	if kdtree.IsLeafRef(ref) {
		if int(kdtree.DecodeLeafRef(ref)) >= leafCount {
			return &kdtree.ParseError{Reason: fmt.Sprintf("leaf reference %d out of range (%d leaves)", ref, leafCount)}
		}
		return nil
	}
	if int(ref) >= nodeCount {
		return &kdtree.ParseError{Reason: fmt.Sprintf("node reference %d out of range (%d nodes)", ref, nodeCount)}
	}
	return nil
}
