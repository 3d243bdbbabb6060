// Copyright (C) 2022  Luke Shumaker <lukeshu@lukeshu.com>
//
// SPDX-License-Identifier: GPL-2.0-or-later

// Package slices provides small generic helpers over slices that the
// standard library does not (yet, as of the Go version this module
// targets) provide as one-liners.
package slices

// Filter returns the elements of s for which keep reports true, in
// their original relative order.
//
// The splitter builds a child's per-axis event list by filtering its
// parent's list down to the events belonging to items assigned to
// that child; this is the one primitive that operation needs.
func Filter[T any](s []T, keep func(T) bool) []T {
	out := make([]T, 0, len(s))
	for _, v := range s {
		if keep(v) {
			out = append(out, v)
		}
	}
	return out
}
