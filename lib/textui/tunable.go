// Copyright (C) 2022  Luke Shumaker <lukeshu@lukeshu.com>
//
// SPDX-License-Identifier: GPL-2.0-or-later

package textui

// Tunable holds a value that a caller may want to override at
// construction time, along with the default that applies when no
// override is given.
//
// This resolves the "have Tunable be runtime-configurable" TODO from
// the single-function form this type started as: instead of merely
// annotating a value inline, it is now a small holder that a
// functional-option can assign into.
type Tunable[T any] struct {
	val T
	set bool
}

// NewTunable returns a Tunable defaulting to def.
func NewTunable[T any](def T) Tunable[T] {
	return Tunable[T]{val: def}
}

// Override replaces the value, marking it as explicitly set.
func (t *Tunable[T]) Override(v T) {
	t.val = v
	t.set = true
}

// Get returns the current value: the override if one was given,
// otherwise the default passed to NewTunable.
func (t Tunable[T]) Get() T {
	return t.val
}

// IsDefault reports whether Override has never been called.
func (t Tunable[T]) IsDefault() bool {
	return !t.set
}
