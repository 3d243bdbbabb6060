// Copyright (C) 2022-2023  Luke Shumaker <lukeshu@lukeshu.com>
//
// SPDX-License-Identifier: GPL-2.0-or-later

package kdtree

import (
	"git.lukeshu.com/go/kdtree/lib/textui"
)

// buildConfig holds the build-time tunables, each defaulted the way
// textui.Tunable is meant to be used and overridable through an
// Option.
type buildConfig struct {
	leafSize    textui.Tunable[int]
	arenaFactor textui.Tunable[int]
	progressLog bool
}

func defaultConfig() buildConfig {
	return buildConfig{
		leafSize:    textui.NewTunable(100), // §6 default leaf_size
		arenaFactor: textui.NewTunable(4),   // §4.1 default node/leaf overcommit
	}
}

// Option configures a Build call.
type Option func(*buildConfig)

// WithLeafSize overrides the default leaf size (100, per §6). Must be
// >= 1.
func WithLeafSize(n int) Option {
	return func(c *buildConfig) {
		if n < 1 {
			n = 1
		}
		c.leafSize.Override(n)
	}
}

// WithProgress enables periodic build-progress logging at dlog.LogLevelInfo
// via the calling context's logger.
func WithProgress() Option {
	return func(c *buildConfig) {
		c.progressLog = true
	}
}

// WithArenaFactor overrides the node/leaf arena's overcommit factor
// (§4.1 default: 4, i.e. 4*ceil(item_count/leaf_size) node and leaf
// slots preallocated). Raise it for item distributions with heavy
// straddling, which produce more internal nodes per leaf than the
// default heuristic assumes; a build that still overflows returns
// CapacityExceededError rather than reallocating mid-build. Must be
// >= 1.
func WithArenaFactor(factor int) Option {
	return func(c *buildConfig) {
		if factor < 1 {
			factor = 1
		}
		c.arenaFactor.Override(factor)
	}
}
