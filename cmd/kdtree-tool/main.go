// Copyright (C) 2022-2023  Luke Shumaker <lukeshu@lukeshu.com>
//
// SPDX-License-Identifier: GPL-2.0-or-later

// Command kdtree-tool builds, queries, and round-trips kdtree.Tree
// indexes from the command line, for manual testing and benchmarking.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/datawire/dlib/dgroup"
	"github.com/datawire/dlib/dlog"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"git.lukeshu.com/go/kdtree/lib/profile"
)

type logLevelFlag struct {
	logrus.Level
}

func (lvl *logLevelFlag) Type() string { return "loglevel" }
func (lvl *logLevelFlag) Set(str string) error {
	var err error
	lvl.Level, err = logrus.ParseLevel(str)
	return err
}

var _ pflag.Value = (*logLevelFlag)(nil)

func main() {
	logLevel := logLevelFlag{Level: logrus.InfoLevel}

	argparser := &cobra.Command{
		Use:           "kdtree-tool SUBCOMMAND",
		Short:         "Build and query kdtree indexes",
		SilenceErrors: true,
		SilenceUsage:  true,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
	}
	argparser.PersistentFlags().Var(&logLevel, "verbosity", "set the log verbosity")
	stopProfile := profile.AddProfileFlags(argparser.PersistentFlags(), "profile-")

	wrap := func(runE func(context.Context, *cobra.Command, []string) error) func(*cobra.Command, []string) error {
		return func(cmd *cobra.Command, args []string) error {
			logger := logrus.New()
			logger.SetLevel(logLevel.Level)
			ctx := dlog.WithLogger(cmd.Context(), dlog.WrapLogrus(logger))

			grp := dgroup.NewGroup(ctx, dgroup.GroupConfig{
				EnableSignalHandling: true,
			})
			grp.Go("main", func(ctx context.Context) error {
				return runE(ctx, cmd, args)
			})
			return grp.Wait()
		}
	}

	argparser.AddCommand(newBuildCommand(wrap))
	argparser.AddCommand(newQueryCommand(wrap))

	err := argparser.Execute()
	if stopErr := stopProfile(); err == nil {
		err = stopErr
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "kdtree-tool: error: %v\n", err)
		os.Exit(1)
	}
}
