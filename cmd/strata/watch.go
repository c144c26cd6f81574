// SPDX-License-Identifier: Apache-2.0
package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"strata/internal/driver"
)

func newWatchCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "watch FILE...",
		Short: "Check files again whenever they change",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWatch(cmd, opts, args)
		},
	}
}

func runWatch(cmd *cobra.Command, opts *options, paths []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return driver.Watch(ctx, paths, opts.cfg, func(res *driver.Result) {
		if err := report(os.Stdout, res); err != nil {
			color.Red("%v", err)
			return
		}
		if res.HasErrors() {
			color.Red("%s: check failed", res.Filename)
			return
		}
		color.Green("%s: ok", res.Filename)
	})
}
