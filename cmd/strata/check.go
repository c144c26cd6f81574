// SPDX-License-Identifier: Apache-2.0
package main

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"strata/internal/driver"
	"strata/internal/errors"
)

func newCheckCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "check FILE...",
		Short: "Report uses that no definition reaches",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCheck(cmd, opts, args)
		},
	}
}

func runCheck(cmd *cobra.Command, opts *options, paths []string) error {
	startTime := time.Now()
	failed := 0

	for _, path := range paths {
		res, err := driver.CompileFile(cmd.Context(), path, opts.cfg)
		if err != nil {
			return err
		}
		if err := report(os.Stdout, res); err != nil {
			return err
		}
		if res.HasErrors() {
			failed++
		}
	}

	formattedDuration := formatDuration(time.Since(startTime))
	if failed > 0 {
		color.Red("Check failed for %d of %d files after %s", failed, len(paths), formattedDuration)
		return fmt.Errorf("%d of %d files have errors", failed, len(paths))
	}
	color.Green("Successfully checked %d files in %s", len(paths), formattedDuration)
	return nil
}

func report(w io.Writer, res *driver.Result) error {
	if len(res.Diagnostics) == 0 {
		return nil
	}
	reporter := errors.NewErrorReporter(res.Filename, res.Source)
	if err := reporter.Report(w, res.Diagnostics); err != nil {
		return fmt.Errorf("failed to write diagnostics: %w", err)
	}
	return nil
}

func formatDuration(d time.Duration) string {
	switch {
	case d >= time.Minute:
		return fmt.Sprintf("%.2fmin", d.Minutes())
	case d >= time.Second:
		return fmt.Sprintf("%.2fs", d.Seconds())
	case d >= time.Millisecond:
		return fmt.Sprintf("%.1fms", float64(d.Nanoseconds())/1000000.0)
	case d >= time.Microsecond:
		return fmt.Sprintf("%.1fμs", float64(d.Nanoseconds())/1000.0)
	default:
		return fmt.Sprintf("%dns", d.Nanoseconds())
	}
}
