// SPDX-License-Identifier: Apache-2.0
package main

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/tliron/commonlog"
	_ "github.com/tliron/commonlog/simple"

	"strata/internal/config"
)

type options struct {
	configPath string
	verbosity  int
	noColor    bool
	workers    int
	flatten    bool

	cfg *config.Config
}

func main() {
	if err := newRootCommand(&options{}).Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", color.RedString("error"), err)
		os.Exit(1)
	}
}

func newRootCommand(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "strata",
		Short:         "Check and inspect structured SSA programs",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return opts.load(cmd)
		},
	}

	flags := cmd.PersistentFlags()
	flags.StringVarP(&opts.configPath, "config", "c", "", "path to the configuration file (default ./"+config.FileName+")")
	flags.IntVarP(&opts.verbosity, "verbosity", "v", 0, "log verbosity")
	flags.BoolVar(&opts.noColor, "no-color", false, "disable colored output")
	flags.IntVarP(&opts.workers, "workers", "j", 0, "number of functions built concurrently")
	flags.BoolVar(&opts.flatten, "flatten", false, "flatten each function before resolving it")

	cmd.AddCommand(
		newCheckCommand(opts),
		newPrintCommand(opts),
		newFmtCommand(opts),
		newWatchCommand(opts),
	)
	return cmd
}

// load reads the configuration and applies the flags the user set on top
// of it.
func (o *options) load(cmd *cobra.Command) error {
	cfg, err := config.Load(o.configPath)
	if err != nil {
		return err
	}
	flags := cmd.Flags()
	if flags.Changed("verbosity") {
		cfg.Verbosity = o.verbosity
	}
	if flags.Changed("workers") {
		cfg.Workers = o.workers
	}
	if flags.Changed("flatten") {
		cfg.Flatten = o.flatten
	}
	if o.noColor {
		cfg.Color = false
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	color.NoColor = color.NoColor || !cfg.Color
	var logFile *string
	if cfg.LogFile != "" {
		logFile = &cfg.LogFile
	}
	commonlog.Configure(cfg.Verbosity, logFile)

	o.cfg = cfg
	return nil
}
