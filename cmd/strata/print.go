// SPDX-License-Identifier: Apache-2.0
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"strata/grammar"
	"strata/internal/driver"
	"strata/internal/errors"
	"strata/internal/ir"
	"strata/internal/lower"
)

type printOptions struct {
	function string
	resolve  bool
}

func newPrintCommand(opts *options) *cobra.Command {
	printOpts := &printOptions{}

	cmd := &cobra.Command{
		Use:   "print FILE",
		Short: "Print the component tree of each function",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("resolve") {
				opts.cfg.Print.Resolve = printOpts.resolve
			}
			return runPrint(cmd, opts, printOpts, args[0])
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&printOpts.function, "function", "f", "", "print only the named function")
	flags.BoolVar(&printOpts.resolve, "resolve", true, "materialize every join before printing")
	return cmd
}

func runPrint(cmd *cobra.Command, opts *options, printOpts *printOptions, path string) error {
	module, err := loadModule(cmd, opts, path)
	if err != nil {
		return err
	}

	functions := module.Functions
	if printOpts.function != "" {
		fn, ok := module.Lookup(printOpts.function)
		if !ok {
			return fmt.Errorf("no function named %q in %s", printOpts.function, path)
		}
		functions = []*lower.Function{fn}
	}

	out := cmd.OutOrStdout()
	for i, fn := range functions {
		if i > 0 {
			fmt.Fprintln(out)
		}
		fmt.Fprint(out, ir.Print(fn.IR))
	}
	return nil
}

// loadModule lowers path. Without resolution the tree is printed exactly as
// lowered, before any join is materialized.
func loadModule(cmd *cobra.Command, opts *options, path string) (*lower.Module, error) {
	if opts.cfg.Print.Resolve {
		res, err := driver.CompileFile(cmd.Context(), path, opts.cfg)
		if err != nil {
			return nil, err
		}
		if err := report(os.Stderr, res); err != nil {
			return nil, err
		}
		if res.Module == nil {
			return nil, fmt.Errorf("%s does not parse", path)
		}
		return res.Module, nil
	}

	file, err := grammar.ParseFile(path)
	if err != nil {
		return nil, err
	}
	module, diags := lower.Lower(path, file)
	if errors.HasErrors(diags) {
		source, _ := os.ReadFile(path)
		if err := errors.NewErrorReporter(path, string(source)).Report(os.Stderr, diags); err != nil {
			return nil, err
		}
		return nil, fmt.Errorf("%s has errors", path)
	}
	return module, nil
}
