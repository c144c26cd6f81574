// SPDX-License-Identifier: Apache-2.0
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"strata/grammar"
)

func newFmtCommand(opts *options) *cobra.Command {
	var write bool

	cmd := &cobra.Command{
		Use:   "fmt FILE...",
		Short: "Rewrite files in canonical layout",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFmt(cmd, args, write)
		},
	}
	cmd.Flags().BoolVarP(&write, "write", "w", false, "write the result to the file instead of stdout")
	return cmd
}

func runFmt(cmd *cobra.Command, paths []string, write bool) error {
	for _, path := range paths {
		file, err := grammar.ParseFile(path)
		if err != nil {
			return err
		}
		formatted := file.String()
		if !write {
			fmt.Fprint(cmd.OutOrStdout(), formatted)
			continue
		}
		info, err := os.Stat(path)
		if err != nil {
			return err
		}
		if err := os.WriteFile(path, []byte(formatted), info.Mode().Perm()); err != nil {
			return fmt.Errorf("failed to write %s: %w", path, err)
		}
	}
	return nil
}
