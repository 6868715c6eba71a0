// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"cyber-survey/internal/formatters"
	_ "cyber-survey/internal/formatters/csv"
	_ "cyber-survey/internal/formatters/json"
	_ "cyber-survey/internal/formatters/junit"
	_ "cyber-survey/internal/formatters/text"
	_ "cyber-survey/internal/formatters/yaml"
	"cyber-survey/internal/scanner"
)

type scanFlags struct {
	archive        string
	control        string
	format         string
	output         string
	verbose        bool
	qualifyingOnly bool
}

func newScanCommand(flags *globalFlags) *cobra.Command {
	opts := &scanFlags{}

	cmd := &cobra.Command{
		Use:   "scan",
		Short: "Search an evidence archive for one control and print the matches",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp(flags, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			control, err := a.control(opts.control)
			if err != nil {
				return err
			}

			format := opts.format
			if format == "" {
				format = a.config.Defaults.Format
			}
			if format == "" {
				format = "text"
			}
			if _, ok := formatters.Get(format); !ok {
				return fmt.Errorf("unsupported format %q, choose one of %v", format, formatters.List())
			}

			result, err := scanner.New(a.config.ScannerSettings(), a.observer).Scan(cmd.Context(), opts.archive, control)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			noColor := !a.colorEnabled(out) || opts.output != ""
			content, err := formatters.Export(format, result, formatters.FormatterOptions{
				NoColor:        noColor,
				Verbose:        opts.verbose,
				QualifyingOnly: opts.qualifyingOnly,
			})
			if err != nil {
				return err
			}

			if opts.output != "" {
				if err := os.WriteFile(opts.output, []byte(content), 0o600); err != nil {
					return fmt.Errorf("failed to write output file: %w", err)
				}
				fmt.Fprintf(cmd.ErrOrStderr(), "Results written to %s\n", opts.output)
				return nil
			}
			_, err = fmt.Fprint(out, content)
			return err
		},
	}

	cmd.Flags().StringVar(&opts.archive, "archive", "", "ZIP archive of evidence documents")
	cmd.Flags().StringVar(&opts.control, "control", "", "Control name from the catalog")
	cmd.Flags().StringVar(&opts.format, "format", "", "Output format (text, json, yaml, csv, junit)")
	cmd.Flags().StringVar(&opts.output, "output", "", "Write results to this file instead of stdout")
	cmd.Flags().BoolVar(&opts.verbose, "verbose", false, "Include failed members, warnings and skipped lock files")
	cmd.Flags().BoolVar(&opts.qualifyingOnly, "qualifying-only", false, "Only show documents with detail keyword hits")
	_ = cmd.MarkFlagRequired("archive")
	_ = cmd.MarkFlagRequired("control")
	return cmd
}
