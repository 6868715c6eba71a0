// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"cyber-survey/internal/findings"
	"cyber-survey/internal/report"
)

type applyFlags struct {
	control   string
	answer    string
	details   string
	artifacts string
	report    string
	dryRun    bool
}

func newApplyCommand(flags *globalFlags) *cobra.Command {
	opts := &applyFlags{}

	cmd := &cobra.Command{
		Use:   "apply",
		Short: "Write a control finding into the assessment workbook",
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

			updater, err := report.NewUpdater(a.config.ReportSettings(), a.observer)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()

			if opts.dryRun {
				outcome, err := updater.Preview(control.ReferenceCodes, opts.report)
				if err != nil {
					return err
				}
				if !outcome.Updated() {
					fmt.Fprintln(out, outcome.String())
					return nil
				}
				fmt.Fprintf(out, "Would update rows: %s\n", joinRows(outcome.Rows))
				return nil
			}

			implemented, err := findings.ParseAnswer(opts.answer)
			if err != nil {
				return err
			}
			finding := findings.Compose(control, implemented, opts.details, opts.artifacts)

			outcome, err := updater.Apply(finding, opts.report)
			if err != nil {
				return err
			}
			fmt.Fprintln(out, outcome.String())
			return nil
		},
	}

	cmd.Flags().StringVar(&opts.control, "control", "", "Control name from the catalog")
	cmd.Flags().StringVar(&opts.answer, "answer", "", "Whether the control is in use (yes or no)")
	cmd.Flags().StringVar(&opts.details, "details", "", "Free-form details for the finding")
	cmd.Flags().StringVar(&opts.artifacts, "artifacts", "", "Artifact reference, usually the supporting document names")
	cmd.Flags().StringVar(&opts.report, "report", "", "Workbook to update instead of the configured one")
	cmd.Flags().BoolVar(&opts.dryRun, "dry-run", false, "Only list the rows that would change")
	_ = cmd.MarkFlagRequired("control")
	return cmd
}

func joinRows(rows []int) string {
	parts := make([]string, len(rows))
	for i, row := range rows {
		parts[i] = strconv.Itoa(row)
	}
	return strings.Join(parts, ", ")
}
