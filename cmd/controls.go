// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"cyber-survey/internal/version"
)

func newControlsCommand(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "controls",
		Short: "List the controls in the catalog",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp(flags, cmd.ErrOrStderr())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			name := color.New(color.FgCyan, color.Bold)
			codes := color.New(color.FgYellow)
			if !a.colorEnabled(out) {
				name.DisableColor()
				codes.DisableColor()
			}

			for _, control := range a.catalog.Controls() {
				name.Fprintln(out, control.Name)
				fmt.Fprintf(out, "  %s\n", control.Prompt)
				if control.AnalystInput != "" {
					fmt.Fprintf(out, "  Analyst input: %s\n", control.AnalystInput)
				}
				codes.Fprintf(out, "  %s\n", strings.Join(control.ReferenceCodes, ", "))
				fmt.Fprintf(out, "  Topic keywords: %s\n", strings.Join(control.TopicTerms, ", "))
				fmt.Fprintf(out, "  Detail keywords: %s\n", strings.Join(control.DetailTerms, ", "))
			}
			return nil
		},
	}
}

func newVersionCommand() *cobra.Command {
	var short bool
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			if short {
				fmt.Fprintln(cmd.OutOrStdout(), version.Short())
				return
			}
			fmt.Fprintln(cmd.OutOrStdout(), version.Info())
		},
	}
	cmd.Flags().BoolVar(&short, "short", false, "Print only the version number")
	return cmd
}
