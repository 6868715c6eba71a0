// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"cyber-survey/internal/catalog"
	"cyber-survey/internal/config"
	"cyber-survey/internal/observability"
)

// globalFlags holds the persistent flags shared by every subcommand
type globalFlags struct {
	configFile string
	debug      bool
	noColor    bool
}

// app is what every subcommand needs once configuration is resolved
type app struct {
	config   *config.Config
	catalog  *catalog.Catalog
	observer *observability.StandardObserver
	noColor  bool
}

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	flags := &globalFlags{}

	root := &cobra.Command{
		Use:   "cyber-survey",
		Short: "Search evidence archives and record control findings in the assessment workbook",
		Long: `cyber-survey unpacks a ZIP archive of policy documents, searches every
PDF, DOCX and TXT member for the keywords of a security control, and writes
the analyst's finding into the matching rows of the RMF assessment workbook.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVar(&flags.configFile, "config", "", "Path to the configuration file")
	root.PersistentFlags().BoolVar(&flags.debug, "debug", false, "Enable debug logging")
	root.PersistentFlags().BoolVar(&flags.noColor, "no-color", false, "Disable colored output")

	root.AddCommand(
		newServeCommand(flags),
		newScanCommand(flags),
		newApplyCommand(flags),
		newControlsCommand(flags),
		newVersionCommand(),
	)
	return root
}

// loadApp resolves configuration, the control catalog and logging. Flags
// win over the configuration file.
func loadApp(flags *globalFlags, stderr io.Writer) (*app, error) {
	cfg, err := config.LoadConfigOrDefault(flags.configFile)
	if err != nil {
		if flags.configFile != "" {
			return nil, err
		}
		fmt.Fprintf(stderr, "Warning: Error loading config file: %v\n", err)
		fmt.Fprintf(stderr, "Using default configuration\n")
	}

	debug := flags.debug || cfg.Defaults.Debug
	observer := observability.New(debug, stderr)

	controls, err := catalog.Load(cfg.Catalog.File)
	if err != nil {
		return nil, err
	}
	observer.LogDetail("catalog", fmt.Sprintf("Loaded %d controls", controls.Len()))

	return &app{
		config:   cfg,
		catalog:  controls,
		observer: observer,
		noColor:  flags.noColor || cfg.Defaults.NoColor,
	}, nil
}

// control looks a control up by name and lists the known names when it is missing
func (a *app) control(name string) (catalog.Control, error) {
	control, ok := a.catalog.Get(name)
	if !ok {
		return catalog.Control{}, fmt.Errorf("unknown control %q\nAvailable controls: %v", name, a.catalog.Names())
	}
	return control, nil
}

// colorEnabled reports whether output to w should carry ANSI colors
func (a *app) colorEnabled(w io.Writer) bool {
	if a.noColor {
		return false
	}
	f, ok := w.(*os.File)
	return ok && isTerminal(f)
}

// isTerminal checks if the file descriptor is a terminal
func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}
