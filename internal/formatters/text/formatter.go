// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package text

import (
	"fmt"
	"strings"

	"cyber-survey/internal/formatters"
	"cyber-survey/internal/match"
	"cyber-survey/internal/scanner"

	"github.com/fatih/color"
)

// Formatter implements text-based output formatting
type Formatter struct{}

// NewFormatter creates a new text formatter
func NewFormatter() *Formatter {
	return &Formatter{}
}

func (f *Formatter) Name() string {
	return "text"
}

func (f *Formatter) Description() string {
	return "Human-readable text output with colors"
}

func (f *Formatter) FileExtension() string {
	return ".txt"
}

// palette is built per call so one export's NoColor never leaks into another
func palette(noColor bool) map[string]*color.Color {
	colors := map[string]*color.Color{
		"green":  color.New(color.FgGreen),
		"yellow": color.New(color.FgYellow),
		"red":    color.New(color.FgRed),
		"cyan":   color.New(color.FgCyan),
		"white":  color.New(color.FgWhite, color.Bold),
	}
	if noColor {
		for _, c := range colors {
			c.DisableColor()
		}
	}
	return colors
}

func (f *Formatter) Format(result *scanner.Result, options formatters.FormatterOptions) (string, error) {
	colors := palette(options.NoColor)
	var builder strings.Builder

	f.appendHeader(&builder, result, colors)

	documents := formatters.Documents(result, options)
	if len(documents) == 0 {
		builder.WriteString("No matching documents found.\n")
	}
	for _, document := range documents {
		f.appendDocument(&builder, document, colors)
	}

	selectable := len(result.Qualifying())
	fmt.Fprintf(&builder, "\n%d document(s) matched, %d selectable as artifacts\n", len(result.Documents), selectable)

	if options.Verbose {
		f.appendProblems(&builder, result, colors)
	} else if len(result.Failures) > 0 {
		colors["red"].Fprintf(&builder, "%d member(s) could not be scanned (use --verbose for details)\n", len(result.Failures))
	}

	return strings.TrimSuffix(builder.String(), "\n"), nil
}

func (f *Formatter) appendHeader(builder *strings.Builder, result *scanner.Result, colors map[string]*color.Color) {
	colors["white"].Fprintf(builder, "Control: %s\n", result.Control)
	fmt.Fprintf(builder, "Information needed: %s\n", result.Prompt)
	if result.AnalystInput != "" {
		fmt.Fprintf(builder, "Analyst input: %s\n", result.AnalystInput)
	}
	fmt.Fprintf(builder, "Reference codes: %s\n\n", strings.Join(result.ReferenceCodes, ", "))
}

func (f *Formatter) appendDocument(builder *strings.Builder, document scanner.Document, colors map[string]*color.Color) {
	colors["white"].Fprint(builder, document.Name)
	if document.Path != document.Name {
		fmt.Fprintf(builder, " (%s)", document.Path)
	}
	if document.Qualifies() {
		builder.WriteString(" found keywords at:\n")
	} else {
		builder.WriteString(" found topic keywords only:\n")
	}

	f.appendHits(builder, "Detail keyword", document.Matches.Detail, colors["green"])
	f.appendHits(builder, "Topic", document.Matches.Topic, colors["cyan"])
}

func (f *Formatter) appendHits(builder *strings.Builder, kind string, hits match.Hits, c *color.Color) {
	for _, hit := range hits {
		builder.WriteString("  - ")
		c.Fprintf(builder, "%s '%s'", kind, hit.Keyword)
		fmt.Fprintf(builder, ": %s\n", strings.Join(hit.Locations, ", "))
	}
}

func (f *Formatter) appendProblems(builder *strings.Builder, result *scanner.Result, colors map[string]*color.Color) {
	for _, failure := range result.Failures {
		colors["red"].Fprintf(builder, "FAILED %s: %s\n", failure.Member, failure.Message)
	}
	for _, warning := range result.Warnings {
		colors["yellow"].Fprintf(builder, "WARNING %s: %s\n", warning.Member, warning.Message)
	}
	for _, name := range result.LockFiles {
		fmt.Fprintf(builder, "Skipped lock file %s\n", name)
	}
}

// Register the formatter during package initialization
func init() {
	formatters.Register(NewFormatter())
}
