// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package csv

import (
	"encoding/csv"
	"fmt"
	"strings"

	"cyber-survey/internal/formatters"
	"cyber-survey/internal/match"
	"cyber-survey/internal/scanner"
)

// Formatter implements CSV output formatting. Each row is one keyword hit
// in one document.
type Formatter struct{}

// NewFormatter creates a new CSV formatter
func NewFormatter() *Formatter {
	return &Formatter{}
}

func (f *Formatter) Name() string {
	return "csv"
}

func (f *Formatter) Description() string {
	return "Comma-separated values for spreadsheet import"
}

func (f *Formatter) FileExtension() string {
	return ".csv"
}

func (f *Formatter) Format(result *scanner.Result, options formatters.FormatterOptions) (string, error) {
	var builder strings.Builder
	writer := csv.NewWriter(&builder)

	headers := []string{"Control", "Document", "Path", "Selectable", "Kind", "Keyword", "Locations"}
	if err := writer.Write(headers); err != nil {
		return "", fmt.Errorf("error writing CSV header: %w", err)
	}

	for _, document := range formatters.Documents(result, options) {
		rows := f.documentRows(result.Control, document, "topic", document.Matches.Topic)
		rows = append(rows, f.documentRows(result.Control, document, "detail", document.Matches.Detail)...)
		if err := writer.WriteAll(rows); err != nil {
			return "", fmt.Errorf("error writing CSV rows: %w", err)
		}
	}

	// Failures go in the same file so one export carries the whole scan
	if options.Verbose {
		for _, failure := range result.Failures {
			row := []string{result.Control, failure.Member, failure.Member, "false", "failure", "", failure.Message}
			if err := writer.Write(row); err != nil {
				return "", fmt.Errorf("error writing CSV rows: %w", err)
			}
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return "", fmt.Errorf("error writing CSV: %w", err)
	}
	return strings.TrimSuffix(builder.String(), "\n"), nil
}

func (f *Formatter) documentRows(control string, document scanner.Document, kind string, hits match.Hits) [][]string {
	selectable := fmt.Sprintf("%t", document.Qualifies())
	rows := make([][]string, 0, len(hits))
	for _, hit := range hits {
		rows = append(rows, []string{
			control,
			document.Name,
			document.Path,
			selectable,
			kind,
			hit.Keyword,
			strings.Join(hit.Locations, "; "),
		})
	}
	return rows
}

// Register the formatter during package initialization
func init() {
	formatters.Register(NewFormatter())
}
