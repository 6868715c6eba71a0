// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package shared

import (
	"cyber-survey/internal/formatters"
	"cyber-survey/internal/match"
	"cyber-survey/internal/scanner"
)

// JSONResponse represents the top-level response structure for JSON/YAML output
type JSONResponse struct {
	Control        string                  `json:"control" yaml:"control"`
	Prompt         string                  `json:"prompt" yaml:"prompt"`
	AnalystInput   string                  `json:"analyst_input,omitempty" yaml:"analyst_input,omitempty"`
	ReferenceCodes []string                `json:"reference_codes" yaml:"reference_codes"`
	Results        []JSONDocument          `json:"results" yaml:"results"`
	Failures       []scanner.MemberFailure `json:"failures,omitempty" yaml:"failures,omitempty"`
	Warnings       []scanner.MemberFailure `json:"warnings,omitempty" yaml:"warnings,omitempty"`
	LockFiles      []string                `json:"lock_files,omitempty" yaml:"lock_files,omitempty"`
}

// JSONDocument represents a single document in JSON/YAML format
type JSONDocument struct {
	Name          string     `json:"name" yaml:"name"`
	Path          string     `json:"path" yaml:"path"`
	Selectable    bool       `json:"selectable" yaml:"selectable"`
	TopicMatches  match.Hits `json:"topic_matches" yaml:"topic_matches"`
	DetailMatches match.Hits `json:"detail_matches" yaml:"detail_matches"`
}

// ConvertResultToJSONFormat converts a scan result to the JSON/YAML shape.
// Empty hit lists are rendered as empty arrays, never null.
func ConvertResultToJSONFormat(result *scanner.Result, options formatters.FormatterOptions) JSONResponse {
	response := JSONResponse{
		Control:        result.Control,
		Prompt:         result.Prompt,
		AnalystInput:   result.AnalystInput,
		ReferenceCodes: result.ReferenceCodes,
		Results:        []JSONDocument{},
	}
	if response.ReferenceCodes == nil {
		response.ReferenceCodes = []string{}
	}

	for _, document := range formatters.Documents(result, options) {
		response.Results = append(response.Results, JSONDocument{
			Name:          document.Name,
			Path:          document.Path,
			Selectable:    document.Qualifies(),
			TopicMatches:  nonNil(document.Matches.Topic),
			DetailMatches: nonNil(document.Matches.Detail),
		})
	}

	if options.Verbose {
		response.Failures = result.Failures
		response.Warnings = result.Warnings
		response.LockFiles = result.LockFiles
	}
	return response
}

func nonNil(hits match.Hits) match.Hits {
	if hits == nil {
		return match.Hits{}
	}
	return hits
}
