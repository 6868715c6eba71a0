// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package junit

import (
	"encoding/xml"
	"fmt"
	"strings"

	"cyber-survey/internal/formatters"
	"cyber-survey/internal/match"
	"cyber-survey/internal/scanner"
)

// JUnit XML structures based on the standard JUnit XML schema
type TestSuites struct {
	XMLName    xml.Name    `xml:"testsuites"`
	Name       string      `xml:"name,attr"`
	Tests      int         `xml:"tests,attr"`
	Failures   int         `xml:"failures,attr"`
	Errors     int         `xml:"errors,attr"`
	Skipped    int         `xml:"skipped,attr"`
	Time       string      `xml:"time,attr"`
	TestSuites []TestSuite `xml:"testsuite"`
}

type TestSuite struct {
	XMLName   xml.Name   `xml:"testsuite"`
	Name      string     `xml:"name,attr"`
	Tests     int        `xml:"tests,attr"`
	Failures  int        `xml:"failures,attr"`
	Errors    int        `xml:"errors,attr"`
	Skipped   int        `xml:"skipped,attr"`
	Time      string     `xml:"time,attr"`
	TestCases []TestCase `xml:"testcase"`
}

type TestCase struct {
	XMLName   xml.Name `xml:"testcase"`
	Name      string   `xml:"name,attr"`
	ClassName string   `xml:"classname,attr"`
	Time      string   `xml:"time,attr"`
	Failure   *Failure `xml:"failure,omitempty"`
	Error     *Failure `xml:"error,omitempty"`
	Skipped   *Skipped `xml:"skipped,omitempty"`
	SystemOut string   `xml:"system-out,omitempty"`
}

type Failure struct {
	Message string `xml:"message,attr"`
	Type    string `xml:"type,attr"`
	Content string `xml:",chardata"`
}

type Skipped struct {
	Message string `xml:"message,attr"`
}

// Formatter implements JUnit XML output formatting. A control is a test
// suite; it passes when at least one document carries detail keywords.
type Formatter struct{}

// NewFormatter creates a new JUnit XML formatter
func NewFormatter() *Formatter {
	return &Formatter{}
}

func (f *Formatter) Name() string {
	return "junit"
}

func (f *Formatter) Description() string {
	return "JUnit XML format for gating evidence packages in CI"
}

func (f *Formatter) FileExtension() string {
	return ".xml"
}

func (f *Formatter) Format(result *scanner.Result, options formatters.FormatterOptions) (string, error) {
	suite := TestSuite{
		Name:      result.Control,
		Time:      "0.000",
		TestCases: []TestCase{f.evidenceCase(result)},
	}

	for _, document := range formatters.Documents(result, options) {
		suite.TestCases = append(suite.TestCases, f.documentCase(result.Control, document))
	}

	// Unreadable members are errors; warnings only show up in verbose output
	for _, failure := range result.Failures {
		suite.TestCases = append(suite.TestCases, TestCase{
			Name:      failure.Member,
			ClassName: result.Control,
			Time:      "0.000",
			Error: &Failure{
				Message: failure.Message,
				Type:    "MEMBER_FAILURE",
			},
		})
	}
	if options.Verbose {
		for _, warning := range result.Warnings {
			suite.TestCases = append(suite.TestCases, TestCase{
				Name:      warning.Member + " (warning)",
				ClassName: result.Control,
				Time:      "0.000",
				SystemOut: warning.Message,
			})
		}
	}

	for _, testCase := range suite.TestCases {
		suite.Tests++
		switch {
		case testCase.Failure != nil:
			suite.Failures++
		case testCase.Error != nil:
			suite.Errors++
		case testCase.Skipped != nil:
			suite.Skipped++
		}
	}

	testSuites := TestSuites{
		Name:       "cyber-survey",
		Tests:      suite.Tests,
		Failures:   suite.Failures,
		Errors:     suite.Errors,
		Skipped:    suite.Skipped,
		Time:       "0.000",
		TestSuites: []TestSuite{suite},
	}

	xmlData, err := xml.MarshalIndent(testSuites, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal JUnit XML: %w", err)
	}

	// Add XML declaration
	return xml.Header + string(xmlData), nil
}

// evidenceCase fails when no document in the archive can back the control
func (f *Formatter) evidenceCase(result *scanner.Result) TestCase {
	testCase := TestCase{
		Name:      "evidence",
		ClassName: result.Control,
		Time:      "0.000",
	}

	qualifying := result.Qualifying()
	if len(qualifying) == 0 {
		testCase.Failure = &Failure{
			Message: fmt.Sprintf("no document mentions the detail keywords for %s", result.Control),
			Type:    "NO_EVIDENCE",
			Content: "Reference codes: " + strings.Join(result.ReferenceCodes, ", "),
		}
		return testCase
	}

	names := make([]string, len(qualifying))
	for i, document := range qualifying {
		names[i] = document.Name
	}
	testCase.SystemOut = "Qualifying documents: " + strings.Join(names, ", ")
	return testCase
}

// documentCase passes for qualifying documents and skips topic-only ones
func (f *Formatter) documentCase(control string, document scanner.Document) TestCase {
	testCase := TestCase{
		Name:      document.Path,
		ClassName: control,
		Time:      "0.000",
		SystemOut: f.describeHits(document.Matches),
	}
	if !document.Qualifies() {
		testCase.Skipped = &Skipped{Message: "topic keywords only"}
	}
	return testCase
}

func (f *Formatter) describeHits(matches match.Result) string {
	var builder strings.Builder
	for _, hit := range matches.Detail {
		fmt.Fprintf(&builder, "Detail '%s': %s\n", hit.Keyword, strings.Join(hit.Locations, ", "))
	}
	for _, hit := range matches.Topic {
		fmt.Fprintf(&builder, "Topic '%s': %s\n", hit.Keyword, strings.Join(hit.Locations, ", "))
	}
	return strings.TrimSuffix(builder.String(), "\n")
}

// Register the formatter during package initialization
func init() {
	formatters.Register(NewFormatter())
}
