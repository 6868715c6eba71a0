// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package formatters_test

import (
	"encoding/csv"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"cyber-survey/internal/formatters"
	_ "cyber-survey/internal/formatters/csv"
	_ "cyber-survey/internal/formatters/json"
	"cyber-survey/internal/formatters/shared"
	_ "cyber-survey/internal/formatters/text"
	_ "cyber-survey/internal/formatters/yaml"
	"cyber-survey/internal/match"
	"cyber-survey/internal/scanner"
)

func sampleResult() *scanner.Result {
	return &scanner.Result{
		Control:        "Group Accounts",
		Prompt:         "Are group accounts used?",
		ReferenceCodes: []string{"CCI-002129", "CCI-002140"},
		Documents: []scanner.Document{
			{
				Path: "policies/AC-Policy.pdf",
				Name: "AC-Policy.pdf",
				Matches: match.Result{
					Topic:  match.Hits{{Keyword: "access control", Locations: []string{"Page 1"}}},
					Detail: match.Hits{{Keyword: "group account", Locations: []string{"Page 2", "Page 5"}}},
				},
			},
			{
				Path: "matrix.txt",
				Name: "matrix.txt",
				Matches: match.Result{
					Topic: match.Hits{{Keyword: "User matrix", Locations: []string{"In document"}}},
				},
			},
		},
		Failures:  []scanner.MemberFailure{{Member: "broken.docx", Message: "document.xml not found"}},
		LockFiles: []string{"~$plan.docx"},
	}
}

func TestRegistry_ListsAllFormats(t *testing.T) {
	assert.Equal(t, []string{"csv", "json", "text", "yaml"}, formatters.List())

	info := formatters.GetFormatInfo("yaml")
	assert.Equal(t, "application/x-yaml", info.MimeType)
	assert.Equal(t, ".yaml", info.Extension)

	assert.Equal(t, formatters.FormatInfo{}, formatters.GetFormatInfo("sarif"))
	assert.Len(t, formatters.GetSupportedFormats(), 4)
}

func TestExport_UnknownFormat(t *testing.T) {
	_, err := formatters.Export("xml", sampleResult(), formatters.FormatterOptions{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Available formats: csv, json, text, yaml")
}

func TestExport_NilResult(t *testing.T) {
	_, err := formatters.Export("json", nil, formatters.FormatterOptions{})
	assert.Error(t, err)
}

func TestExport_JSON(t *testing.T) {
	out, err := formatters.Export("json", sampleResult(), formatters.FormatterOptions{})
	require.NoError(t, err)

	var response shared.JSONResponse
	require.NoError(t, json.Unmarshal([]byte(out), &response))
	require.Len(t, response.Results, 2)
	assert.True(t, response.Results[0].Selectable)
	assert.Equal(t, []string{"Page 2", "Page 5"}, response.Results[0].DetailMatches.Get("group account"))
	assert.False(t, response.Results[1].Selectable)
	assert.Empty(t, response.Failures, "failures are only included in verbose output")

	// Empty hit lists are arrays, not null
	assert.Contains(t, out, `"detail_matches": []`)
}

func TestExport_JSONVerboseQualifyingOnly(t *testing.T) {
	out, err := formatters.Export("json", sampleResult(), formatters.FormatterOptions{Verbose: true, QualifyingOnly: true})
	require.NoError(t, err)

	var response shared.JSONResponse
	require.NoError(t, json.Unmarshal([]byte(out), &response))
	require.Len(t, response.Results, 1)
	assert.Equal(t, "AC-Policy.pdf", response.Results[0].Name)
	require.Len(t, response.Failures, 1)
	assert.Equal(t, "broken.docx", response.Failures[0].Member)
	assert.Equal(t, []string{"~$plan.docx"}, response.LockFiles)
}

func TestExport_YAMLMatchesJSONStructure(t *testing.T) {
	out, err := formatters.Export("yaml", sampleResult(), formatters.FormatterOptions{})
	require.NoError(t, err)

	var decoded map[string]interface{}
	require.NoError(t, yaml.Unmarshal([]byte(out), &decoded))
	assert.Equal(t, "Group Accounts", decoded["control"])
	results, ok := decoded["results"].([]interface{})
	require.True(t, ok)
	assert.Len(t, results, 2)
}

func TestExport_CSV(t *testing.T) {
	out, err := formatters.Export("csv", sampleResult(), formatters.FormatterOptions{})
	require.NoError(t, err)

	records, err := csv.NewReader(strings.NewReader(out)).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 4)
	assert.Equal(t, []string{"Control", "Document", "Path", "Selectable", "Kind", "Keyword", "Locations"}, records[0])
	assert.Equal(t, []string{"Group Accounts", "AC-Policy.pdf", "policies/AC-Policy.pdf", "true", "topic", "access control", "Page 1"}, records[1])
	assert.Equal(t, []string{"Group Accounts", "AC-Policy.pdf", "policies/AC-Policy.pdf", "true", "detail", "group account", "Page 2; Page 5"}, records[2])
	assert.Equal(t, "false", records[3][3])
}

func TestExport_Text(t *testing.T) {
	out, err := formatters.Export("text", sampleResult(), formatters.FormatterOptions{NoColor: true})
	require.NoError(t, err)

	assert.Contains(t, out, "Control: Group Accounts")
	assert.Contains(t, out, "Information needed: Are group accounts used?")
	assert.Contains(t, out, "Reference codes: CCI-002129, CCI-002140")
	assert.Contains(t, out, "AC-Policy.pdf (policies/AC-Policy.pdf) found keywords at:")
	assert.Contains(t, out, "  - Detail keyword 'group account': Page 2, Page 5")
	assert.Contains(t, out, "matrix.txt found topic keywords only:")
	assert.Contains(t, out, "2 document(s) matched, 1 selectable as artifacts")
	assert.Contains(t, out, "1 member(s) could not be scanned")
	assert.NotContains(t, out, "\x1b[")
}

func TestExport_TextVerboseListsProblems(t *testing.T) {
	out, err := formatters.Export("text", sampleResult(), formatters.FormatterOptions{NoColor: true, Verbose: true})
	require.NoError(t, err)

	assert.Contains(t, out, "FAILED broken.docx: document.xml not found")
	assert.Contains(t, out, "Skipped lock file ~$plan.docx")
}

func TestExportForWeb(t *testing.T) {
	content, mimeType, filename, err := formatters.ExportForWeb("csv", sampleResult(), formatters.FormatterOptions{})
	require.NoError(t, err)
	assert.NotEmpty(t, content)
	assert.Equal(t, "text/csv", mimeType)
	assert.Equal(t, "cyber-survey-results.csv", filename)
}
