// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package report

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"cyber-survey/internal/catalog"
	"cyber-survey/internal/findings"
	"cyber-survey/internal/testutil"
)

func temporaryAccountsFinding(t *testing.T) findings.Finding {
	t.Helper()
	control, ok := catalog.Default().Get("Temporary Accounts")
	require.True(t, ok)
	return findings.Compose(control, true, "Reviewed", "a.pdf")
}

func newUpdater(t *testing.T, path string) *Updater {
	t.Helper()
	updater, err := NewUpdater(Config{Path: path}, nil)
	require.NoError(t, err)
	return updater
}

func cellValue(t *testing.T, path, sheet, cell string) string {
	t.Helper()
	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()
	value, err := f.GetCellValue(sheet, cell)
	require.NoError(t, err)
	return value
}

func TestApply_UpdatesMatchingRows(t *testing.T) {
	path := testutil.BuildWorkbook(t, t.TempDir(), DefaultSheet, map[string]string{
		"D1": "CCI",
		"D3": "CCI-000016",
		"D5": "CCI-002129",
		"D7": "  CCI-001361 ",
		"J5": "keep me",
	})
	finding := temporaryAccountsFinding(t)

	outcome, err := newUpdater(t, path).Apply(finding, "")
	require.NoError(t, err)

	assert.Equal(t, []int{3, 7}, outcome.Rows)
	assert.True(t, outcome.Updated())
	assert.Equal(t, "Rows updated: 3, 7", outcome.String())

	assert.Equal(t, finding.Text, cellValue(t, path, DefaultSheet, "J3"))
	assert.Equal(t, finding.Text, cellValue(t, path, DefaultSheet, "J7"))
	assert.Equal(t, "keep me", cellValue(t, path, DefaultSheet, "J5"))
	assert.Equal(t, "", cellValue(t, path, DefaultSheet, "J1"))
}

func TestApply_RepeatedApplyIsIdempotent(t *testing.T) {
	path := testutil.BuildWorkbook(t, t.TempDir(), DefaultSheet, map[string]string{"D2": "CCI-000016"})
	updater := newUpdater(t, path)
	finding := temporaryAccountsFinding(t)

	first, err := updater.Apply(finding, path)
	require.NoError(t, err)
	second, err := updater.Apply(finding, path)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, finding.Text, cellValue(t, path, DefaultSheet, "J2"))
}

func TestApply_NoMatchLeavesWorkbookUntouched(t *testing.T) {
	path := testutil.BuildWorkbook(t, t.TempDir(), DefaultSheet, map[string]string{"D2": "CCI-999999"})
	before, err := os.ReadFile(path)
	require.NoError(t, err)

	outcome, err := newUpdater(t, path).Apply(temporaryAccountsFinding(t), path)
	require.NoError(t, err)

	assert.False(t, outcome.Updated())
	assert.Empty(t, outcome.Rows)
	assert.Equal(t, "No matching reference codes found in the report", outcome.String())

	after, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestApply_MissingSheet(t *testing.T) {
	path := testutil.BuildWorkbook(t, t.TempDir(), "Other", map[string]string{"D2": "CCI-000016"})

	_, err := newUpdater(t, path).Apply(temporaryAccountsFinding(t), path)
	require.Error(t, err)

	var formatErr *ReportFormatError
	require.True(t, errors.As(err, &formatErr))
	assert.Equal(t, DefaultSheet, formatErr.Sheet)
	assert.Equal(t, "", cellValue(t, path, "Other", "J2"))
}

func TestApply_UnopenableWorkbook(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "missing.xlsx")

	_, err := newUpdater(t, missing).Apply(temporaryAccountsFinding(t), "")
	require.Error(t, err)

	var ioErr *ReportIOError
	require.True(t, errors.As(err, &ioErr))
	assert.Equal(t, "open", ioErr.Op)
	assert.Equal(t, missing, ioErr.Path)
}

func TestApply_CustomColumns(t *testing.T) {
	path := testutil.BuildWorkbook(t, t.TempDir(), "Controls", map[string]string{"B4": "CCI-001361"})
	updater, err := NewUpdater(Config{Path: path, Sheet: "Controls", KeyColumn: "b", TargetColumn: "c"}, nil)
	require.NoError(t, err)

	finding := temporaryAccountsFinding(t)
	outcome, err := updater.Apply(finding, "")
	require.NoError(t, err)

	assert.Equal(t, []int{4}, outcome.Rows)
	assert.Equal(t, finding.Text, cellValue(t, path, "Controls", "C4"))
}

func TestPreview_DoesNotWrite(t *testing.T) {
	path := testutil.BuildWorkbook(t, t.TempDir(), DefaultSheet, map[string]string{
		"D2": "CCI-000486",
		"D4": "CCI-000488",
	})

	outcome, err := newUpdater(t, path).Preview([]string{" CCI-000488", "", "CCI-000486 "}, path)
	require.NoError(t, err)

	assert.Equal(t, []int{2, 4}, outcome.Rows)
	assert.Equal(t, "", cellValue(t, path, DefaultSheet, "J2"))
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		config  Config
		wantErr bool
	}{
		{name: "defaults", config: Config{Sheet: DefaultSheet, KeyColumn: "D", TargetColumn: "J"}},
		{name: "empty sheet", config: Config{KeyColumn: "D", TargetColumn: "J"}, wantErr: true},
		{name: "bad key column", config: Config{Sheet: "s", KeyColumn: "4", TargetColumn: "J"}, wantErr: true},
		{name: "bad target column", config: Config{Sheet: "s", KeyColumn: "D", TargetColumn: ""}, wantErr: true},
		{name: "same column", config: Config{Sheet: "s", KeyColumn: "D", TargetColumn: "D"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
