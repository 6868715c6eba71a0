// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

// Package report writes findings into the assessment workbook. Rows are
// located by reference code in a key column and only the target column of
// matching rows is overwritten.
package report

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/xuri/excelize/v2"

	"cyber-survey/internal/catalog"
	"cyber-survey/internal/findings"
	"cyber-survey/internal/observability"
)

// Defaults for the assessment export layout
const (
	DefaultSheet        = "CCI Report"
	DefaultKeyColumn    = "D"
	DefaultTargetColumn = "J"
)

// Config locates the workbook and the columns inside it
type Config struct {
	Path         string
	Sheet        string
	KeyColumn    string
	TargetColumn string
}

// Validate checks that both columns are valid and distinct column letters
func (c Config) Validate() error {
	if strings.TrimSpace(c.Sheet) == "" {
		return fmt.Errorf("report sheet name is required")
	}
	key, err := excelize.ColumnNameToNumber(c.KeyColumn)
	if err != nil {
		return fmt.Errorf("invalid key column %q: %w", c.KeyColumn, err)
	}
	target, err := excelize.ColumnNameToNumber(c.TargetColumn)
	if err != nil {
		return fmt.Errorf("invalid target column %q: %w", c.TargetColumn, err)
	}
	if key == target {
		return fmt.Errorf("key column and target column must differ, both are %s", c.KeyColumn)
	}
	return nil
}

// Outcome lists the rows a lookup matched, ascending and 1-based
type Outcome struct {
	Rows []int `json:"rows" yaml:"rows"`
}

// Updated reports whether any row matched
func (o Outcome) Updated() bool {
	return len(o.Rows) > 0
}

// String renders the outcome as shown to the analyst
func (o Outcome) String() string {
	if !o.Updated() {
		return "No matching reference codes found in the report"
	}
	rows := make([]string, len(o.Rows))
	for i, row := range o.Rows {
		rows[i] = strconv.Itoa(row)
	}
	return "Rows updated: " + strings.Join(rows, ", ")
}

// Updater applies findings to workbooks. Calls are serialized so two
// submissions in one process never interleave their writes.
type Updater struct {
	config   Config
	observer *observability.StandardObserver
	mu       sync.Mutex
}

// NewUpdater creates an updater; empty sheet or column settings fall back
// to the defaults.
func NewUpdater(config Config, observer *observability.StandardObserver) (*Updater, error) {
	if config.Sheet == "" {
		config.Sheet = DefaultSheet
	}
	if config.KeyColumn == "" {
		config.KeyColumn = DefaultKeyColumn
	}
	if config.TargetColumn == "" {
		config.TargetColumn = DefaultTargetColumn
	}
	config.KeyColumn = strings.ToUpper(config.KeyColumn)
	config.TargetColumn = strings.ToUpper(config.TargetColumn)
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if observer == nil {
		observer = observability.Nop()
	}
	return &Updater{config: config, observer: observer}, nil
}

// Config returns the effective settings
func (u *Updater) Config() Config {
	return u.config
}

// Apply writes the finding text into the target column of every row whose
// key cell equals one of the finding's reference codes, then saves the
// workbook. An empty path means the configured path. The workbook is left
// untouched when no row matches.
func (u *Updater) Apply(finding findings.Finding, path string) (Outcome, error) {
	path = u.resolve(path)
	finishTiming := u.observer.StartTiming("report", "apply_finding", path)
	finishStep := u.observer.StartStep("report", "apply finding", path)

	outcome, err := u.update(path, finding.ReferenceCodes, &finding.Text)
	if err != nil {
		finishStep(false, err.Error())
		finishTiming(false, map[string]interface{}{"error": err, "control": finding.Control})
		return Outcome{}, err
	}
	finishStep(true, outcome.String())

	finishTiming(true, map[string]interface{}{
		"control":     finding.Control,
		"match_count": len(outcome.Rows),
	})
	return outcome, nil
}

// Preview reports which rows Apply would overwrite for codes without
// writing anything.
func (u *Updater) Preview(codes []string, path string) (Outcome, error) {
	path = u.resolve(path)
	finishStep := u.observer.StartStep("report", "preview", path)

	outcome, err := u.update(path, codes, nil)
	if err != nil {
		finishStep(false, err.Error())
		return Outcome{}, err
	}
	finishStep(true, outcome.String())
	return outcome, nil
}

func (u *Updater) resolve(path string) string {
	if path == "" {
		return u.config.Path
	}
	return path
}

// update scans the sheet and, when text is non-nil, overwrites matches
func (u *Updater) update(path string, codes []string, text *string) (Outcome, error) {
	u.mu.Lock()
	defer u.mu.Unlock()

	lookup := make(map[string]bool)
	for _, code := range catalog.ParseCodes(strings.Join(codes, ",")) {
		lookup[code] = true
	}

	f, err := excelize.OpenFile(path)
	if err != nil {
		return Outcome{}, &ReportIOError{Path: path, Op: "open", Cause: err}
	}
	defer f.Close()

	sheet := u.config.Sheet
	index, err := f.GetSheetIndex(sheet)
	if err != nil || index < 0 {
		return Outcome{}, &ReportFormatError{Path: path, Sheet: sheet, Message: "sheet not found"}
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return Outcome{}, &ReportFormatError{Path: path, Sheet: sheet, Message: fmt.Sprintf("cannot read rows: %v", err)}
	}

	keyIndex := mustColumn(u.config.KeyColumn)
	var matched []int
	for i, cells := range rows {
		if keyIndex > len(cells) {
			continue
		}
		if lookup[strings.TrimSpace(cells[keyIndex-1])] {
			matched = append(matched, i+1)
		}
	}
	sort.Ints(matched)

	if text == nil || len(matched) == 0 {
		return Outcome{Rows: matched}, nil
	}

	for _, row := range matched {
		cell, err := excelize.CoordinatesToCellName(mustColumn(u.config.TargetColumn), row)
		if err != nil {
			return Outcome{}, &ReportFormatError{Path: path, Sheet: sheet, Message: err.Error()}
		}
		if err := f.SetCellValue(sheet, cell, *text); err != nil {
			return Outcome{}, &ReportFormatError{Path: path, Sheet: sheet, Message: fmt.Sprintf("cannot write %s: %v", cell, err)}
		}
	}

	if err := f.Save(); err != nil {
		return Outcome{}, &ReportIOError{Path: path, Op: "save", Cause: err}
	}
	return Outcome{Rows: matched}, nil
}

// mustColumn converts a column already checked by Validate
func mustColumn(name string) int {
	n, _ := excelize.ColumnNameToNumber(name)
	return n
}
