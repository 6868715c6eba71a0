// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package report

import (
	"errors"
	"fmt"
	"io/fs"
)

// ReportIOError means the workbook could not be opened or saved. The
// finding is unaffected and the update can be retried.
type ReportIOError struct {
	Path  string
	Op    string // "open" or "save"
	Cause error
}

// Error implements the error interface
func (e *ReportIOError) Error() string {
	if e.Permission() {
		return fmt.Sprintf("failed to %s report %s: permission denied: %v", e.Op, e.Path, e.Cause)
	}
	return fmt.Sprintf("failed to %s report %s: %v", e.Op, e.Path, e.Cause)
}

// Unwrap returns the underlying error
func (e *ReportIOError) Unwrap() error {
	return e.Cause
}

// Permission reports whether the failure was a permission problem, which
// usually means the workbook is open in another program.
func (e *ReportIOError) Permission() bool {
	return errors.Is(e.Cause, fs.ErrPermission)
}

// ReportFormatError means the workbook does not have the expected layout.
// Nothing is written when it is returned.
type ReportFormatError struct {
	Path    string
	Sheet   string
	Message string
}

// Error implements the error interface
func (e *ReportFormatError) Error() string {
	return fmt.Sprintf("report %s, sheet %q: %s", e.Path, e.Sheet, e.Message)
}
