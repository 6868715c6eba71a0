// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package extract

import (
	"fmt"
	"strings"
)

// ErrorType classifies extraction failures
type ErrorType string

const (
	// ErrorTypeFileAccess means the file could not be opened or read at all
	ErrorTypeFileAccess ErrorType = "file_access"
	// ErrorTypeInvalidFormat means the container or document structure is broken
	ErrorTypeInvalidFormat ErrorType = "invalid_format"
	// ErrorTypeUnitDecode means a single page or paragraph could not be decoded
	ErrorTypeUnitDecode ErrorType = "unit_decode"
	// ErrorTypeUnsupportedFormat means no extractor handles the extension
	ErrorTypeUnsupportedFormat ErrorType = "unsupported_format"
)

// ExtractionError describes a failure to turn a document, or one unit of it,
// into text. When Unit is empty the whole file failed; otherwise only the
// named page or paragraph was skipped.
type ExtractionError struct {
	FilePath  string
	Unit      string
	ErrorType ErrorType
	Message   string
	Cause     error
}

// Error implements the error interface
func (e *ExtractionError) Error() string {
	var parts []string

	target := e.FilePath
	if e.Unit != "" {
		target = fmt.Sprintf("%s (%s)", e.FilePath, e.Unit)
	}
	parts = append(parts, fmt.Sprintf("extraction failed for %s", target))
	parts = append(parts, fmt.Sprintf("error=%s", e.ErrorType))

	if e.Message != "" {
		parts = append(parts, fmt.Sprintf("message=%s", e.Message))
	}
	if e.Cause != nil {
		parts = append(parts, fmt.Sprintf("cause=%v", e.Cause))
	}

	return strings.Join(parts, " ")
}

// Unwrap returns the underlying error
func (e *ExtractionError) Unwrap() error {
	return e.Cause
}

// FileLevel reports whether the failure aborted the whole file.
func (e *ExtractionError) FileLevel() bool {
	return e.Unit == ""
}

func fileError(filePath string, errorType ErrorType, message string, cause error) *ExtractionError {
	return &ExtractionError{
		FilePath:  filePath,
		ErrorType: errorType,
		Message:   message,
		Cause:     cause,
	}
}

func unitError(filePath, unit, message string, cause error) *ExtractionError {
	return &ExtractionError{
		FilePath:  filePath,
		Unit:      unit,
		ErrorType: ErrorTypeUnitDecode,
		Message:   message,
		Cause:     cause,
	}
}
