// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package extract

import (
	"path/filepath"
	"strings"

	"cyber-survey/internal/match"
)

// Extractor turns one document into an ordered sequence of labelled text
// units. Units that fail to decode are reported in skipped and left out of
// the result; err is only set when the file as a whole cannot be read.
type Extractor interface {
	// Name identifies the extraction strategy in logs
	Name() string

	// Units extracts the labelled text units from the file at path
	Units(path string) (units []match.Unit, skipped []error, err error)
}

var extractors = map[string]Extractor{
	".pdf":  PDFExtractor{},
	".docx": DocxExtractor{},
	".txt":  TextExtractor{},
}

// SupportedExtensions lists the extensions that have an extractor.
func SupportedExtensions() []string {
	return []string{".docx", ".txt", ".pdf"}
}

// ForPath selects the extractor for a file by its extension.
func ForPath(path string) (Extractor, bool) {
	extractor, ok := extractors[strings.ToLower(filepath.Ext(path))]
	return extractor, ok
}

// Supported reports whether name has an extension an extractor handles.
func Supported(name string) bool {
	_, ok := ForPath(name)
	return ok
}

// Extract reads the file at path and matches its units against the topic
// and detail keyword lists.
func Extract(path string, topic, detail []string) (match.Result, []error, error) {
	extractor, ok := ForPath(path)
	if !ok {
		return match.Result{}, nil, fileError(path, ErrorTypeUnsupportedFormat,
			"unsupported file type "+filepath.Ext(path), nil)
	}

	units, skipped, err := extractor.Units(path)
	if err != nil {
		return match.Result{}, skipped, err
	}
	return match.Match(units, topic, detail), skipped, nil
}
