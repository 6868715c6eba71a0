// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package extract

import (
	"os"
	"path/filepath"
	"strings"

	"cyber-survey/internal/match"
)

// WholeDocumentLabel locates a match in a format without pages or paragraphs.
const WholeDocumentLabel = "In document"

// TextExtractor reads plain-text files as a single undivided unit
type TextExtractor struct{}

func (TextExtractor) Name() string {
	return "text"
}

func (TextExtractor) Units(path string) ([]match.Unit, []error, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, nil, fileError(path, ErrorTypeFileAccess, "error reading file", err)
	}

	// Invalid UTF-8 sequences are replaced instead of failing the file
	text := strings.ToValidUTF8(string(data), "\uFFFD")
	text = strings.TrimPrefix(text, "\uFEFF")

	return []match.Unit{{Label: WholeDocumentLabel, Text: text, Whole: true}}, nil, nil
}
