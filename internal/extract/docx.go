// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package extract

import (
	"archive/zip"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"

	"cyber-survey/internal/match"
)

const wordNamespace = "http://schemas.openxmlformats.org/wordprocessingml/2006/main"

// DocxExtractor reads Word documents paragraph by paragraph
type DocxExtractor struct{}

func (DocxExtractor) Name() string {
	return "docx"
}

// Units returns one unit per body paragraph, numbered from 1 in document
// order. Empty paragraphs still take a number so labels line up with what
// the analyst sees in Word.
func (DocxExtractor) Units(path string) ([]match.Unit, []error, error) {
	reader, err := zip.OpenReader(path)
	if err != nil {
		return nil, nil, fileError(path, ErrorTypeFileAccess, "error opening file", err)
	}
	defer reader.Close()

	var documentFile *zip.File
	for _, file := range reader.File {
		if file.Name == "word/document.xml" {
			documentFile = file
			break
		}
	}
	if documentFile == nil {
		return nil, nil, fileError(path, ErrorTypeInvalidFormat, "document.xml not found in the archive", nil)
	}

	rc, err := documentFile.Open()
	if err != nil {
		return nil, nil, fileError(path, ErrorTypeInvalidFormat, "error opening document.xml", err)
	}
	defer rc.Close()

	paragraphs, err := readParagraphs(rc)
	if err != nil {
		// Paragraphs decoded before the broken element are still usable
		skipped := []error{unitError(path, fmt.Sprintf("Paragraph %d", len(paragraphs)+1),
			"malformed document.xml, remaining paragraphs skipped", err)}
		return paragraphUnits(paragraphs), skipped, nil
	}

	return paragraphUnits(paragraphs), nil, nil
}

func paragraphUnits(paragraphs []string) []match.Unit {
	units := make([]match.Unit, len(paragraphs))
	for i, text := range paragraphs {
		units[i] = match.Unit{Label: fmt.Sprintf("Paragraph %d", i+1), Text: text}
	}
	return units
}

// readParagraphs collects the text of every w:p that is a direct child of
// w:body. Paragraphs nested in tables or text boxes are not body paragraphs.
func readParagraphs(r io.Reader) ([]string, error) {
	decoder := xml.NewDecoder(r)

	var (
		paragraphs []string
		stack      []string
		current    strings.Builder
		inBodyPara bool
		paraDepth  int
		inText     bool
	)

	for {
		token, err := decoder.Token()
		if errors.Is(err, io.EOF) {
			return paragraphs, nil
		}
		if err != nil {
			return paragraphs, err
		}

		switch el := token.(type) {
		case xml.StartElement:
			name := localName(el.Name)
			parent := ""
			if len(stack) > 0 {
				parent = stack[len(stack)-1]
			}
			stack = append(stack, name)

			switch name {
			case "p":
				paraDepth++
				if parent == "body" && paraDepth == 1 {
					inBodyPara = true
					current.Reset()
				}
			case "t":
				inText = inBodyPara && paraDepth == 1
			case "tab":
				if inBodyPara && paraDepth == 1 {
					current.WriteString("\t")
				}
			case "br", "cr":
				if inBodyPara && paraDepth == 1 {
					current.WriteString("\n")
				}
			}

		case xml.EndElement:
			name := localName(el.Name)
			if len(stack) > 0 {
				stack = stack[:len(stack)-1]
			}

			switch name {
			case "p":
				if paraDepth == 1 && inBodyPara {
					paragraphs = append(paragraphs, current.String())
					inBodyPara = false
				}
				if paraDepth > 0 {
					paraDepth--
				}
			case "t":
				inText = false
			}

		case xml.CharData:
			if inText {
				current.Write(el)
			}
		}
	}
}

// localName strips the WordprocessingML namespace; elements from other
// namespaces keep a prefix so they never collide with w:p or w:t.
func localName(name xml.Name) string {
	if name.Space == wordNamespace || name.Space == "w" {
		return name.Local
	}
	return name.Space + ":" + name.Local
}
