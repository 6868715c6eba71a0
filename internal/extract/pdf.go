// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package extract

import (
	"bytes"
	"fmt"
	"sort"
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"

	"cyber-survey/internal/match"
)

// PDFExtractor reads PDF documents page by page using ledongthuc/pdf
type PDFExtractor struct{}

func (PDFExtractor) Name() string {
	return "pdf"
}

// Units returns one unit per page labelled "Page n". Pages that are missing
// or whose content stream cannot be decoded are skipped and reported. The
// reader panics while resolving objects of corrupt files; such a file fails
// as a whole with an invalid-format error.
func (PDFExtractor) Units(path string) (units []match.Unit, skipped []error, err error) {
	defer func() {
		if recovered := recover(); recovered != nil {
			units, skipped = nil, nil
			err = fileError(path, ErrorTypeInvalidFormat, "corrupt PDF structure",
				fmt.Errorf("decoder panic: %v", recovered))
		}
	}()

	f, r, err := pdf.Open(path)
	if err != nil {
		return nil, nil, fileError(path, ErrorTypeFileAccess, diagnosePDF(path), err)
	}
	defer f.Close()

	pageCount := r.NumPage()
	units = make([]match.Unit, 0, pageCount)

	for pageNum := 1; pageNum <= pageCount; pageNum++ {
		label := fmt.Sprintf("Page %d", pageNum)

		text, err := pageText(r, pageNum)
		if err != nil {
			skipped = append(skipped, unitError(path, label, "page text could not be decoded", err))
			continue
		}
		units = append(units, match.Unit{Label: label, Text: text})
	}

	return units, skipped, nil
}

// pageText extracts one page. The decoder panics on some malformed content
// streams, so a panic is turned into an error for that page only.
func pageText(r *pdf.Reader, pageNum int) (text string, err error) {
	defer func() {
		if recovered := recover(); recovered != nil {
			err = fmt.Errorf("decoder panic: %v", recovered)
		}
	}()

	p := r.Page(pageNum)
	if p.V.IsNull() {
		return "", fmt.Errorf("null page")
	}
	return extractTextWithProperSpacing(p)
}

// diagnosePDF asks pdfcpu why a file could not be opened, so the analyst
// sees "encrypted" or "corrupt xref" rather than a bare parser error.
func diagnosePDF(path string) string {
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed

	if err := api.ValidateFile(path, conf); err != nil {
		return fmt.Sprintf("error opening PDF (validation: %v)", err)
	}
	return "error opening PDF"
}

// extractTextWithProperSpacing extracts text using row-based positioning for better spacing
func extractTextWithProperSpacing(p pdf.Page) (string, error) {
	rows, err := p.GetTextByRow()
	if err != nil {
		// Fallback to simple text extraction if row-based fails
		return p.GetPlainText(nil)
	}

	sortedRows := make([]*pdf.Row, 0, len(rows))
	for _, row := range rows {
		if row != nil && len(row.Content) > 0 {
			sortedRows = append(sortedRows, row)
		}
	}

	// PDF Y grows upwards, so the top row of the page has the largest Y
	sort.SliceStable(sortedRows, func(i, j int) bool {
		return averageY(sortedRows[i].Content) > averageY(sortedRows[j].Content)
	})

	var buf bytes.Buffer
	for _, row := range sortedRows {
		rowText := reconstructRowText(row.Content)
		if strings.TrimSpace(rowText) != "" {
			buf.WriteString(rowText)
			buf.WriteString("\n")
		}
	}

	return buf.String(), nil
}

func averageY(textElements []pdf.Text) float64 {
	if len(textElements) == 0 {
		return 0
	}

	var totalY float64
	for _, element := range textElements {
		totalY += element.Y
	}
	return totalY / float64(len(textElements))
}

// reconstructRowText joins the glyph runs of a row left to right, inserting
// a space wherever the horizontal gap is wider than a fifth of the font size.
func reconstructRowText(textElements []pdf.Text) string {
	if len(textElements) == 0 {
		return ""
	}

	sortedElements := make([]pdf.Text, len(textElements))
	copy(sortedElements, textElements)
	sort.SliceStable(sortedElements, func(i, j int) bool {
		return sortedElements[i].X < sortedElements[j].X
	})

	var buf bytes.Buffer
	for i, element := range sortedElements {
		buf.WriteString(element.S)

		if i == len(sortedElements)-1 {
			break
		}
		gap := sortedElements[i+1].X - (element.X + element.W)

		fontSize := element.FontSize
		if fontSize <= 0 {
			fontSize = 12
		}
		if gap > fontSize*0.2 && !strings.HasSuffix(element.S, " ") {
			buf.WriteString(" ")
		}
	}

	return buf.String()
}
