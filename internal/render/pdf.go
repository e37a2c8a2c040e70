/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package render lays out a screenplay Document as a paginated PDF.
// It has no parsing logic; it consumes the finished Document only.
package render

import (
	"fmt"
	"sort"

	"github.com/jung-kurt/gofpdf"

	"github.com/analog-alex/script-parser/internal/screenplay"
)

// Options controls PDF layout. Units are points.
// Built-in Courier keeps text vector without font embedding.
type Options struct {
	FontSize   float64 // default 12
	LineHeight float64 // default 14
}

const (
	pageMargin   = 56.7 // 2cm in points
	indentStep   = 14.0
	sectionSpace = 2.0
)

// PDF renders the document to a PDF file at outPath.
func PDF(doc *screenplay.Document, outPath string, opt Options) error {
	pdf := layout(doc, opt)
	if pdf.Err() {
		return fmt.Errorf("render pdf: %w", pdf.Error())
	}
	if err := pdf.OutputFileAndClose(outPath); err != nil {
		return fmt.Errorf("write pdf: %w", err)
	}
	return nil
}

// layout builds the in-memory PDF. Split from PDF so tests can inspect the
// page count without touching the filesystem.
func layout(doc *screenplay.Document, opt Options) *gofpdf.Fpdf {
	fontSize := opt.FontSize
	if fontSize <= 0 {
		fontSize = 12
	}
	lineHeight := opt.LineHeight
	if lineHeight <= 0 {
		lineHeight = 14
	}

	pdf := gofpdf.New("P", "pt", "A4", "")
	pdf.SetTitle("Script", false)
	pdf.SetFont("Courier", "", fontSize)
	pdf.AddPage()

	_, pageH := pdf.GetPageSize()
	y := pageMargin

	// line writes one text line at the given indent, breaking the page
	// when the cursor would run past the bottom margin.
	line := func(indent float64, s string) {
		if y > pageH-pageMargin {
			pdf.AddPage()
			y = pageMargin
		}
		pdf.Text(pageMargin+indent, y, s)
		y += lineHeight
	}
	gap := func(n float64) { y += lineHeight * n }

	if doc.Title != "" {
		line(0, doc.Title)
		gap(sectionSpace - 1)
	}

	if len(doc.Characters) > 0 {
		line(0, "CHARACTERS:")
		codes := make([]string, 0, len(doc.Characters))
		for c := range doc.Characters {
			codes = append(codes, c)
		}
		sort.Strings(codes)
		for _, code := range codes {
			line(indentStep, fmt.Sprintf("%s: %s", code, doc.Characters[code]))
		}
		gap(1)
	}

	for _, scene := range doc.Scenes {
		if scene.Location != nil {
			line(0, fmt.Sprintf("[%s]", *scene.Location))
			gap(0.5)
		}
		for _, el := range scene.Elements {
			switch el.Type {
			case screenplay.ElementDialogue:
				line(0, el.Speaker+":")
				line(indentStep, el.Text)
				gap(0.5)
			case screenplay.ElementNarration:
				line(0, el.Text)
				gap(0.5)
			case screenplay.ElementAction:
				line(2*indentStep, fmt.Sprintf("(%s)", el.Text))
			}
		}
		gap(0.5)
	}

	return pdf
}
