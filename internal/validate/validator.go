/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package validate checks a finished screenplay Document for structural and
// semantic problems. It is a flat set of independent rules over the
// document, not a parsing concern: the pipeline itself never fails on
// malformed input, so all diagnostics surface here.
package validate

import (
	"fmt"
	"sort"
	"strings"

	"github.com/analog-alex/script-parser/internal/screenplay"
)

// NarratorCode is reserved for narration and may speak without being
// defined in the Characters section.
const NarratorCode = "N"

// Severity separates blocking errors from advisory warnings.
type Severity int

const (
	SeverityError Severity = iota
	SeverityWarning
)

// Issue is a single validation finding with an optional remediation hint.
type Issue struct {
	Severity   Severity
	Message    string
	Suggestion string
}

func (i Issue) String() string {
	label := "ERROR"
	if i.Severity == SeverityWarning {
		label = "WARNING"
	}
	s := fmt.Sprintf("%s: %s", label, i.Message)
	if i.Suggestion != "" {
		s += "\n  Suggestion: " + i.Suggestion
	}
	return s
}

// Result collects all findings of one validation run.
type Result struct {
	Errors   []Issue
	Warnings []Issue
}

// Err folds the errors into a single error, or nil when the document is
// renderable. Warnings never contribute.
func (r Result) Err() error {
	if len(r.Errors) == 0 {
		return nil
	}
	msgs := make([]string, 0, len(r.Errors))
	for _, e := range r.Errors {
		msgs = append(msgs, e.String())
	}
	return fmt.Errorf("validation failed:\n%s", strings.Join(msgs, "\n"))
}

// Run validates the document. Tokens are optional; when present they are
// used to detect duplicate character definitions, which the folded map can
// no longer show (later definitions overwrite earlier ones).
func Run(doc *screenplay.Document, tokens []screenplay.Token) Result {
	v := &validator{}
	v.structure(doc)
	v.characters(doc)
	v.duplicates(tokens)
	v.content(doc)
	return v.result
}

type validator struct {
	result Result
}

func (v *validator) errorf(suggestion, format string, args ...any) {
	v.result.Errors = append(v.result.Errors, Issue{Severity: SeverityError, Message: fmt.Sprintf(format, args...), Suggestion: suggestion})
}

func (v *validator) warnf(suggestion, format string, args ...any) {
	v.result.Warnings = append(v.result.Warnings, Issue{Severity: SeverityWarning, Message: fmt.Sprintf(format, args...), Suggestion: suggestion})
}

func (v *validator) structure(doc *screenplay.Document) {
	if doc.Title == "" {
		v.errorf("Add a title section with a '# Title' header", "Title section is missing")
	}
	if len(doc.Characters) == 0 {
		v.errorf("Add character definitions in the '## Characters' section", "Character definitions are missing")
	}
	if len(doc.Scenes) == 0 {
		v.errorf("Add script content in the '## Script' section", "Script content is missing")
	}
}

func (v *validator) characters(doc *screenplay.Document) {
	codes := sortedCodes(doc.Characters)
	for _, code := range codes {
		name := doc.Characters[code]
		if code == "" {
			v.errorf("Provide a valid character code", "Character code cannot be empty")
		} else if !allUppercaseASCII(code) {
			v.errorf("Use only uppercase letters for character codes", "Invalid character code %q: must contain only uppercase letters", code)
		}
		if strings.TrimSpace(name) == "" {
			v.errorf("Provide a valid character name", "Character name for code %q cannot be empty", code)
		}
	}
	if _, ok := doc.Characters[NarratorCode]; ok {
		v.warnf("Consider using a different code for this character", "Character code %q is reserved for narrator", NarratorCode)
	}
}

// duplicates observes the raw token stream, where both definitions of a
// repeated code are still visible.
func (v *validator) duplicates(tokens []screenplay.Token) {
	seen := map[string]bool{}
	reported := map[string]bool{}
	for _, tok := range tokens {
		if tok.Type != screenplay.TokenCharacterDef {
			continue
		}
		if seen[tok.Code] && !reported[tok.Code] {
			v.errorf("Use unique codes for each character", "Duplicate character code %q", tok.Code)
			reported[tok.Code] = true
		}
		seen[tok.Code] = true
	}
}

func (v *validator) content(doc *screenplay.Document) {
	used := map[string]bool{}
	for i, scene := range doc.Scenes {
		sceneNo := i + 1 // scenes are 1-indexed in messages
		for _, el := range scene.Elements {
			switch el.Type {
			case screenplay.ElementDialogue:
				if _, defined := doc.Characters[el.Speaker]; !defined && el.Speaker != NarratorCode {
					v.errorf(fmt.Sprintf("Add '%s: Character Name' to the character definitions", el.Speaker),
						"Undefined character code %q used in dialogue", el.Speaker)
				}
				used[el.Speaker] = true
				if strings.TrimSpace(el.Text) == "" {
					v.errorf("Provide dialogue text or remove the line", "Empty dialogue for character %q", el.Speaker)
				}
				for _, action := range el.Actions {
					if strings.TrimSpace(action) == "" {
						v.errorf("Provide action text or remove the action", "Empty action description")
					}
				}
			case screenplay.ElementNarration:
				if strings.TrimSpace(el.Text) == "" {
					v.errorf("Provide narration text or remove the line", "Empty narration text")
				}
			case screenplay.ElementAction:
				if strings.TrimSpace(el.Text) == "" {
					v.errorf("Provide action text or remove the line", "Empty action text")
				}
			}
		}
		if len(scene.Elements) == 0 {
			v.warnf("Add dialogue, narration, or action to the scene", "Scene %d has no content", sceneNo)
		}
		if scene.Location != nil && strings.TrimSpace(*scene.Location) == "" {
			v.errorf("Provide a valid location name", "Scene location cannot be empty")
		}
	}
	for _, code := range sortedCodes(doc.Characters) {
		if !used[code] {
			v.warnf("Remove unused character or add dialogue for this character",
				"Character %q (%s) is defined but never used", doc.Characters[code], code)
		}
	}
}

func allUppercaseASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < 'A' || s[i] > 'Z' {
			return false
		}
	}
	return true
}

func sortedCodes(m map[string]string) []string {
	codes := make([]string, 0, len(m))
	for c := range m {
		codes = append(codes, c)
	}
	sort.Strings(codes)
	return codes
}
