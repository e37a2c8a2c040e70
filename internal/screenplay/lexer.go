/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package screenplay

import (
	"regexp"
	"strings"
)

// reCoded matches the shared "UPPERCASE: text" shape of character
// definitions and dialogue lines. The active section decides which of the
// two a match becomes.
var reCoded = regexp.MustCompile(`^([A-Z]+):\s*(.+)$`)

// section is the lexer state. It changes only at header lines, so every
// content line is classified by (section, line shape) alone.
type section int

const (
	sectionNone section = iota
	sectionTitle
	sectionCharacters
	sectionScript
	sectionOther
)

func sectionFor(name string) section {
	switch strings.ToLower(name) {
	case "title":
		return sectionTitle
	case "characters":
		return sectionCharacters
	case "script":
		return sectionScript
	default:
		return sectionOther
	}
}

// Diagnostic describes a non-blank line the lexer dropped. The default
// pipeline discards these silently; strict mode surfaces them.
type Diagnostic struct {
	Line   int
	Text   string
	Reason string
}

// Tokenize classifies the input into an ordered token stream terminated by
// an EOF sentinel. It never fails: malformed lines are dropped or fall back
// to narration, per the grammar.
func Tokenize(input string) []Token {
	tokens, _ := TokenizeWithDiagnostics(input)
	return tokens
}

// TokenizeWithDiagnostics is Tokenize plus one Diagnostic per dropped line.
// The token stream is identical to the one Tokenize returns.
func TokenizeWithDiagnostics(input string) ([]Token, []Diagnostic) {
	tokens := make([]Token, 0, 64)
	var diags []Diagnostic

	state := sectionNone
	// Plain split instead of a scanner: lines have no length limit and
	// classification must never drop input past a long line.
	for i, raw := range strings.Split(input, "\n") {
		lineNo := i + 1
		trimmed := strings.TrimSpace(raw)
		if trimmed == "" {
			continue
		}

		// Header lines switch the section and are never content, even
		// when they would match a content shape.
		if strings.HasPrefix(trimmed, "## ") {
			name := strings.TrimSpace(trimmed[3:])
			state = sectionFor(name)
			tokens = append(tokens, Token{Type: TokenSectionHeader, Text: name, Line: lineNo})
			continue
		}
		if strings.HasPrefix(trimmed, "# ") {
			state = sectionTitle
			tokens = append(tokens, Token{Type: TokenSectionHeader, Text: "title", Line: lineNo})
			continue
		}

		switch state {
		case sectionCharacters:
			if m := reCoded.FindStringSubmatch(trimmed); m != nil {
				tokens = append(tokens, Token{Type: TokenCharacterDef, Code: m[1], Text: m[2], Line: lineNo})
			} else {
				diags = append(diags, Diagnostic{Line: lineNo, Text: trimmed, Reason: "not a character definition (expected CODE: Name)"})
			}
		case sectionScript:
			tokens = append(tokens, classifyScriptLine(trimmed, lineNo))
		default:
			diags = append(diags, Diagnostic{Line: lineNo, Text: trimmed, Reason: "outside a recognized section"})
		}
	}
	tokens = append(tokens, Token{Type: TokenEOF})
	return tokens, diags
}

// classifyScriptLine applies the script-section rules in order: location,
// action, dialogue, then the unconditional narration fallback.
func classifyScriptLine(line string, lineNo int) Token {
	if len(line) >= 2 && line[0] == '[' && line[len(line)-1] == ']' {
		return Token{Type: TokenLocation, Text: line[1 : len(line)-1], Line: lineNo}
	}
	if len(line) >= 2 && line[0] == '(' && line[len(line)-1] == ')' {
		return Token{Type: TokenAction, Text: line[1 : len(line)-1], Line: lineNo}
	}
	if m := reCoded.FindStringSubmatch(line); m != nil {
		return Token{Type: TokenDialogue, Code: m[1], Text: m[2], Line: lineNo}
	}
	return Token{Type: TokenNarration, Text: line, Line: lineNo}
}
