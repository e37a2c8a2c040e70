/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package screenplay

import (
	"strings"
	"testing"
)

func TestTokenizeEmptyInputYieldsOnlyEOF(t *testing.T) {
	tokens := Tokenize("")
	if len(tokens) != 1 {
		t.Fatalf("expected 1 token, got %d", len(tokens))
	}
	if tokens[0].Type != TokenEOF {
		t.Fatalf("expected EOF sentinel, got %v", tokens[0].Type)
	}
}

func TestTokenizeBlankLinesProduceNoTokens(t *testing.T) {
	tokens := Tokenize("\n\n   \n\t\n")
	if len(tokens) != 1 || tokens[0].Type != TokenEOF {
		t.Fatalf("blank input should yield only the sentinel, got %+v", tokens)
	}
}

func TestTokenizeSectionContextDisambiguatesCodedShape(t *testing.T) {
	input := `## Characters
JOHN: John Smith
## Script
JOHN: Hello there.`

	tokens := Tokenize(input)
	// header, def, header, dialogue, EOF
	if len(tokens) != 5 {
		t.Fatalf("expected 5 tokens, got %d: %+v", len(tokens), tokens)
	}
	def := tokens[1]
	if def.Type != TokenCharacterDef || def.Code != "JOHN" || def.Text != "John Smith" {
		t.Fatalf("expected character def, got %+v", def)
	}
	dlg := tokens[3]
	if dlg.Type != TokenDialogue || dlg.Code != "JOHN" || dlg.Text != "Hello there." {
		t.Fatalf("expected dialogue, got %+v", dlg)
	}
}

func TestTokenizeScriptLineShapes(t *testing.T) {
	input := `## Script
[Kitchen]
(John waves)
JOHN: Hello.
Just some narration.`

	tokens := Tokenize(input)
	want := []TokenType{TokenSectionHeader, TokenLocation, TokenAction, TokenDialogue, TokenNarration, TokenEOF}
	if len(tokens) != len(want) {
		t.Fatalf("expected %d tokens, got %d: %+v", len(want), len(tokens), tokens)
	}
	for i, w := range want {
		if tokens[i].Type != w {
			t.Fatalf("token %d: expected %v, got %+v", i, w, tokens[i])
		}
	}
	if tokens[1].Text != "Kitchen" {
		t.Fatalf("location inner text: %q", tokens[1].Text)
	}
	if tokens[2].Text != "John waves" {
		t.Fatalf("action inner text: %q", tokens[2].Text)
	}
}

func TestTokenizeLowercaseCodeFallsBackToNarration(t *testing.T) {
	input := "## Script\njane: hi"
	tokens := Tokenize(input)
	if len(tokens) != 3 {
		t.Fatalf("expected 3 tokens, got %d", len(tokens))
	}
	if tokens[1].Type != TokenNarration || tokens[1].Text != "jane: hi" {
		t.Fatalf("expected narration fallback, got %+v", tokens[1])
	}
}

func TestTokenizeTitleHeaderEmitsFixedName(t *testing.T) {
	tokens := Tokenize("# My Great Screenplay")
	if len(tokens) != 2 {
		t.Fatalf("expected header + EOF, got %+v", tokens)
	}
	if tokens[0].Type != TokenSectionHeader || tokens[0].Text != "title" {
		t.Fatalf("expected SectionHeader(title), got %+v", tokens[0])
	}
}

func TestTokenizeSectionHeaderKeepsOriginalCase(t *testing.T) {
	tokens := Tokenize("## CHARACTERS\nBOB: Bob")
	if tokens[0].Text != "CHARACTERS" {
		t.Fatalf("header should keep original case, got %q", tokens[0].Text)
	}
	// Dispatch is case-insensitive, so the definition is still recognized.
	if tokens[1].Type != TokenCharacterDef {
		t.Fatalf("expected character def under uppercase header, got %+v", tokens[1])
	}
}

func TestTokenizeHeaderLineNeverClassifiedAsContent(t *testing.T) {
	// A header shaped like a location must still switch sections.
	input := "## Script\n## [Not A Location]"
	tokens := Tokenize(input)
	if len(tokens) != 3 {
		t.Fatalf("expected 3 tokens, got %+v", tokens)
	}
	if tokens[1].Type != TokenSectionHeader || tokens[1].Text != "[Not A Location]" {
		t.Fatalf("expected section header, got %+v", tokens[1])
	}
}

func TestTokenizeLinesOutsideSectionsAreDropped(t *testing.T) {
	input := `stray line before any section
## Notes
these lines belong
to an unknown section
## Script
Real content.`

	tokens, diags := TokenizeWithDiagnostics(input)
	// two headers, one narration, EOF
	if len(tokens) != 4 {
		t.Fatalf("expected 4 tokens, got %d: %+v", len(tokens), tokens)
	}
	if len(diags) != 3 {
		t.Fatalf("expected 3 diagnostics for dropped lines, got %+v", diags)
	}
	if diags[0].Line != 1 || diags[0].Reason == "" {
		t.Fatalf("unexpected first diagnostic: %+v", diags[0])
	}
}

func TestTokenizeCharactersSectionDropsMalformedLines(t *testing.T) {
	input := `## Characters
JOHN: John Smith
not a definition
jane: lowercase code
EMPTY:`

	tokens, diags := TokenizeWithDiagnostics(input)
	if len(tokens) != 3 { // header, JOHN def, EOF
		t.Fatalf("expected 3 tokens, got %d: %+v", len(tokens), tokens)
	}
	if len(diags) != 3 {
		t.Fatalf("expected 3 diagnostics, got %+v", diags)
	}
}

func TestTokenizeStrictStreamMatchesDefault(t *testing.T) {
	input := `# Title
stray
## Characters
oops
JOHN: John
## Script
JOHN: Hi.`

	plain := Tokenize(input)
	withDiags, diags := TokenizeWithDiagnostics(input)
	if len(plain) != len(withDiags) {
		t.Fatalf("token streams differ: %d vs %d", len(plain), len(withDiags))
	}
	for i := range plain {
		if plain[i] != withDiags[i] {
			t.Fatalf("token %d differs: %+v vs %+v", i, plain[i], withDiags[i])
		}
	}
	if len(diags) != 2 {
		t.Fatalf("expected 2 diagnostics (stray + oops), got %+v", diags)
	}
}

func TestTokenizeCRLFInput(t *testing.T) {
	tokens := Tokenize("## Script\r\n[Porch]\r\nBOB: Hi.\r\n")
	want := []TokenType{TokenSectionHeader, TokenLocation, TokenDialogue, TokenEOF}
	if len(tokens) != len(want) {
		t.Fatalf("expected %d tokens, got %+v", len(want), tokens)
	}
	if tokens[1].Text != "Porch" {
		t.Fatalf("CRLF location text: %q", tokens[1].Text)
	}
}

func TestTokenizeVeryLongLineKeepsFollowingLines(t *testing.T) {
	long := strings.Repeat("a", 2*1024*1024)
	input := "## Script\n" + long + "\nBOB: Hi.\n"
	tokens := Tokenize(input)
	want := []TokenType{TokenSectionHeader, TokenNarration, TokenDialogue, TokenEOF}
	if len(tokens) != len(want) {
		t.Fatalf("expected %d tokens, got %d", len(want), len(tokens))
	}
	for i, w := range want {
		if tokens[i].Type != w {
			t.Fatalf("token %d: expected %v, got %v", i, w, tokens[i].Type)
		}
	}
	if len(tokens[1].Text) != len(long) {
		t.Fatalf("long narration line truncated to %d bytes", len(tokens[1].Text))
	}
	if tokens[2].Code != "BOB" || tokens[2].Line != 3 {
		t.Fatalf("dialogue after the long line: %+v", tokens[2])
	}
}

func TestTokenizeLineNumbersTrackSource(t *testing.T) {
	input := "\n## Script\n\nBOB: Hi.\n"
	tokens := Tokenize(input)
	if tokens[0].Line != 2 {
		t.Fatalf("header line: %d", tokens[0].Line)
	}
	if tokens[1].Line != 4 {
		t.Fatalf("dialogue line: %d", tokens[1].Line)
	}
}
