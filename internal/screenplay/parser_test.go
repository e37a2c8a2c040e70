/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package screenplay

import "testing"

const goldenInput = `# Title
## Characters
JOHN: John Smith
## Script
[Kitchen]
JOHN: Hello there.
(John waves)
This is narration.`

func TestParseGoldenScenario(t *testing.T) {
	doc, err := Parse(goldenInput)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if doc.Title != TitleLabel {
		t.Fatalf("title: %q", doc.Title)
	}
	if len(doc.Characters) != 1 || doc.Characters["JOHN"] != "John Smith" {
		t.Fatalf("characters: %+v", doc.Characters)
	}
	if len(doc.Scenes) != 1 {
		t.Fatalf("expected 1 scene, got %d", len(doc.Scenes))
	}
	sc := doc.Scenes[0]
	if sc.Location == nil || *sc.Location != "Kitchen" {
		t.Fatalf("location: %v", sc.Location)
	}
	if len(sc.Elements) != 3 {
		t.Fatalf("expected 3 elements, got %+v", sc.Elements)
	}
	d := sc.Elements[0]
	if d.Type != ElementDialogue || d.Speaker != "JOHN" || d.Text != "Hello there." {
		t.Fatalf("dialogue element: %+v", d)
	}
	if len(d.Actions) != 0 {
		t.Fatalf("dialogue actions must be empty, got %+v", d.Actions)
	}
	if a := sc.Elements[1]; a.Type != ElementAction || a.Text != "John waves" {
		t.Fatalf("action element: %+v", a)
	}
	if n := sc.Elements[2]; n.Type != ElementNarration || n.Text != "This is narration." {
		t.Fatalf("narration element: %+v", n)
	}
}

func TestParseEmptyInput(t *testing.T) {
	doc, err := Parse("")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if doc.Title != "" {
		t.Fatalf("title should be empty, got %q", doc.Title)
	}
	if len(doc.Characters) != 0 {
		t.Fatalf("characters should be empty, got %+v", doc.Characters)
	}
	if len(doc.Scenes) != 0 {
		t.Fatalf("scenes should be empty, got %+v", doc.Scenes)
	}
}

func TestParseScriptWithoutLocationYieldsNilLocationScene(t *testing.T) {
	doc, err := Parse("## Script\nBOB: Hi.\nSome narration.")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(doc.Scenes) != 1 {
		t.Fatalf("expected 1 scene, got %d", len(doc.Scenes))
	}
	if doc.Scenes[0].Location != nil {
		t.Fatalf("expected nil location, got %v", *doc.Scenes[0].Location)
	}
	if len(doc.Scenes[0].Elements) != 2 {
		t.Fatalf("elements: %+v", doc.Scenes[0].Elements)
	}
}

func TestParseConsecutiveLocationsDiscardEmptyScene(t *testing.T) {
	doc, err := Parse("## Script\n[First]\n[Second]\nBOB: Hi.")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(doc.Scenes) != 1 {
		t.Fatalf("expected exactly 1 scene, got %d", len(doc.Scenes))
	}
	if doc.Scenes[0].Location == nil || *doc.Scenes[0].Location != "Second" {
		t.Fatalf("surviving scene should carry the second location, got %v", doc.Scenes[0].Location)
	}
}

func TestParseTrailingEmptySceneIsDiscarded(t *testing.T) {
	doc, err := Parse("## Script\nBOB: Hi.\n[Empty Tail]")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(doc.Scenes) != 1 {
		t.Fatalf("expected 1 scene, got %+v", doc.Scenes)
	}
	if doc.Scenes[0].Location != nil {
		t.Fatalf("expected the leading location-less scene, got %v", doc.Scenes[0].Location)
	}
}

func TestParseDuplicateCharacterLastWriteWins(t *testing.T) {
	doc, err := Parse("## Characters\nBOB: Robert\nBOB: Bobby")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(doc.Characters) != 1 {
		t.Fatalf("map should hold unique codes only, got %+v", doc.Characters)
	}
	if doc.Characters["BOB"] != "Bobby" {
		t.Fatalf("last definition should win, got %q", doc.Characters["BOB"])
	}
}

func TestParseUnknownSectionHeaderIsSkipped(t *testing.T) {
	doc, err := Parse("## Notes\nignored\n## Script\nBOB: Hi.")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(doc.Scenes) != 1 || len(doc.Scenes[0].Elements) != 1 {
		t.Fatalf("script after unknown section should still parse, got %+v", doc.Scenes)
	}
}

func TestParseSectionHeaderTerminatesSubParsers(t *testing.T) {
	input := `## Characters
BOB: Robert
## Script
BOB: Hi.
## Characters
ANN: Anna`

	doc, err := Parse(input)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	// The second Characters section replaces the first map entirely.
	if len(doc.Characters) != 1 || doc.Characters["ANN"] != "Anna" {
		t.Fatalf("characters: %+v", doc.Characters)
	}
	if len(doc.Scenes) != 1 {
		t.Fatalf("scenes: %+v", doc.Scenes)
	}
}

func TestParseDoubleHashTitleSectionSetsTitle(t *testing.T) {
	doc, err := Parse("## Title\nThe Actual Title Text")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if doc.Title != TitleLabel {
		t.Fatalf("title: %q", doc.Title)
	}
}

func TestParseMissingSectionsAreNotErrors(t *testing.T) {
	doc, err := Parse("# Only A Title")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if doc.Title != TitleLabel || len(doc.Characters) != 0 || len(doc.Scenes) != 0 {
		t.Fatalf("unexpected document: %+v", doc)
	}
}

func TestParserCursorSurvivesMissingEOF(t *testing.T) {
	// A hand-built stream without the sentinel must still terminate.
	tokens := []Token{
		{Type: TokenSectionHeader, Text: "Script"},
		{Type: TokenDialogue, Code: "BOB", Text: "Hi."},
	}
	doc, err := NewParser(tokens).Parse()
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(doc.Scenes) != 1 || len(doc.Scenes[0].Elements) != 1 {
		t.Fatalf("scenes: %+v", doc.Scenes)
	}
}
