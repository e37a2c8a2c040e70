/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package screenplay implements the text-to-document pipeline for the
// markdown-flavored screenplay format: a line classifier producing a flat
// token stream and a builder assembling tokens into a Document.
//
// The format is section driven. A "# " line opens the title section and
// "## " lines open named sections; only "Characters" and "Script" carry
// content. The same "CODE: text" line shape means a character definition
// inside Characters and a dialogue line inside Script.
package screenplay

// TitleLabel is the fixed value stored in Document.Title when a title
// header is present. The heading text itself is not carried forward;
// downstream consumers only test for presence.
const TitleLabel = "Title Section"

// Document is the single output artifact of the pipeline. It is immutable
// after construction and serializes to the project manifest.
type Document struct {
	Title      string            `json:"title"`
	Characters map[string]string `json:"characters"`
	Scenes     []Scene           `json:"scenes"`
}

// NewDocument returns an empty document with an allocated character map.
func NewDocument() *Document {
	return &Document{
		Characters: make(map[string]string),
		Scenes:     []Scene{},
	}
}

// Scene is a contiguous run of script content. Location is nil for content
// appearing before the first location header.
type Scene struct {
	Location *string   `json:"location,omitempty"`
	Elements []Element `json:"elements"`
}

// NewScene returns a scene with the given location and no elements.
func NewScene(location *string) Scene {
	return Scene{Location: location, Elements: []Element{}}
}

// ElementType discriminates the kinds of scene content.
type ElementType string

const (
	ElementDialogue  ElementType = "dialogue"
	ElementNarration ElementType = "narration"
	ElementAction    ElementType = "action"
)

// Element is one unit of scene content.
// For dialogue, Speaker holds the character code and Actions is reserved
// for future inline-action support; no parsing rule populates it today.
type Element struct {
	Type    ElementType `json:"type"`
	Speaker string      `json:"speaker,omitempty"`
	Text    string      `json:"text"`
	Actions []string    `json:"actions,omitempty"`
}
