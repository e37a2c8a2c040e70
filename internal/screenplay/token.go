/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package screenplay

// TokenType indicates the kind of a classified line.
type TokenType int

const (
	// TokenEOF terminates every token stream.
	TokenEOF TokenType = iota
	// TokenSectionHeader is a "## name" line, or "# ..." carrying the
	// fixed name "title".
	TokenSectionHeader
	// TokenCharacterDef is a "CODE: Name" line inside the Characters section.
	TokenCharacterDef
	// TokenDialogue is a "CODE: text" line inside the Script section.
	TokenDialogue
	// TokenNarration is any script line matching no other shape.
	TokenNarration
	// TokenAction is a script line fully wrapped in parentheses.
	TokenAction
	// TokenLocation is a script line fully wrapped in brackets.
	TokenLocation
)

func (t TokenType) String() string {
	switch t {
	case TokenEOF:
		return "eof"
	case TokenSectionHeader:
		return "section_header"
	case TokenCharacterDef:
		return "character_def"
	case TokenDialogue:
		return "dialogue"
	case TokenNarration:
		return "narration"
	case TokenAction:
		return "action"
	case TokenLocation:
		return "location"
	default:
		return "unknown"
	}
}

// Token is one classified line. Tokens preserve source order; blank lines
// and lines outside a recognized section produce no token.
type Token struct {
	Type TokenType
	// Code holds the character code for definitions and the speaker for
	// dialogue lines; empty otherwise.
	Code string
	// Text holds the section name, location, action, narration text,
	// character display name, or dialogue text depending on Type.
	Text string
	// Line is the 1-based source line number (0 for the EOF sentinel).
	Line int
}
