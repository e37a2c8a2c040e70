/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package screenplay

import "strings"

// Parser assembles a token stream into a Document. It consumes the stream
// once; out-of-place tokens are skipped, never errors.
type Parser struct {
	tokens []Token
	pos    int
}

// NewParser returns a parser over the given token stream.
func NewParser(tokens []Token) *Parser {
	return &Parser{tokens: tokens}
}

// Parse builds the document from the full input text.
func Parse(input string) (*Document, error) {
	return NewParser(Tokenize(input)).Parse()
}

// Parse runs the top-level dispatch loop. The error return is reserved for
// future grammar rules that must halt parsing; no current rule fails.
func (p *Parser) Parse() (*Document, error) {
	doc := NewDocument()
	for !p.atEnd() {
		tok := p.current()
		if tok.Type != TokenSectionHeader {
			p.advance()
			continue
		}
		switch strings.ToLower(tok.Text) {
		case "title":
			doc.Title = TitleLabel
			p.advance()
		case "characters":
			// A repeated Characters section replaces the earlier map.
			doc.Characters = p.parseCharacters()
		case "script":
			doc.Scenes = p.parseScript()
		default:
			// Unknown section: its content lines were never tokenized,
			// so only the header itself needs skipping.
			p.advance()
		}
	}
	return doc, nil
}

// parseCharacters accumulates definitions until the next section header or
// end of stream. Later definitions of the same code win.
func (p *Parser) parseCharacters() map[string]string {
	characters := make(map[string]string)
	p.advance() // the Characters header
	for !p.atEnd() {
		tok := p.current()
		switch tok.Type {
		case TokenCharacterDef:
			characters[tok.Code] = tok.Text
			p.advance()
		case TokenSectionHeader:
			// Left for the top-level loop.
			return characters
		default:
			p.advance()
		}
	}
	return characters
}

// parseScript assembles scenes. A scene is appended only once it holds at
// least one element; a location header opening a scene that stays empty
// before the next location header is discarded.
func (p *Parser) parseScript() []Scene {
	scenes := []Scene{}
	current := NewScene(nil)
	p.advance() // the Script header

loop:
	for !p.atEnd() {
		tok := p.current()
		switch tok.Type {
		case TokenLocation:
			if len(current.Elements) > 0 {
				scenes = append(scenes, current)
			}
			location := tok.Text
			current = NewScene(&location)
			p.advance()
		case TokenDialogue:
			current.Elements = append(current.Elements, Element{
				Type:    ElementDialogue,
				Speaker: tok.Code,
				Text:    tok.Text,
				Actions: []string{},
			})
			p.advance()
		case TokenNarration:
			current.Elements = append(current.Elements, Element{Type: ElementNarration, Text: tok.Text})
			p.advance()
		case TokenAction:
			current.Elements = append(current.Elements, Element{Type: ElementAction, Text: tok.Text})
			p.advance()
		case TokenSectionHeader:
			break loop
		default:
			p.advance()
		}
	}
	if len(current.Elements) > 0 {
		scenes = append(scenes, current)
	}
	return scenes
}

func (p *Parser) current() Token {
	if p.pos < len(p.tokens) {
		return p.tokens[p.pos]
	}
	return Token{Type: TokenEOF}
}

func (p *Parser) advance() {
	if !p.atEnd() {
		p.pos++
	}
}

func (p *Parser) atEnd() bool {
	return p.pos >= len(p.tokens) || p.tokens[p.pos].Type == TokenEOF
}
