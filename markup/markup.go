// Package markup parses the inline color markup used by captions.
//
// Markup is flat: `<red>text</red>` colors a run of text and tags never nest.
// A span ends at the first closing tag with the same name, and everything in
// between (other tags included) is taken verbatim. Explicit breaks are written
// as `<br>` and become a single newline. Malformed markup is never an error;
// it stays in the output as literal text.
package markup

import (
	"fmt"
	"strings"

	"github.com/alecthomas/participle/v2/lexer"
)

// BreakTag is the explicit line break marker.
const BreakTag = "<br>"

var (
	// Every '<' starts a token, so a tag can only begin at a token boundary.
	markupLexer = lexer.MustSimple([]lexer.SimpleRule{
		{Name: "Close", Pattern: `</[a-z]+>`},
		{Name: "Open", Pattern: `<[a-z]+>`},
		{Name: "Newline", Pattern: `\n`},
		{Name: "Text", Pattern: `[^<\n]+`},
		{Name: "Lt", Pattern: `<`},
	})

	openTokenType    = mustTokenType("Open")
	closeTokenType   = mustTokenType("Close")
	newlineTokenType = mustTokenType("Newline")
)

// Segment is a maximal run of text sharing one color.
type Segment struct {
	Text  string `json:"text"`
	Color Color  `json:"color"`
}

// Parse converts raw caption markup into colored segments, in reading order.
// Untagged text takes the palette's default color, as do tags whose name is
// not in the palette. Empty segments are dropped.
func Parse(raw string, p Palette) []Segment {
	text := strings.ReplaceAll(raw, BreakTag, "\n")
	if text == "" {
		return nil
	}
	def := p.fallback()

	tokens, err := tokenize(text)
	if err != nil {
		return []Segment{{Text: text, Color: def}}
	}

	var (
		segments []Segment
		plain    strings.Builder
	)
	flushPlain := func() {
		if plain.Len() == 0 {
			return
		}
		segments = append(segments, Segment{Text: plain.String(), Color: def})
		plain.Reset()
	}

	for i := 0; i < len(tokens); i++ {
		tok := tokens[i]
		if tok.Type == openTokenType {
			name := tagName(tok.Value)
			if end := findCloser(tokens, i+1, name); end >= 0 {
				flushPlain()
				if inner := joinTokens(tokens[i+1 : end]); inner != "" {
					segments = append(segments, Segment{Text: inner, Color: p.Lookup(name)})
				}
				i = end
				continue
			}
		}
		plain.WriteString(tok.Value)
	}
	flushPlain()
	return segments
}

// Plain returns the concatenated text of segments, markup removed.
func Plain(segments []Segment) string {
	var b strings.Builder
	for _, seg := range segments {
		b.WriteString(seg.Text)
	}
	return b.String()
}

// findCloser returns the index of the first `</name>` at or after start, or -1.
// A span never crosses a newline.
func findCloser(tokens []lexer.Token, start int, name string) int {
	for j := start; j < len(tokens); j++ {
		switch tokens[j].Type {
		case newlineTokenType:
			return -1
		case closeTokenType:
			if tagName(tokens[j].Value) == name {
				return j
			}
		}
	}
	return -1
}

func tokenize(text string) ([]lexer.Token, error) {
	lex, err := markupLexer.LexString("", text)
	if err != nil {
		return nil, err
	}
	all, err := lexer.ConsumeAll(lex)
	if err != nil {
		return nil, err
	}
	tokens := all[:0]
	for _, tok := range all {
		if tok.EOF() {
			continue
		}
		tokens = append(tokens, tok)
	}
	return tokens, nil
}

func joinTokens(tokens []lexer.Token) string {
	var b strings.Builder
	for _, tok := range tokens {
		b.WriteString(tok.Value)
	}
	return b.String()
}

// tagName strips the angle brackets and slash from `<name>` or `</name>`.
func tagName(tag string) string {
	tag = strings.TrimPrefix(tag, "<")
	tag = strings.TrimPrefix(tag, "/")
	return strings.TrimSuffix(tag, ">")
}

func mustTokenType(name string) lexer.TokenType {
	tt, ok := markupLexer.Symbols()[name]
	if !ok {
		panic(fmt.Sprintf("token %s not defined", name))
	}
	return tt
}
