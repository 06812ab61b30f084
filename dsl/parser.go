package dsl

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
)

var (
	dslLexer = lexer.MustSimple([]lexer.SimpleRule{
		{Name: "Whitespace", Pattern: `[ \t\r]+`},
		{Name: "Newline", Pattern: `\n+`},
		{Name: "BlockComment", Pattern: `/\*[^*]*\*+(?:[^/*][^*]*\*+)*/`},
		{Name: "LineComment", Pattern: `//[^\n]*`},
		{Name: "Color", Pattern: `#(?:[0-9A-Fa-f]{6}|[0-9A-Fa-f]{3})\b`},
		{Name: "HashComment", Pattern: `#[^\n]*`},
		{Name: "Number", Pattern: `-?(?:\d+\.\d+|\d+)(?:px|x|%)?`},
		{Name: "String", Pattern: `"(?:\\.|[^"])*"`},
		{Name: "Ident", Pattern: `[A-Za-z_][A-Za-z0-9_-]*`},
		{Name: "Symbol", Pattern: `[;:=,]`},
		{Name: "LBrace", Pattern: `{`},
		{Name: "RBrace", Pattern: `}`},
	})

	templateParser = participle.MustBuild[Template](
		participle.Lexer(dslLexer),
		participle.Elide("Whitespace", "LineComment", "BlockComment", "HashComment"),
	)
)

// Template is the root AST node of a caption template file.
type Template struct {
	Pos      lexer.Position `parser:"" json:"-"`
	Name     string         `parser:"Newline* 'caption' @Ident"`
	Version  string         `parser:"@Ident?"`
	Sections []*Section     `parser:"'{' Newline* ( @@ Newline* )* '}' Newline*"`
}

// Section is one top-level section of a template.
type Section struct {
	Canvas  *Block        `parser:"  'canvas' @@"`
	Palette *PaletteBlock `parser:"| 'palette' @@"`
	Font    *Block        `parser:"| 'font' @@"`
	Text    *TextBlock    `parser:"| @@"`
}

// Kind returns the human-readable section type.
func (s *Section) Kind() string {
	switch {
	case s == nil:
		return "unknown"
	case s.Canvas != nil:
		return "canvas"
	case s.Palette != nil:
		return "palette"
	case s.Font != nil:
		return "font"
	case s.Text != nil:
		return s.Text.Kind
	default:
		return "unknown"
	}
}

// Block is a delimited list of `key: value` assignments.
type Block struct {
	Assignments []*Assignment `parser:"'{' Newline* ( @@ ( ';' | Newline )* )* '}'"`
}

// Get returns the last assignment for key, or nil.
func (b *Block) Get(key string) *Assignment {
	if b == nil {
		return nil
	}
	var found *Assignment
	for _, a := range b.Assignments {
		if a.Key == key {
			found = a
		}
	}
	return found
}

// Assignment uses colon syntax (key: value).
type Assignment struct {
	Pos   lexer.Position `parser:"" json:"-"`
	Key   string         `parser:"@Ident ':'"`
	Value *Value         `parser:"@@"`
}

// Value is a property value: a string, a color, one or more numbers or a bare word.
type Value struct {
	String  *StringLiteral `parser:"  @String"`
	Color   *string        `parser:"| @Color"`
	Numbers []string       `parser:"| @Number+"`
	Ident   *string        `parser:"| @Ident"`
}

// Text returns the value as text: strings unquoted, everything else raw.
func (v *Value) Text() string {
	switch {
	case v == nil:
		return ""
	case v.String != nil:
		return string(*v.String)
	case v.Color != nil:
		return *v.Color
	case v.Ident != nil:
		return *v.Ident
	default:
		return strings.Join(v.Numbers, " ")
	}
}

// PaletteBlock declares named colors (`red = #ff0000`).
type PaletteBlock struct {
	Entries []*ColorEntry `parser:"'{' Newline* ( @@ ( ';' | Newline )* )* '}'"`
}

// ColorEntry is a single palette declaration.
type ColorEntry struct {
	Pos   lexer.Position `parser:"" json:"-"`
	Name  string         `parser:"@Ident '='"`
	Value string         `parser:"@Color"`
}

// TextBlock holds the markup of the upper or bottom caption.
// Each string literal is one line; the literals are joined with newlines.
type TextBlock struct {
	Pos    lexer.Position `parser:"" json:"-"`
	Kind   string         `parser:"@( 'upper' | 'bottom' )"`
	Anchor *Anchor        `parser:"@@?"`
	Align  string         `parser:"( 'align' @( 'top' | 'bottom' ) )?"`
	Lines  []*TextLine    `parser:"'{' Newline* ( @@ ( ';' | Newline )* )* '}'"`
}

// Anchor positions a text block: `top 60` or `bottom 220` in preview pixels.
type Anchor struct {
	Edge   string `parser:"@( 'top' | 'bottom' )"`
	Offset string `parser:"@Number"`
}

// TextLine is a single string literal inside a text block.
type TextLine struct {
	Value StringLiteral `parser:"@String"`
}

// StringLiteral unquotes Go-style strings on capture.
type StringLiteral string

// Capture implements participle.Capture.
func (s *StringLiteral) Capture(values []string) error {
	if len(values) == 0 {
		return fmt.Errorf("string literal capture requires value")
	}
	val, err := strconv.Unquote(values[0])
	if err != nil {
		return err
	}
	*s = StringLiteral(val)
	return nil
}

// Parse parses template content from an io.Reader.
func Parse(r io.Reader) (*Template, error) {
	return templateParser.Parse("", r)
}

// ParseString parses template content from a string.
func ParseString(input string) (*Template, error) {
	return templateParser.ParseString("", input)
}

// ParseNumber splits a number token into its value and unit suffix ("px", "x", "%" or "").
func ParseNumber(raw string) (float64, string, error) {
	unit := ""
	for _, suffix := range []string{"px", "x", "%"} {
		if strings.HasSuffix(raw, suffix) {
			unit = suffix
			raw = strings.TrimSuffix(raw, suffix)
			break
		}
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, "", fmt.Errorf("invalid number %q: %w", raw, err)
	}
	return f, unit, nil
}
