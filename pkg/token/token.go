package token

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/samber/lo"
)

type Type int

const (
	Illegal Type = iota

	// Structural
	LBrace
	RBrace
	LBracket
	RBracket
	LParen
	RParen
	Comma
	Colon
	Separator
	Dot
	Interval
	InclusiveInterval
	Ellipsis
	Hash

	// Operators
	Assign
	Arrow
	Pipe
	Or
	And
	Equal
	NotEqual
	Not
	Greater
	GreaterEqual
	Less
	LessEqual
	Forward
	UnwrapOr
	Combine
	Cast
	Unwrap
	Concat
	Plus
	Minus
	Star
	Slash
	NamedOperator

	// Literals
	Integer
	Float
	Imaginary
	Bit
	Boolean
	Char
	GeneralString
	TemplateString
	HashString
	Attribute

	NewLine
	Identifier

	// Keywords
	Let
	Match
	If
	Then
	Else
	For
	Next
	In
	Branch
	Each
	Mix
	Which
	Where
	Only
	Within
	Into
	Regular
	Template
	To
	Namespace
	Use
	Function
	Const
	Enum
	Struct
	Union
	Trait
	Impl
	Alias
	Do
	As

	typeCount
)

// KeywordMap holds every reserved word. true and false are not listed here
// because they lex to Boolean literals.
var KeywordMap = map[string]Type{
	"let":       Let,
	"match":     Match,
	"if":        If,
	"then":      Then,
	"else":      Else,
	"for":       For,
	"next":      Next,
	"in":        In,
	"branch":    Branch,
	"each":      Each,
	"mix":       Mix,
	"which":     Which,
	"where":     Where,
	"only":      Only,
	"within":    Within,
	"into":      Into,
	"regular":   Regular,
	"template":  Template,
	"to":        To,
	"namespace": Namespace,
	"use":       Use,
	"function":  Function,
	"const":     Const,
	"enum":      Enum,
	"struct":    Struct,
	"union":     Union,
	"trait":     Trait,
	"impl":      Impl,
	"alias":     Alias,
	"do":        Do,
	"as":        As,
}

// Reverse mapping from Type to the keyword string
var TypeStrings = lo.Invert(KeywordMap)

var punctuation = map[Type]string{
	LBrace:            "{",
	RBrace:            "}",
	LBracket:          "[",
	RBracket:          "]",
	LParen:            "(",
	RParen:            ")",
	Comma:             ",",
	Colon:             ":",
	Separator:         "::",
	Dot:               ".",
	Interval:          "..",
	InclusiveInterval: "..=",
	Ellipsis:          "...",
	Hash:              "#",
	Assign:            "=",
	Arrow:             "=>",
	Pipe:              "|",
	Or:                "||",
	And:               "&&",
	Equal:             "==",
	NotEqual:          "!=",
	Not:               "!",
	Greater:           ">",
	GreaterEqual:      ">=",
	Less:              "<",
	LessEqual:         "<=",
	Forward:           ">>",
	UnwrapOr:          "??",
	Combine:           "&",
	Cast:              "^",
	Unwrap:            "?",
	Concat:            "++",
	Plus:              "+",
	Minus:             "-",
	Star:              "*",
	Slash:             "/",
}

var names = [...]string{
	Illegal:           "Illegal",
	LBrace:            "LBrace",
	RBrace:            "RBrace",
	LBracket:          "LBracket",
	RBracket:          "RBracket",
	LParen:            "LParen",
	RParen:            "RParen",
	Comma:             "Comma",
	Colon:             "Colon",
	Separator:         "Separator",
	Dot:               "Dot",
	Interval:          "Interval",
	InclusiveInterval: "InclusiveInterval",
	Ellipsis:          "Ellipsis",
	Hash:              "Hash",
	Assign:            "Assign",
	Arrow:             "Arrow",
	Pipe:              "Pipe",
	Or:                "Or",
	And:               "And",
	Equal:             "Equal",
	NotEqual:          "NotEqual",
	Not:               "Not",
	Greater:           "Greater",
	GreaterEqual:      "GreaterEqual",
	Less:              "Less",
	LessEqual:         "LessEqual",
	Forward:           "Forward",
	UnwrapOr:          "UnwrapOr",
	Combine:           "Combine",
	Cast:              "Cast",
	Unwrap:            "Unwrap",
	Concat:            "Concat",
	Plus:              "Plus",
	Minus:             "Minus",
	Star:              "Star",
	Slash:             "Slash",
	NamedOperator:     "NamedOperator",
	Integer:           "Integer",
	Float:             "Float",
	Imaginary:         "Imaginary",
	Bit:               "Bit",
	Boolean:           "Boolean",
	Char:              "Char",
	GeneralString:     "GeneralString",
	TemplateString:    "TemplateString",
	HashString:        "HashString",
	Attribute:         "Attribute",
	NewLine:           "NewLine",
	Identifier:        "Identifier",
}

func (t Type) String() string {
	if kw, ok := TypeStrings[t]; ok {
		return strings.ToUpper(kw[:1]) + kw[1:]
	}
	if t >= 0 && int(t) < len(names) && names[t] != "" {
		return names[t]
	}
	return "Type(" + strconv.Itoa(int(t)) + ")"
}

// Spelling returns the source text of a fixed-spelling token type, or "" for
// types whose text varies (identifiers, literals, named operators).
func (t Type) Spelling() string {
	if s, ok := punctuation[t]; ok {
		return s
	}
	if kw, ok := TypeStrings[t]; ok {
		return kw
	}
	if t == NewLine {
		return "\n"
	}
	return ""
}

func (t Type) IsKeyword() bool { return t >= Let && t < typeCount }

func (t Type) IsLiteral() bool { return t >= Integer && t <= Attribute }

// MarshalText lets tokens be dumped as JSON with readable type names.
func (t Type) MarshalText() ([]byte, error) { return []byte(t.String()), nil }

// Lookup returns the keyword type for name, or Identifier.
func Lookup(name string) Type {
	if t, ok := KeywordMap[name]; ok {
		return t
	}
	return Identifier
}

// Bits is the payload of a bit-vector literal. Bytes are big-endian and hold
// exactly (Width+7)/8 bytes.
type Bits struct {
	Width int    `json:"width"`
	Bytes []byte `json:"bytes"`
}

func (b Bits) String() string {
	var sb strings.Builder
	for _, by := range b.Bytes {
		fmt.Fprintf(&sb, "%02x", by)
	}
	return fmt.Sprintf("%d'%s", b.Width, sb.String())
}

type Token struct {
	Type     Type     `json:"type"`
	Location Location `json:"location"`
	Text     string   `json:"text,omitempty"`
	Int      int64    `json:"int,omitempty"`
	Float    float64  `json:"float,omitempty"`
	Bits     *Bits    `json:"bits,omitempty"`
	Bool     bool     `json:"bool,omitempty"`
}

// Payload renders the value carried by the token, if any.
func (t Token) Payload() string {
	switch t.Type {
	case Identifier, HashString, Attribute, NamedOperator:
		return t.Text
	case Char, GeneralString, TemplateString:
		return strconv.Quote(t.Text)
	case Integer:
		return strconv.FormatInt(t.Int, 10)
	case Float, Imaginary:
		return strconv.FormatFloat(t.Float, 'g', -1, 64)
	case Bit:
		if t.Bits == nil {
			return ""
		}
		return t.Bits.String()
	case Boolean:
		return strconv.FormatBool(t.Bool)
	}
	return ""
}

func (t Token) String() string {
	if p := t.Payload(); p != "" {
		return fmt.Sprintf("%s(%s)@%s", t.Type, p, t.Location)
	}
	return fmt.Sprintf("%s@%s", t.Type, t.Location)
}

// Source renders the token back to text that lexes to the same token.
func (t Token) Source() string {
	switch t.Type {
	case Identifier:
		return t.Text
	case NamedOperator:
		return ":" + t.Text + ":"
	case HashString:
		return "#" + t.Text
	case Attribute:
		return "@" + t.Text
	case Char:
		return "'" + t.Text + "'"
	case GeneralString:
		return `"` + t.Text + `"`
	case TemplateString:
		return "`" + t.Text + "`"
	case Integer:
		return strconv.FormatInt(t.Int, 10)
	case Float:
		return FormatFloat(t.Float)
	case Imaginary:
		return FormatFloat(t.Float) + "i"
	case Bit:
		if t.Bits == nil {
			return "0x"
		}
		return FormatBits(*t.Bits)
	case Boolean:
		return strconv.FormatBool(t.Bool)
	}
	return t.Type.Spelling()
}

// FormatFloat renders f so that it lexes back as a Float, never as an Integer.
func FormatFloat(f float64) string {
	s := strconv.FormatFloat(f, 'f', -1, 64)
	if !strings.ContainsAny(s, ".eEnN") {
		s += ".0"
	}
	return s
}

// FormatBits renders a bit vector as a hex literal when its width is a
// multiple of four, and as a binary literal otherwise.
func FormatBits(b Bits) string {
	var sb strings.Builder
	if b.Width%4 == 0 {
		sb.WriteString("0x")
		for i := 0; i < b.Width/4; i++ {
			sb.WriteByte("0123456789abcdef"[nibble(b, i)])
		}
		return sb.String()
	}
	sb.WriteString("0b")
	pad := len(b.Bytes)*8 - b.Width
	for i := 0; i < b.Width; i++ {
		bit := pad + i
		if b.Bytes[bit/8]&(0x80>>(bit%8)) != 0 {
			sb.WriteByte('1')
		} else {
			sb.WriteByte('0')
		}
	}
	return sb.String()
}

// nibble returns the i-th hex digit (from the most significant end) of b.
func nibble(b Bits, i int) byte {
	pad := len(b.Bytes)*2 - b.Width/4
	n := pad + i
	by := b.Bytes[n/2]
	if n%2 == 0 {
		return by >> 4
	}
	return by & 0x0f
}
