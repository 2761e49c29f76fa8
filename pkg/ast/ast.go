// Package ast defines the types used to represent the Abstract Syntax Tree (AST)
package ast

import (
	"github.com/xplshn/gfe/pkg/token"
)

// Node is implemented by every tree element. Each node owns exactly one
// Location spanning the source text it was built from.
type Node interface {
	Location() token.Location
	String() string
}

// Statement is one of *EmptyStatement, *FunctionDeclaration or
// *ExpressionStatement.
type Statement interface {
	Node
	statementNode()
}

// Expression is the closed union of general, operating and primary
// expressions.
type Expression interface {
	Node
	expressionNode()
}

// Literal is the payload of a *LiteralExpression.
type Literal interface {
	Node
	literalNode()
}

// Range is embedded by every node struct.
type Range struct {
	Loc token.Location
}

func (r Range) Location() token.Location { return r.Loc }

type Program struct {
	Range
	Body []Statement
}

// --- Statements ---

type EmptyStatement struct{ Range }

type Parameter struct {
	Range
	Type *Identifier
	Name *Identifier
}

type FunctionDeclaration struct {
	Range
	Attributes []string
	Name       *Identifier
	Params     []*Parameter
	ReturnType *Identifier // nil when omitted
	Body       *DoExpression
}

type ExpressionStatement struct {
	Range
	Expression Expression
}

func (*EmptyStatement) statementNode()      {}
func (*FunctionDeclaration) statementNode() {}
func (*ExpressionStatement) statementNode() {}

// --- General expressions ---

// DoExpression is a block. IsExplicit is set for the 'do { ... }' spelling.
type DoExpression struct {
	Range
	IsExplicit bool
	Body       []Expression
}

// LetExpression binds Value to Object. IsMatch selects 'let x match v' over
// 'let x = v'.
type LetExpression struct {
	Range
	IsMatch bool
	Object  Expression
	Value   Expression
}

// ForExpression is 'for let x = v {...}', or 'for let x in v {...}' when
// IsIn is set.
type ForExpression struct {
	Range
	IsIn   bool
	Object Expression
	Value  Expression
	Body   *DoExpression
}

type BranchCase struct {
	Range
	Condition Expression
	Body      Expression
}

type BranchExpression struct {
	Range
	Scrutinee Expression // optional
	Cases     []*BranchCase
	Default   Expression // optional
}

type QualifierKind int

const (
	QualifierWhere QualifierKind = iota
	QualifierOnly
	QualifierIn
	QualifierRegular
	QualifierTemplate
	QualifierInto
	QualifierAs
)

var qualifierKeywords = [...]token.Type{
	QualifierWhere:    token.Where,
	QualifierOnly:     token.Only,
	QualifierIn:       token.In,
	QualifierRegular:  token.Regular,
	QualifierTemplate: token.Template,
	QualifierInto:     token.Into,
	QualifierAs:       token.As,
}

// QualifierFor returns the qualifier introduced by keyword t.
func QualifierFor(t token.Type) (QualifierKind, bool) {
	for k, kw := range qualifierKeywords {
		if kw == t {
			return QualifierKind(k), true
		}
	}
	return 0, false
}

// Keyword returns the keyword token type that introduces the qualifier.
func (k QualifierKind) Keyword() token.Type { return qualifierKeywords[k] }

func (k QualifierKind) String() string { return k.Keyword().Spelling() }

type Qualifier struct {
	Range
	Kind  QualifierKind
	Value Expression
}

type MatchCase struct {
	Range
	Pattern    Expression
	Qualifiers []*Qualifier
	Body       Expression
}

type MatchExpression struct {
	Range
	Scrutinee Expression // optional
	Cases     []*MatchCase
	Default   Expression // optional
}

type IfExpression struct {
	Range
	Condition  Expression
	Consequent Expression
	Alternate  Expression // optional
}

// --- Operating expressions ---

type BinaryExpression struct {
	Range
	Operator token.Token
	Left     Expression
	Right    Expression
}

// UnaryExpression is a prefix '-', or a postfix '^' or '?'.
type UnaryExpression struct {
	Range
	Operator token.Token
	Operand  Expression
}

// IsPostfix reports whether the operator follows its operand.
func (u *UnaryExpression) IsPostfix() bool { return u.Operator.Type != token.Minus }

type CallExpression struct {
	Range
	Callee    Expression
	Arguments []Expression
}

// MemberExpression is 'obj.prop', or 'obj[prop]' when IsComputed is set.
type MemberExpression struct {
	Range
	Object     Expression
	Property   Expression
	IsComputed bool
}

type SliceExpression struct {
	Range
	Object   Expression
	Interval *IntervalExpression
}

type ConstructorExpression struct {
	Range
	Type   *Identifier
	Fields *MapExpression
}

// --- Primary expressions ---

// Identifier is a name, optionally qualified by '::' separated Path segments.
type Identifier struct {
	Range
	Path []string
	Name string
}

// PrefixIdentifier is '!name'.
type PrefixIdentifier struct {
	Range
	Identifier *Identifier
}

type EllipsisExpression struct {
	Range
	Name *Identifier // optional
}

type IntervalExpression struct {
	Range
	Start       Expression
	End         Expression // optional
	IsInclusive bool
}

type TupleExpression struct {
	Range
	Elements []Expression
}

type ListExpression struct {
	Range
	Elements []Expression
}

// MapEntry is 'key: value', or the shorthand 'key' when Value is nil.
type MapEntry struct {
	Range
	Key   Expression
	Value Expression
}

type MapExpression struct {
	Range
	Entries []*MapEntry
}

type LiteralExpression struct {
	Range
	Literal Literal
}

func (*DoExpression) expressionNode()          {}
func (*LetExpression) expressionNode()         {}
func (*ForExpression) expressionNode()         {}
func (*BranchExpression) expressionNode()      {}
func (*MatchExpression) expressionNode()       {}
func (*IfExpression) expressionNode()          {}
func (*BinaryExpression) expressionNode()      {}
func (*UnaryExpression) expressionNode()       {}
func (*CallExpression) expressionNode()        {}
func (*MemberExpression) expressionNode()      {}
func (*SliceExpression) expressionNode()       {}
func (*ConstructorExpression) expressionNode() {}
func (*Identifier) expressionNode()            {}
func (*PrefixIdentifier) expressionNode()      {}
func (*EllipsisExpression) expressionNode()    {}
func (*IntervalExpression) expressionNode()    {}
func (*TupleExpression) expressionNode()       {}
func (*ListExpression) expressionNode()        {}
func (*MapExpression) expressionNode()         {}
func (*LiteralExpression) expressionNode()     {}

// --- Literals ---

type IntegerLiteral struct {
	Range
	Value int64
}

type FloatLiteral struct {
	Range
	Value float64
}

type ComplexLiteral struct {
	Range
	Real      float64
	Imaginary float64
}

type BitLiteral struct {
	Range
	Width int
	Bytes []byte
}

type BooleanLiteral struct {
	Range
	Value bool
}

// CharLiteral, GeneralStringLiteral and TemplateStringLiteral keep the raw
// source text; escapes are not decoded.
type CharLiteral struct {
	Range
	Value string
}

type GeneralStringLiteral struct {
	Range
	Value string
}

// TemplateStringLiteral interleaves literal text with embedded expressions,
// starting with a fragment: F0 E0 F1 E1 ... Fn.
type TemplateStringLiteral struct {
	Range
	Fragments   []string
	Expressions []Expression
}

type HashStringLiteral struct {
	Range
	Name string
}

type NamedOperatorLiteral struct {
	Range
	Name string
}

func (*IntegerLiteral) literalNode()        {}
func (*FloatLiteral) literalNode()          {}
func (*ComplexLiteral) literalNode()        {}
func (*BitLiteral) literalNode()            {}
func (*BooleanLiteral) literalNode()        {}
func (*CharLiteral) literalNode()           {}
func (*GeneralStringLiteral) literalNode()  {}
func (*TemplateStringLiteral) literalNode() {}
func (*HashStringLiteral) literalNode()     {}
func (*NamedOperatorLiteral) literalNode()  {}

// --- Node Constructors ---

func NewIdentifier(loc token.Location, path []string, name string) *Identifier {
	return &Identifier{Range: Range{loc}, Path: path, Name: name}
}

func NewBinary(loc token.Location, op token.Token, left, right Expression) *BinaryExpression {
	return &BinaryExpression{Range: Range{loc}, Operator: op, Left: left, Right: right}
}

func NewUnary(loc token.Location, op token.Token, operand Expression) *UnaryExpression {
	return &UnaryExpression{Range: Range{loc}, Operator: op, Operand: operand}
}

// NewLiteral wraps lit in a LiteralExpression spanning the same text.
func NewLiteral(lit Literal) *LiteralExpression {
	return &LiteralExpression{Range: Range{lit.Location()}, Literal: lit}
}

// LiteralFromToken builds the literal node for a literal token. It reports
// false for token types that do not form an expression literal.
func LiteralFromToken(tok token.Token) (Literal, bool) {
	r := Range{tok.Location}
	switch tok.Type {
	case token.Integer:
		return &IntegerLiteral{Range: r, Value: tok.Int}, true
	case token.Float:
		return &FloatLiteral{Range: r, Value: tok.Float}, true
	case token.Imaginary:
		return &ComplexLiteral{Range: r, Imaginary: tok.Float}, true
	case token.Bit:
		lit := &BitLiteral{Range: r}
		if tok.Bits != nil {
			lit.Width, lit.Bytes = tok.Bits.Width, tok.Bits.Bytes
		}
		return lit, true
	case token.Boolean:
		return &BooleanLiteral{Range: r, Value: tok.Bool}, true
	case token.Char:
		return &CharLiteral{Range: r, Value: tok.Text}, true
	case token.GeneralString:
		return &GeneralStringLiteral{Range: r, Value: tok.Text}, true
	case token.HashString:
		return &HashStringLiteral{Range: r, Name: tok.Text}, true
	case token.NamedOperator:
		return &NamedOperatorLiteral{Range: r, Name: tok.Text}, true
	}
	return nil, false
}
