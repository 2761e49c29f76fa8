package ast

import (
	"strconv"
	"strings"

	"github.com/samber/lo"
	"github.com/xplshn/gfe/pkg/token"
)

// Binding strengths of the operator ladder, weakest first. Levels above
// combine belong to unary and postfix forms and are used for rendering.
const (
	precNone = iota
	precPipe
	precOr
	precAnd
	precEquality
	precRelational
	precForward
	precNamed
	precConcat
	precAdditive
	precMultiplicative
	precUnwrapOr
	precCombine
	precPrefix
	precPostfix
	precPrimary
)

// Precedence returns the binding strength of binary operator t, or 0 when t
// is not a binary operator. Higher binds tighter.
func Precedence(t token.Type) int {
	switch t {
	case token.Pipe:
		return precPipe
	case token.Or:
		return precOr
	case token.And:
		return precAnd
	case token.Equal, token.NotEqual:
		return precEquality
	case token.Greater, token.GreaterEqual, token.Less, token.LessEqual:
		return precRelational
	case token.Forward:
		return precForward
	case token.NamedOperator:
		return precNamed
	case token.Concat:
		return precConcat
	case token.Plus, token.Minus:
		return precAdditive
	case token.Star, token.Slash:
		return precMultiplicative
	case token.UnwrapOr:
		return precUnwrapOr
	case token.Combine:
		return precCombine
	}
	return precNone
}

// RightAssociative reports whether a chain of t groups to the right.
func RightAssociative(t token.Type) bool { return t == token.Combine }

func bindingPower(e Expression) int {
	switch e := e.(type) {
	case *BinaryExpression:
		return Precedence(e.Operator.Type)
	case *UnaryExpression:
		if e.IsPostfix() {
			return precPostfix
		}
		return precPrefix
	case *IntervalExpression:
		return precNone
	case *DoExpression, *LetExpression, *ForExpression, *BranchExpression, *MatchExpression, *IfExpression:
		return -1
	}
	return precPrimary
}

// operand renders e, parenthesized when it binds looser than min.
func operand(e Expression, min int) string {
	if bindingPower(e) < min {
		return "(" + e.String() + ")"
	}
	return e.String()
}

func joinExprs(exprs []Expression, sep string) string {
	return strings.Join(lo.Map(exprs, func(e Expression, _ int) string { return e.String() }), sep)
}

func (p *Program) String() string {
	var sb strings.Builder
	for _, stmt := range p.Body {
		sb.WriteString(stmt.String())
		sb.WriteByte('\n')
	}
	return sb.String()
}

func (*EmptyStatement) String() string { return "" }

func (p *Parameter) String() string { return p.Type.String() + " " + p.Name.String() }

func (f *FunctionDeclaration) String() string {
	var sb strings.Builder
	for _, attr := range f.Attributes {
		sb.WriteString("@" + attr + " ")
	}
	sb.WriteString("function " + f.Name.String() + "(")
	for i, param := range f.Params {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(param.String())
	}
	sb.WriteString(")")
	if f.ReturnType != nil {
		sb.WriteString(": " + f.ReturnType.String())
	}
	sb.WriteString(" " + f.Body.String())
	return sb.String()
}

func (s *ExpressionStatement) String() string { return s.Expression.String() }

func (d *DoExpression) String() string {
	prefix := ""
	if d.IsExplicit {
		prefix = "do "
	}
	if len(d.Body) == 0 {
		return prefix + "{}"
	}
	return prefix + "{ " + joinExprs(d.Body, "; ") + " }"
}

func (l *LetExpression) String() string {
	binder := " = "
	if l.IsMatch {
		binder = " match "
	}
	return "let " + l.Object.String() + binder + l.Value.String()
}

func (f *ForExpression) String() string {
	binder := " = "
	if f.IsIn {
		binder = " in "
	}
	return "for let " + f.Object.String() + binder + f.Value.String() + " " + f.Body.String()
}

func (c *BranchCase) String() string { return c.Condition.String() + " => " + c.Body.String() }

func (b *BranchExpression) String() string {
	var cases []string
	for _, c := range b.Cases {
		cases = append(cases, c.String())
	}
	return renderCases("branch", b.Scrutinee, cases, b.Default)
}

func (q *Qualifier) String() string { return q.Kind.String() + " " + q.Value.String() }

func (c *MatchCase) String() string {
	var sb strings.Builder
	sb.WriteString(c.Pattern.String())
	for _, q := range c.Qualifiers {
		sb.WriteString(" " + q.String())
	}
	sb.WriteString(" => " + c.Body.String())
	return sb.String()
}

func (m *MatchExpression) String() string {
	var cases []string
	for _, c := range m.Cases {
		cases = append(cases, c.String())
	}
	return renderCases("match", m.Scrutinee, cases, m.Default)
}

func renderCases(keyword string, scrutinee Expression, cases []string, def Expression) string {
	var sb strings.Builder
	sb.WriteString(keyword + " ")
	if scrutinee != nil {
		sb.WriteString(scrutinee.String() + " ")
	}
	if def != nil {
		cases = append(cases, "else => "+def.String())
	}
	if len(cases) == 0 {
		sb.WriteString("{}")
		return sb.String()
	}
	sb.WriteString("{ " + strings.Join(cases, "; ") + " }")
	return sb.String()
}

func (i *IfExpression) String() string {
	consequent := i.Consequent.String()
	// An inner if without else would otherwise claim our else.
	if inner, ok := i.Consequent.(*IfExpression); ok && inner.Alternate == nil && i.Alternate != nil {
		consequent = "(" + consequent + ")"
	}
	s := "if " + i.Condition.String() + " then " + consequent
	if i.Alternate != nil {
		s += " else " + i.Alternate.String()
	}
	return s
}

func (b *BinaryExpression) String() string {
	prec := Precedence(b.Operator.Type)
	left, right := prec, prec+1
	if RightAssociative(b.Operator.Type) {
		left, right = prec+1, prec
	}
	return operand(b.Left, left) + " " + b.Operator.Source() + " " + operand(b.Right, right)
}

func (u *UnaryExpression) String() string {
	if u.IsPostfix() {
		return operand(u.Operand, precPostfix) + u.Operator.Source()
	}
	return u.Operator.Source() + operand(u.Operand, precPrefix)
}

func (c *CallExpression) String() string {
	return operand(c.Callee, precPrimary) + "(" + joinExprs(c.Arguments, ", ") + ")"
}

func (m *MemberExpression) String() string {
	if m.IsComputed {
		return operand(m.Object, precPrimary) + "[" + m.Property.String() + "]"
	}
	return operand(m.Object, precPrimary) + "." + m.Property.String()
}

func (s *SliceExpression) String() string {
	return operand(s.Object, precPrimary) + "[" + s.Interval.String() + "]"
}

func (c *ConstructorExpression) String() string { return c.Type.String() + " " + c.Fields.String() }

func (i *Identifier) String() string {
	if len(i.Path) == 0 {
		return i.Name
	}
	return strings.Join(i.Path, "::") + "::" + i.Name
}

func (p *PrefixIdentifier) String() string { return "!" + p.Identifier.String() }

func (e *EllipsisExpression) String() string {
	if e.Name == nil {
		return "..."
	}
	return "..." + e.Name.String()
}

func (i *IntervalExpression) String() string {
	op := ".."
	if i.IsInclusive {
		op = "..="
	}
	s := operand(i.Start, precPipe) + op
	if i.End != nil {
		s += operand(i.End, precPipe)
	}
	return s
}

func (t *TupleExpression) String() string {
	if len(t.Elements) == 1 {
		return "(" + t.Elements[0].String() + ",)"
	}
	return "(" + joinExprs(t.Elements, ", ") + ")"
}

func (l *ListExpression) String() string { return "[" + joinExprs(l.Elements, ", ") + "]" }

func (e *MapEntry) String() string {
	if e.Value == nil {
		return e.Key.String()
	}
	return e.Key.String() + ": " + e.Value.String()
}

func (m *MapExpression) String() string {
	entries := lo.Map(m.Entries, func(e *MapEntry, _ int) string { return e.String() })
	return "{" + strings.Join(entries, ", ") + "}"
}

func (l *LiteralExpression) String() string { return l.Literal.String() }

func (l *IntegerLiteral) String() string { return strconv.FormatInt(l.Value, 10) }

func (l *FloatLiteral) String() string { return token.FormatFloat(l.Value) }

func (l *ComplexLiteral) String() string {
	imaginary := token.FormatFloat(l.Imaginary) + "i"
	if l.Real == 0 {
		return imaginary
	}
	return "(" + token.FormatFloat(l.Real) + " + " + imaginary + ")"
}

func (l *BitLiteral) String() string {
	return token.FormatBits(token.Bits{Width: l.Width, Bytes: l.Bytes})
}

func (l *BooleanLiteral) String() string { return strconv.FormatBool(l.Value) }

func (l *CharLiteral) String() string { return "'" + l.Value + "'" }

func (l *GeneralStringLiteral) String() string { return `"` + l.Value + `"` }

func (l *TemplateStringLiteral) String() string {
	var sb strings.Builder
	sb.WriteByte('`')
	for i, frag := range l.Fragments {
		sb.WriteString(frag)
		if i < len(l.Expressions) {
			sb.WriteString("{" + l.Expressions[i].String() + "}")
		}
	}
	sb.WriteByte('`')
	return sb.String()
}

func (l *HashStringLiteral) String() string { return "#" + l.Name }

func (l *NamedOperatorLiteral) String() string { return ":" + l.Name + ":" }
