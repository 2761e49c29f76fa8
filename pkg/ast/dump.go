package ast

import (
	"fmt"
	"strconv"
	"strings"
)

// Dump renders node as an S-expression, e.g.
// (binary + (int 1) (binary * (int 2) (int 3))).
func Dump(node Node) string {
	var sb strings.Builder
	dump(&sb, node)
	return sb.String()
}

type dumper struct{ sb *strings.Builder }

func (d dumper) open(head string) { d.sb.WriteString("(" + head) }

func (d dumper) close() { d.sb.WriteByte(')') }

func (d dumper) atom(s string) { d.sb.WriteString(" " + s) }

func (d dumper) child(n Node) {
	d.sb.WriteByte(' ')
	if isNil(n) {
		d.sb.WriteByte('_')
		return
	}
	dump(d.sb, n)
}

// isNil catches both a nil interface and a typed nil pointer stored in one.
func isNil(n Node) bool {
	switch n := n.(type) {
	case nil:
		return true
	case *Identifier:
		return n == nil
	case *DoExpression:
		return n == nil
	}
	return false
}

func dump(sb *strings.Builder, node Node) {
	d := dumper{sb}
	switch n := node.(type) {
	case *Program:
		d.open("program")
		for _, stmt := range n.Body {
			d.child(stmt)
		}
	case *EmptyStatement:
		d.open("empty")
	case *FunctionDeclaration:
		d.open("function")
		for _, attr := range n.Attributes {
			d.atom("@" + attr)
		}
		d.child(n.Name)
		sb.WriteString(" (")
		for i, param := range n.Params {
			if i > 0 {
				sb.WriteByte(' ')
			}
			dump(sb, param)
		}
		sb.WriteByte(')')
		d.child(n.ReturnType)
		d.child(n.Body)
	case *Parameter:
		d.open("param")
		d.child(n.Type)
		d.child(n.Name)
	case *ExpressionStatement:
		dump(sb, n.Expression)
		return
	case *DoExpression:
		if n.IsExplicit {
			d.open("do")
		} else {
			d.open("block")
		}
		for _, e := range n.Body {
			d.child(e)
		}
	case *LetExpression:
		if n.IsMatch {
			d.open("let-match")
		} else {
			d.open("let")
		}
		d.child(n.Object)
		d.child(n.Value)
	case *ForExpression:
		if n.IsIn {
			d.open("for-in")
		} else {
			d.open("for")
		}
		d.child(n.Object)
		d.child(n.Value)
		d.child(n.Body)
	case *BranchExpression:
		d.open("branch")
		d.child(n.Scrutinee)
		for _, c := range n.Cases {
			d.child(c)
		}
		dumpDefault(d, n.Default)
	case *BranchCase:
		d.open("case")
		d.child(n.Condition)
		d.child(n.Body)
	case *MatchExpression:
		d.open("match")
		d.child(n.Scrutinee)
		for _, c := range n.Cases {
			d.child(c)
		}
		dumpDefault(d, n.Default)
	case *MatchCase:
		d.open("case")
		d.child(n.Pattern)
		for _, q := range n.Qualifiers {
			d.child(q)
		}
		d.child(n.Body)
	case *Qualifier:
		d.open(n.Kind.String())
		d.child(n.Value)
	case *IfExpression:
		d.open("if")
		d.child(n.Condition)
		d.child(n.Consequent)
		if n.Alternate != nil {
			d.child(n.Alternate)
		}
	case *BinaryExpression:
		d.open("binary")
		d.atom(n.Operator.Source())
		d.child(n.Left)
		d.child(n.Right)
	case *UnaryExpression:
		d.open("unary")
		d.atom(n.Operator.Source())
		d.child(n.Operand)
	case *CallExpression:
		d.open("call")
		d.child(n.Callee)
		for _, arg := range n.Arguments {
			d.child(arg)
		}
	case *MemberExpression:
		if n.IsComputed {
			d.open("index")
		} else {
			d.open("member")
		}
		d.child(n.Object)
		d.child(n.Property)
	case *SliceExpression:
		d.open("slice")
		d.child(n.Object)
		d.child(n.Interval)
	case *ConstructorExpression:
		d.open("construct")
		d.child(n.Type)
		d.child(n.Fields)
	case *Identifier:
		d.open("ident")
		d.atom(n.String())
	case *PrefixIdentifier:
		d.open("prefix")
		d.child(n.Identifier)
	case *EllipsisExpression:
		d.open("ellipsis")
		if n.Name != nil {
			d.child(n.Name)
		}
	case *IntervalExpression:
		if n.IsInclusive {
			d.open("interval=")
		} else {
			d.open("interval")
		}
		d.child(n.Start)
		d.child(n.End)
	case *TupleExpression:
		d.open("tuple")
		for _, e := range n.Elements {
			d.child(e)
		}
	case *ListExpression:
		d.open("list")
		for _, e := range n.Elements {
			d.child(e)
		}
	case *MapExpression:
		d.open("map")
		for _, e := range n.Entries {
			d.child(e)
		}
	case *MapEntry:
		d.open("entry")
		d.child(n.Key)
		if n.Value != nil {
			d.child(n.Value)
		}
	case *LiteralExpression:
		dump(sb, n.Literal)
		return
	case *IntegerLiteral:
		d.open("int")
		d.atom(strconv.FormatInt(n.Value, 10))
	case *FloatLiteral:
		d.open("float")
		d.atom(strconv.FormatFloat(n.Value, 'g', -1, 64))
	case *ComplexLiteral:
		d.open("complex")
		d.atom(strconv.FormatFloat(n.Real, 'g', -1, 64))
		d.atom(strconv.FormatFloat(n.Imaginary, 'g', -1, 64))
	case *BitLiteral:
		d.open("bit")
		d.atom(n.String())
	case *BooleanLiteral:
		d.open("bool")
		d.atom(strconv.FormatBool(n.Value))
	case *CharLiteral:
		d.open("char")
		d.atom(strconv.Quote(n.Value))
	case *GeneralStringLiteral:
		d.open("string")
		d.atom(strconv.Quote(n.Value))
	case *TemplateStringLiteral:
		d.open("template")
		for i, frag := range n.Fragments {
			d.atom(strconv.Quote(frag))
			if i < len(n.Expressions) {
				d.child(n.Expressions[i])
			}
		}
	case *HashStringLiteral:
		d.open("hash")
		d.atom(n.Name)
	case *NamedOperatorLiteral:
		d.open("named-op")
		d.atom(n.Name)
	default:
		panic(fmt.Sprintf("ast: unexpected node %T", node))
	}
	d.close()
}

func dumpDefault(d dumper, def Expression) {
	if def == nil {
		return
	}
	d.sb.WriteString(" (else")
	d.child(def)
	d.close()
}
