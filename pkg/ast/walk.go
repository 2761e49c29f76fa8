package ast

import "fmt"

// Walk visits node and its descendants in source order, parents before
// children. Children of a node are skipped when fn returns false.
func Walk(node Node, fn func(Node) bool) {
	if isNil(node) || !fn(node) {
		return
	}
	for _, child := range Children(node) {
		Walk(child, fn)
	}
}

// Children returns the direct children of node in source order. Absent
// optional children are omitted.
func Children(node Node) []Node {
	var out []Node
	add := func(nodes ...Node) {
		for _, n := range nodes {
			if !isNil(n) {
				out = append(out, n)
			}
		}
	}
	switch n := node.(type) {
	case *Program:
		for _, stmt := range n.Body {
			add(stmt)
		}
	case *FunctionDeclaration:
		add(n.Name)
		for _, param := range n.Params {
			add(param)
		}
		add(n.ReturnType, n.Body)
	case *Parameter:
		add(n.Type, n.Name)
	case *ExpressionStatement:
		add(n.Expression)
	case *DoExpression:
		for _, e := range n.Body {
			add(e)
		}
	case *LetExpression:
		add(n.Object, n.Value)
	case *ForExpression:
		add(n.Object, n.Value, n.Body)
	case *BranchExpression:
		add(n.Scrutinee)
		for _, c := range n.Cases {
			add(c)
		}
		add(n.Default)
	case *BranchCase:
		add(n.Condition, n.Body)
	case *MatchExpression:
		add(n.Scrutinee)
		for _, c := range n.Cases {
			add(c)
		}
		add(n.Default)
	case *MatchCase:
		add(n.Pattern)
		for _, q := range n.Qualifiers {
			add(q)
		}
		add(n.Body)
	case *Qualifier:
		add(n.Value)
	case *IfExpression:
		add(n.Condition, n.Consequent, n.Alternate)
	case *BinaryExpression:
		add(n.Left, n.Right)
	case *UnaryExpression:
		add(n.Operand)
	case *CallExpression:
		add(n.Callee)
		for _, arg := range n.Arguments {
			add(arg)
		}
	case *MemberExpression:
		add(n.Object, n.Property)
	case *SliceExpression:
		add(n.Object, n.Interval)
	case *ConstructorExpression:
		add(n.Type, n.Fields)
	case *PrefixIdentifier:
		add(n.Identifier)
	case *EllipsisExpression:
		add(n.Name)
	case *IntervalExpression:
		add(n.Start, n.End)
	case *TupleExpression:
		for _, e := range n.Elements {
			add(e)
		}
	case *ListExpression:
		for _, e := range n.Elements {
			add(e)
		}
	case *MapExpression:
		for _, e := range n.Entries {
			add(e)
		}
	case *MapEntry:
		add(n.Key, n.Value)
	case *LiteralExpression:
		add(n.Literal)
	case *TemplateStringLiteral:
		for _, e := range n.Expressions {
			add(e)
		}
	case *EmptyStatement, *Identifier, *IntegerLiteral, *FloatLiteral, *ComplexLiteral, *BitLiteral,
		*BooleanLiteral, *CharLiteral, *GeneralStringLiteral, *HashStringLiteral, *NamedOperatorLiteral:
	default:
		panic(fmt.Sprintf("ast: unexpected node %T", node))
	}
	return out
}
