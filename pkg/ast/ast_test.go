package ast_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/xplshn/gfe/pkg/ast"
	"github.com/xplshn/gfe/pkg/token"
)

func ident(name string) *ast.Identifier { return ast.NewIdentifier(token.Location{}, nil, name) }

func integer(v int64) ast.Expression { return ast.NewLiteral(&ast.IntegerLiteral{Value: v}) }

func op(t token.Type) token.Token { return token.Token{Type: t} }

func binary(t token.Type, l, r ast.Expression) ast.Expression {
	return ast.NewBinary(token.Location{}, op(t), l, r)
}

func TestRenderParenthesizesByPrecedence(t *testing.T) {
	tests := []struct {
		name string
		expr ast.Expression
		want string
	}{
		{
			name: "tighter right operand",
			expr: binary(token.Plus, integer(1), binary(token.Star, integer(2), integer(3))),
			want: "1 + 2 * 3",
		},
		{
			name: "looser left operand",
			expr: binary(token.Star, binary(token.Plus, integer(1), integer(2)), integer(3)),
			want: "(1 + 2) * 3",
		},
		{
			name: "left associative right operand",
			expr: binary(token.Minus, integer(1), binary(token.Minus, integer(2), integer(3))),
			want: "1 - (2 - 3)",
		},
		{
			name: "right associative combine",
			expr: binary(token.Combine, ident("a"), binary(token.Combine, ident("b"), ident("c"))),
			want: "a & b & c",
		},
		{
			name: "combine grouped left",
			expr: binary(token.Combine, binary(token.Combine, ident("a"), ident("b")), ident("c")),
			want: "(a & b) & c",
		},
		{
			name: "named operator",
			expr: ast.NewBinary(token.Location{}, token.Token{Type: token.NamedOperator, Text: "mod"}, ident("a"), ident("b")),
			want: "a :mod: b",
		},
		{
			name: "prefix over binary",
			expr: ast.NewUnary(token.Location{}, op(token.Minus), binary(token.Plus, ident("a"), ident("b"))),
			want: "-(a + b)",
		},
		{
			name: "postfix over prefix",
			expr: ast.NewUnary(token.Location{}, op(token.Unwrap), ast.NewUnary(token.Location{}, op(token.Minus), ident("a"))),
			want: "(-a)?",
		},
		{
			name: "general expression as operand",
			expr: binary(token.Plus, integer(1), &ast.IfExpression{Condition: ident("c"), Consequent: integer(2), Alternate: integer(3)}),
			want: "1 + (if c then 2 else 3)",
		},
		{
			name: "dangling else",
			expr: &ast.IfExpression{
				Condition:  ident("a"),
				Consequent: &ast.IfExpression{Condition: ident("b"), Consequent: ident("c")},
				Alternate:  ident("d"),
			},
			want: "if a then (if b then c) else d",
		},
		{
			name: "call on binary",
			expr: &ast.CallExpression{Callee: binary(token.Pipe, ident("f"), ident("g")), Arguments: []ast.Expression{integer(1)}},
			want: "(f | g)(1)",
		},
		{
			name: "one element tuple",
			expr: &ast.TupleExpression{Elements: []ast.Expression{integer(1)}},
			want: "(1,)",
		},
		{
			name: "map with shorthand",
			expr: &ast.MapExpression{Entries: []*ast.MapEntry{{Key: ident("a"), Value: integer(1)}, {Key: ident("b")}}},
			want: "{a: 1, b}",
		},
		{
			name: "qualified identifier",
			expr: ast.NewIdentifier(token.Location{}, []string{"std", "io"}, "print"),
			want: "std::io::print",
		},
		{
			name: "template",
			expr: ast.NewLiteral(&ast.TemplateStringLiteral{Fragments: []string{"a", "b"}, Expressions: []ast.Expression{ident("x")}}),
			want: "`a{x}b`",
		},
		{
			name: "open interval",
			expr: &ast.IntervalExpression{Start: integer(1), IsInclusive: true},
			want: "1..=",
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			if diff := cmp.Diff(test.want, test.expr.String()); diff != "" {
				t.Errorf("(-want, +got):\n%s", diff)
			}
		})
	}
}

func TestRenderLiterals(t *testing.T) {
	tests := []struct {
		lit  ast.Literal
		want string
	}{
		{&ast.IntegerLiteral{Value: 42}, "42"},
		{&ast.FloatLiteral{Value: 3}, "3.0"},
		{&ast.FloatLiteral{Value: 0.25}, "0.25"},
		{&ast.ComplexLiteral{Imaginary: 2}, "2.0i"},
		{&ast.ComplexLiteral{Real: 1, Imaginary: 2}, "(1.0 + 2.0i)"},
		{&ast.BitLiteral{Width: 8, Bytes: []byte{0x1f}}, "0x1f"},
		{&ast.BitLiteral{Width: 3, Bytes: []byte{0x05}}, "0b101"},
		{&ast.BooleanLiteral{Value: true}, "true"},
		{&ast.CharLiteral{Value: `\n`}, `'\n'`},
		{&ast.GeneralStringLiteral{Value: `a\"b`}, `"a\"b"`},
		{&ast.HashStringLiteral{Name: "red"}, "#red"},
		{&ast.NamedOperatorLiteral{Name: "mod"}, ":mod:"},
	}
	for _, test := range tests {
		if got := test.lit.String(); got != test.want {
			t.Errorf("%T: got %q, want %q", test.lit, got, test.want)
		}
	}
}

func TestProgramString(t *testing.T) {
	prog := &ast.Program{Body: []ast.Statement{
		&ast.ExpressionStatement{Expression: integer(123)},
		&ast.EmptyStatement{},
		&ast.FunctionDeclaration{
			Attributes: []string{"inline"},
			Name:       ident("f"),
			Params:     []*ast.Parameter{{Type: ident("Int"), Name: ident("a")}},
			ReturnType: ident("Int"),
			Body:       &ast.DoExpression{Body: []ast.Expression{ident("a")}},
		},
	}}
	want := "123\n\n@inline function f(Int a): Int { a }\n"
	if diff := cmp.Diff(want, prog.String()); diff != "" {
		t.Errorf("(-want, +got):\n%s", diff)
	}
}

func TestDump(t *testing.T) {
	tests := []struct {
		name string
		node ast.Node
		want string
	}{
		{
			name: "binary",
			node: binary(token.Plus, integer(1), binary(token.Star, integer(2), integer(3))),
			want: "(binary + (int 1) (binary * (int 2) (int 3)))",
		},
		{
			name: "branch without scrutinee",
			node: &ast.BranchExpression{
				Cases:   []*ast.BranchCase{{Condition: ident("a"), Body: integer(1)}},
				Default: integer(2),
			},
			want: "(branch _ (case (ident a) (int 1)) (else (int 2)))",
		},
		{
			name: "match qualifiers",
			node: &ast.MatchExpression{
				Scrutinee: ident("v"),
				Cases: []*ast.MatchCase{{
					Pattern:    ident("x"),
					Qualifiers: []*ast.Qualifier{{Kind: ast.QualifierWhere, Value: ident("ok")}},
					Body:       ident("x"),
				}},
			},
			want: "(match (ident v) (case (ident x) (where (ident ok)) (ident x)))",
		},
		{
			name: "function without return type",
			node: &ast.FunctionDeclaration{Name: ident("f"), Body: &ast.DoExpression{IsExplicit: true}},
			want: "(function (ident f) () _ (do))",
		},
		{
			name: "let match",
			node: &ast.LetExpression{IsMatch: true, Object: ident("p"), Value: ident("v")},
			want: "(let-match (ident p) (ident v))",
		},
		{
			name: "template",
			node: &ast.TemplateStringLiteral{Fragments: []string{"a", ""}, Expressions: []ast.Expression{ident("x")}},
			want: `(template "a" (ident x) "")`,
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			if diff := cmp.Diff(test.want, ast.Dump(test.node)); diff != "" {
				t.Errorf("(-want, +got):\n%s", diff)
			}
		})
	}
}

func TestWalk(t *testing.T) {
	tree := &ast.ForExpression{
		IsIn:   true,
		Object: ident("i"),
		Value:  &ast.IntervalExpression{Start: integer(0), End: ident("n")},
		Body: &ast.DoExpression{Body: []ast.Expression{
			&ast.CallExpression{Callee: ident("print"), Arguments: []ast.Expression{ident("i")}},
		}},
	}
	var got []string
	ast.Walk(tree, func(n ast.Node) bool {
		switch n := n.(type) {
		case *ast.Identifier:
			got = append(got, n.Name)
		case *ast.IntegerLiteral:
			got = append(got, n.String())
		}
		return true
	})
	if diff := cmp.Diff([]string{"i", "0", "n", "print", "i"}, got); diff != "" {
		t.Errorf("visit order (-want, +got):\n%s", diff)
	}

	var visited int
	ast.Walk(tree, func(n ast.Node) bool {
		visited++
		_, isBlock := n.(*ast.DoExpression)
		return !isBlock
	})
	// for, i, interval, literal expression, 0, n, block
	if visited != 7 {
		t.Errorf("visited %d nodes with the block pruned, want 7", visited)
	}
}

func TestChildrenOmitsAbsentNodes(t *testing.T) {
	e := &ast.EllipsisExpression{}
	if n := len(ast.Children(e)); n != 0 {
		t.Errorf("Children(...) = %d nodes, want 0", n)
	}
	i := &ast.IfExpression{Condition: ident("a"), Consequent: ident("b")}
	if n := len(ast.Children(i)); n != 2 {
		t.Errorf("Children(if) = %d nodes, want 2", n)
	}
}

func TestQualifierFor(t *testing.T) {
	for _, kw := range []token.Type{token.Where, token.Only, token.In, token.Regular, token.Template, token.Into, token.As} {
		kind, ok := ast.QualifierFor(kw)
		if !ok {
			t.Errorf("QualifierFor(%v) not found", kw)
			continue
		}
		if kind.Keyword() != kw || kind.String() != kw.Spelling() {
			t.Errorf("QualifierFor(%v) = %v", kw, kind)
		}
	}
	if _, ok := ast.QualifierFor(token.Then); ok {
		t.Error("QualifierFor(Then) succeeded")
	}
}
