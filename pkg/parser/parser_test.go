package parser_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/xplshn/gfe/pkg/ast"
	"github.com/xplshn/gfe/pkg/config"
	"github.com/xplshn/gfe/pkg/lexer"
	"github.com/xplshn/gfe/pkg/parser"
	"github.com/xplshn/gfe/pkg/token"
)

func parse(t *testing.T, src string, cfg *config.Config) *ast.Program {
	t.Helper()
	prog, err := parser.ParseSource([]rune(src), 0, cfg)
	if err != nil {
		t.Fatalf("ParseSource(%q): %v", src, err)
	}
	return prog
}

// dumpFirst parses src and dumps its first statement.
func dumpFirst(t *testing.T, src string) string {
	t.Helper()
	prog := parse(t, src, nil)
	if len(prog.Body) == 0 {
		t.Fatalf("ParseSource(%q): no statements", src)
	}
	return ast.Dump(prog.Body[0])
}

func parseError(t *testing.T, src string, cfg *config.Config) *parser.Error {
	t.Helper()
	prog, err := parser.ParseSource([]rune(src), 0, cfg)
	if err == nil {
		t.Fatalf("ParseSource(%q) = %s, want error", src, ast.Dump(prog))
	}
	var perr *parser.Error
	if !errors.As(err, &perr) {
		t.Fatalf("ParseSource(%q) error %v is not a *parser.Error", src, err)
	}
	return perr
}

type dumpTest struct {
	input string
	want  string
}

func runDumpTests(t *testing.T, tests []dumpTest) {
	t.Helper()
	for _, test := range tests {
		if diff := cmp.Diff(test.want, dumpFirst(t, test.input)); diff != "" {
			t.Errorf("Input: %q (-want, +got):\n%s", test.input, diff)
		}
	}
}

func TestOperatorLadder(t *testing.T) {
	runDumpTests(t, []dumpTest{
		{"1 + 2 * 3\n", "(binary + (int 1) (binary * (int 2) (int 3)))"},
		{"a & b & c\n", "(binary & (ident a) (binary & (ident b) (ident c)))"},
		{"1 - 2 - 3", "(binary - (binary - (int 1) (int 2)) (int 3))"},
		{"a | b || c", "(binary | (ident a) (binary || (ident b) (ident c)))"},
		{"a || b && c", "(binary || (ident a) (binary && (ident b) (ident c)))"},
		{"a == b < c", "(binary == (ident a) (binary < (ident b) (ident c)))"},
		{"a != b >= c", "(binary != (ident a) (binary >= (ident b) (ident c)))"},
		{"a < b >> c", "(binary < (ident a) (binary >> (ident b) (ident c)))"},
		{"a >> b :plus: c", "(binary >> (ident a) (binary :plus: (ident b) (ident c)))"},
		{"a :plus: b ++ c", "(binary :plus: (ident a) (binary ++ (ident b) (ident c)))"},
		{"a ++ b + c", "(binary ++ (ident a) (binary + (ident b) (ident c)))"},
		{"a + b / c", "(binary + (ident a) (binary / (ident b) (ident c)))"},
		{"a * b ?? c", "(binary * (ident a) (binary ?? (ident b) (ident c)))"},
		{"a ?? b & c", "(binary ?? (ident a) (binary & (ident b) (ident c)))"},
		{"(1 + 2) * 3", "(binary * (binary + (int 1) (int 2)) (int 3))"},
		{"a - -b", "(binary - (ident a) (unary - (ident b)))"},
		{"-a^", "(unary - (unary ^ (ident a)))"},
		{"a?^", "(unary ^ (unary ? (ident a)))"},
		{"(-a)?", "(unary ? (unary - (ident a)))"},
	})
}

func TestPostfixChains(t *testing.T) {
	runDumpTests(t, []dumpTest{
		{"f(1, x)", "(call (ident f) (int 1) (ident x))"},
		{"f()", "(call (ident f))"},
		{"f(x)(y)", "(call (call (ident f) (ident x)) (ident y))"},
		{"f(\n  1,\n  2,\n)", "(call (ident f) (int 1) (int 2))"},
		{"a.b.c", "(member (member (ident a) (ident b)) (ident c))"},
		{"t.0", "(member (ident t) (int 0))"},
		{"a[i]", "(index (ident a) (ident i))"},
		{"a[1..2]", "(slice (ident a) (interval (int 1) (int 2)))"},
		{"a[1..]", "(slice (ident a) (interval (int 1) _))"},
		{"std::io::print(s)", "(call (ident std::io::print) (ident s))"},
		{"Point {x: 1, y}", "(construct (ident Point) (map (entry (ident x) (int 1)) (entry (ident y))))"},
		{"xs[0].name(1)", "(call (member (index (ident xs) (int 0)) (ident name)) (int 1))"},
	})
}

func TestPrimaryExpressions(t *testing.T) {
	runDumpTests(t, []dumpTest{
		{"()", "(tuple)"},
		{"(1,)", "(tuple (int 1))"},
		{"(1, 2)", "(tuple (int 1) (int 2))"},
		{"((1))", "(int 1)"},
		{"[]", "(list)"},
		{"[1, [2]]", "(list (int 1) (list (int 2)))"},
		{"{a: 1, b}", "(map (entry (ident a) (int 1)) (entry (ident b)))"},
		{"f({a: 1})", "(call (ident f) (map (entry (ident a) (int 1))))"},
		{"!done", "(prefix (ident done))"},
		{"...", "(ellipsis)"},
		{"...rest", "(ellipsis (ident rest))"},
		{"1..=5", "(interval= (int 1) (int 5))"},
		{"#red", "(hash red)"},
		{":plus:", "(named-op plus)"},
		{"'c'", `(char "c")`},
		{`"s\"q"`, `(string "s\\\"q")`},
		{"0x1f", "(bit 0x1f)"},
		{"0b101", "(bit 0b101)"},
		{"2i", "(complex 0 2)"},
		{"1.5", "(float 1.5)"},
		{"true", "(bool true)"},
	})
}

func TestGeneralExpressions(t *testing.T) {
	runDumpTests(t, []dumpTest{
		{"let x = 1", "(let (ident x) (int 1))"},
		{"let (a, b) match pair", "(let-match (tuple (ident a) (ident b)) (ident pair))"},
		{"let p = Point {x: 1}", "(let (ident p) (construct (ident Point) (map (entry (ident x) (int 1)))))"},
		{"for let i in 0..10 { print(i) }", "(for-in (ident i) (interval (int 0) (int 10)) (block (call (ident print) (ident i))))"},
		{"for let x = xs { x }", "(for (ident x) (ident xs) (block (ident x)))"},
		{"for let i in 0.. do {}", "(for-in (ident i) (interval (int 0) _) (do))"},
		{"do { a; b }", "(do (ident a) (ident b))"},
		{"{\n  a\n\n  b\n}", "(block (ident a) (ident b))"},
		{"{}", "(block)"},
		{"if a then b else c", "(if (ident a) (ident b) (ident c))"},
		{"if a then b\n\nelse c", "(if (ident a) (ident b) (ident c))"},
		{"if a then b", "(if (ident a) (ident b))"},
		{"if a then if b then c else d", "(if (ident a) (if (ident b) (ident c) (ident d)))"},
		{
			"branch { a => 1, b => 2, else => 3 }",
			"(branch _ (case (ident a) (int 1)) (case (ident b) (int 2)) (else (int 3)))",
		},
		{
			"branch x {\n  1 => a\n  else => b\n}",
			"(branch (ident x) (case (int 1) (ident a)) (else (ident b)))",
		},
		{
			"match v { Point {x, y} where x > 0 => x; _ => 0 }",
			"(match (ident v) (case (construct (ident Point) (map (entry (ident x)) (entry (ident y)))) (where (binary > (ident x) (int 0))) (ident x)) (case (ident _) (int 0)))",
		},
		{
			"match { n in 1..5 as small => n }",
			"(match _ (case (ident n) (in (interval (int 1) (int 5))) (as (ident small)) (ident n)))",
		},
		{
			"match s { r only #text regular `a+` into parts template t => parts }",
			"(match (ident s) (case (ident r) (only (hash text)) (regular (template \"a+\")) (into (ident parts)) (template (ident t)) (ident parts)))",
		},
		{"match x {}", "(match (ident x))"},
	})
}

func TestFunctionDeclarations(t *testing.T) {
	runDumpTests(t, []dumpTest{
		{
			"function add(Int a, Int b): Int { a + b }\n",
			"(function (ident add) ((param (ident Int) (ident a)) (param (ident Int) (ident b))) (ident Int) (block (binary + (ident a) (ident b))))",
		},
		{"@inline\nfunction f() {}", "(function @inline (ident f) () _ (block))"},
		{"@a @b function g(std::Str s) do { s }", "(function @a @b (ident g) ((param (ident std::Str) (ident s))) _ (do (ident s)))"},
	})

	prog := parse(t, "function f() {}\nf()\n", nil)
	if len(prog.Body) != 2 {
		t.Fatalf("got %d statements, want 2: %s", len(prog.Body), ast.Dump(prog))
	}
	if _, ok := prog.Body[0].(*ast.FunctionDeclaration); !ok {
		t.Errorf("first statement is %T", prog.Body[0])
	}
}

func TestStatements(t *testing.T) {
	prog := parse(t, "a\n\nb; c", nil)
	want := "(program (ident a) (empty) (ident b) (ident c))"
	if diff := cmp.Diff(want, ast.Dump(prog)); diff != "" {
		t.Errorf("(-want, +got):\n%s", diff)
	}
	if prog := parse(t, "", nil); len(prog.Body) != 0 {
		t.Errorf("empty source produced %d statements", len(prog.Body))
	}
}

func TestTemplateStrings(t *testing.T) {
	runDumpTests(t, []dumpTest{
		{"`a {x} b {y + 1}`", `(template "a " (ident x) " b " (binary + (ident y) (int 1)) "")`},
		{"`{x}`", `(template "" (ident x) "")`},
		{"`plain`", `(template "plain")`},
		{"`\\{x}`", `(template "\\{x}")`},
		{"`{ {a: 1} }`", `(template "" (map (entry (ident a) (int 1))) "")`},
		{"`{f(\"}\")}`", `(template "" (call (ident f) (string "}")) "")`},
		{"`a{'{'}b`", `(template "a" (char "{") "b")`},
		{"`{\"\\\"}\"}`", `(template "" (string "\\\"}") "")`},
	})

	prog := parse(t, "`a {x} b {y}`", nil)
	lit := prog.Body[0].(*ast.ExpressionStatement).Expression.(*ast.LiteralExpression).Literal.(*ast.TemplateStringLiteral)
	if len(lit.Fragments) != len(lit.Expressions)+1 {
		t.Errorf("fragments = %d, expressions = %d", len(lit.Fragments), len(lit.Expressions))
	}
	if got, want := lit.Expressions[0].Location(), token.NewLocation(0, 4, 5); got != want {
		t.Errorf("embed location = %v, want %v", got, want)
	}

	cfg := config.NewConfig()
	cfg.SetFeature(config.FeatTemplateEmbeds, false)
	prog = parse(t, "`a {x}`", cfg)
	if diff := cmp.Diff(`(template "a {x}")`, ast.Dump(prog.Body[0])); diff != "" {
		t.Errorf("embeds disabled (-want, +got):\n%s", diff)
	}
}

func TestTemplateErrors(t *testing.T) {
	tests := []struct {
		input  string
		reason parser.Reason
		loc    token.Location
	}{
		{"`{x`", parser.ErrExpectedToken, token.NewLocation(0, 1, 2)},
		{"`{}`", parser.ErrExpectedExpression, token.NewLocation(0, 2, 2)},
		{"`{a b}`", parser.ErrUnexpectedToken, token.NewLocation(0, 4, 5)},
	}
	for _, test := range tests {
		err := parseError(t, test.input, nil)
		if err.Reason != test.reason || err.Loc != test.loc {
			t.Errorf("Input: %q got %q at %v, want %q at %v", test.input, err.Reason, err.Loc, test.reason, test.loc)
		}
	}

	_, err := parser.ParseSource([]rune("`{$}`"), 0, nil)
	var lerr *lexer.Error
	if !errors.As(err, &lerr) || lerr.Loc != token.NewLocation(0, 2, 3) {
		t.Errorf("embedded lexer error = %v", err)
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		input  string
		reason parser.Reason
		loc    token.Location
	}{
		{"1 2\n", parser.ErrExpectedStatementEnd, token.NewLocation(0, 2, 3)},
		{"1 +", parser.ErrExpectedExpression, token.NewLocation(0, 3, 3)},
		{"1 +\n2", parser.ErrExpectedExpression, token.NewLocation(0, 3, 4)},
		{"(1", parser.ErrExpectedToken, token.NewLocation(0, 2, 2)},
		{"(1 2)", parser.ErrExpectedToken, token.NewLocation(0, 3, 4)},
		{"[1 2]", parser.ErrExpectedToken, token.NewLocation(0, 3, 4)},
		{"enum Color", parser.ErrUnimplemented, token.NewLocation(0, 0, 4)},
		{"x + use", parser.ErrUnimplemented, token.NewLocation(0, 4, 7)},
		{"1 + let x = 1", parser.ErrUnexpectedToken, token.NewLocation(0, 4, 7)},
		{"then", parser.ErrExpectedPrimary, token.NewLocation(0, 0, 4)},
		{"#", parser.ErrExpectedPrimary, token.NewLocation(0, 0, 1)},
		{"f(@x)", parser.ErrExpectedLiteral, token.NewLocation(0, 2, 4)},
		{"@inline 1", parser.ErrExpectedToken, token.NewLocation(0, 8, 9)},
		{"function (", parser.ErrExpectedToken, token.NewLocation(0, 9, 10)},
		{"function f(Int) {}", parser.ErrExpectedToken, token.NewLocation(0, 14, 15)},
		{"let x 1", parser.ErrExpectedToken, token.NewLocation(0, 6, 7)},
		{"for x in y {}", parser.ErrExpectedToken, token.NewLocation(0, 4, 5)},
		{"for let x in y", parser.ErrExpectedToken, token.NewLocation(0, 14, 14)},
		{"if a b", parser.ErrExpectedToken, token.NewLocation(0, 5, 6)},
		{"branch { else => 1; a => 2 }", parser.ErrUnexpectedToken, token.NewLocation(0, 20, 21)},
		{"branch { a 1 }", parser.ErrExpectedToken, token.NewLocation(0, 11, 12)},
		{"branch { a => 1 b => 2 }", parser.ErrExpectedStatementEnd, token.NewLocation(0, 16, 17)},
		{"match x { a where => 1 }", parser.ErrExpectedExpression, token.NewLocation(0, 18, 20)},
		{"{ a b }", parser.ErrExpectedStatementEnd, token.NewLocation(0, 4, 5)},
		{"{ a", parser.ErrExpectedToken, token.NewLocation(0, 3, 3)},
		{"a.+", parser.ErrExpectedToken, token.NewLocation(0, 2, 3)},
		{"a::", parser.ErrExpectedToken, token.NewLocation(0, 3, 3)},
		{"!1", parser.ErrExpectedToken, token.NewLocation(0, 1, 2)},
	}
	for _, test := range tests {
		err := parseError(t, test.input, nil)
		if err.Reason != test.reason || err.Loc != test.loc {
			t.Errorf("Input: %q got %q (%s) at %v, want %q at %v", test.input, err.Reason, err.Detail, err.Loc, test.reason, test.loc)
		}
	}
}

func TestLexerErrorsPassThrough(t *testing.T) {
	_, err := parser.ParseSource([]rune("a\rb"), 0, nil)
	var lerr *lexer.Error
	if !errors.As(err, &lerr) || lerr.Reason != lexer.ErrLineEnding {
		t.Fatalf("ParseSource error = %v, want line ending error", err)
	}
}

func TestNestingLimit(t *testing.T) {
	cfg := config.NewConfig()
	cfg.MaxNestingDepth = 3

	for _, src := range []string{"((1))", "a & b & c", "--1", "{ { a } }", "T{a: 1}"} {
		if _, err := parser.ParseSource([]rune(src), 0, cfg); err != nil {
			t.Errorf("ParseSource(%q): %v", src, err)
		}
	}
	for _, src := range []string{"(((1)))", "a & b & c & d", "---1", "{ { { a } } }", "f([(1)])", "f{{{a}}}", "x + {{{a}}}"} {
		if err := parseError(t, src, cfg); err.Reason != parser.ErrNestingTooDeep {
			t.Errorf("Input: %q reason = %q, want %q", src, err.Reason, parser.ErrNestingTooDeep)
		}
	}

	for _, deep := range []string{
		strings.Repeat("(", 100000) + "1" + strings.Repeat(")", 100000),
		"f" + strings.Repeat("{", 300) + strings.Repeat("}", 300),
		"x + " + strings.Repeat("{", 5000) + "a" + strings.Repeat("}", 5000),
	} {
		if err := parseError(t, deep, nil); err.Reason != parser.ErrNestingTooDeep {
			t.Errorf("deep input %.10q... reason = %q", deep, err.Reason)
		}
	}
}

func TestLocations(t *testing.T) {
	prog := parse(t, "(1 + 2) * 3\nfoo(a, b)\n", nil)
	first := prog.Body[0].(*ast.ExpressionStatement)
	bin := first.Expression.(*ast.BinaryExpression)
	checks := []struct {
		name string
		got  token.Location
		want token.Location
	}{
		{"statement", first.Location(), token.NewLocation(0, 0, 11)},
		{"product", bin.Location(), token.NewLocation(0, 0, 11)},
		{"sum", bin.Left.Location(), token.NewLocation(0, 1, 6)},
		{"three", bin.Right.Location(), token.NewLocation(0, 10, 11)},
		{"call", prog.Body[1].Location(), token.NewLocation(0, 12, 21)},
		{"program", prog.Location(), token.NewLocation(0, 0, 22)},
	}
	for _, c := range checks {
		if c.got != c.want {
			t.Errorf("%s location = %v, want %v", c.name, c.got, c.want)
		}
	}
}

func TestRoundTrip(t *testing.T) {
	prog := parse(t, "123\n", nil)
	if got := prog.String(); got != "123\n" {
		t.Errorf("String() = %q, want %q", got, "123\n")
	}

	sources := []string{
		"1 + 2 * 3\n",
		"(1 + 2) * 3\n",
		"a & b & c\n",
		"(a & b) & c\n",
		"1 - (2 - 3)\n",
		"-(a + b)\n",
		"(-a)?\n",
		"f(x)[1..2].y\n",
		"a[i][0..=j]\n",
		"let p = Point {x: 1, y}\n",
		"for let i in 0..=9 { print(i) }\n",
		"branch x { 1 => a; else => b }\n",
		"match v { (a, b) where a > b => a; else => b }\n",
		"if a then (if b then c) else d\n",
		"`v={x + 1} \\{raw}`\n",
		"@inline function f(Int a): Int { a }\n",
		"\n",
		"[1, (2,), ()]\n",
		"{a: 1, b}\n",
		"x :mod: 2 ++ #tag ?? 'c'\n",
		"0x1f + 0b101 + 2.5i + 1.0\n",
		"...rest\n",
		"!flag | std::io::print\n",
		"(1..2)..3\n",
		"do { let x = 1; x }\n",
	}
	for _, src := range sources {
		first := parse(t, src, nil)
		rendered := first.String()
		second := parse(t, rendered, nil)
		if diff := cmp.Diff(ast.Dump(first), ast.Dump(second)); diff != "" {
			t.Errorf("Input: %q rendered as %q (-first, +second):\n%s", src, rendered, diff)
		}
		if again := second.String(); again != rendered {
			t.Errorf("Input: %q renders %q then %q", src, rendered, again)
		}
	}
}

func TestWalkSourceOrder(t *testing.T) {
	prog := parse(t, "a + f(b)\n", nil)
	var got []string
	ast.Walk(prog, func(n ast.Node) bool {
		if id, ok := n.(*ast.Identifier); ok {
			got = append(got, id.Name)
		}
		return true
	})
	if diff := cmp.Diff([]string{"a", "f", "b"}, got); diff != "" {
		t.Errorf("(-want, +got):\n%s", diff)
	}
}
