package parser

import (
	"fmt"
	"strings"

	"github.com/xplshn/gfe/pkg/ast"
	"github.com/xplshn/gfe/pkg/config"
	"github.com/xplshn/gfe/pkg/lexer"
	"github.com/xplshn/gfe/pkg/token"
)

// Parser holds the state for the parsing process
type Parser struct {
	tokens   []token.Token
	pos      int
	current  token.Token
	previous token.Token
	end      token.Location
	cfg      *config.Config
	depth    int
	// noConstructor is set while parsing a scrutinee or loop header, where
	// 'Name {' opens the following block rather than a constructor.
	noConstructor bool
}

// reserved holds keywords that have no syntax yet.
var reserved = map[token.Type]bool{
	token.Namespace: true, token.Use: true, token.Const: true, token.Enum: true,
	token.Struct: true, token.Union: true, token.Trait: true, token.Impl: true,
	token.Alias: true, token.Each: true, token.Mix: true, token.Which: true,
	token.Within: true, token.To: true, token.Next: true,
}

// NewParser creates and initializes a new Parser from a token stream
func NewParser(tokens []token.Token, cfg *config.Config) *Parser {
	if cfg == nil {
		cfg = config.NewConfig()
	}
	p := &Parser{tokens: tokens, cfg: cfg}
	if len(tokens) > 0 {
		p.end = tokens[len(tokens)-1].Location.Point()
	}
	p.current = p.tokenAt(0)
	return p
}

// Parse builds the program for a complete token stream.
func Parse(tokens []token.Token, cfg *config.Config) (*ast.Program, error) {
	return NewParser(tokens, cfg).ParseProgram()
}

// ParseSource tokenizes and parses source in one step.
func ParseSource(source []rune, fileID int, cfg *config.Config) (*ast.Program, error) {
	tokens, err := lexer.Tokenize(source, fileID, cfg)
	if err != nil {
		return nil, err
	}
	return Parse(tokens, cfg)
}

func (p *Parser) ParseProgram() (*ast.Program, error) {
	prog := &ast.Program{}
	for !p.isAtEnd() {
		stmt, err := p.parseStatement()
		if err != nil {
			return nil, err
		}
		prog.Body = append(prog.Body, stmt)
	}
	if len(p.tokens) > 0 {
		prog.Loc = p.tokens[0].Location.Merge(p.tokens[len(p.tokens)-1].Location)
	}
	return prog, nil
}

// Parser helpers

// tokenAt returns the token at index i. Past the end of the stream it
// returns an Illegal token located just after the last real token.
func (p *Parser) tokenAt(i int) token.Token {
	if i >= 0 && i < len(p.tokens) {
		return p.tokens[i]
	}
	return token.Token{Type: token.Illegal, Location: p.end}
}

func (p *Parser) isAtEnd() bool { return p.pos >= len(p.tokens) }

func (p *Parser) advance() token.Token {
	p.previous = p.current
	if p.pos < len(p.tokens) {
		p.pos++
	}
	p.current = p.tokenAt(p.pos)
	return p.previous
}

// reset moves the cursor back to pos.
func (p *Parser) reset(pos int) {
	p.pos = pos
	p.current = p.tokenAt(pos)
	p.previous = p.tokenAt(pos - 1)
}

func (p *Parser) check(tokType token.Type) bool {
	return !p.isAtEnd() && p.current.Type == tokType
}

func (p *Parser) match(tokType token.Type) bool {
	if !p.check(tokType) {
		return false
	}
	p.advance()
	return true
}

func (p *Parser) expect(tokType token.Type, context string) (token.Token, error) {
	if p.check(tokType) {
		return p.advance(), nil
	}
	want := expected(tokType)
	if context != "" {
		want += " " + context
	}
	return token.Token{}, p.errorf(ErrExpectedToken, "%s, found %s", want, describe(p.current))
}

func (p *Parser) skipNewLines() {
	for p.match(token.NewLine) {
	}
}

// span returns the location from start to the end of the last consumed token.
func (p *Parser) span(start token.Location) token.Location {
	return start.Merge(p.previous.Location)
}

func (p *Parser) errorf(reason Reason, format string, args ...any) *Error {
	return &Error{Reason: reason, Detail: fmt.Sprintf(format, args...), Loc: p.current.Location}
}

func (p *Parser) enter() error {
	p.depth++
	limit := p.cfg.MaxNestingDepth
	if limit <= 0 {
		limit = config.DefaultMaxNestingDepth
	}
	if p.depth > limit {
		return p.errorf(ErrNestingTooDeep, "more than %d levels", limit)
	}
	return nil
}

func (p *Parser) leave() { p.depth-- }

// restrictConstructors disables constructor parsing until the returned
// function is called.
func (p *Parser) restrictConstructors() func() { return p.setConstructors(false) }

// allowConstructors re-enables constructor parsing inside delimiters.
func (p *Parser) allowConstructors() func() { return p.setConstructors(true) }

func (p *Parser) setConstructors(allow bool) func() {
	saved := p.noConstructor
	p.noConstructor = !allow
	return func() { p.noConstructor = saved }
}

func expected(tokType token.Type) string {
	if s := tokType.Spelling(); s != "" && tokType != token.NewLine {
		return "'" + s + "'"
	}
	return strings.ToLower(tokType.String())
}

func describe(tok token.Token) string {
	switch tok.Type {
	case token.Illegal:
		return "end of input"
	case token.NewLine:
		return "newline"
	}
	return "'" + tok.Source() + "'"
}

// Statement Parsing

func (p *Parser) parseStatement() (ast.Statement, error) {
	start := p.current.Location
	switch p.current.Type {
	case token.NewLine:
		p.advance()
		return &ast.EmptyStatement{Range: ast.Range{Loc: start}}, nil
	case token.Attribute, token.Function:
		return p.parseFunctionDeclaration()
	}

	expr, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	loc := p.span(start)
	if !p.isAtEnd() && !p.match(token.NewLine) {
		return nil, p.errorf(ErrExpectedStatementEnd, "found %s", describe(p.current))
	}
	return &ast.ExpressionStatement{Range: ast.Range{Loc: loc}, Expression: expr}, nil
}

func (p *Parser) parseFunctionDeclaration() (ast.Statement, error) {
	start := p.current.Location
	decl := &ast.FunctionDeclaration{}
	for p.check(token.Attribute) {
		decl.Attributes = append(decl.Attributes, p.advance().Text)
		p.skipNewLines()
	}
	if _, err := p.expect(token.Function, "after attributes"); err != nil {
		return nil, err
	}

	name, err := p.expect(token.Identifier, "for function name")
	if err != nil {
		return nil, err
	}
	decl.Name = ast.NewIdentifier(name.Location, nil, name.Text)

	if _, err := p.expect(token.LParen, "after function name"); err != nil {
		return nil, err
	}
	for !p.check(token.RParen) {
		paramStart := p.current.Location
		typ, err := p.parseIdentifier()
		if err != nil {
			return nil, err
		}
		paramName, err := p.expect(token.Identifier, "for parameter name")
		if err != nil {
			return nil, err
		}
		decl.Params = append(decl.Params, &ast.Parameter{
			Range: ast.Range{Loc: p.span(paramStart)},
			Type:  typ,
			Name:  ast.NewIdentifier(paramName.Location, nil, paramName.Text),
		})
		if !p.match(token.Comma) {
			break
		}
	}
	if _, err := p.expect(token.RParen, "to close parameter list"); err != nil {
		return nil, err
	}

	if p.match(token.Colon) {
		if decl.ReturnType, err = p.parseIdentifier(); err != nil {
			return nil, err
		}
	}

	if decl.Body, err = p.parseBlock(); err != nil {
		return nil, err
	}
	decl.Loc = p.span(start)
	p.match(token.NewLine)
	return decl, nil
}

// Expression Parsing

func (p *Parser) parseExpression() (ast.Expression, error) {
	if err := p.enter(); err != nil {
		return nil, err
	}
	defer p.leave()

	switch p.current.Type {
	case token.Do:
		return p.parseBlockExpression()
	case token.LBrace:
		if !p.isMapStart() {
			return p.parseBlockExpression()
		}
	case token.Let:
		return p.parseLet()
	case token.For:
		return p.parseFor()
	case token.Branch:
		return p.parseBranch()
	case token.Match:
		return p.parseMatch()
	case token.If:
		return p.parseIf()
	}
	return p.parseInterval()
}

// isMapStart reports whether the '{' at the cursor opens a map literal
// ('{key: ...' or '{key, ...') rather than a block.
func (p *Parser) isMapStart() bool {
	i := p.pos + 1
	for p.tokenAt(i).Type == token.NewLine {
		i++
	}
	if p.tokenAt(i).Type == token.RBrace {
		return false
	}
	next := p.tokenAt(i + 1).Type
	return next == token.Colon || next == token.Comma
}

func (p *Parser) parseBlockExpression() (ast.Expression, error) {
	block, err := p.parseBlock()
	if err != nil {
		return nil, err
	}
	return block, nil
}

func (p *Parser) parseBlock() (*ast.DoExpression, error) {
	start := p.current.Location
	block := &ast.DoExpression{IsExplicit: p.match(token.Do)}
	if _, err := p.expect(token.LBrace, "to open block"); err != nil {
		return nil, err
	}
	defer p.allowConstructors()()

	p.skipNewLines()
	for !p.check(token.RBrace) {
		if p.isAtEnd() {
			_, err := p.expect(token.RBrace, "to close block")
			return nil, err
		}
		expr, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		block.Body = append(block.Body, expr)
		if !p.isAtEnd() && !p.check(token.RBrace) && !p.match(token.NewLine) {
			return nil, p.errorf(ErrExpectedStatementEnd, "found %s", describe(p.current))
		}
		p.skipNewLines()
	}
	p.advance()
	block.Loc = p.span(start)
	return block, nil
}

func (p *Parser) parseLet() (ast.Expression, error) {
	start := p.current.Location
	p.advance()
	target, err := p.parseInterval()
	if err != nil {
		return nil, err
	}
	let := &ast.LetExpression{Object: target}
	switch {
	case p.match(token.Assign):
	case p.match(token.Match):
		let.IsMatch = true
	default:
		return nil, p.errorf(ErrExpectedToken, "'=' or 'match' after let target, found %s", describe(p.current))
	}
	if let.Value, err = p.parseExpression(); err != nil {
		return nil, err
	}
	let.Loc = p.span(start)
	return let, nil
}

func (p *Parser) parseFor() (ast.Expression, error) {
	start := p.current.Location
	p.advance()
	if _, err := p.expect(token.Let, "after 'for'"); err != nil {
		return nil, err
	}
	target, err := p.parseInterval()
	if err != nil {
		return nil, err
	}
	loop := &ast.ForExpression{Object: target}
	switch {
	case p.match(token.Assign):
	case p.match(token.In):
		loop.IsIn = true
	default:
		return nil, p.errorf(ErrExpectedToken, "'=' or 'in' after loop target, found %s", describe(p.current))
	}

	restore := p.restrictConstructors()
	loop.Value, err = p.parseExpression()
	restore()
	if err != nil {
		return nil, err
	}
	if loop.Body, err = p.parseBlock(); err != nil {
		return nil, err
	}
	loop.Loc = p.span(start)
	return loop, nil
}

// parseScrutinee parses the optional subject of a branch or match, which
// ends where the case block's '{' begins.
func (p *Parser) parseScrutinee() (ast.Expression, error) {
	if p.check(token.LBrace) {
		return nil, nil
	}
	defer p.restrictConstructors()()
	return p.parseExpression()
}

// parseCases parses '{' cases [else => default] '}'. Cases are separated by
// newlines or commas; parseCase is called at the start of each one.
func (p *Parser) parseCases(kind string, parseCase func() error) (ast.Expression, error) {
	if _, err := p.expect(token.LBrace, "to open "+kind+" cases"); err != nil {
		return nil, err
	}
	defer p.allowConstructors()()

	var def ast.Expression
	p.skipCaseSeparators()
	for !p.check(token.RBrace) {
		switch {
		case p.isAtEnd():
			_, err := p.expect(token.RBrace, "to close "+kind+" cases")
			return nil, err
		case def != nil:
			return nil, p.errorf(ErrUnexpectedToken, "%s after else case", describe(p.current))
		case p.match(token.Else):
			if _, err := p.expect(token.Arrow, "after 'else'"); err != nil {
				return nil, err
			}
			var err error
			if def, err = p.parseExpression(); err != nil {
				return nil, err
			}
		default:
			if err := parseCase(); err != nil {
				return nil, err
			}
		}
		if !p.isAtEnd() && !p.check(token.RBrace) && !p.check(token.NewLine) && !p.check(token.Comma) {
			return nil, p.errorf(ErrExpectedStatementEnd, "found %s", describe(p.current))
		}
		p.skipCaseSeparators()
	}
	p.advance()
	return def, nil
}

func (p *Parser) skipCaseSeparators() {
	for p.match(token.NewLine) || p.match(token.Comma) {
	}
}

func (p *Parser) parseBranch() (ast.Expression, error) {
	start := p.current.Location
	p.advance()
	scrutinee, err := p.parseScrutinee()
	if err != nil {
		return nil, err
	}
	branch := &ast.BranchExpression{Scrutinee: scrutinee}
	branch.Default, err = p.parseCases("branch", func() error {
		caseStart := p.current.Location
		cond, err := p.parseExpression()
		if err != nil {
			return err
		}
		if _, err := p.expect(token.Arrow, "after branch condition"); err != nil {
			return err
		}
		body, err := p.parseExpression()
		if err != nil {
			return err
		}
		branch.Cases = append(branch.Cases, &ast.BranchCase{
			Range: ast.Range{Loc: p.span(caseStart)}, Condition: cond, Body: body,
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	branch.Loc = p.span(start)
	return branch, nil
}

func (p *Parser) parseMatch() (ast.Expression, error) {
	start := p.current.Location
	p.advance()
	scrutinee, err := p.parseScrutinee()
	if err != nil {
		return nil, err
	}
	match := &ast.MatchExpression{Scrutinee: scrutinee}
	match.Default, err = p.parseCases("match", func() error {
		caseStart := p.current.Location
		pattern, err := p.parseExpression()
		if err != nil {
			return err
		}
		c := &ast.MatchCase{Pattern: pattern}
		for !p.isAtEnd() {
			kind, ok := ast.QualifierFor(p.current.Type)
			if !ok {
				break
			}
			qualStart := p.current.Location
			p.advance()
			value, err := p.parseExpression()
			if err != nil {
				return err
			}
			c.Qualifiers = append(c.Qualifiers, &ast.Qualifier{
				Range: ast.Range{Loc: p.span(qualStart)}, Kind: kind, Value: value,
			})
		}
		if _, err := p.expect(token.Arrow, "after match pattern"); err != nil {
			return err
		}
		if c.Body, err = p.parseExpression(); err != nil {
			return err
		}
		c.Loc = p.span(caseStart)
		match.Cases = append(match.Cases, c)
		return nil
	})
	if err != nil {
		return nil, err
	}
	match.Loc = p.span(start)
	return match, nil
}

func (p *Parser) parseIf() (ast.Expression, error) {
	start := p.current.Location
	p.advance()
	cond, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.Then, "after if condition"); err != nil {
		return nil, err
	}
	consequent, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	expr := &ast.IfExpression{Condition: cond, Consequent: consequent}

	save := p.pos
	p.skipNewLines()
	if p.match(token.Else) {
		if expr.Alternate, err = p.parseExpression(); err != nil {
			return nil, err
		}
	} else {
		p.reset(save)
	}
	expr.Loc = p.span(start)
	return expr, nil
}

// parseInterval parses 'a', 'a..', 'a..b' and 'a..=b'.
func (p *Parser) parseInterval() (ast.Expression, error) {
	start := p.current.Location
	left, err := p.parseBinary(ast.Precedence(token.Pipe))
	if err != nil {
		return nil, err
	}
	if !p.check(token.Interval) && !p.check(token.InclusiveInterval) {
		return left, nil
	}
	interval := &ast.IntervalExpression{Start: left, IsInclusive: p.advance().Type == token.InclusiveInterval}
	if p.startsOperand() {
		if interval.End, err = p.parseBinary(ast.Precedence(token.Pipe)); err != nil {
			return nil, err
		}
	}
	interval.Loc = p.span(start)
	return interval, nil
}

// startsOperand reports whether the current token can begin an operand of
// the operator ladder.
func (p *Parser) startsOperand() bool {
	if p.isAtEnd() {
		return false
	}
	switch p.current.Type {
	case token.Identifier, token.LParen, token.LBracket, token.Minus, token.Not, token.Ellipsis, token.NamedOperator:
		return true
	case token.LBrace:
		return !p.noConstructor
	case token.Attribute:
		return false
	}
	return p.current.Type.IsLiteral()
}

// parseBinary climbs the operator ladder: operators binding at least as
// tightly as minPrec are folded into the result.
func (p *Parser) parseBinary(minPrec int) (ast.Expression, error) {
	start := p.current.Location
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for {
		op := p.current
		prec := ast.Precedence(op.Type)
		if prec == 0 || prec < minPrec {
			return left, nil
		}
		p.advance()

		var right ast.Expression
		if ast.RightAssociative(op.Type) {
			right, err = p.parseRightOperand(prec)
		} else {
			right, err = p.parseBinary(prec + 1)
		}
		if err != nil {
			return nil, err
		}
		left = ast.NewBinary(p.span(start), op, left, right)
	}
}

func (p *Parser) parseRightOperand(prec int) (ast.Expression, error) {
	if err := p.enter(); err != nil {
		return nil, err
	}
	defer p.leave()
	return p.parseBinary(prec)
}

func (p *Parser) parseUnary() (ast.Expression, error) {
	start := p.current.Location
	if p.check(token.Minus) {
		op := p.advance()
		if err := p.enter(); err != nil {
			return nil, err
		}
		defer p.leave()
		operand, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return ast.NewUnary(p.span(start), op, operand), nil
	}

	expr, err := p.parsePostfix()
	if err != nil {
		return nil, err
	}
	for p.check(token.Cast) || p.check(token.Unwrap) {
		op := p.advance()
		expr = ast.NewUnary(p.span(start), op, expr)
	}
	return expr, nil
}

// parsePostfix parses a primary expression followed by any chain of calls,
// member accesses, indexes, slices and constructor bodies.
func (p *Parser) parsePostfix() (ast.Expression, error) {
	start := p.current.Location
	expr, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}
	for {
		switch {
		case p.check(token.LParen):
			p.advance()
			args, err := p.parseList(token.RParen, "to close argument list")
			if err != nil {
				return nil, err
			}
			expr = &ast.CallExpression{Range: ast.Range{Loc: p.span(start)}, Callee: expr, Arguments: args}

		case p.check(token.Dot):
			p.advance()
			prop, err := p.parseProperty()
			if err != nil {
				return nil, err
			}
			expr = &ast.MemberExpression{Range: ast.Range{Loc: p.span(start)}, Object: expr, Property: prop}

		case p.check(token.LBracket):
			p.advance()
			restore := p.allowConstructors()
			index, err := p.parseInterval()
			restore()
			if err != nil {
				return nil, err
			}
			if _, err := p.expect(token.RBracket, "to close index"); err != nil {
				return nil, err
			}
			if interval, ok := index.(*ast.IntervalExpression); ok {
				expr = &ast.SliceExpression{Range: ast.Range{Loc: p.span(start)}, Object: expr, Interval: interval}
			} else {
				expr = &ast.MemberExpression{Range: ast.Range{Loc: p.span(start)}, Object: expr, Property: index, IsComputed: true}
			}

		case p.check(token.LBrace) && !p.noConstructor:
			typ, ok := expr.(*ast.Identifier)
			if !ok {
				return expr, nil
			}
			fields, err := p.parseMap()
			if err != nil {
				return nil, err
			}
			expr = &ast.ConstructorExpression{Range: ast.Range{Loc: p.span(start)}, Type: typ, Fields: fields}

		default:
			return expr, nil
		}
	}
}

func (p *Parser) parseProperty() (ast.Expression, error) {
	tok := p.current
	switch tok.Type {
	case token.Identifier:
		p.advance()
		return ast.NewIdentifier(tok.Location, nil, tok.Text), nil
	case token.Integer:
		p.advance()
		lit, _ := ast.LiteralFromToken(tok)
		return ast.NewLiteral(lit), nil
	}
	return nil, p.errorf(ErrExpectedToken, "identifier or index after '.', found %s", describe(tok))
}

// parseList parses comma separated expressions up to and including closing.
// Newlines between elements and a trailing comma are allowed.
func (p *Parser) parseList(closing token.Type, context string) ([]ast.Expression, error) {
	defer p.allowConstructors()()
	var elements []ast.Expression
	p.skipNewLines()
	for !p.check(closing) {
		expr, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		elements = append(elements, expr)
		p.skipNewLines()
		if !p.match(token.Comma) {
			break
		}
		p.skipNewLines()
	}
	if _, err := p.expect(closing, context); err != nil {
		return nil, err
	}
	return elements, nil
}

func (p *Parser) parsePrimary() (ast.Expression, error) {
	start := p.current.Location
	tok := p.current

	switch tok.Type {
	case token.Identifier:
		ident, err := p.parseIdentifier()
		if err != nil {
			return nil, err
		}
		return ident, nil

	case token.Not:
		p.advance()
		ident, err := p.parseIdentifier()
		if err != nil {
			return nil, err
		}
		return &ast.PrefixIdentifier{Range: ast.Range{Loc: p.span(start)}, Identifier: ident}, nil

	case token.Ellipsis:
		p.advance()
		ellipsis := &ast.EllipsisExpression{}
		if p.check(token.Identifier) {
			name, err := p.parseIdentifier()
			if err != nil {
				return nil, err
			}
			ellipsis.Name = name
		}
		ellipsis.Loc = p.span(start)
		return ellipsis, nil

	case token.LParen:
		return p.parseParenthesized()

	case token.LBracket:
		p.advance()
		elements, err := p.parseList(token.RBracket, "to close list")
		if err != nil {
			return nil, err
		}
		return &ast.ListExpression{Range: ast.Range{Loc: p.span(start)}, Elements: elements}, nil

	case token.LBrace:
		m, err := p.parseMap()
		if err != nil {
			return nil, err
		}
		return m, nil

	case token.TemplateString:
		p.advance()
		return p.parseTemplate(tok)

	case token.Illegal:
		return nil, p.errorf(ErrExpectedExpression, "found end of input")

	case token.Do, token.Let, token.For, token.Branch, token.Match, token.If:
		return nil, p.errorf(ErrUnexpectedToken, "'%s' expression must be parenthesized here", tok.Type.Spelling())

	case token.NewLine, token.RParen, token.RBracket, token.RBrace, token.Comma, token.Arrow:
		return nil, p.errorf(ErrExpectedExpression, "found %s", describe(tok))
	}

	if tok.Type.IsLiteral() || tok.Type == token.NamedOperator {
		lit, ok := ast.LiteralFromToken(tok)
		if !ok {
			return nil, p.errorf(ErrExpectedLiteral, "found %s", describe(tok))
		}
		p.advance()
		return ast.NewLiteral(lit), nil
	}
	if reserved[tok.Type] {
		return nil, p.errorf(ErrUnimplemented, "'%s' is reserved", tok.Type.Spelling())
	}
	return nil, p.errorf(ErrExpectedPrimary, "found %s", describe(tok))
}

// parseIdentifier parses a name with optional '::' separated path segments.
func (p *Parser) parseIdentifier() (*ast.Identifier, error) {
	start := p.current.Location
	tok, err := p.expect(token.Identifier, "")
	if err != nil {
		return nil, err
	}
	var path []string
	name := tok.Text
	for p.match(token.Separator) {
		next, err := p.expect(token.Identifier, "after '::'")
		if err != nil {
			return nil, err
		}
		path = append(path, name)
		name = next.Text
	}
	return ast.NewIdentifier(p.span(start), path, name), nil
}

// parseParenthesized parses '()', '(e)' and tuples. A grouped expression is
// returned as is; only its Location remembers it was ever parenthesized.
func (p *Parser) parseParenthesized() (ast.Expression, error) {
	start := p.current.Location
	p.advance()
	defer p.allowConstructors()()

	p.skipNewLines()
	if p.match(token.RParen) {
		return &ast.TupleExpression{Range: ast.Range{Loc: p.span(start)}}, nil
	}
	first, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	p.skipNewLines()
	if p.match(token.RParen) {
		return first, nil
	}
	if !p.check(token.Comma) {
		_, err := p.expect(token.RParen, "to close parenthesized expression")
		return nil, err
	}

	p.advance()
	rest, err := p.parseList(token.RParen, "to close tuple")
	if err != nil {
		return nil, err
	}
	elements := append([]ast.Expression{first}, rest...)
	return &ast.TupleExpression{Range: ast.Range{Loc: p.span(start)}, Elements: elements}, nil
}

// parseMap parses '{key: value, shorthand, ...}'. Keys are parsed below
// parseExpression, so the map itself counts as a nesting level.
func (p *Parser) parseMap() (*ast.MapExpression, error) {
	if err := p.enter(); err != nil {
		return nil, err
	}
	defer p.leave()
	start := p.current.Location
	if _, err := p.expect(token.LBrace, "to open map"); err != nil {
		return nil, err
	}
	defer p.allowConstructors()()

	m := &ast.MapExpression{}
	p.skipNewLines()
	for !p.check(token.RBrace) {
		entryStart := p.current.Location
		key, err := p.parseBinary(ast.Precedence(token.Pipe))
		if err != nil {
			return nil, err
		}
		entry := &ast.MapEntry{Key: key}
		if p.match(token.Colon) {
			if entry.Value, err = p.parseExpression(); err != nil {
				return nil, err
			}
		}
		entry.Loc = p.span(entryStart)
		m.Entries = append(m.Entries, entry)
		p.skipNewLines()
		if !p.match(token.Comma) {
			break
		}
		p.skipNewLines()
	}
	if _, err := p.expect(token.RBrace, "to close map"); err != nil {
		return nil, err
	}
	m.Loc = p.span(start)
	return m, nil
}
