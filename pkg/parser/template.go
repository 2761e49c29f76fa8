package parser

import (
	"github.com/xplshn/gfe/pkg/ast"
	"github.com/xplshn/gfe/pkg/config"
	"github.com/xplshn/gfe/pkg/lexer"
	"github.com/xplshn/gfe/pkg/token"
)

// parseTemplate splits the raw text of a template string into literal
// fragments and '{expr}' embeds. '\{' is kept as literal text.
func (p *Parser) parseTemplate(tok token.Token) (ast.Expression, error) {
	lit := &ast.TemplateStringLiteral{Range: ast.Range{Loc: tok.Location}}
	if !p.cfg.IsFeatureEnabled(config.FeatTemplateEmbeds) {
		lit.Fragments = []string{tok.Text}
		return ast.NewLiteral(lit), nil
	}

	text := []rune(tok.Text)
	var frag []rune
	for i := 0; i < len(text); i++ {
		switch text[i] {
		case '\\':
			frag = append(frag, text[i])
			if i+1 < len(text) {
				i++
				frag = append(frag, text[i])
			}
		case '{':
			end, err := embedEnd(tok, text, i)
			if err != nil {
				return nil, err
			}
			expr, err := p.parseEmbedded(tok, text[i+1:end], i+1)
			if err != nil {
				return nil, err
			}
			lit.Fragments = append(lit.Fragments, string(frag))
			lit.Expressions = append(lit.Expressions, expr)
			frag = frag[:0]
			i = end
		default:
			frag = append(frag, text[i])
		}
	}
	lit.Fragments = append(lit.Fragments, string(frag))
	return ast.NewLiteral(lit), nil
}

// textOffset converts an index into the raw text of tok to a file offset.
func textOffset(tok token.Token, i int) int { return tok.Location.Start + 1 + i }

// embedEnd returns the index of the '}' matching the '{' at open. Braces
// inside char and string literals of the embed do not count.
func embedEnd(tok token.Token, text []rune, open int) (int, error) {
	depth := 0
	for j := open; j < len(text); j++ {
		switch text[j] {
		case '\\':
			j++
		case '"', '\'':
			j = quoteEnd(text, j)
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return j, nil
			}
		}
	}
	at := textOffset(tok, open)
	return 0, &Error{
		Reason: ErrExpectedToken,
		Detail: "'}' to close template embed",
		Loc:    token.NewLocation(tok.Location.FileID, at, at+1),
	}
}

// quoteEnd returns the index of the quote closing the literal opened at
// start, or len(text) when it is unterminated.
func quoteEnd(text []rune, start int) int {
	for j := start + 1; j < len(text); j++ {
		switch text[j] {
		case '\\':
			j++
		case text[start]:
			return j
		}
	}
	return len(text)
}

// parseEmbedded parses the source of one embed as a single expression. Its
// tokens keep their offsets within the enclosing file.
func (p *Parser) parseEmbedded(tok token.Token, src []rune, offset int) (ast.Expression, error) {
	base := textOffset(tok, offset)
	tokens, err := lexer.TokenizeAt(src, tok.Location.FileID, base, p.cfg)
	if err != nil {
		return nil, err
	}

	sub := NewParser(tokens, p.cfg)
	sub.depth = p.depth
	sub.end = token.NewLocation(tok.Location.FileID, base+len(src), base+len(src))
	sub.current = sub.tokenAt(0)

	sub.skipNewLines()
	expr, err := sub.parseExpression()
	if err != nil {
		return nil, err
	}
	sub.skipNewLines()
	if !sub.isAtEnd() {
		return nil, sub.errorf(ErrUnexpectedToken, "%s in template embed", describe(sub.current))
	}
	return expr, nil
}
