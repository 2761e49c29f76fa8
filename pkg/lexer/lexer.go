package lexer

import (
	"fmt"
	"strconv"

	"github.com/xplshn/gfe/pkg/config"
	"github.com/xplshn/gfe/pkg/token"
)

type Lexer struct {
	source []rune
	fileID int
	base   int
	pos    int
	cfg    *config.Config
}

func NewLexer(source []rune, fileID int, cfg *config.Config) *Lexer {
	if cfg == nil {
		cfg = config.NewConfig()
	}
	return &Lexer{source: source, fileID: fileID, cfg: cfg}
}

// Tokenize scans the whole source and returns its tokens in source order.
func Tokenize(source []rune, fileID int, cfg *config.Config) ([]token.Token, error) {
	return TokenizeAt(source, fileID, 0, cfg)
}

// TokenizeAt scans source as if it started at offset base of file fileID.
// It is used to tokenize text embedded inside another literal.
func TokenizeAt(source []rune, fileID, base int, cfg *config.Config) ([]token.Token, error) {
	l := NewLexer(source, fileID, cfg)
	l.base = base
	var tokens []token.Token
	for {
		tok, ok, err := l.Next()
		if err != nil {
			return nil, err
		}
		if !ok {
			return tokens, nil
		}
		tokens = append(tokens, tok)
	}
}

// Next returns the next token. ok is false once the input is exhausted.
func (l *Lexer) Next() (token.Token, bool, error) {
	for {
		l.skipWhitespace()
		if l.isAtEnd() {
			return token.Token{}, false, nil
		}
		startPos := l.pos
		ch := l.peek()

		if isIdentStart(ch) {
			tok, err := l.identifierOrKeyword(startPos)
			return tok, err == nil, err
		}
		if isDigit(ch) {
			tok, err := l.numberLiteral(startPos)
			return tok, err == nil, err
		}

		l.advance()
		switch ch {
		case '\n', ';':
			return l.makeToken(token.NewLine, startPos), true, nil
		case '\r':
			if l.match('\n') {
				return l.makeToken(token.NewLine, startPos), true, nil
			}
			return token.Token{}, false, l.errorf(ErrLineEnding, startPos, "'\\r' must be followed by '\\n'")
		case '/':
			if l.peek() == '/' {
				l.lineComment()
				continue
			}
			return l.makeToken(token.Slash, startPos), true, nil
		case '(':
			return l.makeToken(token.LParen, startPos), true, nil
		case ')':
			return l.makeToken(token.RParen, startPos), true, nil
		case '{':
			return l.makeToken(token.LBrace, startPos), true, nil
		case '}':
			return l.makeToken(token.RBrace, startPos), true, nil
		case '[':
			return l.makeToken(token.LBracket, startPos), true, nil
		case ']':
			return l.makeToken(token.RBracket, startPos), true, nil
		case ',':
			return l.makeToken(token.Comma, startPos), true, nil
		case '-':
			return l.makeToken(token.Minus, startPos), true, nil
		case '*':
			return l.makeToken(token.Star, startPos), true, nil
		case '^':
			return l.makeToken(token.Cast, startPos), true, nil
		case '+':
			return l.matchThen('+', token.Concat, token.Plus, startPos), true, nil
		case '?':
			return l.matchThen('?', token.UnwrapOr, token.Unwrap, startPos), true, nil
		case '|':
			return l.matchThen('|', token.Or, token.Pipe, startPos), true, nil
		case '&':
			return l.matchThen('&', token.And, token.Combine, startPos), true, nil
		case '!':
			return l.matchThen('=', token.NotEqual, token.Not, startPos), true, nil
		case '<':
			return l.matchThen('=', token.LessEqual, token.Less, startPos), true, nil
		case '>':
			return l.greater(startPos), true, nil
		case '=':
			return l.equal(startPos), true, nil
		case '.':
			return l.dot(startPos), true, nil
		case ':':
			return l.colon(startPos), true, nil
		case '#':
			if isIdentStart(l.peek()) {
				return l.word(token.HashString, startPos, startPos+1), true, nil
			}
			return l.makeToken(token.Hash, startPos), true, nil
		case '@':
			if l.cfg.IsFeatureEnabled(config.FeatAttributes) && isIdentStart(l.peek()) {
				return l.word(token.Attribute, startPos, startPos+1), true, nil
			}
		case '\'':
			tok, err := l.quoted('\'', token.Char, ErrUnterminatedChar, startPos)
			return tok, err == nil, err
		case '"':
			tok, err := l.quoted('"', token.GeneralString, ErrUnterminatedString, startPos)
			return tok, err == nil, err
		case '`':
			tok, err := l.quoted('`', token.TemplateString, ErrUnterminatedTemplate, startPos)
			return tok, err == nil, err
		}

		return token.Token{}, false, l.errorf(ErrUnexpectedCharacter, startPos, "%q", ch)
	}
}

func (l *Lexer) peek() rune { return l.peekAt(0) }

func (l *Lexer) peekNext() rune { return l.peekAt(1) }

func (l *Lexer) peekAt(n int) rune {
	if l.pos+n >= len(l.source) {
		return 0
	}
	return l.source[l.pos+n]
}

func (l *Lexer) advance() rune {
	if l.isAtEnd() {
		return 0
	}
	ch := l.source[l.pos]
	l.pos++
	return ch
}

func (l *Lexer) match(expected rune) bool {
	if l.isAtEnd() || l.source[l.pos] != expected {
		return false
	}
	l.pos++
	return true
}

func (l *Lexer) isAtEnd() bool { return l.pos >= len(l.source) }

func (l *Lexer) location(startPos int) token.Location {
	return token.NewLocation(l.fileID, l.base+startPos, l.base+l.pos)
}

func (l *Lexer) makeToken(tokType token.Type, startPos int) token.Token {
	return token.Token{Type: tokType, Location: l.location(startPos)}
}

func (l *Lexer) errorf(reason Reason, startPos int, format string, args ...any) *Error {
	return &Error{Reason: reason, Detail: fmt.Sprintf(format, args...), Loc: l.location(startPos)}
}

func (l *Lexer) skipWhitespace() {
	for l.peek() == ' ' || l.peek() == '\t' {
		l.advance()
	}
}

// lineComment consumes a '//' comment up to, but not including, the newline.
func (l *Lexer) lineComment() {
	for !l.isAtEnd() && l.peek() != '\n' {
		l.advance()
	}
}

func (l *Lexer) matchThen(expected rune, thenType, elseType token.Type, startPos int) token.Token {
	if l.match(expected) {
		return l.makeToken(thenType, startPos)
	}
	return l.makeToken(elseType, startPos)
}

func (l *Lexer) greater(startPos int) token.Token {
	switch {
	case l.match('>'):
		return l.makeToken(token.Forward, startPos)
	case l.match('='):
		return l.makeToken(token.GreaterEqual, startPos)
	}
	return l.makeToken(token.Greater, startPos)
}

func (l *Lexer) equal(startPos int) token.Token {
	switch {
	case l.match('='):
		return l.makeToken(token.Equal, startPos)
	case l.match('>'):
		return l.makeToken(token.Arrow, startPos)
	}
	return l.makeToken(token.Assign, startPos)
}

func (l *Lexer) dot(startPos int) token.Token {
	if !l.match('.') {
		return l.makeToken(token.Dot, startPos)
	}
	switch {
	case l.match('.'):
		return l.makeToken(token.Ellipsis, startPos)
	case l.match('='):
		return l.makeToken(token.InclusiveInterval, startPos)
	}
	return l.makeToken(token.Interval, startPos)
}

// colon resolves ':' into a Separator, a NamedOperator or a plain Colon.
// The named operator scan is speculative: if no closing ':' follows the
// name, the cursor is restored and only the ':' is consumed.
func (l *Lexer) colon(startPos int) token.Token {
	if l.match(':') {
		return l.makeToken(token.Separator, startPos)
	}
	if !isIdentStart(l.peek()) {
		return l.makeToken(token.Colon, startPos)
	}

	save := l.pos
	for isIdentLetter(l.peek()) {
		l.advance()
	}
	if l.peek() == ':' {
		name := string(l.source[save:l.pos])
		l.advance()
		tok := l.makeToken(token.NamedOperator, startPos)
		tok.Text = name
		return tok
	}
	l.pos = save
	return l.makeToken(token.Colon, startPos)
}

// word scans a maximal run of identifier letters starting at nameStart and
// returns a token of type tokType carrying the run as its text.
func (l *Lexer) word(tokType token.Type, startPos, nameStart int) token.Token {
	for isIdentLetter(l.peek()) {
		l.advance()
	}
	tok := l.makeToken(tokType, startPos)
	tok.Text = string(l.source[nameStart:l.pos])
	return tok
}

func (l *Lexer) identifierOrKeyword(startPos int) (token.Token, error) {
	tok := l.word(token.Identifier, startPos, startPos)
	switch tok.Text {
	case "true", "false":
		tok.Type, tok.Bool, tok.Text = token.Boolean, tok.Text == "true", ""
		return tok, nil
	}
	if tokType := token.Lookup(tok.Text); tokType != token.Identifier {
		tok.Type, tok.Text = tokType, ""
	}
	return tok, nil
}

// quoted scans a literal delimited by term. A backslash always takes the
// following character with it, so an escaped terminator does not end the
// literal. Escapes are kept verbatim in the token text.
func (l *Lexer) quoted(term rune, tokType token.Type, unterminated Reason, startPos int) (token.Token, error) {
	for !l.isAtEnd() {
		c := l.advance()
		if c == '\\' {
			if l.isAtEnd() {
				break
			}
			l.advance()
			continue
		}
		if c == term {
			tok := l.makeToken(tokType, startPos)
			tok.Text = string(l.source[startPos+1 : l.pos-1])
			return tok, nil
		}
	}
	return token.Token{}, &Error{Reason: unterminated, Loc: l.location(startPos)}
}

func (l *Lexer) numberLiteral(startPos int) (token.Token, error) {
	if l.peek() == '0' {
		next := l.peekNext()
		switch {
		case (next == 'x' || next == 'X' || next == 'b' || next == 'B') && l.cfg.IsFeatureEnabled(config.FeatRadixLiterals):
			return l.bitLiteral(startPos)
		case isIdentStart(next) && !l.isImaginarySuffix(1) && !l.isExponentAt(1):
			l.advance()
			for isIdentLetter(l.peek()) {
				l.advance()
			}
			return token.Token{}, l.errorf(ErrInvalidIdentifier, startPos, "%q cannot start with '0'", string(l.source[startPos:l.pos]))
		}
	}

	isFloat := false
	l.digits()
	if l.peek() == '.' && isDigit(l.peekNext()) {
		isFloat = true
		l.advance()
		l.digits()
	}
	if l.isExponent() {
		isFloat = true
		l.advance()
		if l.peek() == '+' || l.peek() == '-' {
			l.advance()
		}
		l.digits()
	}
	text := string(l.source[startPos:l.pos])

	if l.isImaginarySuffix(0) {
		l.advance()
		tok := l.makeToken(token.Imaginary, startPos)
		v, err := strconv.ParseFloat(text, 64)
		if err != nil {
			return token.Token{}, l.errorf(ErrMalformedNumber, startPos, "%s", text)
		}
		tok.Float = v
		return tok, nil
	}

	if isFloat {
		tok := l.makeToken(token.Float, startPos)
		v, err := strconv.ParseFloat(text, 64)
		if err != nil {
			return token.Token{}, l.errorf(ErrMalformedNumber, startPos, "%s", text)
		}
		tok.Float = v
		return tok, nil
	}

	tok := l.makeToken(token.Integer, startPos)
	v, err := strconv.ParseInt(text, 10, 64)
	if err != nil {
		return token.Token{}, l.errorf(ErrIntegerRange, startPos, "%s", text)
	}
	tok.Int = v
	return tok, nil
}

func (l *Lexer) digits() {
	for isDigit(l.peek()) {
		l.advance()
	}
}

func (l *Lexer) isExponent() bool { return l.isExponentAt(0) }

// isExponentAt reports whether the rune at offset n is 'e' or 'E' followed
// by an optionally signed digit.
func (l *Lexer) isExponentAt(n int) bool {
	if !l.cfg.IsFeatureEnabled(config.FeatFloatExponent) {
		return false
	}
	if c := l.peekAt(n); c != 'e' && c != 'E' {
		return false
	}
	next := l.peekAt(n + 1)
	if next == '+' || next == '-' {
		return isDigit(l.peekAt(n + 2))
	}
	return isDigit(next)
}

// isImaginarySuffix reports whether the rune at offset n is a lone 'i'.
func (l *Lexer) isImaginarySuffix(n int) bool {
	return l.cfg.IsFeatureEnabled(config.FeatImaginary) && l.peekAt(n) == 'i' && !isIdentLetter(l.peekAt(n+1))
}

// bitLiteral scans '0x' hex or '0b' binary digits into a big-endian bit
// vector. Each hex digit contributes four bits, each binary digit one.
func (l *Lexer) bitLiteral(startPos int) (token.Token, error) {
	l.advance()
	radix := l.advance()
	bitsPerDigit, valid := 4, isHexDigit
	if radix == 'b' || radix == 'B' {
		bitsPerDigit, valid = 1, isBinaryDigit
	}

	digitsStart := l.pos
	for valid(l.peek()) {
		l.advance()
	}
	digits := l.source[digitsStart:l.pos]
	if len(digits) == 0 || isIdentLetter(l.peek()) {
		for isIdentLetter(l.peek()) {
			l.advance()
		}
		return token.Token{}, l.errorf(ErrMalformedNumber, startPos, "%s", string(l.source[startPos:l.pos]))
	}

	width := len(digits) * bitsPerDigit
	bytes := make([]byte, (width+7)/8)
	bit := 0
	for i := len(digits) - 1; i >= 0; i-- {
		v := digitValue(digits[i])
		for b := 0; b < bitsPerDigit; b++ {
			if v&(1<<b) != 0 {
				bytes[len(bytes)-1-bit/8] |= 1 << (bit % 8)
			}
			bit++
		}
	}

	tok := l.makeToken(token.Bit, startPos)
	tok.Bits = &token.Bits{Width: width, Bytes: bytes}
	return tok, nil
}

func isDigit(ch rune) bool { return ch >= '0' && ch <= '9' }

func isBinaryDigit(ch rune) bool { return ch == '0' || ch == '1' }

func isHexDigit(ch rune) bool {
	return isDigit(ch) || (ch >= 'a' && ch <= 'f') || (ch >= 'A' && ch <= 'F')
}

func digitValue(ch rune) int {
	switch {
	case ch >= 'a' && ch <= 'f':
		return int(ch-'a') + 10
	case ch >= 'A' && ch <= 'F':
		return int(ch-'A') + 10
	}
	return int(ch - '0')
}

func isIdentStart(ch rune) bool {
	return (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z') || ch == '_'
}

func isIdentLetter(ch rune) bool { return isIdentStart(ch) || isDigit(ch) }
