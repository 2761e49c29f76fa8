package lexer

import (
	"fmt"

	"github.com/xplshn/gfe/pkg/token"
)

// Reason classifies a lexical error.
type Reason string

const (
	ErrUnterminatedChar     Reason = "unterminated char literal"
	ErrUnterminatedString   Reason = "unterminated string literal"
	ErrUnterminatedTemplate Reason = "unterminated template string"
	ErrLineEnding           Reason = "unsupported line ending sequence"
	ErrInvalidIdentifier    Reason = "invalid identifier"
	ErrUnexpectedCharacter  Reason = "unexpected character"
	ErrIntegerRange         Reason = "integer literal out of range"
	ErrMalformedNumber      Reason = "malformed number literal"
)

// Error is returned by the lexer. The first error aborts tokenizing.
type Error struct {
	Reason Reason
	Detail string
	Loc    token.Location
}

func (e *Error) Message() string {
	if e.Detail == "" {
		return string(e.Reason)
	}
	return string(e.Reason) + ": " + e.Detail
}

func (e *Error) Location() token.Location { return e.Loc }

func (e *Error) Error() string {
	return fmt.Sprintf("lexer: %s at %s", e.Message(), e.Loc)
}
