package parser

import (
	"fmt"

	"github.com/xplshn/gfe/pkg/token"
)

// Reason classifies a syntax error.
type Reason string

const (
	ErrExpectedExpression   Reason = "expected expression"
	ErrExpectedLiteral      Reason = "expected literal"
	ErrExpectedPrimary      Reason = "expected primary expression"
	ErrExpectedStatementEnd Reason = "expected statement ending symbol"
	ErrExpectedToken        Reason = "expected token"
	ErrUnexpectedToken      Reason = "unexpected token"
	ErrUnimplemented        Reason = "unimplemented production"
	ErrNestingTooDeep       Reason = "nesting too deep"
)

// Error is returned by the parser. Parsing stops at the first error.
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
	return fmt.Sprintf("parser: %s at %s", e.Message(), e.Loc)
}
