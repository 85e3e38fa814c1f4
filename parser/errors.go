package parser

import (
	"fmt"

	"github.com/xin30hp/CryptoTaxes/ast"
)

// ParseError is returned when the input cannot be read at all. Malformed rows
// never produce a ParseError; they end up in ast.AST.Skipped.
type ParseError struct {
	Pos        ast.Position
	Message    string
	Underlying error
}

func (e *ParseError) Error() string {
	location := fmt.Sprintf("%s:%d", e.Pos.Filename, e.Pos.Line)
	if e.Pos.Filename == "" {
		location = fmt.Sprintf("line %d", e.Pos.Line)
	}

	return fmt.Sprintf("%s: %s", location, e.Message)
}

func (e *ParseError) GetPosition() ast.Position {
	return e.Pos
}

func (e *ParseError) Unwrap() error {
	return e.Underlying
}

// NewParseError wraps err with the file and line it occurred at.
func NewParseError(filename string, line int, err error) *ParseError {
	return &ParseError{
		Pos:        ast.Position{Filename: filename, Line: line},
		Message:    err.Error(),
		Underlying: err,
	}
}
