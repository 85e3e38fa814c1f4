package ast

import "fmt"

// Position represents a location in the source file.
type Position struct {
	Filename string
	Line     int // Line number (1-indexed)
	Column   int // Field number (1-indexed), 0 when the whole row is meant
}

// IsZero returns true for positions that were never set.
func (p Position) IsZero() bool {
	return p.Filename == "" && p.Line == 0
}

// String returns a human-readable representation of the position.
func (p Position) String() string {
	switch {
	case p.Filename != "" && p.Column > 0:
		return fmt.Sprintf("%s:%d:%d", p.Filename, p.Line, p.Column)
	case p.Filename != "":
		return fmt.Sprintf("%s:%d", p.Filename, p.Line)
	case p.Column > 0:
		return fmt.Sprintf("%d:%d", p.Line, p.Column)
	default:
		return fmt.Sprintf("line %d", p.Line)
	}
}

// GoString returns a Go-syntax representation of the position.
func (p Position) GoString() string {
	return fmt.Sprintf("Position{Filename: %q, Line: %d, Column: %d}", p.Filename, p.Line, p.Column)
}
