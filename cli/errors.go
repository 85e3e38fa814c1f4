package cli

import (
	stdErrors "errors"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/xin30hp/CryptoTaxes/ast"
)

var (
	errCaretStyle   = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#FF5F87", Dark: "#FF5F87"})
	errContextStyle = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#808080", Dark: "#808080"})
)

// ErrorRenderer renders errors with terminal styling and source context.
// Sources not registered with WithSource are read from disk on demand.
type ErrorRenderer struct {
	sources map[string][]byte
}

// NewErrorRenderer creates a renderer without any registered sources.
func NewErrorRenderer() *ErrorRenderer {
	return &ErrorRenderer{sources: make(map[string][]byte)}
}

// WithSource registers the content of filename.
func (r *ErrorRenderer) WithSource(filename string, source []byte) *ErrorRenderer {
	r.sources[filename] = source
	return r
}

// Render formats a single error with styling and context.
func (r *ErrorRenderer) Render(err error) string {
	var e interface {
		GetPosition() ast.Position
		Error() string
	}
	if stdErrors.As(err, &e) {
		pos := e.GetPosition()
		if source := r.source(pos.Filename); source != nil && pos.Line > 0 {
			return r.renderWithSourceContext(pos, err.Error(), source)
		}
	}

	return err.Error()
}

// RenderAll formats multiple errors, separating them with blank lines.
func (r *ErrorRenderer) RenderAll(errs []error) string {
	if len(errs) == 0 {
		return ""
	}

	var buf strings.Builder
	for i, err := range errs {
		buf.WriteString(r.Render(err))

		if i < len(errs)-1 {
			buf.WriteString("\n\n")
		}
	}

	return buf.String()
}

// RenderSkipped formats a row the parser ignored.
func (r *ErrorRenderer) RenderSkipped(s *ast.Skipped) string {
	message := fmt.Sprintf("%s: %s", s.Pos, s.Reason)
	if source := r.source(s.Pos.Filename); source != nil && s.Pos.Line > 0 {
		return r.renderWithSourceContext(s.Pos, message, source)
	}
	return errorStyle.Render(message)
}

func (r *ErrorRenderer) source(filename string) []byte {
	if filename == "" {
		return nil
	}
	if source, ok := r.sources[filename]; ok {
		return source
	}

	source, err := os.ReadFile(filename)
	if err != nil {
		source = nil
	}
	r.sources[filename] = source
	return source
}

func (r *ErrorRenderer) renderWithSourceContext(pos ast.Position, message string, sourceContent []byte) string {
	var buf strings.Builder

	buf.WriteString(errorStyle.Render(message))
	buf.WriteString("\n\n")

	sourceLines := strings.Split(string(sourceContent), "\n")

	startLine := pos.Line - 3
	endLine := pos.Line + 1

	if startLine < 0 {
		startLine = 0
	}
	if endLine >= len(sourceLines) {
		endLine = len(sourceLines) - 1
	}

	for i := startLine; i <= endLine; i++ {
		if i == pos.Line-1 {
			buf.WriteString(" > ")
			buf.WriteString(sourceLines[i])
		} else {
			buf.WriteString("   ")
			buf.WriteString(errContextStyle.Render(sourceLines[i]))
		}
		buf.WriteByte('\n')

		if i == pos.Line-1 && pos.Column > 0 {
			buf.WriteString("   ")
			buf.WriteString(strings.Repeat(" ", pos.Column-1))
			buf.WriteString(errCaretStyle.Render("^"))
			buf.WriteByte('\n')
		}
	}

	return buf.String()
}
