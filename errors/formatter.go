// Package errors renders ledger and parse errors for people and programs.
// Domain error types stay in their packages (ledger, parser); this package
// only decides how they are presented.
//
// Two formatters are provided:
//   - TextFormatter: plain text for the command line, with the offending
//     source row when the source is known
//   - JSONFormatter: structured JSON for the web API
package errors

import (
	"bytes"
	"encoding/json"
	stdErrors "errors"
	"fmt"
	"strings"

	"github.com/xin30hp/CryptoTaxes/ast"
	"github.com/xin30hp/CryptoTaxes/ledger"
)

// Formatter formats errors for output in different formats.
type Formatter interface {
	// Format formats a single error.
	Format(err error) string

	// FormatAll formats multiple errors.
	FormatAll(errs []error) string
}

type positioned interface {
	GetPosition() ast.Position
	Error() string
}

// TextFormatter formats errors for command-line output.
type TextFormatter struct {
	sources map[string][]byte
}

// TextFormatterOption is an option for configuring TextFormatter.
type TextFormatterOption func(*TextFormatter)

// WithSource registers the content of filename so errors pointing into it
// are shown with the surrounding rows.
func WithSource(filename string, source []byte) TextFormatterOption {
	return func(tf *TextFormatter) {
		tf.sources[filename] = source
	}
}

// NewTextFormatter creates a new text formatter.
func NewTextFormatter(opts ...TextFormatterOption) *TextFormatter {
	tf := &TextFormatter{sources: make(map[string][]byte)}
	for _, opt := range opts {
		opt(tf)
	}
	return tf
}

// Format formats a single error.
func (tf *TextFormatter) Format(err error) string {
	var e positioned
	if stdErrors.As(err, &e) {
		pos := e.GetPosition()
		if source, ok := tf.sources[pos.Filename]; ok && pos.Line > 0 {
			return formatWithSourceContext(pos, err.Error(), source)
		}
	}

	return err.Error()
}

// FormatAll formats multiple errors, separating them with blank lines.
func (tf *TextFormatter) FormatAll(errs []error) string {
	if len(errs) == 0 {
		return ""
	}

	var buf bytes.Buffer
	for i, err := range errs {
		buf.WriteString(tf.Format(err))

		if i < len(errs)-1 {
			buf.WriteString("\n\n")
		}
	}

	return buf.String()
}

// FormatSkipped describes a row the parser ignored.
func (tf *TextFormatter) FormatSkipped(s *ast.Skipped) string {
	message := fmt.Sprintf("%s: skipped: %s", s.Pos, s.Reason)
	if source, ok := tf.sources[s.Pos.Filename]; ok && s.Pos.Line > 0 {
		return formatWithSourceContext(s.Pos, message, source)
	}
	if len(s.Fields) > 0 {
		return message + "\n\n   " + strings.Join(s.Fields, ",") + "\n"
	}
	return message
}

// formatWithSourceContext shows the message followed by the rows around pos.
func formatWithSourceContext(pos ast.Position, message string, sourceContent []byte) string {
	var buf bytes.Buffer

	buf.WriteString(message)
	buf.WriteString("\n\n")

	sourceLines := strings.Split(strings.TrimRight(string(sourceContent), "\n"), "\n")

	// One row before and after the offending one.
	startLine := pos.Line - 2
	endLine := pos.Line

	if startLine < 0 {
		startLine = 0
	}
	if endLine >= len(sourceLines) {
		endLine = len(sourceLines) - 1
	}

	for i := startLine; i <= endLine; i++ {
		marker := "   "
		if i == pos.Line-1 {
			marker = " > "
		}
		buf.WriteString(marker)
		buf.WriteString(sourceLines[i])
		buf.WriteByte('\n')

		if i == pos.Line-1 && pos.Column > 0 {
			buf.WriteString("   ")
			buf.WriteString(strings.Repeat(" ", pos.Column-1))
			buf.WriteString("^\n")
		}
	}

	return buf.String()
}

// JSONFormatter formats errors as JSON.
type JSONFormatter struct{}

// NewJSONFormatter creates a new JSON formatter.
func NewJSONFormatter() *JSONFormatter {
	return &JSONFormatter{}
}

// ErrorJSON represents an error in JSON format.
type ErrorJSON struct {
	Type     string            `json:"type"`
	Message  string            `json:"message"`
	Position *PositionJSON     `json:"position,omitempty"`
	Details  map[string]string `json:"details,omitempty"`
}

// PositionJSON represents a file position in JSON format.
type PositionJSON struct {
	Filename string `json:"filename"`
	Line     int    `json:"line"`
	Column   int    `json:"column"`
}

// Format formats a single error as JSON.
func (jf *JSONFormatter) Format(err error) string {
	data, _ := json.Marshal(jf.ToJSON(err))
	return string(data)
}

// FormatAll formats multiple errors as a JSON array.
func (jf *JSONFormatter) FormatAll(errs []error) string {
	data, _ := json.MarshalIndent(jf.FormatAllToSlice(errs), "", "  ")
	return string(data)
}

// FormatAllToSlice returns errors as a slice of ErrorJSON structs.
func (jf *JSONFormatter) FormatAllToSlice(errs []error) []ErrorJSON {
	result := make([]ErrorJSON, 0, len(errs))
	for _, err := range errs {
		result = append(result, jf.ToJSON(err))
	}
	return result
}

// SkippedToJSON converts skipped rows to ErrorJSON values of type "skipped".
func (jf *JSONFormatter) SkippedToJSON(skipped []*ast.Skipped) []ErrorJSON {
	result := make([]ErrorJSON, 0, len(skipped))
	for _, s := range skipped {
		result = append(result, ErrorJSON{
			Type:     "skipped",
			Message:  s.Reason,
			Position: positionJSON(s.Pos),
			Details:  map[string]string{"row": strings.Join(s.Fields, ",")},
		})
	}
	return result
}

// ToJSON converts an error to ErrorJSON.
func (jf *JSONFormatter) ToJSON(err error) ErrorJSON {
	errJSON := ErrorJSON{
		Type:    fmt.Sprintf("%T", err),
		Message: err.Error(),
		Details: make(map[string]string),
	}

	var e positioned
	if stdErrors.As(err, &e) {
		errJSON.Position = positionJSON(e.GetPosition())
	}

	var (
		insufficient *ledger.InsufficientLotsError
		config       *ledger.ConfigurationError
		conservation *ledger.ConservationError
	)
	switch {
	case stdErrors.As(err, &insufficient):
		errJSON.Type = "insufficient_lots"
		errJSON.Details["asset"] = insufficient.Asset
		errJSON.Details["date"] = ast.FormatDate(insufficient.Date)
		errJSON.Details["requested"] = insufficient.Requested.String()
		errJSON.Details["unmatched"] = insufficient.Unmatched.String()
	case stdErrors.As(err, &config):
		errJSON.Type = "configuration"
		errJSON.Details["option"] = config.Option
		errJSON.Details["value"] = config.Value
	case stdErrors.As(err, &conservation):
		errJSON.Type = "conservation"
		errJSON.Details["asset"] = conservation.Asset
		errJSON.Details["created"] = conservation.Created.String()
		errJSON.Details["remaining"] = conservation.Remaining.String()
		errJSON.Details["consumed"] = conservation.Consumed.String()
	}

	if len(errJSON.Details) == 0 {
		errJSON.Details = nil
	}
	return errJSON
}

func positionJSON(pos ast.Position) *PositionJSON {
	if pos.IsZero() {
		return nil
	}
	return &PositionJSON{
		Filename: pos.Filename,
		Line:     pos.Line,
		Column:   pos.Column,
	}
}
