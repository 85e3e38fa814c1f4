// Package loader reads one or more transaction exports into a single AST.
//
// Files are parsed in the order given and their transactions concatenated,
// so the relative order of rows across files is the order of the arguments.
// A file named more than once (by any relative or absolute path) is loaded
// only the first time. The name "-" reads from standard input.
//
// Example usage:
//
//	l := loader.New(loader.WithFiat("EUR"))
//	result, err := l.Load(ctx, "coinbase.csv", "kraken.csv")
//	fmt.Println(len(result.AST.Transactions), result.Files)
package loader

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/xin30hp/CryptoTaxes/ast"
	"github.com/xin30hp/CryptoTaxes/parser"
	"github.com/xin30hp/CryptoTaxes/telemetry"
)

// Stdin is the filename that selects standard input.
const Stdin = "-"

// Loader reads and parses transaction files.
//
// Configure the loader using functional options passed to New:
//
//	loader := New(WithFiat("EUR"))
type Loader struct {
	// Fiat is the unit rows must be priced in; see parser.WithFiat.
	Fiat  string
	stdin io.Reader
}

// Option configures how files are loaded.
type Option func(*Loader)

// WithFiat sets the fiat unit passed to the parser.
func WithFiat(unit string) Option {
	return func(l *Loader) {
		l.Fiat = unit
	}
}

// WithStdin replaces the reader used for the "-" filename.
func WithStdin(r io.Reader) Option {
	return func(l *Loader) {
		l.stdin = r
	}
}

// New creates a new Loader with the given options.
func New(opts ...Option) *Loader {
	l := &Loader{
		Fiat:  parser.DefaultFiat,
		stdin: os.Stdin,
	}

	for _, opt := range opts {
		opt(l)
	}

	return l
}

// Result is the outcome of a Load.
type Result struct {
	AST *ast.AST
	// Files lists the absolute paths that were read, in load order. Standard
	// input is listed as "-".
	Files []string
}

// Load parses every file and concatenates the results in argument order.
func (l *Loader) Load(ctx context.Context, filenames ...string) (*Result, error) {
	timer := telemetry.StartTimer(ctx, fmt.Sprintf("loader.load (%d files)", len(filenames)))
	defer timer.End()

	visited := make(map[string]bool)
	result := &Result{}
	var trees []*ast.AST

	for _, filename := range filenames {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		key := filename
		if filename != Stdin {
			abs, err := filepath.Abs(filename)
			if err != nil {
				return nil, fmt.Errorf("failed to resolve absolute path for %s: %w", filename, err)
			}
			key = abs
		}
		if visited[key] {
			continue
		}
		visited[key] = true

		tree, err := l.loadFile(ctx, filename)
		if err != nil {
			return nil, err
		}
		trees = append(trees, tree)
		result.Files = append(result.Files, key)
	}

	result.AST = mergeASTs(trees...)
	return result, nil
}

// LoadBytes parses data as if it had been read from filename.
func (l *Loader) LoadBytes(ctx context.Context, filename string, data []byte) (*ast.AST, error) {
	return parser.ParseBytesWithFilename(ctx, filename, data, parser.WithFiat(l.Fiat))
}

func (l *Loader) loadFile(ctx context.Context, filename string) (*ast.AST, error) {
	var (
		data []byte
		err  error
	)
	if filename == Stdin {
		data, err = io.ReadAll(l.stdin)
		filename = "<stdin>"
	} else {
		data, err = os.ReadFile(filename)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", filename, err)
	}

	return l.LoadBytes(ctx, filename, data)
}

// mergeASTs concatenates transactions and skipped rows, keeping file order.
func mergeASTs(trees ...*ast.AST) *ast.AST {
	result := &ast.AST{}
	for _, tree := range trees {
		result.Transactions = append(result.Transactions, tree.Transactions...)
		result.Skipped = append(result.Skipped, tree.Skipped...)
	}
	return result
}
