// Package web provides an HTTP server exposing the results of a ledger run.
//
// The server loads the transaction exports once at startup, and again
// whenever one of them changes when watching is enabled. Clients read the
// realization ledger, the merged ledger, the holdings snapshot and any
// processing errors as JSON, and can subscribe to /api/events to learn when
// the results were recomputed.
//
// SECURITY WARNING: This server has no authentication and should only be
// bound to localhost (127.0.0.1). Do not expose it to untrusted networks.
package web

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/xin30hp/CryptoTaxes/ast"
	"github.com/xin30hp/CryptoTaxes/ledger"
	"github.com/xin30hp/CryptoTaxes/loader"
	"github.com/xin30hp/CryptoTaxes/report"
	"github.com/xin30hp/CryptoTaxes/telemetry"
)

type Server struct {
	Port         int
	Host         string
	Version      string
	CommitSHA    string
	WatchEnabled bool

	// inputFiles are the paths passed to New, used for every (re)load.
	inputFiles []string

	mu      sync.RWMutex
	config  *ledger.Config
	run     *report.Run
	errs    []error
	skipped []*ast.Skipped
	files   []string // absolute paths of the loaded files
	sources map[string][]byte

	// SSE clients for broadcasting reload events
	sseClients map[chan string]struct{}
	sseMu      sync.Mutex
}

func New(port int, files ...string) *Server {
	return NewWithVersion(port, files, "", "")
}

func NewWithVersion(port int, files []string, version, commitSHA string) *Server {
	return &Server{
		Port:       port,
		Host:       "127.0.0.1",
		Version:    version,
		CommitSHA:  commitSHA,
		inputFiles: files,
		sseClients: make(map[chan string]struct{}),
	}
}

// Start loads the files, optionally watches them, and serves HTTP until the
// listener fails. The ledger configuration is taken from ctx.
func (s *Server) Start(ctx context.Context) error {
	collector := telemetry.FromContext(ctx)
	timer := collector.Start(fmt.Sprintf("web.start %s:%d", s.Host, s.Port))
	defer timer.End()

	if len(s.inputFiles) == 0 {
		return fmt.Errorf("at least one transaction file is required")
	}

	loadTimer := timer.Child(fmt.Sprintf("web.load (%d files)", len(s.inputFiles)))
	if err := s.reload(ctx); err != nil {
		loadTimer.End()
		return fmt.Errorf("failed to load transactions: %w", err)
	}
	loadTimer.End()

	if s.WatchEnabled {
		if err := s.startWatcher(ctx); err != nil {
			return fmt.Errorf("failed to start file watcher: %w", err)
		}
	}

	setupTimer := timer.Child("web.setup_router")
	mux := s.setupRouter()
	setupTimer.End()

	addr := fmt.Sprintf("%s:%d", s.Host, s.Port)
	return http.ListenAndServe(addr, mux)
}

func (s *Server) setupRouter() *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/status", s.handleGetStatus)
	mux.HandleFunc("GET /api/realizations", s.handleGetRealizations)
	mux.HandleFunc("GET /api/merged", s.handleGetMerged)
	mux.HandleFunc("GET /api/holdings", s.handleGetHoldings)
	mux.HandleFunc("GET /api/summary", s.handleGetSummary)
	mux.HandleFunc("GET /api/errors", s.handleGetErrors)
	mux.HandleFunc("GET /api/events", s.handleSSE)

	return mux
}

// reload loads and processes the input files and swaps in the new results.
// Only I/O failures are returned; processing errors are kept for
// /api/errors and leave the served results empty.
// Caller must NOT hold the mutex - this method acquires it internally.
func (s *Server) reload(ctx context.Context) error {
	cfg := ledger.ConfigFromContext(ctx)

	ldr := loader.New(loader.WithFiat(cfg.Fiat))
	result, err := ldr.Load(ctx, s.inputFiles...)
	if err != nil {
		return err
	}

	l := ledger.New(cfg)
	var errs []error
	if err := l.Process(ctx, result.AST); err != nil {
		errs = append(errs, err)
	} else if err := l.Audit(); err != nil {
		errs = append(errs, err)
	}

	run := &report.Run{Fiat: cfg.Fiat}
	if len(errs) == 0 {
		run = report.NewRun(l)
	}

	sources := make(map[string][]byte)
	if len(errs) > 0 || len(result.AST.Skipped) > 0 {
		for _, f := range s.inputFiles {
			if f == loader.Stdin {
				continue
			}
			if data, err := os.ReadFile(f); err == nil {
				sources[f] = data
			}
		}
	}

	s.mu.Lock()
	s.config = cfg
	s.run = run
	s.errs = errs
	s.skipped = result.AST.Skipped
	s.files = result.Files
	s.sources = sources
	s.mu.Unlock()

	return nil
}

// watchedFiles returns the loaded files that exist on disk.
func (s *Server) watchedFiles() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var files []string
	for _, f := range s.files {
		if f != loader.Stdin {
			files = append(files, f)
		}
	}
	return files
}

// startWatcher starts a file watcher for every loaded file.
// It recomputes the results and broadcasts SSE events when files change.
func (s *Server) startWatcher(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}

	for _, file := range s.watchedFiles() {
		if err := watcher.Add(file); err != nil {
			log.Printf("Warning: failed to watch %s: %v", file, err)
		}
	}

	go s.runWatcher(ctx, watcher)

	return nil
}

// runWatcher processes file system events with debouncing.
func (s *Server) runWatcher(ctx context.Context, watcher *fsnotify.Watcher) {
	var debounceTimer *time.Timer
	defer func() {
		if debounceTimer != nil {
			debounceTimer.Stop()
		}
		_ = watcher.Close()
	}()

	// Exports are often written in several steps.
	const debounceDelay = 100 * time.Millisecond

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-watcher.Events:
			if !ok {
				return
			}

			// Remove/Rename are common in atomic saves
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}

			if debounceTimer != nil {
				debounceTimer.Stop()
			}

			debounceTimer = time.AfterFunc(debounceDelay, func() {
				s.handleFileChange(ctx, watcher)
			})

		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			log.Printf("File watcher error: %v", err)
		}
	}
}

// handleFileChange recomputes the results and re-adds the watches, since
// atomic saves replace the watched inode.
func (s *Server) handleFileChange(ctx context.Context, watcher *fsnotify.Watcher) {
	if err := s.reload(ctx); err != nil {
		log.Printf("Failed to reload transactions: %v", err)
		return
	}

	for _, file := range s.watchedFiles() {
		if err := watcher.Add(file); err != nil {
			log.Printf("Warning: failed to watch %s: %v", file, err)
		}
	}

	s.broadcast("reload")
}

// handleSSE handles Server-Sent Events connections for real-time updates.
func (s *Server) handleSSE(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("Access-Control-Allow-Origin", "*")

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming not supported", http.StatusInternalServerError)
		return
	}

	clientChan := make(chan string, 10)

	s.sseMu.Lock()
	s.sseClients[clientChan] = struct{}{}
	s.sseMu.Unlock()

	defer func() {
		s.sseMu.Lock()
		delete(s.sseClients, clientChan)
		s.sseMu.Unlock()
	}()

	_, _ = fmt.Fprintf(w, "data: connected\n\n")
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case event := <-clientChan:
			_, _ = fmt.Fprintf(w, "data: %s\n\n", event)
			flusher.Flush()
		}
	}
}

// broadcast sends an event to all connected SSE clients.
func (s *Server) broadcast(event string) {
	s.sseMu.Lock()
	defer s.sseMu.Unlock()

	for clientChan := range s.sseClients {
		select {
		case clientChan <- event:
		default:
			// Client buffer full, skip
		}
	}
}
