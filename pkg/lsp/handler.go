package lsp

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"path/filepath"
	"sync"
	"unicode"

	"github.com/creachadair/jrpc2"
	"github.com/creachadair/jrpc2/handler"

	"github.com/vito/lox/pkg/lox"
)

// Handler is a language server that reports scan, parse and resolve errors
// for open Lox documents. Programs are never run.
type Handler struct {
	mu    sync.Mutex
	files map[DocumentURI]*File
	srv   *jrpc2.Server

	methods handler.Map
}

// NewHandler creates the JSON-RPC method table for this language server.
func NewHandler() *Handler {
	h := &Handler{
		files: make(map[DocumentURI]*File),
	}
	h.methods = handler.Map{
		"initialize":             h.handleInitialize,
		"initialized":            h.handleInitialized,
		"shutdown":               h.handleShutdown,
		"exit":                   h.handleExit,
		"textDocument/didOpen":   h.handleTextDocumentDidOpen,
		"textDocument/didChange": h.handleTextDocumentDidChange,
		"textDocument/didClose":  h.handleTextDocumentDidClose,
	}
	return h
}

// SetServer gives the handler the server to push notifications through.
func (h *Handler) SetServer(srv *jrpc2.Server) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.srv = srv
}

// Assign implements jrpc2.Assigner.
func (h *Handler) Assign(ctx context.Context, method string) jrpc2.Handler {
	slog.DebugContext(ctx, "handle", "method", method)
	return h.methods.Assign(ctx, method)
}

// File is an open document.
type File struct {
	Text        string
	Version     int
	Diagnostics []Diagnostic
}

func isWindowsDriveURI(uri string) bool {
	if len(uri) < 4 {
		return false
	}
	return uri[0] == '/' && unicode.IsLetter(rune(uri[1])) && uri[2] == ':'
}

func fromURI(uri DocumentURI) (string, error) {
	u, err := url.ParseRequestURI(string(uri))
	if err != nil {
		return "", err
	}
	if u.Scheme != "file" {
		return "", fmt.Errorf("only file URIs are supported, got %v", u.Scheme)
	}
	if isWindowsDriveURI(u.Path) {
		u.Path = u.Path[1:]
	}
	return u.Path, nil
}

func (h *Handler) openFile(uri DocumentURI, version int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.files[uri] = &File{
		Version: version,
	}
}

func (h *Handler) closeFile(ctx context.Context, uri DocumentURI) {
	h.mu.Lock()
	delete(h.files, uri)
	h.mu.Unlock()

	h.notify(ctx, "textDocument/publishDiagnostics", &PublishDiagnosticsParams{
		URI:         uri,
		Diagnostics: []Diagnostic{},
	})
}

// updateFile replaces the document text, re-checks it and publishes the
// result. Changes older than the current version are ignored.
func (h *Handler) updateFile(ctx context.Context, uri DocumentURI, text string, version *int) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	f, ok := h.files[uri]
	if !ok {
		return fmt.Errorf("document not found: %v", uri)
	}
	if version != nil {
		if *version < f.Version {
			return nil
		}
		f.Version = *version
	}

	f.Text = text
	f.Diagnostics = check(uri, text)
	slog.DebugContext(ctx, "checked document", "uri", uri, "version", f.Version, "diagnostics", len(f.Diagnostics))

	h.publishDiagnostics(ctx, uri, f)
	return nil
}

// publishDiagnostics must be called with h.mu held.
func (h *Handler) publishDiagnostics(ctx context.Context, uri DocumentURI, f *File) {
	if h.srv == nil {
		return
	}

	diagnostics := f.Diagnostics
	if diagnostics == nil {
		diagnostics = []Diagnostic{}
	}

	err := h.srv.Notify(ctx, "textDocument/publishDiagnostics", &PublishDiagnosticsParams{
		URI:         uri,
		Diagnostics: diagnostics,
		Version:     f.Version,
	})
	if err != nil {
		slog.ErrorContext(ctx, "failed to publish diagnostics", "error", err)
	}
}

func (h *Handler) notify(ctx context.Context, method string, params any) {
	h.mu.Lock()
	srv := h.srv
	h.mu.Unlock()
	if srv == nil {
		return
	}
	if err := srv.Notify(ctx, method, params); err != nil {
		slog.ErrorContext(ctx, "failed to notify", "method", method, "error", err)
	}
}

// check scans, parses and resolves text with the built-ins configured for
// the document's project.
func check(uri DocumentURI, text string) []Diagnostic {
	builtins := lox.DefaultBuiltins()
	if path, err := fromURI(uri); err == nil {
		_, config, err := lox.FindProjectConfig(filepath.Dir(path))
		if err != nil {
			slog.Warn("failed to load project config", "uri", uri, "error", err)
		} else {
			builtins = config.Builtins()
		}
	}

	stmts, err := lox.Parse(text)
	if err == nil {
		_, err = lox.Resolve(stmts, builtins.Names())
	}
	return errorToDiagnostics(err)
}

// errorToDiagnostics converts static errors to diagnostics spanning the
// offending token.
func errorToDiagnostics(err error) []Diagnostic {
	diagnostics := []Diagnostic{}
	if err == nil {
		return diagnostics
	}

	errs := []error{err}
	var list lox.ErrorList
	if errors.As(err, &list) {
		errs = list
	}

	for _, e := range errs {
		d := Diagnostic{
			Severity: SeverityError,
			Source:   stringPtr("lox"),
			Message:  diagnosticMessage(e),
		}

		var located lox.SourceLocatable
		if errors.As(e, &located) {
			// LSP positions are 0-based, Lox's are 1-based
			loc := located.GetSourceLocation()
			start := Position{Line: max(0, loc.Line-1), Character: max(0, loc.Column-1)}
			end := start
			end.Character += max(1, loc.Length)
			d.Range = Range{Start: start, End: end}
		}

		diagnostics = append(diagnostics, d)
	}
	return diagnostics
}

// diagnosticMessage drops the "[line N] Error at ..." prefix, since the
// diagnostic's range already says where.
func diagnosticMessage(err error) string {
	var scanErr *lox.ScanError
	var parseErr *lox.ParseError
	var resolveErr *lox.ResolveError
	switch {
	case errors.As(err, &scanErr):
		return scanErr.Message
	case errors.As(err, &parseErr):
		return parseErr.Message
	case errors.As(err, &resolveErr):
		return resolveErr.Message
	default:
		return err.Error()
	}
}

func stringPtr(s string) *string {
	return &s
}
