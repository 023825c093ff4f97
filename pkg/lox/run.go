package lox

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/kr/pretty"
	"github.com/vito/lox/pkg/ioctx"
)

// Session runs successive chunks of source against one set of globals, as a
// REPL or a prelude followed by a script does.
type Session struct {
	interp   *Interpreter
	builtins Builtins

	// DumpAST prints each parsed program to stderr before running it.
	DumpAST bool
}

func NewSession(builtins Builtins) *Session {
	return &Session{
		interp:   NewInterpreter(builtins),
		builtins: builtins,
	}
}

// Interpreter returns the interpreter backing the session.
func (s *Session) Interpreter() *Interpreter {
	return s.interp
}

// Check parses and resolves source without running it.
func (s *Session) Check(source string) ([]Stmt, Resolution, error) {
	stmts, err := Parse(source)
	if err != nil {
		return nil, nil, err
	}
	slog.Debug("parsed", "statements", len(stmts))

	resolver := NewResolver(s.builtins.Names())
	resolver.DeclareGlobals(s.interp.Globals().Names()...)
	locals, err := resolver.Resolve(stmts)
	if err != nil {
		return nil, nil, err
	}
	slog.Debug("resolved", "bindings", len(locals))

	return stmts, locals, nil
}

// Eval parses, resolves and runs source. Static errors are returned as an
// ErrorList and nothing runs; a runtime error is a *RuntimeError.
func (s *Session) Eval(ctx context.Context, source string) error {
	stmts, locals, err := s.Check(source)
	if err != nil {
		return err
	}

	if s.DumpAST {
		_, _ = pretty.Fprintf(ioctx.StderrFromContext(ctx), "%# v\n", stmts)
	}

	return s.interp.Interpret(ctx, stmts, locals)
}

// EvalFile runs a file in the session. Errors are wrapped with the file's
// source so they render with context.
func (s *Session) EvalFile(ctx context.Context, path string) error {
	source, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read source file: %w", err)
	}
	if err := s.Eval(ctx, string(source)); err != nil {
		return &FileError{Path: path, Source: string(source), Err: err}
	}
	return nil
}

// FileError is an error from running a particular file.
type FileError struct {
	Path   string
	Source string
	Err    error
}

func (e *FileError) Error() string {
	return e.Err.Error()
}

func (e *FileError) Unwrap() error {
	return e.Err
}

// Render formats the error with source context.
func (e *FileError) Render(color bool) string {
	return Render(e.Err, e.Path, e.Source, color)
}

// RunFile runs a script, first loading lox.toml from the script's directory
// (or a parent) to pick built-ins and run any prelude scripts.
func RunFile(ctx context.Context, path string, dumpAST bool) error {
	configPath, config, err := FindProjectConfig(filepath.Dir(path))
	if err != nil {
		return fmt.Errorf("loading project config: %w", err)
	}
	if config != nil {
		slog.Debug("loaded project config", "path", configPath, "prelude", config.Prelude, "disable", config.Disable)
	}

	session := NewSession(config.Builtins())
	session.DumpAST = dumpAST

	for _, prelude := range config.PreludePaths() {
		if err := session.EvalFile(ctx, prelude); err != nil {
			return err
		}
	}

	if err := session.EvalFile(ctx, path); err != nil {
		return err
	}

	slog.Debug("run finished", "path", path)
	return nil
}
