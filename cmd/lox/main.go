package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"

	"github.com/charmbracelet/fang"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/vito/lox/pkg/ioctx"
	"github.com/vito/lox/pkg/lox"
)

// Config holds the application configuration
type Config struct {
	Debug      bool
	DumpAST    bool
	NoColor    bool
	LSP        bool
	LSPLogFile string
}

// exit codes follow sysexits.h, as other Lox implementations do
const (
	exitStatic  = 65
	exitRuntime = 70
)

func main() {
	var cfg Config

	rootCmd := &cobra.Command{
		Use:   "lox [flags] [file...]",
		Short: "Lox interpreter",
		Long: `lox runs programs written in Lox, a small dynamically typed language
with closures and classes.

With no arguments it starts an interactive REPL. With several files,
each one runs in its own interpreter and their output is printed in
argument order.`,
		Example: `  # Run a script
  lox script.lox

  # Run several independent scripts
  lox a.lox b.lox

  # Start interactive REPL
  lox

  # Show debug logging and the parsed syntax tree
  lox --debug --dump-ast script.lox

  # Serve diagnostics to an editor
  lox --lsp --lsp-log-file /tmp/lox-lsp.log`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if cfg.LSP {
				return runLSP(cmd.Context(), cfg)
			}

			setupLogging(cfg)
			if len(args) == 0 {
				return runREPL(cmd.Context(), cfg)
			}
			return runFiles(cmd.Context(), cfg, args)
		},
	}

	rootCmd.PersistentFlags().BoolVarP(&cfg.Debug, "debug", "d", false, "Enable debug logging")
	rootCmd.PersistentFlags().BoolVar(&cfg.NoColor, "no-color", false, "Disable colored error output")
	rootCmd.Flags().BoolVar(&cfg.DumpAST, "dump-ast", false, "Print the parsed syntax tree to stderr before running")
	rootCmd.Flags().BoolVar(&cfg.LSP, "lsp", false, "Run in Language Server Protocol mode")
	rootCmd.Flags().StringVar(&cfg.LSPLogFile, "lsp-log-file", "", "Path to LSP log file (stderr if not specified)")

	rootCmd.AddCommand(checkCmd(&cfg))
	rootCmd.AddCommand(astCmd(&cfg))

	ctx := context.Background()
	ctx = ioctx.StdoutToContext(ctx, os.Stdout)
	ctx = ioctx.StderrToContext(ctx, os.Stderr)
	if err := fang.Execute(ctx, rootCmd,
		fang.WithVersion("v0.1.0"),
		fang.WithCommit("dev"),
		fang.WithErrorHandler(func(w io.Writer, styles fang.Styles, err error) {
			_, _ = fmt.Fprintln(w, renderError(err, !cfg.NoColor))
		}),
	); err != nil {
		os.Exit(exitCode(err))
	}
}

func setupLogging(cfg Config) {
	level := slog.LevelInfo
	if cfg.Debug {
		level = slog.LevelDebug
	}

	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})
	slog.SetDefault(slog.New(handler))
}

// runFiles runs every file in its own interpreter. Files run concurrently;
// output is buffered per file and flushed in argument order, stopping at the
// first file that failed.
func runFiles(ctx context.Context, cfg Config, paths []string) error {
	if len(paths) == 1 {
		return lox.RunFile(ctx, paths[0], cfg.DumpAST)
	}

	stdout := ioctx.StdoutFromContext(ctx)

	outs := make([]bytes.Buffer, len(paths))
	errs := make([]error, len(paths))

	var eg errgroup.Group
	eg.SetLimit(runtime.GOMAXPROCS(0))
	for i, path := range paths {
		eg.Go(func() error {
			fileCtx := ioctx.StdoutToContext(ctx, &outs[i])
			fileCtx = ioctx.StderrToContext(fileCtx, &outs[i])
			errs[i] = lox.RunFile(fileCtx, path, cfg.DumpAST)
			return nil
		})
	}
	_ = eg.Wait()

	for i := range paths {
		if _, err := outs[i].WriteTo(stdout); err != nil {
			return err
		}
		if errs[i] != nil {
			return errs[i]
		}
	}
	return nil
}

func checkCmd(cfg *Config) *cobra.Command {
	return &cobra.Command{
		Use:   "check file...",
		Short: "Report syntax and scope errors without running",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			setupLogging(*cfg)

			var eg errgroup.Group
			eg.SetLimit(runtime.GOMAXPROCS(0))
			errs := make([]error, len(args))
			for i, path := range args {
				eg.Go(func() error {
					errs[i] = checkFile(path)
					return nil
				})
			}
			_ = eg.Wait()

			return errors.Join(errs...)
		},
	}
}

func checkFile(path string) error {
	_, config, err := lox.FindProjectConfig(filepath.Dir(path))
	if err != nil {
		return err
	}
	source, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if _, _, err := lox.NewSession(config.Builtins()).Check(string(source)); err != nil {
		return &lox.FileError{Path: path, Source: string(source), Err: err}
	}
	return nil
}

func astCmd(cfg *Config) *cobra.Command {
	return &cobra.Command{
		Use:   "ast file",
		Short: "Print the syntax tree of a file in prefix form",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			setupLogging(*cfg)

			source, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			stmts, err := lox.Parse(string(source))
			if err != nil {
				return &lox.FileError{Path: args[0], Source: string(source), Err: err}
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), lox.Sprint(stmts))
			return err
		},
	}
}

func renderError(err error, color bool) string {
	// errors.Join from `check`; an ErrorList renders itself
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		if _, isList := err.(lox.ErrorList); !isList {
			var out []byte
			for i, e := range joined.Unwrap() {
				if i > 0 {
					out = append(out, '\n')
				}
				out = append(out, renderError(e, color)...)
			}
			return string(out)
		}
	}

	var fileErr *lox.FileError
	if errors.As(err, &fileErr) {
		return fileErr.Render(color)
	}
	return err.Error()
}

func exitCode(err error) int {
	var runtimeErr *lox.RuntimeError
	switch {
	case errors.As(err, &runtimeErr):
		return exitRuntime
	case lox.IsStatic(err):
		return exitStatic
	default:
		return 1
	}
}
