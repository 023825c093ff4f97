package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"charm.land/lipgloss/v2"

	"github.com/vito/lox/pkg/ioctx"
	"github.com/vito/lox/pkg/lox"
)

var (
	promptStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("63")).Bold(true)
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	welcomeStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("63"))
	dimStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

type replCommand struct {
	name string
	desc string
}

var replCommandDefs = []replCommand{
	{"help", "Show this help"},
	{"history", "Show recent input"},
	{"reset", "Start over with a fresh global scope"},
	{"quit", "Exit the REPL"},
}

type repl struct {
	session  *lox.Session
	builtins lox.Builtins
	preludes []string
	history  *replHistory
	in       *bufio.Scanner
	out      io.Writer
	color    bool
}

func runREPL(ctx context.Context, cfg Config) error {
	cwd, _ := os.Getwd()
	_, config, err := lox.FindProjectConfig(cwd)
	if err != nil {
		fmt.Fprintf(os.Stderr, "warning: failed to load %s: %v\n", lox.ProjectConfigFile, err)
	}

	history := newReplHistory(historyFilePath())
	history.Load()

	r := &repl{
		builtins: config.Builtins(),
		preludes: config.PreludePaths(),
		history:  history,
		in:       bufio.NewScanner(os.Stdin),
		out:      ioctx.StdoutFromContext(ctx),
		color:    !cfg.NoColor,
	}
	r.reset(ctx)

	r.println(r.style(welcomeStyle, "Lox REPL. Type :help for commands."))
	return r.loop(ctx)
}

// reset starts a fresh session and runs the project's preludes in it.
func (r *repl) reset(ctx context.Context) {
	r.session = lox.NewSession(r.builtins)
	for _, prelude := range r.preludes {
		if err := r.session.EvalFile(ctx, prelude); err != nil {
			r.printError(err, prelude, "")
		}
	}
}

func (r *repl) loop(ctx context.Context) error {
	for {
		fmt.Fprint(r.out, r.style(promptStyle, "> "))
		if !r.in.Scan() {
			fmt.Fprintln(r.out)
			return r.in.Err()
		}

		line := strings.TrimSpace(r.in.Text())
		if line == "" {
			continue
		}
		r.history.Add(line)

		if cmd, ok := strings.CutPrefix(line, ":"); ok {
			if quit := r.handleCommand(ctx, cmd); quit {
				return nil
			}
			continue
		}

		if err := r.session.Eval(ctx, line); err != nil {
			r.printError(err, "<repl>", line)
		}
	}
}

func (r *repl) handleCommand(ctx context.Context, cmd string) bool {
	switch strings.TrimSpace(cmd) {
	case "help":
		r.println("Available commands:")
		for _, c := range replCommandDefs {
			r.println(r.style(dimStyle, fmt.Sprintf("  :%-8s - %s", c.name, c.desc)))
		}
		r.println(r.style(dimStyle, "Type Lox statements to run them; globals persist between lines."))
	case "history":
		for _, entry := range r.history.Recent(20) {
			r.println(r.style(dimStyle, entry))
		}
	case "reset":
		r.reset(ctx)
		r.println("Global scope reset.")
	case "quit", "exit":
		return true
	default:
		r.println(r.style(errorStyle, fmt.Sprintf("unknown command :%s", cmd)))
	}
	return false
}

func (r *repl) printError(err error, filename, source string) {
	var fileErr *lox.FileError
	if !errors.As(err, &fileErr) {
		err = &lox.FileError{Path: filename, Source: source, Err: err}
	}
	r.println(renderError(err, r.color))
}

func (r *repl) style(s lipgloss.Style, text string) string {
	if !r.color {
		return text
	}
	return s.Render(text)
}

func (r *repl) println(s string) {
	fmt.Fprintln(r.out, s)
}
