package lox

import (
	"errors"
	"fmt"
	"strings"

	"charm.land/lipgloss/v2"
	"github.com/charmbracelet/x/ansi"
)

// SourceLocation represents a location in source code
type SourceLocation struct {
	Filename string
	Line     int
	Column   int
	Length   int // Length of the token that caused the error
}

type SourceLocatable interface {
	GetSourceLocation() *SourceLocation
}

// ScanError is reported by the scanner for characters it cannot tokenize.
type ScanError struct {
	Line    int
	Column  int
	Message string
}

func (e *ScanError) Error() string {
	return fmt.Sprintf("[line %d] Error: %s", e.Line, e.Message)
}

func (e *ScanError) GetSourceLocation() *SourceLocation {
	return &SourceLocation{Line: e.Line, Column: e.Column, Length: 1}
}

// ParseError is a syntax error at a specific token.
type ParseError struct {
	Token   Token
	Message string
}

func (e *ParseError) Error() string {
	return staticMessage(e.Token, e.Message)
}

func (e *ParseError) GetSourceLocation() *SourceLocation {
	return e.Token.GetSourceLocation()
}

// ResolveError is a static scoping error found before evaluation, such as a
// `return` at top level or reading a local in its own initializer.
type ResolveError struct {
	Token   Token
	Message string
}

func (e *ResolveError) Error() string {
	return staticMessage(e.Token, e.Message)
}

func (e *ResolveError) GetSourceLocation() *SourceLocation {
	return e.Token.GetSourceLocation()
}

func staticMessage(tok Token, msg string) string {
	if tok.Type == EOF {
		return fmt.Sprintf("[line %d] Error at end: %s", tok.Line, msg)
	}
	return fmt.Sprintf("[line %d] Error at '%s': %s", tok.Line, tok.Lexeme, msg)
}

// RuntimeError aborts the running program.
type RuntimeError struct {
	Token   Token
	Message string

	// Err is the underlying failure, for errors raised by native functions.
	Err error
}

func NewRuntimeError(tok Token, format string, args ...any) *RuntimeError {
	return &RuntimeError{
		Token:   tok,
		Message: fmt.Sprintf(format, args...),
	}
}

func (e *RuntimeError) Error() string {
	return fmt.Sprintf("%s\n[line %d]", e.Message, e.Token.Line)
}

func (e *RuntimeError) Unwrap() error {
	return e.Err
}

func (e *RuntimeError) GetSourceLocation() *SourceLocation {
	return e.Token.GetSourceLocation()
}

// ErrorList collects the static errors of one phase.
type ErrorList []error

func (l ErrorList) Error() string {
	msgs := make([]string, len(l))
	for i, err := range l {
		msgs[i] = err.Error()
	}
	return strings.Join(msgs, "\n")
}

func (l ErrorList) Unwrap() []error {
	return l
}

// Err returns nil for an empty list.
func (l ErrorList) Err() error {
	if len(l) == 0 {
		return nil
	}
	return l
}

// IsStatic reports whether err came from scanning, parsing or resolving, as
// opposed to running the program.
func IsStatic(err error) bool {
	var scanErr *ScanError
	var parseErr *ParseError
	var resolveErr *ResolveError
	return errors.As(err, &scanErr) || errors.As(err, &parseErr) || errors.As(err, &resolveErr)
}

// SourceError represents an error with source location information
type SourceError struct {
	Inner    error
	Location *SourceLocation
	Source   string // The source code of the file
}

// NewSourceError creates a new SourceError
func NewSourceError(inner error, location *SourceLocation, source string) *SourceError {
	return &SourceError{
		Inner:    inner,
		Location: location,
		Source:   source,
	}
}

func (e *SourceError) Unwrap() error {
	return e.Inner
}

func (e *SourceError) Error() string {
	if e.Location == nil {
		return e.Inner.Error()
	}

	return e.FormatWithHighlighting()
}

var (
	errHeaderStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("1")).Bold(true)
	errPathStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("4")).Faint(true)
	errGutterStyle = lipgloss.NewStyle().Faint(true)
	errLineStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("4")).Bold(true)
	errCaretStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
)

// FormatWithHighlighting renders the message followed by the offending line
// and two lines of context on either side, with a caret under the token.
func (e *SourceError) FormatWithHighlighting() string {
	lines := strings.Split(e.Source, "\n")
	if e.Location.Line < 1 || e.Location.Line > len(lines) {
		return e.Inner.Error()
	}

	var result strings.Builder

	result.WriteString(errHeaderStyle.Render("Error:") + " " + e.Inner.Error() + "\n")
	result.WriteString("  " + errPathStyle.Render(fmt.Sprintf("--> %s:%d:%d", e.Location.Filename, e.Location.Line, e.Location.Column)) + "\n")
	result.WriteString(" " + errGutterStyle.Render(padLeft("", 3)+" |") + "\n")

	startLine := max(1, e.Location.Line-2)
	endLine := min(len(lines), e.Location.Line+2)

	for i := startLine; i <= endLine; i++ {
		num := padLeft(fmt.Sprintf("%d", i), 3)
		if i == e.Location.Line {
			result.WriteString(" " + errLineStyle.Render(num) + errGutterStyle.Render(" | ") + lines[i-1] + "\n")

			// 1 space + 3 for the line number + " | " + the text before the column
			col := max(1, e.Location.Column)
			prefix := []rune(lines[i-1])
			if col-1 <= len(prefix) {
				prefix = prefix[:col-1]
			}
			padding := strings.Repeat(" ", 1+3+3+ansi.StringWidth(string(prefix)))
			underline := strings.Repeat("^", max(1, e.Location.Length))
			result.WriteString(padding + errCaretStyle.Render(underline) + "\n")
		} else {
			result.WriteString(" " + errGutterStyle.Render(num+" | "+lines[i-1]) + "\n")
		}
	}

	result.WriteString(" " + errGutterStyle.Render(padLeft("", 3)+" |") + "\n")

	return result.String()
}

func padLeft(s string, width int) string {
	if len(s) >= width {
		return s
	}
	return strings.Repeat(" ", width-len(s)) + s
}

// Render formats err for a terminal. Every located error in an ErrorList is
// rendered against source; anything else falls back to its message. With
// color disabled the ANSI styling is stripped.
func Render(err error, filename, source string, color bool) string {
	var out string
	var list ErrorList
	if errors.As(err, &list) {
		parts := make([]string, len(list))
		for i, e := range list {
			parts[i] = renderOne(e, filename, source)
		}
		out = strings.Join(parts, "\n")
	} else {
		out = renderOne(err, filename, source)
	}
	if !color {
		out = ansi.Strip(out)
	}
	return out
}

func renderOne(err error, filename, source string) string {
	var srcErr *SourceError
	if errors.As(err, &srcErr) {
		return srcErr.Error()
	}
	var loc SourceLocatable
	if errors.As(err, &loc) {
		l := loc.GetSourceLocation()
		l.Filename = filename
		return NewSourceError(err, l, source).Error()
	}
	return err.Error()
}
