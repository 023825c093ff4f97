package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const maxHistoryEntries = 1000

// replHistory keeps REPL input lines and persists them to a file.
type replHistory struct {
	entries []string
	file    string
}

func newReplHistory(file string) *replHistory {
	return &replHistory{file: file}
}

// historyFilePath returns the path to the history file, respecting
// XDG_DATA_HOME (default ~/.local/share/lox/history).
func historyFilePath() string {
	dir := os.Getenv("XDG_DATA_HOME")
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return filepath.Join(os.TempDir(), "lox_history")
		}
		dir = filepath.Join(home, ".local", "share")
	}
	return filepath.Join(dir, "lox", "history")
}

// Add appends a line to history (skipping consecutive duplicates) and
// persists it to disk.
func (h *replHistory) Add(line string) {
	if len(h.entries) > 0 && h.entries[len(h.entries)-1] == line {
		return
	}
	h.entries = append(h.entries, line)
	h.appendToFile(line)
}

// Recent returns up to n of the newest entries, oldest first.
func (h *replHistory) Recent(n int) []string {
	if n <= 0 || n > len(h.entries) {
		n = len(h.entries)
	}
	return h.entries[len(h.entries)-n:]
}

// Load reads history from the file. A missing file is not an error.
func (h *replHistory) Load() {
	data, err := os.ReadFile(h.file)
	if err != nil {
		return
	}
	for line := range strings.SplitSeq(strings.TrimSpace(string(data)), "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			h.entries = append(h.entries, historyDecode(line))
		}
	}
	if len(h.entries) > maxHistoryEntries {
		h.entries = h.entries[len(h.entries)-maxHistoryEntries:]
		h.rewriteFile()
	}
}

func (h *replHistory) appendToFile(line string) {
	_ = os.MkdirAll(filepath.Dir(h.file), 0755)
	f, err := os.OpenFile(h.file, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return
	}
	defer f.Close()
	_, _ = fmt.Fprintln(f, historyEncode(line))
}

func (h *replHistory) rewriteFile() {
	_ = os.MkdirAll(filepath.Dir(h.file), 0755)
	var buf strings.Builder
	for _, entry := range h.entries {
		buf.WriteString(historyEncode(entry))
		buf.WriteByte('\n')
	}
	_ = os.WriteFile(h.file, []byte(buf.String()), 0644)
}

// historyEncode escapes an entry for single-line storage.
// Newlines become literal \n, backslashes become \\.
func historyEncode(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, "\n", `\n`)
	return s
}

func historyDecode(s string) string {
	var buf strings.Builder
	buf.Grow(len(s))
	for i := 0; i < len(s); i++ {
		if s[i] == '\\' && i+1 < len(s) {
			switch s[i+1] {
			case 'n':
				buf.WriteByte('\n')
				i++
			case '\\':
				buf.WriteByte('\\')
				i++
			default:
				buf.WriteByte(s[i])
			}
		} else {
			buf.WriteByte(s[i])
		}
	}
	return buf.String()
}
