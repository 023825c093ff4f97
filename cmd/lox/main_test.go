package main

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vito/lox/pkg/ioctx"
	"github.com/vito/lox/pkg/lox"
)

func TestExitCode(t *testing.T) {
	_, err := lox.Parse("print ;")
	assert.Equal(t, exitStatic, exitCode(err))

	err = lox.NewSession(nil).Eval(context.Background(), "print -nil;")
	assert.Equal(t, exitRuntime, exitCode(&lox.FileError{Path: "x.lox", Err: err}))

	assert.Equal(t, 1, exitCode(errors.New("cannot read file")))

	fail := lox.NativeFunc("fail", 0, func(context.Context, []lox.Value) (lox.Value, error) {
		return nil, errors.New("boom")
	})
	err = lox.NewSession(lox.Builtins{{Name: "fail", Value: fail}}).Eval(context.Background(), "fail();")
	assert.Equal(t, exitRuntime, exitCode(err))
}

func TestRenderErrorSplitsJoinedErrors(t *testing.T) {
	first := &lox.FileError{Path: "a.lox", Source: "print ;", Err: mustParseErr(t, "print ;")}
	second := errors.New("b.lox: no such file")

	out := renderError(errors.Join(first, second), false)
	lines := strings.Split(out, "\n")
	assert.Equal(t, "Error: [line 1] Error at ';': Expect expression.", lines[0])
	assert.Contains(t, out, "--> a.lox:1:7")
	assert.Equal(t, "b.lox: no such file", lines[len(lines)-1])
}

func mustParseErr(t *testing.T, source string) error {
	t.Helper()
	_, err := lox.Parse(source)
	require.Error(t, err)
	return err
}

func TestRunFilesKeepsArgumentOrder(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(dir, ".git"), 0755))

	var paths []string
	for _, name := range []string{"one", "two", "three"} {
		path := filepath.Join(dir, name+".lox")
		require.NoError(t, os.WriteFile(path, []byte(`print "`+name+`";`), 0644))
		paths = append(paths, path)
	}

	var out bytes.Buffer
	ctx := ioctx.StdoutToContext(context.Background(), &out)
	require.NoError(t, runFiles(ctx, Config{}, paths))
	assert.Equal(t, "one\ntwo\nthree\n", out.String())
}

func TestRunFilesStopsAtFirstFailure(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(dir, ".git"), 0755))

	ok := filepath.Join(dir, "ok.lox")
	bad := filepath.Join(dir, "bad.lox")
	later := filepath.Join(dir, "later.lox")
	require.NoError(t, os.WriteFile(ok, []byte(`print "ok";`), 0644))
	require.NoError(t, os.WriteFile(bad, []byte("print \"partial\";\nprint nil + 1;"), 0644))
	require.NoError(t, os.WriteFile(later, []byte(`print "later";`), 0644))

	var out bytes.Buffer
	ctx := ioctx.StdoutToContext(context.Background(), &out)
	err := runFiles(ctx, Config{}, []string{ok, bad, later})
	require.Error(t, err)
	assert.Equal(t, exitRuntime, exitCode(err))
	assert.Equal(t, "ok\npartial\n", out.String())
}

func TestHistoryEncoding(t *testing.T) {
	for _, entry := range []string{
		"print 1;",
		"fun f() {\n  return 1;\n}",
		`print "a\\b";`,
	} {
		encoded := historyEncode(entry)
		assert.NotContains(t, encoded, "\n")
		assert.Equal(t, entry, historyDecode(encoded))
	}
}

func TestHistoryPersists(t *testing.T) {
	file := filepath.Join(t.TempDir(), "lox", "history")

	h := newReplHistory(file)
	h.Add("var a = 1;")
	h.Add("var a = 1;")
	h.Add("print a;")
	assert.Equal(t, []string{"var a = 1;", "print a;"}, h.Recent(0))

	loaded := newReplHistory(file)
	loaded.Load()
	assert.Equal(t, []string{"var a = 1;", "print a;"}, loaded.Recent(10))
	assert.Equal(t, []string{"print a;"}, loaded.Recent(1))
}

func TestREPLSession(t *testing.T) {
	var out bytes.Buffer
	r := &repl{
		history: newReplHistory(filepath.Join(t.TempDir(), "history")),
		in:      bufio.NewScanner(strings.NewReader("var a = 1;\n:reset\nprint a;\nvar b = 2;\nprint b;\n:quit\nprint \"unreachable\";\n")),
		out:     &out,
	}
	ctx := ioctx.StdoutToContext(context.Background(), &out)
	r.reset(ctx)

	require.NoError(t, r.loop(ctx))

	assert.Contains(t, out.String(), "Global scope reset.")
	assert.Contains(t, out.String(), "Variable 'a' is not defined.")
	assert.Contains(t, out.String(), "> 2\n")
	assert.NotContains(t, out.String(), "unreachable")
}

func TestREPLResetRerunsPreludes(t *testing.T) {
	prelude := filepath.Join(t.TempDir(), "prelude.lox")
	require.NoError(t, os.WriteFile(prelude, []byte(`var greeting = "hello";`), 0644))

	var out bytes.Buffer
	r := &repl{
		preludes: []string{prelude},
		history:  newReplHistory(filepath.Join(t.TempDir(), "history")),
		in:       bufio.NewScanner(strings.NewReader("greeting = \"changed\";\n:reset\nprint greeting;\n")),
		out:      &out,
	}
	ctx := ioctx.StdoutToContext(context.Background(), &out)
	r.reset(ctx)

	require.NoError(t, r.loop(ctx))
	assert.Contains(t, out.String(), "Global scope reset.")
	assert.Contains(t, out.String(), "> hello\n")
	assert.NotContains(t, out.String(), "changed")
}
