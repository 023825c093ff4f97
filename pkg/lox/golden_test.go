package lox

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"gotest.tools/v3/golden"

	"github.com/vito/lox/pkg/ioctx"
)

// TestPrograms runs each testdata/*.lox program and compares its output,
// followed by any error, against the matching .golden file. Run with
// -update to rewrite them.
func TestPrograms(t *testing.T) {
	files, err := filepath.Glob(filepath.Join("testdata", "*.lox"))
	require.NoError(t, err)
	require.NotEmpty(t, files)

	for _, file := range files {
		name := strings.TrimSuffix(filepath.Base(file), ".lox")
		t.Run(name, func(t *testing.T) {
			source, err := os.ReadFile(file)
			require.NoError(t, err)

			var stdout bytes.Buffer
			ctx := ioctx.StdoutToContext(context.Background(), &stdout)
			err = NewSession(DefaultBuiltins()).Eval(ctx, string(source))

			output := stdout.String()
			if err != nil {
				output += "--- error\n" + err.Error() + "\n"
			}
			golden.Assert(t, output, name+".golden")
		})
	}
}
