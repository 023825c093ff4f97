// Package ioctx carries the writers a program prints to in a
// context.Context, so evaluation code never touches os.Stdout directly.
package ioctx

import (
	"context"
	"io"
)

type stdoutKey struct{}
type stderrKey struct{}

// StdoutToContext returns a context whose print output goes to w.
func StdoutToContext(ctx context.Context, w io.Writer) context.Context {
	return context.WithValue(ctx, stdoutKey{}, w)
}

// StdoutFromContext returns the writer installed by StdoutToContext, or
// io.Discard.
func StdoutFromContext(ctx context.Context) io.Writer {
	return writerFrom(ctx, stdoutKey{})
}

func StderrToContext(ctx context.Context, w io.Writer) context.Context {
	return context.WithValue(ctx, stderrKey{}, w)
}

func StderrFromContext(ctx context.Context) io.Writer {
	return writerFrom(ctx, stderrKey{})
}

func writerFrom(ctx context.Context, key any) io.Writer {
	if w, ok := ctx.Value(key).(io.Writer); ok && w != nil {
		return w
	}
	return io.Discard
}
