package lsp

import (
	"context"

	"github.com/creachadair/jrpc2"
)

func (h *Handler) handleShutdown(ctx context.Context, req *jrpc2.Request) (any, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	clear(h.files)
	return nil, nil
}

func (h *Handler) handleExit(ctx context.Context, req *jrpc2.Request) (any, error) {
	h.mu.Lock()
	srv := h.srv
	h.mu.Unlock()
	if srv != nil {
		// don't block the exit notification on shutdown
		go srv.Stop()
	}
	return nil, nil
}
