package lsp

import (
	"context"
	"log/slog"

	"github.com/creachadair/jrpc2"
)

func (h *Handler) handleInitialize(ctx context.Context, req *jrpc2.Request) (any, error) {
	if !req.HasParams() {
		return nil, jrpc2.Errorf(jrpc2.InvalidParams, "missing parameters")
	}

	var params InitializeParams
	if err := req.UnmarshalParams(&params); err != nil {
		return nil, err
	}

	if params.RootURI != "" {
		rootPath, err := fromURI(params.RootURI)
		if err != nil {
			return nil, err
		}
		slog.InfoContext(ctx, "initializing", "root", rootPath)
	}

	return InitializeResult{
		Capabilities: ServerCapabilities{
			TextDocumentSync: TDSKFull,
		},
		ServerInfo: &ServerInfo{
			Name: "lox",
		},
	}, nil
}

func (h *Handler) handleInitialized(ctx context.Context, req *jrpc2.Request) (any, error) {
	return nil, nil
}
