package lsp

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"

	"github.com/tliron/commonlog"
	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"

	"strata/internal/config"
	"strata/internal/driver"
)

var log = commonlog.GetLogger("strata.lsp")

// SemanticTokenTypes is the token legend advertised to clients.
var SemanticTokenTypes = []string{
	"function",
	"parameter",
	"variable",
	"type",
	"keyword",
	"operator",
	"number",
	"comment",
	"string",
}

// Define the set of supported semantic token modifiers
var SemanticTokenModifiers = []string{
	"declaration",
	"readonly",
}

// Handler implements the LSP server handlers for strata files
type Handler struct {
	mu      sync.RWMutex
	cfg     *config.Config
	results map[string]*driver.Result
}

// NewHandler creates a handler that compiles documents with cfg.
func NewHandler(cfg *config.Config) *Handler {
	if cfg == nil {
		cfg = config.Default()
	}
	return &Handler{
		cfg:     cfg,
		results: make(map[string]*driver.Result),
	}
}

// Initialize advertises the server's capabilities
func (h *Handler) Initialize(ctx *glsp.Context, params *protocol.InitializeParams) (any, error) {
	log.Info("initialize")

	return &protocol.InitializeResult{
		Capabilities: protocol.ServerCapabilities{
			TextDocumentSync: &protocol.TextDocumentSyncOptions{
				OpenClose: ptrBool(true),
				Change:    ptrSyncKind(protocol.TextDocumentSyncKindFull),
			},
			HoverProvider:              true,
			DocumentFormattingProvider: true,
			SemanticTokensProvider: &protocol.SemanticTokensOptions{
				Legend: protocol.SemanticTokensLegend{
					TokenTypes:     SemanticTokenTypes,
					TokenModifiers: SemanticTokenModifiers,
				},
				Full: ptrBool(true),
			},
		},
	}, nil
}

func (h *Handler) Initialized(ctx *glsp.Context, params *protocol.InitializedParams) error {
	log.Info("initialized")
	return nil
}

func (h *Handler) Shutdown(ctx *glsp.Context) error {
	log.Info("shutdown")
	return nil
}

func (h *Handler) SetTrace(ctx *glsp.Context, params *protocol.SetTraceParams) error {
	log.Debugf("trace set to %s", params.Value)
	return nil
}

// TextDocumentDidOpen compiles the opened document and publishes its
// diagnostics.
func (h *Handler) TextDocumentDidOpen(ctx *glsp.Context, params *protocol.DidOpenTextDocumentParams) error {
	log.Infof("opened %s", params.TextDocument.URI)
	return h.update(ctx, params.TextDocument.URI, params.TextDocument.Text)
}

// TextDocumentDidChange recompiles the document. The server asks for full
// synchronization, so the last change holds the whole text.
func (h *Handler) TextDocumentDidChange(ctx *glsp.Context, params *protocol.DidChangeTextDocumentParams) error {
	log.Debugf("changed %s", params.TextDocument.URI)
	for i := len(params.ContentChanges) - 1; i >= 0; i-- {
		switch change := params.ContentChanges[i].(type) {
		case protocol.TextDocumentContentChangeEventWhole:
			return h.update(ctx, params.TextDocument.URI, change.Text)
		case protocol.TextDocumentContentChangeEvent:
			if change.Range == nil {
				return h.update(ctx, params.TextDocument.URI, change.Text)
			}
		}
	}
	_, err := h.load(ctx, params.TextDocument.URI)
	return err
}

func (h *Handler) TextDocumentDidClose(ctx *glsp.Context, params *protocol.DidCloseTextDocumentParams) error {
	log.Infof("closed %s", params.TextDocument.URI)

	path, err := uriToPath(params.TextDocument.URI)
	if err != nil {
		return err
	}
	h.mu.Lock()
	delete(h.results, path)
	h.mu.Unlock()
	return nil
}

// TextDocumentSemanticTokensFull handles semantic token requests for the entire document
func (h *Handler) TextDocumentSemanticTokensFull(ctx *glsp.Context, params *protocol.SemanticTokensParams) (*protocol.SemanticTokens, error) {
	res, err := h.load(ctx, params.TextDocument.URI)
	if err != nil {
		return nil, err
	}
	return &protocol.SemanticTokens{Data: encodeSemanticTokens(collectSemanticTokens(res.File))}, nil
}

// TextDocumentFormatting replaces the document with its canonical form.
// Documents that do not parse are left alone.
func (h *Handler) TextDocumentFormatting(ctx *glsp.Context, params *protocol.DocumentFormattingParams) ([]protocol.TextEdit, error) {
	res, err := h.load(ctx, params.TextDocument.URI)
	if err != nil {
		return nil, err
	}
	if res.File == nil {
		return nil, nil
	}
	formatted := res.File.String()
	if formatted == res.Source {
		return nil, nil
	}
	lines := strings.Count(res.Source, "\n")
	return []protocol.TextEdit{{
		Range: protocol.Range{
			Start: protocol.Position{Line: 0, Character: 0},
			End:   protocol.Position{Line: uint32(lines + 1), Character: 0},
		},
		NewText: formatted,
	}}, nil
}

// TextDocumentHover shows the definitions that reach the variable under
// the cursor.
func (h *Handler) TextDocumentHover(ctx *glsp.Context, params *protocol.HoverParams) (*protocol.Hover, error) {
	res, err := h.load(ctx, params.TextDocument.URI)
	if err != nil {
		return nil, err
	}
	// Resolving a use may materialize joins in functions that did not freeze.
	h.mu.Lock()
	text, rng, ok := hoverAt(res, params.Position)
	h.mu.Unlock()
	if !ok {
		return nil, nil
	}
	return &protocol.Hover{
		Contents: protocol.MarkupContent{Kind: protocol.MarkupKindPlainText, Value: text},
		Range:    &rng,
	}, nil
}

// Result returns the last compilation of the document at uri.
func (h *Handler) Result(uri protocol.DocumentUri) (*driver.Result, bool) {
	path, err := uriToPath(uri)
	if err != nil {
		return nil, false
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	res, ok := h.results[path]
	return res, ok
}

// load returns the cached compilation, reading the file from disk when the
// document was never opened.
func (h *Handler) load(ctx *glsp.Context, uri protocol.DocumentUri) (*driver.Result, error) {
	if res, ok := h.Result(uri); ok {
		return res, nil
	}
	path, err := uriToPath(uri)
	if err != nil {
		return nil, err
	}
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file %s: %w", path, err)
	}
	if err := h.update(ctx, uri, string(content)); err != nil {
		return nil, err
	}
	res, _ := h.Result(uri)
	return res, nil
}

func (h *Handler) update(ctx *glsp.Context, uri protocol.DocumentUri, content string) error {
	path, err := uriToPath(uri)
	if err != nil {
		return err
	}
	res, err := driver.Compile(context.Background(), path, content, h.cfg)
	if err != nil {
		return fmt.Errorf("failed to compile %s: %w", path, err)
	}

	h.mu.Lock()
	h.results[path] = res
	h.mu.Unlock()

	sendDiagnosticNotification(ctx, uri, ConvertDiagnostics(res.Diagnostics))
	return nil
}

// Convert URI to platform-local file path
func uriToPath(rawURI string) (string, error) {
	u, err := url.Parse(rawURI)
	if err != nil {
		return "", fmt.Errorf("invalid URI %s: %w", rawURI, err)
	}

	path := u.Path

	// On Windows, remove leading slash (e.g., /C:/...) → C:/...
	if runtime.GOOS == "windows" && strings.HasPrefix(path, "/") && len(path) > 3 && path[2] == ':' {
		path = path[1:]
	}

	return filepath.FromSlash(path), nil
}

func sendDiagnosticNotification(ctx *glsp.Context, uri protocol.URI, diagnostics []protocol.Diagnostic) {
	if ctx == nil || ctx.Notify == nil {
		return
	}
	if diagnostics == nil {
		diagnostics = []protocol.Diagnostic{}
	}
	log.Debugf("publishing %d diagnostics for %s", len(diagnostics), uri)

	ctx.Notify(protocol.ServerTextDocumentPublishDiagnostics, &protocol.PublishDiagnosticsParams{
		URI:         uri,
		Diagnostics: diagnostics,
	})
}

func ptrBool(b bool) *bool {
	return &b
}

func ptrSyncKind(k protocol.TextDocumentSyncKind) *protocol.TextDocumentSyncKind {
	return &k
}
