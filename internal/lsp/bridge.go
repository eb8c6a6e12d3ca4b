// Package lsp implements the LSP Bridge (§4.2): a synchronous
// request/response wrapper around a per-(root,language) language-server
// subprocess, grounded on original_source/lsp/src/{client.rs,lib.rs} --
// the Cmd/Res command-channel shape and the multi-candidate mock/test
// filtering in Position::from_def are carried over directly, translated
// from async-lsp/tokio onto sourcegraph/jsonrpc2 + sourcegraph/go-lsp.
package lsp

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"

	"github.com/sourcegraph/go-lsp"
	"github.com/sourcegraph/jsonrpc2"
)

// ErrNoLanguageServer is returned when a language has no configured
// executable. The Builder treats this as a Resolve-class degrade (§7):
// symbol resolution falls back to syntax-only matches, it does not abort
// the build.
var ErrNoLanguageServer = errors.New("lsp: no language server configured")

// ServerCommand names the executable (+args) used to start a language
// server for one language (§4.2: gopls, typescript-language-server
// --stdio, solargraph stdio).
type ServerCommand struct {
	Language string
	Command  string
	Args     []string
}

// DefaultServers is the out-of-the-box mapping SPEC_FULL.md §4.2 names.
func DefaultServers() []ServerCommand {
	return []ServerCommand{
		{Language: "go", Command: "gopls", Args: nil},
		{Language: "reactjs", Command: "typescript-language-server", Args: []string{"--stdio"}},
		{Language: "ruby", Command: "solargraph", Args: []string{"stdio"}},
	}
}

// Position is a zero-indexed (file, line, col) triple, relative to the
// bridge's root.
type Position struct {
	File string
	Line int
	Col  int
}

// Bridge is a synchronous client for one language server subprocess
// rooted at a single directory. One Bridge per (root, language) pair, per
// §4.2 -- it is not safe to reuse across roots.
type Bridge struct {
	root   string
	lang   string
	cmd    *exec.Cmd
	conn   *jsonrpc2.Conn
	stdin  io.WriteCloser
	mu     sync.Mutex
	ready  bool
}

// Start spawns the language server subprocess and performs the
// initialize/initialized handshake. Returns ErrNoLanguageServer if cmd.Command
// is empty.
func Start(ctx context.Context, root string, sc ServerCommand) (*Bridge, error) {
	if sc.Command == "" {
		return nil, ErrNoLanguageServer
	}
	cmd := exec.CommandContext(ctx, sc.Command, sc.Args...)
	cmd.Dir = root
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("lsp: stdin pipe: %w", err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("lsp: stdout pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("lsp: start %s: %w", sc.Command, err)
	}

	stream := jsonrpc2.NewBufferedStream(rwc{stdout, stdin}, jsonrpc2.VSCodeObjectCodec{})
	conn := jsonrpc2.NewConn(ctx, stream, jsonrpc2.HandlerWithError(noopHandler))

	b := &Bridge{root: root, lang: sc.Language, cmd: cmd, conn: conn, stdin: stdin}
	if err := b.initialize(ctx); err != nil {
		_ = b.Stop()
		return nil, err
	}
	return b, nil
}

type rwc struct {
	io.Reader
	io.WriteCloser
}

func (rwc) Close() error { return nil }

func noopHandler(ctx context.Context, conn *jsonrpc2.Conn, req *jsonrpc2.Request) (interface{}, error) {
	// Notifications from the server (diagnostics, progress, log messages) are
	// ignored -- the bridge only cares about request/response pairs it
	// initiates itself.
	return nil, nil
}

func (b *Bridge) initialize(ctx context.Context) error {
	rootURI := lsp.DocumentURI("file://" + filepath.ToSlash(b.root))
	params := lsp.InitializeParams{
		RootURI: rootURI,
		Capabilities: lsp.ClientCapabilities{
			Workspace: lsp.WorkspaceClientCapabilities{},
		},
	}
	var result lsp.InitializeResult
	if err := b.conn.Call(ctx, "initialize", params, &result); err != nil {
		return fmt.Errorf("lsp: initialize: %w", err)
	}
	if err := b.conn.Notify(ctx, "initialized", struct{}{}); err != nil {
		return fmt.Errorf("lsp: initialized notify: %w", err)
	}
	b.mu.Lock()
	b.ready = true
	b.mu.Unlock()
	return nil
}

func (b *Bridge) fileURI(file string) lsp.DocumentURI {
	abs := filepath.Join(b.root, file)
	return lsp.DocumentURI("file://" + filepath.ToSlash(abs))
}

func (b *Bridge) stripRoot(uri lsp.DocumentURI) string {
	u, err := url.Parse(string(uri))
	path := string(uri)
	if err == nil {
		path = u.Path
	}
	rel, err := filepath.Rel(b.root, filepath.FromSlash(path))
	if err != nil {
		return path
	}
	return filepath.ToSlash(rel)
}

// DidOpen announces a file's contents to the server.
func (b *Bridge) DidOpen(ctx context.Context, file, text, languageID string) error {
	params := lsp.DidOpenTextDocumentParams{
		TextDocument: lsp.TextDocumentItem{
			URI:        b.fileURI(file),
			LanguageID: languageID,
			Version:    0,
			Text:       text,
		},
	}
	return b.conn.Notify(ctx, "textDocument/didOpen", params)
}

// GotoDefinition resolves the symbol at pos, applying the mock/test
// filtering original_source/lsp/src/lib.rs's non_mock_location does when
// multiple candidates come back.
func (b *Bridge) GotoDefinition(ctx context.Context, pos Position) (*Position, error) {
	var locs []lsp.Location
	params := lsp.TextDocumentPositionParams{
		TextDocument: lsp.TextDocumentIdentifier{URI: b.fileURI(pos.File)},
		Position:     lsp.Position{Line: pos.Line, Character: pos.Col},
	}
	if err := b.conn.Call(ctx, "textDocument/definition", params, &locs); err != nil {
		return nil, fmt.Errorf("lsp: definition: %w", err)
	}
	return b.pickLocation(locs), nil
}

// GotoImplementations mirrors GotoDefinition for the implementation request
// (used to resolve trait/interface operands to concrete types).
func (b *Bridge) GotoImplementations(ctx context.Context, pos Position) (*Position, error) {
	var locs []lsp.Location
	params := lsp.TextDocumentPositionParams{
		TextDocument: lsp.TextDocumentIdentifier{URI: b.fileURI(pos.File)},
		Position:     lsp.Position{Line: pos.Line, Character: pos.Col},
	}
	if err := b.conn.Call(ctx, "textDocument/implementation", params, &locs); err != nil {
		return nil, fmt.Errorf("lsp: implementation: %w", err)
	}
	return b.pickLocation(locs), nil
}

// Hover returns the first hover content string, or "" if the server has
// nothing to say about that position.
func (b *Bridge) Hover(ctx context.Context, pos Position) (string, error) {
	var result lsp.Hover
	params := lsp.TextDocumentPositionParams{
		TextDocument: lsp.TextDocumentIdentifier{URI: b.fileURI(pos.File)},
		Position:     lsp.Position{Line: pos.Line, Character: pos.Col},
	}
	if err := b.conn.Call(ctx, "textDocument/hover", params, &result); err != nil {
		return "", fmt.Errorf("lsp: hover: %w", err)
	}
	if len(result.Contents) == 0 {
		return "", nil
	}
	return result.Contents[0].Value, nil
}

// pickLocation implements the non_mock_location filter: when more than one
// candidate location comes back and exactly one survives the mock/test/spec
// filter, prefer it; otherwise fall back to the first candidate.
func (b *Bridge) pickLocation(locs []lsp.Location) *Position {
	if len(locs) == 0 {
		return nil
	}
	if len(locs) == 1 {
		return b.toPosition(locs[0])
	}
	var kept []lsp.Location
	for _, l := range locs {
		if nonMockLocation(string(l.URI)) {
			kept = append(kept, l)
		}
	}
	if len(kept) == 1 {
		return b.toPosition(kept[0])
	}
	return b.toPosition(locs[0])
}

func (b *Bridge) toPosition(l lsp.Location) *Position {
	return &Position{
		File: b.stripRoot(l.URI),
		Line: l.Range.Start.Line,
		Col:  l.Range.Start.Character,
	}
}

func nonMockLocation(path string) bool {
	for _, needle := range []string{"mock", "test", "spec", "__"} {
		if strings.Contains(path, needle) {
			return false
		}
	}
	return true
}

// Ready reports whether the initialize handshake has completed.
func (b *Bridge) Ready() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.ready
}

// Stop shuts the server down cleanly (shutdown/exit) and kills the
// subprocess if it doesn't exit on its own.
func (b *Bridge) Stop() error {
	ctx := context.Background()
	_ = b.conn.Call(ctx, "shutdown", nil, nil)
	_ = b.conn.Notify(ctx, "exit", nil)
	_ = b.conn.Close()
	if b.cmd != nil && b.cmd.Process != nil {
		_ = b.cmd.Process.Kill()
	}
	return nil
}
