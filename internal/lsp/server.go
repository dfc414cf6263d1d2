package lsp

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"ergols/internal/analysis"
	"ergols/internal/diag"
	"ergols/internal/source"
	"ergols/internal/trace"
)

var (
	// ErrExit signals a graceful shutdown after receiving "exit".
	ErrExit = errors.New("lsp exit")
	// ErrExitWithoutShutdown signals an "exit" without a preceding "shutdown".
	ErrExitWithoutShutdown = errors.New("lsp exit without shutdown")
)

const defaultDebounce = 250 * time.Millisecond

// ServerOptions configures LSP server behavior.
type ServerOptions struct {
	// Session runs the analyses. Required.
	Session        *analysis.Session
	Debounce       time.Duration
	MaxDiagnostics int
	// Log receives server log lines; defaults to stderr.
	Log     io.Writer
	Version string
	// Ring, when set, is dumped to Log if an analysis panics.
	Ring *trace.RingTracer
}

type document struct {
	text    string
	version int
}

// Server handles stdio JSON-RPC for ErgoScript documents.
type Server struct {
	in     *bufio.Reader
	out    *bufio.Writer
	sendMu sync.Mutex

	mu                sync.Mutex
	docs              map[string]*document
	timers            map[string]*time.Timer
	published         map[string]struct{}
	shutdownRequested bool
	stopped           bool
	traceLSP          bool
	wg                sync.WaitGroup

	session        *analysis.Session
	debounce       time.Duration
	maxDiagnostics int
	baseCtx        context.Context
	log            io.Writer
	version        string
	ring           *trace.RingTracer
}

// NewServer constructs a new LSP server.
func NewServer(in io.Reader, out io.Writer, opts ServerOptions) *Server {
	debounce := opts.Debounce
	if debounce <= 0 {
		debounce = defaultDebounce
	}
	logw := opts.Log
	if logw == nil {
		logw = os.Stderr
	}
	s := &Server{
		in:             bufio.NewReader(in),
		out:            bufio.NewWriter(out),
		docs:           make(map[string]*document),
		timers:         make(map[string]*time.Timer),
		published:      make(map[string]struct{}),
		session:        opts.Session,
		debounce:       debounce,
		maxDiagnostics: opts.MaxDiagnostics,
		baseCtx:        context.Background(),
		log:            logw,
		version:        opts.Version,
		ring:           opts.Ring,
	}
	s.session.OnEarly(s.publishEarly)
	return s
}

// Run serves LSP requests until exit or EOF.
func (s *Server) Run(ctx context.Context) error {
	s.baseCtx = ctx
	defer s.stop()
	for {
		payload, err := readMessage(s.in)
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}
		var msg rpcMessage
		if err := json.Unmarshal(payload, &msg); err != nil {
			s.logf("failed to parse message: %v", err)
			continue
		}
		if msg.Method == "" {
			continue
		}
		if err := s.handleMessage(&msg); err != nil {
			return err
		}
	}
}

func (s *Server) handleMessage(msg *rpcMessage) error {
	if s.isShuttingDown() && msg.Method != "exit" {
		if len(msg.ID) > 0 {
			return s.sendError(msg.ID, codeInvalidRequest, "server is shutting down")
		}
		return nil
	}
	switch msg.Method {
	case "initialize":
		return s.handleInitialize(msg)
	case "initialized":
		return nil
	case "shutdown":
		return s.handleShutdown(msg)
	case "exit":
		if s.isShuttingDown() {
			return ErrExit
		}
		return ErrExitWithoutShutdown
	case "workspace/didChangeConfiguration":
		return s.handleDidChangeConfiguration(msg)
	case "textDocument/didOpen":
		return s.handleDidOpen(msg)
	case "textDocument/didChange":
		return s.handleDidChange(msg)
	case "textDocument/didSave":
		return s.handleDidSave(msg)
	case "textDocument/didClose":
		return s.handleDidClose(msg)
	case "textDocument/hover":
		return s.handleHover(msg)
	case "textDocument/completion":
		return s.handleCompletion(msg)
	default:
		if len(msg.ID) > 0 {
			return s.sendError(msg.ID, codeMethodNotFound, "method not found")
		}
		return nil
	}
}

func (s *Server) handleInitialize(msg *rpcMessage) error {
	var params initializeParams
	if len(msg.Params) > 0 {
		if err := json.Unmarshal(msg.Params, &params); err != nil {
			return s.sendError(msg.ID, codeInvalidParams, "invalid params")
		}
	}
	s.applySettings(params.InitializationOptions)

	result := initializeResult{
		Capabilities: serverCapabilities{
			TextDocumentSync: textDocumentSyncOptions{
				OpenClose: true,
				Change:    syncIncremental,
				Save:      saveOptions{IncludeText: true},
			},
			HoverProvider: true,
			CompletionProvider: &completionOptions{
				TriggerCharacters: []string{".", " "},
			},
		},
		ServerInfo: &serverInfo{Name: "ergols", Version: s.version},
	}
	return s.sendResponse(msg.ID, result)
}

func (s *Server) handleShutdown(msg *rpcMessage) error {
	s.mu.Lock()
	s.shutdownRequested = true
	for uri, t := range s.timers {
		t.Stop()
		delete(s.timers, uri)
	}
	s.mu.Unlock()
	s.session.Close()
	s.clearPublishedDiagnostics()
	return s.sendResponse(msg.ID, nil)
}

func (s *Server) handleDidOpen(msg *rpcMessage) error {
	var params didOpenTextDocumentParams
	if err := json.Unmarshal(msg.Params, &params); err != nil {
		return s.invalidNotification(msg, err)
	}
	uri := canonicalURI(params.TextDocument.URI)
	if uri == "" {
		return nil
	}
	s.mu.Lock()
	s.docs[uri] = &document{text: params.TextDocument.Text, version: params.TextDocument.Version}
	s.mu.Unlock()
	s.scheduleAnalysis(uri)
	return nil
}

func (s *Server) handleDidChange(msg *rpcMessage) error {
	var params didChangeTextDocumentParams
	if err := json.Unmarshal(msg.Params, &params); err != nil {
		return s.invalidNotification(msg, err)
	}
	uri := canonicalURI(params.TextDocument.URI)
	if uri == "" {
		return nil
	}
	s.mu.Lock()
	doc := s.docs[uri]
	if doc == nil {
		s.mu.Unlock()
		s.logf("didChange for unopened document %s", uri)
		return nil
	}
	old := doc.version
	doc.text = applyChanges(doc.text, params.ContentChanges)
	doc.version = params.TextDocument.Version
	traceLSP := s.traceLSP
	s.mu.Unlock()
	if traceLSP {
		s.logf("didChange: uri=%s version=%d->%d", uri, old, params.TextDocument.Version)
	}
	s.scheduleAnalysis(uri)
	return nil
}

func (s *Server) handleDidSave(msg *rpcMessage) error {
	var params didSaveTextDocumentParams
	if err := json.Unmarshal(msg.Params, &params); err != nil {
		return s.invalidNotification(msg, err)
	}
	uri := canonicalURI(params.TextDocument.URI)
	if uri == "" {
		return nil
	}
	s.mu.Lock()
	doc := s.docs[uri]
	if doc != nil && params.Text != nil {
		doc.text = *params.Text
	}
	s.mu.Unlock()
	if doc != nil {
		s.scheduleAnalysis(uri)
	}
	return nil
}

func (s *Server) handleDidClose(msg *rpcMessage) error {
	var params didCloseTextDocumentParams
	if err := json.Unmarshal(msg.Params, &params); err != nil {
		return s.invalidNotification(msg, err)
	}
	uri := canonicalURI(params.TextDocument.URI)
	if uri == "" {
		return nil
	}
	s.mu.Lock()
	delete(s.docs, uri)
	if t := s.timers[uri]; t != nil {
		t.Stop()
		delete(s.timers, uri)
	}
	_, hadDiagnostics := s.published[uri]
	delete(s.published, uri)
	s.mu.Unlock()
	s.session.Forget(uri)
	if hadDiagnostics {
		if err := s.sendPublish(uri, nil, nil); err != nil {
			s.logf("failed to clear diagnostics: %v", err)
		}
	}
	return nil
}

// invalidNotification logs malformed notification params; notifications
// have no reply channel.
func (s *Server) invalidNotification(msg *rpcMessage, err error) error {
	s.logf("%s: invalid params: %v", msg.Method, err)
	return nil
}

func (s *Server) scheduleAnalysis(uri string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped || s.shutdownRequested {
		return
	}
	if t := s.timers[uri]; t != nil {
		t.Stop()
	}
	s.timers[uri] = time.AfterFunc(s.debounce, func() {
		s.analyzeDocument(uri)
	})
}

func (s *Server) analyzeDocument(uri string) {
	s.mu.Lock()
	doc := s.docs[uri]
	if doc == nil || s.stopped || s.shutdownRequested {
		s.mu.Unlock()
		return
	}
	delete(s.timers, uri)
	text, version := doc.text, doc.version
	traceLSP := s.traceLSP
	s.wg.Add(1)
	s.mu.Unlock()
	defer s.wg.Done()
	defer s.recoverAnalysis(uri)

	res, ok := s.session.Submit(s.baseCtx, uri, text)
	if traceLSP {
		s.logf("analysis: uri=%s version=%d request=%s status=%s errors=%d timings=%.2fms published=%v",
			uri, version, res.Request.ID, res.Outcome.Status, len(res.Outcome.Errors), res.Timings.TotalMS, ok)
	}
	if !ok {
		return
	}
	if res.Outcome.Status == diag.StatusDegraded {
		s.logf("%s: %s", uri, res.Outcome.Note)
	}
	s.publishIfCurrent(uri, text, res.Outcome)
}

func (s *Server) publishEarly(req analysis.Request, out diag.Outcome) {
	if req.Document == "" {
		return
	}
	s.publishIfCurrent(req.Document, req.Source, out)
}

// publishIfCurrent publishes out only while the document still holds text.
func (s *Server) publishIfCurrent(uri, text string, out diag.Outcome) {
	s.mu.Lock()
	doc := s.docs[uri]
	if doc == nil || doc.text != text || s.shutdownRequested {
		s.mu.Unlock()
		return
	}
	version := doc.version
	s.published[uri] = struct{}{}
	s.mu.Unlock()

	list := toDiagnostics(source.NewLines(text), out, s.maxDiagnostics)
	if err := s.sendPublish(uri, &version, list); err != nil {
		s.logf("failed to publish diagnostics: %v", err)
	}
}

func (s *Server) recoverAnalysis(uri string) {
	r := recover()
	if r == nil {
		return
	}
	s.logf("analysis of %s panicked: %v", uri, r)
	if s.ring != nil {
		_ = s.ring.Dump(s.log, trace.FormatText)
	}
}

func (s *Server) clearPublishedDiagnostics() {
	s.mu.Lock()
	uris := make([]string, 0, len(s.published))
	for uri := range s.published {
		uris = append(uris, uri)
	}
	s.published = make(map[string]struct{})
	s.mu.Unlock()
	for _, uri := range uris {
		if err := s.sendPublish(uri, nil, nil); err != nil {
			s.logf("failed to clear diagnostics: %v", err)
		}
	}
}

func (s *Server) stop() {
	s.mu.Lock()
	s.stopped = true
	for uri, t := range s.timers {
		t.Stop()
		delete(s.timers, uri)
	}
	s.mu.Unlock()
	s.session.Close()
	s.wg.Wait()
}

func (s *Server) isShuttingDown() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.shutdownRequested
}

func (s *Server) sendResponse(id json.RawMessage, result any) error {
	msg := map[string]any{
		"jsonrpc": "2.0",
		"id":      id,
		"result":  result,
	}
	return s.send(msg)
}

func (s *Server) sendError(id json.RawMessage, code int, message string) error {
	msg := map[string]any{
		"jsonrpc": "2.0",
		"id":      id,
		"error":   rpcError{Code: code, Message: message},
	}
	return s.send(msg)
}

func (s *Server) sendPublish(uri string, version *int, list []lspDiagnostic) error {
	if list == nil {
		list = []lspDiagnostic{}
	}
	msg := map[string]any{
		"jsonrpc": "2.0",
		"method":  "textDocument/publishDiagnostics",
		"params": publishDiagnosticsParams{
			URI:         uri,
			Version:     version,
			Diagnostics: list,
		},
	}
	return s.send(msg)
}

func (s *Server) send(msg any) error {
	payload, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	s.sendMu.Lock()
	defer s.sendMu.Unlock()
	if err := writeMessage(s.out, payload); err != nil {
		return err
	}
	return s.out.Flush()
}

func (s *Server) logf(format string, args ...any) {
	fmt.Fprintf(s.log, "ergols: "+format+"\n", args...)
}
