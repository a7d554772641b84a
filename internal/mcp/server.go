// Package mcp implements the stdio JSON-RPC tool server. It is the
// process boundary: tool handlers translate between loosely-typed RPC
// arguments and the typed source operations, and every handler failure
// is reported inside the result envelope so the serving loop never dies
// on a bad call.
package mcp

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"time"

	"github.com/google/uuid"

	"juradoc/internal/corpus"
	"juradoc/internal/source/beck"
	"juradoc/internal/source/gii"
	"juradoc/internal/telemetry"
)

// ---------- JSON-RPC skeleton ----------

type rpcReq struct {
	JSONRPC string         `json:"jsonrpc"`
	ID      any            `json:"id"`
	Method  string         `json:"method"`
	Params  map[string]any `json:"params"`
}

type rpcResp struct {
	JSONRPC string         `json:"jsonrpc"`
	ID      any            `json:"id"`
	Result  map[string]any `json:"result,omitempty"`
	Error   *rpcError      `json:"error,omitempty"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// maxFrameSize bounds one request line; sized for corpus ingest calls
// carrying full document texts.
const maxFrameSize = 16 * 1024 * 1024

func writeResp(w io.Writer, id any, result map[string]any, err error) {
	resp := rpcResp{JSONRPC: "2.0", ID: id}
	if err != nil {
		resp.Error = &rpcError{Code: -32000, Message: err.Error()}
	} else {
		resp.Result = result
	}
	_ = json.NewEncoder(w).Encode(resp)
}

// ---------- Result envelope ----------

// textResult packs a handler payload into the tool-result envelope:
// one text content block holding the JSON-encoded payload.
func textResult(payload any) (map[string]any, error) {
	b, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return map[string]any{
		"content": []map[string]any{{"type": "text", "text": string(b)}},
		"isError": false,
	}, nil
}

// errorResult packs a handler error into an error-flagged envelope. The
// client sees the message as ordinary tool output, not an RPC failure.
func errorResult(err error) map[string]any {
	return map[string]any{
		"content": []map[string]any{{"type": "text", "text": err.Error()}},
		"isError": true,
	}
}

// ---------- Tool registry ----------

// ToolDesc describes a single tool, including its input schema.
type ToolDesc struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	InputSchema map[string]any `json:"input_schema"`
}

// Server holds the shared dependencies behind the tool surface. Beck is
// nil when no portal credentials are configured; its tools are then not
// advertised and not callable.
type Server struct {
	Beck   *beck.Source
	GII    *gii.Source
	Corpus *corpus.Manager

	CallTimeout time.Duration

	logger *log.Logger
	tools  []ToolDesc
}

// NewServer wires the tool surface. Pass beckSrc == nil to run without
// the subscription portal.
func NewServer(beckSrc *beck.Source, giiSrc *gii.Source, corp *corpus.Manager, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.New(log.Writer(), "[MCP] ", log.LstdFlags)
	}
	srv := &Server{
		Beck:        beckSrc,
		GII:         giiSrc,
		Corpus:      corp,
		CallTimeout: 90 * time.Second,
		logger:      logger,
	}
	srv.initTools()
	return srv
}

// Tools returns the advertised tool descriptors.
func (srv *Server) Tools() []ToolDesc { return srv.tools }

// CallTool dispatches one tool call and always returns a result
// envelope; handler errors come back error-flagged, not as Go errors.
func (srv *Server) CallTool(ctx context.Context, name string, args map[string]any) map[string]any {
	callID := uuid.NewString()[:8]
	start := time.Now()
	srv.logger.Printf("call=%s tool=%s", callID, name)

	payload, err := srv.dispatch(ctx, name, args)
	elapsed := time.Since(start)
	telemetry.ToolDuration.WithLabelValues(name).Observe(elapsed.Seconds())
	if err != nil {
		telemetry.ToolCalls.WithLabelValues(name, "error").Inc()
		srv.logger.Printf("call=%s tool=%s elapsed=%s error=%v", callID, name, elapsed.Round(time.Millisecond), err)
		return errorResult(err)
	}

	res, err := textResult(payload)
	if err != nil {
		telemetry.ToolCalls.WithLabelValues(name, "error").Inc()
		return errorResult(fmt.Errorf("encode result: %w", err))
	}
	telemetry.ToolCalls.WithLabelValues(name, "ok").Inc()
	srv.logger.Printf("call=%s tool=%s elapsed=%s ok", callID, name, elapsed.Round(time.Millisecond))
	return res
}

func (srv *Server) dispatch(ctx context.Context, name string, args map[string]any) (map[string]any, error) {
	if srv.Beck == nil {
		switch name {
		case "beck_search", "beck_get_document", "beck_get_legislation", "beck_resolve_citation",
			"beck_get_suggestions", "beck_get_context", "beck_get_referenced_documents":
			return nil, errors.New("portal credentials are not configured; beck_* tools are unavailable")
		}
	}
	switch name {
	case "beck_search":
		return srv.tBeckSearch(ctx, args)
	case "beck_get_document":
		return srv.tBeckGetDocument(ctx, args)
	case "beck_get_legislation":
		return srv.tBeckGetLegislation(ctx, args)
	case "beck_resolve_citation":
		return srv.tBeckResolveCitation(ctx, args)
	case "beck_get_suggestions":
		return srv.tBeckGetSuggestions(ctx, args)
	case "beck_get_context":
		return srv.tBeckGetContext(ctx, args)
	case "beck_get_referenced_documents":
		return srv.tBeckGetReferencedDocuments(ctx, args)
	case "gii_get_legislation":
		return srv.tGIIGetLegislation(ctx, args)
	case "corpus_ingest":
		return srv.tCorpusIngest(ctx, args)
	case "corpus_search":
		return srv.tCorpusSearch(ctx, args)
	default:
		return nil, fmt.Errorf("unknown tool: %s", name)
	}
}

// ---------- helpers ----------

func str(v any) string { s, _ := v.(string); return s }

func asInt(v any) int {
	switch x := v.(type) {
	case float64:
		return int(x)
	case int:
		return x
	case json.Number:
		i, _ := x.Int64()
		return int(i)
	default:
		return 0
	}
}

func asBool(v any) bool { b, _ := v.(bool); return b }

// ---------- stdio loop ----------

// Serve runs the stdio JSON-RPC loop until the input stream ends. Frames
// are newline-delimited: a malformed frame is dropped and the loop keeps
// consuming (a streaming decoder would stick on the bad byte forever).
func (srv *Server) Serve(ctx context.Context, in io.Reader, out io.Writer) error {
	sc := bufio.NewScanner(in)
	sc.Buffer(make([]byte, 0, 64*1024), maxFrameSize)
	for sc.Scan() {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		line := bytes.TrimSpace(sc.Bytes())
		if len(line) == 0 {
			continue
		}
		var req rpcReq
		if err := json.Unmarshal(line, &req); err != nil {
			srv.logger.Printf("dropping malformed frame: %v", err)
			continue
		}

		switch req.Method {
		case "tools/list":
			writeResp(out, req.ID, map[string]any{"tools": srv.tools}, nil)

		case "tools/call":
			name := str(req.Params["name"])
			args, _ := req.Params["arguments"].(map[string]any)
			if args == nil {
				args = map[string]any{}
			}
			callCtx, cancel := context.WithTimeout(ctx, srv.CallTimeout)
			res := srv.CallTool(callCtx, name, args)
			cancel()
			writeResp(out, req.ID, res, nil)

		default:
			writeResp(out, req.ID, nil, fmt.Errorf("unknown method: %s", req.Method))
		}
	}
	return sc.Err()
}
