package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"testing"
	"time"

	"juradoc/internal/browser"
	"juradoc/internal/corpus"
	"juradoc/internal/source/beck"
	"juradoc/internal/source/gii"
)

type fakeFetcher struct {
	pages map[string]string
}

func (f *fakeFetcher) FetchPage(_ context.Context, url string) (browser.FetchResult, error) {
	body, ok := f.pages[url]
	if !ok {
		return browser.FetchResult{}, fmt.Errorf("unexpected fetch: %s", url)
	}
	return browser.FetchResult{FinalURL: url, RawContent: body}, nil
}

func (f *fakeFetcher) ResolveURL(_ context.Context, url string) (string, error) {
	return url, nil
}

func newTestServer(pages map[string]string) *Server {
	beckSrc := beck.NewSource(&fakeFetcher{pages: pages}, "", nil)
	return NewServer(beckSrc, gii.NewSource(nil, "", nil), corpus.NewManager(), nil)
}

func toolNames(srv *Server) []string {
	names := make([]string, 0, len(srv.Tools()))
	for _, t := range srv.Tools() {
		names = append(names, t.Name)
	}
	return names
}

func TestToolListWithPortal(t *testing.T) {
	t.Parallel()
	names := strings.Join(toolNames(newTestServer(nil)), ",")
	for _, want := range []string{"beck_search", "beck_get_document", "gii_get_legislation", "corpus_ingest", "corpus_search"} {
		if !strings.Contains(names, want) {
			t.Fatalf("tool %s not advertised (got %s)", want, names)
		}
	}
}

func TestToolListWithoutPortal(t *testing.T) {
	t.Parallel()
	srv := NewServer(nil, gii.NewSource(nil, "", nil), corpus.NewManager(), nil)
	for _, name := range toolNames(srv) {
		if strings.HasPrefix(name, "beck_") {
			t.Fatalf("beck tool %s advertised without credentials", name)
		}
	}
	if len(srv.Tools()) == 0 {
		t.Fatalf("no tools advertised")
	}
}

func TestCallUnknownTool(t *testing.T) {
	t.Parallel()
	res := newTestServer(nil).CallTool(context.Background(), "nope", nil)
	assertErrorEnvelope(t, res, "unknown tool")
}

func TestCallBeckToolWithoutPortal(t *testing.T) {
	t.Parallel()
	srv := NewServer(nil, gii.NewSource(nil, "", nil), corpus.NewManager(), nil)
	res := srv.CallTool(context.Background(), "beck_search", map[string]any{"query": "Mord"})
	assertErrorEnvelope(t, res, "not configured")
}

// A garbage autocomplete response must surface as a flagged tool error,
// never as a dead server.
func TestSuggestionsParseFailureIsToolError(t *testing.T) {
	t.Parallel()
	srv := newTestServer(map[string]string{
		"/SearchBox/GetSuggestions?term=BGB": "<html><body><h1>Wartungsarbeiten</h1></body></html>",
	})
	res := srv.CallTool(context.Background(), "beck_get_suggestions", map[string]any{"term": "BGB"})
	assertErrorEnvelope(t, res, "failed to parse suggestions response")
}

func TestCorpusRoundTripOverStdio(t *testing.T) {
	t.Parallel()
	srv := NewServer(nil, gii.NewSource(nil, "", nil), corpus.NewManager(), nil)

	var in bytes.Buffer
	in.WriteString(`{"jsonrpc":"2.0","id":1,"method":"tools/call","params":{"name":"corpus_ingest","arguments":{"docs":[{"vpath":"bib/ges/bgb/p823","title":"§ 823","text":"Wer vorsätzlich oder fahrlässig das Leben eines anderen verletzt, ist zum Schadensersatz verpflichtet."}]}}}` + "\n")

	var out bytes.Buffer
	if err := srv.Serve(context.Background(), &in, &out); err != nil {
		t.Fatalf("Serve() error = %v", err)
	}

	var resp struct {
		ID     int            `json:"id"`
		Result map[string]any `json:"result"`
	}
	if err := json.Unmarshal(out.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v (%s)", err, out.String())
	}
	text := envelopeText(t, resp.Result)
	if isErr, _ := resp.Result["isError"].(bool); isErr {
		t.Fatalf("ingest failed: %s", text)
	}
	var ingest struct {
		SessionID string `json:"session_id"`
		Chunks    int    `json:"chunks"`
	}
	if err := json.Unmarshal([]byte(text), &ingest); err != nil {
		t.Fatalf("decode ingest payload: %v", err)
	}
	if ingest.SessionID == "" || ingest.Chunks != 1 {
		t.Fatalf("ingest payload = %+v", ingest)
	}

	res := srv.CallTool(context.Background(), "corpus_search", map[string]any{
		"session_id": ingest.SessionID, "q": "Schadensersatz",
	})
	text = envelopeText(t, res)
	if isErr, _ := res["isError"].(bool); isErr {
		t.Fatalf("search failed: %s", text)
	}
	if !strings.Contains(text, "bib/ges/bgb/p823") {
		t.Fatalf("search result missing hit: %s", text)
	}
}

// A malformed frame must be dropped; later well-formed requests on the
// same stream still get answered.
func TestServeRecoversFromMalformedFrame(t *testing.T) {
	t.Parallel()
	srv := NewServer(nil, gii.NewSource(nil, "", nil), corpus.NewManager(), nil)
	in := strings.NewReader("{not json}\n" +
		`{"jsonrpc":"2.0","id":2,"method":"tools/list"}` + "\n")
	var out bytes.Buffer

	done := make(chan error, 1)
	go func() { done <- srv.Serve(context.Background(), in, &out) }()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Serve() error = %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("Serve() did not return after malformed frame")
	}

	var resp struct {
		ID     int            `json:"id"`
		Result map[string]any `json:"result"`
	}
	if err := json.Unmarshal(out.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v (%s)", err, out.String())
	}
	if resp.ID != 2 || resp.Result["tools"] == nil {
		t.Fatalf("tools/list after bad frame not answered: %s", out.String())
	}
}

func TestServeRejectsUnknownMethod(t *testing.T) {
	t.Parallel()
	srv := NewServer(nil, gii.NewSource(nil, "", nil), corpus.NewManager(), nil)
	in := strings.NewReader(`{"jsonrpc":"2.0","id":7,"method":"tools/nuke"}` + "\n")
	var out bytes.Buffer
	if err := srv.Serve(context.Background(), in, &out); err != nil {
		t.Fatalf("Serve() error = %v", err)
	}
	if !strings.Contains(out.String(), "unknown method") {
		t.Fatalf("response = %s", out.String())
	}
}

func assertErrorEnvelope(t *testing.T, res map[string]any, wantSubstr string) {
	t.Helper()
	isErr, _ := res["isError"].(bool)
	if !isErr {
		t.Fatalf("result not error-flagged: %v", res)
	}
	text := envelopeText(t, res)
	if !strings.Contains(text, wantSubstr) {
		t.Fatalf("error text %q does not contain %q", text, wantSubstr)
	}
}

func envelopeText(t *testing.T, res map[string]any) string {
	t.Helper()
	content, ok := res["content"].([]map[string]any)
	if !ok {
		// After a JSON round trip the slice loses its concrete type.
		raw, ok := res["content"].([]any)
		if !ok || len(raw) == 0 {
			t.Fatalf("malformed envelope: %v", res)
		}
		m, _ := raw[0].(map[string]any)
		return str(m["text"])
	}
	if len(content) == 0 || content[0]["type"] != "text" {
		t.Fatalf("malformed envelope: %v", res)
	}
	return str(content[0]["text"])
}
