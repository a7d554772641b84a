// Package beck implements the tool operations against the beck-online
// subscription portal. It encodes the portal's URL construction rules and
// result-interpretation quirks; page acquisition goes through the shared
// authenticated browser engine and parsing through the normalizer.
package beck

import (
	"context"
	"fmt"
	"log"
	"sort"
	"strings"

	"juradoc/internal/browser"
	"juradoc/internal/normalize"
)

// Portal constants. These are the single source of truth for endpoint
// paths, the designated auth cookie, and category filter codes.
const (
	DefaultOrigin  = "https://beck-online.beck.de"
	AuthCookieName = "bo_sessionid"
	LoginPath      = "/auth/login"
	LandingPath    = "/Home"

	searchPath   = "/Search"
	documentPath = "/Dokument"
	printPath    = "/Print/Dokument"
	normPath     = "/Norm"
	suggestPath  = "/SearchBox/GetSuggestions"
)

// ContentSelectors are the known content containers the engine waits for
// (best-effort) before capturing a page.
var ContentSelectors = []string{"#printContent", "#dokument", ".doc-content", "#trefferliste"}

// categoryFilters maps the six exposed result categories to the portal's
// filter codes.
var categoryFilters = map[string]string{
	"GESETZE":        "ges",
	"RECHTSPRECHUNG": "rspr",
	"KOMMENTARE":     "komm",
	"AUFSAETZE":      "aufs",
	"FORMULARE":      "form",
	"NACHRICHTEN":    "nach",
}

// Categories lists the allowed category values in stable order, for input
// schemas and error messages.
func Categories() []string {
	out := make([]string, 0, len(categoryFilters))
	for c := range categoryFilters {
		out = append(out, c)
	}
	sort.Strings(out)
	return out
}

// Output formats for document retrieval.
const (
	FormatMarkdown = "markdown"
	FormatHTML     = "html"
)

// Fetcher is the slice of the browser engine this package needs; the
// engine satisfies it, tests substitute a fake.
type Fetcher interface {
	FetchPage(ctx context.Context, url string) (browser.FetchResult, error)
	ResolveURL(ctx context.Context, url string) (string, error)
}

// AccessDeniedError marks a permission-gated page, detected textually.
// It is a semantic condition, not a transport failure.
type AccessDeniedError struct {
	ID string
}

func (e *AccessDeniedError) Error() string {
	return fmt.Sprintf("access to document %q denied: the account lacks the required subscription", e.ID)
}

// EmptyContentError means conversion succeeded but produced no body. The
// root cause is often the same permission gap as an access denial, but
// the evidence differs (missing container vs. denial phrase), so it is
// reported distinctly.
type EmptyContentError struct {
	ID string
}

func (e *EmptyContentError) Error() string {
	return fmt.Sprintf("document %q yielded no extractable content", e.ID)
}

// UnresolvedError means a lookup could not be narrowed to one unambiguous
// document. We report it instead of guessing.
type UnresolvedError struct {
	Query string
}

func (e *UnresolvedError) Error() string {
	return fmt.Sprintf("could not resolve %q to a single document (ambiguous or no match)", e.Query)
}

// Source bundles the portal operations behind the shared engine.
type Source struct {
	fetcher Fetcher
	norm    *normalize.Normalizer
	logger  *log.Logger
}

func NewSource(fetcher Fetcher, origin string, logger *log.Logger) *Source {
	if origin == "" {
		origin = DefaultOrigin
	}
	if logger == nil {
		logger = log.New(log.Writer(), "[BECK] ", log.LstdFlags)
	}
	return &Source{
		fetcher: fetcher,
		norm:    normalize.New(origin),
		logger:  logger,
	}
}

// isDocumentURL reports whether a (final) URL is a direct navigation to a
// single document.
func isDocumentURL(raw string) bool {
	return strings.Contains(raw, documentPath) && normalize.VPathFromURL(raw) != ""
}
