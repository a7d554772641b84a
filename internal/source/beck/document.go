package beck

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"juradoc/internal/normalize"
)

// GetDocument fetches one document by opaque identifier or full URL and
// returns it normalized. The canonical print rendering is used: it is
// stripped of interactive chrome and far more stable to parse than the
// interactive page.
func (s *Source) GetDocument(ctx context.Context, idOrURL, format string) (normalize.Document, error) {
	vpath, err := s.resolveIdentifier(ctx, idOrURL)
	if err != nil {
		return normalize.Document{}, err
	}
	return s.fetchPrintDocument(ctx, vpath, format)
}

// GetLegislation resolves an abbreviation + section pair through the
// portal's redirect-based norm lookup, then follows the regular document
// conversion path.
func (s *Source) GetLegislation(ctx context.Context, abbreviation, section, format string) (normalize.Document, error) {
	if strings.TrimSpace(abbreviation) == "" || strings.TrimSpace(section) == "" {
		return normalize.Document{}, errors.New("abbreviation and section are required")
	}
	lookupURL := fmt.Sprintf("%s?abk=%s&norm=%s", normPath, url.QueryEscape(abbreviation), url.QueryEscape(section))
	finalURL, err := s.fetcher.ResolveURL(ctx, lookupURL)
	if err != nil {
		return normalize.Document{}, err
	}
	vpath := normalize.VPathFromURL(finalURL)
	if vpath == "" {
		return normalize.Document{}, &UnresolvedError{Query: abbreviation + " " + section}
	}
	return s.fetchPrintDocument(ctx, vpath, format)
}

// fetchPrintDocument is the shared conversion path. Access denial is
// classified before conversion; an empty converted body is its own error,
// reported distinctly from denial.
func (s *Source) fetchPrintDocument(ctx context.Context, vpath, format string) (normalize.Document, error) {
	printURL := fmt.Sprintf("%s?vpath=%s&hideControls=true", printPath, url.QueryEscape(vpath))
	res, err := s.fetcher.FetchPage(ctx, printURL)
	if err != nil {
		return normalize.Document{}, err
	}
	if normalize.IsAccessDenied(res.RawContent) {
		return normalize.Document{}, &AccessDeniedError{ID: vpath}
	}
	if format == FormatHTML {
		return normalize.Document{Body: res.RawContent}, nil
	}
	doc, err := s.norm.ToDocument(res.RawContent)
	if err != nil {
		return normalize.Document{}, err
	}
	if doc.Body == "" {
		return normalize.Document{}, &EmptyContentError{ID: vpath}
	}
	return doc, nil
}

// resolveIdentifier accepts an opaque vpath or a full URL. URLs that do
// not carry the identifier directly get one navigation to discover the
// post-redirect location.
func (s *Source) resolveIdentifier(ctx context.Context, idOrURL string) (string, error) {
	idOrURL = strings.TrimSpace(idOrURL)
	if idOrURL == "" {
		return "", errors.New("document identifier or URL is required")
	}
	if !strings.Contains(idOrURL, "://") && !strings.HasPrefix(idOrURL, "/") {
		return idOrURL, nil
	}
	if vpath := normalize.VPathFromURL(idOrURL); vpath != "" {
		return vpath, nil
	}
	finalURL, err := s.fetcher.ResolveURL(ctx, idOrURL)
	if err != nil {
		return "", err
	}
	vpath := normalize.VPathFromURL(finalURL)
	if vpath == "" {
		return "", fmt.Errorf("no document identifier found in %q", idOrURL)
	}
	return vpath, nil
}
