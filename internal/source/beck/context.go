package beck

import (
	"context"
	"fmt"
	"net/url"

	"juradoc/internal/normalize"
)

// GetContext fetches the interactive (non-print) page, which is the only
// rendering that carries the breadcrumb trail and sibling navigation.
func (s *Source) GetContext(ctx context.Context, idOrURL string) (normalize.ContextInfo, error) {
	vpath, err := s.resolveIdentifier(ctx, idOrURL)
	if err != nil {
		return normalize.ContextInfo{}, err
	}
	docURL := fmt.Sprintf("%s?vpath=%s", documentPath, url.QueryEscape(vpath))
	res, err := s.fetcher.FetchPage(ctx, docURL)
	if err != nil {
		return normalize.ContextInfo{}, err
	}
	return normalize.ExtractContext(res.RawContent)
}

// GetReferencedDocuments scans the print rendering for every outbound
// citation link carrying a document identifier.
func (s *Source) GetReferencedDocuments(ctx context.Context, idOrURL string) ([]normalize.Reference, error) {
	vpath, err := s.resolveIdentifier(ctx, idOrURL)
	if err != nil {
		return nil, err
	}
	printURL := fmt.Sprintf("%s?vpath=%s&hideControls=true", printPath, url.QueryEscape(vpath))
	res, err := s.fetcher.FetchPage(ctx, printURL)
	if err != nil {
		return nil, err
	}
	if normalize.IsAccessDenied(res.RawContent) {
		return nil, &AccessDeniedError{ID: vpath}
	}
	return s.norm.ExtractReferences(res.RawContent)
}
