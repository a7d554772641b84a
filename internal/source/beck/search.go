package beck

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"juradoc/internal/normalize"
)

// SearchResult is a page of search hits. DirectHit marks the portal's
// server-side exact-citation redirect, where no hit list ever renders.
type SearchResult struct {
	Hits      []normalize.SearchHit `json:"hits"`
	DirectHit bool                  `json:"direct_hit"`
	Page      int                   `json:"page"`
}

// directHitTitle labels the synthesized single result for a server-side
// redirect straight to a document.
const directHitTitle = "Direct Hit (Redirected)"

// Search runs a free-text query. When the portal answers an exact
// citation with a redirect to the document itself, the missing hit list
// is expected, not an error: a single synthetic hit is built from the
// redirect target.
func (s *Source) Search(ctx context.Context, query string, page int, category string, onlyAvailable bool) (SearchResult, error) {
	if strings.TrimSpace(query) == "" {
		return SearchResult{}, errors.New("query is required")
	}
	if page < 1 {
		page = 1
	}

	searchURL, err := buildSearchURL(query, page, category, onlyAvailable)
	if err != nil {
		return SearchResult{}, err
	}

	res, err := s.fetcher.FetchPage(ctx, searchURL)
	if err != nil {
		return SearchResult{}, err
	}

	if isDocumentURL(res.FinalURL) {
		vpath := normalize.VPathFromURL(res.FinalURL)
		s.logger.Printf("search %q redirected straight to document %s", query, vpath)
		return SearchResult{
			Page:      page,
			DirectHit: true,
			Hits: []normalize.SearchHit{{
				Title: directHitTitle,
				Type:  "Unknown",
				VPath: vpath,
				Link:  res.FinalURL,
			}},
		}, nil
	}

	hits, err := s.norm.ParseSearchHits(res.RawContent)
	if err != nil {
		return SearchResult{}, err
	}
	return SearchResult{Hits: hits, Page: page}, nil
}

// ResolveCitation resolves a free-text citation to a document identifier
// only when the portal itself treats it as exact (direct-hit redirect).
// Anything else is reported unresolved rather than guessed.
func (s *Source) ResolveCitation(ctx context.Context, citation string) (string, error) {
	if strings.TrimSpace(citation) == "" {
		return "", errors.New("citation is required")
	}
	searchURL, err := buildSearchURL(citation, 1, "", false)
	if err != nil {
		return "", err
	}
	finalURL, err := s.fetcher.ResolveURL(ctx, searchURL)
	if err != nil {
		return "", err
	}
	if !isDocumentURL(finalURL) {
		return "", &UnresolvedError{Query: citation}
	}
	return normalize.VPathFromURL(finalURL), nil
}

func buildSearchURL(query string, page int, category string, onlyAvailable bool) (string, error) {
	u := fmt.Sprintf("%s?words=%s&page=%d", searchPath, url.QueryEscape(query), page)
	if category != "" {
		code, ok := categoryFilters[category]
		if !ok {
			return "", fmt.Errorf("unknown category %q (valid: %s)", category, strings.Join(Categories(), ", "))
		}
		u += "&st=" + code
	}
	if onlyAvailable {
		u += "&abo=1"
	}
	return u, nil
}
