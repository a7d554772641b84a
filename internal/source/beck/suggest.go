package beck

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// suggestionPayload is the portal's autocomplete response shape.
type suggestionPayload struct {
	Values []struct {
		Label string `json:"label"`
	} `json:"values"`
}

// GetSuggestions queries the autocomplete endpoint. The JSON payload
// arrives embedded inside a rendered page (the browser wraps bare JSON in
// an HTML shell), so the body text is extracted before parsing. A parse
// failure is a recoverable error, never a crash.
func (s *Source) GetSuggestions(ctx context.Context, term string) ([]string, error) {
	if strings.TrimSpace(term) == "" {
		return nil, errors.New("term is required")
	}
	res, err := s.fetcher.FetchPage(ctx, suggestPath+"?term="+url.QueryEscape(term))
	if err != nil {
		return nil, err
	}

	raw, err := pageBodyText(res.RawContent)
	if err != nil {
		return nil, fmt.Errorf("failed to parse suggestions response: %w", err)
	}

	var payload suggestionPayload
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		return nil, fmt.Errorf("failed to parse suggestions response: not valid JSON")
	}
	labels := make([]string, 0, len(payload.Values))
	for _, v := range payload.Values {
		if v.Label != "" {
			labels = append(labels, v.Label)
		}
	}
	return labels, nil
}

func pageBodyText(rawHTML string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(rawHTML))
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(doc.Find("body").Text()), nil
}
