// Package gii fetches statute text from gesetze-im-internet.de, the free
// public portal. No login, no browser: plain HTTP is enough because the
// site serves static pages without anti-automation defenses.
package gii

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	readability "github.com/go-shiori/go-readability"

	"juradoc/internal/normalize"
)

const DefaultOrigin = "https://www.gesetze-im-internet.de"

// Source fetches and extracts single statute sections.
type Source struct {
	client *http.Client
	origin string
	logger *log.Logger
}

func NewSource(client *http.Client, origin string, logger *log.Logger) *Source {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	if origin == "" {
		origin = DefaultOrigin
	}
	if logger == nil {
		logger = log.New(log.Writer(), "[GII] ", log.LstdFlags)
	}
	return &Source{client: client, origin: strings.TrimRight(origin, "/"), logger: logger}
}

// GetLegislation fetches one section of a statute by abbreviation and
// section number, e.g. ("BGB", "823"). The portal's known container is
// tried first; unknown layouts fall back to readability extraction.
func (s *Source) GetLegislation(ctx context.Context, abbreviation, section string) (normalize.Document, error) {
	if strings.TrimSpace(abbreviation) == "" || strings.TrimSpace(section) == "" {
		return normalize.Document{}, errors.New("abbreviation and section are required")
	}
	pageURL := fmt.Sprintf("%s/%s/__%s.html",
		s.origin,
		url.PathEscape(strings.ToLower(abbreviation)),
		url.PathEscape(section),
	)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return normalize.Document{}, err
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return normalize.Document{}, fmt.Errorf("fetch %s: %w", pageURL, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusNotFound {
		return normalize.Document{}, fmt.Errorf("no such norm: %s %s", abbreviation, section)
	}
	if resp.StatusCode != http.StatusOK {
		return normalize.Document{}, fmt.Errorf("fetch %s: unexpected status %d", pageURL, resp.StatusCode)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return normalize.Document{}, err
	}

	doc, ok := extractNorm(string(body))
	if ok {
		return doc, nil
	}

	// Layout drifted; let readability take a shot before giving up.
	s.logger.Printf("known container missing on %s, falling back to readability", pageURL)
	parsed, err := readability.FromReader(strings.NewReader(string(body)), mustParseURL(pageURL))
	if err != nil || strings.TrimSpace(parsed.TextContent) == "" {
		return normalize.Document{}, fmt.Errorf("no extractable content for %s %s", abbreviation, section)
	}
	return normalize.Document{
		Title: strings.TrimSpace(parsed.Title),
		Body:  strings.TrimSpace(parsed.TextContent),
	}, nil
}

// extractNorm pulls title and body from the portal's jnhtml layout.
func extractNorm(rawHTML string) (normalize.Document, bool) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(rawHTML))
	if err != nil {
		return normalize.Document{}, false
	}
	container := doc.Find("div.jnhtml").First()
	if container.Length() == 0 {
		return normalize.Document{}, false
	}

	title := strings.TrimSpace(doc.Find("span.jnenbez").First().Text())
	if sub := strings.TrimSpace(doc.Find("span.jnentitel").First().Text()); sub != "" {
		if title != "" {
			title += " "
		}
		title += sub
	}

	var parts []string
	container.Find("p").Each(func(_ int, p *goquery.Selection) {
		if text := strings.TrimSpace(p.Text()); text != "" {
			parts = append(parts, text)
		}
	})
	body := strings.TrimSpace(strings.Join(parts, "\n\n"))
	if body == "" {
		return normalize.Document{}, false
	}
	return normalize.Document{Title: title, Body: body}, true
}

func mustParseURL(raw string) *url.URL {
	u, err := url.Parse(raw)
	if err != nil {
		return &url.URL{}
	}
	return u
}
