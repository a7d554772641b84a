package normalize

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// hitTypeAttrs are the icon attribute locations that may carry the result
// category label, checked in order.
var hitTypeAttrs = []string{"data-doktyp", "title", "alt"}

// ParseSearchHits extracts result rows from a search listing page.
// Ordering is the source page order; the portal ranks by relevance and we
// do not re-sort. Rows without a document identifier are skipped.
func (n *Normalizer) ParseSearchHits(rawHTML string) ([]SearchHit, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(rawHTML))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	hits := []SearchHit{}
	doc.Find("#trefferliste .treffer").Each(func(_ int, row *goquery.Selection) {
		link := row.Find("a.treffertitel").First()
		href, _ := link.Attr("href")
		vpath := VPathFromURL(href)
		if vpath == "" {
			return
		}
		if strings.HasPrefix(href, "/") {
			href = n.origin + href
		}
		hits = append(hits, SearchHit{
			Title: strings.TrimSpace(link.Text()),
			Type:  hitType(row),
			VPath: vpath,
			Link:  href,
		})
	})
	return hits, nil
}

// hitType reads the category label from the first populated icon
// attribute, defaulting to "Unknown".
func hitType(row *goquery.Selection) string {
	icon := row.Find(".treffericon").First()
	for _, attr := range hitTypeAttrs {
		if val, ok := icon.Attr(attr); ok && strings.TrimSpace(val) != "" {
			return strings.TrimSpace(val)
		}
	}
	return "Unknown"
}
