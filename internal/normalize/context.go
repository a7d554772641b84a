package normalize

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// ExtractContext pulls breadcrumbs and prev/next siblings from an
// interactive document page. Absent containers are not errors: no
// breadcrumb list yields an empty slice, missing siblings stay nil.
func ExtractContext(rawHTML string) (ContextInfo, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(rawHTML))
	if err != nil {
		return ContextInfo{}, fmt.Errorf("parse html: %w", err)
	}

	info := ContextInfo{Breadcrumbs: []string{}}
	doc.Find("#breadcrumb li").Each(func(_ int, s *goquery.Selection) {
		if text := strings.TrimSpace(s.Text()); text != "" {
			info.Breadcrumbs = append(info.Breadcrumbs, text)
		}
	})

	if prev := elementText(doc, "#bcLinkPrev"); prev != "" {
		info.Previous = &prev
	}
	if next := elementText(doc, "#bcLinkNext"); next != "" {
		info.Next = &next
	}
	return info, nil
}

// ExtractReferences returns every anchor whose href addresses another
// document by identifier, in document order.
func (n *Normalizer) ExtractReferences(rawHTML string) ([]Reference, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(rawHTML))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	refs := []Reference{}
	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		vpath := VPathFromURL(href)
		if vpath == "" {
			return
		}
		refs = append(refs, Reference{
			Text:  strings.TrimSpace(s.Text()),
			VPath: vpath,
		})
	})
	return refs, nil
}

// VPathFromURL extracts the opaque document identifier carried in a URL's
// query string. The identifier is never parsed further. Returns "" when
// the URL carries none.
func VPathFromURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	return u.Query().Get("vpath")
}

func elementText(doc *goquery.Document, selector string) string {
	return strings.TrimSpace(doc.Find(selector).First().Text())
}
