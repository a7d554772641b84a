// Package normalize converts the portal's rendered HTML into structured
// documents. The portal serves at least three layouts (statutes, court
// decisions, commentary) that disagree on container ids and marker
// classes, so extraction is driven by ordered first-match-wins rules
// instead of a single fixed path.
package normalize

import "strings"

// Document is the normalized form of one content unit.
type Document struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

// ContextInfo describes where a document sits in the portal's hierarchy.
type ContextInfo struct {
	Breadcrumbs []string `json:"breadcrumbs"`
	Previous    *string  `json:"previous"`
	Next        *string  `json:"next"`
}

// SearchHit is one row of a search result listing, in source page order.
type SearchHit struct {
	Title string `json:"title"`
	Type  string `json:"type"`
	VPath string `json:"vpath"`
	Link  string `json:"link"`
}

// Reference is one outbound citation link found in a document body.
type Reference struct {
	Text  string `json:"text"`
	VPath string `json:"vpath"`
}

// accessDeniedPhrases are the fixed markers of a permission-gated page.
// Matching is textual on purpose: a denial page still renders the full
// chrome, only the content region is replaced by one of these notices.
var accessDeniedPhrases = []string{
	"nicht die erforderlichen rechte",
	"kann nicht angezeigt werden",
	"keine berechtigung",
}

// IsAccessDenied reports whether html carries one of the known denial
// notices. Callers must check this before interpreting an empty converted
// body, because the denial page itself converts to nothing.
func IsAccessDenied(html string) bool {
	lower := strings.ToLower(html)
	for _, phrase := range accessDeniedPhrases {
		if strings.Contains(lower, phrase) {
			return true
		}
	}
	return false
}

// Normalizer holds the fixed origin used to absolutize root-relative
// links during conversion.
type Normalizer struct {
	origin string
}

func New(origin string) *Normalizer {
	return &Normalizer{origin: strings.TrimRight(origin, "/")}
}
