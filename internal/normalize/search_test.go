package normalize

import "testing"

func TestParseSearchHits(t *testing.T) {
	t.Parallel()
	n := New(origin)
	html := `<div id="trefferliste">
<div class="treffer">
  <span class="treffericon" data-doktyp="RECHTSPRECHUNG"></span>
  <a class="treffertitel" href="/Dokument?vpath=bib%2Furteil%2F1">BGH, Urteil vom 1.2.2020</a>
</div>
<div class="treffer">
  <span class="treffericon" title="KOMMENTARE"></span>
  <a class="treffertitel" href="/Dokument?vpath=bib%2Fkomm%2F2">MüKoBGB/Wagner § 823</a>
</div>
<div class="treffer">
  <span class="treffericon"></span>
  <a class="treffertitel" href="/Dokument?vpath=bib%2Fx%2F3">Unbekannter Typ</a>
</div>
<div class="treffer">
  <a class="treffertitel" href="/Search?words=ohne-id">kein Dokumentlink</a>
</div>
</div>`

	hits, err := n.ParseSearchHits(html)
	if err != nil {
		t.Fatalf("ParseSearchHits() error = %v", err)
	}
	if len(hits) != 3 {
		t.Fatalf("got %d hits, want 3: %+v", len(hits), hits)
	}
	if hits[0].Type != "RECHTSPRECHUNG" || hits[0].VPath != "bib/urteil/1" {
		t.Fatalf("hits[0] = %+v", hits[0])
	}
	if hits[1].Type != "KOMMENTARE" || hits[1].Title != "MüKoBGB/Wagner § 823" {
		t.Fatalf("hits[1] = %+v", hits[1])
	}
	if hits[2].Type != "Unknown" {
		t.Fatalf("hits[2] = %+v", hits[2])
	}
	if hits[0].Link != origin+"/Dokument?vpath=bib%2Furteil%2F1" {
		t.Fatalf("hits[0].Link = %q", hits[0].Link)
	}
}

func TestParseSearchHitsEmptyListing(t *testing.T) {
	t.Parallel()
	n := New(origin)
	hits, err := n.ParseSearchHits(`<html><body><p>Keine Treffer.</p></body></html>`)
	if err != nil {
		t.Fatalf("ParseSearchHits() error = %v", err)
	}
	if len(hits) != 0 {
		t.Fatalf("got %d hits, want 0", len(hits))
	}
}
