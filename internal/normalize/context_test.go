package normalize

import (
	"reflect"
	"testing"
)

func TestExtractContext(t *testing.T) {
	t.Parallel()
	html := `<html><body>
<ul id="breadcrumb"><li>BGB</li><li>Buch 2</li><li>§ 823</li></ul>
<div class="doknav"><a id="bcLinkPrev">§ 822 Herausgabepflicht</a><a id="bcLinkNext">§ 824 Kreditgefährdung</a></div>
</body></html>`

	info, err := ExtractContext(html)
	if err != nil {
		t.Fatalf("ExtractContext() error = %v", err)
	}
	wantCrumbs := []string{"BGB", "Buch 2", "§ 823"}
	if !reflect.DeepEqual(info.Breadcrumbs, wantCrumbs) {
		t.Fatalf("Breadcrumbs = %v, want %v", info.Breadcrumbs, wantCrumbs)
	}
	if info.Previous == nil || *info.Previous != "§ 822 Herausgabepflicht" {
		t.Fatalf("Previous = %v", info.Previous)
	}
	if info.Next == nil || *info.Next != "§ 824 Kreditgefährdung" {
		t.Fatalf("Next = %v", info.Next)
	}
}

func TestExtractContextAbsentContainers(t *testing.T) {
	t.Parallel()
	info, err := ExtractContext(`<html><body><p>kein Kontext</p></body></html>`)
	if err != nil {
		t.Fatalf("ExtractContext() error = %v", err)
	}
	if len(info.Breadcrumbs) != 0 {
		t.Fatalf("Breadcrumbs = %v, want empty", info.Breadcrumbs)
	}
	if info.Previous != nil || info.Next != nil {
		t.Fatalf("siblings = %v/%v, want nil/nil", info.Previous, info.Next)
	}
}

func TestExtractReferences(t *testing.T) {
	t.Parallel()
	n := New(origin)
	html := `<div id="printContent">
<p>Siehe <a href="/Dokument?vpath=bib%2Fbgb%2Fp31">§ 31 BGB</a> sowie
<a href="https://beck-online.beck.de/Dokument?vpath=bib%2Furteil%2F123">BGH, Urt. v. 1.2.2020</a>
und <a href="https://example.org/extern">externe Quelle</a>.</p></div>`

	refs, err := n.ExtractReferences(html)
	if err != nil {
		t.Fatalf("ExtractReferences() error = %v", err)
	}
	if len(refs) != 2 {
		t.Fatalf("got %d references, want 2: %+v", len(refs), refs)
	}
	if refs[0].VPath != "bib/bgb/p31" || refs[0].Text != "§ 31 BGB" {
		t.Fatalf("refs[0] = %+v", refs[0])
	}
	if refs[1].VPath != "bib/urteil/123" {
		t.Fatalf("refs[1] = %+v", refs[1])
	}
}

func TestVPathFromURL(t *testing.T) {
	t.Parallel()
	tests := []struct {
		in   string
		want string
	}{
		{"https://beck-online.beck.de/Dokument?vpath=bib%2Fa%2Fb", "bib/a/b"},
		{"/Dokument?vpath=x&anchor=Y", "x"},
		{"/Search?words=kaufvertrag", ""},
		{"::bad::url::", ""},
		{"", ""},
	}
	for _, tt := range tests {
		if got := VPathFromURL(tt.in); got != tt.want {
			t.Fatalf("VPathFromURL(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
