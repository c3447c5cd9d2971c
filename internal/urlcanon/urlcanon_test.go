package urlcanon

import "testing"

func TestCanonicalizeStripsTrackingParams(t *testing.T) {
	got, err := Canonicalize("https://example.com/products?utm_source=google&size=42#top")
	if err != nil {
		t.Fatalf("Canonicalize: %v", err)
	}
	want := "https://example.com/products?size=42#top"
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestCanonicalizeIsIdempotent(t *testing.T) {
	raw := "https://example.com/a?utm_source=x&gclid=y&b=1"
	once, err := Canonicalize(raw)
	if err != nil {
		t.Fatalf("Canonicalize: %v", err)
	}
	twice, err := Canonicalize(once)
	if err != nil {
		t.Fatalf("Canonicalize: %v", err)
	}
	if once != twice {
		t.Fatalf("not idempotent: %q != %q", once, twice)
	}
}

func TestCanonicalizeStripsExactParamSet(t *testing.T) {
	raw := "https://example.com/?utm_source=a&utm_medium=b&utm_campaign=c&utm_term=d&utm_content=e&gclid=f&fbclid=g&msclkid=h&keep=1"
	got, err := Canonicalize(raw)
	if err != nil {
		t.Fatalf("Canonicalize: %v", err)
	}
	want := "https://example.com/?keep=1"
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestDomain(t *testing.T) {
	cases := map[string]string{
		"https://Example.com/path":      "example.com",
		"https://example.com:443/path":  "example.com",
		"https://example.com:8443/path": "example.com:8443",
	}
	for in, want := range cases {
		got, err := Domain(in)
		if err != nil {
			t.Fatalf("Domain(%q): %v", in, err)
		}
		if got != want {
			t.Fatalf("Domain(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestDomainOf(t *testing.T) {
	if got := DomainOf("x@Example.com"); got != "example.com" {
		t.Fatalf("got %q", got)
	}
}
