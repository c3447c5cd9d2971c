package mailprovider

import (
	"strings"
	"testing"
)

func TestTrackingInjector_InjectTracking(t *testing.T) {
	ti := NewTrackingInjector("https://track.example.com/")

	html := `<html><body><p>Hello</p><a href="https://target.example.com/landing">Click</a></body></html>`
	got := ti.InjectTracking(html, "offer-1", "tok123")

	if !strings.Contains(got, `href="https://track.example.com/api/track/click/tok123?url=https%3A%2F%2Ftarget.example.com%2Flanding"`) {
		t.Errorf("href not rewritten through click redirect: %s", got)
	}
	if !strings.Contains(got, `<img src="https://track.example.com/api/track/open/tok123"`) {
		t.Errorf("pixel not injected: %s", got)
	}
	if strings.Index(got, "<img") > strings.Index(got, "</body>") {
		t.Errorf("pixel inserted after </body>: %s", got)
	}
}

func TestTrackingInjector_InjectTracking_NoToken(t *testing.T) {
	ti := NewTrackingInjector("https://track.example.com")
	html := `<html><body>hi</body></html>`
	if got := ti.InjectTracking(html, "offer-1", ""); got != html {
		t.Errorf("expected html unchanged with empty token, got %q", got)
	}
}

func TestTrackingInjector_InjectTracking_SkipsDisallowedSchemes(t *testing.T) {
	ti := NewTrackingInjector("https://track.example.com")
	html := `<a href="mailto:someone@example.com">mail</a><a href="javascript:alert(1)">js</a>`
	got := ti.InjectTracking(html, "offer-1", "tok123")
	if !strings.Contains(got, `href="mailto:someone@example.com"`) {
		t.Errorf("mailto href should be left untouched: %s", got)
	}
	if !strings.Contains(got, `href="javascript:alert(1)"`) {
		t.Errorf("javascript href should be left untouched: %s", got)
	}
}

func TestTrackingInjector_InjectTracking_NoBodyTag(t *testing.T) {
	ti := NewTrackingInjector("https://track.example.com")
	html := `<p>no body tag here</p>`
	got := ti.InjectTracking(html, "offer-1", "tok123")
	if !strings.HasSuffix(got, `style="display:none" />`) {
		t.Errorf("pixel should be appended when there is no </body>: %s", got)
	}
}

func TestTrackingInjector_GenerateUnsubscribeURL(t *testing.T) {
	ti := NewTrackingInjector("https://track.example.com/")
	got := ti.GenerateUnsubscribeURL("tok123")
	want := "https://track.example.com/unsubscribe/tok123"
	if got != want {
		t.Errorf("GenerateUnsubscribeURL() = %q, want %q", got, want)
	}
}
