package mailprovider

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
)

// TrackingInjector implements service/sending.TrackingInjector by rewriting
// outgoing HTML against the fixed endpoints internal/tracking.Ingestor
// serves: an open pixel before </body> and every http(s) href rewritten
// through the click redirect. No signing on the rewritten URLs: the
// trackingToken is already an unguessable capability.
type TrackingInjector struct {
	baseURL string
}

func NewTrackingInjector(baseURL string) *TrackingInjector {
	return &TrackingInjector{baseURL: strings.TrimSuffix(baseURL, "/")}
}

var hrefPattern = regexp.MustCompile(`(?i)href\s*=\s*"([^"]+)"`)

// InjectTracking rewrites html's anchor hrefs through the click redirect
// and appends an open pixel before the closing body tag.
func (t *TrackingInjector) InjectTracking(html, offerID, trackingToken string) string {
	if trackingToken == "" {
		return html
	}

	html = hrefPattern.ReplaceAllStringFunc(html, func(match string) string {
		sub := hrefPattern.FindStringSubmatch(match)
		if len(sub) != 2 {
			return match
		}
		target := sub[1]
		parsed, err := url.Parse(target)
		if err != nil || parsed.Scheme != "http" && parsed.Scheme != "https" {
			return match
		}
		return fmt.Sprintf(`href="%s"`, t.clickURL(trackingToken, target))
	})

	pixel := fmt.Sprintf(`<img src="%s" width="1" height="1" alt="" style="display:none" />`, t.pixelURL(trackingToken))
	if idx := strings.LastIndex(strings.ToLower(html), "</body>"); idx >= 0 {
		return html[:idx] + pixel + html[idx:]
	}
	return html + pixel
}

func (t *TrackingInjector) pixelURL(trackingToken string) string {
	return fmt.Sprintf("%s/api/track/open/%s", t.baseURL, url.PathEscape(trackingToken))
}

func (t *TrackingInjector) clickURL(trackingToken, target string) string {
	return fmt.Sprintf("%s/api/track/click/%s?url=%s", t.baseURL, url.PathEscape(trackingToken), url.QueryEscape(target))
}

// GenerateUnsubscribeURL builds the link the unsubscribe footer points at.
func (t *TrackingInjector) GenerateUnsubscribeURL(trackingToken string) string {
	return fmt.Sprintf("%s/unsubscribe/%s", t.baseURL, url.PathEscape(trackingToken))
}
