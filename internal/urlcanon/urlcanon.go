// Package urlcanon canonicalizes lead URLs: strips tracking query
// parameters while preserving path and fragment, and extracts the bare
// domain used as the Lead's uniqueness key.
package urlcanon

import (
	"net"
	"net/url"
	"strings"
)

// trackingParams is the exact parameter set Canonicalize strips.
var trackingParams = map[string]struct{}{
	"utm_source":   {},
	"utm_medium":   {},
	"utm_campaign": {},
	"utm_term":     {},
	"utm_content":  {},
	"gclid":        {},
	"fbclid":       {},
	"msclkid":      {},
}

// Canonicalize strips tracking parameters from raw, preserving path and
// fragment. It is idempotent: Canonicalize(Canonicalize(u)) == Canonicalize(u).
func Canonicalize(raw string) (string, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", err
	}

	q := u.Query()
	for key := range q {
		if _, blocked := trackingParams[strings.ToLower(key)]; blocked {
			q.Del(key)
		}
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// Domain extracts the lowercased host from raw, following the same
// host-normalization rules as the platform's rate-limit domain matcher:
// IPv6 literals keep their brackets, ports 80/443 are stripped, and any
// other port is kept.
func Domain(raw string) (string, error) {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return "", err
	}
	host := strings.ToLower(u.Host)
	if strings.HasPrefix(host, "[") && strings.HasSuffix(host, "]") {
		return host, nil
	}
	if strings.ContainsRune(host, ':') {
		h, port, splitErr := net.SplitHostPort(host)
		if splitErr == nil && (port == "80" || port == "443") {
			if strings.ContainsRune(h, ':') {
				return "[" + h + "]", nil
			}
			return h, nil
		}
	}
	return host, nil
}

// DomainOf extracts the bare domain from a recipient email address.
func DomainOf(email string) string {
	i := strings.LastIndex(email, "@")
	if i < 0 {
		return ""
	}
	return strings.ToLower(email[i+1:])
}
