package notify

import (
	"html"
	"strings"
	"unicode"
)

// Maximum lengths for visitor-supplied fields embedded in outbound messages.
// Anything longer is truncated before formatting.
const (
	MaxNameLen    = 120
	MaxCompanyLen = 120
	MaxEmailLen   = 254
	MaxPhoneLen   = 40
	MaxPurposeLen = 500
	MaxBadgeLen   = 64
)

// CleanText strips control characters from visitor-supplied text and caps it
// at maxLen. This is the injection boundary between untrusted input and
// third-party rendering surfaces; HTML escaping for email bodies happens
// separately in EscapeHTML.
func CleanText(s string, maxLen int) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if unicode.IsControl(r) {
			continue
		}
		b.WriteRune(r)
	}
	cleaned := strings.TrimSpace(b.String())
	if len(cleaned) > maxLen {
		cleaned = cleaned[:maxLen]
	}
	return cleaned
}

// EscapeHTML escapes markup-significant characters (&<>"') for embedding in
// HTML email bodies. Webhook payloads are JSON-encoded and do not need this.
func EscapeHTML(s string) string {
	return html.EscapeString(s)
}
