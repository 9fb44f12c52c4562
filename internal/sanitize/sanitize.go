// Package sanitize cleans user-submitted text before it is stored.
//
// Two policies are used:
//   - Plain: strips every tag. For fields rendered as text (contact form).
//   - Rich:  bluemonday's UGC policy. For project result/details, which the
//     site renders as HTML.
//
// bluemonday policies are safe for concurrent use once built.
package sanitize

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"golang.org/x/text/unicode/norm"
)

var (
	plainPolicy = bluemonday.StrictPolicy()
	richPolicy  = newRichPolicy()
)

func newRichPolicy() *bluemonday.Policy {
	p := bluemonday.UGCPolicy()
	p.RequireNoFollowOnLinks(true)
	p.AddTargetBlankToFullyQualifiedLinks(true)
	return p
}

// maxPlainPasses bounds the strip/unescape loop in Plain.
const maxPlainPasses = 8

// Plain removes all markup. StrictPolicy escapes the surviving text, so it is
// unescaped again to store what the user actually typed ("Tom & Jerry", not
// "Tom &amp; Jerry"). Unescaping can reveal entity-encoded tags, so the two
// steps repeat until the text stops changing. Output is NFC-normalized.
func Plain(s string) string {
	out := norm.NFC.String(s)
	for range maxPlainPasses {
		next := html.UnescapeString(plainPolicy.Sanitize(out))
		if next == out {
			return strings.TrimSpace(out)
		}
		out = next
	}
	// Still changing after every pass: keep the escaped form.
	return strings.TrimSpace(plainPolicy.Sanitize(out))
}

// Rich keeps only user-generated-content-safe HTML. Output is NFC-normalized.
func Rich(s string) string {
	return strings.TrimSpace(richPolicy.Sanitize(norm.NFC.String(s)))
}

// PlainPtr applies Plain to an optional value.
func PlainPtr(s *string) *string {
	if s == nil {
		return nil
	}
	v := Plain(*s)
	return &v
}
