// internal/mailer/tags.go
package mailer

import "strings"

const maxTagLen = 128

// SanitizeTag maps an arbitrary string onto the character set SES allows for
// message tags. Whitespace runs collapse to a single underscore and anything
// outside [A-Za-z0-9_-] is dropped. The mapping is deterministic, so the same
// org/queue-item pair always produces the same tag value downstream.
func SanitizeTag(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	inSpace := false
	for _, r := range s {
		switch {
		case r == ' ' || r == '\t' || r == '\n' || r == '\r':
			inSpace = true
		case (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '_' || r == '-':
			if inSpace && b.Len() > 0 {
				b.WriteByte('_')
			}
			inSpace = false
			b.WriteRune(r)
		default:
			// dropped
		}
	}
	out := b.String()
	if len(out) > maxTagLen {
		out = out[:maxTagLen]
	}
	return out
}
