// Package keys builds the cache and store keys of sessions and decoded
// documents.
package keys

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/cespare/xxhash/v2"
)

const (
	sessionPrefix  = "cityjson:session"
	documentPrefix = "cityjson:doc"
)

// Session returns the store key of an import session. The readable part is
// sanitized and capped; the hash suffix keeps distinct ids apart.
func Session(id string) string {
	id = collapseASCIIWhitespace(strings.TrimSpace(id))
	safe := sanitizeForKey(id)

	const maxIDLen = 64
	if len(safe) > maxIDLen {
		safe = safe[:maxIDLen]
	}
	return fmt.Sprintf("%s:%s:h=%016x", sessionPrefix, safe, xxhash.Sum64String(id))
}

// Document keys a decode result by the document bytes and the options that
// shaped it.
func Document(body []byte, opts string) string {
	d := xxhash.New()
	_, _ = d.Write(body)
	_, _ = d.WriteString("\x00")
	_, _ = d.WriteString(opts)
	return fmt.Sprintf("%s:%016x", documentPrefix, d.Sum64())
}

func sanitizeForKey(s string) string {
	if s == "" {
		return ""
	}
	var b strings.Builder
	b.Grow(len(s))

	var prev rune
	for _, r := range s {
		out := rune(0)
		switch {
		case r == ' ':
			out = '_'
		case isAlphaNum(r) || r == '_' || r == '-' || r == '.':
			out = r
		default:
			// Any other rune (including non-ASCII and ':') becomes '-'
			out = '-'
		}
		if (out == '_' || out == '-') && out == prev {
			continue
		}
		b.WriteRune(out)
		prev = out
	}
	return b.String()
}

// converts any run of ASCII whitespace to a single space.
func collapseASCIIWhitespace(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	wasWS := false
	for _, r := range s {
		if r == ' ' || r == '\t' || r == '\n' || r == '\r' || r == '\v' || r == '\f' {
			if !wasWS {
				b.WriteByte(' ')
				wasWS = true
			}
			continue
		}
		b.WriteRune(r)
		wasWS = false
	}
	return strings.TrimSpace(b.String())
}

func isAlphaNum(r rune) bool {
	return (r >= 'a' && r <= 'z') ||
		(r >= 'A' && r <= 'Z') ||
		(r < unicode.MaxASCII && unicode.IsDigit(r))
}
