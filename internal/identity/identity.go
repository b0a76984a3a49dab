// Package identity derives stable identifiers for entities the vendor API
// describes inconsistently (by URL, MAC, IP, hostname or free text).
//
// The same Normalize function doubles as the join key for every
// cross-resource correlation, so "AA:BB:CC:DD:EE:FF" and "aabbccddeeff"
// always meet on the same key.
package identity

import (
	"net/url"
	"strings"
	"unicode"
)

// Normalize trims, lowercases and strips every non-alphanumeric rune. When
// stripping leaves nothing, the lowercased form is returned instead.
func Normalize(s string) string {
	lowered := strings.ToLower(strings.TrimSpace(s))
	if lowered == "" {
		return ""
	}

	var b strings.Builder
	b.Grow(len(lowered))
	for _, r := range lowered {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	if b.Len() == 0 {
		return lowered
	}
	return b.String()
}

// StableID returns "{prefix}-{normalized}" for the first candidate that
// normalizes to a non-empty string, or "{prefix}-unknown".
func StableID(prefix string, candidates ...string) string {
	for _, candidate := range candidates {
		if normalized := Normalize(candidate); normalized != "" {
			return prefix + "-" + normalized
		}
	}
	return prefix + "-unknown"
}

// FromURL returns the final path segment of a resource URL, which is the
// natural primary id candidate ("/2.2/eeros/12345" -> "12345").
func FromURL(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	if u, err := url.Parse(raw); err == nil {
		raw = u.Path
	}
	raw = strings.TrimRight(raw, "/")
	if i := strings.LastIndex(raw, "/"); i >= 0 {
		raw = raw[i+1:]
	}
	return raw
}

// IsPlaceholderMAC reports whether mac is empty or an all-zero filler such
// as "00:00:00:00:00:00".
func IsPlaceholderMAC(mac string) bool {
	normalized := Normalize(mac)
	if normalized == "" {
		return true
	}
	return strings.Trim(normalized, "0") == ""
}
