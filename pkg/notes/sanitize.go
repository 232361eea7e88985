// Package notes turns GitHub release notes into the plain text shown by
// AltStore-compatible clients.
package notes

import (
	"regexp"
	"strings"
)

// DefaultMarker separates the release summary from the notes proper
const DefaultMarker = "Aidoku Release Information"

// Bullet replaces every hyphen. Published catalogs carry this exact byte
// sequence, so it must not be "fixed" to U+2022.
const Bullet = "â€¢"

var (
	tagRegex     = regexp.MustCompile(`<[^<]+?>`)
	// one Unicode whitespace rune; RE2's \s alone is ASCII only
	headingRegex = regexp.MustCompile(`#{1,6}[\s\v\p{Z}\x{85}\x{1c}-\x{1f}]?`)
)

// Sanitize strips markup from text. The steps run in a fixed order: tags,
// heading markers, bold markers, hyphens, backticks, then CRLF.
func Sanitize(text string) string {
	text = tagRegex.ReplaceAllString(text, "")
	text = headingRegex.ReplaceAllString(text, "")
	text = strings.ReplaceAll(text, "**", "")
	text = strings.ReplaceAll(text, "-", Bullet)
	text = strings.ReplaceAll(text, "`", `"`)
	text = strings.ReplaceAll(text, "\r\n", "\n")
	return text
}

// AfterMarker keeps only what follows the first occurrence of marker,
// trimmed. Text without the marker, or an empty marker, is returned as is.
func AfterMarker(text, marker string) string {
	if marker == "" {
		return text
	}
	_, after, found := strings.Cut(text, marker)
	if !found {
		return text
	}
	return strings.TrimSpace(after)
}

// Prepare produces a catalog description from a release body
func Prepare(body, marker string) string {
	return Sanitize(AfterMarker(body, marker))
}
