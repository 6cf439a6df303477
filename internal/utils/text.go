package utils

import (
	"html"
	"strings"
	"unicode/utf8"

	"github.com/microcosm-cc/bluemonday"
)

var strictPolicy = bluemonday.StrictPolicy()

// CleanTitle strips markup and entity encoding from an entity-encoded
// upstream title and collapses whitespace runs. Stack Exchange returns titles
// such as "Can&#39;t compress &lt;video&gt;".
func CleanTitle(s string) string {
	if s == "" {
		return ""
	}
	stripped := strictPolicy.Sanitize(s)
	// Sanitize re-escapes text nodes, so unescape after it, twice for
	// upstream double encoding.
	unescaped := html.UnescapeString(html.UnescapeString(stripped))
	return CollapseSpace(unescaped)
}

// UnescapeTitle decodes HTML entities once and collapses whitespace. Reddit
// titles are plain text except for &amp;, &lt; and &gt;.
func UnescapeTitle(s string) string {
	return CollapseSpace(html.UnescapeString(s))
}

// CollapseSpace trims s and replaces every whitespace run with one space.
// Plain-text titles go through this only, so "<input>" or "Vec<u8>" survive.
func CollapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// TruncateRunes cuts s to at most n characters without splitting a
// multi-byte rune.
func TruncateRunes(s string, n int) string {
	if n <= 0 {
		return ""
	}
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	count := 0
	for i := range s {
		if count == n {
			return s[:i]
		}
		count++
	}
	return s
}
