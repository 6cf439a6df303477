package site

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
	"time"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"autosite/internal/utils"
)

const maxSlugLen = 48

var nonAlnum = regexp.MustCompile(`[^a-z0-9]+`)

// Slugify folds s to lowercase ASCII letters and digits joined by single
// dashes, at most 48 characters long. Diacritics are stripped first so that
// "Café" becomes "cafe". An empty result becomes "site".
func Slugify(s string) string {
	folded, _, err := transform.String(transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC), s)
	if err != nil {
		folded = s
	}

	slug := nonAlnum.ReplaceAllString(strings.ToLower(folded), "-")
	slug = strings.Trim(slug, "-")
	if len(slug) > maxSlugLen {
		slug = strings.TrimRight(slug[:maxSlugLen], "-")
	}
	if slug == "" {
		return "site"
	}
	return slug
}

// BaseSlug is "auto-<topic>-<YYYYMMDD>" for the UTC date of now.
func BaseSlug(topicKey string, now time.Time) string {
	return fmt.Sprintf("auto-%s-%s", Slugify(topicKey), now.UTC().Format("20060102"))
}

// UniqueSlug returns base, or base-2, base-3, ... whichever is free under both
// root and docsRoot.
func UniqueSlug(root, docsRoot, base string) string {
	taken := func(slug string) bool {
		return utils.Exists(filepath.Join(root, slug)) || (docsRoot != "" && utils.Exists(filepath.Join(docsRoot, slug)))
	}

	slug := base
	for i := 2; taken(slug); i++ {
		slug = fmt.Sprintf("%s-%d", base, i)
	}
	return slug
}
