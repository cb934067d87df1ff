package util

import (
	"strings"
	"unicode"
)

// Slugify lowercases the input and collapses every run of non-alphanumeric
// characters into a single hyphen. Leading and trailing hyphens are trimmed.
func Slugify(value string) string {
	var b strings.Builder
	b.Grow(len(value))

	lastHyphen := true
	for _, r := range strings.ToLower(value) {
		if unicode.IsLetter(r) && r < unicode.MaxASCII || unicode.IsDigit(r) && r < unicode.MaxASCII {
			b.WriteRune(r)
			lastHyphen = false
			continue
		}
		if !lastHyphen {
			b.WriteByte('-')
			lastHyphen = true
		}
	}

	return strings.TrimSuffix(b.String(), "-")
}

// UniqueSlug builds a slug from the given name, suffixed with a short
// discriminator so records with identical names stay addressable. The
// discriminator is usually the head of the record's curation UUID.
func UniqueSlug(name string, discriminator string) string {
	slug := Slugify(name)
	if len(discriminator) > 8 {
		discriminator = discriminator[:8]
	}
	if slug == "" {
		return discriminator
	}
	if discriminator == "" {
		return slug
	}
	return slug + "-" + discriminator
}
