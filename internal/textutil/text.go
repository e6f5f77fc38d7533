// Package textutil holds the label and answer normalisation shared by the
// recognizer, extractor, filter and scorer. Matching only works if every
// component normalises with these exact functions.
package textutil

import (
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

// LanguageTagLength is the length of a trailing "@xx" language tag.
const LanguageTagLength = 3

const languageTagMarker = '@'

// LanguageTag reports the two-letter tag of s when s ends in "@xx".
func LanguageTag(s string) (string, bool) {
	if len(s) <= LanguageTagLength {
		return "", false
	}
	pos := len(s) - LanguageTagLength
	if s[pos] != languageTagMarker {
		return "", false
	}
	return s[pos+1:], true
}

// StripLanguageTag removes a trailing "@xx" tag. Strings no longer than the
// tag itself are returned unchanged.
func StripLanguageTag(s string) string {
	if _, ok := LanguageTag(s); ok {
		return s[:len(s)-LanguageTagLength]
	}
	return s
}

// HasForeignTag reports whether s carries a language tag other than lang.
func HasForeignTag(s, lang string) bool {
	tag, ok := LanguageTag(s)
	return ok && tag != lang
}

// ProperCase upper-cases the first character and every character that follows
// a space. All other characters are left as they are.
func ProperCase(s string) string {
	if s == "" {
		return s
	}

	var b strings.Builder
	b.Grow(len(s))

	upperNext := true
	for _, r := range s {
		if upperNext {
			b.WriteRune(unicode.ToUpper(r))
		} else {
			b.WriteRune(r)
		}
		upperNext = r == ' '
	}
	return b.String()
}

// Structure derives the per-word letter counts of an answer. Words are split on
// spaces; only letters and digits count towards a word's length.
func Structure(text string) []int {
	words := strings.Split(text, " ")
	structure := make([]int, 0, len(words))
	for _, word := range words {
		if word == "" {
			continue
		}
		n := 0
		for _, r := range word {
			if unicode.IsLetter(r) || unicode.IsDigit(r) {
				n++
			}
		}
		structure = append(structure, n)
	}
	return structure
}

// FormatStructure renders a structure as "[3, 5]".
func FormatStructure(structure []int) string {
	parts := make([]string, len(structure))
	for i, n := range structure {
		parts[i] = strconv.Itoa(n)
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

// EqualStructure is order-sensitive sequence equality.
func EqualStructure(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// Truncate shortens s to at most n runes, for log output.
func Truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	return string(runes[:n]) + "..."
}
