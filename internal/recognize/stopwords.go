package recognize

import "strings"

// commonWords are fragments never looked up. Matching labels for these is
// slow and yields thousands of irrelevant resources.
var commonWords = []string{
	"a", "about", "after", "all", "also", "an", "and", "any", "are", "as", "at",
	"be", "been", "but", "by", "can", "could", "do", "for", "from", "had",
	"has", "have", "he", "her", "his", "how", "i", "if", "in", "into", "is",
	"it", "its", "like", "may", "more", "most", "no", "not", "of", "on",
	"one", "or", "other", "our", "out", "she", "so", "some", "such", "than",
	"that", "the", "their", "them", "then", "there", "these", "they", "this",
	"to", "up", "was", "we", "were", "what", "when", "where", "which", "who",
	"will", "with", "would", "you", "your",
}

// StopWords is a case-insensitive word set.
type StopWords map[string]struct{}

// NewStopWords returns the built-in set plus extra.
func NewStopWords(extra ...string) StopWords {
	sw := make(StopWords, len(commonWords)+len(extra))
	for _, w := range commonWords {
		sw[w] = struct{}{}
	}
	for _, w := range extra {
		if w = strings.TrimSpace(w); w != "" {
			sw[strings.ToLower(w)] = struct{}{}
		}
	}
	return sw
}

// Contains reports whether fragment is a stop word, ignoring case.
func (sw StopWords) Contains(fragment string) bool {
	_, ok := sw[strings.ToLower(fragment)]
	return ok
}
