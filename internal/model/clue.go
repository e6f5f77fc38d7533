package model

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/ppiankov/semsolver/internal/textutil"
)

// DefaultMaxFragmentWords caps the length of multi-word fragments.
const DefaultMaxFragmentWords = 4

// Clue is a parsed puzzle clue. It is immutable after ParseClue returns.
type Clue struct {
	sourceText  string
	tokens      []string
	fragments   []string
	structure   []int
	fillInBlank bool
}

// ClueOption adjusts clue parsing.
type ClueOption func(*clueOptions)

type clueOptions struct {
	fillInBlank      bool
	maxFragmentWords int
}

// WithFillInBlank forces fill-in-the-blank mode even when the text carries no
// blank marker.
func WithFillInBlank(enabled bool) ClueOption {
	return func(o *clueOptions) {
		o.fillInBlank = o.fillInBlank || enabled
	}
}

// WithMaxFragmentWords sets the longest word run turned into a fragment.
func WithMaxFragmentWords(n int) ClueOption {
	return func(o *clueOptions) {
		if n > 0 {
			o.maxFragmentWords = n
		}
	}
}

// ParseClue parses "<text> [<n1>, <n2>, ...]".
func ParseClue(raw string, opts ...ClueOption) (*Clue, error) {
	options := clueOptions{maxFragmentWords: DefaultMaxFragmentWords}
	for _, opt := range opts {
		opt(&options)
	}

	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, fmt.Errorf("%w: empty clue", ErrInvalidClue)
	}

	open := strings.Index(raw, "[")
	if open < 0 || raw[len(raw)-1] != ']' {
		return nil, fmt.Errorf("%w: invalid specification of solution structure", ErrInvalidClue)
	}

	text := strings.TrimSpace(raw[:open])
	if text == "" {
		return nil, fmt.Errorf("%w: empty clue text", ErrInvalidClue)
	}

	structure, err := parseStructure(raw[open+1 : len(raw)-1])
	if err != nil {
		return nil, err
	}

	tokens := strings.Fields(text)
	fillInBlank := options.fillInBlank
	for _, token := range tokens {
		if isBlankMarker(token) {
			fillInBlank = true
			break
		}
	}

	return &Clue{
		sourceText:  text,
		tokens:      tokens,
		fragments:   buildFragments(tokens, options.maxFragmentWords),
		structure:   structure,
		fillInBlank: fillInBlank,
	}, nil
}

func parseStructure(s string) ([]int, error) {
	if strings.TrimSpace(s) == "" {
		return nil, fmt.Errorf("%w: invalid specification of solution structure", ErrInvalidClue)
	}

	parts := strings.Split(s, ",")
	structure := make([]int, 0, len(parts))
	for _, part := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil || n <= 0 {
			return nil, fmt.Errorf("%w: invalid word length %q", ErrInvalidClue, strings.TrimSpace(part))
		}
		structure = append(structure, n)
	}
	return structure, nil
}

// buildFragments emits every run of up to maxWords consecutive tokens, proper
// cased and space-joined, ordered by start position then length. Runs never
// cross a blank marker.
func buildFragments(tokens []string, maxWords int) []string {
	var fragments []string
	for start := range tokens {
		for end := start; end < len(tokens) && end-start < maxWords; end++ {
			if isBlankMarker(tokens[end]) {
				break
			}
			fragments = append(fragments, textutil.ProperCase(strings.Join(tokens[start:end+1], " ")))
		}
	}
	return fragments
}

// isBlankMarker reports whether a token is a fill-in-the-blank gap such as
// "___" or "...".
func isBlankMarker(token string) bool {
	return strings.Trim(token, "_") == "" || strings.Trim(token, ".…") == ""
}

// SourceText returns the clue text without its structure suffix.
func (c *Clue) SourceText() string { return c.sourceText }

// Tokens returns the whitespace-delimited words of the clue text.
func (c *Clue) Tokens() []string { return append([]string(nil), c.tokens...) }

// Fragments returns the proper-cased word runs used for matching.
func (c *Clue) Fragments() []string { return append([]string(nil), c.fragments...) }

// Structure returns the letter count of each answer word.
func (c *Clue) Structure() []int { return append([]int(nil), c.structure...) }

// NumberOfWords is the number of words in the answer.
func (c *Clue) NumberOfWords() int { return len(c.structure) }

// FillInBlank reports substring-matching mode.
func (c *Clue) FillInBlank() bool { return c.fillInBlank }

// StructureString renders the structure as "[3, 5]".
func (c *Clue) StructureString() string { return textutil.FormatStructure(c.structure) }

// String renders the clue the way it was entered.
func (c *Clue) String() string { return c.sourceText + " " + c.StructureString() }

// HasFragment reports whether s equals one of the clue's fragments.
func (c *Clue) HasFragment(s string) bool {
	for _, f := range c.fragments {
		if f == s {
			return true
		}
	}
	return false
}

// MatchesStructure reports exact structure equality with the solution.
func (c *Clue) MatchesStructure(s *Solution) bool {
	return textutil.EqualStructure(s.Structure, c.structure)
}
