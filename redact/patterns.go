package redact

import (
	"fmt"
	"iter"
	"regexp"
	"strings"
	"unicode/utf8"
)

// asciiSpace lists the bytes the chunk planner treats as whitespace.
const asciiSpace = " \t\n\v\f\r"

// Match is a single non-overlapping occurrence found by a PatternSet.
type Match struct {
	Start int
	End   int
	Text  string
}

// PatternSet is an immutable set of literal substrings compiled into one case-insensitive alternation.
type PatternSet struct {
	substrings []string
	re         *regexp.Regexp

	// anchored holds one `\A(?i:literal)` matcher per substring, used to find occurrences the alternation would
	// hide behind an earlier, overlapping match.
	anchored []*regexp.Regexp
	maxLen   int
	hasSpace bool
}

// NewPatternSet compiles substrings, in order, into a PatternSet. When two substrings could match at the same
// position the one listed first wins.
func NewPatternSet(substrings []string) (*PatternSet, error) {
	if len(substrings) == 0 {
		return nil, ConfigError("missing substrings")
	}

	p := &PatternSet{
		substrings: make([]string, len(substrings)),
		anchored:   make([]*regexp.Regexp, len(substrings)),
	}
	alternatives := make([]string, len(substrings))
	for i, s := range substrings {
		if s == "" {
			return nil, ConfigError(fmt.Sprintf("substring %d is empty", i))
		}
		if !utf8.ValidString(s) {
			return nil, ConfigError(fmt.Sprintf("substring %d is not valid UTF-8", i))
		}
		p.substrings[i] = s
		quoted := regexp.QuoteMeta(s)
		alternatives[i] = "(?:" + quoted + ")"

		re, err := regexp.Compile(`\A(?i:` + quoted + `)`)
		if err != nil {
			return nil, newError(KindConfig, err, "could not compile substring %d", i)
		}
		p.anchored[i] = re

		// Case folding can change the encoded width of a rune (e.g. 'k' and U+212A KELVIN SIGN), so bound the
		// match length by rune count rather than by len(s).
		if n := utf8.RuneCountInString(s) * utf8.UTFMax; n > p.maxLen {
			p.maxLen = n
		}
		if strings.ContainsAny(s, asciiSpace) {
			p.hasSpace = true
		}
	}

	re, err := regexp.Compile("(?i:" + strings.Join(alternatives, "|") + ")")
	if err != nil {
		return nil, newError(KindConfig, err, "could not compile substrings")
	}
	p.re = re
	return p, nil
}

// Substrings returns a copy of the configured substrings in their configured order.
func (p *PatternSet) Substrings() []string {
	out := make([]string, len(p.substrings))
	copy(out, p.substrings)
	return out
}

// MaxMatchLen is an upper bound, in bytes, on the length of any match.
func (p *PatternSet) MaxMatchLen() int {
	return p.maxLen
}

// Matches lazily yields the matches in text from left to right.
func (p *PatternSet) Matches(text []byte) iter.Seq[Match] {
	return func(yield func(Match) bool) {
		pos := 0
		for pos < len(text) {
			loc := p.re.FindIndex(text[pos:])
			if loc == nil {
				return
			}
			start, end := pos+loc[0], pos+loc[1]
			if !yield(Match{Start: start, End: end, Text: string(text[start:end])}) {
				return
			}
			// Substrings are never empty, so end > start always holds.
			pos = end
		}
	}
}

// Crosses reports whether any occurrence of any substring starts before pos and ends after it. Unlike Matches it
// considers overlapping occurrences too, so a position for which Crosses is false can never split a match no matter
// where scanning started.
func (p *PatternSet) Crosses(content []byte, pos int) bool {
	if pos <= 0 || pos >= len(content) {
		return false
	}
	// A boundary right after an ASCII whitespace byte can only be crossed by a substring containing that byte.
	if !p.hasSpace && strings.IndexByte(asciiSpace, content[pos-1]) >= 0 {
		return false
	}

	from := pos - p.maxLen + 1
	if from < 0 {
		from = 0
	}
	for s := from; s < pos; s++ {
		if !utf8.RuneStart(content[s]) {
			continue
		}
		limit := s + p.maxLen
		if limit > len(content) {
			limit = len(content)
		}
		window := content[s:limit]
		for _, re := range p.anchored {
			if loc := re.FindIndex(window); loc != nil && s+loc[1] > pos {
				return true
			}
		}
	}
	return false
}
