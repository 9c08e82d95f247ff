package moderation

import (
	"fmt"
	"sort"
	"unicode"

	goahocorasick "github.com/anknown/ahocorasick"
)

// Hit is a single wordlist match inside a scanned text. Start and End are
// rune indexes into the original text, End inclusive.
type Hit struct {
	Start int
	End   int
	Word  string
}

// Matcher is a multi-pattern scanner over a fixed wordlist. It is built once
// at startup and is safe for unsynchronized concurrent reads afterwards.
type Matcher struct {
	machine *goahocorasick.Machine
}

// NewMatcher builds the matching automaton from the given words. Matching is
// case-insensitive; words are lowercased rune-by-rune so that reported spans
// line up with the original text.
func NewMatcher(words []string) (*Matcher, error) {
	patterns := make([][]rune, 0, len(words))
	for _, word := range words {
		runes := lowerRunes([]rune(word))
		if len(runes) == 0 {
			continue
		}
		patterns = append(patterns, runes)
	}
	if len(patterns) == 0 {
		return &Matcher{}, nil
	}

	machine := new(goahocorasick.Machine)
	if err := machine.Build(patterns); err != nil {
		return nil, fmt.Errorf("build automaton: %w", err)
	}
	return &Matcher{machine: machine}, nil
}

// Scan reports every occurrence of every configured word in text, ordered by
// match end position. A single pass over the text finds all matches
// regardless of wordlist size.
func (m *Matcher) Scan(text string) []Hit {
	if m.machine == nil || text == "" {
		return nil
	}

	lowered := lowerRunes([]rune(text))
	terms := m.machine.MultiPatternSearch(lowered, false)
	if len(terms) == 0 {
		return nil
	}

	hits := make([]Hit, 0, len(terms))
	for _, term := range terms {
		length := len(term.Word)
		hits = append(hits, Hit{
			Start: term.Pos,
			End:   term.Pos + length - 1,
			Word:  string(term.Word),
		})
	}
	sort.Slice(hits, func(i, j int) bool {
		if hits[i].End != hits[j].End {
			return hits[i].End < hits[j].End
		}
		return hits[i].Start < hits[j].Start
	})
	return hits
}

func lowerRunes(runes []rune) []rune {
	out := make([]rune, len(runes))
	for i, r := range runes {
		out[i] = unicode.ToLower(r)
	}
	return out
}
