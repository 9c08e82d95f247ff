package moderation

import (
	"strings"
	"unicode"
)

// MaskRune overwrites banned-word spans in censored output.
const MaskRune = '*'

// Punctuation allowed in chat messages besides letters, digits, underscore
// and whitespace.
const allowedPunct = `-.,!?()[]{}@#$%^&*:;"'/\`

// Verdict is the outcome of moderating one message.
type Verdict struct {
	Accepted bool
	Reason   string
	// Rewritten carries the surrogate text for a rejected message: a single
	// space for empty input, the sanitized text for disallowed characters,
	// or the censored text for banned words. Empty when accepted.
	Rewritten string
}

// Pipeline validates raw chat text and produces a verdict.
type Pipeline struct {
	matcher *Matcher
}

// NewPipeline wires the pipeline to a banned-word matcher.
func NewPipeline(matcher *Matcher) *Pipeline {
	return &Pipeline{matcher: matcher}
}

// Evaluate runs the checks in order, short-circuiting on the first failure:
// emptiness after trimming, the character whitelist, then the banned-word
// scan. Rewritten text is always derived from the trimmed input.
func (p *Pipeline) Evaluate(text string) Verdict {
	text = strings.TrimSpace(text)
	if text == "" {
		// Never an empty surrogate, downstream storage stays non-null.
		return Verdict{Accepted: false, Reason: "empty message", Rewritten: " "}
	}

	if !allAllowed(text) {
		return Verdict{Accepted: false, Reason: "disallowed characters", Rewritten: Sanitize(text)}
	}

	if hits := p.matcher.Scan(text); len(hits) > 0 {
		censored := censor(text, hits)
		return Verdict{Accepted: false, Reason: "banned words, censored: " + censored, Rewritten: censored}
	}

	return Verdict{Accepted: true, Reason: "OK"}
}

// Sanitize replaces every disallowed rune with a single space. The
// substitution is 1:1, so the result has the same rune length as the input
// and sanitizing already-sanitized text changes nothing.
func Sanitize(text string) string {
	return strings.Map(func(r rune) rune {
		if allowedRune(r) {
			return r
		}
		return ' '
	}, text)
}

// censor masks every matched span on the original text. Overlapping spans
// simply re-apply the mask over shared runes.
func censor(text string, hits []Hit) string {
	runes := []rune(text)
	for _, hit := range hits {
		if hit.Start < 0 || hit.End >= len(runes) {
			continue
		}
		for i := hit.Start; i <= hit.End; i++ {
			runes[i] = MaskRune
		}
	}
	return string(runes)
}

func allAllowed(text string) bool {
	for _, r := range text {
		if !allowedRune(r) {
			return false
		}
	}
	return true
}

// allowedRune mirrors the historical allow-set: word characters in the
// Unicode sense, whitespace and a fixed punctuation set.
func allowedRune(r rune) bool {
	if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' {
		return true
	}
	if unicode.IsSpace(r) {
		return true
	}
	return strings.ContainsRune(allowedPunct, r)
}
