package moderation

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func newTestPipeline(t *testing.T, words ...string) *Pipeline {
	t.Helper()
	matcher, err := NewMatcher(words)
	require.NoError(t, err)
	return NewPipeline(matcher)
}

func TestEvaluateAccepts(t *testing.T) {
	pipeline := newTestPipeline(t, "badger")

	verdict := pipeline.Evaluate("a perfectly fine message!")
	require.True(t, verdict.Accepted)
	require.Equal(t, "OK", verdict.Reason)
	require.Empty(t, verdict.Rewritten)
}

func TestEvaluateEmptyMessage(t *testing.T) {
	pipeline := newTestPipeline(t, "badger")

	for _, input := range []string{"", "   ", "\t\n  "} {
		verdict := pipeline.Evaluate(input)
		require.False(t, verdict.Accepted)
		require.Equal(t, "empty message", verdict.Reason)
		require.Equal(t, " ", verdict.Rewritten)
	}
}

func TestEvaluateDisallowedCharacters(t *testing.T) {
	pipeline := newTestPipeline(t, "badger")

	verdict := pipeline.Evaluate("hello <world>")
	require.False(t, verdict.Accepted)
	require.Equal(t, "disallowed characters", verdict.Reason)
	require.Equal(t, "hello  world ", verdict.Rewritten)
}

func TestEvaluateBannedWordMasksSpan(t *testing.T) {
	pipeline := newTestPipeline(t, "дурак")

	verdict := pipeline.Evaluate("ты дурак!")
	require.False(t, verdict.Accepted)
	require.Equal(t, "ты *****!", verdict.Rewritten)
	require.Contains(t, verdict.Reason, "ты *****!")
}

func TestEvaluateMasksEveryOccurrence(t *testing.T) {
	pipeline := newTestPipeline(t, "badger", "snake")

	verdict := pipeline.Evaluate("badger meets snake meets badger")
	require.False(t, verdict.Accepted)
	require.Equal(t, "****** meets ***** meets ******", verdict.Rewritten)
}

func TestEvaluateTrimsBeforeChecking(t *testing.T) {
	pipeline := newTestPipeline(t, "badger")

	verdict := pipeline.Evaluate("  badger  ")
	require.False(t, verdict.Accepted)
	require.Equal(t, "******", verdict.Rewritten)
}

func TestSanitizeIdempotent(t *testing.T) {
	input := "mixed <tags> and €uro signs"
	once := Sanitize(input)
	require.Equal(t, once, Sanitize(once))
	require.Equal(t, len([]rune(input)), len([]rune(once)))
}

func TestSanitizeKeepsAllowedPunctuation(t *testing.T) {
	input := `ok -.,!?()[]{}@#$%^&*:;"'/\ ok`
	require.Equal(t, input, Sanitize(input))
}

func TestCensorOverlapIsIdempotent(t *testing.T) {
	hits := []Hit{{Start: 0, End: 3, Word: "abcd"}, {Start: 2, End: 5, Word: "cdef"}}
	require.Equal(t, "******", censor("abcdef", hits))
	require.Equal(t, "******", censor(censor("abcdef", hits), hits))
}

func TestEvaluateLongText(t *testing.T) {
	pipeline := newTestPipeline(t, "badger")

	verdict := pipeline.Evaluate(strings.Repeat("fine words ", 500) + "badger")
	require.False(t, verdict.Accepted)
	require.True(t, strings.HasSuffix(verdict.Rewritten, "******"))
}
