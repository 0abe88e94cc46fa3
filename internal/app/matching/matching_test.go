package matching

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"lowercases", "Pretender", "pretender"},
		{"drops accents", "Café du Nord", "cafe du nord"},
		{"strips punctuation", "Don't Stop Me Now!", "don t stop me now"},
		{"collapses whitespace", "too   many   spaces", "too many spaces"},
		{"trims", "  padded  ", "padded"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Normalize(tt.input))
		})
	}
}

func TestMatchMCQ(t *testing.T) {
	assert.True(t, MatchMCQ("pretender - official higedandism", "Pretender - Official HIGEDANdism"))
	assert.True(t, MatchMCQ("  Pretender   -   Official HIGEDANdism  ", "Pretender - Official HIGEDANdism"))
	assert.False(t, MatchMCQ("Idol", "Pretender - Official HIGEDANdism"))
}

type fakeRomanizer struct {
	cache     map[string]string
	scheduled []string
}

func newFakeRomanizer(cache map[string]string) *fakeRomanizer {
	return &fakeRomanizer{cache: cache}
}

func (f *fakeRomanizer) Cached(s string) (string, bool) {
	v, ok := f.cache[s]
	return v, ok
}

func (f *fakeRomanizer) Schedule(s string) {
	f.scheduled = append(f.scheduled, s)
}

func TestMatchText_ExactVariant(t *testing.T) {
	tr := Track{Title: "Idol", Artist: "YOASOBI"}
	assert.True(t, MatchText("idol", tr, NoopRomanizer{}))
	assert.True(t, MatchText("Idol Yoasobi", tr, NoopRomanizer{}))
	assert.False(t, MatchText("completely unrelated phrase", tr, NoopRomanizer{}))
}

func TestMatchText_FuzzyTypo(t *testing.T) {
	tr := Track{Title: "Pretender", Artist: "Official HIGEDANdism"}
	assert.True(t, MatchText("pretendor", tr, NoopRomanizer{}))
}

func TestMatchText_PrefixSuffix(t *testing.T) {
	tr := Track{Title: "Unravel", Artist: "TK"}
	assert.True(t, MatchText("unravel t", tr, NoopRomanizer{}))
}

func TestMatchText_RomajiVariant(t *testing.T) {
	tr := Track{Title: "紅蓮華", Artist: "LiSA"}
	rom := newFakeRomanizer(map[string]string{
		"紅蓮華": "Gurenge",
	})
	assert.True(t, MatchText("gurenge", tr, rom))
}

func TestMatchText_SchedulesUncachedRomaji(t *testing.T) {
	tr := Track{Title: "紅蓮華", Artist: "LiSA"}
	rom := newFakeRomanizer(map[string]string{})
	MatchText("gurenge", tr, rom)
	assert.Contains(t, rom.scheduled, "紅蓮華")
	assert.Contains(t, rom.scheduled, "LiSA")
}

func TestMatchText_EmptySubmissionNeverMatches(t *testing.T) {
	tr := Track{Title: "Idol", Artist: "YOASOBI"}
	assert.False(t, MatchText("   ", tr, NoopRomanizer{}))
}

func TestLevenshtein(t *testing.T) {
	assert.Equal(t, 0, levenshtein("abc", "abc"))
	assert.Equal(t, 1, levenshtein("abc", "abd"))
	assert.Equal(t, 3, levenshtein("", "abc"))
	assert.Equal(t, 3, levenshtein("kitten", "sitting"))
}
