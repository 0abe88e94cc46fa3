// Package matching implements the Answer Matcher: pure string comparison
// between a player's submission and a round's track, covering both MCQ
// exact-label matching and free-text fuzzy matching with romanization
// support.
package matching

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Romanizer supplies romanized (romaji) forms of Japanese text without ever
// blocking the matcher on network I/O. Cached returns a previously resolved
// romanization synchronously; Schedule hints the implementation to warm its
// cache for a future call but does not return a value.
type Romanizer interface {
	Cached(s string) (string, bool)
	Schedule(s string)
}

// NoopRomanizer never has a cached value, used when a room has no
// romanization backend configured.
type NoopRomanizer struct{}

// Cached always reports a miss.
func (NoopRomanizer) Cached(string) (string, bool) { return "", false }

// Schedule is a no-op.
func (NoopRomanizer) Schedule(string) {}

var nonAlphanumeric = regexp.MustCompile(`[^a-z0-9 ]`)
var whitespaceRun = regexp.MustCompile(`\s+`)

var stripMarks = transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Normalize applies NFKD decomposition, drops combining marks, lowercases,
// replaces any character outside [a-z0-9 ] with a space, collapses
// whitespace runs, and trims the result.
func Normalize(s string) string {
	decomposed, _, err := transform.String(stripMarks, s)
	if err != nil {
		decomposed = s
	}
	lowered := strings.ToLower(decomposed)
	stripped := nonAlphanumeric.ReplaceAllString(lowered, " ")
	collapsed := whitespaceRun.ReplaceAllString(stripped, " ")
	return strings.TrimSpace(collapsed)
}

// MatchMCQ reports whether a normalized submission equals the normalized
// canonical "title - artist" label.
func MatchMCQ(submission, canonicalLabel string) bool {
	return Normalize(submission) == Normalize(canonicalLabel)
}

// Track is the minimal shape the matcher needs to build a text-mode variant
// set.
type Track struct {
	Title  string
	Artist string
}

// Variants builds the full candidate set a free-text submission may match
// against: title, artist, "title artist", "title - artist", romanized
// forms of each when available, and their romaji cross-combinations.
func Variants(t Track, rom Romanizer) []string {
	variants := []string{
		t.Title,
		t.Artist,
		t.Title + " " + t.Artist,
		t.Title + " - " + t.Artist,
	}

	romajiTitle, hasRomajiTitle := "", false
	romajiArtist, hasRomajiArtist := "", false
	if rom != nil {
		romajiTitle, hasRomajiTitle = rom.Cached(t.Title)
		romajiArtist, hasRomajiArtist = rom.Cached(t.Artist)
		if !hasRomajiTitle {
			rom.Schedule(t.Title)
		}
		if !hasRomajiArtist {
			rom.Schedule(t.Artist)
		}
	}

	if hasRomajiTitle {
		variants = append(variants, romajiTitle)
	}
	if hasRomajiArtist {
		variants = append(variants, romajiArtist)
	}
	if hasRomajiTitle && hasRomajiArtist {
		variants = append(variants,
			romajiTitle+" "+romajiArtist,
			romajiTitle+" - "+romajiArtist,
		)
	}
	if hasRomajiTitle {
		variants = append(variants, romajiTitle+" "+t.Artist)
	}
	if hasRomajiArtist {
		variants = append(variants, t.Title+" "+romajiArtist)
	}

	return variants
}

// MatchText reports whether a free-text submission fuzzy-matches any
// variant of the round's track.
func MatchText(submission string, t Track, rom Romanizer) bool {
	normalizedSubmission := Normalize(submission)
	if normalizedSubmission == "" {
		return false
	}
	for _, variant := range Variants(t, rom) {
		if fuzzyAccepts(normalizedSubmission, Normalize(variant)) {
			return true
		}
	}
	return false
}

// fuzzyAccepts implements the three acceptance rules: exact normalized
// equality, bounded Levenshtein distance, or a sufficiently long
// prefix/suffix relationship.
func fuzzyAccepts(submission, variant string) bool {
	if variant == "" {
		return false
	}
	if submission == variant {
		return true
	}

	maxDistance := len(variant) / 6
	if maxDistance < 1 {
		maxDistance = 1
	}
	if levenshtein(submission, variant) <= maxDistance {
		return true
	}

	if len(variant) >= 4 {
		if strings.HasPrefix(variant, submission) || strings.HasSuffix(variant, submission) {
			return true
		}
		if strings.HasPrefix(submission, variant) || strings.HasSuffix(submission, variant) {
			return true
		}
	}

	return false
}

// levenshtein computes the edit distance between two strings using a
// single-row dynamic-programming table.
func levenshtein(a, b string) int {
	ra, rb := []rune(a), []rune(b)
	if len(ra) == 0 {
		return len(rb)
	}
	if len(rb) == 0 {
		return len(ra)
	}

	prevRow := make([]int, len(rb)+1)
	for j := range prevRow {
		prevRow[j] = j
	}

	for i := 1; i <= len(ra); i++ {
		currRow := make([]int, len(rb)+1)
		currRow[0] = i
		for j := 1; j <= len(rb); j++ {
			cost := 1
			if ra[i-1] == rb[j-1] {
				cost = 0
			}
			currRow[j] = minOf3(
				currRow[j-1]+1,
				prevRow[j]+1,
				prevRow[j-1]+cost,
			)
		}
		prevRow = currRow
	}

	return prevRow[len(rb)]
}

func minOf3(a, b, c int) int {
	m := a
	if b < m {
		m = b
	}
	if c < m {
		m = c
	}
	return m
}
