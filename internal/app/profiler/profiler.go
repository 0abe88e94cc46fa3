// Package profiler derives lightweight (language, genre, vocal) tags from a
// track's title and artist text, and scores how coherent a candidate track
// is as an MCQ distractor against a round's source track.
package profiler

import (
	"regexp"
	"strings"
)

// Language is one of the recognised script/lexical families.
type Language string

const (
	LanguageJapanese Language = "japanese"
	LanguageKorean   Language = "korean"
	LanguageFrench   Language = "french"
	LanguageEnglish  Language = "english"
	LanguageLatin    Language = "latin"
	LanguageOther    Language = "other"
)

// Genre is one of the recognised genre buckets.
type Genre string

const (
	GenreMetal   Genre = "metal"
	GenreRock    Genre = "rock"
	GenrePop     Genre = "pop"
	GenreJPop    Genre = "jpop"
	GenreKPop    Genre = "kpop"
	GenreRap     Genre = "rap"
	GenreElectro Genre = "electro"
	GenreOther   Genre = "other"
)

// Vocal is one of the recognised vocal-arrangement buckets.
type Vocal string

const (
	VocalFemale  Vocal = "female"
	VocalMale    Vocal = "male"
	VocalMixed   Vocal = "mixed"
	VocalUnknown Vocal = "unknown"
)

// Profile is the (language, genre, vocal) tag set derived for one track.
type Profile struct {
	Language Language
	Genre    Genre
	Vocal    Vocal
}

// Candidate is the minimal shape the profiler needs from a track: its
// display text and its primary artist name, used for same-artist checks.
type Candidate struct {
	Title  string
	Artist string
}

var (
	hiraganaKatakana = regexp.MustCompile(`[\x{3040}-\x{30FF}]`)
	kanji            = regexp.MustCompile(`[\x{4E00}-\x{9FFF}]`)
	hangul           = regexp.MustCompile(`[\x{AC00}-\x{D7A3}]`)
)

// frenchFunctionWords is a closed dictionary of common French function
// words used to discriminate French from English/Latin text once script
// ranges rule out CJK.
var frenchFunctionWords = map[string]bool{
	"le": true, "la": true, "les": true, "de": true, "du": true, "des": true,
	"et": true, "un": true, "une": true, "je": true, "tu": true, "nous": true,
	"vous": true, "pas": true, "avec": true, "pour": true, "dans": true,
	"est": true, "sur": true, "mais": true, "ou": true, "que": true,
}

// englishFunctionWords is the English counterpart used the same way.
var englishFunctionWords = map[string]bool{
	"the": true, "and": true, "of": true, "you": true, "your": true,
	"with": true, "for": true, "is": true, "are": true, "to": true,
	"in": true, "on": true, "my": true, "me": true, "love": true,
}

// DetectLanguage classifies the text by script first, then by function-word
// frequency, falling back to latin when the text is alphabetic but neither
// dictionary votes, and to other when nothing matches.
func DetectLanguage(text string) Language {
	switch {
	case hiraganaKatakana.MatchString(text) || kanji.MatchString(text):
		return LanguageJapanese
	case hangul.MatchString(text):
		return LanguageKorean
	}

	words := tokenize(text)
	if len(words) == 0 {
		return LanguageOther
	}

	var frCount, enCount int
	for _, w := range words {
		if frenchFunctionWords[w] {
			frCount++
		}
		if englishFunctionWords[w] {
			enCount++
		}
	}

	switch {
	case frCount > enCount && frCount > 0:
		return LanguageFrench
	case enCount > 0:
		return LanguageEnglish
	case isLatinScript(text):
		return LanguageLatin
	default:
		return LanguageOther
	}
}

func isLatinScript(text string) bool {
	for _, r := range text {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') {
			return true
		}
	}
	return false
}

func tokenize(text string) []string {
	fields := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !((r >= 'a' && r <= 'z') || (r >= '0' && r <= '9'))
	})
	return fields
}

// genreRule is one ordered regex rule; the first matching rule wins.
type genreRule struct {
	pattern *regexp.Regexp
	genre   Genre
}

var genreRules = []genreRule{
	{regexp.MustCompile(`(?i)\b(metal|core|scream|growl|djent)\b`), GenreMetal},
	{regexp.MustCompile(`(?i)\b(rap|hip.?hop|trap|drill)\b`), GenreRap},
	{regexp.MustCompile(`(?i)\b(edm|house|techno|dubstep|trance|electro)\b`), GenreElectro},
	{regexp.MustCompile(`(?i)\b(rock|punk|grunge)\b`), GenreRock},
	{regexp.MustCompile(`[\x{3040}-\x{30FF}\x{4E00}-\x{9FFF}]`), GenreJPop},
	{regexp.MustCompile(`[\x{AC00}-\x{D7A3}]`), GenreKPop},
	{regexp.MustCompile(`(?i)\b(pop|dance)\b`), GenrePop},
}

// DetectGenre applies the ordered genre rules against "title artist" text.
func DetectGenre(text string) Genre {
	for _, rule := range genreRules {
		if rule.pattern.MatchString(text) {
			return rule.genre
		}
	}
	return GenreOther
}

var splitMarkers = regexp.MustCompile(`(?i)\s*(?:feat\.?|ft\.?|&|,|\bx\b|\bvs\.?\b)\s*`)

// femaleFirstNames and maleFirstNames are closed allow-lists used as a last
// resort hint when no explicit vocal keyword is present.
var femaleFirstNames = map[string]bool{
	"ayumi": true, "hikaru": true, "mariya": true, "yui": true, "aimer": true,
	"lisa": true, "ado": true, "mika": true, "yuki": true, "nana": true,
}

var maleFirstNames = map[string]bool{
	"kenshi": true, "gen": true, "masato": true, "kazuki": true, "taka": true,
	"shinji": true, "daichi": true, "ryo": true, "hiroyuki": true,
}

var (
	femaleKeyword = regexp.MustCompile(`(?i)\b(she|her|girl|female vocal)\b`)
	maleKeyword   = regexp.MustCompile(`(?i)\b(he|his|boy|male vocal)\b`)
)

// DetectVocal splits the artist field on conjunction markers to approximate
// a performer count, then hints gender from keywords and a closed first-name
// list. Any ambiguity resolves to unknown rather than a guess.
func DetectVocal(titleArtistText, artist string) Vocal {
	parts := splitMarkers.Split(artist, -1)
	performerCount := 0
	for _, p := range parts {
		if strings.TrimSpace(p) != "" {
			performerCount++
		}
	}

	if performerCount > 1 {
		return VocalMixed
	}

	if femaleKeyword.MatchString(titleArtistText) {
		return VocalFemale
	}
	if maleKeyword.MatchString(titleArtistText) {
		return VocalMale
	}

	return vocalFromFirstName(artist)
}

func vocalFromFirstName(artist string) Vocal {
	words := tokenize(artist)
	if len(words) == 0 {
		return VocalUnknown
	}
	first := words[0]
	switch {
	case femaleFirstNames[first]:
		return VocalFemale
	case maleFirstNames[first]:
		return VocalMale
	default:
		return VocalUnknown
	}
}

// Build derives the full (language, genre, vocal) tag set for a candidate.
func Build(c Candidate) Profile {
	text := c.Title + " " + c.Artist
	return Profile{
		Language: DetectLanguage(text),
		Genre:    DetectGenre(text),
		Vocal:    DetectVocal(text, c.Artist),
	}
}

// languagePenalty implements the asymmetric language-mismatch table. Order
// matters: more specific source/target pairs are checked before the general
// ja/ko rules.
func languagePenalty(source, candidate Language) int {
	if source == candidate {
		return 0
	}
	switch source {
	case LanguageFrench:
		if candidate == LanguageEnglish {
			return 55
		}
		return 30
	case LanguageEnglish:
		if candidate == LanguageFrench {
			return 35
		}
		if candidate != LanguageLatin {
			return 25
		}
		return 0
	case LanguageJapanese:
		return 40
	case LanguageKorean:
		return 35
	default:
		return 0
	}
}

// minimumAcceptanceScore returns the coherence threshold for a source
// profile: tighter for the three scripts with the richest disambiguation
// signal, looser otherwise.
func minimumAcceptanceScore(source Language) int {
	switch source {
	case LanguageJapanese, LanguageKorean, LanguageFrench:
		return 35
	default:
		return 15
	}
}

// Score computes the coherence score of candidate C against source profile S,
// given whether they share a primary artist.
func Score(s, c Profile, sameArtist bool) int {
	score := 0
	if s.Language == c.Language {
		score += 80
	}
	if s.Genre == c.Genre {
		score += 45
	}
	if s.Vocal != VocalUnknown && s.Vocal == c.Vocal {
		score += 25
	}
	if sameArtist {
		score -= 20
	}
	score -= languagePenalty(s.Language, c.Language)
	if s.Genre != GenreOther && c.Genre != s.Genre {
		score -= 15
	}
	return score
}

// Accepts reports whether a candidate's coherence score clears the
// source profile's minimum acceptance threshold.
func Accepts(s, c Profile, sameArtist bool) bool {
	return Score(s, c, sameArtist) >= minimumAcceptanceScore(s.Language)
}
