package profiler

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDetectLanguage(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		expected Language
	}{
		{"hiragana katakana", "プレテンダー", LanguageJapanese},
		{"kanji", "紅蓮華", LanguageJapanese},
		{"hangul", "봄날", LanguageKorean},
		{"french function words", "Je veux la vie avec toi", LanguageFrench},
		{"english function words", "The one with you and your love", LanguageEnglish},
		{"latin, no function words", "Volare Cantare", LanguageLatin},
		{"numbers only", "12345", LanguageOther},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, DetectLanguage(tt.text))
		})
	}
}

func TestDetectGenre(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		expected Genre
	}{
		{"metal", "Death Metal Scream Band", GenreMetal},
		{"rap", "Drill Trap Rapper", GenreRap},
		{"electro", "EDM House Anthem", GenreElectro},
		{"rock", "Punk Rock Revival", GenreRock},
		{"japanese script wins jpop", "夜に駆ける YOASOBI", GenreJPop},
		{"korean script wins kpop", "봄날 BTS", GenreKPop},
		{"pop keyword", "Dance Pop Hit", GenrePop},
		{"no match", "Ambient Soundscape", GenreOther},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, DetectGenre(tt.text))
		})
	}
}

func TestDetectVocal(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		artist   string
		expected Vocal
	}{
		{"multiple artists via feat", "Song feat. Someone", "Main Artist feat. Someone", VocalMixed},
		{"female keyword", "Her voice carries", "Unknown Artist", VocalFemale},
		{"male keyword", "His voice carries", "Unknown Artist", VocalMale},
		{"known female first name", "", "Ayumi Hamasaki", VocalFemale},
		{"known male first name", "", "Kenshi Yonezu", VocalMale},
		{"unknown", "", "Zzyzx Quartet", VocalUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, DetectVocal(tt.text, tt.artist))
		})
	}
}

func TestScore_ExactMatchMaximizes(t *testing.T) {
	s := Profile{Language: LanguageJapanese, Genre: GenreJPop, Vocal: VocalFemale}
	score := Score(s, s, false)
	assert.Equal(t, 80+45+25, score)
}

func TestScore_SameArtistPenalised(t *testing.T) {
	s := Profile{Language: LanguageEnglish, Genre: GenrePop, Vocal: VocalFemale}
	withoutPenalty := Score(s, s, false)
	withPenalty := Score(s, s, true)
	assert.Equal(t, 20, withoutPenalty-withPenalty)
}

func TestScore_LanguagePenaltyAsymmetric(t *testing.T) {
	frToEn := Profile{Language: LanguageFrench, Genre: GenreOther, Vocal: VocalUnknown}
	enCandidate := Profile{Language: LanguageEnglish, Genre: GenreOther, Vocal: VocalUnknown}
	enToFr := Profile{Language: LanguageEnglish, Genre: GenreOther, Vocal: VocalUnknown}
	frCandidate := Profile{Language: LanguageFrench, Genre: GenreOther, Vocal: VocalUnknown}

	frToEnScore := Score(frToEn, enCandidate, false)
	enToFrScore := Score(enToFr, frCandidate, false)

	assert.NotEqual(t, frToEnScore, enToFrScore)
	assert.Equal(t, -10, frToEnScore)
	assert.Equal(t, 10, enToFrScore)
}

func TestAccepts_ThresholdVariesByLanguage(t *testing.T) {
	japaneseSource := Profile{Language: LanguageJapanese, Genre: GenreOther, Vocal: VocalUnknown}
	weakCandidate := Profile{Language: LanguageJapanese, Genre: GenreOther, Vocal: VocalUnknown}
	assert.True(t, Accepts(japaneseSource, weakCandidate, false))

	mismatchedCandidate := Profile{Language: LanguageEnglish, Genre: GenreOther, Vocal: VocalUnknown}
	assert.False(t, Accepts(japaneseSource, mismatchedCandidate, false))

	otherSource := Profile{Language: LanguageOther, Genre: GenreRock, Vocal: VocalUnknown}
	mismatchedGenre := Profile{Language: LanguageEnglish, Genre: GenrePop, Vocal: VocalUnknown}
	assert.False(t, Accepts(otherSource, mismatchedGenre, false))
}

func TestBuild(t *testing.T) {
	p := Build(Candidate{Title: "紅蓮華", Artist: "LiSA"})
	assert.Equal(t, LanguageJapanese, p.Language)
}
