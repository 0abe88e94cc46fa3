// Package track provides the Track domain entity.
package track

import (
	"regexp"
	"strings"
)

// Provider identifies the catalog a track was sourced from.
type Provider string

const (
	ProviderSpotify     Provider = "spotify"
	ProviderDeezer      Provider = "deezer"
	ProviderYouTube     Provider = "youtube"
	ProviderAnimeThemes Provider = "animethemes"
)

// Track is a playable item drawn from one of the external catalogs.
type Track struct {
	Provider    Provider
	ID          string
	Title       string
	Artist      string
	PreviewURL  string
	SourceURL   string
	DurationSec int // 0 means unknown
}

// CanonicalLabel returns "<title> - <artist>", used as the MCQ answer label
// and to de-duplicate MCQ choices (pool de-duplication uses Signature).
func (t Track) CanonicalLabel() string {
	return t.Title + " - " + t.Artist
}

// Signature returns the de-duplication key for pool building.
func (t Track) Signature() string {
	return string(t.Provider) + ":" + t.ID + ":" + strings.ToLower(t.Title) + ":" + strings.ToLower(t.Artist)
}

var (
	youtubeHost     = regexp.MustCompile(`(?i)(youtube\.com|youtu\.be)`)
	animethemesHost = regexp.MustCompile(`(?i)animethemes\.moe`)
)

// IsPlayable reports whether the track can be rendered client-side: its
// provider is YouTube or AnimeThemes, or its source URL matches one of
// their host patterns.
func (t Track) IsPlayable() bool {
	switch t.Provider {
	case ProviderYouTube, ProviderAnimeThemes:
		return true
	}
	if t.SourceURL == "" {
		return false
	}
	return youtubeHost.MatchString(t.SourceURL) || animethemesHost.MatchString(t.SourceURL)
}

// promoPatterns catches promotional filler tracks injected by some catalogs.
var promoPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\b(this app|download app|free music alternative|best free music)\b`),
	regexp.MustCompile(`(?i)\bspotify\b.*\b(app|alternative|free)\b`),
	regexp.MustCompile(`(?i)\bdeezer\s*-\s*deezer\b`),
	regexp.MustCompile(`(?i)\bdeezer session\b`),
	regexp.MustCompile(`(?i)\bheartify\b`),
}

// IsPromotional reports whether the raw "title artist" text matches any of
// the promo-track patterns, case-insensitively; the text is not normalised
// first, so the "-" in the deezer pattern can still match.
func (t Track) IsPromotional() bool {
	text := t.Title + " " + t.Artist
	for _, p := range promoPatterns {
		if p.MatchString(text) {
			return true
		}
	}
	return false
}
