package track

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTrack_CanonicalLabel(t *testing.T) {
	tr := Track{Title: "Pretender", Artist: "Official HIGE DANdism"}
	assert.Equal(t, "Pretender - Official HIGE DANdism", tr.CanonicalLabel())
}

func TestTrack_Signature(t *testing.T) {
	a := Track{Provider: ProviderSpotify, ID: "abc", Title: "Song", Artist: "Artist"}
	b := Track{Provider: ProviderSpotify, ID: "abc", Title: "SONG", Artist: "ARTIST"}
	assert.Equal(t, a.Signature(), b.Signature())
}

func TestTrack_IsPlayable(t *testing.T) {
	tests := []struct {
		name     string
		track    Track
		expected bool
	}{
		{"youtube provider", Track{Provider: ProviderYouTube}, true},
		{"animethemes provider", Track{Provider: ProviderAnimeThemes}, true},
		{"spotify provider, no source url", Track{Provider: ProviderSpotify}, false},
		{"spotify provider, youtube source url", Track{Provider: ProviderSpotify, SourceURL: "https://youtu.be/xyz"}, true},
		{"deezer provider, animethemes url", Track{Provider: ProviderDeezer, SourceURL: "https://animethemes.moe/video/x"}, true},
		{"deezer provider, deezer url", Track{Provider: ProviderDeezer, SourceURL: "https://deezer.com/track/1"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.track.IsPlayable())
		})
	}
}

func TestTrack_IsPromotional(t *testing.T) {
	tests := []struct {
		name     string
		track    Track
		expected bool
	}{
		{"clean track", Track{Title: "Lemon", Artist: "Kenshi Yonezu"}, false},
		{"download app promo", Track{Title: "Download App Now", Artist: "Spotify"}, true},
		{"heartify promo", Track{Title: "Heartify Radio", Artist: "Heartify"}, true},
		{"deezer session promo", Track{Title: "Deezer Session", Artist: "Various"}, true},
		{"spotify alternative promo", Track{Title: "Spotify Free Alternative", Artist: "Ads"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.track.IsPromotional())
		})
	}
}
