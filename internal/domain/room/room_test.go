package room

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/blindtest/roomengine/internal/domain/player"
	"github.com/blindtest/roomengine/internal/domain/track"
)

func TestSession_RecomputeHost(t *testing.T) {
	s := New("ABCDEF", 0, false)
	s.RecomputeHost()
	assert.Empty(t, s.HostPlayerID)

	s.Players = append(s.Players, player.New("p2", "Bob", 200))
	s.Players = append(s.Players, player.New("p1", "Alice", 100))
	s.RecomputeHost()
	assert.Equal(t, "p1", s.HostPlayerID)

	assert.True(t, s.IsHost("p1"))
	assert.False(t, s.IsHost("p2"))
}

func TestSession_AppendChatMessage_TruncatesAndBounds(t *testing.T) {
	s := New("ABCDEF", 0, false)

	longText := strings.Repeat("x", ChatMessageCharLimit+50)
	s.AppendChatMessage("m0", "p1", longText, 0)
	assert.Len(t, []rune(s.Chat[0].Text), ChatMessageCharLimit)

	for i := 0; i < ChatRingLimit+10; i++ {
		s.AppendChatMessage("m", "p1", "msg", int64(i))
	}
	assert.Len(t, s.Chat, ChatRingLimit)
	assert.Equal(t, ChatRingLimit+11, s.Stats.TotalChatMessages)
}

func TestSession_PlayerByID(t *testing.T) {
	s := New("ABCDEF", 0, false)
	s.Players = append(s.Players, player.New("p1", "Alice", 0))

	assert.NotNil(t, s.PlayerByID("p1"))
	assert.Nil(t, s.PlayerByID("missing"))
}

func TestSession_TrackForRound(t *testing.T) {
	s := New("ABCDEF", 0, false)
	_, ok := s.TrackForRound(0)
	assert.False(t, ok)
}

func TestNewClosedRound_PromotesUnsubmittedDrafts(t *testing.T) {
	answers := RoundAnswers{
		Submitted: map[string]SubmittedAnswer{"p1": {Value: "already", SubmittedAtMs: 50}},
		Drafts:    map[string]string{"p1": "ignored", "p2": "draft answer", "p3": ""},
	}
	answerTrack := track.Track{ID: "t1", Title: "Title", Artist: "Artist"}

	closed := NewClosedRound(2, 100, answers, answerTrack, 500)

	assert.Equal(t, 2, closed.Round)
	assert.Equal(t, int64(100), closed.StartedAtMs)
	assert.Equal(t, answerTrack, closed.AnswerTrack)
	assert.Equal(t, SubmittedAnswer{Value: "already", SubmittedAtMs: 50}, closed.Answers["p1"])
	assert.Equal(t, SubmittedAnswer{Value: "draft answer", SubmittedAtMs: 500}, closed.Answers["p2"])
	_, hasEmptyDraft := closed.Answers["p3"]
	assert.False(t, hasEmptyDraft)
}

func TestNewReveal_CopiesClosedRoundFields(t *testing.T) {
	answerTrack := track.Track{ID: "t1", Title: "Title", Artist: "Artist"}
	closed := ClosedRound{Round: 3, AnswerTrack: answerTrack}
	entries := []RevealEntry{{PlayerID: "p1", IsCorrect: true}}

	reveal := NewReveal(closed, RoundModeMCQ, []string{"a", "b"}, entries)

	assert.Equal(t, 3, reveal.Round)
	assert.Equal(t, answerTrack, reveal.AnswerTrack)
	assert.Equal(t, RoundModeMCQ, reveal.Mode)
	assert.Equal(t, []string{"a", "b"}, reveal.Choices)
	assert.Equal(t, entries, reveal.Entries)
}
