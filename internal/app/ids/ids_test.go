package ids

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
)

var chatMessageIDPattern = regexp.MustCompile(`^[0-9]+-[0-9a-z]{6}$`)

func TestNewChatMessageID_MatchesFormat(t *testing.T) {
	id, err := NewChatMessageID(1700000000000)
	assert.NoError(t, err)
	assert.True(t, chatMessageIDPattern.MatchString(id), "id %q does not match expected format", id)
}

func TestNewChatMessageID_Varies(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 50; i++ {
		id, err := NewChatMessageID(1700000000000)
		assert.NoError(t, err)
		seen[id] = true
	}
	assert.Greater(t, len(seen), 1, "expected at least some variation across 50 draws")
}

func TestNewRoomCode_MatchesFormat(t *testing.T) {
	for i := 0; i < 50; i++ {
		code, err := NewRoomCode()
		assert.NoError(t, err)
		assert.Len(t, code, roomCodeLength)
		assert.True(t, RoomCodePattern.MatchString(code), "code %q does not match pattern", code)
	}
}

func TestNewRoomCode_Varies(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 50; i++ {
		code, err := NewRoomCode()
		assert.NoError(t, err)
		seen[code] = true
	}
	assert.Greater(t, len(seen), 1, "expected at least some variation across 50 draws")
}

func TestPlayerIDGenerator_Next(t *testing.T) {
	var g PlayerIDGenerator
	assert.Equal(t, "p1", g.Next())
	assert.Equal(t, "p2", g.Next())
	assert.Equal(t, "p3", g.Next())
}

func TestPlayerIDGenerator_ConcurrentUnique(t *testing.T) {
	var g PlayerIDGenerator
	const n = 200
	results := make(chan string, n)
	for i := 0; i < n; i++ {
		go func() {
			results <- g.Next()
		}()
	}

	seen := make(map[string]bool, n)
	for i := 0; i < n; i++ {
		id := <-results
		assert.False(t, seen[id], "duplicate id %q", id)
		seen[id] = true
	}
}
