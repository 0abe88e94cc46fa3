// Package ids generates room codes, player identifiers, and chat message ids.
package ids

import (
	"crypto/rand"
	"fmt"
	"regexp"
	"strconv"
	"sync/atomic"
)

// roomCodeAlphabet excludes visually ambiguous characters (I, O, 0, 1) so
// codes read cleanly off a screen.
const roomCodeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

const roomCodeLength = 6

// RoomCodePattern is the format every generated room code satisfies.
var RoomCodePattern = regexp.MustCompile(`^[A-Z2-9]{6}$`)

// NewRoomCode returns a random 6-character code drawn from roomCodeAlphabet.
// Callers that need global uniqueness (the Room Store) must retry on
// collision; this function never checks for one.
func NewRoomCode() (string, error) {
	buf := make([]byte, roomCodeLength)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("ids: generate room code: %w", err)
	}
	out := make([]byte, roomCodeLength)
	for i, b := range buf {
		out[i] = roomCodeAlphabet[int(b)%len(roomCodeAlphabet)]
	}
	return string(out), nil
}

// PlayerIDGenerator hands out opaque, process-unique player IDs of the form
// "p1", "p2", … A zero value is ready to use.
type PlayerIDGenerator struct {
	counter atomic.Uint64
}

// Next returns the next player ID in sequence.
func (g *PlayerIDGenerator) Next() string {
	n := g.counter.Add(1)
	return fmt.Sprintf("p%d", n)
}

const base36Alphabet = "0123456789abcdefghijklmnopqrstuvwxyz"

// NewChatMessageID returns an id of the form "<unixMs>-<6 base36 chars>",
// per the chat message format in the external interfaces design.
func NewChatMessageID(unixMs int64) (string, error) {
	buf := make([]byte, 6)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("ids: generate chat message id: %w", err)
	}
	suffix := make([]byte, 6)
	for i, b := range buf {
		suffix[i] = base36Alphabet[int(b)%len(base36Alphabet)]
	}
	return strconv.FormatInt(unixMs, 10) + "-" + string(suffix), nil
}
