package uuidx

import (
	"crypto/rand"
	"encoding/hex"
	"math/big"
	"strconv"
	"time"

	"github.com/google/uuid"
)

// NewString returns a version 7 UUID string. When the random source is
// unavailable it returns Fallback() instead of panicking.
func NewString() string {
	id, err := uuid.NewV7()
	if err != nil {
		return Fallback()
	}
	return id.String()
}

// Fallback builds an identifier from the current unix time in nanoseconds and
// a random suffix. The result is unique with high probability but it is not
// a UUID and must not be treated as cryptographically secure or unguessable.
func Fallback() string {
	return strconv.FormatInt(time.Now().UnixNano(), 36) + "-" + randomSuffix()
}

// Timestamped returns a coarse identifier derived from the current time with
// the given prefix. Only suitable where at most one id is minted per instant
// per owner, such as the seed message of a new conversation.
func Timestamped(prefix string) string {
	return prefix + "-" + strconv.FormatInt(time.Now().UnixNano(), 36)
}

func randomSuffix() string {
	var b [6]byte
	if _, err := rand.Read(b[:]); err == nil {
		return hex.EncodeToString(b[:])
	}
	// crypto/rand failed too, derive something from the clock
	n := new(big.Int).SetInt64(time.Now().UnixNano() ^ 0x5deece66d)
	return n.Text(36)
}
