// Package domain contains entities without logic, just meta-data
package domain

import (
	"errors"
	"strings"
)

const MaxIdentityLen = 64

var (
	ErrIdentityEmpty   = errors.New("identity empty")
	ErrIdentityTooLong = errors.New("identity too long")
)

// ParticipantIdentity is unique per participant within a room and stable
// for the participant's lifetime in it.
type ParticipantIdentity string

// ParseIdentity avoids raw conversions in adapters.
func ParseIdentity(raw string) (ParticipantIdentity, error) {
	raw = strings.TrimSpace(raw)
	if len(raw) == 0 {
		return "", ErrIdentityEmpty
	}
	if len(raw) > MaxIdentityLen {
		return "", ErrIdentityTooLong
	}
	return ParticipantIdentity(raw), nil
}

func (id ParticipantIdentity) HasPrefix(prefix string) bool {
	return strings.HasPrefix(string(id), prefix)
}
