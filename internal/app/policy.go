package app

import "github.com/dkeye/Nursery/internal/domain"

// AcceptPolicy gates whether any track of a participant is processed at all.
// Rejected participants get no session, no buffering and no log lines.
type AcceptPolicy interface {
	Accept(id domain.ParticipantIdentity) bool
}

// PrefixPolicy accepts identities starting with Prefix. An empty prefix
// accepts everyone.
type PrefixPolicy struct {
	Prefix string
}

func (p PrefixPolicy) Accept(id domain.ParticipantIdentity) bool {
	return id.HasPrefix(p.Prefix)
}
