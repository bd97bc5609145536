package orch

import (
	"context"
	"sort"
	"sync"

	"github.com/rs/zerolog/log"
	"github.com/sourcegraph/conc/iter"

	"github.com/dkeye/Nursery/internal/app"
	"github.com/dkeye/Nursery/internal/domain"
)

// Orchestrator keeps one RoomSession per monitored room.
type Orchestrator struct {
	ctx  context.Context
	deps app.RoomDeps

	mu    sync.RWMutex
	rooms map[domain.RoomName]*app.RoomSession
}

type RoomInfo struct {
	Name         domain.RoomName              `json:"room"`
	Participants int                          `json:"participants"`
	Identities   []domain.ParticipantIdentity `json:"identities"`
}

func New(ctx context.Context, deps app.RoomDeps) *Orchestrator {
	return &Orchestrator{
		ctx:   ctx,
		deps:  deps,
		rooms: make(map[domain.RoomName]*app.RoomSession),
	}
}

// Spawn starts monitoring name. A room that is already monitored is
// returned as is; created reports whether a new session was started.
func (o *Orchestrator) Spawn(name domain.RoomName) (rs *app.RoomSession, created bool) {
	o.mu.RLock()
	rs, ok := o.rooms[name]
	o.mu.RUnlock()
	if ok {
		return rs, false
	}

	o.mu.Lock()
	defer o.mu.Unlock()
	if rs, ok = o.rooms[name]; ok {
		return rs, false
	}
	rs = app.NewRoomSession(o.ctx, name, o.deps)
	o.rooms[name] = rs
	go rs.Run()
	go o.forgetWhenDone(rs)
	log.Info().Str("module", "orch").Str("room", string(name)).Msg("room monitoring started")
	return rs, true
}

func (o *Orchestrator) forgetWhenDone(rs *app.RoomSession) {
	<-rs.Done()
	o.mu.Lock()
	if o.rooms[rs.Name()] == rs {
		delete(o.rooms, rs.Name())
	}
	o.mu.Unlock()
	log.Info().Str("module", "orch").Str("room", string(rs.Name())).Str("reason", rs.Reason()).Msg("room monitoring stopped")
}

func (o *Orchestrator) Room(name domain.RoomName) (*app.RoomSession, bool) {
	o.mu.RLock()
	defer o.mu.RUnlock()
	rs, ok := o.rooms[name]
	return rs, ok
}

// End stops monitoring name and waits for its teardown.
func (o *Orchestrator) End(name domain.RoomName, reason string) bool {
	o.mu.Lock()
	rs, ok := o.rooms[name]
	delete(o.rooms, name)
	o.mu.Unlock()
	if !ok {
		return false
	}
	rs.End(reason)
	return true
}

// List returns the monitored rooms sorted by name.
func (o *Orchestrator) List() []RoomInfo {
	o.mu.RLock()
	out := make([]RoomInfo, 0, len(o.rooms))
	for name, rs := range o.rooms {
		ids := rs.Registry().Identities()
		sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
		out = append(out, RoomInfo{Name: name, Participants: len(ids), Identities: ids})
	}
	o.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Shutdown ends every room concurrently and waits for all of them.
func (o *Orchestrator) Shutdown() {
	o.mu.Lock()
	all := make([]*app.RoomSession, 0, len(o.rooms))
	for name, rs := range o.rooms {
		all = append(all, rs)
		delete(o.rooms, name)
	}
	o.mu.Unlock()

	iter.ForEach(all, func(rs **app.RoomSession) {
		(*rs).End("shutdown")
	})
	log.Info().Str("module", "orch").Int("rooms", len(all)).Msg("orchestrator shut down")
}
