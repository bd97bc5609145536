package app

import (
	"context"
	"testing"
	"time"

	"go.uber.org/mock/gomock"
)

func newTestRoom(t *testing.T, idle time.Duration) *RoomSession {
	t.Helper()
	ctrl := gomock.NewController(t)
	d := NewDispatcher(NewMockAudioAnalyzer(ctrl), NewMockMotionAnalyzer(ctrl), NewMockReporter(ctrl), DispatcherConfig{}, nil)
	rs := NewRoomSession(context.Background(), testRoom, RoomDeps{
		Session:     SessionConfig{WindowSeconds: 7, SampleEvery: 10},
		Policy:      PrefixPolicy{Prefix: "camera-"},
		Dispatcher:  d,
		IdleTimeout: idle,
	})
	go rs.Run()
	t.Cleanup(func() { rs.End("test done") })
	return rs
}

func TestRoomSession_JoinRoutesExistingTracks(t *testing.T) {
	rs := newTestRoom(t, 0)

	a, v := audioTrack("mic"), videoTrack("cam")
	if !rs.Join("camera-A", a, v) {
		t.Fatal("Join rejected")
	}
	eventually(t, func() bool {
		s, ok := rs.Registry().Get("camera-A")
		return ok && s.OpenStreams() == 2
	}, "both join-time tracks attached")

	late := audioTrack("mic-2")
	rs.TrackAvailable("camera-A", late)
	eventually(t, func() bool { return late.opened.Load() == 1 }, "late track opened")

	rs.Leave("camera-A")
	waitClosed(t, a.audio.closed, "audio release on leave")
	waitClosed(t, v.video.closed, "video release on leave")
	waitClosed(t, late.audio.closed, "late audio release on leave")
	eventually(t, func() bool { return rs.Registry().Len() == 0 }, "session removed")
}

func TestRoomSession_DuplicateConnectionKeepsSession(t *testing.T) {
	rs := newTestRoom(t, 0)

	tr := audioTrack("mic")
	rs.Join("camera-A", tr)
	rs.Join("camera-A")
	rs.Leave("camera-A")

	// Notifications are handled in order, so the probe is routed after the leave.
	probe := videoTrack("probe")
	rs.TrackAvailable("camera-A", probe)
	eventually(t, func() bool { return probe.opened.Load() == 1 }, "probe routed")
	if _, ok := rs.Registry().Get("camera-A"); !ok {
		t.Fatal("session removed while a connection remains")
	}

	rs.Leave("camera-A")
	waitClosed(t, tr.audio.closed, "release after last connection left")
}

func TestRoomSession_IdleTimeoutEndsSession(t *testing.T) {
	rs := newTestRoom(t, 30*time.Millisecond)

	rs.Join("camera-A", audioTrack("mic"))
	rs.Leave("camera-A")

	waitClosed(t, rs.Done(), "idle teardown")
	if rs.Reason() != "room idle" {
		t.Fatalf("reason = %q", rs.Reason())
	}
	if rs.Notify(ParticipantJoined{Identity: "camera-B"}) {
		t.Fatal("Notify accepted after teardown")
	}
}

func TestRoomSession_EndTearsDownEveryParticipant(t *testing.T) {
	rs := newTestRoom(t, 0)

	tracks := []*fakeTrack{audioTrack("a1"), audioTrack("a2")}
	rs.Join("camera-1", tracks[0])
	rs.Join("camera-2", tracks[1])
	eventually(t, func() bool { return rs.Registry().Len() == 2 }, "two sessions")

	rs.End("agent stopped")
	for _, tr := range tracks {
		select {
		case <-tr.audio.closed:
		default:
			t.Fatalf("track %s still open after End", tr.id)
		}
	}
	if rs.Reason() != "agent stopped" {
		t.Fatalf("reason = %q", rs.Reason())
	}
}
