package app

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/dkeye/Nursery/internal/domain"
)

func newTestRegistry(t *testing.T) *Registry {
	t.Helper()
	reg := NewRegistry(context.Background(), testRoom, SessionConfig{WindowSeconds: 7, SampleEvery: 10}, nil)
	t.Cleanup(reg.RemoveAll)
	return reg
}

func TestRegistry_GetOrCreateConcurrentReturnsOneSession(t *testing.T) {
	reg := newTestRegistry(t)

	const workers = 64
	got := make([]*ParticipantSession, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			s, err := reg.GetOrCreate("camera-A")
			if err != nil {
				t.Errorf("GetOrCreate: %v", err)
				return
			}
			got[i] = s
		}(i)
	}
	wg.Wait()

	for i := 1; i < workers; i++ {
		if got[i] != got[0] {
			t.Fatalf("worker %d got a different session", i)
		}
	}
	if reg.Len() != 1 {
		t.Fatalf("Len = %d, want 1", reg.Len())
	}
}

func TestRegistry_RemoveIsIdempotent(t *testing.T) {
	reg := newTestRegistry(t)

	s, err := reg.GetOrCreate("camera-A")
	if err != nil {
		t.Fatal(err)
	}
	if !reg.Remove("camera-A") {
		t.Fatal("first Remove reported nothing removed")
	}
	if reg.Remove("camera-A") {
		t.Fatal("second Remove reported a removal")
	}
	if reg.Remove("camera-unknown") {
		t.Fatal("Remove of unknown identity reported a removal")
	}
	select {
	case <-s.Done():
	default:
		t.Fatal("removed session scope not canceled")
	}

	again, err := reg.GetOrCreate("camera-A")
	if err != nil {
		t.Fatal(err)
	}
	if again == s {
		t.Fatal("GetOrCreate after Remove returned the old session")
	}
}

func TestRegistry_RemoveAllClosesEverySession(t *testing.T) {
	reg := newTestRegistry(t)

	streams := make([]*fakeAudioStream, 0, 5)
	for i := 0; i < 5; i++ {
		s, err := reg.GetOrCreate(domain.ParticipantIdentity(fmt.Sprintf("camera-%d", i)))
		if err != nil {
			t.Fatal(err)
		}
		st := newFakeAudioStream()
		streams = append(streams, st)
		if err := s.AttachAudio(st, drainAudio); err != nil {
			t.Fatal(err)
		}
	}

	reg.RemoveAll()

	if reg.Len() != 0 {
		t.Fatalf("Len = %d after RemoveAll", reg.Len())
	}
	for i, st := range streams {
		if st.closes.Load() != 1 {
			t.Fatalf("stream %d closed %d times, want 1", i, st.closes.Load())
		}
	}
	if _, err := reg.GetOrCreate("camera-late"); !errors.Is(err, ErrRegistryClosed) {
		t.Fatalf("GetOrCreate after RemoveAll: err = %v, want ErrRegistryClosed", err)
	}
	reg.RemoveAll()
}

func TestRegistry_Identities(t *testing.T) {
	reg := newTestRegistry(t)
	for _, id := range []domain.ParticipantIdentity{"camera-1", "camera-2"} {
		if _, err := reg.GetOrCreate(id); err != nil {
			t.Fatal(err)
		}
	}
	ids := reg.Identities()
	if len(ids) != 2 {
		t.Fatalf("Identities = %v", ids)
	}
}
