package animation

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClockEmitsBothKinds(t *testing.T) {
	clock := Start(Config{
		RevealEvery:   2 * time.Millisecond,
		SubtitleEvery: 3 * time.Millisecond,
		FinalizeAfter: time.Hour,
	})
	defer clock.Stop()

	seen := map[TickKind]bool{}
	deadline := time.After(2 * time.Second)
	for !seen[TickReveal] || !seen[TickSubtitle] {
		select {
		case tick := <-clock.Ticks():
			seen[tick.Kind] = true
			assert.False(t, tick.Finalizing)
		case <-deadline:
			t.Fatalf("timed out waiting for both tick kinds, saw %v", seen)
		}
	}
}

func TestClockFinalizingPastThreshold(t *testing.T) {
	// A nanosecond threshold has always elapsed by the first tick.
	clock := Start(Config{
		RevealEvery:   2 * time.Millisecond,
		SubtitleEvery: 3 * time.Millisecond,
		FinalizeAfter: time.Nanosecond,
	})
	defer clock.Stop()

	for i := 0; i < 5; i++ {
		select {
		case tick := <-clock.Ticks():
			assert.True(t, tick.Finalizing, "tick %d", i)
		case <-time.After(2 * time.Second):
			t.Fatal("timed out waiting for tick")
		}
	}
}

func TestClockStopsDelivery(t *testing.T) {
	clock := Start(Config{
		RevealEvery:   time.Millisecond,
		SubtitleEvery: time.Millisecond,
		FinalizeAfter: time.Hour,
	})

	select {
	case <-clock.Ticks():
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for first tick")
	}

	clock.Stop()

	select {
	case tick := <-clock.Ticks():
		t.Fatalf("received tick after stop: %+v", tick)
	case <-time.After(20 * time.Millisecond):
	}
}

func TestClockStopIsIdempotent(t *testing.T) {
	clock := Start(Config{})

	require.NotPanics(t, func() {
		clock.Stop()
		clock.Stop()
	})
}

func TestConfigDefaults(t *testing.T) {
	cfg := Config{}.withDefaults()

	assert.Equal(t, DefaultRevealInterval, cfg.RevealEvery)
	assert.Equal(t, DefaultSubtitleInterval, cfg.SubtitleEvery)
	assert.Equal(t, DefaultFinalizeAfter, cfg.FinalizeAfter)

	custom := Config{
		RevealEvery:   time.Second,
		SubtitleEvery: 2 * time.Second,
		FinalizeAfter: 3 * time.Second,
	}.withDefaults()

	assert.Equal(t, Config{
		RevealEvery:   time.Second,
		SubtitleEvery: 2 * time.Second,
		FinalizeAfter: 3 * time.Second,
	}, custom)
}
