package core

import (
	"bytes"
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/joeycumines/logiface"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDefaults(t *testing.T) {
	k := New(Config{}, WithTickSource(NewManualSource()))
	assert.Equal(t, DefaultQueueSize, k.Events().Capacity())
	assert.Nil(t, k.Trace())
	require.NoError(t, k.Begin())
	assert.Equal(t, uint16(BaseTick), k.Watchdog().Period())
	assert.ErrorIs(t, k.Begin(), ErrRunning)
	require.NoError(t, k.End())
	assert.ErrorIs(t, k.End(), ErrNotRunning)
}

func TestNewWiresTrace(t *testing.T) {
	src := NewManualSource()
	k := New(Config{TickMs: 16, Trace: true}, WithTickSource(src))
	require.NotNil(t, k.Trace())
	require.NoError(t, k.Begin())
	defer k.End()

	k.Every(16, func() {})
	src.Fire(2)
	k.Events().Service(0)

	var kinds []uint8
	for _, rec := range k.Trace().Records() {
		kinds = append(kinds, rec.Kind)
	}
	assert.Contains(t, kinds, uint8(TraceTick))
	assert.Contains(t, kinds, uint8(TraceTimeout))
	assert.Contains(t, kinds, uint8(TracePush))
	assert.Equal(t, uint32(2), k.Trace().Records()[len(kinds)-1].Ticks)
}

func TestWithTrace(t *testing.T) {
	trace := NewTrace(nil)
	k := New(Config{}, WithTickSource(NewManualSource()), WithTrace(trace))
	assert.Same(t, trace, k.Trace())
}

func TestWithLogger(t *testing.T) {
	defer SetLogger(nil)
	var buf bytes.Buffer
	k := New(Config{}, WithTickSource(NewManualSource()), WithLogger(NewLogger(&buf, logiface.LevelInformational)))
	require.NoError(t, k.Begin())
	require.NoError(t, k.End())
	assert.Contains(t, buf.String(), "watchdog started")
	assert.Contains(t, buf.String(), "watchdog stopped")
}

func TestKernelRun(t *testing.T) {
	src := NewManualSource()
	k := New(Config{TickMs: 16, QueueSize: 8}, WithTickSource(src))
	require.NoError(t, k.Begin())
	defer k.End()

	var blinks, samples atomic.Int32
	k.Spawn(BodyFunc(func(t *Thread, kind uint8, value uint16) {
		if t.TimerExpired() {
			blinks.Add(1)
		}
		t.Delay(1, 16)
	}))
	k.Every(32, func() { samples.Add(1) })

	ctx, cancel := context.WithCancel(context.Background())
	errc := make(chan error, 1)
	go func() { errc <- k.Run(ctx) }()

	require.Eventually(t, func() bool {
		src.Fire(1)
		return blinks.Load() >= 4 && samples.Load() >= 2
	}, 2*time.Second, 5*time.Millisecond)

	cancel()
	select {
	case err := <-errc:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("run did not stop")
	}
}
