package core

import (
	"bytes"
	"testing"

	"github.com/joeycumines/logiface"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTraceRing(t *testing.T) {
	var now uint32
	trace := NewTrace(func() uint32 { return now })
	for i := 0; i < TraceRingSize+8; i++ {
		now = uint32(i)
		trace.Record(TracePush, UserType, uint32(i), 0)
	}

	recs := trace.Records()
	require.Len(t, recs, TraceRingSize)
	assert.Equal(t, uint32(8), recs[0].Value1)
	assert.Equal(t, uint32(8), recs[0].Ticks)
	assert.Equal(t, uint32(TraceRingSize+7), recs[TraceRingSize-1].Value1)

	trace.Clear()
	assert.Empty(t, trace.Records())
}

func TestTraceDisabled(t *testing.T) {
	trace := NewTrace(nil)
	trace.SetEnabled(false)
	trace.Record(TraceTick, 0, 1, 0)
	assert.Empty(t, trace.Records())

	trace.SetEnabled(true)
	trace.Record(TraceTick, 0, 1, 0)
	assert.Len(t, trace.Records(), 1)
}

func TestTraceNil(t *testing.T) {
	var trace *Trace
	assert.NotPanics(t, func() {
		trace.Record(TraceTick, 0, 0, 0)
		trace.SetEnabled(true)
		trace.Clear()
		trace.Dump(nil)
	})
	assert.Nil(t, trace.Records())
}

func TestTraceName(t *testing.T) {
	assert.Equal(t, "TICK", TraceName(TraceTick))
	assert.Equal(t, "DROP!", TraceName(TraceDrop))
	assert.Equal(t, "CLAMP", TraceName(TraceClamp))
	assert.Equal(t, "SAMPLE", TraceName(TraceSample))
	assert.Equal(t, "UNKNOWN", TraceName(0))
}

func TestTraceDump(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&buf, logiface.LevelDebug)
	trace := NewTrace(nil)
	trace.Record(TraceTimeout, 2, 1, 0)
	trace.Dump(logger)

	out := buf.String()
	assert.Contains(t, out, "trace dump")
	assert.Contains(t, out, "TIMEOUT")
}
