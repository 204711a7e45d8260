package core

// TraceRecord captures a kernel event for post-mortem analysis
type TraceRecord struct {
	Kind   uint8  // Trace kind code
	Arg    uint8  // Event kind, level or thread state
	Ticks  uint32 // Watchdog ticks at the event
	Value1 uint32 // Context-dependent value
	Value2 uint32 // Context-dependent value
}

// Trace kind codes
const (
	TraceTick    = 1 // Watchdog tick, v1=changed level mask
	TraceTimeout = 2 // Timeout emitted for a level, arg=level, v1=waiters
	TracePush    = 3 // Event queued, arg=event kind, v1=value
	TraceDrop    = 4 // Event dropped on a full queue
	TraceRun     = 5 // Thread invoked by dispatch, arg=state after, v1=resume point
	TraceState   = 6 // Thread state change, arg=new state, v1=old state
	TraceClamp   = 7 // Timer request clamped, arg=level, v1=ms
	TraceSample  = 8 // Application sample summary, arg=event kind, v1 and v2 are application counters
)

// TraceRingSize is the number of records kept
const TraceRingSize = 32

// Trace is a fixed ring of the most recent kernel trace records.
// A nil *Trace ignores records.
type Trace struct {
	ring    [TraceRingSize]TraceRecord
	head    uint8 // next write position
	enabled bool
	clock   func() uint32
}

// NewTrace creates an enabled trace stamped by clock
func NewTrace(clock func() uint32) *Trace {
	return &Trace{enabled: true, clock: clock}
}

// SetEnabled enables or disables recording
func (t *Trace) SetEnabled(enabled bool) {
	if t == nil {
		return
	}
	state := disableInterrupts()
	t.enabled = enabled
	restoreInterrupts(state)
}

// Record captures a trace record. It never blocks on anything but the
// interrupt guard and is safe from interrupt context.
func (t *Trace) Record(kind, arg uint8, value1, value2 uint32) {
	if t == nil {
		return
	}
	var ticks uint32
	if t.clock != nil {
		ticks = t.clock()
	}
	state := disableInterrupts()
	defer restoreInterrupts(state)
	if !t.enabled {
		return
	}
	t.ring[t.head] = TraceRecord{
		Kind:   kind,
		Arg:    arg,
		Ticks:  ticks,
		Value1: value1,
		Value2: value2,
	}
	t.head = (t.head + 1) % TraceRingSize
}

// Records returns the recorded entries, oldest first
func (t *Trace) Records() []TraceRecord {
	if t == nil {
		return nil
	}
	state := disableInterrupts()
	defer restoreInterrupts(state)
	out := make([]TraceRecord, 0, TraceRingSize)
	for i := uint8(0); i < TraceRingSize; i++ {
		rec := t.ring[(t.head+i)%TraceRingSize]
		if rec.Kind == 0 {
			continue // Empty slot
		}
		out = append(out, rec)
	}
	return out
}

// Clear empties the ring
func (t *Trace) Clear() {
	if t == nil {
		return
	}
	state := disableInterrupts()
	defer restoreInterrupts(state)
	t.ring = [TraceRingSize]TraceRecord{}
	t.head = 0
}

// TraceName returns the name of a trace kind
func TraceName(kind uint8) string {
	switch kind {
	case TraceTick:
		return "TICK"
	case TraceTimeout:
		return "TIMEOUT"
	case TracePush:
		return "PUSH"
	case TraceDrop:
		return "DROP!"
	case TraceRun:
		return "RUN"
	case TraceState:
		return "STATE"
	case TraceClamp:
		return "CLAMP"
	case TraceSample:
		return "SAMPLE"
	default:
		return "UNKNOWN"
	}
}

// Dump writes the ring to the logger at debug level, oldest first
func (t *Trace) Dump(logger *Logger) {
	recs := t.Records()
	logger.Debug().Int("records", len(recs)).Log("trace dump")
	for _, rec := range recs {
		logger.Debug().
			Str("kind", TraceName(rec.Kind)).
			Int("arg", int(rec.Arg)).
			Int64("ticks", int64(rec.Ticks)).
			Int64("v1", int64(rec.Value1)).
			Int64("v2", int64(rec.Value2)).
			Log("trace")
	}
}
