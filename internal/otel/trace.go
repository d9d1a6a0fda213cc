package otel

import "sync/atomic"

var traceEnabled atomic.Bool

// TraceEnabled reports whether message tracing is on. When it is, the UI
// emits a KindMsgReceived event for every message it handles.
func TraceEnabled() bool {
	return traceEnabled.Load()
}

// SetTraceEnabled turns message tracing on or off.
func SetTraceEnabled(v bool) {
	traceEnabled.Store(v)
}
