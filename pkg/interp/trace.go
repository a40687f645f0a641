package interp

// Trace event kinds.
const (
	TraceRunStart  = "run_start"
	TraceRunEnd    = "run_end"
	TraceStatement = "statement"
	TraceLoopIter  = "loop_iter"
	TraceCall      = "call"
)

// TraceEvent describes one execution step for observability tooling.
// Events are emitted synchronously; the callback must not block.
type TraceEvent struct {
	Kind   string
	Line   int
	Detail string
}
