package radius

import "time"

// Status classifies the outcome of a single send. The classification
// is exec-level only: the tool's exit status and how long it took.
// Nothing is parsed out of the protocol exchange.
type Status string

const (
	// StatusSucceeded means the tool exited zero.
	StatusSucceeded Status = "succeeded"

	// StatusNoReply means the tool gave up after its full retry budget
	// without hearing from the server.
	StatusNoReply Status = "no_reply"

	// StatusFailed covers everything else: non-zero exits, spawn
	// errors, cancellation.
	StatusFailed Status = "failed"
)

// Response is the result of a single invocation of the external client.
type Response struct {
	Status   Status
	Latency  time.Duration
	ExitCode int

	// Output is the tool's combined stdout/stderr. Drivers discard it;
	// probe displays it when verbose.
	Output []byte

	// Err is set when the invocation itself failed (spawn error,
	// non-zero exit). It is informational; drivers key off Status.
	Err error
}

// IsSucceeded reports whether the attempt succeeded.
func (r *Response) IsSucceeded() bool {
	return r.Status == StatusSucceeded
}

// IsNoReply reports whether the attempt exhausted its retry budget
// without a reply.
func (r *Response) IsNoReply() bool {
	return r.Status == StatusNoReply
}

// IsFailed reports whether the attempt failed for any other reason.
func (r *Response) IsFailed() bool {
	return r.Status == StatusFailed
}

// LatencyMillis returns the attempt latency in milliseconds.
func (r *Response) LatencyMillis() float64 {
	return float64(r.Latency) / float64(time.Millisecond)
}
