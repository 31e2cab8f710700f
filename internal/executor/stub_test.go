package executor_test

import (
	"context"
	"time"

	"github.com/radload-io/radload/internal/radius"
)

// stubSender stands in for the external client wrapper: it reports a
// canned status and latency without spawning a process. An optional
// delay simulates a slow server; delayed sends honor context
// cancellation.
type stubSender struct {
	status  radius.Status
	latency time.Duration
	delay   time.Duration
}

func (s *stubSender) Send(ctx context.Context) *radius.Response {
	if s.delay > 0 {
		select {
		case <-ctx.Done():
			return &radius.Response{Status: radius.StatusFailed, Err: ctx.Err()}
		case <-time.After(s.delay):
		}
	}
	return &radius.Response{Status: s.status, Latency: s.latency}
}

// stubFactory builds senders that complete instantly with the given
// outcome and reported latency.
func stubFactory(status radius.Status, latency time.Duration) radius.SenderFactory {
	return func() radius.Sender {
		return &stubSender{status: status, latency: latency}
	}
}

// slowFactory builds senders that block for delay on every send.
func slowFactory(delay time.Duration) radius.SenderFactory {
	return func() radius.Sender {
		return &stubSender{status: radius.StatusSucceeded, latency: delay, delay: delay}
	}
}
