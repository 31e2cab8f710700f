package radius

import "context"

// Sender issues one authentication attempt against the target. The
// batch driver and the rate executors only ever see this interface, so
// they can be exercised without a network or an external binary.
type Sender interface {
	Send(ctx context.Context) *Response
}

// SenderFactory builds a Sender for one worker. Workers never share a
// sender, so implementations are free to keep per-worker state.
type SenderFactory func() Sender

// ExecSender sends by invoking the external client once per call.
type ExecSender struct {
	client *Client
	req    *Request
}

// NewExecSender pairs a client with a fixed request.
func NewExecSender(client *Client, req *Request) *ExecSender {
	return &ExecSender{
		client: client,
		req:    req,
	}
}

// Send performs one invocation of the external tool.
func (s *ExecSender) Send(ctx context.Context) *Response {
	return s.client.Do(ctx, s.req)
}
