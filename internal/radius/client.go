package radius

import (
	"bytes"
	"context"
	"os/exec"
	"strings"
	"time"
)

// DefaultBinary is the external test client the driver shells out to.
const DefaultBinary = "radclient"

// Client invokes the external RADIUS test client. The client is opaque:
// one process per send, payload on stdin, outcome read back from the
// exit status. Client is safe for concurrent use.
type Client struct {
	binary string
}

// ClientOption is a function that configures a Client
type ClientOption func(*Client)

// NewClient creates a client for the external tool with the given options.
func NewClient(options ...ClientOption) *Client {
	client := &Client{
		binary: DefaultBinary,
	}

	for _, option := range options {
		option(client)
	}

	return client
}

// WithBinary overrides the tool binary path.
func WithBinary(path string) ClientOption {
	return func(c *Client) {
		if path != "" {
			c.binary = path
		}
	}
}

// Binary returns the tool binary the client invokes.
func (c *Client) Binary() string {
	return c.binary
}

// Do invokes the tool once for the given request and classifies the
// outcome. Failures are reported in the Response status, never as an
// error: the drivers treat every outcome uniformly.
//
// The driver imposes no deadline of its own. The tool owns the timeout
// and retry behavior through its -t/-r knobs; a tool that hangs past
// them hangs the iteration.
func (c *Client) Do(ctx context.Context, req *Request) *Response {
	args, err := req.BuildArgs()
	if err != nil {
		return &Response{Status: StatusFailed, Err: err}
	}

	cmd := exec.CommandContext(ctx, c.binary, args...)
	cmd.Stdin = strings.NewReader(AttributePayload + "\n")

	var output bytes.Buffer
	cmd.Stdout = &output
	cmd.Stderr = &output

	start := time.Now()
	err = cmd.Run()
	latency := time.Since(start)

	resp := &Response{
		Latency: latency,
		Output:  output.Bytes(),
	}

	if err == nil {
		resp.Status = StatusSucceeded
		return resp
	}

	resp.Err = err
	if exitErr, ok := err.(*exec.ExitError); ok {
		resp.ExitCode = exitErr.ExitCode()
	}

	// The tool reports timeouts only through its exit status and how
	// long it waited, so a non-zero exit that consumed the full retry
	// budget is recorded as no_reply.
	if budget := req.timeoutBudget(); budget > 0 && latency >= budget && ctx.Err() == nil {
		resp.Status = StatusNoReply
		return resp
	}

	resp.Status = StatusFailed
	return resp
}
