package radius

import (
	"fmt"
	"net"
	"strconv"
	"time"
)

// AttributePayload is the fixed attribute set written to the test
// client's stdin for every authentication attempt. Payload shaping is
// out of scope; the tool always authenticates the same test identity.
const AttributePayload = "User-Name = testuser, User-Password = testpassword"

// modeAuth is the only operation mode the driver issues.
const modeAuth = "auth"

// DefaultPort is the standard RADIUS authentication port.
const DefaultPort = 1812

// Request describes a single invocation of the external test client.
type Request struct {
	Server  string
	Port    int
	Secret  string
	Timeout time.Duration
	Retries int
}

// NewRequest creates a request against the given server with the given
// shared secret, using the default authentication port.
func NewRequest(server, secret string) *Request {
	return &Request{
		Server: server,
		Port:   DefaultPort,
		Secret: secret,
	}
}

// WithPort sets the authentication port.
func (r *Request) WithPort(port int) *Request {
	r.Port = port
	return r
}

// WithTimeout sets the per-attempt timeout passed through to the tool.
func (r *Request) WithTimeout(timeout time.Duration) *Request {
	r.Timeout = timeout
	return r
}

// WithRetries sets the retry count passed through to the tool.
func (r *Request) WithRetries(retries int) *Request {
	r.Retries = retries
	return r
}

// Target returns the host:port the tool is pointed at.
func (r *Request) Target() string {
	port := r.Port
	if port <= 0 {
		port = DefaultPort
	}
	return net.JoinHostPort(r.Server, strconv.Itoa(port))
}

// BuildArgs constructs the argument list for the external client:
// timeout and retry knobs, the target, the mode word, and the secret.
// The attribute payload is not part of the argument list; it is
// delivered on stdin.
func (r *Request) BuildArgs() ([]string, error) {
	if r.Server == "" {
		return nil, fmt.Errorf("request has no server")
	}
	if r.Secret == "" {
		return nil, fmt.Errorf("request has no shared secret")
	}

	var args []string
	if r.Timeout > 0 {
		// The tool takes whole seconds; sub-second timeouts round up.
		sec := int(r.Timeout / time.Second)
		if sec < 1 {
			sec = 1
		}
		args = append(args, "-t", strconv.Itoa(sec))
	}
	if r.Retries > 0 {
		args = append(args, "-r", strconv.Itoa(r.Retries))
	}
	args = append(args, r.Target(), modeAuth, r.Secret)
	return args, nil
}

// timeoutBudget is how long the tool is expected to wait before giving
// up on a silent server: one timeout window per retry.
func (r *Request) timeoutBudget() time.Duration {
	if r.Timeout <= 0 {
		return 0
	}
	retries := r.Retries
	if retries < 1 {
		retries = 1
	}
	return r.Timeout * time.Duration(retries)
}
