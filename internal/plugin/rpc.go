package plugin

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"time"
)

// DefaultCallTimeout bounds how long one RPC call waits for its response
// line. A plugin that blows the deadline leaves the stream in an unknown
// state, so the client refuses further calls and the shutdown path falls
// through to a hard kill.
const DefaultCallTimeout = 30 * time.Second

// rpcRequest is a JSON-RPC 2.0 request.
type rpcRequest struct {
	JSONRPC string `json:"jsonrpc"`
	Method  string `json:"method"`
	Params  any    `json:"params,omitempty"`
	ID      uint64 `json:"id"`
}

// rpcResponse is a JSON-RPC 2.0 response. Exactly one of Result or
// Error is set.
type rpcResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id"`
	Result  json.RawMessage `json:"result"`
	Error   *rpcError       `json:"error,omitempty"`
}

// rpcError is a JSON-RPC 2.0 error object.
type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *rpcError) Error() string {
	return fmt.Sprintf("rpc error %d: %s", e.Code, e.Message)
}

// lineClient speaks newline-delimited JSON-RPC over a plugin's stdio.
// The protocol is strictly half-duplex with a single outstanding call:
// a request is written, then exactly one response line is read before
// the next request may be sent. Ids increase monotonically from 1 and
// exist only so responses can be sanity-checked; there is no
// correlation table.
type lineClient struct {
	w       io.Writer
	lines   chan string
	readErr error
	nextID  uint64
	timeout time.Duration
	broken  bool
}

// newLineClient wraps the plugin's stdin (w) and stdout (r). A reader
// goroutine owns r for the life of the client and feeds whole lines into
// a channel; calls consume from it with a deadline. Responses can carry
// large entry lists, so the scanner buffer is enlarged.
func newLineClient(w io.Writer, r io.Reader, timeout time.Duration) *lineClient {
	if timeout <= 0 {
		timeout = DefaultCallTimeout
	}
	c := &lineClient{
		w:       w,
		lines:   make(chan string),
		timeout: timeout,
	}
	go func() {
		defer close(c.lines)
		scanner := bufio.NewScanner(r)
		scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
		for scanner.Scan() {
			c.lines <- scanner.Text()
		}
		c.readErr = scanner.Err()
	}()
	return c
}

// call sends one request and blocks for its response line. A timeout or
// stream error marks the client broken; subsequent calls fail locally.
func (c *lineClient) call(method string, params any) (json.RawMessage, error) {
	if c.broken {
		return nil, fmt.Errorf("plugin stream unusable after earlier failure")
	}

	c.nextID++
	req := rpcRequest{JSONRPC: "2.0", Method: method, Params: params, ID: c.nextID}
	data, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}
	if _, err := c.w.Write(append(data, '\n')); err != nil {
		c.broken = true
		return nil, fmt.Errorf("write request: %w", err)
	}

	var line string
	var ok bool
	select {
	case line, ok = <-c.lines:
		if !ok {
			c.broken = true
			if c.readErr != nil {
				return nil, fmt.Errorf("read response: %w", c.readErr)
			}
			return nil, fmt.Errorf("plugin closed its output")
		}
	case <-time.After(c.timeout):
		c.broken = true
		return nil, fmt.Errorf("timed out after %v waiting for %s response", c.timeout, method)
	}

	var resp rpcResponse
	if err := json.Unmarshal([]byte(line), &resp); err != nil {
		c.broken = true
		return nil, fmt.Errorf("malformed response: %w", err)
	}
	if resp.Error != nil {
		return nil, resp.Error
	}
	return resp.Result, nil
}
