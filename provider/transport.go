package provider

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/tidwall/gjson"
)

// ErrStreamingUnavailable is returned when a streaming response carries no
// readable body.
var ErrStreamingUnavailable = errors.New("provider: streaming response has no readable body")

// ErrInvalidResponse is returned when a complete response is not valid JSON.
var ErrInvalidResponse = errors.New("provider: response is not valid JSON")

// maxErrorBody bounds how much of a failed response is kept for diagnostics.
const maxErrorBody = 64 << 10

// readSize is the size of each read from a streaming body.
const readSize = 32 << 10

// RequestError is returned for a non-success HTTP status.
type RequestError struct {
	StatusCode int
	Body       string
}

func (e *RequestError) Error() string {
	return fmt.Sprintf("provider: request failed with status %d: %s", e.StatusCode, e.Body)
}

// Request is a fully prepared provider call.
type Request struct {
	Endpoint string
	Header   http.Header
	Body     []byte
	// LineFramed makes Stream cut fragments on line boundaries. Otherwise
	// every read is delivered as it arrives.
	LineFramed bool
}

// Post sends req and returns the response body once the whole document has
// been read. Non-2xx statuses produce a *RequestError.
func Post(ctx context.Context, client *http.Client, req Request) ([]byte, error) {
	resp, err := do(ctx, client, req, false)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("provider: reading response: %w", err)
	}
	if !gjson.ValidBytes(body) {
		return nil, fmt.Errorf("%w: %.200s", ErrInvalidResponse, body)
	}
	return body, nil
}

// Stream sends req and hands the response body to onFragment piece by piece
// in arrival order. With req.LineFramed each fragment ends on a line
// boundary and a partial trailing line is held back until the next read
// completes it or the stream ends; without it each read is one fragment.
// onFragment runs synchronously before the next read. The body is closed on
// every return path.
func Stream(ctx context.Context, client *http.Client, req Request, onFragment func([]byte)) error {
	resp, err := do(ctx, client, req, true)
	if err != nil {
		return err
	}
	if resp.Body == nil || resp.Body == http.NoBody {
		if resp.Body != nil {
			resp.Body.Close()
		}
		return ErrStreamingUnavailable
	}
	defer resp.Body.Close()

	if req.LineFramed {
		return ReadFragments(resp.Body, onFragment)
	}
	return ReadChunks(resp.Body, onFragment)
}

// ReadChunks reads r until EOF and calls onFragment with the data of every
// read as soon as it returns.
func ReadChunks(r io.Reader, onFragment func([]byte)) error {
	buf := make([]byte, readSize)
	for {
		n, err := r.Read(buf)
		if n > 0 {
			onFragment(bytes.Clone(buf[:n]))
		}
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("provider: reading stream: %w", err)
		}
	}
}

// ReadFragments reads r until EOF and calls onFragment with every run of
// complete lines received so far. Whatever follows the last newline is
// delivered once the stream ends.
func ReadFragments(r io.Reader, onFragment func([]byte)) error {
	buf := make([]byte, readSize)
	var pending []byte
	for {
		n, err := r.Read(buf)
		if n > 0 {
			pending = append(pending, buf[:n]...)
			if idx := bytes.LastIndexByte(pending, '\n'); idx >= 0 {
				fragment := bytes.Clone(pending[:idx+1])
				pending = bytes.Clone(pending[idx+1:])
				onFragment(fragment)
			}
		}
		if errors.Is(err, io.EOF) {
			if len(pending) > 0 {
				onFragment(pending)
			}
			return nil
		}
		if err != nil {
			return fmt.Errorf("provider: reading stream: %w", err)
		}
	}
}

func do(ctx context.Context, client *http.Client, req Request, streaming bool) (*http.Response, error) {
	if client == nil {
		client = http.DefaultClient
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, req.Endpoint, bytes.NewReader(req.Body))
	if err != nil {
		return nil, fmt.Errorf("provider: creating request: %w", err)
	}
	for k, vs := range req.Header {
		for _, v := range vs {
			httpReq.Header.Add(k, v)
		}
	}
	if httpReq.Header.Get("Content-Type") == "" {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	if streaming {
		httpReq.Header.Set("Accept", "text/event-stream")
	}

	resp, err := client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("provider: sending request: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		defer resp.Body.Close()
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, &RequestError{StatusCode: resp.StatusCode, Body: string(body)}
	}
	return resp, nil
}
