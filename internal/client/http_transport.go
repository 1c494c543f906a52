package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync/atomic"

	"github.com/LimeChain/rpcmux/internal/rpccore"
)

// RequestFailure reports a non-2xx HTTP response to a JSON-RPC call.
type RequestFailure struct {
	StatusCode int
	Body       string
}

func (e *RequestFailure) Error() string {
	return fmt.Sprintf("http request failed: status %d: %s", e.StatusCode, e.Body)
}

// RequestTooLarge reports that an outgoing request body exceeded
// MaxRequestBodyLen before it was ever sent.
type RequestTooLarge struct {
	Len int
	Cap int64
}

func (e *RequestTooLarge) Error() string {
	return fmt.Sprintf("request body of %d bytes exceeds the %d byte cap", e.Len, e.Cap)
}

// HTTPTransport sends each call as its own POST request. It has no
// persistent connection and therefore cannot support Subscribe.
type HTTPTransport struct {
	url               string
	httpClient        *http.Client
	maxRequestBodyLen int64
	maxResponseLen    int64
	idCounter         uint64
}

// HTTPTransportOptions configures an HTTPTransport.
type HTTPTransportOptions struct {
	URL string

	// HTTPClient is reused if set; otherwise http.DefaultClient is used.
	HTTPClient *http.Client

	// MaxRequestBodyLen caps the outgoing request body in bytes. Zero
	// disables the cap.
	MaxRequestBodyLen int64

	// MaxResponseLen caps the response body in bytes, strictly: a body
	// of exactly this size succeeds, one byte over fails. Zero disables
	// the cap.
	MaxResponseLen int64
}

// NewHTTPTransport validates opts.URL (only http/https schemes are
// accepted) and returns a ready-to-use HTTPTransport.
func NewHTTPTransport(opts HTTPTransportOptions) (*HTTPTransport, error) {
	parsed, err := url.Parse(opts.URL)
	if err != nil {
		return nil, fmt.Errorf("invalid transport URL: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return nil, fmt.Errorf("unsupported scheme %q: only http and https are accepted", parsed.Scheme)
	}

	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	return &HTTPTransport{
		url:               opts.URL,
		httpClient:        httpClient,
		maxRequestBodyLen: opts.MaxRequestBodyLen,
		maxResponseLen:    opts.MaxResponseLen,
	}, nil
}

// Call implements Transport.
func (t *HTTPTransport) Call(ctx context.Context, method string, params any) (json.RawMessage, error) {
	id := atomic.AddUint64(&t.idCounter, 1)
	rawParams, err := json.Marshal(params)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal params: %w", err)
	}
	req := rpccore.Request{JSONRPC: rpccore.Version, Method: method, Params: rawParams, ID: id}

	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}
	if t.maxRequestBodyLen > 0 && int64(len(body)) > t.maxRequestBodyLen {
		return nil, &RequestTooLarge{Len: len(body), Cap: t.maxRequestBodyLen}
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, t.url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build http request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	httpRes, err := t.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("http request failed: %w", err)
	}
	defer httpRes.Body.Close()

	respBody, err := t.readCapped(httpRes.Body)
	if err != nil {
		return nil, err
	}

	if httpRes.StatusCode < 200 || httpRes.StatusCode >= 300 {
		return nil, &RequestFailure{StatusCode: httpRes.StatusCode, Body: string(respBody)}
	}

	var resp rpccore.Response
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	if resp.Error != nil {
		rerr := rpcError(*resp.Error)
		return nil, &rerr
	}

	return json.Marshal(resp.Result)
}

// readCapped enforces maxResponseLen strictly greater-than, matching
// original_source/http-client/src/transport.rs: a body of exactly the
// cap succeeds, one byte over fails, checked both by the bounded
// reader and by an explicit length check afterward.
func (t *HTTPTransport) readCapped(body io.Reader) ([]byte, error) {
	if t.maxResponseLen <= 0 {
		return io.ReadAll(body)
	}
	limited := io.LimitReader(body, t.maxResponseLen+1)
	data, err := io.ReadAll(limited)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}
	if int64(len(data)) > t.maxResponseLen {
		return nil, fmt.Errorf("response body exceeds %d byte cap", t.maxResponseLen)
	}
	return data, nil
}

// Close is a no-op: HTTPTransport holds no persistent resources.
func (t *HTTPTransport) Close() error {
	return nil
}
