// Package testutil provides programmable test doubles shared by the package tests.
package testutil

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
)

// MockHTTPDoer implements httpapi.HTTPDoer for testing.
// It's programmable - you can configure responses for specific requests.
// Several responses for the same request are served in order; the last one repeats.
type MockHTTPDoer struct {
	responses map[string][]mockResponse
	errors    map[string]error
	calls     []HTTPCall
	mu        sync.RWMutex
}

type mockResponse struct {
	body       []byte
	statusCode int
}

// HTTPCall records a single HTTP call.
type HTTPCall struct {
	Header http.Header
	Method string
	URL    string
	Body   []byte
}

// NewMockHTTPDoer creates a new MockHTTPDoer.
func NewMockHTTPDoer() *MockHTTPDoer {
	return &MockHTTPDoer{
		responses: make(map[string][]mockResponse),
		errors:    make(map[string]error),
		calls:     []HTTPCall{},
	}
}

// Do executes the HTTP request and returns the configured response.
func (m *MockHTTPDoer) Do(req *http.Request) (*http.Response, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var body []byte
	if req.Body != nil {
		var err error
		body, err = io.ReadAll(req.Body)
		if err != nil {
			return &http.Response{
				StatusCode: http.StatusBadRequest,
				Body:       io.NopCloser(strings.NewReader(`{"error":"failed to read request body"}`)),
				Header:     make(http.Header),
			}, nil
		}
		req.Body = io.NopCloser(bytes.NewReader(body))
	}
	m.calls = append(m.calls, HTTPCall{
		Method: req.Method,
		URL:    req.URL.String(),
		Header: req.Header.Clone(),
		Body:   body,
	})

	key := makeKey(req.Method, req.URL.String())

	if err, ok := m.errors[key]; ok {
		return nil, err
	}

	if queue := m.responses[key]; len(queue) > 0 {
		r := queue[0]
		if len(queue) > 1 {
			m.responses[key] = queue[1:]
		}
		return &http.Response{
			StatusCode: r.statusCode,
			Status:     fmt.Sprintf("%d %s", r.statusCode, http.StatusText(r.statusCode)),
			Body:       io.NopCloser(bytes.NewReader(r.body)),
			Header:     make(http.Header),
			Request:    req,
		}, nil
	}

	return &http.Response{
		StatusCode: http.StatusNotFound,
		Status:     "404 Not Found",
		Body:       io.NopCloser(strings.NewReader(`{"message":"not found"}`)),
		Header:     make(http.Header),
		Request:    req,
	}, nil
}

// SetResponse queues a response for a specific method and URL.
// A string or []byte body is sent verbatim; anything else is JSON-encoded.
func (m *MockHTTPDoer) SetResponse(method, url string, statusCode int, body any) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var bodyBytes []byte
	switch b := body.(type) {
	case nil:
	case string:
		bodyBytes = []byte(b)
	case []byte:
		bodyBytes = b
	default:
		var err error
		bodyBytes, err = json.Marshal(body)
		if err != nil {
			panic(fmt.Sprintf("failed to marshal response body: %v", err))
		}
	}

	key := makeKey(method, url)
	m.responses[key] = append(m.responses[key], mockResponse{statusCode: statusCode, body: bodyBytes})
}

// SetError configures an error for a specific method and URL.
func (m *MockHTTPDoer) SetError(method, url string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errors[makeKey(method, url)] = err
}

// Calls returns all recorded HTTP calls.
func (m *MockHTTPDoer) Calls() []HTTPCall {
	m.mu.RLock()
	defer m.mu.RUnlock()

	calls := make([]HTTPCall, len(m.calls))
	copy(calls, m.calls)
	return calls
}

// CallCount returns how many calls matched method and URL.
func (m *MockHTTPDoer) CallCount(method, url string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	n := 0
	for _, c := range m.calls {
		if c.Method == method && c.URL == url {
			n++
		}
	}
	return n
}

// Reset clears all configured responses and recorded calls.
func (m *MockHTTPDoer) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.responses = make(map[string][]mockResponse)
	m.errors = make(map[string]error)
	m.calls = []HTTPCall{}
}

func makeKey(method, url string) string {
	return method + ":" + url
}
