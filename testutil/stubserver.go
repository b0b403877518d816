// Package testutil provides test helpers and a scriptable stub Federation
// Core server for SDK tests.
package testutil

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
)

// StubResponse is one scripted response for a stubbed route.
type StubResponse struct {
	Status int
	Body   any
}

// OKEnvelope builds a success envelope response.
func OKEnvelope(data any) StubResponse {
	return StubResponse{
		Status: http.StatusOK,
		Body: map[string]any{
			"ok":   true,
			"data": data,
			"meta": map[string]any{"request_id": "req-stub"},
		},
	}
}

// ErrEnvelope builds a failure envelope response.
func ErrEnvelope(status int, code, message string, retryable bool) StubResponse {
	return StubResponse{
		Status: status,
		Body: map[string]any{
			"ok":   false,
			"data": nil,
			"error": map[string]any{
				"code":      code,
				"message":   message,
				"retryable": retryable,
			},
			"meta": map[string]any{"request_id": "req-stub"},
		},
	}
}

// Raw builds a non-envelope response with a literal body.
func Raw(status int, body any) StubResponse {
	return StubResponse{Status: status, Body: body}
}

// StubServer is a scriptable Federation Core stub. Responses are consumed
// in order per route; the last scripted response repeats once the queue is
// drained, which makes failure-then-success sequences easy to express.
type StubServer struct {
	mu     sync.Mutex
	server *httptest.Server
	script map[string][]StubResponse
	calls  map[string]int
	// LastRequest records the most recent request per route for header
	// assertions.
	lastRequest map[string]*http.Request
	lastBody    map[string][]byte
	requests    map[string][]*http.Request
}

// NewStubServer starts a stub Federation Core server.
func NewStubServer() *StubServer {
	s := &StubServer{
		script:      make(map[string][]StubResponse),
		calls:       make(map[string]int),
		lastRequest: make(map[string]*http.Request),
		lastBody:    make(map[string][]byte),
		requests:    make(map[string][]*http.Request),
	}
	s.server = httptest.NewServer(http.HandlerFunc(s.handle))
	return s
}

// URL returns the stub server base URL.
func (s *StubServer) URL() string { return s.server.URL }

// Close shuts the stub down.
func (s *StubServer) Close() { s.server.Close() }

// On scripts responses for a route. The path must include the API prefix,
// e.g. "/api/v1/tools".
func (s *StubServer) On(method, path string, responses ...StubResponse) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := method + " " + path
	s.script[key] = append(s.script[key], responses...)
}

// Calls returns how many requests hit a route.
func (s *StubServer) Calls(method, path string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[method+" "+path]
}

// TotalCalls returns the number of requests received across all routes.
func (s *StubServer) TotalCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	total := 0
	for _, n := range s.calls {
		total += n
	}
	return total
}

// Request returns the most recent request seen on a route, or nil.
func (s *StubServer) Request(method, path string) *http.Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastRequest[method+" "+path]
}

// Requests returns every request seen on a route, in arrival order.
func (s *StubServer) Requests(method, path string) []*http.Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.requests[method+" "+path]
}

// RequestBody returns the most recent request body seen on a route.
func (s *StubServer) RequestBody(method, path string) []byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastBody[method+" "+path]
}

func (s *StubServer) handle(w http.ResponseWriter, r *http.Request) {
	key := r.Method + " " + r.URL.Path

	s.mu.Lock()
	s.calls[key]++
	clone := r.Clone(r.Context())
	s.lastRequest[key] = clone
	s.requests[key] = append(s.requests[key], clone)
	if r.Body != nil {
		body := make([]byte, 0)
		buf := make([]byte, 4096)
		for {
			n, err := r.Body.Read(buf)
			body = append(body, buf[:n]...)
			if err != nil {
				break
			}
		}
		s.lastBody[key] = body
	}

	queue := s.script[key]
	var resp StubResponse
	switch {
	case len(queue) == 0:
		resp = StubResponse{
			Status: http.StatusNotFound,
			Body: map[string]any{
				"ok": false,
				"error": map[string]any{
					"code":    "NOT_FOUND",
					"message": "no stub for " + key,
				},
				"meta": map[string]any{"request_id": "req-stub"},
			},
		}
	case len(queue) == 1:
		resp = queue[0]
	default:
		resp = queue[0]
		s.script[key] = queue[1:]
	}
	// Echo the caller's correlation ID into the envelope meta, mirroring
	// Federation Core behaviour. Serialization happens under the lock so
	// concurrent callers never observe a half-mutated body.
	body := resp.Body
	if m, ok := body.(map[string]any); ok {
		if meta, ok := m["meta"].(map[string]any); ok {
			if cid := r.Header.Get("X-Correlation-Id"); cid != "" {
				meta["correlation_id"] = cid
			}
		}
	}
	payload, _ := json.Marshal(body)
	s.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(resp.Status)
	_, _ = w.Write(payload)
}
