// Package gatewaytest provides an in-process gateway that answers scripted
// operations and records every call it receives.
package gatewaytest

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
)

// Call is one request received by the fake gateway.
type Call struct {
	Service   string
	Operation string
	Payload   json.RawMessage
	Token     string
}

// Decode unmarshals the call payload into v.
func (c Call) Decode(v any) error {
	return json.Unmarshal(c.Payload, v)
}

// HandlerFunc answers one operation with an HTTP status and a JSON body.
type HandlerFunc func(payload json.RawMessage) (int, any)

type Server struct {
	*httptest.Server

	mu       sync.Mutex
	handlers map[string]HandlerFunc
	calls    []Call
}

// New starts a fake gateway that is closed when the test ends.
func New(t testing.TB) *Server {
	s := &Server{handlers: make(map[string]HandlerFunc)}
	s.Server = httptest.NewServer(http.HandlerFunc(s.serve))
	t.Cleanup(s.Close)
	return s
}

func key(service, operation string) string {
	return service + "." + operation
}

func (s *Server) Handle(service, operation string, fn HandlerFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.handlers[key(service, operation)] = fn
}

// Reply answers the operation with a success envelope around data.
func (s *Server) Reply(service, operation string, data any) {
	s.Handle(service, operation, func(json.RawMessage) (int, any) {
		return http.StatusOK, map[string]any{"success": true, "data": data}
	})
}

// Fail answers the operation with status and a {"detail": ...} body.
func (s *Server) Fail(service, operation string, status int, detail string) {
	s.Handle(service, operation, func(json.RawMessage) (int, any) {
		return status, map[string]any{"detail": detail}
	})
}

func (s *Server) Calls() []Call {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Call, len(s.calls))
	copy(out, s.calls)
	return out
}

// Count returns how many times the operation was called.
func (s *Server) Count(service, operation string) int {
	n := 0
	for _, c := range s.Calls() {
		if c.Service == service && c.Operation == operation {
			n++
		}
	}
	return n
}

// Last returns the most recent call to the operation.
func (s *Server) Last(service, operation string) (Call, bool) {
	calls := s.Calls()
	for i := len(calls) - 1; i >= 0; i-- {
		if calls[i].Service == service && calls[i].Operation == operation {
			return calls[i], true
		}
	}
	return Call{}, false
}

func (s *Server) serve(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Service   string          `json:"service"`
		Operation string          `json:"operation"`
		Payload   json.RawMessage `json:"payload"`
	}
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]any{"detail": err.Error()})
		return
	}

	s.mu.Lock()
	s.calls = append(s.calls, Call{
		Service:   req.Service,
		Operation: req.Operation,
		Payload:   req.Payload,
		Token:     strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer "),
	})
	fn, ok := s.handlers[key(req.Service, req.Operation)]
	s.mu.Unlock()

	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]any{"detail": "operation not found: " + key(req.Service, req.Operation)})
		return
	}
	status, body := fn(req.Payload)
	writeJSON(w, status, body)
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}
