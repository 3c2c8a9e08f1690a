package gateway

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

// Request is the envelope the gateway routes to a backend service.
type Request struct {
	Service   string `json:"service"`
	Operation string `json:"operation"`
	Payload   any    `json:"payload"`
}

// Response is the envelope some gateway deployments wrap results in.
// Success is a pointer so a body without the key can be told apart.
type Response struct {
	Success    *bool           `json:"success"`
	StatusCode int             `json:"status_code,omitempty"`
	Data       json.RawMessage `json:"data,omitempty"`
	Error      json.RawMessage `json:"error,omitempty"`
}

// Error is returned for non-2xx answers and for envelopes with success:false.
type Error struct {
	Status  int
	Message string
	Payload json.RawMessage
}

func (e *Error) Error() string {
	return fmt.Sprintf("gateway error %d: %s", e.Status, e.Message)
}

// IsUnauthorized reports whether err means the session token was rejected.
func IsUnauthorized(err error) bool {
	var gwErr *Error
	if errors.As(err, &gwErr) {
		return gwErr.Status == http.StatusUnauthorized || gwErr.Status == http.StatusForbidden
	}
	return false
}

// Status returns the HTTP status carried by err, or 0.
func Status(err error) int {
	var gwErr *Error
	if errors.As(err, &gwErr) {
		return gwErr.Status
	}
	return 0
}

// Message returns the text to show a user for err.
func Message(err error) string {
	var gwErr *Error
	if errors.As(err, &gwErr) && gwErr.Message != "" {
		return gwErr.Message
	}
	return "No se pudo contactar al servidor."
}

// errorMessage picks the human readable part of an error body.
// FastAPI puts it in "detail", other services use "message" or "error".
func errorMessage(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var body map[string]json.RawMessage
	if err := json.Unmarshal(raw, &body); err != nil {
		return ""
	}
	for _, key := range []string{"detail", "message", "error"} {
		v, ok := body[key]
		if !ok {
			continue
		}
		if err := json.Unmarshal(v, &s); err == nil && s != "" {
			return s
		}
		if len(v) > 0 && string(v) != "null" {
			return string(v)
		}
	}
	return ""
}

// Services maps the logical backend names used by the portal to the names
// registered on the bus.
type Services struct {
	Auth          string `yaml:"auth"`
	Catalog       string `yaml:"catalog"`
	Waitlist      string `yaml:"waitlist"`
	Fines         string `yaml:"fines"`
	Notifications string `yaml:"notifications"`
	Reports       string `yaml:"reports"`
	Suggestions   string `yaml:"suggestions"`
}

func DefaultServices() Services {
	return Services{
		Auth:          "regist",
		Catalog:       "prart",
		Waitlist:      "lista",
		Fines:         "multa",
		Notifications: "notis",
		Reports:       "gerep",
		Suggestions:   "sugit",
	}
}
