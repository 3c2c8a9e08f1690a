package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"
)

// Caller is the part of the gateway client the services depend on.
type Caller interface {
	Call(ctx context.Context, service, operation string, payload, out any) error
}

// ValidationError is a problem detected before any gateway call is made.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func invalid(msg string) error {
	return &ValidationError{Message: msg}
}

var adminRoles = []string{"ADMIN", "ENCARGADO", "STAFF", "GESTOR"}

// IsAdmin reports whether the user may use the admin console: either the
// backend role says so or the email is on the configured allow-list.
func IsAdmin(tipo, email string, allow []string) bool {
	role := strings.ToUpper(strings.TrimSpace(tipo))
	for _, r := range adminRoles {
		if role == r {
			return true
		}
	}
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return false
	}
	for _, a := range allow {
		if strings.ToLower(strings.TrimSpace(a)) == email {
			return true
		}
	}
	return false
}

// listOf decodes raw as a JSON array, or as an object holding the array
// under the first of keys present.
func listOf[T any](raw json.RawMessage, keys ...string) ([]T, error) {
	raw = json.RawMessage(bytes.TrimSpace(raw))
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}
	if raw[0] == '[' {
		var out []T
		if err := json.Unmarshal(raw, &out); err != nil {
			return nil, fmt.Errorf("failed to decode list: %w", err)
		}
		return out, nil
	}

	var obj map[string]json.RawMessage
	if err := json.Unmarshal(raw, &obj); err != nil {
		return nil, fmt.Errorf("failed to decode list: %w", err)
	}
	for _, k := range keys {
		v, ok := obj[k]
		if !ok || string(v) == "null" {
			continue
		}
		var out []T
		if err := json.Unmarshal(v, &out); err != nil {
			return nil, fmt.Errorf("failed to decode %q: %w", k, err)
		}
		return out, nil
	}
	return nil, nil
}
