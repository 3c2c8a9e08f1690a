package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/andybalholm/brotli"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
)

type Config struct {
	URL     string
	Timeout time.Duration
}

// Client sends one POST per call to the gateway. It never retries.
type Client struct {
	client *http.Client
	config Config
}

func NewClient(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		client: &http.Client{
			Transport: &AuthTransport{Base: http.DefaultTransport},
			Timeout:   timeout,
		},
		config: cfg,
	}
}

type tokenKey struct{}

// WithToken attaches the session token that AuthTransport forwards as a bearer token.
func WithToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, tokenKey{}, token)
}

func TokenFrom(ctx context.Context) string {
	token, _ := ctx.Value(tokenKey{}).(string)
	return token
}

// AuthTransport adds the bearer token, the request id and the encoding headers.
type AuthTransport struct {
	Base http.RoundTripper
}

func (t *AuthTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	ctx := req.Context()
	req = req.Clone(ctx)
	if token := TokenFrom(ctx); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	reqID := middleware.GetReqID(ctx)
	if reqID == "" {
		reqID = uuid.NewString()
	}
	req.Header.Set("X-Request-ID", reqID)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Accept-Encoding", "br")
	return t.Base.RoundTrip(req)
}

// Call routes operation with payload to service and decodes the result into out.
// out may be nil when the caller does not need the answer.
func (c *Client) Call(ctx context.Context, service, operation string, payload, out any) error {
	if service == "" {
		return errors.New("gateway: missing service")
	}
	if payload == nil {
		payload = struct{}{}
	}

	body, err := json.Marshal(Request{Service: service, Operation: operation, Payload: payload})
	if err != nil {
		return fmt.Errorf("failed to encode %s.%s request: %w", service, operation, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.URL, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to reach gateway: %w", err)
	}

	if resp.Header.Get("Content-Encoding") == "br" {
		resp.Body = &readCloserWrapper{Reader: brotli.NewReader(resp.Body), Closer: resp.Body}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read gateway response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg := errorMessage(raw)
		if msg == "" {
			msg = http.StatusText(resp.StatusCode)
		}
		return &Error{Status: resp.StatusCode, Message: msg, Payload: raw}
	}

	data, err := unwrap(raw)
	if err != nil {
		return err
	}
	if out == nil || len(data) == 0 || string(data) == "null" {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to decode %s.%s response: %w", service, operation, err)
	}
	return nil
}

// unwrap returns the data part of a 2xx body. Bodies without a "success" key
// are the service answer itself.
func unwrap(raw []byte) (json.RawMessage, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return trimmed, nil
	}

	var env Response
	if err := json.Unmarshal(trimmed, &env); err != nil {
		return nil, fmt.Errorf("invalid gateway response: %w", err)
	}
	if env.Success == nil {
		return trimmed, nil
	}
	if !*env.Success {
		status := env.StatusCode
		if status == 0 {
			status = http.StatusBadGateway
		}
		msg := errorMessage(env.Error)
		if msg == "" {
			msg = errorMessage(trimmed)
		}
		if msg == "" {
			msg = "Error del gateway"
		}
		return nil, &Error{Status: status, Message: msg, Payload: trimmed}
	}
	return env.Data, nil
}

type readCloserWrapper struct {
	io.Reader
	io.Closer
}

func (r *readCloserWrapper) Read(p []byte) (n int, err error) {
	return r.Reader.Read(p)
}

func (r *readCloserWrapper) Close() error {
	return r.Closer.Close()
}
