package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/andybalholm/brotli"
	"github.com/stretchr/testify/assert"
)

type itemsResult struct {
	Total int `json:"total"`
	Items []struct {
		ID     int64  `json:"id"`
		Nombre string `json:"nombre"`
	} `json:"items"`
}

func TestCall_SuccessEnvelope(t *testing.T) {
	var got Request
	var gotHeaders http.Header
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotHeaders = r.Header.Clone()
		assert.Equal(t, http.MethodPost, r.Method)
		json.NewDecoder(r.Body).Decode(&got)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"success":true,"data":{"total":1,"items":[{"id":7,"nombre":"Osciloscopio"}]}}`))
	}))
	defer ts.Close()

	client := NewClient(Config{URL: ts.URL})
	ctx := WithToken(context.Background(), "session-3")

	var out itemsResult
	err := client.Call(ctx, "prart", "get_all_items", nil, &out)

	assert.NoError(t, err)
	assert.Equal(t, "prart", got.Service)
	assert.Equal(t, "get_all_items", got.Operation)
	assert.Equal(t, map[string]any{}, got.Payload)
	assert.Equal(t, 1, out.Total)
	if assert.Len(t, out.Items, 1) {
		assert.Equal(t, int64(7), out.Items[0].ID)
	}
	assert.Equal(t, "Bearer session-3", gotHeaders.Get("Authorization"))
	assert.Equal(t, "application/json", gotHeaders.Get("Content-Type"))
	assert.Equal(t, "br", gotHeaders.Get("Accept-Encoding"))
	assert.NotEmpty(t, gotHeaders.Get("X-Request-ID"))
}

func TestCall_NoTokenWithoutSession(t *testing.T) {
	var auth string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		w.Write([]byte(`{"success":true,"data":null}`))
	}))
	defer ts.Close()

	err := NewClient(Config{URL: ts.URL}).Call(context.Background(), "regist", "login", map[string]string{"correo": "a@b.cl"}, nil)
	assert.NoError(t, err)
	assert.Empty(t, auth)
}

func TestCall_PassThroughBody(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"total":2,"items":[{"id":1,"nombre":"A"},{"id":2,"nombre":"B"}]}`))
	}))
	defer ts.Close()

	var out itemsResult
	err := NewClient(Config{URL: ts.URL}).Call(context.Background(), "prart", "get_all_items", nil, &out)
	assert.NoError(t, err)
	assert.Equal(t, 2, out.Total)
	assert.Len(t, out.Items, 2)
}

func TestCall_SuccessFalse(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"success":false,"status_code":409,"error":"El correo ya está registrado"}`))
	}))
	defer ts.Close()

	err := NewClient(Config{URL: ts.URL}).Call(context.Background(), "regist", "register_user", nil, nil)

	var gwErr *Error
	if assert.True(t, errors.As(err, &gwErr)) {
		assert.Equal(t, 409, gwErr.Status)
		assert.Equal(t, "El correo ya está registrado", gwErr.Message)
		assert.Contains(t, string(gwErr.Payload), "status_code")
	}
	assert.Equal(t, 409, Status(err))
	assert.False(t, IsUnauthorized(err))
}

func TestCall_SuccessFalseDefaultsToBadGateway(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"success":false}`))
	}))
	defer ts.Close()

	err := NewClient(Config{URL: ts.URL}).Call(context.Background(), "lista", "get_lista_espera", nil, nil)
	assert.Equal(t, http.StatusBadGateway, Status(err))
	assert.Equal(t, "Error del gateway", Message(err))
}

func TestCall_HTTPErrorDetail(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"detail", `{"detail":"Credenciales inválidas"}`, "Credenciales inválidas"},
		{"message", `{"message":"Servicio caído"}`, "Servicio caído"},
		{"error", `{"error":"Timeout"}`, "Timeout"},
		{"empty body", ``, "Bad Gateway"},
		{"non json", `upstream down`, "Bad Gateway"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusBadGateway)
				w.Write([]byte(tt.body))
			}))
			defer ts.Close()

			err := NewClient(Config{URL: ts.URL}).Call(context.Background(), "prart", "get_all_items", nil, nil)
			assert.Error(t, err)
			assert.Equal(t, http.StatusBadGateway, Status(err))
			assert.Equal(t, tt.want, Message(err))
		})
	}
}

func TestCall_Unauthorized(t *testing.T) {
	for _, status := range []int{http.StatusUnauthorized, http.StatusForbidden} {
		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(status)
			w.Write([]byte(`{"detail":"token inválido"}`))
		}))

		err := NewClient(Config{URL: ts.URL}).Call(context.Background(), "multa", "get_multas_usuario", nil, nil)
		assert.True(t, IsUnauthorized(err), "status %d", status)
		ts.Close()
	}
}

func TestCall_Brotli(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Encoding", "br")
		bw := brotli.NewWriter(w)
		bw.Write([]byte(`{"success":true,"data":{"total":3,"items":[]}}`))
		bw.Close()
	}))
	defer ts.Close()

	var out itemsResult
	err := NewClient(Config{URL: ts.URL}).Call(context.Background(), "prart", "get_all_items", nil, &out)
	assert.NoError(t, err)
	assert.Equal(t, 3, out.Total)
}

func TestCall_InvalidJSON(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`invalid-json`))
	}))
	defer ts.Close()

	var out itemsResult
	err := NewClient(Config{URL: ts.URL}).Call(context.Background(), "prart", "get_all_items", nil, &out)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "invalid character")
}

func TestCall_TransportFailure(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := ts.URL
	ts.Close()

	err := NewClient(Config{URL: url}).Call(context.Background(), "prart", "get_all_items", nil, nil)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "failed to reach gateway")
	assert.Equal(t, 0, Status(err))
	assert.Equal(t, "No se pudo contactar al servidor.", Message(err))
}

func TestCall_MissingService(t *testing.T) {
	err := NewClient(Config{URL: "http://127.0.0.1:1"}).Call(context.Background(), "", "ping", nil, nil)
	assert.EqualError(t, err, "gateway: missing service")
}
