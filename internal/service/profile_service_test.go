package service

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"prestalab/portal/internal/service/gateway"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newProfile(gw Caller) *ProfileService {
	return NewProfileService(NewAuthService(gw, "regist"), NewNotificationService(gw, "notis"))
}

func TestProfile_Load(t *testing.T) {
	srv, gw := newGateway(t)
	srv.Reply("regist", "get_user", map[string]any{"id": 5, "nombre": "Ana", "correo": "ana@lab.cl", "preferencias_notificacion": 1})
	srv.Reply("notis", "get_preferencias", map[string]any{"preferencias_notificacion": false})

	p, err := newProfile(gw).Load(context.Background(), 5)
	require.NoError(t, err)
	assert.Equal(t, "Ana", p.User.Nombre)
	assert.Equal(t, 0, p.Preference)
}

func TestProfile_LoadPreferenceFallback(t *testing.T) {
	srv, gw := newGateway(t)
	srv.Reply("regist", "get_user", map[string]any{"id": 5, "nombre": "Ana", "preferencias_notificacion": 1})
	srv.Fail("notis", "get_preferencias", http.StatusServiceUnavailable, "notis caído")

	p, err := newProfile(gw).Load(context.Background(), 5)
	require.NoError(t, err)
	assert.Equal(t, 1, p.Preference)
}

func TestProfile_LoadUnauthorized(t *testing.T) {
	srv, gw := newGateway(t)
	srv.Reply("regist", "get_user", map[string]any{"id": 5})
	srv.Fail("notis", "get_preferencias", http.StatusForbidden, "Forbidden")

	_, err := newProfile(gw).Load(context.Background(), 5)
	assert.True(t, gateway.IsUnauthorized(err))
}

func TestProfile_Save(t *testing.T) {
	srv, gw := newGateway(t)
	srv.Reply("regist", "update_user", map[string]any{"ok": true})
	srv.Reply("notis", "update_preferencias", map[string]any{"ok": true})
	svc := newProfile(gw)

	err := svc.Save(context.Background(), 5, ProfileUpdate{Nombre: "  "})
	var vErr *ValidationError
	require.True(t, errors.As(err, &vErr))
	assert.Empty(t, srv.Calls())

	require.NoError(t, svc.Save(context.Background(), 5, ProfileUpdate{Nombre: " Ana María ", Telefono: "+56 9 1234", Preference: 1}))
	user, _ := srv.Last("regist", "update_user")
	assert.JSONEq(t, `{"id":5,"datos":{"nombre":"Ana María","telefono":"+56 9 1234"}}`, string(user.Payload))
	pref, _ := srv.Last("notis", "update_preferencias")
	assert.JSONEq(t, `{"usuario_id":5,"preferencias_notificacion":1}`, string(pref.Payload))
}

func TestPreferenceValue(t *testing.T) {
	tests := map[string]int{`1`: 1, `0`: 0, `true`: 1, `false`: 0, `"1"`: 1, `null`: 0, ``: 0}
	for in, want := range tests {
		got, err := preferenceValue([]byte(in))
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	_, err := preferenceValue([]byte(`"si"`))
	assert.Error(t, err)
}
