package service

import (
	"context"
	"errors"
	"testing"

	"prestalab/portal/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newAdmin(gw Caller) *AdminService {
	return NewAdminService(NewAuthService(gw, "regist"), NewCatalogService(gw, "prart"))
}

func TestAdmin_UsersSearchAndStatus(t *testing.T) {
	srv, gw := newGateway(t)
	srv.Reply("regist", "list_users", map[string]any{"usuarios": []map[string]any{
		{"id": 1, "nombre": "Ana", "correo": "ana@lab.cl", "tipo": "ESTUDIANTE", "estado": "ACTIVO"},
		{"id": 2, "nombre": "Beto", "correo": "beto@lab.cl", "tipo": "ENCARGADO", "estado": "ACTIVO"},
	}})
	srv.Reply("regist", "update_user", map[string]any{"ok": true})

	svc := newAdmin(gw)
	ctx := context.Background()

	users, err := svc.Users(ctx, "encargado", false)
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, "Beto", users[0].Nombre)

	require.NoError(t, svc.SetUserStatus(ctx, 1, "bloqueado"))
	call, _ := srv.Last("regist", "update_user")
	assert.JSONEq(t, `{"id":1,"datos":{"estado":"BLOQUEADO"}}`, string(call.Payload))

	users, err = svc.Users(ctx, "", false)
	require.NoError(t, err)
	assert.Equal(t, "BLOQUEADO", users[0].Estado)
	assert.Equal(t, 1, srv.Count("regist", "list_users"))

	err = svc.SetUserStatus(ctx, 1, "borrado")
	var vErr *ValidationError
	assert.True(t, errors.As(err, &vErr))
}

func TestAdmin_Solicitudes(t *testing.T) {
	srv, gw := newGateway(t)
	srv.Reply("prart", "get_solicitudes", map[string]any{"solicitudes": []map[string]any{
		{"id": 1, "estado": "PENDIENTE"},
		{"id": 2, "estado": "APROBADA"},
	}})
	srv.Reply("regist", "update_solicitud", map[string]any{"ok": true})

	svc := newAdmin(gw)
	ctx := context.Background()

	pending, err := svc.PendingSolicitudes(ctx)
	require.NoError(t, err)
	assert.Equal(t, []model.Solicitud{{ID: 1, Estado: "PENDIENTE"}}, pending)
	call, _ := srv.Last("prart", "get_solicitudes")
	assert.JSONEq(t, `{}`, string(call.Payload))

	require.NoError(t, svc.DecideSolicitud(ctx, 1, "aprobada"))
	upd, _ := srv.Last("regist", "update_solicitud")
	assert.JSONEq(t, `{"solicitud_id":1,"estado":"APROBADA"}`, string(upd.Payload))

	err = svc.DecideSolicitud(ctx, 1, "PENDIENTE")
	var vErr *ValidationError
	assert.True(t, errors.As(err, &vErr))
	assert.Equal(t, 1, srv.Count("regist", "update_solicitud"))
}
