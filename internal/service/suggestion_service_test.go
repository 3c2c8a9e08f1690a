package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"prestalab/portal/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSuggestions_SubmitAppendsToMine(t *testing.T) {
	srv, gw := newGateway(t)
	srv.Reply("sugit", "list_sugerencias", []map[string]any{
		{"id": 1, "usuario_id": 5, "sugerencia": "Más osciloscopios\n\nHay pocos", "estado": "APROBADA"},
		{"id": 2, "usuario_id": 9, "correo": "beto@lab.cl", "sugerencia": "Horario extendido"},
		{"id": 3, "correo": "ANA@lab.cl", "sugerencia": "Sillas nuevas"},
	})
	srv.Reply("sugit", "create_sugerencia", map[string]any{"id": 12})

	svc := NewSuggestionService(gw, "sugit")
	ctx := context.Background()

	mine, err := svc.Mine(ctx, ana, false)
	require.NoError(t, err)
	require.Len(t, mine, 2)

	sg, err := svc.Submit(ctx, ana, " Préstamo nocturno ", " Abrir hasta las 22:00 ")
	require.NoError(t, err)
	assert.Equal(t, int64(12), sg.ID)
	assert.Equal(t, model.EstadoPendiente, sg.Estado)
	assert.Equal(t, "Préstamo nocturno", sg.Title())
	assert.Equal(t, "Abrir hasta las 22:00", sg.Detail())

	assert.Equal(t, 1, srv.Count("sugit", "create_sugerencia"))
	call, _ := srv.Last("sugit", "create_sugerencia")
	assert.JSONEq(t, `{"usuario_id":5,"correo":"ana@lab.cl","sugerencia":"Préstamo nocturno\n\nAbrir hasta las 22:00"}`, string(call.Payload))

	mine, err = svc.Mine(ctx, ana, false)
	require.NoError(t, err)
	require.Len(t, mine, 3)
	assert.Equal(t, int64(12), mine[2].ID)
	assert.Equal(t, 1, srv.Count("sugit", "list_sugerencias"))
}

func TestSuggestions_SubmitValidation(t *testing.T) {
	srv, gw := newGateway(t)
	svc := NewSuggestionService(gw, "sugit")

	var vErr *ValidationError
	_, err := svc.Submit(context.Background(), ana, "", "detalle")
	assert.True(t, errors.As(err, &vErr))
	_, err = svc.Submit(context.Background(), ana, "título", "   ")
	assert.True(t, errors.As(err, &vErr))
	assert.Empty(t, srv.Calls())
}

func TestSuggestions_SubmitCapsDetail(t *testing.T) {
	srv, gw := newGateway(t)
	srv.Reply("sugit", "create_sugerencia", map[string]any{"id": 1})

	sg, err := NewSuggestionService(gw, "sugit").Submit(context.Background(), ana, "t", strings.Repeat("ñ", 900))
	require.NoError(t, err)
	assert.Equal(t, MaxSuggestionDetail, len([]rune(sg.Detail())))
}

func TestSuggestions_Decide(t *testing.T) {
	srv, gw := newGateway(t)
	srv.Reply("sugit", "list_sugerencias", []map[string]any{
		{"id": 1, "usuario_id": 5, "sugerencia": "a"},
		{"id": 2, "usuario_id": 6, "sugerencia": "b"},
	})
	srv.Reply("sugit", "aprobar_sugerencia", map[string]any{"ok": true})
	srv.Reply("sugit", "rechazar_sugerencia", map[string]any{"ok": true})

	svc := NewSuggestionService(gw, "sugit")
	ctx := context.Background()
	_, err := svc.All(ctx, false)
	require.NoError(t, err)
	_, err = svc.Mine(ctx, ana, false)
	require.NoError(t, err)

	require.NoError(t, svc.Approve(ctx, 1))
	require.NoError(t, svc.Reject(ctx, 2))

	call, _ := srv.Last("sugit", "aprobar_sugerencia")
	assert.JSONEq(t, `{"id":1}`, string(call.Payload))

	all, _ := svc.All(ctx, false)
	assert.Equal(t, model.EstadoAprobada, all[0].Status())
	assert.Equal(t, model.EstadoRechazada, all[1].Status())
	mine, _ := svc.Mine(ctx, ana, false)
	require.Len(t, mine, 1)
	assert.Equal(t, model.EstadoAprobada, mine[0].Status())
	assert.Equal(t, 1, srv.Count("sugit", "list_sugerencias"))
}

func TestFilterSuggestions(t *testing.T) {
	list := []model.Sugerencia{
		{ID: 1, Sugerencia: "Más sillas", Estado: "APROBADA"},
		{ID: 2, Sugerencia: "Horario", Correo: "beto@lab.cl"},
		{ID: 3, Sugerencia: "Sillas ergonómicas"},
	}

	ids := func(in []model.Sugerencia) []int64 {
		var out []int64
		for _, s := range in {
			out = append(out, s.ID)
		}
		return out
	}

	assert.Equal(t, []int64{1, 2, 3}, ids(FilterSuggestions(list, "", "")))
	assert.Equal(t, []int64{1, 3}, ids(FilterSuggestions(list, "SILLAS", "")))
	assert.Equal(t, []int64{2, 3}, ids(FilterSuggestions(list, "", "pendiente")))
	assert.Equal(t, []int64{2}, ids(FilterSuggestions(list, "beto", "")))
}
