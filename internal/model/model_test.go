package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestParseTimestamp(t *testing.T) {
	tests := []struct {
		in   string
		want time.Time
		ok   bool
	}{
		{"2025-03-01", time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC), true},
		{"2025-03-01T14:30:00", time.Date(2025, 3, 1, 14, 30, 0, 0, time.UTC), true},
		{"2025-03-01 14:30:00", time.Date(2025, 3, 1, 14, 30, 0, 0, time.UTC), true},
		{"2025-03-01T14:30:00.123456", time.Date(2025, 3, 1, 14, 30, 0, 123456000, time.UTC), true},
		{"2025-03-01T14:30:00Z", time.Date(2025, 3, 1, 14, 30, 0, 0, time.UTC), true},
		{" 2025-03-01 ", time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC), true},
		{"ayer", time.Time{}, false},
		{"", time.Time{}, false},
	}
	for _, tt := range tests {
		got, ok := ParseTimestamp(tt.in)
		assert.Equal(t, tt.ok, ok, tt.in)
		assert.True(t, tt.want.Equal(got), "%q parsed as %v", tt.in, got)
	}
}

func TestSugerencia_TitleDetailStatus(t *testing.T) {
	sg := Sugerencia{Sugerencia: "Más puestos\n\nCon enchufes\ny luz"}
	assert.Equal(t, "Más puestos", sg.Title())
	assert.Equal(t, "Con enchufes\ny luz", sg.Detail())
	assert.Equal(t, EstadoPendiente, sg.Status())

	sg = Sugerencia{Sugerencia: "Solo título", Estado: "aprobada"}
	assert.Equal(t, "Solo título", sg.Title())
	assert.Empty(t, sg.Detail())
	assert.Equal(t, EstadoAprobada, sg.Status())
}

func TestWaitEntry_Waiting(t *testing.T) {
	assert.True(t, WaitEntry{}.Waiting())
	assert.True(t, WaitEntry{Estado: "en espera"}.Waiting())
	assert.False(t, WaitEntry{Estado: EstadoCancelada}.Waiting())
	assert.False(t, WaitEntry{Estado: "ATENDIDA"}.Waiting())
}

func TestSolicitud(t *testing.T) {
	assert.True(t, Solicitud{Tipo: "PRÉSTAMO"}.IsLoan())
	assert.True(t, Solicitud{Tipo: " prestamo "}.IsLoan())
	assert.False(t, Solicitud{Tipo: TipoVentana}.IsLoan())

	assert.Equal(t, "Osciloscopio", Solicitud{Items: []RequestedItem{{Nombre: "Osciloscopio"}}}.ItemName())
	assert.Equal(t, "Microscopio", Solicitud{ArticuloNombre: "Microscopio"}.ItemName())
	assert.Empty(t, Solicitud{}.ItemName())
}

func TestUser_Email(t *testing.T) {
	assert.Equal(t, "ana@lab.cl", User{Correo: "  Ana@Lab.CL "}.Email())
}
