package model

import (
	"strings"
	"time"
)

// Request types and states as the backend spells them.
const (
	TipoPrestamo = "PRÉSTAMO"
	TipoVentana  = "VENTANA"

	EstadoPendiente = "PENDIENTE"
	EstadoAprobada  = "APROBADA"
	EstadoRechazada = "RECHAZADA"

	EstadoEnEspera  = "EN ESPERA"
	EstadoCancelada = "CANCELADA"
)

type RequestedItem struct {
	Nombre string `json:"nombre"`
}

type Solicitud struct {
	ID               int64           `json:"id"`
	UsuarioID        int64           `json:"usuario_id"`
	Tipo             string          `json:"tipo"`
	Estado           string          `json:"estado"`
	RegistroInstante string          `json:"registro_instante"`
	Items            []RequestedItem `json:"items"`
	ArticuloNombre   string          `json:"articulo_nombre,omitempty"`
}

// ItemName returns the first requested item name, or "" when the backend sent none.
func (s Solicitud) ItemName() string {
	if len(s.Items) > 0 && s.Items[0].Nombre != "" {
		return s.Items[0].Nombre
	}
	return s.ArticuloNombre
}

// IsLoan reports whether the request is a plain loan. The backend is not
// consistent about the accent, so both spellings are accepted.
func (s Solicitud) IsLoan() bool {
	t := strings.ToUpper(strings.TrimSpace(s.Tipo))
	return t == TipoPrestamo || t == "PRESTAMO"
}

type SolicitudList struct {
	UsuarioID   int64       `json:"usuario_id"`
	Total       int         `json:"total"`
	Solicitudes []Solicitud `json:"solicitudes"`
}

type Reserva struct {
	SolicitudID      int64  `json:"solicitud_id"`
	ItemExistenciaID int64  `json:"item_existencia_id"`
	Inicio           string `json:"inicio"`
	Fin              string `json:"fin"`
}

// WaitEntry is one row of an item's waitlist.
type WaitEntry struct {
	ID           int64  `json:"id"`
	SolicitudID  int64  `json:"solicitud_id"`
	ItemID       int64  `json:"item_id"`
	UsuarioID    int64  `json:"usuario_id,omitempty"`
	Correo       string `json:"correo,omitempty"`
	FechaIngreso string `json:"fecha_ingreso"`
	Estado       string `json:"estado"`
}

// Waiting reports whether the entry still occupies a place in the queue.
func (e WaitEntry) Waiting() bool {
	s := strings.ToUpper(strings.TrimSpace(e.Estado))
	return s == "" || s == EstadoEnEspera
}

type Multa struct {
	ID               int64   `json:"id"`
	PrestamoID       int64   `json:"prestamo_id"`
	Motivo           string  `json:"motivo"`
	Valor            float64 `json:"valor"`
	Estado           string  `json:"estado"`
	RegistroInstante string  `json:"registro_instante"`
}

type Notificacion struct {
	ID               int64  `json:"id"`
	UsuarioID        int64  `json:"usuario_id"`
	Tipo             string `json:"tipo"`
	Mensaje          string `json:"mensaje"`
	RegistroInstante string `json:"registro_instante"`
}

type Sugerencia struct {
	ID               int64  `json:"id"`
	UsuarioID        int64  `json:"usuario_id"`
	Correo           string `json:"correo,omitempty"`
	Sugerencia       string `json:"sugerencia"`
	Estado           string `json:"estado"`
	RegistroInstante string `json:"registro_instante"`
}

// Title is the first line of the stored message.
func (s Sugerencia) Title() string {
	title, _, _ := strings.Cut(s.Sugerencia, "\n")
	return strings.TrimSpace(title)
}

// Detail is everything after the first line.
func (s Sugerencia) Detail() string {
	_, detail, _ := strings.Cut(s.Sugerencia, "\n")
	return strings.TrimSpace(detail)
}

// Status defaults to PENDIENTE when the backend left it blank.
func (s Sugerencia) Status() string {
	if st := strings.ToUpper(strings.TrimSpace(s.Estado)); st != "" {
		return st
	}
	return EstadoPendiente
}

type HistoryEntry struct {
	PrestamoID      int64  `json:"prestamo_id"`
	FechaPrestamo   string `json:"fecha_prestamo"`
	FechaDevolucion string `json:"fecha_devolucion"`
	Estado          string `json:"estado"`
	Item            string `json:"item"`
	Tipo            string `json:"tipo"`
}

type Circulation struct {
	Sede                any     `json:"sede"`
	Periodo             string  `json:"periodo"`
	Rotacion            int     `json:"rotacion"`
	MorosidadPorcentaje float64 `json:"morosidad_porcentaje"`
	Danos               int     `json:"danos"`
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// ParseTimestamp accepts the formats the backend services emit.
func ParseTimestamp(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
