package service

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"prestalab/portal/internal/model"
)

const catalogCacheKey = "all"

// CatalogService covers items, requests, reservations and loans (prart).
type CatalogService struct {
	gw    Caller
	svc   string
	items *listCache[model.Item]
}

func NewCatalogService(gw Caller, svc string) *CatalogService {
	return &CatalogService{
		gw:    gw,
		svc:   svc,
		items: newListCache[model.Item](5 * time.Minute),
	}
}

// Items lists the catalog, filtered by name and type when either is set.
func (s *CatalogService) Items(ctx context.Context, nombre, tipo string) ([]model.Item, error) {
	nombre = strings.TrimSpace(nombre)
	tipo = strings.TrimSpace(tipo)

	var raw json.RawMessage
	if nombre == "" && tipo == "" {
		if err := s.gw.Call(ctx, s.svc, "get_all_items", nil, &raw); err != nil {
			return nil, err
		}
	} else {
		payload := map[string]string{"nombre": nombre, "tipo": tipo}
		if err := s.gw.Call(ctx, s.svc, "search_items", payload, &raw); err != nil {
			return nil, err
		}
	}

	items, err := listOf[model.Item](raw, "items", "data")
	if err != nil {
		return nil, fmt.Errorf("catalog: %w", err)
	}
	if nombre == "" && tipo == "" {
		s.items.set(catalogCacheKey, uniqueItems(items))
	}
	return items, nil
}

// CachedItems returns the whole catalog, reusing the last fetch unless refresh is set.
func (s *CatalogService) CachedItems(ctx context.Context, refresh bool) ([]model.Item, error) {
	if !refresh {
		if items, ok := s.items.get(catalogCacheKey); ok {
			return items, nil
		}
	}
	if _, err := s.Items(ctx, "", ""); err != nil {
		return nil, err
	}
	items, _ := s.items.get(catalogCacheKey)
	return items, nil
}

func uniqueItems(items []model.Item) []model.Item {
	seen := make(map[int64]bool, len(items))
	out := make([]model.Item, 0, len(items))
	for _, it := range items {
		if it.ID == 0 || seen[it.ID] {
			continue
		}
		seen[it.ID] = true
		out = append(out, it)
	}
	return out
}

// ItemTypes returns the sorted distinct non-empty types of items.
func ItemTypes(items []model.Item) []string {
	set := make(map[string]bool)
	for _, it := range items {
		if it.Tipo != "" {
			set[it.Tipo] = true
		}
	}
	out := make([]string, 0, len(set))
	for t := range set {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

// CreateSolicitud registers a request of type tipo for user and returns its id.
func (s *CatalogService) CreateSolicitud(ctx context.Context, user model.User, tipo string) (int64, error) {
	email := user.Email()
	if email == "" {
		return 0, invalid("No hay sesión activa.")
	}
	payload := map[string]any{"tipo": tipo, "correo": email}
	if user.ID > 0 {
		payload["usuario_id"] = user.ID
	}

	var res struct {
		SolicitudID int64 `json:"solicitud_id"`
		ID          int64 `json:"id"`
	}
	if err := s.gw.Call(ctx, s.svc, "create_solicitud", payload, &res); err != nil {
		return 0, err
	}
	id := res.SolicitudID
	if id == 0 {
		id = res.ID
	}
	if id == 0 {
		return 0, invalid("No se obtuvo solicitud_id al crear la solicitud.")
	}
	return id, nil
}

// Request kinds offered on an item card.
const (
	KindPrestamo = "PRESTAMO"
	KindVentana  = "VENTANA"
)

// windowLayout is what an HTML datetime-local input submits.
const windowLayout = "2006-01-02T15:04"

type ItemRequest struct {
	ItemID int64
	Kind   string
	Inicio string
	Fin    string
}

// RequestItem creates a plain loan request, or a request plus a reservation
// window. It returns the message to show on success.
func (s *CatalogService) RequestItem(ctx context.Context, user model.User, req ItemRequest) (string, error) {
	if user.Email() == "" || user.ID == 0 {
		return "", invalid("No se pudo identificar tu usuario. Inicia sesión de nuevo.")
	}
	if req.ItemID <= 0 {
		return "", invalid("Ítem inválido (falta id).")
	}

	switch strings.ToUpper(req.Kind) {
	case KindPrestamo:
		if _, err := s.CreateSolicitud(ctx, user, model.TipoPrestamo); err != nil {
			return "", err
		}
		return "Solicitud de préstamo creada. Queda pendiente de aprobación.", nil

	case KindVentana:
		if req.Inicio == "" || req.Fin == "" {
			return "", invalid("Debes seleccionar las fechas de inicio y fin.")
		}
		inicio, err := parseWindow(req.Inicio)
		if err != nil {
			return "", invalid("Fecha de inicio inválida.")
		}
		fin, err := parseWindow(req.Fin)
		if err != nil {
			return "", invalid("Fecha de fin inválida.")
		}
		if !fin.After(inicio) {
			return "", invalid("La fecha de fin debe ser posterior a la de inicio.")
		}

		solicitudID, err := s.CreateSolicitud(ctx, user, model.TipoVentana)
		if err != nil {
			return "", err
		}
		reserva := model.Reserva{
			SolicitudID:      solicitudID,
			ItemExistenciaID: req.ItemID,
			Inicio:           inicio.Format("2006-01-02T15:04:05"),
			Fin:              fin.Format("2006-01-02T15:04:05"),
		}
		if err := s.gw.Call(ctx, s.svc, "create_reserva", reserva, nil); err != nil {
			return "", err
		}
		return "¡Reserva creada exitosamente!", nil
	}
	return "", invalid("Tipo de solicitud no válido.")
}

func parseWindow(v string) (time.Time, error) {
	if t, err := time.Parse(windowLayout, v); err == nil {
		return t, nil
	}
	if t, ok := model.ParseTimestamp(v); ok {
		return t, nil
	}
	return time.Time{}, fmt.Errorf("invalid window time %q", v)
}

// Solicitudes lists the requests of the user with that email. An empty email
// lists every request, which only admins are shown.
func (s *CatalogService) Solicitudes(ctx context.Context, email string) ([]model.Solicitud, error) {
	var payload any
	if email = strings.ToLower(strings.TrimSpace(email)); email != "" {
		payload = map[string]string{"correo": email}
	}
	var raw json.RawMessage
	if err := s.gw.Call(ctx, s.svc, "get_solicitudes", payload, &raw); err != nil {
		return nil, err
	}
	list, err := listOf[model.Solicitud](raw, "solicitudes", "data")
	if err != nil {
		return nil, fmt.Errorf("get_solicitudes: %w", err)
	}
	return list, nil
}

// PendingSolicitudes lists every request still waiting for a decision.
func (s *CatalogService) PendingSolicitudes(ctx context.Context) ([]model.Solicitud, error) {
	all, err := s.Solicitudes(ctx, "")
	if err != nil {
		return nil, err
	}
	var out []model.Solicitud
	for _, sol := range all {
		if strings.EqualFold(sol.Estado, model.EstadoPendiente) {
			out = append(out, sol)
		}
	}
	return out, nil
}

// Loans returns the user's loan requests that can still be acted on.
func (s *CatalogService) Loans(ctx context.Context, email string) ([]model.Solicitud, error) {
	all, err := s.Solicitudes(ctx, email)
	if err != nil {
		return nil, err
	}
	var out []model.Solicitud
	for _, sol := range all {
		if !sol.IsLoan() {
			continue
		}
		switch strings.ToUpper(sol.Estado) {
		case model.EstadoPendiente, model.EstadoAprobada:
			out = append(out, sol)
		}
	}
	return out, nil
}

func (s *CatalogService) CancelReserva(ctx context.Context, id int64) error {
	return s.gw.Call(ctx, s.svc, "cancel_reserva", map[string]int64{"reserva_id": id}, nil)
}

func (s *CatalogService) RenewLoan(ctx context.Context, id int64) error {
	return s.gw.Call(ctx, s.svc, "renovar_prestamo", map[string]int64{"prestamo_id": id}, nil)
}

func (s *CatalogService) ReturnLoan(ctx context.Context, id int64, comentario string) error {
	payload := map[string]any{"prestamo_id": id}
	if c := strings.TrimSpace(comentario); c != "" {
		payload["comentario"] = c
	}
	return s.gw.Call(ctx, s.svc, "create_devolucion", payload, nil)
}
