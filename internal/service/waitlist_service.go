package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"prestalab/portal/internal/model"
	"prestalab/portal/internal/service/gateway"

	"golang.org/x/sync/errgroup"
)

// JoinStore remembers, per user email, which waitlist solicitud was created
// for each item, so membership survives page loads.
type JoinStore interface {
	Joined(ctx context.Context, email string) (map[int64]int64, error)
	Sync(ctx context.Context, email string, remember map[int64]int64, forget []int64) error
}

// WaitlistService covers the waitlist backend (lista).
type WaitlistService struct {
	gw      Caller
	svc     string
	catalog *CatalogService
	joins   JoinStore
	workers int
}

func NewWaitlistService(gw Caller, svc string, catalog *CatalogService, joins JoinStore, workers int) *WaitlistService {
	if workers <= 0 {
		workers = 6
	}
	return &WaitlistService{gw: gw, svc: svc, catalog: catalog, joins: joins, workers: workers}
}

// QueueInfo is the state of one item's queue as seen by the current user.
// Known is false when the queue could not be read and is shown as empty.
type QueueInfo struct {
	ItemID      int64
	Count       int
	Position    int
	EntryID     int64
	SolicitudID int64
	Known       bool
}

func (q QueueInfo) Joined() bool {
	return q.EntryID != 0
}

// AlreadyQueuedError rejects a second join to the same queue.
type AlreadyQueuedError struct {
	Position int
}

func (e *AlreadyQueuedError) Error() string {
	if e.Position > 0 {
		return fmt.Sprintf("Ya estás en esta lista (posición #%d).", e.Position)
	}
	return "Ya estás en esta lista."
}

// Queue returns the entries still waiting for itemID, in queue order.
func (s *WaitlistService) Queue(ctx context.Context, itemID int64) ([]model.WaitEntry, error) {
	var raw json.RawMessage
	if err := s.gw.Call(ctx, s.svc, "get_lista_espera", map[string]int64{"item_id": itemID}, &raw); err != nil {
		return nil, err
	}
	entries, err := listOf[model.WaitEntry](raw, "registros", "lista", "data", "items")
	if err != nil {
		return nil, fmt.Errorf("get_lista_espera: %w", err)
	}
	waiting := entries[:0]
	for _, e := range entries {
		if e.Waiting() {
			waiting = append(waiting, e)
		}
	}
	return waiting, nil
}

func isMe(e model.WaitEntry, user model.User, remembered int64) bool {
	if remembered != 0 && e.SolicitudID == remembered {
		return true
	}
	if user.ID != 0 && e.UsuarioID == user.ID {
		return true
	}
	email := user.Email()
	return email != "" && strings.ToLower(strings.TrimSpace(e.Correo)) == email
}

// inspect reads the queue for itemID. The lista service answers 404 for an
// empty queue, so any failure other than a rejected session counts as empty.
func (s *WaitlistService) inspect(ctx context.Context, user model.User, itemID, remembered int64) (QueueInfo, error) {
	info := QueueInfo{ItemID: itemID}
	entries, err := s.Queue(ctx, itemID)
	if err != nil {
		if gateway.IsUnauthorized(err) {
			return info, err
		}
		return info, nil
	}
	info.Known = true
	info.Count = len(entries)
	for i, e := range entries {
		if isMe(e, user, remembered) {
			info.Position = i + 1
			info.EntryID = e.ID
			info.SolicitudID = e.SolicitudID
			if info.SolicitudID == 0 {
				info.SolicitudID = remembered
			}
			break
		}
	}
	return info, nil
}

// reconcile brings the remembered joins in line with what the queues show.
// Queues that could not be read leave their remembered join untouched.
func reconcile(infos []QueueInfo, joined map[int64]int64) (map[int64]int64, []int64) {
	remember := make(map[int64]int64)
	var forget []int64
	for _, info := range infos {
		if !info.Known {
			continue
		}
		_, known := joined[info.ItemID]
		switch {
		case !known && info.Joined() && info.SolicitudID != 0:
			remember[info.ItemID] = info.SolicitudID
		case known && !info.Joined():
			forget = append(forget, info.ItemID)
		}
	}
	return remember, forget
}

func (s *WaitlistService) sync(ctx context.Context, email string, infos []QueueInfo, joined map[int64]int64) error {
	remember, forget := reconcile(infos, joined)
	if len(remember) == 0 && len(forget) == 0 {
		return nil
	}
	if err := s.joins.Sync(ctx, email, remember, forget); err != nil {
		return fmt.Errorf("failed to sync remembered joins: %w", err)
	}
	return nil
}

// QueueInfo reads one item's queue for user.
func (s *WaitlistService) QueueInfo(ctx context.Context, user model.User, itemID int64) (QueueInfo, error) {
	infos, err := s.Hydrate(ctx, user, []int64{itemID})
	if err != nil {
		return QueueInfo{ItemID: itemID}, err
	}
	return infos[itemID], nil
}

// Hydrate reads the queues of itemIDs with at most s.workers calls in flight.
func (s *WaitlistService) Hydrate(ctx context.Context, user model.User, itemIDs []int64) (map[int64]QueueInfo, error) {
	email := user.Email()
	joined, err := s.joins.Joined(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("failed to load remembered joins: %w", err)
	}

	var mu sync.Mutex
	result := make(map[int64]QueueInfo, len(itemIDs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)
	for _, id := range itemIDs {
		g.Go(func() error {
			info, err := s.inspect(gctx, user, id, joined[id])
			if err != nil {
				return err
			}
			mu.Lock()
			result[id] = info
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	infos := make([]QueueInfo, 0, len(result))
	for _, info := range result {
		infos = append(infos, info)
	}
	if err := s.sync(ctx, email, infos, joined); err != nil {
		return nil, err
	}
	return result, nil
}

// Join puts user in the queue of itemID: a VENTANA solicitud is created and
// attached to the queue. A membership already remembered is rejected without
// contacting the gateway.
func (s *WaitlistService) Join(ctx context.Context, user model.User, itemID int64) (QueueInfo, error) {
	if itemID <= 0 {
		return QueueInfo{}, invalid("Ítem inválido (falta id).")
	}
	email := user.Email()
	if email == "" {
		return QueueInfo{}, invalid("No hay sesión activa.")
	}

	joined, err := s.joins.Joined(ctx, email)
	if err != nil {
		return QueueInfo{}, fmt.Errorf("failed to load remembered joins: %w", err)
	}
	if _, ok := joined[itemID]; ok {
		return QueueInfo{ItemID: itemID}, &AlreadyQueuedError{}
	}

	pre, err := s.inspect(ctx, user, itemID, 0)
	if err != nil {
		return pre, err
	}
	if pre.Joined() {
		if err := s.sync(ctx, email, []QueueInfo{pre}, joined); err != nil {
			return pre, err
		}
		return pre, &AlreadyQueuedError{Position: pre.Position}
	}

	solicitudID, err := s.catalog.CreateSolicitud(ctx, user, model.TipoVentana)
	if err != nil {
		return pre, err
	}
	payload := map[string]any{
		"solicitud_id": solicitudID,
		"item_id":      itemID,
		"estado":       model.EstadoEnEspera,
	}
	if err := s.gw.Call(ctx, s.svc, "create_lista_espera", payload, nil); err != nil {
		return pre, err
	}
	if err := s.joins.Sync(ctx, email, map[int64]int64{itemID: solicitudID}, nil); err != nil {
		return pre, fmt.Errorf("failed to remember join: %w", err)
	}

	return s.inspect(ctx, user, itemID, solicitudID)
}

// Leave cancels the queue entry and forgets the membership.
func (s *WaitlistService) Leave(ctx context.Context, user model.User, entryID, itemID int64) error {
	if entryID <= 0 {
		return invalid("Registro de lista inválido.")
	}
	payload := map[string]any{"id": entryID, "estado": model.EstadoCancelada}
	if err := s.gw.Call(ctx, s.svc, "update_lista_espera", payload, nil); err != nil {
		return err
	}
	if itemID > 0 {
		if err := s.joins.Sync(ctx, user.Email(), nil, []int64{itemID}); err != nil {
			return fmt.Errorf("failed to forget join: %w", err)
		}
	}
	return nil
}

// WaitlistPage is one page of the filtered catalog shown on the waitlist screen.
type WaitlistPage struct {
	Items   []model.Item
	Total   int
	Matched int
	Page    int
	HasMore bool
}

// FilterItems keeps items whose name, brand, model or category contain term.
func FilterItems(items []model.Item, term string) []model.Item {
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" {
		return items
	}
	var out []model.Item
	for _, it := range items {
		for _, field := range []string{it.Nombre, it.Marca, it.Modelo, it.Categoria} {
			if strings.Contains(strings.ToLower(field), term) {
				out = append(out, it)
				break
			}
		}
	}
	return out
}

// Browse returns the first page*pageSize matching items, "load more" style.
func (s *WaitlistService) Browse(ctx context.Context, term string, page, pageSize int, refresh bool) (WaitlistPage, error) {
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 24
	}
	all, err := s.catalog.CachedItems(ctx, refresh)
	if err != nil {
		return WaitlistPage{}, err
	}
	matched := FilterItems(all, term)
	if last := len(matched)/pageSize + 1; page > last {
		page = last
	}
	end := min(page*pageSize, len(matched))
	return WaitlistPage{
		Items:   matched[:end],
		Total:   len(all),
		Matched: len(matched),
		Page:    page,
		HasMore: end < len(matched),
	}, nil
}
