package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"prestalab/portal/internal/model"
)

const (
	MaxSuggestionDetail = 800

	suggestionsAllKey = "all"
)

// SuggestionService covers the suggestion box (sugit).
type SuggestionService struct {
	gw    Caller
	svc   string
	cache *listCache[model.Sugerencia]
}

func NewSuggestionService(gw Caller, svc string) *SuggestionService {
	return &SuggestionService{
		gw:    gw,
		svc:   svc,
		cache: newListCache[model.Sugerencia](5 * time.Minute),
	}
}

func mineKey(email string) string {
	return "mine:" + email
}

// All lists every suggestion, served from cache unless refresh is set.
func (s *SuggestionService) All(ctx context.Context, refresh bool) ([]model.Sugerencia, error) {
	if !refresh {
		if list, ok := s.cache.get(suggestionsAllKey); ok {
			return list, nil
		}
	}
	var raw json.RawMessage
	if err := s.gw.Call(ctx, s.svc, "list_sugerencias", nil, &raw); err != nil {
		return nil, err
	}
	list, err := listOf[model.Sugerencia](raw, "sugerencias", "data", "items")
	if err != nil {
		return nil, fmt.Errorf("list_sugerencias: %w", err)
	}
	s.cache.set(suggestionsAllKey, list)
	return list, nil
}

func isMine(sg model.Sugerencia, user model.User) bool {
	if user.ID != 0 && sg.UsuarioID == user.ID {
		return true
	}
	email := user.Email()
	return email != "" && strings.EqualFold(strings.TrimSpace(sg.Correo), email)
}

// Mine lists the suggestions sent by user.
func (s *SuggestionService) Mine(ctx context.Context, user model.User, refresh bool) ([]model.Sugerencia, error) {
	key := mineKey(user.Email())
	if !refresh {
		if list, ok := s.cache.get(key); ok {
			return list, nil
		}
	}
	all, err := s.All(ctx, refresh)
	if err != nil {
		return nil, err
	}
	var mine []model.Sugerencia
	for _, sg := range all {
		if isMine(sg, user) {
			mine = append(mine, sg)
		}
	}
	s.cache.set(key, mine)
	return mine, nil
}

// Submit sends one suggestion made of a title and a detail, and adds it to
// the cached lists without reloading them.
func (s *SuggestionService) Submit(ctx context.Context, user model.User, title, detail string) (model.Sugerencia, error) {
	title = strings.TrimSpace(title)
	detail = strings.TrimSpace(detail)
	if title == "" || detail == "" {
		return model.Sugerencia{}, invalid("Completa título y detalle.")
	}
	if r := []rune(detail); len(r) > MaxSuggestionDetail {
		detail = string(r[:MaxSuggestionDetail])
	}
	email := user.Email()
	if email == "" {
		return model.Sugerencia{}, invalid("No hay sesión activa.")
	}

	text := title + "\n\n" + detail
	payload := map[string]any{"correo": email, "sugerencia": text}
	if user.ID > 0 {
		payload["usuario_id"] = user.ID
	}
	var res struct {
		ID               int64  `json:"id"`
		Estado           string `json:"estado"`
		RegistroInstante string `json:"registro_instante"`
	}
	if err := s.gw.Call(ctx, s.svc, "create_sugerencia", payload, &res); err != nil {
		return model.Sugerencia{}, err
	}

	sg := model.Sugerencia{
		ID:               res.ID,
		UsuarioID:        user.ID,
		Correo:           email,
		Sugerencia:       text,
		Estado:           res.Estado,
		RegistroInstante: res.RegistroInstante,
	}
	if sg.Estado == "" {
		sg.Estado = model.EstadoPendiente
	}
	if sg.RegistroInstante == "" {
		sg.RegistroInstante = time.Now().Format("2006-01-02T15:04:05")
	}
	s.cache.appendTo(mineKey(email), sg)
	s.cache.appendTo(suggestionsAllKey, sg)
	return sg, nil
}

func (s *SuggestionService) Approve(ctx context.Context, id int64) error {
	return s.decide(ctx, id, "aprobar_sugerencia", model.EstadoAprobada)
}

func (s *SuggestionService) Reject(ctx context.Context, id int64) error {
	return s.decide(ctx, id, "rechazar_sugerencia", model.EstadoRechazada)
}

func (s *SuggestionService) decide(ctx context.Context, id int64, op, estado string) error {
	if id <= 0 {
		return invalid("Sugerencia inválida.")
	}
	if err := s.gw.Call(ctx, s.svc, op, map[string]int64{"id": id}, nil); err != nil {
		return err
	}
	s.cache.updateAll(func(list []model.Sugerencia) {
		for i := range list {
			if list[i].ID == id {
				list[i].Estado = estado
			}
		}
	})
	return nil
}

// FilterSuggestions keeps suggestions containing term (in the text or the
// author email) and, when status is set, in that status.
func FilterSuggestions(list []model.Sugerencia, term, status string) []model.Sugerencia {
	term = strings.ToLower(strings.TrimSpace(term))
	status = strings.ToUpper(strings.TrimSpace(status))
	var out []model.Sugerencia
	for _, sg := range list {
		if status != "" && sg.Status() != status {
			continue
		}
		if term != "" &&
			!strings.Contains(strings.ToLower(sg.Sugerencia), term) &&
			!strings.Contains(strings.ToLower(sg.Correo), term) {
			continue
		}
		out = append(out, sg)
	}
	return out
}
