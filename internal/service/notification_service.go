package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"prestalab/portal/internal/model"
)

// NotificationService covers notifications and delivery preferences (notis).
type NotificationService struct {
	gw  Caller
	svc string
}

func NewNotificationService(gw Caller, svc string) *NotificationService {
	return &NotificationService{gw: gw, svc: svc}
}

func (s *NotificationService) Notifications(ctx context.Context, userID int64) ([]model.Notificacion, error) {
	var raw json.RawMessage
	if err := s.gw.Call(ctx, s.svc, "get_notificaciones", map[string]int64{"usuario_id": userID}, &raw); err != nil {
		return nil, err
	}
	list, err := listOf[model.Notificacion](raw, "notificaciones", "data")
	if err != nil {
		return nil, fmt.Errorf("get_notificaciones: %w", err)
	}
	return list, nil
}

// Preference returns the user's notification preference, 1 meaning enabled.
func (s *NotificationService) Preference(ctx context.Context, userID int64) (int, error) {
	var res struct {
		Pref json.RawMessage `json:"preferencias_notificacion"`
	}
	if err := s.gw.Call(ctx, s.svc, "get_preferencias", map[string]int64{"usuario_id": userID}, &res); err != nil {
		return 0, err
	}
	return preferenceValue(res.Pref)
}

// preferenceValue accepts a number, a boolean or a quoted number.
func preferenceValue(raw json.RawMessage) (int, error) {
	raw = bytes.TrimSpace(raw)
	switch string(raw) {
	case "", "null", "false":
		return 0, nil
	case "true":
		return 1, nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		raw = []byte(s)
	}
	n, err := strconv.Atoi(string(raw))
	if err != nil {
		return 0, fmt.Errorf("invalid preferencias_notificacion %q", raw)
	}
	return n, nil
}

func (s *NotificationService) SetPreference(ctx context.Context, userID int64, pref int) error {
	payload := map[string]any{"usuario_id": userID, "preferencias_notificacion": pref}
	return s.gw.Call(ctx, s.svc, "update_preferencias", payload, nil)
}
