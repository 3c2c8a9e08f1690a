package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"prestalab/portal/internal/model"
)

// FineService reads fines (multa).
type FineService struct {
	gw  Caller
	svc string
}

func NewFineService(gw Caller, svc string) *FineService {
	return &FineService{gw: gw, svc: svc}
}

func (s *FineService) Fines(ctx context.Context, userID int64) ([]model.Multa, error) {
	if userID <= 0 {
		return nil, invalid("No se pudo identificar tu usuario. Inicia sesión de nuevo.")
	}
	var raw json.RawMessage
	if err := s.gw.Call(ctx, s.svc, "get_multas_usuario", map[string]int64{"usuario_id": userID}, &raw); err != nil {
		return nil, err
	}
	fines, err := listOf[model.Multa](raw, "multas", "data")
	if err != nil {
		return nil, fmt.Errorf("get_multas_usuario: %w", err)
	}
	return fines, nil
}

// Outstanding sums the fines not yet paid.
func Outstanding(fines []model.Multa) float64 {
	var total float64
	for _, f := range fines {
		if strings.EqualFold(strings.TrimSpace(f.Estado), "PAGADA") {
			continue
		}
		total += f.Valor
	}
	return total
}
