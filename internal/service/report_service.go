package service

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"prestalab/portal/internal/model"
)

const HistoryPageSize = 20

// ReportService covers loan history and circulation reports (gerep).
type ReportService struct {
	gw  Caller
	svc string
}

func NewReportService(gw Caller, svc string) *ReportService {
	return &ReportService{gw: gw, svc: svc}
}

func (s *ReportService) History(ctx context.Context, userID int64) ([]model.HistoryEntry, error) {
	if userID <= 0 {
		return nil, invalid("Ingresa un ID de usuario válido.")
	}
	var raw json.RawMessage
	if err := s.gw.Call(ctx, s.svc, "get_historial", map[string]int64{"usuario_id": userID}, &raw); err != nil {
		return nil, err
	}
	rows, err := listOf[model.HistoryEntry](raw, "historial", "data")
	if err != nil {
		return nil, fmt.Errorf("get_historial: %w", err)
	}
	return rows, nil
}

// FilterHistory keeps rows whose item, type or state contain term.
func FilterHistory(rows []model.HistoryEntry, term string) []model.HistoryEntry {
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" {
		return rows
	}
	var out []model.HistoryEntry
	for _, r := range rows {
		hay := strings.ToLower(r.Item + " " + r.Tipo + " " + r.Estado)
		if strings.Contains(hay, term) {
			out = append(out, r)
		}
	}
	return out
}

// HistoryPage is one page of history rows; pages start at 1.
type HistoryPage struct {
	Rows  []model.HistoryEntry
	Page  int
	Pages int
	Total int
}

func PageHistory(rows []model.HistoryEntry, page int) HistoryPage {
	pages := max(1, (len(rows)+HistoryPageSize-1)/HistoryPageSize)
	page = min(max(page, 1), pages)
	start := (page - 1) * HistoryPageSize
	end := min(start+HistoryPageSize, len(rows))
	return HistoryPage{Rows: rows[start:end], Page: page, Pages: pages, Total: len(rows)}
}

var historyHeader = []string{"prestamo_id", "fecha_prestamo", "fecha_devolucion", "estado", "item", "tipo"}

// WriteHistoryCSV writes rows with a header line.
func WriteHistoryCSV(w io.Writer, rows []model.HistoryEntry) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(historyHeader); err != nil {
		return fmt.Errorf("failed to write csv header: %w", err)
	}
	for _, r := range rows {
		rec := []string{
			strconv.FormatInt(r.PrestamoID, 10),
			r.FechaPrestamo,
			r.FechaDevolucion,
			r.Estado,
			r.Item,
			r.Tipo,
		}
		if err := cw.Write(rec); err != nil {
			return fmt.Errorf("failed to write csv row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// CurrentPeriod returns the YYYY-MM period containing t.
func CurrentPeriod(t time.Time) string {
	return t.Format("2006-01")
}

func (s *ReportService) Circulation(ctx context.Context, periodo string, sede int64) (*model.Circulation, error) {
	periodo = strings.TrimSpace(periodo)
	if _, err := time.Parse("2006-01", periodo); err != nil {
		return nil, invalid("El periodo debe tener formato AAAA-MM.")
	}
	if sede <= 0 {
		return nil, invalid("Selecciona una sede.")
	}
	var c model.Circulation
	payload := map[string]any{"periodo": periodo, "sede": sede}
	if err := s.gw.Call(ctx, s.svc, "get_circulacion", payload, &c); err != nil {
		return nil, err
	}
	return &c, nil
}
