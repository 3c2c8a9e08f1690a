package handler

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"prestalab/portal/internal/model"
	"prestalab/portal/internal/service"
	"prestalab/portal/internal/session"
)

type reportsData struct {
	UserID  string
	Query   string
	History *service.HistoryPage

	Periodo     string
	Sede        string
	Sedes       []model.Sede
	Circulation *model.Circulation
}

func (h *Handler) Reports(w http.ResponseWriter, r *http.Request) {
	id, _ := session.FromContext(r.Context())
	q := r.URL.Query()

	data := reportsData{
		UserID:  strings.TrimSpace(q.Get("usuario_id")),
		Query:   strings.TrimSpace(q.Get("q")),
		Periodo: strings.TrimSpace(q.Get("periodo")),
		Sede:    strings.TrimSpace(q.Get("sede")),
		Sedes:   h.opts.Sedes,
	}
	if q.Get("mine") == "1" && id.UserID() > 0 {
		data.UserID = strconv.FormatInt(id.UserID(), 10)
	}
	if data.Periodo == "" {
		data.Periodo = service.CurrentPeriod(time.Now())
	}

	var banner *Banner
	if data.UserID != "" {
		userID, _ := strconv.ParseInt(data.UserID, 10, 64)
		rows, err := h.svc.Reports.History(r.Context(), userID)
		if err != nil {
			var ok bool
			if banner, ok = h.failure(w, r, err); !ok {
				return
			}
		} else {
			pageNum, _ := strconv.Atoi(q.Get("page"))
			hp := service.PageHistory(service.FilterHistory(rows, data.Query), pageNum)
			data.History = &hp
		}
	}

	if data.Sede != "" {
		sede, _ := strconv.ParseInt(data.Sede, 10, 64)
		c, err := h.svc.Reports.Circulation(r.Context(), data.Periodo, sede)
		if err != nil {
			var ok bool
			if banner, ok = h.failure(w, r, err); !ok {
				return
			}
		} else {
			data.Circulation = c
		}
	}

	h.render(w, r, "reports.html", page{Title: "Reportes", Active: "reports", Banner: banner, Data: data})
}

// HistoryCSV exports the (filtered) loan history of usuario_id.
func (h *Handler) HistoryCSV(w http.ResponseWriter, r *http.Request) {
	userID, _ := strconv.ParseInt(r.URL.Query().Get("usuario_id"), 10, 64)
	rows, err := h.svc.Reports.History(r.Context(), userID)
	if err != nil {
		var vErr *service.ValidationError
		if errors.As(err, &vErr) {
			http.Error(w, vErr.Message, http.StatusBadRequest)
			return
		}
		if _, ok := h.failure(w, r, err); !ok {
			return
		}
		http.Error(w, errorText(err), http.StatusBadGateway)
		return
	}
	rows = service.FilterHistory(rows, r.URL.Query().Get("q"))

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=historial_%d.csv", userID))
	if err := service.WriteHistoryCSV(w, rows); err != nil {
		slog.Error("csv_export_failed", "usuario_id", userID, "error", err.Error())
	}
}
