package handler

import (
	"net/http"
	"strconv"
	"strings"

	"prestalab/portal/internal/model"
	"prestalab/portal/internal/service"
	"prestalab/portal/internal/session"

	"github.com/go-chi/chi/v5"
)

type suggestionForm struct {
	Title  string
	Detail string
}

type suggestionsData struct {
	Tab       string
	Query     string
	Status    string
	Statuses  []string
	Form      suggestionForm
	MaxDetail int
	List      []model.Sugerencia
}

var suggestionStatuses = []string{model.EstadoPendiente, model.EstadoAprobada, model.EstadoRechazada}

func (h *Handler) Suggestions(w http.ResponseWriter, r *http.Request) {
	h.suggestionsPage(w, r, nil, suggestionForm{})
}

func (h *Handler) suggestionsPage(w http.ResponseWriter, r *http.Request, banner *Banner, form suggestionForm) {
	id, _ := session.FromContext(r.Context())
	data := suggestionsData{
		Tab:       "mine",
		Query:     strings.TrimSpace(r.FormValue("q")),
		Status:    strings.ToUpper(strings.TrimSpace(r.FormValue("estado"))),
		Statuses:  suggestionStatuses,
		Form:      form,
		MaxDetail: service.MaxSuggestionDetail,
	}
	if id.Admin && r.FormValue("tab") == "all" {
		data.Tab = "all"
	}
	refresh := r.URL.Query().Get("refresh") == "1"

	var (
		list []model.Sugerencia
		err  error
	)
	if data.Tab == "all" {
		list, err = h.svc.Suggestions.All(r.Context(), refresh)
	} else {
		list, err = h.svc.Suggestions.Mine(r.Context(), id.User, refresh)
	}
	if err != nil {
		var ok bool
		if banner, ok = h.failure(w, r, err); !ok {
			return
		}
	}
	data.List = service.FilterSuggestions(list, data.Query, data.Status)

	h.render(w, r, "suggestions.html", page{Title: "Sugerencias", Active: "suggestions", Banner: banner, Data: data})
}

func (h *Handler) SubmitSuggestion(w http.ResponseWriter, r *http.Request) {
	id, _ := session.FromContext(r.Context())
	form := suggestionForm{Title: r.FormValue("titulo"), Detail: r.FormValue("detalle")}

	if _, err := h.svc.Suggestions.Submit(r.Context(), id.User, form.Title, form.Detail); err != nil {
		banner, ok := h.failure(w, r, err)
		if !ok {
			return
		}
		h.suggestionsPage(w, r, banner, form)
		return
	}
	h.suggestionsPage(w, r, okBanner("¡Gracias! Tu sugerencia fue enviada."), suggestionForm{})
}

func (h *Handler) DecideSuggestion(w http.ResponseWriter, r *http.Request) {
	id, _ := session.FromContext(r.Context())
	if !id.Admin {
		http.Redirect(w, r, "/suggestions", http.StatusSeeOther)
		return
	}
	sgID, _ := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)

	var err error
	switch chi.URLParam(r, "decision") {
	case "approve":
		err = h.svc.Suggestions.Approve(r.Context(), sgID)
	case "reject":
		err = h.svc.Suggestions.Reject(r.Context(), sgID)
	default:
		http.NotFound(w, r)
		return
	}
	if err != nil {
		banner, ok := h.failure(w, r, err)
		if !ok {
			return
		}
		h.suggestionsPage(w, r, banner, suggestionForm{})
		return
	}
	h.suggestionsPage(w, r, okBanner("Sugerencia actualizada."), suggestionForm{})
}
