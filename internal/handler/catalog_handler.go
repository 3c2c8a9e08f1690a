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

type catalogData struct {
	Query string
	Tipo  string
	Types []string
	Items []model.Item
}

func (h *Handler) Catalog(w http.ResponseWriter, r *http.Request) {
	h.catalogPage(w, r, nil)
}

func (h *Handler) catalogPage(w http.ResponseWriter, r *http.Request, banner *Banner) {
	data := catalogData{
		Query: strings.TrimSpace(r.FormValue("q")),
		Tipo:  strings.TrimSpace(r.FormValue("tipo")),
	}

	items, err := h.svc.Catalog.Items(r.Context(), data.Query, data.Tipo)
	if err != nil {
		var ok bool
		if banner, ok = h.failure(w, r, err); !ok {
			return
		}
	} else {
		data.Items = items
		data.Types = service.ItemTypes(items)
		// the type filter lists every type, not only the matching ones
		if all, err := h.svc.Catalog.CachedItems(r.Context(), false); err == nil {
			data.Types = service.ItemTypes(all)
		}
	}

	h.render(w, r, "catalog.html", page{Title: "Catálogo", Active: "catalog", Banner: banner, Data: data})
}

func (h *Handler) RequestItem(w http.ResponseWriter, r *http.Request) {
	id, _ := session.FromContext(r.Context())
	msg, err := h.svc.Catalog.RequestItem(r.Context(), id.User, service.ItemRequest{
		ItemID: formInt(r, "item_id"),
		Kind:   r.FormValue("kind"),
		Inicio: r.FormValue("inicio"),
		Fin:    r.FormValue("fin"),
	})
	if err != nil {
		banner, ok := h.failure(w, r, err)
		if !ok {
			return
		}
		h.catalogPage(w, r, banner)
		return
	}
	h.catalogPage(w, r, okBanner(msg))
}

func (h *Handler) Requests(w http.ResponseWriter, r *http.Request) {
	h.requestsPage(w, r, nil)
}

func (h *Handler) requestsPage(w http.ResponseWriter, r *http.Request, banner *Banner) {
	id, _ := session.FromContext(r.Context())
	list, err := h.svc.Catalog.Solicitudes(r.Context(), id.Email())
	if err != nil {
		var ok bool
		if banner, ok = h.failure(w, r, err); !ok {
			return
		}
	}
	h.render(w, r, "requests.html", page{
		Title:  "Mis solicitudes",
		Active: "requests",
		Banner: banner,
		Data:   map[string]any{"Solicitudes": list},
	})
}

func (h *Handler) DecideRequest(w http.ResponseWriter, r *http.Request) {
	id, _ := session.FromContext(r.Context())
	if !id.Admin {
		http.Redirect(w, r, "/requests", http.StatusSeeOther)
		return
	}
	solID, _ := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err := h.svc.Admin.DecideSolicitud(r.Context(), solID, r.FormValue("estado")); err != nil {
		banner, ok := h.failure(w, r, err)
		if !ok {
			return
		}
		h.requestsPage(w, r, banner)
		return
	}
	h.requestsPage(w, r, okBanner("Solicitud actualizada."))
}

func (h *Handler) Loans(w http.ResponseWriter, r *http.Request) {
	h.loansPage(w, r, nil)
}

func (h *Handler) loansPage(w http.ResponseWriter, r *http.Request, banner *Banner) {
	id, _ := session.FromContext(r.Context())
	loans, err := h.svc.Catalog.Loans(r.Context(), id.Email())
	if err != nil {
		var ok bool
		if banner, ok = h.failure(w, r, err); !ok {
			return
		}
	}
	h.render(w, r, "loans.html", page{
		Title:  "Mis préstamos",
		Active: "loans",
		Banner: banner,
		Data:   map[string]any{"Loans": loans},
	})
}

// LoanAction cancels a pending loan or renews or returns an approved one.
func (h *Handler) LoanAction(w http.ResponseWriter, r *http.Request) {
	loanID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || loanID <= 0 {
		h.loansPage(w, r, errBanner("Préstamo inválido."))
		return
	}

	var msg string
	switch chi.URLParam(r, "action") {
	case "cancel":
		// pending loans are withdrawn through their reservation
		err = h.svc.Catalog.CancelReserva(r.Context(), loanID)
		msg = "Solicitud cancelada."
	case "renew":
		err = h.svc.Catalog.RenewLoan(r.Context(), loanID)
		msg = "Préstamo renovado."
	case "return":
		err = h.svc.Catalog.ReturnLoan(r.Context(), loanID, r.FormValue("comentario"))
		msg = "Devolución registrada."
	default:
		http.NotFound(w, r)
		return
	}
	if err != nil {
		banner, ok := h.failure(w, r, err)
		if !ok {
			return
		}
		h.loansPage(w, r, banner)
		return
	}
	h.loansPage(w, r, okBanner(msg))
}
