package handler

import (
	"net/http"
	"strconv"
	"strings"

	"prestalab/portal/internal/model"
	"prestalab/portal/internal/service"

	"github.com/go-chi/chi/v5"
)

type adminData struct {
	Tab         string
	Query       string
	Users       []model.User
	States      []string
	Solicitudes []model.Solicitud
}

func (h *Handler) Admin(w http.ResponseWriter, r *http.Request) {
	h.adminPage(w, r, nil)
}

func (h *Handler) adminPage(w http.ResponseWriter, r *http.Request, banner *Banner) {
	data := adminData{
		Tab:    "users",
		Query:  strings.TrimSpace(r.FormValue("q")),
		States: service.UserStates,
	}
	if r.FormValue("tab") == "requests" {
		data.Tab = "requests"
	}
	refresh := r.URL.Query().Get("refresh") == "1"

	var err error
	if data.Tab == "users" {
		data.Users, err = h.svc.Admin.Users(r.Context(), data.Query, refresh)
	} else {
		data.Solicitudes, err = h.svc.Admin.PendingSolicitudes(r.Context())
	}
	if err != nil {
		var ok bool
		if banner, ok = h.failure(w, r, err); !ok {
			return
		}
	}
	h.render(w, r, "admin.html", page{Title: "Administración", Active: "admin", Banner: banner, Data: data})
}

func (h *Handler) SetUserStatus(w http.ResponseWriter, r *http.Request) {
	userID, _ := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err := h.svc.Admin.SetUserStatus(r.Context(), userID, r.FormValue("estado")); err != nil {
		banner, ok := h.failure(w, r, err)
		if !ok {
			return
		}
		h.adminPage(w, r, banner)
		return
	}
	h.adminPage(w, r, okBanner("Estado de usuario actualizado."))
}

func (h *Handler) AdminDecideRequest(w http.ResponseWriter, r *http.Request) {
	solID, _ := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err := h.svc.Admin.DecideSolicitud(r.Context(), solID, r.FormValue("estado")); err != nil {
		banner, ok := h.failure(w, r, err)
		if !ok {
			return
		}
		h.adminPage(w, r, banner)
		return
	}
	h.adminPage(w, r, okBanner("Solicitud actualizada."))
}
