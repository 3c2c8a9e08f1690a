package handler

import (
	"net/http"
	"strings"

	"prestalab/portal/internal/service"
	"prestalab/portal/internal/service/gateway"
	"prestalab/portal/internal/session"
)

func (h *Handler) Fines(w http.ResponseWriter, r *http.Request) {
	id, _ := session.FromContext(r.Context())
	var banner *Banner
	fines, err := h.svc.Fines.Fines(r.Context(), id.UserID())
	if err != nil {
		var ok bool
		if banner, ok = h.failure(w, r, err); !ok {
			return
		}
	}
	h.render(w, r, "fines.html", page{
		Title:  "Mis multas",
		Active: "fines",
		Banner: banner,
		Data: map[string]any{
			"Fines":       fines,
			"Outstanding": service.Outstanding(fines),
		},
	})
}

func (h *Handler) Notifications(w http.ResponseWriter, r *http.Request) {
	id, _ := session.FromContext(r.Context())
	var banner *Banner
	list, err := h.svc.Notifications.Notifications(r.Context(), id.UserID())
	if err != nil {
		if gateway.IsUnauthorized(err) {
			h.forceLogout(w, r)
			return
		}
		banner = infoBanner("El servicio de notificaciones no está disponible por ahora.")
	}
	h.render(w, r, "notifications.html", page{
		Title:  "Notificaciones",
		Active: "notifications",
		Banner: banner,
		Data:   map[string]any{"Notifications": list},
	})
}

func (h *Handler) Profile(w http.ResponseWriter, r *http.Request) {
	h.profilePage(w, r, nil)
}

func (h *Handler) profilePage(w http.ResponseWriter, r *http.Request, banner *Banner) {
	id, _ := session.FromContext(r.Context())
	profile, err := h.svc.Profile.Load(r.Context(), id.UserID())
	if err != nil {
		var ok bool
		if banner, ok = h.failure(w, r, err); !ok {
			return
		}
		profile = &service.Profile{User: id.User, Preference: id.User.PreferenciasNotificacion}
	}
	h.render(w, r, "profile.html", page{Title: "Mi perfil", Active: "profile", Banner: banner, Data: profile})
}

func (h *Handler) SaveProfile(w http.ResponseWriter, r *http.Request) {
	id, _ := session.FromContext(r.Context())
	update := service.ProfileUpdate{
		Nombre:   r.FormValue("nombre"),
		Telefono: r.FormValue("telefono"),
	}
	if r.FormValue("notificaciones") != "" {
		update.Preference = 1
	}
	if err := h.svc.Profile.Save(r.Context(), id.UserID(), update); err != nil {
		banner, ok := h.failure(w, r, err)
		if !ok {
			return
		}
		h.profilePage(w, r, banner)
		return
	}

	user := id.User
	user.Nombre = strings.TrimSpace(update.Nombre)
	user.Telefono = strings.TrimSpace(update.Telefono)
	user.PreferenciasNotificacion = update.Preference
	if err := h.sessions.SetUser(w, r, user); err != nil {
		internalError(w, r, err)
		return
	}
	h.profilePage(w, r, okBanner("Perfil actualizado."))
}
