package handler

import (
	"log/slog"
	"net/http"
	"strings"

	"prestalab/portal/internal/service"
	"prestalab/portal/internal/service/gateway"
	"prestalab/portal/internal/session"
)

type loginForm struct {
	Email string
}

func (h *Handler) LoginPage(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.sessions.Identity(r); ok {
		http.Redirect(w, r, "/dashboard", http.StatusFound)
		return
	}
	var banner *Banner
	if r.URL.Query().Get("registered") == "1" {
		banner = okBanner("Cuenta creada. Ya puedes iniciar sesión.")
	}
	h.render(w, r, "login.html", page{Title: "Iniciar sesión", Banner: banner, Data: loginForm{}})
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	email := r.FormValue("correo")
	id, err := h.sessions.Login(w, r, email, r.FormValue("password"))
	if err != nil {
		slog.Info("login_failed", "status", gateway.Status(err))
		h.renderStatus(w, r, http.StatusUnauthorized, "login.html", page{
			Title:  "Iniciar sesión",
			Banner: errBanner(session.LoginMessage(err)),
			Data:   loginForm{Email: email},
		})
		return
	}
	slog.Info("login", "user_id", id.UserID(), "admin", id.Admin)
	http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
}

func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	h.forceLogout(w, r)
}

type signupForm struct {
	Nombre   string
	Correo   string
	Tipo     string
	Telefono string
}

var signupTypes = []string{"ESTUDIANTE", "DOCENTE", "FUNCIONARIO"}

func (h *Handler) SignupPage(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.sessions.Identity(r); ok {
		http.Redirect(w, r, "/dashboard", http.StatusFound)
		return
	}
	h.renderSignup(w, r, http.StatusOK, nil, signupForm{Tipo: signupTypes[0]})
}

func (h *Handler) renderSignup(w http.ResponseWriter, r *http.Request, status int, banner *Banner, form signupForm) {
	h.renderStatus(w, r, status, "signup.html", page{
		Title:  "Crear cuenta",
		Banner: banner,
		Data: map[string]any{
			"Form":  form,
			"Types": signupTypes,
		},
	})
}

func (h *Handler) Signup(w http.ResponseWriter, r *http.Request) {
	form := signupForm{
		Nombre:   r.FormValue("nombre"),
		Correo:   r.FormValue("correo"),
		Tipo:     r.FormValue("tipo"),
		Telefono: r.FormValue("telefono"),
	}
	_, err := h.svc.Auth.Register(r.Context(), service.Signup{
		Nombre:   form.Nombre,
		Correo:   form.Correo,
		Tipo:     form.Tipo,
		Telefono: form.Telefono,
		Password: r.FormValue("password"),
	})
	if err != nil {
		text := errorText(err)
		if gateway.Status(err) == http.StatusConflict {
			text = "Ese correo ya está registrado."
		}
		h.renderSignup(w, r, http.StatusBadRequest, errBanner(text), form)
		return
	}
	http.Redirect(w, r, "/login?registered=1", http.StatusSeeOther)
}

type dashboardLink struct {
	Href  string
	Label string
	Admin bool
}

var dashboardLinks = []dashboardLink{
	{"/catalog", "Catálogo", false},
	{"/requests", "Mis solicitudes", false},
	{"/loans", "Mis préstamos", false},
	{"/waitlist", "Listas de espera", false},
	{"/fines", "Mis multas", false},
	{"/notifications", "Notificaciones", false},
	{"/profile", "Mi perfil", false},
	{"/suggestions", "Sugerencias", false},
	{"/reports", "Reportes", false},
	{"/admin", "Administración", true},
}

func (h *Handler) Dashboard(w http.ResponseWriter, r *http.Request) {
	id, _ := session.FromContext(r.Context())
	var links []dashboardLink
	for _, l := range dashboardLinks {
		if !l.Admin || id.Admin {
			links = append(links, l)
		}
	}
	name := strings.TrimSpace(id.User.Nombre)
	if name == "" {
		name = id.Email()
	}
	h.render(w, r, "dashboard.html", page{
		Title:  "Inicio",
		Active: "dashboard",
		Data:   map[string]any{"Name": name, "Links": links},
	})
}
