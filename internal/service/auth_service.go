package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"prestalab/portal/internal/model"
)

// AuthService talks to the users/auth backend (regist).
type AuthService struct {
	gw  Caller
	svc string
}

func NewAuthService(gw Caller, svc string) *AuthService {
	return &AuthService{gw: gw, svc: svc}
}

// LoginResult is the backend answer to a login. Older deployments call the
// user record "usuario".
type LoginResult struct {
	Message string      `json:"message"`
	Token   string      `json:"token"`
	User    *model.User `json:"user"`
	Usuario *model.User `json:"usuario"`
}

// Account returns the user record sent with the token, if any.
func (r *LoginResult) Account() *model.User {
	if r.User != nil {
		return r.User
	}
	return r.Usuario
}

func (s *AuthService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	password = strings.TrimSpace(password)
	if email == "" || password == "" {
		return nil, invalid("Completa correo y contraseña.")
	}

	var res LoginResult
	payload := map[string]string{"correo": email, "password": password}
	if err := s.gw.Call(ctx, s.svc, "login", payload, &res); err != nil {
		return nil, err
	}
	if res.Token == "" {
		return nil, invalid("Respuesta de login inválida.")
	}
	return &res, nil
}

type Signup struct {
	Nombre   string
	Correo   string
	Tipo     string
	Telefono string
	Password string
}

// Register creates an account and returns its id (0 when the backend does not say).
func (s *AuthService) Register(ctx context.Context, in Signup) (int64, error) {
	email := strings.ToLower(strings.Join(strings.Fields(in.Correo), ""))
	name := strings.TrimSpace(in.Nombre)
	if name == "" || email == "" {
		return 0, invalid("Completa nombre y correo.")
	}
	password := strings.TrimSpace(in.Password)
	if password == "" {
		return 0, invalid("Debes establecer una contraseña.")
	}
	tipo := strings.TrimSpace(in.Tipo)
	if tipo == "" {
		tipo = "ESTUDIANTE"
	}

	payload := map[string]any{
		"nombre":                    name,
		"correo":                    email,
		"tipo":                      tipo,
		"telefono":                  strings.TrimSpace(in.Telefono),
		"estado":                    "ACTIVO",
		"preferencias_notificacion": 1,
		"password":                  password,
	}
	var res struct {
		ID   int64 `json:"id"`
		User *struct {
			ID int64 `json:"id"`
		} `json:"user"`
	}
	if err := s.gw.Call(ctx, s.svc, "register_user", payload, &res); err != nil {
		return 0, err
	}
	if res.User != nil && res.User.ID != 0 {
		return res.User.ID, nil
	}
	return res.ID, nil
}

func (s *AuthService) User(ctx context.Context, id int64) (*model.User, error) {
	var u model.User
	if err := s.gw.Call(ctx, s.svc, "get_user", map[string]int64{"id": id}, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

// UpdateUser applies datos, a partial user record, to user id.
func (s *AuthService) UpdateUser(ctx context.Context, id int64, datos map[string]any) error {
	payload := map[string]any{"id": id, "datos": datos}
	return s.gw.Call(ctx, s.svc, "update_user", payload, nil)
}

func (s *AuthService) Users(ctx context.Context) ([]model.User, error) {
	var raw json.RawMessage
	if err := s.gw.Call(ctx, s.svc, "list_users", nil, &raw); err != nil {
		return nil, err
	}
	users, err := listOf[model.User](raw, "usuarios", "users", "data")
	if err != nil {
		return nil, fmt.Errorf("list_users: %w", err)
	}
	return users, nil
}

// DecideSolicitud approves or rejects a pending request.
func (s *AuthService) DecideSolicitud(ctx context.Context, id int64, estado string) error {
	estado = strings.ToUpper(strings.TrimSpace(estado))
	if estado != model.EstadoAprobada && estado != model.EstadoRechazada {
		return invalid("Estado de solicitud no válido.")
	}
	payload := map[string]any{"solicitud_id": id, "estado": estado}
	return s.gw.Call(ctx, s.svc, "update_solicitud", payload, nil)
}
