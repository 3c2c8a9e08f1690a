package service

import (
	"context"
	"strings"
	"time"

	"prestalab/portal/internal/model"
)

const usersCacheKey = "users"

// UserStates are the values an admin may set on an account.
var UserStates = []string{"ACTIVO", "BLOQUEADO", "SUSPENDIDO"}

// AdminService backs the admin console.
type AdminService struct {
	auth    *AuthService
	catalog *CatalogService
	users   *listCache[model.User]
}

func NewAdminService(auth *AuthService, catalog *CatalogService) *AdminService {
	return &AdminService{
		auth:    auth,
		catalog: catalog,
		users:   newListCache[model.User](5 * time.Minute),
	}
}

// Users returns the accounts matching term over name, email, type and state.
func (s *AdminService) Users(ctx context.Context, term string, refresh bool) ([]model.User, error) {
	all, ok := s.users.get(usersCacheKey)
	if refresh || !ok {
		list, err := s.auth.Users(ctx)
		if err != nil {
			return nil, err
		}
		s.users.set(usersCacheKey, list)
		all = list
	}

	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" {
		return all, nil
	}
	var out []model.User
	for _, u := range all {
		hay := strings.ToLower(strings.Join([]string{u.Nombre, u.Correo, u.Tipo, u.Estado}, " "))
		if strings.Contains(hay, term) {
			out = append(out, u)
		}
	}
	return out, nil
}

func (s *AdminService) SetUserStatus(ctx context.Context, id int64, estado string) error {
	estado = strings.ToUpper(strings.TrimSpace(estado))
	valid := false
	for _, st := range UserStates {
		if st == estado {
			valid = true
		}
	}
	if id <= 0 || !valid {
		return invalid("Estado de usuario no válido.")
	}
	if err := s.auth.UpdateUser(ctx, id, map[string]any{"estado": estado}); err != nil {
		return err
	}
	s.users.update(usersCacheKey, func(list []model.User) {
		for i := range list {
			if list[i].ID == id {
				list[i].Estado = estado
			}
		}
	})
	return nil
}

func (s *AdminService) PendingSolicitudes(ctx context.Context) ([]model.Solicitud, error) {
	return s.catalog.PendingSolicitudes(ctx)
}

func (s *AdminService) DecideSolicitud(ctx context.Context, id int64, estado string) error {
	return s.auth.DecideSolicitud(ctx, id, estado)
}
