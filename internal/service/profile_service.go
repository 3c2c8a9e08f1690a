package service

import (
	"context"
	"strings"

	"prestalab/portal/internal/model"
	"prestalab/portal/internal/service/gateway"

	"golang.org/x/sync/errgroup"
)

type ProfileService struct {
	auth  *AuthService
	notis *NotificationService
}

func NewProfileService(auth *AuthService, notis *NotificationService) *ProfileService {
	return &ProfileService{auth: auth, notis: notis}
}

type Profile struct {
	User       model.User
	Preference int
}

// Load fetches the user record and the notification preference concurrently.
// When only the preference cannot be read, the value on the user record is used.
func (s *ProfileService) Load(ctx context.Context, userID int64) (*Profile, error) {
	if userID <= 0 {
		return nil, invalid("No se pudo identificar tu usuario. Inicia sesión de nuevo.")
	}

	var (
		user    *model.User
		pref    int
		prefErr error
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		u, err := s.auth.User(gctx, userID)
		if err != nil {
			return err
		}
		user = u
		return nil
	})
	g.Go(func() error {
		p, err := s.notis.Preference(gctx, userID)
		if gateway.IsUnauthorized(err) {
			return err
		}
		pref, prefErr = p, err
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if prefErr != nil {
		pref = user.PreferenciasNotificacion
	}
	return &Profile{User: *user, Preference: pref}, nil
}

type ProfileUpdate struct {
	Nombre     string
	Telefono   string
	Preference int
}

// Save writes the editable profile fields and then the preference.
func (s *ProfileService) Save(ctx context.Context, userID int64, in ProfileUpdate) error {
	name := strings.TrimSpace(in.Nombre)
	if name == "" {
		return invalid("El nombre no puede estar vacío.")
	}
	datos := map[string]any{
		"nombre":   name,
		"telefono": strings.TrimSpace(in.Telefono),
	}
	if err := s.auth.UpdateUser(ctx, userID, datos); err != nil {
		return err
	}
	pref := 0
	if in.Preference > 0 {
		pref = 1
	}
	return s.notis.SetPreference(ctx, userID, pref)
}
