package model

import "strings"

type User struct {
	ID                       int64  `json:"id"`
	Nombre                   string `json:"nombre"`
	Correo                   string `json:"correo"`
	Tipo                     string `json:"tipo,omitempty"`
	Telefono                 string `json:"telefono,omitempty"`
	Estado                   string `json:"estado,omitempty"`
	PreferenciasNotificacion int    `json:"preferencias_notificacion,omitempty"`
}

// Email returns the normalised address used to match records against the session.
func (u User) Email() string {
	return strings.ToLower(strings.TrimSpace(u.Correo))
}

type Item struct {
	ID           int64   `json:"id"`
	Nombre       string  `json:"nombre"`
	Tipo         string  `json:"tipo"`
	Descripcion  string  `json:"descripcion"`
	Cantidad     *int    `json:"cantidad"`
	CantidadMax  *int    `json:"cantidad_max"`
	Valor        float64 `json:"valor"`
	TarifaAtraso float64 `json:"tarifa_atraso"`
	Marca        string  `json:"marca"`
	Modelo       string  `json:"modelo"`
	Categoria    string  `json:"categoria"`
}

type Sede struct {
	ID     string `json:"id" yaml:"id"`
	Nombre string `json:"nombre" yaml:"nombre"`
}
