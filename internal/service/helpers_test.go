package service

import (
	"testing"

	"prestalab/portal/internal/model"
	"prestalab/portal/internal/service/gateway"
	"prestalab/portal/internal/service/gateway/gatewaytest"
)

var ana = model.User{ID: 5, Nombre: "Ana", Correo: "Ana@Lab.cl", Tipo: "ESTUDIANTE"}

func newGateway(t *testing.T) (*gatewaytest.Server, *gateway.Client) {
	t.Helper()
	srv := gatewaytest.New(t)
	return srv, gateway.NewClient(gateway.Config{URL: srv.URL})
}
