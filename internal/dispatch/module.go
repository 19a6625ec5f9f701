// Package dispatch provides the dispatch bounded context module.
package dispatch

import (
	"crm_dispatch_backend/internal/dispatch/handler"
	"crm_dispatch_backend/internal/dispatch/service"
	apphttp "crm_dispatch_backend/internal/http"
	"crm_dispatch_backend/platform/logger"
	"crm_dispatch_backend/platform/validator"
)

// Module is the dispatch bounded context module.
type Module struct {
	service *service.Service
	handler *handler.Handler
}

// NewModule creates and wires the dispatch module.
func NewModule(crm service.CRM, voice service.CallTrigger, cfg service.Config, val *validator.Validator, log *logger.Logger) *Module {
	svc := service.New(crm, voice, cfg, log)
	return &Module{
		service: svc,
		handler: handler.New(svc, val),
	}
}

// Name returns the module identifier for logging purposes.
func (m *Module) Name() string { return "dispatch" }

// RegisterRoutes mounts the dispatch routes.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	m.handler.RegisterRoutes(ctx.Engine, ctx.API)
}

// Service returns the dispatch service for external use.
func (m *Module) Service() *service.Service {
	return m.service
}
