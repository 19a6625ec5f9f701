// Package zoho provides the Zoho CRM bounded context module.
// This file defines the module that encapsulates token cache, signed client
// and workflow service setup.
package zoho

import (
	"crm_dispatch_backend/internal/zoho/client"
	"crm_dispatch_backend/internal/zoho/service"
	"crm_dispatch_backend/internal/zoho/token"
	"crm_dispatch_backend/platform/config"
	"crm_dispatch_backend/platform/logger"
)

// Config combines the config interfaces the CRM module needs.
type Config interface {
	config.ZohoConfig
	config.DispatchConfig
}

// Module is the Zoho CRM bounded context module.
type Module struct {
	tokens  *token.Cache
	client  *client.Client
	service *service.Service
}

// NewModule creates and initializes the Zoho CRM module.
func NewModule(cfg Config, log *logger.Logger) *Module {
	tokens := token.New(cfg, log)
	crmClient := client.New(cfg, tokens, log)
	svc := service.New(crmClient, cfg, log)

	log.Info("zoho crm module initialized", "api_base", cfg.GetZohoAPIBaseURL())

	return &Module{
		tokens:  tokens,
		client:  crmClient,
		service: svc,
	}
}

// Service returns the CRM workflow service.
func (m *Module) Service() *service.Service {
	return m.service
}
