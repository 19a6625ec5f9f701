// Package service implements the CRM-side workflow: lead resolution,
// follow-up task linking and call logging against Zoho CRM.
package service

import (
	"context"
	"encoding/json"
	"net/url"
	"time"

	"crm_dispatch_backend/platform/config"
	"crm_dispatch_backend/platform/logger"
)

// Caller is the consumer-side port over the signed CRM client. Tests
// substitute a fake CRM double.
type Caller interface {
	Do(ctx context.Context, method, path string, payload interface{}) (json.RawMessage, error)
}

// Service holds the CRM workflow operations.
type Service struct {
	crm              Caller
	log              *logger.Logger
	productLineField string
	dueHours         int
	now              func() time.Time
}

// New creates the CRM workflow service.
func New(crm Caller, cfg config.DispatchConfig, log *logger.Logger) *Service {
	return &Service{
		crm:              crm,
		log:              log,
		productLineField: cfg.GetProductLineField(),
		dueHours:         cfg.GetTaskDueHours(),
		now:              time.Now,
	}
}

// searchPath builds a module search path with an encoded criteria expression.
func searchPath(module, criteria string) string {
	return "/crm/v2/" + module + "/search?criteria=" + url.QueryEscape(criteria)
}
