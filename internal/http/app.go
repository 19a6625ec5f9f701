// Package http provides HTTP server infrastructure including module registration.
package http

import (
	"crm_dispatch_backend/platform/config"
	"crm_dispatch_backend/platform/logger"
)

// App holds the fully initialized application dependencies.
// This is populated by main.go (the composition root) and passed to the router.
type App struct {
	// Config holds the HTTP server configuration.
	Config config.HTTPConfig
	// Logger is the structured logger.
	Logger *logger.Logger
	// Modules contains all HTTP-facing domain modules.
	Modules []Module
}
