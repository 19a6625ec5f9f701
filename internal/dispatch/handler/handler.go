// Package handler exposes the dispatch workflow over HTTP.
package handler

import (
	"net/http"

	"crm_dispatch_backend/internal/dispatch/service"
	"crm_dispatch_backend/internal/dispatch/transport"
	zoho "crm_dispatch_backend/internal/zoho/service"
	"crm_dispatch_backend/platform/httpkit"
	"crm_dispatch_backend/platform/validator"

	"github.com/gin-gonic/gin"
)

const (
	errMsgInvalidBody   = "invalid request body"
	errMsgPhoneRequired = "phone number is required"
)

// Handler handles dispatch HTTP requests.
type Handler struct {
	service *service.Service
	val     *validator.Validator
}

// New creates a new dispatch handler.
func New(svc *service.Service, val *validator.Validator) *Handler {
	return &Handler{service: svc, val: val}
}

// RegisterRoutes mounts the dispatch endpoints.
// The webhook route lives at the root to match the inbound provider's
// configured callback URL; the rest sit under /api.
func (h *Handler) RegisterRoutes(engine *gin.Engine, api *gin.RouterGroup) {
	api.POST("/dispatch-call", h.HandleDispatch)
	api.POST("/call-now", h.HandleCallNow)
	engine.POST("/incoming-call", h.HandleIncomingCall)
}

// HandleDispatch runs the full workflow for a website inquiry.
// POST /api/dispatch-call
func (h *Handler) HandleDispatch(c *gin.Context) {
	var req transport.DispatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, errMsgInvalidBody, nil)
		return
	}
	if req.Phone == "" {
		httpkit.Error(c, http.StatusBadRequest, errMsgPhoneRequired, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, err.Error(), nil)
		return
	}

	resp, err := h.service.Dispatch(c.Request.Context(), req, zoho.SourceWebsite)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, resp)
}

// HandleCallNow triggers only the voice provider.
// POST /api/call-now
func (h *Handler) HandleCallNow(c *gin.Context) {
	var req transport.CallNowRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, errMsgInvalidBody, nil)
		return
	}
	if req.Phone == "" {
		httpkit.Error(c, http.StatusBadRequest, errMsgPhoneRequired, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, err.Error(), nil)
		return
	}

	resp, err := h.service.CallNow(c.Request.Context(), req)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, resp)
}

// HandleIncomingCall processes inbound-call-provider webhooks.
// POST /incoming-call
func (h *Handler) HandleIncomingCall(c *gin.Context) {
	var req transport.IncomingCallRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, errMsgInvalidBody, nil)
		return
	}
	if req.CallerNumber == "" {
		httpkit.Error(c, http.StatusBadRequest, errMsgPhoneRequired, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, err.Error(), nil)
		return
	}

	resp, err := h.service.IncomingCall(c.Request.Context(), req)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, resp)
}
