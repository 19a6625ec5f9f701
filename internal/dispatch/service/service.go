// Package service orchestrates the dispatch workflow:
// validate → resolve lead → link task → log call → trigger call → respond.
package service

import (
	"context"
	"encoding/json"

	"crm_dispatch_backend/internal/dispatch/transport"
	zoho "crm_dispatch_backend/internal/zoho/service"
	"crm_dispatch_backend/platform/apperr"
	"crm_dispatch_backend/platform/config"
	"crm_dispatch_backend/platform/logger"
	"crm_dispatch_backend/platform/phone"
)

// CRM is the port over the Zoho workflow service.
type CRM interface {
	FindOrCreateLead(ctx context.Context, in zoho.LeadInput) (string, error)
	EnsureFollowUpTask(ctx context.Context, leadID, phoneNumber string) (string, error)
	LogCall(ctx context.Context, leadID, phoneNumber string) (string, error)
}

// CallTrigger is the port over the voice-agent provider.
type CallTrigger interface {
	StartCall(ctx context.Context, toNumber, leadID, taskID, name string) (json.RawMessage, error)
}

// Service runs the dispatch workflow. The CRM side effects are the primary
// contract; call logging and voice triggering are best-effort.
type Service struct {
	crm          CRM
	voice        CallTrigger
	log          *logger.Logger
	region       string
	callOnCreate bool
	voiceEnabled bool
}

// Config combines the config interfaces the dispatch service needs.
type Config interface {
	config.DispatchConfig
	config.VoiceConfig
}

// New creates the dispatch service.
func New(crm CRM, voice CallTrigger, cfg Config, log *logger.Logger) *Service {
	return &Service{
		crm:          crm,
		voice:        voice,
		log:          log,
		region:       cfg.GetDefaultPhoneRegion(),
		callOnCreate: cfg.GetCallOnCreate(),
		voiceEnabled: cfg.IsVoiceEnabled(),
	}
}

// Dispatch runs the full workflow for an inbound request on the given
// channel (Lead_Source value).
func (s *Service) Dispatch(ctx context.Context, req transport.DispatchRequest, channel string) (*transport.DispatchResponse, error) {
	normalized := phone.NormalizeE164(req.Phone, s.region)

	leadID, err := s.crm.FindOrCreateLead(ctx, zoho.LeadInput{
		Name:        req.Name,
		Phone:       normalized,
		ProductLine: req.ProductLine,
		Email:       req.Email,
		Message:     req.Message,
		SourceURL:   req.SourceURL,
		UTMSource:   req.UTMSource,
		UTMMedium:   req.UTMMedium,
		UTMCampaign: req.UTMCampaign,
		Source:      channel,
	})
	if err != nil {
		return nil, err
	}

	taskID, err := s.crm.EnsureFollowUpTask(ctx, leadID, normalized)
	if err != nil {
		return nil, err
	}

	resp := &transport.DispatchResponse{
		Success: true,
		LeadID:  leadID,
		TaskID:  taskID,
	}

	// Optional stages below never fail the request.
	if callID, err := s.crm.LogCall(ctx, leadID, normalized); err != nil {
		s.log.WithContext(ctx).Warn("call log creation failed", "error", err, "lead_id", leadID)
	} else {
		resp.CallID = callID
	}

	if s.callOnCreate {
		result, err := s.voice.StartCall(ctx, normalized, leadID, taskID, req.Name)
		if err != nil {
			s.log.WithContext(ctx).Warn("outbound call trigger failed", "error", err, "lead_id", leadID)
			resp.CallError = err.Error()
		} else {
			resp.CallResult = result
		}
	}

	return resp, nil
}

// CallNow triggers only the voice provider, bypassing the CRM entirely.
func (s *Service) CallNow(ctx context.Context, req transport.CallNowRequest) (*transport.CallNowResponse, error) {
	if !s.voiceEnabled {
		return nil, apperr.BadRequest("voice provider is not configured")
	}

	normalized := phone.NormalizeE164(req.Phone, s.region)

	result, err := s.voice.StartCall(ctx, normalized, "", "", req.Name)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindUpstream, "outbound call trigger failed", err).
			WithDetails(err.Error())
	}

	return &transport.CallNowResponse{Success: true, CallResult: result}, nil
}

// IncomingCall handles inbound-call-provider webhooks: lead and task
// creation only, tagged with the incoming-call channel.
func (s *Service) IncomingCall(ctx context.Context, req transport.IncomingCallRequest) (*transport.IncomingCallResponse, error) {
	normalized := phone.NormalizeE164(req.CallerNumber, s.region)

	leadID, err := s.crm.FindOrCreateLead(ctx, zoho.LeadInput{
		Phone:  normalized,
		Source: zoho.SourceIncomingCall,
	})
	if err != nil {
		return nil, err
	}

	taskID, err := s.crm.EnsureFollowUpTask(ctx, leadID, normalized)
	if err != nil {
		return nil, err
	}

	return &transport.IncomingCallResponse{Success: true, LeadID: leadID, TaskID: taskID}, nil
}
