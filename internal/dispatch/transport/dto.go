// Package transport defines the request/response DTOs for the dispatch API.
package transport

import "encoding/json"

// DispatchRequest is the inbound body for a full dispatch. Phone is the only
// required field and the dedup key for every downstream entity.
type DispatchRequest struct {
	Name        string `json:"name" validate:"omitempty,max=100"`
	Phone       string `json:"phone" validate:"required,min=5,max=20"`
	ProductLine string `json:"product_line" validate:"omitempty,max=100"`
	Email       string `json:"email" validate:"omitempty,email"`
	Message     string `json:"message" validate:"omitempty,max=2000"`
	SourceURL   string `json:"source_url" validate:"omitempty,max=500"`
	UTMSource   string `json:"utm_source" validate:"omitempty,max=200"`
	UTMMedium   string `json:"utm_medium" validate:"omitempty,max=200"`
	UTMCampaign string `json:"utm_campaign" validate:"omitempty,max=200"`
}

// DispatchResponse reports every entity actually created or found. Optional
// stages surface their failure as CallError on an otherwise successful
// response, so callers can distinguish "CRM state created" from "voice call
// placed".
type DispatchResponse struct {
	Success    bool            `json:"success"`
	LeadID     string          `json:"leadId"`
	TaskID     string          `json:"taskId"`
	CallID     string          `json:"callId,omitempty"`
	CallResult json.RawMessage `json:"callResult,omitempty"`
	CallError  string          `json:"callError,omitempty"`
}

// CallNowRequest triggers only the voice provider, bypassing the CRM.
type CallNowRequest struct {
	Name  string `json:"name" validate:"omitempty,max=100"`
	Phone string `json:"phone" validate:"required,min=5,max=20"`
}

// CallNowResponse carries the provider's raw call handle.
type CallNowResponse struct {
	Success    bool            `json:"success"`
	CallResult json.RawMessage `json:"callResult,omitempty"`
}

// IncomingCallRequest is the webhook body posted by the inbound call
// provider.
type IncomingCallRequest struct {
	CallerNumber string `json:"callerNumber" validate:"required,min=5,max=20"`
}

// IncomingCallResponse reports the lead and task created for an inbound
// call.
type IncomingCallResponse struct {
	Success bool   `json:"success"`
	LeadID  string `json:"leadId"`
	TaskID  string `json:"taskId"`
}
