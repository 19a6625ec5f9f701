// Package transport defines the wire shapes of the Zoho CRM v2 REST API.
package transport

import "encoding/json"

// Per-record result codes embedded in 2xx envelopes. Zoho's bulk-style API
// returns HTTP 200/201 even for partial per-record failures; the per-record
// code is the real success marker.
const (
	CodeSuccess     = "SUCCESS"
	CodeInvalidData = "INVALID_DATA"

	// Token failure codes that appear in error bodies alongside HTTP 401.
	CodeInvalidToken = "INVALID_TOKEN"
	CodeAuthFailure  = "AUTHENTICATION_FAILURE"
)

// Record is a generic CRM record payload. Field API names are keys
// (Last_Name, Phone, Who_Id, ...).
type Record map[string]interface{}

// Envelope wraps record arrays for mutations: {"data":[...]}.
type Envelope struct {
	Data []Record `json:"data"`
}

// MutationDetails carries the record id on success, or the offending field
// API name on INVALID_DATA.
type MutationDetails struct {
	ID      string `json:"id"`
	APIName string `json:"api_name"`
}

// MutationResult is the per-record outcome of a create/update call.
type MutationResult struct {
	Code    string          `json:"code"`
	Message string          `json:"message"`
	Status  string          `json:"status"`
	Details MutationDetails `json:"details"`
}

// MutationResponse is the body of a mutation call.
type MutationResponse struct {
	Data []MutationResult `json:"data"`
}

// First returns the first per-record result, if any.
func (r *MutationResponse) First() (MutationResult, bool) {
	if len(r.Data) == 0 {
		return MutationResult{}, false
	}
	return r.Data[0], true
}

// SearchRecord is a record returned by a search query. Only the id is
// consumed; the raw form is kept for diagnostics.
type SearchRecord struct {
	ID string `json:"id"`
}

// SearchResponse is the body of a search call. An HTTP 204 maps to a nil
// Data slice.
type SearchResponse struct {
	Data []SearchRecord `json:"data"`
}

// APIError is the top-level error body Zoho returns for whole-request
// failures (as opposed to per-record ones).
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// DecodeMutation parses a raw 2xx body into a MutationResponse.
func DecodeMutation(raw json.RawMessage) (*MutationResponse, error) {
	var resp MutationResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// DecodeSearch parses a raw 2xx body into a SearchResponse. Empty bodies
// (204 responses) decode to an empty result set.
func DecodeSearch(raw json.RawMessage) (*SearchResponse, error) {
	if len(raw) == 0 {
		return &SearchResponse{}, nil
	}
	var resp SearchResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}
