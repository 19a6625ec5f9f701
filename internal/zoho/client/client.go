// Package client provides the signed HTTP client for the Zoho CRM REST API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"crm_dispatch_backend/internal/zoho/token"
	"crm_dispatch_backend/internal/zoho/transport"
	"crm_dispatch_backend/platform/apperr"
	"crm_dispatch_backend/platform/config"
	"crm_dispatch_backend/platform/logger"
)

// authScheme is Zoho's non-standard authorization header prefix.
const authScheme = "Zoho-oauthtoken"

// Client signs requests with the cached credential and retries exactly once
// after a forced refresh when the credential is reported invalid. A second
// failure is surfaced as-is to avoid looping on a misconfigured credential.
type Client struct {
	baseURL string
	tokens  token.Source
	http    *http.Client
	log     *logger.Logger
}

// New creates a CRM client against the configured API base URL.
func New(cfg config.ZohoConfig, tokens token.Source, log *logger.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(cfg.GetZohoAPIBaseURL(), "/"),
		tokens:  tokens,
		http:    &http.Client{Timeout: 15 * time.Second},
		log:     log,
	}
}

// Do sends a signed request and returns the raw body on any 2xx status.
// path is relative to the API base URL and already encoded.
func (c *Client) Do(ctx context.Context, method, path string, payload interface{}) (json.RawMessage, error) {
	var encoded []byte
	if payload != nil {
		var err error
		encoded, err = json.Marshal(payload)
		if err != nil {
			return nil, apperr.Wrap(apperr.KindInternal, "encode zoho payload", err)
		}
	}

	status, body, err := c.send(ctx, method, path, encoded, false)
	if err != nil {
		return nil, err
	}

	if tokenRejected(status, body) {
		c.log.Warn("zoho credential rejected, refreshing", "status", status, "path", path)
		status, body, err = c.send(ctx, method, path, encoded, true)
		if err != nil {
			return nil, err
		}
	}

	if status >= 200 && status < 300 {
		return body, nil
	}

	return nil, apperr.Upstream(status, fmt.Sprintf("zoho api returned %d", status)).
		WithOp(method + " " + path).
		WithDetails(rawDetails(body))
}

func (c *Client) send(ctx context.Context, method, path string, encoded []byte, forceToken bool) (int, []byte, error) {
	accessToken, err := c.tokens.Token(ctx, forceToken)
	if err != nil {
		return 0, nil, err
	}

	var reader io.Reader
	if encoded != nil {
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return 0, nil, apperr.Wrap(apperr.KindInternal, "create zoho request", err)
	}

	req.Header.Set("Authorization", authScheme+" "+accessToken)
	if encoded != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		c.log.UpstreamError("zoho-crm", method+" "+path, err)
		return 0, nil, apperr.Wrap(apperr.KindUpstream, "zoho request failed", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	body, _ := io.ReadAll(resp.Body)
	return resp.StatusCode, body, nil
}

// tokenRejected reports whether the response signals an invalid or expired
// credential, either via HTTP 401 or an error code in the body.
func tokenRejected(status int, body []byte) bool {
	if status == http.StatusUnauthorized {
		return true
	}

	var apiErr transport.APIError
	if err := json.Unmarshal(body, &apiErr); err != nil {
		return false
	}
	return apiErr.Code == transport.CodeInvalidToken || apiErr.Code == transport.CodeAuthFailure
}

// rawDetails preserves the upstream body verbatim for caller inspection,
// falling back to a plain string when it is not JSON.
func rawDetails(body []byte) interface{} {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return nil
	}
	if json.Valid(trimmed) {
		return json.RawMessage(trimmed)
	}
	return string(trimmed)
}
