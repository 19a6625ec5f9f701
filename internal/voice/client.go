// Package voice provides the client for the outbound voice-agent provider.
package voice

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"crm_dispatch_backend/platform/config"
	"crm_dispatch_backend/platform/logger"
)

// Client triggers outbound agent calls. A nil client (provider not
// configured) is a usable no-op so the CRM workflow runs without it.
type Client struct {
	baseURL  string
	callPath string
	apiKey   string
	agentID  string
	http     *http.Client
	log      *logger.Logger
}

type callRequest struct {
	AgentID  string       `json:"agent_id"`
	To       string       `json:"to"`
	Metadata callMetadata `json:"metadata"`
}

type callMetadata struct {
	LeadID string `json:"lead_id,omitempty"`
	TaskID string `json:"task_id,omitempty"`
	Name   string `json:"name,omitempty"`
}

// NewClient creates a voice client, or nil when the provider is not
// configured.
func NewClient(cfg config.VoiceConfig, log *logger.Logger) *Client {
	if !cfg.IsVoiceEnabled() {
		return nil
	}

	return &Client{
		baseURL:  strings.TrimRight(cfg.GetVoiceAPIBaseURL(), "/"),
		callPath: cfg.GetVoiceCallPath(),
		apiKey:   cfg.GetVoiceAPIKey(),
		agentID:  cfg.GetVoiceAgentID(),
		http:     &http.Client{Timeout: 15 * time.Second},
		log:      log,
	}
}

// StartCall asks the provider to place an outbound call. Returns the
// provider's raw call handle, or (nil, nil) when the client is unconfigured.
func (c *Client) StartCall(ctx context.Context, toNumber, leadID, taskID, name string) (json.RawMessage, error) {
	if c == nil {
		return nil, nil
	}

	payload := callRequest{
		AgentID: c.agentID,
		To:      toNumber,
		Metadata: callMetadata{
			LeadID: leadID,
			TaskID: taskID,
			Name:   name,
		},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal voice payload: %w", err)
	}

	url := c.baseURL + c.callPath
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(body))
	if err != nil {
		return nil, err
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("voice request failed: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	data, _ := io.ReadAll(resp.Body)
	if resp.StatusCode >= http.StatusBadRequest {
		return nil, fmt.Errorf("voice provider returned %d: %s", resp.StatusCode, strings.TrimSpace(string(data)))
	}

	c.log.Info("outbound call triggered", "to", toNumber, "agent_id", c.agentID)

	if len(bytes.TrimSpace(data)) == 0 {
		return nil, nil
	}
	return json.RawMessage(data), nil
}
