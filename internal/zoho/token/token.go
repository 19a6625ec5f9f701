// Package token provides the process-wide Zoho OAuth credential cache.
package token

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"crm_dispatch_backend/platform/apperr"
	"crm_dispatch_backend/platform/config"
	"crm_dispatch_backend/platform/logger"
)

// expirySkew is subtracted from the upstream expiry so a token is refreshed
// before it actually lapses mid-request.
const expirySkew = 60 * time.Second

// Source yields a valid access token, refreshing when forced or expired.
// The CRM client depends on this interface so tests can substitute a fake.
type Source interface {
	Token(ctx context.Context, force bool) (string, error)
}

type credential struct {
	accessToken string
	expiresAt   time.Time
}

func (c credential) valid(now time.Time) bool {
	return c.accessToken != "" && now.Before(c.expiresAt.Add(-expirySkew))
}

// Cache is the single process-wide credential holder. The mutex serializes
// refreshes; a duplicate refresh would be harmless (any valid token is
// equally usable) but unsynchronized field writes are not.
type Cache struct {
	accountsURL  string
	clientID     string
	clientSecret string
	refreshToken string
	http         *http.Client
	log          *logger.Logger

	mu   sync.Mutex
	cred credential
	now  func() time.Time
}

// New creates a credential cache for the configured Zoho account.
func New(cfg config.ZohoConfig, log *logger.Logger) *Cache {
	return &Cache{
		accountsURL:  strings.TrimRight(cfg.GetZohoAccountsURL(), "/"),
		clientID:     cfg.GetZohoClientID(),
		clientSecret: cfg.GetZohoClientSecret(),
		refreshToken: cfg.GetZohoRefreshToken(),
		http:         &http.Client{Timeout: 15 * time.Second},
		log:          log,
		now:          time.Now,
	}
}

// Token returns a valid access token, refreshing if forced or the cached one
// is absent or expiring within the skew window.
func (c *Cache) Token(ctx context.Context, force bool) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !force && c.cred.valid(c.now()) {
		return c.cred.accessToken, nil
	}

	cred, err := c.refresh(ctx)
	if err != nil {
		return "", err
	}

	c.cred = cred
	return cred.accessToken, nil
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int64  `json:"expires_in"`
}

// refresh exchanges the long-lived refresh token for a fresh access token.
func (c *Cache) refresh(ctx context.Context) (credential, error) {
	form := url.Values{}
	form.Set("grant_type", "refresh_token")
	form.Set("refresh_token", c.refreshToken)
	form.Set("client_id", c.clientID)
	form.Set("client_secret", c.clientSecret)

	endpoint := fmt.Sprintf("%s/oauth/v2/token", c.accountsURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return credential{}, apperr.Wrap(apperr.KindAuth, "create token request", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.http.Do(req)
	if err != nil {
		c.log.UpstreamError("zoho-accounts", "token refresh", err)
		return credential{}, apperr.Wrap(apperr.KindAuth, "token refresh request failed", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	body, _ := io.ReadAll(resp.Body)

	if resp.StatusCode != http.StatusOK {
		c.log.Error("zoho token refresh rejected", "status", resp.StatusCode)
		return credential{}, apperr.Auth("zoho token refresh failed").WithDetails(map[string]interface{}{
			"status": resp.StatusCode,
			"body":   strings.TrimSpace(string(body)),
		})
	}

	var parsed tokenResponse
	if err := json.Unmarshal(body, &parsed); err != nil || parsed.AccessToken == "" {
		return credential{}, apperr.Auth("zoho token response missing access_token").WithDetails(map[string]interface{}{
			"status": resp.StatusCode,
			"body":   strings.TrimSpace(string(body)),
		})
	}

	expiresIn := parsed.ExpiresIn
	if expiresIn <= 0 {
		expiresIn = 3600
	}

	c.log.Debug("zoho token refreshed", "expires_in", expiresIn)

	return credential{
		accessToken: parsed.AccessToken,
		expiresAt:   c.now().Add(time.Duration(expiresIn) * time.Second),
	}, nil
}
