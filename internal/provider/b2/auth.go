package b2

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/savevault/savevault/internal/provider"
)

const (
	defaultAuthURL = "https://api.backblazeb2.com/b2api/v2/b2_authorize_account"

	// Re-authorize conservatively every 20 hours; provider tokens are valid
	// for 24 and the exact policy is not under our control.
	sessionTTL = 20 * time.Hour
)

// session is the cached provider session descriptor. It lives only inside the
// client, is never persisted, and is safe to rebuild from credentials at any
// time.
type session struct {
	apiURL      string
	downloadURL string
	token       string
	acquiredAt  time.Time
}

// getSession returns the cached session, performing a fresh authorize exchange
// when no session exists or the staleness threshold has passed. The
// check-then-refresh is serialized behind sessionMu so concurrent requests
// hitting a stale cache share a single authorize call.
func (c *Client) getSession(ctx context.Context) (*session, error) {
	c.sessionMu.Lock()
	defer c.sessionMu.Unlock()

	if c.session != nil && c.now().Sub(c.session.acquiredAt) <= sessionTTL {
		return c.session, nil
	}

	s, err := c.authorize(ctx)
	if err != nil {
		return nil, err
	}
	c.session = s
	return s, nil
}

// authorize performs the basic-auth credential exchange. Exactly one outbound
// call per invocation.
func (c *Client) authorize(ctx context.Context) (*session, error) {
	if c.cfg.KeyID == "" {
		return nil, &provider.ConfigError{Setting: "B2_KEY_ID"}
	}
	if c.cfg.ApplicationKey == "" {
		return nil, &provider.ConfigError{Setting: "B2_APPLICATION_KEY"}
	}

	authURL := c.cfg.AuthURL
	if authURL == "" {
		authURL = defaultAuthURL
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, authURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create authorize request: %w", err)
	}
	req.SetBasicAuth(c.cfg.KeyID, c.cfg.ApplicationKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("authorize request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, &provider.AuthError{Status: resp.StatusCode, Body: string(body)}
	}

	var authResp struct {
		APIURL             string `json:"apiUrl"`
		DownloadURL        string `json:"downloadUrl"`
		AuthorizationToken string `json:"authorizationToken"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&authResp); err != nil {
		return nil, fmt.Errorf("failed to decode authorize response: %w", err)
	}

	return &session{
		apiURL:      authResp.APIURL,
		downloadURL: authResp.DownloadURL,
		token:       authResp.AuthorizationToken,
		acquiredAt:  c.now(),
	}, nil
}
