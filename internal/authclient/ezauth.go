/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

// Package authclient validates a player's session cookie against the
// external auth service, grounded in
// original_source/connector-api/src/ezauth.rs's validate_user.
package authclient

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/Seednode/matchfabric/internal/config"
)

// Profile is the decoded {_id, username, email, createdAt} response body.
type Profile struct {
	ID        string    `json:"_id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"createdAt"`
}

// Client calls GET {baseURL}/profile with the player's session cookie.
// There is no dedicated REST-client library in the example pack for a
// single-endpoint internal call, and the teacher itself never makes
// outbound HTTP requests, so this is built directly on net/http - see
// DESIGN.md.
type Client struct {
	baseURL string
	http    *http.Client
}

func New(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		http:    &http.Client{Timeout: config.DefaultTimeout},
	}
}

// Validate returns the caller's profile, or a non-nil error on any
// transport failure or response status of 400 or above. Callers map a non-nil error to
// the domain PlayerUnauthorized error per §7's degradation policy.
func (c *Client) Validate(ctx context.Context, sessionToken string) (Profile, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/profile", nil)
	if err != nil {
		return Profile{}, err
	}
	req.Header.Set("Cookie", "session="+sessionToken)

	resp, err := c.http.Do(req)
	if err != nil {
		return Profile{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return Profile{}, fmt.Errorf("ezauth profile lookup: status %d", resp.StatusCode)
	}

	var p Profile
	if err := json.NewDecoder(resp.Body).Decode(&p); err != nil {
		return Profile{}, fmt.Errorf("decode ezauth profile: %w", err)
	}

	return p, nil
}
