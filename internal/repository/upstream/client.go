// Package upstream reads relational entities and role grants from the main
// application over its internal HTTP API. The relational store itself is
// external to this service; this client is the read-only adapter the
// propagation worker and permission resolver consume.
package upstream

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/meridianhq/searchcore/internal/domain"
	"github.com/meridianhq/searchcore/internal/domain/entity"
	"github.com/meridianhq/searchcore/internal/domain/module"
)

// Config holds connection parameters for the upstream application API.
type Config struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
}

// Client implements indexing.EntityLoader and permission.GrantLookup.
type Client struct {
	base   string
	apiKey string
	http   *http.Client
}

// New creates an upstream client.
func New(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("upstream base url is required")
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		base:   cfg.BaseURL,
		apiKey: cfg.APIKey,
		http:   &http.Client{Timeout: timeout},
	}, nil
}

// Load fetches an entity by module and row id.
func (c *Client) Load(ctx context.Context, m module.Module, id int64) (entity.Entity, error) {
	path := fmt.Sprintf("/internal/search/entities/%s/%d", url.PathEscape(string(m)), id)
	raw, err := c.get(ctx, path)
	if err != nil {
		return nil, err
	}
	return entity.Decode(string(m), raw)
}

// LoadUserProfileByUser fetches the profile entity owned by a user.
func (c *Client) LoadUserProfileByUser(ctx context.Context, userID int64) (entity.Entity, error) {
	path := fmt.Sprintf("/internal/search/user-profiles/by-user/%d", userID)
	raw, err := c.get(ctx, path)
	if err != nil {
		return nil, err
	}
	return entity.Decode(string(module.UserProfile), raw)
}

// GrantedMenuCodes fetches the menu codes granted to a role.
func (c *Client) GrantedMenuCodes(ctx context.Context, role string) ([]string, error) {
	path := "/internal/search/roles/" + url.PathEscape(role) + "/menu-codes"
	raw, err := c.get(ctx, path)
	if err != nil {
		return nil, err
	}
	var body struct {
		MenuCodes []string `json:"menu_codes"`
	}
	if err := json.Unmarshal(raw, &body); err != nil {
		return nil, fmt.Errorf("decode menu codes: %w", err)
	}
	return body.MenuCodes, nil
}

func (c *Client) get(ctx context.Context, path string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.base+path, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("upstream get %s: %w", path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		return nil, domain.ErrEntityNotFound
	default:
		return nil, fmt.Errorf("upstream get %s: unexpected status %d", path, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read upstream response: %w", err)
	}
	return body, nil
}
