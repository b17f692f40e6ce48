package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/hyperjump/semcache/internal/models"
)

// Client calls a running semcache server.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient returns a client for the server at baseURL.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 60 * time.Second},
	}
}

// Lookup asks the server for the cached response closest to query.
func (c *Client) Lookup(ctx context.Context, query string) (*models.LookupResponse, error) {
	var out models.LookupResponse
	if err := c.do(ctx, http.MethodPost, "/api/v1/cache/lookup", models.LookupRequest{Query: query}, http.StatusOK, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Store caches response under query.
func (c *Client) Store(ctx context.Context, query string, response json.RawMessage) error {
	return c.do(ctx, http.MethodPut, "/api/v1/cache", models.StoreRequest{Query: query, Response: response}, http.StatusCreated, nil)
}

// Delete removes the entry cached for query.
func (c *Client) Delete(ctx context.Context, query string) error {
	return c.do(ctx, http.MethodDelete, "/api/v1/cache/entry", models.LookupRequest{Query: query}, http.StatusOK, nil)
}

// Clear removes every cached entry.
func (c *Client) Clear(ctx context.Context) error {
	return c.do(ctx, http.MethodDelete, "/api/v1/cache", nil, http.StatusOK, nil)
}

// Embed returns the server's embedding of text.
func (c *Client) Embed(ctx context.Context, text string) (*models.EmbedResponse, error) {
	var out models.EmbedResponse
	if err := c.do(ctx, http.MethodPost, "/api/v1/embed", models.EmbedRequest{Text: text}, http.StatusOK, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Status returns the server's engine status.
func (c *Client) Status(ctx context.Context) (*models.StatusResponse, error) {
	var out models.StatusResponse
	if err := c.do(ctx, http.MethodGet, "/api/v1/status", nil, http.StatusOK, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) do(ctx context.Context, method, path string, body any, wantStatus int, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != wantStatus {
		b, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("server returned %d: %s", resp.StatusCode, strings.TrimSpace(string(b)))
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
