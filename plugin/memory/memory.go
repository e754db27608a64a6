// Package memory is a client for the long-term conversation memory
// service (a mem0-style REST API). All calls are best-effort: the agent
// ignores recall failures and only logs store failures.
package memory

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/pkg/errors"
)

// Client talks to the memory service. A nil *Client disables the feature.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

// New creates a memory client.
func New(baseURL, apiKey string) *Client {
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		http:    &http.Client{Timeout: 5 * time.Second},
	}
}

// Recall returns memory snippets relevant to the query for the given user.
func (c *Client) Recall(ctx context.Context, userID, query string) ([]string, error) {
	body, _ := json.Marshal(map[string]string{
		"user_id": userID,
		"query":   query,
	})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/v1/memories/search/", bytes.NewReader(body))
	if err != nil {
		return nil, errors.Wrap(err, "memory: build search request")
	}
	c.setHeaders(req)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "memory: search")
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, errors.Errorf("memory: search returned %d", resp.StatusCode)
	}

	var hits []struct {
		Memory string `json:"memory"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&hits); err != nil {
		return nil, errors.Wrap(err, "memory: decode search response")
	}
	out := make([]string, 0, len(hits))
	for _, h := range hits {
		if h.Memory != "" {
			out = append(out, h.Memory)
		}
	}
	return out, nil
}

// Store persists one user/assistant turn pair for future recall.
func (c *Client) Store(ctx context.Context, userID, userMsg, assistantMsg string) error {
	body, _ := json.Marshal(map[string]any{
		"user_id": userID,
		"messages": []map[string]string{
			{"role": "user", "content": userMsg},
			{"role": "assistant", "content": assistantMsg},
		},
	})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/v1/memories/", bytes.NewReader(body))
	if err != nil {
		return errors.Wrap(err, "memory: build store request")
	}
	c.setHeaders(req)

	resp, err := c.http.Do(req)
	if err != nil {
		return errors.Wrap(err, "memory: store")
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return errors.Errorf("memory: store returned %d", resp.StatusCode)
	}
	return nil
}

func (c *Client) setHeaders(req *http.Request) {
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", fmt.Sprintf("Token %s", c.apiKey))
	}
}
