// Package crm is a client for the CRM lead-creation endpoint. The agent
// makes at most one call per turn; on failure it holds the session state
// so a later turn re-enters the submission path.
package crm

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/pkg/errors"
)

// Terminal vs retryable outcomes of a lead submission.
var (
	// ErrRejected means the CRM refused the lead (bad payload or auth);
	// retrying the same submission will not help.
	ErrRejected = errors.New("crm: lead rejected")

	// ErrUnavailable means the CRM could not be reached or returned a
	// server error; a later attempt may succeed.
	ErrUnavailable = errors.New("crm: service unavailable")
)

// Client talks to the CRM API.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

// New creates a CRM client.
func New(baseURL, apiKey string) *Client {
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		http:    &http.Client{Timeout: 10 * time.Second},
	}
}

// CreateLead submits a lead and returns the CRM's lead id.
func (c *Client) CreateLead(ctx context.Context, name, email, phone string) (string, error) {
	body, _ := json.Marshal(map[string]string{
		"name":  name,
		"email": email,
		"phone": phone,
	})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/api/v1/leads", bytes.NewReader(body))
	if err != nil {
		return "", errors.Wrap(err, "crm: build request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return "", errors.Wrap(ErrUnavailable, err.Error())
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusCreated:
		var data struct {
			ID     string `json:"id"`
			LeadID string `json:"lead_id"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
			return "", errors.Wrap(err, "crm: decode response")
		}
		if data.ID != "" {
			return data.ID, nil
		}
		return data.LeadID, nil
	case resp.StatusCode == http.StatusBadRequest, resp.StatusCode == http.StatusUnauthorized:
		return "", errors.Wrapf(ErrRejected, "status %d", resp.StatusCode)
	default:
		return "", errors.Wrapf(ErrUnavailable, "status %d", resp.StatusCode)
	}
}
