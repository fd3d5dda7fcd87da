package tracker

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/openclaw/poker-server-go/internal/model"
)

const (
	editIssuesPermission = "EDIT_ISSUES"
	maxErrorBody         = 4 << 10
)

type JiraConfig struct {
	BaseURL       string
	Username      string
	APIToken      string
	EstimateField string
	Timeout       time.Duration
}

// JiraClient talks to the Jira REST API v2 with a service account.
type JiraClient struct {
	baseURL       string
	username      string
	apiToken      string
	estimateField string
	client        *http.Client
}

var (
	_ PermissionChecker = (*JiraClient)(nil)
	_ EstimateField     = (*JiraClient)(nil)
)

func NewJiraClient(cfg JiraConfig) *JiraClient {
	return &JiraClient{
		baseURL:       strings.TrimRight(cfg.BaseURL, "/"),
		username:      cfg.Username,
		apiToken:      cfg.APIToken,
		estimateField: cfg.EstimateField,
		client: &http.Client{
			Timeout: cfg.Timeout,
		},
	}
}

type jiraUser struct {
	Key  string `json:"key"`
	Name string `json:"name"`
}

// CanEditItem asks Jira which users hold EDIT_ISSUES on the issue, filtered
// to identity.
func (c *JiraClient) CanEditItem(ctx context.Context, identity model.Identity, itemKey string) (bool, error) {
	if identity.IsAnonymous() {
		return false, nil
	}

	query := url.Values{}
	query.Set("permissions", editIssuesPermission)
	query.Set("issueKey", itemKey)
	query.Set("username", identity.String())
	endpoint := c.baseURL + "/rest/api/2/user/permission/search?" + query.Encode()

	var users []jiraUser
	if err := c.do(ctx, http.MethodGet, endpoint, nil, &users); err != nil {
		return false, fmt.Errorf("permission search: %w", err)
	}

	for _, u := range users {
		if u.Key == identity.String() || u.Name == identity.String() {
			return true, nil
		}
	}
	return false, nil
}

// SetEstimate writes value into the configured custom field of the issue.
func (c *JiraClient) SetEstimate(ctx context.Context, itemKey string, value float64) error {
	payload := map[string]any{
		"fields": map[string]any{
			c.estimateField: value,
		},
	}
	endpoint := c.baseURL + "/rest/api/2/issue/" + url.PathEscape(itemKey)

	if err := c.do(ctx, http.MethodPut, endpoint, payload, nil); err != nil {
		return fmt.Errorf("update issue: %w", err)
	}

	log.Info().
		Str("itemKey", itemKey).
		Str("field", c.estimateField).
		Float64("value", value).
		Msg("estimate written to jira")
	return nil
}

func (c *JiraClient) do(ctx context.Context, method, endpoint string, payload any, out any) error {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("marshal payload: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.username != "" || c.apiToken != "" {
		req.SetBasicAuth(c.username, c.apiToken)
	}

	start := time.Now()
	resp, err := c.client.Do(req)
	elapsed := time.Since(start)
	if err != nil {
		log.Error().
			Err(err).
			Str("method", method).
			Str("url", endpoint).
			Dur("elapsed", elapsed).
			Msg("jira request error")
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		log.Error().
			Str("method", method).
			Str("url", endpoint).
			Int("status", resp.StatusCode).
			Dur("elapsed", elapsed).
			Msg("jira request failed")
		return fmt.Errorf("jira returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(snippet)))
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
