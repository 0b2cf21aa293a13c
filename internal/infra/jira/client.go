// Package jira is the Jira Cloud REST adapter.
// Client calls the Jira REST API v2 using stdlib net/http with basic auth.
// Endpoints used:
//   - POST /rest/api/2/issue       create one issue
//   - POST /rest/api/2/search/jql  token-paginated JQL search
package jira

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const (
	// BaseURL is the Jira Cloud site every ticket lives on.
	BaseURL = "https://cloudera.atlassian.net"

	// BrowseURL prefixes an issue key to form its web link.
	BrowseURL = BaseURL + "/browse/"

	mimeJSON          = "application/json"
	headerContentType = "Content-Type"
	headerAccept      = "Accept"

	pathCreateIssue = "/rest/api/2/issue"
	pathSearchJQL   = "/rest/api/2/search/jql"

	// maxPageSize is the largest page Jira returns for search/jql when
	// only navigable fields are requested.
	maxPageSize = 100
)

// searchFields are the only issue fields the search results need.
var searchFields = []string{"summary", "status", "assignee"}

// Client talks to one Jira site as one user.
type Client struct {
	baseURL    string
	username   string
	token      string
	httpClient *http.Client
}

// NewClient creates a Client with a 30s default timeout.
// No request is sent until the first call.
func NewClient(baseURL, username, token string) *Client {
	return &Client{
		baseURL:  strings.TrimRight(baseURL, "/"),
		username: username,
		token:    token,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// ─── wire types ─────────────────────────────────────────────────────────────

// Issue is the subset of a Jira issue returned by search.
type Issue struct {
	ID     string      `json:"id"`
	Key    string      `json:"key"`
	Fields IssueFields `json:"fields"`
}

// IssueFields holds the navigable fields requested by search.
type IssueFields struct {
	Summary  string  `json:"summary"`
	Status   *Status `json:"status"`
	Assignee *User   `json:"assignee"`
}

// Status is a workflow status.
type Status struct {
	Name string `json:"name"`
}

// User is an Atlassian account as embedded in issue fields.
type User struct {
	AccountID    string `json:"accountId"`
	DisplayName  string `json:"displayName"`
	EmailAddress string `json:"emailAddress,omitempty"`
}

// CreatedIssue is the body Jira answers a create with.
type CreatedIssue struct {
	ID   string `json:"id"`
	Key  string `json:"key"`
	Self string `json:"self"`
}

type createIssueRequest struct {
	Fields map[string]any `json:"fields"`
}

type searchRequest struct {
	JQL           string   `json:"jql"`
	MaxResults    int      `json:"maxResults"`
	Fields        []string `json:"fields"`
	NextPageToken string   `json:"nextPageToken,omitempty"`
}

type searchResponse struct {
	Issues        []Issue `json:"issues"`
	NextPageToken string  `json:"nextPageToken"`
	IsLast        bool    `json:"isLast"`
}

// ─── operations ─────────────────────────────────────────────────────────────

// CreateIssue submits fields as a new issue and returns its id and key.
func (c *Client) CreateIssue(ctx context.Context, fields map[string]any) (*CreatedIssue, error) {
	body, err := json.Marshal(createIssueRequest{Fields: fields})
	if err != nil {
		return nil, fmt.Errorf("jira create issue: encode: %w", err)
	}

	var created CreatedIssue
	if err := c.doPost(ctx, "create issue", pathCreateIssue, body, &created); err != nil {
		return nil, err
	}
	if created.Key == "" {
		return nil, &RemoteServiceError{Op: "create issue", Messages: []string{"response carried no issue key"}}
	}
	return &created, nil
}

// SearchIssues runs jql and returns at most maxResults issues in the order
// Jira returns them, following nextPageToken across pages.
func (c *Client) SearchIssues(ctx context.Context, jql string, maxResults int) ([]Issue, error) {
	if maxResults <= 0 {
		return []Issue{}, nil
	}

	issues := make([]Issue, 0, min(maxResults, maxPageSize))
	token := ""
	for len(issues) < maxResults {
		body, err := json.Marshal(searchRequest{
			JQL:           jql,
			MaxResults:    min(maxResults-len(issues), maxPageSize),
			Fields:        searchFields,
			NextPageToken: token,
		})
		if err != nil {
			return nil, fmt.Errorf("jira search: encode: %w", err)
		}

		var page searchResponse
		if err := c.doPost(ctx, "search", pathSearchJQL, body, &page); err != nil {
			return nil, err
		}
		issues = append(issues, page.Issues...)

		if page.IsLast || page.NextPageToken == "" || len(page.Issues) == 0 {
			break
		}
		token = page.NextPageToken
	}

	if len(issues) > maxResults {
		issues = issues[:maxResults]
	}
	return issues, nil
}

// ─── helpers ─────────────────────────────────────────────────────────────────

// doPost sends a JSON POST to baseURL+path and decodes a 2xx body into out.
// Any failure is reported as a *RemoteServiceError.
func (c *Client) doPost(ctx context.Context, op, path string, body []byte, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("jira %s: build request: %w", op, err)
	}
	req.Header.Set(headerContentType, mimeJSON)
	req.Header.Set(headerAccept, mimeJSON)
	req.SetBasicAuth(c.username, c.token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &RemoteServiceError{Op: op, Err: err}
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
		return newRemoteServiceError(op, resp.StatusCode, raw)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &RemoteServiceError{Op: op, StatusCode: resp.StatusCode, Err: fmt.Errorf("decode response: %w", err)}
	}
	return nil
}
