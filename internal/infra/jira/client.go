package jira

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/YoshitsuguKoike/epicimport/internal/domain/issue"
	"github.com/cenkalti/backoff/v4"
)

// Config carries everything the client needs for one project scope. It is
// built once from the loaded settings and passed in explicitly; the client
// keeps no other state between calls.
type Config struct {
	BaseURL    string // e.g. "https://example.atlassian.net"
	Username   string
	APIToken   string
	ProjectKey string

	// Issue type selectors. IDs win when set; names are the fallback
	// because type IDs differ between Jira instances.
	EpicTypeID  string
	StoryTypeID string
	EpicName    string
	StoryName   string

	// EpicLinkField overrides the parent relationship with a custom field
	// id (classic Jira used e.g. customfield_10014). When set, story
	// duplicate checks cannot be narrowed to the parent epic and fall
	// back to the whole project.
	EpicLinkField string
}

// Client talks to the Jira v3 REST API and implements issue.Backend.
type Client struct {
	cfg        Config
	httpClient *http.Client

	// newBackOff builds the retry policy for one request. Transient
	// responses (429, 5xx) and transport errors are retried; everything
	// else fails immediately.
	newBackOff func() backoff.BackOff
}

// NewClient creates a Jira client for one project scope.
func NewClient(cfg Config) *Client {
	cfg.BaseURL = strings.TrimSuffix(cfg.BaseURL, "/")
	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		newBackOff: func() backoff.BackOff {
			b := backoff.NewExponentialBackOff()
			b.InitialInterval = 500 * time.Millisecond
			return backoff.WithMaxRetries(b, 3)
		},
	}
}

// searchPageSize is the page size for JQL searches.
const searchPageSize = 100

type searchResult struct {
	StartAt    int    `json:"startAt"`
	MaxResults int    `json:"maxResults"`
	Total      int    `json:"total"`
	Issues     []struct {
		ID     string `json:"id"`
		Key    string `json:"key"`
		Fields struct {
			Summary string `json:"summary"`
		} `json:"fields"`
	} `json:"issues"`
}

// Search runs a JQL query scoped to the configured project and issue type,
// ordered oldest-created first, handling pagination. The summary filter
// uses Jira's fuzzy text match; exact matching is the caller's job.
func (c *Client) Search(ctx context.Context, q issue.SearchQuery) ([]issue.Ref, error) {
	// %q escapes quotes and backslashes the way JQL string literals expect.
	jql := fmt.Sprintf("project = %q AND issuetype = %s", c.cfg.ProjectKey, c.typeClause(q.Type))
	if q.Summary != "" {
		jql += fmt.Sprintf(" AND summary ~ %q", q.Summary)
	}
	if q.ParentKey != "" && c.cfg.EpicLinkField == "" {
		jql += fmt.Sprintf(" AND parent = %s", q.ParentKey)
	}
	jql += " ORDER BY created ASC"

	var refs []issue.Ref
	startAt := 0
	for {
		params := url.Values{
			"jql":        {jql},
			"fields":     {"summary"},
			"startAt":    {fmt.Sprintf("%d", startAt)},
			"maxResults": {fmt.Sprintf("%d", searchPageSize)},
		}
		body, err := c.doRequest(ctx, "search", "GET", "/rest/api/3/search?"+params.Encode(), nil)
		if err != nil {
			return nil, err
		}

		var page searchResult
		if err := json.Unmarshal(body, &page); err != nil {
			return nil, &issue.BackendError{Op: "search", Err: fmt.Errorf("parsing search response: %w", err)}
		}

		for _, it := range page.Issues {
			refs = append(refs, issue.Ref{
				ID:      it.ID,
				Key:     it.Key,
				Summary: it.Fields.Summary,
				Type:    q.Type,
			})
		}

		if startAt+len(page.Issues) >= page.Total || len(page.Issues) == 0 {
			break
		}
		startAt += len(page.Issues)
	}
	return refs, nil
}

// Create creates one issue and returns its ref. One request per item: the
// create response already carries id and key, so no follow-up fetch.
func (c *Client) Create(ctx context.Context, req issue.CreateRequest) (*issue.Ref, error) {
	fields := map[string]interface{}{
		"project":   map[string]string{"key": c.cfg.ProjectKey},
		"summary":   req.Summary,
		"issuetype": c.typeRef(req.Type),
	}
	if req.Description != "" {
		fields["description"] = PlainTextToADF(req.Description)
	}
	if req.ParentKey != "" {
		if c.cfg.EpicLinkField != "" {
			fields[c.cfg.EpicLinkField] = req.ParentKey
		} else {
			fields["parent"] = map[string]string{"key": req.ParentKey}
		}
	}

	payload, err := json.Marshal(map[string]interface{}{"fields": fields})
	if err != nil {
		return nil, &issue.BackendError{Op: "create", Err: fmt.Errorf("marshaling create request: %w", err)}
	}

	body, err := c.doRequest(ctx, "create", "POST", "/rest/api/3/issue", payload)
	if err != nil {
		return nil, err
	}

	var created struct {
		ID  string `json:"id"`
		Key string `json:"key"`
	}
	if err := json.Unmarshal(body, &created); err != nil {
		return nil, &issue.BackendError{Op: "create", Err: fmt.Errorf("parsing create response: %w", err)}
	}

	return &issue.Ref{
		ID:      created.ID,
		Key:     created.Key,
		Summary: req.Summary,
		Type:    req.Type,
	}, nil
}

// FetchMetadata retrieves the discovery payload for the metadata command:
// visible projects, issue types and field definitions.
func (c *Client) FetchMetadata(ctx context.Context) (*issue.Metadata, error) {
	meta := &issue.Metadata{}

	body, err := c.doRequest(ctx, "metadata", "GET", "/rest/api/3/project", nil)
	if err != nil {
		return nil, err
	}
	var projects []struct {
		ID   string `json:"id"`
		Key  string `json:"key"`
		Name string `json:"name"`
	}
	if err := json.Unmarshal(body, &projects); err != nil {
		return nil, &issue.BackendError{Op: "metadata", Err: fmt.Errorf("parsing project list: %w", err)}
	}
	for _, p := range projects {
		meta.Projects = append(meta.Projects, issue.Project{ID: p.ID, Key: p.Key, Name: p.Name})
	}

	body, err = c.doRequest(ctx, "metadata", "GET", "/rest/api/3/issuetype", nil)
	if err != nil {
		return nil, err
	}
	var types []struct {
		ID      string `json:"id"`
		Name    string `json:"name"`
		Subtask bool   `json:"subtask"`
	}
	if err := json.Unmarshal(body, &types); err != nil {
		return nil, &issue.BackendError{Op: "metadata", Err: fmt.Errorf("parsing issue types: %w", err)}
	}
	for _, t := range types {
		meta.IssueTypes = append(meta.IssueTypes, issue.TypeInfo{ID: t.ID, Name: t.Name, Subtask: t.Subtask})
	}

	body, err = c.doRequest(ctx, "metadata", "GET", "/rest/api/3/field", nil)
	if err != nil {
		return nil, err
	}
	var fields []struct {
		ID     string `json:"id"`
		Name   string `json:"name"`
		Schema struct {
			Type string `json:"type"`
		} `json:"schema"`
	}
	if err := json.Unmarshal(body, &fields); err != nil {
		return nil, &issue.BackendError{Op: "metadata", Err: fmt.Errorf("parsing fields: %w", err)}
	}
	for _, f := range fields {
		meta.Fields = append(meta.Fields, issue.FieldInfo{ID: f.ID, Name: f.Name, Schema: f.Schema.Type})
	}

	return meta, nil
}

// typeClause renders the issuetype operand for JQL.
func (c *Client) typeClause(t issue.Type) string {
	if id := c.typeID(t); id != "" {
		return id
	}
	return fmt.Sprintf("%q", c.typeName(t))
}

// typeRef renders the issuetype value for the create payload.
func (c *Client) typeRef(t issue.Type) map[string]string {
	if id := c.typeID(t); id != "" {
		return map[string]string{"id": id}
	}
	return map[string]string{"name": c.typeName(t)}
}

func (c *Client) typeID(t issue.Type) string {
	if t == issue.TypeEpic {
		return c.cfg.EpicTypeID
	}
	return c.cfg.StoryTypeID
}

func (c *Client) typeName(t issue.Type) string {
	if t == issue.TypeEpic {
		if c.cfg.EpicName != "" {
			return c.cfg.EpicName
		}
		return string(issue.TypeEpic)
	}
	if c.cfg.StoryName != "" {
		return c.cfg.StoryName
	}
	return string(issue.TypeStory)
}

// doRequest executes one authenticated request, retrying transient
// failures, and returns the response body.
func (c *Client) doRequest(ctx context.Context, op, method, path string, payload []byte) ([]byte, error) {
	if c.cfg.BaseURL == "" {
		return nil, &issue.BackendError{Op: op, Err: fmt.Errorf("jira URL not configured")}
	}

	var body []byte
	operation := func() error {
		var reader io.Reader
		if payload != nil {
			reader = bytes.NewReader(payload)
		}
		req, err := http.NewRequestWithContext(ctx, method, c.cfg.BaseURL+path, reader)
		if err != nil {
			return backoff.Permanent(err)
		}

		auth := base64.StdEncoding.EncodeToString([]byte(c.cfg.Username + ":" + c.cfg.APIToken))
		req.Header.Set("Authorization", "Basic "+auth)
		req.Header.Set("Accept", "application/json")
		if payload != nil {
			req.Header.Set("Content-Type", "application/json")
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return backoff.Permanent(err)
			}
			return err
		}
		defer func() { _ = resp.Body.Close() }()

		respBody, err := io.ReadAll(resp.Body)
		if err != nil {
			return err
		}

		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			return &issue.BackendError{Op: op, StatusCode: resp.StatusCode, Err: fmt.Errorf("%s", strings.TrimSpace(string(respBody)))}
		}
		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return backoff.Permanent(&issue.BackendError{Op: op, StatusCode: resp.StatusCode, Err: fmt.Errorf("%s", strings.TrimSpace(string(respBody)))})
		}

		body = respBody
		return nil
	}

	if err := backoff.Retry(operation, backoff.WithContext(c.newBackOff(), ctx)); err != nil {
		var berr *issue.BackendError
		if errors.As(err, &berr) {
			return nil, berr
		}
		return nil, &issue.BackendError{Op: op, Err: err}
	}
	return body, nil
}
