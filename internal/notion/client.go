package notion

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"focuslog/internal/focus"
)

const (
	DefaultBaseURL = "https://api.notion.com/v1"
	DefaultVersion = "2022-06-28"

	maxPageSize = 100
	maxDetail   = 2048
)

// Config holds what a Client needs to reach one database.
type Config struct {
	Token      string
	DatabaseID string
	BaseURL    string
	Version    string
	Properties PropertyNames
	// HTTPClient defaults to a client without a timeout; deadlines belong to
	// the caller's context.
	HTTPClient *http.Client
}

// Client talks to the Notion REST API and implements focus.RecordStore.
// See: https://developers.notion.com/reference
type Client struct {
	http       *http.Client
	token      string
	databaseID string
	baseURL    string
	version    string
	props      PropertyNames
}

var _ focus.RecordStore = (*Client)(nil)

// NewClient fails with *focus.ConfigurationError when the token or database
// id is missing.
func NewClient(cfg Config) (*Client, error) {
	var missing []string
	if strings.TrimSpace(cfg.Token) == "" {
		missing = append(missing, "NOTION_TOKEN")
	}
	if strings.TrimSpace(cfg.DatabaseID) == "" {
		missing = append(missing, "NOTION_DATABASE_ID")
	}
	if len(missing) > 0 {
		return nil, &focus.ConfigurationError{Missing: missing}
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	version := strings.TrimSpace(cfg.Version)
	if version == "" {
		version = DefaultVersion
	}
	props := cfg.Properties
	def := DefaultPropertyNames()
	if props.Day == "" {
		props.Day = def.Day
	}
	if props.Subject == "" {
		props.Subject = def.Subject
	}
	if props.Focus == "" {
		props.Focus = def.Focus
	}
	return &Client{
		http:       httpClient,
		token:      strings.TrimSpace(cfg.Token),
		databaseID: strings.TrimSpace(cfg.DatabaseID),
		baseURL:    baseURL,
		version:    version,
		props:      props,
	}, nil
}

func (c *Client) Name() string { return "Notion:" + c.databaseID }

// DatabaseID identifies the database this client is bound to.
func (c *Client) DatabaseID() string { return c.databaseID }

// Query runs a database query and follows pagination until filter.Limit rows
// are collected or the result set is exhausted.
func (c *Client) Query(ctx context.Context, filter focus.RowFilter) ([]focus.FocusRow, error) {
	reqBody := queryReq{
		Filter:   buildFilter(filter, c.props),
		PageSize: pageSize(filter.Limit),
	}
	var rows []focus.FocusRow
	for {
		var out queryResp
		if err := c.do(ctx, "query", http.MethodPost, "/databases/"+c.databaseID+"/query", reqBody, &out); err != nil {
			return nil, err
		}
		for _, p := range out.Results {
			rows = append(rows, p.toRow(c.props))
			if filter.Limit > 0 && len(rows) >= filter.Limit {
				return rows, nil
			}
		}
		if !out.HasMore || out.NextCursor == nil || *out.NextCursor == "" {
			return rows, nil
		}
		reqBody.StartCursor = *out.NextCursor
	}
}

// UpdateFields patches only the given properties of one page.
func (c *Client) UpdateFields(ctx context.Context, rowID string, fields map[string]any) error {
	rowID = strings.TrimSpace(rowID)
	if rowID == "" {
		return &focus.RemoteStoreError{Op: "update", Err: fmt.Errorf("row id is required")}
	}
	named := make(map[string]any, len(fields))
	for name, v := range fields {
		named[c.propertyName(name)] = v
	}
	props, err := propertyValues(named)
	if err != nil {
		return &focus.RemoteStoreError{Op: "update", Err: err}
	}
	body := map[string]any{"properties": props}
	return c.do(ctx, "update", http.MethodPatch, "/pages/"+rowID, body, nil)
}

// propertyName maps the store-neutral field names onto configured properties.
func (c *Client) propertyName(field string) string {
	switch field {
	case "day":
		return c.props.Day
	case "subject":
		return c.props.Subject
	case focus.FocusField:
		return c.props.Focus
	}
	return field
}

// SubjectOptions returns the allowed values of the subject select property.
func (c *Client) SubjectOptions(ctx context.Context) ([]string, error) {
	var out databaseResp
	if err := c.do(ctx, "query", http.MethodGet, "/databases/"+c.databaseID, nil, &out); err != nil {
		return nil, err
	}
	var schema selectSchema
	if err := json.Unmarshal(out.Properties[c.props.Subject], &schema); err != nil || schema.Select == nil {
		return nil, &focus.RemoteStoreError{Op: "query", Err: fmt.Errorf("property %q is not a select", c.props.Subject)}
	}
	names := make([]string, 0, len(schema.Select.Options))
	for _, o := range schema.Select.Options {
		if strings.TrimSpace(o.Name) != "" {
			names = append(names, o.Name)
		}
	}
	return names, nil
}

func (c *Client) do(ctx context.Context, op, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return &focus.RemoteStoreError{Op: op, Err: err}
		}
		body = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return &focus.RemoteStoreError{Op: op, Err: err}
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Notion-Version", c.version)
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return &focus.RemoteStoreError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64*1024))
		return &focus.RemoteStoreError{
			Op:         op,
			Status:     resp.StatusCode,
			Detail:     errorDetail(raw),
			RetryAfter: parseRetryAfter(resp.Header),
			Err:        fmt.Errorf("notion: unexpected status %s", resp.Status),
		}
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &focus.RemoteStoreError{Op: op, Status: resp.StatusCode, Err: fmt.Errorf("decode response: %w", err)}
	}
	return nil
}

// errorDetail keeps JSON error bodies as-is and wraps anything else as a
// truncated JSON string.
func errorDetail(raw []byte) json.RawMessage {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return nil
	}
	if json.Valid(raw) {
		return json.RawMessage(raw)
	}
	if len(raw) > maxDetail {
		raw = raw[:maxDetail]
	}
	quoted, err := json.Marshal(string(raw))
	if err != nil {
		return nil
	}
	return quoted
}

func pageSize(limit int) int {
	if limit > 0 && limit < maxPageSize {
		return limit
	}
	return maxPageSize
}

type unsupportedFieldError struct {
	name  string
	value any
}

func (e *unsupportedFieldError) Error() string {
	return fmt.Sprintf("field %q: unsupported value type %T", e.name, e.value)
}
