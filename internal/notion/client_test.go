package notion

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"focuslog/internal/focus"
)

type recordedRequest struct {
	Method string
	Path   string
	Header http.Header
	Body   map[string]any
}

type fakeNotion struct {
	mu       sync.Mutex
	requests []recordedRequest
	handle   func(w http.ResponseWriter, r *http.Request, body map[string]any)
}

func (f *fakeNotion) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	raw, _ := io.ReadAll(r.Body)
	body := map[string]any{}
	if len(raw) > 0 {
		_ = json.Unmarshal(raw, &body)
	}
	f.mu.Lock()
	f.requests = append(f.requests, recordedRequest{Method: r.Method, Path: r.URL.Path, Header: r.Header.Clone(), Body: body})
	f.mu.Unlock()
	f.handle(w, r, body)
}

func (f *fakeNotion) recorded() []recordedRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]recordedRequest(nil), f.requests...)
}

func newTestClient(t *testing.T, fake *fakeNotion) *Client {
	t.Helper()
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)
	c, err := NewClient(Config{Token: "secret", DatabaseID: "db1", BaseURL: srv.URL + "/v1"})
	require.NoError(t, err)
	return c
}

func writeJSON(w http.ResponseWriter, status int, v string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = io.WriteString(w, v)
}

func TestNewClient_MissingConfig(t *testing.T) {
	_, err := NewClient(Config{})
	var cfgErr *focus.ConfigurationError
	require.True(t, errors.As(err, &cfgErr))
	assert.Equal(t, []string{"NOTION_TOKEN", "NOTION_DATABASE_ID"}, cfgErr.Missing)

	_, err = NewClient(Config{Token: "t"})
	require.True(t, errors.As(err, &cfgErr))
	assert.Equal(t, []string{"NOTION_DATABASE_ID"}, cfgErr.Missing)
}

func TestQuery_SendsDayWindowFilterAndFollowsCursor(t *testing.T) {
	fake := &fakeNotion{}
	fake.handle = func(w http.ResponseWriter, r *http.Request, body map[string]any) {
		if body["start_cursor"] == nil {
			writeJSON(w, http.StatusOK, `{"results":[
				{"id":"p1","properties":{"day":{"date":{"start":"2024-03-01"}},"subject":{"select":{"name":"Math"}},"focus":{"number":30}}}
			],"has_more":true,"next_cursor":"c2"}`)
			return
		}
		writeJSON(w, http.StatusOK, `{"results":[
			{"id":"p2","properties":{"day":{"date":{"start":"2024-03-01T00:00:00.000+09:00"}},"subject":{"select":{"name":"English"}},"focus":{"number":null}}}
		],"has_more":false,"next_cursor":null}`)
	}
	c := newTestClient(t, fake)

	rows, err := c.Query(context.Background(), focus.RowFilter{OnOrAfter: "2024-03-01", Before: "2024-03-02"})
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "p1", rows[0].ID)
	assert.Equal(t, "Math", rows[0].Subject)
	require.NotNil(t, rows[0].Focus)
	assert.Equal(t, 30.0, *rows[0].Focus)
	assert.Equal(t, "English", rows[1].Subject)
	assert.Nil(t, rows[1].Focus)

	require.Len(t, fake.recorded(), 2)
	first := fake.recorded()[0]
	assert.Equal(t, http.MethodPost, first.Method)
	assert.Equal(t, "/v1/databases/db1/query", first.Path)
	assert.Equal(t, "Bearer secret", first.Header.Get("Authorization"))
	assert.Equal(t, DefaultVersion, first.Header.Get("Notion-Version"))
	wantFilter := `{"and":[
		{"property":"day","date":{"on_or_after":"2024-03-01"}},
		{"property":"day","date":{"before":"2024-03-02"}}
	]}`
	gotFilter, _ := json.Marshal(first.Body["filter"])
	assert.JSONEq(t, wantFilter, string(gotFilter))
	assert.Equal(t, 100.0, first.Body["page_size"])
	assert.Equal(t, "c2", fake.recorded()[1].Body["start_cursor"])
}

func TestQuery_SubjectFilterAndLimit(t *testing.T) {
	fake := &fakeNotion{}
	fake.handle = func(w http.ResponseWriter, _ *http.Request, _ map[string]any) {
		writeJSON(w, http.StatusOK, `{"results":[{"id":"p1","properties":{}},{"id":"p2","properties":{}}],"has_more":true,"next_cursor":"x"}`)
	}
	c := newTestClient(t, fake)

	rows, err := c.Query(context.Background(), focus.RowFilter{OnOrAfter: "2024-03-01", Before: "2024-03-02", Subject: " Math ", Limit: 1})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	require.Len(t, fake.recorded(), 1)
	assert.Equal(t, 1.0, fake.recorded()[0].Body["page_size"])
	gotFilter, _ := json.Marshal(fake.recorded()[0].Body["filter"])
	assert.Contains(t, string(gotFilter), `{"property":"subject","select":{"equals":"Math"}}`)
}

func TestQuery_LenientPropertyDecoding(t *testing.T) {
	fake := &fakeNotion{}
	fake.handle = func(w http.ResponseWriter, _ *http.Request, _ map[string]any) {
		writeJSON(w, http.StatusOK, `{"results":[
			{"id":"p1","properties":{"day":{"date":null},"subject":{"title":[{"plain_text":"Hi"},{"plain_text":"story"}]},"focus":{"number":"lots"}}},
			{"id":"p2","properties":{"day":"garbage","subject":{"select":null},"focus":{"formula":{}}}}
		],"has_more":false}`)
	}
	c := newTestClient(t, fake)

	rows, err := c.Query(context.Background(), focus.RowFilter{})
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, focus.FocusRow{ID: "p1", Subject: "History"}, rows[0])
	assert.Equal(t, focus.FocusRow{ID: "p2"}, rows[1])
	assert.Equal(t, int64(0), rows[0].CurrentFocus())
}

func TestUpdateFields_PatchesOnlyFocus(t *testing.T) {
	fake := &fakeNotion{}
	fake.handle = func(w http.ResponseWriter, _ *http.Request, _ map[string]any) {
		writeJSON(w, http.StatusOK, `{"object":"page","id":"p1"}`)
	}
	c := newTestClient(t, fake)

	require.NoError(t, c.UpdateFields(context.Background(), "p1", map[string]any{focus.FocusField: int64(42)}))
	require.Len(t, fake.recorded(), 1)
	req := fake.recorded()[0]
	assert.Equal(t, http.MethodPatch, req.Method)
	assert.Equal(t, "/v1/pages/p1", req.Path)
	got, _ := json.Marshal(req.Body)
	assert.JSONEq(t, `{"properties":{"focus":{"number":42}}}`, string(got))
}

func TestUpdateFields_UsesConfiguredPropertyName(t *testing.T) {
	fake := &fakeNotion{}
	fake.handle = func(w http.ResponseWriter, _ *http.Request, _ map[string]any) {
		writeJSON(w, http.StatusOK, `{}`)
	}
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)
	c, err := NewClient(Config{Token: "t", DatabaseID: "db", BaseURL: srv.URL, Properties: PropertyNames{Focus: "Minutes"}})
	require.NoError(t, err)

	require.NoError(t, c.UpdateFields(context.Background(), "p1", map[string]any{focus.FocusField: 5}))
	got, _ := json.Marshal(fake.recorded()[0].Body)
	assert.JSONEq(t, `{"properties":{"Minutes":{"number":5}}}`, string(got))
}

func TestErrorsRelayStoreDetail(t *testing.T) {
	fake := &fakeNotion{}
	fake.handle = func(w http.ResponseWriter, r *http.Request, _ map[string]any) {
		if r.Method == http.MethodPatch {
			w.Header().Set("Retry-After", "3")
			writeJSON(w, http.StatusTooManyRequests, `{"object":"error","status":429,"code":"rate_limited"}`)
			return
		}
		w.WriteHeader(http.StatusBadGateway)
		_, _ = io.WriteString(w, "<html>bad gateway</html>")
	}
	c := newTestClient(t, fake)

	_, err := c.Query(context.Background(), focus.RowFilter{})
	var rsErr *focus.RemoteStoreError
	require.True(t, errors.As(err, &rsErr))
	assert.Equal(t, "query", rsErr.Op)
	assert.Equal(t, http.StatusBadGateway, rsErr.Status)
	assert.JSONEq(t, `"<html>bad gateway</html>"`, string(rsErr.Detail))
	assert.ErrorIs(t, err, focus.ErrQueryFailed)

	err = c.UpdateFields(context.Background(), "p1", map[string]any{focus.FocusField: int64(1)})
	require.True(t, errors.As(err, &rsErr))
	assert.Equal(t, "update", rsErr.Op)
	assert.Equal(t, 3*time.Second, rsErr.RetryAfter)
	assert.JSONEq(t, `{"object":"error","status":429,"code":"rate_limited"}`, string(rsErr.Detail))
	assert.ErrorIs(t, err, focus.ErrUpdateFailed)
}

func TestSubjectOptions(t *testing.T) {
	fake := &fakeNotion{}
	fake.handle = func(w http.ResponseWriter, _ *http.Request, _ map[string]any) {
		writeJSON(w, http.StatusOK, `{"properties":{"subject":{"type":"select","select":{"options":[{"name":"Math"},{"name":"English"},{"name":" "}]}}}}`)
	}
	c := newTestClient(t, fake)

	subjects, err := c.SubjectOptions(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"Math", "English"}, subjects)
	assert.Equal(t, http.MethodGet, fake.recorded()[0].Method)
	assert.Equal(t, "/v1/databases/db1", fake.recorded()[0].Path)
}

func TestAccumulatorOverNotion(t *testing.T) {
	var mu sync.Mutex
	focusValue := 30.0
	fake := &fakeNotion{}
	fake.handle = func(w http.ResponseWriter, r *http.Request, body map[string]any) {
		mu.Lock()
		defer mu.Unlock()
		if r.Method == http.MethodPatch {
			props := body["properties"].(map[string]any)
			focusValue = props["focus"].(map[string]any)["number"].(float64)
			writeJSON(w, http.StatusOK, `{}`)
			return
		}
		out, _ := json.Marshal(map[string]any{
			"results": []any{map[string]any{
				"id": "p1",
				"properties": map[string]any{
					"day":     map[string]any{"date": map[string]any{"start": "2024-03-02"}},
					"subject": map[string]any{"select": map[string]any{"name": "Math"}},
					"focus":   map[string]any{"number": focusValue},
				},
			}},
		})
		writeJSON(w, http.StatusOK, string(out))
	}
	c := newTestClient(t, fake)
	acc := focus.NewStoreAccumulator(c, focus.MatchClientSide)
	window := focus.ResolveDayWindow(time.Date(2024, 3, 1, 16, 30, 0, 0, time.UTC))

	res, err := acc.Accumulate(context.Background(), window, "Math", focus.AccumulateRequest{Minutes: 7.9}.WholeMinutes())
	require.NoError(t, err)
	assert.Equal(t, int64(7), res.SavedMinutes)
	assert.Equal(t, int64(37), res.NewFocus)
	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 37.0, focusValue)
}

func TestParseRetryAfter(t *testing.T) {
	h := http.Header{}
	assert.Equal(t, time.Duration(0), parseRetryAfter(h))
	h.Set("Retry-After", "1.5")
	assert.Equal(t, 1500*time.Millisecond, parseRetryAfter(h))
	h.Set("Retry-After", "-2")
	assert.Equal(t, time.Duration(0), parseRetryAfter(h))
	h.Set("Retry-After", time.Now().Add(-time.Hour).UTC().Format(http.TimeFormat))
	assert.Equal(t, time.Duration(0), parseRetryAfter(h))
}
