package client

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"plancraft/internal/history"
	"plancraft/internal/wizard"
)

func newTestClient(t *testing.T, handler http.HandlerFunc, opts Options) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	opts.BaseURL = server.URL
	c, err := New(context.Background(), opts)
	require.NoError(t, err)
	return c
}

func TestNewRejectsBadBaseURL(t *testing.T) {
	for _, base := range []string{"", "ftp://example.com", "://nope"} {
		_, err := New(context.Background(), Options{BaseURL: base})
		assert.Error(t, err, base)
	}
}

func TestFetchReferenceList(t *testing.T) {
	tests := []struct {
		name string
		body string
		want []Reference
	}{
		{
			name: "bare array with numeric ids",
			body: `[{"id": 5, "name": "Cart Suite", "type": "ui"}, {"id": 6, "name": "API Suite", "type": "api"}]`,
			want: []Reference{{ID: "5", Name: "Cart Suite", Type: "ui"}, {ID: "6", Name: "API Suite", Type: "api"}},
		},
		{
			name: "wrapped items with string ids",
			body: `{"items": [{"id": "tp-1", "name": "Checkout Flow"}], "total": 1}`,
			want: []Reference{{ID: "tp-1", Name: "Checkout Flow"}},
		},
		{
			name: "empty wrapper",
			body: `{}`,
			want: []Reference{},
		},
		{
			name: "null",
			body: `null`,
			want: []Reference{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, http.MethodGet, r.Method)
				assert.Equal(t, "/api/v1/test-suites", r.URL.Path)
				assert.Equal(t, "application/json", r.Header.Get("Accept"))
				w.Header().Set("Content-Type", "application/json")
				_, _ = io.WriteString(w, tt.body)
			}, Options{})

			got, err := c.FetchReferenceList(context.Background(), "test-suites")
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestReferenceIDRejectsObjects(t *testing.T) {
	var ref Reference
	assert.Error(t, json.Unmarshal([]byte(`{"id": {"x": 1}}`), &ref))
}

func TestSubmitEntityCreate(t *testing.T) {
	var gotBody map[string]interface{}
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/v1/test-plans", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		w.WriteHeader(http.StatusCreated)
		_, _ = io.WriteString(w, `{"id": 42, "name": "Checkout Flow"}`)
	}, Options{Token: "secret"})

	entity, err := c.SubmitEntity(context.Background(), "test-plans", map[string]interface{}{"name": "Checkout Flow", "pageLoadTimeout": 30}, wizard.ModeCreate, "")
	require.NoError(t, err)
	assert.Equal(t, ID("42"), entity.ID)
	assert.JSONEq(t, `{"id": 42, "name": "Checkout Flow"}`, string(entity.Raw))
	assert.Equal(t, map[string]interface{}{"name": "Checkout Flow", "pageLoadTimeout": float64(30)}, gotBody)
}

func TestSubmitEntityUpdate(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		assert.Equal(t, "/api/v1/schedules/s%2F1", r.URL.EscapedPath())
		w.WriteHeader(http.StatusNoContent)
	}, Options{})

	entity, err := c.SubmitEntity(context.Background(), "schedules", struct{}{}, wizard.ModeUpdate, "s/1")
	require.NoError(t, err)
	assert.Equal(t, ID("s/1"), entity.ID)

	_, err = c.SubmitEntity(context.Background(), "schedules", struct{}{}, wizard.ModeUpdate, "")
	assert.Error(t, err)
	_, err = c.SubmitEntity(context.Background(), "schedules", struct{}{}, "upsert", "")
	assert.Error(t, err)
}

func TestAPIErrors(t *testing.T) {
	tests := []struct {
		name        string
		status      int
		body        string
		wantMessage string
	}{
		{name: "message field", status: http.StatusBadRequest, body: `{"message": "name already taken"}`, wantMessage: "name already taken"},
		{name: "error field", status: http.StatusUnauthorized, body: `{"error": "token expired"}`, wantMessage: "token expired"},
		{name: "plain text", status: http.StatusBadGateway, body: "upstream down\n", wantMessage: "upstream down"},
		{name: "empty body", status: http.StatusServiceUnavailable, body: "", wantMessage: ""},
		{name: "long body is truncated", status: http.StatusInternalServerError, body: strings.Repeat("x", 600), wantMessage: strings.Repeat("x", 512) + "..."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = io.WriteString(w, tt.body)
			}, Options{})

			_, err := c.SubmitEntity(context.Background(), "test-plans", map[string]string{}, wizard.ModeCreate, "")
			var apiErr *APIError
			require.ErrorAs(t, err, &apiErr)
			assert.Equal(t, tt.status, apiErr.Status)
			assert.Equal(t, tt.wantMessage, apiErr.Message)
			assert.Contains(t, apiErr.Error(), "execution service returned")
		})
	}
}

func TestSubmitImplementsSubmitter(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"id": "sch-3"}`)
	}, Options{})

	var sub wizard.Submitter = c
	res, err := sub.Submit(context.Background(), wizard.SubmitRequest{Kind: "schedules", Mode: wizard.ModeCreate, Payload: map[string]string{}})
	require.NoError(t, err)
	assert.Equal(t, "sch-3", res.ID)
}

func TestGetEntity(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/test-plans/7" {
			w.WriteHeader(http.StatusNotFound)
			_, _ = io.WriteString(w, `{"message": "test plan not found"}`)
			return
		}
		_, _ = io.WriteString(w, `{"id": "7", "name": "Smoke"}`)
	}, Options{})

	var out struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	}
	require.NoError(t, c.GetEntity(context.Background(), "test-plans", "7", &out))
	assert.Equal(t, "Smoke", out.Name)

	err := c.GetEntity(context.Background(), "test-plans", "8", &out)
	assert.True(t, IsNotFound(err))
}

func TestListRuns(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/test-plans/12/runs", r.URL.Path)
		_, _ = io.WriteString(w, `{"items": [
			{"id": "r1", "testPlanId": "12", "status": "passed", "startedAt": "2026-10-01T12:00:00Z", "durationMs": 90000},
			{"id": "r2", "testPlanId": "12", "status": "failed", "startedAt": "2026-10-02T12:00:00Z", "durationMs": 30000}
		]}`)
	}, Options{})

	runs, err := c.ListRuns(context.Background(), "12")
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, time.Date(2026, 10, 2, 12, 0, 0, 0, time.UTC), runs[1].StartedAt.UTC())

	k := history.Summarize(runs)
	assert.Equal(t, 2, k.Total)
	assert.Equal(t, 50.0, k.PassRate)
	assert.Equal(t, time.Minute, k.AvgDuration)
}

func TestClientCredentialsGrant(t *testing.T) {
	var tokenRequests atomic.Int32
	mux := http.NewServeMux()
	mux.HandleFunc("/oauth/token", func(w http.ResponseWriter, r *http.Request) {
		tokenRequests.Add(1)
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "client_credentials", r.Form.Get("grant_type"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"access_token": "minted", "token_type": "Bearer", "expires_in": 3600}`)
	})
	mux.HandleFunc("/api/v1/test-plans", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer minted", r.Header.Get("Authorization"))
		_, _ = io.WriteString(w, `[]`)
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	c, err := New(context.Background(), Options{
		BaseURL:      server.URL,
		TokenURL:     server.URL + "/oauth/token",
		ClientID:     "plancraft",
		ClientSecret: "s3cret",
		Scopes:       []string{"plans:write"},
		HTTPClient:   server.Client(),
	})
	require.NoError(t, err)

	for i := 0; i < 2; i++ {
		_, err := c.FetchReferenceList(context.Background(), "test-plans")
		require.NoError(t, err)
	}
	assert.Equal(t, int32(1), tokenRequests.Load(), "token is cached between calls")
}

func TestContextCancellation(t *testing.T) {
	release := make(chan struct{})
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}, Options{})
	defer close(release)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := c.FetchReferenceList(ctx, "test-plans")
	assert.ErrorIs(t, err, context.Canceled)
}
