package tracker

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestJira(t *testing.T, handler http.HandlerFunc) *JiraClient {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	return NewJiraClient(JiraConfig{
		BaseURL:       server.URL + "/",
		Username:      "svc-poker",
		APIToken:      "secret",
		EstimateField: "customfield_10205",
		Timeout:       2 * time.Second,
	})
}

func TestJiraClient_CanEditItem(t *testing.T) {
	t.Run("returns true when user is listed", func(t *testing.T) {
		client := newTestJira(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodGet, r.Method)
			assert.Equal(t, "/rest/api/2/user/permission/search", r.URL.Path)
			assert.Equal(t, "EDIT_ISSUES", r.URL.Query().Get("permissions"))
			assert.Equal(t, "PROJ-1", r.URL.Query().Get("issueKey"))
			assert.Equal(t, "alice", r.URL.Query().Get("username"))

			user, pass, ok := r.BasicAuth()
			assert.True(t, ok)
			assert.Equal(t, "svc-poker", user)
			assert.Equal(t, "secret", pass)

			json.NewEncoder(w).Encode([]map[string]string{{"key": "alice", "name": "alice"}})
		})

		ok, err := client.CanEditItem(context.Background(), "alice", "PROJ-1")
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("returns false when user is missing", func(t *testing.T) {
		client := newTestJira(t, func(w http.ResponseWriter, r *http.Request) {
			json.NewEncoder(w).Encode([]map[string]string{})
		})

		ok, err := client.CanEditItem(context.Background(), "bob", "PROJ-1")
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("anonymous never edits", func(t *testing.T) {
		client := newTestJira(t, func(w http.ResponseWriter, r *http.Request) {
			t.Error("no request expected for anonymous identity")
		})

		ok, err := client.CanEditItem(context.Background(), "", "PROJ-1")
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("surfaces jira errors", func(t *testing.T) {
		client := newTestJira(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
			w.Write([]byte("boom"))
		})

		_, err := client.CanEditItem(context.Background(), "alice", "PROJ-1")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "500")
	})
}

func TestJiraClient_SetEstimate(t *testing.T) {
	t.Run("puts the estimate into the custom field", func(t *testing.T) {
		var body map[string]map[string]float64
		client := newTestJira(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodPut, r.Method)
			assert.Equal(t, "/rest/api/2/issue/PROJ-7", r.URL.Path)
			assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
			assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			w.WriteHeader(http.StatusNoContent)
		})

		err := client.SetEstimate(context.Background(), "PROJ-7", 8.5)
		require.NoError(t, err)
		assert.Equal(t, 8.5, body["fields"]["customfield_10205"])
	})

	t.Run("fails on non 2xx status", func(t *testing.T) {
		client := newTestJira(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadRequest)
			w.Write([]byte(`{"errors":{"customfield_10205":"Field cannot be set"}}`))
		})

		err := client.SetEstimate(context.Background(), "PROJ-7", 3)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "Field cannot be set")
	})
}

func TestStaticTracker(t *testing.T) {
	ctx := context.Background()

	t.Run("empty allow-list lets identified users edit", func(t *testing.T) {
		tr := NewStaticTracker(nil)

		ok, err := tr.CanEditItem(ctx, "alice", "PROJ-1")
		require.NoError(t, err)
		assert.True(t, ok)

		ok, err = tr.CanEditItem(ctx, "", "PROJ-1")
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("allow-list restricts editors", func(t *testing.T) {
		tr := NewStaticTracker([]string{"alice"})

		ok, _ := tr.CanEditItem(ctx, "alice", "PROJ-1")
		assert.True(t, ok)
		ok, _ = tr.CanEditItem(ctx, "bob", "PROJ-1")
		assert.False(t, ok)
	})

	t.Run("records estimates", func(t *testing.T) {
		tr := NewStaticTracker(nil)

		require.NoError(t, tr.SetEstimate(ctx, "PROJ-1", 5))
		v, ok := tr.Estimate("PROJ-1")
		assert.True(t, ok)
		assert.Equal(t, float64(5), v)

		_, ok = tr.Estimate("PROJ-2")
		assert.False(t, ok)
	})
}
