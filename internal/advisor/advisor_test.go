package advisor_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"go-leave/internal/advisor"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClient_Advise(t *testing.T) {
	ctx := context.Background()

	t.Run("success", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/v1/chat/completions", r.URL.Path)
			assert.Equal(t, "Bearer k", r.Header.Get("Authorization"))

			var body map[string]any
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			msgs := body["messages"].([]any)
			assert.Contains(t, msgs[0].(map[string]any)["content"], "HR officer")
			assert.Equal(t, "Employee: Eve", msgs[1].(map[string]any)["content"])

			w.Write([]byte(`{"choices":[{"message":{"content":"  - looks fine  "}}]}`))
		}))
		defer srv.Close()

		c := advisor.NewClient(advisor.Config{BaseURL: srv.URL + "/v1", APIKey: "k"})
		assert.Equal(t, "- looks fine", c.Advise(ctx, "Employee: Eve", "hr"))
	})

	cases := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{"non 2xx", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusTooManyRequests) }},
		{"empty choices", func(w http.ResponseWriter, r *http.Request) { w.Write([]byte(`{"choices":[]}`)) }},
		{"garbage", func(w http.ResponseWriter, r *http.Request) { w.Write([]byte(`<html>`)) }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			srv := httptest.NewServer(tc.handler)
			defer srv.Close()

			c := advisor.NewClient(advisor.Config{BaseURL: srv.URL, APIKey: "k"})
			out := c.Advise(ctx, "ctx", "manager")
			assert.True(t, strings.HasPrefix(out, advisor.UnavailablePrefix), out)
		})
	}

	t.Run("missing key", func(t *testing.T) {
		c := advisor.NewClient(advisor.Config{})
		assert.True(t, strings.HasPrefix(c.Advise(ctx, "ctx", "manager"), advisor.UnavailablePrefix))
	})

	t.Run("transport error", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
		url := srv.URL
		srv.Close()

		c := advisor.NewClient(advisor.Config{BaseURL: url, APIKey: "k"})
		assert.True(t, strings.HasPrefix(c.Advise(ctx, "ctx", "manager"), advisor.UnavailablePrefix))
	})
}
