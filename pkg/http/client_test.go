package http

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

func TestClientSendAndParse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.Equal(t, "test", r.Header.Get("X-Caller"))
		assert.Equal(t, "1", r.URL.Query().Get("v"))

		var in map[string]int
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&in))
		_ = json.NewEncoder(w).Encode(APIResponse{Status: 200, Message: "OK", Data: in["n"] * 2})
	}))
	defer srv.Close()

	c := NewClient(WithTimeout(time.Second), WithHeader("X-Caller", "test"))
	var out struct {
		Status int `json:"status"`
		Data   int `json:"data"`
	}
	err := c.SendAndParse(context.Background(), &RequestOptions{
		Method:      MethodPost,
		URL:         srv.URL,
		QueryParams: map[string][]string{"v": {"1"}},
		Body:        map[string]int{"n": 21},
	}, &out)
	require.NoError(t, err)
	assert.Equal(t, 200, out.Status)
	assert.Equal(t, 42, out.Data)
}

func TestClientNon2xx(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	err := NewClient().SendAndParse(context.Background(), &RequestOptions{Method: MethodGet, URL: srv.URL}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unexpected status 503: down")
}
