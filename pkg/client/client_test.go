package client

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc, opts ...Option) *Client {
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	c, err := NewClient(server.URL, opts...)
	require.NoError(t, err)
	return c
}

func TestNewClient(t *testing.T) {
	c, err := NewClient("http://api.example.com")
	require.NoError(t, err)
	assert.Equal(t, "http://api.example.com", c.baseURL)
}

func TestNewClientTrimsTrailingSlash(t *testing.T) {
	c, err := NewClient("http://api.example.com/")
	require.NoError(t, err)
	assert.Equal(t, "http://api.example.com", c.baseURL)
}

func TestNewClientValidation(t *testing.T) {
	_, err := NewClient("")
	assert.Error(t, err)

	_, err = NewClient("ftp://api.example.com")
	assert.Error(t, err)
}

func TestClientErrorResponse(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"code":"COMMON_003","message":"resource not found"}`))
	})

	_, err := c.Documents().Get(context.Background(), "missing")
	require.Error(t, err)

	apiErr, ok := err.(*APIError)
	require.True(t, ok, "expected *APIError, got %T", err)
	assert.Equal(t, "COMMON_003", apiErr.Code)
	assert.True(t, apiErr.IsNotFound())
	assert.False(t, apiErr.IsServerError())
}

func TestClientRetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"abc","file_name":"a.pdf"}`))
	}, WithRetryMax(3), WithRetryWait(time.Millisecond, 5*time.Millisecond))

	doc, err := c.Documents().Get(context.Background(), "abc")
	require.NoError(t, err)
	assert.Equal(t, "abc", doc.ID)
	assert.EqualValues(t, 3, calls.Load())
}

func TestClientDoesNotRetryClientErrors(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"code":"COMMON_002","message":"bad request"}`))
	}, WithRetryMax(3), WithRetryWait(time.Millisecond, 5*time.Millisecond))

	_, err := c.Documents().Get(context.Background(), "abc")
	require.Error(t, err)
	assert.EqualValues(t, 1, calls.Load())
}

func TestClientSetsHeaders(t *testing.T) {
	var gotUA, gotRequestID string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		gotRequestID = r.Header.Get("X-Request-ID")
		_, _ = w.Write([]byte(`{}`))
	}, WithUserAgent("clauselens-cli/1.0"))

	_, err := c.Documents().Get(context.Background(), "abc")
	require.NoError(t, err)
	assert.Equal(t, "clauselens-cli/1.0", gotUA)
	assert.NotEmpty(t, gotRequestID)
}

func TestClientContextCancellation(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	})

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := c.Documents().Get(ctx, "abc")
	assert.Error(t, err)
}
