package auth_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robert-malhotra/go-cog/auth"
)

func TestAPIKeyTransport(t *testing.T) {
	var got http.Header
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Clone()
	}))
	t.Cleanup(server.Close)

	httpClient := &http.Client{Transport: &auth.APIKeyTransport{Key: "k123", Header: "X-Api-Key"}}
	_, err := httpClient.Get(server.URL)
	require.NoError(t, err)
	assert.Equal(t, "k123", got.Get("X-Api-Key"))
}

func TestAPIKeyTransportDefaultHeader(t *testing.T) {
	var got http.Header
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Clone()
	}))
	t.Cleanup(server.Close)

	httpClient := &http.Client{Transport: &auth.APIKeyTransport{Key: "k123"}}
	_, err := httpClient.Get(server.URL)
	require.NoError(t, err)
	assert.Equal(t, "k123", got.Get("Authorization"))
}

func TestBearerTokenTransport(t *testing.T) {
	var got http.Header
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Clone()
	}))
	t.Cleanup(server.Close)

	httpClient := &http.Client{Transport: &auth.BearerTokenTransport{Token: "tok"}}
	_, err := httpClient.Get(server.URL)
	require.NoError(t, err)
	assert.Equal(t, "Bearer tok", got.Get("Authorization"))
}
