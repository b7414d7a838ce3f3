package wom

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atayl16/siege-clan-tracker/pkg/config"
)

func TestPlayerByIDDecodesObject(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/players/id/42", r.URL.Path)
		assert.Equal(t, "test-agent", r.Header.Get("User-Agent"))
		assert.Equal(t, "secret", r.Header.Get("x-api-key"))
		_, _ = w.Write([]byte(`{"id":42,"ehb":650.5,"latestSnapshot":{"data":{"skills":{"attack":{"experience":4600000000}}}}}`))
	}))
	defer srv.Close()

	client := NewClient(config.WOMConfig{BaseURL: srv.URL + "/", UserAgent: "test-agent", APIKey: "secret"})
	doc, err := client.PlayerByID(context.Background(), 42)
	require.NoError(t, err)
	require.NotNil(t, doc)
	assert.Equal(t, json.Number("42"), doc["id"])

	snap := doc["latestSnapshot"].(map[string]interface{})
	attack := snap["data"].(map[string]interface{})["skills"].(map[string]interface{})["attack"].(map[string]interface{})
	assert.Equal(t, json.Number("4600000000"), attack["experience"])
}

func TestPlayerByUsernameEscapesPath(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/players/iron man", r.URL.Path)
		_, _ = w.Write([]byte(`{"username":"iron man"}`))
	}))
	defer srv.Close()

	client := NewClient(config.WOMConfig{BaseURL: srv.URL})
	doc, err := client.PlayerByUsername(context.Background(), " iron man ")
	require.NoError(t, err)
	assert.Equal(t, "iron man", doc["username"])
}

func TestNotFoundIsStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"message":"Player not found."}`))
	}))
	defer srv.Close()

	client := NewClient(config.WOMConfig{BaseURL: srv.URL})
	_, err := client.PlayerByID(context.Background(), 7)
	require.Error(t, err)
	assert.True(t, IsNotFound(err))
}

func TestMalformedBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[1,2,3]`))
	}))
	defer srv.Close()

	client := NewClient(config.WOMConfig{BaseURL: srv.URL})
	_, err := client.PlayerByID(context.Background(), 7)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrMalformedPayload))
}

func TestOversizedBodyIsNotMalformed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"latestSnapshot":{"data":{"skills":{"attack":{"experience":1000}}}}}`))
	}))
	defer srv.Close()

	client := NewClient(config.WOMConfig{BaseURL: srv.URL}, WithMaxBodyBytes(16))
	_, err := client.PlayerByID(context.Background(), 7)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrBodyTooLarge))
	assert.False(t, errors.Is(err, ErrMalformedPayload))

	exact := NewClient(config.WOMConfig{BaseURL: srv.URL}, WithMaxBodyBytes(int64(len(`{"latestSnapshot":{"data":{"skills":{"attack":{"experience":1000}}}}}`))))
	doc, err := exact.PlayerByID(context.Background(), 7)
	require.NoError(t, err)
	assert.Contains(t, doc, "latestSnapshot")
}

func TestTimeoutSurfacesError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	client := NewClient(config.WOMConfig{BaseURL: srv.URL, Timeout: 20 * time.Millisecond})
	_, err := client.PlayerByID(context.Background(), 7)
	require.Error(t, err)
	assert.False(t, IsNotFound(err))
	assert.False(t, errors.Is(err, ErrMalformedPayload))
}
