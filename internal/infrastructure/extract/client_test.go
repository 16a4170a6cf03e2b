package extract

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mealsense/backend/internal/domain"
)

func TestNewClient(t *testing.T) {
	client := NewClient("https://extract.example.com", "test-api-key", 10*time.Second, 30)

	assert.NotNil(t, client)
	assert.Equal(t, "https://extract.example.com", client.baseURL)
	assert.Equal(t, "test-api-key", client.apiKey)
	assert.Equal(t, 10*time.Second, client.httpClient.Timeout)
	assert.NotNil(t, client.rateLimiter)
	assert.False(t, client.debug)
}

func TestNewClient_Defaults(t *testing.T) {
	client := NewClient("https://extract.example.com", "", 0, 0)

	assert.Equal(t, 30*time.Second, client.httpClient.Timeout)
	assert.NotNil(t, client.rateLimiter)
}

func TestSetDebug(t *testing.T) {
	client := NewClient("https://extract.example.com", "key", 0, 0)

	assert.False(t, client.debug)
	client.SetDebug(true)
	assert.True(t, client.debug)
}

func TestExtract_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1/extract", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.Equal(t, "Bearer test-api-key", r.Header.Get("Authorization"))
		assert.Equal(t, "MealSense/1.0", r.Header.Get("User-Agent"))

		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		var payload map[string]string
		require.NoError(t, json.Unmarshal(body, &payload))
		assert.Equal(t, "nasi lemak and teh tarik", payload["text"])
		_, hasImage := payload["image_base64"]
		assert.False(t, hasImage)

		io.WriteString(w, `{"foods":[{"name":"nasi lemak"}]}`)
	}))
	defer server.Close()

	client := NewClient(server.URL, "test-api-key", 5*time.Second, 60)
	raw, err := client.Extract(context.Background(), domain.ExtractionInput{Text: "nasi lemak and teh tarik"})

	require.NoError(t, err)
	assert.Equal(t, `{"foods":[{"name":"nasi lemak"}]}`, raw)
}

func TestExtract_NoAuthHeaderWithoutKey(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.Header.Get("Authorization"))
		io.WriteString(w, `{}`)
	}))
	defer server.Close()

	client := NewClient(server.URL, "", 5*time.Second, 60)
	_, err := client.Extract(context.Background(), domain.ExtractionInput{Text: "laksa"})

	require.NoError(t, err)
}

func TestExtract_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	client := NewClient(server.URL, "key", 5*time.Second, 60)
	_, err := client.Extract(context.Background(), domain.ExtractionInput{Text: "laksa"})

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrExtractionUnavailable)
	assert.Contains(t, err.Error(), "status 502")
}

func TestExtract_TransportError(t *testing.T) {
	// Point at a server that is already closed.
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close()

	client := NewClient(server.URL, "key", 2*time.Second, 60)
	_, err := client.Extract(context.Background(), domain.ExtractionInput{Text: "laksa"})

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrExtractionUnavailable)
}

func TestExtract_ContextCancelled(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer server.Close()

	client := NewClient(server.URL, "key", 5*time.Second, 60)
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := client.Extract(ctx, domain.ExtractionInput{Text: "laksa"})
	require.Error(t, err)
}
