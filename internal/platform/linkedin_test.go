package platform

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLinkedinPublisher(serverURL string) *LinkedinPublisher {
	p := NewLinkedinPublisher("test-token", "abc123")
	p.baseURL = serverURL
	return p
}

func TestLinkedinPublishSuccess(t *testing.T) {
	var gotAuth, gotProtocol string
	var gotPayload map[string]interface{}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotProtocol = r.Header.Get("X-Restli-Protocol-Version")
		json.NewDecoder(r.Body).Decode(&gotPayload)
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(map[string]string{"id": "urn:li:share:42"})
	}))
	defer server.Close()

	p := newTestLinkedinPublisher(server.URL)

	result, err := p.Publish(context.Background(), "Hello", "")
	require.NoError(t, err)
	assert.Equal(t, "urn:li:share:42", result.PostID)
	assert.Equal(t, "Bearer test-token", gotAuth)
	assert.Equal(t, "2.0.0", gotProtocol)
	assert.Equal(t, "urn:li:person:abc123", gotPayload["author"])
}

func TestLinkedinPublishFailureCarriesBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"message":"Invalid access token"}`))
	}))
	defer server.Close()

	p := newTestLinkedinPublisher(server.URL)

	_, err := p.Publish(context.Background(), "Hello", "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 401")
	assert.Contains(t, err.Error(), "Invalid access token")
}

func TestLinkedinTransportErrorBecomesFailure(t *testing.T) {
	p := newTestLinkedinPublisher("http://127.0.0.1:1")

	_, err := p.Publish(context.Background(), "Hello", "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "linkedin request failed")
}
