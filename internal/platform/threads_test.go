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

type threadsTestServer struct {
	*httptest.Server
	containerCalls int
	publishCalls   int
	lastContainer  map[string]string
	failContainer  bool
}

func newThreadsTestServer() *threadsTestServer {
	ts := &threadsTestServer{}
	ts.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/me/threads":
			ts.containerCalls++
			json.NewDecoder(r.Body).Decode(&ts.lastContainer)
			if ts.failContainer {
				w.WriteHeader(http.StatusBadRequest)
				w.Write([]byte(`{"error":{"message":"invalid media"}}`))
				return
			}
			json.NewEncoder(w).Encode(map[string]string{"id": "container-1"})
		case "/me/threads_publish":
			ts.publishCalls++
			json.NewEncoder(w).Encode(map[string]string{"id": "post-99"})
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	return ts
}

func newTestThreadsPublisher(serverURL string) *ThreadsPublisher {
	p := NewThreadsPublisher("test-token")
	p.baseURL = serverURL
	return p
}

func TestThreadsPublishTwoPhase(t *testing.T) {
	server := newThreadsTestServer()
	defer server.Close()

	p := newTestThreadsPublisher(server.URL)

	result, err := p.Publish(context.Background(), "hello threads", "")
	require.NoError(t, err)
	assert.Equal(t, "post-99", result.PostID)
	assert.Equal(t, 1, server.containerCalls)
	assert.Equal(t, 1, server.publishCalls)
}

func TestThreadsMediaTypeInference(t *testing.T) {
	server := newThreadsTestServer()
	defer server.Close()

	p := newTestThreadsPublisher(server.URL)

	_, err := p.Publish(context.Background(), "text only", "")
	require.NoError(t, err)
	assert.Equal(t, "TEXT", server.lastContainer["media_type"])
	assert.Empty(t, server.lastContainer["image_url"])

	_, err = p.Publish(context.Background(), "with media", "https://cdn.example.com/pic.jpg")
	require.NoError(t, err)
	assert.Equal(t, "IMAGE", server.lastContainer["media_type"])
	assert.Equal(t, "https://cdn.example.com/pic.jpg", server.lastContainer["image_url"])
}

func TestThreadsContainerFailureShortCircuits(t *testing.T) {
	server := newThreadsTestServer()
	defer server.Close()
	server.failContainer = true

	p := newTestThreadsPublisher(server.URL)

	_, err := p.Publish(context.Background(), "doomed", "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid media")
	assert.Equal(t, 1, server.containerCalls)
	assert.Equal(t, 0, server.publishCalls, "publish step must not run after a container failure")
}

func TestThreadsTransportErrorBecomesFailure(t *testing.T) {
	p := newTestThreadsPublisher("http://127.0.0.1:1")

	_, err := p.Publish(context.Background(), "unreachable", "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to create media container")
}
