// ABOUTME: Tests for the backend adapter and the stub, HTTP and OpenAI backends
// ABOUTME: Remote services are simulated with httptest servers

package backend

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/2389/rag-gateway/internal/config"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type backendFunc func(ctx context.Context, req Request) (Answer, error)

func (f backendFunc) Answer(ctx context.Context, req Request) (Answer, error) { return f(ctx, req) }

func TestStub_EchoesQuestionAndID(t *testing.T) {
	ans, err := Stub{}.Answer(context.Background(), Request{ID: "r1", ThreadKey: "Web/s(t)", Question: "hi"})
	require.NoError(t, err)
	assert.Equal(t, Answer{ID: "r1", Answer: "hi"}, ans)
}

func TestAdapter_PassesRequestThrough(t *testing.T) {
	var seen Request
	a := NewAdapter(backendFunc(func(ctx context.Context, req Request) (Answer, error) {
		seen = req
		return Answer{ID: "backend-id", Answer: "42"}, nil
	}), time.Second, testLogger())

	req := Request{ID: "r1", ThreadKey: "Public/7(t1)", Question: "hi"}
	ans, err := a.Answer(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, req, seen)
	assert.Equal(t, Answer{ID: "backend-id", Answer: "42"}, ans)
}

func TestAdapter_WrapsErrors(t *testing.T) {
	a := NewAdapter(backendFunc(func(ctx context.Context, req Request) (Answer, error) {
		return Answer{}, errors.New("model exploded")
	}), time.Second, testLogger())

	_, err := a.Answer(context.Background(), Request{ID: "r1"})
	assert.ErrorIs(t, err, ErrBackendUnavailable)
	assert.Contains(t, err.Error(), "model exploded")
}

func TestAdapter_Timeout(t *testing.T) {
	a := NewAdapter(backendFunc(func(ctx context.Context, req Request) (Answer, error) {
		<-ctx.Done()
		return Answer{}, ctx.Err()
	}), 20*time.Millisecond, testLogger())

	start := time.Now()
	_, err := a.Answer(context.Background(), Request{ID: "r1"})
	assert.ErrorIs(t, err, ErrBackendUnavailable)
	assert.Less(t, time.Since(start), 2*time.Second)
}

func TestHTTP_RoundTrip(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "r1", body["id"])
		assert.Equal(t, "Bot/42(main)", body["thread_id"])
		assert.Equal(t, "what is rag?", body["question"])

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"srv-1","answer":"retrieval augmented generation"}`))
	}))
	defer srv.Close()

	ans, err := NewHTTP(srv.URL, srv.Client()).Answer(context.Background(), Request{
		ID: "r1", ThreadKey: "Bot/42(main)", Question: "what is rag?",
	})
	require.NoError(t, err)
	assert.Equal(t, Answer{ID: "srv-1", Answer: "retrieval augmented generation"}, ans)
}

func TestHTTP_Failures(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{
			name: "server error",
			handler: func(w http.ResponseWriter, r *http.Request) {
				http.Error(w, "boom", http.StatusInternalServerError)
			},
		},
		{
			name: "bad json",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte("not json"))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(tt.handler)
			defer srv.Close()

			_, err := NewHTTP(srv.URL, srv.Client()).Answer(context.Background(), Request{ID: "r1"})
			assert.Error(t, err)
		})
	}
}

func TestHTTP_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	a := NewAdapter(NewHTTP(url, nil), time.Second, testLogger())
	_, err := a.Answer(context.Background(), Request{ID: "r1"})
	assert.ErrorIs(t, err, ErrBackendUnavailable)
}

func TestOpenAI_Completion(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)

		var body struct {
			Model    string `json:"model"`
			User     string `json:"user"`
			Messages []struct {
				Role    string `json:"role"`
				Content string `json:"content"`
			} `json:"messages"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "test-model", body.Model)
		assert.Equal(t, "Web/s(t1)", body.User)
		require.Len(t, body.Messages, 2)
		assert.Equal(t, "system", body.Messages[0].Role)
		assert.Equal(t, "be brief", body.Messages[0].Content)
		assert.Equal(t, "user", body.Messages[1].Role)
		assert.Equal(t, "hi", body.Messages[1].Content)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"id": "chatcmpl-1",
			"object": "chat.completion",
			"model": "test-model",
			"choices": [{"index": 0, "message": {"role": "assistant", "content": "hello"}, "finish_reason": "stop"}]
		}`))
	}))
	defer srv.Close()

	o := NewOpenAI("sk-test", srv.URL+"/v1", "test-model", "be brief")
	ans, err := o.Answer(context.Background(), Request{ID: "r1", ThreadKey: "Web/s(t1)", Question: "hi"})
	require.NoError(t, err)
	assert.Equal(t, Answer{ID: "r1", Answer: "hello"}, ans)
}

func TestOpenAI_NoChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id": "chatcmpl-1", "object": "chat.completion", "choices": []}`))
	}))
	defer srv.Close()

	o := NewOpenAI("sk-test", srv.URL+"/v1", "test-model", "")
	_, err := o.Answer(context.Background(), Request{ID: "r1", Question: "hi"})
	assert.ErrorIs(t, err, errEmptyCompletion)
}

func TestFromConfig(t *testing.T) {
	b, err := FromConfig(config.BackendConfig{Kind: config.BackendStub})
	require.NoError(t, err)
	assert.IsType(t, Stub{}, b)

	b, err = FromConfig(config.BackendConfig{Kind: config.BackendHTTP, HTTP: config.HTTPBackendConfig{URL: "http://x"}})
	require.NoError(t, err)
	assert.IsType(t, &HTTP{}, b)

	b, err = FromConfig(config.BackendConfig{Kind: config.BackendOpenAI, OpenAI: config.OpenAIBackendConfig{APIKey: "k", Model: "m"}})
	require.NoError(t, err)
	assert.IsType(t, &OpenAI{}, b)

	_, err = FromConfig(config.BackendConfig{Kind: "magic"})
	assert.Error(t, err)
}
