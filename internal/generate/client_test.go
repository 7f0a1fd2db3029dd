package generate

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(url string) *Client {
	return NewClient(ClientConfig{URL: url, APIKey: "secret", Attempts: 3, Delay: time.Millisecond}, nil, nil)
}

func TestTransform_SingleJSON(t *testing.T) {
	var got Request
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"transformedResume":"**Jane**","coverLetter":"Dear Team,","changesMade":["a"],"keywordsExtracted":["go"],"success":true}`))
	}))
	defer srv.Close()

	c := newTestClient(srv.URL)
	resp, err := c.Transform(context.Background(), Request{ResumeText: "cv", JobDescription: "jd", IsPremiumUser: true})
	require.NoError(t, err)

	assert.Equal(t, Request{ResumeText: "cv", JobDescription: "jd", IsPremiumUser: true}, got)
	assert.Equal(t, "**Jane**", resp.TransformedResume)
	assert.Equal(t, "Dear Team,", resp.CoverLetter)
	assert.Equal(t, []string{"a"}, resp.ChangesMade)
	assert.Equal(t, []string{"go"}, resp.KeywordsExtracted)
	assert.False(t, resp.FallbackMode)
	assert.Equal(t, 1, c.Stats().Snapshot().Count)
}

func TestTransform_NDJSONMerge(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/x-ndjson")
		_, _ = w.Write([]byte(
			`{"changesMade":["tightened summary"]}` + "\n" +
				`{"transformedResume":"# CV","keywordsExtracted":["kafka"]}` + "\n" +
				`{"coverLetter":"Dear Hiring Manager,","changesMade":["added metrics"],"success":true,"fallbackMode":true}` + "\n"))
	}))
	defer srv.Close()

	resp, err := newTestClient(srv.URL).Transform(context.Background(), Request{ResumeText: "cv"})
	require.NoError(t, err)
	assert.Equal(t, "# CV", resp.TransformedResume)
	assert.Equal(t, "Dear Hiring Manager,", resp.CoverLetter)
	assert.Equal(t, []string{"tightened summary", "added metrics"}, resp.ChangesMade)
	assert.Equal(t, []string{"kafka"}, resp.KeywordsExtracted)
	assert.True(t, resp.FallbackMode)
}

func TestTransform_RetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			http.Error(w, "busy", http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(`{"transformedResume":"ok","success":true}`))
	}))
	defer srv.Close()

	c := newTestClient(srv.URL)
	resp, err := c.Transform(context.Background(), Request{})
	require.NoError(t, err)
	assert.Equal(t, "ok", resp.TransformedResume)
	assert.Equal(t, int32(3), calls.Load())

	snap := c.Stats().Snapshot()
	assert.Equal(t, 3, snap.Count)
	assert.Equal(t, 2, snap.Failures)
}

func TestTransform_GivesUpAfterAttempts(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, "slow down", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL).Transform(context.Background(), Request{})
	require.Error(t, err)
	assert.True(t, IsRetryable(err))
	assert.Equal(t, int32(3), calls.Load())
}

func TestTransform_ClientErrorNotRetried(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, "bad input", http.StatusBadRequest)
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL).Transform(context.Background(), Request{})
	require.Error(t, err)
	assert.False(t, IsRetryable(err))
	assert.Contains(t, err.Error(), "400")
	assert.Equal(t, int32(1), calls.Load())
}

func TestTransform_UpstreamFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"success":false}`))
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL).Transform(context.Background(), Request{})
	assert.True(t, errors.Is(err, ErrUpstreamFailed))
}

func TestTransform_EmptyAndMalformedBodies(t *testing.T) {
	for _, body := range []string{"", "{not json"} {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(body))
		}))
		_, err := newTestClient(srv.URL).Transform(context.Background(), Request{})
		assert.Error(t, err, "body %q", body)
		srv.Close()
	}
}

func TestTransform_ContextCancelled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "busy", http.StatusBadGateway)
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := newTestClient(srv.URL).Transform(ctx, Request{})
	assert.Error(t, err)
}

func TestReconfigure(t *testing.T) {
	var auth atomic.Value
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth.Store(r.Header.Get("Authorization"))
		_, _ = w.Write([]byte(`{"success":true}`))
	}))
	defer srv.Close()

	c := NewClient(ClientConfig{}, nil, nil)
	assert.False(t, c.Enabled())

	c.Reconfigure(srv.URL, "rotated")
	assert.True(t, c.Enabled())
	_, err := c.Transform(context.Background(), Request{})
	require.NoError(t, err)
	assert.Equal(t, "Bearer rotated", auth.Load())
}
