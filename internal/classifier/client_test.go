package classifier_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/complaint-portal/internal/classifier"
)

func TestClassifySuccess(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/predict", r.URL.Path)

		var req map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "garbage on the road", req["text"])

		_ = json.NewEncoder(w).Encode(map[string]any{
			"success":    true,
			"category":   "Sanitation Department",
			"confidence": 91.3,
		})
	}))
	defer server.Close()

	client := classifier.NewHTTPClient(server.URL, time.Second)
	prediction, err := client.Classify(context.Background(), "garbage on the road")
	require.NoError(t, err)
	assert.Equal(t, "Sanitation Department", prediction.Category)
	assert.Equal(t, 91.3, prediction.Confidence)
}

func TestClassifyReportedFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"success": false, "error": "no text provided"})
	}))
	defer server.Close()

	client := classifier.NewHTTPClient(server.URL, time.Second)
	_, err := client.Classify(context.Background(), "anything")
	assert.ErrorIs(t, err, classifier.ErrUnavailable)
}

func TestClassifyServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	client := classifier.NewHTTPClient(server.URL, time.Second)
	_, err := client.Classify(context.Background(), "anything")
	assert.ErrorIs(t, err, classifier.ErrUnavailable)
}

func TestClassifyMalformedBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("not json"))
	}))
	defer server.Close()

	client := classifier.NewHTTPClient(server.URL, time.Second)
	_, err := client.Classify(context.Background(), "anything")
	assert.ErrorIs(t, err, classifier.ErrUnavailable)
}

func TestClassifyUnreachable(t *testing.T) {
	client := classifier.NewHTTPClient("http://127.0.0.1:1", 200*time.Millisecond)
	_, err := client.Classify(context.Background(), "anything")
	assert.ErrorIs(t, err, classifier.ErrUnavailable)
}

func TestClassifyTimeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-time.After(2 * time.Second):
		case <-r.Context().Done():
		}
	}))
	defer server.Close()

	client := classifier.NewHTTPClient(server.URL, 100*time.Millisecond)
	_, err := client.Classify(context.Background(), "anything")
	assert.ErrorIs(t, err, classifier.ErrUnavailable)
}

func TestClassifyClampsConfidence(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"success":    true,
			"category":   "Water Department",
			"confidence": 140.0,
		})
	}))
	defer server.Close()

	client := classifier.NewHTTPClient(server.URL, time.Second)
	prediction, err := client.Classify(context.Background(), "pipe burst")
	require.NoError(t, err)
	assert.Equal(t, 100.0, prediction.Confidence)
}
