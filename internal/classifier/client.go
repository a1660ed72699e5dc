package classifier

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"
)

// ErrUnavailable signals that the classification service could not produce a
// usable result: transport failure, timeout, non-2xx response, malformed
// body, or an explicit success=false.
var ErrUnavailable = errors.New("classifier unavailable")

// Prediction is a classification outcome. Confidence is a percentage in
// [0,100].
type Prediction struct {
	Category   string
	Confidence float64
}

// Classifier is the capability interface consumed by the department resolver.
type Classifier interface {
	Classify(ctx context.Context, text string) (Prediction, error)
}

// HTTPClient calls the external text-classification service over HTTP.
type HTTPClient struct {
	baseURL string
	client  *http.Client
}

// NewHTTPClient constructs a client against the service base URL. The timeout
// bounds the whole call so submissions never stall on a slow classifier.
func NewHTTPClient(baseURL string, timeout time.Duration) *HTTPClient {
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	return &HTTPClient{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
	}
}

type predictRequest struct {
	Text string `json:"text"`
}

type predictResponse struct {
	Success    bool    `json:"success"`
	Category   string  `json:"category"`
	Confidence float64 `json:"confidence"`
}

// Classify sends the text to the /predict endpoint and returns the reported
// category and confidence. Every failure mode collapses into ErrUnavailable.
func (c *HTTPClient) Classify(ctx context.Context, text string) (Prediction, error) {
	body, err := json.Marshal(predictRequest{Text: text})
	if err != nil {
		return Prediction{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/predict", bytes.NewReader(body))
	if err != nil {
		return Prediction{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return Prediction{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return Prediction{}, fmt.Errorf("%w: status %d", ErrUnavailable, resp.StatusCode)
	}

	var parsed predictResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return Prediction{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if !parsed.Success {
		return Prediction{}, fmt.Errorf("%w: service reported failure", ErrUnavailable)
	}

	return Prediction{
		Category:   parsed.Category,
		Confidence: clampConfidence(parsed.Confidence),
	}, nil
}

func clampConfidence(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
