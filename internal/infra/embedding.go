package infra

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

// ErrNoVector is returned when the embedding service answers without a vector.
var ErrNoVector = errors.New("embedding: service returned no vector")

// EmbeddingClient calls the image-embedding sidecar (POST /embed-image,
// multipart field "file", response {"vector": [...]}). Every call goes through
// the circuit breaker and is bounded by the client timeout.
type EmbeddingClient struct {
	httpClient *resty.Client
	cb         *CircuitBreaker
}

type embedResponse struct {
	Vector []float64 `json:"vector"`
}

func NewEmbeddingClient(baseURL string, timeout time.Duration, cb *CircuitBreaker) *EmbeddingClient {
	restyClient := resty.New()
	restyClient.
		SetBaseURL(strings.TrimSuffix(baseURL, "/")).
		SetTimeout(timeout)

	return &EmbeddingClient{httpClient: restyClient, cb: cb}
}

// EmbedImage returns the embedding vector of an image.
func (c *EmbeddingClient) EmbedImage(ctx context.Context, filename string, image []byte) ([]float64, error) {
	var vector []float64
	err := c.cb.Execute(ctx, func() error {
		result := new(embedResponse)
		resp, err := c.httpClient.R().
			SetContext(ctx).
			SetFileReader("file", filename, bytes.NewReader(image)).
			SetResult(result).
			Post("/embed-image")
		if err != nil {
			return fmt.Errorf("embedding: service unreachable: %w", err)
		}
		if resp.IsError() {
			return fmt.Errorf("embedding: service returned %d", resp.StatusCode())
		}
		if len(result.Vector) == 0 {
			return ErrNoVector
		}
		vector = result.Vector
		return nil
	})
	return vector, err
}

// State exposes the breaker state for the health endpoint.
func (c *EmbeddingClient) State() CBState { return c.cb.State() }
