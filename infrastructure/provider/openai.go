package provider

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"golang.org/x/sync/errgroup"

	"github.com/gitrag/gitrag/domain/search"
	"github.com/gitrag/gitrag/internal/config"
)

// maxConcurrentBatches bounds parallel embedding API calls.
const maxConcurrentBatches = 4

// OpenAIEmbedder generates embeddings through an OpenAI-compatible API.
// Texts are embedded in fixed-size batches, concurrently, preserving input
// order.
type OpenAIEmbedder struct {
	client        *openai.Client
	model         string
	batchSize     int
	maxRetries    int
	initialDelay  time.Duration
	backoffFactor float64
}

// OpenAIOption is a functional option for OpenAIEmbedder.
type OpenAIOption func(*OpenAIEmbedder)

// WithMaxRetries sets the maximum retry count.
func WithMaxRetries(n int) OpenAIOption {
	return func(e *OpenAIEmbedder) { e.maxRetries = n }
}

// WithInitialDelay sets the initial retry delay.
func WithInitialDelay(d time.Duration) OpenAIOption {
	return func(e *OpenAIEmbedder) { e.initialDelay = d }
}

// WithBackoffFactor sets the backoff multiplier.
func WithBackoffFactor(f float64) OpenAIOption {
	return func(e *OpenAIEmbedder) { e.backoffFactor = f }
}

// NewOpenAIEmbedder creates an embedder for the given endpoint and model. An
// empty model falls back to the endpoint's default model.
func NewOpenAIEmbedder(endpoint config.Endpoint, model string, opts ...OpenAIOption) *OpenAIEmbedder {
	cfg := openai.DefaultConfig(endpoint.APIKey())
	if endpoint.BaseURL() != "" {
		cfg.BaseURL = endpoint.BaseURL()
	}
	if endpoint.Timeout() > 0 {
		cfg.HTTPClient = &http.Client{Timeout: endpoint.Timeout()}
	}

	if model == "" {
		model = endpoint.Model()
	}

	e := &OpenAIEmbedder{
		client:        openai.NewClientWithConfig(cfg),
		model:         model,
		batchSize:     endpoint.BatchSize(),
		maxRetries:    5,
		initialDelay:  2 * time.Second,
		backoffFactor: 2.0,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Model returns the embedding model identifier.
func (e *OpenAIEmbedder) Model() string { return e.model }

// Embed generates one vector per input text, in input order.
func (e *OpenAIEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	out := make([][]float32, len(texts))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentBatches)

	for start := 0; start < len(texts); start += e.batchSize {
		end := start + e.batchSize
		if end > len(texts) {
			end = len(texts)
		}
		start, end := start, end

		g.Go(func() error {
			vectors, err := e.embedBatch(gctx, texts[start:end])
			if err != nil {
				return err
			}
			copy(out[start:end], vectors)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

func (e *OpenAIEmbedder) embedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	req := openai.EmbeddingRequest{
		Model: openai.EmbeddingModel(e.model),
		Input: texts,
	}

	var resp openai.EmbeddingResponse
	var err error

	err = e.withRetry(ctx, func() error {
		resp, err = e.client.CreateEmbeddings(ctx, req)
		if err != nil {
			return err
		}
		// Routing providers can return HTTP 200 with an error body that the
		// client library parses as an empty response.
		if len(resp.Data) == 0 && string(resp.Model) == "" && resp.Usage.TotalTokens == 0 {
			return fmt.Errorf("%w: empty response with zero usage", errUpstreamProviderFailure)
		}
		if len(resp.Data) != len(texts) {
			return fmt.Errorf("%w: got %d vectors for %d texts", errEmbeddingCountMismatch, len(resp.Data), len(texts))
		}
		return nil
	})
	if err != nil {
		return nil, e.wrapError("embedding", err)
	}

	vectors := make([][]float32, len(resp.Data))
	for i, data := range resp.Data {
		vectors[i] = data.Embedding
	}
	return vectors, nil
}

// withRetry executes the function with exponential backoff retry.
func (e *OpenAIEmbedder) withRetry(ctx context.Context, fn func() error) error {
	delay := e.initialDelay
	var lastErr error

	for attempt := 0; attempt <= e.maxRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		lastErr = fn()
		if lastErr == nil {
			return nil
		}
		if !isRetryable(lastErr) {
			return lastErr
		}

		if attempt < e.maxRetries {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
				delay = time.Duration(float64(delay) * e.backoffFactor)
			}
		}
	}
	return fmt.Errorf("max retries exceeded: %w", lastErr)
}

func isRetryable(err error) bool {
	if errors.Is(err, errEmbeddingCountMismatch) {
		return true
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.HTTPStatusCode {
		case http.StatusTooManyRequests,
			http.StatusInternalServerError,
			http.StatusBadGateway,
			http.StatusServiceUnavailable,
			http.StatusGatewayTimeout:
			return true
		}
	}

	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return true
	}

	return false
}

func (e *OpenAIEmbedder) wrapError(operation string, err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return NewProviderError(operation, apiErr.HTTPStatusCode, apiErr.Message, err)
	}

	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return NewProviderError(operation, reqErr.HTTPStatusCode, reqErr.Error(), err)
	}

	return NewProviderError(operation, 0, err.Error(), err)
}

var _ search.Embedder = (*OpenAIEmbedder)(nil)
