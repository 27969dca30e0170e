package llm

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/cenkalti/backoff/v4"
	"google.golang.org/genai"

	"postpilot/config"
	"postpilot/logger"
)

// Gemini is the production Client backed by google.golang.org/genai.
type Gemini struct {
	client     *genai.Client
	modelName  string
	maxRetries uint64
}

// NewGemini builds the Gemini client from config. GEMINI_API_KEY must be set.
func NewGemini(ctx context.Context, cfg config.LLMConfig) (*Gemini, error) {
	apiKey := os.Getenv("GEMINI_API_KEY")
	if apiKey == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY environment variable is not set")
	}
	if cfg.Provider != "google" {
		return nil, fmt.Errorf("unsupported LLM provider: %s", cfg.Provider)
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey: apiKey,
	})
	if err != nil {
		return nil, err
	}
	return &Gemini{
		client:     client,
		modelName:  cfg.ModelName,
		maxRetries: uint64(cfg.MaxRetries),
	}, nil
}

// GenerateJSON sends one prompt and returns the raw response text. Transport
// failures are retried with exponential backoff up to the configured cap;
// a malformed response body is the caller's problem, never retried here.
func (g *Gemini) GenerateJSON(ctx context.Context, systemInstruction, prompt string) (string, error) {
	cfg := &genai.GenerateContentConfig{
		SystemInstruction: &genai.Content{Parts: []*genai.Part{{Text: systemInstruction}}},
		ResponseMIMEType:  "application/json",
	}

	var text string
	operation := func() error {
		start := time.Now()
		result, err := g.client.Models.GenerateContent(ctx, g.modelName, genai.Text(prompt), cfg)
		if err != nil {
			logger.Log.Warnf("llm call failed, may retry: %v", err)
			return err
		}
		if result.UsageMetadata != nil {
			logger.Log.Infof("llm call completed model=%s latency_ms=%d input_tokens=%d output_tokens=%d",
				g.modelName,
				time.Since(start).Milliseconds(),
				result.UsageMetadata.PromptTokenCount,
				result.UsageMetadata.CandidatesTokenCount,
			)
		}
		text = result.Text()
		return nil
	}

	policy := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewExponentialBackOff(), g.maxRetries),
		ctx,
	)
	if err := backoff.Retry(operation, policy); err != nil {
		return "", fmt.Errorf("llm call failed after retries: %w", err)
	}
	return text, nil
}
