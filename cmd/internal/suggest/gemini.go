// Package suggest generates reply suggestions for chat messages using
// Google's Gemini generative language API, with a fixed fallback set so
// callers always receive usable suggestions regardless of API health.
package suggest

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"
)

const defaultGeminiURL = "https://generativelanguage.googleapis.com/v1beta/models/gemini-pro:generateContent"

const defaultGeminiTimeout = 15 * time.Second

// ErrNoAPIKey is returned by Generate when no API key is configured.
var ErrNoAPIKey = errors.New("suggest: gemini api key not configured")

// ErrQuotaExhausted is returned by Generate when the API reports the
// key's quota is spent.
var ErrQuotaExhausted = errors.New("suggest: gemini quota exhausted")

// Generator produces raw model output for a prompt.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// GeminiGenerator calls the Gemini REST API directly.
type GeminiGenerator struct {
	apiKey  string
	baseURL string
	client  *http.Client
}

// GeminiOption configures a GeminiGenerator.
type GeminiOption func(*GeminiGenerator)

// WithBaseURL overrides the Gemini endpoint, mainly for tests.
func WithBaseURL(u string) GeminiOption {
	return func(g *GeminiGenerator) {
		if strings.TrimSpace(u) != "" {
			g.baseURL = u
		}
	}
}

// WithHTTPClient overrides the HTTP client used for API calls.
func WithHTTPClient(c *http.Client) GeminiOption {
	return func(g *GeminiGenerator) {
		if c != nil {
			g.client = c
		}
	}
}

// NewGeminiGenerator constructs a generator with the given API key.
// An empty key is allowed; Generate then fails and the gateway falls
// back to its generic pool.
func NewGeminiGenerator(apiKey string, timeout time.Duration, opts ...GeminiOption) *GeminiGenerator {
	if timeout <= 0 {
		timeout = defaultGeminiTimeout
	}
	g := &GeminiGenerator{
		apiKey:  strings.TrimSpace(apiKey),
		baseURL: defaultGeminiURL,
		client:  &http.Client{Timeout: timeout},
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// NewGeminiGeneratorFromEnv reads BS_GEMINI_API_KEY, BS_GEMINI_API_URL
// and BS_GEMINI_TIMEOUT.
func NewGeminiGeneratorFromEnv() *GeminiGenerator {
	timeout := defaultGeminiTimeout
	if raw := strings.TrimSpace(os.Getenv("BS_GEMINI_TIMEOUT")); raw != "" {
		if d, err := time.ParseDuration(raw); err == nil && d > 0 {
			timeout = d
		}
	}
	return NewGeminiGenerator(
		os.Getenv("BS_GEMINI_API_KEY"),
		timeout,
		WithBaseURL(os.Getenv("BS_GEMINI_API_URL")),
	)
}

type geminiRequest struct {
	Contents         []geminiContent  `json:"contents"`
	GenerationConfig generationConfig `json:"generationConfig"`
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text string `json:"text"`
}

type generationConfig struct {
	Temperature     float64 `json:"temperature"`
	TopK            int     `json:"topK"`
	TopP            float64 `json:"topP"`
	MaxOutputTokens int     `json:"maxOutputTokens"`
}

type geminiResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

// Generate sends the prompt to Gemini and returns the first candidate's
// text. Sampling parameters match what the chat product was tuned with.
func (g *GeminiGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	if g.apiKey == "" {
		return "", ErrNoAPIKey
	}

	body, err := json.Marshal(geminiRequest{
		Contents: []geminiContent{{Parts: []geminiPart{{Text: prompt}}}},
		GenerationConfig: generationConfig{
			Temperature:     0.7,
			TopK:            40,
			TopP:            0.95,
			MaxOutputTokens: 1024,
		},
	})
	if err != nil {
		return "", fmt.Errorf("suggest: marshal request: %w", err)
	}

	endpoint := g.baseURL + "?key=" + url.QueryEscape(g.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("suggest: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("suggest: call gemini: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		if resp.StatusCode == http.StatusTooManyRequests {
			return "", ErrQuotaExhausted
		}
		return "", fmt.Errorf("suggest: gemini returned status %d", resp.StatusCode)
	}

	var out geminiResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("suggest: decode response: %w", err)
	}
	if len(out.Candidates) == 0 || len(out.Candidates[0].Content.Parts) == 0 {
		return "", errors.New("suggest: gemini response has no candidates")
	}
	return out.Candidates[0].Content.Parts[0].Text, nil
}
