package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/cliplens/cliplens/internal/config"
)

// summarySystemPrompt fixes the structural contract of every summary: a very
// short lead paragraph, 3-5 bullet takeaways, and an optional one-line bonus
// insight.
const summarySystemPrompt = `You are a concise content summarizer. Structure your summaries exactly as follows:
1. One VERY short paragraph (MAX 2 SHORT sentences) highlighting the main message
2. A single bulleted list of key takeaways (3-5 points)
3. (Optional) One "Bonus Insight" at the end - only if there's a particularly noteworthy observation or implication worth mentioning. Max one SHORT sentence.

Keep the tone conversational but professional. Use bold text only for the optional "Bonus:" prefix if included.`

// OpenAISummarizer produces summaries via the chat-completions HTTP API.
type OpenAISummarizer struct {
	endpoint    string
	model       string
	apiKey      string
	maxTokens   int
	temperature float64
	client      *http.Client
}

// NewOpenAISummarizer creates a summarizer from config. The API key is read
// from the environment variable named by cfg.APIKeyEnv.
func NewOpenAISummarizer(cfg config.SummarizerConfig) (*OpenAISummarizer, error) {
	keyEnv := cfg.APIKeyEnv
	if keyEnv == "" {
		keyEnv = "OPENAI_API_KEY"
	}

	apiKey := os.Getenv(keyEnv)
	if apiKey == "" {
		return nil, fmt.Errorf("%s environment variable not set", keyEnv)
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}

	return &OpenAISummarizer{
		endpoint:    cfg.Endpoint,
		model:       cfg.Model,
		apiKey:      apiKey,
		maxTokens:   cfg.MaxTokens,
		temperature: cfg.Temperature,
		client:      &http.Client{Timeout: timeout},
	}, nil
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

// Summarize sends the transcript to the language model under the fixed
// structural prompt.
func (s *OpenAISummarizer) Summarize(ctx context.Context, text string) (string, error) {
	reqBody := chatRequest{
		Model: s.model,
		Messages: []chatMessage{
			{Role: "system", Content: summarySystemPrompt},
			{Role: "user", Content: "Please summarize the following transcript: " + text},
		},
		Temperature: s.temperature,
		MaxTokens:   s.maxTokens,
	}

	body, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("failed to marshal summary request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to create summary request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.apiKey)

	resp, err := s.client.Do(req)
	if err != nil {
		return "", &SummarizationError{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", &SummarizationError{
			Err: fmt.Errorf("summarizer API returned status %d: %s", resp.StatusCode, string(respBody)),
		}
	}

	var result chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", &SummarizationError{Err: fmt.Errorf("failed to decode summary response: %w", err)}
	}

	if len(result.Choices) == 0 || result.Choices[0].Message.Content == "" {
		return "", &SummarizationError{Err: fmt.Errorf("summarizer API returned no choices")}
	}

	return result.Choices[0].Message.Content, nil
}
