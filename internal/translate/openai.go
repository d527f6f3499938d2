package translate

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// DefaultSystemPrompt instructs the model to keep markup and numbers
// intact while translating into Belgian Dutch.
const DefaultSystemPrompt = "You are a professional translator. Translate from French to Dutch (Belgium). " +
	"Preserve HTML structure, bullet lists, tables and numbers. Keep a neutral finance tone. " +
	"Return only the translated HTML."

// OpenAIClient calls the OpenAI chat completions API for translation.
type OpenAIClient struct {
	apiKey       string
	model        string
	baseURL      string
	systemPrompt string
	httpClient   *http.Client
}

func NewOpenAIClient(apiKey, model, systemPrompt string) *OpenAIClient {
	if systemPrompt == "" {
		systemPrompt = DefaultSystemPrompt
	}
	return &OpenAIClient{
		apiKey:       apiKey,
		model:        model,
		baseURL:      "https://api.openai.com/v1",
		systemPrompt: systemPrompt,
		httpClient: &http.Client{
			Timeout: 120 * time.Second,
		},
	}
}

type openAIMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type openAIRequest struct {
	Model       string          `json:"model"`
	Messages    []openAIMessage `json:"messages"`
	Temperature float64         `json:"temperature"`
}

type openAIResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}

// Translate sends one chunk and returns the translated HTML.
func (c *OpenAIClient) Translate(ctx context.Context, chunk string) (string, error) {
	reqBody := openAIRequest{
		Model: c.model,
		Messages: []openAIMessage{
			{Role: "system", Content: c.systemPrompt},
			{Role: "user", Content: chunk},
		},
		Temperature: 0.2,
	}
	body, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("openai api: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("openai api status %d: %s", resp.StatusCode, truncate(string(respBody), 200))
	}

	var apiResp openAIResponse
	if err := json.Unmarshal(respBody, &apiResp); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	if apiResp.Error != nil {
		return "", fmt.Errorf("openai error: %s: %s", apiResp.Error.Type, apiResp.Error.Message)
	}
	if len(apiResp.Choices) == 0 {
		return "", fmt.Errorf("empty response from openai")
	}
	return strings.TrimSpace(apiResp.Choices[0].Message.Content), nil
}

// Close releases resources.
func (c *OpenAIClient) Close() {
	c.httpClient.CloseIdleConnections()
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
