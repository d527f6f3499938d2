package translate

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// LibreClient talks to a LibreTranslate instance. LibreTranslate
// accepts an html format flag, so chunks go through unescaped.
type LibreClient struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

func NewLibreClient(baseURL, apiKey string) *LibreClient {
	return &LibreClient{
		baseURL: baseURL,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
	}
}

type libreRequest struct {
	Q      string `json:"q"`
	Source string `json:"source"`
	Target string `json:"target"`
	Format string `json:"format"`
	APIKey string `json:"api_key,omitempty"`
}

type libreResponse struct {
	TranslatedText string `json:"translatedText"`
	Error          string `json:"error"`
}

// Translate sends one chunk and returns the translated HTML.
func (c *LibreClient) Translate(ctx context.Context, chunk string) (string, error) {
	body, err := json.Marshal(libreRequest{
		Q:      chunk,
		Source: "fr",
		Target: "nl",
		Format: "html",
		APIKey: c.apiKey,
	})
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/translate", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("libretranslate: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("libretranslate status %d: %s", resp.StatusCode, truncate(string(respBody), 200))
	}

	var apiResp libreResponse
	if err := json.Unmarshal(respBody, &apiResp); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	if apiResp.Error != "" {
		return "", fmt.Errorf("libretranslate error: %s", apiResp.Error)
	}
	return apiResp.TranslatedText, nil
}

// Close releases resources.
func (c *LibreClient) Close() {
	c.httpClient.CloseIdleConnections()
}
