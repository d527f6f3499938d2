package translate

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// MyMemoryClient uses the free MyMemory endpoint. MyMemory translates
// plain text only, so it fits short fields and smoke testing rather
// than full sections.
type MyMemoryClient struct {
	baseURL    string
	email      string
	httpClient *http.Client
}

func NewMyMemoryClient(email string) *MyMemoryClient {
	return &MyMemoryClient{
		baseURL: "https://api.mymemory.translated.net",
		email:   email,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

type myMemoryResponse struct {
	ResponseData struct {
		TranslatedText string `json:"translatedText"`
	} `json:"responseData"`
	ResponseStatus  json.Number `json:"responseStatus"`
	ResponseDetails string      `json:"responseDetails"`
}

// Translate sends one chunk and returns the translation.
func (c *MyMemoryClient) Translate(ctx context.Context, chunk string) (string, error) {
	q := url.Values{}
	q.Set("q", chunk)
	q.Set("langpair", "fr|nl")
	if c.email != "" {
		q.Set("de", c.email)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/get?"+q.Encode(), nil)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("mymemory: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("mymemory status %d: %s", resp.StatusCode, truncate(string(respBody), 200))
	}

	var apiResp myMemoryResponse
	if err := json.Unmarshal(respBody, &apiResp); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	if status, _ := apiResp.ResponseStatus.Int64(); status != 0 && status != 200 {
		return "", fmt.Errorf("mymemory error %d: %s", status, apiResp.ResponseDetails)
	}
	return apiResp.ResponseData.TranslatedText, nil
}

// Close releases resources.
func (c *MyMemoryClient) Close() {
	c.httpClient.CloseIdleConnections()
}
