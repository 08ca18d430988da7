package analyzer

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"photovault/internal/config"
)

// Ollama calls a local or remote Ollama generate endpoint with the image
// attached.
type Ollama struct {
	endpoint string
	model    string
	client   *http.Client
}

func newOllama(cfg config.AnalyzerConfig) *Ollama {
	endpoint := cfg.Endpoint
	if endpoint == "" {
		endpoint = "http://localhost:11434"
	}
	model := cfg.Model
	if model == "" {
		model = "llava"
	}
	return &Ollama{
		endpoint: strings.TrimRight(endpoint, "/"),
		model:    model,
		client:   &http.Client{Timeout: cfg.Timeout},
	}
}

type ollamaResponse struct {
	Response string `json:"response"`
}

// Analyze asks the model for comma-separated labels.
func (o *Ollama) Analyze(ctx context.Context, image []byte, mimeType string) ([]string, error) {
	body, err := json.Marshal(map[string]any{
		"model":  o.model,
		"prompt": defaultPrompt,
		"stream": false,
		"images": []string{base64.StdEncoding.EncodeToString(image)},
		"options": map[string]any{
			"temperature": 0.2,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("marshal request body: %w", err)
	}

	var labels []string
	err = withRetry(ctx, 3, func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.endpoint+"/api/generate", bytes.NewReader(body))
		if err != nil {
			return fmt.Errorf("create request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := o.client.Do(req)
		if err != nil {
			return fmt.Errorf("send request: %w", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			b, _ := io.ReadAll(resp.Body)
			return fmt.Errorf("received non-200 status code: %d - %s", resp.StatusCode, string(b))
		}

		var out ollamaResponse
		if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}

		labels = ParseLabels(out.Response)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return labels, nil
}
