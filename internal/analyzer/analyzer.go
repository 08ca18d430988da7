// Package analyzer abstracts the remote content-analysis call that supplies
// supplementary tags for an uploaded photo. The provider is chosen by an
// explicit configuration value at construction time; there is no ambient
// environment-driven selection inside the package. Provider failures are
// expected and callers degrade to "no supplementary tags".
package analyzer

import (
	"context"
	"fmt"
	"strings"
	"time"

	"photovault/internal/config"
)

// Analyzer produces descriptive labels for an image.
type Analyzer interface {
	// Analyze returns up to maxLabels labels for the given image bytes.
	// The call is time-bounded by the configured timeout.
	Analyze(ctx context.Context, image []byte, mimeType string) ([]string, error)
}

// maxLabels caps how many labels a provider response contributes.
const maxLabels = 10

// defaultPrompt asks the model for short comma-separated labels only.
const defaultPrompt = "List 5 to 10 short descriptive labels for this photo, " +
	"covering scene type, main subjects, dominant colors and mood. " +
	"Return only the labels, comma separated, no other text."

// New constructs the analyzer selected by cfg.Provider.
func New(cfg config.AnalyzerConfig) (Analyzer, error) {
	switch cfg.Provider {
	case "", "none":
		return Disabled{}, nil
	case "openai":
		return newOpenAI(cfg), nil
	case "ollama":
		return newOllama(cfg), nil
	default:
		return nil, fmt.Errorf("unknown analyzer provider %q", cfg.Provider)
	}
}

// Disabled is the no-op analyzer used when no provider is configured.
type Disabled struct{}

// Analyze returns no labels.
func (Disabled) Analyze(ctx context.Context, image []byte, mimeType string) ([]string, error) {
	return nil, nil
}

// ParseLabels splits a provider response into trimmed labels, accepting
// both ASCII and full-width comma separators, capped at maxLabels.
func ParseLabels(text string) []string {
	text = strings.ReplaceAll(text, "，", ",")
	parts := strings.Split(text, ",")

	labels := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			labels = append(labels, p)
		}
		if len(labels) == maxLabels {
			break
		}
	}
	return labels
}

// withRetry runs fn up to attempts times with exponential backoff, stopping
// early when the context is done.
func withRetry(ctx context.Context, attempts int, fn func() error) error {
	var err error
	delay := time.Second
	for i := 0; i < attempts; i++ {
		if err = fn(); err == nil {
			return nil
		}
		if i == attempts-1 {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
		delay *= 2
	}
	return err
}
