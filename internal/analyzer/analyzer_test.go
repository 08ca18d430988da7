package analyzer

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"photovault/internal/config"
)

func TestNew(t *testing.T) {
	a, err := New(config.AnalyzerConfig{Provider: "none"})
	require.NoError(t, err)
	assert.IsType(t, Disabled{}, a)

	a, err = New(config.AnalyzerConfig{})
	require.NoError(t, err)
	assert.IsType(t, Disabled{}, a)

	a, err = New(config.AnalyzerConfig{Provider: "ollama"})
	require.NoError(t, err)
	assert.IsType(t, &Ollama{}, a)

	a, err = New(config.AnalyzerConfig{Provider: "openai"})
	require.NoError(t, err)
	assert.IsType(t, &OpenAI{}, a)

	_, err = New(config.AnalyzerConfig{Provider: "skynet"})
	assert.Error(t, err)
}

func TestDisabled(t *testing.T) {
	labels, err := Disabled{}.Analyze(context.Background(), []byte("img"), "image/jpeg")
	assert.NoError(t, err)
	assert.Empty(t, labels)
}

func TestParseLabels(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{
			name:  "plain comma separated",
			input: "sunset, beach, ocean",
			want:  []string{"sunset", "beach", "ocean"},
		},
		{
			name:  "full-width commas",
			input: "sunset，beach，ocean",
			want:  []string{"sunset", "beach", "ocean"},
		},
		{
			name:  "empty segments dropped",
			input: "a,, ,b",
			want:  []string{"a", "b"},
		},
		{
			name:  "capped at ten",
			input: "1,2,3,4,5,6,7,8,9,10,11,12",
			want:  []string{"1", "2", "3", "4", "5", "6", "7", "8", "9", "10"},
		},
		{
			name:  "empty input",
			input: "",
			want:  []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseLabels(tt.input))
		})
	}
}

func TestOllama_Analyze(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/generate", r.URL.Path)

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "llava", body["model"])
		assert.Equal(t, false, body["stream"])

		json.NewEncoder(w).Encode(map[string]string{"response": "city, street, night"})
	}))
	defer srv.Close()

	a, err := New(config.AnalyzerConfig{Provider: "ollama", Endpoint: srv.URL, Timeout: 5 * time.Second})
	require.NoError(t, err)

	labels, err := a.Analyze(context.Background(), []byte("fake image"), "image/jpeg")

	require.NoError(t, err)
	assert.Equal(t, []string{"city", "street", "night"}, labels)
}

func TestOpenAI_Analyze(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{
				{"message": map[string]any{"content": "mountain, snow, hiking"}},
			},
		})
	}))
	defer srv.Close()

	a, err := New(config.AnalyzerConfig{
		Provider: "openai",
		Endpoint: srv.URL,
		APIKey:   "test-key",
		Model:    "gpt-4o-mini",
		Timeout:  5 * time.Second,
	})
	require.NoError(t, err)

	labels, err := a.Analyze(context.Background(), []byte("fake image"), "image/png")

	require.NoError(t, err)
	assert.Equal(t, []string{"mountain", "snow", "hiking"}, labels)
}

func TestOllama_AnalyzeServerError(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	a, err := New(config.AnalyzerConfig{Provider: "ollama", Endpoint: srv.URL, Timeout: 5 * time.Second})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_, err = a.Analyze(ctx, []byte("fake image"), "image/jpeg")

	assert.Error(t, err)
	assert.Equal(t, 3, calls)
}
