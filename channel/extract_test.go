package channel

import (
	"io"
	"log/slog"
	"strings"
	"testing"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestExtractText(t *testing.T) {
	tests := []struct {
		name     string
		payload  map[string]any
		expected string
	}{
		{
			name: "chat choice",
			payload: map[string]any{
				"choices": []any{
					map[string]any{"message": map[string]any{"content": "chat response"}},
				},
			},
			expected: "chat response",
		},
		{
			name: "completion choice",
			payload: map[string]any{
				"choices": []any{
					map[string]any{"text": "completion response"},
				},
			},
			expected: "completion response",
		},
		{
			name:     "predictions",
			payload:  map[string]any{"predictions": []any{"prediction response"}},
			expected: "prediction response",
		},
		{
			name:     "non-string prediction is serialized",
			payload:  map[string]any{"predictions": []any{map[string]any{"summary": "nested"}}},
			expected: `{"summary":"nested"}`,
		},
		{
			name:     "output",
			payload:  map[string]any{"output": "output response"},
			expected: "output response",
		},
		{
			name:     "generated text",
			payload:  map[string]any{"generated_text": "generated response"},
			expected: "generated response",
		},
		{
			name: "chat shape wins over generated text",
			payload: map[string]any{
				"choices": []any{
					map[string]any{"message": map[string]any{"content": "from chat"}},
				},
				"generated_text": "from fallback",
			},
			expected: "from chat",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ExtractText(tt.payload, discardLogger()); got != tt.expected {
				t.Errorf("ExtractText = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestExtractTextUnknownShape(t *testing.T) {
	payload := map[string]any{"mystery": "value"}

	got := ExtractText(payload, discardLogger())
	if !strings.Contains(got, "mystery") {
		t.Errorf("unknown shape should fall back to raw payload, got %q", got)
	}
}
