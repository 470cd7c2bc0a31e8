package channel

import (
	"encoding/json"
	"log/slog"
)

// shapeMatcher extracts the model text from one known response layout.
// Matchers are tried in priority order; the first match wins.
type shapeMatcher struct {
	name    string
	extract func(map[string]any) (string, bool)
}

// responseShapes lists the response layouts used by serving backends:
// OpenAI chat, legacy completion, foundation-model predictions, direct
// output, and the generated_text variant.
var responseShapes = []shapeMatcher{
	{"chat_choice", extractChatChoice},
	{"completion_choice", extractCompletionChoice},
	{"predictions", extractPredictions},
	{"output", extractOutput},
	{"generated_text", extractGeneratedText},
}

// ExtractText pulls the single text payload out of a decoded endpoint
// response. Unknown layouts fall back to the re-serialized payload so the
// caller still has something to diagnose.
func ExtractText(payload map[string]any, logger *slog.Logger) string {
	for _, shape := range responseShapes {
		if text, ok := shape.extract(payload); ok {
			return text
		}
	}

	keys := make([]string, 0, len(payload))
	for k := range payload {
		keys = append(keys, k)
	}
	logger.Warn("unknown response format, returning raw payload", "keys", keys)

	raw, _ := json.Marshal(payload)
	return string(raw)
}

// {"choices": [{"message": {"content": "..."}}]}
func extractChatChoice(payload map[string]any) (string, bool) {
	choice, ok := firstChoice(payload)
	if !ok {
		return "", false
	}
	message, ok := choice["message"].(map[string]any)
	if !ok {
		return "", false
	}
	content, _ := message["content"].(string)
	return content, true
}

// {"choices": [{"text": "..."}]}
func extractCompletionChoice(payload map[string]any) (string, bool) {
	choice, ok := firstChoice(payload)
	if !ok {
		return "", false
	}
	text, ok := choice["text"].(string)
	return text, ok
}

// {"predictions": ["..."]}
// Foundation-model endpoints sometimes return a structured first element;
// anything that is not already a string is re-serialized.
func extractPredictions(payload map[string]any) (string, bool) {
	predictions, ok := payload["predictions"].([]any)
	if !ok || len(predictions) == 0 {
		return "", false
	}
	if text, ok := predictions[0].(string); ok {
		return text, true
	}
	raw, err := json.Marshal(predictions[0])
	if err != nil {
		return "", false
	}
	return string(raw), true
}

// {"output": "..."}
func extractOutput(payload map[string]any) (string, bool) {
	text, ok := payload["output"].(string)
	return text, ok
}

// {"generated_text": "..."}
func extractGeneratedText(payload map[string]any) (string, bool) {
	text, ok := payload["generated_text"].(string)
	return text, ok
}

func firstChoice(payload map[string]any) (map[string]any, bool) {
	choices, ok := payload["choices"].([]any)
	if !ok || len(choices) == 0 {
		return nil, false
	}
	choice, ok := choices[0].(map[string]any)
	return choice, ok
}
