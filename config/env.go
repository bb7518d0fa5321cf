package config

import (
	"os"
	"strings"
)

const (
	defaultWebhookURL = "http://localhost:5678/webhook/quick-commerce"
	defaultLLMModel   = "gpt-3.5-turbo"
)

// GetWebhookURL returns the automation endpoint that receives action payloads.
func GetWebhookURL() string {
	if v := strings.TrimSpace(os.Getenv("N8N_WEBHOOK_URL")); v != "" {
		return v
	}
	return defaultWebhookURL
}

// GetOpenAIKey returns the hosted-model credential; empty means the
// deterministic fallback responder is used.
func GetOpenAIKey() string {
	return strings.TrimSpace(os.Getenv("OPENAI_API_KEY"))
}

func GetLLMModel() string {
	if v := strings.TrimSpace(os.Getenv("OPENAI_MODEL")); v != "" {
		return v
	}
	return defaultLLMModel
}
