package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const credentialsFile = "credentials.json"

// ErrNoAPIKey is returned when no key is configured for a provider.
var ErrNoAPIKey = errors.New("API key not found in environment or credentials file")

// apiKeyEnv lists the environment variables checked for each provider, in order.
var apiKeyEnv = map[string][]string{
	ProviderGemini: {"GEMINI_API_KEY", "GOOGLE_API_KEY"},
	ProviderOpenAI: {"OPENAI_API_KEY"},
}

// readJSONFile reads a JSON file and unmarshals it into the provided variable.
func readJSONFile(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	return json.Unmarshal(data, v)
}

// APIKey retrieves the key for provider from environment variables or the credentials file.
// The scripted provider needs no key.
func APIKey(provider string) (string, error) {
	if provider == ProviderScripted {
		return "", nil
	}

	// Check environment variables first - fast path
	for _, name := range apiKeyEnv[provider] {
		if key := strings.TrimSpace(os.Getenv(name)); key != "" {
			return key, nil
		}
	}

	configDir, err := Dir()
	if err != nil {
		return "", fmt.Errorf("failed to get config path: %w", err)
	}

	var creds map[string]any
	if err := readJSONFile(filepath.Join(configDir, credentialsFile), &creds); err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("%s: %w", provider, ErrNoAPIKey)
		}
		return "", fmt.Errorf("failed to read credentials: %w", err)
	}

	if key := extractAPIKey(creds, provider); key != "" {
		return key, nil
	}
	return "", fmt.Errorf("%s: %w", provider, ErrNoAPIKey)
}

// extractAPIKey helps extract the key from credentials data of the form
// {"gemini": {"api_key": "..."}}.
func extractAPIKey(creds map[string]any, provider string) string {
	for name, data := range creds {
		if !strings.EqualFold(name, provider) {
			continue
		}

		entry, ok := data.(map[string]any)
		if !ok {
			continue
		}

		if key, ok := entry["api_key"].(string); ok && key != "" {
			return key
		}
	}
	return ""
}
