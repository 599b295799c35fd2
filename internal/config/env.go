package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

// Environment variables read by the CLI
const (
	EnvOpenAIKey        = "OPENAI_API_KEY"
	EnvWhisperServerURL = "WHISPER_SERVER_URL"
	EnvConfigPath       = "DICTATE_CONFIG_PATH"
)

// APIKeys holds all API keys loaded from environment
type APIKeys struct {
	OpenAI string
}

// envPaths are searched in order; the first existing file wins.
var envPaths = []string{
	".env",
	".env.local",
	"../.env",
	"../../.env",
}

// LoadEnv loads environment variables from the first .env file found and
// returns its path, or "" when none exists. Variables already set in the
// process environment are not overridden.
func LoadEnv() (string, error) {
	for _, envPath := range envPaths {
		if _, err := os.Stat(envPath); err == nil {
			if err := godotenv.Load(envPath); err != nil {
				return "", fmt.Errorf("error loading %s file: %w", envPath, err)
			}
			return envPath, nil
		}
	}
	return "", nil
}

// GetAPIKeys retrieves and validates API keys from environment variables.
// A missing key is not an error here; RequireOpenAIKey enforces presence.
func GetAPIKeys() (*APIKeys, error) {
	apiKeys := &APIKeys{
		OpenAI: strings.TrimSpace(os.Getenv(EnvOpenAIKey)),
	}
	if apiKeys.OpenAI != "" {
		if err := ValidateAPIKey(apiKeys.OpenAI, "OpenAI"); err != nil {
			return nil, fmt.Errorf("invalid %s format: %w", EnvOpenAIKey, err)
		}
	}
	return apiKeys, nil
}

// RequireOpenAIKey fails fast when the hosted recognizer is selected without a key
func RequireOpenAIKey(apiKeys *APIKeys) error {
	if apiKeys == nil || apiKeys.OpenAI == "" {
		return fmt.Errorf("the openai recognizer requires an API key - set %s in the environment or a .env file", EnvOpenAIKey)
	}
	return nil
}

// expandEnv resolves a whole-value ${VAR} reference, leaving other strings untouched.
func expandEnv(value string) string {
	if strings.HasPrefix(value, "${") && strings.HasSuffix(value, "}") {
		return os.Getenv(strings.TrimSuffix(strings.TrimPrefix(value, "${"), "}"))
	}
	return value
}
