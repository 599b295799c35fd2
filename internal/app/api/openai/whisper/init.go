package whisper

import (
	"fmt"

	openaiclient "take-my-dictation/internal/app/api/openai"
	"take-my-dictation/internal/app/api/provider"
)

func init() {
	// Register openai provider with the factory
	provider.RegisterProvider(providerName, createOpenAIRecognizer)
}

// createOpenAIRecognizer creates an OpenAI Whisper recognizer from settings
func createOpenAIRecognizer(settings provider.Settings) (provider.Recognizer, error) {
	if settings.APIKey == "" {
		return nil, fmt.Errorf("openai provider requires an API key (set OPENAI_API_KEY)")
	}

	client := openaiclient.NewClient(openaiclient.ClientOptions{
		APIKey:  settings.APIKey,
		BaseURL: settings.BaseURL,
		Timeout: settings.Timeout,
	})
	return NewRemoteRecognizer(client, Config{
		APIKey:   settings.APIKey,
		Model:    settings.Model,
		Language: settings.Language,
		Prompt:   settings.Prompt,
		BaseURL:  settings.BaseURL,
	}), nil
}
