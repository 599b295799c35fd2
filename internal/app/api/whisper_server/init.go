package whisper_server

import (
	"fmt"

	"take-my-dictation/internal/app/api/provider"
)

func init() {
	provider.RegisterProvider(providerName, createWhisperServerProvider)
}

func createWhisperServerProvider(settings provider.Settings) (provider.Recognizer, error) {
	if settings.BaseURL == "" {
		return nil, fmt.Errorf("whisper_server provider requires a base_url")
	}
	return NewWhisperServerProvider(WhisperServerConfig{
		BaseURL:       settings.BaseURL,
		Timeout:       settings.Timeout,
		Language:      settings.Language,
		Prompt:        settings.Prompt,
		CustomHeaders: settings.Headers,
	}), nil
}
