package config

import "time"

// Recognizer defaults per provider
const (
	DefaultOpenAITimeout        = 120 * time.Second
	DefaultWhisperServerTimeout = 10 * time.Minute

	DefaultOpenAIRateLimitRPM   = 50
	DefaultOpenAIWorkers        = 4
	DefaultWhisperServerRPM     = 0
	DefaultWhisperServerWorkers = 1

	DefaultOpenAIMaxPayloadMB        = 25
	DefaultWhisperServerMaxPayloadMB = 100
)

// ProviderDefaults holds the defaults applied to an unset recognizer section
type ProviderDefaults struct {
	Timeout          time.Duration
	RateLimitRPM     int
	Workers          int
	MaxPayloadMB     int
	SupportedFormats []string
}

// GetProviderDefaults returns default configuration for a given provider type
func GetProviderDefaults(providerType string) ProviderDefaults {
	switch providerType {
	case "openai":
		return ProviderDefaults{
			Timeout:          DefaultOpenAITimeout,
			RateLimitRPM:     DefaultOpenAIRateLimitRPM,
			Workers:          DefaultOpenAIWorkers,
			MaxPayloadMB:     DefaultOpenAIMaxPayloadMB,
			SupportedFormats: []string{"mp3", "mp4", "m4a", "wav", "webm", "mpeg", "mpga"},
		}
	case "whisper_server":
		return ProviderDefaults{
			Timeout:          DefaultWhisperServerTimeout,
			RateLimitRPM:     DefaultWhisperServerRPM,
			Workers:          DefaultWhisperServerWorkers,
			MaxPayloadMB:     DefaultWhisperServerMaxPayloadMB,
			SupportedFormats: []string{"wav", "mp3", "flac", "ogg"},
		}
	default:
		return ProviderDefaults{
			Timeout:          60 * time.Second,
			Workers:          1,
			MaxPayloadMB:     25,
			SupportedFormats: []string{"wav", "mp3"},
		}
	}
}
