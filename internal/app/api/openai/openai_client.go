package openai

import (
	"net/http"
	"time"

	"github.com/sashabaranov/go-openai"
)

// ClientOptions configures an OpenAI API client.
type ClientOptions struct {
	APIKey  string
	BaseURL string
	// Timeout bounds a whole HTTP exchange. The pipeline sets tighter
	// per-attempt deadlines through the request context.
	Timeout time.Duration
}

// NewClient builds a go-openai client for the given options.
func NewClient(opts ClientOptions) *openai.Client {
	config := openai.DefaultConfig(opts.APIKey)
	if opts.BaseURL != "" {
		config.BaseURL = opts.BaseURL
	}
	if opts.Timeout > 0 {
		config.HTTPClient = &http.Client{Timeout: opts.Timeout}
	}
	return openai.NewClientWithConfig(config)
}
