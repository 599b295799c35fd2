package provider

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"take-my-dictation/internal/app/errors"
)

// Settings is the provider-neutral configuration handed to a ProviderCreator.
type Settings struct {
	APIKey   string
	Model    string
	BaseURL  string
	Language string
	Prompt   string
	Timeout  time.Duration
	Headers  map[string]string
}

// ProviderCreator is a function that creates a recognizer from configuration
type ProviderCreator func(settings Settings) (Recognizer, error)

// providerRegistry stores provider creation functions
var (
	providerRegistry = make(map[string]ProviderCreator)
	registryMutex    sync.RWMutex
)

// RegisterProvider registers a provider creator function. Adapters call it
// from init so importing the package is enough to make it selectable.
func RegisterProvider(providerType string, creator ProviderCreator) {
	registryMutex.Lock()
	defer registryMutex.Unlock()
	providerRegistry[providerType] = creator
}

// GetProviderCreator returns the creator function for a provider type
func GetProviderCreator(providerType string) (ProviderCreator, error) {
	registryMutex.RLock()
	defer registryMutex.RUnlock()

	creator, ok := providerRegistry[providerType]
	if !ok {
		return nil, errors.Wrapf(errors.ErrProviderNotFound, "provider type %q not registered", providerType)
	}
	return creator, nil
}

// CreateRecognizer looks up and invokes the creator for providerType
func CreateRecognizer(providerType string, settings Settings) (Recognizer, error) {
	creator, err := GetProviderCreator(providerType)
	if err != nil {
		return nil, err
	}
	recognizer, err := creator(settings)
	if err != nil {
		return nil, fmt.Errorf("create %s recognizer: %w", providerType, err)
	}
	if v, ok := recognizer.(Validator); ok {
		if err := v.ValidateConfiguration(); err != nil {
			return nil, fmt.Errorf("%s configuration invalid: %w", providerType, err)
		}
	}
	return recognizer, nil
}

// ListRegisteredProviders returns all registered provider types, sorted
func ListRegisteredProviders() []string {
	registryMutex.RLock()
	defer registryMutex.RUnlock()

	providers := make([]string, 0, len(providerRegistry))
	for providerType := range providerRegistry {
		providers = append(providers, providerType)
	}
	sort.Strings(providers)
	return providers
}
