package config

import (
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

// newValidator reports fields by their YAML names
func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("yaml"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// ValidationError lists every invalid field of a pipeline file
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+" "+e.Fields[k])
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Validate checks struct tags first, then the rules that span fields
func (f *PipelineFile) Validate() error {
	if err := validate.Struct(f); err != nil {
		validationErrs, ok := err.(validator.ValidationErrors)
		if !ok {
			return err
		}
		fields := make(map[string]string)
		for _, fieldError := range validationErrs {
			fields[fieldName(fieldError.Namespace())] = describe(fieldError)
		}
		return &ValidationError{Fields: fields}
	}

	if f.Retry.MaxAttempts > len(f.Retry.Parameters) {
		return &ValidationError{Fields: map[string]string{
			"retry.max_attempts": fmt.Sprintf("must not exceed the %d configured parameters", len(f.Retry.Parameters)),
		}}
	}
	if f.Retry.BackoffMax < f.Retry.BackoffInitial {
		return &ValidationError{Fields: map[string]string{"retry.backoff_max": "must not be below backoff_initial"}}
	}
	if f.Recognizer.Provider == "whisper_server" {
		if err := ValidateURL(f.Recognizer.BaseURL, "whisper_server"); err != nil {
			return &ValidationError{Fields: map[string]string{"recognizer.base_url": err.Error()}}
		}
	}
	// An unexpanded ${VAR} reference is checked once it has been resolved.
	if f.Recognizer.Provider == "openai" && f.Recognizer.APIKey != "" && !strings.HasPrefix(f.Recognizer.APIKey, "${") {
		if err := ValidateAPIKey(f.Recognizer.APIKey, "OpenAI"); err != nil {
			return &ValidationError{Fields: map[string]string{"recognizer.api_key": err.Error()}}
		}
	}
	return nil
}

func describe(fieldError validator.FieldError) string {
	switch fieldError.Tag() {
	case "required":
		return "is required"
	case "required_if":
		return "is required when " + strings.Replace(strings.ToLower(fieldError.Param()), " ", " is ", 1)
	case "oneof":
		return "must be one of: " + fieldError.Param()
	case "min":
		return "needs at least " + fieldError.Param() + " value(s)"
	case "url":
		return "must be a valid URL"
	case "gte", "lte", "gt", "lt":
		return fmt.Sprintf("must be %s %s", comparisons[fieldError.Tag()], fieldError.Param())
	case "gtefield", "gtfield":
		return "must be at least " + fieldError.Param()
	default:
		return "is invalid"
	}
}

var comparisons = map[string]string{"gte": ">=", "lte": "<=", "gt": ">", "lt": "<"}

// fieldName drops the root type from "PipelineFile.retry.backoff_initial"
func fieldName(namespace string) string {
	if i := strings.Index(namespace, "."); i >= 0 {
		return namespace[i+1:]
	}
	return namespace
}

// ValidateAPIKey validates API key format
func ValidateAPIKey(apiKey string, keyType string) error {
	if apiKey == "" {
		return fmt.Errorf("%s API key is required", keyType)
	}

	switch keyType {
	case "OpenAI":
		if !strings.HasPrefix(apiKey, "sk-") {
			return fmt.Errorf("must start with 'sk-'")
		}
		if len(apiKey) < 20 {
			return fmt.Errorf("too short")
		}
	}
	return nil
}

// ValidateURL validates URL format
func ValidateURL(url string, name string) error {
	if url == "" {
		return fmt.Errorf("%s URL is required", name)
	}
	if !strings.HasPrefix(url, "http://") && !strings.HasPrefix(url, "https://") {
		return fmt.Errorf("%s URL must start with http:// or https://", name)
	}
	return nil
}
