package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetAPIKeys(t *testing.T) {
	testCases := []struct {
		name          string
		openaiKey     string
		expectError   bool
		errorContains string
	}{
		{
			name:      "valid OpenAI key",
			openaiKey: "sk-1234567890abcdef1234567890abcdef",
		},
		{
			name:      "surrounding whitespace is trimmed",
			openaiKey: "  sk-1234567890abcdef1234567890abcdef \n",
		},
		{
			name:          "invalid OpenAI key format",
			openaiKey:     "invalid-key",
			expectError:   true,
			errorContains: "invalid OPENAI_API_KEY format",
		},
		{
			name:          "OpenAI key too short",
			openaiKey:     "sk-short",
			expectError:   true,
			errorContains: "too short",
		},
		{
			name:      "empty key is allowed",
			openaiKey: "",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Setenv(EnvOpenAIKey, tc.openaiKey)

			keys, err := GetAPIKeys()
			if tc.expectError {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tc.errorContains)
				return
			}
			require.NoError(t, err)
			assert.NotContains(t, keys.OpenAI, " ")
		})
	}
}

func TestRequireOpenAIKey(t *testing.T) {
	assert.Error(t, RequireOpenAIKey(nil))
	assert.Error(t, RequireOpenAIKey(&APIKeys{}))
	assert.NoError(t, RequireOpenAIKey(&APIKeys{OpenAI: "sk-1234567890abcdef1234"}))
}

func TestLoadEnv(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)

	path, err := LoadEnv()
	require.NoError(t, err)
	assert.Empty(t, path, "no .env present")

	t.Setenv("DICTATE_TEST_VALUE", "")
	require.NoError(t, os.Unsetenv("DICTATE_TEST_VALUE"))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("DICTATE_TEST_VALUE=from-dotenv\n"), 0o600))

	path, err = LoadEnv()
	require.NoError(t, err)
	assert.Equal(t, ".env", path)
	assert.Equal(t, "from-dotenv", os.Getenv("DICTATE_TEST_VALUE"))
}

func TestExpandEnv(t *testing.T) {
	t.Setenv("DICTATE_TEST_URL", "http://gpu-box:8080")
	assert.Equal(t, "http://gpu-box:8080", expandEnv("${DICTATE_TEST_URL}"))
	assert.Equal(t, "literal", expandEnv("literal"))
	assert.Equal(t, "prefix-${DICTATE_TEST_URL}", expandEnv("prefix-${DICTATE_TEST_URL}"))
}

func chdir(t *testing.T, dir string) {
	t.Helper()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })
}
