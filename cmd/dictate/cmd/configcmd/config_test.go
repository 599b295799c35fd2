package configcmd

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMaskSecret(t *testing.T) {
	assert.Equal(t, "sk-t...7890", maskSecret("sk-test-key-1234567890"))
	assert.Equal(t, "********", maskSecret("short"))
}
