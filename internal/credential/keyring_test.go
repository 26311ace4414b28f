package credential

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPasswordKey(t *testing.T) {
	assert.Equal(t, "imap-me@example.com", PasswordKey("me@example.com"))
}

func TestPasswordFromEnvironment(t *testing.T) {
	t.Setenv(PasswordEnv, "s3cret")

	pw, err := Password("me@example.com")
	require.NoError(t, err)
	assert.Equal(t, "s3cret", pw)
}
