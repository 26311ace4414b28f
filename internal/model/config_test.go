package model

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "993", cfg.Account.Port)
	assert.True(t, cfg.Account.TLS)
	assert.Equal(t, "Notes*", cfg.Account.FolderPattern)
	assert.Equal(t, "Notes", cfg.Account.DefaultFolder)
	assert.Equal(t, 120, cfg.Sync.TimeoutSec)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestLoadConfigFileAndEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
account:
  email: me@example.com
  host: imap.example.com
  tls: false
sync:
  timeout_sec: 0
`), 0o600))
	t.Setenv("NOTESYNC_ACCOUNT_PORT", "143")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "me@example.com", cfg.Account.Email)
	assert.Equal(t, "me@example.com", cfg.Account.Login())
	assert.Equal(t, "imap.example.com", cfg.Account.Host)
	assert.False(t, cfg.Account.TLS)
	assert.Equal(t, "143", cfg.Account.Port)
	assert.Equal(t, 120, cfg.Sync.TimeoutSec, "non-positive timeout falls back to the default")
}

func TestSaveConfigRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	cfg.Account.Email = "me@example.com"
	cfg.Account.Username = "me"
	cfg.Account.Host = "imap.example.com"
	require.NoError(t, SaveConfig(path, cfg))

	loaded, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, cfg.Account, loaded.Account)
	assert.Equal(t, "me", loaded.Account.Login())
}

func TestProfileDomain(t *testing.T) {
	assert.Equal(t, "example.com", Profile{Email: "me@example.com"}.Domain())
	assert.Equal(t, "mail.example.com", Profile{Email: "me@example.com", DomainOverride: "mail.example.com"}.Domain())
	assert.Equal(t, "localhost", Profile{Email: "me"}.Domain())
}
