package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("TPMJS_CONFIG_PATH", t.TempDir())

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "https://registry.npmjs.org", cfg.NPMRegistryURL)
	assert.Equal(t, "tpmjs-tool", cfg.RegistryKeyword)
	assert.Equal(t, 100, cfg.APIListLimitMax)
	assert.Equal(t, "default", cfg.Source("registry_keyword"))
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("TPMJS_CONFIG_PATH", dir)

	content := `
registry_keyword: my-tools
sync_workers: 3
rate_limit_max_requests: 10
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, ConfigFileName), []byte(content), 0o644))

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "my-tools", cfg.RegistryKeyword)
	assert.Equal(t, 3, cfg.SyncWorkers)
	assert.Equal(t, 10, cfg.RateLimitMaxRequests)
	assert.Equal(t, "file", cfg.Source("registry_keyword"))
	// Untouched values keep defaults
	assert.Equal(t, 250, cfg.SyncPageSize)
	assert.Equal(t, "default", cfg.Source("sync_page_size"))
}

func TestEnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("TPMJS_CONFIG_PATH", dir)

	content := "registry_keyword: from-file\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, ConfigFileName), []byte(content), 0o644))

	t.Setenv("TPMJS_REGISTRY_KEYWORD", "from-env")
	t.Setenv("TPMJS_CHAT_MAX_TOOL_ROUNDS", "9")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "from-env", cfg.RegistryKeyword)
	assert.Equal(t, "environment", cfg.Source("registry_keyword"))
	assert.Equal(t, 9, cfg.ChatMaxToolRounds)
}

func TestBadYAMLFails(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("TPMJS_CONFIG_PATH", dir)

	require.NoError(t, os.WriteFile(filepath.Join(dir, ConfigFileName), []byte("{not yaml"), 0o644))

	_, err := Load()
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	cfg := newDefault()
	assert.NoError(t, cfg.Validate())

	cfg.TrustedProxies = []string{"10.0.0.0/8"}
	assert.NoError(t, cfg.Validate())

	cfg.TrustedProxies = []string{"not-a-cidr"}
	assert.Error(t, cfg.Validate())

	cfg = newDefault()
	cfg.SyncWorkers = 0
	assert.Error(t, cfg.Validate())
}

func TestIsTrustedProxy(t *testing.T) {
	cfg := newDefault()
	cfg.TrustedProxies = []string{"10.0.0.0/8", "192.168.1.5"}

	assert.True(t, cfg.IsTrustedProxy("10.1.2.3"))
	assert.True(t, cfg.IsTrustedProxy("192.168.1.5"))
	assert.False(t, cfg.IsTrustedProxy("172.16.0.1"))
	assert.False(t, cfg.IsTrustedProxy("garbage"))
}

func TestAttributesRedactsSecrets(t *testing.T) {
	cfg := newDefault()
	cfg.CronToken = "super-secret"
	cfg.ExecutorToken = "also-secret"

	for _, attr := range cfg.Attributes() {
		switch attr.Name {
		case "cron_token", "executor_token":
			assert.Equal(t, "[redacted]", attr.Value)
		}
	}
}
