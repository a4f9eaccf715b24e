package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/aretw0/threadbare/internal/config"
	"github.com/aretw0/threadbare/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func write(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := config.Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, config.Default(), cfg)
}

func TestLoad_YAMLOverridesOnlyGivenKeys(t *testing.T) {
	path := write(t, "threadbare.yaml", `
tick_rate: 30
limits:
  max_stack_depth: 8
store:
  kind: redis
  redis:
    addr: redis:6379
    ttl: 10m
`)
	cfg, err := config.Load(path)
	require.NoError(t, err)

	assert.Equal(t, 30.0, cfg.TickRate)
	assert.Equal(t, 8, cfg.Limits.MaxStackDepth)
	assert.Equal(t, domain.DefaultLimits().LineBufferSize, cfg.Limits.LineBufferSize)
	assert.Equal(t, config.StoreRedis, cfg.Store.Kind)
	assert.Equal(t, "redis:6379", cfg.Store.Redis.Addr)
	assert.Equal(t, "threadbare:", cfg.Store.Redis.Prefix)
	assert.Equal(t, 10*time.Minute, cfg.Store.Redis.TTL)
}

func TestLoad_JSON(t *testing.T) {
	path := write(t, "threadbare.json", `{"log_level": "debug", "http": {"addr": ":9090"}}`)
	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, ":9090", cfg.HTTP.Addr)
}

func TestLoad_Invalid(t *testing.T) {
	cases := map[string]string{
		"bad yaml":   "tick_rate: [",
		"tick rate":  "tick_rate: 0",
		"store kind": "store: {kind: s3}",
		"limits":     "limits: {max_stack_depth: 0}",
		"short key":  "store: {encryption: {key: abcd}}",
		"redact":     "store: {redact: ['(']}",
	}
	for name, content := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := config.Load(write(t, "c.yaml", content))
			assert.Error(t, err)
		})
	}
}

func TestEncryptionConfig_Keys(t *testing.T) {
	key := strings.Repeat("ab", 32)
	enc := config.EncryptionConfig{Key: key, FallbackKeys: []string{strings.Repeat("01", 32)}}
	require.True(t, enc.Enabled())

	active, fallback, err := enc.Keys()
	require.NoError(t, err)
	assert.Len(t, active, 32)
	require.Len(t, fallback, 1)
	assert.Equal(t, byte(1), fallback[0][0])

	enc.FallbackKeys = []string{"zz"}
	_, _, err = enc.Keys()
	assert.ErrorContains(t, err, "fallback key 0")

	assert.False(t, config.EncryptionConfig{}.Enabled())
}
