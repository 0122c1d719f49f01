// README: Config loader tests (defaults, YAML overlay, env precedence).
package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("CONCIERGE_CONFIG", "")
	t.Setenv("GEMINI_API_KEY", "")
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.HTTP.Addr)
	assert.Equal(t, 3, cfg.Decision.ClarifierTTL)
	assert.Equal(t, 5, cfg.Decision.OpenerHistory)
	assert.Equal(t, 3, cfg.Decision.TagCap)
	assert.Equal(t, 24, cfg.Decision.SearchLimit)
	assert.Equal(t, []string{"price_bucket", "style", "use_case", "vendor"}, cfg.Decision.RelaxationPriority)
	assert.Empty(t, cfg.AI.GeminiKey, "the api key is optional")
}

func TestLoad_FileThenEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "concierge.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
http:
  addr: ":9090"
log:
  level: debug
session:
  ttl: 2h
decision:
  clarifier_ttl: 4
  relaxation_priority: [style, price_bucket]
`), 0o600))

	t.Setenv("CONCIERGE_CONFIG", path)
	t.Setenv("CONCIERGE_HTTP_ADDR", ":7070")
	t.Setenv("CONCIERGE_OPENER_HISTORY", "8")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, ":7070", cfg.HTTP.Addr, "env wins over file")
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, 2*time.Hour, cfg.Session.TTL)
	assert.Equal(t, 4, cfg.Decision.ClarifierTTL)
	assert.Equal(t, 8, cfg.Decision.OpenerHistory)
	assert.Equal(t, 3, cfg.Decision.TagCap, "unset keys keep defaults")
	assert.Equal(t, []string{"style", "price_bucket"}, cfg.Decision.RelaxationPriority)
}

func TestLoad_EnvList(t *testing.T) {
	t.Setenv("CONCIERGE_CONFIG", "")
	t.Setenv("CONCIERGE_RELAXATION_PRIORITY", " vendor , style,, ")
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, []string{"vendor", "style"}, cfg.Decision.RelaxationPriority)
}

func TestLoad_Invalid(t *testing.T) {
	t.Setenv("CONCIERGE_CONFIG", "")
	t.Setenv("CONCIERGE_CLARIFIER_TTL", "0")
	_, err := Load()
	assert.Error(t, err)

	t.Setenv("CONCIERGE_CLARIFIER_TTL", "")
	t.Setenv("CONCIERGE_CONFIG", filepath.Join(t.TempDir(), "missing.yaml"))
	_, err = Load()
	assert.Error(t, err)
}
