package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(WithSearchPaths(t.TempDir()))
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, 10*time.Second, cfg.Server.ShutdownGrace)
	assert.Equal(t, 5*time.Second, cfg.Server.ReadHeaderTimeout)
	assert.Equal(t, int64(8<<20), cfg.Upload.MaxBytes)
	assert.Equal(t, "zh-CN", cfg.App.Locale)
	assert.Equal(t, "hemei", cfg.Theme.Name)
	assert.Equal(t, 2, cfg.Card.Scale)
	assert.Equal(t, 60, cfg.RateLimit.PerMinute)
	assert.False(t, cfg.IsProduction())
}

func TestLoad_FileAndEnvironment(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "matchcard.yaml")
	content := strings.Join([]string{
		"app:",
		"  env: production",
		"  locale: en",
		"server:",
		"  addr: \":9000\"",
		"contact:",
		"  name: 李老师",
		"  wechat: hemei520",
		"ratelimit:",
		"  per_minute: 30",
	}, "\n")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	t.Setenv("MATCHCARD_SERVER_ADDR", ":9100")
	t.Setenv("MATCHCARD_UPLOAD_MAX_BYTES", "1048576")
	t.Setenv("MATCHCARD_SERVER_SHUTDOWN_GRACE", "3s")

	cfg, err := Load(WithSearchPaths(dir))
	require.NoError(t, err)

	assert.True(t, cfg.IsProduction())
	assert.Equal(t, "en", cfg.App.Locale)
	assert.Equal(t, ":9100", cfg.Server.Addr, "env must win over file")
	assert.Equal(t, int64(1<<20), cfg.Upload.MaxBytes)
	assert.Equal(t, 3*time.Second, cfg.Server.ShutdownGrace)
	assert.Equal(t, "李老师", cfg.Contact.Name)
	assert.Equal(t, "hemei520", cfg.Contact.WeChat)
	assert.Equal(t, 30, cfg.RateLimit.PerMinute)
}

func TestLoad_ExplicitFileErrors(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server: [unclosed"), 0o600))

	_, err := Load(WithConfigFile(path))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "config: read")
}

func TestValidate(t *testing.T) {
	cfg, err := Load(WithSearchPaths(t.TempDir()))
	require.NoError(t, err)

	cfg.Card.Scale = 9
	cfg.Card.FontPath = "/fonts/regular.ttf"
	cfg.Upload.MaxBytes = 0

	err = cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "card.scale")
	assert.Contains(t, err.Error(), "upload.max_bytes")
	assert.Contains(t, err.Error(), "font_path")
}
