package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestLoad_MissingFileGivesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)

	cfg, err = Load("")
	require.NoError(t, err)
	assert.True(t, cfg.Merge.PageBreaks)
}

func TestLoad_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "odkit.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
merge:
  page_breaks: false
  concurrency: 2
spreadsheet:
  keep_table_width: true
render:
  scale: 8
logging:
  level: debug
`), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.False(t, cfg.Merge.PageBreaks)
	assert.True(t, cfg.Merge.CheckStyles, "unset keys keep their default")
	assert.Equal(t, 2, cfg.Merge.Concurrency)
	assert.True(t, cfg.Spreadsheet.KeepTableWidth)
	assert.Equal(t, 8.0, cfg.Render.Scale)
	assert.Equal(t, 2, cfg.Render.FontPadding)

	level, err := cfg.Logging.ZapLevel()
	require.NoError(t, err)
	assert.Equal(t, zapcore.DebugLevel, level)
}

func TestLoad_Invalid(t *testing.T) {
	dir := t.TempDir()

	bad := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("merge: [unclosed"), 0644))
	_, err := Load(bad)
	assert.ErrorContains(t, err, "failed to parse config")

	scale := filepath.Join(dir, "scale.yaml")
	require.NoError(t, os.WriteFile(scale, []byte("render:\n  scale: 0\n"), 0644))
	_, err = Load(scale)
	assert.ErrorContains(t, err, "render.scale")
}

func TestEnvOverrides(t *testing.T) {
	t.Run("values are applied", func(t *testing.T) {
		t.Setenv("ODKIT_MERGE_PAGE_BREAKS", "false")
		t.Setenv("ODKIT_KEEP_TABLE_WIDTH", "1")
		t.Setenv("ODKIT_RENDER_SCALE", "2.5")
		t.Setenv("ODKIT_MERGE_CONCURRENCY", "3")
		t.Setenv("ODKIT_LOG_LEVEL", "warn")
		t.Setenv("ODKIT_GENERATOR", "tests")

		cfg, err := Load("")
		require.NoError(t, err)
		assert.False(t, cfg.Merge.PageBreaks)
		assert.True(t, cfg.Spreadsheet.KeepTableWidth)
		assert.Equal(t, 2.5, cfg.Render.Scale)
		assert.Equal(t, 3, cfg.Merge.Concurrency)
		assert.Equal(t, "warn", cfg.Logging.Level)
		assert.Equal(t, "tests", cfg.Merge.Generator)
	})

	t.Run("environment wins over the file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "odkit.yaml")
		require.NoError(t, os.WriteFile(path, []byte("logging:\n  level: error\n"), 0644))
		t.Setenv("ODKIT_LOG_LEVEL", "debug")

		cfg, err := Load(path)
		require.NoError(t, err)
		assert.Equal(t, "debug", cfg.Logging.Level)
	})

	t.Run("malformed values fail", func(t *testing.T) {
		t.Setenv("ODKIT_MERGE_CHECK_STYLES", "maybe")
		_, err := Load("")
		assert.ErrorContains(t, err, "ODKIT_MERGE_CHECK_STYLES")
	})
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
		errMsg string
	}{
		{"defaults", func(*Config) {}, ""},
		{"unknown level", func(c *Config) { c.Logging.Level = "loud" }, "logging.level"},
		{"unknown format", func(c *Config) { c.Logging.Format = "xml" }, "logging.format"},
		{"negative scale", func(c *Config) { c.Render.Scale = -1 }, "render.scale"},
		{"negative padding", func(c *Config) { c.Render.FontPadding = -1 }, "render.font_padding"},
		{"negative concurrency", func(c *Config) { c.Merge.Concurrency = -2 }, "merge.concurrency"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.modify(cfg)
			err := cfg.Validate()
			if tt.errMsg == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorContains(t, err, tt.errMsg)
		})
	}
}

func TestSave_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "odkit.yaml")
	cfg := DefaultConfig()
	cfg.Render.Scale = 6

	require.NoError(t, cfg.Save(path))
	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}
