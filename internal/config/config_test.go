package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	c := Default()
	assert.Equal(t, "json", c.Convert.OutputFormat)
	assert.Equal(t, 2, c.Convert.Indent)
	assert.Equal(t, 3000, c.Server.Port)
	assert.Equal(t, "127.0.0.1", c.Server.Host)
	assert.Equal(t, "info", c.Log.Level)
	assert.True(t, c.Sanitize.Enabled)
	assert.True(t, c.Store.Enabled)
	assert.NotEmpty(t, c.Store.Path)
	assert.Contains(t, c.Sanitize.BodyFields, "password")
}

func TestLoadFromYAML(t *testing.T) {
	tmp := t.TempDir()
	cfgPath := filepath.Join(tmp, "config.yaml")
	content := "convert:\n  base_url: https://staging.example.com\n  output_format: yaml\nfilter:\n  ignore_paths: [\"/internal/**\"]\nsanitize:\n  enabled: false\nserver:\n  port: 8080\n"
	require.NoError(t, os.WriteFile(cfgPath, []byte(content), 0o644))

	cfg, err := Load(cfgPath)
	require.NoError(t, err)
	assert.Equal(t, "https://staging.example.com", cfg.Convert.BaseURL)
	assert.Equal(t, "yaml", cfg.Convert.OutputFormat)
	assert.Equal(t, []string{"/internal/**"}, cfg.Filter.IgnorePaths)
	assert.False(t, cfg.Sanitize.Enabled)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 2, cfg.Convert.Indent)
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "json", cfg.Convert.OutputFormat)
}

func TestLoadRejectsBadYAML(t *testing.T) {
	cfgPath := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("convert: [\n"), 0o644))
	_, err := Load(cfgPath)
	assert.Error(t, err)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("OAS2POSTMAN_BASE_URL", "https://env.example.com")
	t.Setenv("OAS2POSTMAN_SERVER_PORT", "9090")
	t.Setenv("OAS2POSTMAN_STABLE_ID", "true")
	t.Setenv("OAS2POSTMAN_INDENT", "not-a-number")

	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "https://env.example.com", cfg.Convert.BaseURL)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.True(t, cfg.Convert.StableID)
	assert.Equal(t, 2, cfg.Convert.Indent)
}

func TestValidate(t *testing.T) {
	c := Default()
	require.NoError(t, c.Validate())
	require.NoError(t, c.ValidateServe())

	c.Convert.OutputFormat = "xml"
	assert.Error(t, c.Validate())

	c = Default()
	c.Server.Port = 70000
	assert.Error(t, c.Validate())

	c = Default()
	c.Server.Host = " "
	assert.Error(t, c.ValidateServe())
}
