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
	t.Chdir(t.TempDir())

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "8090", cfg.Port)
	assert.Equal(t, 4, cfg.WorkerCount)
	assert.Equal(t, 100, cfg.MaxQueueSize)
	assert.Equal(t, uint(3), cfg.UpstreamAttempts)
	assert.Equal(t, time.Hour, cfg.JobTTL)
	assert.Equal(t, int64(256<<10), cfg.MaxTextBytes)
	assert.True(t, cfg.PDFFallbackPdftotext)
	assert.Equal(t, "info", cfg.LogLevel)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("DOCFORGE_PORT", "9999")
	t.Setenv("DOCFORGE_API_KEY", "k")
	t.Setenv("DOCFORGE_WORKER_COUNT", "8")
	t.Setenv("DOCFORGE_JOB_TTL", "30m")
	t.Setenv("DOCFORGE_PDF_FALLBACK_PDFTOTEXT", "false")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "9999", cfg.Port)
	assert.Equal(t, "k", cfg.APIKey)
	assert.Equal(t, 8, cfg.WorkerCount)
	assert.Equal(t, 30*time.Minute, cfg.JobTTL)
	assert.False(t, cfg.PDFFallbackPdftotext)
}

func TestLoad_ConfigFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "custom.yaml")
	require.NoError(t, os.WriteFile(path, []byte("port: \"7000\"\nupstream_url: http://gen.local/transform\nworker_count: 2\n"), 0o644))
	t.Setenv("DOCFORGE_WORKER_COUNT", "6")

	l, err := NewLoader(path)
	require.NoError(t, err)
	cfg := l.Load()
	assert.Equal(t, path, l.File())
	assert.Equal(t, "7000", cfg.Port)
	assert.Equal(t, "http://gen.local/transform", cfg.UpstreamURL)
	assert.Equal(t, 6, cfg.WorkerCount, "env wins over file")
}

func TestLoad_MissingNamedFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoad_InvalidValuesFallBack(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("DOCFORGE_WORKER_COUNT", "-1")
	t.Setenv("DOCFORGE_MAX_QUEUE_SIZE", "0")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 4, cfg.WorkerCount)
	assert.Equal(t, 100, cfg.MaxQueueSize)
}

func TestValidate(t *testing.T) {
	t.Chdir(t.TempDir())
	cfg, err := Load("")
	require.NoError(t, err)

	err = cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DOCFORGE_API_KEY")

	cfg.APIKey = "secret"
	assert.NoError(t, cfg.Validate())

	cfg.UpstreamURL = "not a url"
	err = cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DOCFORGE_UPSTREAM_URL")

	cfg.UpstreamURL = "https://gen.example.com/api/transform"
	cfg.LogLevel = "loud"
	assert.Error(t, cfg.Validate())
}

func TestEnvName(t *testing.T) {
	assert.Equal(t, "DOCFORGE_API_KEY", envName("APIKey"))
	assert.Equal(t, "DOCFORGE_UPSTREAM_URL", envName("UpstreamURL"))
	assert.Equal(t, "DOCFORGE_MAX_TEXT_BYTES", envName("MaxTextBytes"))
	assert.Equal(t, "DOCFORGE_PDF_FALLBACK_PDFTOTEXT", envName("PDFFallbackPdftotext"))
}
