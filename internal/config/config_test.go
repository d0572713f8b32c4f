package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	odatasql "github.com/nlstn/go-odata-sql"
)

const sampleConfig = `
[database]
product = "hana"
driver = "sqlite"
dsn = "file::memory:"
case_sensitive = true

[model]
path = "model.yaml"

[paging]
size = 200

[log]
level = "debug"
format = "json"
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "odatasql.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad(t *testing.T) {
	cfg, err := Load(writeConfig(t, sampleConfig))
	require.NoError(t, err)

	assert.Equal(t, "hana", cfg.Database.Product)
	assert.Equal(t, DriverSQLite, cfg.Database.Driver)
	assert.Equal(t, "file::memory:", cfg.Database.DSN)
	assert.True(t, cfg.Database.CaseSensitive)
	assert.Equal(t, "model.yaml", cfg.Model.Path)
	assert.Equal(t, 200, cfg.Paging.Size)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, ":8080", cfg.Server.Addr)
}

func TestLoadDefaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, string(odatasql.PostgreSQL), cfg.Database.Product)
	assert.Equal(t, odatasql.DefaultPagingSize, cfg.Paging.Size)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "text", cfg.Log.Format)
	assert.Empty(t, cfg.Database.Driver)
}

func TestLoadEnvOverlay(t *testing.T) {
	t.Setenv(odatasql.EnvProduct, "derby")
	t.Setenv(odatasql.EnvPagingSize, "20")
	t.Setenv(odatasql.EnvCaseSensitive, "false")
	t.Setenv(EnvModel, "other.yaml")
	t.Setenv(EnvLogLevel, "warn")

	cfg, err := Load(writeConfig(t, sampleConfig))
	require.NoError(t, err)
	assert.Equal(t, "derby", cfg.Database.Product)
	assert.Equal(t, 20, cfg.Paging.Size)
	assert.False(t, cfg.Database.CaseSensitive)
	assert.Equal(t, "other.yaml", cfg.Model.Path)
	assert.Equal(t, "warn", cfg.Log.Level)
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		env     map[string]string
	}{
		{name: "syntax", content: "[database\nproduct = 1"},
		{name: "product", content: "[database]\nproduct = \"oracle7\""},
		{name: "driver", content: "[database]\ndriver = \"mssql\"\ndsn = \"x\""},
		{name: "missing dsn", content: "[database]\ndriver = \"postgres\""},
		{name: "negative paging", content: "[paging]\nsize = -1"},
		{name: "log level", content: "[log]\nlevel = \"loud\""},
		{name: "log format", content: "[log]\nformat = \"xml\""},
		{name: "env paging", content: "", env: map[string]string{odatasql.EnvPagingSize: "lots"}},
		{name: "env case sensitive", content: "", env: map[string]string{odatasql.EnvCaseSensitive: "maybe"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load(writeConfig(t, tt.content))
			assert.Error(t, err)
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.toml"))
	assert.Error(t, err)
}

func TestParse(t *testing.T) {
	cfg, err := Parse([]byte("[database]\nproduct = \"sqlite\"\n[paging]\nsize = 3"))
	require.NoError(t, err)
	assert.Equal(t, "sqlite", cfg.Database.Product)
	assert.Equal(t, 3, cfg.Paging.Size)

	tr := odatasql.NewConfig(cfg.TranslatorOptions(cfg.Logger(os.Stderr))...)
	assert.Equal(t, odatasql.SQLite, tr.Product)
	assert.Equal(t, 3, tr.PagingSize)
}
