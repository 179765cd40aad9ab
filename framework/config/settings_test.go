package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/km-arc/go-zelasli/framework/config"
)

func loadSettings(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.Load("testdata/empty.env")
	require.NoError(t, cfg.LoadSettings("testdata/settings.yaml"))
	return cfg
}

func TestLoadSettings_OverridesEnvironment(t *testing.T) {
	setEnv(t, "APP_NAME", "FromEnv")
	cfg := loadSettings(t)

	assert.Equal(t, "Blog", cfg.App.Name)
	assert.False(t, cfg.App.Debug)
	assert.Equal(t, "resources/views", cfg.View.Dir)
	assert.Equal(t, ".html", cfg.View.Ext, "keys absent from the file keep their env value")
	assert.Equal(t, "blog_session", cfg.Session.Cookie)
}

func TestLoadSettings_DefaultConnectionBecomesDB(t *testing.T) {
	cfg := loadSettings(t)

	assert.Equal(t, "sqlite", cfg.DB.Driver)
	assert.Equal(t, "blog.db", cfg.DB.Database)
	assert.Equal(t, "var/data", cfg.DB.Path)
}

func TestConnection_Named(t *testing.T) {
	cfg := loadSettings(t)

	reports := cfg.Connection("reports")
	assert.Equal(t, "reports.db", reports.Database)
	assert.Equal(t, "var/data", reports.Path, "unset fields inherit the default connection")
}

func TestConnection_UnknownFallsBackToDB(t *testing.T) {
	cfg := loadSettings(t)
	assert.Equal(t, cfg.DB, cfg.Connection("nope"))
}

func TestValue_DottedLookup(t *testing.T) {
	cfg := loadSettings(t)

	v, ok := cfg.Value("database.connections.main.name")
	require.True(t, ok)
	assert.Equal(t, "blog.db", v)

	_, ok = cfg.Value("database.connections.main.name.deeper")
	assert.False(t, ok)

	_, ok = cfg.Value("missing")
	assert.False(t, ok)
}

func TestValue_NoSettingsLoaded(t *testing.T) {
	cfg := config.Load("testdata/empty.env")
	_, ok := cfg.Value("app.name")
	assert.False(t, ok)
	assert.Equal(t, "x", cfg.String("app.name", "x"))
}

func TestLoadSettings_Errors(t *testing.T) {
	cfg := config.Load("testdata/empty.env")
	assert.Error(t, cfg.LoadSettings("testdata/missing.yaml"))

	bad := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("app: [unclosed"), 0o644))
	assert.Error(t, cfg.LoadSettings(bad))
}
