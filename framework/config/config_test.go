package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/km-arc/go-spring/framework/config"
)

// ── Load ─────────────────────────────────────────────────────────────────────

func TestLoad_Defaults(t *testing.T) {
	for _, k := range []string{"APP_NAME", "APP_ENV", "LOG_LEVEL", "LOG_FORMAT", "BEANS_SCAN", "ACTUATOR_ADDR"} {
		t.Setenv(k, "")
	}
	cfg := config.Load("testdata/empty.env")

	tests := []struct {
		name string
		got  string
		want string
	}{
		{"App.Name", cfg.App.Name, "GoSpring"},
		{"App.Env", cfg.App.Env, "local"},
		{"Log.Level", cfg.Log.Level, "info"},
		{"Log.Format", cfg.Log.Format, "console"},
		{"Actuator.Addr", cfg.Actuator.Addr, ":8081"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.got)
		})
	}
	assert.Empty(t, cfg.Scan.BasePackages)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_EnvOverridesDefaults(t *testing.T) {
	t.Setenv("APP_NAME", "Shop")
	t.Setenv("APP_ENV", "production")
	t.Setenv("BEANS_SCAN", " github.com/acme/shop , ,github.com/acme/billing")
	t.Setenv("BEANS_EXCLUDE", "auditProcessor")
	t.Setenv("LOG_FORMAT", "json")

	cfg := config.Load("testdata/empty.env")

	assert.Equal(t, "Shop", cfg.App.Name)
	assert.Equal(t, "production", cfg.App.Env)
	assert.Equal(t, []string{"github.com/acme/shop", "github.com/acme/billing"}, cfg.Scan.BasePackages)
	assert.Equal(t, []string{"auditProcessor"}, cfg.Scan.Exclude)
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestLoad_Actuator(t *testing.T) {
	t.Setenv("ACTUATOR_ENABLED", "true")
	t.Setenv("ACTUATOR_ADDR", "127.0.0.1:9090")
	t.Setenv("ACTUATOR_SHUTDOWN_SECONDS", "12")

	cfg := config.Load("testdata/empty.env")

	assert.True(t, cfg.Actuator.Enabled)
	assert.Equal(t, "127.0.0.1:9090", cfg.Actuator.Addr)
	assert.Equal(t, 12*time.Second, cfg.Actuator.ShutdownTimeout)
	assert.NoError(t, cfg.Validate())

	t.Setenv("ACTUATOR_SHUTDOWN_SECONDS", "soon")
	assert.Equal(t, 5*time.Second, config.Load("testdata/empty.env").Actuator.ShutdownTimeout)
}

func TestLoad_AppDebug(t *testing.T) {
	t.Setenv("APP_DEBUG", "false")
	assert.False(t, config.Load("testdata/empty.env").App.Debug)

	t.Setenv("APP_DEBUG", "true")
	assert.True(t, config.Load("testdata/empty.env").App.Debug)
}

func TestValidate_RejectsBadValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*config.Config)
	}{
		{"unknown env", func(c *config.Config) { c.App.Env = "staging" }},
		{"unknown log level", func(c *config.Config) { c.Log.Level = "trace" }},
		{"blank package", func(c *config.Config) { c.Scan.BasePackages = []string{""} }},
		{"actuator without addr", func(c *config.Config) { c.Actuator = config.ActuatorConfig{Enabled: true} }},
		{"negative shutdown timeout", func(c *config.Config) { c.Actuator.ShutdownTimeout = -time.Second }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.Load("testdata/empty.env")
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

// ── Get / GetInt / GetBool ───────────────────────────────────────────────────

func TestGet(t *testing.T) {
	t.Setenv("CUSTOM_KEY", "hello")
	os.Unsetenv("MISSING_KEY")

	assert.Equal(t, "hello", config.Get("CUSTOM_KEY", "default"))
	assert.Equal(t, "fallback", config.Get("MISSING_KEY", "fallback"))
}

func TestGetInt(t *testing.T) {
	t.Setenv("SOME_INT", "42")
	assert.Equal(t, 42, config.GetInt("SOME_INT", 0))

	t.Setenv("SOME_INT", "notanint")
	assert.Equal(t, 99, config.GetInt("SOME_INT", 99))
}

func TestGetBool(t *testing.T) {
	for _, val := range []string{"true", "1", "True", "TRUE"} {
		t.Setenv("BOOL_KEY", val)
		assert.True(t, config.GetBool("BOOL_KEY", false), val)
	}
	t.Setenv("BOOL_KEY", "false")
	assert.False(t, config.GetBool("BOOL_KEY", true))

	t.Setenv("BOOL_KEY", "notabool")
	assert.True(t, config.GetBool("BOOL_KEY", true))
}

// ── Manifest ─────────────────────────────────────────────────────────────────

func TestLoadManifest(t *testing.T) {
	m, err := config.LoadManifest("testdata/beans.yaml")
	require.NoError(t, err)

	assert.Equal(t, []string{"github.com/km-arc/go-spring/example/application"}, m.Scan)
	assert.Equal(t, []string{"customPostProcessor"}, m.Exclude)
}

func TestParseManifest_Invalid(t *testing.T) {
	tests := map[string]string{
		"not yaml":   "scan: [",
		"no scan":    "exclude: [x]",
		"blank scan": "scan: ['']",
	}
	for name, doc := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := config.ParseManifest([]byte(doc))
			assert.Error(t, err)
		})
	}
}

func TestManifest_ApplyMerges(t *testing.T) {
	cfg := config.Load("testdata/empty.env")
	cfg.Scan.BasePackages = []string{"github.com/acme/shop"}
	m := &config.Manifest{
		Scan:    []string{"github.com/acme/shop", "github.com/acme/billing"},
		Exclude: []string{"auditProcessor"},
	}

	m.Apply(cfg)

	assert.Equal(t, []string{"github.com/acme/shop", "github.com/acme/billing"}, cfg.Scan.BasePackages)
	assert.Equal(t, []string{"auditProcessor"}, cfg.Scan.Exclude)
}

func TestConfig_LoadScanManifest(t *testing.T) {
	cfg := config.Load("testdata/empty.env")
	cfg.Scan.Manifest = ""
	require.NoError(t, cfg.LoadScanManifest())

	cfg.Scan.Manifest = filepath.Join("testdata", "missing.yaml")
	assert.Error(t, cfg.LoadScanManifest())

	cfg.Scan.Manifest = filepath.Join("testdata", "beans.yaml")
	require.NoError(t, cfg.LoadScanManifest())
	assert.Contains(t, cfg.Scan.BasePackages, "github.com/km-arc/go-spring/example/application")
}
