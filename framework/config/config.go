package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

// Config is the central typed configuration struct.
type Config struct {
	App      AppConfig
	Scan     ScanConfig
	Log      LogConfig
	Actuator ActuatorConfig
}

type AppConfig struct {
	Name  string `validate:"required"`
	Env   string `validate:"oneof=local production testing"`
	Debug bool
}

// ScanConfig selects what the application context instantiates.
type ScanConfig struct {
	BasePackages []string `validate:"dive,required"`
	Exclude      []string `validate:"dive,required"`
	Manifest     string   // path to a YAML scan manifest, optional
}

type LogConfig struct {
	Level  string `validate:"oneof=debug info warn error"`
	Format string `validate:"oneof=json console"`
}

type ActuatorConfig struct {
	Enabled         bool
	Addr            string        `validate:"required_if=Enabled true"`
	ShutdownTimeout time.Duration `validate:"gte=0"`
}

// Load reads .env (if present) and populates a Config from environment variables.
// Call once at bootstrap: cfg := config.Load()
func Load(envFiles ...string) *Config {
	files := envFiles
	if len(files) == 0 {
		files = []string{".env"}
	}
	// Non-fatal: .env may not exist in production
	_ = godotenv.Load(files...)

	return &Config{
		App: AppConfig{
			Name:  Get("APP_NAME", "GoSpring"),
			Env:   Get("APP_ENV", "local"),
			Debug: GetBool("APP_DEBUG", true),
		},
		Scan: ScanConfig{
			BasePackages: getList("BEANS_SCAN"),
			Exclude:      getList("BEANS_EXCLUDE"),
			Manifest:     Get("BEANS_MANIFEST", ""),
		},
		Log: LogConfig{
			Level:  Get("LOG_LEVEL", "info"),
			Format: Get("LOG_FORMAT", "console"),
		},
		Actuator: ActuatorConfig{
			Enabled:         GetBool("ACTUATOR_ENABLED", false),
			Addr:            Get("ACTUATOR_ADDR", ":8081"),
			ShutdownTimeout: time.Duration(GetInt("ACTUATOR_SHUTDOWN_SECONDS", 5)) * time.Second,
		},
	}
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks the loaded values.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

// Get returns a raw env value, falling back to defaultVal.
func Get(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

// GetInt returns an int env value.
func GetInt(key string, defaultVal int) int {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return defaultVal
	}
	return i
}

// GetBool returns a bool env value.
func GetBool(key string, defaultVal bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return defaultVal
	}
	return b
}

// ── helpers ─────────────────────────────────────────────────────────────────

// getList splits a comma separated value, dropping blanks.
func getList(key string) []string {
	var out []string
	for _, part := range strings.Split(os.Getenv(key), ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
