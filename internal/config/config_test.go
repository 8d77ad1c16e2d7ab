package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "0123456789abcdef0123"

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("JWT_SECRET", testSecret)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, 24*time.Hour, cfg.JWTTTL)
	assert.Equal(t, 0.95, cfg.GIIStatic)
	assert.Equal(t, []string{"http://localhost:3000"}, cfg.CORSAllowedOrigins)
	assert.Equal(t, 4, cfg.RiverMaxWorkers)
	assert.Equal(t, "0.0.0.0:8080", cfg.Addr())
	assert.Equal(t, slog.LevelInfo, cfg.SlogLevel())
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("JWT_SECRET", testSecret)
	t.Setenv("PORT", "9090")
	t.Setenv("JWT_TTL", "2h")
	t.Setenv("GII_STATIC", "0.72")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example, https://b.example")
	t.Setenv("GII_SOURCE_URL", "http://aurea:8000")
	t.Setenv("GII_REFRESH_INTERVAL", "30s")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, 2*time.Hour, cfg.JWTTTL)
	assert.Equal(t, 0.72, cfg.GIIStatic)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSAllowedOrigins)
	assert.Equal(t, "http://aurea:8000", cfg.GIISourceURL)
	assert.Equal(t, 30*time.Second, cfg.GIIRefreshInterval)
	assert.Equal(t, slog.LevelDebug, cfg.SlogLevel())
}

func TestLoad_ConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mic.yaml")
	require.NoError(t, os.WriteFile(path, []byte("port: \"7070\"\njwt_secret: "+testSecret+"\ngii_static: 0.8\n"), 0o600))
	t.Setenv(FileEnv, path)
	t.Setenv("GII_STATIC", "0.9")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "7070", cfg.Port)
	assert.Equal(t, 0.9, cfg.GIIStatic, "environment wins over file")
}

func TestLoad_MissingConfigFile(t *testing.T) {
	t.Setenv(FileEnv, filepath.Join(t.TempDir(), "absent.yaml"))
	_, err := Load()
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	valid := Config{
		DatabaseURL:     "postgres://x",
		JWTSecret:       testSecret,
		JWTTTL:          time.Hour,
		GIIStatic:       0.95,
		RiverMaxWorkers: 1,
	}
	require.NoError(t, valid.Validate())

	cases := map[string]func(c *Config){
		"short secret": func(c *Config) { c.JWTSecret = "short" },
		"no database":  func(c *Config) { c.DatabaseURL = "" },
		"gii too high": func(c *Config) { c.GIIStatic = 1.2 },
		"zero ttl":     func(c *Config) { c.JWTTTL = 0 },
		"fast refresh": func(c *Config) { c.GIISourceURL = "http://x"; c.GIIRefreshInterval = time.Millisecond },
		"no workers":   func(c *Config) { c.RiverMaxWorkers = 0 },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			c := valid
			mutate(&c)
			assert.Error(t, c.Validate())
		})
	}
}
