package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestServerFromEnv_defaults(t *testing.T) {
	for _, k := range []string{"PORT", "PLAN_STORE", "MAX_PLAN_BYTES", "SHEET_PARTICLES", "METRICS_ENABLED"} {
		t.Setenv(k, "")
	}
	cfg, err := ServerFromEnv()
	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, StoreMemory, cfg.PlanStore)
	assert.Equal(t, int64(32<<20), cfg.MaxPlanBytes)
	assert.Equal(t, 1000, cfg.SheetParticles)
	assert.True(t, cfg.MetricsEnabled)
}

func TestServerFromEnv_metrics_disabled(t *testing.T) {
	t.Setenv("PORT", "8080")
	t.Setenv("PLAN_STORE", "memory")
	t.Setenv("METRICS_ENABLED", "false")
	cfg, err := ServerFromEnv()
	require.NoError(t, err)
	assert.False(t, cfg.MetricsEnabled)
}

func TestServerFromEnv_invalid(t *testing.T) {
	cases := map[string]map[string]string{
		"bad_port":      {"PORT": "http"},
		"unknown_store": {"PLAN_STORE": "sqlite"},
		"zero_max":      {"MAX_PLAN_BYTES": "0"},
	}
	for name, env := range cases {
		t.Run(name, func(t *testing.T) {
			t.Setenv("PORT", "8080")
			t.Setenv("PLAN_STORE", "memory")
			t.Setenv("MAX_PLAN_BYTES", "1024")
			for k, v := range env {
				t.Setenv(k, v)
			}
			_, err := ServerFromEnv()
			assert.Error(t, err)
		})
	}
}

func TestServer_validate_redis_requires_addr(t *testing.T) {
	cfg := Server{Port: "8080", PlanStore: StoreRedis, MaxPlanBytes: 1}
	assert.Error(t, cfg.validate())

	cfg.RedisAddr = "localhost:6379"
	assert.NoError(t, cfg.validate())
}

func TestGetEnvHelpers(t *testing.T) {
	t.Setenv("RTPLAN_TEST_INT", "12")
	t.Setenv("RTPLAN_TEST_BAD_INT", "x")
	t.Setenv("RTPLAN_TEST_BOOL", "true")

	assert.Equal(t, 12, GetEnvInt("RTPLAN_TEST_INT", 1))
	assert.Equal(t, 1, GetEnvInt("RTPLAN_TEST_BAD_INT", 1))
	assert.True(t, GetEnvBool("RTPLAN_TEST_BOOL", false))
	assert.False(t, GetEnvBool("RTPLAN_TEST_MISSING", false))
	assert.Equal(t, "fb", GetEnv("RTPLAN_TEST_MISSING", "fb"))
}

func TestLoad_dotenv_file(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.env")
	require.NoError(t, os.WriteFile(path, []byte("RTPLAN_DOTENV_KEY=from-file\n"), 0o644))
	t.Setenv("RTPLAN_DOTENV_KEY", "")
	require.NoError(t, os.Unsetenv("RTPLAN_DOTENV_KEY"))

	require.NoError(t, Load(path))
	assert.Equal(t, "from-file", os.Getenv("RTPLAN_DOTENV_KEY"))
}
