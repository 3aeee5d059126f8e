package config_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Inventario-scan/pkg/config"
)

func TestLoad_Defaults(t *testing.T) {
	for _, k := range []string{"STORE_DRIVER", "SCAN_DEBOUNCE_MS", "SCAN_HISTORY_LIMIT", "SCAN_SESSION_TTL_MINUTES"} {
		t.Setenv(k, "") // vacío cuenta como no definido
	}
	cfg, err := config.Load()
	require.NoError(t, err)
	assert.Equal(t, config.StoreDriverPostgres, cfg.Store.Driver)
	assert.Equal(t, 900*time.Millisecond, cfg.Scan.DebounceWindow())
	assert.Equal(t, 10, cfg.Scan.HistoryLimit)
	assert.Equal(t, 2*time.Hour, cfg.Scan.SessionTTL())
}

func TestLoad_DriverDesconocido(t *testing.T) {
	t.Setenv("STORE_DRIVER", "mongo")
	cfg, err := config.Load()
	require.Error(t, err)
	assert.Nil(t, cfg)
}

func TestLoad_Env(t *testing.T) {
	t.Setenv("STORE_DRIVER", "Memory")
	t.Setenv("SCAN_DEBOUNCE_MS", "500")
	t.Setenv("SCAN_HISTORY_LIMIT", "0")
	t.Setenv("SCAN_SESSION_TTL_MINUTES", "30")
	t.Setenv("HTTP_PORT", "9090")

	cfg, err := config.Load()
	require.NoError(t, err)
	assert.Equal(t, config.StoreDriverMemory, cfg.Store.Driver)
	assert.Equal(t, 500*time.Millisecond, cfg.Scan.DebounceWindow())
	assert.Equal(t, 30*time.Minute, cfg.Scan.SessionTTL())
	assert.Equal(t, 10, cfg.Scan.HistoryLimit, "límite no positivo vuelve al valor por defecto")
	assert.Equal(t, "0.0.0.0:9090", cfg.HTTP.Addr())
}

func TestLoad_DebounceNegativo(t *testing.T) {
	t.Setenv("STORE_DRIVER", "memory")
	t.Setenv("SCAN_DEBOUNCE_MS", "-1")
	_, err := config.Load()
	assert.Error(t, err)
}

func TestDBConfig_ConnectionString(t *testing.T) {
	c := config.DBConfig{Host: "db", Port: 5432, User: "u", Password: "p@ss", DBName: "inv", SSLMode: "disable"}
	assert.Equal(t, "postgres://u:p%40ss@db:5432/inv?sslmode=disable", c.ConnectionString())

	c.DatabaseURL = "postgres://otro"
	assert.Equal(t, "postgres://otro", c.ConnectionString())
}
