package db

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hackgods/clinic-scheduling/internal/config"
)

func TestPoolConfig_FromClinicConfig(t *testing.T) {
	cfg := config.Config{
		PostgresDSN: "postgres://clinic:secret@db:5432/scheduling?sslmode=disable",
		PostgresPool: config.PoolConfig{
			MaxConns:        25,
			MinConns:        4,
			MaxConnLifetime: 30 * time.Minute,
			MaxConnIdleTime: 4 * time.Minute,
		},
		DialTimeout: 3 * time.Second,
	}

	pc, err := poolConfig(cfg)
	require.NoError(t, err)
	assert.Equal(t, int32(25), pc.MaxConns)
	assert.Equal(t, int32(4), pc.MinConns)
	assert.Equal(t, 30*time.Minute, pc.MaxConnLifetime)
	assert.Equal(t, 4*time.Minute, pc.MaxConnIdleTime)
	assert.Equal(t, 2*time.Minute, pc.HealthCheckPeriod)
	assert.Equal(t, 3*time.Second, pc.ConnConfig.ConnectTimeout)
	assert.Equal(t, "db", pc.ConnConfig.Host)
	assert.Equal(t, "scheduling", pc.ConnConfig.Database)
	assert.Equal(t, "clinic-scheduling", pc.ConnConfig.RuntimeParams["application_name"])
}

func TestPoolConfig_KeepsDriverDefaultsWhenUnset(t *testing.T) {
	pc, err := poolConfig(config.Config{PostgresDSN: "postgres://db/scheduling?pool_max_conns=7"})
	require.NoError(t, err)
	assert.Equal(t, int32(7), pc.MaxConns)
	assert.Equal(t, int32(0), pc.MinConns)
}

func TestPoolConfig_BadDSN(t *testing.T) {
	_, err := poolConfig(config.Config{PostgresDSN: "postgres://db:notaport/x"})
	assert.Error(t, err)
}
