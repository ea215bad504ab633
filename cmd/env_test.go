package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/avm-cli/internal/config"
	"github.com/sells-group/avm-cli/internal/model"
	"github.com/sells-group/avm-cli/internal/monitoring"
)

func TestInitStore_UnsupportedDriver(t *testing.T) {
	c := testConfig()
	c.Store.Driver = "mysql"

	_, err := initStore(context.Background(), c)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported store driver")
}

func TestInitStore_SQLite(t *testing.T) {
	c := testConfig()
	c.Store.DatabaseURL = filepath.Join(t.TempDir(), "avm.db")

	st, err := initStore(context.Background(), c)
	require.NoError(t, err)
	defer st.Close() //nolint:errcheck

	require.NoError(t, st.Migrate(context.Background()))
	assert.NoError(t, st.Ping(context.Background()))
}

func TestInitEnv_SQLite(t *testing.T) {
	orig := cfg
	t.Cleanup(func() { cfg = orig })
	cfg = testConfig()
	cfg.Store.DatabaseURL = filepath.Join(t.TempDir(), "avm.db")

	env, err := initEnv(context.Background(), "cli")
	require.NoError(t, err)
	defer env.Close()

	res, err := env.Service.ScoreFlip(context.Background(), model.FlipRequest{
		PropertyType: "Villa", Area: "Arabian Ranches", Size: 300,
	})
	require.NoError(t, err)
	assert.Equal(t, 48, res.Score)

	families, err := env.Registry.Gather()
	require.NoError(t, err)
	names := make(map[string]bool, len(families))
	for _, f := range families {
		names[f.GetName()] = true
	}
	assert.True(t, names["avm_requests_total"])
	assert.True(t, names["go_goroutines"])
}

func TestInitEnv_InvalidConfig(t *testing.T) {
	orig := cfg
	t.Cleanup(func() { cfg = orig })
	cfg = testConfig()
	cfg.Store.Driver = "postgres"

	_, err := initEnv(context.Background(), "cli")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "database_url")
}

func TestBuildService_ViewsFile(t *testing.T) {
	m, err := monitoring.NewMetrics(nil)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "views.yaml")
	require.NoError(t, os.WriteFile(path, []byte("prime_coastal: [\"Palm Jumeirah\"]\nlandmark_district: Downtown Dubai\n"), 0o644))

	c := testConfig()
	c.ViewsFile = path
	_, _, err = buildService(context.Background(), c, &memStore{}, m)
	assert.NoError(t, err)

	c.ViewsFile = filepath.Join(t.TempDir(), "missing.yaml")
	_, _, err = buildService(context.Background(), c, &memStore{}, m)
	assert.Error(t, err)
}

func TestBuildService_AmenityBackfill(t *testing.T) {
	m, err := monitoring.NewMetrics(nil)
	require.NoError(t, err)

	c := testConfig()
	c.Geo.AmenityBackfill = true
	svc, _, err := buildService(context.Background(), c, &memStore{}, m)
	require.NoError(t, err)
	assert.NotNil(t, svc)
}

func TestBuildEstimator(t *testing.T) {
	m, err := monitoring.NewMetrics(nil)
	require.NoError(t, err)

	assert.NotNil(t, buildEstimator(config.PredictorConfig{}, m))
	assert.NotNil(t, buildEstimator(config.PredictorConfig{
		URL: "http://predictor.local", TimeoutMs: 500, RateLimit: 10, Burst: 2, CircuitThreshold: 3,
	}, m))
}
