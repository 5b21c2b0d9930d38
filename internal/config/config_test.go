package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, ":8080", cfg.Addr())
	assert.Equal(t, BackendMemory, cfg.StoreBackend)
	assert.Equal(t, CatalogBuiltin, cfg.CatalogSource)
	assert.Equal(t, "visitor", cfg.VisitorCookie)
	assert.Equal(t, 10*time.Second, cfg.ToastTTL)
	assert.Equal(t, 3*time.Second, cfg.StoreTimeout)
	assert.Equal(t, 120, cfg.MutationLimitPerMin)
}

func TestLoad_ParseError(t *testing.T) {
	t.Setenv("PORT", "not-an-int")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse env:")
}

func TestLoad_Validation(t *testing.T) {
	cases := []struct {
		name string
		env  map[string]string
		want string
	}{
		{"port out of range", map[string]string{"PORT": "70000"}, "invalid PORT"},
		{"unknown backend", map[string]string{"STORE_BACKEND": "etcd"}, "unknown STORE_BACKEND"},
		{"postgres without url", map[string]string{"STORE_BACKEND": "postgres"}, "DATABASE_URL is required"},
		{"sql catalog without db", map[string]string{"CATALOG_SOURCE": "sql"}, "CATALOG_SOURCE=sql"},
		{"short secret", map[string]string{"VISITOR_SECRET": "short"}, "VISITOR_SECRET"},
		{"zero toast ttl", map[string]string{"TOAST_TTL": "0s"}, "TOAST_TTL"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			for k, v := range tc.env {
				t.Setenv(k, v)
			}
			_, err := Load()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.want)
		})
	}
}

func TestLoad_SQLiteCatalog(t *testing.T) {
	t.Setenv("STORE_BACKEND", "sqlite")
	t.Setenv("CATALOG_SOURCE", "sql")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "storefront.db", cfg.SQLitePath)
}
