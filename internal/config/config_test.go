package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/donaldgifford/storefront-query/internal/filter"
)

const minimalPrimary = `
primary:
  base_url: https://catalog.example.com/api
  consumer_key: ck
  consumer_secret: cs
`

func TestLoad(t *testing.T) {
	tests := []struct {
		name      string
		yaml      string
		envVars   map[string]string
		wantErr   string
		checkFunc func(t *testing.T, cfg *Config)
	}{
		{
			name: "valid minimal config",
			yaml: minimalPrimary,
			checkFunc: func(t *testing.T, cfg *Config) {
				t.Helper()
				assert.Equal(t, "https://catalog.example.com/api", cfg.Primary.BaseURL)
				assert.Equal(t, "ck", cfg.Primary.ConsumerKey)
				assert.Equal(t, "cs", cfg.Primary.ConsumerSecret)
				assert.Empty(t, cfg.Primary.AccessToken)
			},
		},
		{
			name: "defaults applied for optional fields",
			yaml: minimalPrimary,
			checkFunc: func(t *testing.T, cfg *Config) {
				t.Helper()
				assert.Equal(t, "127.0.0.1", cfg.Server.Host)
				assert.Equal(t, 8080, cfg.Server.Port)
				assert.Equal(t, 30*time.Second, cfg.Server.ReadTimeout)
				assert.Equal(t, 60*time.Second, cfg.Server.WriteTimeout)
				assert.Equal(t, 30*time.Second, cfg.Primary.Timeout)
				assert.InDelta(t, 5.0, cfg.Primary.RateLimit.PerSecond, 0)
				assert.Equal(t, 10, cfg.Primary.RateLimit.Burst)
				assert.Equal(t, int64(0), cfg.Primary.RateLimit.DailyLimit)
				assert.Equal(t, "https://visual-search.storefront.example.com", cfg.VisualSearch.DefaultBaseURL)
				assert.Equal(t, time.Minute, cfg.VisualSearch.RefreshInterval)
				assert.Equal(t, "category2", cfg.Filters.DefaultCategoryParam)
				assert.Equal(t, "bolt", cfg.Storage.Backend)
				assert.Equal(t, "data/storefront-query.db", cfg.Storage.Bolt.Path)
				assert.Equal(t, 5432, cfg.Storage.Postgres.Port)
				assert.Equal(t, 10, cfg.Paging.MaxPages)
				assert.Equal(t, "info", cfg.Logging.Level)
				assert.Equal(t, "text", cfg.Logging.Format)
			},
		},
		{
			name: "env var substitution",
			yaml: `
primary:
  base_url: https://catalog.example.com
  consumer_key: ${TEST_SFQ_CONSUMER_KEY}
  consumer_secret: ${TEST_SFQ_CONSUMER_SECRET}
  access_token: ${TEST_SFQ_ACCESS_TOKEN}
`,
			envVars: map[string]string{
				"TEST_SFQ_CONSUMER_KEY":    "env-key",
				"TEST_SFQ_CONSUMER_SECRET": "env-secret",
				"TEST_SFQ_ACCESS_TOKEN":    "env-token",
			},
			checkFunc: func(t *testing.T, cfg *Config) {
				t.Helper()
				assert.Equal(t, "env-key", cfg.Primary.ConsumerKey)
				assert.Equal(t, "env-secret", cfg.Primary.ConsumerSecret)
				assert.Equal(t, "env-token", cfg.Primary.AccessToken)
			},
		},
		{
			name:    "missing primary settings",
			yaml:    "server:\n  port: 9000\n",
			wantErr: "primary.base_url is required",
		},
		{
			name: "relative primary url",
			yaml: `
primary:
  base_url: /api
  consumer_key: ck
  consumer_secret: cs
`,
			wantErr: "primary.base_url must be an absolute URL",
		},
		{
			name:    "postgres backend requires connection fields",
			yaml:    minimalPrimary + "storage:\n  backend: postgres\n",
			wantErr: "storage.postgres.host is required",
		},
		{
			name:    "unknown storage backend",
			yaml:    minimalPrimary + "storage:\n  backend: redis\n",
			wantErr: "storage.backend must be one of",
		},
		{
			name:    "unknown logging format",
			yaml:    minimalPrimary + "logging:\n  format: xml\n",
			wantErr: "logging.format must be one of",
		},
		{
			name:    "unknown filter dimension",
			yaml:    minimalPrimary + "filters:\n  fallbacks:\n    material: mat\n",
			wantErr: "filters.fallbacks",
		},
		{
			name:    "invalid YAML",
			yaml:    "primary: [unclosed",
			wantErr: "parsing config YAML",
		},
		{
			name: "full config",
			yaml: `
server:
  host: 0.0.0.0
  port: 9090
  read_timeout: 10s
primary:
  base_url: https://catalog.example.com
  consumer_key: ck
  consumer_secret: cs
  access_token: at
  token_secret: ts
  timeout: 5s
  rate_limit:
    per_second: 2
    burst: 4
    daily_limit: 1000
visual_search:
  default_base_url: https://vs.example.com
  timeout: 15s
  refresh_interval: 30s
filters:
  default_category_param: cat_l2
  fallbacks:
    color: colour
storage:
  backend: postgres
  postgres:
    host: db.example.com
    port: 5433
    name: sfq
    user: sfq
    password: secret
    sslmode: require
paging:
  max_pages: 3
logging:
  level: debug
  format: console
`,
			checkFunc: func(t *testing.T, cfg *Config) {
				t.Helper()
				assert.Equal(t, "0.0.0.0", cfg.Server.Host)
				assert.Equal(t, 9090, cfg.Server.Port)
				assert.Equal(t, 10*time.Second, cfg.Server.ReadTimeout)
				assert.Equal(t, "ts", cfg.Primary.TokenSecret)
				assert.Equal(t, 5*time.Second, cfg.Primary.Timeout)
				assert.Equal(t, int64(1000), cfg.Primary.RateLimit.DailyLimit)
				assert.Equal(t, 4, cfg.Primary.RateLimit.Burst)
				assert.Equal(t, "https://vs.example.com", cfg.VisualSearch.DefaultBaseURL)
				assert.Equal(t, 30*time.Second, cfg.VisualSearch.RefreshInterval)
				assert.Equal(t, "cat_l2", cfg.Filters.DefaultCategoryParam)
				assert.Equal(t, "postgres", cfg.Storage.Backend)
				assert.Equal(t, 5433, cfg.Storage.Postgres.Port)
				assert.Equal(t, 3, cfg.Paging.MaxPages)
				assert.Equal(t, "console", cfg.Logging.Format)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Only parallelize tests that don't modify env vars.
			if len(tt.envVars) == 0 {
				t.Parallel()
			}

			for k, v := range tt.envVars {
				t.Setenv(k, v)
			}

			dir := t.TempDir()
			path := filepath.Join(dir, "config.yaml")
			require.NoError(t, os.WriteFile(path, []byte(tt.yaml), 0o644))

			cfg, err := Load(path)

			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}

			require.NoError(t, err)
			require.NotNil(t, cfg)

			if tt.checkFunc != nil {
				tt.checkFunc(t, cfg)
			}
		})
	}
}

func TestLoad_FileNotFound(t *testing.T) {
	t.Parallel()

	_, err := Load("/nonexistent/path/config.yaml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "reading config file")
}

func TestPostgresConfig_DSN(t *testing.T) {
	t.Parallel()

	d := PostgresConfig{
		Host:     "db",
		Port:     5432,
		Name:     "sfq",
		User:     "u",
		Password: "p",
		SSLMode:  "disable",
	}
	assert.Equal(t, "host=db port=5432 dbname=sfq user=u password=p sslmode=disable", d.DSN())
}

func TestFiltersConfig_Resolver(t *testing.T) {
	t.Parallel()

	f := FiltersConfig{
		DefaultCategoryParam: "cat_l2",
		Fallbacks:            map[string]string{"color": "colour", "size": "sz"},
	}
	r, err := f.Resolver()
	require.NoError(t, err)
	assert.Equal(t, "cat_l2", r.DefaultCategoryParam)
	assert.Equal(t, map[filter.Dimension]string{filter.Color: "colour", filter.Size: "sz"}, r.Fallbacks)

	empty, err := (&FiltersConfig{}).Resolver()
	require.NoError(t, err)
	assert.Nil(t, empty.Fallbacks)
}
