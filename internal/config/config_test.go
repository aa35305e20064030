package config

import (
	"testing"
)

var configEnvVars = []string{
	"PORT", "ENV", "LOG_LEVEL",
	"DB_ENABLED", "DB_HOST", "DB_PORT", "DB_NAME", "DB_USER", "DB_PASSWORD", "DB_POOL_MIN", "DB_POOL_MAX",
	"CORS_ORIGINS", "ENGINE_WORKERS", "DEFAULT_SCHEME_LIFETIME", "DEFAULT_SOP", "METRICS_ENABLED",
}

// clearConfigEnv blanks every config variable for the duration of the test.
// Viper treats empty values as unset.
func clearConfigEnv(t *testing.T) {
	t.Helper()
	for _, key := range configEnvVars {
		t.Setenv(key, "")
	}
}

func validConfig() *Config {
	return &Config{
		Server: ServerConfig{Port: "8080", Env: "development"},
		Database: DatabaseConfig{
			Enabled: true, Host: "localhost", Port: "5432", Name: "floodfas",
			User: "postgres", Password: "postgres", PoolMin: 2, PoolMax: 10,
		},
		CORS:   CORSConfig{Origins: []string{"http://localhost:3000"}},
		Engine: EngineConfig{Workers: 4, DefaultSchemeLifetime: 50, DefaultSOP: 25},
	}
}

func TestLoad_WithDefaults(t *testing.T) {
	clearConfigEnv(t)

	// Storage is off by default, so no password is needed
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if cfg.Server.Port != "8080" {
		t.Errorf("Expected port 8080, got %s", cfg.Server.Port)
	}
	if cfg.Server.Env != "development" {
		t.Errorf("Expected env development, got %s", cfg.Server.Env)
	}
	if cfg.Database.Enabled {
		t.Error("Expected snapshot storage to be disabled by default")
	}
	if cfg.Database.Name != "floodfas" {
		t.Errorf("Expected db name floodfas, got %s", cfg.Database.Name)
	}
	if cfg.Engine.Workers < 1 {
		t.Errorf("Expected at least one engine worker, got %d", cfg.Engine.Workers)
	}
	if cfg.Engine.DefaultSchemeLifetime != 50 {
		t.Errorf("Expected scheme lifetime 50, got %d", cfg.Engine.DefaultSchemeLifetime)
	}
	if cfg.Engine.DefaultSOP != 25 {
		t.Errorf("Expected SOP 25, got %d", cfg.Engine.DefaultSOP)
	}
	if !cfg.Metrics.Enabled {
		t.Error("Expected metrics to be enabled by default")
	}
	if len(cfg.CORS.Origins) != 2 {
		t.Errorf("Expected 2 CORS origins, got %d", len(cfg.CORS.Origins))
	}
}

func TestLoad_WithEnvironmentVariables(t *testing.T) {
	clearConfigEnv(t)
	t.Setenv("PORT", "9090")
	t.Setenv("ENV", "production")
	t.Setenv("LOG_LEVEL", "warn")
	t.Setenv("DB_ENABLED", "true")
	t.Setenv("DB_HOST", "localhost")
	t.Setenv("DB_PASSWORD", "testpass")
	t.Setenv("DB_POOL_MIN", "5")
	t.Setenv("DB_POOL_MAX", "20")
	t.Setenv("CORS_ORIGINS", "http://example.com,https://app.example.com")
	t.Setenv("ENGINE_WORKERS", "3")
	t.Setenv("DEFAULT_SCHEME_LIFETIME", "100")
	t.Setenv("DEFAULT_SOP", "200")
	t.Setenv("METRICS_ENABLED", "false")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if cfg.Server.Port != "9090" {
		t.Errorf("Expected port 9090, got %s", cfg.Server.Port)
	}
	if cfg.Server.LogLevel != "warn" {
		t.Errorf("Expected log level warn, got %s", cfg.Server.LogLevel)
	}
	if !cfg.Database.Enabled {
		t.Error("Expected snapshot storage to be enabled")
	}
	if cfg.Database.Host != "localhost" {
		t.Errorf("Expected host localhost, got %s", cfg.Database.Host)
	}
	if cfg.Database.PoolMin != 5 || cfg.Database.PoolMax != 20 {
		t.Errorf("Expected pool 5..20, got %d..%d", cfg.Database.PoolMin, cfg.Database.PoolMax)
	}
	if cfg.CORS.Origins[0] != "http://example.com" {
		t.Errorf("Expected first origin http://example.com, got %s", cfg.CORS.Origins[0])
	}
	if cfg.Engine.Workers != 3 {
		t.Errorf("Expected 3 engine workers, got %d", cfg.Engine.Workers)
	}
	if cfg.Engine.DefaultSchemeLifetime != 100 {
		t.Errorf("Expected scheme lifetime 100, got %d", cfg.Engine.DefaultSchemeLifetime)
	}
	if cfg.Engine.DefaultSOP != 200 {
		t.Errorf("Expected SOP 200, got %d", cfg.Engine.DefaultSOP)
	}
	if cfg.Metrics.Enabled {
		t.Error("Expected metrics to be disabled")
	}
}

func TestLoad_StorageEnabledWithoutPassword(t *testing.T) {
	clearConfigEnv(t)
	t.Setenv("DB_ENABLED", "true")

	_, err := Load()
	if err == nil {
		t.Error("Expected error when DB_PASSWORD is missing and storage is enabled")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"valid", func(*Config) {}, false},
		{"missing port", func(c *Config) { c.Server.Port = "" }, true},
		{"missing db host", func(c *Config) { c.Database.Host = "" }, true},
		{"missing db password", func(c *Config) { c.Database.Password = "" }, true},
		{"db fields ignored when storage is off", func(c *Config) {
			c.Database.Enabled = false
			c.Database.Password = ""
			c.Database.PoolMax = 0
		}, false},
		{"negative pool min", func(c *Config) { c.Database.PoolMin = -1 }, true},
		{"zero pool max", func(c *Config) { c.Database.PoolMin, c.Database.PoolMax = 0, 0 }, true},
		{"pool min greater than max", func(c *Config) { c.Database.PoolMin = 15 }, true},
		{"missing CORS origins", func(c *Config) { c.CORS.Origins = []string{} }, true},
		{"zero workers", func(c *Config) { c.Engine.Workers = 0 }, true},
		{"scheme lifetime too long", func(c *Config) { c.Engine.DefaultSchemeLifetime = 101 }, true},
		{"zero SOP", func(c *Config) { c.Engine.DefaultSOP = 0 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)

			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestParseOrigins(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		expect []string
	}{
		{
			name:   "single origin",
			input:  "http://localhost:3000",
			expect: []string{"http://localhost:3000"},
		},
		{
			name:   "origins with spaces",
			input:  " http://localhost:3000 , http://localhost:3001 ",
			expect: []string{"http://localhost:3000", "http://localhost:3001"},
		},
		{
			name:   "only commas",
			input:  ",,,",
			expect: []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := parseOrigins(tt.input)
			if len(result) != len(tt.expect) {
				t.Errorf("Expected %d origins, got %d", len(tt.expect), len(result))
				return
			}
			for i, origin := range result {
				if origin != tt.expect[i] {
					t.Errorf("Expected origin %s at index %d, got %s", tt.expect[i], i, origin)
				}
			}
		})
	}
}
