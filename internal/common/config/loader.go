// internal/common/config/loader.go
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	DefaultIndex              = "sales_data"
	DefaultRecentLimit        = 10
	DefaultMaxRecentLimit     = 10000
	defaultPort               = 5000
	defaultRequestTimeoutMs   = 30000
	defaultShutdownTimeoutMs  = 15000
	defaultElasticsearchURL   = "http://localhost:9200"
	defaultApplicationName    = "sales-dashboard"
	defaultApplicationVersion = "1.0.0"

	// SeedRequestCount is the number of sequential engine calls one seed run
	// makes: exists, delete, create, bulk and refresh.
	SeedRequestCount = 5
)

// Load reads configs/config.yaml, overlays config.<APP_ENVIRONMENT>.yaml and
// applies environment overrides.
func Load() (*Config, error) {
	loadEnvFile()

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./configs")
	v.AddConfigPath("../../configs")
	v.AddConfigPath(".")

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	env := os.Getenv("APP_ENVIRONMENT")
	if env == "" {
		env = "development"
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading base config: %w", err)
		}
	}

	v.SetConfigName(fmt.Sprintf("config.%s", env))
	_ = v.MergeInConfig() // env overlay is optional

	return finish(v)
}

// LoadFromFile loads configuration from a specific file path
func LoadFromFile(path string) (*Config, error) {
	loadEnvFile()

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	return finish(v)
}

func finish(v *viper.Viper) (*Config, error) {
	expandEnvVars(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	overrideFromEnv(&cfg)
	applyDefaults(&cfg)

	if err := validateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

func loadEnvFile() {
	possiblePaths := []string{
		".env",
		"../.env",
		"../../.env",
	}

	if rootDir := findProjectRoot(); rootDir != "" {
		possiblePaths = append(possiblePaths, filepath.Join(rootDir, ".env"))
	}

	for _, path := range possiblePaths {
		if _, err := os.Stat(path); err == nil {
			if err := godotenv.Load(path); err == nil {
				return
			}
		}
	}
}

// findProjectRoot walks up from the working directory looking for go.mod.
func findProjectRoot() string {
	dir, err := os.Getwd()
	if err != nil {
		return ""
	}

	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return ""
}

// expandEnvVars resolves ${VAR} placeholders inside string values. Unset
// variables expand to empty so defaults still apply.
func expandEnvVars(v *viper.Viper) {
	for _, key := range v.AllKeys() {
		strVal, ok := v.Get(key).(string)
		if !ok {
			continue
		}
		if strings.Contains(strVal, "${") || (strings.HasPrefix(strVal, "$") && len(strVal) > 1) {
			expanded := os.ExpandEnv(strVal)
			if expanded != strVal {
				v.Set(key, expanded)
			}
		}
	}
}

// overrideFromEnv applies the short, unprefixed variables the deployment
// manifests use. They win over anything read from YAML.
func overrideFromEnv(cfg *Config) {
	if val := os.Getenv("ELASTICSEARCH_URL"); val != "" {
		cfg.Database.Elasticsearch.URL = val
	}
	if val := os.Getenv("ELASTICSEARCH_USERNAME"); val != "" {
		cfg.Database.Elasticsearch.Username = val
	}
	if val := os.Getenv("ELASTICSEARCH_PASSWORD"); val != "" {
		cfg.Database.Elasticsearch.Password = val
	}
	if val := os.Getenv("REDIS_ADDRESS"); val != "" {
		cfg.Database.Redis.Address = val
	}
	if val := os.Getenv("REDIS_PASSWORD"); val != "" {
		cfg.Database.Redis.Password = val
	}
	if val := os.Getenv("SERVER_PORT"); val != "" {
		if port, err := strconv.Atoi(val); err == nil {
			cfg.Server.Port = port
		}
	}
	if val := os.Getenv("LOG_LEVEL"); val != "" {
		cfg.Logging.Level = val
	}
}

// applyDefaults sets default values for optional configuration fields
func applyDefaults(cfg *Config) {
	if cfg.App.Name == "" {
		cfg.App.Name = defaultApplicationName
	}
	if cfg.App.Version == "" {
		cfg.App.Version = defaultApplicationVersion
	}
	if cfg.App.Environment == "" {
		cfg.App.Environment = "development"
	}

	if cfg.Server.Port == 0 {
		cfg.Server.Port = defaultPort
	}
	if cfg.Server.Mode == "" {
		cfg.Server.Mode = "release"
	}
	if len(cfg.Server.AllowedOrigins) == 0 {
		cfg.Server.AllowedOrigins = []string{"http://localhost:3000"}
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = defaultShutdownTimeoutMs
	}

	if cfg.Database.Elasticsearch.URL == "" && len(cfg.Database.Elasticsearch.Addresses) > 0 {
		cfg.Database.Elasticsearch.URL = cfg.Database.Elasticsearch.Addresses[0]
	}
	if cfg.Database.Elasticsearch.URL == "" {
		cfg.Database.Elasticsearch.URL = defaultElasticsearchURL
	}
	if cfg.Database.Elasticsearch.Index == "" {
		cfg.Database.Elasticsearch.Index = DefaultIndex
	}
	if cfg.Database.Elasticsearch.RequestTimeout == 0 {
		cfg.Database.Elasticsearch.RequestTimeout = defaultRequestTimeoutMs
	}

	if cfg.Database.Redis.SeedLockTTL == 0 {
		cfg.Database.Redis.SeedLockTTL = minSeedLockTTL(cfg)
	}

	if cfg.Dashboard.DefaultRecentLimit == 0 {
		cfg.Dashboard.DefaultRecentLimit = DefaultRecentLimit
	}
	if cfg.Dashboard.MaxRecentLimit == 0 {
		cfg.Dashboard.MaxRecentLimit = DefaultMaxRecentLimit
	}
	if len(cfg.Dashboard.SearchFields) == 0 {
		cfg.Dashboard.SearchFields = []string{"product", "region"}
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}
}

// validateConfig validates critical configuration fields
func validateConfig(cfg *Config) error {
	if cfg.Server.Port < 1 || cfg.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535, got %d", cfg.Server.Port)
	}
	if cfg.Database.Elasticsearch.RequestTimeout < 0 {
		return fmt.Errorf("database.elasticsearch.request_timeout must not be negative")
	}
	if cfg.Database.Redis.Enabled() && cfg.Database.Redis.SeedLockTTL < minSeedLockTTL(cfg) {
		return fmt.Errorf("database.redis.seed_lock_ttl (%d) must cover %d request timeouts (%d)",
			cfg.Database.Redis.SeedLockTTL, SeedRequestCount, minSeedLockTTL(cfg))
	}
	if cfg.Dashboard.DefaultRecentLimit < 1 {
		return fmt.Errorf("dashboard.default_recent_limit must be positive")
	}
	if cfg.Dashboard.MaxRecentLimit < cfg.Dashboard.DefaultRecentLimit {
		return fmt.Errorf("dashboard.max_recent_limit (%d) is below default_recent_limit (%d)",
			cfg.Dashboard.MaxRecentLimit, cfg.Dashboard.DefaultRecentLimit)
	}
	return nil
}

// minSeedLockTTL is the longest a seed run can take before every request
// has hit its timeout. A shorter lock could expire mid-run.
func minSeedLockTTL(cfg *Config) int {
	return SeedRequestCount * cfg.Database.Elasticsearch.RequestTimeout
}
