package config

import (
	"fmt"
	"net"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Acquire policies accepted in database.acquire_policy.
const (
	AcquirePolicyBlock    = "block"
	AcquirePolicyFailFast = "fail_fast"
)

// Config holds the facilityfinder API configuration.
type Config struct {
	HTTP     HTTPConfig     `yaml:"http"`
	Database DatabaseConfig `yaml:"database"`
	Breaker  BreakerConfig  `yaml:"breaker"`
	Cache    CacheConfig    `yaml:"cache"`
	Search   SearchConfig   `yaml:"search"`
	Auth     AuthConfig     `yaml:"auth"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
}

// AuthConfig holds API authentication settings.
type AuthConfig struct {
	APIKeys []string `yaml:"api_keys"`
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Port               int      `yaml:"port"`
	ReadTimeoutSec     int      `yaml:"read_timeout_sec"`
	WriteTimeoutSec    int      `yaml:"write_timeout_sec"`
	ShutdownSec        int      `yaml:"shutdown_timeout_sec"`
	CORSAllowedOrigins []string `yaml:"cors_allowed_origins"`
	RateLimitRPS       float64  `yaml:"rate_limit_rps"`   // 0 = unlimited
	RateLimitBurst     int      `yaml:"rate_limit_burst"` // defaults to ceil(rps)
}

// DatabaseConfig holds PostgreSQL connection and pool settings.
type DatabaseConfig struct {
	Host                string `yaml:"host"`
	Port                int    `yaml:"port"`
	User                string `yaml:"user"`
	Password            string `yaml:"password"`
	Name                string `yaml:"name"`
	SSLMode             string `yaml:"sslmode"`
	Table               string `yaml:"table"`
	MinConns            int    `yaml:"min_conns"`
	MaxConns            int    `yaml:"max_conns"`
	AcquirePolicy       string `yaml:"acquire_policy"` // block | fail_fast
	AcquireTimeoutMs    int    `yaml:"acquire_timeout_ms"`
	QueryTimeoutMs      int    `yaml:"query_timeout_ms"`
	MaxConnLifetimeSec  int    `yaml:"max_conn_lifetime_sec"`
	ReadinessTimeoutSec int    `yaml:"readiness_timeout_sec"`
}

// BreakerConfig holds circuit breaker settings for new connections.
type BreakerConfig struct {
	Enabled     bool    `yaml:"enabled"`
	MaxRequests uint32  `yaml:"max_requests"`
	IntervalSec int     `yaml:"interval_sec"`
	TimeoutSec  int     `yaml:"timeout_sec"`
	TripRatio   float64 `yaml:"trip_ratio"`
}

// CacheConfig holds the optional Redis result cache settings.
type CacheConfig struct {
	Enabled        bool     `yaml:"enabled"`
	Addrs          []string `yaml:"addrs"`
	Username       string   `yaml:"username"`
	Password       string   `yaml:"password"`
	DB             int      `yaml:"db"`
	DialTimeoutSec int      `yaml:"dial_timeout_sec"`
	TTLSec         int      `yaml:"ttl_sec"`
	KeyPrefix      string   `yaml:"key_prefix"`
}

// SearchConfig holds result-size settings.
type SearchConfig struct {
	DefaultMaxResults int `yaml:"default_max_results"`
	MaxResultsLimit   int `yaml:"max_results_limit"`
}

// DSN renders the connection string understood by both pgx and lib/pq.
func (d DatabaseConfig) DSN() string {
	u := url.URL{
		Scheme: "postgres",
		Host:   net.JoinHostPort(d.Host, strconv.Itoa(d.Port)),
		Path:   "/" + d.Name,
	}
	if d.Password != "" {
		u.User = url.UserPassword(d.User, d.Password)
	} else if d.User != "" {
		u.User = url.User(d.User)
	}
	q := url.Values{}
	q.Set("sslmode", d.SSLMode)
	u.RawQuery = q.Encode()
	return u.String()
}

// AcquireTimeout returns database.acquire_timeout_ms as a duration.
func (d DatabaseConfig) AcquireTimeout() time.Duration {
	return time.Duration(d.AcquireTimeoutMs) * time.Millisecond
}

// QueryTimeout returns database.query_timeout_ms as a duration.
func (d DatabaseConfig) QueryTimeout() time.Duration {
	return time.Duration(d.QueryTimeoutMs) * time.Millisecond
}

// Load reads configuration from a YAML file by environment name (local, dev, prod).
func Load(env string) (Config, error) {
	configPath := findConfigPath(env)

	data, err := os.ReadFile(filepath.Clean(configPath))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", configPath, err)
	}

	return Parse(data)
}

// Parse expands environment variables in data, decodes it, applies defaults and validates.
func Parse(data []byte) (Config, error) {
	data = expandEnvVars(data)

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// MustLoad loads configuration or panics.
func MustLoad(env string) Config {
	cfg, err := Load(env)
	if err != nil {
		panic(err)
	}
	return cfg
}

// GetEnv returns the current environment from the ENV variable, defaulting to "local".
func GetEnv() string {
	if env := os.Getenv("ENV"); env != "" {
		return env
	}
	return "local"
}

// ApplyDefaults fills empty fields with default values.
func (c *Config) ApplyDefaults() {
	c.applyHTTPDefaults()
	c.applyDatabaseDefaults()

	if c.Breaker.MaxRequests == 0 {
		c.Breaker.MaxRequests = 1
	}
	if c.Breaker.IntervalSec <= 0 {
		c.Breaker.IntervalSec = 60
	}
	if c.Breaker.TimeoutSec <= 0 {
		c.Breaker.TimeoutSec = 30
	}
	if c.Breaker.TripRatio == 0 {
		c.Breaker.TripRatio = 0.6
	}

	if c.Cache.DialTimeoutSec <= 0 {
		c.Cache.DialTimeoutSec = 3
	}
	if c.Cache.TTLSec <= 0 {
		c.Cache.TTLSec = 60
	}
	if c.Cache.KeyPrefix == "" {
		c.Cache.KeyPrefix = "facilityfinder:"
	}

	if c.Search.DefaultMaxResults <= 0 {
		c.Search.DefaultMaxResults = 30
	}
	if c.Search.MaxResultsLimit <= 0 {
		c.Search.MaxResultsLimit = 500
	}
}

func (c *Config) applyHTTPDefaults() {
	if c.HTTP.ReadTimeoutSec <= 0 {
		c.HTTP.ReadTimeoutSec = 10
	}
	if c.HTTP.WriteTimeoutSec <= 0 {
		c.HTTP.WriteTimeoutSec = 30
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}
	if len(c.HTTP.CORSAllowedOrigins) == 0 {
		c.HTTP.CORSAllowedOrigins = []string{"*"}
	}
	if c.HTTP.RateLimitRPS > 0 && c.HTTP.RateLimitBurst <= 0 {
		c.HTTP.RateLimitBurst = int(c.HTTP.RateLimitRPS + 0.999)
	}
}

func (c *Config) applyDatabaseDefaults() {
	d := &c.Database
	if d.Host == "" {
		d.Host = "localhost"
	}
	if d.Port <= 0 {
		d.Port = 5432
	}
	if d.SSLMode == "" {
		d.SSLMode = "disable"
	}
	if d.Table == "" {
		d.Table = "medical_institutions"
	}
	if d.MinConns <= 0 {
		d.MinConns = 1
	}
	if d.MaxConns <= 0 {
		d.MaxConns = 10
	}
	if d.AcquirePolicy == "" {
		d.AcquirePolicy = AcquirePolicyBlock
	}
	if d.AcquireTimeoutMs <= 0 {
		d.AcquireTimeoutMs = 5000
	}
	if d.QueryTimeoutMs <= 0 {
		d.QueryTimeoutMs = 10000
	}
	if d.MaxConnLifetimeSec <= 0 {
		d.MaxConnLifetimeSec = 300
	}
	if d.ReadinessTimeoutSec <= 0 {
		d.ReadinessTimeoutSec = 10
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}
	if c.HTTP.RateLimitRPS < 0 {
		return fmt.Errorf("http.rate_limit_rps must not be negative, got %v", c.HTTP.RateLimitRPS)
	}
	if c.Database.Name == "" {
		return fmt.Errorf("database.name is required")
	}
	if c.Database.MaxConns < 1 {
		return fmt.Errorf("database.max_conns must be at least 1, got %d", c.Database.MaxConns)
	}
	if c.Database.MinConns > c.Database.MaxConns {
		return fmt.Errorf("database.min_conns (%d) must not exceed database.max_conns (%d)",
			c.Database.MinConns, c.Database.MaxConns)
	}
	switch c.Database.AcquirePolicy {
	case AcquirePolicyBlock, AcquirePolicyFailFast:
		// ok
	default:
		return fmt.Errorf("database.acquire_policy must be %q or %q, got %q",
			AcquirePolicyBlock, AcquirePolicyFailFast, c.Database.AcquirePolicy)
	}
	if c.Breaker.Enabled && (c.Breaker.TripRatio <= 0 || c.Breaker.TripRatio > 1) {
		return fmt.Errorf("breaker.trip_ratio must be in (0, 1], got %v", c.Breaker.TripRatio)
	}
	if c.Cache.Enabled && len(c.Cache.Addrs) == 0 {
		return fmt.Errorf("cache.addrs is required when cache is enabled")
	}
	if c.Search.DefaultMaxResults > c.Search.MaxResultsLimit {
		return fmt.Errorf("search.default_max_results (%d) must not exceed search.max_results_limit (%d)",
			c.Search.DefaultMaxResults, c.Search.MaxResultsLimit)
	}
	return nil
}

// findConfigPath locates the config file.
func findConfigPath(env string) string {
	filename := fmt.Sprintf("%s.yaml", env)

	// 1. Check ./config/
	if path := filepath.Join("config", filename); fileExists(path) {
		return path
	}

	// 2. Check relative to the source file
	_, b, _, _ := runtime.Caller(0)
	projectRoot := filepath.Dir(filepath.Dir(filepath.Dir(b))) // internal/config -> project root
	if path := filepath.Join(projectRoot, "config", filename); fileExists(path) {
		return path
	}

	// 3. Fallback to ./config/
	return filepath.Join("config", filename)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// expandEnvVars replaces ${VAR} and ${VAR:-default} with environment variable values.
var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

func expandEnvVars(data []byte) []byte {
	return envVarRegex.ReplaceAllFunc(data, func(match []byte) []byte {
		expr := string(match[2 : len(match)-1]) // strip ${ and }
		varName, defaultVal, hasDefault := strings.Cut(expr, ":-")
		val := os.Getenv(varName)
		if val == "" && hasDefault {
			val = defaultVal
		}
		return []byte(val)
	})
}
