package config

import (
	"time"
)

// Built-in values of the user settings. They are the baseline Save compares
// against: only settings that differ from these are written to disk.
const (
	DefaultLang  = "en"
	DefaultPager = "less -R -I -S -X"
)

// Config is the root application configuration. The top-level fields are
// the user settings that command-line flags may override and persist; the
// nested sections are operator settings that are only read.
type Config struct {
	Lang      string `yaml:"lang"       env:"LEO_LANG"       env-default:"en"`
	Pager     string `yaml:"pager"      env:"LEO_PAGER"      env-default:"less -R -I -S -X"`
	UseEmojis bool   `yaml:"use_emojis" env:"LEO_USE_EMOJIS" env-default:"false"`
	// cleanenv applies env-default only to zero values, so the true
	// defaults of these two are seeded by Load instead.
	UseColor bool   `yaml:"use_color"  env:"LEO_USE_COLOR"`
	UseCache bool   `yaml:"use_cache"  env:"LEO_USE_CACHE"`
	CacheDir string `yaml:"cache_dir"  env:"LEO_CACHE_DIR"`

	Provider ProviderConfig `yaml:"provider"`
	Cache    CacheConfig    `yaml:"cache"`
	Server   ServerConfig   `yaml:"server"`
	Log      LogConfig      `yaml:"log"`

	// Path is the file the configuration was read from, empty if none.
	Path string `yaml:"-" env:"-"`
}

// ProviderConfig holds settings of the LEO HTTP client.
type ProviderConfig struct {
	BaseURL        string        `yaml:"base_url"        env:"LEO_PROVIDER_BASE_URL"    env-default:"https://dict.leo.org/dictQuery/m-vocab"`
	Timeout        time.Duration `yaml:"timeout"         env:"LEO_PROVIDER_TIMEOUT"     env-default:"10s"`
	RetryDelay     time.Duration `yaml:"retry_delay"     env:"LEO_PROVIDER_RETRY_DELAY" env-default:"500ms"`
	UserAgent      string        `yaml:"user_agent"      env:"LEO_PROVIDER_USER_AGENT"  env-default:"leocli"`
	AnnotationTags []string      `yaml:"annotation_tags" env:"LEO_ANNOTATION_TAGS"      env-default:"small,domain" env-separator:","`
	Request        RequestConfig `yaml:"request"`
}

// RequestConfig holds the query options sent with every dictionary request.
type RequestConfig struct {
	ToleranceMode       string `yaml:"tolerance_mode"        env:"LEO_REQUEST_TOLERANCE_MODE"   env-default:"nof"`
	WordRemoval         string `yaml:"word_removal"          env:"LEO_REQUEST_WORD_REMOVAL"     env-default:"off"`
	SearchRemoval       string `yaml:"search_removal"        env:"LEO_REQUEST_SEARCH_REMOVAL"   env-default:"on"`
	SearchLocation      int    `yaml:"search_location"       env:"LEO_REQUEST_SEARCH_LOCATION"  env-default:"0"`
	ResultOrder         string `yaml:"result_order"          env:"LEO_REQUEST_RESULT_ORDER"     env-default:"basic"`
	MultiwordShowSingle string `yaml:"multiword_show_single" env:"LEO_REQUEST_MULTIWORD_SINGLE" env-default:"on"`
	UILanguage          string `yaml:"ui_language"           env:"LEO_REQUEST_UI_LANGUAGE"      env-default:"de"`
}

// CacheConfig selects and configures the result cache backend.
type CacheConfig struct {
	Backend  string         `yaml:"backend" env:"LEO_CACHE_BACKEND" env-default:"file"`
	TTL      time.Duration  `yaml:"ttl"     env:"LEO_CACHE_TTL"     env-default:"0s"`
	Redis    RedisConfig    `yaml:"redis"`
	Database DatabaseConfig `yaml:"database"`
}

// Cache backends.
const (
	BackendFile     = "file"
	BackendRedis    = "redis"
	BackendPostgres = "postgres"
)

// RedisConfig holds Redis connection settings.
type RedisConfig struct {
	Addr      string `yaml:"addr"       env:"LEO_REDIS_ADDR"       env-default:"localhost:6379"`
	Password  string `yaml:"password"   env:"LEO_REDIS_PASSWORD"`
	DB        int    `yaml:"db"         env:"LEO_REDIS_DB"         env-default:"0"`
	PoolSize  int    `yaml:"pool_size"  env:"LEO_REDIS_POOL_SIZE"  env-default:"10"`
	KeyPrefix string `yaml:"key_prefix" env:"LEO_REDIS_KEY_PREFIX" env-default:"leocli:"`
}

// DatabaseConfig holds PostgreSQL connection settings.
type DatabaseConfig struct {
	DSN             string        `yaml:"dsn"                env:"LEO_DATABASE_DSN"`
	MaxConns        int32         `yaml:"max_conns"          env:"LEO_DATABASE_MAX_CONNS"          env-default:"10"`
	MinConns        int32         `yaml:"min_conns"          env:"LEO_DATABASE_MIN_CONNS"          env-default:"1"`
	MaxConnLifetime time.Duration `yaml:"max_conn_lifetime"  env:"LEO_DATABASE_MAX_CONN_LIFETIME"  env-default:"1h"`
	MaxConnIdleTime time.Duration `yaml:"max_conn_idle_time" env:"LEO_DATABASE_MAX_CONN_IDLE_TIME" env-default:"30m"`
}

// ServerConfig holds HTTP server settings for `leo --serve`.
type ServerConfig struct {
	Host            string        `yaml:"host"             env:"LEO_SERVER_HOST"             env-default:"127.0.0.1"`
	Port            int           `yaml:"port"             env:"LEO_SERVER_PORT"             env-default:"8080"`
	ReadTimeout     time.Duration `yaml:"read_timeout"     env:"LEO_SERVER_READ_TIMEOUT"     env-default:"10s"`
	WriteTimeout    time.Duration `yaml:"write_timeout"    env:"LEO_SERVER_WRITE_TIMEOUT"    env-default:"30s"`
	IdleTimeout     time.Duration `yaml:"idle_timeout"     env:"LEO_SERVER_IDLE_TIMEOUT"     env-default:"60s"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"LEO_SERVER_SHUTDOWN_TIMEOUT" env-default:"10s"`

	// RateLimitPerMinute caps lookups per client address; 0 disables the limit.
	RateLimitPerMinute int        `yaml:"rate_limit_per_minute" env:"LEO_SERVER_RATE_LIMIT" env-default:"60"`
	CORS               CORSConfig `yaml:"cors"`
}

// CORSConfig controls which browser origins may call the lookup API.
type CORSConfig struct {
	AllowedOrigins []string `yaml:"allowed_origins" env:"LEO_SERVER_CORS_ORIGINS" env-separator:","`
	MaxAge         int      `yaml:"max_age"         env:"LEO_SERVER_CORS_MAX_AGE" env-default:"600"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `yaml:"level"  env:"LEO_LOG_LEVEL"  env-default:"warn"`
	Format string `yaml:"format" env:"LEO_LOG_FORMAT" env-default:"text"`
}
