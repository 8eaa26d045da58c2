package config

import (
	"errors"
	"fmt"
	"net/url"
	"slices"
	"strings"

	"github.com/heartmarshall/leocli/internal/domain"
)

// Validate performs business-rule validation on the loaded configuration.
// It must be called after loading; Load calls it automatically.
func (c *Config) Validate() error {
	if !domain.IsSelectableLanguage(c.Lang) {
		return fmt.Errorf("lang %q is not one of %s", c.Lang, strings.Join(domain.SelectableLanguages(), ", "))
	}

	if err := c.Provider.validate(); err != nil {
		return fmt.Errorf("provider: %w", err)
	}
	if err := c.Cache.validate(); err != nil {
		return fmt.Errorf("cache: %w", err)
	}
	if err := c.Server.validate(); err != nil {
		return fmt.Errorf("server: %w", err)
	}
	if err := c.Log.validate(); err != nil {
		return fmt.Errorf("log: %w", err)
	}

	return nil
}

func (p *ProviderConfig) validate() error {
	u, err := url.Parse(p.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("base_url %q must be an absolute URL", p.BaseURL)
	}
	if p.Timeout <= 0 {
		return fmt.Errorf("timeout must be > 0 (got %s)", p.Timeout)
	}
	if p.RetryDelay < 0 {
		return fmt.Errorf("retry_delay must be >= 0 (got %s)", p.RetryDelay)
	}

	tags := p.AnnotationTags[:0:0]
	for _, t := range p.AnnotationTags {
		if t = strings.TrimSpace(t); t != "" {
			tags = append(tags, t)
		}
	}
	if len(tags) == 0 {
		return fmt.Errorf("annotation_tags must name at least one element")
	}
	p.AnnotationTags = tags

	if p.Request.SearchLocation < -1 || p.Request.SearchLocation > 1 {
		return fmt.Errorf("request.search_location must be -1, 0 or 1 (got %d)", p.Request.SearchLocation)
	}
	return nil
}

func (c *CacheConfig) validate() error {
	switch c.Backend {
	case BackendFile, BackendRedis:
	case BackendPostgres:
		if c.Database.DSN == "" {
			return fmt.Errorf("database.dsn is required for the %s backend", BackendPostgres)
		}
		if c.Database.MaxConns < c.Database.MinConns {
			return fmt.Errorf("database.max_conns must be >= min_conns (got %d < %d)", c.Database.MaxConns, c.Database.MinConns)
		}
	default:
		return fmt.Errorf("backend %q must be one of %s, %s, %s", c.Backend, BackendFile, BackendRedis, BackendPostgres)
	}
	if c.TTL < 0 {
		return fmt.Errorf("ttl must be >= 0 (got %s)", c.TTL)
	}
	return nil
}

func (s *ServerConfig) validate() error {
	if s.Port <= 0 || s.Port > 65535 {
		return fmt.Errorf("port must be in 1..65535 (got %d)", s.Port)
	}
	if s.RateLimitPerMinute < 0 {
		return fmt.Errorf("rate_limit_per_minute must be >= 0 (got %d)", s.RateLimitPerMinute)
	}
	if s.CORS.MaxAge < 0 {
		return fmt.Errorf("cors.max_age must be >= 0 (got %d)", s.CORS.MaxAge)
	}
	for _, o := range s.CORS.AllowedOrigins {
		if strings.TrimSpace(o) == "" {
			return errors.New("cors.allowed_origins must not contain blank entries")
		}
	}
	return nil
}

var logLevels = []string{"debug", "info", "warn", "error"}

func (l *LogConfig) validate() error {
	if !slices.Contains(logLevels, strings.ToLower(strings.TrimSpace(l.Level))) {
		return fmt.Errorf("level %q must be one of %s", l.Level, strings.Join(logLevels, ", "))
	}
	switch strings.ToLower(l.Format) {
	case "json", "text":
	default:
		return fmt.Errorf("format %q must be json or text", l.Format)
	}
	return nil
}
