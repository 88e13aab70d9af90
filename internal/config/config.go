// Package config loads service settings from the environment and the YAML
// watch file.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Port      string `validate:"required,numeric"`
	LogLevel  string `validate:"oneof=debug info warn warning error"`
	LogFormat string `validate:"oneof=text json"`
	Timezone  string
	Location  *time.Location `validate:"required"`

	ResolveCacheTTL   time.Duration `validate:"gt=0"`
	PartialResolveTTL time.Duration `validate:"gt=0,ltefield=ResolveCacheTTL"`
	LineCacheTTL      time.Duration `validate:"gt=0"`
	LineFetchTimeout  time.Duration `validate:"gt=0"`
	FetchConcurrency  int           `validate:"gte=1,lte=64"`
	MaxWatchedLines   int           `validate:"gte=1,lte=1024"`

	RetryMaxAttempts int           `validate:"gte=1,lte=10"`
	RetryDelay       time.Duration `validate:"gte=0"`
	RetryMultiplier  float64       `validate:"gte=1"`
	UpstreamTimeout  time.Duration `validate:"gt=0"`
	RateLimit        float64       `validate:"gte=0"`
	RateBurst        int           `validate:"gte=1"`

	FrontLimit int `validate:"gte=0"`

	Provider   string `validate:"oneof=http file"`
	FixtureDir string `validate:"required_if=Provider file"`
	WatchFile  string `validate:"required"`

	Upstream Upstream `validate:"-"`
}

// Upstream is the "upstream" section of the watch file.
type Upstream struct {
	Endpoints struct {
		LineDetail string `yaml:"line_detail" validate:"required,url"`
		Timetable  string `yaml:"timetable" validate:"omitempty,url"`
	} `yaml:"endpoints"`
	Params struct {
		GPSType string `yaml:"gpstype"`
		S       string `yaml:"s" validate:"required"`
		V       string `yaml:"v" validate:"required"`
		Src     string `yaml:"src"`
		UserID  string `yaml:"user_id"`
		Sign    string `yaml:"sign"`
	} `yaml:"params"`
	Location struct {
		CityID    string  `yaml:"city_id" validate:"required"`
		StationID string  `yaml:"station_id"`
		Lat       float64 `yaml:"lat" validate:"gte=-90,lte=90"`
		Lng       float64 `yaml:"lng" validate:"gte=-180,lte=180"`
	} `yaml:"location"`
}

type file struct {
	Upstream Upstream `yaml:"upstream"`
}

// Load reads settings from the environment, then the upstream section of
// the watch file, and validates the result. Call godotenv before Load to
// pick up a .env file.
func Load() (*Config, error) {
	var errs []error
	dur := func(key string, fallback time.Duration) time.Duration {
		d, err := getEnvDuration(key, fallback)
		errs = append(errs, err)
		return d
	}
	num := func(key string, fallback int) int {
		n, err := getEnvInt(key, fallback)
		errs = append(errs, err)
		return n
	}
	decimal := func(key string, fallback float64) float64 {
		f, err := getEnvFloat(key, fallback)
		errs = append(errs, err)
		return f
	}

	cfg := &Config{
		Port:      getEnv("PORT", "8080"),
		LogLevel:  strings.ToLower(getEnv("LOG_LEVEL", "info")),
		LogFormat: strings.ToLower(getEnv("LOG_FORMAT", "text")),
		Timezone:  getEnv("TIMEZONE", "Local"),

		ResolveCacheTTL:   dur("RESOLVE_CACHE_TTL", 24*time.Hour),
		PartialResolveTTL: dur("PARTIAL_RESOLVE_TTL", 2*time.Minute),
		LineCacheTTL:      dur("LINE_CACHE_TTL", 5*time.Second),
		LineFetchTimeout:  dur("LINE_FETCH_TIMEOUT", 15*time.Second),
		FetchConcurrency:  num("FETCH_CONCURRENCY", 5),
		MaxWatchedLines:   num("MAX_WATCHED_LINES", 32),

		RetryMaxAttempts: num("RETRY_MAX_ATTEMPTS", 3),
		RetryDelay:       dur("RETRY_DELAY", time.Second),
		RetryMultiplier:  decimal("RETRY_MULTIPLIER", 1),
		UpstreamTimeout:  dur("UPSTREAM_TIMEOUT", 10*time.Second),
		RateLimit:        decimal("UPSTREAM_RATE_LIMIT", 10),
		RateBurst:        num("UPSTREAM_RATE_BURST", 5),

		FrontLimit: num("FRONT_LIMIT", 2),

		Provider:   strings.ToLower(getEnv("PROVIDER", "http")),
		FixtureDir: getEnv("FIXTURE_DIR", ""),
		WatchFile:  getEnv("WATCH_CONFIG", "config/watch.yml"),
	}
	if err := errors.Join(errs...); err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		return nil, fmt.Errorf("load config: timezone %q: %w", cfg.Timezone, err)
	}
	cfg.Location = loc

	v := validator.New()
	if err := v.Struct(cfg); err != nil {
		return nil, fmt.Errorf("load config: validate: %w", err)
	}

	if cfg.Provider == "http" {
		up, err := loadUpstream(v, cfg.WatchFile)
		if err != nil {
			return nil, fmt.Errorf("load config: %w", err)
		}
		cfg.Upstream = up
	}

	return cfg, nil
}

func loadUpstream(v *validator.Validate, path string) (Upstream, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return Upstream{}, fmt.Errorf("read watch file %q: %w", path, err)
	}

	var f file
	if err := yaml.Unmarshal(b, &f); err != nil {
		return Upstream{}, fmt.Errorf("parse watch file %q: %w", path, err)
	}
	if err := v.Struct(&f.Upstream); err != nil {
		return Upstream{}, fmt.Errorf("validate upstream section: %w", err)
	}
	return f.Upstream, nil
}

func getEnv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) (int, error) {
	v := getEnv(key, "")
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback, fmt.Errorf("%s: invalid integer %q", key, v)
	}
	return n, nil
}

func getEnvFloat(key string, fallback float64) (float64, error) {
	v := getEnv(key, "")
	if v == "" {
		return fallback, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return fallback, fmt.Errorf("%s: invalid number %q", key, v)
	}
	return f, nil
}

func getEnvDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := getEnv(key, "")
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback, fmt.Errorf("%s: invalid duration %q", key, v)
	}
	return d, nil
}
