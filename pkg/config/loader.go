package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/travigo/etascraper/pkg/util"
	"gopkg.in/yaml.v3"
)

const (
	EnvConfigFile    = "ETASCRAPER_CONFIG"
	EnvAPIURL        = "ETASCRAPER_API_URL"
	EnvLanguage      = "ETASCRAPER_LANGUAGE"
	EnvHTTPTimeout   = "ETASCRAPER_HTTP_TIMEOUT"
	EnvPollInterval  = "ETASCRAPER_POLL_INTERVAL"
	EnvTolerance     = "ETASCRAPER_TOLERANCE"
	EnvNoiseMarker   = "ETASCRAPER_NOISE_MARKER"
	EnvFetchAttempts = "ETASCRAPER_FETCH_ATTEMPTS"
	EnvRetryDelay    = "ETASCRAPER_RETRY_DELAY"
	EnvRedisAddress  = "ETASCRAPER_REDIS_ADDRESS"
	EnvRedisPassword = "ETASCRAPER_REDIS_PASSWORD"
	EnvRedisDatabase = "ETASCRAPER_REDIS_DATABASE"
	EnvCacheTTL      = "ETASCRAPER_CACHE_TTL"
	EnvDebug         = "ETASCRAPER_DEBUG"
)

// Load builds the configuration from defaults, the optional YAML file named by
// ETASCRAPER_CONFIG and then the remaining environment variables
func Load(env map[string]string) (Config, error) {
	cfg := Default()

	if path := env[EnvConfigFile]; path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("reading config file: %w", err)
		}

		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parsing config file %s: %w", path, err)
		}
	}

	if err := applyEnvironment(&cfg, env); err != nil {
		return Config{}, err
	}

	if err := Validate(cfg); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func Validate(cfg Config) error {
	v := validator.New()

	if err := v.Struct(cfg); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	return nil
}

func applyEnvironment(cfg *Config, env map[string]string) error {
	if env[EnvAPIURL] != "" {
		cfg.BaseURL = env[EnvAPIURL]
	}
	if env[EnvLanguage] != "" {
		cfg.Language = env[EnvLanguage]
	}
	if env[EnvNoiseMarker] != "" {
		cfg.NoiseMarker = env[EnvNoiseMarker]
	}
	if env[EnvRedisAddress] != "" {
		cfg.Redis.Address = env[EnvRedisAddress]
	}
	if env[EnvRedisPassword] != "" {
		cfg.Redis.Password = env[EnvRedisPassword]
	}
	if util.EnvironmentFlag(env, EnvDebug) {
		cfg.Debug = true
	}

	durations := []struct {
		name   string
		target *Duration
	}{
		{EnvHTTPTimeout, &cfg.HTTPTimeout},
		{EnvPollInterval, &cfg.PollInterval},
		{EnvTolerance, &cfg.Tolerance},
		{EnvRetryDelay, &cfg.RetryDelay},
		{EnvCacheTTL, &cfg.Redis.CacheTTL},
	}
	for _, d := range durations {
		if env[d.name] == "" {
			continue
		}

		parsed, err := ParseDuration(env[d.name])
		if err != nil {
			return fmt.Errorf("%s: %w", d.name, err)
		}
		*d.target = Duration(parsed)
	}

	integers := []struct {
		name   string
		target *int
	}{
		{EnvFetchAttempts, &cfg.FetchAttempts},
		{EnvRedisDatabase, &cfg.Redis.Database},
	}
	for _, i := range integers {
		if env[i.name] == "" {
			continue
		}

		n, err := strconv.Atoi(env[i.name])
		if err != nil {
			return fmt.Errorf("%s: %w", i.name, err)
		}
		*i.target = n
	}

	return nil
}
