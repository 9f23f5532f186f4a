package config

import (
	"fmt"
	"strings"
	"time"

	iso8601 "github.com/senseyeio/duration"
	"gopkg.in/yaml.v3"
)

const (
	DefaultBaseURL       = "https://rt.data.gov.hk/v1/transport/nwst"
	DefaultLanguage      = "en"
	DefaultHTTPTimeout   = 5 * time.Second
	DefaultPollInterval  = 10 * time.Second
	DefaultTolerance     = 60 * time.Second
	DefaultNoiseMarker   = "cycle"
	DefaultFetchAttempts = 3
	DefaultRetryDelay    = 500 * time.Millisecond
	DefaultCacheTTL      = 6 * time.Hour
)

type Config struct {
	BaseURL     string   `yaml:"base_url" validate:"required,url"`
	Language    string   `yaml:"language" validate:"required,oneof=en tc sc"`
	HTTPTimeout Duration `yaml:"http_timeout" validate:"gt=0"`

	PollInterval Duration `yaml:"poll_interval" validate:"gt=0"`
	Tolerance    Duration `yaml:"tolerance" validate:"gte=0"`
	NoiseMarker  string   `yaml:"noise_marker"`

	FetchAttempts int      `yaml:"fetch_attempts" validate:"min=1,max=10"`
	RetryDelay    Duration `yaml:"retry_delay" validate:"gte=0"`

	Redis RedisConfig `yaml:"redis"`

	Debug bool `yaml:"debug"`
}

// RedisConfig enables the lookup cache when Address is set
type RedisConfig struct {
	Address  string   `yaml:"address" validate:"omitempty,hostname_port"`
	Password string   `yaml:"password"`
	Database int      `yaml:"database" validate:"gte=0"`
	CacheTTL Duration `yaml:"cache_ttl" validate:"gt=0"`
}

func (r RedisConfig) Enabled() bool {
	return r.Address != ""
}

func Default() Config {
	return Config{
		BaseURL:       DefaultBaseURL,
		Language:      DefaultLanguage,
		HTTPTimeout:   Duration(DefaultHTTPTimeout),
		PollInterval:  Duration(DefaultPollInterval),
		Tolerance:     Duration(DefaultTolerance),
		NoiseMarker:   DefaultNoiseMarker,
		FetchAttempts: DefaultFetchAttempts,
		RetryDelay:    Duration(DefaultRetryDelay),
		Redis: RedisConfig{
			CacheTTL: Duration(DefaultCacheTTL),
		},
	}
}

// Duration accepts either Go duration syntax (10s) or ISO 8601 (PT10S)
type Duration time.Duration

func (d Duration) Duration() time.Duration {
	return time.Duration(d)
}

func (d Duration) String() string {
	return time.Duration(d).String()
}

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	parsed, err := ParseDuration(value.Value)
	if err != nil {
		return err
	}

	*d = Duration(parsed)
	return nil
}

func ParseDuration(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)

	if strings.HasPrefix(s, "P") {
		isoDuration, err := iso8601.ParseISO8601(s)
		if err != nil {
			return 0, fmt.Errorf("invalid ISO 8601 duration %q: %w", s, err)
		}

		reference := time.Unix(0, 0).UTC()
		return isoDuration.Shift(reference).Sub(reference), nil
	}

	parsed, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("invalid duration %q: %w", s, err)
	}

	return parsed, nil
}
