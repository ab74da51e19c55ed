package cmd

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"strings"
	"time"

	"github.com/bahmni/consultation/encounter"
	"github.com/bahmni/consultation/lib/breaker"
	"github.com/bahmni/consultation/lib/coolfhir"
	"github.com/bahmni/consultation/lib/logging"
	"github.com/bahmni/consultation/lib/otel"
	"github.com/bahmni/consultation/messaging"
	"github.com/bahmni/consultation/session"
	"github.com/joho/godotenv"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"
	"github.com/rs/zerolog"
)

const envPrefix = "CONSULTATION_"

type Config struct {
	// Public holds the configuration for the public interface.
	Public InterfaceConfig `koanf:"public"`
	// FHIR holds the configuration of the EHR's FHIR API consultations are submitted to.
	FHIR           coolfhir.ClientConfig `koanf:"fhir"`
	Messaging      messaging.Config      `koanf:"messaging"`
	Session        SessionConfig         `koanf:"session"`
	Encounter      EncounterConfig       `koanf:"encounter"`
	CircuitBreaker breaker.Config        `koanf:"circuitbreaker"`
	LogLevel       zerolog.Level         `koanf:"loglevel"`
	// LogFormat is either "json" or "console".
	LogFormat string `koanf:"logformat"`
	// OpenTelemetry holds the configuration for observability
	OpenTelemetry otel.Config `koanf:"opentelemetry"`
}

type SessionConfig struct {
	// Lifetime is how long an untouched consultation is kept before its drafts are discarded.
	Lifetime time.Duration `koanf:"lifetime"`
}

type EncounterConfig struct {
	// CacheTTL is how long the active encounter of a patient is cached.
	CacheTTL time.Duration `koanf:"cachettl"`
}

func (c Config) Validate() error {
	if err := c.FHIR.Validate(); err != nil {
		return fmt.Errorf("invalid FHIR configuration: %w", err)
	}
	if err := c.Messaging.Validate(); err != nil {
		return fmt.Errorf("invalid messaging configuration: %w", err)
	}
	if err := c.OpenTelemetry.Validate(); err != nil {
		return fmt.Errorf("invalid OpenTelemetry configuration: %w", err)
	}
	if c.Public.Address == "" {
		return errors.New("public address is not configured")
	}
	if c.CircuitBreaker.FailureThreshold == 0 {
		return errors.New("circuit breaker failure threshold must be at least 1")
	}
	switch c.LogFormat {
	case "", "json", logging.FormatConsole:
	default:
		return fmt.Errorf("unsupported log format: %s", c.LogFormat)
	}
	return nil
}

// InterfaceConfig holds the configuration for an HTTP interface.
type InterfaceConfig struct {
	// Address holds the address to listen on.
	Address string `koanf:"address"`
	// URL holds the base URL of the interface.
	// Set it in case the service is behind a reverse proxy that maps it to a different URL than root (/).
	URL string `koanf:"url"`
}

func (i InterfaceConfig) ParseURL() *url.URL {
	u, _ := url.Parse(i.URL)
	return u
}

// LoadConfig loads the configuration from the environment. Variables in a .env file in the working directory are
// loaded first, without overriding variables that are already set.
func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env file: %w", err)
	}
	result := DefaultConfig()
	err := loadConfigInto(&result)
	if err != nil {
		return nil, err
	}
	return &result, nil
}

func loadConfigInto(target any) error {
	k := koanf.New(".")
	err := k.Load(env.ProviderWithValue(envPrefix, ".", func(key string, value string) (string, interface{}) {
		key = strings.Replace(strings.ToLower(strings.TrimPrefix(key, envPrefix)), "_", ".", -1)
		if len(value) == 0 {
			return key, nil
		}
		sliceValues := splitWithEscaping(value, ",", "\\")
		for i, s := range sliceValues {
			sliceValues[i] = strings.TrimSpace(s)
		}
		var parsedValue any = sliceValues
		if len(sliceValues) == 1 {
			parsedValue = sliceValues[0]
		}
		return key, parsedValue
	}), nil)
	if err != nil {
		return err
	}
	return k.Unmarshal("", target)
}

func splitWithEscaping(s, separator, escape string) []string {
	s = strings.ReplaceAll(s, escape+separator, "\x00")
	tokens := strings.Split(s, separator)
	for i, token := range tokens {
		tokens[i] = strings.ReplaceAll(token, "\x00", separator)
	}
	return tokens
}

// DefaultConfig returns sensible, but not complete, default configuration values.
func DefaultConfig() Config {
	return Config{
		LogLevel:  zerolog.InfoLevel,
		LogFormat: "json",
		Public: InterfaceConfig{
			Address: ":8080",
			URL:     "/",
		},
		FHIR: coolfhir.ClientConfig{
			SubmitPath: "ConsultationBundle",
		},
		Session: SessionConfig{
			Lifetime: session.DefaultLifetime,
		},
		Encounter: EncounterConfig{
			CacheTTL: encounter.DefaultCacheTTL,
		},
		CircuitBreaker: breaker.DefaultConfig(),
		OpenTelemetry:  otel.DefaultConfig(),
	}
}
