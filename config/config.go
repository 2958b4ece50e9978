package config

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"golang.org/x/net/idna"
	"gopkg.in/yaml.v3"
)

// Environment variable names.
const (
	EnvAPIKey    = "API_KEY"
	EnvAPISecret = "API_SECRET"
	EnvURL       = "URL"
	EnvLogPath   = "LOG_PATH"
	EnvLogLevel  = "LOG_LEVEL"
)

// DefaultEnvFile is loaded by Load when no files are given. Its absence is
// not an error.
const DefaultEnvFile = ".env"

// Credentials identify the client to the CSM API.
//
// Credentials are passed by value; a client keeps its own copy.
type Credentials struct {
	APIKey    string `yaml:"api_key"`
	APISecret string `yaml:"api_secret"`
	BaseURL   string `yaml:"url"`
}

// Logging configures the logger built by the logging package.
type Logging struct {
	Path  string `yaml:"path"`
	Level string `yaml:"level"`
}

// Config is the full configuration of a CSM client process.
type Config struct {
	Credentials `yaml:",inline"`

	Log Logging `yaml:"log"`
}

// Validate checks that every credential field is present and that BaseURL
// is an absolute http(s) URL. All missing fields are reported together in
// a *MissingError.
func (c Credentials) Validate() error {
	var missing []string

	if strings.TrimSpace(c.APIKey) == "" {
		missing = append(missing, EnvAPIKey)
	}

	if strings.TrimSpace(c.APISecret) == "" {
		missing = append(missing, EnvAPISecret)
	}

	if strings.TrimSpace(c.BaseURL) == "" {
		missing = append(missing, EnvURL)
	}

	if len(missing) > 0 {
		return &MissingError{Fields: missing}
	}

	_, err := ParseBaseURL(c.BaseURL)

	return err
}

// ParseBaseURL parses an API base URL. The host is converted to its ASCII
// (punycode) form.
func ParseBaseURL(raw string) (*url.URL, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidURL, err)
	}

	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("%w: scheme must be http or https", ErrInvalidURL)
	}

	if u.Host == "" {
		return nil, fmt.Errorf("%w: host is required", ErrInvalidURL)
	}

	hostname := u.Hostname()
	if net.ParseIP(hostname) != nil {
		return u, nil
	}

	ascii, err := idna.Lookup.ToASCII(hostname)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidURL, err)
	}

	if port := u.Port(); port != "" {
		ascii = net.JoinHostPort(ascii, port)
	}

	u.Host = ascii

	return u, nil
}

// FromEnv reads the configuration from environment variables and validates
// the credentials.
func FromEnv() (Config, error) {
	cfg := Config{}
	applyEnv(&cfg)

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// Load reads .env files into the process environment and then calls
// FromEnv. Variables already set in the environment take precedence over
// file values. Without arguments DefaultEnvFile is loaded if it exists;
// explicitly named files must exist.
func Load(files ...string) (Config, error) {
	if len(files) == 0 {
		if err := godotenv.Load(DefaultEnvFile); err != nil && !errors.Is(err, os.ErrNotExist) {
			return Config{}, fmt.Errorf("config: load %s: %w", DefaultEnvFile, err)
		}
	} else if err := godotenv.Load(files...); err != nil {
		return Config{}, fmt.Errorf("config: load env files: %w", err)
	}

	return FromEnv()
}

// LoadFile reads a YAML configuration file. Environment variables override
// the values from the file.
//
//	api_key: my-key
//	api_secret: my-secret
//	url: https://api.example.com
//	log:
//	  path: logs/imcsm.log
//	  level: debug
func LoadFile(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: read %s: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
	}

	applyEnv(&cfg)

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func applyEnv(cfg *Config) {
	setFromEnv(&cfg.APIKey, EnvAPIKey)
	setFromEnv(&cfg.APISecret, EnvAPISecret)
	setFromEnv(&cfg.BaseURL, EnvURL)
	setFromEnv(&cfg.Log.Path, EnvLogPath)
	setFromEnv(&cfg.Log.Level, EnvLogLevel)
}

func setFromEnv(dst *string, key string) {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		*dst = v
	}
}
