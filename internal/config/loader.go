package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"regexp"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Environment variables read by Load.
const (
	EnvToken     = "TELEGRAM_BOT_TOKEN"
	EnvAPIBase   = "TELEGRAM_API_BASE"
	EnvParseMode = "TELEGRAM_PARSE_MODE"
	EnvLogLevel  = "TELEGRAM_MCP_LOG_LEVEL"
	EnvTransport = "TELEGRAM_MCP_TRANSPORT"
	EnvAddr      = "TELEGRAM_MCP_ADDR"
	EnvRateLimit = "TELEGRAM_MCP_RATE_LIMIT"
	EnvOTLP      = "OTEL_EXPORTER_OTLP_ENDPOINT"
)

// DefaultEnvFile is loaded when present and no other file is named.
const DefaultEnvFile = ".env"

// LoadOptions selects the configuration sources.
type LoadOptions struct {
	// ConfigPath is an optional YAML file.
	ConfigPath string
	// EnvFile is a dotenv file. When empty, DefaultEnvFile is loaded if it
	// exists; a named file must exist.
	EnvFile string
	// LookupEnv defaults to os.LookupEnv.
	LookupEnv func(string) (string, bool)
}

// envPattern matches ${VAR} and ${VAR:-default} expressions.
var envPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)(?::-((?:[^}\\]|\\.)*))?\}`)

// Load builds the configuration. The dotenv file is loaded into the process
// environment first, without overriding variables that are already set, so
// both the YAML expansion and the environment overrides see its values.
// Load does not validate; call Validate once flags have been applied.
func Load(opts LoadOptions) (*Config, error) {
	if err := loadEnvFile(opts.EnvFile); err != nil {
		return nil, err
	}

	lookup := opts.LookupEnv
	if lookup == nil {
		lookup = os.LookupEnv
	}

	cfg := Default()
	if opts.ConfigPath != "" {
		if err := loadFile(cfg, opts.ConfigPath, lookup); err != nil {
			return nil, err
		}
	}
	if err := applyEnv(cfg, lookup); err != nil {
		return nil, err
	}
	return cfg, nil
}

func loadEnvFile(path string) error {
	if path == "" {
		if _, err := os.Stat(DefaultEnvFile); errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		path = DefaultEnvFile
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("config: loading %s: %w", path, err)
	}
	return nil
}

func loadFile(cfg *Config, path string, lookup func(string) (string, bool)) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("config: reading %s: %w", path, err)
	}

	expanded, err := expandEnv(raw, lookup)
	if err != nil {
		return fmt.Errorf("config: expanding variables in %s: %w", path, err)
	}

	dec := yaml.NewDecoder(strings.NewReader(string(expanded)))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("config: parsing %s: %w", path, err)
	}
	return nil
}

// expandEnv replaces ${VAR} and ${VAR:-default} patterns in raw YAML bytes.
// Variables that are unset and have no default are reported together.
func expandEnv(raw []byte, lookup func(string) (string, bool)) ([]byte, error) {
	var errs []error

	result := envPattern.ReplaceAllFunc(raw, func(match []byte) []byte {
		subs := envPattern.FindSubmatch(match)
		name := string(subs[1])

		if value, ok := lookup(name); ok {
			return []byte(value)
		}
		if subs[2] != nil {
			return subs[2]
		}
		errs = append(errs, fmt.Errorf("unresolved variable: %s", name))
		return match
	})

	return result, errors.Join(errs...)
}

func applyEnv(cfg *Config, lookup func(string) (string, bool)) error {
	if v, ok := lookup(EnvToken); ok {
		cfg.Telegram.Token = strings.TrimSpace(v)
	}
	if v, ok := lookup(EnvAPIBase); ok && v != "" {
		cfg.Telegram.APIBase = v
	}
	if v, ok := lookup(EnvParseMode); ok {
		if v == "" {
			v = ParseModeNone
		}
		cfg.Telegram.ParseMode = v
	}
	if v, ok := lookup(EnvLogLevel); ok && v != "" {
		cfg.Log.Level = v
	}
	if v, ok := lookup(EnvTransport); ok && v != "" {
		cfg.Server.Transport = v
	}
	if v, ok := lookup(EnvAddr); ok && v != "" {
		cfg.Server.Addr = v
	}
	if v, ok := lookup(EnvRateLimit); ok && v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("config: %s: %w", EnvRateLimit, err)
		}
		cfg.Server.RateLimit = n
	}
	if v, ok := lookup(EnvOTLP); ok && v != "" {
		cfg.Telemetry.OTLPEndpoint = v
	}
	return nil
}
