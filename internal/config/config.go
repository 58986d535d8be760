// Package config reads client settings from a TOML file and MINHTTP_*
// environment variables.
package config

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	toml "github.com/pelletier/go-toml/v2"
)

const (
	envPrefix         = "MINHTTP_"
	EnvTimeout        = envPrefix + "TIMEOUT"
	EnvConnectTimeout = envPrefix + "CONNECT_TIMEOUT"
	EnvMaxRedirects   = envPrefix + "MAX_REDIRECTS"
	EnvProxy          = envPrefix + "PROXY"
	EnvIDNA           = envPrefix + "IDNA"
	EnvLogLevel       = envPrefix + "LOG_LEVEL"
	EnvCAFiles        = envPrefix + "CA_FILES"
)

// ProxyFromEnv as the proxy setting defers to HTTP_PROXY, HTTPS_PROXY
// and NO_PROXY.
const ProxyFromEnv = "env"

const DefaultMaxRedirects = 10

type Config struct {
	Timeout          Duration `toml:"timeout"`
	ConnectTimeout   Duration `toml:"connect_timeout"`
	MaxRedirects     int      `toml:"max_redirects"`
	DisableRedirects bool     `toml:"disable_redirects"`
	IDNA             bool     `toml:"idna"`
	MaxHeaderBytes   int      `toml:"max_header_bytes"`
	Proxy            string   `toml:"proxy"`
	LogLevel         string   `toml:"log_level"`

	TLS    TLS    `toml:"tls"`
	DNS    DNS    `toml:"dns"`
	Socket Socket `toml:"socket"`
}

type TLS struct {
	CAFiles            []string `toml:"ca_files"`
	RootMode           string   `toml:"root_mode"` // append (default) or replace
	InsecureSkipVerify bool     `toml:"insecure_skip_verify"`
	ClientCert         string   `toml:"client_cert"`
	ClientKey          string   `toml:"client_key"`
}

type DNS struct {
	Server  string            `toml:"server"`
	Network string            `toml:"network"` // ip4, ip6 or empty
	Hosts   map[string]string `toml:"hosts"`
}

type Socket struct {
	SendBuffer    int `toml:"send_buffer"`
	ReceiveBuffer int `toml:"receive_buffer"`
}

// Default returns the settings used when nothing overrides them.
func Default() Config {
	return Config{
		MaxRedirects: DefaultMaxRedirects,
		LogLevel:     "warn",
	}
}

// Decode reads a TOML document over the defaults. Unknown keys are
// rejected so typos do not pass silently.
func Decode(r io.Reader) (Config, error) {
	cfg := Default()
	dec := toml.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&cfg); err != nil {
		return Config{}, fmt.Errorf("config: %w", err)
	}
	return cfg, nil
}

// Load decodes the file at path. An empty path yields the defaults.
func Load(path string) (Config, error) {
	if path == "" {
		return Default(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: %w", err)
	}
	return Decode(bytes.NewReader(data))
}

// FromEnv overlays the MINHTTP_* variables found through getenv on cfg.
// Values that fail to parse are ignored.
func FromEnv(cfg Config, getenv func(string) string) Config {
	if getenv == nil {
		return cfg
	}

	if val := strings.TrimSpace(getenv(EnvTimeout)); val != "" {
		if d, err := ParseDuration(val); err == nil {
			cfg.Timeout = Duration(d)
		}
	}
	if val := strings.TrimSpace(getenv(EnvConnectTimeout)); val != "" {
		if d, err := ParseDuration(val); err == nil {
			cfg.ConnectTimeout = Duration(d)
		}
	}
	if val := strings.TrimSpace(getenv(EnvMaxRedirects)); val != "" {
		if n, err := strconv.Atoi(val); err == nil && n >= 0 {
			cfg.MaxRedirects = n
		}
	}
	if val := strings.TrimSpace(getenv(EnvProxy)); val != "" {
		cfg.Proxy = val
	}
	if val := strings.TrimSpace(getenv(EnvIDNA)); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			cfg.IDNA = b
		}
	}
	if val := strings.TrimSpace(getenv(EnvLogLevel)); val != "" {
		cfg.LogLevel = strings.ToLower(val)
	}
	if val := strings.TrimSpace(getenv(EnvCAFiles)); val != "" {
		cfg.TLS.CAFiles = splitList(val)
	}
	return cfg
}

// EnvTimeoutValue reads MINHTTP_TIMEOUT, zero when unset or invalid.
func EnvTimeoutValue(getenv func(string) string) time.Duration {
	d, err := ParseDuration(strings.TrimSpace(getenv(EnvTimeout)))
	if err != nil {
		return 0
	}
	return d
}

// ParseDuration accepts a number of seconds ("30", "1.5") or a Go
// duration ("30s", "250ms"). Negative values are rejected.
func ParseDuration(s string) (time.Duration, error) {
	if s == "" {
		return 0, fmt.Errorf("config: empty duration")
	}
	var d time.Duration
	if secs, err := strconv.ParseFloat(s, 64); err == nil {
		d = time.Duration(secs * float64(time.Second))
	} else if d, err = time.ParseDuration(s); err != nil {
		return 0, fmt.Errorf("config: invalid duration %q", s)
	}
	if d < 0 {
		return 0, fmt.Errorf("config: negative duration %q", s)
	}
	return d, nil
}

func splitList(s string) []string {
	var out []string
	for _, f := range strings.FieldsFunc(s, func(r rune) bool { return r == ',' || r == os.PathListSeparator }) {
		if f = strings.TrimSpace(f); f != "" {
			out = append(out, f)
		}
	}
	return out
}

// Duration is written in TOML as a string, either seconds or a Go
// duration: timeout = "30s".
type Duration time.Duration

func (d Duration) D() time.Duration { return time.Duration(d) }

func (d *Duration) UnmarshalText(b []byte) error {
	v, err := ParseDuration(strings.TrimSpace(string(b)))
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}
