package config

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"
)

const sample = `
timeout = "30s"
connect_timeout = "2.5"
max_redirects = 3
idna = true
proxy = "env"
log_level = "debug"

[tls]
ca_files = ["/etc/ca/a.pem", "/etc/ca/b.pem"]
root_mode = "replace"

[dns]
server = "1.1.1.1:53"
network = "ip4"
hosts = { "api.internal" = "10.0.0.7" }

[socket]
send_buffer = 65536
`

func TestDecode(t *testing.T) {
	cfg, err := Decode(strings.NewReader(sample))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Timeout.D() != 30*time.Second || cfg.ConnectTimeout.D() != 2500*time.Millisecond {
		t.Fatalf("timeouts %v %v", cfg.Timeout.D(), cfg.ConnectTimeout.D())
	}
	if cfg.MaxRedirects != 3 || !cfg.IDNA || cfg.Proxy != ProxyFromEnv || cfg.LogLevel != "debug" {
		t.Fatalf("decoded %+v", cfg)
	}
	if !reflect.DeepEqual(cfg.TLS.CAFiles, []string{"/etc/ca/a.pem", "/etc/ca/b.pem"}) || cfg.TLS.RootMode != "replace" {
		t.Fatalf("tls %+v", cfg.TLS)
	}
	if cfg.DNS.Hosts["api.internal"] != "10.0.0.7" || cfg.DNS.Network != "ip4" {
		t.Fatalf("dns %+v", cfg.DNS)
	}
	if cfg.Socket.SendBuffer != 65536 {
		t.Fatalf("socket %+v", cfg.Socket)
	}
}

func TestDecodeKeepsDefaults(t *testing.T) {
	cfg, err := Decode(strings.NewReader(`idna = true`))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.MaxRedirects != DefaultMaxRedirects || cfg.LogLevel != "warn" {
		t.Fatalf("defaults lost: %+v", cfg)
	}
}

func TestDecodeErrors(t *testing.T) {
	for name, doc := range map[string]string{
		"UnknownKey":  `timeot = "1s"`,
		"BadDuration": `timeout = "soon"`,
		"Negative":    `timeout = "-1s"`,
		"Syntax":      `timeout = `,
	} {
		if _, err := Decode(strings.NewReader(doc)); err == nil {
			t.Errorf("%s: decoded without error", name)
		}
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "minhttp.toml")
	if err := os.WriteFile(path, []byte(sample), 0o600); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.MaxRedirects != 3 {
		t.Fatalf("loaded %+v", cfg)
	}
	if cfg, err := Load(""); err != nil || !reflect.DeepEqual(cfg, Default()) {
		t.Fatalf("empty path: %+v, %v", cfg, err)
	}
	if _, err := Load(filepath.Join(t.TempDir(), "missing.toml")); err == nil {
		t.Fatal("missing file loaded")
	}
}

func TestFromEnv(t *testing.T) {
	env := map[string]string{
		EnvTimeout:        "15",
		EnvConnectTimeout: "500ms",
		EnvMaxRedirects:   "4",
		EnvProxy:          "http://proxy:3128",
		EnvIDNA:           "true",
		EnvLogLevel:       "DEBUG",
		EnvCAFiles:        "/a.pem, /b.pem",
	}
	cfg := FromEnv(Default(), func(k string) string { return env[k] })
	want := Default()
	want.Timeout = Duration(15 * time.Second)
	want.ConnectTimeout = Duration(500 * time.Millisecond)
	want.MaxRedirects = 4
	want.Proxy = "http://proxy:3128"
	want.IDNA = true
	want.LogLevel = "debug"
	want.TLS.CAFiles = []string{"/a.pem", "/b.pem"}
	if !reflect.DeepEqual(cfg, want) {
		t.Fatalf("got %+v\nwant %+v", cfg, want)
	}
}

func TestFromEnvIgnoresInvalid(t *testing.T) {
	env := map[string]string{
		EnvTimeout:      "later",
		EnvMaxRedirects: "-2",
		EnvIDNA:         "maybe",
	}
	base := Default()
	base.Timeout = Duration(time.Second)
	if cfg := FromEnv(base, func(k string) string { return env[k] }); !reflect.DeepEqual(cfg, base) {
		t.Fatalf("invalid values applied: %+v", cfg)
	}
}

func TestParseDuration(t *testing.T) {
	cases := map[string]time.Duration{
		"30":    30 * time.Second,
		"0.25":  250 * time.Millisecond,
		"1m30s": 90 * time.Second,
		"0":     0,
	}
	for in, want := range cases {
		got, err := ParseDuration(in)
		if err != nil || got != want {
			t.Errorf("ParseDuration(%q) = %v, %v", in, got, err)
		}
	}
	if v := EnvTimeoutValue(func(string) string { return " 7 " }); v != 7*time.Second {
		t.Errorf("EnvTimeoutValue = %v", v)
	}
}
