package config

import (
	"time"
)

// Version is set at build time via ldflags.
var Version = "dev"

// DefaultUserAgent is sent with every request unless overridden.
const DefaultUserAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) " +
	"AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// Config is the root configuration for iconfetch.
type Config struct {
	Fetcher   FetcherConfig   `mapstructure:"fetcher"   yaml:"fetcher"`
	Discovery DiscoveryConfig `mapstructure:"discovery" yaml:"discovery"`
	Browser   BrowserConfig   `mapstructure:"browser"   yaml:"browser"`
	Proxy     ProxyConfig     `mapstructure:"proxy"     yaml:"proxy"`
	Output    OutputConfig    `mapstructure:"output"    yaml:"output"`
	Logging   LoggingConfig   `mapstructure:"logging"   yaml:"logging"`
}

// FetcherConfig controls the HTTP transport.
type FetcherConfig struct {
	Timeout         time.Duration `mapstructure:"timeout"           yaml:"timeout"`
	UserAgent       string        `mapstructure:"user_agent"        yaml:"user_agent"`
	FollowRedirects bool          `mapstructure:"follow_redirects"  yaml:"follow_redirects"`
	MaxRedirects    int           `mapstructure:"max_redirects"     yaml:"max_redirects"`
	MaxBodySize     int64         `mapstructure:"max_body_size"     yaml:"max_body_size"`
	TLSInsecure     bool          `mapstructure:"tls_insecure"      yaml:"tls_insecure"`
	IdleConnTimeout time.Duration `mapstructure:"idle_conn_timeout" yaml:"idle_conn_timeout"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"    yaml:"max_idle_conns"`
}

// DiscoveryConfig controls how the target page is fetched and parsed.
type DiscoveryConfig struct {
	// Fetcher is "http" or "browser". Icon downloads always use HTTP.
	Fetcher string `mapstructure:"fetcher" yaml:"fetcher"`
	// Parser is "css" or "xpath".
	Parser string `mapstructure:"parser"  yaml:"parser"`
}

// BrowserConfig controls the headless browser used for discovery.
type BrowserConfig struct {
	Stealth    bool          `mapstructure:"stealth"     yaml:"stealth"`
	WaitStable time.Duration `mapstructure:"wait_stable" yaml:"wait_stable"`
	Bin        string        `mapstructure:"bin"         yaml:"bin"`
}

// ProxyConfig controls proxy rotation.
type ProxyConfig struct {
	Enabled  bool     `mapstructure:"enabled"  yaml:"enabled"`
	Rotation string   `mapstructure:"rotation" yaml:"rotation"`
	URLs     []string `mapstructure:"urls"     yaml:"urls"`
}

// OutputConfig controls where the icon is written.
type OutputConfig struct {
	// Path is the explicit output file. Empty means derive it from the hostname.
	Path string `mapstructure:"path" yaml:"path"`
	// Dir is prepended to derived filenames.
	Dir string `mapstructure:"dir"  yaml:"dir"`
}

// LoggingConfig controls logging behavior.
type LoggingConfig struct {
	Level  string `mapstructure:"level"  yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Fetcher: FetcherConfig{
			Timeout:         10 * time.Second,
			UserAgent:       DefaultUserAgent,
			FollowRedirects: true,
			MaxRedirects:    10,
			MaxBodySize:     10 * 1024 * 1024, // 10MB
			IdleConnTimeout: 90 * time.Second,
			MaxIdleConns:    10,
		},
		Discovery: DiscoveryConfig{
			Fetcher: "http",
			Parser:  "css",
		},
		Browser: BrowserConfig{
			Stealth:    true,
			WaitStable: 300 * time.Millisecond,
		},
		Proxy: ProxyConfig{
			Enabled:  false,
			Rotation: "round_robin",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}
