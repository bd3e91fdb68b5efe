// Package config defines service configuration and its loading hooks.
//
// Conventions:
// - New returns a Config holding the defaults.
// - Load layers defaults, an optional YAML file and MCREATE_* env vars.
// - Errors are wrapped with this package's sentinel kinds.
package config

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects the log handler: text or json.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":8888".
	Addr string `koanf:"addr"`

	// UpstreamBaseURL is the origin of the safety-ratings API.
	UpstreamBaseURL string `koanf:"upstream_base_url"`

	// UpstreamTimeoutMS bounds each outbound call. Zero disables the timeout.
	UpstreamTimeoutMS int `koanf:"upstream_timeout_ms"`

	// UpstreamRPS paces outbound calls. Zero means unlimited.
	UpstreamRPS float64 `koanf:"upstream_rps"`

	// UpstreamBurst is the rate limiter bucket size.
	UpstreamBurst int `koanf:"upstream_burst"`

	// CrashConcurrency caps in-flight crash lookups per request. Zero means unbounded.
	CrashConcurrency int `koanf:"crash_concurrency"`

	// DocsEnabled serves the OpenAPI document, ReDoc page and static site.
	DocsEnabled bool `koanf:"docs_enabled"`
}

// New creates a Config populated with defaults.
func New() *Config {
	return &Config{
		LogLevel:          "info",
		LogFormat:         "text",
		Addr:              ":8888",
		UpstreamBaseURL:   "https://one.nhtsa.gov",
		UpstreamTimeoutMS: 10_000,
		UpstreamRPS:       0,
		UpstreamBurst:     1,
		CrashConcurrency:  10,
		DocsEnabled:       true,
	}
}
