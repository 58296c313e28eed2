// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Defaults live in New(); Load layers file and env on top of them.
// - External errors must be wrapped via this package's error helpers.
package config

// Config contains process configuration. Extend as needed.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Addr configures the HTTP listen address for /metrics and
	// /healthz, e.g. ":9080".
	Addr string `koanf:"addr"`

	// InputDir is the directory watched for raw provider files.
	InputDir string `koanf:"input_dir"`

	// OutputDir receives the normalized output files.
	OutputDir string `koanf:"output_dir"`

	// PollIntervalSeconds sets the input directory sweep interval.
	PollIntervalSeconds int `koanf:"poll_interval_seconds"`

	// Watch enables filesystem notifications for the input directory,
	// supplementing the poll ticker.
	Watch bool `koanf:"watch"`
}

// New creates a Config populated with defaults.
func New() *Config {
	return &Config{
		LogLevel:            "info",
		Addr:                ":9080",
		InputDir:            "./input",
		OutputDir:           "./normalized",
		PollIntervalSeconds: 3,
		Watch:               true,
	}
}
