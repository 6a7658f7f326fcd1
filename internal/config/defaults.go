package config

const (
	// DefaultBaseURL is used when no config file sets api.baseURL.
	DefaultBaseURL = "http://localhost:8080"

	// DefaultTimeout is the default api.timeout.
	DefaultTimeout = "30s"

	// DefaultLogLevel is the default logging.level.
	DefaultLogLevel = "info"
)

// GetDefaultConfig returns the configuration used before any file is read.
func GetDefaultConfig() Config {
	return Config{
		API: APIConfig{
			BaseURL: DefaultBaseURL,
			Timeout: DefaultTimeout,
		},
		Logging: LoggingConfig{Level: DefaultLogLevel},
		Wizard:  WizardConfig{FetchOnOpen: true},
	}
}
