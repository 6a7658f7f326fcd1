package config

import (
	"time"

	"plancraft/internal/client"
	"plancraft/internal/notify"
)

// Config is the top-level configuration structure for plancraft.
type Config struct {
	API     APIConfig     `yaml:"api"`
	Logging LoggingConfig `yaml:"logging,omitempty"`
	Wizard  WizardConfig  `yaml:"wizard,omitempty"`
	Notify  NotifyConfig  `yaml:"notify,omitempty"`
}

// APIConfig points at the execution service.
type APIConfig struct {
	BaseURL string     `yaml:"baseURL" validate:"required,url"`
	Timeout string     `yaml:"timeout,omitempty" validate:"omitempty,duration"`
	Auth    AuthConfig `yaml:"auth,omitempty"`
}

// AuthConfig selects between a static token and the client-credentials grant.
type AuthConfig struct {
	Token        string   `yaml:"token,omitempty"`
	TokenURL     string   `yaml:"tokenURL,omitempty" validate:"omitempty,url"`
	ClientID     string   `yaml:"clientID,omitempty" validate:"required_with=TokenURL"`
	ClientSecret string   `yaml:"clientSecret,omitempty"`
	Scopes       []string `yaml:"scopes,omitempty"`
}

// LoggingConfig sets the default log level; --log-level wins over it.
type LoggingConfig struct {
	Level string `yaml:"level,omitempty" validate:"omitempty,oneof=debug info warn error"`
}

// WizardConfig tunes interactive wizards.
type WizardConfig struct {
	// FetchOnOpen loads reference lists when a wizard opens.
	FetchOnOpen bool `yaml:"fetchOnOpen"`
}

// NotifyConfig rewrites wizard notifications through templates keyed by
// notification kind (success, error).
type NotifyConfig struct {
	Templates map[notify.Kind]notify.Templates `yaml:"templates,omitempty" validate:"omitempty,dive,keys,oneof=success error,endkeys"`
}

// TimeoutDuration returns the parsed API timeout, or client.DefaultTimeout
// when unset or unparseable.
func (a APIConfig) TimeoutDuration() time.Duration {
	if a.Timeout == "" {
		return client.DefaultTimeout
	}
	d, err := time.ParseDuration(a.Timeout)
	if err != nil || d <= 0 {
		return client.DefaultTimeout
	}
	return d
}

// ClientOptions converts the API section into execution-service client
// options.
func (a APIConfig) ClientOptions() client.Options {
	return client.Options{
		BaseURL:      a.BaseURL,
		Timeout:      a.TimeoutDuration(),
		Token:        a.Auth.Token,
		TokenURL:     a.Auth.TokenURL,
		ClientID:     a.Auth.ClientID,
		ClientSecret: a.Auth.ClientSecret,
		Scopes:       a.Auth.Scopes,
	}
}
