package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strconv"

	"gopkg.in/yaml.v3"

	"plancraft/pkg/logging"
)

const (
	userConfigDir  = ".config/plancraft"
	configFileName = "config.yaml"

	// TokenEnv overrides api.auth.token.
	TokenEnv = "PLANCRAFT_API_TOKEN"
)

// osUserHomeDir is swapped out in tests.
var osUserHomeDir = os.UserHomeDir

func GetDefaultConfigPathOrPanic() string {
	homeDir, err := osUserHomeDir()
	if err != nil {
		panic(fmt.Errorf("could not determine user config directory: %w", err))
	}

	return filepath.Join(homeDir, userConfigDir)
}

// LoadConfig loads config.yaml from configPath on top of the defaults,
// applies environment overrides and validates the result.
func LoadConfig(configPath string) (Config, error) {
	configFilePath := filepath.Join(configPath, configFileName)
	config := GetDefaultConfig()

	data, err := os.ReadFile(configFilePath)
	switch {
	case errors.Is(err, os.ErrNotExist):
		logging.Info("ConfigLoader", "No config.yaml found at %s, using defaults", configFilePath)
	case err != nil:
		logging.Info("ConfigLoader", "Error loading config.yaml from %s: %s", configFilePath, err)
		return Config{}, NewConfigurationError(configFilePath, "io", err.Error())
	default:
		if err := decodeStrict(data, &config); err != nil {
			cfgErr := NewConfigurationError(configFilePath, "parse", err.Error())
			cfgErr.LineNumber = lineOf(err)
			return Config{}, cfgErr
		}
		logging.Info("ConfigLoader", "Loaded configuration from %s", configFilePath)
	}

	applyEnv(&config)

	if errs := Validate(config); errs.HasErrors() {
		cfgErr := NewConfigurationError(configFilePath, "validation", errs.Error())
		cfgErr.Suggestions = errs.Suggestions()
		return Config{}, cfgErr
	}
	return config, nil
}

func decodeStrict(data []byte, out *Config) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(out); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

func applyEnv(config *Config) {
	if token := os.Getenv(TokenEnv); token != "" {
		logging.Debug("ConfigLoader", "Using API token from %s", TokenEnv)
		config.API.Auth.Token = token
	}
}

var yamlLine = regexp.MustCompile(`line (\d+)`)

// lineOf extracts the first line number yaml.v3 mentions in err.
func lineOf(err error) int {
	m := yamlLine.FindStringSubmatch(err.Error())
	if m == nil {
		return 0
	}
	n, _ := strconv.Atoi(m[1])
	return n
}
