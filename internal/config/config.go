package config

import (
	"errors"
	"fmt"

	"github.com/joho/godotenv"
)

var ErrMissingBaseURL = errors.New("NOTES_API_BASE_URL is not set")

type Config interface {
	EnvConfig
	APIConfig
	SessionConfig
	EditorConfig
}

type EnvConfig interface {
	GetAppName() string
	GetEnv() string
	GetLogLevel() string
	GetPrettyLogs() bool
}

type mainConfig struct {
	EnvVars
	API
	Session
	Editor
}

func New() Config {
	return mainConfig{}
}

// LoadDotEnv loads variables from the given .env files into the process
// environment. Missing files are ignored; variables already set win.
func LoadDotEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !isNotExist(err) {
			return fmt.Errorf("[LoadDotEnv] %s: %w", f, err)
		}
	}
	return nil
}

// Validate checks the values the client cannot run without.
func Validate(c Config) error {
	if c.GetAPIBaseURL() == "" {
		return ErrMissingBaseURL
	}
	return nil
}
