package config

import (
	"strings"
	"time"
)

type APIConfig interface {
	GetAPIBaseURL() string
	GetRequestTimeout() time.Duration
}

type API struct{}

var _ APIConfig = API{}

// GetAPIBaseURL returns the remote API root without a trailing slash
// (e.g., "https://notes-api.example.com")
func (API) GetAPIBaseURL() string {
	return strings.TrimRight(GetEnv("NOTES_API_BASE_URL", ""), "/")
}

func (API) GetRequestTimeout() time.Duration {
	return GetDurationEnv("NOTES_REQUEST_TIMEOUT", 15*time.Second)
}
