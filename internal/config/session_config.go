package config

import (
	"os"
	"path/filepath"
)

const (
	SessionBackendFile   = "file"
	SessionBackendBolt   = "bolt"
	SessionBackendRedis  = "redis"
	SessionBackendMemory = "memory"
)

type SessionConfig interface {
	GetSessionBackend() string
	GetSessionPath() string
	GetRedisAddr() string
	GetRedisKeyPrefix() string
}

type Session struct{}

var _ SessionConfig = Session{}

func (Session) GetSessionBackend() string {
	return GetEnv("NOTES_SESSION_BACKEND", SessionBackendFile)
}

// GetSessionPath is the file used by the file and bolt backends.
func (s Session) GetSessionPath() string {
	if path := GetEnv("NOTES_SESSION_PATH", ""); path != "" {
		return path
	}
	name := "session.yaml"
	if s.GetSessionBackend() == SessionBackendBolt {
		name = "session.db"
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		return filepath.Join(".", name)
	}
	return filepath.Join(dir, "notes", name)
}

func (Session) GetRedisAddr() string {
	return GetEnv("NOTES_REDIS_ADDR", "localhost:6379")
}

func (Session) GetRedisKeyPrefix() string {
	return GetEnv("NOTES_REDIS_PREFIX", "notes:")
}
