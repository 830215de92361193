package config

import (
	"fmt"
	"strings"
	"time"
)

// StoreMode selects the backing storage for users and sessions.
type StoreMode string

const (
	// StoreModePersistent uses Postgres for users and Redis for sessions.
	StoreModePersistent StoreMode = "persistent"
	// StoreModeMemory keeps everything in process memory (development only).
	StoreModeMemory StoreMode = "memory"
)

// UnmarshalText implements encoding.TextUnmarshaler for StoreMode.
func (s *StoreMode) UnmarshalText(text []byte) error {
	v := strings.ToLower(string(text))
	switch v {
	case "persistent", "memory":
		*s = StoreMode(v)
		return nil
	default:
		return fmt.Errorf("invalid StoreMode: %q (valid options: persistent, memory)", v)
	}
}

// AuthConfig groups all authentication-related configuration.
type AuthConfig struct {
	// Store determines where users and sessions live.
	Store StoreMode `env:"AUTH_STORE" envDefault:"persistent"`

	// SessionTTL is how long a session stays valid after creation.
	SessionTTL time.Duration `env:"AUTH_SESSION_TTL" envDefault:"8h"`

	// SeedDevUsers controls whether development users are seeded at startup.
	// Only honored in memory mode.
	SeedDevUsers bool `env:"AUTH_SEED_DEV_USERS" envDefault:"false"`
}

// Sanitize applies guardrails to auth configuration values.
func (a *AuthConfig) Sanitize() {
	if a.SessionTTL <= 0 {
		a.SessionTTL = 8 * time.Hour
	}
	if a.Store != StoreModeMemory {
		a.SeedDevUsers = false
	}
}
