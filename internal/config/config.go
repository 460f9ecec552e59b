package config

import (
	"errors"
	"fmt"
	"os"
	"time"
)

// Config describes all runtime settings for the server.
//
// Loaded once in main, validated, then passed down explicitly; no
// package-level state.
type Config struct {
	Env string // dev|stage|prod

	Log struct {
		Level  string // debug|info|warn|error
		Format string // text|json
	}

	HTTP struct {
		Addr              string
		ReadHeaderTimeout time.Duration
		ReadTimeout       time.Duration
		WriteTimeout      time.Duration
		IdleTimeout       time.Duration
		ShutdownTimeout   time.Duration
	}

	Auth struct {
		Secret   string
		TokenTTL time.Duration
	}

	Game struct {
		// HostGracePeriod is how long a waiting room survives after its
		// host disconnects before it is deleted.
		HostGracePeriod time.Duration
		// RoomIdleTTL is how long a room with no connected players is kept
		// before the sweeper removes it.
		RoomIdleTTL time.Duration
		// SweepInterval is how often the registry sweeper runs.
		SweepInterval time.Duration
	}
}

func LoadFromEnv() (Config, error) {
	var c Config

	c.Env = envString("APP_ENV", "dev")
	c.Log.Level = envString("LOG_LEVEL", "info")
	c.Log.Format = envString("LOG_FORMAT", "text")

	port := envString("PORT", "8080")
	c.HTTP.Addr = envString("HTTP_ADDR", ":"+port)
	c.HTTP.ReadHeaderTimeout = envDuration("HTTP_READ_HEADER_TIMEOUT", 5*time.Second)
	c.HTTP.ReadTimeout = envDuration("HTTP_READ_TIMEOUT", 0)
	c.HTTP.WriteTimeout = envDuration("HTTP_WRITE_TIMEOUT", 0)
	c.HTTP.IdleTimeout = envDuration("HTTP_IDLE_TIMEOUT", 60*time.Second)
	c.HTTP.ShutdownTimeout = envDuration("HTTP_SHUTDOWN_TIMEOUT", 10*time.Second)

	c.Auth.Secret = envString("JWT_SECRET", "dev-secret-change-me")
	c.Auth.TokenTTL = envDuration("JWT_TTL", 24*time.Hour)

	c.Game.HostGracePeriod = envDuration("HOST_GRACE_PERIOD", 30*time.Second)
	c.Game.RoomIdleTTL = envDuration("ROOM_IDLE_TTL", 1*time.Hour)
	c.Game.SweepInterval = envDuration("ROOM_SWEEP_INTERVAL", 1*time.Minute)

	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

func (c Config) Validate() error {
	if c.HTTP.Addr == "" {
		return errors.New("HTTP addr is empty")
	}
	if c.Auth.Secret == "" {
		return errors.New("JWT_SECRET is empty")
	}
	if c.Env != "dev" && c.Auth.Secret == "dev-secret-change-me" {
		return fmt.Errorf("refuse to run with default JWT_SECRET in %s", c.Env)
	}
	if c.Log.Format != "text" && c.Log.Format != "json" {
		return fmt.Errorf("unsupported LOG_FORMAT=%q (want text|json)", c.Log.Format)
	}
	if c.Game.HostGracePeriod <= 0 {
		return errors.New("HOST_GRACE_PERIOD must be positive")
	}
	if c.Game.SweepInterval <= 0 {
		return errors.New("ROOM_SWEEP_INTERVAL must be positive")
	}
	return nil
}

func envString(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		d, err := time.ParseDuration(v)
		if err == nil {
			return d
		}
	}
	return def
}
