package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Load reads the .env file specified by COSCI_ENV (or .env by default),
// then loads the corresponding .secret file if it exists.
// All config is flat env vars read via os.Getenv after loading.
func Load() error {
	envFile := os.Getenv("COSCI_ENV")
	if envFile == "" {
		envFile = ".env"
	}

	// Load main env file (ignore error if file doesn't exist)
	_ = godotenv.Load(envFile)

	// Load secret sidecar if it exists
	_ = godotenv.Load(envFile + ".secret")

	return nil
}

// APIBaseURL returns the base URL of the research service REST API.
func APIBaseURL() string {
	u := os.Getenv("COSCI_API_URL")
	if u == "" {
		return "http://localhost:8000"
	}
	return u
}

// ChannelURL returns the websocket endpoint delivering lifecycle updates.
func ChannelURL() string {
	u := os.Getenv("COSCI_CHANNEL_URL")
	if u == "" {
		return "ws://localhost:8000/ws"
	}
	return u
}

// HTTPTimeout returns the per-request timeout for REST calls.
// Defaults to 30s if not set.
func HTTPTimeout() time.Duration {
	return durationEnv("COSCI_HTTP_TIMEOUT", 30*time.Second)
}

// ReconnectCloseDelay is the wait before redialing after a dropped
// connection. Defaults to 3s.
func ReconnectCloseDelay() time.Duration {
	return durationEnv("COSCI_RECONNECT_CLOSE_DELAY", 3*time.Second)
}

// ReconnectFailDelay is the wait before retrying after a failed dial.
// Defaults to 5s.
func ReconnectFailDelay() time.Duration {
	return durationEnv("COSCI_RECONNECT_FAIL_DELAY", 5*time.Second)
}

// DebounceWindow is how long free-text input must be quiet before domain
// inference fires. Defaults to 1s.
func DebounceWindow() time.Duration {
	return durationEnv("COSCI_DEBOUNCE_WINDOW", time.Second)
}

// RateLimitRPS returns the outbound requests-per-second budget.
// Defaults to 10 if not set.
func RateLimitRPS() float64 {
	rps, err := strconv.ParseFloat(os.Getenv("COSCI_RATE_LIMIT_RPS"), 64)
	if err != nil || rps <= 0 {
		return 10
	}
	return rps
}

// RateLimitBurst returns the burst size for outbound rate limiting.
// Defaults to 5 if not set.
func RateLimitBurst() int {
	burst, err := strconv.Atoi(os.Getenv("COSCI_RATE_LIMIT_BURST"))
	if err != nil || burst <= 0 {
		return 5
	}
	return burst
}

// StubAddr returns the listen address for the stub research service.
func StubAddr() string {
	addr := os.Getenv("COSCI_STUB_ADDR")
	if addr == "" {
		return ":8000"
	}
	return addr
}

// LogLevel returns the log level (debug, info, warn, error).
// Defaults to "info" if not set.
func LogLevel() string {
	level := os.Getenv("LOG_LEVEL")
	if level == "" {
		return "info"
	}
	return level
}

func durationEnv(key string, def time.Duration) time.Duration {
	d, err := time.ParseDuration(os.Getenv(key))
	if err != nil || d <= 0 {
		return def
	}
	return d
}
