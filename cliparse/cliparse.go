package cliparse

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

const (
	DefaultPort           = 3318
	DefaultDatabaseURL    = "file:poker.db"
	DefaultServerURL      = "http://localhost:3318"
	DefaultTokenTTL       = 10 * time.Minute
	DefaultConnectTimeout = 15 * time.Second
)

type Config struct {
	Port         int
	DatabaseURL  string
	DatabaseType string
	APIKey       string
	APISecret    string
	TokenTTL     time.Duration
	PublicURL    string
}

type ClientConfig struct {
	ServerURL         string
	Identity          string
	Room              string
	Link              string
	APIKey            string
	APISecret         string
	TokenTTL          time.Duration
	ConnectTimeout    time.Duration
	ClearOnDisconnect bool
}

// LoadEnvFile loads variables from a .env file without overriding ones
// already set. A missing file is not an error.
func LoadEnvFile(path string) error {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}

// ParseFlags validates server flags and sets port number
func ParseFlags(args []string) (Config, error) {
	var cfg Config

	fs := flag.NewFlagSet("pok-er", flag.ContinueOnError)

	// Network config (can be CLI args or env)
	fs.IntVar(&cfg.Port, "p", 0, "Server port")
	fs.StringVar(&cfg.DatabaseURL, "d", "", "Database URL")
	fs.StringVar(&cfg.DatabaseType, "t", "", "Database type (sqlite or postgres)")
	fs.StringVar(&cfg.PublicURL, "public-url", "", "URL clients use to reach this server")
	fs.DurationVar(&cfg.TokenTTL, "token-ttl", 0, "Access token lifetime")

	// Secrets (prefer env variables, but allow CLI for dev)
	fs.StringVar(&cfg.APIKey, "api-key", "", "API key (prefer env)")
	fs.StringVar(&cfg.APISecret, "api-secret", "", "API secret (prefer env)")

	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}

	// Fall back to environment variables
	if cfg.Port == 0 {
		if portStr := os.Getenv("PORT"); portStr != "" {
			port, err := strconv.Atoi(portStr)
			if err != nil {
				return Config{}, errors.New("invalid PORT env variable")
			}
			cfg.Port = port
		} else {
			cfg.Port = DefaultPort
		}
	}
	if cfg.DatabaseURL == "" {
		cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	}
	if cfg.DatabaseURL == "" {
		cfg.DatabaseURL = DefaultDatabaseURL
	}

	if cfg.DatabaseType == "" {
		cfg.DatabaseType = os.Getenv("DATABASE_TYPE")
		if cfg.DatabaseType == "" {
			cfg.DatabaseType = "sqlite"
		}
	}
	if cfg.DatabaseType != "sqlite" && cfg.DatabaseType != "postgres" {
		return Config{}, fmt.Errorf("invalid database type %q", cfg.DatabaseType)
	}

	if cfg.PublicURL == "" {
		cfg.PublicURL = os.Getenv("PUBLIC_URL")
	}
	if cfg.PublicURL == "" {
		cfg.PublicURL = "http://localhost:" + strconv.Itoa(cfg.Port)
	}

	ttl, err := durationOrEnv(cfg.TokenTTL, "TOKEN_TTL", DefaultTokenTTL)
	if err != nil {
		return Config{}, err
	}
	cfg.TokenTTL = ttl

	// Secrets - MUST be provided
	if cfg.APIKey == "" {
		cfg.APIKey = os.Getenv("LIVEKIT_API_KEY")
	}
	if cfg.APIKey == "" {
		return Config{}, errors.New("LIVEKIT_API_KEY required")
	}

	if cfg.APISecret == "" {
		cfg.APISecret = os.Getenv("LIVEKIT_API_SECRET")
	}
	if cfg.APISecret == "" {
		return Config{}, errors.New("LIVEKIT_API_SECRET required")
	}

	return cfg, nil
}

// ParseClientFlags parses the terminal client's flags. The API key pair is
// optional; without it tokens are requested from the server.
func ParseClientFlags(args []string) (ClientConfig, error) {
	var cfg ClientConfig

	fs := flag.NewFlagSet("pok-er client", flag.ContinueOnError)

	fs.StringVar(&cfg.ServerURL, "s", "", "Server URL")
	fs.StringVar(&cfg.Identity, "n", "", "Your name")
	fs.StringVar(&cfg.Room, "r", "", "Room name")
	fs.StringVar(&cfg.Link, "link", "", "Shared room link (?r=<room> or #r=<room>)")
	fs.DurationVar(&cfg.ConnectTimeout, "timeout", 0, "Join timeout (0 uses the default)")
	fs.DurationVar(&cfg.TokenTTL, "token-ttl", 0, "Access token lifetime when signing locally")
	fs.BoolVar(&cfg.ClearOnDisconnect, "clear-on-disconnect", false, "Forget votes when leaving a room")
	fs.StringVar(&cfg.APIKey, "api-key", "", "API key for local token signing (prefer env)")
	fs.StringVar(&cfg.APISecret, "api-secret", "", "API secret for local token signing (prefer env)")

	if err := fs.Parse(args); err != nil {
		return ClientConfig{}, err
	}

	if cfg.ServerURL == "" {
		cfg.ServerURL = os.Getenv("POKER_SERVER_URL")
	}
	if cfg.ServerURL == "" {
		cfg.ServerURL = DefaultServerURL
	}

	if cfg.APIKey == "" {
		cfg.APIKey = os.Getenv("LIVEKIT_API_KEY")
	}
	if cfg.APISecret == "" {
		cfg.APISecret = os.Getenv("LIVEKIT_API_SECRET")
	}
	if (cfg.APIKey == "") != (cfg.APISecret == "") {
		return ClientConfig{}, errors.New("api key and secret must be set together")
	}

	timeout, err := durationOrEnv(cfg.ConnectTimeout, "POKER_CONNECT_TIMEOUT", DefaultConnectTimeout)
	if err != nil {
		return ClientConfig{}, err
	}
	cfg.ConnectTimeout = timeout

	ttl, err := durationOrEnv(cfg.TokenTTL, "TOKEN_TTL", DefaultTokenTTL)
	if err != nil {
		return ClientConfig{}, err
	}
	cfg.TokenTTL = ttl

	return cfg, nil
}

// durationOrEnv returns flagValue when set, else the env variable, else def
func durationOrEnv(flagValue time.Duration, env string, def time.Duration) (time.Duration, error) {
	if flagValue > 0 {
		return flagValue, nil
	}
	raw := os.Getenv(env)
	if raw == "" {
		return def, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s env variable", env)
	}
	return d, nil
}
