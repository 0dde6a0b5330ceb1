// Package config provides functionality for managing configuration options
// for the server using command-line flags, environment variables and an
// optional JSON config file.
package config

import (
	"encoding/json"
	"flag"
	"log"
	"os"
)

// Options holds the configuration values for the server.
type Options struct {
	// Addr defines the server's listening address (ip:port).
	Addr string

	// DatabaseDSN holds the PostgreSQL connection string.
	DatabaseDSN string

	// RedisURL is the connection URL of the Redis instance used for
	// password-reset tokens.
	RedisURL string

	// JWTSecret signs session tokens. Must be non-empty in production.
	JWTSecret string

	// AdminEmail is the account always treated as admin (see
	// models.EffectiveRole). Empty disables the rule.
	AdminEmail string

	// LogLevel sets the zap log level ("debug", "info", ...).
	LogLevel string

	// Config is the path to the JSON config file.
	Config string
}

// options holds the current configuration values.
var options = &Options{}

// init initializes command-line flags and sets default values.
func init() {
	flag.StringVar(&options.Addr, "a", "localhost:8080", "run on ip:port server")
	flag.StringVar(&options.DatabaseDSN, "d", "", "postgres dsn")
	flag.StringVar(&options.RedisURL, "r", "redis://localhost:6379/0", "redis url")
	flag.StringVar(&options.JWTSecret, "s", "", "jwt signing secret")
	flag.StringVar(&options.AdminEmail, "admin", "admin@helpdesk.local", "always-admin account email")
	flag.StringVar(&options.LogLevel, "l", "info", "log level")
	flag.StringVar(&options.Config, "config", "config.json", "path to config file")
	flag.StringVar(&options.Config, "c", "config.json", "path to config file (shorthand)")
}

// Parse parses the command-line flags and environment variables to set
// configuration values. It returns a pointer to the Options struct
// containing the parsed configuration values.
func Parse() *Options {
	flag.Parse()

	// Override flags with environment variables if set
	if configPath := os.Getenv("CONFIG"); configPath != "" {
		options.Config = configPath
	}

	if options.Config != "" {
		if _, err := os.Stat(options.Config); err == nil {
			data, err := os.ReadFile(options.Config)
			if err != nil {
				log.Fatalf("error while reading config file: %v", err)
			}
			if err := json.Unmarshal(data, options); err != nil {
				log.Fatalf("error while parsing config file: %v", err)
			}
		}
	}

	if serverAddress := os.Getenv("SERVER_ADDRESS"); serverAddress != "" {
		options.Addr = serverAddress
	}
	if dsn := os.Getenv("DATABASE_DSN"); dsn != "" {
		options.DatabaseDSN = dsn
	}
	if redisURL := os.Getenv("REDIS_URL"); redisURL != "" {
		options.RedisURL = redisURL
	}
	if secret := os.Getenv("JWT_SECRET"); secret != "" {
		options.JWTSecret = secret
	}
	if admin := os.Getenv("ADMIN_EMAIL"); admin != "" {
		options.AdminEmail = admin
	}

	return options
}
