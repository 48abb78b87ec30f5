package config

import (
	"log/slog"
	"os"
)

var JwtKey []byte

// LoadAuthConfig reads the JWT signing secret. The process refuses to start
// without one: a guessable default would make every token forgeable.
func LoadAuthConfig() {
	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		slog.Error("JWT_SECRET environment variable is not set")
		os.Exit(1)
	}
	JwtKey = []byte(secret)
}
