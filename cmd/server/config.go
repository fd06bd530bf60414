package main

import (
	"fmt"
	"time"
)

type Config struct {
	Host                      string        `env:"HOST,default=localhost"`
	Port                      int           `env:"PORT,default=8080"`
	BadgerFilepath            string        `env:"BADGER_FILEPATH,required=true"`
	LogLevel                  string        `env:"LOG_LEVEL,default=info"`
	GinMode                   string        `env:"GIN_MODE,default=release"`
	JWTSecret                 string        `env:"JWT_SECRET,required=true"`
	JWTExpiration             time.Duration `env:"JWT_EXPIRATION,default=24h"`
	ConnectionBufferSize      int           `env:"CONNECTION_BUFFER_SIZE,default=256"`
	WriteTimeout              time.Duration `env:"WRITE_TIMEOUT,default=5s"`
	PingPeriod                time.Duration `env:"PING_PERIOD,default=30s"`
	ReadLimit                 int64         `env:"READ_LIMIT,default=65536"`
	ShutdownTimeout           time.Duration `env:"SHUTDOWN_TIMEOUT,default=10s"`
	ModerationCharReplacement string        `env:"MODERATION_CHARACTER_REPLACEMENT,default=*"`
}

// CharacterRune rejects anything but a single replacement character, so a
// misconfigured value fails startup instead of censoring with a surprise.
func (c Config) CharacterRune() (rune, error) {
	r := []rune(c.ModerationCharReplacement)
	if len(r) != 1 {
		return 0, fmt.Errorf(
			"MODERATION_CHARACTER_REPLACEMENT must be a single character, got %q",
			c.ModerationCharReplacement,
		)
	}
	return r[0], nil
}
