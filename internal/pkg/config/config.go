package config

import (
	"io"
	"time"
)

// Config is the read-only view of runtime configuration used across the service.
//
// Keys are dot separated ("mfa.totp.period"). Missing keys yield the zero value
// of the requested type; callers that need a non-zero default register it with
// WithDefaults when building the Viper implementation.
type Config interface {
	io.Closer

	// GetSecond reads an integer value and interprets it as seconds.
	GetSecond(key string) time.Duration
	// GetMinute reads an integer value and interprets it as minutes.
	GetMinute(key string) time.Duration

	GetInt(key string) int
	GetInt32(key string) int32
	GetInt64(key string) int64
	GetUint(key string) uint
	GetUint16(key string) uint16
	GetFloat64(key string) float64
	GetBool(key string) bool
	GetString(key string) string

	// GetBinary decodes a base64 encoded value. Invalid input yields nil.
	GetBinary(key string) []byte

	// GetArray splits a "a,b,c" value (or reads a YAML list). Blank items are dropped.
	GetArray(key string) []string

	// GetMap parses a "k1:v1,k2:v2" value (or reads a YAML mapping).
	GetMap(key string) map[string]string
}
