// Package uid generates identifiers.
//
// Credentials are addressed by time-ordered UUIDv7 strings; child rows such as
// backup codes and audit events use 64-bit snowflake numbers.
package uid

// StringID produces string identifiers.
type StringID interface {
	Generate() string
}

// NumberID produces numeric identifiers.
type NumberID interface {
	Generate() int64
}
