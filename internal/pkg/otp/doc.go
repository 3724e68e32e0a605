// Package otp generates TOTP secrets (RFC 6238) and validates codes across a
// drift window without revealing which time step matched.
package otp
