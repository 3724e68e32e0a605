package otp

import (
	"crypto/subtle"
	"encoding/base32"
	"errors"
	"strings"
	"time"

	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"
)

const (
	// DefaultPeriod is the time step in seconds.
	DefaultPeriod uint = 30
	// DefaultSkew is the number of adjacent steps accepted on each side.
	DefaultSkew uint = 1
	// SecretSize is the seed size in bytes (160 bits).
	SecretSize uint = 20
)

// ErrInvalidSecret indicates a seed that is not base32 or is shorter than 128 bits.
var ErrInvalidSecret = errors.New("otp: invalid secret")

// Key is a freshly generated TOTP seed with its provisioning URI.
type Key struct {
	// Secret is the base32 (unpadded) seed.
	Secret string
	// URI is the otpauth:// provisioning URI for authenticator apps.
	URI string
}

// OTP defines the contract for TOTP operations.
type OTP interface {
	// Generate creates a seed and provisioning URI labelled issuer:accountName.
	Generate(accountName string) (*Key, error)
	// Validate reports whether code matches any step in the window around at.
	Validate(code, secret string, at time.Time) (bool, error)
	// GenerateCode creates the code for the step containing at.
	GenerateCode(secret string, at time.Time) (string, error)
}

// TOTP implements OTP with HMAC-SHA1.
type TOTP struct {
	issuer string
	period uint
	skew   uint
	digits otp.Digits
}

// NewTOTP constructs a TOTP instance.
//
// A zero period means 30 seconds; digits other than 6 or 8 fall back to 6.
// skew is taken as is, so 0 accepts the current step only.
func NewTOTP(issuer string, period, skew uint, digits otp.Digits) *TOTP {
	if digits != otp.DigitsSix && digits != otp.DigitsEight {
		digits = otp.DigitsSix
	}
	if period == 0 {
		period = DefaultPeriod
	}

	return &TOTP{
		issuer: issuer,
		period: period,
		skew:   skew,
		digits: digits,
	}
}

// Period returns the time step.
func (o *TOTP) Period() time.Duration {
	return time.Duration(o.period) * time.Second
}

// Skew returns the window half-width in steps.
func (o *TOTP) Skew() uint {
	return o.skew
}

func (o *TOTP) Generate(accountName string) (*Key, error) {
	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      o.issuer,
		AccountName: accountName,
		Period:      o.period,
		SecretSize:  SecretSize,
		Digits:      o.digits,
		Algorithm:   otp.AlgorithmSHA1,
	})
	if err != nil {
		return nil, err
	}

	return &Key{Secret: key.Secret(), URI: key.URL()}, nil
}

// Validate computes the code of every step in [at-skew, at+skew] and compares
// each one in constant time. All steps are evaluated even after a match.
func (o *TOTP) Validate(code, secret string, at time.Time) (bool, error) {
	if err := CheckSecret(secret); err != nil {
		return false, err
	}

	step := o.Period()
	match := 0
	for i := -int64(o.skew); i <= int64(o.skew); i++ {
		expected, err := o.GenerateCode(secret, at.Add(time.Duration(i)*step))
		if err != nil {
			return false, err
		}
		match |= subtle.ConstantTimeCompare([]byte(expected), []byte(code))
	}

	return match == 1, nil
}

func (o *TOTP) GenerateCode(secret string, at time.Time) (string, error) {
	return totp.GenerateCodeCustom(secret, at, totp.ValidateOpts{
		Period:    o.period,
		Digits:    o.digits,
		Algorithm: otp.AlgorithmSHA1,
	})
}

// CheckSecret verifies secret decodes as base32 and carries at least 128 bits.
func CheckSecret(secret string) error {
	s := strings.ToUpper(strings.TrimSpace(secret))
	if n := len(s) % 8; n != 0 {
		s += strings.Repeat("=", 8-n)
	}

	raw, err := base32.StdEncoding.DecodeString(s)
	if err != nil || len(raw) < 16 {
		return ErrInvalidSecret
	}

	return nil
}
