package otp

import (
	"net/url"
	"testing"
	"time"

	"github.com/pquerna/otp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RFC 6238 appendix B seed for SHA1 ("12345678901234567890").
const rfcSecret = "GEZDGNBVGY3TQOJQGEZDGNBVGY3TQOJQ"

func TestTOTP_GenerateCode_RFC6238(t *testing.T) {
	o := NewTOTP("Acme", 30, 1, otp.DigitsEight)

	tests := []struct {
		unix int64
		want string
	}{
		{59, "94287082"},
		{1111111109, "07081804"},
		{1111111111, "14050471"},
		{1234567890, "89005924"},
		{2000000000, "69279037"},
	}
	for _, tt := range tests {
		got, err := o.GenerateCode(rfcSecret, time.Unix(tt.unix, 0).UTC())
		require.NoError(t, err)
		assert.Equal(t, tt.want, got, tt.unix)
	}
}

func TestTOTP_Generate(t *testing.T) {
	o := NewTOTP("Acme Corp", 0, 1, otp.DigitsSix)

	key, err := o.Generate("alice")
	require.NoError(t, err)
	require.NoError(t, CheckSecret(key.Secret))
	assert.Len(t, key.Secret, 32)

	u, err := url.Parse(key.URI)
	require.NoError(t, err)
	assert.Equal(t, "otpauth", u.Scheme)
	assert.Equal(t, "totp", u.Host)
	assert.Equal(t, "/Acme Corp:alice", u.Path)

	q := u.Query()
	assert.Equal(t, key.Secret, q.Get("secret"))
	assert.Equal(t, "Acme Corp", q.Get("issuer"))
	assert.Equal(t, "SHA1", q.Get("algorithm"))
	assert.Equal(t, "6", q.Get("digits"))
	assert.Equal(t, "30", q.Get("period"))

	other, err := o.Generate("alice")
	require.NoError(t, err)
	assert.NotEqual(t, key.Secret, other.Secret)
}

func TestTOTP_Validate_Window(t *testing.T) {
	o := NewTOTP("Acme", 30, 1, otp.DigitsSix)
	now := time.Date(2026, 3, 4, 5, 6, 7, 0, time.UTC)

	for _, offset := range []time.Duration{-30 * time.Second, 0, 30 * time.Second} {
		code, err := o.GenerateCode(rfcSecret, now.Add(offset))
		require.NoError(t, err)

		ok, err := o.Validate(code, rfcSecret, now)
		require.NoError(t, err)
		assert.True(t, ok, "offset %s", offset)
	}

	for _, offset := range []time.Duration{-60 * time.Second, 60 * time.Second, 10 * time.Minute} {
		code, err := o.GenerateCode(rfcSecret, now.Add(offset))
		require.NoError(t, err)

		ok, err := o.Validate(code, rfcSecret, now)
		require.NoError(t, err)
		assert.False(t, ok, "offset %s", offset)
	}
}

func TestTOTP_Validate_ZeroSkew(t *testing.T) {
	o := NewTOTP("Acme", 30, 0, otp.DigitsSix)
	now := time.Date(2026, 3, 4, 5, 6, 15, 0, time.UTC)
	assert.Equal(t, uint(0), o.Skew())

	current, err := o.GenerateCode(rfcSecret, now)
	require.NoError(t, err)
	previous, err := o.GenerateCode(rfcSecret, now.Add(-30*time.Second))
	require.NoError(t, err)

	ok, err := o.Validate(current, rfcSecret, now)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = o.Validate(previous, rfcSecret, now)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestTOTP_Validate_Rejects(t *testing.T) {
	o := NewTOTP("Acme", 30, 1, otp.DigitsSix)
	now := time.Now()

	for _, code := range []string{"", "12345", "1234567", "abcdef"} {
		ok, err := o.Validate(code, rfcSecret, now)
		require.NoError(t, err)
		assert.False(t, ok, code)
	}

	_, err := o.Validate("123456", "not base32!", now)
	assert.ErrorIs(t, err, ErrInvalidSecret)

	_, err = o.Validate("123456", "GEZDGNBV", now)
	assert.ErrorIs(t, err, ErrInvalidSecret, "40-bit seed is too short")
}

func TestNewTOTP_Defaults(t *testing.T) {
	o := NewTOTP("Acme", 0, 2, otp.Digits(7))
	assert.Equal(t, 30*time.Second, o.Period())
	assert.Equal(t, uint(2), o.Skew())
	assert.Equal(t, otp.DigitsSix, o.digits)
}
