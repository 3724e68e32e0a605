package mfa

import (
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"golang.org/x/crypto/hkdf"
)

var (
	// ErrMissingStaticKey indicates a missing static key.
	ErrMissingStaticKey = errors.New("mfacrypto: missing static key")
	// ErrUnknownKeyVersion indicates a ciphertext sealed with a key no longer configured.
	ErrUnknownKeyVersion = errors.New("mfacrypto: unknown key version")
	// ErrNoKeys indicates a key ring was configured without any key.
	ErrNoKeys = errors.New("mfacrypto: no keys configured")
	// ErrMissingCompany indicates a tenant-derived key was requested without a company.
	ErrMissingCompany = errors.New("mfacrypto: scope has no company")
)

const tenantKeyInfo = "otpvault-mfa-tenant-key-v1"

// StaticKeyProvider returns the same key, as version 1, for every scope.
// Intended for local development and tests.
type StaticKeyProvider struct {
	// KeyBytes is the raw AES key material.
	KeyBytes []byte
}

func (p StaticKeyProvider) ActiveVersion() uint16 { return 1 }

func (p StaticKeyProvider) Key(version uint16, _ Scope) ([]byte, error) {
	if len(p.KeyBytes) == 0 {
		return nil, ErrMissingStaticKey
	}
	if version != 1 {
		return nil, fmt.Errorf("%w: %d", ErrUnknownKeyVersion, version)
	}
	return cloneKey(p.KeyBytes), nil
}

// KeyRing holds versioned master keys. New ciphertext is sealed with the active
// version while older versions stay readable until they are removed.
type KeyRing struct {
	active uint16
	keys   map[uint16][]byte
}

// NewKeyRing validates that every key is 32 bytes and that active is present.
func NewKeyRing(active uint16, keys map[uint16][]byte) (*KeyRing, error) {
	if _, ok := keys[active]; !ok {
		return nil, fmt.Errorf("%w: active version %d", ErrUnknownKeyVersion, active)
	}

	ring := &KeyRing{active: active, keys: make(map[uint16][]byte, len(keys))}
	for v, k := range keys {
		if len(k) != aesKeyLen {
			return nil, fmt.Errorf("mfacrypto: key version %d has %d bytes: %w", v, len(k), ErrInvalidKeyLength)
		}
		ring.keys[v] = cloneKey(k)
	}

	return ring, nil
}

// ParseKeyRing builds a KeyRing from "version -> base64 key" pairs as found in config.
func ParseKeyRing(active uint16, encoded map[string]string) (*KeyRing, error) {
	if len(encoded) == 0 {
		return nil, ErrNoKeys
	}

	keys := make(map[uint16][]byte, len(encoded))
	for rawVersion, rawKey := range encoded {
		v, err := strconv.ParseUint(strings.TrimSpace(rawVersion), 10, 16)
		if err != nil {
			return nil, fmt.Errorf("mfacrypto: invalid key version %q: %w", rawVersion, err)
		}
		k, err := base64.StdEncoding.DecodeString(strings.TrimSpace(rawKey))
		if err != nil {
			return nil, fmt.Errorf("mfacrypto: key version %d is not base64: %w", v, err)
		}
		keys[uint16(v)] = k
	}

	return NewKeyRing(active, keys)
}

func (r *KeyRing) ActiveVersion() uint16 { return r.active }

func (r *KeyRing) Key(version uint16, _ Scope) ([]byte, error) {
	k, ok := r.keys[version]
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrUnknownKeyVersion, version)
	}
	return cloneKey(k), nil
}

// TenantKeyProvider derives a distinct key per company from a master provider
// with HKDF-SHA256, so one tenant's key never opens another tenant's data.
type TenantKeyProvider struct {
	master KeyProvider
}

// NewTenantKeyProvider wraps master.
func NewTenantKeyProvider(master KeyProvider) *TenantKeyProvider {
	return &TenantKeyProvider{master: master}
}

func (p *TenantKeyProvider) ActiveVersion() uint16 { return p.master.ActiveVersion() }

func (p *TenantKeyProvider) Key(version uint16, scope Scope) ([]byte, error) {
	if scope.CompanyID == "" {
		return nil, ErrMissingCompany
	}

	master, err := p.master.Key(version, scope)
	if err != nil {
		return nil, err
	}
	defer clear(master)

	derived := make([]byte, aesKeyLen)
	r := hkdf.New(sha256.New, master, []byte(scope.CompanyID), []byte(tenantKeyInfo))
	if _, err := io.ReadFull(r, derived); err != nil {
		return nil, fmt.Errorf("mfacrypto: derive tenant key: %w", err)
	}

	return derived, nil
}

func cloneKey(k []byte) []byte {
	out := make([]byte, len(k))
	copy(out, k)
	return out
}
