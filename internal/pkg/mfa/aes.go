package mfa

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

// Ciphertext format (binary):
// [0]      format version (currently 1)
// [1..2]   uint16 key version
// [3..14]  12-byte nonce
// [15..]   gcm.Seal output (ciphertext + tag)
const (
	formatVersion byte = 1
	headerSize         = 3
	gcmNonceSize       = 12
	gcmTagSize         = 16
	aesKeyLen          = 32
)

var (
	// ErrEncryptorNotConfigured indicates a missing encryptor key provider.
	ErrEncryptorNotConfigured = errors.New("mfacrypto: encryptor not configured")
	// ErrPlaintextEmpty indicates an empty plaintext input.
	ErrPlaintextEmpty = errors.New("mfacrypto: plaintext is empty")
	// ErrInvalidKeyLength indicates the key length is invalid.
	ErrInvalidKeyLength = errors.New("mfacrypto: invalid key length")
	// ErrDecryptFailed indicates the ciphertext could not be opened.
	ErrDecryptFailed = errors.New("mfacrypto: decrypt failed")
)

// AESGCMEncryptor implements Encryptor using AES-256-GCM.
type AESGCMEncryptor struct {
	keys KeyProvider
}

// NewAESGCMEncryptor constructs an AES-GCM encryptor.
func NewAESGCMEncryptor(keys KeyProvider) *AESGCMEncryptor {
	return &AESGCMEncryptor{keys: keys}
}

// Encrypt seals plaintext with the active key version, binding it to scope.
func (e *AESGCMEncryptor) Encrypt(plaintext []byte, scope Scope) ([]byte, error) {
	if e == nil || e.keys == nil {
		return nil, ErrEncryptorNotConfigured
	}
	if len(plaintext) == 0 {
		return nil, ErrPlaintextEmpty
	}

	version := e.keys.ActiveVersion()
	gcm, err := e.aead(version, scope)
	if err != nil {
		return nil, err
	}

	out := make([]byte, headerSize+gcmNonceSize, headerSize+gcmNonceSize+len(plaintext)+gcmTagSize)
	out[0] = formatVersion
	binary.BigEndian.PutUint16(out[1:headerSize], version)

	nonce := out[headerSize : headerSize+gcmNonceSize]
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, fmt.Errorf("mfacrypto: nonce generation failed: %w", err)
	}

	return gcm.Seal(out, nonce, plaintext, scope.aad()), nil
}

// Decrypt opens ciphertext sealed for scope. Every failure caused by the
// ciphertext itself is reported as ErrDecryptFailed.
func (e *AESGCMEncryptor) Decrypt(ciphertext []byte, scope Scope) ([]byte, error) {
	if e == nil || e.keys == nil {
		return nil, ErrEncryptorNotConfigured
	}

	version, err := KeyVersion(ciphertext)
	if err != nil {
		return nil, err
	}

	gcm, err := e.aead(version, scope)
	if err != nil {
		return nil, errors.Join(ErrDecryptFailed, err)
	}

	nonce := ciphertext[headerSize : headerSize+gcmNonceSize]
	sealed := ciphertext[headerSize+gcmNonceSize:]

	plain, err := gcm.Open(nil, nonce, sealed, scope.aad())
	if err != nil {
		// wrong scope, wrong key and tampering are indistinguishable on purpose
		return nil, ErrDecryptFailed
	}

	return plain, nil
}

// KeyVersion reads the key version from a ciphertext header.
func KeyVersion(ciphertext []byte) (uint16, error) {
	if len(ciphertext) < headerSize+gcmNonceSize+gcmTagSize {
		return 0, fmt.Errorf("%w: ciphertext too short", ErrDecryptFailed)
	}
	if ciphertext[0] != formatVersion {
		return 0, fmt.Errorf("%w: unsupported format version %d", ErrDecryptFailed, ciphertext[0])
	}

	return binary.BigEndian.Uint16(ciphertext[1:headerSize]), nil
}

func (e *AESGCMEncryptor) aead(version uint16, scope Scope) (cipher.AEAD, error) {
	key, err := e.keys.Key(version, scope)
	if err != nil {
		return nil, fmt.Errorf("mfacrypto: key provider error: %w", err)
	}
	if len(key) != aesKeyLen {
		return nil, fmt.Errorf("mfacrypto: key length %d (want %d): %w", len(key), aesKeyLen, ErrInvalidKeyLength)
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("mfacrypto: aes init failed: %w", err)
	}

	return cipher.NewGCMWithNonceSize(block, gcmNonceSize)
}
