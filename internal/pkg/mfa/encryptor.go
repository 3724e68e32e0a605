package mfa

// Encryptor seals secret material at rest.
//
// Ciphertext is bound to its Scope: opening it with any other scope fails.
type Encryptor interface {
	// Encrypt returns ciphertext for the given plaintext and scope.
	Encrypt(plaintext []byte, scope Scope) (ciphertext []byte, err error)
	// Decrypt returns plaintext for the given ciphertext and scope.
	// Any corruption, tampering or scope mismatch yields ErrDecryptFailed.
	Decrypt(ciphertext []byte, scope Scope) (plaintext []byte, err error)
}

// KeyProvider provides raw AES-256 keys (32 bytes).
type KeyProvider interface {
	// ActiveVersion is the key version used to seal new ciphertext.
	ActiveVersion() uint16
	// Key returns the key for version and scope. Implementations may derive
	// per-tenant keys from the scope.
	Key(version uint16, scope Scope) ([]byte, error)
}
