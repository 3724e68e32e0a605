// Package mfa holds the cryptographic building blocks of the credential vault:
// AES-256-GCM sealing of TOTP seeds and backup codes bound to a tenant scope,
// versioned and tenant-derived key providers, and backup code generation.
package mfa
