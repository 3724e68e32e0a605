// Package jwt authenticates tenant (company) callers with JSON Web Tokens.
//
// It includes:
//   - A Claims type carrying the company id and its role.
//   - A symmetric HS512 implementation for issuing and verifying tokens.
//   - Context helpers for storing and retrieving authenticated claims.
package jwt
