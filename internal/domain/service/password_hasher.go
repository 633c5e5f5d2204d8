// Package service declares the ports the use cases rely on for credentials, tokens, content and mail.
package service

// PasswordHasher stores account passwords as one-way hashes and enforces the password policy
// on registration and password changes.
type PasswordHasher interface {
	Hash(password string) (string, error)
	// Check reports whether password matches hash. A malformed hash never matches.
	Check(password, hash string) bool
	// ValidatePasswordStrength returns ErrPasswordStrength with the failed rules as details.
	ValidatePasswordStrength(password string) error
}
