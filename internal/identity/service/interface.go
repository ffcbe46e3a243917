// Package service provides identity-related services for password hashing and
// policy-compliant password generation.
package service

// PasswordPolicy describes the composition rules a generated password must satisfy.
type PasswordPolicy struct {
	Length         int
	RequireUpper   bool
	RequireLower   bool
	RequireDigit   bool
	RequireSpecial bool
}

// PasswordService defines password hashing operations.
type PasswordService interface {
	// HashPassword hashes a plain text password for storage.
	HashPassword(plainPassword string) (string, error)

	// ComparePassword performs a constant-time comparison between a plain
	// password and its stored hash.
	ComparePassword(plainPassword string, hashedPassword string) bool
}

// PasswordGenerator produces random passwords satisfying a policy.
type PasswordGenerator interface {
	// Generate returns a cryptographically random password compliant with the policy.
	Generate(policy PasswordPolicy) (string, error)
}
