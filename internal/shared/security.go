package shared

import "crypto/subtle"

// SecureCompare compares two strings in constant time. Length mismatches
// return false immediately; equal-length inputs are always scanned in full
// so the comparison leaks no timing information about the expected value.
func SecureCompare(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

// ValidateProjectToken checks the caller supplied project token against the
// configured secret. This coarse gate runs before any per-user credential is
// examined.
func ValidateProjectToken(got, want string) error {
	if got == "" || !SecureCompare(got, want) {
		return NewError(CodeUnauthorized, "unauthorized access")
	}
	return nil
}
