package passwords

import (
	"fmt"
	"unicode"
)

// ValidateStrength checks if a new password meets the requirements:
// - At least 8 characters long, at most MaxPasswordLength bytes
// - Contains uppercase and lowercase letters
// - Contains at least one number
func ValidateStrength(password string) error {
	if len(password) < 8 {
		return fmt.Errorf("password must be at least 8 characters long")
	}
	if tooLong(password) {
		return fmt.Errorf("password must not be longer than %d bytes", MaxPasswordLength)
	}

	var (
		hasUpper  bool
		hasLower  bool
		hasNumber bool
	)

	for _, char := range password {
		if unicode.IsUpper(char) {
			hasUpper = true
		} else if unicode.IsLower(char) {
			hasLower = true
		} else if unicode.IsDigit(char) {
			hasNumber = true
		}
	}

	if !hasUpper {
		return fmt.Errorf("password must contain at least one uppercase letter")
	}
	if !hasLower {
		return fmt.Errorf("password must contain at least one lowercase letter")
	}
	if !hasNumber {
		return fmt.Errorf("password must contain at least one number")
	}

	return nil
}
