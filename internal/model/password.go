package model

import "errors"

// MinPasswordLength is the minimum allowed app password length.
const MinPasswordLength = 8

// ValidatePassword checks a candidate app password against the policy.
func ValidatePassword(password string) error {
	if len(password) < MinPasswordLength {
		return errors.New("password must be at least 8 characters")
	}
	return nil
}
