// Package otp generates the short numeric codes mailed to users during
// signup and sign-in.
package otp

import (
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
)

// DefaultLength is the number of digits in a generated code.
const DefaultLength = 6

var ten = big.NewInt(10)

// Generate returns a fixed-length numeric code drawn uniformly from the
// digit alphabet using a cryptographically secure random source.
func Generate(length int) (string, error) {
	if length <= 0 {
		return "", errors.New("otp: length must be positive")
	}

	digits := make([]byte, length)
	for i := range digits {
		n, err := rand.Int(rand.Reader, ten)
		if err != nil {
			return "", fmt.Errorf("otp: read random digit: %w", err)
		}
		digits[i] = byte('0' + n.Int64())
	}

	return string(digits), nil
}
