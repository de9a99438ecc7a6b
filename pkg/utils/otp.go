package utils

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"time"
)

const (
	OTPExpiration = 5 * time.Minute
)

// GenerateAccessCode returns a 6-digit code drawn uniformly from
// [100000, 999999], so the leading digit is never zero.
func GenerateAccessCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(900000))
	if err != nil {
		return "", err
	}

	return fmt.Sprintf("%06d", n.Int64()+100000), nil
}
