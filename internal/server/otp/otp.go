// Package otp generates numeric one-time login codes and their one-way
// digests.
package otp

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"io"
	"math/big"
	"time"
)

const (
	CodeLength  = 6
	Validity    = 10 * time.Minute
	MaxAttempts = 5
)

var (
	codeMin   = big.NewInt(100000)
	codeRange = big.NewInt(900000) // 999999 - 100000 + 1
)

// randReader is a seam for crypto/rand.
var randReader io.Reader = rand.Reader

// GenerateCode returns a CodeLength digit code sampled uniformly from
// [100000, 999999] with a cryptographically strong source.
func GenerateCode() (string, error) {
	n, err := rand.Int(randReader, codeRange)
	if err != nil {
		return "", fmt.Errorf("generate code: %w", err)
	}
	n.Add(n, codeMin)
	return n.String(), nil
}

// HashCode returns the hex encoded SHA-256 digest of code.
func HashCode(code string) string {
	sum := sha256.Sum256([]byte(code))
	return hex.EncodeToString(sum[:])
}

// VerifyCode reports whether code hashes to hash, comparing in constant time.
func VerifyCode(code, hash string) bool {
	return subtle.ConstantTimeCompare([]byte(HashCode(code)), []byte(hash)) == 1
}
