package broker

import (
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"strings"
)

// sha256Hex returns the lowercase hex SHA256 digest of s.
func sha256Hex(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}

// parseInt parses broker numeric strings, tolerating blanks.
func parseInt(s string) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0
	}
	return n
}

// parseFloat parses broker decimal strings, tolerating blanks.
func parseFloat(s string) float64 {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0
	}
	return f
}
