package warehouse

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

const (
	credentialLength = 12

	upperChars   = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"
	lowerChars   = "abcdefghijklmnopqrstuvwxyz"
	digitChars   = "0123456789"
	specialChars = "!@#$%^&*"
)

// generateTempCredential produces a random temporary credential satisfying
// Snowflake's default password policy: at least 8 characters with one
// uppercase, one lowercase, one digit and one special character. Drawn from
// crypto/rand - these are real credentials, not test fixtures.
func generateTempCredential(length int) (string, error) {
	if length < 8 {
		return "", fmt.Errorf("credential length %d below policy minimum of 8", length)
	}

	required := []string{upperChars, lowerChars, digitChars, specialChars}
	buf := make([]byte, 0, length)
	for _, set := range required {
		c, err := randomFrom(set)
		if err != nil {
			return "", err
		}
		buf = append(buf, c)
	}

	rest := upperChars + lowerChars + digitChars
	for len(buf) < length {
		c, err := randomFrom(rest)
		if err != nil {
			return "", err
		}
		buf = append(buf, c)
	}

	if err := shuffle(buf); err != nil {
		return "", err
	}
	return string(buf), nil
}

func randomFrom(set string) (byte, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(int64(len(set))))
	if err != nil {
		return 0, fmt.Errorf("failed to read random bytes: %w", err)
	}
	return set[n.Int64()], nil
}

// shuffle performs a Fisher-Yates shuffle so the required character classes
// don't always sit at the front
func shuffle(buf []byte) error {
	for i := len(buf) - 1; i > 0; i-- {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(i+1)))
		if err != nil {
			return fmt.Errorf("failed to read random bytes: %w", err)
		}
		j := n.Int64()
		buf[i], buf[j] = buf[j], buf[i]
	}
	return nil
}
