package auth

import (
	"crypto/rand"
	"encoding/hex"
	"strings"
)

// ResetCodeLength is the number of characters the user types back from
// the WhatsApp message.
const ResetCodeLength = 6

// GenerateResetCode returns a short human-readable password reset code
// and its bcrypt hash for storage. The code is the uppercased prefix of
// a random hex token, like the codes customers are used to receiving.
func GenerateResetCode() (code string, hash string, err error) {
	buf := make([]byte, 32)
	if _, err = rand.Read(buf); err != nil {
		return "", "", err
	}

	token := hex.EncodeToString(buf)
	code = strings.ToUpper(token[:ResetCodeLength])

	hash, err = HashPassword(code)
	if err != nil {
		return "", "", err
	}
	return code, hash, nil
}

// VerifyResetCode checks a presented code against the stored hash.
// Comparison is case-insensitive since codes are delivered uppercased.
func VerifyResetCode(storedHash, code string) bool {
	return VerifyPassword(storedHash, strings.ToUpper(strings.TrimSpace(code)))
}
