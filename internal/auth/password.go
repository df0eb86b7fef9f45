package auth

import "golang.org/x/crypto/bcrypt"

// bcryptCost of 10 matches the hashes the store's customer base already
// carries; accounts created during purchase entry use the same cost
const bcryptCost = 10

// HashPassword generates a bcrypt hash of the password
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// VerifyPassword checks if the provided password matches the hash
func VerifyPassword(hashedPassword, password string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hashedPassword), []byte(password))
	return err == nil
}

// DefaultPassword derives the weak starter password for accounts created
// implicitly during purchase entry: the last 6 digits of the phone number.
// Such accounts are flagged force_password_reset until the owner sets a
// real password.
func DefaultPassword(phoneNumber string) string {
	if len(phoneNumber) <= 6 {
		return phoneNumber
	}
	return phoneNumber[len(phoneNumber)-6:]
}
