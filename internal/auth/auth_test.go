package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"krishi-backend/internal/config"
	"krishi-backend/internal/models"
)

func testConfig() *config.Config {
	cfg := &config.Config{}
	cfg.JWT.Secret = "test-secret"
	cfg.JWT.ExpirationHours = 168
	cfg.JWT.Issuer = "krishi-backend"
	return cfg
}

func TestTokenRoundTrip(t *testing.T) {
	m := NewJWTManager(testConfig())

	user := &models.User{ID: 7, PhoneNumber: "9876543210", Role: models.RoleFarmer}
	token, err := m.GenerateToken(user)
	require.NoError(t, err)

	claims, err := m.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, 7, claims.UserID)
	assert.Equal(t, "9876543210", claims.PhoneNumber)
	assert.Equal(t, models.RoleFarmer, claims.Role)
	assert.Equal(t, "krishi-backend", claims.Issuer)
}

func TestTokenWrongSecret(t *testing.T) {
	m := NewJWTManager(testConfig())

	token, err := m.GenerateToken(&models.User{ID: 1, PhoneNumber: "9876543210", Role: models.RoleAdmin})
	require.NoError(t, err)

	other := testConfig()
	other.JWT.Secret = "different-secret"
	_, err = NewJWTManager(other).ValidateToken(token)
	assert.Error(t, err)
}

func TestTempTokenNotAcceptedAsFullToken(t *testing.T) {
	m := NewJWTManager(testConfig())

	user := &models.User{ID: 3, PhoneNumber: "9876543210", Role: models.RoleAdmin}
	temp, err := m.GenerateTempToken(user)
	require.NoError(t, err)

	claims, err := m.ValidateTempToken(temp)
	require.NoError(t, err)
	assert.Equal(t, 3, claims.UserID)
	assert.Equal(t, "2fa_pending", claims.Type)

	// A full token must not pass temp validation
	full, err := m.GenerateToken(user)
	require.NoError(t, err)
	_, err = m.ValidateTempToken(full)
	assert.Error(t, err)
}

func TestTempTokenRejectedAsFullToken(t *testing.T) {
	m := NewJWTManager(testConfig())

	// Step-1 temp token for an admin with 2FA enrolled must not grant
	// a full session before the TOTP step
	temp, err := m.GenerateTempToken(&models.User{ID: 9, PhoneNumber: "9000000001", Role: models.RoleAdmin})
	require.NoError(t, err)

	_, err = m.ValidateToken(temp)
	assert.Error(t, err)
}

func TestResetCodeVerification(t *testing.T) {
	code, hash, err := GenerateResetCode()
	require.NoError(t, err)
	assert.Len(t, code, ResetCodeLength)

	assert.True(t, VerifyResetCode(hash, code))
	assert.True(t, VerifyResetCode(hash, "  "+code+" "), "whitespace is trimmed")
	assert.True(t, VerifyResetCode(hash, lower(code)), "codes are case-insensitive")
	assert.False(t, VerifyResetCode(hash, "WRONG1"))
}

func lower(s string) string {
	b := []byte(s)
	for i := range b {
		if b[i] >= 'A' && b[i] <= 'Z' {
			b[i] += 'a' - 'A'
		}
	}
	return string(b)
}

func TestDefaultPassword(t *testing.T) {
	assert.Equal(t, "543210", DefaultPassword("9876543210"))
	assert.Equal(t, "12345", DefaultPassword("12345"))
}
