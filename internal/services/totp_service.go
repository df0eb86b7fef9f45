package services

import (
	"bytes"
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"image/png"

	"krishi-backend/internal/auth"
	"krishi-backend/internal/models"
	"krishi-backend/internal/repositories"

	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"
	"golang.org/x/crypto/bcrypt"
)

const (
	totpIssuer       = "KrishiKendra"
	backupCodeCount  = 10
	backupCodeLength = 8
)

var (
	ErrNoTOTPSecret    = &TOTPError{Message: "2FA setup not initiated"}
	ErrInvalidTOTPCode = &TOTPError{Message: "invalid verification code"}
	ErrTOTPNotEnabled  = &TOTPError{Message: "2FA is not enabled"}
	ErrInvalidPassword = &TOTPError{Message: "invalid password"}
)

type TOTPError struct {
	Message string
}

func (e *TOTPError) Error() string {
	return e.Message
}

// TOTPService manages authenticator-app 2FA for admin accounts
type TOTPService struct {
	Users      *repositories.UserRepository
	JWTManager *auth.JWTManager
}

func NewTOTPService(users *repositories.UserRepository, jwtManager *auth.JWTManager) *TOTPService {
	return &TOTPService{Users: users, JWTManager: jwtManager}
}

// GenerateSetup creates a new TOTP secret and QR code for a user. The
// secret stays disabled until a code is verified.
func (s *TOTPService) GenerateSetup(ctx context.Context, user *models.User) (*models.TOTPSetupResponse, error) {
	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      totpIssuer,
		AccountName: user.PhoneNumber,
		Period:      30,
		Digits:      otp.DigitsSix,
		Algorithm:   otp.AlgorithmSHA1,
	})
	if err != nil {
		return nil, err
	}

	if err := s.Users.SetTOTPSecret(ctx, user.ID, key.Secret()); err != nil {
		return nil, err
	}

	qrImage, err := key.Image(200, 200)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, qrImage); err != nil {
		return nil, err
	}
	qrBase64 := base64.StdEncoding.EncodeToString(buf.Bytes())

	return &models.TOTPSetupResponse{
		Secret:      key.Secret(),
		QRCode:      "data:image/png;base64," + qrBase64,
		Issuer:      totpIssuer,
		AccountName: user.PhoneNumber,
	}, nil
}

// VerifyAndEnable verifies a TOTP code and enables 2FA for the user
func (s *TOTPService) VerifyAndEnable(ctx context.Context, userID int, code string) (*models.BackupCodesResponse, error) {
	user, err := s.Users.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user.TOTPSecret == "" {
		return nil, ErrNoTOTPSecret
	}

	if !totp.Validate(code, user.TOTPSecret) {
		return nil, ErrInvalidTOTPCode
	}

	if err := s.Users.EnableTOTP(ctx, userID); err != nil {
		return nil, err
	}

	codes, err := s.generateBackupCodes(ctx, userID)
	if err != nil {
		return nil, err
	}

	return &models.BackupCodesResponse{BackupCodes: codes}, nil
}

// CompleteLogin is login step 2: a temp token from step 1 plus a TOTP
// or backup code buys a full token.
func (s *TOTPService) CompleteLogin(ctx context.Context, req *models.TOTPLoginRequest) (*models.AuthResponse, error) {
	claims, err := s.JWTManager.ValidateTempToken(req.TempToken)
	if err != nil {
		return nil, err
	}

	user, err := s.Users.Get(ctx, claims.UserID)
	if err != nil {
		return nil, err
	}

	ok, err := s.verify(ctx, user, req.Code)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrInvalidTOTPCode
	}

	token, err := s.JWTManager.GenerateToken(user)
	if err != nil {
		return nil, err
	}

	return &models.AuthResponse{Token: token, User: user}, nil
}

// verify validates a TOTP code, falling back to one-time backup codes
func (s *TOTPService) verify(ctx context.Context, user *models.User, code string) (bool, error) {
	if !user.TOTPEnabled || user.TOTPSecret == "" {
		return false, ErrTOTPNotEnabled
	}

	if totp.Validate(code, user.TOTPSecret) {
		return true, nil
	}

	return s.verifyAndConsumeBackupCode(ctx, user.ID, code, user.BackupCodes), nil
}

// Disable turns off 2FA after verifying password and current code
func (s *TOTPService) Disable(ctx context.Context, userID int, password, code string) error {
	user, err := s.Users.Get(ctx, userID)
	if err != nil {
		return err
	}

	if !auth.VerifyPassword(user.PasswordHash, password) {
		return ErrInvalidPassword
	}
	if !totp.Validate(code, user.TOTPSecret) {
		return ErrInvalidTOTPCode
	}

	return s.Users.DisableTOTP(ctx, userID)
}

// RegenerateBackupCodes creates new backup codes (invalidates old ones)
func (s *TOTPService) RegenerateBackupCodes(ctx context.Context, userID int, password string) (*models.BackupCodesResponse, error) {
	user, err := s.Users.Get(ctx, userID)
	if err != nil {
		return nil, err
	}

	if !auth.VerifyPassword(user.PasswordHash, password) {
		return nil, ErrInvalidPassword
	}
	if !user.TOTPEnabled {
		return nil, ErrTOTPNotEnabled
	}

	codes, err := s.generateBackupCodes(ctx, userID)
	if err != nil {
		return nil, err
	}

	return &models.BackupCodesResponse{BackupCodes: codes}, nil
}

// generateBackupCodes creates 10 random codes and stores bcrypt hashes
func (s *TOTPService) generateBackupCodes(ctx context.Context, userID int) ([]string, error) {
	codes := make([]string, backupCodeCount)
	hashedCodes := make([]string, backupCodeCount)

	for i := 0; i < backupCodeCount; i++ {
		code := generateRandomCode(backupCodeLength)
		codes[i] = code

		hash, err := bcrypt.GenerateFromPassword([]byte(code), bcrypt.DefaultCost)
		if err != nil {
			return nil, err
		}
		hashedCodes[i] = string(hash)
	}

	hashedJSON, err := json.Marshal(hashedCodes)
	if err != nil {
		return nil, err
	}

	if err := s.Users.SetBackupCodes(ctx, userID, string(hashedJSON)); err != nil {
		return nil, err
	}

	return codes, nil
}

// verifyAndConsumeBackupCode checks the code against stored hashes and
// removes it on a match so each backup code works once
func (s *TOTPService) verifyAndConsumeBackupCode(ctx context.Context, userID int, code, storedCodes string) bool {
	if storedCodes == "" {
		return false
	}

	var hashedCodes []string
	if err := json.Unmarshal([]byte(storedCodes), &hashedCodes); err != nil {
		return false
	}

	for i, hash := range hashedCodes {
		if bcrypt.CompareHashAndPassword([]byte(hash), []byte(code)) == nil {
			hashedCodes = append(hashedCodes[:i], hashedCodes[i+1:]...)
			updatedJSON, _ := json.Marshal(hashedCodes)
			s.Users.SetBackupCodes(ctx, userID, string(updatedJSON))
			return true
		}
	}

	return false
}

// generateRandomCode creates a random alphanumeric code.
// Excludes similar chars: I, O, 0, 1
func generateRandomCode(length int) string {
	const charset = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
	code := make([]byte, length)
	randomBytes := make([]byte, length)
	rand.Read(randomBytes)
	for i := range code {
		code[i] = charset[int(randomBytes[i])%len(charset)]
	}
	return string(code)
}
