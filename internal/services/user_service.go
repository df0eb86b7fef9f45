package services

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"

	"krishi-backend/internal/auth"
	"krishi-backend/internal/cache"
	"krishi-backend/internal/models"
	"krishi-backend/internal/timeutil"
	"krishi-backend/internal/whatsapp"
)

const resetCodeTTL = time.Hour

// userNotifier is the slice of NotificationService the user flows need
type userNotifier interface {
	SendResetCode(ctx context.Context, user *models.User, code string) error
	SendPasswordUpdated(ctx context.Context, user *models.User)
}

// userStore is satisfied by repositories.UserRepository
type userStore interface {
	Create(ctx context.Context, u *models.User) error
	Get(ctx context.Context, id int) (*models.User, error)
	GetByPhone(ctx context.Context, phoneNumber string) (*models.User, error)
	List(ctx context.Context) ([]*models.User, error)
	CountAdmins(ctx context.Context) (int, error)
	UpdateProfile(ctx context.Context, id int, name, languagePreference string) error
	UpdateRole(ctx context.Context, id int, role string) error
	UpdatePassword(ctx context.Context, id int, passwordHash string) error
	SetResetToken(ctx context.Context, id int, tokenHash string, expires time.Time) error
	ClearResetToken(ctx context.Context, id int) error
	Delete(ctx context.Context, id int) error
}

type UserService struct {
	Repo       userStore
	JWTManager *auth.JWTManager
	Notifier   userNotifier
}

func NewUserService(repo userStore, jwtManager *auth.JWTManager, notifier userNotifier) *UserService {
	return &UserService{
		Repo:       repo,
		JWTManager: jwtManager,
		Notifier:   notifier,
	}
}

// Register creates a farmer account. Village names are stored lowercase
// so dashboard grouping is not split by casing.
func (s *UserService) Register(ctx context.Context, req *models.RegisterRequest) (*models.AuthResponse, error) {
	if req.PhoneNumber == "" || req.Password == "" || req.Name == "" {
		return nil, errors.New("phone number, password and name are required")
	}
	if !whatsapp.ValidatePhoneNumber(req.PhoneNumber) {
		return nil, errors.New("invalid phone number format")
	}
	if len(req.Password) < 6 {
		return nil, errors.New("password must be at least 6 characters")
	}

	if existing, err := s.Repo.GetByPhone(ctx, req.PhoneNumber); err == nil && existing != nil {
		return nil, errors.New("phone number already registered")
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		PhoneNumber:        req.PhoneNumber,
		PasswordHash:       hash,
		Name:               req.Name,
		Village:            strings.ToLower(strings.TrimSpace(req.Village)),
		Role:               models.RoleFarmer,
		LanguagePreference: req.LanguagePreference,
	}
	if err := s.Repo.Create(ctx, user); err != nil {
		return nil, err
	}

	token, err := s.JWTManager.GenerateToken(user)
	if err != nil {
		return nil, err
	}

	return &models.AuthResponse{Token: token, User: user}, nil
}

// Login authenticates by phone number. Admins with TOTP enabled get a
// short-lived temp token and must complete the second step.
func (s *UserService) Login(ctx context.Context, req *models.LoginRequest) (*models.AuthResponse, error) {
	if req.PhoneNumber == "" || req.Password == "" {
		return nil, errors.New("phone number and password are required")
	}

	user, err := s.Repo.GetByPhone(ctx, req.PhoneNumber)
	if err != nil {
		return nil, errors.New("invalid credentials")
	}

	// Cached credential check skips bcrypt on repeat logins
	if cachedID, ok := cache.GetCachedAuth(ctx, req.PhoneNumber, req.Password); !ok || cachedID != user.ID {
		if !auth.VerifyPassword(user.PasswordHash, req.Password) {
			return nil, errors.New("invalid credentials")
		}
		cache.CacheAuth(ctx, req.PhoneNumber, req.Password, user.ID)
	}

	if user.Role == models.RoleAdmin && user.TOTPEnabled {
		tempToken, err := s.JWTManager.GenerateTempToken(user)
		if err != nil {
			return nil, err
		}
		return &models.AuthResponse{Requires2FA: true, TempToken: tempToken}, nil
	}

	token, err := s.JWTManager.GenerateToken(user)
	if err != nil {
		return nil, err
	}

	return &models.AuthResponse{Token: token, User: user}, nil
}

// AdminLogin is the dashboard login: same credential check, but the
// account must already hold the admin role.
func (s *UserService) AdminLogin(ctx context.Context, req *models.LoginRequest) (*models.AuthResponse, error) {
	if req.PhoneNumber == "" || req.Password == "" {
		return nil, errors.New("phone number and password are required")
	}

	user, err := s.Repo.GetByPhone(ctx, req.PhoneNumber)
	if err != nil || user.Role != models.RoleAdmin {
		return nil, errors.New("invalid credentials or not an admin account")
	}

	return s.Login(ctx, req)
}

func (s *UserService) GetProfile(ctx context.Context, userID int) (*models.User, error) {
	return s.Repo.Get(ctx, userID)
}

func (s *UserService) UpdateProfile(ctx context.Context, userID int, req *models.UpdateProfileRequest) (*models.User, error) {
	if req.Name == "" {
		return nil, errors.New("name is required")
	}
	lang := req.LanguagePreference
	if lang != "" && lang != "en" && lang != "hi" {
		return nil, errors.New("language preference must be en or hi")
	}
	if err := s.Repo.UpdateProfile(ctx, userID, req.Name, lang); err != nil {
		return nil, err
	}
	return s.Repo.Get(ctx, userID)
}

func (s *UserService) ListUsers(ctx context.Context) ([]*models.User, error) {
	return s.Repo.List(ctx)
}

// DeleteUser removes a farmer account. Admin accounts cannot be deleted;
// they must be demoted first.
func (s *UserService) DeleteUser(ctx context.Context, id int) error {
	user, err := s.Repo.Get(ctx, id)
	if err != nil {
		return err
	}
	if user.Role == models.RoleAdmin {
		return errors.New("admin accounts cannot be deleted")
	}
	return s.Repo.Delete(ctx, id)
}

// UpdateRole changes a user's role. Demoting the last remaining admin
// is rejected so the system is never left without one.
func (s *UserService) UpdateRole(ctx context.Context, id int, role string) (*models.User, error) {
	if role != models.RoleFarmer && role != models.RoleAdmin {
		return nil, errors.New("role must be farmer or admin")
	}

	user, err := s.Repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if user.Role == models.RoleAdmin && role == models.RoleFarmer {
		count, err := s.Repo.CountAdmins(ctx)
		if err != nil {
			return nil, err
		}
		if count <= 1 {
			return nil, errors.New("cannot demote the last admin")
		}
	}

	if err := s.Repo.UpdateRole(ctx, id, role); err != nil {
		return nil, err
	}
	return s.Repo.Get(ctx, id)
}

// ForgotPassword issues a reset code and sends it over WhatsApp. The
// same response goes back whether or not the phone number exists.
func (s *UserService) ForgotPassword(ctx context.Context, phoneNumber string) error {
	if phoneNumber == "" {
		return errors.New("phone number is required")
	}

	user, err := s.Repo.GetByPhone(ctx, phoneNumber)
	if err != nil {
		// Do not reveal whether the account exists
		log.Printf("[User] password reset requested for unknown phone")
		return nil
	}

	code, hash, err := auth.GenerateResetCode()
	if err != nil {
		return err
	}

	expires := timeutil.Now().Add(resetCodeTTL)
	if err := s.Repo.SetResetToken(ctx, user.ID, hash, expires); err != nil {
		return err
	}

	return s.Notifier.SendResetCode(ctx, user, code)
}

// ResetPassword completes the reset flow with the code from WhatsApp
func (s *UserService) ResetPassword(ctx context.Context, req *models.ResetPasswordRequest) error {
	if req.PhoneNumber == "" || req.ResetCode == "" || req.NewPassword == "" {
		return errors.New("phone number, reset code and new password are required")
	}
	if len(req.NewPassword) < 6 {
		return errors.New("password must be at least 6 characters")
	}

	user, err := s.Repo.GetByPhone(ctx, req.PhoneNumber)
	if err != nil {
		return errors.New("invalid or expired reset code")
	}
	if user.ResetPasswordToken == "" || user.ResetPasswordExpires == nil ||
		user.ResetPasswordExpires.Before(timeutil.Now()) {
		return errors.New("invalid or expired reset code")
	}
	if !auth.VerifyResetCode(user.ResetPasswordToken, req.ResetCode) {
		return errors.New("invalid or expired reset code")
	}

	hash, err := auth.HashPassword(req.NewPassword)
	if err != nil {
		return err
	}
	if err := s.Repo.UpdatePassword(ctx, user.ID, hash); err != nil {
		return err
	}
	if err := s.Repo.ClearResetToken(ctx, user.ID); err != nil {
		return err
	}

	// The old password may still sit in the credential cache
	cache.InvalidateAuth(ctx, user.PhoneNumber)

	s.Notifier.SendPasswordUpdated(ctx, user)
	return nil
}

// ChangePassword lets an authenticated user rotate their own password
func (s *UserService) ChangePassword(ctx context.Context, userID int, currentPassword, newPassword string) error {
	if len(newPassword) < 6 {
		return errors.New("password must be at least 6 characters")
	}

	user, err := s.Repo.Get(ctx, userID)
	if err != nil {
		return err
	}
	if !auth.VerifyPassword(user.PasswordHash, currentPassword) {
		return errors.New("current password is incorrect")
	}

	hash, err := auth.HashPassword(newPassword)
	if err != nil {
		return err
	}
	if err := s.Repo.UpdatePassword(ctx, userID, hash); err != nil {
		return err
	}

	cache.InvalidateAuth(ctx, user.PhoneNumber)
	return nil
}
