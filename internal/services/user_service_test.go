package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"krishi-backend/internal/auth"
	"krishi-backend/internal/config"
	"krishi-backend/internal/models"
	"krishi-backend/internal/timeutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeFullUserStore struct {
	byID   map[int]*models.User
	nextID int
}

func newFakeFullUserStore() *fakeFullUserStore {
	return &fakeFullUserStore{byID: make(map[int]*models.User), nextID: 1}
}

func (f *fakeFullUserStore) Create(ctx context.Context, u *models.User) error {
	u.ID = f.nextID
	f.nextID++
	f.byID[u.ID] = u
	return nil
}

func (f *fakeFullUserStore) Get(ctx context.Context, id int) (*models.User, error) {
	if u, ok := f.byID[id]; ok {
		return u, nil
	}
	return nil, errors.New("no rows in result set")
}

func (f *fakeFullUserStore) GetByPhone(ctx context.Context, phone string) (*models.User, error) {
	for _, u := range f.byID {
		if u.PhoneNumber == phone {
			return u, nil
		}
	}
	return nil, errors.New("no rows in result set")
}

func (f *fakeFullUserStore) List(ctx context.Context) ([]*models.User, error) {
	var out []*models.User
	for _, u := range f.byID {
		out = append(out, u)
	}
	return out, nil
}

func (f *fakeFullUserStore) CountAdmins(ctx context.Context) (int, error) {
	count := 0
	for _, u := range f.byID {
		if u.Role == models.RoleAdmin {
			count++
		}
	}
	return count, nil
}

func (f *fakeFullUserStore) UpdateProfile(ctx context.Context, id int, name, lang string) error {
	u, ok := f.byID[id]
	if !ok {
		return errors.New("no rows in result set")
	}
	u.Name = name
	if lang != "" {
		u.LanguagePreference = lang
	}
	return nil
}

func (f *fakeFullUserStore) UpdateRole(ctx context.Context, id int, role string) error {
	u, ok := f.byID[id]
	if !ok {
		return errors.New("no rows in result set")
	}
	u.Role = role
	return nil
}

func (f *fakeFullUserStore) UpdatePassword(ctx context.Context, id int, hash string) error {
	u, ok := f.byID[id]
	if !ok {
		return errors.New("no rows in result set")
	}
	u.PasswordHash = hash
	u.ForcePasswordReset = false
	return nil
}

func (f *fakeFullUserStore) SetResetToken(ctx context.Context, id int, tokenHash string, expires time.Time) error {
	u, ok := f.byID[id]
	if !ok {
		return errors.New("no rows in result set")
	}
	u.ResetPasswordToken = tokenHash
	u.ResetPasswordExpires = &expires
	return nil
}

func (f *fakeFullUserStore) ClearResetToken(ctx context.Context, id int) error {
	u, ok := f.byID[id]
	if !ok {
		return errors.New("no rows in result set")
	}
	u.ResetPasswordToken = ""
	u.ResetPasswordExpires = nil
	return nil
}

func (f *fakeFullUserStore) Delete(ctx context.Context, id int) error {
	if _, ok := f.byID[id]; !ok {
		return errors.New("no rows in result set")
	}
	delete(f.byID, id)
	return nil
}

type fakeUserNotifier struct {
	resetCodes       []string
	passwordUpdated  int
	failResetDeliver bool
}

func (f *fakeUserNotifier) SendResetCode(ctx context.Context, user *models.User, code string) error {
	if f.failResetDeliver {
		return errors.New("provider down")
	}
	f.resetCodes = append(f.resetCodes, code)
	return nil
}

func (f *fakeUserNotifier) SendPasswordUpdated(ctx context.Context, user *models.User) {
	f.passwordUpdated++
}

func testJWTManager() *auth.JWTManager {
	cfg := &config.Config{}
	cfg.JWT.Secret = "test-secret"
	cfg.JWT.ExpirationHours = 168
	cfg.JWT.Issuer = "krishi-backend"
	return auth.NewJWTManager(cfg)
}

func newTestUserService() (*UserService, *fakeFullUserStore, *fakeUserNotifier) {
	store := newFakeFullUserStore()
	notifier := &fakeUserNotifier{}
	return NewUserService(store, testJWTManager(), notifier), store, notifier
}

func TestRegisterLowercasesVillage(t *testing.T) {
	svc, store, _ := newTestUserService()

	resp, err := svc.Register(context.Background(), &models.RegisterRequest{
		PhoneNumber: "9876543210",
		Password:    "secret123",
		Name:        "Ram Kumar",
		Village:     "  Nawanagar ",
	})
	require.NoError(t, err)
	require.NotEmpty(t, resp.Token)
	assert.Equal(t, "nawanagar", resp.User.Village)
	assert.Equal(t, models.RoleFarmer, resp.User.Role)
	assert.Len(t, store.byID, 1)
}

func TestRegisterRejectsDuplicatePhone(t *testing.T) {
	svc, _, _ := newTestUserService()
	ctx := context.Background()

	req := &models.RegisterRequest{
		PhoneNumber: "9876543210",
		Password:    "secret123",
		Name:        "Ram Kumar",
	}
	_, err := svc.Register(ctx, req)
	require.NoError(t, err)

	_, err = svc.Register(ctx, req)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already registered")
}

func TestLoginWrongPassword(t *testing.T) {
	svc, _, _ := newTestUserService()
	ctx := context.Background()

	_, err := svc.Register(ctx, &models.RegisterRequest{
		PhoneNumber: "9876543210",
		Password:    "secret123",
		Name:        "Ram Kumar",
	})
	require.NoError(t, err)

	_, err = svc.Login(ctx, &models.LoginRequest{PhoneNumber: "9876543210", Password: "wrong"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid credentials")

	resp, err := svc.Login(ctx, &models.LoginRequest{PhoneNumber: "9876543210", Password: "secret123"})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.Token)
}

func TestLoginAdminWithTOTPGetsTempToken(t *testing.T) {
	svc, store, _ := newTestUserService()
	ctx := context.Background()

	hash, err := auth.HashPassword("secret123")
	require.NoError(t, err)
	admin := &models.User{
		PhoneNumber:  "9000000001",
		PasswordHash: hash,
		Name:         "Admin",
		Role:         models.RoleAdmin,
		TOTPEnabled:  true,
	}
	require.NoError(t, store.Create(ctx, admin))

	resp, err := svc.Login(ctx, &models.LoginRequest{PhoneNumber: "9000000001", Password: "secret123"})
	require.NoError(t, err)
	assert.True(t, resp.Requires2FA)
	assert.NotEmpty(t, resp.TempToken)
	assert.Empty(t, resp.Token, "no full token before the second step")
}

func TestDeleteAdminRejected(t *testing.T) {
	svc, store, _ := newTestUserService()
	ctx := context.Background()

	admin := &models.User{PhoneNumber: "9000000001", Role: models.RoleAdmin}
	require.NoError(t, store.Create(ctx, admin))

	err := svc.DeleteUser(ctx, admin.ID)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cannot be deleted")
	assert.Len(t, store.byID, 1)
}

func TestDemoteLastAdminRejected(t *testing.T) {
	svc, store, _ := newTestUserService()
	ctx := context.Background()

	admin := &models.User{PhoneNumber: "9000000001", Role: models.RoleAdmin}
	require.NoError(t, store.Create(ctx, admin))

	_, err := svc.UpdateRole(ctx, admin.ID, models.RoleFarmer)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "last admin")

	// With a second admin the demotion goes through
	other := &models.User{PhoneNumber: "9000000002", Role: models.RoleAdmin}
	require.NoError(t, store.Create(ctx, other))

	updated, err := svc.UpdateRole(ctx, admin.ID, models.RoleFarmer)
	require.NoError(t, err)
	assert.Equal(t, models.RoleFarmer, updated.Role)
}

func TestForgotPasswordUnknownPhoneIsSilent(t *testing.T) {
	svc, _, notifier := newTestUserService()

	err := svc.ForgotPassword(context.Background(), "9999999999")
	require.NoError(t, err, "unknown phone should not leak account existence")
	assert.Empty(t, notifier.resetCodes)
}

func TestResetPasswordFlow(t *testing.T) {
	svc, store, notifier := newTestUserService()
	ctx := context.Background()

	_, err := svc.Register(ctx, &models.RegisterRequest{
		PhoneNumber: "9876543210",
		Password:    "oldpass",
		Name:        "Ram Kumar",
	})
	require.NoError(t, err)

	require.NoError(t, svc.ForgotPassword(ctx, "9876543210"))
	require.Len(t, notifier.resetCodes, 1)
	code := notifier.resetCodes[0]

	// Wrong code rejected
	err = svc.ResetPassword(ctx, &models.ResetPasswordRequest{
		PhoneNumber: "9876543210",
		ResetCode:   "XXXXXX",
		NewPassword: "newpass1",
	})
	require.Error(t, err)

	// Correct code accepted
	err = svc.ResetPassword(ctx, &models.ResetPasswordRequest{
		PhoneNumber: "9876543210",
		ResetCode:   code,
		NewPassword: "newpass1",
	})
	require.NoError(t, err)
	assert.Equal(t, 1, notifier.passwordUpdated)

	user, err := store.GetByPhone(ctx, "9876543210")
	require.NoError(t, err)
	assert.True(t, auth.VerifyPassword(user.PasswordHash, "newpass1"))
	assert.Empty(t, user.ResetPasswordToken, "token cleared after use")
}

func TestResetPasswordExpiredCode(t *testing.T) {
	svc, store, notifier := newTestUserService()
	ctx := context.Background()

	_, err := svc.Register(ctx, &models.RegisterRequest{
		PhoneNumber: "9876543210",
		Password:    "oldpass",
		Name:        "Ram Kumar",
	})
	require.NoError(t, err)

	require.NoError(t, svc.ForgotPassword(ctx, "9876543210"))
	code := notifier.resetCodes[0]

	// Age the token past its window
	user, _ := store.GetByPhone(ctx, "9876543210")
	expired := timeutil.Now().Add(-2 * time.Hour)
	user.ResetPasswordExpires = &expired

	err = svc.ResetPassword(ctx, &models.ResetPasswordRequest{
		PhoneNumber: "9876543210",
		ResetCode:   code,
		NewPassword: "newpass1",
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "expired")
}
