package repositories

import (
	"context"
	"time"

	"krishi-backend/internal/models"

	"github.com/jackc/pgx/v5/pgxpool"
)

type UserRepository struct {
	DB *pgxpool.Pool
}

func NewUserRepository(db *pgxpool.Pool) *UserRepository {
	return &UserRepository{DB: db}
}

const userColumns = `id, phone_number, COALESCE(password_hash, ''), name, COALESCE(village, ''), role,
	language_preference, force_password_reset,
	COALESCE(reset_password_token, ''), reset_password_expires,
	COALESCE(totp_secret, ''), totp_enabled, COALESCE(backup_codes, ''),
	created_at, updated_at`

func scanUser(row interface{ Scan(...any) error }) (*models.User, error) {
	var user models.User
	err := row.Scan(&user.ID, &user.PhoneNumber, &user.PasswordHash, &user.Name, &user.Village,
		&user.Role, &user.LanguagePreference, &user.ForcePasswordReset,
		&user.ResetPasswordToken, &user.ResetPasswordExpires,
		&user.TOTPSecret, &user.TOTPEnabled, &user.BackupCodes,
		&user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *UserRepository) Create(ctx context.Context, u *models.User) error {
	if u.Role == "" {
		u.Role = models.RoleFarmer
	}
	if u.LanguagePreference == "" {
		u.LanguagePreference = "en"
	}
	return r.DB.QueryRow(ctx,
		`INSERT INTO users(phone_number, password_hash, name, village, role, language_preference, force_password_reset)
         VALUES($1, $2, $3, $4, $5, $6, $7)
         RETURNING id, created_at, updated_at`,
		u.PhoneNumber, u.PasswordHash, u.Name, u.Village, u.Role, u.LanguagePreference, u.ForcePasswordReset,
	).Scan(&u.ID, &u.CreatedAt, &u.UpdatedAt)
}

func (r *UserRepository) Get(ctx context.Context, id int) (*models.User, error) {
	row := r.DB.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id=$1`, id)
	return scanUser(row)
}

func (r *UserRepository) GetByPhone(ctx context.Context, phoneNumber string) (*models.User, error) {
	row := r.DB.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE phone_number=$1`, phoneNumber)
	return scanUser(row)
}

// List returns all users, newest first
func (r *UserRepository) List(ctx context.Context) ([]*models.User, error) {
	rows, err := r.DB.Query(ctx, `SELECT `+userColumns+` FROM users ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []*models.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	return users, rows.Err()
}

// ListByRole returns users having the given role
func (r *UserRepository) ListByRole(ctx context.Context, role string) ([]*models.User, error) {
	rows, err := r.DB.Query(ctx, `SELECT `+userColumns+` FROM users WHERE role=$1 ORDER BY created_at DESC`, role)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []*models.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	return users, rows.Err()
}

// CountAdmins returns the number of admin accounts. Role demotion uses
// this to refuse removing the last admin.
func (r *UserRepository) CountAdmins(ctx context.Context) (int, error) {
	var count int
	err := r.DB.QueryRow(ctx, `SELECT COUNT(*) FROM users WHERE role=$1`, models.RoleAdmin).Scan(&count)
	return count, err
}

// UpdateProfile changes the fields a user may edit themselves
func (r *UserRepository) UpdateProfile(ctx context.Context, id int, name, languagePreference string) error {
	_, err := r.DB.Exec(ctx,
		`UPDATE users SET name=$1, language_preference=$2, updated_at=CURRENT_TIMESTAMP WHERE id=$3`,
		name, languagePreference, id)
	return err
}

// UpdateRole changes a user's role
func (r *UserRepository) UpdateRole(ctx context.Context, id int, role string) error {
	_, err := r.DB.Exec(ctx,
		`UPDATE users SET role=$1, updated_at=CURRENT_TIMESTAMP WHERE id=$2`,
		role, id)
	return err
}

// UpdatePassword replaces the password hash and clears the forced-reset flag
func (r *UserRepository) UpdatePassword(ctx context.Context, id int, passwordHash string) error {
	_, err := r.DB.Exec(ctx,
		`UPDATE users SET password_hash=$1, force_password_reset=FALSE, updated_at=CURRENT_TIMESTAMP WHERE id=$2`,
		passwordHash, id)
	return err
}

// SetResetToken stores the hashed reset code and its expiry
func (r *UserRepository) SetResetToken(ctx context.Context, id int, tokenHash string, expires time.Time) error {
	_, err := r.DB.Exec(ctx,
		`UPDATE users SET reset_password_token=$1, reset_password_expires=$2, updated_at=CURRENT_TIMESTAMP WHERE id=$3`,
		tokenHash, expires, id)
	return err
}

// ClearResetToken removes the stored reset code after use or expiry
func (r *UserRepository) ClearResetToken(ctx context.Context, id int) error {
	_, err := r.DB.Exec(ctx,
		`UPDATE users SET reset_password_token=NULL, reset_password_expires=NULL, updated_at=CURRENT_TIMESTAMP WHERE id=$1`,
		id)
	return err
}

// Delete deletes a user
func (r *UserRepository) Delete(ctx context.Context, id int) error {
	_, err := r.DB.Exec(ctx, `DELETE FROM users WHERE id=$1`, id)
	return err
}

// SetTOTPSecret stores the TOTP secret for a user (during setup, before verification)
func (r *UserRepository) SetTOTPSecret(ctx context.Context, userID int, secret string) error {
	_, err := r.DB.Exec(ctx,
		`UPDATE users SET totp_secret=$1, updated_at=CURRENT_TIMESTAMP WHERE id=$2`,
		secret, userID)
	return err
}

// EnableTOTP marks 2FA as enabled after verification
func (r *UserRepository) EnableTOTP(ctx context.Context, userID int) error {
	_, err := r.DB.Exec(ctx,
		`UPDATE users SET totp_enabled=TRUE, updated_at=CURRENT_TIMESTAMP WHERE id=$1`,
		userID)
	return err
}

// DisableTOTP disables 2FA and clears the secret and backup codes
func (r *UserRepository) DisableTOTP(ctx context.Context, userID int) error {
	_, err := r.DB.Exec(ctx,
		`UPDATE users SET totp_enabled=FALSE, totp_secret=NULL, backup_codes=NULL, updated_at=CURRENT_TIMESTAMP WHERE id=$1`,
		userID)
	return err
}

// SetBackupCodes stores hashed backup codes for a user
func (r *UserRepository) SetBackupCodes(ctx context.Context, userID int, hashedCodes string) error {
	_, err := r.DB.Exec(ctx,
		`UPDATE users SET backup_codes=$1, updated_at=CURRENT_TIMESTAMP WHERE id=$2`,
		hashedCodes, userID)
	return err
}
