package models

import "time"

// User roles
const (
	RoleFarmer = "farmer"
	RoleAdmin  = "admin"
)

type User struct {
	ID                   int        `json:"id"`
	PhoneNumber          string     `json:"phone_number"`
	PasswordHash         string     `json:"-"` // Never expose in JSON
	Name                 string     `json:"name"`
	Village              string     `json:"village"`
	Role                 string     `json:"role"` // farmer or admin
	LanguagePreference   string     `json:"language_preference"`
	ForcePasswordReset   bool       `json:"force_password_reset"` // set for accounts created during purchase entry
	ResetPasswordToken   string     `json:"-"`
	ResetPasswordExpires *time.Time `json:"-"`
	TOTPSecret           string     `json:"-"`
	TOTPEnabled          bool       `json:"totp_enabled"`
	BackupCodes          string     `json:"-"`
	CreatedAt            time.Time  `json:"created_at"`
	UpdatedAt            time.Time  `json:"updated_at"`
}

// RegisterRequest represents the request body for registration
type RegisterRequest struct {
	PhoneNumber        string `json:"phone_number"`
	Password           string `json:"password"`
	Name               string `json:"name"`
	Village            string `json:"village"`
	LanguagePreference string `json:"language_preference"`
}

// LoginRequest represents the request body for login
type LoginRequest struct {
	PhoneNumber string `json:"phone_number"`
	Password    string `json:"password"`
}

// AuthResponse represents the response after successful authentication
type AuthResponse struct {
	Token string `json:"token,omitempty"`
	User  *User  `json:"user,omitempty"`
	// Requires2FA signals that a temp token was issued and a TOTP code
	// must be presented before a full token is handed out
	Requires2FA bool   `json:"requires_2fa,omitempty"`
	TempToken   string `json:"temp_token,omitempty"`
}

// UpdateProfileRequest represents the request body for profile updates.
// Only name and language preference may be changed through this path.
type UpdateProfileRequest struct {
	Name               string `json:"name"`
	LanguagePreference string `json:"language_preference"`
}

// UpdateRoleRequest represents the admin request to change a user's role
type UpdateRoleRequest struct {
	Role string `json:"role"`
}

// ForgotPasswordRequest starts the reset flow
type ForgotPasswordRequest struct {
	PhoneNumber string `json:"phone_number"`
}

// ResetPasswordRequest completes the reset flow
type ResetPasswordRequest struct {
	PhoneNumber string `json:"phone_number"`
	ResetCode   string `json:"reset_code"`
	NewPassword string `json:"new_password"`
}
