package models

// TOTPSetupResponse carries the secret and QR code for enrolling an
// authenticator app
type TOTPSetupResponse struct {
	Secret      string `json:"secret"`
	QRCode      string `json:"qr_code"` // data:image/png;base64,...
	Issuer      string `json:"issuer"`
	AccountName string `json:"account_name"`
}

// TOTPVerifyRequest presents a 6-digit code
type TOTPVerifyRequest struct {
	Code string `json:"code"`
}

// TOTPLoginRequest is login step 2: temp token plus authenticator code
type TOTPLoginRequest struct {
	TempToken string `json:"temp_token"`
	Code      string `json:"code"`
}

// BackupCodesResponse returns one-time recovery codes, shown exactly once
type BackupCodesResponse struct {
	BackupCodes []string `json:"backup_codes"`
}
