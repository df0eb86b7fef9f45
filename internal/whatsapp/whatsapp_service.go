package whatsapp

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"
)

// Provider defines the interface for WhatsApp delivery backends
type Provider interface {
	SendMessage(phone, message string) error
	GetName() string
}

// Config holds configuration for the Cloud API provider
type Config struct {
	APIKey        string // Access Token from Meta Business Suite or BSP
	PhoneNumberID string // WhatsApp Business Phone Number ID
	BaseURL       string
}

// CloudAPIService sends messages via the WhatsApp Business Cloud API
// (the standard Meta API that most BSPs also proxy)
type CloudAPIService struct {
	config *Config
	client *http.Client
}

// NewCloudAPIService creates a Cloud API WhatsApp service
func NewCloudAPIService(apiKey, phoneNumberID string) *CloudAPIService {
	return &CloudAPIService{
		config: &Config{
			APIKey:        apiKey,
			PhoneNumberID: phoneNumberID,
			BaseURL:       "https://graph.facebook.com/v18.0",
		},
		client: &http.Client{Timeout: 30 * time.Second},
	}
}

// SetBaseURL allows overriding the API base URL (for BSP proxies)
func (s *CloudAPIService) SetBaseURL(url string) {
	s.config.BaseURL = url
}

// SendMessage sends a plain text message. Store notifications are
// free-form bilingual bodies, so the text type is used rather than
// templates (requires an open 24h customer window or opted-in numbers).
func (s *CloudAPIService) SendMessage(phone, message string) error {
	if phone == "" || message == "" {
		return fmt.Errorf("missing phone or message")
	}
	if !ValidatePhoneNumber(phone) {
		return fmt.Errorf("invalid phone number format: %q", phone)
	}

	payload := map[string]interface{}{
		"messaging_product": "whatsapp",
		"recipient_type":    "individual",
		"to":                FormatPhoneNumber(phone),
		"type":              "text",
		"text": map[string]string{
			"preview_url": "false",
			"body":        message,
		},
	}

	jsonData, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/%s/messages", s.config.BaseURL, s.config.PhoneNumberID)
	req, err := http.NewRequest("POST", url, bytes.NewBuffer(jsonData))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.config.APIKey)

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return fmt.Errorf("WhatsApp API error: %s", string(body))
	}

	return nil
}

// GetName returns the provider name
func (s *CloudAPIService) GetName() string {
	return "WhatsApp Cloud API"
}

// MockService logs messages instead of sending them. Used when no API
// key is configured so development works without a Meta account.
type MockService struct{}

func NewMockService() *MockService {
	return &MockService{}
}

func (s *MockService) SendMessage(phone, message string) error {
	if !ValidatePhoneNumber(phone) {
		return fmt.Errorf("invalid phone number format: %q", phone)
	}
	log.Printf("[WhatsApp Mock] to=%s len=%d\n%s", FormatPhoneNumber(phone), len(message), message)
	return nil
}

func (s *MockService) GetName() string {
	return "Mock"
}

// FormatPhoneNumber normalizes Indian numbers for the Cloud API:
// 10 digits get the 91 country code prefixed.
func FormatPhoneNumber(phone string) string {
	cleaned := ""
	for _, c := range phone {
		if c >= '0' && c <= '9' {
			cleaned += string(c)
		}
	}

	if len(cleaned) == 10 {
		return "91" + cleaned
	}
	if len(cleaned) == 12 && cleaned[:2] == "91" {
		return cleaned
	}
	return cleaned
}

// ValidatePhoneNumber checks for a 10-digit Indian mobile number
// (optionally already carrying the 91 prefix)
func ValidatePhoneNumber(phone string) bool {
	cleaned := ""
	for _, c := range phone {
		if c >= '0' && c <= '9' {
			cleaned += string(c)
		}
	}
	if len(cleaned) == 10 {
		return true
	}
	return len(cleaned) == 12 && cleaned[:2] == "91"
}
