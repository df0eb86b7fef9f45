package models

import "time"

// Online transaction statuses
const (
	OnlineTxStatusCreated = "created"
	OnlineTxStatusSuccess = "success"
	OnlineTxStatusFailed  = "failed"
)

// OnlineTransaction tracks a Razorpay order raised to pay down the
// remaining amount on a purchase
type OnlineTransaction struct {
	ID                int       `json:"id"`
	RazorpayOrderID   string    `json:"razorpay_order_id"`
	RazorpayPaymentID string    `json:"razorpay_payment_id,omitempty"`
	PurchaseID        int       `json:"purchase_id"`
	UserID            int       `json:"user_id,omitempty"`
	Phone             string    `json:"phone"`
	Amount            float64   `json:"amount"`
	Status            string    `json:"status"`
	ErrorMessage      string    `json:"error_message,omitempty"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// CreateOnlinePaymentRequest raises an order against a purchase
type CreateOnlinePaymentRequest struct {
	PurchaseID int     `json:"purchase_id"`
	Amount     float64 `json:"amount"`
}

// CreateOrderResponse carries what the checkout frontend needs
type CreateOrderResponse struct {
	OrderID     string  `json:"order_id"`
	AmountPaise int     `json:"amount_paise"`
	Currency    string  `json:"currency"`
	KeyID       string  `json:"key_id"`
	Amount      float64 `json:"amount"`
}

// VerifyPaymentRequest completes the checkout after Razorpay redirects back
type VerifyPaymentRequest struct {
	RazorpayOrderID   string `json:"razorpay_order_id"`
	RazorpayPaymentID string `json:"razorpay_payment_id"`
	RazorpaySignature string `json:"razorpay_signature"`
}
