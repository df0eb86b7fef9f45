package services

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log"
	"time"

	"krishi-backend/internal/models"
	"krishi-backend/internal/repositories"

	razorpay "github.com/razorpay/razorpay-go"
)

// RazorpayService lets customers pay down a purchase balance online.
// A verified payment is applied as a regular deposit, so the same
// invariants hold whether money arrives at the counter or online.
type RazorpayService struct {
	Transactions *repositories.OnlineTransactionRepository
	Purchases    *PurchaseService
	keyID        string
	keySecret    string
}

func NewRazorpayService(keyID, keySecret string, transactions *repositories.OnlineTransactionRepository, purchases *PurchaseService) *RazorpayService {
	return &RazorpayService{
		Transactions: transactions,
		Purchases:    purchases,
		keyID:        keyID,
		keySecret:    keySecret,
	}
}

// IsEnabled reports whether online payments are configured
func (s *RazorpayService) IsEnabled() bool {
	return s.keyID != "" && s.keySecret != ""
}

func (s *RazorpayService) client() *razorpay.Client {
	if !s.IsEnabled() {
		return nil
	}
	return razorpay.NewClient(s.keyID, s.keySecret)
}

// CreateDepositOrder raises a Razorpay order for part or all of the
// remaining amount on one of the customer's purchases.
func (s *RazorpayService) CreateDepositOrder(ctx context.Context, user *models.User, req *models.CreateOnlinePaymentRequest) (*models.CreateOrderResponse, error) {
	client := s.client()
	if client == nil {
		return nil, fmt.Errorf("online payments are not configured")
	}
	if req.Amount <= 0 {
		return nil, fmt.Errorf("amount must be positive")
	}

	purchase, err := s.Purchases.GetPurchase(ctx, req.PurchaseID)
	if err != nil {
		return nil, fmt.Errorf("purchase not found")
	}
	if purchase.UserID == nil || *purchase.UserID != user.ID {
		return nil, fmt.Errorf("purchase does not belong to this account")
	}
	if purchase.PaymentStatus == models.PaymentCompleted || purchase.RemainingAmount <= 0 {
		return nil, fmt.Errorf("purchase is already paid off")
	}
	if req.Amount > purchase.RemainingAmount {
		return nil, fmt.Errorf("amount exceeds remaining balance of ₹%s", rupees(purchase.RemainingAmount))
	}

	amountPaise := int(req.Amount * 100)
	orderData := map[string]interface{}{
		"amount":   amountPaise,
		"currency": "INR",
		"receipt":  fmt.Sprintf("rcpt_%d_%d", purchase.ID, time.Now().Unix()),
		"notes": map[string]interface{}{
			"purchase_sn":    purchase.SN,
			"customer_phone": user.PhoneNumber,
		},
	}

	order, err := client.Order.Create(orderData, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create razorpay order: %w", err)
	}
	orderID, _ := order["id"].(string)
	if orderID == "" {
		return nil, fmt.Errorf("razorpay returned no order id")
	}

	tx := &models.OnlineTransaction{
		RazorpayOrderID: orderID,
		PurchaseID:      purchase.ID,
		UserID:          user.ID,
		Phone:           user.PhoneNumber,
		Amount:          req.Amount,
		Status:          models.OnlineTxStatusCreated,
	}
	if err := s.Transactions.Create(ctx, tx); err != nil {
		return nil, fmt.Errorf("failed to store transaction: %w", err)
	}

	return &models.CreateOrderResponse{
		OrderID:     orderID,
		AmountPaise: amountPaise,
		Currency:    "INR",
		KeyID:       s.keyID,
		Amount:      req.Amount,
	}, nil
}

// VerifyPayment checks the checkout signature and applies the paid
// amount as a deposit. Re-verifying an already successful order is a
// no-op, so double callbacks cannot double-credit a purchase.
func (s *RazorpayService) VerifyPayment(ctx context.Context, req *models.VerifyPaymentRequest) (*models.Purchase, error) {
	if !s.verifySignature(req.RazorpayOrderID, req.RazorpayPaymentID, req.RazorpaySignature) {
		_ = s.Transactions.MarkFailed(ctx, req.RazorpayOrderID, "invalid signature")
		return nil, fmt.Errorf("invalid payment signature")
	}

	tx, err := s.Transactions.GetByOrderID(ctx, req.RazorpayOrderID)
	if err != nil {
		return nil, fmt.Errorf("transaction not found: %w", err)
	}

	if tx.Status == models.OnlineTxStatusSuccess {
		return s.Purchases.GetPurchase(ctx, tx.PurchaseID)
	}

	if err := s.Transactions.MarkSuccess(ctx, req.RazorpayOrderID, req.RazorpayPaymentID); err != nil {
		return nil, fmt.Errorf("failed to update transaction: %w", err)
	}

	purchase, err := s.Purchases.ApplyDeposit(ctx, tx.PurchaseID, tx.Amount)
	if err != nil {
		// Money was captured but the ledger rejected the deposit; keep
		// the transaction marked successful and surface for follow-up
		log.Printf("[Razorpay] captured payment %s could not be applied to purchase %d: %v",
			req.RazorpayPaymentID, tx.PurchaseID, err)
		return nil, fmt.Errorf("payment captured but could not be applied, contact support")
	}

	return purchase, nil
}

// verifySignature checks the HMAC that Razorpay computes over
// "order_id|payment_id" with the key secret
func (s *RazorpayService) verifySignature(orderID, paymentID, signature string) bool {
	if s.keySecret == "" {
		return false
	}
	h := hmac.New(sha256.New, []byte(s.keySecret))
	h.Write([]byte(orderID + "|" + paymentID))
	expected := hex.EncodeToString(h.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(signature))
}
