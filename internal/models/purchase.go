package models

import "time"

// Payment statuses
const (
	PaymentPending   = "pending"
	PaymentCompleted = "completed"
)

// PurchaseItem is a catalog line item with the price snapshotted at
// purchase time, so later catalog edits never change old purchases.
type PurchaseItem struct {
	ID              int     `json:"id"`
	PurchaseID      int     `json:"purchase_id"`
	ProductID       int     `json:"product_id"`
	ProductName     string  `json:"product_name"`
	Quantity        int     `json:"quantity"`
	PriceAtPurchase float64 `json:"price_at_purchase"`
}

type Purchase struct {
	ID     int  `json:"id"`
	UserID *int `json:"user_id,omitempty"` // nil when the user record is gone
	SN     string `json:"sn"`

	// Customer snapshot copied at creation time; kept even if the user
	// record is later deleted
	PhoneNumber string `json:"phone_number"`
	Name        string `json:"name"`
	Village     string `json:"village"`

	PurchaseDate time.Time      `json:"purchase_date"`
	Items        []PurchaseItem `json:"items,omitempty"`

	ManualTotalAmount *float64 `json:"manual_total_amount,omitempty"`
	TotalAmount       float64  `json:"total_amount"`
	DepositAmount     float64  `json:"deposit_amount"`
	RemainingAmount   float64  `json:"remaining_amount"`
	PaymentStatus     string   `json:"payment_status"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Recompute derives total, remaining and payment status from the manual
// total or line items and the accumulated deposit. It runs on every
// create and deposit update; callers never set the completed status
// directly.
func (p *Purchase) Recompute() {
	if p.ManualTotalAmount != nil {
		p.TotalAmount = *p.ManualTotalAmount
	} else if len(p.Items) > 0 {
		total := 0.0
		for _, item := range p.Items {
			total += float64(item.Quantity) * item.PriceAtPurchase
		}
		p.TotalAmount = total
	}

	p.RemainingAmount = p.TotalAmount - p.DepositAmount
	if p.RemainingAmount <= 0 {
		p.PaymentStatus = PaymentCompleted
	} else {
		p.PaymentStatus = PaymentPending
	}
}

// PurchaseItemRequest references a catalog product in a create request
type PurchaseItemRequest struct {
	ProductID int `json:"product_id"`
	Quantity  int `json:"quantity"`
}

// CreatePurchaseRequest represents the admin request to record a purchase
type CreatePurchaseRequest struct {
	PhoneNumber       string                `json:"phone_number"`
	Name              string                `json:"name"`
	Village           string                `json:"village"`
	SN                string                `json:"sn"`
	Products          []PurchaseItemRequest `json:"products,omitempty"`
	ManualTotalAmount *float64              `json:"manual_total_amount,omitempty"`
	DepositAmount     float64               `json:"deposit_amount"`
}

// UpdatePurchaseStatusRequest adds a deposit and/or overrides status.
// DepositAmount is an increment, never a replacement.
type UpdatePurchaseStatusRequest struct {
	DepositAmount *float64 `json:"deposit_amount,omitempty"`
	Status        string   `json:"status,omitempty"`
}

// BulkImportRow is one tabular row of the admin bulk upload
type BulkImportRow struct {
	PhoneNumber   string  `json:"phone_number"`
	CustomerName  string  `json:"customer_name"`
	Village       string  `json:"village"`
	SN            string  `json:"sn"`
	TotalAmount   float64 `json:"total_amount"`
	DepositAmount float64 `json:"deposit_amount"`
}

// BulkImportRowResult reports the outcome of a single row
type BulkImportRowResult struct {
	Row     int    `json:"row"`
	SN      string `json:"sn,omitempty"`
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

// BulkImportResult aggregates a bulk upload; rows are isolated, so some
// may fail while the rest land in the ledger
type BulkImportResult struct {
	Succeeded int                   `json:"succeeded"`
	Failed    int                   `json:"failed"`
	Results   []BulkImportRowResult `json:"results"`
}
