package services

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"krishi-backend/internal/auth"
	"krishi-backend/internal/metrics"
	"krishi-backend/internal/models"
	"krishi-backend/internal/timeutil"
)

// Narrow store interfaces so the ledger logic can be tested without a
// database. The pgx repositories satisfy them.
type purchaseUserStore interface {
	GetByPhone(ctx context.Context, phoneNumber string) (*models.User, error)
	Create(ctx context.Context, u *models.User) error
}

type purchaseProductStore interface {
	Get(ctx context.Context, id int) (*models.Product, error)
}

type purchaseStore interface {
	Create(ctx context.Context, p *models.Purchase) error
	Get(ctx context.Context, id int) (*models.Purchase, error)
	ExistsBySN(ctx context.Context, sn string) (bool, error)
	List(ctx context.Context) ([]*models.Purchase, error)
	ListByUser(ctx context.Context, userID int) ([]*models.Purchase, error)
	UpdateAmounts(ctx context.Context, p *models.Purchase) error
}

type purchaseNotifier interface {
	SendPurchaseConfirmation(ctx context.Context, user *models.User, p *models.Purchase)
	SendPaymentUpdate(ctx context.Context, user *models.User, p *models.Purchase, depositDelta float64)
}

type PurchaseService struct {
	Purchases purchaseStore
	Users     purchaseUserStore
	Products  purchaseProductStore
	Notifier  purchaseNotifier
}

func NewPurchaseService(purchases purchaseStore, users purchaseUserStore, products purchaseProductStore, notifier purchaseNotifier) *PurchaseService {
	return &PurchaseService{
		Purchases: purchases,
		Users:     users,
		Products:  products,
		Notifier:  notifier,
	}
}

// findOrCreateCustomer looks up the account behind a phone number,
// creating a farmer account on the fly for walk-in customers. Implicit
// accounts get the last six digits of the phone number as a password
// and are flagged to force a reset on first login.
func (s *PurchaseService) findOrCreateCustomer(ctx context.Context, phoneNumber, name, village string) (*models.User, error) {
	user, err := s.Users.GetByPhone(ctx, phoneNumber)
	if err == nil {
		return user, nil
	}
	// Only a confirmed absence may create an account; a flaky lookup
	// must not hand a walk-in password to an existing customer
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, err
	}

	hash, err := auth.HashPassword(auth.DefaultPassword(phoneNumber))
	if err != nil {
		return nil, err
	}

	user = &models.User{
		PhoneNumber:        phoneNumber,
		PasswordHash:       hash,
		Name:               name,
		Village:            strings.ToLower(strings.TrimSpace(village)),
		Role:               models.RoleFarmer,
		ForcePasswordReset: true,
	}
	if err := s.Users.Create(ctx, user); err != nil {
		return nil, err
	}

	log.Printf("[Purchase] created account for new customer ending %s", lastDigits(phoneNumber, 4))
	return user, nil
}

func lastDigits(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[len(s)-n:]
}

// CreatePurchase records a purchase against a customer account. Either
// catalog line items or a manual total must be given. Product prices
// are snapshotted into the line items; a missing product fails the
// whole operation before anything is written.
func (s *PurchaseService) CreatePurchase(ctx context.Context, req *models.CreatePurchaseRequest) (*models.Purchase, error) {
	if req.PhoneNumber == "" || req.Name == "" || req.Village == "" || req.SN == "" {
		return nil, errors.New("phone number, name, village, and SN are required")
	}
	if len(req.Products) == 0 && req.ManualTotalAmount == nil {
		return nil, errors.New("either products or a manual total amount is required")
	}
	if req.DepositAmount < 0 {
		return nil, errors.New("deposit amount cannot be negative")
	}

	exists, err := s.Purchases.ExistsBySN(ctx, req.SN)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, fmt.Errorf("purchase with SN %s already exists", req.SN)
	}

	// Resolve all products before touching any state
	items := make([]models.PurchaseItem, 0, len(req.Products))
	for _, line := range req.Products {
		if line.Quantity <= 0 {
			return nil, errors.New("product quantity must be positive")
		}
		product, err := s.Products.Get(ctx, line.ProductID)
		if err != nil {
			return nil, fmt.Errorf("product not found: %d", line.ProductID)
		}
		items = append(items, models.PurchaseItem{
			ProductID:       product.ID,
			ProductName:     product.Name,
			Quantity:        line.Quantity,
			PriceAtPurchase: product.Price,
		})
	}

	user, err := s.findOrCreateCustomer(ctx, req.PhoneNumber, req.Name, req.Village)
	if err != nil {
		return nil, err
	}

	userID := user.ID
	purchase := &models.Purchase{
		UserID:            &userID,
		SN:                req.SN,
		PhoneNumber:       req.PhoneNumber,
		Name:              req.Name,
		Village:           strings.ToLower(strings.TrimSpace(req.Village)),
		PurchaseDate:      timeutil.Now(),
		Items:             items,
		ManualTotalAmount: req.ManualTotalAmount,
		DepositAmount:     req.DepositAmount,
	}
	purchase.Recompute()

	if err := s.Purchases.Create(ctx, purchase); err != nil {
		return nil, err
	}

	metrics.PurchasesCreatedTotal.Inc()

	// Delivery failure never rolls back a recorded purchase
	s.Notifier.SendPurchaseConfirmation(ctx, user, purchase)

	return purchase, nil
}

// UpdateStatus applies a deposit increment and/or a manual status
// override. Deposits only ever grow; an increment that would push the
// total deposit past the total amount is rejected and nothing changes.
// A manual status is only honored while a balance remains, so completed
// always means paid off once remaining hits zero.
func (s *PurchaseService) UpdateStatus(ctx context.Context, id int, req *models.UpdatePurchaseStatusRequest) (*models.Purchase, error) {
	if req.DepositAmount == nil && req.Status == "" {
		return nil, errors.New("deposit amount or status is required")
	}
	if req.Status != "" && req.Status != models.PaymentPending && req.Status != models.PaymentCompleted {
		return nil, errors.New("status must be pending or completed")
	}

	purchase, err := s.Purchases.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	var delta float64
	if req.DepositAmount != nil {
		delta = *req.DepositAmount
		if delta <= 0 {
			return nil, errors.New("deposit amount must be positive")
		}
		if purchase.DepositAmount+delta > purchase.TotalAmount {
			return nil, errors.New("deposit amount cannot exceed total amount")
		}
		purchase.DepositAmount += delta
	}

	purchase.Recompute()

	if req.Status != "" && purchase.RemainingAmount > 0 {
		purchase.PaymentStatus = req.Status
	}

	if err := s.Purchases.UpdateAmounts(ctx, purchase); err != nil {
		return nil, err
	}

	if delta > 0 {
		metrics.DepositsAppliedTotal.Inc()
	}

	user, err := s.Users.GetByPhone(ctx, purchase.PhoneNumber)
	if err != nil {
		// User record deleted; notify the snapshot number
		user = &models.User{PhoneNumber: purchase.PhoneNumber, Name: purchase.Name}
	}
	s.Notifier.SendPaymentUpdate(ctx, user, purchase, delta)

	return purchase, nil
}

// ApplyDeposit is the restricted deposit path used by online payments:
// no manual status, just a verified amount.
func (s *PurchaseService) ApplyDeposit(ctx context.Context, id int, amount float64) (*models.Purchase, error) {
	return s.UpdateStatus(ctx, id, &models.UpdatePurchaseStatusRequest{DepositAmount: &amount})
}

func (s *PurchaseService) GetPurchase(ctx context.Context, id int) (*models.Purchase, error) {
	return s.Purchases.Get(ctx, id)
}

func (s *PurchaseService) ListPurchases(ctx context.Context) ([]*models.Purchase, error) {
	return s.Purchases.List(ctx)
}

func (s *PurchaseService) ListUserPurchases(ctx context.Context, userID int) ([]*models.Purchase, error) {
	return s.Purchases.ListByUser(ctx, userID)
}

// bulk import column headers, matched case-insensitively
var bulkColumns = []string{"phone_number", "customer_name", "village", "sn", "total_amount", "deposit_amount"}

// BulkImport reads ledger rows from CSV and records each as a manual
// total purchase. Rows are isolated: a bad row is reported and skipped
// while the rest land in the ledger. Rows without an SN get a generated
// one.
func (s *PurchaseService) BulkImport(ctx context.Context, r io.Reader) (*models.BulkImportResult, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, errors.New("empty or unreadable file")
	}

	cols := make(map[string]int, len(bulkColumns))
	for _, name := range bulkColumns {
		cols[name] = -1
	}
	for i, h := range header {
		key := strings.ToLower(strings.TrimSpace(h))
		if _, ok := cols[key]; ok {
			cols[key] = i
		}
	}
	if cols["phone_number"] == -1 || cols["customer_name"] == -1 || cols["total_amount"] == -1 {
		return nil, errors.New("file must have phone_number, customer_name and total_amount columns")
	}

	field := func(record []string, name string) string {
		idx := cols[name]
		if idx == -1 || idx >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[idx])
	}

	result := &models.BulkImportResult{}
	rowNum := 1
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		rowNum++
		if err != nil {
			result.Failed++
			result.Results = append(result.Results, models.BulkImportRowResult{
				Row: rowNum, Success: false, Error: "malformed row",
			})
			continue
		}

		row := models.BulkImportRow{
			PhoneNumber:  field(record, "phone_number"),
			CustomerName: field(record, "customer_name"),
			Village:      field(record, "village"),
			SN:           field(record, "sn"),
		}
		row.TotalAmount, _ = strconv.ParseFloat(field(record, "total_amount"), 64)
		row.DepositAmount, _ = strconv.ParseFloat(field(record, "deposit_amount"), 64)

		if row.SN == "" {
			row.SN = fmt.Sprintf("AUTO-%d-%d", time.Now().UnixMilli(), rowNum)
		}

		total := row.TotalAmount
		_, err = s.CreatePurchase(ctx, &models.CreatePurchaseRequest{
			PhoneNumber:       row.PhoneNumber,
			Name:              row.CustomerName,
			Village:           row.Village,
			SN:                row.SN,
			ManualTotalAmount: &total,
			DepositAmount:     row.DepositAmount,
		})
		if err != nil {
			result.Failed++
			result.Results = append(result.Results, models.BulkImportRowResult{
				Row: rowNum, SN: row.SN, Success: false, Error: err.Error(),
			})
			continue
		}

		result.Succeeded++
		result.Results = append(result.Results, models.BulkImportRowResult{
			Row: rowNum, SN: row.SN, Success: true,
		})
	}

	return result, nil
}
