package services

import (
	"context"
	"errors"
	"strings"
	"testing"

	"krishi-backend/internal/auth"
	"krishi-backend/internal/models"

	"github.com/jackc/pgx/v5"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeUserStore struct {
	byPhone map[string]*models.User
	nextID  int
	getErr  error
}

func newFakeUserStore() *fakeUserStore {
	return &fakeUserStore{byPhone: make(map[string]*models.User), nextID: 1}
}

func (f *fakeUserStore) GetByPhone(ctx context.Context, phone string) (*models.User, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	if u, ok := f.byPhone[phone]; ok {
		return u, nil
	}
	return nil, pgx.ErrNoRows
}

func (f *fakeUserStore) Create(ctx context.Context, u *models.User) error {
	u.ID = f.nextID
	f.nextID++
	f.byPhone[u.PhoneNumber] = u
	return nil
}

type fakeProductStore map[int]*models.Product

func (f fakeProductStore) Get(ctx context.Context, id int) (*models.Product, error) {
	if p, ok := f[id]; ok {
		return p, nil
	}
	return nil, pgx.ErrNoRows
}

type fakePurchaseStore struct {
	byID   map[int]*models.Purchase
	nextID int
}

func newFakePurchaseStore() *fakePurchaseStore {
	return &fakePurchaseStore{byID: make(map[int]*models.Purchase), nextID: 1}
}

func (f *fakePurchaseStore) Create(ctx context.Context, p *models.Purchase) error {
	p.ID = f.nextID
	f.nextID++
	cp := *p
	f.byID[p.ID] = &cp
	return nil
}

func (f *fakePurchaseStore) Get(ctx context.Context, id int) (*models.Purchase, error) {
	if p, ok := f.byID[id]; ok {
		cp := *p
		return &cp, nil
	}
	return nil, pgx.ErrNoRows
}

func (f *fakePurchaseStore) ExistsBySN(ctx context.Context, sn string) (bool, error) {
	for _, p := range f.byID {
		if p.SN == sn {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakePurchaseStore) List(ctx context.Context) ([]*models.Purchase, error) {
	var out []*models.Purchase
	for _, p := range f.byID {
		out = append(out, p)
	}
	return out, nil
}

func (f *fakePurchaseStore) ListByUser(ctx context.Context, userID int) ([]*models.Purchase, error) {
	var out []*models.Purchase
	for _, p := range f.byID {
		if p.UserID != nil && *p.UserID == userID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (f *fakePurchaseStore) UpdateAmounts(ctx context.Context, p *models.Purchase) error {
	stored, ok := f.byID[p.ID]
	if !ok {
		return pgx.ErrNoRows
	}
	stored.DepositAmount = p.DepositAmount
	stored.RemainingAmount = p.RemainingAmount
	stored.PaymentStatus = p.PaymentStatus
	return nil
}

type fakeNotifier struct {
	confirmations int
	updates       int
	lastDelta     float64
}

func (f *fakeNotifier) SendPurchaseConfirmation(ctx context.Context, user *models.User, p *models.Purchase) {
	f.confirmations++
}

func (f *fakeNotifier) SendPaymentUpdate(ctx context.Context, user *models.User, p *models.Purchase, delta float64) {
	f.updates++
	f.lastDelta = delta
}

func newTestPurchaseService() (*PurchaseService, *fakeUserStore, *fakePurchaseStore, *fakeNotifier) {
	users := newFakeUserStore()
	purchases := newFakePurchaseStore()
	products := fakeProductStore{
		1: {ID: 1, Name: "Urea 45kg", Price: 300},
		2: {ID: 2, Name: "DAP 50kg", Price: 1350},
	}
	notifier := &fakeNotifier{}
	return NewPurchaseService(purchases, users, products, notifier), users, purchases, notifier
}

func TestCreatePurchaseCreatesAccountForNewCustomer(t *testing.T) {
	svc, users, _, notifier := newTestPurchaseService()
	ctx := context.Background()

	p, err := svc.CreatePurchase(ctx, &models.CreatePurchaseRequest{
		PhoneNumber: "9876543210",
		Name:        "Ram Kumar",
		Village:     "Nawanagar",
		SN:          "SN-001",
		Products:    []models.PurchaseItemRequest{{ProductID: 1, Quantity: 2}},
	})
	require.NoError(t, err)

	user, ok := users.byPhone["9876543210"]
	require.True(t, ok, "account should be created for unknown phone")
	assert.Equal(t, models.RoleFarmer, user.Role)
	assert.Equal(t, "nawanagar", user.Village)
	assert.True(t, user.ForcePasswordReset)
	assert.True(t, auth.VerifyPassword(user.PasswordHash, "543210"),
		"default password should be the last 6 digits of the phone number")

	assert.Equal(t, 600.0, p.TotalAmount)
	assert.Equal(t, 600.0, p.RemainingAmount)
	assert.Equal(t, models.PaymentPending, p.PaymentStatus)
	assert.Equal(t, 1, notifier.confirmations)
}

func TestCreatePurchaseReusesExistingAccount(t *testing.T) {
	svc, users, _, _ := newTestPurchaseService()
	ctx := context.Background()

	existing := &models.User{PhoneNumber: "9876543210", Name: "Ram Kumar", Role: models.RoleFarmer}
	require.NoError(t, users.Create(ctx, existing))

	p, err := svc.CreatePurchase(ctx, &models.CreatePurchaseRequest{
		PhoneNumber: "9876543210",
		Name:        "Ram Kumar",
		SN:          "SN-002",
		Village:     "nawanagar",
		Products:    []models.PurchaseItemRequest{{ProductID: 2, Quantity: 1}},
	})
	require.NoError(t, err)
	require.NotNil(t, p.UserID)
	assert.Equal(t, existing.ID, *p.UserID)
	assert.Len(t, users.byPhone, 1)
}

func TestCreatePurchaseMissingProductFailsWholeOperation(t *testing.T) {
	svc, users, purchases, notifier := newTestPurchaseService()
	ctx := context.Background()

	_, err := svc.CreatePurchase(ctx, &models.CreatePurchaseRequest{
		PhoneNumber: "9876543210",
		Name:        "Ram Kumar",
		SN:          "SN-003",
		Village:     "nawanagar",
		Products: []models.PurchaseItemRequest{
			{ProductID: 1, Quantity: 1},
			{ProductID: 99, Quantity: 1},
		},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "product not found")

	assert.Empty(t, purchases.byID, "no purchase should be written")
	assert.Empty(t, users.byPhone, "no account should be created")
	assert.Zero(t, notifier.confirmations)
}

func TestCreatePurchaseManualTotalWins(t *testing.T) {
	svc, _, _, _ := newTestPurchaseService()
	ctx := context.Background()

	manual := 5000.0
	p, err := svc.CreatePurchase(ctx, &models.CreatePurchaseRequest{
		PhoneNumber:       "9876543210",
		Name:              "Ram Kumar",
		SN:                "SN-004",
		Village:           "nawanagar",
		Products:          []models.PurchaseItemRequest{{ProductID: 1, Quantity: 1}},
		ManualTotalAmount: &manual,
		DepositAmount:     1000,
	})
	require.NoError(t, err)
	assert.Equal(t, 5000.0, p.TotalAmount)
	assert.Equal(t, 4000.0, p.RemainingAmount)
}

func TestCreatePurchaseDuplicateSNRejected(t *testing.T) {
	svc, _, _, _ := newTestPurchaseService()
	ctx := context.Background()

	manual := 100.0
	req := &models.CreatePurchaseRequest{
		PhoneNumber:       "9876543210",
		Name:              "Ram Kumar",
		SN:                "SN-005",
		Village:           "nawanagar",
		ManualTotalAmount: &manual,
	}
	_, err := svc.CreatePurchase(ctx, req)
	require.NoError(t, err)

	_, err = svc.CreatePurchase(ctx, req)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already exists")
}

func TestCreatePurchaseRequiresVillage(t *testing.T) {
	svc, users, purchases, _ := newTestPurchaseService()

	manual := 500.0
	_, err := svc.CreatePurchase(context.Background(), &models.CreatePurchaseRequest{
		PhoneNumber:       "9876543210",
		Name:              "Ram Kumar",
		SN:                "SN-V1",
		ManualTotalAmount: &manual,
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "village")

	assert.Empty(t, purchases.byID, "no purchase should be written")
	assert.Empty(t, users.byPhone, "no account should be created")
}

func TestCreatePurchaseUserLookupErrorPropagates(t *testing.T) {
	svc, users, purchases, _ := newTestPurchaseService()
	users.getErr = errors.New("connection refused")

	manual := 500.0
	_, err := svc.CreatePurchase(context.Background(), &models.CreatePurchaseRequest{
		PhoneNumber:       "9876543210",
		Name:              "Ram Kumar",
		Village:           "nawanagar",
		SN:                "SN-E1",
		ManualTotalAmount: &manual,
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection refused")

	// A transient lookup failure must not mint a fresh account
	assert.Empty(t, users.byPhone)
	assert.Empty(t, purchases.byID)
}

func TestCreatePurchaseRequiresProductsOrManualTotal(t *testing.T) {
	svc, _, _, _ := newTestPurchaseService()

	_, err := svc.CreatePurchase(context.Background(), &models.CreatePurchaseRequest{
		PhoneNumber: "9876543210",
		Name:        "Ram Kumar",
		SN:          "SN-006",
		Village:     "nawanagar",
	})
	require.Error(t, err)
}

func TestDepositCompletesAtExactTotal(t *testing.T) {
	svc, _, _, notifier := newTestPurchaseService()
	ctx := context.Background()

	manual := 1000.0
	p, err := svc.CreatePurchase(ctx, &models.CreatePurchaseRequest{
		PhoneNumber:       "9876543210",
		Name:              "Ram Kumar",
		SN:                "SN-007",
		Village:           "nawanagar",
		ManualTotalAmount: &manual,
	})
	require.NoError(t, err)

	deposit := 1000.0
	updated, err := svc.UpdateStatus(ctx, p.ID, &models.UpdatePurchaseStatusRequest{DepositAmount: &deposit})
	require.NoError(t, err)
	assert.Equal(t, 0.0, updated.RemainingAmount)
	assert.Equal(t, models.PaymentCompleted, updated.PaymentStatus)
	assert.Equal(t, 1000.0, notifier.lastDelta)

	// Fully paid purchase accepts no further deposits
	one := 1.0
	_, err = svc.UpdateStatus(ctx, p.ID, &models.UpdatePurchaseStatusRequest{DepositAmount: &one})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cannot exceed")
}

func TestDepositExceedingTotalLeavesPurchaseUnchanged(t *testing.T) {
	svc, _, purchases, _ := newTestPurchaseService()
	ctx := context.Background()

	manual := 500.0
	p, err := svc.CreatePurchase(ctx, &models.CreatePurchaseRequest{
		PhoneNumber:       "9876543210",
		Name:              "Ram Kumar",
		SN:                "SN-008",
		Village:           "nawanagar",
		ManualTotalAmount: &manual,
		DepositAmount:     200,
	})
	require.NoError(t, err)

	tooMuch := 400.0
	_, err = svc.UpdateStatus(ctx, p.ID, &models.UpdatePurchaseStatusRequest{DepositAmount: &tooMuch})
	require.Error(t, err)

	stored := purchases.byID[p.ID]
	assert.Equal(t, 200.0, stored.DepositAmount)
	assert.Equal(t, 300.0, stored.RemainingAmount)
	assert.Equal(t, models.PaymentPending, stored.PaymentStatus)
}

func TestManualStatusOnlyAppliesWhileBalanceRemains(t *testing.T) {
	svc, _, _, _ := newTestPurchaseService()
	ctx := context.Background()

	manual := 1000.0
	p, err := svc.CreatePurchase(ctx, &models.CreatePurchaseRequest{
		PhoneNumber:       "9876543210",
		Name:              "Ram Kumar",
		SN:                "SN-009",
		Village:           "nawanagar",
		ManualTotalAmount: &manual,
	})
	require.NoError(t, err)

	// Manual completed with a balance outstanding is honored
	updated, err := svc.UpdateStatus(ctx, p.ID, &models.UpdatePurchaseStatusRequest{Status: models.PaymentCompleted})
	require.NoError(t, err)
	assert.Equal(t, models.PaymentCompleted, updated.PaymentStatus)
	assert.Equal(t, 1000.0, updated.RemainingAmount)

	// Paying it off derives completed regardless of the manual value
	deposit := 1000.0
	updated, err = svc.UpdateStatus(ctx, p.ID, &models.UpdatePurchaseStatusRequest{
		DepositAmount: &deposit,
		Status:        models.PaymentPending,
	})
	require.NoError(t, err)
	assert.Equal(t, models.PaymentCompleted, updated.PaymentStatus,
		"a paid-off purchase cannot be forced back to pending")
}

func TestBulkImportIsolatesBadRows(t *testing.T) {
	svc, users, purchases, _ := newTestPurchaseService()
	ctx := context.Background()

	csvData := strings.Join([]string{
		"phone_number,customer_name,village,sn,total_amount,deposit_amount",
		"9876543210,Ram Kumar,Nawanagar,BULK-1,1500,500",
		",Missing Phone,Nawanagar,BULK-2,2000,0",
		"9123456780,Sita Devi,Dumraon,,800,800",
	}, "\n")

	result, err := svc.BulkImport(ctx, strings.NewReader(csvData))
	require.NoError(t, err)

	assert.Equal(t, 2, result.Succeeded)
	assert.Equal(t, 1, result.Failed)
	require.Len(t, result.Results, 3)
	assert.False(t, result.Results[1].Success)

	assert.Len(t, purchases.byID, 2)
	assert.Len(t, users.byPhone, 2)

	// Row without an SN gets a generated one
	assert.True(t, strings.HasPrefix(result.Results[2].SN, "AUTO-"))

	// Fully deposited row lands as completed
	for _, p := range purchases.byID {
		if p.PhoneNumber == "9123456780" {
			assert.Equal(t, models.PaymentCompleted, p.PaymentStatus)
		}
	}
}

func TestBulkImportRejectsMissingColumns(t *testing.T) {
	svc, _, _, _ := newTestPurchaseService()

	_, err := svc.BulkImport(context.Background(), strings.NewReader("a,b,c\n1,2,3"))
	require.Error(t, err)
}
