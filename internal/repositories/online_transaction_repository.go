package repositories

import (
	"context"

	"krishi-backend/internal/models"

	"github.com/jackc/pgx/v5/pgxpool"
)

type OnlineTransactionRepository struct {
	DB *pgxpool.Pool
}

func NewOnlineTransactionRepository(db *pgxpool.Pool) *OnlineTransactionRepository {
	return &OnlineTransactionRepository{DB: db}
}

func (r *OnlineTransactionRepository) Create(ctx context.Context, t *models.OnlineTransaction) error {
	var userID any
	if t.UserID != 0 {
		userID = t.UserID
	}
	t.Status = models.OnlineTxStatusCreated
	return r.DB.QueryRow(ctx,
		`INSERT INTO online_transactions(razorpay_order_id, purchase_id, user_id, phone, amount, status)
         VALUES($1, $2, $3, $4, $5, $6)
         RETURNING id, created_at, updated_at`,
		t.RazorpayOrderID, t.PurchaseID, userID, t.Phone, t.Amount, t.Status,
	).Scan(&t.ID, &t.CreatedAt, &t.UpdatedAt)
}

func (r *OnlineTransactionRepository) GetByOrderID(ctx context.Context, orderID string) (*models.OnlineTransaction, error) {
	var t models.OnlineTransaction
	err := r.DB.QueryRow(ctx,
		`SELECT id, razorpay_order_id, COALESCE(razorpay_payment_id, ''), purchase_id, COALESCE(user_id, 0),
		 phone, amount, status, COALESCE(error_message, ''), created_at, updated_at
         FROM online_transactions WHERE razorpay_order_id=$1`, orderID,
	).Scan(&t.ID, &t.RazorpayOrderID, &t.RazorpayPaymentID, &t.PurchaseID, &t.UserID,
		&t.Phone, &t.Amount, &t.Status, &t.ErrorMessage, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// MarkSuccess records the payment id once the signature checks out
func (r *OnlineTransactionRepository) MarkSuccess(ctx context.Context, orderID, paymentID string) error {
	_, err := r.DB.Exec(ctx,
		`UPDATE online_transactions SET status=$1, razorpay_payment_id=$2, updated_at=CURRENT_TIMESTAMP
         WHERE razorpay_order_id=$3`,
		models.OnlineTxStatusSuccess, paymentID, orderID)
	return err
}

// MarkFailed records why a payment did not complete
func (r *OnlineTransactionRepository) MarkFailed(ctx context.Context, orderID, reason string) error {
	_, err := r.DB.Exec(ctx,
		`UPDATE online_transactions SET status=$1, error_message=$2, updated_at=CURRENT_TIMESTAMP
         WHERE razorpay_order_id=$3`,
		models.OnlineTxStatusFailed, reason, orderID)
	return err
}
