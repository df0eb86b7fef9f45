package repositories

import (
	"context"

	"krishi-backend/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PurchaseRepository struct {
	DB *pgxpool.Pool
}

func NewPurchaseRepository(db *pgxpool.Pool) *PurchaseRepository {
	return &PurchaseRepository{DB: db}
}

const purchaseColumns = `id, user_id, sn, phone_number, name, village, purchase_date,
	manual_total_amount, total_amount, deposit_amount, remaining_amount, payment_status,
	created_at, updated_at`

func scanPurchase(row interface{ Scan(...any) error }) (*models.Purchase, error) {
	var p models.Purchase
	err := row.Scan(&p.ID, &p.UserID, &p.SN, &p.PhoneNumber, &p.Name, &p.Village, &p.PurchaseDate,
		&p.ManualTotalAmount, &p.TotalAmount, &p.DepositAmount, &p.RemainingAmount, &p.PaymentStatus,
		&p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// Create persists the purchase and its line items in one transaction so
// a failed item insert never leaves a partial purchase behind.
func (r *PurchaseRepository) Create(ctx context.Context, p *models.Purchase) error {
	tx, err := r.DB.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	err = tx.QueryRow(ctx,
		`INSERT INTO purchases(user_id, sn, phone_number, name, village, manual_total_amount,
		 total_amount, deposit_amount, remaining_amount, payment_status)
         VALUES($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
         RETURNING id, purchase_date, created_at, updated_at`,
		p.UserID, p.SN, p.PhoneNumber, p.Name, p.Village, p.ManualTotalAmount,
		p.TotalAmount, p.DepositAmount, p.RemainingAmount, p.PaymentStatus,
	).Scan(&p.ID, &p.PurchaseDate, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return err
	}

	for i := range p.Items {
		item := &p.Items[i]
		item.PurchaseID = p.ID
		err = tx.QueryRow(ctx,
			`INSERT INTO purchase_items(purchase_id, product_id, product_name, quantity, price_at_purchase)
             VALUES($1, $2, $3, $4, $5)
             RETURNING id`,
			item.PurchaseID, item.ProductID, item.ProductName, item.Quantity, item.PriceAtPurchase,
		).Scan(&item.ID)
		if err != nil {
			return err
		}
	}

	return tx.Commit(ctx)
}

func (r *PurchaseRepository) Get(ctx context.Context, id int) (*models.Purchase, error) {
	row := r.DB.QueryRow(ctx, `SELECT `+purchaseColumns+` FROM purchases WHERE id=$1`, id)
	p, err := scanPurchase(row)
	if err != nil {
		return nil, err
	}
	if err := r.loadItems(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// ExistsBySN reports whether a purchase already carries the serial number
func (r *PurchaseRepository) ExistsBySN(ctx context.Context, sn string) (bool, error) {
	var exists bool
	err := r.DB.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM purchases WHERE sn=$1)`, sn).Scan(&exists)
	return exists, err
}

// List returns all purchases, newest first
func (r *PurchaseRepository) List(ctx context.Context) ([]*models.Purchase, error) {
	rows, err := r.DB.Query(ctx, `SELECT `+purchaseColumns+` FROM purchases ORDER BY purchase_date DESC`)
	if err != nil {
		return nil, err
	}
	return r.collect(ctx, rows)
}

// ListByUser returns one user's purchases, newest first
func (r *PurchaseRepository) ListByUser(ctx context.Context, userID int) ([]*models.Purchase, error) {
	rows, err := r.DB.Query(ctx,
		`SELECT `+purchaseColumns+` FROM purchases WHERE user_id=$1 ORDER BY purchase_date DESC`, userID)
	if err != nil {
		return nil, err
	}
	return r.collect(ctx, rows)
}

// ListPendingWithBalance returns purchases still owing money, for
// payment reminder runs
func (r *PurchaseRepository) ListPendingWithBalance(ctx context.Context) ([]*models.Purchase, error) {
	rows, err := r.DB.Query(ctx,
		`SELECT `+purchaseColumns+` FROM purchases
         WHERE payment_status=$1 AND remaining_amount > 0
         ORDER BY purchase_date DESC`, models.PaymentPending)
	if err != nil {
		return nil, err
	}
	return r.collect(ctx, rows)
}

// UpdateAmounts saves the recomputed deposit, remaining and status after
// a deposit top-up. Read-modify-write happens within one request; the
// store's single-row update is the only atomicity relied upon.
func (r *PurchaseRepository) UpdateAmounts(ctx context.Context, p *models.Purchase) error {
	_, err := r.DB.Exec(ctx,
		`UPDATE purchases SET deposit_amount=$1, remaining_amount=$2, payment_status=$3, updated_at=CURRENT_TIMESTAMP
         WHERE id=$4`,
		p.DepositAmount, p.RemainingAmount, p.PaymentStatus, p.ID)
	return err
}

func (r *PurchaseRepository) collect(ctx context.Context, rows pgx.Rows) ([]*models.Purchase, error) {
	defer rows.Close()

	var purchases []*models.Purchase
	for rows.Next() {
		p, err := scanPurchase(rows)
		if err != nil {
			return nil, err
		}
		purchases = append(purchases, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for _, p := range purchases {
		if err := r.loadItems(ctx, p); err != nil {
			return nil, err
		}
	}
	return purchases, nil
}

func (r *PurchaseRepository) loadItems(ctx context.Context, p *models.Purchase) error {
	rows, err := r.DB.Query(ctx,
		`SELECT id, purchase_id, COALESCE(product_id, 0), product_name, quantity, price_at_purchase
         FROM purchase_items WHERE purchase_id=$1 ORDER BY id`, p.ID)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var item models.PurchaseItem
		if err := rows.Scan(&item.ID, &item.PurchaseID, &item.ProductID, &item.ProductName,
			&item.Quantity, &item.PriceAtPurchase); err != nil {
			return err
		}
		p.Items = append(p.Items, item)
	}
	return rows.Err()
}
