package repositories

import (
	"context"
	"fmt"

	"krishi-backend/internal/models"

	"github.com/jackc/pgx/v5/pgxpool"
)

type ProductRepository struct {
	DB *pgxpool.Pool
}

func NewProductRepository(db *pgxpool.Pool) *ProductRepository {
	return &ProductRepository{DB: db}
}

const productColumns = `id, name, COALESCE(description, ''), price, COALESCE(category, ''), stock, is_active,
	COALESCE(image_key, ''), COALESCE(image_url, ''), duration_from, duration_to, created_at, updated_at`

func scanProduct(row interface{ Scan(...any) error }) (*models.Product, error) {
	var p models.Product
	err := row.Scan(&p.ID, &p.Name, &p.Description, &p.Price, &p.Category, &p.Stock, &p.IsActive,
		&p.ImageKey, &p.ImageURL, &p.DurationFrom, &p.DurationTo, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *ProductRepository) Create(ctx context.Context, p *models.Product) error {
	return r.DB.QueryRow(ctx,
		`INSERT INTO products(name, description, price, category, stock, is_active, image_key, image_url, duration_from, duration_to)
         VALUES($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
         RETURNING id, created_at, updated_at`,
		p.Name, p.Description, p.Price, p.Category, p.Stock, p.IsActive,
		p.ImageKey, p.ImageURL, p.DurationFrom, p.DurationTo,
	).Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt)
}

func (r *ProductRepository) Get(ctx context.Context, id int) (*models.Product, error) {
	row := r.DB.QueryRow(ctx, `SELECT `+productColumns+` FROM products WHERE id=$1`, id)
	return scanProduct(row)
}

// List returns products filtered by category, active flag and a free-text
// search over name/description/category, newest first.
func (r *ProductRepository) List(ctx context.Context, filter models.ProductFilter) ([]*models.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE 1=1`
	args := []any{}
	n := 0

	if filter.Category != "" {
		n++
		query += fmt.Sprintf(" AND category=$%d", n)
		args = append(args, filter.Category)
	}
	if filter.Active != nil {
		n++
		query += fmt.Sprintf(" AND is_active=$%d", n)
		args = append(args, *filter.Active)
	}
	if filter.Search != "" {
		n++
		query += fmt.Sprintf(" AND (name ILIKE $%d OR description ILIKE $%d OR category ILIKE $%d)", n, n, n)
		args = append(args, "%"+filter.Search+"%")
	}

	query += " ORDER BY created_at DESC"

	rows, err := r.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var products []*models.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		products = append(products, p)
	}
	return products, rows.Err()
}

// Search does a bounded free-text lookup for the storefront search box
func (r *ProductRepository) Search(ctx context.Context, term string, limit int) ([]*models.Product, error) {
	rows, err := r.DB.Query(ctx,
		`SELECT `+productColumns+` FROM products
         WHERE name ILIKE $1 OR description ILIKE $1 OR category ILIKE $1
         LIMIT $2`,
		"%"+term+"%", limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var products []*models.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		products = append(products, p)
	}
	return products, rows.Err()
}

func (r *ProductRepository) Update(ctx context.Context, p *models.Product) error {
	_, err := r.DB.Exec(ctx,
		`UPDATE products SET name=$1, description=$2, price=$3, category=$4, stock=$5, is_active=$6,
		 image_key=$7, image_url=$8, duration_from=$9, duration_to=$10, updated_at=CURRENT_TIMESTAMP
         WHERE id=$11`,
		p.Name, p.Description, p.Price, p.Category, p.Stock, p.IsActive,
		p.ImageKey, p.ImageURL, p.DurationFrom, p.DurationTo, p.ID)
	return err
}

func (r *ProductRepository) Delete(ctx context.Context, id int) error {
	_, err := r.DB.Exec(ctx, `DELETE FROM products WHERE id=$1`, id)
	return err
}
