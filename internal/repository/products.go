package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"

	"storefront/internal/domain"
)

var ErrProductNotFound = errors.New("product not found")

// ProductRepository defines the catalog store operations.
// Consumers define this interface, not the SQL implementation.
type ProductRepository interface {
	Create(ctx context.Context, name string, price float64, description *string, stock int64) (*domain.Product, error)
	List(ctx context.Context) ([]*domain.Product, error)
	GetByID(ctx context.Context, id int64) (*domain.Product, error)
	Update(ctx context.Context, id int64, changes ProductChangeSet) error
	Delete(ctx context.Context, id int64) error
}

// ProductChangeSet carries a partial update: nil fields were not supplied by
// the caller and stay untouched. Price and stock signs are deliberately not
// validated here; the store is a permissive pass-through.
type ProductChangeSet struct {
	Name        *string
	Price       *float64
	Description *string
	Stock       *int64
}

func (c ProductChangeSet) toMap() map[string]interface{} {
	m := map[string]interface{}{}
	if c.Name != nil {
		m["name"] = *c.Name
	}
	if c.Price != nil {
		m["price"] = *c.Price
	}
	if c.Description != nil {
		m["description"] = *c.Description
	}
	if c.Stock != nil {
		m["stock"] = *c.Stock
	}
	return m
}

type ProductRepo struct {
	db *sql.DB
}

func NewProductRepo(db *sql.DB) *ProductRepo {
	return &ProductRepo{db: db}
}

func (r *ProductRepo) Create(ctx context.Context, name string, price float64, description *string, stock int64) (*domain.Product, error) {
	query := `
		INSERT INTO products (name, price, description, stock, created_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`

	p := &domain.Product{
		Name:        name,
		Price:       price,
		Description: description,
		Stock:       stock,
		CreatedAt:   time.Now().UTC(),
	}

	err := r.db.QueryRowContext(ctx, query, p.Name, p.Price, p.Description, p.Stock, p.CreatedAt).Scan(&p.ID)
	if err != nil {
		return nil, fmt.Errorf("insert product: %w", err)
	}

	return p, nil
}

func (r *ProductRepo) List(ctx context.Context) ([]*domain.Product, error) {
	query := `
		SELECT id, name, price, description, stock, created_at
		FROM products
		ORDER BY id
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query products: %w", err)
	}
	defer rows.Close()

	products := make([]*domain.Product, 0)
	for rows.Next() {
		p := &domain.Product{}
		if err := rows.Scan(&p.ID, &p.Name, &p.Price, &p.Description, &p.Stock, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		products = append(products, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return products, nil
}

func (r *ProductRepo) GetByID(ctx context.Context, id int64) (*domain.Product, error) {
	query := `
		SELECT id, name, price, description, stock, created_at
		FROM products
		WHERE id = $1
	`

	p := &domain.Product{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(&p.ID, &p.Name, &p.Price, &p.Description, &p.Stock, &p.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrProductNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query product by id: %w", err)
	}

	return p, nil
}

// Update applies only the supplied fields. An empty change set degrades to an
// existence check so the caller still gets ErrProductNotFound for unknown ids.
func (r *ProductRepo) Update(ctx context.Context, id int64, changes ProductChangeSet) error {
	m := changes.toMap()
	if len(m) == 0 {
		_, err := r.GetByID(ctx, id)
		return err
	}

	res, err := squirrel.
		Update("products").
		SetMap(m).
		Where(squirrel.Eq{"id": id}).
		PlaceholderFormat(squirrel.Dollar).
		RunWith(r.db).
		ExecContext(ctx)
	if err != nil {
		return fmt.Errorf("executing update: %w", err)
	}

	rowsAffected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("getting affected rows: %w", err)
	}
	if rowsAffected == 0 {
		return ErrProductNotFound
	}

	return nil
}

func (r *ProductRepo) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete product: %w", err)
	}

	rowsAffected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("getting affected rows: %w", err)
	}
	if rowsAffected == 0 {
		return ErrProductNotFound
	}

	return nil
}
