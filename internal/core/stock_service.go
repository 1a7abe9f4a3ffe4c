package core

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// StockService reads and corrects the sellable stock of product units. Dispatch
// creation is the only other writer of ProductUnit.Quantity.
type StockService interface {
	GetProductUnit(ctx context.Context, id int64) (*ProductUnit, error)
	ListProductUnits(ctx context.Context, storeID int64) ([]ProductUnit, error)
	// AdjustStock adds delta (which may be negative) to the unit's stock. The
	// result must stay non-negative.
	AdjustStock(ctx context.Context, id int64, delta int) (*ProductUnit, error)
	// SetStock overwrites the unit's stock with an absolute count.
	SetStock(ctx context.Context, id int64, quantity int) (*ProductUnit, error)
}

type stockService struct {
	pool *pgxpool.Pool
}

func NewStockService(pool *pgxpool.Pool) StockService {
	return &stockService{pool: pool}
}

const productUnitQuery = `
	SELECT pu.id, pu.product_id, p.store_id, p.name, pu.sku, pu.quantity
	FROM product_units pu
	JOIN products p ON p.id = pu.product_id`

func scanProductUnit(row rowScanner) (*ProductUnit, error) {
	var u ProductUnit
	if err := row.Scan(&u.ID, &u.ProductID, &u.StoreID, &u.ProductName, &u.SKU, &u.Quantity); err != nil {
		return nil, err
	}
	return &u, nil
}

func (s *stockService) GetProductUnit(ctx context.Context, id int64) (*ProductUnit, error) {
	u, err := scanProductUnit(s.pool.QueryRow(ctx, productUnitQuery+" WHERE pu.id = $1", id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, notFound("product unit %d", id)
		}
		return nil, fmt.Errorf("failed to get product unit %d: %w", id, err)
	}
	return u, nil
}

func (s *stockService) ListProductUnits(ctx context.Context, storeID int64) ([]ProductUnit, error) {
	rows, err := s.pool.Query(ctx, productUnitQuery+" WHERE p.store_id = $1 ORDER BY p.name, pu.sku, pu.id", storeID)
	if err != nil {
		return nil, fmt.Errorf("failed to query product units: %w", err)
	}
	defer rows.Close()

	units := []ProductUnit{}
	for rows.Next() {
		u, err := scanProductUnit(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan product unit: %w", err)
		}
		units = append(units, *u)
	}
	return units, rows.Err()
}

func (s *stockService) AdjustStock(ctx context.Context, id int64, delta int) (*ProductUnit, error) {
	if delta == 0 {
		return nil, invalid("delta", "must not be zero")
	}

	// Check-and-mutate in one statement so concurrent adjustments cannot drive the
	// stock below zero.
	tag, err := s.pool.Exec(ctx, `
		UPDATE product_units SET quantity = quantity + $2, updated_at = NOW()
		WHERE id = $1 AND quantity + $2 >= 0
	`, id, delta)
	if err != nil {
		return nil, fmt.Errorf("failed to adjust stock of product unit %d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		u, err := s.GetProductUnit(ctx, id)
		if err != nil {
			return nil, err
		}
		return nil, fmt.Errorf("%w: product unit %d holds %d, cannot apply %d",
			ErrInvalidOperation, id, u.Quantity, delta)
	}
	return s.GetProductUnit(ctx, id)
}

func (s *stockService) SetStock(ctx context.Context, id int64, quantity int) (*ProductUnit, error) {
	if quantity < 0 {
		return nil, invalid("quantity", "must not be negative, got %d", quantity)
	}

	tag, err := s.pool.Exec(ctx,
		"UPDATE product_units SET quantity = $2, updated_at = NOW() WHERE id = $1", id, quantity)
	if err != nil {
		return nil, fmt.Errorf("failed to set stock of product unit %d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return nil, notFound("product unit %d", id)
	}
	return s.GetProductUnit(ctx, id)
}
