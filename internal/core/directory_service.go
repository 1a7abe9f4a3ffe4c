package core

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// DirectoryService reads the stores, warehouses and showrooms that dispatches and
// ledger entries refer to. The rows are owned by other systems.
type DirectoryService interface {
	GetStore(ctx context.Context, id int64) (*Store, error)
	GetWarehouse(ctx context.Context, id int64) (*Warehouse, error)
	ListWarehouses(ctx context.Context) ([]Warehouse, error)
	GetShowroom(ctx context.Context, id int64) (*Showroom, error)
	ListShowrooms(ctx context.Context, warehouseID int64) ([]Showroom, error)
}

type directoryService struct {
	pool *pgxpool.Pool
}

func NewDirectoryService(pool *pgxpool.Pool) DirectoryService {
	return &directoryService{pool: pool}
}

func (s *directoryService) GetStore(ctx context.Context, id int64) (*Store, error) {
	return getStoreQ(ctx, s.pool, id)
}

func (s *directoryService) GetWarehouse(ctx context.Context, id int64) (*Warehouse, error) {
	return getWarehouseQ(ctx, s.pool, id)
}

func (s *directoryService) ListWarehouses(ctx context.Context) ([]Warehouse, error) {
	rows, err := s.pool.Query(ctx, "SELECT id, name, address FROM warehouses ORDER BY name, id")
	if err != nil {
		return nil, fmt.Errorf("failed to query warehouses: %w", err)
	}
	defer rows.Close()

	warehouses := []Warehouse{}
	for rows.Next() {
		var w Warehouse
		if err := rows.Scan(&w.ID, &w.Name, &w.Address); err != nil {
			return nil, fmt.Errorf("failed to scan warehouse: %w", err)
		}
		warehouses = append(warehouses, w)
	}
	return warehouses, rows.Err()
}

func (s *directoryService) GetShowroom(ctx context.Context, id int64) (*Showroom, error) {
	return getShowroomQ(ctx, s.pool, id)
}

func (s *directoryService) ListShowrooms(ctx context.Context, warehouseID int64) ([]Showroom, error) {
	if _, err := getWarehouseQ(ctx, s.pool, warehouseID); err != nil {
		return nil, err
	}

	rows, err := s.pool.Query(ctx, `
		SELECT id, warehouse_id, name, address
		FROM showrooms
		WHERE warehouse_id = $1
		ORDER BY name, id
	`, warehouseID)
	if err != nil {
		return nil, fmt.Errorf("failed to query showrooms: %w", err)
	}
	defer rows.Close()

	showrooms := []Showroom{}
	for rows.Next() {
		var sh Showroom
		if err := rows.Scan(&sh.ID, &sh.WarehouseID, &sh.Name, &sh.Address); err != nil {
			return nil, fmt.Errorf("failed to scan showroom: %w", err)
		}
		showrooms = append(showrooms, sh)
	}
	return showrooms, rows.Err()
}

func getStoreQ(ctx context.Context, q pgxQuerier, id int64) (*Store, error) {
	var st Store
	err := q.QueryRow(ctx, "SELECT id, name FROM stores WHERE id = $1", id).Scan(&st.ID, &st.Name)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, notFound("store %d", id)
		}
		return nil, fmt.Errorf("failed to get store %d: %w", id, err)
	}
	return &st, nil
}

func getWarehouseQ(ctx context.Context, q pgxQuerier, id int64) (*Warehouse, error) {
	var w Warehouse
	err := q.QueryRow(ctx, "SELECT id, name, address FROM warehouses WHERE id = $1", id).
		Scan(&w.ID, &w.Name, &w.Address)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, notFound("warehouse %d", id)
		}
		return nil, fmt.Errorf("failed to get warehouse %d: %w", id, err)
	}
	return &w, nil
}

func getShowroomQ(ctx context.Context, q pgxQuerier, id int64) (*Showroom, error) {
	var sh Showroom
	err := q.QueryRow(ctx, "SELECT id, warehouse_id, name, address FROM showrooms WHERE id = $1", id).
		Scan(&sh.ID, &sh.WarehouseID, &sh.Name, &sh.Address)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, notFound("showroom %d", id)
		}
		return nil, fmt.Errorf("failed to get showroom %d: %w", id, err)
	}
	return &sh, nil
}
