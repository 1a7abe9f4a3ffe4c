package core

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// pgxQuerier is satisfied by both *pgxpool.Pool and pgx.Tx, so read helpers can run
// either standalone or inside a caller's transaction.
type pgxQuerier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// rowScanner is satisfied by pgx.Row and pgx.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

const sampleColumns = `s.id, s.product_unit_id, s.location_kind, s.location_id, s.warehouse_id,
	s.quantity, s.dispatch_id, s.showroom_allowlist, s.created_at, s.updated_at`

// scanSample scans sampleColumns followed by any extra destinations.
func scanSample(row rowScanner, extra ...any) (*Sample, error) {
	var s Sample
	var kind string
	dest := []any{
		&s.ID, &s.ProductUnitID, &kind, &s.Location.id, &s.WarehouseID,
		&s.Quantity, &s.DispatchID, &s.Showrooms, &s.CreatedAt, &s.UpdatedAt,
	}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		return nil, err
	}
	s.Location.kind = LocationKind(kind)
	if s.Showrooms == nil {
		s.Showrooms = []int64{}
	}
	return &s, nil
}
