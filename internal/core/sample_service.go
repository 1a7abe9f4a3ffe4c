package core

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"sample-logistics/internal/db"
)

// SampleService moves ledger entries between a warehouse and its showrooms and
// answers ledger queries.
type SampleService interface {
	// TransferSample moves Quantity units of a sample to a showroom of the same
	// warehouse, or back to the warehouse when ShowroomID is nil.
	TransferSample(ctx context.Context, in TransferInput) (*TransferResult, error)

	GetSample(ctx context.Context, sampleID int64) (*Sample, error)
	ListSamples(ctx context.Context, filter SampleFilter) ([]Sample, error)
}

type sampleService struct {
	pool   *pgxpool.Pool
	ledger InventoryLedger
	allow  TransferPolicy
}

// NewSampleService returns a SampleService that only allows moves between
// different kinds of location.
func NewSampleService(pool *pgxpool.Pool, ledger InventoryLedger) SampleService {
	return NewSampleServiceWithPolicy(pool, ledger, DistinctKindsOnly)
}

func NewSampleServiceWithPolicy(pool *pgxpool.Pool, ledger InventoryLedger, policy TransferPolicy) SampleService {
	return &sampleService{pool: pool, ledger: ledger, allow: policy}
}

func (s *sampleService) TransferSample(ctx context.Context, in TransferInput) (*TransferResult, error) {
	if in.Quantity <= 0 {
		return nil, invalid("quantity", "must be positive, got %d", in.Quantity)
	}

	var result *TransferResult
	err := db.WithTx(ctx, s.pool, func(tx pgx.Tx) error {
		src, err := s.ledger.LockTx(ctx, tx, in.SampleID)
		if err != nil {
			return err
		}

		dest, showroom, err := resolveDestination(ctx, tx, src, in.ShowroomID)
		if err != nil {
			return err
		}
		if !s.allow(src.Location.LocationKind(), dest.LocationKind()) {
			return fmt.Errorf("%w: sample %d is at a %s and cannot move to another %s",
				ErrInvalidTransfer, src.ID, src.Location.LocationKind(), dest.LocationKind())
		}
		if showroom != nil && showroom.WarehouseID != src.WarehouseID {
			return invalid("showroom_id", "showroom %d belongs to warehouse %d, sample %d is held by warehouse %d",
				showroom.ID, showroom.WarehouseID, src.ID, src.WarehouseID)
		}
		if dest == src.Location {
			return fmt.Errorf("%w: sample %d is already at %s", ErrInvalidTransfer, src.ID, dest)
		}
		if in.Quantity > src.Quantity {
			return &InsufficientQuantityError{SampleID: src.ID, Requested: in.Quantity, Available: src.Quantity}
		}

		up, err := s.ledger.UpsertTx(ctx, tx, UpsertInput{
			Location:      dest,
			WarehouseID:   src.WarehouseID,
			ProductUnitID: src.ProductUnitID,
			Delta:         in.Quantity,
			DispatchID:    src.DispatchID,
			Showrooms:     src.Showrooms,
		})
		if err != nil {
			return err
		}

		remaining, err := s.ledger.WithdrawTx(ctx, tx, src, in.Quantity)
		if err != nil {
			return err
		}

		result = &TransferResult{
			Destination:   *up.Sample,
			Source:        remaining,
			SourceDeleted: remaining == nil,
			Created:       up.Created,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// resolveDestination returns the named showroom, or the source's parent warehouse
// when showroomID is nil.
func resolveDestination(ctx context.Context, q pgxQuerier, src *Sample, showroomID *int64) (LocationRef, *Showroom, error) {
	if showroomID == nil {
		return WarehouseRef(src.WarehouseID), nil, nil
	}
	sh, err := getShowroomQ(ctx, q, *showroomID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return LocationRef{}, nil, invalid("showroom_id", "showroom %d does not exist", *showroomID)
		}
		return LocationRef{}, nil, err
	}
	return RefOf(sh), sh, nil
}

const sampleReadQuery = `
	SELECT ` + sampleColumns + `, pu.sku, p.name, st.id, st.name, COALESCE(w.name, sh.name, '')
	FROM samples s
	JOIN product_units pu ON pu.id = s.product_unit_id
	JOIN products p ON p.id = pu.product_id
	JOIN stores st ON st.id = p.store_id
	LEFT JOIN warehouses w ON s.location_kind = 'warehouse' AND w.id = s.location_id
	LEFT JOIN showrooms sh ON s.location_kind = 'showroom' AND sh.id = s.location_id`

func scanSampleRead(row rowScanner) (*Sample, error) {
	var sku, productName, storeName, locationName string
	var storeID int64
	s, err := scanSample(row, &sku, &productName, &storeID, &storeName, &locationName)
	if err != nil {
		return nil, err
	}
	s.SKU, s.ProductName, s.StoreID, s.StoreName, s.LocationName = sku, productName, storeID, storeName, locationName
	return s, nil
}

func (s *sampleService) GetSample(ctx context.Context, sampleID int64) (*Sample, error) {
	sample, err := scanSampleRead(s.pool.QueryRow(ctx, sampleReadQuery+" WHERE s.id = $1", sampleID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, notFound("sample %d", sampleID)
		}
		return nil, fmt.Errorf("failed to get sample %d: %w", sampleID, err)
	}
	return sample, nil
}

func (s *sampleService) ListSamples(ctx context.Context, filter SampleFilter) ([]Sample, error) {
	query := sampleReadQuery + " WHERE 1=1"
	var args []any
	if filter.WarehouseID > 0 {
		args = append(args, filter.WarehouseID)
		query += fmt.Sprintf(" AND s.warehouse_id = $%d", len(args))
	}
	if filter.ShowroomID > 0 {
		args = append(args, string(KindShowroom), filter.ShowroomID)
		query += fmt.Sprintf(" AND s.location_kind = $%d AND s.location_id = $%d", len(args)-1, len(args))
	}
	if filter.DispatchID > 0 {
		args = append(args, filter.DispatchID)
		query += fmt.Sprintf(" AND s.dispatch_id = $%d", len(args))
	}
	if filter.StoreID > 0 {
		args = append(args, filter.StoreID)
		query += fmt.Sprintf(" AND st.id = $%d", len(args))
	}
	if filter.Kind != "" {
		args = append(args, string(filter.Kind))
		query += fmt.Sprintf(" AND s.location_kind = $%d", len(args))
	}
	query += " ORDER BY s.location_kind DESC, s.location_id, p.name, s.id"

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query samples: %w", err)
	}
	defer rows.Close()

	samples := []Sample{}
	for rows.Next() {
		sample, err := scanSampleRead(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan sample: %w", err)
		}
		samples = append(samples, *sample)
	}
	return samples, rows.Err()
}
