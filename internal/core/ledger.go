package core

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// InventoryLedger maintains Sample entries. Every method works inside a
// caller-owned transaction so paired operations (withdraw at origin, upsert at
// destination) commit together or not at all.
type InventoryLedger interface {
	// LockTx loads a ledger entry by id and holds its row lock until the
	// transaction ends.
	LockTx(ctx context.Context, tx pgx.Tx, sampleID int64) (*Sample, error)
	// FindForUpdateTx locks the entry for (productUnitID, loc). It returns nil, nil
	// when no entry exists.
	FindForUpdateTx(ctx context.Context, tx pgx.Tx, productUnitID int64, loc LocationRef) (*Sample, error)
	// UpsertTx adds Delta to the entry at (Location, ProductUnitID), creating it
	// when absent and Delta > 0.
	UpsertTx(ctx context.Context, tx pgx.Tx, in UpsertInput) (*UpsertResult, error)
	// WithdrawTx removes amount units from the entry and deletes it when emptied.
	// It returns nil when the entry was deleted.
	WithdrawTx(ctx context.Context, tx pgx.Tx, sample *Sample, amount int) (*Sample, error)
}

// UpsertInput describes one ledger injection or merge.
type UpsertInput struct {
	Location      LocationRef
	WarehouseID   int64 // operational parent stored on a created entry
	ProductUnitID int64
	Delta         int
	DispatchID    *int64  // origin stored on a created entry; merges keep theirs
	Showrooms     []int64 // source eligible-showroom set, fed to the propagation policy
}

// UpsertResult is the post-operation state of an upsert.
type UpsertResult struct {
	Sample  *Sample // nil when the entry was deleted
	Created bool
	Deleted bool
}

type ledger struct {
	propagate ShowroomPropagation
}

// NewLedger returns the Postgres-backed ledger using PropagateShowrooms.
func NewLedger() InventoryLedger {
	return &ledger{propagate: PropagateShowrooms}
}

// NewLedgerWithPropagation returns a ledger with a custom eligible-showroom policy.
func NewLedgerWithPropagation(p ShowroomPropagation) InventoryLedger {
	return &ledger{propagate: p}
}

func (l *ledger) LockTx(ctx context.Context, tx pgx.Tx, sampleID int64) (*Sample, error) {
	s, err := scanSample(tx.QueryRow(ctx,
		"SELECT "+sampleColumns+" FROM samples s WHERE s.id = $1 FOR UPDATE", sampleID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, notFound("sample %d", sampleID)
		}
		return nil, fmt.Errorf("failed to lock sample %d: %w", sampleID, err)
	}
	return s, nil
}

func (l *ledger) FindForUpdateTx(ctx context.Context, tx pgx.Tx, productUnitID int64, loc LocationRef) (*Sample, error) {
	s, err := scanSample(tx.QueryRow(ctx, `
		SELECT `+sampleColumns+`
		FROM samples s
		WHERE s.product_unit_id = $1 AND s.location_kind = $2 AND s.location_id = $3
		FOR UPDATE
	`, productUnitID, string(loc.kind), loc.id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to lock sample of unit %d at %s: %w", productUnitID, loc, err)
	}
	return s, nil
}

func (l *ledger) UpsertTx(ctx context.Context, tx pgx.Tx, in UpsertInput) (*UpsertResult, error) {
	if in.Location.IsZero() {
		return nil, fmt.Errorf("%w: upsert without a location", ErrInvalidOperation)
	}

	existing, err := l.FindForUpdateTx(ctx, tx, in.ProductUnitID, in.Location)
	if err != nil {
		return nil, err
	}

	if existing != nil {
		return l.mergeTx(ctx, tx, existing, in)
	}

	if in.Delta <= 0 {
		return nil, fmt.Errorf("%w: cannot create sample of unit %d at %s with quantity %d",
			ErrInvalidOperation, in.ProductUnitID, in.Location, in.Delta)
	}

	showrooms := l.propagate(true, in.Showrooms)
	if showrooms == nil {
		showrooms = []int64{}
	}

	// A concurrent creator may win between the lookup and the insert; the conflict
	// branch then merges into its row instead of failing.
	var inserted bool
	s, err := scanSample(tx.QueryRow(ctx, `
		INSERT INTO samples AS s (product_unit_id, location_kind, location_id, warehouse_id,
		                          quantity, dispatch_id, showroom_allowlist)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (product_unit_id, location_kind, location_id)
		DO UPDATE SET quantity = s.quantity + EXCLUDED.quantity, updated_at = NOW()
		RETURNING `+sampleColumns+`, (s.xmax = 0)
	`, in.ProductUnitID, string(in.Location.kind), in.Location.id, in.WarehouseID,
		in.Delta, in.DispatchID, showrooms), &inserted)
	if err != nil {
		return nil, fmt.Errorf("failed to create sample of unit %d at %s: %w", in.ProductUnitID, in.Location, err)
	}
	return &UpsertResult{Sample: s, Created: inserted}, nil
}

func (l *ledger) mergeTx(ctx context.Context, tx pgx.Tx, existing *Sample, in UpsertInput) (*UpsertResult, error) {
	newQty := existing.Quantity + in.Delta
	if newQty < 0 {
		return nil, fmt.Errorf("%w: sample %d holds %d, cannot apply %d",
			ErrInvalidOperation, existing.ID, existing.Quantity, in.Delta)
	}
	if newQty == 0 {
		if _, err := tx.Exec(ctx, "DELETE FROM samples WHERE id = $1", existing.ID); err != nil {
			return nil, fmt.Errorf("failed to delete emptied sample %d: %w", existing.ID, err)
		}
		return &UpsertResult{Deleted: true}, nil
	}

	// nil from the policy leaves the existing set alone.
	showrooms := l.propagate(false, in.Showrooms)

	s, err := scanSample(tx.QueryRow(ctx, `
		UPDATE samples s
		SET quantity = s.quantity + $2,
		    showroom_allowlist = COALESCE($3, s.showroom_allowlist),
		    updated_at = NOW()
		WHERE s.id = $1
		RETURNING `+sampleColumns,
		existing.ID, in.Delta, showrooms))
	if err != nil {
		return nil, fmt.Errorf("failed to merge into sample %d: %w", existing.ID, err)
	}
	return &UpsertResult{Sample: s}, nil
}

func (l *ledger) WithdrawTx(ctx context.Context, tx pgx.Tx, sample *Sample, amount int) (*Sample, error) {
	if amount <= 0 {
		return nil, fmt.Errorf("%w: withdraw amount must be positive, got %d", ErrInvalidOperation, amount)
	}
	if amount > sample.Quantity {
		return nil, &InsufficientQuantityError{SampleID: sample.ID, Requested: amount, Available: sample.Quantity}
	}

	if amount == sample.Quantity {
		tag, err := tx.Exec(ctx, "DELETE FROM samples WHERE id = $1 AND quantity = $2", sample.ID, amount)
		if err != nil {
			return nil, fmt.Errorf("failed to delete sample %d: %w", sample.ID, err)
		}
		if tag.RowsAffected() != 1 {
			return nil, l.staleWithdraw(ctx, tx, sample, amount)
		}
		return nil, nil
	}

	s, err := scanSample(tx.QueryRow(ctx, `
		UPDATE samples s
		SET quantity = s.quantity - $2, updated_at = NOW()
		WHERE s.id = $1 AND s.quantity >= $2
		RETURNING `+sampleColumns,
		sample.ID, amount))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, l.staleWithdraw(ctx, tx, sample, amount)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to withdraw from sample %d: %w", sample.ID, err)
	}
	return s, nil
}

// staleWithdraw reports a withdraw whose guard failed because the row no longer
// matches the caller's copy.
func (l *ledger) staleWithdraw(ctx context.Context, tx pgx.Tx, sample *Sample, amount int) error {
	var current int
	err := tx.QueryRow(ctx, "SELECT quantity FROM samples WHERE id = $1", sample.ID).Scan(&current)
	if errors.Is(err, pgx.ErrNoRows) {
		return notFound("sample %d", sample.ID)
	}
	if err != nil {
		return fmt.Errorf("failed to re-read sample %d: %w", sample.ID, err)
	}
	return &InsufficientQuantityError{SampleID: sample.ID, Requested: amount, Available: current}
}
