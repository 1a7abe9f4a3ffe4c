package core

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"sample-logistics/internal/db"
)

// DispatchService manages the dispatch lifecycle: creation with stock reservation,
// shipping edits, and receipt into the destination warehouse's ledger.
type DispatchService interface {
	// CreateDispatch reserves stock for every line and persists the dispatch. Either
	// every line is reserved and the dispatch exists, or nothing changed.
	CreateDispatch(ctx context.Context, in CreateDispatchInput) (*Dispatch, error)
	// UpdateShipping applies a status and/or metadata edit.
	UpdateShipping(ctx context.Context, dispatchID int64, upd ShippingUpdate) (*Dispatch, error)
	// ReceiveDispatch marks the dispatch DELIVERED and credits each line to the
	// destination warehouse's ledger. receivedBy may be nil.
	ReceiveDispatch(ctx context.Context, dispatchID int64, receivedBy *int64) (*Dispatch, error)

	GetDispatch(ctx context.Context, dispatchID int64) (*Dispatch, error)
	ListDispatches(ctx context.Context, filter DispatchFilter) ([]Dispatch, error)
}

type dispatchService struct {
	pool   *pgxpool.Pool
	ledger InventoryLedger
}

func NewDispatchService(pool *pgxpool.Pool, ledger InventoryLedger) DispatchService {
	return &dispatchService{pool: pool, ledger: ledger}
}

func validateCreateDispatch(in CreateDispatchInput) error {
	if in.StoreID <= 0 {
		return invalid("store_id", "is required")
	}
	if in.WarehouseID <= 0 {
		return invalid("warehouse_id", "is required")
	}
	if len(in.Lines) == 0 {
		return invalid("lines", "at least one line is required")
	}
	for i, l := range in.Lines {
		if l.ProductUnitID <= 0 {
			return invalid(fmt.Sprintf("lines[%d].product_unit_id", i), "is required")
		}
		if l.Quantity <= 0 {
			return invalid(fmt.Sprintf("lines[%d].quantity", i), "must be positive, got %d", l.Quantity)
		}
	}
	for i, id := range in.ShowroomIDs {
		if id <= 0 {
			return invalid(fmt.Sprintf("showroom_ids[%d]", i), "must be a positive id")
		}
	}
	return nil
}

// dedupeIDs returns the distinct ids in ascending order.
func dedupeIDs(ids []int64) []int64 {
	seen := make(map[int64]bool, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// referenceError turns a foreign key violation, raised when a referenced row was
// deleted after it was checked, into a ValidationError on field.
func referenceError(err error, field, action string) error {
	if db.IsForeignKeyViolation(err) {
		return invalid(field, "refers to a row that no longer exists")
	}
	return fmt.Errorf("%s: %w", action, err)
}

func optionalText(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

func (s *dispatchService) CreateDispatch(ctx context.Context, in CreateDispatchInput) (*Dispatch, error) {
	if err := validateCreateDispatch(in); err != nil {
		return nil, err
	}
	showroomIDs := dedupeIDs(in.ShowroomIDs)

	var dispatchID int64
	err := db.WithTx(ctx, s.pool, func(tx pgx.Tx) error {
		if _, err := getStoreQ(ctx, tx, in.StoreID); err != nil {
			if errors.Is(err, ErrNotFound) {
				return invalid("store_id", "store %d does not exist", in.StoreID)
			}
			return err
		}
		if _, err := getWarehouseQ(ctx, tx, in.WarehouseID); err != nil {
			if errors.Is(err, ErrNotFound) {
				return invalid("warehouse_id", "warehouse %d does not exist", in.WarehouseID)
			}
			return err
		}
		for _, id := range showroomIDs {
			sh, err := getShowroomQ(ctx, tx, id)
			if err != nil {
				if errors.Is(err, ErrNotFound) {
					return invalid("showroom_ids", "showroom %d does not exist", id)
				}
				return err
			}
			if sh.WarehouseID != in.WarehouseID {
				return invalid("showroom_ids", "showroom %d belongs to warehouse %d, not %d",
					id, sh.WarehouseID, in.WarehouseID)
			}
		}

		status := InitialStatus(in.TrackingNumber)
		err := tx.QueryRow(ctx, `
			INSERT INTO dispatches (store_id, warehouse_id, status, tracking_number, carrier)
			VALUES ($1, $2, $3, $4, $5)
			RETURNING id
		`, in.StoreID, in.WarehouseID, string(status),
			optionalText(in.TrackingNumber), optionalText(in.Carrier)).Scan(&dispatchID)
		if err != nil {
			return referenceError(err, "store_id", "failed to insert dispatch")
		}

		for _, id := range showroomIDs {
			if _, err := tx.Exec(ctx,
				"INSERT INTO dispatch_showrooms (dispatch_id, showroom_id) VALUES ($1, $2)",
				dispatchID, id); err != nil {
				return referenceError(err, "showroom_ids", fmt.Sprintf("failed to link showroom %d", id))
			}
		}

		// Check and decrement per line in request order. A later line for the same
		// unit sees the stock left by earlier lines.
		for i, line := range in.Lines {
			var available int
			var ownerStoreID int64
			err := tx.QueryRow(ctx, `
				SELECT pu.quantity, p.store_id
				FROM product_units pu
				JOIN products p ON p.id = pu.product_id
				WHERE pu.id = $1
				FOR UPDATE OF pu
			`, line.ProductUnitID).Scan(&available, &ownerStoreID)
			if err != nil {
				if errors.Is(err, pgx.ErrNoRows) {
					return invalid(fmt.Sprintf("lines[%d].product_unit_id", i),
						"product unit %d does not exist", line.ProductUnitID)
				}
				return fmt.Errorf("failed to lock product unit %d: %w", line.ProductUnitID, err)
			}
			if ownerStoreID != in.StoreID {
				return invalid(fmt.Sprintf("lines[%d].product_unit_id", i),
					"product unit %d does not belong to store %d", line.ProductUnitID, in.StoreID)
			}
			if available < line.Quantity {
				return &InsufficientStockError{
					LineIndex:     i,
					ProductUnitID: line.ProductUnitID,
					Requested:     line.Quantity,
					Available:     available,
				}
			}

			if _, err := tx.Exec(ctx, `
				UPDATE product_units SET quantity = quantity - $1, updated_at = NOW()
				WHERE id = $2
			`, line.Quantity, line.ProductUnitID); err != nil {
				return fmt.Errorf("failed to reserve stock of product unit %d: %w", line.ProductUnitID, err)
			}

			if _, err := tx.Exec(ctx, `
				INSERT INTO dispatch_lines (dispatch_id, line_number, product_unit_id, quantity)
				VALUES ($1, $2, $3, $4)
			`, dispatchID, i+1, line.ProductUnitID, line.Quantity); err != nil {
				return referenceError(err, fmt.Sprintf("lines[%d].product_unit_id", i), fmt.Sprintf("failed to insert dispatch line %d", i+1))
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return s.GetDispatch(ctx, dispatchID)
}

func (s *dispatchService) UpdateShipping(ctx context.Context, dispatchID int64, upd ShippingUpdate) (*Dispatch, error) {
	if upd.Status == nil && upd.TrackingNumber == nil && upd.Carrier == nil {
		return nil, invalid("", "no changes requested")
	}
	if upd.Status != nil && !upd.Status.Valid() {
		return nil, invalid("status", "unknown status %q", *upd.Status)
	}

	err := db.WithTx(ctx, s.pool, func(tx pgx.Tx) error {
		current, err := lockDispatchStatus(ctx, tx, dispatchID)
		if err != nil {
			return err
		}
		if current == StatusDelivered {
			return fmt.Errorf("%w: dispatch %d is delivered and can no longer be edited",
				ErrInvalidStatusTransition, dispatchID)
		}

		var status *string
		if upd.Status != nil {
			if !current.CanEditTo(*upd.Status) {
				return fmt.Errorf("%w: dispatch %d cannot move from %s to %s",
					ErrInvalidStatusTransition, dispatchID, current, *upd.Status)
			}
			v := string(*upd.Status)
			status = &v
		}

		// Tracking edits never touch the status; only creation derives SHIPPED
		// from a tracking number.
		_, err = tx.Exec(ctx, `
			UPDATE dispatches
			SET status = COALESCE($2, status),
			    tracking_number = CASE WHEN $3 THEN NULLIF(BTRIM($4), '') ELSE tracking_number END,
			    carrier = CASE WHEN $5 THEN NULLIF(BTRIM($6), '') ELSE carrier END,
			    updated_at = NOW()
			WHERE id = $1
		`, dispatchID, status,
			upd.TrackingNumber != nil, deref(upd.TrackingNumber),
			upd.Carrier != nil, deref(upd.Carrier))
		if err != nil {
			return fmt.Errorf("failed to update dispatch %d: %w", dispatchID, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return s.GetDispatch(ctx, dispatchID)
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func (s *dispatchService) ReceiveDispatch(ctx context.Context, dispatchID int64, receivedBy *int64) (*Dispatch, error) {
	err := db.WithTx(ctx, s.pool, func(tx pgx.Tx) error {
		var status DispatchStatus
		var warehouseID int64
		err := tx.QueryRow(ctx,
			"SELECT status, warehouse_id FROM dispatches WHERE id = $1 FOR UPDATE",
			dispatchID).Scan(&status, &warehouseID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return notFound("dispatch %d", dispatchID)
			}
			return fmt.Errorf("failed to lock dispatch %d: %w", dispatchID, err)
		}
		if status == StatusDelivered {
			return fmt.Errorf("dispatch %d: %w", dispatchID, ErrAlreadyDelivered)
		}
		if !status.CanReceive() {
			return fmt.Errorf("%w: dispatch %d is %s and cannot be received",
				ErrInvalidStatusTransition, dispatchID, status)
		}

		if _, err := tx.Exec(ctx, `
			UPDATE dispatches
			SET status = $2, received_by = $3, delivered_at = NOW(), updated_at = NOW()
			WHERE id = $1
		`, dispatchID, string(StatusDelivered), receivedBy); err != nil {
			return fmt.Errorf("failed to mark dispatch %d delivered: %w", dispatchID, err)
		}

		showrooms, err := fetchDispatchShowroomsQ(ctx, tx, dispatchID)
		if err != nil {
			return err
		}
		lines, err := fetchDispatchLinesQ(ctx, tx, dispatchID)
		if err != nil {
			return err
		}

		dest := WarehouseRef(warehouseID)
		for _, line := range lines {
			if _, err := s.ledger.UpsertTx(ctx, tx, UpsertInput{
				Location:      dest,
				WarehouseID:   warehouseID,
				ProductUnitID: line.ProductUnitID,
				Delta:         line.Quantity,
				DispatchID:    &dispatchID,
				Showrooms:     showrooms,
			}); err != nil {
				return fmt.Errorf("failed to credit line %d of dispatch %d: %w", line.LineNumber, dispatchID, err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return s.GetDispatch(ctx, dispatchID)
}

func lockDispatchStatus(ctx context.Context, tx pgx.Tx, dispatchID int64) (DispatchStatus, error) {
	var status DispatchStatus
	err := tx.QueryRow(ctx, "SELECT status FROM dispatches WHERE id = $1 FOR UPDATE", dispatchID).Scan(&status)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", notFound("dispatch %d", dispatchID)
		}
		return "", fmt.Errorf("failed to lock dispatch %d: %w", dispatchID, err)
	}
	return status, nil
}

const dispatchColumns = `
	d.id, d.store_id, st.name, d.warehouse_id, w.name, d.status,
	d.tracking_number, d.carrier, d.received_by, d.created_at, d.updated_at, d.delivered_at`

func scanDispatch(row rowScanner) (*Dispatch, error) {
	var d Dispatch
	if err := row.Scan(
		&d.ID, &d.StoreID, &d.StoreName, &d.WarehouseID, &d.WarehouseName, &d.Status,
		&d.TrackingNumber, &d.Carrier, &d.ReceivedBy, &d.CreatedAt, &d.UpdatedAt, &d.DeliveredAt,
	); err != nil {
		return nil, err
	}
	d.Showrooms = []int64{}
	d.Lines = []DispatchLine{}
	return &d, nil
}

func (s *dispatchService) GetDispatch(ctx context.Context, dispatchID int64) (*Dispatch, error) {
	d, err := scanDispatch(s.pool.QueryRow(ctx, `
		SELECT `+dispatchColumns+`
		FROM dispatches d
		JOIN stores st ON st.id = d.store_id
		JOIN warehouses w ON w.id = d.warehouse_id
		WHERE d.id = $1
	`, dispatchID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, notFound("dispatch %d", dispatchID)
		}
		return nil, fmt.Errorf("failed to get dispatch %d: %w", dispatchID, err)
	}

	if d.Showrooms, err = fetchDispatchShowroomsQ(ctx, s.pool, dispatchID); err != nil {
		return nil, err
	}
	if d.Lines, err = fetchDispatchLinesQ(ctx, s.pool, dispatchID); err != nil {
		return nil, err
	}
	return d, nil
}

func (s *dispatchService) ListDispatches(ctx context.Context, filter DispatchFilter) ([]Dispatch, error) {
	query := `
		SELECT ` + dispatchColumns + `
		FROM dispatches d
		JOIN stores st ON st.id = d.store_id
		JOIN warehouses w ON w.id = d.warehouse_id
		WHERE 1=1
	`
	var args []any
	if filter.StoreID > 0 {
		args = append(args, filter.StoreID)
		query += fmt.Sprintf(" AND d.store_id = $%d", len(args))
	}
	if filter.WarehouseID > 0 {
		args = append(args, filter.WarehouseID)
		query += fmt.Sprintf(" AND d.warehouse_id = $%d", len(args))
	}
	if filter.Status != nil {
		args = append(args, string(*filter.Status))
		query += fmt.Sprintf(" AND d.status = $%d", len(args))
	}
	if filter.InFlight {
		args = append(args, string(StatusDelivered))
		query += fmt.Sprintf(" AND d.status <> $%d", len(args))
	}
	query += " ORDER BY d.id DESC"

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query dispatches: %w", err)
	}
	defer rows.Close()

	dispatches := []Dispatch{}
	index := map[int64]int{}
	for rows.Next() {
		d, err := scanDispatch(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan dispatch: %w", err)
		}
		index[d.ID] = len(dispatches)
		dispatches = append(dispatches, *d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate dispatches: %w", err)
	}
	if len(dispatches) == 0 {
		return dispatches, nil
	}

	ids := make([]int64, 0, len(dispatches))
	for _, d := range dispatches {
		ids = append(ids, d.ID)
	}

	lines, err := s.pool.Query(ctx, dispatchLinesQuery+" WHERE dl.dispatch_id = ANY($1) ORDER BY dl.dispatch_id, dl.line_number", ids)
	if err != nil {
		return nil, fmt.Errorf("failed to query dispatch lines: %w", err)
	}
	defer lines.Close()
	for lines.Next() {
		l, err := scanDispatchLine(lines)
		if err != nil {
			return nil, fmt.Errorf("failed to scan dispatch line: %w", err)
		}
		d := &dispatches[index[l.DispatchID]]
		d.Lines = append(d.Lines, *l)
	}
	if err := lines.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate dispatch lines: %w", err)
	}

	links, err := s.pool.Query(ctx, `
		SELECT dispatch_id, showroom_id FROM dispatch_showrooms
		WHERE dispatch_id = ANY($1)
		ORDER BY dispatch_id, showroom_id
	`, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to query dispatch showrooms: %w", err)
	}
	defer links.Close()
	for links.Next() {
		var dispatchID, showroomID int64
		if err := links.Scan(&dispatchID, &showroomID); err != nil {
			return nil, fmt.Errorf("failed to scan dispatch showroom: %w", err)
		}
		d := &dispatches[index[dispatchID]]
		d.Showrooms = append(d.Showrooms, showroomID)
	}
	return dispatches, links.Err()
}

const dispatchLinesQuery = `
	SELECT dl.id, dl.dispatch_id, dl.line_number, dl.product_unit_id, pu.sku, p.name, dl.quantity
	FROM dispatch_lines dl
	JOIN product_units pu ON pu.id = dl.product_unit_id
	JOIN products p ON p.id = pu.product_id`

func scanDispatchLine(row rowScanner) (*DispatchLine, error) {
	var l DispatchLine
	if err := row.Scan(&l.ID, &l.DispatchID, &l.LineNumber, &l.ProductUnitID, &l.SKU, &l.ProductName, &l.Quantity); err != nil {
		return nil, err
	}
	return &l, nil
}

func fetchDispatchLinesQ(ctx context.Context, q pgxQuerier, dispatchID int64) ([]DispatchLine, error) {
	rows, err := q.Query(ctx, dispatchLinesQuery+" WHERE dl.dispatch_id = $1 ORDER BY dl.line_number", dispatchID)
	if err != nil {
		return nil, fmt.Errorf("failed to query lines of dispatch %d: %w", dispatchID, err)
	}
	defer rows.Close()

	lines := []DispatchLine{}
	for rows.Next() {
		l, err := scanDispatchLine(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan dispatch line: %w", err)
		}
		lines = append(lines, *l)
	}
	return lines, rows.Err()
}

func fetchDispatchShowroomsQ(ctx context.Context, q pgxQuerier, dispatchID int64) ([]int64, error) {
	rows, err := q.Query(ctx,
		"SELECT showroom_id FROM dispatch_showrooms WHERE dispatch_id = $1 ORDER BY showroom_id", dispatchID)
	if err != nil {
		return nil, fmt.Errorf("failed to query showrooms of dispatch %d: %w", dispatchID, err)
	}
	defer rows.Close()

	ids := []int64{}
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan dispatch showroom: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
