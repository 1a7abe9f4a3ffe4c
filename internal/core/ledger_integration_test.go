package core_test

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"

	"sample-logistics/internal/core"
	"sample-logistics/internal/db"
)

// Fixture ids seeded by setupTestDB.
const (
	storeAcme   int64 = 1
	storeOther  int64 = 2
	whNorth     int64 = 1
	whSouth     int64 = 2
	srNorthA    int64 = 1
	srNorthB    int64 = 2
	srSouthA    int64 = 3
	unitChair   int64 = 1 // Acme, stock 10
	unitLamp    int64 = 2 // Acme, stock 5
	unitDesk    int64 = 3 // Other, stock 4
	chairStock        = 10
	lampStock         = 5
)

func setupTestDB(t *testing.T) *pgxpool.Pool {
	_ = godotenv.Load("../../.env")

	// Use a dedicated TEST database to avoid wiping the live app database.
	// Set TEST_DATABASE_URL in your .env or environment to run integration tests.
	dbURL := os.Getenv("TEST_DATABASE_URL")
	if dbURL == "" {
		t.Skip("TEST_DATABASE_URL not set, skipping integration test to protect live database")
	}

	ctx := context.Background()
	if err := db.Migrate(ctx, dbURL); err != nil {
		t.Fatalf("Failed to migrate test database: %v", err)
	}

	pool, err := pgxpool.New(ctx, dbURL)
	if err != nil {
		t.Fatalf("Failed to connect to test database: %v", err)
	}

	_, err = pool.Exec(ctx, `
		TRUNCATE TABLE samples, dispatch_lines, dispatch_showrooms, dispatches,
		               product_units, products, showrooms, warehouses, stores
		RESTART IDENTITY CASCADE;

		INSERT INTO stores (id, name) VALUES (1, 'Acme Furniture'), (2, 'Other Goods');
		INSERT INTO warehouses (id, name) VALUES (1, 'North'), (2, 'South');
		INSERT INTO showrooms (id, warehouse_id, name) VALUES
			(1, 1, 'North Showroom A'),
			(2, 1, 'North Showroom B'),
			(3, 2, 'South Showroom A');
		INSERT INTO products (id, store_id, name) VALUES
			(1, 1, 'Chair'),
			(2, 1, 'Lamp'),
			(3, 2, 'Desk');
		INSERT INTO product_units (id, product_id, sku, quantity) VALUES
			(1, 1, 'CH-RED', 10),
			(2, 2, 'LP-01', 5),
			(3, 3, 'DK-01', 4);

		SELECT setval('stores_id_seq', 10);
		SELECT setval('warehouses_id_seq', 10);
		SELECT setval('showrooms_id_seq', 10);
		SELECT setval('products_id_seq', 10);
		SELECT setval('product_units_id_seq', 10);
	`)
	if err != nil {
		t.Fatalf("Failed to seed test database: %v", err)
	}

	return pool
}

func setupServices(t *testing.T) (*pgxpool.Pool, core.DispatchService, core.SampleService, context.Context) {
	pool := setupTestDB(t)
	t.Cleanup(pool.Close)
	ledger := core.NewLedger()
	return pool, core.NewDispatchService(pool, ledger), core.NewSampleService(pool, ledger), context.Background()
}

func stockOf(t *testing.T, ctx context.Context, pool *pgxpool.Pool, unitID int64) int {
	t.Helper()
	var qty int
	if err := pool.QueryRow(ctx, "SELECT quantity FROM product_units WHERE id = $1", unitID).Scan(&qty); err != nil {
		t.Fatalf("Failed to read stock of unit %d: %v", unitID, err)
	}
	return qty
}

func countSamples(t *testing.T, ctx context.Context, pool *pgxpool.Pool, unitID int64, loc core.LocationRef) int {
	t.Helper()
	var n int
	err := pool.QueryRow(ctx, `
		SELECT COUNT(*) FROM samples
		WHERE product_unit_id = $1 AND location_kind = $2 AND location_id = $3
	`, unitID, string(loc.LocationKind()), loc.LocationID()).Scan(&n)
	if err != nil {
		t.Fatalf("Failed to count samples: %v", err)
	}
	return n
}

func upsert(t *testing.T, ctx context.Context, pool *pgxpool.Pool, ledger core.InventoryLedger, in core.UpsertInput) (*core.UpsertResult, error) {
	t.Helper()
	var res *core.UpsertResult
	err := db.WithTx(ctx, pool, func(tx pgx.Tx) error {
		var err error
		res, err = ledger.UpsertTx(ctx, tx, in)
		return err
	})
	return res, err
}

func TestLedger_UpsertCreatesThenMerges(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()
	ctx := context.Background()
	ledger := core.NewLedger()
	loc := core.WarehouseRef(whNorth)

	first, err := upsert(t, ctx, pool, ledger, core.UpsertInput{
		Location: loc, WarehouseID: whNorth, ProductUnitID: unitChair, Delta: 5,
		Showrooms: []int64{srNorthA, srNorthB},
	})
	if err != nil {
		t.Fatalf("First upsert failed: %v", err)
	}
	if !first.Created || first.Sample.Quantity != 5 {
		t.Fatalf("Expected created entry with quantity 5, got created=%v qty=%d", first.Created, first.Sample.Quantity)
	}
	if len(first.Sample.Showrooms) != 2 {
		t.Errorf("Expected showroom set copied onto new entry, got %v", first.Sample.Showrooms)
	}

	// Receipt of the same line again is additive.
	second, err := upsert(t, ctx, pool, ledger, core.UpsertInput{
		Location: loc, WarehouseID: whNorth, ProductUnitID: unitChair, Delta: 5,
		Showrooms: []int64{srNorthA},
	})
	if err != nil {
		t.Fatalf("Second upsert failed: %v", err)
	}
	if second.Created {
		t.Error("Expected merge, got a new entry")
	}
	if second.Sample.ID != first.Sample.ID || second.Sample.Quantity != 10 {
		t.Errorf("Expected entry %d with quantity 10, got entry %d with %d",
			first.Sample.ID, second.Sample.ID, second.Sample.Quantity)
	}
	if len(second.Sample.Showrooms) != 2 {
		t.Errorf("Merge must leave the existing showroom set unchanged, got %v", second.Sample.Showrooms)
	}
	if n := countSamples(t, ctx, pool, unitChair, loc); n != 1 {
		t.Errorf("Expected exactly one entry per (unit, location), got %d", n)
	}
}

func TestLedger_UpsertRejectsMisuse(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()
	ctx := context.Background()
	ledger := core.NewLedger()
	loc := core.ShowroomRef(srNorthA)

	_, err := upsert(t, ctx, pool, ledger, core.UpsertInput{
		Location: loc, WarehouseID: whNorth, ProductUnitID: unitChair, Delta: -1,
	})
	if !errors.Is(err, core.ErrInvalidOperation) {
		t.Fatalf("Expected ErrInvalidOperation creating with negative delta, got %v", err)
	}

	if _, err := upsert(t, ctx, pool, ledger, core.UpsertInput{
		Location: loc, WarehouseID: whNorth, ProductUnitID: unitChair, Delta: 3,
	}); err != nil {
		t.Fatalf("Seed upsert failed: %v", err)
	}

	_, err = upsert(t, ctx, pool, ledger, core.UpsertInput{
		Location: loc, WarehouseID: whNorth, ProductUnitID: unitChair, Delta: -4,
	})
	if !errors.Is(err, core.ErrInvalidOperation) {
		t.Fatalf("Expected ErrInvalidOperation driving entry negative, got %v", err)
	}

	res, err := upsert(t, ctx, pool, ledger, core.UpsertInput{
		Location: loc, WarehouseID: whNorth, ProductUnitID: unitChair, Delta: -3,
	})
	if err != nil {
		t.Fatalf("Upsert to zero failed: %v", err)
	}
	if !res.Deleted || res.Sample != nil {
		t.Errorf("Expected entry deleted at zero, got %+v", res)
	}
	if n := countSamples(t, ctx, pool, unitChair, loc); n != 0 {
		t.Errorf("Expected no entry after reaching zero, got %d", n)
	}
}

func TestLedger_WithdrawInsufficient(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()
	ctx := context.Background()
	ledger := core.NewLedger()

	res, err := upsert(t, ctx, pool, ledger, core.UpsertInput{
		Location: core.WarehouseRef(whNorth), WarehouseID: whNorth, ProductUnitID: unitLamp, Delta: 2,
	})
	if err != nil {
		t.Fatalf("Seed upsert failed: %v", err)
	}

	err = db.WithTx(ctx, pool, func(tx pgx.Tx) error {
		src, err := ledger.LockTx(ctx, tx, res.Sample.ID)
		if err != nil {
			return err
		}
		_, err = ledger.WithdrawTx(ctx, tx, src, 3)
		return err
	})
	var qtyErr *core.InsufficientQuantityError
	if !errors.As(err, &qtyErr) {
		t.Fatalf("Expected InsufficientQuantityError, got %v", err)
	}
	if qtyErr.Available != 2 || qtyErr.Requested != 3 {
		t.Errorf("Unexpected error detail: %+v", qtyErr)
	}
}
