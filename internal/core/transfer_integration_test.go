package core_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"

	"sample-logistics/internal/core"
)

// receivedChairs dispatches n chairs to North with showroom A eligible, receives
// them and returns the resulting warehouse entry.
func receivedChairs(t *testing.T, ctx context.Context, dispatches core.DispatchService, samples core.SampleService, n int) core.Sample {
	t.Helper()
	d, err := dispatches.CreateDispatch(ctx, core.CreateDispatchInput{
		StoreID: storeAcme, WarehouseID: whNorth,
		ShowroomIDs: []int64{srNorthA},
		Lines:       []core.DispatchLineInput{{ProductUnitID: unitChair, Quantity: n}},
	})
	if err != nil {
		t.Fatalf("CreateDispatch failed: %v", err)
	}
	if _, err := dispatches.ReceiveDispatch(ctx, d.ID, nil); err != nil {
		t.Fatalf("ReceiveDispatch failed: %v", err)
	}
	list, err := samples.ListSamples(ctx, core.SampleFilter{DispatchID: d.ID})
	if err != nil || len(list) != 1 {
		t.Fatalf("Expected one received entry, got %d (err %v)", len(list), err)
	}
	return list[0]
}

func TestTransfer_WarehouseToShowroom(t *testing.T) {
	_, dispatches, samples, ctx := setupServices(t)
	src := receivedChairs(t, ctx, dispatches, samples, 5)

	showroom := srNorthA
	res, err := samples.TransferSample(ctx, core.TransferInput{SampleID: src.ID, ShowroomID: &showroom, Quantity: 3})
	if err != nil {
		t.Fatalf("TransferSample failed: %v", err)
	}
	if res.Source == nil || res.Source.Quantity != 2 || res.SourceDeleted {
		t.Errorf("Expected source left with 2, got %+v", res.Source)
	}
	if !res.Created || res.Destination.Quantity != 3 {
		t.Errorf("Expected new destination with 3, got created=%v qty=%d", res.Created, res.Destination.Quantity)
	}
	if res.Destination.Location != core.ShowroomRef(srNorthA) || res.Destination.WarehouseID != whNorth {
		t.Errorf("Unexpected destination location %s / warehouse %d", res.Destination.Location, res.Destination.WarehouseID)
	}
	if res.Destination.DispatchID == nil || *res.Destination.DispatchID != *src.DispatchID {
		t.Errorf("Expected dispatch origin carried to new entry")
	}
	if len(res.Destination.Showrooms) != 1 || res.Destination.Showrooms[0] != srNorthA {
		t.Errorf("Expected showroom set copied, got %v", res.Destination.Showrooms)
	}

	destBefore := 0
	if src.Quantity != res.Source.Quantity+res.Destination.Quantity-destBefore {
		t.Errorf("Quantity not conserved: before %d, after %d + %d", src.Quantity, res.Source.Quantity, res.Destination.Quantity)
	}
}

func TestTransfer_FullQuantityDeletesSourceAndMerges(t *testing.T) {
	pool, dispatches, samples, ctx := setupServices(t)
	src := receivedChairs(t, ctx, dispatches, samples, 5)

	showroom := srNorthA
	first, err := samples.TransferSample(ctx, core.TransferInput{SampleID: src.ID, ShowroomID: &showroom, Quantity: 2})
	if err != nil {
		t.Fatalf("First transfer failed: %v", err)
	}

	// Back to the warehouse: merges into the remaining warehouse entry.
	back, err := samples.TransferSample(ctx, core.TransferInput{SampleID: first.Destination.ID, Quantity: 2})
	if err != nil {
		t.Fatalf("Return transfer failed: %v", err)
	}
	if !back.SourceDeleted || back.Source != nil {
		t.Errorf("Expected showroom entry deleted after full transfer")
	}
	if back.Created || back.Destination.ID != src.ID || back.Destination.Quantity != 5 {
		t.Errorf("Expected merge into entry %d with 5, got %+v", src.ID, back.Destination)
	}
	if n := countSamples(t, ctx, pool, unitChair, core.ShowroomRef(srNorthA)); n != 0 {
		t.Errorf("Expected no showroom entry, got %d", n)
	}
	if n := countSamples(t, ctx, pool, unitChair, core.WarehouseRef(whNorth)); n != 1 {
		t.Errorf("Expected exactly one warehouse entry, got %d", n)
	}
	if _, err := samples.GetSample(ctx, first.Destination.ID); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("Expected deleted entry to be gone, got %v", err)
	}
}

func TestTransfer_SameKindRejected(t *testing.T) {
	_, dispatches, samples, ctx := setupServices(t)
	src := receivedChairs(t, ctx, dispatches, samples, 5)

	// Warehouse entry with no showroom resolves back to a warehouse.
	_, err := samples.TransferSample(ctx, core.TransferInput{SampleID: src.ID, Quantity: 1})
	if !errors.Is(err, core.ErrInvalidTransfer) {
		t.Fatalf("Expected ErrInvalidTransfer for warehouse to warehouse, got %v", err)
	}

	showroomA := srNorthA
	moved, err := samples.TransferSample(ctx, core.TransferInput{SampleID: src.ID, ShowroomID: &showroomA, Quantity: 2})
	if err != nil {
		t.Fatalf("TransferSample failed: %v", err)
	}

	showroomB := srNorthB
	_, err = samples.TransferSample(ctx, core.TransferInput{SampleID: moved.Destination.ID, ShowroomID: &showroomB, Quantity: 1})
	if !errors.Is(err, core.ErrInvalidTransfer) {
		t.Fatalf("Expected ErrInvalidTransfer for showroom to showroom, got %v", err)
	}

	after, err := samples.GetSample(ctx, moved.Destination.ID)
	if err != nil {
		t.Fatalf("GetSample failed: %v", err)
	}
	if after.Quantity != 2 {
		t.Errorf("Rejected transfer must not change the source, got %d", after.Quantity)
	}
}

func TestTransfer_Validation(t *testing.T) {
	_, dispatches, samples, ctx := setupServices(t)
	src := receivedChairs(t, ctx, dispatches, samples, 5)

	showroom := srNorthA
	foreign := srSouthA
	missing := int64(999)

	_, err := samples.TransferSample(ctx, core.TransferInput{SampleID: src.ID, ShowroomID: &showroom, Quantity: 0})
	var valErr *core.ValidationError
	if !errors.As(err, &valErr) {
		t.Errorf("Expected ValidationError for zero quantity, got %v", err)
	}

	_, err = samples.TransferSample(ctx, core.TransferInput{SampleID: src.ID, ShowroomID: &showroom, Quantity: 6})
	var qtyErr *core.InsufficientQuantityError
	if !errors.As(err, &qtyErr) {
		t.Errorf("Expected InsufficientQuantityError, got %v", err)
	}

	_, err = samples.TransferSample(ctx, core.TransferInput{SampleID: src.ID, ShowroomID: &foreign, Quantity: 1})
	if !errors.As(err, &valErr) {
		t.Errorf("Expected ValidationError for showroom of another warehouse, got %v", err)
	}

	_, err = samples.TransferSample(ctx, core.TransferInput{SampleID: src.ID, ShowroomID: &missing, Quantity: 1})
	if !errors.As(err, &valErr) {
		t.Errorf("Expected ValidationError for unknown showroom, got %v", err)
	}

	_, err = samples.TransferSample(ctx, core.TransferInput{SampleID: 999, ShowroomID: &showroom, Quantity: 1})
	if !errors.Is(err, core.ErrNotFound) {
		t.Errorf("Expected ErrNotFound for unknown sample, got %v", err)
	}
}

func TestTransfer_CustomPolicyAllowsSameKind(t *testing.T) {
	pool, dispatches, samples, ctx := setupServices(t)
	src := receivedChairs(t, ctx, dispatches, samples, 4)

	permissive := core.NewSampleServiceWithPolicy(pool, core.NewLedger(),
		func(from, to core.LocationKind) bool { return true })

	showroomA := srNorthA
	moved, err := permissive.TransferSample(ctx, core.TransferInput{SampleID: src.ID, ShowroomID: &showroomA, Quantity: 2})
	if err != nil {
		t.Fatalf("TransferSample failed: %v", err)
	}

	showroomB := srNorthB
	res, err := permissive.TransferSample(ctx, core.TransferInput{SampleID: moved.Destination.ID, ShowroomID: &showroomB, Quantity: 2})
	if err != nil {
		t.Fatalf("Showroom to showroom under permissive policy failed: %v", err)
	}
	if res.Destination.Location != core.ShowroomRef(srNorthB) || !res.SourceDeleted {
		t.Errorf("Unexpected result: %+v", res)
	}
}

func unitsOnHand(t *testing.T, ctx context.Context, pool *pgxpool.Pool, unitID int64) int {
	t.Helper()
	var total int
	if err := pool.QueryRow(ctx,
		"SELECT COALESCE(SUM(quantity), 0) FROM samples WHERE product_unit_id = $1", unitID).Scan(&total); err != nil {
		t.Fatalf("Failed to total samples of unit %d: %v", unitID, err)
	}
	return total
}

func TestTransfer_ConcurrentWithdrawalsSerialize(t *testing.T) {
	pool, dispatches, samples, ctx := setupServices(t)
	src := receivedChairs(t, ctx, dispatches, samples, 5)

	const workers = 6
	var wg sync.WaitGroup
	var mu sync.Mutex
	moved := 0
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			showroom := srNorthA
			_, err := samples.TransferSample(ctx, core.TransferInput{SampleID: src.ID, ShowroomID: &showroom, Quantity: 2})
			if err == nil {
				mu.Lock()
				moved += 2
				mu.Unlock()
				return
			}
			var qtyErr *core.InsufficientQuantityError
			if !errors.As(err, &qtyErr) && !errors.Is(err, core.ErrNotFound) {
				t.Errorf("Unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	if moved != 4 {
		t.Errorf("Expected exactly two transfers of 2 out of 5, got %d units moved", moved)
	}
	left, err := samples.GetSample(ctx, src.ID)
	if err != nil {
		t.Fatalf("GetSample failed: %v", err)
	}
	if left.Quantity != 5-moved {
		t.Errorf("Expected %d left at the warehouse, got %d", 5-moved, left.Quantity)
	}
	if got := unitsOnHand(t, ctx, pool, unitChair); got != 5 {
		t.Errorf("Quantity not conserved: expected 5 across warehouse and showroom, got %d", got)
	}
}

func TestTransfer_OppositeDirectionsDoNotDeadlock(t *testing.T) {
	pool, dispatches, samples, ctx := setupServices(t)
	atWarehouse := receivedChairs(t, ctx, dispatches, samples, 10)

	showroom := srNorthA
	first, err := samples.TransferSample(ctx, core.TransferInput{SampleID: atWarehouse.ID, ShowroomID: &showroom, Quantity: 5})
	if err != nil {
		t.Fatalf("Initial transfer failed: %v", err)
	}
	atShowroom := first.Destination

	// Each pair locks the two entries in opposite order; the database breaks the
	// cycle and the losing transaction is replayed.
	const pairs = 3
	var wg sync.WaitGroup
	for i := 0; i < pairs; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			sr := srNorthA
			if _, err := samples.TransferSample(ctx, core.TransferInput{SampleID: atWarehouse.ID, ShowroomID: &sr, Quantity: 1}); err != nil {
				t.Errorf("Warehouse to showroom failed: %v", err)
			}
		}()
		go func() {
			defer wg.Done()
			if _, err := samples.TransferSample(ctx, core.TransferInput{SampleID: atShowroom.ID, Quantity: 1}); err != nil {
				t.Errorf("Showroom to warehouse failed: %v", err)
			}
		}()
	}
	wg.Wait()

	wh, err := samples.GetSample(ctx, atWarehouse.ID)
	if err != nil {
		t.Fatalf("GetSample failed: %v", err)
	}
	sr, err := samples.GetSample(ctx, atShowroom.ID)
	if err != nil {
		t.Fatalf("GetSample failed: %v", err)
	}
	if wh.Quantity != 5 || sr.Quantity != 5 {
		t.Errorf("Expected 5 and 5 after balanced moves, got %d and %d", wh.Quantity, sr.Quantity)
	}
	if got := unitsOnHand(t, ctx, pool, unitChair); got != 10 {
		t.Errorf("Quantity not conserved: expected 10, got %d", got)
	}
}
