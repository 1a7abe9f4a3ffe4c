package core_test

import (
	"errors"
	"testing"

	"sample-logistics/internal/core"
)

func TestStock_AdjustNeverGoesNegative(t *testing.T) {
	pool, _, _, ctx := setupServices(t)
	stock := core.NewStockService(pool)

	u, err := stock.AdjustStock(ctx, unitChair, -4)
	if err != nil {
		t.Fatalf("AdjustStock failed: %v", err)
	}
	if u.Quantity != chairStock-4 {
		t.Errorf("expected %d, got %d", chairStock-4, u.Quantity)
	}

	_, err = stock.AdjustStock(ctx, unitChair, -(chairStock - 3))
	if !errors.Is(err, core.ErrInvalidOperation) {
		t.Fatalf("expected ErrInvalidOperation, got %v", err)
	}
	if got := stockOf(t, ctx, pool, unitChair); got != chairStock-4 {
		t.Errorf("rejected adjustment changed stock to %d", got)
	}

	var ve *core.ValidationError
	if _, err := stock.AdjustStock(ctx, unitChair, 0); !errors.As(err, &ve) {
		t.Errorf("expected ValidationError for zero delta, got %v", err)
	}
	if _, err := stock.AdjustStock(ctx, 999, 1); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestStock_SetStock(t *testing.T) {
	pool, _, _, ctx := setupServices(t)
	stock := core.NewStockService(pool)

	u, err := stock.SetStock(ctx, unitLamp, 0)
	if err != nil {
		t.Fatalf("SetStock failed: %v", err)
	}
	if u.Quantity != 0 || u.SKU != "LP-01" || u.StoreID != storeAcme {
		t.Errorf("unexpected unit after count: %+v", u)
	}

	var ve *core.ValidationError
	if _, err := stock.SetStock(ctx, unitLamp, -1); !errors.As(err, &ve) || ve.Field != "quantity" {
		t.Errorf("expected quantity ValidationError, got %v", err)
	}
	if _, err := stock.SetStock(ctx, 999, 3); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestStock_ListProductUnitsByStore(t *testing.T) {
	pool, _, _, ctx := setupServices(t)
	stock := core.NewStockService(pool)

	units, err := stock.ListProductUnits(ctx, storeAcme)
	if err != nil {
		t.Fatalf("ListProductUnits failed: %v", err)
	}
	if len(units) != 2 {
		t.Fatalf("expected 2 units for Acme, got %d", len(units))
	}
	// Ordered by product name.
	if units[0].ProductName != "Chair" || units[1].ProductName != "Lamp" {
		t.Errorf("unexpected order: %s, %s", units[0].ProductName, units[1].ProductName)
	}

	units, err = stock.ListProductUnits(ctx, 42)
	if err != nil {
		t.Fatalf("ListProductUnits failed: %v", err)
	}
	if units == nil || len(units) != 0 {
		t.Errorf("expected empty non-nil list, got %v", units)
	}
}

func TestDirectory_Lookups(t *testing.T) {
	pool, _, _, ctx := setupServices(t)
	dir := core.NewDirectoryService(pool)

	store, err := dir.GetStore(ctx, storeOther)
	if err != nil {
		t.Fatalf("GetStore failed: %v", err)
	}
	if store.Name != "Other Goods" {
		t.Errorf("unexpected store %+v", store)
	}
	if _, err := dir.GetStore(ctx, 99); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}

	whs, err := dir.ListWarehouses(ctx)
	if err != nil {
		t.Fatalf("ListWarehouses failed: %v", err)
	}
	if len(whs) != 2 || whs[0].ID != whNorth || whs[1].ID != whSouth {
		t.Errorf("unexpected warehouses %+v", whs)
	}

	srs, err := dir.ListShowrooms(ctx, whNorth)
	if err != nil {
		t.Fatalf("ListShowrooms failed: %v", err)
	}
	if len(srs) != 2 {
		t.Errorf("expected 2 north showrooms, got %d", len(srs))
	}
}
