package app

import (
	"context"

	"sample-logistics/internal/core"
)

// ApplicationService is the single interface all adapters (CLI, Web) call. It
// authorizes the actor, delegates to the core services, then records metrics and
// publishes events for whatever committed. It holds no presentation logic.
type ApplicationService interface {
	// CreateDispatch reserves stock for every line and creates the dispatch.
	CreateDispatch(ctx context.Context, actor Actor, req CreateDispatchRequest) (*DispatchResult, error)

	// UpdateDispatchShipping edits the status and/or tracking metadata. A tracking
	// number supplied here never changes the status.
	UpdateDispatchShipping(ctx context.Context, actor Actor, dispatchID int64, req UpdateShippingRequest) (*DispatchResult, error)

	// ReceiveDispatch marks the dispatch DELIVERED and credits the destination
	// warehouse's ledger. The actor is recorded as the receiver.
	ReceiveDispatch(ctx context.Context, actor Actor, dispatchID int64) (*DispatchResult, error)

	GetDispatch(ctx context.Context, actor Actor, dispatchID int64) (*DispatchResult, error)
	ListDispatches(ctx context.Context, actor Actor, req ListDispatchesRequest) (*DispatchListResult, error)

	// TransferSample moves units between a warehouse and one of its showrooms.
	TransferSample(ctx context.Context, actor Actor, req TransferRequest) (*TransferResult, error)

	GetSample(ctx context.Context, actor Actor, sampleID int64) (*SampleResult, error)
	ListSamples(ctx context.Context, actor Actor, filter core.SampleFilter) (*SampleListResult, error)
	ListShowrooms(ctx context.Context, actor Actor, warehouseID int64) (*ShowroomListResult, error)

	// ExportWarehouseSamples renders every ledger entry under a warehouse as XLSX.
	ExportWarehouseSamples(ctx context.Context, actor Actor, warehouseID int64) (*ExportResult, error)

	ListWarehouses(ctx context.Context, actor Actor) (*WarehouseListResult, error)

	// ListProductUnits returns a store's sellable stock per product unit.
	ListProductUnits(ctx context.Context, actor Actor, storeID int64) (*ProductUnitListResult, error)

	// AdjustStock corrects a product unit's sellable stock by delta.
	AdjustStock(ctx context.Context, actor Actor, productUnitID int64, delta int) (*ProductUnitResult, error)

	// SetStock overwrites a product unit's sellable stock after a stock count.
	SetStock(ctx context.Context, actor Actor, productUnitID int64, quantity int) (*ProductUnitResult, error)
}
