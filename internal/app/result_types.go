package app

import "sample-logistics/internal/core"

// DispatchResult is returned by dispatch lifecycle operations.
type DispatchResult struct {
	Dispatch *core.Dispatch
}

// DispatchListResult is returned by ListDispatches.
type DispatchListResult struct {
	Dispatches []core.Dispatch
}

// TransferResult is returned by TransferSample.
type TransferResult struct {
	Transfer *core.TransferResult
}

// SampleResult is returned by GetSample.
type SampleResult struct {
	Sample *core.Sample
}

// SampleListResult is returned by ListSamples.
type SampleListResult struct {
	Samples []core.Sample
	Total   int // sum of quantities
}

// ShowroomListResult is returned by ListShowrooms.
type ShowroomListResult struct {
	Warehouse *core.Warehouse
	Showrooms []core.Showroom
}

// ExportResult is an in-memory XLSX workbook.
type ExportResult struct {
	FileName string
	Content  []byte
}

// ProductUnitResult is returned by AdjustStock.
type ProductUnitResult struct {
	ProductUnit *core.ProductUnit
}

// WarehouseListResult is returned by ListWarehouses.
type WarehouseListResult struct {
	Warehouses []core.Warehouse
}

// ProductUnitListResult is returned by ListProductUnits.
type ProductUnitListResult struct {
	Store        *core.Store
	ProductUnits []core.ProductUnit
}
