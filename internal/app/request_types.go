package app

// CreateDispatchRequest is the input for creating a dispatch.
type CreateDispatchRequest struct {
	StoreID        int64                 `json:"store_id" jsonschema:"required,minimum=1"`
	WarehouseID    int64                 `json:"warehouse_id" jsonschema:"required,minimum=1"`
	ShowroomIDs    []int64               `json:"showroom_ids,omitempty" jsonschema:"description=Showrooms of the destination warehouse the samples are intended for"`
	Lines          []DispatchLineRequest `json:"lines" jsonschema:"required,minItems=1"`
	TrackingNumber string                `json:"tracking_number,omitempty" jsonschema:"description=Supplying one creates the dispatch as SHIPPED"`
	Carrier        string                `json:"carrier,omitempty"`
}

// DispatchLineRequest is a single line within a CreateDispatchRequest.
type DispatchLineRequest struct {
	ProductUnitID int64 `json:"product_unit_id" jsonschema:"required,minimum=1"`
	Quantity      int   `json:"quantity" jsonschema:"required,minimum=1"`
}

// UpdateShippingRequest edits a dispatch. Omitted fields are left unchanged; an
// empty string clears tracking number or carrier.
type UpdateShippingRequest struct {
	Status         *string `json:"status,omitempty" jsonschema:"enum=PENDING,enum=IN_PROGRESS,enum=SHIPPED,enum=RETURNED,enum=PEN,enum=PRG,enum=SHP,enum=RET"`
	TrackingNumber *string `json:"tracking_number,omitempty"`
	Carrier        *string `json:"carrier,omitempty"`
}

// ListDispatchesRequest filters ListDispatches. Zero fields are ignored.
type ListDispatchesRequest struct {
	StoreID     int64
	WarehouseID int64
	Status      string // full name or legacy code
	InFlight    bool   // hide DELIVERED
}

// TransferRequest moves Quantity units of SampleID. A nil ShowroomID returns the
// units to the sample's warehouse.
type TransferRequest struct {
	SampleID   int64  `json:"-"`
	ShowroomID *int64 `json:"showroom_id,omitempty" jsonschema:"description=Destination showroom; omit to return units to the warehouse"`
	Quantity   int    `json:"quantity" jsonschema:"required,minimum=1"`
}
