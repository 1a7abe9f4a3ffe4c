package core

import "time"

// Store is a vendor's shop. It owns products and dispatches samples.
type Store struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// Warehouse is an operational storage location that receives dispatches.
type Warehouse struct {
	ID      int64  `json:"id"`
	Name    string `json:"name"`
	Address string `json:"address"`
}

func (w Warehouse) LocationKind() LocationKind { return KindWarehouse }
func (w Warehouse) LocationID() int64          { return w.ID }

// Showroom always belongs to exactly one warehouse. Ledger entries at a showroom
// are tracked separately from entries at its parent warehouse.
type Showroom struct {
	ID          int64  `json:"id"`
	WarehouseID int64  `json:"warehouse_id"`
	Name        string `json:"name"`
	Address     string `json:"address"`
}

func (s Showroom) LocationKind() LocationKind { return KindShowroom }
func (s Showroom) LocationID() int64          { return s.ID }

// ProductUnit is a sellable SKU variant. Quantity is unsold, undispatched stock.
type ProductUnit struct {
	ID          int64  `json:"id"`
	ProductID   int64  `json:"product_id"`
	StoreID     int64  `json:"store_id"`     // joined from products
	ProductName string `json:"product_name"` // joined from products
	SKU         string `json:"sku"`
	Quantity    int    `json:"quantity"`
}

// Sample is a ledger entry: Quantity units of a product unit physically present at
// Location. At most one entry exists per (product unit, location).
type Sample struct {
	ID            int64       `json:"id"`
	ProductUnitID int64       `json:"product_unit_id"`
	Location      LocationRef `json:"location"`
	// WarehouseID is the operational parent. For warehouse entries it equals the
	// location id; for showroom entries it is the showroom's warehouse.
	WarehouseID int64     `json:"warehouse_id"`
	Quantity    int       `json:"quantity"`
	DispatchID  *int64    `json:"dispatch_id,omitempty"`
	Showrooms   []int64   `json:"showrooms"` // eligible showrooms, a hint only
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	// Read-side joins, populated by list queries.
	SKU          string `json:"sku,omitempty"`
	ProductName  string `json:"product_name,omitempty"`
	StoreID      int64  `json:"store_id,omitempty"`
	StoreName    string `json:"store_name,omitempty"`
	LocationName string `json:"location_name,omitempty"`
}

// Dispatch is a shipment of sample units from a store to a warehouse.
//
//	PENDING → IN_PROGRESS → SHIPPED → DELIVERED
//	PENDING → SHIPPED
//	PENDING | IN_PROGRESS | SHIPPED → RETURNED
type Dispatch struct {
	ID             int64          `json:"id"`
	StoreID        int64          `json:"store_id"`
	StoreName      string         `json:"store_name"`     // joined from stores
	WarehouseID    int64          `json:"warehouse_id"`
	WarehouseName  string         `json:"warehouse_name"` // joined from warehouses
	Status         DispatchStatus `json:"status"`
	TrackingNumber *string        `json:"tracking_number,omitempty"`
	Carrier        *string        `json:"carrier,omitempty"`
	ReceivedBy     *int64         `json:"received_by,omitempty"`
	Showrooms      []int64        `json:"showrooms"`
	Lines          []DispatchLine `json:"lines"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
	DeliveredAt    *time.Time     `json:"delivered_at,omitempty"`
}

// DispatchLine binds a dispatch to a product unit and a committed quantity.
// Lines are written together with their dispatch and never change afterwards.
type DispatchLine struct {
	ID            int64  `json:"id"`
	DispatchID    int64  `json:"dispatch_id"`
	LineNumber    int    `json:"line_number"`
	ProductUnitID int64  `json:"product_unit_id"`
	SKU           string `json:"sku"`          // joined from product_units
	ProductName   string `json:"product_name"` // joined from products
	Quantity      int    `json:"quantity"`
}

// DispatchLineInput is one requested line of a new dispatch.
type DispatchLineInput struct {
	ProductUnitID int64
	Quantity      int
}

// CreateDispatchInput is the input for DispatchService.CreateDispatch.
type CreateDispatchInput struct {
	StoreID        int64
	WarehouseID    int64
	ShowroomIDs    []int64
	Lines          []DispatchLineInput
	TrackingNumber string
	Carrier        string
}

// ShippingUpdate carries an optional status and shipping metadata edit.
// Nil fields are left unchanged.
type ShippingUpdate struct {
	Status         *DispatchStatus
	TrackingNumber *string
	Carrier        *string
}

// DispatchFilter narrows ListDispatches. Zero fields are ignored.
type DispatchFilter struct {
	StoreID     int64
	WarehouseID int64
	Status      *DispatchStatus
	// InFlight hides DELIVERED dispatches (the vendor's "sent, not yet received" view).
	InFlight bool
}

// SampleFilter narrows ListSamples. Zero fields are ignored.
type SampleFilter struct {
	WarehouseID int64 // entries whose parent warehouse matches
	ShowroomID  int64
	DispatchID  int64
	StoreID     int64
	Kind        LocationKind // restrict to entries held at this kind of location
}

// TransferInput moves Quantity units of a sample. A nil ShowroomID sends the units
// back to the sample's parent warehouse.
type TransferInput struct {
	SampleID   int64
	ShowroomID *int64
	Quantity   int
}

// TransferResult is the post-transfer state of both ends.
type TransferResult struct {
	Destination   Sample  `json:"destination"`
	Source        *Sample `json:"source,omitempty"` // nil when the source entry was emptied
	SourceDeleted bool    `json:"source_deleted"`
	Created       bool    `json:"destination_created"`
}
