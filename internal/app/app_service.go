package app

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"sample-logistics/internal/core"
	"sample-logistics/internal/events"
	"sample-logistics/internal/metrics"
	"sample-logistics/internal/report"
)

// publishTimeout bounds how long a committed operation waits on the broker.
const publishTimeout = 5 * time.Second

type appService struct {
	dispatches core.DispatchService
	samples    core.SampleService
	directory  core.DirectoryService
	stock      core.StockService
	auth       Authorizer
	publisher  events.Publisher
	metrics    *metrics.Metrics
	log        *zap.Logger
}

// NewAppService constructs an appService that satisfies ApplicationService.
// publisher and m may be nil.
func NewAppService(
	dispatches core.DispatchService,
	samples core.SampleService,
	directory core.DirectoryService,
	stock core.StockService,
	publisher events.Publisher,
	m *metrics.Metrics,
	log *zap.Logger,
) ApplicationService {
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &appService{
		dispatches: dispatches,
		samples:    samples,
		directory:  directory,
		stock:      stock,
		publisher:  publisher,
		metrics:    m,
		log:        log,
	}
}

// CreateDispatch reserves stock and creates the dispatch.
func (s *appService) CreateDispatch(ctx context.Context, actor Actor, req CreateDispatchRequest) (*DispatchResult, error) {
	if err := s.auth.CreateDispatch(actor, req.StoreID); err != nil {
		return nil, s.failed("create_dispatch", err)
	}

	lines := make([]core.DispatchLineInput, len(req.Lines))
	for i, l := range req.Lines {
		lines[i] = core.DispatchLineInput{ProductUnitID: l.ProductUnitID, Quantity: l.Quantity}
	}

	d, err := s.dispatches.CreateDispatch(ctx, core.CreateDispatchInput{
		StoreID:        req.StoreID,
		WarehouseID:    req.WarehouseID,
		ShowroomIDs:    req.ShowroomIDs,
		Lines:          lines,
		TrackingNumber: req.TrackingNumber,
		Carrier:        req.Carrier,
	})
	if err != nil {
		return nil, s.failed("create_dispatch", err)
	}

	s.metrics.DispatchCreated(totalUnits(d))
	s.log.Info("dispatch created",
		zap.Int64("dispatch_id", d.ID),
		zap.Int64("store_id", d.StoreID),
		zap.Int64("warehouse_id", d.WarehouseID),
		zap.String("status", string(d.Status)),
		zap.Int("lines", len(d.Lines)))
	s.publish(ctx, events.TypeDispatchCreated, dispatchSubject(d.ID), d)
	return &DispatchResult{Dispatch: d}, nil
}

// UpdateDispatchShipping applies a status and/or metadata edit.
func (s *appService) UpdateDispatchShipping(ctx context.Context, actor Actor, dispatchID int64, req UpdateShippingRequest) (*DispatchResult, error) {
	current, err := s.dispatches.GetDispatch(ctx, dispatchID)
	if err != nil {
		return nil, s.failed("update_dispatch", err)
	}
	if err := s.auth.EditDispatch(actor, current); err != nil {
		return nil, s.failed("update_dispatch", err)
	}

	upd := core.ShippingUpdate{TrackingNumber: req.TrackingNumber, Carrier: req.Carrier}
	if req.Status != nil {
		st, err := core.ParseDispatchStatus(*req.Status)
		if err != nil {
			return nil, s.failed("update_dispatch", err)
		}
		upd.Status = &st
	}

	d, err := s.dispatches.UpdateShipping(ctx, dispatchID, upd)
	if err != nil {
		return nil, s.failed("update_dispatch", err)
	}

	s.metrics.DispatchUpdated()
	s.log.Info("dispatch updated",
		zap.Int64("dispatch_id", d.ID),
		zap.String("from", string(current.Status)),
		zap.String("to", string(d.Status)))
	s.publish(ctx, events.TypeDispatchUpdated, dispatchSubject(d.ID), d)
	return &DispatchResult{Dispatch: d}, nil
}

// ReceiveDispatch credits the dispatch's lines to its warehouse.
func (s *appService) ReceiveDispatch(ctx context.Context, actor Actor, dispatchID int64) (*DispatchResult, error) {
	current, err := s.dispatches.GetDispatch(ctx, dispatchID)
	if err != nil {
		return nil, s.failed("receive_dispatch", err)
	}
	if err := s.auth.ReceiveDispatch(actor, current); err != nil {
		return nil, s.failed("receive_dispatch", err)
	}

	var receivedBy *int64
	if actor.UserID != 0 {
		id := actor.UserID
		receivedBy = &id
	}

	d, err := s.dispatches.ReceiveDispatch(ctx, dispatchID, receivedBy)
	if err != nil {
		return nil, s.failed("receive_dispatch", err)
	}

	s.metrics.DispatchReceived(totalUnits(d))
	s.log.Info("dispatch received",
		zap.Int64("dispatch_id", d.ID),
		zap.Int64("warehouse_id", d.WarehouseID),
		zap.Int64("received_by", actor.UserID),
		zap.Int("units", totalUnits(d)))
	s.publish(ctx, events.TypeDispatchReceived, dispatchSubject(d.ID), d)
	return &DispatchResult{Dispatch: d}, nil
}

func (s *appService) GetDispatch(ctx context.Context, actor Actor, dispatchID int64) (*DispatchResult, error) {
	d, err := s.dispatches.GetDispatch(ctx, dispatchID)
	if err != nil {
		return nil, err
	}
	if err := s.auth.ViewDispatch(actor, d); err != nil {
		return nil, err
	}
	return &DispatchResult{Dispatch: d}, nil
}

func (s *appService) ListDispatches(ctx context.Context, actor Actor, req ListDispatchesRequest) (*DispatchListResult, error) {
	filter := core.DispatchFilter{StoreID: req.StoreID, WarehouseID: req.WarehouseID, InFlight: req.InFlight}
	if req.Status != "" {
		st, err := core.ParseDispatchStatus(req.Status)
		if err != nil {
			return nil, err
		}
		filter.Status = &st
	}

	filter, err := s.auth.ScopeDispatches(actor, filter)
	if err != nil {
		return nil, err
	}
	list, err := s.dispatches.ListDispatches(ctx, filter)
	if err != nil {
		return nil, err
	}
	return &DispatchListResult{Dispatches: list}, nil
}

// transferEvent is the sample.transferred payload.
type transferEvent struct {
	SampleID      int64            `json:"sample_id"`
	ProductUnitID int64            `json:"product_unit_id"`
	From          core.LocationRef `json:"from"`
	To            core.LocationRef `json:"to"`
	Quantity      int              `json:"quantity"`
	DestinationID int64            `json:"destination_sample_id"`
	SourceDeleted bool             `json:"source_deleted"`
	ActorID       int64            `json:"actor_id,omitempty"`
}

// TransferSample moves units between a warehouse and one of its showrooms.
func (s *appService) TransferSample(ctx context.Context, actor Actor, req TransferRequest) (*TransferResult, error) {
	src, err := s.samples.GetSample(ctx, req.SampleID)
	if err != nil {
		return nil, s.failed("transfer_sample", err)
	}
	if err := s.auth.TransferSample(actor, src); err != nil {
		return nil, s.failed("transfer_sample", err)
	}

	res, err := s.samples.TransferSample(ctx, core.TransferInput{
		SampleID:   req.SampleID,
		ShowroomID: req.ShowroomID,
		Quantity:   req.Quantity,
	})
	if err != nil {
		return nil, s.failed("transfer_sample", err)
	}

	from, to := src.Location, res.Destination.Location
	s.metrics.SampleTransferred(string(from.LocationKind()), string(to.LocationKind()), req.Quantity)
	s.log.Info("sample transferred",
		zap.Int64("sample_id", src.ID),
		zap.Stringer("from", from),
		zap.Stringer("to", to),
		zap.Int("quantity", req.Quantity),
		zap.Bool("source_deleted", res.SourceDeleted))
	s.publish(ctx, events.TypeSampleTransferred, fmt.Sprintf("sample/%d", src.ID), transferEvent{
		SampleID:      src.ID,
		ProductUnitID: src.ProductUnitID,
		From:          from,
		To:            to,
		Quantity:      req.Quantity,
		DestinationID: res.Destination.ID,
		SourceDeleted: res.SourceDeleted,
		ActorID:       actor.UserID,
	})
	return &TransferResult{Transfer: res}, nil
}

func (s *appService) GetSample(ctx context.Context, actor Actor, sampleID int64) (*SampleResult, error) {
	sample, err := s.samples.GetSample(ctx, sampleID)
	if err != nil {
		return nil, err
	}
	if err := s.auth.ViewSample(actor, sample); err != nil {
		return nil, err
	}
	return &SampleResult{Sample: sample}, nil
}

func (s *appService) ListSamples(ctx context.Context, actor Actor, filter core.SampleFilter) (*SampleListResult, error) {
	filter, err := s.auth.ScopeSamples(actor, filter)
	if err != nil {
		return nil, err
	}
	list, err := s.samples.ListSamples(ctx, filter)
	if err != nil {
		return nil, err
	}
	total := 0
	for _, sample := range list {
		total += sample.Quantity
	}
	return &SampleListResult{Samples: list, Total: total}, nil
}

func (s *appService) ListShowrooms(ctx context.Context, actor Actor, warehouseID int64) (*ShowroomListResult, error) {
	if err := s.auth.ViewWarehouse(actor, warehouseID); err != nil {
		return nil, err
	}
	wh, err := s.directory.GetWarehouse(ctx, warehouseID)
	if err != nil {
		return nil, err
	}
	showrooms, err := s.directory.ListShowrooms(ctx, warehouseID)
	if err != nil {
		return nil, err
	}
	return &ShowroomListResult{Warehouse: wh, Showrooms: showrooms}, nil
}

func (s *appService) ExportWarehouseSamples(ctx context.Context, actor Actor, warehouseID int64) (*ExportResult, error) {
	if err := s.auth.ViewWarehouse(actor, warehouseID); err != nil {
		return nil, err
	}
	wh, err := s.directory.GetWarehouse(ctx, warehouseID)
	if err != nil {
		return nil, err
	}
	list, err := s.ListSamples(ctx, actor, core.SampleFilter{WarehouseID: warehouseID})
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := report.WriteLedgerXLSX(&buf, *wh, list.Samples); err != nil {
		return nil, fmt.Errorf("failed to render export of warehouse %d: %w", warehouseID, err)
	}
	return &ExportResult{FileName: report.FileName(*wh, time.Now()), Content: buf.Bytes()}, nil
}

func (s *appService) AdjustStock(ctx context.Context, actor Actor, productUnitID int64, delta int) (*ProductUnitResult, error) {
	unit, err := s.stock.GetProductUnit(ctx, productUnitID)
	if err != nil {
		return nil, s.failed("adjust_stock", err)
	}
	if err := s.auth.AdjustStock(actor, unit); err != nil {
		return nil, s.failed("adjust_stock", err)
	}
	unit, err = s.stock.AdjustStock(ctx, productUnitID, delta)
	if err != nil {
		return nil, s.failed("adjust_stock", err)
	}
	s.log.Info("stock adjusted",
		zap.Int64("product_unit_id", unit.ID),
		zap.Int("delta", delta),
		zap.Int("quantity", unit.Quantity))
	return &ProductUnitResult{ProductUnit: unit}, nil
}

// SetStock records a stock count for a product unit.
func (s *appService) SetStock(ctx context.Context, actor Actor, productUnitID int64, quantity int) (*ProductUnitResult, error) {
	unit, err := s.stock.GetProductUnit(ctx, productUnitID)
	if err != nil {
		return nil, s.failed("set_stock", err)
	}
	if err := s.auth.AdjustStock(actor, unit); err != nil {
		return nil, s.failed("set_stock", err)
	}
	previous := unit.Quantity
	unit, err = s.stock.SetStock(ctx, productUnitID, quantity)
	if err != nil {
		return nil, s.failed("set_stock", err)
	}
	s.log.Info("stock counted",
		zap.Int64("product_unit_id", unit.ID),
		zap.Int("previous", previous),
		zap.Int("quantity", unit.Quantity))
	return &ProductUnitResult{ProductUnit: unit}, nil
}

// ListProductUnits returns the sellable stock of one store.
func (s *appService) ListProductUnits(ctx context.Context, actor Actor, storeID int64) (*ProductUnitListResult, error) {
	if err := s.auth.ViewStore(actor, storeID); err != nil {
		return nil, err
	}
	store, err := s.directory.GetStore(ctx, storeID)
	if err != nil {
		return nil, err
	}
	units, err := s.stock.ListProductUnits(ctx, storeID)
	if err != nil {
		return nil, err
	}
	return &ProductUnitListResult{Store: store, ProductUnits: units}, nil
}

// ListWarehouses returns the warehouses the actor can dispatch to or work in.
// Employees only see their own warehouse.
func (s *appService) ListWarehouses(ctx context.Context, actor Actor) (*WarehouseListResult, error) {
	all, err := s.directory.ListWarehouses(ctx)
	if err != nil {
		return nil, err
	}
	if actor.Role != RoleEmployee {
		return &WarehouseListResult{Warehouses: all}, nil
	}
	visible := make([]core.Warehouse, 0, 1)
	for _, wh := range all {
		if actor.employeeOf(wh.ID) {
			visible = append(visible, wh)
		}
	}
	return &WarehouseListResult{Warehouses: visible}, nil
}

// failed counts and logs a rejected operation, then returns err unchanged.
func (s *appService) failed(operation string, err error) error {
	reason := FailureReason(err)
	s.metrics.Failure(operation, reason)
	if core.IsDomainError(err) {
		s.log.Debug("operation rejected",
			zap.String("operation", operation), zap.String("reason", reason), zap.Error(err))
	} else {
		s.log.Error("operation failed", zap.String("operation", operation), zap.Error(err))
	}
	return err
}

// publish is best effort. The operation has already committed, so a broker
// failure is logged and swallowed.
func (s *appService) publish(ctx context.Context, typ, subject string, data any) {
	ev, err := events.New(typ, subject, data)
	if err != nil {
		s.log.Warn("event encode failed", zap.String("type", typ), zap.Error(err))
		return
	}
	pubCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()
	if err := s.publisher.Publish(pubCtx, ev); err != nil {
		s.log.Warn("event publish failed",
			zap.String("type", typ), zap.String("event_id", ev.ID), zap.Error(err))
	}
}

// FailureReason maps an error onto a short stable code for metrics and API
// clients.
func FailureReason(err error) string {
	var stockErr *core.InsufficientStockError
	var qtyErr *core.InsufficientQuantityError
	var valErr *core.ValidationError
	switch {
	case errors.As(err, &stockErr):
		return "insufficient_stock"
	case errors.As(err, &qtyErr):
		return "insufficient_quantity"
	case errors.As(err, &valErr):
		return "validation"
	case errors.Is(err, core.ErrInvalidTransfer):
		return "invalid_transfer"
	case errors.Is(err, core.ErrInvalidOperation):
		return "invalid_operation"
	case errors.Is(err, core.ErrNotFound):
		return "not_found"
	case errors.Is(err, core.ErrAlreadyDelivered):
		return "already_delivered"
	case errors.Is(err, core.ErrInvalidStatusTransition):
		return "invalid_transition"
	case errors.Is(err, core.ErrForbidden):
		return "forbidden"
	}
	return "internal"
}

func totalUnits(d *core.Dispatch) int {
	n := 0
	for _, l := range d.Lines {
		n += l.Quantity
	}
	return n
}

func dispatchSubject(id int64) string { return fmt.Sprintf("dispatch/%d", id) }
