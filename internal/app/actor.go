package app

import (
	"fmt"

	"sample-logistics/internal/core"
)

// Role is the caller's kind of account.
type Role string

const (
	RoleVendor   Role = "vendor"   // acts for one store
	RoleEmployee Role = "employee" // acts for one warehouse
	RoleAdmin    Role = "admin"
)

func ParseRole(s string) (Role, error) {
	switch Role(s) {
	case RoleVendor, RoleEmployee, RoleAdmin:
		return Role(s), nil
	}
	return "", fmt.Errorf("unknown role %q", s)
}

// Actor identifies who is calling. StoreID is set for vendors and WarehouseID for
// employees.
type Actor struct {
	UserID      int64
	Role        Role
	StoreID     int64
	WarehouseID int64
}

// SystemActor is used by operator tooling such as the CLI.
var SystemActor = Actor{Role: RoleAdmin}

func (a Actor) isAdmin() bool { return a.Role == RoleAdmin }

func (a Actor) vendorOf(storeID int64) bool {
	return a.Role == RoleVendor && a.StoreID != 0 && a.StoreID == storeID
}

func (a Actor) employeeOf(warehouseID int64) bool {
	return a.Role == RoleEmployee && a.WarehouseID != 0 && a.WarehouseID == warehouseID
}

// Authorizer decides whether an actor may perform an operation on a target.
// Every denial wraps core.ErrForbidden.
type Authorizer struct{}

func forbidden(a Actor, format string, args ...any) error {
	return fmt.Errorf("%w: %s %d may not %s", core.ErrForbidden, a.Role, a.UserID, fmt.Sprintf(format, args...))
}

func (Authorizer) CreateDispatch(a Actor, storeID int64) error {
	if a.isAdmin() || a.vendorOf(storeID) {
		return nil
	}
	return forbidden(a, "dispatch for store %d", storeID)
}

func (Authorizer) EditDispatch(a Actor, d *core.Dispatch) error {
	if a.isAdmin() || a.vendorOf(d.StoreID) || a.employeeOf(d.WarehouseID) {
		return nil
	}
	return forbidden(a, "edit dispatch %d", d.ID)
}

func (Authorizer) ReceiveDispatch(a Actor, d *core.Dispatch) error {
	if a.isAdmin() || a.employeeOf(d.WarehouseID) {
		return nil
	}
	return forbidden(a, "receive dispatch %d", d.ID)
}

func (Authorizer) ViewDispatch(a Actor, d *core.Dispatch) error {
	if a.isAdmin() || a.vendorOf(d.StoreID) || a.employeeOf(d.WarehouseID) {
		return nil
	}
	return forbidden(a, "view dispatch %d", d.ID)
}

func (Authorizer) TransferSample(a Actor, s *core.Sample) error {
	if a.isAdmin() || a.employeeOf(s.WarehouseID) {
		return nil
	}
	return forbidden(a, "move sample %d", s.ID)
}

func (Authorizer) ViewSample(a Actor, s *core.Sample) error {
	if a.isAdmin() || a.vendorOf(s.StoreID) || a.employeeOf(s.WarehouseID) {
		return nil
	}
	return forbidden(a, "view sample %d", s.ID)
}

func (Authorizer) ViewWarehouse(a Actor, warehouseID int64) error {
	if a.isAdmin() || a.employeeOf(warehouseID) || a.Role == RoleVendor {
		return nil
	}
	return forbidden(a, "view warehouse %d", warehouseID)
}

func (Authorizer) ViewStore(a Actor, storeID int64) error {
	if a.isAdmin() || a.vendorOf(storeID) {
		return nil
	}
	return forbidden(a, "view stock of store %d", storeID)
}

func (Authorizer) AdjustStock(a Actor, u *core.ProductUnit) error {
	if a.isAdmin() || a.vendorOf(u.StoreID) {
		return nil
	}
	return forbidden(a, "adjust stock of product unit %d", u.ID)
}

// ScopeDispatches narrows a dispatch query to what the actor may see. Asking
// explicitly for someone else's store or warehouse is a denial, not an empty list.
func (Authorizer) ScopeDispatches(a Actor, f core.DispatchFilter) (core.DispatchFilter, error) {
	switch {
	case a.isAdmin():
		return f, nil
	case a.Role == RoleVendor && a.StoreID != 0:
		if f.StoreID != 0 && f.StoreID != a.StoreID {
			return f, forbidden(a, "list dispatches of store %d", f.StoreID)
		}
		f.StoreID = a.StoreID
		return f, nil
	case a.Role == RoleEmployee && a.WarehouseID != 0:
		if f.WarehouseID != 0 && f.WarehouseID != a.WarehouseID {
			return f, forbidden(a, "list dispatches of warehouse %d", f.WarehouseID)
		}
		f.WarehouseID = a.WarehouseID
		return f, nil
	}
	return f, forbidden(a, "list dispatches")
}

// ScopeSamples narrows a ledger query the same way ScopeDispatches does.
func (Authorizer) ScopeSamples(a Actor, f core.SampleFilter) (core.SampleFilter, error) {
	switch {
	case a.isAdmin():
		return f, nil
	case a.Role == RoleVendor && a.StoreID != 0:
		if f.StoreID != 0 && f.StoreID != a.StoreID {
			return f, forbidden(a, "list samples of store %d", f.StoreID)
		}
		f.StoreID = a.StoreID
		return f, nil
	case a.Role == RoleEmployee && a.WarehouseID != 0:
		if f.WarehouseID != 0 && f.WarehouseID != a.WarehouseID {
			return f, forbidden(a, "list samples of warehouse %d", f.WarehouseID)
		}
		f.WarehouseID = a.WarehouseID
		return f, nil
	}
	return f, forbidden(a, "list samples")
}
