package app

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"sample-logistics/internal/core"
)

func TestAuthorizer_DispatchRules(t *testing.T) {
	var auth Authorizer
	d := &core.Dispatch{ID: 1, StoreID: 1, WarehouseID: 2}
	admin := Actor{Role: RoleAdmin}

	tests := []struct {
		name    string
		actor   Actor
		create  bool
		edit    bool
		receive bool
	}{
		{"admin", admin, true, true, true},
		{"owning vendor", vendorOfStore1, true, true, false},
		{"other vendor", vendorOfStore9, false, false, false},
		{"warehouse employee", employeeOfWh2, false, true, true},
		{"other employee", employeeOfWh8, false, false, false},
		{"vendor without store", Actor{Role: RoleVendor}, false, false, false},
		{"anonymous", anonymousCaller, false, false, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.create, auth.CreateDispatch(tt.actor, d.StoreID) == nil, "create")
			assert.Equal(t, tt.edit, auth.EditDispatch(tt.actor, d) == nil, "edit")
			assert.Equal(t, tt.receive, auth.ReceiveDispatch(tt.actor, d) == nil, "receive")
		})
	}
}

func TestAuthorizer_DenialWrapsForbidden(t *testing.T) {
	var auth Authorizer
	err := auth.TransferSample(vendorOfStore1, &core.Sample{ID: 5, WarehouseID: 2})
	assert.ErrorIs(t, err, core.ErrForbidden)
	assert.Contains(t, err.Error(), "move sample 5")
}

func TestAuthorizer_AdjustStock(t *testing.T) {
	var auth Authorizer
	unit := &core.ProductUnit{ID: 3, StoreID: 1}
	assert.NoError(t, auth.AdjustStock(vendorOfStore1, unit))
	assert.NoError(t, auth.AdjustStock(SystemActor, unit))
	assert.ErrorIs(t, auth.AdjustStock(vendorOfStore9, unit), core.ErrForbidden)
	assert.ErrorIs(t, auth.AdjustStock(employeeOfWh2, unit), core.ErrForbidden)
}

func TestAuthorizer_ViewStore(t *testing.T) {
	var auth Authorizer
	assert.NoError(t, auth.ViewStore(vendorOfStore1, 1))
	assert.NoError(t, auth.ViewStore(SystemActor, 9))
	assert.ErrorIs(t, auth.ViewStore(vendorOfStore1, 9), core.ErrForbidden)
	assert.ErrorIs(t, auth.ViewStore(employeeOfWh2, 1), core.ErrForbidden)
}

func TestParseRole(t *testing.T) {
	r, err := ParseRole("employee")
	assert.NoError(t, err)
	assert.Equal(t, RoleEmployee, r)
	_, err = ParseRole("root")
	assert.Error(t, err)
}
