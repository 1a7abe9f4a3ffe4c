package core_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"sample-logistics/internal/core"
)

func TestDistinctKindsOnly(t *testing.T) {
	assert.True(t, core.DistinctKindsOnly(core.KindWarehouse, core.KindShowroom))
	assert.True(t, core.DistinctKindsOnly(core.KindShowroom, core.KindWarehouse))
	assert.False(t, core.DistinctKindsOnly(core.KindWarehouse, core.KindWarehouse))
	assert.False(t, core.DistinctKindsOnly(core.KindShowroom, core.KindShowroom))
}

func TestPropagateShowrooms(t *testing.T) {
	src := []int64{1, 2}

	got := core.PropagateShowrooms(true, src)
	assert.Equal(t, src, got)
	got[0] = 99
	assert.Equal(t, int64(1), src[0], "new entry must get a copy, not the source slice")

	assert.Nil(t, core.PropagateShowrooms(false, src))
	assert.Equal(t, []int64{}, core.PropagateShowrooms(true, nil))
}

func TestIsDomainError(t *testing.T) {
	domain := []error{
		&core.InsufficientStockError{ProductUnitID: 1, Requested: 2, Available: 1},
		&core.InsufficientQuantityError{SampleID: 1, Requested: 2, Available: 1},
		&core.ValidationError{Field: "quantity", Message: "must be positive"},
		fmt.Errorf("dispatch 4: %w", core.ErrAlreadyDelivered),
		fmt.Errorf("%w: showroom to showroom", core.ErrInvalidTransfer),
		fmt.Errorf("sample 9: %w", core.ErrNotFound),
	}
	for _, err := range domain {
		assert.True(t, core.IsDomainError(err), err.Error())
	}
	assert.False(t, core.IsDomainError(errors.New("connection refused")))
}

func TestErrorMessages(t *testing.T) {
	err := &core.InsufficientStockError{LineIndex: 1, ProductUnitID: 7, Requested: 6, Available: 5}
	assert.Equal(t, "insufficient stock for product unit 7 (line 2): requested 6, available 5", err.Error())

	assert.Equal(t, "quantity: must be positive", (&core.ValidationError{Field: "quantity", Message: "must be positive"}).Error())
	assert.Equal(t, "no changes", (&core.ValidationError{Message: "no changes"}).Error())
}
