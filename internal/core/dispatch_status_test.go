package core_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sample-logistics/internal/core"
)

func TestParseDispatchStatus(t *testing.T) {
	tests := []struct {
		in   string
		want core.DispatchStatus
	}{
		{"PENDING", core.StatusPending},
		{"in_progress", core.StatusInProgress},
		{" shipped ", core.StatusShipped},
		{"PEN", core.StatusPending},
		{"PRG", core.StatusInProgress},
		{"SHP", core.StatusShipped},
		{"dlv", core.StatusDelivered},
		{"RET", core.StatusReturned},
	}
	for _, tt := range tests {
		got, err := core.ParseDispatchStatus(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}

	_, err := core.ParseDispatchStatus("LOST")
	var valErr *core.ValidationError
	assert.ErrorAs(t, err, &valErr)
}

func TestDispatchStatus_CanEditTo(t *testing.T) {
	tests := []struct {
		from, to core.DispatchStatus
		ok       bool
	}{
		{core.StatusPending, core.StatusInProgress, true},
		{core.StatusPending, core.StatusShipped, true},
		{core.StatusPending, core.StatusPending, true},
		{core.StatusInProgress, core.StatusShipped, true},
		{core.StatusShipped, core.StatusReturned, true},
		{core.StatusPending, core.StatusReturned, true},
		{core.StatusShipped, core.StatusPending, false},
		{core.StatusInProgress, core.StatusPending, false},
		{core.StatusShipped, core.StatusDelivered, false},
		{core.StatusDelivered, core.StatusReturned, false},
		{core.StatusReturned, core.StatusShipped, false},
		{core.StatusReturned, core.StatusReturned, false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.ok, tt.from.CanEditTo(tt.to), "%s -> %s", tt.from, tt.to)
	}
}

func TestDispatchStatus_ReceiveAndInitial(t *testing.T) {
	assert.True(t, core.StatusPending.CanReceive())
	assert.True(t, core.StatusShipped.CanReceive())
	assert.False(t, core.StatusDelivered.CanReceive())
	assert.False(t, core.StatusReturned.CanReceive())

	assert.Equal(t, core.StatusShipped, core.InitialStatus("1Z999"))
	assert.Equal(t, core.StatusPending, core.InitialStatus(""))
	assert.Equal(t, core.StatusPending, core.InitialStatus("   "))
}
