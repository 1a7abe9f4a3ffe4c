package core

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReferenceError(t *testing.T) {
	fk := fmt.Errorf("exec: %w", &pgconn.PgError{Code: "23503", ConstraintName: "dispatch_showrooms_showroom_id_fkey"})
	err := referenceError(fk, "showroom_ids", "failed to link showroom 3")
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "showroom_ids", ve.Field)
	assert.True(t, IsDomainError(err))

	boom := errors.New("connection reset")
	err = referenceError(boom, "store_id", "failed to insert dispatch")
	assert.ErrorIs(t, err, boom)
	assert.False(t, errors.As(err, &ve))
	assert.Contains(t, err.Error(), "failed to insert dispatch")
}
