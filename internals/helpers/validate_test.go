package helper

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"librarydesk_backend/internals/helpers/apperror"
)

func TestOptionalUUID(t *testing.T) {
	got, err := OptionalUUID("  ", "branch_id")
	require.NoError(t, err)
	assert.Nil(t, got)

	want := uuid.New()
	got, err = OptionalUUID(want.String(), "branch_id")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, want, *got)

	assert.NotPanics(t, func() {
		_, err = OptionalUUID("not-a-uuid", "branch_id")
	})
	assert.ErrorIs(t, err, apperror.ErrValidation)
}
