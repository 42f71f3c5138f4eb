package dto

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"librarydesk_backend/internals/helpers/apperror"
)

func TestExpand(t *testing.T) {
	got, err := UnitCreateRequest{Prefix: "A", From: 1, To: 3}.Expand()
	require.NoError(t, err)
	assert.Equal(t, []string{"A1", "A2", "A3"}, got)

	got, err = UnitCreateRequest{Numbers: []string{"l-1", " L-1 ", "L-2", ""}}.Expand()
	require.NoError(t, err)
	assert.Equal(t, []string{"L-1", "L-2"}, got)
}

func TestExpand_Errors(t *testing.T) {
	for _, r := range []UnitCreateRequest{
		{},
		{From: 5, To: 2},
		{From: 1, To: 900},
		{Numbers: []string{" "}},
	} {
		_, err := r.Expand()
		assert.ErrorIs(t, err, apperror.ErrValidation, "%+v", r)
	}
}
