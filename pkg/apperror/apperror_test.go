package apperror

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"validation", Validation("bad"), http.StatusBadRequest},
		{"invalid status", InvalidStatus("bad"), http.StatusBadRequest},
		{"forbidden", Forbidden("no"), http.StatusForbidden},
		{"not found", NotFound("gone"), http.StatusNotFound},
		{"finalized", AlreadyFinalized("done"), http.StatusConflict},
		{"stock", InsufficientStock("empty"), http.StatusConflict},
		{"wrapped", fmt.Errorf("tx: %w", ExceedsRequested("too many")), http.StatusConflict},
		{"plain", fmt.Errorf("db down"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, HTTPStatus(tt.err))
		})
	}
}

func TestIsMatchesByCode(t *testing.T) {
	err := fmt.Errorf("wrapped: %w", InsufficientStock("only %d left", 2))

	assert.ErrorIs(t, err, ErrInsufficientStock)
	assert.NotErrorIs(t, err, ErrAlreadyFinalized)

	appErr, ok := From(err)
	require.True(t, ok)
	assert.Equal(t, KindStockConflict, appErr.Kind)
	assert.Equal(t, "only 2 left", appErr.Error())
}
