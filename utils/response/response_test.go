package response

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCalculatePagination(t *testing.T) {
	meta := CalculatePagination(2, 10, 25)
	assert.Equal(t, 2, meta.CurrentPage)
	assert.Equal(t, 10, meta.PerPage)
	assert.EqualValues(t, 25, meta.Total)
	assert.Equal(t, 3, meta.TotalPages)

	// Exact multiple needs no extra page.
	meta = CalculatePagination(1, 10, 30)
	assert.Equal(t, 3, meta.TotalPages)

	meta = CalculatePagination(1, 10, 0)
	assert.Equal(t, 0, meta.TotalPages)
}

func TestCalculatePaginationClampsInputs(t *testing.T) {
	meta := CalculatePagination(0, 0, 5)
	assert.Equal(t, 1, meta.CurrentPage)
	assert.Equal(t, 10, meta.PerPage)

	meta = CalculatePagination(-3, 500, 5)
	assert.Equal(t, 1, meta.CurrentPage)
	assert.Equal(t, 100, meta.PerPage)
}
