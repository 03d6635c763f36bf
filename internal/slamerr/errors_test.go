package slamerr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidationError(t *testing.T) {
	t.Parallel()

	err := fmt.Errorf("build candidate: %w", Validationf("cluster %d has no time range", 2))
	assert.ErrorIs(t, err, ErrValidation)
	assert.NotErrorIs(t, err, ErrLoop)
	assert.Contains(t, err.Error(), "cluster 2 has no time range")

	var ve *ValidationError
	require.True(t, errors.As(err, &ve))
	assert.Equal(t, "cluster 2 has no time range", ve.Reason)
}

func TestUnresolvableLeftoverError(t *testing.T) {
	t.Parallel()

	err := fmt.Errorf("generate: %w", &UnresolvableLeftoverError{Samples: 3, Oldest: 4, Floor: 10})
	assert.ErrorIs(t, err, ErrUnresolvableLeftover)

	var le *UnresolvableLeftoverError
	require.True(t, errors.As(err, &le))
	assert.Equal(t, int64(10), le.Floor)
	assert.Equal(t, 3, le.Samples)
}
