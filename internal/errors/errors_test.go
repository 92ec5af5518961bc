package errors

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppErrorWrapping(t *testing.T) {
	cause := errors.New("underlying")
	err := Wrap(cause, ErrCodeUnavailable, "database unavailable")

	require.Error(t, err)
	assert.Equal(t, "database unavailable: underlying", err.Error())
	assert.True(t, errors.Is(err, cause))

	var appErr *AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, ErrCodeUnavailable, appErr.Code)
}

func TestWrapNil(t *testing.T) {
	assert.Nil(t, Wrap(nil, ErrCodeInternal, "ignored"))
}

func TestCodeOf(t *testing.T) {
	assert.Equal(t, ErrCodeConflict, CodeOf(Conflict("duplicate")))
	assert.Equal(t, ErrCodeValidation, CodeOf(Validationf("bad %s", "field")))
	assert.Equal(t, ErrCodeNotFound, CodeOf(NotFound("missing")))
	assert.Equal(t, ErrCodeInternal, CodeOf(errors.New("plain")))
}
