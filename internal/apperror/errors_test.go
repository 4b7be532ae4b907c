package apperror

import (
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAppError_Error(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		appErr   *AppError
		expected string
	}{
		{
			name: "without field",
			appErr: &AppError{
				Message: "something went wrong",
			},
			expected: "something went wrong",
		},
		{
			name: "with field",
			appErr: &AppError{
				Message: "is required",
				Field:   "asin",
			},
			expected: "asin: is required",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.expected, tt.appErr.Error())
		})
	}
}

func TestAppError_Unwrap(t *testing.T) {
	t.Parallel()

	originalErr := errors.New("original error")
	appErr := &AppError{
		Err:     originalErr,
		Message: "wrapped error",
	}

	assert.Equal(t, originalErr, appErr.Unwrap())
	assert.True(t, errors.Is(appErr, originalErr))
}

func TestNotFound(t *testing.T) {
	t.Parallel()

	err := NotFound("product")

	assert.Equal(t, "product not found", err.Message)
	assert.Equal(t, http.StatusNotFound, err.StatusCode)
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestValidationError(t *testing.T) {
	t.Parallel()

	err := ValidationError("marketplace", "unsupported marketplace")

	assert.Equal(t, "unsupported marketplace", err.Message)
	assert.Equal(t, "marketplace", err.Field)
	assert.Equal(t, http.StatusBadRequest, err.StatusCode)
	assert.True(t, errors.Is(err, ErrValidation))
}

func TestConflict(t *testing.T) {
	t.Parallel()

	err := Conflict("product is already tracked")

	assert.Equal(t, "product is already tracked", err.Message)
	assert.Equal(t, http.StatusConflict, err.StatusCode)
	assert.True(t, errors.Is(err, ErrConflict))
}

func TestFetchFailed(t *testing.T) {
	t.Parallel()

	originalErr := errors.New("connection reset")
	err := FetchFailed(originalErr)

	assert.Equal(t, "failed to fetch product data", err.Message)
	assert.Equal(t, http.StatusBadGateway, err.StatusCode)
	assert.True(t, errors.Is(err, ErrFetchFailed))
}

func TestProductGone(t *testing.T) {
	t.Parallel()

	err := ProductGone("B08N5WRWNW")

	assert.Equal(t, "product B08N5WRWNW is no longer listed", err.Message)
	assert.Equal(t, http.StatusGone, err.StatusCode)
	assert.True(t, errors.Is(err, ErrProductGone))
}

func TestGetStatusCode(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		err      error
		expected int
	}{
		{
			name:     "AppError",
			err:      &AppError{StatusCode: http.StatusTeapot},
			expected: http.StatusTeapot,
		},
		{
			name:     "ErrNotFound",
			err:      ErrNotFound,
			expected: http.StatusNotFound,
		},
		{
			name:     "ErrProductGone",
			err:      ErrProductGone,
			expected: http.StatusGone,
		},
		{
			name:     "ErrFetchFailed",
			err:      ErrFetchFailed,
			expected: http.StatusBadGateway,
		},
		{
			name:     "ErrForbidden",
			err:      ErrForbidden,
			expected: http.StatusForbidden,
		},
		{
			name:     "ErrValidation",
			err:      ErrValidation,
			expected: http.StatusBadRequest,
		},
		{
			name:     "ErrConflict",
			err:      ErrConflict,
			expected: http.StatusConflict,
		},
		{
			name:     "unknown error",
			err:      errors.New("unknown"),
			expected: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.expected, GetStatusCode(tt.err))
		})
	}
}

func TestGetMessage(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		err      error
		expected string
	}{
		{
			name:     "AppError",
			err:      &AppError{Message: "custom message"},
			expected: "custom message",
		},
		{
			name:     "regular error",
			err:      errors.New("regular error message"),
			expected: "regular error message",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.expected, GetMessage(tt.err))
		})
	}
}

// Test sentinel errors exist
func TestSentinelErrors(t *testing.T) {
	t.Parallel()

	assert.NotNil(t, ErrNotFound)
	assert.NotNil(t, ErrUnauthorized)
	assert.NotNil(t, ErrForbidden)
	assert.NotNil(t, ErrBadRequest)
	assert.NotNil(t, ErrConflict)
	assert.NotNil(t, ErrInternal)
	assert.NotNil(t, ErrValidation)
	assert.NotNil(t, ErrFetchFailed)
	assert.NotNil(t, ErrProductGone)
}
