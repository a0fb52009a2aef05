package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_DerivesCategoryFromCode(t *testing.T) {
	tests := []struct {
		name     string
		code     string
		category Category
	}{
		{"config code", ErrCodeConfigInvalid, CategoryConfig},
		{"storage code", ErrCodeCorruptSidecar, CategoryStorage},
		{"network code", ErrCodeEmbeddingService, CategoryNetwork},
		{"validation code", ErrCodeInvalidChunking, CategoryValidation},
		{"internal code", ErrCodeEmbeddingFailed, CategoryInternal},
		{"malformed code", "ERR", CategoryInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := New(tt.code, "boom", nil)
			assert.Equal(t, tt.category, err.Category)
		})
	}
}

func TestNew_RetryableFlag(t *testing.T) {
	// Network-class failures are retryable by the caller
	assert.True(t, New(ErrCodeNetworkTimeout, "timeout", nil).Retryable)
	assert.True(t, New(ErrCodeEmbeddingService, "503", nil).Retryable)

	// Everything else is not
	assert.False(t, New(ErrCodeCorruptIndex, "bad gob", nil).Retryable)
	assert.False(t, New(ErrCodeConfigInvalid, "bad yaml", nil).Retryable)
}

func TestWrap_PreservesCause(t *testing.T) {
	cause := fmt.Errorf("connection refused")
	err := Wrap(ErrCodeNetworkUnavailable, cause)

	require.NotNil(t, err)
	assert.Equal(t, cause, err.Unwrap())
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), ErrCodeNetworkUnavailable)
}

func TestWrap_NilReturnsNil(t *testing.T) {
	assert.Nil(t, Wrap(ErrCodeInternal, nil))
}

func TestIs_MatchesByCode(t *testing.T) {
	err1 := New(ErrCodeCorruptSidecar, "first", nil)
	err2 := New(ErrCodeCorruptSidecar, "second", nil)
	other := New(ErrCodeCorruptIndex, "third", nil)

	assert.ErrorIs(t, err1, err2)
	assert.NotErrorIs(t, err1, other)
}

func TestIsRetryable_UnwrapsChain(t *testing.T) {
	inner := New(ErrCodeEmbeddingService, "upstream 500", nil)
	wrapped := fmt.Errorf("build aborted: %w", inner)

	assert.True(t, IsRetryable(wrapped))
	assert.False(t, IsRetryable(errors.New("plain error")))
	assert.False(t, IsRetryable(nil))
}

func TestIsFatal(t *testing.T) {
	assert.True(t, IsFatal(New(ErrCodeNoEmbedder, "no backend bound", nil)))
	assert.False(t, IsFatal(New(ErrCodeSearchFailed, "oops", nil)))
}

func TestGetCode(t *testing.T) {
	err := EmbeddingServiceError("api error", nil)
	wrapped := fmt.Errorf("query: %w", err)

	assert.Equal(t, ErrCodeEmbeddingService, GetCode(wrapped))
	assert.Equal(t, "", GetCode(errors.New("plain")))
}

func TestWithDetailAndSuggestion(t *testing.T) {
	err := StorageError("write failed", nil).
		WithDetail("document_id", "doc1").
		WithSuggestion("check disk space")

	assert.Equal(t, "doc1", err.Details["document_id"])
	assert.Equal(t, "check disk space", err.Suggestion)
}
