package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLimitReached_Details(t *testing.T) {
	err := LimitReached("limits.check", UsagePhotos, 2, 2, false)

	assert.Equal(t, ELIMIT, ErrorCode(err))
	assert.Equal(t, map[string]any{
		"limitType": "photos",
		"current":   2,
		"max":       2,
		"isPro":     false,
	}, ErrorDetails(err))
}

func TestErrorHelpers_Wrapped(t *testing.T) {
	base := RequiresPro("ai.daily_summary")
	wrapped := fmt.Errorf("handler: %w", base)

	assert.Equal(t, EPRO, ErrorCode(wrapped))
	assert.Equal(t, "ai.daily_summary", ErrorOp(wrapped))
	assert.Equal(t, true, ErrorDetails(wrapped)["requiresPro"])
}

func TestErrorMessage_HidesInternal(t *testing.T) {
	err := Internal(errors.New("pq: connection refused"), "user.get", "failed to load user")

	assert.NotContains(t, ErrorMessage(err), "connection refused")
	assert.Equal(t, EINTERNAL, ErrorCode(errors.New("plain")))
}

func TestProcessingFailure_Message(t *testing.T) {
	err := ProcessingFailure(errors.New("jpeg: unsupported"), "image.process")

	assert.Equal(t, EPROCESSING, ErrorCode(err))
	assert.Equal(t, "Image processing failed", ErrorMessage(err))
}

func TestFormatMegabytes(t *testing.T) {
	assert.Equal(t, "25MB", FormatMegabytes(25*1024*1024, 0))
	assert.Equal(t, "1.50MB", FormatMegabytes(3*512*1024, 2))
}

func TestValidationError_CodeAndMessage(t *testing.T) {
	ve := NewValidationError("profile.validate", "weightKg", "Weight must be between 20 and 500 kg")
	ve.Fields["age"] = "Age must be between 1 and 120"
	err := fmt.Errorf("update: %w", ve)

	assert.Equal(t, EINVALID, ErrorCode(err))
	assert.Equal(t, "Age must be between 1 and 120; Weight must be between 20 and 500 kg", ErrorMessage(err))
	assert.Nil(t, ErrorDetails(err))
}
