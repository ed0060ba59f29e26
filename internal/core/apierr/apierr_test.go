package apierr

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassify_UnwrapsKind(t *testing.T) {
	err := Wrap(KindStorageTransient, "write failed", errors.New("connection reset"))
	assert.Equal(t, KindStorageTransient, Classify(err))
}

func TestClassify_FallsBackToStorageTransient(t *testing.T) {
	assert.Equal(t, KindStorageTransient, Classify(errors.New("unclassified failure")))
}

func TestClassify_NilReturnsEmptyKind(t *testing.T) {
	assert.Equal(t, Kind(""), Classify(nil))
}

func TestKind_Retryable(t *testing.T) {
	assert.True(t, KindQuota.Retryable())
	assert.True(t, KindStorageTransient.Retryable())
	assert.True(t, KindExternalModel.Retryable())
	assert.False(t, KindValidation.Retryable())
	assert.False(t, KindAuthz.Retryable())
}

func TestError_IsMatchesByKind(t *testing.T) {
	a := New(KindProfileConflict, "concurrent update")
	b := New(KindProfileConflict, "different message")
	c := New(KindQuota, "rate limited")

	assert.True(t, errors.Is(a, b))
	assert.False(t, errors.Is(a, c))
}
