package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hinata/core/internal/core/apierr"
)

func TestDo_RetriesRetryableErrorUntilSuccess(t *testing.T) {
	attempts := 0

	err := Do(context.Background(), Policy{BaseDelay: time.Millisecond, MaxDelay: time.Millisecond, MaxRetries: 5}, func(ctx context.Context) error {
		attempts++
		if attempts < 3 {
			return apierr.New(apierr.KindStorageTransient, "transient")
		}

		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 3, attempts)
}

func TestDo_StopsImmediatelyOnNonRetryableError(t *testing.T) {
	attempts := 0

	err := Do(context.Background(), StorageWritePolicy(), func(ctx context.Context) error {
		attempts++
		return apierr.New(apierr.KindValidation, "bad input")
	})

	require.Error(t, err)
	assert.Equal(t, 1, attempts)
}

func TestDo_GivesUpAfterMaxRetries(t *testing.T) {
	attempts := 0

	err := Do(context.Background(), Policy{BaseDelay: time.Millisecond, MaxDelay: time.Millisecond, MaxRetries: 2}, func(ctx context.Context) error {
		attempts++
		return apierr.New(apierr.KindStorageTransient, "still failing")
	})

	require.Error(t, err)
	assert.Equal(t, 3, attempts) // initial attempt + 2 retries
}

func TestDo_UnclassifiedErrorDefaultsRetryable(t *testing.T) {
	attempts := 0

	err := Do(context.Background(), Policy{BaseDelay: time.Millisecond, MaxDelay: time.Millisecond, MaxRetries: 1}, func(ctx context.Context) error {
		attempts++
		return errors.New("unclassified")
	})

	require.Error(t, err)
	assert.Equal(t, 2, attempts)
}
