package pipeline

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRetryPolicyStopsAtBudget(t *testing.T) {
	calls := 0
	p := RetryPolicy{Attempts: 2, RetryOn: func(error) bool { return true }}
	err := p.Run(context.Background(), func(context.Context) error {
		calls++
		return errors.New("boom")
	})
	require.Error(t, err)
	assert.Equal(t, 2, calls)
}

func TestRetryPolicyPermanentError(t *testing.T) {
	calls := 0
	p := CreateRetryPolicy()
	wantErr := failf(KindNetwork, "status 404")
	err := p.Run(context.Background(), func(context.Context) error {
		calls++
		return wantErr
	})
	assert.Equal(t, 1, calls, "only server errors are retry-eligible")
	var pe *Error
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, KindNetwork, pe.Kind)
}

func TestRetryPolicySucceedsMidway(t *testing.T) {
	calls := 0
	p := CreateRetryPolicy()
	err := p.Run(context.Background(), func(context.Context) error {
		calls++
		if calls == 1 {
			return failf(KindServer, "status 503")
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
}

func TestRetryPolicyZeroValueSingleAttempt(t *testing.T) {
	calls := 0
	var p RetryPolicy
	_ = p.Run(context.Background(), func(context.Context) error {
		calls++
		return errors.New("x")
	})
	assert.Equal(t, 1, calls)
}
