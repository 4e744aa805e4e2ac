package wait

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/NVIDIA/runbook/pkg/errors"
)

func TestPollerImmediateSuccess(t *testing.T) {
	p := Poller{}
	calls := 0

	start := time.Now()
	err := p.Wait(context.Background(), Spec{
		Description: "resource exists",
		Timeout:     10 * time.Second,
		Interval:    time.Second,
	}, func(ctx context.Context) (bool, error) {
		calls++
		return true, nil
	})

	require.NoError(t, err)
	assert.Equal(t, 1, calls)
	assert.Less(t, time.Since(start), time.Second, "immediate success must not sleep")
}

func TestPollerSucceedsBeforeTimeout(t *testing.T) {
	p := Poller{}
	calls := 0

	start := time.Now()
	err := p.Wait(context.Background(), Spec{
		Description: "resource exists",
		Timeout:     5 * time.Second,
		Interval:    10 * time.Millisecond,
	}, func(ctx context.Context) (bool, error) {
		calls++
		return calls >= 3, nil
	})

	require.NoError(t, err)
	assert.Equal(t, 3, calls)
	assert.Less(t, time.Since(start), time.Second, "must return well before timeout")
}

func TestPollerTimeout(t *testing.T) {
	p := Poller{}

	timeout := 100 * time.Millisecond
	interval := 20 * time.Millisecond

	start := time.Now()
	err := p.Wait(context.Background(), Spec{
		Description: "never true",
		Timeout:     timeout,
		Interval:    interval,
	}, func(ctx context.Context) (bool, error) {
		return false, nil
	})
	elapsed := time.Since(start)

	require.Error(t, err)
	assert.True(t, IsTimeout(err))
	assert.Contains(t, err.Error(), "never true")
	// Terminates within one interval of the timeout.
	assert.Less(t, elapsed, timeout+2*interval)

	var se *errors.StructuredError
	require.ErrorAs(t, err, &se)
	attempts, ok := se.Context["attempts"].(int)
	require.True(t, ok, "timeout error must report attempts")
	assert.GreaterOrEqual(t, attempts, 2)
}

func TestPollerZeroTimeoutEvaluatesOnce(t *testing.T) {
	p := Poller{}
	calls := 0

	err := p.Wait(context.Background(), Spec{
		Description: "single shot",
		Timeout:     0,
		Interval:    time.Second,
	}, func(ctx context.Context) (bool, error) {
		calls++
		return true, nil
	})

	require.NoError(t, err)
	assert.Equal(t, 1, calls)
}

func TestPollerToleratesConditionErrors(t *testing.T) {
	p := Poller{}
	calls := 0

	err := p.Wait(context.Background(), Spec{
		Description: "flaky lookup",
		Timeout:     5 * time.Second,
		Interval:    10 * time.Millisecond,
	}, func(ctx context.Context) (bool, error) {
		calls++
		if calls < 3 {
			return false, fmt.Errorf("transient: connection refused")
		}
		return true, nil
	})

	require.NoError(t, err, "transient condition errors must not be fatal")
	assert.Equal(t, 3, calls)
}

func TestPollerCanceled(t *testing.T) {
	p := Poller{}

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(30 * time.Millisecond)
		cancel()
	}()

	err := p.Wait(ctx, Spec{
		Description: "interrupted wait",
		Timeout:     10 * time.Second,
		Interval:    10 * time.Millisecond,
	}, func(ctx context.Context) (bool, error) {
		return false, nil
	})

	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.ErrCodeInterrupted))
	assert.False(t, IsTimeout(err))
}

func TestSpecDefaultInterval(t *testing.T) {
	assert.Equal(t, DefaultInterval, Spec{}.interval())
	assert.Equal(t, time.Second, Spec{Interval: time.Second}.interval())
}
