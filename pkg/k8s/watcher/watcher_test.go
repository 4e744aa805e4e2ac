package watcher

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	batchv1 "k8s.io/api/batch/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/client-go/kubernetes/fake"

	"github.com/NVIDIA/runbook/pkg/errors"
	"github.com/NVIDIA/runbook/pkg/wait"
)

func TestEventWaiterImmediateSuccess(t *testing.T) {
	w := &EventWaiter{
		Client: fake.NewClientset(),
		Target: Target{Kind: "jobs", Namespace: "default", Name: "echo-job-manual"},
	}

	calls := 0
	err := w.Wait(context.Background(), wait.Spec{
		Description: "job exists",
		Timeout:     5 * time.Second,
		Interval:    time.Second,
	}, func(ctx context.Context) (bool, error) {
		calls++
		return true, nil
	})

	require.NoError(t, err)
	assert.Equal(t, 1, calls)
}

func TestEventWaiterWakesOnEvent(t *testing.T) {
	clientset := fake.NewClientset()
	w := &EventWaiter{
		Client: clientset,
		Target: Target{Kind: "jobs", Namespace: "default", Name: "echo-job-manual"},
	}

	// The job appears after the wait starts; the watch event should wake
	// the condition well before the long fallback interval.
	go func() {
		time.Sleep(50 * time.Millisecond)
		_, _ = clientset.BatchV1().Jobs("default").Create(context.Background(), &batchv1.Job{
			ObjectMeta: metav1.ObjectMeta{Name: "echo-job-manual", Namespace: "default"},
		}, metav1.CreateOptions{})
	}()

	start := time.Now()
	err := w.Wait(context.Background(), wait.Spec{
		Description: "job exists",
		Timeout:     10 * time.Second,
		Interval:    5 * time.Second, // deliberately long; event must win
	}, func(ctx context.Context) (bool, error) {
		_, err := clientset.BatchV1().Jobs("default").Get(ctx, "echo-job-manual", metav1.GetOptions{})
		return err == nil, nil
	})

	require.NoError(t, err)
	assert.Less(t, time.Since(start), 3*time.Second, "event should beat the interval tick")
}

func TestEventWaiterTimeout(t *testing.T) {
	w := &EventWaiter{
		Client: fake.NewClientset(),
		Target: Target{Kind: "pods", Namespace: "default", LabelSelector: "job-name=echo-job-manual"},
	}

	err := w.Wait(context.Background(), wait.Spec{
		Description: "pod appears",
		Timeout:     100 * time.Millisecond,
		Interval:    20 * time.Millisecond,
	}, func(ctx context.Context) (bool, error) {
		return false, nil
	})

	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.ErrCodeTimeout))
}

func TestEventWaiterCanceled(t *testing.T) {
	w := &EventWaiter{
		Client: fake.NewClientset(),
		Target: Target{Kind: "jobs", Namespace: "default", Name: "x"},
	}

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(30 * time.Millisecond)
		cancel()
	}()

	err := w.Wait(ctx, wait.Spec{
		Description: "never",
		Timeout:     10 * time.Second,
		Interval:    20 * time.Millisecond,
	}, func(ctx context.Context) (bool, error) {
		return false, nil
	})

	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.ErrCodeInterrupted))
}

func TestEventWaiterUnsupportedKindDegrades(t *testing.T) {
	w := &EventWaiter{
		Client: fake.NewClientset(),
		Target: Target{Kind: "volumes", Namespace: "default"},
	}

	// An unsupported watch kind degrades to interval polling; the condition
	// still runs and succeeds.
	calls := 0
	err := w.Wait(context.Background(), wait.Spec{
		Description: "degraded wait",
		Timeout:     time.Second,
		Interval:    10 * time.Millisecond,
	}, func(ctx context.Context) (bool, error) {
		calls++
		return calls >= 2, nil
	})

	require.NoError(t, err)
	assert.GreaterOrEqual(t, calls, 2)
}
