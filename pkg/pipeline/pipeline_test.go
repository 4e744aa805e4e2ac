package pipeline

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/NVIDIA/runbook/pkg/errors"
)

func TestRunAllStepsInOrder(t *testing.T) {
	var order []string
	step := func(name string, mode Mode) Step {
		return Step{Name: name, Mode: mode, Run: func(ctx context.Context) error {
			order = append(order, name)
			return nil
		}}
	}

	p := &Pipeline{
		Name:     "demo",
		Steps:    []Step{step("cleanup-existing", BestEffort), step("apply", Strict), step("verify", BestEffort)},
		Teardown: []Step{step("teardown", BestEffort)},
	}

	report, err := p.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"cleanup-existing", "apply", "verify", "teardown"}, order)
	assert.True(t, report.Succeeded())
	assert.Len(t, report.Steps, 4)
}

func TestStrictFailureAbortsAndTearsDown(t *testing.T) {
	var order []string
	boom := errors.New(errors.ErrCodeCommandFailed, "apply failed")

	p := &Pipeline{
		Name: "demo",
		Steps: []Step{
			{Name: "apply", Mode: Strict, Run: func(ctx context.Context) error { order = append(order, "apply"); return boom }},
			{Name: "observe", Mode: Strict, Run: func(ctx context.Context) error { order = append(order, "observe"); return nil }},
		},
		Teardown: []Step{
			{Name: "teardown", Mode: BestEffort, Run: func(ctx context.Context) error { order = append(order, "teardown"); return nil }},
		},
	}

	report, err := p.Run(context.Background())
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.ErrCodeCommandFailed))
	assert.Equal(t, []string{"apply", "teardown"}, order, "later steps never run, teardown does")
	assert.False(t, report.Succeeded())

	// The aborted step is skipped in the report, never silently dropped.
	var skipped bool
	for _, s := range report.Steps {
		if s.Name == "observe" && s.Status == StatusSkipped {
			skipped = true
		}
	}
	assert.True(t, skipped)
}

func TestBestEffortFailureContinues(t *testing.T) {
	var order []string

	p := &Pipeline{
		Name: "demo",
		Steps: []Step{
			{Name: "verify", Mode: BestEffort, Run: func(ctx context.Context) error {
				order = append(order, "verify")
				return fmt.Errorf("suspend flag mismatch")
			}},
			{Name: "act", Mode: Strict, Run: func(ctx context.Context) error { order = append(order, "act"); return nil }},
		},
	}

	report, err := p.Run(context.Background())
	require.NoError(t, err, "best-effort failures do not fail the run")
	assert.Equal(t, []string{"verify", "act"}, order)
	assert.Equal(t, StatusWarned, report.Steps[0].Status)
	assert.True(t, report.Succeeded())
}

func TestInterruptTransitionsToTeardown(t *testing.T) {
	var tornDown bool
	var dumped bool

	ctx, cancel := context.WithCancel(context.Background())

	p := &Pipeline{
		Name: "demo",
		Steps: []Step{
			{Name: "apply", Mode: Strict, Run: func(ctx context.Context) error { return nil }},
			{Name: "observe", Mode: Strict, Run: func(ctx context.Context) error {
				cancel() // operator hits ctrl-c mid-step
				<-ctx.Done()
				return ctx.Err()
			}},
			{Name: "never-runs", Mode: Strict, Run: func(ctx context.Context) error {
				t.Error("step after interrupt must not run")
				return nil
			}},
		},
		Teardown: []Step{
			{Name: "teardown", Mode: BestEffort, Run: func(ctx context.Context) error {
				require.NoError(t, ctx.Err(), "teardown context must not be the canceled run context")
				tornDown = true
				return nil
			}},
		},
		StateDump: func(ctx context.Context) string {
			dumped = true
			return "job/echo-job-manual: active"
		},
	}

	report, err := p.Run(ctx)
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.ErrCodeInterrupted))
	assert.True(t, tornDown, "interrupt must still tear down")
	assert.True(t, dumped, "interrupt must report current resource state")
	assert.True(t, report.Interrupted)
	assert.False(t, report.Succeeded())
}

func TestTeardownFailureSurfacedNotFatal(t *testing.T) {
	p := &Pipeline{
		Name:  "demo",
		Steps: []Step{{Name: "apply", Mode: Strict, Run: func(ctx context.Context) error { return nil }}},
		Teardown: []Step{
			{Name: "delete-job", Mode: BestEffort, Run: func(ctx context.Context) error {
				return fmt.Errorf("control plane hiccup")
			}},
		},
	}

	report, err := p.Run(context.Background())
	require.NoError(t, err, "teardown trouble never fails a successful run")

	var found bool
	for _, s := range report.Steps {
		if s.Name == "delete-job" {
			found = true
			assert.Equal(t, StatusWarned, s.Status)
			assert.Contains(t, s.Error, "hiccup")
		}
	}
	assert.True(t, found, "teardown outcome must appear in the report")
}

func TestReportSummary(t *testing.T) {
	p := &Pipeline{
		Name: "cronjob-lifecycle",
		Steps: []Step{
			{Name: "cleanup-existing", Mode: BestEffort, Run: func(ctx context.Context) error { return nil }},
			{Name: "apply", Mode: Strict, Run: func(ctx context.Context) error {
				time.Sleep(5 * time.Millisecond)
				return nil
			}},
		},
	}

	report, err := p.Run(context.Background())
	require.NoError(t, err)

	summary := report.Summary()
	assert.Contains(t, summary, "cronjob-lifecycle: succeeded")
	assert.Contains(t, summary, "Cleanup Existing")
	assert.Contains(t, summary, "Apply")
}
