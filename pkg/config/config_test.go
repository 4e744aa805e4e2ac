package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/NVIDIA/runbook/pkg/errors"
)

const cronjobYAML = `
kind: cronjob
namespace: batch-jobs
resource:
  name: echo-job
  manifest: examples/cronjob.yaml
waits:
  exists:
    timeout: 30s
    interval: 2s
  active:
    timeout: 60s
    interval: 2s
trigger:
  labels:
    app: manual-backup
follow:
  attempts: 12
  interval: 5s
`

func TestParseCronJobRunbook(t *testing.T) {
	rb, err := Parse([]byte(cronjobYAML))
	require.NoError(t, err)

	assert.Equal(t, KindCronJob, rb.Kind)
	assert.Equal(t, "batch-jobs", rb.Namespace)
	assert.Equal(t, "echo-job", rb.Resource.Name)
	assert.Equal(t, 30*time.Second, rb.Waits.Exists.Timeout.Std())
	assert.Equal(t, 2*time.Second, rb.Waits.Exists.Interval.Std())
	assert.Equal(t, "manual-backup", rb.Trigger.Labels["app"])
	assert.Equal(t, 12, rb.Follow.Attempts)
	assert.Equal(t, 5*time.Second, rb.Follow.Interval.Std())
}

func TestParseAppliesDefaults(t *testing.T) {
	rb, err := Parse([]byte(`
kind: cronjob
resource:
  name: echo-job
  manifest: cj.yaml
`))
	require.NoError(t, err)

	assert.Equal(t, "default", rb.Namespace)
	assert.Equal(t, "kubectl", rb.Kubectl.Binary)
	assert.Equal(t, "echo-job-manual", rb.Trigger.Name, "trigger name derives from resource")
	assert.Equal(t, 30*time.Second, rb.Waits.Exists.Timeout.Std())
	assert.Equal(t, 2*time.Minute, rb.Waits.Complete.Timeout.Std())
	assert.Equal(t, 12, rb.Follow.Attempts)
}

func TestParseVolumeRunbook(t *testing.T) {
	rb, err := Parse([]byte(`
kind: volume
resource:
  manifest: examples/volume.yaml
volume:
  claim: data-claim
  pod: volume-test-pod
`))
	require.NoError(t, err)

	assert.Equal(t, "data-claim", rb.Volume.Claim)
	assert.Equal(t, "/data", rb.Volume.MountPath)
	assert.NotEmpty(t, rb.Volume.Marker)
	assert.Equal(t, 60*time.Second, rb.Waits.Bound.Timeout.Std())
}

func TestParseRejectsUnknownKind(t *testing.T) {
	_, err := Parse([]byte(`kind: deployment`))
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.ErrCodeInvalidRequest))
}

func TestParseRejectsMissingFields(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"no kind", `namespace: default`},
		{"cronjob without resource name", "kind: cronjob\nresource:\n  manifest: x.yaml"},
		{"cronjob without manifest", "kind: cronjob\nresource:\n  name: echo-job"},
		{"volume without claim", "kind: volume\nresource:\n  manifest: v.yaml\nvolume:\n  pod: p"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Parse([]byte(tc.yaml))
			assert.Error(t, err)
		})
	}
}

func TestParseRejectsBadDuration(t *testing.T) {
	_, err := Parse([]byte(`
kind: cronjob
resource:
  name: echo-job
  manifest: cj.yaml
waits:
  exists:
    timeout: thirty-seconds
`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid duration")
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "runbook.yaml")
	require.NoError(t, os.WriteFile(path, []byte(cronjobYAML), 0o644))

	rb, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "echo-job", rb.Resource.Name)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.ErrCodeInvalidRequest))
}

func TestWaitConfigSpec(t *testing.T) {
	wc := WaitConfig{Timeout: Duration(30 * time.Second), Interval: Duration(2 * time.Second)}
	spec := wc.Spec("cronjob exists")

	assert.Equal(t, "cronjob exists", spec.Description)
	assert.Equal(t, 30*time.Second, spec.Timeout)
	assert.Equal(t, 2*time.Second, spec.Interval)
}

func TestDurationRoundTrip(t *testing.T) {
	d := Duration(90 * time.Second)
	out, err := d.MarshalYAML()
	require.NoError(t, err)
	assert.Equal(t, "1m30s", out)
}
