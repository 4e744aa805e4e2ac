package kubectl

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	corev1 "k8s.io/api/core/v1"
)

func TestCronJobTypedDecode(t *testing.T) {
	r := stubKubectl(t, `cat <<'EOF'
{
  "apiVersion": "batch/v1",
  "kind": "CronJob",
  "metadata": {"name": "echo-job", "namespace": "default"},
  "spec": {"schedule": "*/5 * * * *", "suspend": false},
  "status": {"active": [{"name": "echo-job-29000000"}]}
}
EOF`)

	cj, err := r.CronJob(context.Background(), "default", "echo-job")
	require.NoError(t, err)
	assert.Equal(t, "echo-job", cj.Name)
	require.NotNil(t, cj.Spec.Suspend)
	assert.False(t, *cj.Spec.Suspend)
	assert.Len(t, cj.Status.Active, 1)
}

func TestPodTypedDecode(t *testing.T) {
	r := stubKubectl(t, `cat <<'EOF'
{
  "apiVersion": "v1",
  "kind": "Pod",
  "metadata": {"name": "echo-job-manual-x7kq2", "labels": {"job-name": "echo-job-manual"}},
  "status": {"phase": "Running"}
}
EOF`)

	pod, err := r.Pod(context.Background(), "default", "echo-job-manual-x7kq2")
	require.NoError(t, err)
	assert.Equal(t, corev1.PodRunning, pod.Status.Phase)
}

func TestPodsEmptyList(t *testing.T) {
	r := stubKubectl(t, `echo '{"apiVersion":"v1","kind":"List","items":[]}'`)

	list, err := r.Pods(context.Background(), "default", "job-name=echo-job-manual")
	require.NoError(t, err)
	assert.Empty(t, list.Items, "zero matches is a valid result")
}

func TestPersistentVolumeClaimPhase(t *testing.T) {
	r := stubKubectl(t, `cat <<'EOF'
{
  "apiVersion": "v1",
  "kind": "PersistentVolumeClaim",
  "metadata": {"name": "data-claim", "namespace": "default"},
  "status": {"phase": "Bound"}
}
EOF`)

	pvc, err := r.PersistentVolumeClaim(context.Background(), "default", "data-claim")
	require.NoError(t, err)
	assert.Equal(t, corev1.ClaimBound, pvc.Status.Phase)
}

func TestGetIntoRejectsGarbage(t *testing.T) {
	r := stubKubectl(t, `echo 'this is not json'`)

	_, err := r.Pod(context.Background(), "default", "x")
	assert.Error(t, err)
}

func TestDescribeAbsentResource(t *testing.T) {
	r := stubKubectl(t, `echo 'Error from server (NotFound): pods "gone" not found' >&2; exit 1`)

	out := r.Describe(context.Background(), ResourceRef{Kind: "pod", Name: "gone", Namespace: "default"})
	assert.Contains(t, out, "not found")
}

func TestStreamLogsWithPrefix(t *testing.T) {
	r := stubKubectl(t, `printf 'line one\nline two\n'`)

	var buf bytes.Buffer
	pod := ResourceRef{Kind: "pod", Name: "echo-pod", Namespace: "default"}
	err := r.StreamLogs(context.Background(), pod, &buf, "[echo-pod]")
	require.NoError(t, err)
	assert.Equal(t, "[echo-pod] line one\n[echo-pod] line two\n", buf.String())
}

func TestFetchLogs(t *testing.T) {
	r := stubKubectl(t, `printf 'final output\n'`)

	out, err := r.FetchLogs(context.Background(), ResourceRef{Kind: "pod", Name: "echo-pod", Namespace: "default"})
	require.NoError(t, err)
	assert.Equal(t, "final output\n", out)
}

func TestExecInPod(t *testing.T) {
	r := stubKubectl(t, `echo "$@" > "$0.args"; printf 'marker-data'`)

	pod := ResourceRef{Kind: "pod", Name: "test-pod", Namespace: "default"}
	res, err := r.ExecInPod(context.Background(), pod, "cat", "/data/marker")
	require.NoError(t, err)
	assert.Equal(t, "marker-data", res.Stdout)
}
