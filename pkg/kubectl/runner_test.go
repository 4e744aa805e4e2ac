package kubectl

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/NVIDIA/runbook/pkg/errors"
)

// stubKubectl writes an executable shell script standing in for kubectl and
// returns a Runner pointed at it. The script receives the full argument list
// and can inspect it; its own path is available as $0 for scratch files.
func stubKubectl(t *testing.T, script string) *Runner {
	t.Helper()

	path := filepath.Join(t.TempDir(), "kubectl")
	content := "#!/bin/sh\n" + script + "\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o755))

	// High limit so tests never sleep in the limiter.
	return NewRunner(WithBinary(path), WithRateLimit(10000, 10000))
}

func TestRunCapturesOutput(t *testing.T) {
	r := stubKubectl(t, `echo '{"ok":true}'`)

	res, err := r.Run(context.Background(), "get", "cronjob", "echo-job", "-o", "json")
	require.NoError(t, err)
	assert.Equal(t, 0, res.ExitCode)
	assert.JSONEq(t, `{"ok":true}`, res.Stdout)
	assert.Greater(t, res.Duration.Nanoseconds(), int64(0))
}

func TestRunCommandFailed(t *testing.T) {
	r := stubKubectl(t, `echo "error: something broke" >&2; exit 3`)

	res, err := r.Run(context.Background(), "apply", "-f", "x.yaml")
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.ErrCodeCommandFailed))
	require.NotNil(t, res)
	assert.Equal(t, 3, res.ExitCode)
	assert.Contains(t, res.Stderr, "something broke")

	var se *errors.StructuredError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, 3, se.Context["exit_code"])
}

func TestRunNotFound(t *testing.T) {
	r := stubKubectl(t, `echo 'Error from server (NotFound): cronjobs.batch "echo-job" not found' >&2; exit 1`)

	_, err := r.Run(context.Background(), "get", "cronjob", "echo-job")
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.ErrCodeNotFound))
	assert.False(t, errors.HasCode(err, errors.ErrCodeCommandFailed))
}

func TestRunUnreachable(t *testing.T) {
	r := stubKubectl(t, `echo 'The connection to the server localhost:8443 was refused - connection refused' >&2; exit 1`)

	_, err := r.Run(context.Background(), "get", "pods")
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.ErrCodeUnavailable))
}

func TestRunKubeconfigPrepended(t *testing.T) {
	r := stubKubectl(t, `echo "$@" > "$0.args"`)
	r.kubeconfig = "/tmp/kcfg"

	_, err := r.Run(context.Background(), "get", "pods")
	require.NoError(t, err)

	raw, readErr := os.ReadFile(r.binary + ".args")
	require.NoError(t, readErr)
	assert.True(t, strings.HasPrefix(string(raw), "--kubeconfig /tmp/kcfg get pods"),
		"got args: %s", raw)
}

func TestExistsTreatsNotFoundAsAbsent(t *testing.T) {
	r := stubKubectl(t, `echo 'Error from server (NotFound): pods "x" not found' >&2; exit 1`)

	ok, err := r.Exists(context.Background(), ResourceRef{Kind: "pod", Name: "x", Namespace: "default"})
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestExistsPresent(t *testing.T) {
	r := stubKubectl(t, `echo 'pod/x'`)

	ok, err := r.Exists(context.Background(), ResourceRef{Kind: "pod", Name: "x", Namespace: "default"})
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestDeleteIdempotent(t *testing.T) {
	// kubectl with --ignore-not-found exits 0 on absence, but some resource
	// kinds still report NotFound; both must be success.
	r := stubKubectl(t, `echo 'Error from server (NotFound): jobs.batch "gone" not found' >&2; exit 1`)

	err := r.Delete(context.Background(), ResourceRef{Kind: "job", Name: "gone", Namespace: "default"})
	assert.NoError(t, err)
}

func TestDeleteBySelectorZeroMatches(t *testing.T) {
	r := stubKubectl(t, `echo 'No resources found'`)

	err := r.DeleteBySelector(context.Background(), "job", "default", "app=manual-backup")
	assert.NoError(t, err)
}

func TestCreateJobFrom(t *testing.T) {
	r := stubKubectl(t, `echo "$@" > "$0.args"; echo 'job.batch/echo-job-manual created'`)

	from := ResourceRef{Kind: "cronjob", Name: "echo-job", Namespace: "default"}
	ref, err := r.CreateJobFrom(context.Background(), "default", "echo-job-manual", from)
	require.NoError(t, err)
	assert.Equal(t, "job/echo-job-manual", ref.Slash())

	raw, readErr := os.ReadFile(r.binary + ".args")
	require.NoError(t, readErr)
	assert.Contains(t, string(raw), "create job echo-job-manual --from=cronjob/echo-job -n default")
}

func TestLabelSortedAndOverwritten(t *testing.T) {
	r := stubKubectl(t, `echo "$@" > "$0.args"`)

	ref := ResourceRef{Kind: "job", Name: "echo-job-manual", Namespace: "default"}
	err := r.Label(context.Background(), ref, map[string]string{
		"run-id": "abc123",
		"app":    "manual-backup",
	})
	require.NoError(t, err)

	raw, readErr := os.ReadFile(r.binary + ".args")
	require.NoError(t, readErr)
	assert.Contains(t, string(raw), "app=manual-backup run-id=abc123 --overwrite")
}

func TestLabelNoopOnEmpty(t *testing.T) {
	r := stubKubectl(t, `echo "$@" > "$0.args"`)

	err := r.Label(context.Background(), ResourceRef{Kind: "job", Name: "x"}, nil)
	require.NoError(t, err)

	_, statErr := os.Stat(r.binary + ".args")
	assert.True(t, os.IsNotExist(statErr), "no command should have run")
}

func TestProbeUnavailable(t *testing.T) {
	r := stubKubectl(t, `echo 'Unable to connect to the server: dial tcp: no such host' >&2; exit 1`)

	_, err := r.Probe(context.Background())
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.ErrCodeUnavailable))
}

func TestProbeReportsServerVersion(t *testing.T) {
	r := stubKubectl(t, `echo '{"clientVersion":{"gitVersion":"v1.31.0"},"serverVersion":{"gitVersion":"v1.29.4-eks-3025e55"}}'`)

	srv, err := r.Probe(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "1.29.4", srv.String())
}

func TestVerbOf(t *testing.T) {
	assert.Equal(t, "get", verbOf([]string{"get", "pods"}))
	assert.Equal(t, "unknown", verbOf(nil))
}
