package metrics

import (
	"bytes"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/ardnew/digest/scope"
)

func TestRecorder_Digest(t *testing.T) {
	rec := New()
	root := scope.NewRoot(scope.WithRecorder(rec))
	root.Set("a", 1.0)

	if _, err := root.Watch("a", nil, false); err != nil {
		t.Fatalf("Watch failed: %v", err)
	}

	if err := root.Digest(); err != nil {
		t.Fatalf("Digest failed: %v", err)
	}

	if got := testutil.ToFloat64(rec.Digests.WithLabelValues(OutcomeConverged)); got != 1 {
		t.Errorf("converged digests = %v, want 1", got)
	}

	if got := testutil.ToFloat64(rec.WatchEvaluations); got != 2 {
		t.Errorf("watch evaluations = %v, want 2", got)
	}

	if n := testutil.CollectAndCount(rec.DigestRounds); n != 1 {
		t.Errorf("rounds histogram count = %d, want 1", n)
	}
}

func TestRecorder_NotConverging(t *testing.T) {
	rec := New()
	root := scope.NewRoot(scope.WithRecorder(rec))

	if _, err := root.Watch(func(*scope.Scope) any { return []any{1.0} }, nil, false); err != nil {
		t.Fatalf("Watch failed: %v", err)
	}

	if err := root.Digest(); err == nil {
		t.Fatal("expected digest to fail")
	}

	if got := testutil.ToFloat64(rec.Digests.WithLabelValues(OutcomeNotConverged)); got != 1 {
		t.Errorf("not converged digests = %v, want 1", got)
	}

	if got := testutil.ToFloat64(rec.WatchEvaluations); got != scope.TTL {
		t.Errorf("watch evaluations = %v, want %d", got, scope.TTL)
	}
}

func TestRecorder_CallbackErrors(t *testing.T) {
	rec := New()
	root := scope.NewRoot(scope.WithRecorder(rec))

	root.On("ping", func(*scope.Event, ...any) { panic("boom") })
	root.Broadcast("ping")
	root.Emit("ping")

	if got := testutil.ToFloat64(rec.CallbackErrors.WithLabelValues("event")); got != 2 {
		t.Errorf("event callback errors = %v, want 2", got)
	}
}

func TestRecorder_WriteText(t *testing.T) {
	rec := New()
	rec.ObserveDigest(3, 0, nil)
	rec.IncCallbackErrors("watch")

	var buf bytes.Buffer
	if err := rec.WriteText(&buf); err != nil {
		t.Fatalf("WriteText failed: %v", err)
	}

	for _, want := range []string{
		`digest_digests_total{outcome="converged"} 1`,
		`digest_callback_errors_total{kind="watch"} 1`,
		"# TYPE digest_digest_rounds histogram",
	} {
		if !strings.Contains(buf.String(), want) {
			t.Errorf("exposition missing %q:\n%s", want, buf.String())
		}
	}

	expected := `
# HELP digest_watch_evaluations_total Total number of watch functions evaluated.
# TYPE digest_watch_evaluations_total counter
digest_watch_evaluations_total 0
`
	if err := testutil.GatherAndCompare(rec.Registry(), strings.NewReader(expected),
		"digest_watch_evaluations_total"); err != nil {
		t.Error(err)
	}
}
