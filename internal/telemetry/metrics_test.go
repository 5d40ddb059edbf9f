package telemetry

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMetrics_ObserveCommit(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)

	m.ObserveCommit(OutcomeSuccess, 50*time.Millisecond)
	m.ObserveCommit(OutcomeSuccess, 10*time.Millisecond)
	m.ObserveCommit(OutcomeInvalid, 0)

	if got := testutil.ToFloat64(m.CommitsTotal.WithLabelValues(OutcomeSuccess)); got != 2 {
		t.Errorf("success = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.CommitsTotal.WithLabelValues(OutcomeInvalid)); got != 1 {
		t.Errorf("invalid = %v, want 1", got)
	}
	if got := testutil.CollectAndCount(m.CommitDuration); got != 1 {
		t.Errorf("histogram series = %d, want 1", got)
	}
}

func TestMetrics_ObserveDraftSave(t *testing.T) {
	m := NewMetrics(nil)

	m.ObserveDraftSave(nil)
	m.ObserveDraftSave(errors.New("disk full"))
	m.ObserveDraftSave(nil)

	if got := testutil.ToFloat64(m.DraftSaves.WithLabelValues("ok")); got != 2 {
		t.Errorf("ok = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.DraftSaves.WithLabelValues("error")); got != 1 {
		t.Errorf("error = %v, want 1", got)
	}
}

func TestMetrics_NilSafe(t *testing.T) {
	var m *Metrics
	m.ObserveCommit(OutcomeFailed, time.Second)
	m.ObserveDraftSave(nil)
	m.ObserveRequest("GET", 200)
}
