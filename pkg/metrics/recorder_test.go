package metrics_test

import (
	"testing"

	"github.com/goliatone/go-slicekit"
	"github.com/goliatone/go-slicekit/pkg/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecorderCountsSliceActions(t *testing.T) {
	reg := prometheus.NewRegistry()
	recorder, err := metrics.NewRecorder(reg)
	require.NoError(t, err)

	slice, err := slicekit.New("users", slicekit.Fields{
		"list":  slicekit.PaginatedList(),
		"title": slicekit.Scalar(""),
	}, slicekit.WithRecorder(recorder))
	require.NoError(t, err)

	state := slice.Reduce(nil, slicekit.LifecycleAction("api/executeQuery", slicekit.PhasePending, "users/list", slicekit.Payload{}))
	state = slice.Reduce(state, slicekit.LifecycleAction("api/executeQuery", slicekit.PhaseFulfilled, "users/list", slicekit.Payload{Results: []any{1}}))
	slice.Reduce(state, slicekit.LifecycleAction("api/executeQuery", slicekit.PhasePending, "users/unknown", slicekit.Payload{}))
	slice.Reduce(state, slice.SetPageData("title", slicekit.Payload{Results: []any{1}}))
	slice.Reduce(state, slicekit.Action{Type: "other/thing"})

	actions := recorder.Actions()
	assert.Equal(t, 1.0, testutil.ToFloat64(actions.WithLabelValues("users", slicekit.KindPending, slicekit.OutcomeApplied)))
	assert.Equal(t, 1.0, testutil.ToFloat64(actions.WithLabelValues("users", slicekit.KindFulfilled, slicekit.OutcomeApplied)))
	assert.Equal(t, 1.0, testutil.ToFloat64(actions.WithLabelValues("users", slicekit.KindPending, slicekit.OutcomeInvalidKey)))
	assert.Equal(t, 1.0, testutil.ToFloat64(actions.WithLabelValues("users", slicekit.KindPageData, slicekit.OutcomeDefaultsDisabled)))
	assert.Equal(t, 4, testutil.CollectAndCount(actions))
}

func TestNewRecorderRejectsDuplicateRegistration(t *testing.T) {
	reg := prometheus.NewRegistry()
	_, err := metrics.NewRecorder(reg)
	require.NoError(t, err)
	_, err = metrics.NewRecorder(reg)
	require.Error(t, err)
}

func TestNilRecorderIsNoop(t *testing.T) {
	var recorder *metrics.Recorder
	assert.NotPanics(t, func() { recorder.RecordAction("users", "pending", "applied") })
}
