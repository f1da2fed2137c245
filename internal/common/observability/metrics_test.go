package observability

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "sales-dashboard/internal/common/errors"
	"sales-dashboard/internal/common/logger"
)

func family(t *testing.T, reg *prometheus.Registry, prefix string) *dto.MetricFamily {
	t.Helper()
	families, err := reg.Gather()
	require.NoError(t, err)
	for _, mf := range families {
		if strings.HasPrefix(mf.GetName(), prefix) {
			return mf
		}
	}
	return nil
}

func labels(m *dto.Metric) map[string]string {
	out := map[string]string{}
	for _, lp := range m.GetLabel() {
		out[lp.GetName()] = lp.GetValue()
	}
	return out
}

func TestTrack_RecordsOutcome(t *testing.T) {
	reg := prometheus.NewRegistry()
	obs := New("sales-dashboard-test", reg, logger.NewTestLogger(t))
	t.Cleanup(func() { _ = obs.Shutdown(context.Background()) })

	ctx := context.Background()
	obs.Track(ctx, "summary")(nil)
	obs.Track(ctx, "summary")(nil)
	obs.Track(ctx, "search")(apperrors.NewConnectionError("elasticsearch unreachable", errors.New("refused")))

	counter := family(t, reg, "engine_operations")
	require.NotNil(t, counter, "operation counter is exported")

	got := map[string]float64{}
	for _, m := range counter.GetMetric() {
		l := labels(m)
		got[l["operation"]+"/"+l["status"]+"/"+l["error_code"]] = m.GetCounter().GetValue()
	}
	assert.Equal(t, 2.0, got["summary/success/"])
	assert.Equal(t, 1.0, got["search/error/CONNECTION_ERROR"])

	assert.NotNil(t, family(t, reg, "engine_operation_duration"), "duration histogram is exported")
}

func TestNilObservabilityIsNoOp(t *testing.T) {
	var obs *Observability
	assert.NotPanics(t, func() {
		obs.Track(context.Background(), "summary")(nil)
		assert.NoError(t, obs.Shutdown(context.Background()))
	})
}
