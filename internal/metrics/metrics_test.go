package metrics

import (
	"testing"

	"github.com/cephlite/radosim/internal/cluster"
	"github.com/cephlite/radosim/internal/monitor"
	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/require"
)

func fiveOSDCluster(t *testing.T) *monitor.Monitor {
	t.Helper()
	m := monitor.New()
	racks := []string{"r1", "r1", "r2", "r2", "r3"}
	for i, rack := range racks {
		m.AddOSD(cluster.OSDID(i), rack, 1.0)
	}
	_, err := m.CreatePool("default", 3, 2, 4)
	require.NoError(t, err)
	return m
}

func collectMetric(t *testing.T, c *ClusterCollector) []*dto.Metric {
	t.Helper()
	ch := make(chan prometheus.Metric, 64)
	c.Collect(ch)
	close(ch)

	var out []*dto.Metric
	for m := range ch {
		var pb dto.Metric
		require.NoError(t, m.Write(&pb))
		out = append(out, &pb)
	}
	return out
}

func TestClusterCollectorReportsEpoch(t *testing.T) {
	m := fiveOSDCluster(t)
	c := NewClusterCollector(m)

	metrics := collectMetric(t, c)
	require.NotEmpty(t, metrics)

	found := false
	for _, pb := range metrics {
		if pb.Counter != nil && pb.GetCounter().GetValue() == float64(m.Epoch()) {
			found = true
		}
	}
	require.True(t, found, "expected one metric to report the current epoch")
}

func TestClusterCollectorReportsOSDUpGauges(t *testing.T) {
	m := fiveOSDCluster(t)
	require.NoError(t, m.SetOSDState(0, cluster.OSDDown))
	c := NewClusterCollector(m)

	down := 0
	for _, pb := range collectMetric(t, c) {
		isOSDGauge := false
		for _, lp := range pb.GetLabel() {
			if lp.GetName() == "osd" {
				isOSDGauge = true
			}
		}
		if isOSDGauge && pb.Gauge != nil && pb.GetGauge().GetValue() == 0 {
			down++
		}
	}
	require.Equal(t, 1, down)
}

func TestObjectRecorderCountersIncrement(t *testing.T) {
	r := NewObjectRecorder()
	r.RecordPut()
	r.RecordPut()
	r.RecordGet()
	r.RecordChecksumMismatch()
	r.RecordReplicationBelowMin()
	r.RecordDelete()

	require.Equal(t, float64(2), readCounter(t, r.puts))
	require.Equal(t, float64(1), readCounter(t, r.gets))
	require.Equal(t, float64(1), readCounter(t, r.deletes))
	require.Equal(t, float64(1), readCounter(t, r.checksumMismatches))
	require.Equal(t, float64(1), readCounter(t, r.replicationBelowMin))
}

func readCounter(t *testing.T, c prometheus.Counter) float64 {
	t.Helper()
	var pb dto.Metric
	require.NoError(t, c.Write(&pb))
	return pb.GetCounter().GetValue()
}
