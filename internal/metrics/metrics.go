// Package metrics exposes the simulated cluster's state and the
// object service's activity as Prometheus metrics, grounded on the
// collector pattern digitalocean/ceph_exporter uses for a real Ceph
// cluster (collectors.ClusterHealthCollector, collectors.OSDCollector):
// implement prometheus.Collector and pull fresh values from the
// monitor on every scrape rather than caching.
package metrics

import (
	"strconv"

	"github.com/cephlite/radosim/internal/cluster"
	"github.com/cephlite/radosim/internal/monitor"
	"github.com/prometheus/client_golang/prometheus"
)

// ClusterCollector adapts a *monitor.Monitor to prometheus.Collector.
// Everything here is derived from the monitor's current map (the
// epoch as a counter, the rest as gauges) — it is re-read on every
// Collect call, so no internal state needs synchronizing.
type ClusterCollector struct {
	mon *monitor.Monitor

	epoch       *prometheus.Desc
	osdUp       *prometheus.Desc
	pgState     *prometheus.Desc
	poolObjects *prometheus.Desc
}

// NewClusterCollector returns a collector over mon. Register it with
// a prometheus.Registry to expose it on a /metrics endpoint.
func NewClusterCollector(mon *monitor.Monitor) *ClusterCollector {
	return &ClusterCollector{
		mon: mon,
		epoch: prometheus.NewDesc(
			"radosim_cluster_epoch", "Current cluster map epoch.", nil, nil),
		osdUp: prometheus.NewDesc(
			"radosim_osd_up", "1 if the OSD is up, 0 otherwise.", []string{"osd", "rack"}, nil),
		pgState: prometheus.NewDesc(
			"radosim_pg_count", "Number of placement groups in a given state.", []string{"state"}, nil),
		poolObjects: prometheus.NewDesc(
			"radosim_pool_objects", "Number of objects stored in a pool.", []string{"pool"}, nil),
	}
}

// Describe implements prometheus.Collector.
func (c *ClusterCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.epoch
	ch <- c.osdUp
	ch <- c.pgState
	ch <- c.poolObjects
}

// Collect implements prometheus.Collector.
func (c *ClusterCollector) Collect(ch chan<- prometheus.Metric) {
	status := c.mon.DetailedStatus()

	ch <- prometheus.MustNewConstMetric(c.epoch, prometheus.CounterValue, float64(status.Epoch))

	for _, osd := range status.OSDs {
		up := 0.0
		if osd.State == cluster.OSDUp.String() {
			up = 1.0
		}
		ch <- prometheus.MustNewConstMetric(c.osdUp, prometheus.GaugeValue, up,
			osdLabel(osd.ID), osd.Rack)
	}

	for state, count := range status.PGStates {
		ch <- prometheus.MustNewConstMetric(c.pgState, prometheus.GaugeValue, float64(count), state)
	}

	for _, pool := range status.Pools {
		ch <- prometheus.MustNewConstMetric(c.poolObjects, prometheus.GaugeValue, float64(pool.Objects), pool.Name)
	}
}

func osdLabel(id cluster.OSDID) string {
	return "osd." + strconv.Itoa(int(id))
}

// Recorder is the set of activity counters the object service
// (internal/rados) reports into. Kept as an interface here (rather
// than importing internal/rados) so metrics has no dependency on the
// package it instruments.
type Recorder interface {
	RecordPut()
	RecordGet()
	RecordDelete()
	RecordChecksumMismatch()
	RecordReplicationBelowMin()
}

// ObjectRecorder is the default Recorder, backed by Prometheus counters.
type ObjectRecorder struct {
	puts                prometheus.Counter
	gets                prometheus.Counter
	deletes             prometheus.Counter
	checksumMismatches  prometheus.Counter
	replicationBelowMin prometheus.Counter
}

// NewObjectRecorder constructs an ObjectRecorder with its counters
// initialized to zero, ready to register with a prometheus.Registry.
func NewObjectRecorder() *ObjectRecorder {
	return &ObjectRecorder{
		puts: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "radosim_put_total", Help: "Total number of put_object calls that recorded metadata.",
		}),
		gets: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "radosim_get_total", Help: "Total number of get_object calls that returned a verified replica.",
		}),
		deletes: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "radosim_delete_total", Help: "Total number of delete_object calls that removed an object.",
		}),
		checksumMismatches: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "radosim_checksum_mismatch_total", Help: "Total number of checksum mismatches detected on read.",
		}),
		replicationBelowMin: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "radosim_replication_below_min_total", Help: "Total number of puts that failed to reach pool min_size.",
		}),
	}
}

func (r *ObjectRecorder) RecordPut()                { r.puts.Inc() }
func (r *ObjectRecorder) RecordGet()                { r.gets.Inc() }
func (r *ObjectRecorder) RecordDelete()              { r.deletes.Inc() }
func (r *ObjectRecorder) RecordChecksumMismatch()    { r.checksumMismatches.Inc() }
func (r *ObjectRecorder) RecordReplicationBelowMin() { r.replicationBelowMin.Inc() }

// Collectors returns every metric this recorder owns, for registration.
func (r *ObjectRecorder) Collectors() []prometheus.Collector {
	return []prometheus.Collector{r.puts, r.gets, r.deletes, r.checksumMismatches, r.replicationBelowMin}
}
