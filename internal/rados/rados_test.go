package rados

import (
	"encoding/json"
	"testing"

	"github.com/cephlite/radosim/internal/cluster"
	"github.com/cephlite/radosim/internal/monitor"
	"github.com/stretchr/testify/require"
)

func newFiveOSDCluster(t *testing.T) (*monitor.Monitor, *RADOS) {
	t.Helper()
	m := monitor.New()
	racks := []string{"r1", "r1", "r2", "r2", "r3"}
	for i, rack := range racks {
		m.AddOSD(cluster.OSDID(i), rack, 1.0)
	}
	return m, New(m)
}

func TestReplicatedRoundTrip(t *testing.T) {
	m, r := newFiveOSDCluster(t)
	_, err := m.CreatePool("default", 3, 2, 4)
	require.NoError(t, err)

	result, err := r.PutObject("default", "hello", []byte("world"))
	require.NoError(t, err)
	require.Len(t, result.Replicas, 3)
	require.Equal(t, "default", result.Pool)
	require.Equal(t, 5, result.SizeBytes)

	data, meta, ok := r.GetObject("default", "hello")
	require.True(t, ok)
	require.Equal(t, []byte("world"), data)
	require.Equal(t, "486ea46224d1bb4fb680f34f7c9ad96a8f24ec88be73ea8e5a6c65260e9cb8a7", meta.Checksum)
}

func TestPutFailsWhenPoolMissing(t *testing.T) {
	_, r := newFiveOSDCluster(t)

	_, err := r.PutObject("nope", "x", []byte("d"))
	require.ErrorIs(t, err, ErrPoolNotFound)
}

func TestMinSizeFailureLeavesPoolUnchanged(t *testing.T) {
	m, r := newFiveOSDCluster(t)

	require.NoError(t, m.SetOSDState(0, cluster.OSDDown))
	require.NoError(t, m.SetOSDState(2, cluster.OSDDown))
	require.NoError(t, m.SetOSDState(4, cluster.OSDDown))

	_, err := m.CreatePool("tight", 3, 3, 4)
	require.NoError(t, err)

	_, err = r.PutObject("tight", "x", []byte("d"))
	require.ErrorIs(t, err, ErrReplicationBelowMin)

	_, _, ok := r.GetObject("tight", "x")
	require.False(t, ok)

	pool, ok := m.LookupPoolByName("tight")
	require.True(t, ok)
	require.Equal(t, 0, pool.ObjectCount())
}

func TestDeleteIsIdempotent(t *testing.T) {
	m, r := newFiveOSDCluster(t)
	_, err := m.CreatePool("default", 3, 2, 4)
	require.NoError(t, err)

	require.False(t, r.DeleteObject("default", "nope"))

	_, err = r.PutObject("default", "x", []byte("data"))
	require.NoError(t, err)

	require.True(t, r.DeleteObject("default", "x"))
	require.False(t, r.DeleteObject("default", "x"))

	_, _, ok := r.GetObject("default", "x")
	require.False(t, ok)
}

func TestGetAfterDeleteReturnsAbsent(t *testing.T) {
	m, r := newFiveOSDCluster(t)
	_, err := m.CreatePool("default", 3, 2, 4)
	require.NoError(t, err)

	_, err = r.PutObject("default", "x", []byte("data"))
	require.NoError(t, err)
	require.True(t, r.DeleteObject("default", "x"))

	_, _, ok := r.GetObject("default", "x")
	require.False(t, ok)
}

func TestPutFailsWhenPGInactive(t *testing.T) {
	m := monitor.New()
	r := New(m)

	// No OSDs at all: every PG is inactive.
	_, err := m.CreatePool("empty", 3, 2, 4)
	require.NoError(t, err)

	_, err = r.PutObject("empty", "x", []byte("d"))
	require.ErrorIs(t, err, ErrPGInactive)
}

func TestListObjectsReportsReplicaHealth(t *testing.T) {
	m, r := newFiveOSDCluster(t)
	_, err := m.CreatePool("default", 3, 2, 4)
	require.NoError(t, err)

	_, err = r.PutObject("default", "x", []byte("data"))
	require.NoError(t, err)

	list, err := r.ListObjects("default")
	require.NoError(t, err)
	require.Len(t, list, 1)
	require.Equal(t, 3, list[0].TotalReplicas)
	require.Equal(t, 3, list[0].HealthyReplicas)

	pool, _ := m.LookupPoolByName("default")
	pg, _ := m.LookupPG(pool.PGID("x"))
	require.NoError(t, m.SetOSDState(pg.Primary, cluster.OSDDown))

	// Marking the primary down remaps the PG onto the remaining up
	// OSDs, so the recomputed acting set is again fully healthy.
	list, err = r.ListObjects("default")
	require.NoError(t, err)
	require.Equal(t, 3, list[0].HealthyReplicas)
}

func TestListObjectsFailsWhenPoolMissing(t *testing.T) {
	_, r := newFiveOSDCluster(t)
	_, err := r.ListObjects("nope")
	require.ErrorIs(t, err, ErrPoolNotFound)
}

func TestFailoverReadSurvivesPrimaryCorruption(t *testing.T) {
	m, r := newFiveOSDCluster(t)
	_, err := m.CreatePool("default", 3, 2, 4)
	require.NoError(t, err)

	_, err = r.PutObject("default", "x", []byte("original"))
	require.NoError(t, err)

	pool, _ := m.LookupPoolByName("default")
	pg, _ := m.LookupPG(pool.PGID("x"))

	primary, ok := m.LookupOSD(pg.Primary)
	require.True(t, ok)
	// Corrupt the primary's copy out-of-band.
	require.NoError(t, primary.StoreObject(pool.ID, "x", []byte("corrupted"), mustMetaJSON(t, m, "default", "x")))

	data, _, ok := r.GetObject("default", "x")
	require.True(t, ok)
	require.Equal(t, []byte("original"), data)
}

func mustMetaJSON(t *testing.T, m *monitor.Monitor, poolName, objectID string) []byte {
	t.Helper()
	pool, ok := m.LookupPoolByName(poolName)
	require.True(t, ok)
	meta, ok := pool.ObjectMeta(objectID)
	require.True(t, ok)
	// Re-use the same metadata bytes the OSD already has; only the
	// data blob is being corrupted here, not its metadata sibling.
	b, err := json.Marshal(meta)
	require.NoError(t, err)
	return b
}
