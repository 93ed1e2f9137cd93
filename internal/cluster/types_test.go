package cluster

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestOSDStateStringAndParse(t *testing.T) {
	for _, s := range []OSDState{OSDUp, OSDDown, OSDOut} {
		parsed, err := ParseOSDState(s.String())
		require.NoError(t, err)
		require.Equal(t, s, parsed)
	}

	_, err := ParseOSDState("sideways")
	require.Error(t, err)
}

func TestPGStateString(t *testing.T) {
	require.Equal(t, "inactive", PGInactive.String())
	require.Equal(t, "active+clean", PGActiveClean.String())
	require.Equal(t, "active+degraded", PGActiveDegraded.String())
	require.Equal(t, "recovering", PGRecovering.String())
}

func TestOSDStoreObjectFailsWhenNotUp(t *testing.T) {
	o := NewOSD(0, "r1", 1.0)
	o.SetState(OSDDown)

	err := o.StoreObject(1, "x", []byte("data"), []byte("meta"))
	require.ErrorIs(t, err, ErrOSDNotUp)
}

func TestOSDRoundTripAndDeleteIdempotent(t *testing.T) {
	o := NewOSD(0, "r1", 1.0)

	require.NoError(t, o.StoreObject(1, "x", []byte("data"), []byte("meta")))

	data, meta, ok := o.RetrieveObject(1, "x")
	require.True(t, ok)
	require.Equal(t, []byte("data"), data)
	require.Equal(t, []byte("meta"), meta)

	require.True(t, o.DeleteObject(1, "x"))
	require.True(t, o.DeleteObject(1, "x"))

	_, _, ok = o.RetrieveObject(1, "x")
	require.False(t, ok)
}

func TestOSDRetrieveFailsWhenNotUp(t *testing.T) {
	o := NewOSD(0, "r1", 1.0)
	require.NoError(t, o.StoreObject(1, "x", []byte("data"), []byte("meta")))

	o.SetState(OSDDown)
	_, _, ok := o.RetrieveObject(1, "x")
	require.False(t, ok)
}

func TestOSDHeartbeatReflectsCurrentState(t *testing.T) {
	o := NewOSD(5, "r2", 2.0)
	o.SetState(OSDDown)

	hb := o.Heartbeat()
	require.Equal(t, OSDID(5), hb.OSDID)
	require.Equal(t, "down", hb.State)
	require.Equal(t, "r2", hb.Rack)
}

func TestOSDPGAssignmentsTracking(t *testing.T) {
	o := NewOSD(0, "r1", 1.0)
	require.Empty(t, o.PGAssignments())

	o.AssignPG("0.1")
	o.AssignPG("0.2")
	require.ElementsMatch(t, []string{"0.1", "0.2"}, o.PGAssignments())

	o.ResetPGAssignments()
	require.Empty(t, o.PGAssignments())
}

func TestPoolPGIndexIsStableAcrossCalls(t *testing.T) {
	p := NewPool(0, "default", 3, 2, 64)

	first := p.PGIndex("hello")
	second := p.PGIndex("hello")
	require.Equal(t, first, second)
	require.GreaterOrEqual(t, first, 0)
	require.Less(t, first, 64)
}

func TestPlacementGroupActingSet(t *testing.T) {
	pg := NewPlacementGroup("0.1", 0)
	require.Nil(t, pg.ActingSet())

	pg.Primary = 3
	pg.Replicas = []OSDID{1, 2}
	require.Equal(t, []OSDID{3, 1, 2}, pg.ActingSet())
}

func TestPGIndexFromPGID(t *testing.T) {
	poolID, idx, err := PGIndexFromPGID("2.17")
	require.NoError(t, err)
	require.Equal(t, PoolID(2), poolID)
	require.Equal(t, 17, idx)

	_, _, err = PGIndexFromPGID("garbage")
	require.Error(t, err)
}
