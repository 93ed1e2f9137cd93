package placement

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func fiveRackOSDs() []OSD {
	racks := []string{"r1", "r1", "r2", "r2", "r3"}
	osds := make([]OSD, len(racks))
	for i, r := range racks {
		osds[i] = OSD{ID: i, Rack: r, Up: true}
	}
	return osds
}

func TestSelectIsDeterministic(t *testing.T) {
	osds := fiveRackOSDs()

	first := Select("0.1", 3, osds)
	second := Select("0.1", 3, osds)
	require.Equal(t, first, second)
}

func TestSelectPrefersDistinctRacks(t *testing.T) {
	osds := fiveRackOSDs()

	selected := Select("0.1", 3, osds)
	require.Len(t, selected, 3)

	rackOf := make(map[int]string)
	for _, o := range osds {
		rackOf[o.ID] = o.Rack
	}

	seenRacks := make(map[string]bool)
	for _, id := range selected {
		seenRacks[rackOf[id]] = true
	}
	require.Len(t, seenRacks, 3, "expected 3 distinct racks among %v", selected)
}

func TestSelectSkipsDownAndOutOSDs(t *testing.T) {
	osds := fiveRackOSDs()
	osds[0].Up = false
	osds[4].Up = false

	selected := Select("0.3", 3, osds)
	for _, id := range selected {
		require.NotEqual(t, 0, id)
		require.NotEqual(t, 4, id)
	}
}

func TestSelectPadsWhenRacksInsufficient(t *testing.T) {
	osds := []OSD{
		{ID: 0, Rack: "r1", Up: true},
		{ID: 1, Rack: "r1", Up: true},
		{ID: 2, Rack: "r1", Up: true},
		{ID: 3, Rack: "r1", Up: true},
	}

	selected := Select("0.7", 3, osds)
	require.Len(t, selected, 3)

	// deterministic even with a single rack
	require.Equal(t, selected, Select("0.7", 3, osds))
}

func TestSelectTruncatesWhenFewerUpThanN(t *testing.T) {
	osds := fiveRackOSDs()
	for i := range osds {
		if osds[i].ID != 1 {
			osds[i].Up = false
		}
	}

	selected := Select("0.9", 3, osds)
	require.Equal(t, []int{1}, selected)
}

func TestSelectReturnsNilForNonPositiveN(t *testing.T) {
	osds := fiveRackOSDs()
	require.Nil(t, Select("0.1", 0, osds))
	require.Nil(t, Select("0.1", -1, osds))
}

func TestStableHashIsDeterministicAcrossCalls(t *testing.T) {
	require.Equal(t, StableHash("1.2"), StableHash("1.2"))
	require.NotEqual(t, StableHash("1.2"), StableHash("1.3"))
}
