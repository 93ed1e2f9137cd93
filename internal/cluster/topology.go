package cluster

// PoolSpec describes a pool to be created during cluster bootstrap.
type PoolSpec struct {
	Name    string
	Size    int
	MinSize int
	PGNum   int
}

// DefaultRacks returns the rack placement for the default 5-OSD
// bootstrap topology (Scenario 1 of §8): OSDs 0-4 placed two-two-one
// across three racks.
func DefaultRacks() []string {
	return []string{"rack1", "rack1", "rack2", "rack2", "rack3"}
}

// DefaultPools returns the pools created alongside the default
// topology: a 3x replicated "default" pool and a 3x replicated
// "metadata" pool with a smaller PG count.
func DefaultPools() []PoolSpec {
	return []PoolSpec{
		{Name: "default", Size: 3, MinSize: 2, PGNum: 32},
		{Name: "metadata", Size: 3, MinSize: 2, PGNum: 16},
	}
}

// DefaultTopology returns both halves of the default bootstrap in one
// call, for callers (the CLI's "init" subcommand) that want the
// canonical cluster shape without restating it.
func DefaultTopology() ([]string, []PoolSpec) {
	return DefaultRacks(), DefaultPools()
}
