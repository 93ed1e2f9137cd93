// Package monitor implements the sole owner of the cluster map
// (§4.4): OSDs, pools, placement groups, and the map epoch. All
// topology-changing operations are serialized under the monitor lock
// and either fully apply — bumping the epoch — or fail before any
// mutation takes place.
package monitor

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/cephlite/radosim/internal/cluster"
	"github.com/cephlite/radosim/internal/placement"
	"github.com/pkg/errors"
)

// Sentinel errors for the monitor's operations (§7 error taxonomy).
var (
	ErrDuplicatePool   = errors.New("pool already exists")
	ErrInvalidArgument = errors.New("invalid argument")
	ErrOSDNotFound     = errors.New("osd not found")
)

// Monitor owns the authoritative cluster map, guarded by a single
// mutex (the "M" lock of §5). Every exported method that mutates the
// map acquires it for the full duration of the call.
type Monitor struct {
	mu sync.Mutex

	osds        map[cluster.OSDID]*cluster.OSD
	pools       map[cluster.PoolID]*cluster.Pool
	poolsByName map[string]cluster.PoolID
	pgs         map[string]*cluster.PlacementGroup

	epoch      uint64
	nextPoolID cluster.PoolID
}

// New returns an empty monitor: no OSDs, no pools, epoch 0.
func New() *Monitor {
	return &Monitor{
		osds:        make(map[cluster.OSDID]*cluster.OSD),
		pools:       make(map[cluster.PoolID]*cluster.Pool),
		poolsByName: make(map[string]cluster.PoolID),
		pgs:         make(map[string]*cluster.PlacementGroup),
	}
}

// Epoch returns the current cluster map epoch.
func (m *Monitor) Epoch() uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.epoch
}

// AddOSD inserts a new OSD into the cluster map and recomputes placement.
func (m *Monitor) AddOSD(id cluster.OSDID, rack string, weight float64) *cluster.OSD {
	m.mu.Lock()
	defer m.mu.Unlock()

	osd := cluster.NewOSD(id, rack, weight)
	m.osds[id] = osd
	m.updatePGMappingsLocked()
	m.epoch++
	return osd
}

// RemoveOSD sets an OSD's state to Out (excluded from placement while
// it stays Out) and recomputes placement. Per §4.5 this is reversible —
// an operator can re-admit the OSD with SetOSDState(..., Up).
func (m *Monitor) RemoveOSD(id cluster.OSDID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	osd, ok := m.osds[id]
	if !ok {
		return errors.Wrapf(ErrOSDNotFound, "osd %d", id)
	}
	osd.SetState(cluster.OSDOut)
	m.updatePGMappingsLocked()
	m.epoch++
	return nil
}

// SetOSDState transitions an OSD between up/down/out and recomputes placement.
func (m *Monitor) SetOSDState(id cluster.OSDID, state cluster.OSDState) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	osd, ok := m.osds[id]
	if !ok {
		return errors.Wrapf(ErrOSDNotFound, "osd %d", id)
	}
	osd.SetState(state)
	m.updatePGMappingsLocked()
	m.epoch++
	return nil
}

// CreatePool assigns the next pool ID, materializes pgNum placement
// groups, and recomputes placement. Fails with ErrDuplicatePool if
// name is already in use, or ErrInvalidArgument if size/min_size/
// pg_num are out of range.
func (m *Monitor) CreatePool(name string, size, minSize, pgNum int) (cluster.PoolID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.poolsByName[name]; exists {
		return 0, errors.Wrapf(ErrDuplicatePool, "pool %q", name)
	}
	if size < 1 {
		return 0, errors.Wrap(ErrInvalidArgument, "size must be >= 1")
	}
	if minSize < 1 || minSize > size {
		return 0, errors.Wrap(ErrInvalidArgument, "min_size must be between 1 and size")
	}
	if pgNum < 1 {
		return 0, errors.Wrap(ErrInvalidArgument, "pg_num must be >= 1")
	}

	id := m.nextPoolID
	m.nextPoolID++

	pool := cluster.NewPool(id, name, size, minSize, pgNum)
	m.pools[id] = pool
	m.poolsByName[name] = id

	for i := 0; i < pgNum; i++ {
		pgid := fmt.Sprintf("%d.%d", id, i)
		m.pgs[pgid] = cluster.NewPlacementGroup(pgid, id)
	}

	m.updatePGMappingsLocked()
	m.epoch++
	return id, nil
}

// updatePGMappingsLocked recomputes every PG's acting set from
// scratch using the current OSD snapshot. Called with m.mu held. No
// incremental re-mapping is attempted (§4.4); a full recompute keeps
// post-conditions (I3/I4) trivially satisfied.
func (m *Monitor) updatePGMappingsLocked() {
	for _, osd := range m.osds {
		osd.ResetPGAssignments()
	}

	snapshot := m.osdSnapshotLocked()

	for _, pg := range m.pgs {
		pool, ok := m.pools[pg.PoolID]
		if !ok {
			// I1 guarantees this can't happen in practice.
			continue
		}

		selected := placement.Select(pg.PGID, pool.Size, snapshot)
		if len(selected) == 0 {
			pg.Primary = cluster.NoOSD
			pg.Replicas = nil
			pg.State = cluster.PGInactive
			continue
		}

		pg.Primary = cluster.OSDID(selected[0])
		if len(selected) > 1 {
			replicas := make([]cluster.OSDID, len(selected)-1)
			for i, id := range selected[1:] {
				replicas[i] = cluster.OSDID(id)
			}
			pg.Replicas = replicas
		} else {
			pg.Replicas = nil
		}

		if len(selected) == pool.Size {
			pg.State = cluster.PGActiveClean
		} else {
			pg.State = cluster.PGActiveDegraded
		}

		for _, id := range selected {
			m.osds[cluster.OSDID(id)].AssignPG(pg.PGID)
		}
	}
}

func (m *Monitor) osdSnapshotLocked() []placement.OSD {
	snap := make([]placement.OSD, 0, len(m.osds))
	for id, osd := range m.osds {
		snap = append(snap, placement.OSD{ID: int(id), Rack: osd.Rack, Up: osd.State() == cluster.OSDUp})
	}
	return snap
}

// ProcessHeartbeat is a pass-through to the named OSD's heartbeat.
func (m *Monitor) ProcessHeartbeat(id cluster.OSDID) (cluster.HeartbeatStatus, error) {
	m.mu.Lock()
	osd, ok := m.osds[id]
	m.mu.Unlock()

	if !ok {
		return cluster.HeartbeatStatus{}, errors.Wrapf(ErrOSDNotFound, "osd %d", id)
	}
	return osd.Heartbeat(), nil
}

// LookupPoolByName resolves a pool record by name.
func (m *Monitor) LookupPoolByName(name string) (*cluster.Pool, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	id, ok := m.poolsByName[name]
	if !ok {
		return nil, false
	}
	return m.pools[id], true
}

// LookupPG resolves a placement group record by ID.
func (m *Monitor) LookupPG(pgid string) (*cluster.PlacementGroup, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	pg, ok := m.pgs[pgid]
	return pg, ok
}

// LookupOSD resolves an OSD record by ID.
func (m *Monitor) LookupOSD(id cluster.OSDID) (*cluster.OSD, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	osd, ok := m.osds[id]
	return osd, ok
}

// ActingSetSnapshot returns a consistent copy of a PG's acting set
// and state, acquiring M independently of any caller-held lock, per
// §5 ("readers that need a consistent snapshot must acquire it").
func (m *Monitor) ActingSetSnapshot(pgid string) (actingSet []cluster.OSDID, state cluster.PGState, ok bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	pg, found := m.pgs[pgid]
	if !found {
		return nil, 0, false
	}
	set := pg.ActingSet()
	return append([]cluster.OSDID(nil), set...), pg.State, true
}

// ClusterStatus is the aggregated health summary of §4.4.
type ClusterStatus struct {
	Health         string `json:"health"`
	Epoch          uint64 `json:"epoch"`
	OSDsUp         int    `json:"osds_up"`
	OSDsTotal      int    `json:"osds_total"`
	PGsTotal       int    `json:"pgs_total"`
	PGsActiveClean int    `json:"pgs_active_clean"`
	PGsDegraded    int    `json:"pgs_degraded"`
	PGsInactive    int    `json:"pgs_inactive"`
	Pools          int    `json:"pools"`
}

// ClusterStatus reports HEALTH_OK iff every PG is active+clean and
// every OSD is up; otherwise HEALTH_WARN.
func (m *Monitor) ClusterStatus() ClusterStatus {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.clusterStatusLocked()
}

func (m *Monitor) clusterStatusLocked() ClusterStatus {
	status := ClusterStatus{
		Epoch:     m.epoch,
		OSDsTotal: len(m.osds),
		PGsTotal:  len(m.pgs),
		Pools:     len(m.pools),
	}

	for _, osd := range m.osds {
		if osd.State() == cluster.OSDUp {
			status.OSDsUp++
		}
	}
	for _, pg := range m.pgs {
		switch pg.State {
		case cluster.PGActiveClean:
			status.PGsActiveClean++
		case cluster.PGActiveDegraded:
			status.PGsDegraded++
		case cluster.PGInactive:
			status.PGsInactive++
		}
	}

	if status.PGsActiveClean == status.PGsTotal && status.OSDsUp == status.OSDsTotal {
		status.Health = "HEALTH_OK"
	} else {
		status.Health = "HEALTH_WARN"
	}
	return status
}

// PoolSummary is the per-pool view in a DetailedStatus.
type PoolSummary struct {
	ID      cluster.PoolID `json:"id"`
	Name    string         `json:"name"`
	Size    int            `json:"size"`
	MinSize int            `json:"min_size"`
	PGNum   int            `json:"pg_num"`
	Objects int            `json:"objects"`
}

// OSDSummary is the per-OSD view in a DetailedStatus.
type OSDSummary struct {
	ID            cluster.OSDID `json:"id"`
	State         string        `json:"state"`
	Rack          string        `json:"rack"`
	Weight        float64       `json:"weight"`
	PGs           int           `json:"pgs"`
	LastHeartbeat time.Time     `json:"last_heartbeat"`
}

// DetailedStatus is the extended status record: aggregate health plus
// the per-pool, per-OSD, and per-PG-state breakdowns §6 leaves open.
type DetailedStatus struct {
	ClusterStatus
	Pools    []PoolSummary  `json:"pools"`
	OSDs     []OSDSummary   `json:"osds"`
	PGStates map[string]int `json:"pg_states"`
}

// DetailedStatus returns the extended cluster record.
func (m *Monitor) DetailedStatus() DetailedStatus {
	m.mu.Lock()
	defer m.mu.Unlock()

	ds := DetailedStatus{
		ClusterStatus: m.clusterStatusLocked(),
		PGStates:      make(map[string]int),
	}

	for _, pool := range m.pools {
		ds.Pools = append(ds.Pools, PoolSummary{
			ID:      pool.ID,
			Name:    pool.Name,
			Size:    pool.Size,
			MinSize: pool.MinSize,
			PGNum:   pool.PGNum,
			Objects: pool.ObjectCount(),
		})
	}
	sort.Slice(ds.Pools, func(i, j int) bool { return ds.Pools[i].ID < ds.Pools[j].ID })

	for id, osd := range m.osds {
		ds.OSDs = append(ds.OSDs, OSDSummary{
			ID:            id,
			State:         osd.State().String(),
			Rack:          osd.Rack,
			Weight:        osd.Weight,
			PGs:           len(osd.PGAssignments()),
			LastHeartbeat: osd.LastHeartbeat(),
		})
	}
	sort.Slice(ds.OSDs, func(i, j int) bool { return ds.OSDs[i].ID < ds.OSDs[j].ID })

	for _, pg := range m.pgs {
		ds.PGStates[pg.State.String()]++
	}

	return ds
}
