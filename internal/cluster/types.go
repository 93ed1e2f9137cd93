// Package cluster holds the data model of spec §3: OSDs, Pools, and
// PlacementGroups, plus the tagged-variant states that drive their
// lifecycles. The monitor and RADOS packages serialize multi-step
// operations per §5; in addition, each OSD guards its state and PG
// assignments, each Pool its object table, and each PlacementGroup
// its object set with a mutex of its own.
package cluster

import (
	"fmt"
	"sync"
	"time"

	"github.com/cephlite/radosim/internal/osdstore"
	"github.com/cephlite/radosim/internal/placement"
	"github.com/pkg/errors"
)

// OSDID and PoolID are distinct integer types so a stray int can't be
// passed where an ID is expected without an explicit conversion.
type OSDID int
type PoolID int

// NoOSD is the sentinel primary value for a PG with an empty acting set.
const NoOSD OSDID = -1

// OSDState is the tagged variant for an OSD's admission state
// (§9 "Polymorphism via tagged variants").
type OSDState int

const (
	OSDUp OSDState = iota
	OSDDown
	OSDOut
)

func (s OSDState) String() string {
	switch s {
	case OSDUp:
		return "up"
	case OSDDown:
		return "down"
	case OSDOut:
		return "out"
	default:
		return "unknown"
	}
}

// ParseOSDState converts an API/CLI string into an OSDState.
func ParseOSDState(s string) (OSDState, error) {
	switch s {
	case "up":
		return OSDUp, nil
	case "down":
		return OSDDown, nil
	case "out":
		return OSDOut, nil
	default:
		return 0, errors.Errorf("invalid OSD state %q", s)
	}
}

// PGState is the tagged variant for a placement group's derived
// health state (§4.5 "State machines").
type PGState int

const (
	PGInactive PGState = iota
	PGActiveClean
	PGActiveDegraded
	PGRecovering
)

func (s PGState) String() string {
	switch s {
	case PGInactive:
		return "inactive"
	case PGActiveClean:
		return "active+clean"
	case PGActiveDegraded:
		return "active+degraded"
	case PGRecovering:
		return "recovering"
	default:
		return "unknown"
	}
}

// ErrOSDNotUp is returned by OSD.StoreObject when the target OSD
// isn't accepting writes.
var ErrOSDNotUp = errors.New("osd not up")

// HeartbeatStatus is the record returned by OSD.Heartbeat: admission
// state, placement coordinates, and the time of the report.
type HeartbeatStatus struct {
	OSDID     OSDID     `json:"osd_id"`
	State     string    `json:"state"`
	Rack      string    `json:"rack"`
	Weight    float64   `json:"weight"`
	Timestamp time.Time `json:"timestamp"`
}

// OSD is a simulated Object Storage Daemon: it owns a local byte
// store and reports its admission state and heartbeat to the monitor.
//
// state and pgAssignments are mutated by the monitor under its own
// map lock (M), and lastHeartbeat by Heartbeat without M held; all
// three are read by RADOS operations that do not hold M (§5), so they
// get their own mutex rather than relying on the caller's lock.
type OSD struct {
	ID     OSDID
	Weight float64
	Rack   string

	mu            sync.RWMutex
	state         OSDState
	lastHeartbeat time.Time
	pgAssignments map[string]struct{}

	store *osdstore.Store
}

// NewOSD constructs an OSD in the Up state with an empty local store.
func NewOSD(id OSDID, rack string, weight float64) *OSD {
	return &OSD{
		ID:            id,
		Weight:        weight,
		Rack:          rack,
		state:         OSDUp,
		lastHeartbeat: time.Now(),
		pgAssignments: make(map[string]struct{}),
		store:         osdstore.New(),
	}
}

// State returns the OSD's current admission state.
func (o *OSD) State() OSDState {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.state
}

// SetState transitions the OSD to a new admission state.
func (o *OSD) SetState(s OSDState) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.state = s
}

// LastHeartbeat returns the timestamp of the most recent heartbeat.
func (o *OSD) LastHeartbeat() time.Time {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.lastHeartbeat
}

// PGAssignments returns the set of PG IDs currently mapped to this OSD.
func (o *OSD) PGAssignments() []string {
	o.mu.RLock()
	defer o.mu.RUnlock()
	ids := make([]string, 0, len(o.pgAssignments))
	for pgid := range o.pgAssignments {
		ids = append(ids, pgid)
	}
	return ids
}

// ResetPGAssignments clears the assignment set, used by the monitor
// before recomputing placement from scratch.
func (o *OSD) ResetPGAssignments() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.pgAssignments = make(map[string]struct{})
}

// AssignPG records that this OSD is now part of pgid's acting set.
func (o *OSD) AssignPG(pgid string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.pgAssignments[pgid] = struct{}{}
}

// StoreObject durably stores data+metadata under (poolID, objectID).
// It fails with ErrOSDNotUp if the OSD isn't currently up.
func (o *OSD) StoreObject(poolID PoolID, objectID string, data, metadata []byte) error {
	if o.State() != OSDUp {
		return errors.Wrapf(ErrOSDNotUp, "osd %d", o.ID)
	}
	if err := o.store.Put(int(poolID), objectID, data, metadata); err != nil {
		return errors.Wrapf(err, "osd %d: store_object %s", o.ID, objectID)
	}
	return nil
}

// RetrieveObject returns the data+metadata for (poolID, objectID), or
// ok=false when the OSD is down/out or the object is absent. Errors
// are deliberately not surfaced here: §4.1 requires the caller to
// fail over to another replica rather than abort.
func (o *OSD) RetrieveObject(poolID PoolID, objectID string) (data, metadata []byte, ok bool) {
	if o.State() != OSDUp {
		return nil, nil, false
	}
	return o.store.Get(int(poolID), objectID)
}

// DeleteObject removes (poolID, objectID), idempotently.
func (o *OSD) DeleteObject(poolID PoolID, objectID string) bool {
	return o.store.Delete(int(poolID), objectID)
}

// Heartbeat updates the last-heartbeat timestamp and returns the status record.
func (o *OSD) Heartbeat() HeartbeatStatus {
	o.mu.Lock()
	o.lastHeartbeat = time.Now()
	ts := o.lastHeartbeat
	state := o.state
	o.mu.Unlock()

	return HeartbeatStatus{
		OSDID:     o.ID,
		State:     state.String(),
		Rack:      o.Rack,
		Weight:    o.Weight,
		Timestamp: ts,
	}
}

// ObjectMeta is the on-disk/on-wire metadata record for a stored
// object, per the JSON schema in spec §6.
type ObjectMeta struct {
	ObjectID   string    `json:"object_id"`
	PoolID     PoolID    `json:"pool_id"`
	SizeBytes  int       `json:"size_bytes"`
	Checksum   string    `json:"checksum"`
	UploadTime time.Time `json:"upload_time"`
	PGID       string    `json:"pg_id"`
}

// Pool is a named namespace with its own replication policy. Its
// object table is guarded by its own RWMutex: RADOS serializes writes
// (the R lock of §5) for the multi-step put/delete transaction, but
// reads (get/list) take only a brief RLock here rather than RADOS's
// lock, matching §5's "reads proceed without R but observe an atomic
// pool lookup".
type Pool struct {
	ID      PoolID
	Name    string
	Size    int
	MinSize int
	PGNum   int

	objMu   sync.RWMutex
	objects map[string]*ObjectMeta
}

// NewPool constructs a pool with an empty object table.
func NewPool(id PoolID, name string, size, minSize, pgNum int) *Pool {
	return &Pool{
		ID:      id,
		Name:    name,
		Size:    size,
		MinSize: minSize,
		PGNum:   pgNum,
		objects: make(map[string]*ObjectMeta),
	}
}

// PGIndex computes the stable, never-changing PG index an object
// hashes to within this pool (§4.3, §9 — must be stable across
// restarts or objects silently "move").
func (p *Pool) PGIndex(objectID string) int {
	return int(placement.StableHash(objectID) % uint64(p.PGNum))
}

// PGID returns the full "{pool_id}.{pg_index}" identifier for objectID.
func (p *Pool) PGID(objectID string) string {
	return fmt.Sprintf("%d.%d", p.ID, p.PGIndex(objectID))
}

// PutObjectMeta records (or overwrites) metadata for objectID.
func (p *Pool) PutObjectMeta(objectID string, meta *ObjectMeta) {
	p.objMu.Lock()
	defer p.objMu.Unlock()
	p.objects[objectID] = meta
}

// ObjectMeta returns the metadata for objectID, or ok=false if absent.
func (p *Pool) ObjectMeta(objectID string) (*ObjectMeta, bool) {
	p.objMu.RLock()
	defer p.objMu.RUnlock()
	meta, ok := p.objects[objectID]
	return meta, ok
}

// DeleteObjectMeta removes objectID's metadata, if present.
func (p *Pool) DeleteObjectMeta(objectID string) {
	p.objMu.Lock()
	defer p.objMu.Unlock()
	delete(p.objects, objectID)
}

// ObjectMetas returns a snapshot of every stored object's metadata.
func (p *Pool) ObjectMetas() map[string]*ObjectMeta {
	p.objMu.RLock()
	defer p.objMu.RUnlock()
	out := make(map[string]*ObjectMeta, len(p.objects))
	for id, meta := range p.objects {
		out[id] = meta
	}
	return out
}

// ObjectCount reports how many objects the pool currently holds.
func (p *Pool) ObjectCount() int {
	p.objMu.RLock()
	defer p.objMu.RUnlock()
	return len(p.objects)
}

// PlacementGroup is the unit of placement: an ordered acting set of
// OSDs responsible for a slice of a pool's objects.
type PlacementGroup struct {
	PGID     string
	PoolID   PoolID
	Primary  OSDID
	Replicas []OSDID
	State    PGState

	objMu   sync.Mutex
	objects map[string]struct{}
}

// NewPlacementGroup constructs an inactive PG with no acting set.
func NewPlacementGroup(pgid string, poolID PoolID) *PlacementGroup {
	return &PlacementGroup{
		PGID:    pgid,
		PoolID:  poolID,
		Primary: NoOSD,
		State:   PGInactive,
		objects: make(map[string]struct{}),
	}
}

// ActingSet returns [primary] ++ replicas, or nil if no primary is set.
func (pg *PlacementGroup) ActingSet() []OSDID {
	if pg.Primary == NoOSD {
		return nil
	}
	set := make([]OSDID, 0, 1+len(pg.Replicas))
	set = append(set, pg.Primary)
	set = append(set, pg.Replicas...)
	return set
}

// AddObject records that objectID is stored by this PG.
func (pg *PlacementGroup) AddObject(objectID string) {
	pg.objMu.Lock()
	defer pg.objMu.Unlock()
	pg.objects[objectID] = struct{}{}
}

// RemoveObject forgets objectID, idempotently.
func (pg *PlacementGroup) RemoveObject(objectID string) {
	pg.objMu.Lock()
	defer pg.objMu.Unlock()
	delete(pg.objects, objectID)
}

// ObjectCount reports how many objects this PG currently holds.
func (pg *PlacementGroup) ObjectCount() int {
	pg.objMu.Lock()
	defer pg.objMu.Unlock()
	return len(pg.objects)
}

// PGIndexFromPGID parses the pg_index out of a "{pool_id}.{pg_index}" string.
func PGIndexFromPGID(pgid string) (poolID PoolID, pgIndex int, err error) {
	var pool, idx int
	if _, err := fmt.Sscanf(pgid, "%d.%d", &pool, &idx); err != nil {
		return 0, 0, errors.Wrapf(err, "malformed pgid %q", pgid)
	}
	return PoolID(pool), idx, nil
}
