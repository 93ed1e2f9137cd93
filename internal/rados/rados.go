// Package rados implements the replicated object service of §4.5:
// put/get/delete/list routed through pool -> PG -> acting set, with
// integrity verification on read and min_size enforcement on write.
package rados

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/cephlite/radosim/internal/cluster"
	"github.com/cephlite/radosim/internal/monitor"
	"github.com/pkg/errors"
)

// Sentinel errors, per §7's error taxonomy.
var (
	ErrPoolNotFound        = errors.New("pool not found")
	ErrPGMissing           = errors.New("placement group missing")
	ErrPGInactive          = errors.New("placement group inactive")
	ErrReplicationBelowMin = errors.New("replication below pool minimum")
)

// Recorder receives activity notifications for each object operation.
// internal/metrics.ObjectRecorder satisfies this; it is an interface
// here so this package has no dependency on Prometheus.
type Recorder interface {
	RecordPut()
	RecordGet()
	RecordDelete()
	RecordChecksumMismatch()
	RecordReplicationBelowMin()
}

type noopRecorder struct{}

func (noopRecorder) RecordPut()                {}
func (noopRecorder) RecordGet()                {}
func (noopRecorder) RecordDelete()             {}
func (noopRecorder) RecordChecksumMismatch()   {}
func (noopRecorder) RecordReplicationBelowMin() {}

// RADOS is the client-facing object service. It serializes writes
// under its own lock (the "R" lock of §5), distinct from the
// monitor's map lock; per the documented lock order, R is acquired
// first and the monitor is consulted independently from inside.
type RADOS struct {
	mon *monitor.Monitor
	rec Recorder

	mu sync.Mutex
}

// New constructs a RADOS service bound to the given monitor, with no
// metrics recording.
func New(mon *monitor.Monitor) *RADOS {
	return &RADOS{mon: mon, rec: noopRecorder{}}
}

// NewWithRecorder constructs a RADOS service that reports every
// put/get/delete and every checksum mismatch or below-min-size
// failure to rec.
func NewWithRecorder(mon *monitor.Monitor, rec Recorder) *RADOS {
	if rec == nil {
		rec = noopRecorder{}
	}
	return &RADOS{mon: mon, rec: rec}
}

// PutResult is the outcome of a successful PutObject call.
type PutResult struct {
	ObjectID  string   `json:"object_id"`
	Pool      string   `json:"pool"`
	PGID      string   `json:"pg_id"`
	Replicas  []string `json:"replicas"`
	SizeBytes int      `json:"size_bytes"`
}

// PutObject computes the object's PG, writes to every OSD in the
// acting set (primary first), and records metadata iff at least
// min_size writes succeeded. On failure it best-effort deletes any
// replicas that did succeed, so no object is ever readable without
// meeting min_size (§9, I6).
func (r *RADOS) PutObject(poolName, objectID string, data []byte) (PutResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	pool, ok := r.mon.LookupPoolByName(poolName)
	if !ok {
		return PutResult{}, errors.Wrapf(ErrPoolNotFound, "pool %q", poolName)
	}

	pgid := pool.PGID(objectID)
	actingSet, state, ok := r.mon.ActingSetSnapshot(pgid)
	if !ok {
		return PutResult{}, errors.Wrapf(ErrPGMissing, "pg %q", pgid)
	}
	if state == cluster.PGInactive {
		return PutResult{}, errors.Wrapf(ErrPGInactive, "pg %q", pgid)
	}

	sum := sha256.Sum256(data)
	meta := &cluster.ObjectMeta{
		ObjectID:   objectID,
		PoolID:     pool.ID,
		SizeBytes:  len(data),
		Checksum:   hex.EncodeToString(sum[:]),
		UploadTime: time.Now().UTC(),
		PGID:       pgid,
	}
	metaJSON, err := json.Marshal(meta)
	if err != nil {
		return PutResult{}, errors.Wrap(err, "encode metadata")
	}

	type writeOutcome struct {
		osd cluster.OSDID
		ok  bool
	}
	outcomes := make([]writeOutcome, len(actingSet))
	var wg sync.WaitGroup
	for i, osdID := range actingSet {
		wg.Add(1)
		go func(i int, osdID cluster.OSDID) {
			defer wg.Done()
			osd, found := r.mon.LookupOSD(osdID)
			if !found {
				return
			}
			if err := osd.StoreObject(pool.ID, objectID, data, metaJSON); err != nil {
				fmt.Printf("pg %s: failed to store object %q on osd %d: %v\n", pgid, objectID, osdID, err)
				return
			}
			outcomes[i] = writeOutcome{osd: osdID, ok: true}
		}(i, osdID)
	}
	wg.Wait()

	// Preserve acting-set order among the OSDs that actually succeeded.
	var successes []cluster.OSDID
	for _, oc := range outcomes {
		if oc.ok {
			successes = append(successes, oc.osd)
		}
	}

	if len(successes) < pool.MinSize {
		for _, osdID := range successes {
			if osd, found := r.mon.LookupOSD(osdID); found {
				osd.DeleteObject(pool.ID, objectID)
			}
		}
		r.rec.RecordReplicationBelowMin()
		return PutResult{}, errors.Wrapf(ErrReplicationBelowMin,
			"pg %q: only %d of min_size %d OSDs accepted the write", pgid, len(successes), pool.MinSize)
	}

	pool.PutObjectMeta(objectID, meta)
	if pg, found := r.mon.LookupPG(pgid); found {
		pg.AddObject(objectID)
	}
	r.rec.RecordPut()

	replicaStrs := make([]string, len(successes))
	for i, id := range successes {
		replicaStrs[i] = fmt.Sprintf("%d", id)
	}

	return PutResult{
		ObjectID:  objectID,
		Pool:      poolName,
		PGID:      pgid,
		Replicas:  replicaStrs,
		SizeBytes: len(data),
	}, nil
}

// GetObject returns the bytes and metadata for objectID, iterating
// the acting set in order and verifying each candidate's checksum.
// Absence (pool/object unknown, or every replica unreachable/corrupt)
// is a result, not an error (§6).
func (r *RADOS) GetObject(poolName, objectID string) ([]byte, *cluster.ObjectMeta, bool) {
	pool, ok := r.mon.LookupPoolByName(poolName)
	if !ok {
		return nil, nil, false
	}

	meta, ok := pool.ObjectMeta(objectID)
	if !ok {
		return nil, nil, false
	}

	pgid := pool.PGID(objectID)
	if pgid != meta.PGID {
		fmt.Printf("pg mismatch for object %q: computed %q, stored %q (map corruption)\n", objectID, pgid, meta.PGID)
	}

	actingSet, _, ok := r.mon.ActingSetSnapshot(meta.PGID)
	if !ok {
		return nil, nil, false
	}

	for _, osdID := range actingSet {
		osd, found := r.mon.LookupOSD(osdID)
		if !found {
			continue
		}
		data, _, ok := osd.RetrieveObject(pool.ID, objectID)
		if !ok {
			continue
		}
		sum := sha256.Sum256(data)
		if hex.EncodeToString(sum[:]) != meta.Checksum {
			fmt.Printf("checksum mismatch for object %q on osd %d\n", objectID, osdID)
			r.rec.RecordChecksumMismatch()
			continue
		}
		r.rec.RecordGet()
		return data, meta, true
	}

	return nil, nil, false
}

// DeleteObject removes objectID from every OSD in its acting set
// (best-effort) and from the pool/PG object tables. Returns false if
// the pool or object doesn't exist; idempotent otherwise.
func (r *RADOS) DeleteObject(poolName, objectID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	pool, ok := r.mon.LookupPoolByName(poolName)
	if !ok {
		return false
	}
	meta, ok := pool.ObjectMeta(objectID)
	if !ok {
		return false
	}

	actingSet, _, _ := r.mon.ActingSetSnapshot(meta.PGID)
	for _, osdID := range actingSet {
		if osd, found := r.mon.LookupOSD(osdID); found {
			if !osd.DeleteObject(pool.ID, objectID) {
				fmt.Printf("pg %s: failed to delete object %q on osd %d\n", meta.PGID, objectID, osdID)
			}
		}
	}

	pool.DeleteObjectMeta(objectID)
	if pg, found := r.mon.LookupPG(meta.PGID); found {
		pg.RemoveObject(objectID)
	}
	r.rec.RecordDelete()
	return true
}

// ObjectSummary is one entry of a ListObjects response.
type ObjectSummary struct {
	ObjectID        string    `json:"object_id"`
	SizeBytes       int       `json:"size_bytes"`
	UploadTime      time.Time `json:"upload_time"`
	PGID            string    `json:"pg_id"`
	HealthyReplicas int       `json:"healthy_replicas"`
	TotalReplicas   int       `json:"total_replicas"`
}

// ListObjects returns a summary record per object stored in poolName.
func (r *RADOS) ListObjects(poolName string) ([]ObjectSummary, error) {
	pool, ok := r.mon.LookupPoolByName(poolName)
	if !ok {
		return nil, errors.Wrapf(ErrPoolNotFound, "pool %q", poolName)
	}

	metas := pool.ObjectMetas()
	summaries := make([]ObjectSummary, 0, len(metas))
	for objectID, meta := range metas {
		actingSet, _, _ := r.mon.ActingSetSnapshot(meta.PGID)

		healthy := 0
		for _, osdID := range actingSet {
			if osd, found := r.mon.LookupOSD(osdID); found && osd.State() == cluster.OSDUp {
				healthy++
			}
		}

		summaries = append(summaries, ObjectSummary{
			ObjectID:        objectID,
			SizeBytes:       meta.SizeBytes,
			UploadTime:      meta.UploadTime,
			PGID:            meta.PGID,
			HealthyReplicas: healthy,
			TotalReplicas:   len(actingSet),
		})
	}
	return summaries, nil
}
