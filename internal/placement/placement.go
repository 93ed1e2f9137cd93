// Package placement implements the CRUSH-lite placement function:
// a pure, deterministic, rack-aware mapping from a placement group ID
// to an ordered list of OSDs, described in spec §4.2.
package placement

import (
	"crypto/sha256"
	"encoding/binary"
	"math/rand"
	"sort"
)

// StableHash returns a hash of s that is stable across processes and
// platforms. §9 calls out Go's builtin map/string hashing as
// unsuitable for this purpose (it is randomized per-process), so
// placement and PG-index selection both go through this instead: a
// SHA-256 digest truncated to its first 64 bits.
func StableHash(s string) uint64 {
	sum := sha256.Sum256([]byte(s))
	return binary.BigEndian.Uint64(sum[:8])
}

// OSD is the minimal view of an OSD that placement needs: enough to
// group by failure domain and know which candidates are eligible.
// Only OSDs with Up == true are ever selected; down/out OSDs must be
// filtered out by the caller before calling Select (or simply marked
// Up: false here).
type OSD struct {
	ID   int
	Rack string
	Up   bool
}

// Select returns up to n OSD IDs for pgid, preferring one per
// distinct rack before doubling up. It is a pure function of its
// arguments: the same (pgid, n, osds) always produces the same
// output, and it never touches a process-global PRNG.
func Select(pgid string, n int, osds []OSD) []int {
	if n <= 0 {
		return nil
	}

	rng := rand.New(rand.NewSource(int64(StableHash(pgid))))

	byRack := make(map[string][]int)
	for _, o := range osds {
		if !o.Up {
			continue
		}
		byRack[o.Rack] = append(byRack[o.Rack], o.ID)
	}

	racks := make([]string, 0, len(byRack))
	for rack, ids := range byRack {
		sort.Ints(ids)
		byRack[rack] = ids
		racks = append(racks, rack)
	}
	sort.Strings(racks)
	rng.Shuffle(len(racks), func(i, j int) { racks[i], racks[j] = racks[j], racks[i] })

	selected := make([]int, 0, n)
	chosen := make(map[int]bool)

	for _, rack := range racks {
		if len(selected) >= n {
			break
		}
		candidates := byRack[rack]
		if len(candidates) == 0 {
			continue
		}
		pick := candidates[rng.Intn(len(candidates))]
		selected = append(selected, pick)
		chosen[pick] = true
	}

	if len(selected) < n {
		remaining := make([]int, 0)
		for _, o := range osds {
			if o.Up && !chosen[o.ID] {
				remaining = append(remaining, o.ID)
			}
		}
		sort.Ints(remaining)
		rng.Shuffle(len(remaining), func(i, j int) { remaining[i], remaining[j] = remaining[j], remaining[i] })

		need := n - len(selected)
		if need > len(remaining) {
			need = len(remaining)
		}
		selected = append(selected, remaining[:need]...)
	}

	if len(selected) > n {
		selected = selected[:n]
	}
	return selected
}
