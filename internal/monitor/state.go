package monitor

import (
	"sync"

	"github.com/Aashish019/Client-Link-Monitor/internal/domain"
)

// State owns everything the live snapshot shows: the latest host
// metrics, the per-target rows from the last completed probe round,
// and each target's previous status for alert edge detection. All
// access goes through its methods; nothing reads the fields directly.
type State struct {
	mu      sync.RWMutex
	system  domain.SystemSnapshot
	targets []domain.ProbeResult
	prev    map[string]domain.Status
}

func NewState() *State {
	return &State{prev: make(map[string]domain.Status)}
}

func (s *State) SetSystem(snap domain.SystemSnapshot) {
	s.mu.Lock()
	s.system = snap
	s.mu.Unlock()
}

// ReplaceTargets swaps in the full result list of a completed round.
// Readers never observe a partially updated list.
func (s *State) ReplaceTargets(results []domain.ProbeResult) {
	s.mu.Lock()
	s.targets = results
	s.mu.Unlock()
}

// DropTarget removes one target's row and its status memory when the
// registry deletes it between rounds.
func (s *State) DropTarget(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	kept := make([]domain.ProbeResult, 0, len(s.targets))
	for _, r := range s.targets {
		if r.Name != name {
			kept = append(kept, r)
		}
	}
	s.targets = kept
	delete(s.prev, name)
}

// Transition records the new status and reports whether it is a fresh
// up-to-down edge. A name with no remembered status counts as
// not-previously-down, so the first observed down fires. A target that
// stays down does not report a second edge.
func (s *State) Transition(name string, status domain.Status) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	prev, seen := s.prev[name]
	s.prev[name] = status
	return status == domain.StatusDown && (!seen || prev != domain.StatusDown)
}

// Snapshot copies out the current live view.
func (s *State) Snapshot() domain.LiveSnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	targets := make([]domain.ProbeResult, len(s.targets))
	copy(targets, s.targets)
	return domain.LiveSnapshot{
		Type:    domain.SnapshotTypeUpdate,
		System:  s.system,
		Targets: targets,
	}
}
