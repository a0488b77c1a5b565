package wizard

import "sync"

// acceptFiles is the sole acceptance rule for file results: the result must
// carry the current epoch and the model must still be waiting for it. A
// re-selected request stops waiting, which drops a fetch issued before it.
func acceptFiles(m Model, epoch uint64) bool {
	return epoch == m.FileRequestEpoch && m.Loading.Files
}

// acceptExport drops a zip result once the export was abandoned by a new
// request selection or file fetch, or superseded by a later export.
func acceptExport(m Model, epoch uint64) bool {
	return epoch == m.ExportEpoch && m.Exporting
}

// Sequencer tracks which file-fetch epochs are still outstanding. The epoch
// counter itself lives in Model.FileRequestEpoch; the Sequencer only records
// which tagged calls have not reported back, so the invariant checker can
// verify that a loading model is actually waiting on something.
type Sequencer struct {
	mu          sync.Mutex
	outstanding map[uint64]struct{}
}

func NewSequencer() *Sequencer {
	return &Sequencer{outstanding: make(map[uint64]struct{})}
}

// Issue marks epoch as in flight.
func (s *Sequencer) Issue(epoch uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.outstanding[epoch] = struct{}{}
}

// Settle marks epoch as resolved, whether accepted or discarded.
func (s *Sequencer) Settle(epoch uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.outstanding, epoch)
}

// Outstanding reports whether epoch has been issued and not yet settled.
func (s *Sequencer) Outstanding(epoch uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.outstanding[epoch]
	return ok
}

// Pending returns the number of unsettled fetches.
func (s *Sequencer) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.outstanding)
}
