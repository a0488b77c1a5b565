package wizard

import "fmt"

// InFlight answers whether a file fetch tagged with an epoch is outstanding.
type InFlight interface {
	Outstanding(epoch uint64) bool
}

// CheckInvariants validates m after a transition caused by msg. A nil
// inflight skips the outstanding-fetch check.
func CheckInvariants(m Model, msg Msg, inflight InFlight) error {
	var violations []string
	if m.Step == StepCategories && m.SelectedRequestID == nil {
		violations = append(violations, "categories step without a selected request")
	}
	if m.Step == StepDashboard && !m.Loading.Files && m.FilesEpoch != m.FileRequestEpoch {
		violations = append(violations, fmt.Sprintf(
			"dashboard shows files of epoch %d, latest accepted epoch is %d", m.FilesEpoch, m.FileRequestEpoch))
	}
	if m.Loading.Files && len(m.Files) > 0 {
		violations = append(violations, fmt.Sprintf("%d files visible while a fetch is loading", len(m.Files)))
	}
	if m.FilesEpoch > m.FileRequestEpoch {
		violations = append(violations, fmt.Sprintf(
			"files epoch %d ahead of request epoch %d", m.FilesEpoch, m.FileRequestEpoch))
	}
	if !m.SelectedCategories.Valid() {
		violations = append(violations, fmt.Sprintf("unknown category bits in selection %08b", uint8(m.SelectedCategories)))
	}
	if m.Loading.Files && inflight != nil && !inflight.Outstanding(m.FileRequestEpoch) {
		violations = append(violations, fmt.Sprintf("loading files but epoch %d is not outstanding", m.FileRequestEpoch))
	}
	if len(violations) == 0 {
		return nil
	}
	return &InvariantViolation{Msg: msg, Step: m.Step, Violations: violations}
}
