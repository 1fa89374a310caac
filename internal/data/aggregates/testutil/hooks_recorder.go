package testutil

import (
	"sync"
	"time"

	"github.com/yungbote/weave-backend/internal/data/aggregates"
)

// HooksRecorder collects aggregate outcomes so tests can assert on them.
type HooksRecorder struct {
	mu sync.Mutex

	Operations []Outcome
	Conflicts  []string
	Retries    []string
}

type Outcome struct {
	Op       string
	Status   string
	Duration time.Duration
}

var _ aggregates.Hooks = (*HooksRecorder)(nil)

func (h *HooksRecorder) ObserveOperation(name, status string, dur time.Duration) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.Operations = append(h.Operations, Outcome{Op: name, Status: status, Duration: dur})
}

func (h *HooksRecorder) IncConflict(name string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.Conflicts = append(h.Conflicts, name)
}

func (h *HooksRecorder) IncRetry(name string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.Retries = append(h.Retries, name)
}

// LastStatus reports the most recent status recorded for op, or "".
func (h *HooksRecorder) LastStatus(op string) string {
	h.mu.Lock()
	defer h.mu.Unlock()
	for i := len(h.Operations) - 1; i >= 0; i-- {
		if h.Operations[i].Op == op {
			return h.Operations[i].Status
		}
	}
	return ""
}
