package health

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"
)

// Tracker exposes liveness/readiness for the poll loop. The service is
// ready once a cycle has completed recently; staleness past the threshold
// flips it back to unready.
type Tracker struct {
	mu        sync.RWMutex
	lastCycle time.Time
	threshold time.Duration
	now       func() time.Time
}

func NewTracker(threshold time.Duration) *Tracker {
	return &Tracker{threshold: threshold, now: time.Now}
}

// CycleCompleted records the completion time of a poll cycle.
func (t *Tracker) CycleCompleted(at time.Time) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.lastCycle = at
}

func (t *Tracker) ready() (bool, time.Time) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if t.lastCycle.IsZero() {
		return false, t.lastCycle
	}
	return t.now().Sub(t.lastCycle) <= t.threshold, t.lastCycle
}

func (t *Tracker) LivenessHandler(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

func (t *Tracker) ReadinessHandler(w http.ResponseWriter, _ *http.Request) {
	ready, lastCycle := t.ready()
	if !ready {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte("Not Ready"))
		return
	}

	response := map[string]interface{}{
		"status":     "Ready",
		"last_cycle": lastCycle.UTC(),
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(response)
}

// Handler returns a mux with the /healthz and /readyz endpoints.
func (t *Tracker) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", t.LivenessHandler)
	mux.HandleFunc("/readyz", t.ReadinessHandler)
	return mux
}
