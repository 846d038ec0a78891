package health

import (
	"context"
	"encoding/json"
	"net/http"
	"sort"
	"time"
)

type ReadinessReporter interface {
	Readiness(ctx context.Context) (ready bool, failing []string)
}

// Checks names the dependencies the service needs, e.g. "redis".
type Checks map[string]func(context.Context) error

func (c Checks) Readiness(ctx context.Context) (bool, []string) {
	var failing []string
	for name, check := range c {
		if err := check(ctx); err != nil {
			failing = append(failing, name)
		}
	}
	sort.Strings(failing)
	return len(failing) == 0, failing
}

func Readiness(rr ReadinessReporter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		type resp struct {
			Status  string   `json:"status"`
			Failing []string `json:"failing,omitempty"`
		}
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		ready, failing := rr.Readiness(ctx)
		out := resp{Status: "ready"}
		if !ready {
			out = resp{Status: "not_ready", Failing: failing}
		}
		w.Header().Set("Content-Type", "application/json")
		if !ready {
			w.WriteHeader(http.StatusServiceUnavailable)
		}
		_ = json.NewEncoder(w).Encode(out)
	}
}
