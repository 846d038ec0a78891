package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/mohammed-shakir/cityjson-codec/internal/core/observability"
)

func assertHasMetricLine(t *testing.T, body, metric string, wantLabels ...string) {
	t.Helper()
	for _, ln := range strings.Split(body, "\n") {
		if !strings.HasPrefix(ln, metric+"{") {
			continue
		}
		ok := true
		for _, s := range wantLabels {
			if !strings.Contains(ln, s) {
				ok = false
				break
			}
		}
		if ok && (len(ln) > 0 && ln[len(ln)-1] >= '0' && ln[len(ln)-1] <= '9') {
			return
		}
	}
	t.Fatalf("expected a %s line with labels %v; got:\n%s", metric, wantLabels, body)
}

func Test_CodecMetrics_CustomRegistry_Smoke(t *testing.T) {
	p := Init(Config{Build: BuildInfo{Version: "test"}})
	observability.Init(p.Registerer(), true)
	t.Cleanup(func() { observability.Init(nil, false) })

	observability.ObserveCodecOp("decode", nil, 0.004)
	observability.ObserveCodecOp("encode", errors.New("boom"), 0.001)
	observability.AddGeometriesSkipped("malformed_boundary", 2)
	observability.AddHolesDropped(3)
	observability.AddVerticesDeduplicated(7)

	observability.AddCacheHits("document", 3)
	observability.AddCacheMisses("session", 1)
	observability.ObserveCacheOp("get", nil, 0.002)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rr := httptest.NewRecorder()
	p.Handler().ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("status=%d", rr.Code)
	}
	body := rr.Body.String()
	mustContain := []string{
		`cityjson_operation_duration_seconds_bucket`,
		`redis_operation_duration_seconds_count`,
		`cityjson_holes_dropped_total 3`,
		`cityjson_vertices_deduplicated_total 7`,
		`cache_hits_total{cache="document"} 3`,
		`cache_misses_total{cache="session"} 1`,
	}
	for _, s := range mustContain {
		if !strings.Contains(body, s) {
			t.Fatalf("expected metrics to contain %q;\n---\n%s", s, body)
		}
	}

	assertHasMetricLine(t, body, "cityjson_operations_total", `op="decode"`, `outcome="ok"`)
	assertHasMetricLine(t, body, "cityjson_operations_total", `op="encode"`, `outcome="error"`)
	assertHasMetricLine(t, body, "cityjson_geometries_skipped_total", `reason="malformed_boundary"`)
	assertHasMetricLine(t, body, "cityjsond_build_info", `version="test"`)
}
