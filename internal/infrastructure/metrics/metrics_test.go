package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func scrape(t *testing.T) string {
	t.Helper()
	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	return rec.Body.String()
}

func TestHandlerExposesCollectors(t *testing.T) {
	FixesIngestedTotal.WithLabelValues("http").Inc()
	FixesRejectedTotal.WithLabelValues("mqtt", "payload").Inc()
	ClassificationRunsTotal.WithLabelValues("day", "ok").Inc()
	ClassificationDurationMs.WithLabelValues("day").Observe(3)
	LiveClients.Set(2)

	body := scrape(t)
	for _, want := range []string{
		`tracker_fixes_ingested_total{source="http"}`,
		`tracker_fixes_rejected_total{reason="payload",source="mqtt"}`,
		`tracker_classification_runs_total{kind="day",outcome="ok"}`,
		`tracker_classification_duration_ms_bucket{kind="day",le="5"}`,
		"tracker_live_clients 2",
	} {
		if !strings.Contains(body, want) {
			t.Errorf("exposition missing %s", want)
		}
	}
}
