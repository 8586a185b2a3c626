package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestMetricsEndpointExposesCounters(t *testing.T) {
	ZonesDetected.WithLabelValues("demand").Inc()

	srv := Serve("127.0.0.1:0")
	defer srv.Close()

	// Hit the handler directly rather than racing the background listener.
	rec := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	body, err := io.ReadAll(rec.Result().Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	if !strings.Contains(string(body), "zones_detected_total") {
		t.Fatalf("expected zones_detected_total in metrics output")
	}
}
