package diagnostics

import (
	"bytes"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/hydromonitoring/wain-terminal/internal/overlay"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

var _ overlay.Sink = (*Sink)(nil)

func TestSink_Counters(t *testing.T) {
	var buf bytes.Buffer
	sink := NewSink(slog.New(slog.NewTextHandler(&buf, nil)))

	station := overlay.Request{Kind: overlay.KindStation, Target: "1023", Generation: 2}
	basin := overlay.Request{Kind: overlay.KindBasin, Target: "Ganga", Generation: 1}

	resolvedBefore := testutil.ToFloat64(OverlayFetches.WithLabelValues("station", "resolved"))
	failedBefore := testutil.ToFloat64(OverlayFetches.WithLabelValues("basin", "failed"))
	staleBefore := testutil.ToFloat64(StaleDiscards.WithLabelValues("basin"))

	sink.FetchResolved(station)
	sink.FetchFailed(basin, errors.New("status 404"))
	sink.StaleDiscarded(basin)
	sink.StaleDiscarded(basin)

	if got := testutil.ToFloat64(OverlayFetches.WithLabelValues("station", "resolved")) - resolvedBefore; got != 1 {
		t.Errorf("resolved delta = %v, want 1", got)
	}
	if got := testutil.ToFloat64(OverlayFetches.WithLabelValues("basin", "failed")) - failedBefore; got != 1 {
		t.Errorf("failed delta = %v, want 1", got)
	}
	if got := testutil.ToFloat64(StaleDiscards.WithLabelValues("basin")) - staleBefore; got != 2 {
		t.Errorf("stale delta = %v, want 2", got)
	}

	out := buf.String()
	if !strings.Contains(out, "overlay fetch failed") || !strings.Contains(out, "target=Ganga") {
		t.Errorf("failure not logged with its target:\n%s", out)
	}
	if !strings.Contains(out, "session="+sink.SessionID()) {
		t.Errorf("log lines should carry the session id:\n%s", out)
	}
}

func TestSink_SessionID(t *testing.T) {
	a, b := NewSink(nil), NewSink(nil)
	if _, err := uuid.Parse(a.SessionID()); err != nil {
		t.Errorf("SessionID() = %q is not a uuid: %v", a.SessionID(), err)
	}
	if a.SessionID() == b.SessionID() {
		t.Error("sessions should get distinct ids")
	}
}

func TestSink_Exported(t *testing.T) {
	sink := NewSink(slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil)))
	before := testutil.ToFloat64(Exports.WithLabelValues("Soil"))

	sink.Exported("Soil", "exports/dam-Soil.json")

	if got := testutil.ToFloat64(Exports.WithLabelValues("Soil")) - before; got != 1 {
		t.Errorf("exports delta = %v, want 1", got)
	}
}

func TestHandler(t *testing.T) {
	OverlayFetches.WithLabelValues("country", "resolved").Inc()

	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "wain_overlay_fetches_total") {
		t.Error("metrics output should include the overlay fetch counter")
	}
}
