package observability

import (
	"errors"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMetricsConsumerCollectors(t *testing.T) {
	t.Parallel()

	metrics := NewMetrics()

	metrics.IncCommentEvent(OutcomeSent)
	metrics.IncCommentEvent(" SENT ")
	metrics.IncCommentEvent("")
	metrics.IncNotificationFailed("permanent")
	metrics.ObserveMailSendDuration(120 * time.Millisecond)
	metrics.IncWorkerInFlight()
	metrics.DecWorkerInFlight()
	metrics.SetStalePending(3)
	metrics.IncEmployeeCacheLookup("hit")

	if got := testutil.ToFloat64(metrics.commentEventsTotal.WithLabelValues("sent")); got != 2 {
		t.Fatalf("comment_events_total{sent} = %v, want 2", got)
	}
	if got := testutil.ToFloat64(metrics.commentEventsTotal.WithLabelValues("unknown")); got != 1 {
		t.Fatalf("comment_events_total{unknown} = %v, want 1", got)
	}
	if got := testutil.ToFloat64(metrics.notificationsFailed.WithLabelValues("permanent")); got != 1 {
		t.Fatalf("notifications_failed_total = %v, want 1", got)
	}
	if got := testutil.ToFloat64(metrics.workerInflight); got != 0 {
		t.Fatalf("worker_inflight = %v, want 0", got)
	}
	if got := testutil.ToFloat64(metrics.stalePendingNotifs); got != 3 {
		t.Fatalf("stale_pending_notifications = %v, want 3", got)
	}
	if got := testutil.ToFloat64(metrics.employeeCacheLookups.WithLabelValues("hit")); got != 1 {
		t.Fatalf("employee_cache_lookups_total = %v, want 1", got)
	}
}

func TestMetricsNilReceiverIsNoop(t *testing.T) {
	t.Parallel()

	var metrics *Metrics
	metrics.IncCommentEvent(OutcomeSent)
	metrics.IncNotificationFailed("x")
	metrics.ObserveMailSendDuration(time.Second)
	metrics.IncWorkerInFlight()
	metrics.DecWorkerInFlight()
	metrics.SetStalePending(1)
	metrics.IncEmployeeCacheLookup("miss")
}

func TestMetricsHTTPMiddlewareRecordsRequest(t *testing.T) {
	t.Parallel()

	metrics := NewMetrics()
	app := fiber.New()
	app.Use(metrics.HTTPMiddleware())
	app.Get("/livez", func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})

	req := httptest.NewRequest("GET", "/livez", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test() error = %v", err)
	}
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}

	if got := testutil.ToFloat64(metrics.httpRequestsTotal.WithLabelValues("GET", "/livez", "200")); got != 1 {
		t.Fatalf("http_requests_total = %v, want 1", got)
	}
}

func TestMetricsHTTPMiddlewareRecordsErrorStatus(t *testing.T) {
	t.Parallel()

	metrics := NewMetrics()
	app := fiber.New()
	app.Use(metrics.HTTPMiddleware())
	app.Get("/boom", func(c *fiber.Ctx) error {
		return errors.New("boom")
	})

	req := httptest.NewRequest("GET", "/boom", nil)
	_, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test() error = %v", err)
	}

	if got := testutil.ToFloat64(metrics.httpRequestsTotal.WithLabelValues("GET", "/boom", "500")); got != 1 {
		t.Fatalf("http_requests_total = %v, want 1", got)
	}
}
