package influxdb

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"

	"github.com/nerrad567/smartconnect-core/internal/event"
	"github.com/nerrad567/smartconnect-core/internal/infrastructure/config"
)

// fakeInflux answers /ping and captures /api/v2/write bodies.
func fakeInflux(t *testing.T) (*httptest.Server, <-chan string) {
	t.Helper()
	writes := make(chan string, 10)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.HasSuffix(r.URL.Path, "/ping"):
			w.WriteHeader(http.StatusNoContent)
		case strings.HasSuffix(r.URL.Path, "/write"):
			body, _ := io.ReadAll(r.Body) //nolint:errcheck // test server
			writes <- string(body)
			w.WriteHeader(http.StatusNoContent)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(srv.Close)
	return srv, writes
}

func testConfig(url string) config.InfluxDBConfig {
	return config.InfluxDBConfig{
		Enabled:       true,
		URL:           url,
		Token:         "smartconnect-dev-token",
		Org:           "smartconnect",
		Bucket:        "access",
		BatchSize:     100,
		FlushInterval: 1,
	}
}

func sampleEvent() event.Event {
	return event.Event{
		ID:         "evt-0001abcd",
		SensorID:   "sen-1",
		SensorUID:  "AA:BB:CC",
		Kind:       event.KindAccess,
		Result:     event.ResultDenied,
		OccurredAt: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC),
		Note:       "card 42",
	}
}

func TestConnect_Disabled(t *testing.T) {
	cfg := testConfig("http://127.0.0.1:1")
	cfg.Enabled = false

	_, err := Connect(cfg)
	if !errors.Is(err, ErrDisabled) {
		t.Errorf("Connect() error = %v, want ErrDisabled", err)
	}
}

func TestConnect_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := Connect(testConfig(url))
	if !errors.Is(err, ErrConnectionFailed) {
		t.Errorf("Connect() error = %v, want ErrConnectionFailed", err)
	}
}

func TestAccessEventPoint(t *testing.T) {
	line := write.PointToLineProtocol(accessEventPoint(sampleEvent()), time.Nanosecond)

	for _, want := range []string{
		"access_event,",
		"kind=access",
		"result=denied",
		"sensor_id=sen-1",
		`sensor_uid=AA:BB:CC`,
		"permitted=0i",
		"count=1i",
		`event_id="evt-0001abcd"`,
		`note="card 42"`,
	} {
		if !strings.Contains(line, want) {
			t.Errorf("line protocol %q missing %q", line, want)
		}
	}
}

func TestEventRecorded_WritesPoint(t *testing.T) {
	srv, writes := fakeInflux(t)

	client, err := Connect(testConfig(srv.URL))
	if err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	defer client.Close()

	if err := client.HealthCheck(t.Context()); err != nil {
		t.Errorf("HealthCheck() error = %v", err)
	}

	client.EventRecorded(t.Context(), sampleEvent())
	client.Flush()

	select {
	case body := <-writes:
		if !strings.Contains(body, "access_event,") || !strings.Contains(body, "result=denied") {
			t.Errorf("write body = %q", body)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("no write received")
	}
}

func TestClose_StopsWrites(t *testing.T) {
	srv, _ := fakeInflux(t)

	client, err := Connect(testConfig(srv.URL))
	if err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	if err := client.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
	if client.IsConnected() {
		t.Error("IsConnected() = true after Close()")
	}
	if err := client.HealthCheck(t.Context()); !errors.Is(err, ErrNotConnected) {
		t.Errorf("HealthCheck() = %v, want ErrNotConnected", err)
	}

	// Must not panic or block.
	client.EventRecorded(t.Context(), sampleEvent())
	client.Flush()
}

func TestClose_Nil(t *testing.T) {
	if err := (&Client{}).Close(); err != nil {
		t.Errorf("Close() = %v", err)
	}
}
