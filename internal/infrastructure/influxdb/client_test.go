package influxdb_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/nerrad567/hubibot/internal/infrastructure/config"
	"github.com/nerrad567/hubibot/internal/infrastructure/influxdb"
)

// fakeInflux answers /api/v2/ping and records /api/v2/write bodies.
type fakeInflux struct {
	mu          sync.Mutex
	writes      []string
	queries     []string
	auth        []string
	writeStatus int
}

func (f *fakeInflux) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	f.auth = append(f.auth, r.Header.Get("Authorization"))
	f.mu.Unlock()

	switch {
	case strings.HasSuffix(r.URL.Path, "/ping"):
		w.WriteHeader(http.StatusNoContent)
	case strings.HasSuffix(r.URL.Path, "/write"):
		body, _ := io.ReadAll(r.Body)
		f.mu.Lock()
		f.writes = append(f.writes, string(body))
		f.queries = append(f.queries, r.URL.RawQuery)
		status := f.writeStatus
		f.mu.Unlock()
		if status != 0 {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(status)
			_, _ = w.Write([]byte(`{"code":"invalid","message":"bad line"}`))
			return
		}
		w.WriteHeader(http.StatusNoContent)
	default:
		http.NotFound(w, r)
	}
}

func (f *fakeInflux) written() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.writes...)
}

func testConfig(url string) config.InfluxDBConfig {
	return config.InfluxDBConfig{
		Enabled:       true,
		URL:           url,
		Token:         "test-token",
		Org:           "home",
		Bucket:        "hubibot",
		BatchSize:     10,
		FlushInterval: 60,
	}
}

func connectFake(t *testing.T) (*influxdb.Client, *fakeInflux) {
	t.Helper()
	fake := &fakeInflux{}
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)

	client, err := influxdb.Connect(testConfig(srv.URL))
	if err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	t.Cleanup(func() { _ = client.Close() })
	return client, fake
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("condition not met before deadline")
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestConnect(t *testing.T) {
	client, fake := connectFake(t)

	if !client.IsConnected() {
		t.Error("IsConnected() = false after Connect()")
	}
	if err := client.HealthCheck(context.Background()); err != nil {
		t.Errorf("HealthCheck() error = %v", err)
	}
	fake.mu.Lock()
	defer fake.mu.Unlock()
	if len(fake.auth) == 0 || fake.auth[0] != "Token test-token" {
		t.Errorf("Authorization = %v", fake.auth)
	}
}

func TestConnect_Disabled(t *testing.T) {
	cfg := testConfig("http://127.0.0.1:1")
	cfg.Enabled = false
	if _, err := influxdb.Connect(cfg); !errors.Is(err, influxdb.ErrDisabled) {
		t.Errorf("Connect() error = %v, want ErrDisabled", err)
	}
}

func TestConnect_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	if _, err := influxdb.Connect(testConfig(url)); !errors.Is(err, influxdb.ErrConnectionFailed) {
		t.Errorf("Connect() error = %v, want ErrConnectionFailed", err)
	}
}

func TestWritePointWithTime(t *testing.T) {
	client, fake := connectFake(t)

	ts := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	client.WritePointWithTime("bot_commands",
		map[string]string{"command": "lock", "user_group": "family", "level": "SECURITY", "device": "4"},
		map[string]interface{}{"user_id": int64(20), "device_id": 4},
		ts)
	client.Flush()

	waitFor(t, func() bool { return len(fake.written()) > 0 })
	line := strings.TrimSpace(fake.written()[0])
	want := "bot_commands,command=lock,device=4,level=SECURITY,user_group=family device_id=4i,user_id=20i 1714564800000000000"
	if line != want {
		t.Errorf("line protocol =\n%s\nwant\n%s", line, want)
	}

	fake.mu.Lock()
	query := fake.queries[0]
	fake.mu.Unlock()
	if !strings.Contains(query, "bucket=hubibot") || !strings.Contains(query, "org=home") {
		t.Errorf("write query = %q", query)
	}
}

func TestWritePoint_AfterClose(t *testing.T) {
	client, fake := connectFake(t)
	if err := client.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	client.WritePoint("bot_commands", map[string]string{"command": "on"}, map[string]interface{}{"user_id": int64(1)})
	client.Flush()

	if got := fake.written(); len(got) != 0 {
		t.Errorf("points written after Close: %v", got)
	}
	if err := client.HealthCheck(context.Background()); !errors.Is(err, influxdb.ErrNotConnected) {
		t.Errorf("HealthCheck() error = %v, want ErrNotConnected", err)
	}
}

func TestSetOnError(t *testing.T) {
	client, fake := connectFake(t)
	fake.mu.Lock()
	fake.writeStatus = http.StatusBadRequest
	fake.mu.Unlock()

	var mu sync.Mutex
	var got []error
	client.SetOnError(func(err error) {
		mu.Lock()
		got = append(got, err)
		mu.Unlock()
	})

	client.WritePoint("bot_commands", map[string]string{"command": "on"}, map[string]interface{}{"user_id": int64(1)})
	client.Flush()

	waitFor(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(got) > 0
	})
}

func TestClose_Nil(t *testing.T) {
	var client *influxdb.Client
	if err := client.Close(); err != nil {
		t.Errorf("nil Close() error = %v", err)
	}
}
