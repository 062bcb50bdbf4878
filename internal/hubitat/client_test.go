package hubitat

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/nerrad567/hubibot/internal/infrastructure/config"
)

// fakeMakerAPI serves canned responses keyed by path and records requests.
type fakeMakerAPI struct {
	mu        sync.Mutex
	responses map[string]string
	requests  []string
	tokens    []string
}

func (f *fakeMakerAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, r.URL.Path)
	f.tokens = append(f.tokens, r.URL.Query().Get("access_token"))

	body, ok := f.responses[r.URL.Path]
	if !ok {
		http.Error(w, "no such endpoint", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write([]byte(body))
}

func (f *fakeMakerAPI) paths() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.requests...)
}

func (f *fakeMakerAPI) accessTokens() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.tokens...)
}

func newTestClient(t *testing.T, responses map[string]string) (*Client, *fakeMakerAPI) {
	t.Helper()
	api := &fakeMakerAPI{responses: responses}
	srv := httptest.NewServer(api)
	t.Cleanup(srv.Close)

	c, err := NewClient(config.HubitatConfig{URL: srv.URL, AppID: 12, Token: "secret", Timeout: 5})
	if err != nil {
		t.Fatalf("NewClient() error = %v", err)
	}
	return c, api
}

func TestNewClient_Placeholder(t *testing.T) {
	tests := []config.HubitatConfig{
		{URL: "http://ipaddress", AppID: 0},
		{URL: "http://ipaddress/", AppID: 5},
		{URL: "http://hub", AppID: 0},
		{URL: "", AppID: 5},
	}
	for _, cfg := range tests {
		if _, err := NewClient(cfg); !errors.Is(err, ErrNotConfigured) {
			t.Errorf("NewClient(%+v) error = %v, want ErrNotConfigured", cfg, err)
		}
	}
}

func TestClient_ListInventory(t *testing.T) {
	c, api := newTestClient(t, map[string]string{
		"/apps/api/12/devices/all": `[
			{"id": "1", "name": "Generic Z-Wave Dimmer", "label": "Kitchen Lamp", "type": "Dimmer", "commands": ["on", "off", "setLevel"]},
			{"id": 2, "name": "Lock", "label": "", "type": "Lock", "commands": [{"command": "lock"}, {"command": "unlock"}]}
		]`,
	})

	records, err := c.ListInventory(context.Background())
	if err != nil {
		t.Fatalf("ListInventory() error = %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("got %d records, want 2", len(records))
	}
	if records[0].ID != 1 || records[0].Label != "Kitchen Lamp" || len(records[0].Commands) != 3 {
		t.Errorf("records[0] = %+v", records[0])
	}
	if records[1].Label != "Lock" || records[1].Commands[1] != "unlock" {
		t.Errorf("records[1] = %+v (label should fall back to name)", records[1])
	}
	if tokens := api.accessTokens(); tokens[0] != "secret" {
		t.Errorf("access_token = %q, want secret", tokens[0])
	}
}

func TestClient_SendCommand(t *testing.T) {
	c, api := newTestClient(t, map[string]string{
		"/apps/api/12/devices/5/setLevel/40": `{}`,
		"/apps/api/12/devices/5/on":          `{}`,
	})
	ctx := context.Background()

	if err := c.SendCommand(ctx, 5, "setLevel", "40"); err != nil {
		t.Fatalf("SendCommand(setLevel) error = %v", err)
	}
	if err := c.SendCommand(ctx, 5, "on"); err != nil {
		t.Fatalf("SendCommand(on) error = %v", err)
	}
	if got := api.paths(); len(got) != 2 || got[0] != "/apps/api/12/devices/5/setLevel/40" {
		t.Errorf("requests = %v", got)
	}
}

func TestClient_APIError(t *testing.T) {
	c, _ := newTestClient(t, nil)

	err := c.SendCommand(context.Background(), 9, "on")
	if !errors.Is(err, ErrAPI) {
		t.Fatalf("SendCommand() error = %v, want ErrAPI", err)
	}
	if !strings.Contains(err.Error(), "404") {
		t.Errorf("error %q should include the status", err)
	}
	if strings.Contains(err.Error(), "secret") {
		t.Errorf("error %q leaks the access token", err)
	}
}

func TestClient_DeviceInfoAndStatus(t *testing.T) {
	c, _ := newTestClient(t, map[string]string{
		"/apps/api/12/devices/3": `{
			"id": "3", "name": "Dimmer", "label": "Hall", "type": "Generic Dimmer", "room": "Hall",
			"attributes": [
				{"name": "switch", "currentValue": "on", "dataType": "ENUM"},
				{"name": "level", "currentValue": 40, "dataType": "NUMBER"},
				{"name": "energy", "currentValue": null, "dataType": "NUMBER"}
			],
			"commands": ["on", "off"]
		}`,
	})
	ctx := context.Background()

	info, err := c.DeviceInfo(ctx, 3)
	if err != nil {
		t.Fatalf("DeviceInfo() error = %v", err)
	}
	if info.ID != 3 || info.Label != "Hall" || info.Room != "Hall" {
		t.Errorf("info = %+v", info)
	}
	if fields := info.Fields(); fields[2] != [2]string{"label", "Hall"} {
		t.Errorf("Fields() = %v", fields)
	}

	status, err := c.DeviceStatus(ctx, 3)
	if err != nil {
		t.Fatalf("DeviceStatus() error = %v", err)
	}
	want := []Attribute{
		{Name: "energy", Value: "", DataType: "NUMBER"},
		{Name: "level", Value: "40", DataType: "NUMBER"},
		{Name: "switch", Value: "on", DataType: "ENUM"},
	}
	if len(status) != len(want) {
		t.Fatalf("status = %+v", status)
	}
	for i := range want {
		if status[i] != want[i] {
			t.Errorf("status[%d] = %+v, want %+v", i, status[i], want[i])
		}
	}
}

func TestClient_DeviceEvents(t *testing.T) {
	c, _ := newTestClient(t, map[string]string{
		"/apps/api/12/devices/3/events": `[
			{"device_id": "3", "label": "Hall", "name": "switch", "value": "on", "date": "2022-02-03T04:02:32+0000"},
			{"device_id": 3, "label": "Hall", "name": "level", "value": 40, "unit": "%", "date": "2022-02-03T04:01:00+0100"}
		]`,
	})

	events, err := c.DeviceEvents(context.Background(), 3)
	if err != nil {
		t.Fatalf("DeviceEvents() error = %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("got %d events", len(events))
	}
	wantFirst := time.Date(2022, 2, 3, 4, 2, 32, 0, time.UTC)
	if !events[0].Date.Equal(wantFirst) {
		t.Errorf("events[0].Date = %v, want %v", events[0].Date, wantFirst)
	}
	if !events[1].Date.Equal(time.Date(2022, 2, 3, 3, 1, 0, 0, time.UTC)) {
		t.Errorf("events[1].Date = %v", events[1].Date)
	}
	if events[1].Value != "40" || events[1].Unit != "%" {
		t.Errorf("events[1] = %+v", events[1])
	}
}

func TestClient_ModesAndHSM(t *testing.T) {
	c, api := newTestClient(t, map[string]string{
		"/apps/api/12/modes":       `[{"id": 1, "name": "Day", "active": true}, {"id": "2", "name": "Night", "active": false}]`,
		"/apps/api/12/modes/2":     `{}`,
		"/apps/api/12/hsm":         `{"hsm": "disarmed"}`,
		"/apps/api/12/hsm/armAway": `{"hsm": "armingAway"}`,
	})
	ctx := context.Background()

	modes, err := c.Modes(ctx)
	if err != nil {
		t.Fatalf("Modes() error = %v", err)
	}
	if len(modes) != 2 || !modes[0].Active || modes[1].ID != 2 {
		t.Errorf("modes = %+v", modes)
	}
	if err := c.SetMode(ctx, 2); err != nil {
		t.Errorf("SetMode() error = %v", err)
	}

	state, err := c.HSMStatus(ctx)
	if err != nil || state != "disarmed" {
		t.Errorf("HSMStatus() = %q, %v", state, err)
	}
	if err := c.SetHSM(ctx, "armAway"); err != nil {
		t.Errorf("SetHSM() error = %v", err)
	}
	if paths := api.paths(); paths[len(paths)-1] != "/apps/api/12/hsm/armAway" {
		t.Errorf("last request = %q", paths[len(paths)-1])
	}
}

func TestClient_ContextCancelled(t *testing.T) {
	c, _ := newTestClient(t, map[string]string{"/apps/api/12/modes": `[]`})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := c.Modes(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("Modes() error = %v, want context.Canceled", err)
	}
}
