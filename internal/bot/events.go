package bot

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/nerrad567/hubibot/internal/auth"
)

// CommandEvent describes one executed command.
type CommandEvent struct {
	ID        string           `json:"id"`
	Time      time.Time        `json:"time"`
	UserID    int64            `json:"user_id"`
	UserGroup string           `json:"user_group"`
	Level     auth.AccessLevel `json:"level"`
	Command   string           `json:"command"`
	Args      []string         `json:"args,omitempty"`
	Devices   []EventDevice    `json:"devices,omitempty"`
}

// EventDevice identifies a device a command acted on.
type EventDevice struct {
	ID    int    `json:"id"`
	Label string `json:"label"`
}

// Sink receives command events. A failing sink is logged and does not
// affect the command or the other sinks.
type Sink interface {
	Record(ctx context.Context, ev CommandEvent) error
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(ctx context.Context, ev CommandEvent) error

// Record calls f.
func (f SinkFunc) Record(ctx context.Context, ev CommandEvent) error {
	return f(ctx, ev)
}

// Publisher is satisfied by the MQTT client.
type Publisher interface {
	Publish(topic string, payload []byte, qos byte, retained bool) error
}

// MQTTSink publishes each event as JSON to a per-command topic.
type MQTTSink struct {
	pub   Publisher
	topic func(command string) string
	qos   byte
}

// NewMQTTSink creates a sink publishing to topic(ev.Command).
func NewMQTTSink(pub Publisher, topic func(command string) string, qos byte) *MQTTSink {
	return &MQTTSink{pub: pub, topic: topic, qos: qos}
}

// Record publishes ev.
func (m *MQTTSink) Record(_ context.Context, ev CommandEvent) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("encoding command event: %w", err)
	}
	return m.pub.Publish(m.topic(ev.Command), payload, m.qos, false)
}

// PointWriter is satisfied by the InfluxDB client.
type PointWriter interface {
	WritePointWithTime(measurement string, tags map[string]string, fields map[string]interface{}, ts time.Time)
}

// CommandMeasurement is the InfluxDB measurement command events are
// written to.
const CommandMeasurement = "bot_commands"

// InfluxSink writes one point per device acted on, or a single point for
// commands without devices.
type InfluxSink struct {
	w PointWriter
}

// NewInfluxSink creates a sink writing to w.
func NewInfluxSink(w PointWriter) *InfluxSink {
	return &InfluxSink{w: w}
}

// Record writes ev. Writes are batched by the client, so errors surface
// asynchronously there.
func (s *InfluxSink) Record(_ context.Context, ev CommandEvent) error {
	tags := map[string]string{
		"command":    ev.Command,
		"user_group": ev.UserGroup,
		"level":      ev.Level.String(),
	}
	if len(ev.Devices) == 0 {
		s.w.WritePointWithTime(CommandMeasurement, tags, map[string]interface{}{
			"user_id": ev.UserID,
		}, ev.Time)
		return nil
	}
	for _, d := range ev.Devices {
		t := make(map[string]string, len(tags)+1)
		for k, v := range tags {
			t[k] = v
		}
		t["device"] = strconv.Itoa(d.ID)
		s.w.WritePointWithTime(CommandMeasurement, t, map[string]interface{}{
			"user_id":   ev.UserID,
			"device_id": d.ID,
		}, ev.Time)
	}
	return nil
}
