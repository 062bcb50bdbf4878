package mqtt

import "strings"

// DefaultTopicPrefix is used when mqtt.topic_prefix is empty.
const DefaultTopicPrefix = "hubibot"

// Topics builds hubibot's MQTT topics under a configurable prefix.
//
//	<prefix>/status            online/offline, retained, also the LWT
//	<prefix>/command/<name>    one JSON event per executed chat command
//	<prefix>/refresh           any message drops the cached device list
type Topics struct {
	prefix string
}

// NewTopics returns topic builders for prefix. Surrounding slashes are
// trimmed.
func NewTopics(prefix string) Topics {
	prefix = strings.Trim(strings.TrimSpace(prefix), "/")
	if prefix == "" {
		prefix = DefaultTopicPrefix
	}
	return Topics{prefix: prefix}
}

// Prefix returns the topic prefix.
func (t Topics) Prefix() string {
	return t.prefix
}

// Status returns the retained online/offline status topic.
//
// Example: hubibot/status
func (t Topics) Status() string {
	return t.prefix + "/status"
}

// Command returns the topic command events for name are published to.
//
// Example: hubibot/command/on
func (t Topics) Command(name string) string {
	return t.prefix + "/command/" + name
}

// AllCommands returns a wildcard matching every command event topic.
//
// Example: hubibot/command/+
func (t Topics) AllCommands() string {
	return t.prefix + "/command/+"
}

// Refresh returns the topic that triggers a device list refresh.
//
// Example: hubibot/refresh
func (t Topics) Refresh() string {
	return t.prefix + "/refresh"
}
