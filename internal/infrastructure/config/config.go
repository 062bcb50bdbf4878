package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the typed view of the resolved settings tree.
type Config struct {
	Main     MainConfig     `yaml:"main"`
	Logging  LoggingConfig  `yaml:"logging"`
	Telegram TelegramConfig `yaml:"telegram"`
	Hubitat  HubitatConfig  `yaml:"hubitat"`
	MQTT     MQTTConfig     `yaml:"mqtt"`
	InfluxDB InfluxDBConfig `yaml:"influxdb"`
	API      APIConfig      `yaml:"api"`
}

// MainConfig contains process-wide settings.
type MainConfig struct {
	DefaultTimezone string `yaml:"default_timezone"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

// TelegramConfig contains the chat transport settings and the user groups.
type TelegramConfig struct {
	Token             string                     `yaml:"token"`
	APIURL            string                     `yaml:"api_url"`
	PollTimeout       int                        `yaml:"poll_timeout"`
	RejectedMessage   string                     `yaml:"rejected_message"`
	EnabledUserGroups []string                   `yaml:"enabled_user_groups"`
	UserGroups        map[string]UserGroupConfig `yaml:"user_groups"`
}

// UserGroupConfig maps a set of chat principals to an access level and the
// device groups they may act on.
type UserGroupConfig struct {
	IDs          []int64  `yaml:"ids"`
	AccessLevel  string   `yaml:"access_level"`
	DeviceGroups []string `yaml:"device_groups"`
}

// HubitatConfig contains the hub connection and name resolution settings.
type HubitatConfig struct {
	URL                 string                       `yaml:"url"`
	AppID               int                          `yaml:"appid"`
	Token               string                       `yaml:"token"`
	Timeout             int                          `yaml:"timeout"`
	CaseInsensitive     bool                         `yaml:"case_insensitive"`
	DeviceNameSeparator string                       `yaml:"device_name_separator"`
	HSMArmValues        []string                     `yaml:"hsm_arm_values"`
	EnabledDeviceGroups []string                     `yaml:"enabled_device_groups"`
	DeviceGroups        map[string]DeviceGroupConfig `yaml:"device_groups"`
	// DeviceDescriptions is keyed by device id. Keys stay strings because
	// overlay layers may deliver them either way; see Descriptions.
	DeviceDescriptions map[string]string `yaml:"device_descriptions"`
	// Aliases maps a resolution domain (device, mode, alarm) to an ordered
	// list of [pattern, replacement] pairs.
	Aliases map[string][][]string `yaml:"aliases"`
}

// DeviceGroupConfig holds the allow and deny lists of a device group.
// An empty list means no restriction.
type DeviceGroupConfig struct {
	AllowedDeviceIDs  []int `yaml:"allowed_device_ids"`
	RejectedDeviceIDs []int `yaml:"rejected_device_ids"`
}

// MQTTConfig contains MQTT broker connection settings.
type MQTTConfig struct {
	Enabled     bool                `yaml:"enabled"`
	TopicPrefix string              `yaml:"topic_prefix"`
	Broker      MQTTBrokerConfig    `yaml:"broker"`
	Auth        MQTTAuthConfig      `yaml:"auth"`
	QoS         int                 `yaml:"qos"`
	Reconnect   MQTTReconnectConfig `yaml:"reconnect"`
}

// MQTTBrokerConfig contains MQTT broker connection details.
type MQTTBrokerConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	TLS      bool   `yaml:"tls"`
	ClientID string `yaml:"client_id"`
}

// MQTTAuthConfig contains MQTT authentication credentials.
type MQTTAuthConfig struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// MQTTReconnectConfig contains MQTT reconnection settings in seconds.
type MQTTReconnectConfig struct {
	InitialDelay int `yaml:"initial_delay"`
	MaxDelay     int `yaml:"max_delay"`
}

// InfluxDBConfig contains InfluxDB connection settings.
type InfluxDBConfig struct {
	Enabled       bool   `yaml:"enabled"`
	URL           string `yaml:"url"`
	Token         string `yaml:"token"`
	Org           string `yaml:"org"`
	Bucket        string `yaml:"bucket"`
	BatchSize     int    `yaml:"batch_size"`
	FlushInterval int    `yaml:"flush_interval"`
}

// APIConfig contains the admin HTTP API settings.
type APIConfig struct {
	Enabled   bool             `yaml:"enabled"`
	Host      string           `yaml:"host"`
	Port      int              `yaml:"port"`
	Timeouts  APITimeoutConfig `yaml:"timeouts"`
	JWTSecret string           `yaml:"jwt_secret"`
	TokenTTL  int              `yaml:"token_ttl"` // minutes
}

// APITimeoutConfig contains HTTP timeout settings in seconds.
type APITimeoutConfig struct {
	Read  int `yaml:"read"`
	Write int `yaml:"write"`
	Idle  int `yaml:"idle"`
}

// Load resolves the settings tree from the bundled template, the override
// file, the environment and args, then decodes and validates it.
//
// Parameters:
//   - args: command line arguments (HUBIBOT_<PATH>=value pairs are applied)
//   - logger: receives resolution diagnostics; may be nil
//
// Returns:
//   - *Config: validated configuration
//   - error: any configuration error; all are fatal at startup
func Load(args []string, logger Logger) (*Config, error) {
	tree, err := NewResolver(EnvPrefix, WithArgs(args), WithLogger(logger)).Load()
	if err != nil {
		return nil, err
	}
	cfg, err := Decode(tree)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Decode converts a resolved settings tree into a Config.
func Decode(tree Tree) (*Config, error) {
	data, err := yaml.Marshal(map[string]any(tree))
	if err != nil {
		return nil, fmt.Errorf("encoding settings: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	return &cfg, nil
}

// Validate checks the configuration for errors.
//
// All problems are collected and reported together. References between
// sections (user groups naming device groups, duplicate principal ids) are
// checked by the components that own them.
func (c *Config) Validate() error {
	var errs []string

	if _, err := time.LoadLocation(c.Main.DefaultTimezone); err != nil {
		errs = append(errs, fmt.Sprintf("main.default_timezone %q is not a known timezone", c.Main.DefaultTimezone))
	}

	h := c.Hubitat
	if h.URL == "" || h.URL == "http://ipaddress" || h.AppID <= 0 {
		errs = append(errs, "hubitat.url and hubitat.appid must be set")
	}
	if h.Token == "" {
		errs = append(errs, "hubitat.token is required (set HUBIBOT_HUBITAT_TOKEN)")
	}
	if h.DeviceNameSeparator == "" {
		errs = append(errs, "hubitat.device_name_separator must not be empty")
	}
	if len(h.EnabledDeviceGroups) == 0 {
		errs = append(errs, "hubitat.enabled_device_groups (or HUBIBOT_HUBITAT_ENABLED_DEVICE_GROUPS) must be set")
	}
	for _, name := range h.EnabledDeviceGroups {
		if _, ok := h.DeviceGroups[name]; !ok {
			errs = append(errs, fmt.Sprintf("device group %q is enabled but not defined", name))
		}
	}
	for id := range h.DeviceDescriptions {
		if _, err := strconv.Atoi(id); err != nil {
			errs = append(errs, fmt.Sprintf("hubitat.device_descriptions key %q is not a device id", id))
		}
	}
	for domain, rules := range h.Aliases {
		for i, rule := range rules {
			if len(rule) != 2 {
				errs = append(errs, fmt.Sprintf("hubitat.aliases.%s[%d] must be a [pattern, replacement] pair", domain, i))
			}
		}
	}

	t := c.Telegram
	if t.Token == "" {
		errs = append(errs, "telegram.token is required (set HUBIBOT_TELEGRAM_TOKEN)")
	}
	if len(t.EnabledUserGroups) == 0 {
		errs = append(errs, "telegram.enabled_user_groups (or HUBIBOT_TELEGRAM_ENABLED_USER_GROUPS) must be set")
	}
	for _, name := range t.EnabledUserGroups {
		if _, ok := t.UserGroups[name]; !ok {
			errs = append(errs, fmt.Sprintf("user group %q is enabled but not defined", name))
		}
	}

	if c.MQTT.Enabled && (c.MQTT.QoS < 0 || c.MQTT.QoS > 2) {
		errs = append(errs, "mqtt.qos must be 0, 1, or 2")
	}

	if c.InfluxDB.Enabled && (c.InfluxDB.URL == "" || c.InfluxDB.Org == "" || c.InfluxDB.Bucket == "") {
		errs = append(errs, "influxdb.url, influxdb.org and influxdb.bucket are required when influxdb is enabled")
	}

	const minJWTSecretLength = 32
	if c.API.Enabled {
		if c.API.Port < 1 || c.API.Port > 65535 {
			errs = append(errs, "api.port must be between 1 and 65535")
		}
		if len(c.API.JWTSecret) < minJWTSecretLength {
			errs = append(errs, "api.jwt_secret must be at least 32 characters when the api is enabled")
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalid, strings.Join(errs, "; "))
	}
	return nil
}

// Descriptions returns the device descriptions keyed by numeric id.
// Keys that are not integers are skipped; Validate reports them.
func (h HubitatConfig) Descriptions() map[int]string {
	out := make(map[int]string, len(h.DeviceDescriptions))
	for k, v := range h.DeviceDescriptions {
		id, err := strconv.Atoi(k)
		if err != nil {
			continue
		}
		out[id] = v
	}
	return out
}

// BaseURL returns the Maker API base URL, e.g. http://hub/apps/api/12.
func (h HubitatConfig) BaseURL() string {
	return fmt.Sprintf("%s/apps/api/%d", strings.TrimRight(h.URL, "/"), h.AppID)
}

// RequestTimeout returns the hub request timeout as a Duration.
func (h HubitatConfig) RequestTimeout() time.Duration {
	return time.Duration(h.Timeout) * time.Second
}

// GetReadTimeout returns the API read timeout as a Duration.
func (c *Config) GetReadTimeout() time.Duration {
	return time.Duration(c.API.Timeouts.Read) * time.Second
}

// GetWriteTimeout returns the API write timeout as a Duration.
func (c *Config) GetWriteTimeout() time.Duration {
	return time.Duration(c.API.Timeouts.Write) * time.Second
}

// GetIdleTimeout returns the API idle timeout as a Duration.
func (c *Config) GetIdleTimeout() time.Duration {
	return time.Duration(c.API.Timeouts.Idle) * time.Second
}
