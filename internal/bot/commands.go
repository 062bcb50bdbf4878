package bot

import (
	"context"
	"strings"

	"github.com/nerrad567/hubibot/internal/auth"
)

type handlerFunc func(ctx context.Context, s *session) error

// command is one chat command with its aliases.
type command struct {
	names  []string // first is canonical
	params string
	help   string
	level  auth.AccessLevel
	run    handlerFunc
}

func (c *command) name() string {
	return c.names[0]
}

// helpLine renders "/dim, /d, /level `number name`: set device ...".
func (c *command) helpLine() string {
	var sb strings.Builder
	for i, n := range c.names {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString("/")
		sb.WriteString(n)
	}
	if c.params != "" {
		sb.WriteString(" `" + c.params + "`")
	}
	sb.WriteString(": " + c.help)
	return sb.String()
}

var helpHeaders = map[auth.AccessLevel]string{
	auth.LevelDevice:   "*Device commands*:",
	auth.LevelSecurity: "*Security commands*:",
	auth.LevelAdmin:    "*Admin commands*:",
}

// buildCommands returns the command table keyed by every name and alias,
// and the cumulative help listing per level: a level's listing is its own
// commands followed by the listing of the level below.
func buildCommands(b *Bot) (map[string]*command, map[auth.AccessLevel][]string) {
	table := []*command{
		{names: []string{"close"}, params: "name", help: "close device `name`", level: auth.LevelDevice, run: b.actuator("close", "Closed %s.")},
		{names: []string{"dim", "d", "level"}, params: "number name", help: "set device `name` to `number` percent", level: auth.LevelDevice, run: b.dim},
		{names: []string{"events", "e"}, params: "name", help: "get recent events for device `name`", level: auth.LevelSecurity, run: b.events},
		{names: []string{"exit", "x"}, help: "terminates the robot", level: auth.LevelAdmin, run: b.exit},
		{names: []string{"groups", "g"}, params: "filter", help: "get device groups, optionally filtering name by `filter`", level: auth.LevelAdmin, run: b.listGroups},
		{names: []string{"help", "h"}, help: "display help", level: auth.LevelNone, run: b.helpCommand},
		{names: []string{"arm", "a"}, params: "value", help: "get hsm arm status or arm to `value`", level: auth.LevelSecurity, run: b.arm},
		{names: []string{"info", "i"}, params: "name", help: "get info of device `name`", level: auth.LevelDevice, run: b.info},
		{names: []string{"lastevent", "le"}, params: "name", help: "get the last event for device `name`", level: auth.LevelSecurity, run: b.lastEvent},
		{names: []string{"list", "l"}, params: "filter", help: "get devices, optionally filtering name by `filter`", level: auth.LevelDevice, run: b.list},
		{names: []string{"regex", "rl"}, params: "filter", help: "get devices using regex `filter`", level: auth.LevelDevice, run: b.regexList},
		{names: []string{"lock"}, params: "name", help: "lock device `name`", level: auth.LevelSecurity, run: b.actuator("lock", "Locked %s.")},
		{names: []string{"mode", "m"}, params: "value", help: "lists modes or set mode to `value`", level: auth.LevelSecurity, run: b.mode},
		{names: []string{"off"}, params: "name", help: "turn off device `name`", level: auth.LevelDevice, run: b.actuator("off", "Turned off %s.")},
		{names: []string{"on"}, params: "name", help: "turn on device `name`", level: auth.LevelDevice, run: b.actuator("on", "Turned on %s.")},
		{names: []string{"open"}, params: "name", help: "open device `name`", level: auth.LevelDevice, run: b.actuator("open", "Opened %s.")},
		{names: []string{"refresh", "r"}, help: "refresh list of devices", level: auth.LevelAdmin, run: b.refresh},
		{names: []string{"status", "s"}, params: "name", help: "get status of device `name`", level: auth.LevelDevice, run: b.status},
		{names: []string{"timezone", "tz"}, params: "value", help: "get timezone or set it to `value`", level: auth.LevelSecurity, run: b.timezone},
		{names: []string{"unlock"}, params: "name", help: "unlock device `name`", level: auth.LevelSecurity, run: b.actuator("unlock", "Unlocked %s.")},
		{names: []string{"users", "u"}, help: "get users", level: auth.LevelAdmin, run: b.listUsers},
	}

	byName := make(map[string]*command, len(table)*2)
	own := make(map[auth.AccessLevel][]string)
	for _, c := range table {
		for _, n := range c.names {
			byName[n] = c
		}
		own[c.level] = append(own[c.level], c.helpLine())
	}

	help := make(map[auth.AccessLevel][]string)
	var below []string
	for _, lvl := range auth.Levels() {
		var lines []string
		if h, ok := helpHeaders[lvl]; ok {
			lines = append(lines, h)
		}
		lines = append(lines, own[lvl]...)
		lines = append(lines, below...)
		help[lvl] = lines
		below = lines
	}
	return byName, help
}

func (b *Bot) helpCommand(_ context.Context, s *session) error {
	b.sendHelp(s)
	return nil
}
