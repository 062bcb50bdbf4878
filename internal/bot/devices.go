package bot

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/nerrad567/hubibot/internal/device"
)

// resolveTargets resolves the session's argument into devices within the
// user's groups, replying when there is nothing to act on.
func (b *Bot) resolveTargets(ctx context.Context, s *session) ([]*device.Device, error) {
	name := s.arg()
	if name == "" {
		s.text("Device name not specified.")
		return nil, nil
	}
	set, err := b.names.ResolveDevices(ctx, name, s.user.DeviceGroups)
	if err != nil {
		return nil, err
	}
	if len(set) == 0 {
		s.text("Device not found. '/l' to get list of devices.")
		return nil, nil
	}
	return set.Sorted(), nil
}

// actuator returns a handler sending a native command to every target that
// supports the exposed command of the same name.
func (b *Bot) actuator(cmd, done string) handlerFunc {
	return func(ctx context.Context, s *session) error {
		return b.actuate(ctx, s, cmd, cmd, nil, done)
	}
}

func (b *Bot) actuate(ctx context.Context, s *session, exposed, native string, args []string, done string) error {
	targets, err := b.resolveTargets(ctx, s)
	if err != nil {
		return err
	}
	for _, d := range targets {
		if !d.Supports(exposed) {
			s.md(fmt.Sprintf("Command %s not supported by device `%s`.", exposed, d.Label))
			s.md("Supported commands are: " + codeList(d.SupportedCommands) + ".")
			continue
		}
		b.logger.Info("sending command", "user_id", s.user.ID, "command", exposed, "device", d.String())
		if err := b.hub.SendCommand(ctx, d.ID, native, args...); err != nil {
			return fmt.Errorf("sending %s to %s: %w", native, d, err)
		}
		s.devices = append(s.devices, d)
		s.text(done, d.Label)
	}
	return nil
}

func (b *Bot) dim(ctx context.Context, s *session) error {
	if len(s.args) < 2 {
		s.text("Dim level and device name must be specified.")
		return nil
	}
	percent, ok := parsePercent(s.args[0])
	if !ok {
		s.text("Invalid dim level specified: must be an int between 0 and 100.")
		return nil
	}
	s.args = s.args[1:]
	level := strconv.Itoa(percent)
	return b.actuate(ctx, s, "dim", "setLevel", []string{level}, "Dimmed %s to "+level+"%%")
}

func parsePercent(s string) (int, bool) {
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 || n > 100 {
		return 0, false
	}
	return n, true
}

func (b *Bot) info(ctx context.Context, s *session) error {
	targets, err := b.resolveTargets(ctx, s)
	if err != nil {
		return err
	}
	for _, d := range targets {
		info, err := b.hub.DeviceInfo(ctx, d.ID)
		if err != nil {
			return fmt.Errorf("device info for %s: %w", d, err)
		}
		s.devices = append(s.devices, d)

		fields := info.Fields()
		if !s.admin() {
			fields = [][2]string{{"label", info.Label}}
		}
		fields = append(fields, [2]string{"supported_commands", strings.Join(d.SupportedCommands, ", ")})
		if d.Description != "" {
			fields = append(fields, [2]string{"description", d.Description})
		}

		lines := make([]string, len(fields))
		for i, f := range fields {
			lines[i] = fmt.Sprintf("*%s*: `%s`", f[0], f[1])
		}
		s.md(lines...)
	}
	return nil
}

func (b *Bot) status(ctx context.Context, s *session) error {
	targets, err := b.resolveTargets(ctx, s)
	if err != nil {
		return err
	}
	for _, d := range targets {
		attrs, err := b.hub.DeviceStatus(ctx, d.ID)
		if err != nil {
			return fmt.Errorf("device status for %s: %w", d, err)
		}
		s.devices = append(s.devices, d)

		lines := []string{fmt.Sprintf("Status for *%s*:", EscapeMarkdown(d.Label))}
		for _, a := range attrs {
			if a.DataType == "JSON_OBJECT" {
				continue
			}
			if s.admin() {
				lines = append(lines, fmt.Sprintf("*%s*: `%s` (%s)", a.Name, a.Value, a.DataType))
			} else {
				lines = append(lines, fmt.Sprintf("*%s*: `%s`", a.Name, a.Value))
			}
		}
		s.md(lines...)
	}
	return nil
}

// list shows the user's devices whose folded label contains the filter.
func (b *Bot) list(ctx context.Context, s *session) error {
	folder := b.names.Folder()
	filter := folder.Fold(s.arg())
	found := device.NewSet()
	for _, g := range s.user.DeviceGroups {
		devices, err := g.Devices(ctx)
		if err != nil {
			return err
		}
		for key, d := range devices {
			if strings.Contains(key, filter) {
				found.Add(d)
			}
		}
	}
	s.md(b.deviceLines(s, found.Sorted(), "")...)
	return nil
}

func (b *Bot) regexList(ctx context.Context, s *session) error {
	found, err := b.names.ResolveDevices(ctx, s.arg(), s.user.DeviceGroups)
	if err != nil {
		return err
	}
	s.md(b.deviceLines(s, found.Sorted(), "")...)
	return nil
}

// listGroups lists every enabled device group whose name contains the
// filter, with its devices.
func (b *Bot) listGroups(ctx context.Context, s *session) error {
	folder := b.names.Folder()
	filter := folder.Fold(s.arg())
	for _, g := range b.names.Groups() {
		if !strings.Contains(folder.Fold(g.Name()), filter) {
			continue
		}
		devices, err := g.Sorted(ctx)
		if err != nil {
			return err
		}
		s.md(b.deviceLines(s, devices, fmt.Sprintf("Devices in *%s*:", EscapeMarkdown(g.Name())))...)
	}
	return nil
}

// deviceLines renders a device listing. Admins also see ids and types.
func (b *Bot) deviceLines(s *session, devices []*device.Device, title string) []string {
	var lines []string
	if title != "" {
		lines = append(lines, title)
	}
	if len(devices) == 0 {
		return append(lines, "No devices.")
	}
	for _, d := range devices {
		label := EscapeMarkdown(d.Label)
		switch {
		case s.admin():
			lines = append(lines, strings.TrimSpace(fmt.Sprintf("%s: `%d` (%s) %s", label, d.ID, d.Type, EscapeMarkdown(d.Description))))
		case d.Description != "":
			lines = append(lines, label+": "+EscapeMarkdown(d.Description))
		default:
			lines = append(lines, label)
		}
	}
	return lines
}

func (b *Bot) refresh(_ context.Context, s *session) error {
	b.names.Refresh()
	s.text("Refresh completed.")
	return nil
}

func (b *Bot) listUsers(_ context.Context, s *session) error {
	row := func(id, level, group, devices string) string {
		return fmt.Sprintf("%-10s|%-8s|%-10s|%s", id, level, group, devices)
	}
	lines := []string{"```", row("Id", "Level", "UserGroup", "DeviceGroups"), "----------|--------|----------|------------"}
	for _, u := range b.users.All() {
		lines = append(lines, row(strconv.FormatInt(u.ID, 10), u.Level.String(), u.Group, strings.Join(u.GroupNames(), ", ")))
	}
	lines = append(lines, "```")
	s.md(lines...)
	return nil
}

func (b *Bot) exit(_ context.Context, s *session) error {
	if !strings.EqualFold(s.arg(), "yes") {
		s.text("Are you sure you want to exit the bot? Send /exit yes to confirm.")
		return nil
	}
	b.logger.Warn("shutdown requested", "user_id", s.user.ID)
	s.text("Terminating the bot.")
	b.shutdown()
	return nil
}

// codeList renders items as "`a`, `b`".
func codeList(items []string) string {
	if len(items) == 0 {
		return "none"
	}
	return "`" + strings.Join(items, "`, `") + "`"
}
