package bot

import (
	"context"
	"fmt"
	"strings"
	"time"
)

const eventTimeLayout = "2006-01-02 15:04:05"

func (b *Bot) events(ctx context.Context, s *session) error {
	return b.deviceEvents(ctx, s, false)
}

func (b *Bot) lastEvent(ctx context.Context, s *session) error {
	return b.deviceEvents(ctx, s, true)
}

// deviceEvents renders the hub's recent events for each target in the
// user's timezone. The hub returns events newest first.
func (b *Bot) deviceEvents(ctx context.Context, s *session, lastOnly bool) error {
	targets, err := b.resolveTargets(ctx, s)
	if err != nil {
		return err
	}
	name, loc := b.userZone(s.user.ID)
	tz := EscapeMarkdown(name)

	for _, d := range targets {
		events, err := b.hub.DeviceEvents(ctx, d.ID)
		if err != nil {
			return fmt.Errorf("device events for %s: %w", d, err)
		}
		s.devices = append(s.devices, d)
		label := EscapeMarkdown(d.Label)

		if len(events) == 0 {
			s.md(fmt.Sprintf("No events for *%s*", label))
			continue
		}

		if lastOnly {
			ev := events[0]
			s.md(
				fmt.Sprintf("Last event for *%s*:", label),
				fmt.Sprintf("Time: `%s` (%s)", formatEventTime(ev.Date, loc), tz),
				"Name: "+EscapeMarkdown(ev.Name),
				"Value: "+EscapeMarkdown(ev.Value),
			)
			continue
		}

		row := func(date, name, value string) string {
			return fmt.Sprintf("%-20s|%-12s|%-10s", date, name, value)
		}
		lines := []string{fmt.Sprintf("Events for *%s*, timezone %s:", label, tz), "```", row("date", "name", "value")}
		for _, ev := range events {
			lines = append(lines, row(formatEventTime(ev.Date, loc), ev.Name, ev.Value))
		}
		lines = append(lines, "```")
		s.md(lines...)
	}
	return nil
}

func formatEventTime(t time.Time, loc *time.Location) string {
	if t.IsZero() {
		return ""
	}
	return t.In(loc).Format(eventTimeLayout)
}

// mode lists the hub's modes, after switching to the requested one if an
// argument is given.
func (b *Bot) mode(ctx context.Context, s *session) error {
	modes, err := b.hub.Modes(ctx)
	if err != nil {
		return fmt.Errorf("listing modes: %w", err)
	}

	if requested := s.arg(); requested != "" {
		m, ok := b.names.ResolveMode(requested, modes)
		if ok {
			b.logger.Info("setting mode", "user_id", s.user.ID, "mode", m.Name)
			if err := b.hub.SetMode(ctx, m.ID); err != nil {
				return fmt.Errorf("setting mode %s: %w", m.Name, err)
			}
			s.text("Mode changed to %s.", m.Name)
			return nil
		}
		s.text("Unknown mode.")
	}

	names := make([]string, len(modes))
	for i, m := range modes {
		names[i] = m.Name
		if m.Active {
			names[i] += " (*)"
		}
	}
	s.text("%s", strings.Join(names, ", "))
	return nil
}

// arm reports the HSM state, or requests a new arm state.
func (b *Bot) arm(ctx context.Context, s *session) error {
	requested := s.arg()
	if requested == "" {
		state, err := b.hub.HSMStatus(ctx)
		if err != nil {
			return fmt.Errorf("hsm status: %w", err)
		}
		s.text("State: %s", state)
		return nil
	}

	state, ok := b.names.ResolveAlarmState(requested)
	if !ok {
		s.text("Invalid arm state. Supported values: %s.", strings.Join(b.names.AlarmStates(), ", "))
		return nil
	}
	b.logger.Info("setting hsm", "user_id", s.user.ID, "state", state)
	if err := b.hub.SetHSM(ctx, state); err != nil {
		return fmt.Errorf("setting hsm %s: %w", state, err)
	}
	s.text("Arm request %s sent.", state)
	return nil
}

func (b *Bot) timezone(_ context.Context, s *session) error {
	requested := s.arg()
	if requested == "" {
		if loc, ok := b.zones.get(s.user.ID); ok {
			s.text("User timezone is: %s.", loc.String())
		} else {
			s.text("No timezone set for current user. Default timezone is %s.", b.defaultTZ.String())
		}
		return nil
	}

	loc, err := loadZone(requested)
	if err != nil {
		hits := matchingZones(requested)
		if len(hits) == 0 {
			hits = commonZones
		}
		if len(hits) > maxZoneSuggestions {
			hits = hits[:maxZoneSuggestions]
		}
		s.text("Invalid timezone. Valid timezones are: %s, ...", strings.Join(hits, ", "))
		return nil
	}
	b.zones.set(s.user.ID, loc)
	s.text("Timezone set")
	return nil
}

// userZone returns the user's timezone name and location, or the default.
func (b *Bot) userZone(id int64) (string, *time.Location) {
	loc, ok := b.zones.get(id)
	if !ok {
		loc = b.defaultTZ
	}
	return loc.String(), loc
}
