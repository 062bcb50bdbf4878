package bot

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/nerrad567/hubibot/internal/auth"
	"github.com/nerrad567/hubibot/internal/device"
	"github.com/nerrad567/hubibot/internal/hubitat"
)

// Logger defines the logging interface used by Bot.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Hub is the part of the Maker API client the bot drives.
type Hub interface {
	SendCommand(ctx context.Context, id int, command string, args ...string) error
	DeviceInfo(ctx context.Context, id int) (*hubitat.DeviceInfo, error)
	DeviceStatus(ctx context.Context, id int) ([]hubitat.Attribute, error)
	DeviceEvents(ctx context.Context, id int) ([]hubitat.Event, error)
	Modes(ctx context.Context) ([]hubitat.Mode, error)
	SetMode(ctx context.Context, id int) error
	HSMStatus(ctx context.Context) (string, error)
	SetHSM(ctx context.Context, value string) error
}

// Message is an inbound chat message.
type Message struct {
	ChatID   int64
	UserID   int64
	UserName string
	Text     string
}

// Reply is an outbound chat message. Markdown replies use the transport's
// legacy Markdown formatting.
type Reply struct {
	Text     string
	Markdown bool
}

// Options configures a Bot.
type Options struct {
	Hub             Hub
	Names           *hubitat.Registry
	Users           *auth.Users
	RejectedMessage string
	DefaultTimezone string

	// Shutdown is called when an admin confirms /exit.
	Shutdown func()

	Sinks  []Sink
	Logger Logger
}

// Bot turns chat messages into hub operations.
//
// Thread Safety:
//   - Handle is safe for concurrent use. The command table and user
//     registry are read-only; per-user timezones are guarded.
type Bot struct {
	hub       Hub
	names     *hubitat.Registry
	users     *auth.Users
	rejected  string
	defaultTZ *time.Location
	commands  map[string]*command
	help      map[auth.AccessLevel][]string
	zones     *zoneStore
	sinks     []Sink
	shutdown  func()
	logger    Logger
	now       func() time.Time
}

// New builds a Bot. It fails if a required collaborator is missing or the
// default timezone is unknown.
func New(opts Options) (*Bot, error) {
	if opts.Hub == nil || opts.Names == nil || opts.Users == nil {
		return nil, ErrMissingDependency
	}
	tz := opts.DefaultTimezone
	if tz == "" {
		tz = "UTC"
	}
	loc, err := loadZone(tz)
	if err != nil {
		return nil, err
	}

	b := &Bot{
		hub:       opts.Hub,
		names:     opts.Names,
		users:     opts.Users,
		rejected:  opts.RejectedMessage,
		defaultTZ: loc,
		zones:     newZoneStore(),
		sinks:     opts.Sinks,
		shutdown:  opts.Shutdown,
		logger:    opts.Logger,
		now:       time.Now,
	}
	if b.logger == nil {
		b.logger = noopLogger{}
	}
	if b.shutdown == nil {
		b.shutdown = func() {}
	}
	b.commands, b.help = buildCommands(b)
	return b, nil
}

// session carries one inbound command through its handler.
type session struct {
	msg     Message
	user    *auth.User
	command string
	args    []string
	devices []*device.Device // devices acted on, for the command event
	replies []Reply
}

func (s *session) text(format string, a ...any) {
	s.replies = append(s.replies, Reply{Text: fmt.Sprintf(format, a...)})
}

func (s *session) md(lines ...string) {
	if len(lines) == 0 {
		return
	}
	s.replies = append(s.replies, Reply{Text: strings.Join(lines, "\n"), Markdown: true})
}

// arg returns the arguments joined by single spaces.
func (s *session) arg() string {
	return strings.Join(s.args, " ")
}

func (s *session) admin() bool {
	return s.user.HasAccess(auth.LevelAdmin)
}

// Handle processes one message and returns the replies to send, in order.
//
// Unknown principals get the rejected message. Text that is not a command
// gets the help listing. An unknown command and a command above the
// caller's level get the same reply.
func (b *Bot) Handle(ctx context.Context, msg Message) []Reply {
	if !b.users.Known(msg.UserID) {
		b.logger.Warn("unknown user attempting to use the bot", "user_id", msg.UserID, "user_name", msg.UserName)
		return []Reply{{Text: b.rejected}}
	}

	s := &session{msg: msg, user: b.users.Get(msg.UserID)}
	name, args, ok := parseCommand(msg.Text)
	if !ok {
		b.sendHelp(s)
		return s.replies
	}

	cmd, found := b.commands[name]
	if !found || !s.user.HasAccess(cmd.level) {
		if found {
			b.logger.Warn("command attempted without permission",
				"user_id", s.user.ID, "command", cmd.name(), "required", cmd.level.String())
		}
		b.unknown(s)
		return s.replies
	}

	s.command = cmd.name()
	s.args = args
	if err := cmd.run(ctx, s); err != nil {
		b.logger.Error("command failed", "user_id", s.user.ID, "command", s.command, "error", err)
		s.text("Internal error")
		return s.replies
	}
	b.emit(ctx, s)
	return s.replies
}

// parseCommand splits "/cmd@botname a b" into ("cmd", ["a", "b"]).
func parseCommand(text string) (string, []string, bool) {
	fields := strings.Fields(text)
	if len(fields) == 0 || !strings.HasPrefix(fields[0], "/") {
		return "", nil, false
	}
	name := strings.TrimPrefix(fields[0], "/")
	if i := strings.IndexByte(name, '@'); i >= 0 {
		name = name[:i]
	}
	return strings.ToLower(name), fields[1:], true
}

func (b *Bot) unknown(s *session) {
	s.text("Unknown command.")
	b.sendHelp(s)
}

func (b *Bot) sendHelp(s *session) {
	s.md(b.help[s.user.Level]...)
}

// emit delivers the command event of a completed command to every sink.
func (b *Bot) emit(ctx context.Context, s *session) {
	if len(b.sinks) == 0 {
		return
	}
	ev := CommandEvent{
		ID:        uuid.NewString(),
		Time:      b.now().UTC(),
		UserID:    s.user.ID,
		UserGroup: s.user.Group,
		Level:     s.user.Level,
		Command:   s.command,
		Args:      s.args,
	}
	for _, d := range s.devices {
		ev.Devices = append(ev.Devices, EventDevice{ID: d.ID, Label: d.Label})
	}
	for _, sink := range b.sinks {
		if err := sink.Record(ctx, ev); err != nil {
			b.logger.Warn("command event not recorded", "command", ev.Command, "error", err)
		}
	}
}
