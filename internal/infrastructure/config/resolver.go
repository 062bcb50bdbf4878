package config

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// EnvPrefix is the prefix of every environment variable and command line
// override understood by hubibot.
const EnvPrefix = "HUBIBOT"

// DefaultOverridePath is the override file used when <PREFIX>_CONFIG_FILE is
// not set.
const DefaultOverridePath = "config.yaml"

//go:embed template.yaml
var bundledTemplate []byte

// Logger is the logging interface used while resolving configuration.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}

// DynamicSection describes a section whose children are chosen by another
// settings key rather than fixed by the template.
//
// For Parent=["hubitat"], Enabled="enabled_device_groups",
// Section="device_groups" and Prototype="default", every name listed in
// hubitat.enabled_device_groups that is missing from hubitat.device_groups is
// created from the template's hubitat.device_groups.default entry, and its
// leaves are then overridden from HUBIBOT_HUBITAT_DEVICE_GROUPS_<NAME>_<KEY>.
type DynamicSection struct {
	Parent    []string
	Enabled   string
	Section   string
	Prototype string
}

// DefaultDynamicSections are the dynamically-keyed sections of hubibot's
// settings tree.
var DefaultDynamicSections = []DynamicSection{
	{Parent: []string{"hubitat"}, Enabled: "enabled_device_groups", Section: "device_groups", Prototype: "default"},
	{Parent: []string{"telegram"}, Enabled: "enabled_user_groups", Section: "user_groups", Prototype: "default"},
}

// source looks up a fully-qualified override name.
type source func(name string) (string, bool)

// Resolver builds the settings tree from its layers:
// template < override file < environment < command line.
//
// A Resolver is single use and not safe for concurrent Load calls.
type Resolver struct {
	prefix      string
	template    []byte
	overridePth string
	args        []string
	lookupEnv   func(string) (string, bool)
	dynamic     []DynamicSection
	logger      Logger
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithTemplate replaces the bundled template document.
func WithTemplate(doc []byte) Option {
	return func(r *Resolver) { r.template = doc }
}

// WithOverridePath sets the override file used when neither the environment
// nor the command line names one.
func WithOverridePath(path string) Option {
	return func(r *Resolver) { r.overridePth = path }
}

// WithArgs supplies command line arguments. Arguments that are not of the
// form <PREFIX>_<PATH>=value are ignored.
func WithArgs(args []string) Option {
	return func(r *Resolver) { r.args = args }
}

// WithEnv replaces os.LookupEnv, mainly for tests.
func WithEnv(lookup func(string) (string, bool)) Option {
	return func(r *Resolver) { r.lookupEnv = lookup }
}

// WithDynamicSections sets the dynamically-keyed sections.
func WithDynamicSections(sections ...DynamicSection) Option {
	return func(r *Resolver) { r.dynamic = sections }
}

// WithLogger sets the logger used to report the resolution.
func WithLogger(logger Logger) Option {
	return func(r *Resolver) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// NewResolver creates a Resolver for the given variable prefix. By default it
// uses the bundled template, os.LookupEnv and DefaultDynamicSections.
func NewResolver(prefix string, opts ...Option) *Resolver {
	r := &Resolver{
		prefix:      strings.ToUpper(prefix),
		template:    bundledTemplate,
		overridePth: DefaultOverridePath,
		lookupEnv:   os.LookupEnv,
		dynamic:     DefaultDynamicSections,
		logger:      noopLogger{},
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Load resolves the settings tree.
//
// A missing or unparsable template is a packaging error and is returned as
// ErrTemplateMissing / ErrTemplateInvalid. A missing override file only logs
// a warning; a malformed one is an error.
func (r *Resolver) Load() (Tree, error) {
	if len(r.template) == 0 {
		return nil, ErrTemplateMissing
	}
	template, err := decodeTree(r.template)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrTemplateInvalid, err)
	}

	tree := template.Copy()
	cli := r.parseArgs()

	path := r.overridePath(cli)
	r.logger.Info("config override file", "path", path)
	override, err := readOverride(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		r.logger.Warn("config override file not found, using defaults", "path", path)
	case err != nil:
		return nil, err
	default:
		Merge(tree, override)
	}

	env := r.envSource()
	r.overlay(tree, r.prefix, env, "env")
	r.overlay(tree, r.prefix, cli.lookup, "args")

	for _, ds := range r.dynamic {
		r.realise(tree, template, ds, env, cli.lookup)
	}

	return tree, nil
}

// overridePath picks the override file: command line, then environment,
// then the configured default.
func (r *Resolver) overridePath(cli cliArgs) string {
	name := r.prefix + "_CONFIG_FILE"
	if v, ok := cli.lookup(name); ok {
		return v
	}
	if v, ok := r.lookupEnv(name); ok && v != "" {
		return v
	}
	return r.overridePth
}

func (r *Resolver) envSource() source {
	return func(name string) (string, bool) {
		v, ok := r.lookupEnv(name)
		if !ok || v == "" {
			return "", false
		}
		return v, true
	}
}

// overlay replaces every scalar leaf of t whose fully-qualified name is
// present in src.
func (r *Resolver) overlay(t Tree, prefix string, src source, layer string) {
	for _, k := range t.Keys() {
		name := envName(prefix, k)
		if sub, ok := t[k].(Tree); ok {
			r.overlay(sub, name, src, layer)
			continue
		}
		raw, ok := src(name)
		if !ok {
			continue
		}
		t[k] = r.literal(name, raw)
		r.logger.Debug("config value overridden", "key", name, "layer", layer)
	}
}

func (r *Resolver) literal(name, raw string) any {
	v, err := ParseLiteral(raw)
	if err != nil {
		r.logger.Warn("treating config value as string", "key", name, "reason", err)
	}
	return v
}

// realise creates the enabled-but-undefined children of a dynamic section.
func (r *Resolver) realise(tree, template Tree, ds DynamicSection, env, cli source) {
	parent := tree.Section(ds.Parent...)
	if parent == nil {
		return
	}
	names := stringList(parent[ds.Enabled])
	if len(names) == 0 {
		return
	}
	// "a,b" from the environment is accepted as well as "['a', 'b']".
	enabled := make([]any, len(names))
	for i, n := range names {
		enabled[i] = n
	}
	parent[ds.Enabled] = enabled

	section, ok := parent[ds.Section].(Tree)
	if !ok {
		section = Tree{}
		parent[ds.Section] = section
	}

	protoPath := append(append(append([]string{}, ds.Parent...), ds.Section), ds.Prototype)
	proto := template.Section(protoPath...)

	base := append(append([]string{}, ds.Parent...), ds.Section)
	for _, name := range names {
		if _, exists := section[name]; exists {
			continue
		}
		entry := proto.Copy()
		if entry == nil {
			entry = Tree{}
		}
		prefix := envName(r.prefix, append(append([]string{}, base...), name)...)
		r.overlay(entry, prefix, env, "env")
		r.overlay(entry, prefix, cli, "args")
		section[name] = entry
		r.logger.Info("config dynamic entry created", "section", strings.Join(base, "."), "name", name)
	}
}

// cliArgs holds <PREFIX>_<PATH>=value arguments keyed by upper-cased name.
type cliArgs map[string]string

func (c cliArgs) lookup(name string) (string, bool) {
	v, ok := c[name]
	return v, ok
}

func (r *Resolver) parseArgs() cliArgs {
	out := make(cliArgs)
	for _, arg := range r.args {
		name, value, ok := strings.Cut(arg, "=")
		if !ok {
			r.logger.Debug("ignoring argument without '='", "arg", name)
			continue
		}
		name = strings.ToUpper(strings.TrimSpace(name))
		if !strings.HasPrefix(name, r.prefix+"_") {
			r.logger.Debug("ignoring argument without prefix", "arg", name)
			continue
		}
		out[name] = value
	}
	return out
}

func readOverride(path string) (Tree, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, err
		}
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	tree, err := decodeTree(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrOverrideInvalid, path, err)
	}
	return tree, nil
}

// decodeTree parses a YAML document into a Tree. An empty document yields an
// empty tree.
func decodeTree(data []byte) (Tree, error) {
	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, err
	}
	if raw == nil {
		return Tree{}, nil
	}
	return normalise(raw).(Tree), nil
}
