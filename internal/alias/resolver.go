package alias

import (
	"fmt"
	"sort"
	"sync"

	"github.com/nerrad567/hubibot/internal/fold"
)

// Logger defines the logging interface used by Resolver.
type Logger interface {
	Debug(msg string, args ...any)
	Warn(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Warn(string, ...any)  {}

// Stage is a step of the resolution state machine.
//
//	Exact -> Alias[0..n) -> Fallback -> NotFound
//
// A successful lookup at any stage ends the resolution.
type Stage int

const (
	StageExact Stage = iota
	StageAlias
	StageFallback
	StageNotFound
)

func (s Stage) String() string {
	switch s {
	case StageExact:
		return "exact"
	case StageAlias:
		return "alias"
	case StageFallback:
		return "fallback"
	case StageNotFound:
		return "not_found"
	default:
		return fmt.Sprintf("stage(%d)", int(s))
	}
}

// LookupFunc looks up an entity by name. The bool result reports a hit; an
// error aborts the resolution and is returned to the caller unchanged.
type LookupFunc[T any] func(name string) (T, bool, error)

// Match is the outcome of a resolution.
type Match[T any] struct {
	Value T
	Stage Stage
	// Rule is the index of the alias rule that produced the hit, or -1.
	Rule int
	// Name is the candidate name that was looked up successfully.
	Name string
}

// Found reports whether the resolution produced a value.
func (m Match[T]) Found() bool {
	return m.Stage != StageNotFound
}

// Resolver holds the ordered alias rules of every domain.
//
// Thread Safety:
//   - Safe for concurrent use; rules are immutable after construction.
type Resolver struct {
	rules  map[Domain][]Rule
	folder fold.Folder
	logger Logger
	warned sync.Map // Domain -> struct{}
}

// NewResolver compiles the configured rules. conf maps a domain name to its
// [pattern, replacement] pairs in priority order. Patterns are compiled
// case-insensitively when folder folds.
func NewResolver(conf map[string][][]string, folder fold.Folder) (*Resolver, error) {
	r := &Resolver{
		rules:  make(map[Domain][]Rule, len(conf)),
		folder: folder,
		logger: noopLogger{},
	}
	domains := make([]string, 0, len(conf))
	for d := range conf {
		domains = append(domains, d)
	}
	sort.Strings(domains)

	for _, d := range domains {
		pairs := conf[d]
		rules := make([]Rule, 0, len(pairs))
		for i, pair := range pairs {
			rule, err := compileRule(folder, pair)
			if err != nil {
				return nil, fmt.Errorf("aliases.%s[%d]: %w", d, i, err)
			}
			rules = append(rules, rule)
		}
		r.rules[Domain(d)] = rules
	}
	return r, nil
}

// SetLogger sets the logger for the resolver.
func (r *Resolver) SetLogger(logger Logger) {
	if logger == nil {
		logger = noopLogger{}
	}
	r.logger = logger
}

// Folder returns the case folder the rules were compiled with.
func (r *Resolver) Folder() fold.Folder {
	return r.folder
}

// Rules returns the rules of a domain in priority order.
func (r *Resolver) Rules(d Domain) []Rule {
	return r.rules[d]
}

// Candidates returns the names produced by every rule of d that matches
// name, in rule order. Each rule is applied to name itself, never to the
// output of an earlier rule.
func (r *Resolver) Candidates(d Domain, name string) []string {
	subs := r.substitutions(d, name)
	out := make([]string, len(subs))
	for i, s := range subs {
		out[i] = s.name
	}
	return out
}

type substitution struct {
	name string
	rule int
}

func (r *Resolver) substitutions(d Domain, name string) []substitution {
	var out []substitution
	for i, rule := range r.rules[d] {
		if cand, ok := rule.Apply(name); ok {
			out = append(out, substitution{name: cand, rule: i})
		}
	}
	return out
}

// Resolve runs the exact and alias stages for name.
func Resolve[T any](r *Resolver, d Domain, name string, lookup LookupFunc[T]) (Match[T], error) {
	return ResolveWithFallback(r, d, name, lookup, nil)
}

// ResolveWithFallback resolves name through every stage:
//
//  1. lookup of the folded name
//  2. for each rule in order, lookup of the folded substitution of name
//  3. fallback of name, then of each substitution; fallback receives the
//     names unfolded
//
// The first hit wins; later stages and rules are never consulted. A miss at
// every stage is not an error: the returned Match has Stage StageNotFound.
func ResolveWithFallback[T any](r *Resolver, d Domain, name string, lookup, fallback LookupFunc[T]) (Match[T], error) {
	miss := Match[T]{Stage: StageNotFound, Rule: -1}
	stage := StageExact

	for {
		switch stage {
		case StageExact:
			v, ok, err := lookup(r.folder.Fold(name))
			if err != nil {
				return miss, err
			}
			if ok {
				return Match[T]{Value: v, Stage: StageExact, Rule: -1, Name: name}, nil
			}
			stage = StageAlias

		case StageAlias:
			rules := r.rules[d]
			if len(rules) == 0 {
				r.warnNoRules(d)
			}
			for i, rule := range rules {
				cand, matched := rule.Apply(name)
				if !matched {
					continue
				}
				r.logger.Debug("trying alias", "domain", d, "rule", rule.String(), "candidate", cand)
				v, ok, err := lookup(r.folder.Fold(cand))
				if err != nil {
					return miss, err
				}
				if ok {
					return Match[T]{Value: v, Stage: StageAlias, Rule: i, Name: cand}, nil
				}
			}
			stage = StageFallback

		case StageFallback:
			if fallback == nil {
				stage = StageNotFound
				continue
			}
			cands := append([]substitution{{name: name, rule: -1}}, r.substitutions(d, name)...)
			for _, cand := range cands {
				v, ok, err := fallback(cand.name)
				if err != nil {
					return miss, err
				}
				if ok {
					return Match[T]{Value: v, Stage: StageFallback, Rule: cand.rule, Name: cand.name}, nil
				}
			}
			stage = StageNotFound

		default:
			r.logger.Debug("name not found", "domain", d, "name", name)
			return miss, nil
		}
	}
}

func (r *Resolver) warnNoRules(d Domain) {
	if _, seen := r.warned.LoadOrStore(d, struct{}{}); !seen {
		r.logger.Warn("no aliases defined", "section", "hubitat.aliases."+string(d))
	}
}
