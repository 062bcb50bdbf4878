package alias

import (
	"errors"
	"testing"

	"github.com/nerrad567/hubibot/internal/fold"
)

// tableLookup returns a LookupFunc over a fixed table and records every name
// it was asked for.
func tableLookup(table map[string]int, calls *[]string) LookupFunc[int] {
	return func(name string) (int, bool, error) {
		*calls = append(*calls, name)
		v, ok := table[name]
		return v, ok, nil
	}
}

func mustResolver(t *testing.T, conf map[string][][]string, insensitive bool) *Resolver {
	t.Helper()
	r, err := NewResolver(conf, fold.New(insensitive))
	if err != nil {
		t.Fatalf("NewResolver() error = %v", err)
	}
	return r
}

func TestResolve_ExactFirst(t *testing.T) {
	r := mustResolver(t, map[string][][]string{
		"device": {{"^(.+)$", "other"}},
	}, true)
	var calls []string

	m, err := Resolve(r, DomainDevice, "Kitchen", tableLookup(map[string]int{"kitchen": 1, "other": 2}, &calls))
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if !m.Found() || m.Value != 1 || m.Stage != StageExact {
		t.Errorf("Resolve() = %+v, want exact hit on 1", m)
	}
	if len(calls) != 1 {
		t.Errorf("lookup called %d times, want 1", len(calls))
	}
}

func TestResolve_FirstMatchingRuleWins(t *testing.T) {
	r := mustResolver(t, map[string][][]string{
		"device": {
			{"^the (.+)$", `\1`},
			{"^the (.+)$", `\1 light`},
		},
	}, true)
	table := map[string]int{"lamp": 1, "lamp light": 2}
	var calls []string

	m, err := Resolve(r, DomainDevice, "The Lamp", tableLookup(table, &calls))
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if m.Value != 1 || m.Stage != StageAlias || m.Rule != 0 {
		t.Errorf("Resolve() = %+v, want rule 0 hit on 1", m)
	}
	for _, c := range calls {
		if c == "lamp light" {
			t.Error("second rule consulted after the first succeeded")
		}
	}
}

func TestResolve_RulesApplyToOriginalName(t *testing.T) {
	r := mustResolver(t, map[string][][]string{
		"device": {
			{"^the (.+)$", `\1`},
			{"^(.+)s$", `\1`},
		},
	}, true)
	var calls []string

	// "the lamps" -> rule 0 gives "lamps", rule 1 gives "the lamp".
	// Chaining would have produced "lamp", which must never be tried.
	m, err := Resolve(r, DomainDevice, "the lamps", tableLookup(map[string]int{"lamp": 1}, &calls))
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if m.Found() {
		t.Errorf("Resolve() = %+v, want not found", m)
	}
	want := []string{"the lamps", "lamps", "the lamp"}
	if len(calls) != len(want) {
		t.Fatalf("calls = %v, want %v", calls, want)
	}
	for i := range want {
		if calls[i] != want[i] {
			t.Errorf("calls[%d] = %q, want %q", i, calls[i], want[i])
		}
	}
}

func TestResolve_CaseSensitive(t *testing.T) {
	r := mustResolver(t, map[string][][]string{"mode": {{"^(.+) mode$", `\1`}}}, false)
	var calls []string
	table := map[string]int{"Night": 3}

	m, _ := Resolve(r, DomainMode, "night", tableLookup(table, &calls))
	if m.Found() {
		t.Errorf("case-sensitive resolve found %+v for different case", m)
	}
	m, _ = Resolve(r, DomainMode, "Night mode", tableLookup(table, &calls))
	if m.Value != 3 {
		t.Errorf("Resolve(Night mode) = %+v, want 3", m)
	}
}

func TestResolve_CaseInsensitivePatternAndReplacement(t *testing.T) {
	r := mustResolver(t, map[string][][]string{"alarm": {{"^AWAY$", "ArmAway"}}}, true)
	var calls []string

	m, _ := Resolve(r, DomainAlarm, "away", tableLookup(map[string]int{"armaway": 9}, &calls))
	if m.Value != 9 {
		t.Errorf("Resolve(away) = %+v, want 9", m)
	}
}

func TestResolve_NoRulesForDomain(t *testing.T) {
	r := mustResolver(t, nil, true)
	var calls []string

	m, err := Resolve(r, DomainMode, "x", tableLookup(nil, &calls))
	if err != nil || m.Found() {
		t.Errorf("Resolve() = %+v, %v; want not found", m, err)
	}
	if m.Stage != StageNotFound || m.Rule != -1 {
		t.Errorf("miss = %+v", m)
	}
}

func TestResolve_LookupErrorPropagates(t *testing.T) {
	r := mustResolver(t, nil, true)
	boom := errors.New("hub unreachable")

	_, err := Resolve(r, DomainDevice, "x", func(string) (int, bool, error) { return 0, false, boom })
	if !errors.Is(err, boom) {
		t.Errorf("Resolve() error = %v, want %v", err, boom)
	}
}

func TestResolveWithFallback(t *testing.T) {
	r := mustResolver(t, map[string][][]string{"device": {{"^the (.+)$", `\1`}}}, true)
	var calls, fallbacks []string

	fallback := func(name string) (int, bool, error) {
		fallbacks = append(fallbacks, name)
		return 42, name == "Lamp.*", nil
	}

	m, err := ResolveWithFallback(r, DomainDevice, "the Lamp.*", tableLookup(nil, &calls), fallback)
	if err != nil {
		t.Fatalf("ResolveWithFallback() error = %v", err)
	}
	if m.Value != 42 || m.Stage != StageFallback || m.Rule != 0 || m.Name != "Lamp.*" {
		t.Errorf("ResolveWithFallback() = %+v", m)
	}
	// Fallback sees the raw name first, and names are never folded.
	if len(fallbacks) != 2 || fallbacks[0] != "the Lamp.*" {
		t.Errorf("fallback calls = %v", fallbacks)
	}
}

func TestResolveWithFallback_NotReachedOnExactHit(t *testing.T) {
	r := mustResolver(t, nil, true)
	var calls []string
	reached := false

	_, _ = ResolveWithFallback(r, DomainDevice, "x", tableLookup(map[string]int{"x": 1}, &calls),
		func(string) (int, bool, error) { reached = true; return 0, false, nil })
	if reached {
		t.Error("fallback consulted after exact hit")
	}
}

func TestNewResolver_InvalidRules(t *testing.T) {
	tests := map[string][][]string{
		"bad pattern": {{"(", "x"}},
		"not a pair":  {{"^x$"}},
	}
	for name, rules := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := NewResolver(map[string][][]string{"device": rules}, fold.New(true))
			if !errors.Is(err, ErrInvalidRule) {
				t.Errorf("NewResolver() error = %v, want ErrInvalidRule", err)
			}
		})
	}
}

func TestCandidates(t *testing.T) {
	r := mustResolver(t, map[string][][]string{
		"device": {{"^the (.+)$", `\1`}, {"^x$", "y"}, {"^(.+)s$", `\1`}},
	}, true)

	got := r.Candidates(DomainDevice, "the lamps")
	want := []string{"lamps", "the lamp"}
	if len(got) != len(want) || got[0] != want[0] || got[1] != want[1] {
		t.Errorf("Candidates() = %v, want %v", got, want)
	}
}

func TestExpandTemplate(t *testing.T) {
	tests := map[string]string{
		`\1`:          "${1}",
		`\1 light`:    "${1} light",
		`\12`:         "${12}",
		`\g<room>-x`:  "${room}-x",
		`$1`:          "$1",
		`${room} x`:   "${room} x",
		`cost $$5`:    "cost $$5",
		`back\\slash`: `back\slash`,
		`plain`:       "plain",
		`\g<unclosed`: `\g<unclosed`,
	}
	for in, want := range tests {
		if got := expandTemplate(in); got != want {
			t.Errorf("expandTemplate(%q) = %q, want %q", in, got, want)
		}
	}
}
