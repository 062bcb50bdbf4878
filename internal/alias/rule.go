package alias

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/nerrad567/hubibot/internal/fold"
)

// Domain names a family of entities that share alias rules.
type Domain string

// Resolution domains understood by hubibot. The configuration key for each is
// hubitat.aliases.<domain>.
const (
	DomainDevice Domain = "device"
	DomainMode   Domain = "mode"
	DomainAlarm  Domain = "alarm"
)

// Rule is a single pattern/replacement pair.
type Rule struct {
	Pattern     *regexp.Regexp
	Replacement string
	// Source is the replacement as written in configuration.
	Source string
}

// Apply substitutes every match of the pattern in name. The second result is
// false when the pattern does not match at all.
func (r Rule) Apply(name string) (string, bool) {
	if !r.Pattern.MatchString(name) {
		return name, false
	}
	return r.Pattern.ReplaceAllString(name, r.Replacement), true
}

func (r Rule) String() string {
	return fmt.Sprintf("s/%s/%s/", r.Pattern, r.Source)
}

// compileRule builds a Rule from a configured [pattern, replacement] pair.
func compileRule(folder fold.Folder, pair []string) (Rule, error) {
	if len(pair) != 2 {
		return Rule{}, fmt.Errorf("%w: want [pattern, replacement], got %d elements", ErrInvalidRule, len(pair))
	}
	re, err := folder.Compile(pair[0])
	if err != nil {
		return Rule{}, fmt.Errorf("%w: %q: %w", ErrInvalidRule, pair[0], err)
	}
	return Rule{Pattern: re, Replacement: expandTemplate(pair[1]), Source: pair[1]}, nil
}

// expandTemplate rewrites a backslash-style replacement (\1, \g<name>) into
// regexp's ${1} form. Regexp references ($1, ${name}) pass through as
// written, so a literal '$' is spelled "$$".
func expandTemplate(s string) string {
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c == '\\' && i+1 < len(s) && isDigit(s[i+1]):
			j := i + 1
			for j < len(s) && isDigit(s[j]) {
				j++
			}
			b.WriteString("${" + s[i+1:j] + "}")
			i = j - 1
		case c == '\\' && strings.HasPrefix(s[i+1:], "g<"):
			end := strings.IndexByte(s[i+3:], '>')
			if end < 0 {
				b.WriteByte(c)
				continue
			}
			b.WriteString("${" + s[i+3:i+3+end] + "}")
			i += 3 + end
		case c == '\\' && i+1 < len(s) && s[i+1] == '\\':
			b.WriteByte('\\')
			i++
		default:
			b.WriteByte(c)
		}
	}
	return b.String()
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }
